package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/lockboxlabs/bondvault/internal/domain"
)

// ctxKey is a private type for request-context keys set by this package.
type ctxKey int

const callerKey ctxKey = iota

// CallerFrom returns the authenticated caller stored in the request context
// by the Auth middleware. ok is false when the request was not authenticated
// (auth disabled or the route is public).
func CallerFrom(ctx context.Context) (domain.Caller, bool) {
	c, ok := ctx.Value(callerKey).(domain.Caller)
	return c, ok
}

// WithCaller returns a context carrying the given caller, as if the request
// had been authenticated by Auth.
func WithCaller(ctx context.Context, c domain.Caller) context.Context {
	return context.WithValue(ctx, callerKey, c)
}

// Auth returns middleware that resolves API keys into callers. A request
// presents its key either as a Bearer token in the Authorization header or
// in the X-API-Key header; the matching entry in keys determines the
// caller's account and privilege level. With an empty key table
// authentication is disabled and requests pass through anonymously.
func Auth(lookup map[string]domain.Caller) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(lookup) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			token := extractToken(r)
			if token == "" {
				writeUnauthorized(w, "missing authentication token")
				return
			}

			caller, ok := resolveCaller(lookup, token)
			if !ok {
				writeUnauthorized(w, "invalid authentication token")
				return
			}

			ctx := context.WithValue(r.Context(), callerKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// resolveCaller scans the key table with constant-time comparison per entry
// so that lookup timing does not reveal key prefixes.
func resolveCaller(lookup map[string]domain.Caller, token string) (domain.Caller, bool) {
	var (
		found  bool
		caller domain.Caller
	)
	for key, c := range lookup {
		if subtle.ConstantTimeCompare([]byte(key), []byte(token)) == 1 {
			found = true
			caller = c
		}
	}
	return caller, found
}

// extractToken looks for a token in the Authorization header (Bearer scheme)
// or in the X-API-Key header.
func extractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if key := r.Header.Get("X-API-Key"); key != "" {
		return strings.TrimSpace(key)
	}
	return ""
}

// writeUnauthorized sends a 401 response with a JSON error body.
func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
