package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lockboxlabs/bondvault/internal/domain"
)

func authedMux(keys map[string]domain.Caller) (http.Handler, *domain.Caller) {
	var seen domain.Caller
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, ok := CallerFrom(r.Context()); ok {
			seen = c
		}
		w.WriteHeader(http.StatusOK)
	})
	return Auth(keys)(inner), &seen
}

func TestAuthDisabledPassesThrough(t *testing.T) {
	h, _ := authedMux(nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAuthRejectsMissingToken(t *testing.T) {
	h, _ := authedMux(map[string]domain.Caller{"k1": {Account: "alice"}})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthRejectsUnknownToken(t *testing.T) {
	h, _ := authedMux(map[string]domain.Caller{"k1": {Account: "alice"}})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", "wrong")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthResolvesCallerFromBearer(t *testing.T) {
	h, seen := authedMux(map[string]domain.Caller{
		"k1": {Account: "alice"},
		"k2": {Account: "ops", Privileged: true},
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer k2")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ops", seen.Account)
	assert.True(t, seen.Privileged)
}

func TestAuthResolvesCallerFromAPIKeyHeader(t *testing.T) {
	h, seen := authedMux(map[string]domain.Caller{"k1": {Account: "alice"}})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", "k1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "alice", seen.Account)
	assert.False(t, seen.Privileged)
}
