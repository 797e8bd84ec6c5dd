package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lockboxlabs/bondvault/internal/domain"
	"github.com/lockboxlabs/bondvault/internal/server/middleware"
	"github.com/lockboxlabs/bondvault/internal/service"
)

// Issuer defines the issuance methods that the bond handler requires.
type Issuer interface {
	Issue(ctx context.Context, caller domain.Caller, asset string, amount uint64, maturity int64) (uint64, error)
}

// Redeemer defines the redemption methods that the bond handler requires.
type Redeemer interface {
	Redeem(ctx context.Context, caller domain.Caller, bondID, amount uint64) (service.RedemptionResult, error)
}

// Unlocker defines the unlock methods that the bond handler requires.
type Unlocker interface {
	Unlock(ctx context.Context, caller domain.Caller, bondID uint64) error
}

// BondReader defines the read-only queries that the bond handler requires.
type BondReader interface {
	Get(ctx context.Context, bondID uint64) (domain.Bond, error)
	List(ctx context.Context, opts domain.ListOpts) ([]domain.Bond, error)
	Claim(ctx context.Context, account string, bondID uint64) (uint64, error)
}

// BondHandler serves bond lifecycle HTTP endpoints.
type BondHandler struct {
	issuer   Issuer
	redeemer Redeemer
	unlocker Unlocker
	reader   BondReader
	logger   *slog.Logger
}

// NewBondHandler creates a BondHandler with the given services and logger.
func NewBondHandler(issuer Issuer, redeemer Redeemer, unlocker Unlocker, reader BondReader, logger *slog.Logger) *BondHandler {
	return &BondHandler{
		issuer:   issuer,
		redeemer: redeemer,
		unlocker: unlocker,
		reader:   reader,
		logger:   logger,
	}
}

type issueRequest struct {
	Asset    string `json:"asset"`
	Amount   uint64 `json:"amount"`
	Maturity int64  `json:"maturity"` // unix milliseconds
}

// Issue creates a new bond, escrowing the caller's collateral.
// POST /api/bonds
func (h *BondHandler) Issue(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req issueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Asset == "" {
		writeError(w, http.StatusBadRequest, "missing asset")
		return
	}

	id, err := h.issuer.Issue(r.Context(), caller, req.Asset, req.Amount, req.Maturity)
	if err != nil {
		writeDomainError(w, r, h.logger, "issue bond", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"bond_id":  id,
		"asset":    req.Asset,
		"amount":   req.Amount,
		"maturity": req.Maturity,
	})
}

type redeemRequest struct {
	Amount uint64 `json:"amount"`
}

// Redeem pays out part or all of a matured bond to the caller.
// POST /api/bonds/{id}/redeem
func (h *BondHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid bond id")
		return
	}

	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.redeemer.Redeem(r.Context(), caller, id, req.Amount)
	if err != nil {
		writeDomainError(w, r, h.logger, "redeem bond", err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// Unlock moves a bond's maturity to now, opening it for redemption.
// POST /api/bonds/{id}/unlock
func (h *BondHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid bond id")
		return
	}

	if err := h.unlocker.Unlock(r.Context(), caller, id); err != nil {
		writeDomainError(w, r, h.logger, "unlock bond", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bond_id":  id,
		"unlocked": true,
	})
}

// List returns outstanding bonds, paginated.
// GET /api/bonds
func (h *BondHandler) List(w http.ResponseWriter, r *http.Request) {
	bonds, err := h.reader.List(r.Context(), parseListOpts(r))
	if err != nil {
		writeDomainError(w, r, h.logger, "list bonds", err)
		return
	}

	if bonds == nil {
		bonds = []domain.Bond{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bonds": bonds,
		"count": len(bonds),
	})
}

// Get returns a single bond by ID. When the request is authenticated the
// response includes the caller's claim against the bond.
// GET /api/bonds/{id}
func (h *BondHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid bond id")
		return
	}

	bond, err := h.reader.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, h.logger, "get bond", err)
		return
	}

	resp := map[string]any{"bond": bond}
	if caller, ok := middleware.CallerFrom(r.Context()); ok {
		claim, err := h.reader.Claim(r.Context(), caller.Account, id)
		if err != nil {
			writeDomainError(w, r, h.logger, "get claim", err)
			return
		}
		resp["claim"] = claim
	}

	writeJSON(w, http.StatusOK, resp)
}
