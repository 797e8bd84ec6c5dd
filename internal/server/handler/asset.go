package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lockboxlabs/bondvault/internal/domain"
	"github.com/lockboxlabs/bondvault/internal/server/middleware"
)

// SolvencyReader reports the escrow position for an asset.
type SolvencyReader interface {
	Solvency(ctx context.Context, asset string) (domain.SolvencyReport, error)
}

// Depositor defines the ledger mutations that the asset handler requires.
type Depositor interface {
	Deposit(ctx context.Context, caller domain.Caller, asset, account string, amount uint64) error
	Balance(ctx context.Context, asset, account string) (uint64, error)
}

// AssetHandler serves asset ledger HTTP endpoints.
type AssetHandler struct {
	solvency SolvencyReader
	ledger   Depositor
	logger   *slog.Logger
}

// NewAssetHandler creates an AssetHandler with the given services and logger.
func NewAssetHandler(solvency SolvencyReader, ledger Depositor, logger *slog.Logger) *AssetHandler {
	return &AssetHandler{solvency: solvency, ledger: ledger, logger: logger}
}

// Solvency compares an asset's escrow balance against outstanding bond
// principal.
// GET /api/assets/{id}/solvency
func (h *AssetHandler) Solvency(w http.ResponseWriter, r *http.Request) {
	asset := r.PathValue("id")
	if asset == "" {
		writeError(w, http.StatusBadRequest, "missing asset id")
		return
	}

	report, err := h.solvency.Solvency(r.Context(), asset)
	if err != nil {
		writeDomainError(w, r, h.logger, "asset solvency", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"report":  report,
		"solvent": report.Solvent(),
	})
}

type depositRequest struct {
	Account string `json:"account"`
	Amount  uint64 `json:"amount"`
}

// Deposit mints balance into an account. Privileged callers only.
// POST /api/assets/{id}/deposit
func (h *AssetHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	asset := r.PathValue("id")
	if asset == "" {
		writeError(w, http.StatusBadRequest, "missing asset id")
		return
	}

	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Account == "" {
		writeError(w, http.StatusBadRequest, "missing account")
		return
	}

	if err := h.ledger.Deposit(r.Context(), caller, asset, req.Account, req.Amount); err != nil {
		writeDomainError(w, r, h.logger, "deposit", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"asset":   asset,
		"account": req.Account,
		"amount":  req.Amount,
	})
}

// Balance returns the balance of an account in an asset.
// GET /api/assets/{id}/balances/{account}
func (h *AssetHandler) Balance(w http.ResponseWriter, r *http.Request) {
	asset := r.PathValue("id")
	account := r.PathValue("account")
	if asset == "" || account == "" {
		writeError(w, http.StatusBadRequest, "missing asset or account")
		return
	}

	balance, err := h.ledger.Balance(r.Context(), asset, account)
	if err != nil {
		writeDomainError(w, r, h.logger, "balance", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"asset":   asset,
		"account": account,
		"balance": balance,
	})
}
