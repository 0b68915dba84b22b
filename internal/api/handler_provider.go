package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/fastprodman/wagerledger/internal/repos/bets"
	"github.com/fastprodman/wagerledger/internal/services/history"
	"github.com/fastprodman/wagerledger/internal/services/ledger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type Ledger interface {
	PlaceBet(ctx context.Context, req ledger.PlaceBetRequest) (ledger.BetOutcome, error)
	GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error)
	AdjustBalance(ctx context.Context, req ledger.AdjustRequest) (decimal.Decimal, error)
	Multipliers() []ledger.Multiplier
}

type History interface {
	GetRecentBets(ctx context.Context, accountID string, limit int) ([]bets.Record, error)
	Summarize(ctx context.Context, accountID string, limit int) (history.Summary, error)
}

// HandlerProvider exposes the ledger and history over HTTP.
type HandlerProvider struct {
	ledger  Ledger
	history History
	log     *zap.Logger
}

func NewHandler(l Ledger, h History, log *zap.Logger) *HandlerProvider {
	return &HandlerProvider{ledger: l, history: h, log: log}
}

// --- Helpers ---

func (h *HandlerProvider) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		h.log.Error("failed to encode JSON response", zap.Error(err))
	}
}

func (h *HandlerProvider) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps ledger and history errors onto status codes.
func (h *HandlerProvider) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidAccount):
		h.writeError(w, http.StatusBadRequest, "invalid accountId")
	case errors.Is(err, ledger.ErrInvalidStake),
		errors.Is(err, ledger.ErrInvalidMultiplier),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidIdempotencyKey):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds):
		h.writeError(w, http.StatusConflict, "insufficient funds")
	case errors.Is(err, ledger.ErrContention):
		w.Header().Set("Retry-After", "1")
		h.writeError(w, http.StatusConflict, "account busy, retry with the same idempotency key")
	case errors.Is(err, ledger.ErrIdempotencyConflict):
		h.writeError(w, http.StatusUnprocessableEntity, "idempotency key already used for a different bet")
	case errors.Is(err, ledger.ErrUnavailable), errors.Is(err, history.ErrUnavailable):
		w.Header().Set("Retry-After", "1")
		h.writeError(w, http.StatusServiceUnavailable, "service unavailable")
	default:
		h.log.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeBody reads a bounded JSON body and rejects unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}

		return errors.New("invalid JSON")
	}

	return nil
}

func parseMoney(field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("%s required", field)
	}

	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid %s", field)
	}

	return v, nil
}

// formatMoney renders cents with two decimals and finer values exactly.
func formatMoney(d decimal.Decimal) string {
	if d.Equal(d.Round(2)) {
		return d.StringFixed(2)
	}

	return d.String()
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.New("limit must be a positive integer")
	}

	return n, nil
}

func accountIDFromPath(r *http.Request) string {
	return chi.URLParam(r, "accountId")
}
