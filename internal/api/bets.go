package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/fastprodman/wagerledger/internal/repos/bets"
	"github.com/fastprodman/wagerledger/internal/services/ledger"
)

type placeBetRequest struct {
	Stake          string `json:"stake"`
	Multiplier     string `json:"multiplier"`
	IdempotencyKey string `json:"idempotencyKey"`
}

type betOutcomeResponse struct {
	BetID      string `json:"betId"`
	AccountID  string `json:"accountId"`
	Won        bool   `json:"won"`
	Multiplier string `json:"multiplier"`
	Payout     string `json:"payout"`
	Balance    string `json:"balance"`
}

type betResponse struct {
	ID            string    `json:"id"`
	MultiplierKey string    `json:"multiplierKey"`
	Stake         string    `json:"stake"`
	Multiplier    string    `json:"multiplier"`
	Won           bool      `json:"won"`
	Payout        string    `json:"payout"`
	BalanceAfter  string    `json:"balanceAfter"`
	SettledAt     time.Time `json:"settledAt"`
}

type betsResponse struct {
	AccountID string        `json:"accountId"`
	Bets      []betResponse `json:"bets"`
}

type summaryResponse struct {
	AccountID    string  `json:"accountId"`
	Bets         int     `json:"bets"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinRate      float64 `json:"winRate"`
	TotalStaked  string  `json:"totalStaked"`
	TotalPaidOut string  `json:"totalPaidOut"`
	Net          string  `json:"net"`
}

type multiplierResponse struct {
	Key        string `json:"key"`
	Multiplier string `json:"multiplier"`
}

// PlaceBetHandler handles POST /accounts/{accountId}/bets
func (h *HandlerProvider) PlaceBetHandler(w http.ResponseWriter, r *http.Request) {
	accountID := accountIDFromPath(r)

	var req placeBetRequest
	err := decodeBody(w, r, &req)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stake, err := parseMoney("stake", req.Stake)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := strings.TrimSpace(req.IdempotencyKey)
	if header := strings.TrimSpace(r.Header.Get("Idempotency-Key")); header != "" {
		if key != "" && key != header {
			h.writeError(w, http.StatusBadRequest, "Idempotency-Key header and idempotencyKey differ")
			return
		}
		key = header
	}

	out, err := h.ledger.PlaceBet(r.Context(), ledger.PlaceBetRequest{
		AccountID:      accountID,
		Stake:          stake,
		MultiplierKey:  strings.TrimSpace(req.Multiplier),
		IdempotencyKey: key,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, betOutcomeResponse{
		BetID:      out.BetID,
		AccountID:  accountID,
		Won:        out.Won,
		Multiplier: out.Multiplier.String(),
		Payout:     formatMoney(out.Payout),
		Balance:    formatMoney(out.NewBalance),
	})
}

// ListBetsHandler handles GET /accounts/{accountId}/bets?limit=
func (h *HandlerProvider) ListBetsHandler(w http.ResponseWriter, r *http.Request) {
	accountID := accountIDFromPath(r)

	limit, err := parseLimit(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	recs, err := h.history.GetRecentBets(r.Context(), accountID, limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := betsResponse{AccountID: accountID, Bets: make([]betResponse, 0, len(recs))}
	for _, rec := range recs {
		resp.Bets = append(resp.Bets, toBetResponse(rec))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// SummaryHandler handles GET /accounts/{accountId}/bets/summary?limit=
func (h *HandlerProvider) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	accountID := accountIDFromPath(r)

	limit, err := parseLimit(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s, err := h.history.Summarize(r.Context(), accountID, limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, summaryResponse{
		AccountID:    accountID,
		Bets:         s.Bets,
		Wins:         s.Wins,
		Losses:       s.Losses,
		WinRate:      s.WinRate,
		TotalStaked:  formatMoney(s.TotalStaked),
		TotalPaidOut: formatMoney(s.TotalPaidOut),
		Net:          formatMoney(s.Net),
	})
}

// MultipliersHandler handles GET /multipliers
func (h *HandlerProvider) MultipliersHandler(w http.ResponseWriter, _ *http.Request) {
	choices := h.ledger.Multipliers()

	resp := make([]multiplierResponse, 0, len(choices))
	for _, m := range choices {
		resp = append(resp, multiplierResponse{Key: m.Key, Multiplier: m.Multiplier.String()})
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"multipliers": resp})
}

func toBetResponse(rec bets.Record) betResponse {
	return betResponse{
		ID:            rec.ID,
		MultiplierKey: rec.MultiplierKey,
		Stake:         formatMoney(rec.Stake),
		Multiplier:    rec.Multiplier.String(),
		Won:           rec.Won,
		Payout:        formatMoney(rec.Payout),
		BalanceAfter:  formatMoney(rec.BalanceAfter),
		SettledAt:     rec.SettledAt,
	}
}
