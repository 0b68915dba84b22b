package api

import (
	"net/http"
	"strings"

	"github.com/fastprodman/wagerledger/internal/services/ledger"
)

type adjustRequest struct {
	Delta  string `json:"delta"`
	Reason string `json:"reason"`
}

type balanceResponse struct {
	AccountID string `json:"accountId"`
	Balance   string `json:"balance"`
}

// GetBalanceHandler handles GET /accounts/{accountId}/balance
func (h *HandlerProvider) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	accountID := accountIDFromPath(r)

	bal, err := h.ledger.GetBalance(r.Context(), accountID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, balanceResponse{AccountID: accountID, Balance: formatMoney(bal)})
}

// AdjustBalanceHandler handles POST /accounts/{accountId}/adjustments
func (h *HandlerProvider) AdjustBalanceHandler(w http.ResponseWriter, r *http.Request) {
	accountID := accountIDFromPath(r)

	var req adjustRequest
	err := decodeBody(w, r, &req)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	delta, err := parseMoney("delta", req.Delta)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bal, err := h.ledger.AdjustBalance(r.Context(), ledger.AdjustRequest{
		AccountID: accountID,
		Delta:     delta,
		Reason:    ledger.AdjustReason(strings.ToLower(strings.TrimSpace(req.Reason))),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, balanceResponse{AccountID: accountID, Balance: formatMoney(bal)})
}
