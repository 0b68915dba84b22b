package api

import (
	"net/http"

	"github.com/fastprodman/wagerledger/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter constructs a chi router with all API endpoints registered.
func NewRouter(l Ledger, hist History, log *zap.Logger) http.Handler {
	h := NewHandler(l, hist, log)
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.HTTP)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/multipliers", h.MultipliersHandler)

	r.Route("/accounts/{accountId}", func(r chi.Router) {
		r.Get("/balance", h.GetBalanceHandler)
		r.Post("/adjustments", h.AdjustBalanceHandler)
		r.Post("/bets", h.PlaceBetHandler)
		r.Get("/bets", h.ListBetsHandler)
		r.Get("/bets/summary", h.SummaryHandler)
	})

	return r
}
