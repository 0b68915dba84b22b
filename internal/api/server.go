package api

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// NewServer creates and returns a configured *http.Server for the ledger API.
func NewServer(port uint16, l Ledger, hist History, log *zap.Logger) *http.Server {
	mux := NewRouter(l, hist, log)

	addr := fmt.Sprintf(":%d", port)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          zap.NewStdLog(log),
	}
}
