package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	betsSettled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_bets_settled_total",
			Help: "Settled bets by multiplier key and outcome",
		},
		[]string{"multiplier", "outcome"},
	)

	betsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_bets_rejected_total",
			Help: "Bets refused before settlement, by reason",
		},
		[]string{"reason"},
	)

	betReplays = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_bet_replays_total",
			Help: "Idempotent replays by the layer that answered",
		},
		[]string{"source"},
	)

	settleAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ledger_settle_attempts",
			Help:    "Read-decide-write cycles needed per settlement",
			Buckets: []float64{1, 2, 3, 4, 5, 8, 13},
		},
	)

	settleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_settle_duration_ms",
			Help:    "PlaceBet duration in milliseconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"result"},
	)

	appendPending = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_append_pending_total",
			Help: "Committed bets whose bet store append was deferred",
		},
	)

	delivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_bets_delivered_total",
			Help: "Outbox entries appended and acknowledged, by path",
		},
		[]string{"source"},
	)

	publishFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_publish_failed_total",
			Help: "bet_settled events that could not be published",
		},
	)

	adjustments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_adjustments_total",
			Help: "Balance adjustments by reason and result",
		},
		[]string{"reason", "result"},
	)
)

func RecordSettled(multiplierKey string, won bool) {
	outcome := "lost"
	if won {
		outcome = "won"
	}
	betsSettled.WithLabelValues(multiplierKey, outcome).Inc()
}

func RecordRejected(reason string) { betsRejected.WithLabelValues(reason).Inc() }

func RecordReplay(source string) { betReplays.WithLabelValues(source).Inc() }

func RecordAttempts(n int) { settleAttempts.Observe(float64(n)) }

// RecordSettleDuration observes the time since started under result.
func RecordSettleDuration(result string, started time.Time) {
	settleDuration.WithLabelValues(result).Observe(float64(time.Since(started).Milliseconds()))
}

func RecordAppendPending() { appendPending.Inc() }

func RecordDelivered(source string) { delivered.WithLabelValues(source).Inc() }

func RecordPublishFailed() { publishFailed.Inc() }

func RecordAdjustment(reason, result string) { adjustments.WithLabelValues(reason, result).Inc() }
