package events

import "time"

// BetSettled is emitted once a settled bet is durably recorded.
// Delivery is at-least-once; consumers dedupe by AccountID and BetID.
// Money fields are decimal strings.
type BetSettled struct {
	BetID         string    `json:"betId"`
	AccountID     string    `json:"accountId"`
	MultiplierKey string    `json:"multiplierKey"`
	Stake         string    `json:"stake"`
	Multiplier    string    `json:"multiplier"`
	Won           bool      `json:"won"`
	Payout        string    `json:"payout"`
	BalanceAfter  string    `json:"balanceAfter"`
	SettledAt     time.Time `json:"settledAt"`
}
