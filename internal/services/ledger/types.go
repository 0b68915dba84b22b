package ledger

import (
	"github.com/shopspring/decimal"
)

type PlaceBetRequest struct {
	AccountID     string
	Stake         decimal.Decimal
	MultiplierKey string
	// IdempotencyKey becomes the bet id. Empty means a fresh bet.
	IdempotencyKey string
}

// BetOutcome is what a settlement returns. Replays return the same value.
type BetOutcome struct {
	BetID      string
	Won        bool
	Multiplier decimal.Decimal
	Payout     decimal.Decimal
	NewBalance decimal.Decimal
}

type AdjustReason string

const (
	ReasonDeposit    AdjustReason = "deposit"
	ReasonWithdrawal AdjustReason = "withdrawal"
	ReasonCorrection AdjustReason = "correction"
)

type AdjustRequest struct {
	AccountID string
	Delta     decimal.Decimal
	Reason    AdjustReason
}

// Multiplier is the public view of a configured choice.
type Multiplier struct {
	Key        string
	Multiplier decimal.Decimal
}
