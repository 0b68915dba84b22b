package bets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fastprodman/wagerledger/internal/repos"
	"github.com/shopspring/decimal"
)

var (
	ErrBetNotFound    = errors.New("bet not found")
	ErrRecordMismatch = errors.New("bet id already stored with different contents")
)

// Record is a settled bet. It is immutable once written.
type Record struct {
	ID            string          `json:"id"`
	AccountID     string          `json:"accountId"`
	MultiplierKey string          `json:"multiplierKey"`
	Stake         decimal.Decimal `json:"stake"`
	Multiplier    decimal.Decimal `json:"multiplier"`
	Won           bool            `json:"won"`
	Payout        decimal.Decimal `json:"payout"`
	BalanceAfter  decimal.Decimal `json:"balanceAfter"`
	SettledAt     time.Time       `json:"settledAt"`
}

// Validate checks the record invariants. Violations wrap repos.ErrCorrupt.
func (r Record) Validate() error {
	switch {
	case r.ID == "":
		return fmt.Errorf("%w: bet without id", repos.ErrCorrupt)
	case r.AccountID == "":
		return fmt.Errorf("%w: bet %s without account", repos.ErrCorrupt, r.ID)
	case !r.Stake.IsPositive():
		return fmt.Errorf("%w: bet %s stake %s", repos.ErrCorrupt, r.ID, r.Stake)
	case r.Multiplier.IsNegative():
		return fmt.Errorf("%w: bet %s multiplier %s", repos.ErrCorrupt, r.ID, r.Multiplier)
	case r.Payout.IsNegative():
		return fmt.Errorf("%w: bet %s payout %s", repos.ErrCorrupt, r.ID, r.Payout)
	case r.BalanceAfter.IsNegative():
		return fmt.Errorf("%w: bet %s balance after %s", repos.ErrCorrupt, r.ID, r.BalanceAfter)
	case r.SettledAt.IsZero():
		return fmt.Errorf("%w: bet %s without settlement time", repos.ErrCorrupt, r.ID)
	}

	if r.Won && !r.Payout.Equal(r.Stake.Mul(r.Multiplier)) {
		return fmt.Errorf("%w: bet %s payout %s != stake*multiplier", repos.ErrCorrupt, r.ID, r.Payout)
	}

	if !r.Won && !r.Payout.IsZero() {
		return fmt.Errorf("%w: lost bet %s with payout %s", repos.ErrCorrupt, r.ID, r.Payout)
	}

	return nil
}

// Same reports whether both records describe the same settlement.
// Decimals are compared by value and times by instant.
func (r Record) Same(o Record) bool {
	return r.ID == o.ID &&
		r.AccountID == o.AccountID &&
		r.MultiplierKey == o.MultiplierKey &&
		r.Stake.Equal(o.Stake) &&
		r.Multiplier.Equal(o.Multiplier) &&
		r.Won == o.Won &&
		r.Payout.Equal(o.Payout) &&
		r.BalanceAfter.Equal(o.BalanceAfter) &&
		r.SettledAt.Equal(o.SettledAt)
}

// Bets is the append-only settled-bet collection. Bet ids are scoped to an account.
type Bets interface {
	// Append stores rec. Appending an identical record again is a no-op;
	// a different record under the same id fails with ErrRecordMismatch.
	Append(ctx context.Context, rec Record) error
	Get(ctx context.Context, accountID, betID string) (Record, error)
	// ListRecent returns at most limit records, most recent first. A limit
	// of zero or less returns an empty slice.
	ListRecent(ctx context.Context, accountID string, limit int) ([]Record, error)
}
