package accounts

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"time"

	"github.com/fastprodman/wagerledger/internal/repos"
	"github.com/fastprodman/wagerledger/internal/repos/bets"
	"github.com/shopspring/decimal"
)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrVersionConflict   = errors.New("account version conflict")
	ErrInvalidAccountID  = errors.New("invalid account id")
	errUnexpectedVersion = errors.New("next version must be expected+1")
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateID checks that id is a usable account identifier.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidAccountID, id)
	}

	return nil
}

// Account is the authoritative balance of one player.
//
// Pending holds settled bets whose balance effect is already applied but whose
// Bet Store append has not been acknowledged. It is written in the same
// conditional write as the balance, which makes it a durable outbox.
type Account struct {
	ID        string
	Balance   decimal.Decimal
	Version   int64
	Pending   []bets.Record
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the account invariants. Violations wrap repos.ErrCorrupt.
func (a Account) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("%w: account without id", repos.ErrCorrupt)
	}

	if a.Balance.IsNegative() {
		return fmt.Errorf("%w: account %s balance %s", repos.ErrCorrupt, a.ID, a.Balance)
	}

	if a.Version < 0 {
		return fmt.Errorf("%w: account %s version %d", repos.ErrCorrupt, a.ID, a.Version)
	}

	for _, rec := range a.Pending {
		if rec.AccountID != a.ID {
			return fmt.Errorf("%w: account %s holds pending bet of %s", repos.ErrCorrupt, a.ID, rec.AccountID)
		}

		err := rec.Validate()
		if err != nil {
			return fmt.Errorf("pending bet: %w", err)
		}
	}

	return nil
}

// PendingBet looks up an unacknowledged settlement by bet id.
func (a Account) PendingBet(betID string) (bets.Record, bool) {
	for _, rec := range a.Pending {
		if rec.ID == betID {
			return rec, true
		}
	}

	return bets.Record{}, false
}

// Clone returns a copy that shares no slice storage with a.
func (a Account) Clone() Account {
	a.Pending = slices.Clone(a.Pending)
	return a
}

// CheckNext verifies that next is a valid successor of the version expected.
func CheckNext(expected int64, next Account) error {
	if next.Version != expected+1 {
		return fmt.Errorf("%w: expected %d, next %d", errUnexpectedVersion, expected, next.Version)
	}

	return next.Validate()
}

type Accounts interface {
	Get(ctx context.Context, id string) (Account, error)
	// GetOrCreate returns the account, creating it with the initial balance at version 0.
	GetOrCreate(ctx context.Context, id string, initial decimal.Decimal) (Account, error)
	// CompareAndSwap replaces the account with next only if its stored version
	// equals expected. next.Version must be expected+1. A stale expected
	// version fails with ErrVersionConflict.
	CompareAndSwap(ctx context.Context, expected int64, next Account) error
	// ListPending returns up to limit accounts holding unacknowledged bets
	// whose id sorts after afterID, in id order. An empty afterID starts
	// from the beginning.
	ListPending(ctx context.Context, afterID string, limit int) ([]Account, error)
}
