package betcache

import (
	"context"
	"errors"

	"github.com/fastprodman/wagerledger/internal/repos/bets"
)

var ErrMiss = errors.New("cache miss")

// Cache is a best-effort lookup of settled bets by idempotency key.
// It is never authoritative; a miss falls through to the stores.
type Cache interface {
	Get(ctx context.Context, accountID, betID string) (bets.Record, error)
	Put(ctx context.Context, rec bets.Record) error
}

// Nop never hits.
type Nop struct{}

func (Nop) Get(context.Context, string, string) (bets.Record, error) { return bets.Record{}, ErrMiss }
func (Nop) Put(context.Context, bets.Record) error                    { return nil }
