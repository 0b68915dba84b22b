// Package ledger settles bets and adjusts balances against the account store.
//
// Every balance change is a read-decide-write cycle guarded by the account
// version. A settled bet is written into the account outbox in the same
// conditional write; the bet store append, the bet_settled event and the
// outbox acknowledgement follow and are retried until they land.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/fastprodman/wagerledger/internal/config"
	"github.com/fastprodman/wagerledger/internal/events"
	"github.com/fastprodman/wagerledger/internal/repos"
	"github.com/fastprodman/wagerledger/internal/repos/accounts"
	"github.com/fastprodman/wagerledger/internal/repos/betcache"
	"github.com/fastprodman/wagerledger/internal/repos/bets"
	"github.com/fastprodman/wagerledger/internal/services/outcome"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Deps are the collaborators of a Coordinator. Cache, Publisher, Engine,
// Logger and Now are optional.
type Deps struct {
	Accounts  accounts.Accounts
	Bets      bets.Bets
	Table     outcome.Table
	Engine    *outcome.Engine
	Cache     betcache.Cache
	Publisher events.Publisher
	Logger    *zap.Logger
	Now       func() time.Time
}

type Coordinator struct {
	accounts  accounts.Accounts
	bets      bets.Bets
	table     outcome.Table
	engine    *outcome.Engine
	cache     betcache.Cache
	publisher events.Publisher
	log       *zap.Logger
	now       func() time.Time
	cfg       config.LedgerConfig

	inflight singleflight.Group

	mu       sync.Mutex
	closed   bool
	bgCtx    context.Context
	bgCancel context.CancelFunc
	bg       sync.WaitGroup
}

func New(cfg config.LedgerConfig, d Deps) *Coordinator {
	if d.Engine == nil {
		d.Engine = outcome.New(nil)
	}
	if d.Cache == nil {
		d.Cache = betcache.Nop{}
	}
	if d.Publisher == nil {
		d.Publisher = events.Nop{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())

	return &Coordinator{
		accounts:  d.Accounts,
		bets:      d.Bets,
		table:     d.Table,
		engine:    d.Engine,
		cache:     d.Cache,
		publisher: d.Publisher,
		log:       d.Logger.Named("ledger"),
		now:       d.Now,
		cfg:       cfg,
		bgCtx:     bgCtx,
		bgCancel:  bgCancel,
	}
}

// Close stops background redelivery and waits for it to exit. Entries still
// in an outbox are picked up by the Flusher later.
func (c *Coordinator) Close(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.bgCancel()

	done := make(chan struct{})
	go func() {
		c.bg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for redelivery: %w", ctx.Err())
	}
}

func (c *Coordinator) GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	err := accounts.ValidateID(accountID)
	if err != nil {
		return decimal.Decimal{}, err
	}

	sctx, cancel := c.storeCtx(ctx)
	defer cancel()

	acct, err := c.accounts.GetOrCreate(sctx, accountID, c.cfg.DefaultBalance)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("get balance: %w", unavailable(err))
	}

	return acct.Balance, nil
}

func (c *Coordinator) Multipliers() []Multiplier {
	choices := c.table.Choices()
	out := make([]Multiplier, 0, len(choices))

	for _, ch := range choices {
		out = append(out, Multiplier{Key: ch.Key, Multiplier: ch.Multiplier})
	}

	return out
}

func (c *Coordinator) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.cfg.StoreTimeout)
}

func (c *Coordinator) settledAt() time.Time {
	// microseconds survive every store round trip
	return c.now().UTC().Truncate(time.Microsecond)
}

// cycle runs op until it succeeds, fails permanently or runs out of
// attempts. Only version conflicts and unavailable stores are retried.
func (c *Coordinator) cycle(ctx context.Context, op func(ctx context.Context) error) (int, error) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.cfg.BackoffInitial
	exp.MaxInterval = c.cfg.BackoffMax

	attempts := 0

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempts++

		err := op(ctx)
		if err == nil || retryable(err) {
			return struct{}{}, err
		}

		return struct{}{}, backoff.Permanent(err)
	},
		backoff.WithBackOff(exp),
		backoff.WithMaxTries(uint(max(c.cfg.MaxAttempts, 1))),
		backoff.WithMaxElapsedTime(0),
	)
	if err == nil {
		return attempts, nil
	}

	if errors.Is(err, accounts.ErrVersionConflict) {
		return attempts, fmt.Errorf("%w after %d attempts: %w", ErrContention, attempts, err)
	}

	return attempts, unavailable(err)
}

func retryable(err error) bool {
	return errors.Is(err, accounts.ErrVersionConflict) || errors.Is(err, repos.ErrUnavailable)
}

// unavailable maps store outages and expired contexts to ErrUnavailable.
func unavailable(err error) error {
	if errors.Is(err, ErrUnavailable) {
		return err
	}

	if errors.Is(err, repos.ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return err
}

// resultLabel names err for metrics.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidStake),
		errors.Is(err, ErrInvalidMultiplier),
		errors.Is(err, ErrInvalidAccount),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidIdempotencyKey):
		return "invalid"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrIdempotencyConflict):
		return "idempotency_conflict"
	case errors.Is(err, ErrContention):
		return "contention"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
