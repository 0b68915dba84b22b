package ledger

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fastprodman/wagerledger/internal/config"
	"github.com/fastprodman/wagerledger/internal/repos"
	"github.com/fastprodman/wagerledger/internal/repos/accounts"
	memaccounts "github.com/fastprodman/wagerledger/internal/repos/accounts/memory"
	"github.com/fastprodman/wagerledger/internal/repos/betcache"
	"github.com/fastprodman/wagerledger/internal/repos/bets"
	membets "github.com/fastprodman/wagerledger/internal/repos/bets/memory"
	"github.com/fastprodman/wagerledger/internal/services/outcome"
	"github.com/shopspring/decimal"
)

var (
	alwaysWin  = outcome.SourceFunc(func() float64 { return 0 })
	alwaysLose = outcome.SourceFunc(func() float64 { return 0.99 })
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testConfig() config.LedgerConfig {
	return config.LedgerConfig{
		DefaultBalance:    d("25.00"),
		MaxStake:          d("1000.00"),
		MinTransfer:       d("10.00"),
		MaxAttempts:       5,
		BackoffInitial:    time.Millisecond,
		BackoffMax:        5 * time.Millisecond,
		StoreTimeout:      time.Second,
		AppendMaxInterval: 10 * time.Millisecond,
		FlushInterval:     10 * time.Millisecond,
		FlushBatch:        10,
		MaxPending:        50,
	}
}

type fixture struct {
	c        *Coordinator
	accounts accounts.Accounts
	bets     bets.Bets
}

type option func(*config.LedgerConfig, *Deps)

func withSource(src outcome.Source) option {
	return func(_ *config.LedgerConfig, d *Deps) { d.Engine = outcome.New(src) }
}

func withConfig(fn func(*config.LedgerConfig)) option {
	return func(c *config.LedgerConfig, _ *Deps) { fn(c) }
}

func withAccounts(wrap func(accounts.Accounts) accounts.Accounts) option {
	return func(_ *config.LedgerConfig, d *Deps) { d.Accounts = wrap(d.Accounts) }
}

func withBets(wrap func(bets.Bets) bets.Bets) option {
	return func(_ *config.LedgerConfig, d *Deps) { d.Bets = wrap(d.Bets) }
}

func newFixture(t *testing.T, opts ...option) fixture {
	t.Helper()

	accts := memaccounts.New()
	store := membets.New()

	cfg := testConfig()
	deps := Deps{
		Accounts: accts,
		Bets:     store,
		Table:    outcome.MustParseTable("classic:2.5:0.4,safe:1.2:0.8"),
		Engine:   outcome.New(alwaysLose),
	}

	for _, opt := range opts {
		opt(&cfg, &deps)
	}

	c := New(cfg, deps)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = c.Close(ctx)
	})

	return fixture{c: c, accounts: accts, bets: store}
}

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Fatalf("condition not met: %s", msg)
}

// flakyBets fails the first n appends with an unavailable store.
type flakyBets struct {
	bets.Bets
	failures atomic.Int64
}

func (f *flakyBets) Append(ctx context.Context, rec bets.Record) error {
	if f.failures.Add(-1) >= 0 {
		return fmt.Errorf("%w: injected", repos.ErrUnavailable)
	}
	return f.Bets.Append(ctx, rec)
}

// conflictingAccounts refuses every conditional write.
type conflictingAccounts struct {
	accounts.Accounts
	swaps atomic.Int64
}

func (c *conflictingAccounts) CompareAndSwap(context.Context, int64, accounts.Account) error {
	c.swaps.Add(1)
	return accounts.ErrVersionConflict
}

// downAccounts fails every read.
type downAccounts struct {
	accounts.Accounts
}

func (downAccounts) GetOrCreate(context.Context, string, decimal.Decimal) (accounts.Account, error) {
	return accounts.Account{}, fmt.Errorf("%w: connection refused", repos.ErrUnavailable)
}

// stuckAccounts blocks every read until the caller gives up.
type stuckAccounts struct {
	accounts.Accounts
}

func (stuckAccounts) GetOrCreate(ctx context.Context, _ string, _ decimal.Decimal) (accounts.Account, error) {
	<-ctx.Done()
	return accounts.Account{}, fmt.Errorf("%w: %w", repos.ErrUnavailable, ctx.Err())
}

// lostAckAccounts applies the first write but reports a timeout for it.
type lostAckAccounts struct {
	accounts.Accounts
	once sync.Once
}

func (l *lostAckAccounts) CompareAndSwap(ctx context.Context, expected int64, next accounts.Account) error {
	err := l.Accounts.CompareAndSwap(ctx, expected, next)
	if err != nil {
		return err
	}

	lost := false
	l.once.Do(func() { lost = true })
	if lost {
		return fmt.Errorf("%w: %w", repos.ErrUnavailable, context.DeadlineExceeded)
	}

	return nil
}

// balanceRecorder remembers every balance that was ever written.
type balanceRecorder struct {
	accounts.Accounts
	mu       sync.Mutex
	balances []decimal.Decimal
}

func (b *balanceRecorder) CompareAndSwap(ctx context.Context, expected int64, next accounts.Account) error {
	err := b.Accounts.CompareAndSwap(ctx, expected, next)
	if err == nil {
		b.mu.Lock()
		b.balances = append(b.balances, next.Balance)
		b.mu.Unlock()
	}
	return err
}

type fakeCache struct {
	mu   sync.Mutex
	recs map[string]bets.Record
	puts int
}

func newFakeCache() *fakeCache { return &fakeCache{recs: map[string]bets.Record{}} }

func (f *fakeCache) Get(_ context.Context, accountID, betID string) (bets.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.recs[accountID+"/"+betID]
	if !ok {
		return bets.Record{}, betcache.ErrMiss
	}
	return rec, nil
}

func (f *fakeCache) Put(_ context.Context, rec bets.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.puts++
	f.recs[rec.AccountID+"/"+rec.ID] = rec
	return nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	recs []bets.Record
	err  error
}

func (p *recordingPublisher) PublishBetSettled(_ context.Context, rec bets.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.recs = append(p.recs, rec)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.recs)
}
