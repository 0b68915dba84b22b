package accounts

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fastprodman/wagerledger/internal/infra/pgtestutil"
	"github.com/fastprodman/wagerledger/internal/repos/accounts"
	"github.com/fastprodman/wagerledger/internal/repos/bets"
	"github.com/shopspring/decimal"
)

func pendingBet(accountID, id string) bets.Record {
	return bets.Record{
		ID:            id,
		AccountID:     accountID,
		MultiplierKey: "classic",
		Stake:         decimal.RequireFromString("10.00"),
		Multiplier:    decimal.RequireFromString("2.5"),
		Won:           true,
		Payout:        decimal.RequireFromString("25.00"),
		BalanceAfter:  decimal.RequireFromString("40.00"),
		SettledAt:     time.Date(2026, 1, 2, 3, 4, 5, 123456000, time.UTC),
	}
}

func TestAccounts_GetOrCreate(t *testing.T) {
	t.Parallel()

	repo := New(pgtestutil.NewTestDB(t))
	ctx := t.Context()

	_, err := repo.Get(ctx, "alice")
	if !errors.Is(err, accounts.ErrAccountNotFound) {
		t.Fatalf("get before create: want ErrAccountNotFound, got %v", err)
	}

	acct, err := repo.GetOrCreate(ctx, "alice", decimal.RequireFromString("25.00"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if acct.Version != 0 || !acct.Balance.Equal(decimal.RequireFromString("25")) || len(acct.Pending) != 0 {
		t.Fatalf("created account: %+v", acct)
	}

	acct, err = repo.GetOrCreate(ctx, "alice", decimal.RequireFromString("99"))
	if err != nil {
		t.Fatalf("get existing: %v", err)
	}

	if !acct.Balance.Equal(decimal.RequireFromString("25")) {
		t.Fatalf("balance: want 25, got %s", acct.Balance)
	}
}

func TestAccounts_CompareAndSwap(t *testing.T) {
	t.Parallel()

	repo := New(pgtestutil.NewTestDB(t))
	ctx := t.Context()

	acct, err := repo.GetOrCreate(ctx, "alice", decimal.RequireFromString("15.00"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	next := acct.Clone()
	next.Version = 1
	next.Balance = decimal.RequireFromString("40.00")
	next.Pending = append(next.Pending, pendingBet("alice", "b1"))

	err = repo.CompareAndSwap(ctx, 0, next)
	if err != nil {
		t.Fatalf("cas: %v", err)
	}

	got, err := repo.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if got.Version != 1 || !got.Balance.Equal(next.Balance) {
		t.Fatalf("after cas: version %d balance %s", got.Version, got.Balance)
	}

	rec, ok := got.PendingBet("b1")
	if !ok || !rec.Same(pendingBet("alice", "b1")) {
		t.Fatalf("pending bet did not round-trip: %+v", got.Pending)
	}

	// stale expected version
	stale := got.Clone()
	stale.Version = 1
	stale.Balance = decimal.Zero

	err = repo.CompareAndSwap(ctx, 0, stale)
	if !errors.Is(err, accounts.ErrVersionConflict) {
		t.Fatalf("stale cas: want ErrVersionConflict, got %v", err)
	}

	missing := bareAccount("ghost")

	err = repo.CompareAndSwap(ctx, 0, missing)
	if !errors.Is(err, accounts.ErrAccountNotFound) {
		t.Fatalf("missing cas: want ErrAccountNotFound, got %v", err)
	}

	bad := got.Clone()
	bad.Version = 3

	err = repo.CompareAndSwap(ctx, 1, bad)
	if err == nil {
		t.Fatal("expected error for skipped version")
	}
}

func bareAccount(id string) accounts.Account {
	return accounts.Account{ID: id, Balance: decimal.RequireFromString("1"), Version: 1}
}

func TestAccounts_CompareAndSwap_OneWinner(t *testing.T) {
	t.Parallel()

	repo := New(pgtestutil.NewTestDB(t))
	ctx := t.Context()

	acct, err := repo.GetOrCreate(ctx, "alice", decimal.RequireFromString("10"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	const writers = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)

	for range writers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			next := acct.Clone()
			next.Version = 1
			next.Balance = decimal.RequireFromString("5")

			err := repo.CompareAndSwap(ctx, 0, next)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				wins++
			case errors.Is(err, accounts.ErrVersionConflict):
				conflicts++
			default:
				t.Errorf("cas: %v", err)
			}
		}()
	}

	wg.Wait()

	if wins != 1 || conflicts != writers-1 {
		t.Fatalf("wins %d conflicts %d", wins, conflicts)
	}
}

func TestAccounts_ListPending(t *testing.T) {
	t.Parallel()

	repo := New(pgtestutil.NewTestDB(t))
	ctx := t.Context()

	for _, id := range []string{"alice", "bob", "carol"} {
		_, err := repo.GetOrCreate(ctx, id, decimal.RequireFromString("15"))
		if err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	for _, id := range []string{"carol", "alice"} {
		acct, err := repo.Get(ctx, id)
		if err != nil {
			t.Fatalf("get %s: %v", id, err)
		}

		next := acct.Clone()
		next.Version++
		next.Balance = decimal.RequireFromString("40.00")
		next.Pending = []bets.Record{pendingBet(id, "b-"+id)}

		err = repo.CompareAndSwap(ctx, acct.Version, next)
		if err != nil {
			t.Fatalf("cas %s: %v", id, err)
		}
	}

	got, err := repo.ListPending(ctx, "", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(got) != 2 || got[0].ID != "alice" || got[1].ID != "carol" {
		t.Fatalf("list pending: %+v", got)
	}

	got, err = repo.ListPending(ctx, "", 1)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}

	if len(got) != 1 || got[0].ID != "alice" {
		t.Fatalf("limited list: %+v", got)
	}

	got, err = repo.ListPending(ctx, "alice", 10)
	if err != nil {
		t.Fatalf("list after alice: %v", err)
	}

	if len(got) != 1 || got[0].ID != "carol" {
		t.Fatalf("list after alice: %+v", got)
	}
}
