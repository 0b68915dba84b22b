package accounts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fastprodman/wagerledger/internal/repos"
	"github.com/fastprodman/wagerledger/internal/repos/accounts"
	"github.com/fastprodman/wagerledger/internal/repos/bets"
	"github.com/shopspring/decimal"
)

func pendingBet(accountID, id string) bets.Record {
	return bets.Record{
		ID:            id,
		AccountID:     accountID,
		MultiplierKey: "classic",
		Stake:         decimal.RequireFromString("10"),
		Multiplier:    decimal.Zero,
		Payout:        decimal.Zero,
		BalanceAfter:  decimal.RequireFromString("15"),
		SettledAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestAccounts_GetOrCreate(t *testing.T) {
	t.Parallel()

	repo := New()
	ctx := t.Context()

	_, err := repo.Get(ctx, "alice")
	if !errors.Is(err, accounts.ErrAccountNotFound) {
		t.Fatalf("get before create: want ErrAccountNotFound, got %v", err)
	}

	acct, err := repo.GetOrCreate(ctx, "alice", decimal.RequireFromString("25.00"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if acct.Version != 0 || !acct.Balance.Equal(decimal.RequireFromString("25")) {
		t.Fatalf("created account: got version %d balance %s", acct.Version, acct.Balance)
	}

	// second call keeps the first balance
	acct, err = repo.GetOrCreate(ctx, "alice", decimal.RequireFromString("99"))
	if err != nil {
		t.Fatalf("get existing: %v", err)
	}
	if !acct.Balance.Equal(decimal.RequireFromString("25")) {
		t.Fatalf("balance: want 25, got %s", acct.Balance)
	}
}

func TestAccounts_CompareAndSwap_Table(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		expected int64
		next     func(cur accounts.Account) accounts.Account
		wantErr  error
	}{
		{
			name:     "ok_next_version",
			expected: 0,
			next: func(cur accounts.Account) accounts.Account {
				cur.Version = 1
				cur.Balance = decimal.RequireFromString("15")
				cur.Pending = []bets.Record{pendingBet(cur.ID, "b1")}
				return cur
			},
		},
		{
			name:     "stale_expected_version",
			expected: 3,
			next: func(cur accounts.Account) accounts.Account {
				cur.Version = 4
				return cur
			},
			wantErr: accounts.ErrVersionConflict,
		},
		{
			name:     "negative_balance_rejected",
			expected: 0,
			next: func(cur accounts.Account) accounts.Account {
				cur.Version = 1
				cur.Balance = decimal.RequireFromString("-1")
				return cur
			},
			wantErr: repos.ErrCorrupt,
		},
		{
			name:     "missing_account",
			expected: 0,
			next: func(cur accounts.Account) accounts.Account {
				cur.ID = "ghost"
				cur.Version = 1
				return cur
			},
			wantErr: accounts.ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := New()
			ctx := t.Context()

			cur, err := repo.GetOrCreate(ctx, "alice", decimal.RequireFromString("25"))
			if err != nil {
				t.Fatalf("seed: %v", err)
			}

			next := tt.next(cur)
			err = repo.CompareAndSwap(ctx, tt.expected, next)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
				}

				after, gerr := repo.Get(ctx, "alice")
				if gerr != nil {
					t.Fatalf("get after failed swap: %v", gerr)
				}
				if after.Version != 0 {
					t.Fatalf("failed swap changed version to %d", after.Version)
				}

				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			got, err := repo.Get(ctx, "alice")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.Version != next.Version || !got.Balance.Equal(next.Balance) || len(got.Pending) != len(next.Pending) {
				t.Fatalf("stored account mismatch: %+v", got)
			}
		})
	}
}

func TestAccounts_ListPending(t *testing.T) {
	t.Parallel()

	repo := New()
	ctx := t.Context()

	for _, id := range []string{"a", "b", "c"} {
		cur, err := repo.GetOrCreate(ctx, id, decimal.RequireFromString("25"))
		if err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
		if id == "b" {
			continue
		}

		cur.Version = 1
		cur.Pending = []bets.Record{pendingBet(id, "bet-"+id)}
		err = repo.CompareAndSwap(ctx, 0, cur)
		if err != nil {
			t.Fatalf("swap %s: %v", id, err)
		}
	}

	got, err := repo.ListPending(ctx, "", 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 accounts with pending bets, got %d", len(got))
	}
	for _, acct := range got {
		if acct.ID == "b" {
			t.Fatalf("account without pending bets listed")
		}
	}

	got, err = repo.ListPending(ctx, "", 1)
	if err != nil {
		t.Fatalf("list pending limited: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("limit: want [a], got %+v", got)
	}

	got, err = repo.ListPending(ctx, "a", 1)
	if err != nil {
		t.Fatalf("list pending after a: %v", err)
	}
	if len(got) != 1 || got[0].ID != "c" {
		t.Fatalf("after a: want [c], got %+v", got)
	}

	got, err = repo.ListPending(ctx, "c", 1)
	if err != nil {
		t.Fatalf("list pending after c: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("after c: want none, got %+v", got)
	}
}

func TestAccounts_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := New().GetOrCreate(ctx, "alice", decimal.Zero)
	if !errors.Is(err, repos.ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
}

func TestAccounts_ReturnsCopies(t *testing.T) {
	t.Parallel()

	repo := New()
	ctx := t.Context()

	cur, err := repo.GetOrCreate(ctx, "alice", decimal.RequireFromString("25"))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	cur.Version = 1
	cur.Pending = []bets.Record{pendingBet("alice", "b1")}
	err = repo.CompareAndSwap(ctx, 0, cur)
	if err != nil {
		t.Fatalf("swap: %v", err)
	}

	cur.Pending[0].ID = "mutated"

	got, err := repo.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Pending[0].ID != "b1" {
		t.Fatalf("store shares pending slice with caller")
	}
}
