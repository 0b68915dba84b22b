package bets

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/fastprodman/wagerledger/internal/infra/pgtestutil"
	"github.com/fastprodman/wagerledger/internal/repos"
	"github.com/fastprodman/wagerledger/internal/repos/bets"
	"github.com/shopspring/decimal"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func record(accountID, id string, at time.Duration) bets.Record {
	return bets.Record{
		ID:            id,
		AccountID:     accountID,
		MultiplierKey: "classic",
		Stake:         decimal.RequireFromString("10.00"),
		Multiplier:    decimal.RequireFromString("2.5"),
		Won:           true,
		Payout:        decimal.RequireFromString("25.00"),
		BalanceAfter:  decimal.RequireFromString("40.00"),
		SettledAt:     base.Add(at),
	}
}

// newRepo returns a repo over a fresh database holding the given accounts.
func newRepo(t *testing.T, accountIDs ...string) *betsRepo {
	t.Helper()

	db := pgtestutil.NewTestDB(t)
	insertAccounts(t, db, accountIDs...)

	return New(db)
}

func insertAccounts(t *testing.T, db *sql.DB, ids ...string) {
	t.Helper()

	for _, id := range ids {
		_, err := db.ExecContext(t.Context(), `INSERT INTO accounts (id, balance) VALUES ($1, 0)`, id)
		if err != nil {
			t.Fatalf("insert account %s: %v", id, err)
		}
	}
}

func TestBets_Append(t *testing.T) {
	t.Parallel()

	repo := newRepo(t, "alice", "bob")
	ctx := t.Context()

	err := repo.Append(ctx, record("alice", "b1", 0))
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	err = repo.Append(ctx, record("alice", "b1", 0))
	if err != nil {
		t.Fatalf("identical append: %v", err)
	}

	changed := record("alice", "b1", 0)
	changed.BalanceAfter = decimal.RequireFromString("41")

	err = repo.Append(ctx, changed)
	if !errors.Is(err, bets.ErrRecordMismatch) {
		t.Fatalf("changed append: want ErrRecordMismatch, got %v", err)
	}

	err = repo.Append(ctx, record("bob", "b1", 0))
	if err != nil {
		t.Fatalf("same id other account: %v", err)
	}

	invalid := record("alice", "b2", 0)
	invalid.Payout = decimal.RequireFromString("24")

	err = repo.Append(ctx, invalid)
	if !errors.Is(err, repos.ErrCorrupt) {
		t.Fatalf("invalid append: want ErrCorrupt, got %v", err)
	}

	got, err := repo.Get(ctx, "alice", "b1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if !got.Same(record("alice", "b1", 0)) {
		t.Fatalf("stored record changed: %+v", got)
	}

	if got.SettledAt.Location() != time.UTC {
		t.Fatalf("settledAt not UTC: %v", got.SettledAt)
	}
}

func TestBets_GetMissing(t *testing.T) {
	t.Parallel()

	repo := newRepo(t, "alice")

	_, err := repo.Get(t.Context(), "alice", "nope")
	if !errors.Is(err, bets.ErrBetNotFound) {
		t.Fatalf("want ErrBetNotFound, got %v", err)
	}
}

func TestBets_ListRecent(t *testing.T) {
	t.Parallel()

	repo := newRepo(t, "alice", "bob")
	ctx := t.Context()

	for _, rec := range []bets.Record{
		record("alice", "a1", 0),
		record("alice", "a2", time.Minute),
		record("alice", "a3", time.Minute),
		record("alice", "a4", 2*time.Minute),
		record("bob", "b1", 3*time.Minute),
	} {
		err := repo.Append(ctx, rec)
		if err != nil {
			t.Fatalf("append %s: %v", rec.ID, err)
		}
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{name: "all", limit: 10, want: []string{"a4", "a3", "a2", "a1"}},
		{name: "limited", limit: 2, want: []string{"a4", "a3"}},
		{name: "zero", limit: 0, want: []string{}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := repo.ListRecent(t.Context(), "alice", tt.limit)
			if err != nil {
				t.Fatalf("list: %v", err)
			}

			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}

			for i, id := range tt.want {
				if got[i].ID != id {
					t.Fatalf("pos %d: got %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}
