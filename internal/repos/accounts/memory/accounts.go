// Package accounts keeps accounts in process memory. It implements the same
// version-guarded contract as the Postgres store and backs local runs and tests.
package accounts

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fastprodman/wagerledger/internal/repos"
	"github.com/fastprodman/wagerledger/internal/repos/accounts"
	"github.com/shopspring/decimal"
)

var _ accounts.Accounts = (*accountsRepo)(nil)

type accountsRepo struct {
	mu   sync.Mutex
	rows map[string]accounts.Account
	now  func() time.Time
}

func New() *accountsRepo {
	return &accountsRepo{
		rows: make(map[string]accounts.Account),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (r *accountsRepo) Get(ctx context.Context, id string) (accounts.Account, error) {
	err := alive(ctx)
	if err != nil {
		return accounts.Account{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	acct, ok := r.rows[id]
	if !ok {
		return accounts.Account{}, accounts.ErrAccountNotFound
	}

	return acct.Clone(), nil
}

func (r *accountsRepo) GetOrCreate(ctx context.Context, id string, initial decimal.Decimal) (accounts.Account, error) {
	err := alive(ctx)
	if err != nil {
		return accounts.Account{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	acct, ok := r.rows[id]
	if ok {
		return acct.Clone(), nil
	}

	now := r.now()
	acct = accounts.Account{ID: id, Balance: initial, CreatedAt: now, UpdatedAt: now}

	err = acct.Validate()
	if err != nil {
		return accounts.Account{}, fmt.Errorf("create account: %w", err)
	}

	r.rows[id] = acct

	return acct.Clone(), nil
}

func (r *accountsRepo) CompareAndSwap(ctx context.Context, expected int64, next accounts.Account) error {
	err := alive(ctx)
	if err != nil {
		return err
	}

	err = accounts.CheckNext(expected, next)
	if err != nil {
		return fmt.Errorf("compare and swap: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.rows[next.ID]
	if !ok {
		return accounts.ErrAccountNotFound
	}

	if cur.Version != expected {
		return accounts.ErrVersionConflict
	}

	next = next.Clone()
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = r.now()
	r.rows[next.ID] = next

	return nil
}

func (r *accountsRepo) ListPending(ctx context.Context, afterID string, limit int) ([]accounts.Account, error) {
	err := alive(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]accounts.Account, 0)
	for _, acct := range r.rows {
		if len(acct.Pending) > 0 && acct.ID > afterID {
			out = append(out, acct.Clone())
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func alive(ctx context.Context) error {
	err := ctx.Err()
	if err != nil {
		return fmt.Errorf("%w: %w", repos.ErrUnavailable, err)
	}

	return nil
}
