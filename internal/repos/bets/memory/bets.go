// Package bets keeps settled bets in process memory.
package bets

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fastprodman/wagerledger/internal/repos"
	"github.com/fastprodman/wagerledger/internal/repos/bets"
)

var _ bets.Bets = (*betsRepo)(nil)

type key struct{ accountID, betID string }

type betsRepo struct {
	mu        sync.RWMutex
	byID      map[key]bets.Record
	byAccount map[string][]bets.Record
}

func New() *betsRepo {
	return &betsRepo{
		byID:      make(map[key]bets.Record),
		byAccount: make(map[string][]bets.Record),
	}
}

func (r *betsRepo) Append(ctx context.Context, rec bets.Record) error {
	err := alive(ctx)
	if err != nil {
		return err
	}

	err = rec.Validate()
	if err != nil {
		return fmt.Errorf("append bet: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{rec.AccountID, rec.ID}
	if cur, ok := r.byID[k]; ok {
		if !cur.Same(rec) {
			return fmt.Errorf("append bet %s: %w", rec.ID, bets.ErrRecordMismatch)
		}

		return nil
	}

	r.byID[k] = rec
	r.byAccount[rec.AccountID] = append(r.byAccount[rec.AccountID], rec)

	return nil
}

func (r *betsRepo) Get(ctx context.Context, accountID, betID string) (bets.Record, error) {
	err := alive(ctx)
	if err != nil {
		return bets.Record{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[key{accountID, betID}]
	if !ok {
		return bets.Record{}, bets.ErrBetNotFound
	}

	return rec, nil
}

func (r *betsRepo) ListRecent(ctx context.Context, accountID string, limit int) ([]bets.Record, error) {
	err := alive(ctx)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		return []bets.Record{}, nil
	}

	r.mu.RLock()
	out := append([]bets.Record(nil), r.byAccount[accountID]...)
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SettledAt.Equal(out[j].SettledAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].SettledAt.After(out[j].SettledAt)
	})

	if len(out) > limit {
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
