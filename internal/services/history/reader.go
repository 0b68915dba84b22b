// Package history reads settled bets for display.
package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/fastprodman/wagerledger/internal/config"
	"github.com/fastprodman/wagerledger/internal/repos"
	"github.com/fastprodman/wagerledger/internal/repos/accounts"
	"github.com/fastprodman/wagerledger/internal/repos/bets"
	"github.com/shopspring/decimal"
)

const (
	DefaultLimit        = 10
	defaultStoreTimeout = 2 * time.Second
)

var ErrUnavailable = errors.New("history unavailable")

type Reader struct {
	accounts     accounts.Accounts
	bets         bets.Bets
	maxLimit     int
	storeTimeout time.Duration
}

func New(accts accounts.Accounts, store bets.Bets, cfg config.HistoryConfig) *Reader {
	maxLimit := max(cfg.MaxLimit, DefaultLimit)

	timeout := cfg.StoreTimeout
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}

	return &Reader{accounts: accts, bets: store, maxLimit: maxLimit, storeTimeout: timeout}
}

// GetRecentBets returns up to limit bets, newest first. Bets committed to
// the account but not yet in the bet store are included.
func (r *Reader) GetRecentBets(ctx context.Context, accountID string, limit int) ([]bets.Record, error) {
	err := accounts.ValidateID(accountID)
	if err != nil {
		return nil, err
	}

	limit = r.clamp(limit)

	// the outbox is read first: an entry acknowledged after this read was
	// appended before the ack, so the listing below still sees it
	var pending []bets.Record

	sctx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	acct, err := r.accounts.Get(sctx, accountID)
	cancel()
	switch {
	case err == nil:
		pending = acct.Pending
	case !errors.Is(err, accounts.ErrAccountNotFound):
		return nil, fmt.Errorf("load account: %w", unavailable(err))
	}

	sctx, cancel = context.WithTimeout(ctx, r.storeTimeout)
	stored, err := r.bets.ListRecent(sctx, accountID, limit)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("list bets: %w", unavailable(err))
	}

	return merge(stored, pending, limit), nil
}

func (r *Reader) clamp(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > r.maxLimit:
		return r.maxLimit
	default:
		return limit
	}
}

func merge(stored, pending []bets.Record, limit int) []bets.Record {
	seen := make(map[string]bool, len(stored)+len(pending))
	out := make([]bets.Record, 0, len(stored)+len(pending))

	for _, group := range [][]bets.Record{pending, stored} {
		for _, rec := range group {
			if seen[rec.ID] {
				continue
			}
			seen[rec.ID] = true
			out = append(out, rec)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SettledAt.Equal(out[j].SettledAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].SettledAt.After(out[j].SettledAt)
	})

	if len(out) > limit {
		out = out[:limit]
	}

	return out
}

type Summary struct {
	Bets         int
	Wins         int
	Losses       int
	WinRate      float64
	TotalStaked  decimal.Decimal
	TotalPaidOut decimal.Decimal
	Net          decimal.Decimal
}

// Summarize aggregates the same window GetRecentBets returns.
func (r *Reader) Summarize(ctx context.Context, accountID string, limit int) (Summary, error) {
	recs, err := r.GetRecentBets(ctx, accountID, limit)
	if err != nil {
		return Summary{}, err
	}

	return summarize(recs), nil
}

func summarize(recs []bets.Record) Summary {
	s := Summary{
		Bets:         len(recs),
		TotalStaked:  decimal.Zero,
		TotalPaidOut: decimal.Zero,
	}

	for _, rec := range recs {
		if rec.Won {
			s.Wins++
		} else {
			s.Losses++
		}

		s.TotalStaked = s.TotalStaked.Add(rec.Stake)
		s.TotalPaidOut = s.TotalPaidOut.Add(rec.Payout)
	}

	s.Net = s.TotalPaidOut.Sub(s.TotalStaked)

	if s.Bets > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Bets)
	}

	return s
}

func unavailable(err error) error {
	if errors.Is(err, repos.ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return err
}
