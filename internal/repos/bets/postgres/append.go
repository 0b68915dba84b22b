package bets

import (
	"context"
	"fmt"

	"github.com/fastprodman/wagerledger/internal/infra/pgutils"
	"github.com/fastprodman/wagerledger/internal/repos/bets"
)

func (r *betsRepo) Append(ctx context.Context, rec bets.Record) error {
	err := rec.Validate()
	if err != nil {
		return fmt.Errorf("append bet: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO bets (id, account_id, multiplier_key, stake, multiplier, won, payout, balance_after, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (account_id, id) DO NOTHING
	`, rec.ID, rec.AccountID, rec.MultiplierKey, rec.Stake, rec.Multiplier, rec.Won, rec.Payout, rec.BalanceAfter, rec.SettledAt)
	if err != nil {
		return fmt.Errorf("insert bet: %w", pgutils.Classify(err))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", pgutils.Classify(err))
	}

	if affected == 1 {
		return nil
	}

	// already stored: a retry of the same append is fine, anything else is not
	stored, err := r.Get(ctx, rec.AccountID, rec.ID)
	if err != nil {
		return fmt.Errorf("load existing bet: %w", err)
	}

	if !stored.Same(rec) {
		return fmt.Errorf("append bet %s: %w", rec.ID, bets.ErrRecordMismatch)
	}

	return nil
}
