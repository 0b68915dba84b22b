package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/wagerledger/internal/infra/pgutils"
	"github.com/fastprodman/wagerledger/internal/repos/accounts"
)

func (r *accountsRepo) CompareAndSwap(ctx context.Context, expected int64, next accounts.Account) error {
	err := accounts.CheckNext(expected, next)
	if err != nil {
		return fmt.Errorf("compare and swap: %w", err)
	}

	pending, err := encodePending(next.Pending)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET balance = $1,
		    version = $2,
		    pending = $3::jsonb,
		    updated_at = now()
		WHERE id = $4
		  AND version = $5
	`, next.Balance, next.Version, string(pending), next.ID, expected)
	if err != nil {
		return fmt.Errorf("compare and swap: %w", pgutils.Classify(err))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", pgutils.Classify(err))
	}

	if affected == 1 {
		return nil
	}

	// zero rows: either the account is gone or its version moved on
	var exists bool

	err = r.db.QueryRowContext(ctx, `SELECT true FROM accounts WHERE id = $1`, next.ID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return accounts.ErrAccountNotFound
		}

		return fmt.Errorf("check account: %w", pgutils.Classify(err))
	}

	return accounts.ErrVersionConflict
}
