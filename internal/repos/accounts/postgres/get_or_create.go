package accounts

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/wagerledger/internal/infra/pgutils"
	"github.com/fastprodman/wagerledger/internal/repos/accounts"
	"github.com/shopspring/decimal"
)

func (r *accountsRepo) GetOrCreate(ctx context.Context, id string, initial decimal.Decimal) (accounts.Account, error) {
	var acct accounts.Account

	err := pgutils.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO accounts (id, balance, version, pending)
			VALUES ($1, $2, 0, '[]'::jsonb)
			ON CONFLICT (id) DO NOTHING
		`, id, initial)
		if err != nil {
			return fmt.Errorf("insert account: %w", pgutils.Classify(err))
		}

		acct, err = scanAccount(tx.QueryRowContext(ctx, `
			SELECT `+selectColumns+`
			FROM accounts
			WHERE id = $1
		`, id))
		if err != nil {
			return fmt.Errorf("select account: %w", pgutils.Classify(err))
		}

		return nil
	})
	if err != nil {
		return accounts.Account{}, fmt.Errorf("get or create account: %w", err)
	}

	return acct, nil
}
