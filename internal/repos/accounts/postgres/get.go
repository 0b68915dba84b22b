package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/wagerledger/internal/infra/pgutils"
	"github.com/fastprodman/wagerledger/internal/repos/accounts"
)

func (r *accountsRepo) Get(ctx context.Context, id string) (accounts.Account, error) {
	acct, err := scanAccount(r.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM accounts
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return accounts.Account{}, accounts.ErrAccountNotFound
		}

		return accounts.Account{}, fmt.Errorf("get account: %w", pgutils.Classify(err))
	}

	return acct, nil
}
