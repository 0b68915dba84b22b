package accounts

import (
	"context"
	"fmt"

	"github.com/fastprodman/wagerledger/internal/infra/pgutils"
	"github.com/fastprodman/wagerledger/internal/repos/accounts"
)

func (r *accountsRepo) ListPending(ctx context.Context, afterID string, limit int) ([]accounts.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM accounts
		WHERE pending <> '[]'::jsonb
		  AND id > $1
		ORDER BY id
		LIMIT $2
	`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", pgutils.Classify(err))
	}
	defer rows.Close()

	out := make([]accounts.Account, 0)
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", pgutils.Classify(err))
		}

		out = append(out, acct)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", pgutils.Classify(err))
	}

	return out, nil
}
