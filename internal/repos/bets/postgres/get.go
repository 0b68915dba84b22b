package bets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/wagerledger/internal/infra/pgutils"
	"github.com/fastprodman/wagerledger/internal/repos/bets"
)

func (r *betsRepo) Get(ctx context.Context, accountID, betID string) (bets.Record, error) {
	rec, err := scanBet(r.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM bets
		WHERE account_id = $1
		  AND id = $2
	`, accountID, betID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return bets.Record{}, bets.ErrBetNotFound
		}

		return bets.Record{}, fmt.Errorf("get bet: %w", pgutils.Classify(err))
	}

	return rec, nil
}
