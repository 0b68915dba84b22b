package bets

import (
	"context"
	"fmt"

	"github.com/fastprodman/wagerledger/internal/infra/pgutils"
	"github.com/fastprodman/wagerledger/internal/repos/bets"
)

func (r *betsRepo) ListRecent(ctx context.Context, accountID string, limit int) ([]bets.Record, error) {
	if limit <= 0 {
		return []bets.Record{}, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM bets
		WHERE account_id = $1
		ORDER BY settled_at DESC, id DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("list bets: %w", pgutils.Classify(err))
	}
	defer rows.Close()

	out := make([]bets.Record, 0, limit)
	for rows.Next() {
		rec, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bet: %w", pgutils.Classify(err))
		}

		out = append(out, rec)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate bets: %w", pgutils.Classify(err))
	}

	return out, nil
}
