package bets

import (
	"database/sql"

	"github.com/fastprodman/wagerledger/internal/repos/bets"
)

var _ bets.Bets = (*betsRepo)(nil)

type betsRepo struct{ db *sql.DB }

func New(db *sql.DB) *betsRepo {
	return &betsRepo{db: db}
}

const selectColumns = `id, account_id, multiplier_key, stake, multiplier, won, payout, balance_after, settled_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBet(row rowScanner) (bets.Record, error) {
	var rec bets.Record

	err := row.Scan(
		&rec.ID,
		&rec.AccountID,
		&rec.MultiplierKey,
		&rec.Stake,
		&rec.Multiplier,
		&rec.Won,
		&rec.Payout,
		&rec.BalanceAfter,
		&rec.SettledAt,
	)
	if err != nil {
		return bets.Record{}, err
	}

	err = rec.Validate()
	if err != nil {
		return bets.Record{}, err
	}

	rec.SettledAt = rec.SettledAt.UTC()

	return rec, nil
}
