package accounts

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/fastprodman/wagerledger/internal/repos"
	"github.com/fastprodman/wagerledger/internal/repos/accounts"
	"github.com/fastprodman/wagerledger/internal/repos/bets"
)

var _ accounts.Accounts = (*accountsRepo)(nil)

type accountsRepo struct{ db *sql.DB }

func New(db *sql.DB) *accountsRepo {
	return &accountsRepo{db: db}
}

const selectColumns = `id, balance, version, pending, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanAccount reads one row and validates it before handing it out.
func scanAccount(row rowScanner) (accounts.Account, error) {
	var (
		acct    accounts.Account
		pending []byte
	)

	err := row.Scan(&acct.ID, &acct.Balance, &acct.Version, &pending, &acct.CreatedAt, &acct.UpdatedAt)
	if err != nil {
		return accounts.Account{}, err
	}

	err = json.Unmarshal(pending, &acct.Pending)
	if err != nil {
		return accounts.Account{}, fmt.Errorf("%w: account %s pending: %v", repos.ErrCorrupt, acct.ID, err)
	}

	err = acct.Validate()
	if err != nil {
		return accounts.Account{}, err
	}

	return acct, nil
}

func encodePending(pending []bets.Record) ([]byte, error) {
	if pending == nil {
		pending = []bets.Record{}
	}

	raw, err := json.Marshal(pending)
	if err != nil {
		return nil, fmt.Errorf("encode pending: %w", err)
	}

	return raw, nil
}
