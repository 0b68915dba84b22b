package ledger

import (
	"errors"

	"github.com/fastprodman/wagerledger/internal/repos/accounts"
)

var (
	ErrInvalidStake          = errors.New("invalid stake")
	ErrInvalidMultiplier     = errors.New("invalid multiplier")
	ErrInvalidAccount        = accounts.ErrInvalidAccountID
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrInvalidIdempotencyKey = errors.New("invalid idempotency key")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrContention            = errors.New("account busy, retry with the same idempotency key")
	ErrUnavailable           = errors.New("ledger unavailable")
	ErrIdempotencyConflict   = errors.New("idempotency key already used for a different bet")

	// ErrRecordAppendPending marks a committed bet whose record is still being
	// appended. It is logged and never returned to callers.
	ErrRecordAppendPending = errors.New("bet record append pending")
)
