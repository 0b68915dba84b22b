package ledger

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const maxIdempotencyKeyLen = 128

func hasCents(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(2))
}

func validateStake(stake, maxStake decimal.Decimal) error {
	switch {
	case !stake.IsPositive():
		return fmt.Errorf("%w: %s must be positive", ErrInvalidStake, stake)
	case !hasCents(stake):
		return fmt.Errorf("%w: %s has more than 2 decimals", ErrInvalidStake, stake)
	case stake.GreaterThan(maxStake):
		return fmt.Errorf("%w: %s exceeds maximum %s", ErrInvalidStake, stake, maxStake.StringFixed(2))
	}

	return nil
}

func validateIdempotencyKey(key string) error {
	if len(key) > maxIdempotencyKeyLen || !utf8.ValidString(key) {
		return fmt.Errorf("%w: at most %d bytes of utf-8", ErrInvalidIdempotencyKey, maxIdempotencyKeyLen)
	}

	for _, r := range key {
		if !unicode.IsPrint(r) || unicode.IsSpace(r) {
			return fmt.Errorf("%w: %q contains blank or control characters", ErrInvalidIdempotencyKey, key)
		}
	}

	return nil
}

func validateAdjustment(req AdjustRequest, minTransfer decimal.Decimal) error {
	if req.Delta.IsZero() || !hasCents(req.Delta) {
		return fmt.Errorf("%w: delta %s must be non-zero with at most 2 decimals", ErrInvalidAmount, req.Delta)
	}

	switch req.Reason {
	case ReasonDeposit:
		if !req.Delta.IsPositive() {
			return fmt.Errorf("%w: deposit must be positive", ErrInvalidAmount)
		}
	case ReasonWithdrawal:
		if !req.Delta.IsNegative() {
			return fmt.Errorf("%w: withdrawal must be negative", ErrInvalidAmount)
		}
	case ReasonCorrection:
		return nil
	default:
		return fmt.Errorf("%w: unknown reason %q", ErrInvalidAmount, req.Reason)
	}

	if req.Delta.Abs().LessThan(minTransfer) {
		return fmt.Errorf("%w: %s below minimum %s", ErrInvalidAmount, req.Reason, minTransfer.StringFixed(2))
	}

	return nil
}
