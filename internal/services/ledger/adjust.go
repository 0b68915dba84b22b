package ledger

import (
	"context"
	"fmt"

	"github.com/fastprodman/wagerledger/internal/metrics"
	"github.com/fastprodman/wagerledger/internal/repos/accounts"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AdjustBalance applies a deposit, withdrawal or correction and returns the
// new balance. It uses the same version guard as settlement.
func (c *Coordinator) AdjustBalance(ctx context.Context, req AdjustRequest) (decimal.Decimal, error) {
	balance, err := c.adjustBalance(ctx, req)

	reason := "unknown"
	switch req.Reason {
	case ReasonDeposit, ReasonWithdrawal, ReasonCorrection:
		reason = string(req.Reason)
	}
	metrics.RecordAdjustment(reason, resultLabel(err))

	return balance, err
}

func (c *Coordinator) adjustBalance(ctx context.Context, req AdjustRequest) (decimal.Decimal, error) {
	err := accounts.ValidateID(req.AccountID)
	if err != nil {
		return decimal.Decimal{}, err
	}

	err = validateAdjustment(req, c.cfg.MinTransfer)
	if err != nil {
		return decimal.Decimal{}, err
	}

	var balance decimal.Decimal

	attempts, err := c.cycle(ctx, func(ctx context.Context) error {
		sctx, cancel := c.storeCtx(ctx)
		acct, err := c.accounts.GetOrCreate(sctx, req.AccountID, c.cfg.DefaultBalance)
		cancel()
		if err != nil {
			return fmt.Errorf("load account: %w", err)
		}

		next := acct.Clone()
		next.Balance = acct.Balance.Add(req.Delta)
		next.Version = acct.Version + 1

		if next.Balance.IsNegative() {
			return fmt.Errorf("%w: balance %s, delta %s", ErrInsufficientFunds, acct.Balance.StringFixed(2), req.Delta.StringFixed(2))
		}

		sctx, cancel = c.storeCtx(ctx)
		defer cancel()

		err = c.accounts.CompareAndSwap(sctx, acct.Version, next)
		if err != nil {
			return fmt.Errorf("commit adjustment: %w", err)
		}

		balance = next.Balance

		return nil
	})
	if err != nil {
		return decimal.Decimal{}, err
	}

	c.log.Info("balance adjusted",
		zap.String("account_id", req.AccountID),
		zap.String("reason", string(req.Reason)),
		zap.String("delta", req.Delta.String()),
		zap.String("balance", balance.String()),
		zap.Int("attempts", attempts),
	)

	return balance, nil
}
