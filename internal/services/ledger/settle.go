package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fastprodman/wagerledger/internal/metrics"
	"github.com/fastprodman/wagerledger/internal/repos/accounts"
	"github.com/fastprodman/wagerledger/internal/repos/betcache"
	"github.com/fastprodman/wagerledger/internal/repos/bets"
	"github.com/fastprodman/wagerledger/internal/services/outcome"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// where a settled bet was found
const (
	fromCommit = "commit"
	fromCache  = "cache"
	fromOutbox = "outbox"
	fromStore  = "store"
)

type settlement struct {
	rec    bets.Record
	source string
}

// PlaceBet settles one bet. Retrying with the same idempotency key returns
// the first outcome and never moves the balance twice.
func (c *Coordinator) PlaceBet(ctx context.Context, req PlaceBetRequest) (BetOutcome, error) {
	started := time.Now()

	out, err := c.placeBet(ctx, req)
	metrics.RecordSettleDuration(resultLabel(err), started)

	if err != nil && !errors.Is(err, ErrUnavailable) && !errors.Is(err, ErrContention) {
		metrics.RecordRejected(resultLabel(err))
	}

	return out, err
}

func (c *Coordinator) placeBet(ctx context.Context, req PlaceBetRequest) (BetOutcome, error) {
	err := accounts.ValidateID(req.AccountID)
	if err != nil {
		return BetOutcome{}, err
	}

	err = validateStake(req.Stake, c.cfg.MaxStake)
	if err != nil {
		return BetOutcome{}, err
	}

	choice, err := c.table.Lookup(req.MultiplierKey)
	if err != nil {
		return BetOutcome{}, fmt.Errorf("%w: %w", ErrInvalidMultiplier, err)
	}

	betID := req.IdempotencyKey
	if betID == "" {
		betID = uuid.NewString()
	}

	err = validateIdempotencyKey(betID)
	if err != nil {
		return BetOutcome{}, err
	}

	log := c.log.With(zap.String("account_id", req.AccountID), zap.String("bet_id", betID))

	st, err := c.lookupCached(ctx, req.AccountID, betID, log)
	if err != nil {
		v, ferr, _ := c.inflight.Do(req.AccountID+"\x00"+betID, func() (any, error) {
			return c.settle(ctx, req.AccountID, betID, req.Stake, choice, log)
		})
		if ferr != nil {
			return BetOutcome{}, ferr
		}

		st = v.(settlement)
	}

	if !st.rec.Stake.Equal(req.Stake) || st.rec.MultiplierKey != req.MultiplierKey {
		return BetOutcome{}, fmt.Errorf("%w: bet %s was %s on %s", ErrIdempotencyConflict, betID, st.rec.Stake, st.rec.MultiplierKey)
	}

	if st.source != fromCommit {
		metrics.RecordReplay(st.source)
		log.Debug("bet replayed", zap.String("source", st.source))
	}

	return outcomeOf(st.rec), nil
}

func (c *Coordinator) lookupCached(ctx context.Context, accountID, betID string, log *zap.Logger) (settlement, error) {
	sctx, cancel := c.storeCtx(ctx)
	defer cancel()

	rec, err := c.cache.Get(sctx, accountID, betID)
	if err != nil {
		if !errors.Is(err, betcache.ErrMiss) {
			log.Warn("result cache lookup failed", zap.Error(err))
		}

		return settlement{}, err
	}

	return settlement{rec: rec, source: fromCache}, nil
}

// settle finds or commits the bet, then drives its outbox entry to completion.
func (c *Coordinator) settle(
	ctx context.Context,
	accountID, betID string,
	stake decimal.Decimal,
	choice outcome.Choice,
	log *zap.Logger,
) (settlement, error) {
	var st settlement

	attempts, err := c.cycle(ctx, func(ctx context.Context) error {
		var err error
		st, err = c.settleOnce(ctx, accountID, betID, stake, choice)
		return err
	})
	metrics.RecordAttempts(attempts)

	if err != nil {
		if errors.Is(err, ErrContention) || errors.Is(err, ErrUnavailable) {
			log.Warn("settlement failed", zap.Int("attempts", attempts), zap.Error(err))
		}

		return settlement{}, err
	}

	if st.source == fromCommit {
		metrics.RecordSettled(choice.Key, st.rec.Won)
		log.Info("bet settled",
			zap.Bool("won", st.rec.Won),
			zap.String("stake", st.rec.Stake.String()),
			zap.String("payout", st.rec.Payout.String()),
			zap.String("balance", st.rec.BalanceAfter.String()),
			zap.Int("attempts", attempts),
		)
	}

	// the caller has its outcome; finishing the record must survive its cancellation
	if st.source == fromCommit || st.source == fromOutbox {
		c.complete(context.WithoutCancel(ctx), st.rec, log)
	}

	c.remember(context.WithoutCancel(ctx), st.rec, log)

	return st, nil
}

// settleOnce is one read-decide-write cycle.
func (c *Coordinator) settleOnce(
	ctx context.Context,
	accountID, betID string,
	stake decimal.Decimal,
	choice outcome.Choice,
) (settlement, error) {
	sctx, cancel := c.storeCtx(ctx)
	acct, err := c.accounts.GetOrCreate(sctx, accountID, c.cfg.DefaultBalance)
	cancel()
	if err != nil {
		return settlement{}, fmt.Errorf("load account: %w", err)
	}

	// an earlier cycle, or another process, may already have committed this bet
	if rec, ok := acct.PendingBet(betID); ok {
		return settlement{rec: rec, source: fromOutbox}, nil
	}

	sctx, cancel = c.storeCtx(ctx)
	rec, err := c.bets.Get(sctx, accountID, betID)
	cancel()
	switch {
	case err == nil:
		return settlement{rec: rec, source: fromStore}, nil
	case !errors.Is(err, bets.ErrBetNotFound):
		return settlement{}, fmt.Errorf("look up bet: %w", err)
	}

	if len(acct.Pending) >= c.cfg.MaxPending {
		return settlement{}, fmt.Errorf("%w: account %s has %d bets awaiting their record", ErrUnavailable, accountID, len(acct.Pending))
	}

	if acct.Balance.LessThan(stake) {
		return settlement{}, fmt.Errorf("%w: balance %s, stake %s", ErrInsufficientFunds, acct.Balance.StringFixed(2), stake.StringFixed(2))
	}

	won := c.engine.Draw(choice.WinProbability)
	multiplier, payout := outcome.Settle(stake, choice, won)

	rec = bets.Record{
		ID:            betID,
		AccountID:     accountID,
		MultiplierKey: choice.Key,
		Stake:         stake,
		Multiplier:    multiplier,
		Won:           won,
		Payout:        payout,
		BalanceAfter:  acct.Balance.Sub(stake).Add(payout),
		SettledAt:     c.settledAt(),
	}

	next := acct.Clone()
	next.Balance = rec.BalanceAfter
	next.Version = acct.Version + 1
	next.Pending = append(next.Pending, rec)

	sctx, cancel = c.storeCtx(ctx)
	err = c.accounts.CompareAndSwap(sctx, acct.Version, next)
	cancel()
	if err != nil {
		return settlement{}, fmt.Errorf("commit settlement: %w", err)
	}

	return settlement{rec: rec, source: fromCommit}, nil
}

func (c *Coordinator) remember(ctx context.Context, rec bets.Record, log *zap.Logger) {
	sctx, cancel := c.storeCtx(ctx)
	defer cancel()

	err := c.cache.Put(sctx, rec)
	if err != nil {
		log.Warn("result cache store failed", zap.Error(err))
	}
}

func outcomeOf(rec bets.Record) BetOutcome {
	return BetOutcome{
		BetID:      rec.ID,
		Won:        rec.Won,
		Multiplier: rec.Multiplier,
		Payout:     rec.Payout,
		NewBalance: rec.BalanceAfter,
	}
}
