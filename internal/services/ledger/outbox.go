package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/fastprodman/wagerledger/internal/config"
	"github.com/fastprodman/wagerledger/internal/metrics"
	"github.com/fastprodman/wagerledger/internal/repos/bets"
	"go.uber.org/zap"
)

// delivery paths
const (
	viaInline     = "inline"
	viaBackground = "background"
	viaFlusher    = "flusher"
)

// complete delivers rec now, or hands it to background redelivery.
func (c *Coordinator) complete(ctx context.Context, rec bets.Record, log *zap.Logger) {
	err := c.deliver(ctx, rec, viaInline, log)
	if err == nil {
		return
	}

	metrics.RecordAppendPending()

	if errors.Is(err, bets.ErrRecordMismatch) {
		log.Error("bet store holds a different record under this id", zap.Error(err))
		return
	}

	log.Warn("bet record deferred", zap.Error(fmt.Errorf("%w: %w", ErrRecordAppendPending, err)))
	c.redeliverLater(rec, log)
}

// deliver appends rec, announces it and removes it from the outbox.
// Every step is safe to repeat.
func (c *Coordinator) deliver(ctx context.Context, rec bets.Record, via string, log *zap.Logger) error {
	sctx, cancel := c.storeCtx(ctx)
	err := c.bets.Append(sctx, rec)
	cancel()
	if err != nil {
		return fmt.Errorf("append bet: %w", err)
	}

	sctx, cancel = c.storeCtx(ctx)
	err = c.publisher.PublishBetSettled(sctx, rec)
	cancel()
	if err != nil {
		metrics.RecordPublishFailed()
		log.Warn("bet_settled event not published", zap.Error(err))
	}

	err = c.ack(ctx, rec)
	if err != nil {
		return fmt.Errorf("ack outbox: %w", err)
	}

	metrics.RecordDelivered(via)

	return nil
}

// ack drops rec from its account outbox. A missing entry is already acked.
func (c *Coordinator) ack(ctx context.Context, rec bets.Record) error {
	_, err := c.cycle(ctx, func(ctx context.Context) error {
		sctx, cancel := c.storeCtx(ctx)
		acct, err := c.accounts.Get(sctx, rec.AccountID)
		cancel()
		if err != nil {
			return fmt.Errorf("load account: %w", err)
		}

		i := slices.IndexFunc(acct.Pending, func(p bets.Record) bool { return p.ID == rec.ID })
		if i < 0 {
			return nil
		}

		next := acct.Clone()
		next.Pending = slices.Delete(next.Pending, i, i+1)
		next.Version = acct.Version + 1

		sctx, cancel = c.storeCtx(ctx)
		defer cancel()

		return c.accounts.CompareAndSwap(sctx, acct.Version, next)
	})

	return err
}

// redeliverLater keeps retrying rec until it lands or the coordinator closes.
func (c *Coordinator) redeliverLater(rec bets.Record, log *zap.Logger) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.bg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.bg.Done()

		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = c.cfg.BackoffInitial
		exp.MaxInterval = c.cfg.AppendMaxInterval

		_, err := backoff.Retry(c.bgCtx, func() (struct{}, error) {
			err := c.deliver(c.bgCtx, rec, viaBackground, log)
			if errors.Is(err, bets.ErrRecordMismatch) {
				return struct{}{}, backoff.Permanent(err)
			}

			return struct{}{}, err
		},
			backoff.WithBackOff(exp),
			backoff.WithMaxElapsedTime(0),
		)
		if err != nil {
			log.Warn("bet record left in outbox", zap.Error(err))
			return
		}

		log.Info("deferred bet record delivered")
	}()
}

// Flusher sweeps account outboxes for entries nobody is delivering, such as
// those left behind by a crashed process. Each sweep resumes after the last
// account of the previous one, so accounts that cannot be delivered do not
// hold back the rest.
type Flusher struct {
	c        *Coordinator
	interval time.Duration
	batch    int
	log      *zap.Logger

	mu     sync.Mutex
	cursor string
}

func NewFlusher(c *Coordinator, cfg config.LedgerConfig) *Flusher {
	batch := cfg.FlushBatch
	if batch <= 0 {
		batch = 100
	}

	return &Flusher{
		c:        c,
		interval: cfg.FlushInterval,
		batch:    batch,
		log:      c.log.Named("flusher"),
	}
}

// Run flushes every interval until ctx is done.
func (f *Flusher) Run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := f.FlushOnce(ctx)
			if err != nil && ctx.Err() == nil {
				f.log.Warn("outbox flush failed", zap.Error(err))
				continue
			}

			if n > 0 {
				f.log.Info("outbox flushed", zap.Int("delivered", n))
			}
		}
	}
}

// FlushOnce delivers what the next batch of accounts holds and reports how
// many entries were delivered.
func (f *Flusher) FlushOnce(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sctx, cancel := f.c.storeCtx(ctx)
	accts, err := f.c.accounts.ListPending(sctx, f.cursor, f.batch)
	cancel()
	if err != nil {
		return 0, fmt.Errorf("list pending: %w", unavailable(err))
	}

	// a short page means the end was reached; start over next time
	if len(accts) < f.batch {
		f.cursor = ""
	} else {
		f.cursor = accts[len(accts)-1].ID
	}

	delivered := 0

	for _, acct := range accts {
		for _, rec := range acct.Pending {
			log := f.log.With(zap.String("account_id", rec.AccountID), zap.String("bet_id", rec.ID))

			err := f.c.deliver(ctx, rec, viaFlusher, log)
			if err != nil {
				log.Warn("outbox entry not delivered", zap.Error(err))
				continue
			}

			delivered++
		}
	}

	return delivered, nil
}
