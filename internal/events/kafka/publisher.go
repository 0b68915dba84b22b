package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fastprodman/wagerledger/internal/events"
	"github.com/fastprodman/wagerledger/internal/repos/bets"
	contracts "github.com/fastprodman/wagerledger/pkg/contracts/events"
	"github.com/segmentio/kafka-go"
)

var _ events.Publisher = (*Publisher)(nil)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Publisher struct {
	w messageWriter
}

func NewPublisher(w messageWriter) *Publisher {
	return &Publisher{w: w}
}

func (p *Publisher) PublishBetSettled(ctx context.Context, rec bets.Record) error {
	payload, err := json.Marshal(ToContract(rec))
	if err != nil {
		return fmt.Errorf("marshal bet settled: %w", err)
	}

	// keyed by account so one account's events stay ordered in a partition
	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(rec.AccountID),
		Value: payload,
		Time:  rec.SettledAt,
	})
	if err != nil {
		return fmt.Errorf("write bet settled: %w", err)
	}

	return nil
}

func ToContract(rec bets.Record) contracts.BetSettled {
	return contracts.BetSettled{
		BetID:         rec.ID,
		AccountID:     rec.AccountID,
		MultiplierKey: rec.MultiplierKey,
		Stake:         rec.Stake.String(),
		Multiplier:    rec.Multiplier.String(),
		Won:           rec.Won,
		Payout:        rec.Payout.String(),
		BalanceAfter:  rec.BalanceAfter.String(),
		SettledAt:     rec.SettledAt,
	}
}
