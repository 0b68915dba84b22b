package events

import (
	"context"

	"github.com/fastprodman/wagerledger/internal/repos/bets"
)

// Publisher announces settled bets to downstream consumers.
type Publisher interface {
	PublishBetSettled(ctx context.Context, rec bets.Record) error
}

// Nop drops every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) PublishBetSettled(context.Context, bets.Record) error { return nil }
