// Package outcome draws bet results and computes payouts.
package outcome

import (
	"math/rand/v2"

	"github.com/shopspring/decimal"
)

// Source yields uniform values in [0,1). Implementations must be safe for
// concurrent use.
type Source interface {
	Float64() float64
}

// SourceFunc adapts a function to Source.
type SourceFunc func() float64

func (f SourceFunc) Float64() float64 { return f() }

// globalSource reads the runtime's goroutine-safe generator.
type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// Engine holds no mutable state of its own.
type Engine struct {
	src Source
}

// New returns an engine over src. A nil src uses the process-wide generator.
func New(src Source) *Engine {
	if src == nil {
		src = globalSource{}
	}

	return &Engine{src: src}
}

// Draw reports a win with probability p. p outside (0,1] never wins.
func (e *Engine) Draw(p float64) bool {
	if !(p > 0 && p <= 1) {
		return false
	}

	return e.src.Float64() < p
}

// Settle returns the recorded multiplier and the payout for a stake on c.
// A lost bet records multiplier 0 and pays nothing.
func Settle(stake decimal.Decimal, c Choice, won bool) (multiplier, payout decimal.Decimal) {
	if !won {
		return decimal.Zero, decimal.Zero
	}

	return c.Multiplier, stake.Mul(c.Multiplier)
}
