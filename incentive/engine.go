package incentive

import (
	"github.com/shopspring/decimal"

	"github.com/warp/incentive-engine/normalize"
)

// DefaultDoubleTargetBonus is paid once per aggregation when an agent's
// qualified leads reach twice their target.
var DefaultDoubleTargetBonus = decimal.NewFromInt(5000)

// =============================================================================
// ENGINE - Entry point for every core operation
// =============================================================================

// Engine bundles the configuration the pure operations need. It holds no
// mutable state; copies are independent and safe for concurrent use.
//
// The zero value is usable: UTC calendar, built-in country table, and no
// double-target bonus.
type Engine struct {
	Calendar          Calendar
	Normalizer        normalize.Normalizer
	DoubleTargetBonus decimal.Decimal
}

// Option configures an Engine.
type Option func(*Engine)

// WithCalendar sets the reference calendar.
func WithCalendar(c Calendar) Option {
	return func(e *Engine) { e.Calendar = c }
}

// WithNormalizer sets the free-text normalizer.
func WithNormalizer(n normalize.Normalizer) Option {
	return func(e *Engine) { e.Normalizer = n }
}

// WithDoubleTargetBonus sets the flat double-target bonus.
func WithDoubleTargetBonus(amount decimal.Decimal) Option {
	return func(e *Engine) { e.DoubleTargetBonus = amount }
}

// NewEngine returns an engine with defaults applied before opts.
func NewEngine(opts ...Option) Engine {
	e := Engine{
		Normalizer:        normalize.Default(),
		DoubleTargetBonus: DefaultDoubleTargetBonus,
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}
