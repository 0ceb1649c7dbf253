package diary

import (
	"github.com/etnz/diary/date"
)

// Engine computes interest, profit and position views. It holds no state
// besides its accrual model and is safe for concurrent use.
type Engine struct {
	accrual Accrual
}

// Option configures an Engine.
type Option func(*Engine)

// WithAccrual replaces the default FlatRate accrual model.
func WithAccrual(a Accrual) Option {
	return func(e *Engine) {
		if a != nil {
			e.accrual = a
		}
	}
}

// NewEngine returns an engine, by default charging positions with FlatRate.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{accrual: FlatRate{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Accrual returns the engine's accrual model.
func (e *Engine) Accrual() Accrual { return e.accrual }

var defaultEngine = NewEngine()

// PositionProfit computes the single-exit profit of p with the flat rate model.
func PositionProfit(p Position) (Money, bool, error) { return defaultEngine.PositionProfit(p) }

// ClosureInterest computes the interest allocated to c with the flat rate model.
func ClosureInterest(p Position, c Closure) (Money, error) { return defaultEngine.ClosureInterest(p, c) }

// ClosureProfit computes the realized profit of c with the flat rate model.
func ClosureProfit(p Position, c Closure) (Money, error) { return defaultEngine.ClosureProfit(p, c) }

// AggregateProfit sums the closure profits of t with the flat rate model.
func AggregateProfit(t Trade) (Money, error) { return defaultEngine.AggregateProfit(t) }

// ComputeView computes the view of a position with the flat rate model.
func ComputeView(p Position, closures []Closure, asOf date.Date) (PositionView, error) {
	return defaultEngine.ComputeView(p, closures, asOf)
}
