// Package metric composes window-scoped aggregate expressions into derived
// temporal metrics. Both builders are pure and stateless: every call
// constructs fresh immutable specification objects, and nothing here
// executes — the composed expressions are handed to the external query
// engine unmodified.
package metric

import (
	"fmt"

	cerr "github.com/windrose-analytics/windrose/internal/core/errors"
	"github.com/windrose-analytics/windrose/internal/core/expr"
	"github.com/windrose-analytics/windrose/internal/core/window"
)

// windowedAgg is a reduction applied over a window spec. It renders as
// `FN(arg) OVER (...)`.
type windowedAgg struct {
	fn   aggFunc
	arg  expr.Expr
	over *window.Spec
}

func (w windowedAgg) SQL() string {
	return fmt.Sprintf("%s OVER (%s)", w.fn(w.arg), w.over.OverSQL())
}

// LaggedDelta builds minuend − aggregate(subtrahend) where the aggregate is
// evaluated over a lookback window of length window length units, shifted
// back by offset units, partitioned by partitionBy and ordered by orderBy.
// The strategy is validated before any window is constructed.
func LaggedDelta(
	minuend, subtrahend, orderBy expr.ColumnRef,
	partitionBy []expr.ColumnRef,
	length, offset int64,
	unit window.Unit,
	strategy Strategy,
) (expr.Expr, error) {
	if err := validateStrategy(strategy); err != nil {
		return nil, err
	}
	if minuend.IsZero() {
		return nil, fmt.Errorf("%w: minuend column is required", cerr.ErrInvalidArgument)
	}
	if subtrahend.IsZero() {
		return nil, fmt.Errorf("%w: subtrahend column is required", cerr.ErrInvalidArgument)
	}
	return laggedDelta(minuend, subtrahend, orderBy, partitionBy, length, offset, unit, strategy)
}

// laggedDelta is the unvalidated composition shared by LaggedDelta and
// RateOfChange; the latter needs it to pass the internal latest strategy.
func laggedDelta(
	minuend, subtrahend, orderBy expr.ColumnRef,
	partitionBy []expr.ColumnRef,
	length, offset int64,
	unit window.Unit,
	strategy Strategy,
) (expr.Expr, error) {
	w, err := window.Lookback(length, offset, unit, orderBy, partitionBy, true)
	if err != nil {
		return nil, err
	}
	agg := windowedAgg{fn: resolve(strategy), arg: subtrahend.Normalize(), over: w}
	return expr.Sub(minuend.Normalize(), agg), nil
}

// RateOfChange builds the lagged delta of col divided by the elapsed time
// in seconds over the same lookback window. The denominator aggregates the
// epoch-seconds cast of the order key with the internal latest strategy,
// i.e. the timestamp of the nearest earlier row in partition order.
//
// A zero denominator (duplicate timestamps, empty window) is not
// intercepted: the division propagates the engine's own semantics,
// typically a NULL result per row. That pass-through is intentional.
func RateOfChange(
	col, orderBy expr.ColumnRef,
	partitionBy []expr.ColumnRef,
	length, offset int64,
	unit window.Unit,
	strategy Strategy,
) (expr.Expr, error) {
	if err := validateStrategy(strategy); err != nil {
		return nil, err
	}
	if col.IsZero() {
		return nil, fmt.Errorf("%w: value column is required", cerr.ErrInvalidArgument)
	}

	numerator, err := laggedDelta(col, col, orderBy, partitionBy, length, offset, unit, strategy)
	if err != nil {
		return nil, err
	}

	elapsed := expr.Handle(expr.EpochSeconds(orderBy.Normalize()))
	denominator, err := laggedDelta(elapsed, elapsed, orderBy, partitionBy, length, offset, unit, strategyLatest)
	if err != nil {
		return nil, err
	}

	return expr.Div(numerator, denominator), nil
}
