package metric

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	cerr "github.com/windrose-analytics/windrose/internal/core/errors"
	"github.com/windrose-analytics/windrose/internal/core/expr"
)

// Strategy selects which reduction the engine applies to the subtrahend
// values inside a window.
type Strategy string

const (
	StrategyMean   Strategy = "mean"
	StrategyLast   Strategy = "last"
	StrategyFirst  Strategy = "first"
	StrategyMedian Strategy = "median"
)

// strategyLatest resolves to the most recent prior row when scanning
// backward from the current row. It is internal to rate-of-change
// denominators and never accepted from callers.
const strategyLatest Strategy = "latest"

// aggFunc renders the reduction call for one strategy.
type aggFunc func(arg expr.Expr) string

// strategies is the registry of caller-selectable reductions. To add a
// strategy: add an entry here. No switch statements need to be modified
// anywhere in the codebase.
var strategies = map[Strategy]aggFunc{
	StrategyMean:   func(arg expr.Expr) string { return fmt.Sprintf("AVG(%s)", arg.SQL()) },
	StrategyLast:   func(arg expr.Expr) string { return fmt.Sprintf("LAST_VALUE(%s) IGNORE NULLS", arg.SQL()) },
	StrategyFirst:  func(arg expr.Expr) string { return fmt.Sprintf("FIRST_VALUE(%s) IGNORE NULLS", arg.SQL()) },
	StrategyMedian: medianAgg,
}

// medianAgg renders an approximate-percentile reduction at the midpoint.
func medianAgg(arg expr.Expr) string {
	half := expr.Lit(decimal.New(5, -1))
	return fmt.Sprintf("PERCENTILE_APPROX(%s, %s)", arg.SQL(), half.SQL())
}

// latestAgg is the rendering for strategyLatest. Over a lookback window it
// resolves to the nearest earlier row in partition order; with duplicate
// timestamps the tied row wins, which makes a zero elapsed-time denominator
// possible. That zero is deliberately not intercepted.
func latestAgg(arg expr.Expr) string {
	return fmt.Sprintf("LAST_VALUE(%s) IGNORE NULLS", arg.SQL())
}

// ValidStrategy reports whether s is a caller-selectable strategy.
func ValidStrategy(s Strategy) bool {
	_, ok := strategies[s]
	return ok
}

// Strategies returns the caller-selectable strategies in a stable order.
func Strategies() []Strategy {
	return []Strategy{StrategyMean, StrategyLast, StrategyFirst, StrategyMedian}
}

func strategyList() string {
	names := make([]string, 0, len(strategies))
	for _, s := range Strategies() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

// validateStrategy rejects anything outside the caller-selectable set,
// before any window is constructed. The message enumerates the valid set so
// callers can self-correct.
func validateStrategy(s Strategy) error {
	if !ValidStrategy(s) {
		return fmt.Errorf(
			"%w: invalid aggregation strategy %q; may only be one of: %s",
			cerr.ErrInvalidArgument, string(s), strategyList(),
		)
	}
	return nil
}

// resolve returns the rendering for any strategy, including the internal
// latest strategy. Callers must have validated caller-supplied strategies
// beforehand.
func resolve(s Strategy) aggFunc {
	if s == strategyLatest {
		return latestAgg
	}
	return strategies[s]
}
