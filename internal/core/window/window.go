package window

import (
	"fmt"
	"strings"

	cerr "github.com/windrose-analytics/windrose/internal/core/errors"
	"github.com/windrose-analytics/windrose/internal/core/expr"
)

// Unit is a unit of time for window lengths and offsets.
type Unit string

const (
	UnitMinutes Unit = "minutes"
	UnitHours   Unit = "hours"
	UnitDays    Unit = "days"
	UnitWeeks   Unit = "weeks"
)

// unitSeconds maps each unit to its fixed second count. The table is total
// over the four supported units and read-only for the process lifetime; an
// unrecognized unit is a configuration error, never silently defaulted.
var unitSeconds = map[Unit]int64{
	UnitMinutes: 60,
	UnitHours:   3600,
	UnitDays:    86400,
	UnitWeeks:   604800,
}

// Units returns the supported units of time in a stable order.
func Units() []Unit {
	return []Unit{UnitMinutes, UnitHours, UnitDays, UnitWeeks}
}

func unitList() string {
	names := make([]string, 0, len(unitSeconds))
	for _, u := range Units() {
		names = append(names, string(u))
	}
	return strings.Join(names, ", ")
}

// SecondsFor converts a window length in the given unit to seconds.
// A negative length or an unrecognized unit fails before any arithmetic.
func SecondsFor(length int64, unit Unit) (int64, error) {
	if length < 0 {
		return 0, fmt.Errorf("%w: window length must not be negative, got %d", cerr.ErrInvalidArgument, length)
	}
	multiplier, ok := unitSeconds[unit]
	if !ok {
		return 0, fmt.Errorf("%w: %q; unit of time must be one of: %s", cerr.ErrUnsupportedUnit, string(unit), unitList())
	}
	return multiplier * length, nil
}

// Spec is a partitioned, ordered, range-bounded window specification.
// Bounds are signed offsets in seconds relative to the current row's order
// key value (0 = the current row). A Spec is built fresh per call and
// immutable once built; it carries no state shared with other specs.
type Spec struct {
	partitionBy []expr.Expr
	orderBy     expr.Expr
	start       int64
	end         int64
}

// Start returns the window's start bound in seconds relative to the current row.
func (s *Spec) Start() int64 { return s.start }

// End returns the window's end bound in seconds relative to the current row.
func (s *Spec) End() int64 { return s.end }

// OverSQL renders the window as an engine SQL window clause. The order key
// is cast to integer epoch seconds so RANGE framing yields wall-clock
// semantics regardless of row density.
func (s *Spec) OverSQL() string {
	parts := make([]string, 0, len(s.partitionBy))
	for _, p := range s.partitionBy {
		parts = append(parts, p.SQL())
	}
	return fmt.Sprintf(
		"PARTITION BY %s ORDER BY %s RANGE BETWEEN %s AND %s",
		strings.Join(parts, ", "),
		expr.EpochSeconds(s.orderBy).SQL(),
		boundSQL(s.start),
		boundSQL(s.end),
	)
}

func boundSQL(n int64) string {
	switch {
	case n < 0:
		return fmt.Sprintf("%d PRECEDING", -n)
	case n > 0:
		return fmt.Sprintf("%d FOLLOWING", n)
	default:
		return "CURRENT ROW"
	}
}

func validateKeys(orderBy expr.ColumnRef, partitionBy []expr.ColumnRef) error {
	if orderBy.IsZero() {
		return fmt.Errorf("%w: order column is required", cerr.ErrInvalidArgument)
	}
	if len(partitionBy) == 0 {
		return fmt.Errorf("%w: at least one partition column is required", cerr.ErrInvalidArgument)
	}
	for _, p := range partitionBy {
		if p.IsZero() {
			return fmt.Errorf("%w: partition column must not be empty", cerr.ErrInvalidArgument)
		}
	}
	return nil
}

func newSpec(start, end int64, orderBy expr.ColumnRef, partitionBy []expr.ColumnRef) *Spec {
	parts := make([]expr.Expr, 0, len(partitionBy))
	for _, p := range partitionBy {
		parts = append(parts, p.Normalize())
	}
	return &Spec{
		partitionBy: parts,
		orderBy:     orderBy.Normalize(),
		start:       start,
		end:         end,
	}
}

// Combined builds a window spanning from a lookback bound to a lookahead
// bound around the current row. It is the canonical primitive: Lookback and
// Lookahead are the same arithmetic with the opposite side pinned to the
// current row. Inclusivity is controlled independently at each edge: an
// excluded start moves the bound one second later, an excluded end one
// second earlier.
func Combined(
	lookbackLength, lookaheadLength, lookbackOffset, lookaheadOffset int64,
	unit Unit,
	orderBy expr.ColumnRef,
	partitionBy []expr.ColumnRef,
	includeStart, includeEnd bool,
) (*Spec, error) {
	if err := validateKeys(orderBy, partitionBy); err != nil {
		return nil, err
	}

	lookback, err := SecondsFor(lookbackLength, unit)
	if err != nil {
		return nil, err
	}
	lookahead, err := SecondsFor(lookaheadLength, unit)
	if err != nil {
		return nil, err
	}
	backOffset, err := SecondsFor(lookbackOffset, unit)
	if err != nil {
		return nil, err
	}
	aheadOffset, err := SecondsFor(lookaheadOffset, unit)
	if err != nil {
		return nil, err
	}

	start := -(lookback + backOffset)
	if !includeStart {
		start++
	}
	end := lookahead + aheadOffset
	if !includeEnd {
		end--
	}

	return newSpec(start, end, orderBy, partitionBy), nil
}

// Lookback builds a window ending at (or just before) the current row and
// extending backward by length units, shifted further back by offset units.
// includeCurrent controls whether the row at the end boundary is part of
// the window.
func Lookback(
	length, offset int64,
	unit Unit,
	orderBy expr.ColumnRef,
	partitionBy []expr.ColumnRef,
	includeCurrent bool,
) (*Spec, error) {
	if err := validateKeys(orderBy, partitionBy); err != nil {
		return nil, err
	}

	seconds, err := SecondsFor(length, unit)
	if err != nil {
		return nil, err
	}
	offsetSeconds, err := SecondsFor(offset, unit)
	if err != nil {
		return nil, err
	}

	start := -(seconds + offsetSeconds)
	end := -offsetSeconds
	if !includeCurrent {
		end--
	}

	return newSpec(start, end, orderBy, partitionBy), nil
}

// Lookahead builds a window starting at (or just after) the current row and
// extending forward by length units, shifted further forward by offset
// units.
func Lookahead(
	length, offset int64,
	unit Unit,
	orderBy expr.ColumnRef,
	partitionBy []expr.ColumnRef,
	includeCurrent bool,
) (*Spec, error) {
	if err := validateKeys(orderBy, partitionBy); err != nil {
		return nil, err
	}

	seconds, err := SecondsFor(length, unit)
	if err != nil {
		return nil, err
	}
	offsetSeconds, err := SecondsFor(offset, unit)
	if err != nil {
		return nil, err
	}

	start := offsetSeconds
	if !includeCurrent {
		start++
	}
	end := seconds + offsetSeconds

	return newSpec(start, end, orderBy, partitionBy), nil
}
