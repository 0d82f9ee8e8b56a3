// Package catalog holds named, reusable metric definitions: the window and
// strategy parameters for a lagged delta or rate of change, stored under a
// stable name so teams can share vetted metric plans. Definitions are pure
// data; Plan compiles one into the core builders' output.
package catalog

import (
	"fmt"
	"time"

	cerr "github.com/windrose-analytics/windrose/internal/core/errors"
	"github.com/windrose-analytics/windrose/internal/core/expr"
	"github.com/windrose-analytics/windrose/internal/core/metric"
	"github.com/windrose-analytics/windrose/internal/core/window"
)

// Kind selects which derived metric a definition compiles to.
type Kind string

const (
	KindLaggedDelta  Kind = "lagged_delta"
	KindRateOfChange Kind = "rate_of_change"
)

// ValidKind reports whether k is a supported definition kind.
func ValidKind(k Kind) bool {
	return k == KindLaggedDelta || k == KindRateOfChange
}

// Definition is a named metric specification.
type Definition struct {
	// ID is assigned by the registry at creation time.
	ID string `json:"id"`

	// Name is the unique, caller-facing identifier.
	Name string `json:"name"`

	Kind Kind `json:"kind"`

	// Column is the value column the metric is computed over.
	Column string `json:"column"`

	// Subtrahend is the column aggregated inside the window. Empty means
	// Column (the usual self-delta case). Only meaningful for lagged_delta.
	Subtrahend string `json:"subtrahend,omitempty"`

	// OrderColumn is the timestamp column; it must be castable to epoch
	// seconds by the engine.
	OrderColumn string `json:"order_column"`

	PartitionBy []string `json:"partition_by"`

	WindowLength int64           `json:"window_length"`
	Offset       int64           `json:"offset"`
	Unit         window.Unit     `json:"unit"`
	Strategy     metric.Strategy `json:"strategy"`

	// Fingerprint is the SHA-256 of the definition source; used for
	// staleness detection when definitions are loaded from files.
	Fingerprint string `json:"fingerprint,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Validate checks the definition eagerly, reusing the core builders'
// validation so a definition that loads is a definition that plans.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: definition name is required", cerr.ErrInvalidArgument)
	}
	if !ValidKind(d.Kind) {
		return fmt.Errorf("%w: definition %q: unsupported kind %q (must be %s or %s)",
			cerr.ErrInvalidArgument, d.Name, string(d.Kind), KindLaggedDelta, KindRateOfChange)
	}
	if d.Column == "" {
		return fmt.Errorf("%w: definition %q: column is required", cerr.ErrInvalidArgument, d.Name)
	}
	if d.OrderColumn == "" {
		return fmt.Errorf("%w: definition %q: order_column is required", cerr.ErrInvalidArgument, d.Name)
	}
	if len(d.PartitionBy) == 0 {
		return fmt.Errorf("%w: definition %q: partition_by must not be empty", cerr.ErrInvalidArgument, d.Name)
	}
	if !metric.ValidStrategy(d.Strategy) {
		return fmt.Errorf("%w: definition %q: invalid strategy %q", cerr.ErrInvalidArgument, d.Name, string(d.Strategy))
	}
	if _, err := window.SecondsFor(d.WindowLength, d.Unit); err != nil {
		return fmt.Errorf("definition %q: %w", d.Name, err)
	}
	if _, err := window.SecondsFor(d.Offset, d.Unit); err != nil {
		return fmt.Errorf("definition %q: %w", d.Name, err)
	}
	return nil
}

// Plan compiles the definition into its metric expression and the lookback
// window it evaluates over.
func (d *Definition) Plan() (expr.Expr, *window.Spec, error) {
	partitionBy := make([]expr.ColumnRef, 0, len(d.PartitionBy))
	for _, p := range d.PartitionBy {
		partitionBy = append(partitionBy, expr.Name(p))
	}
	orderBy := expr.Name(d.OrderColumn)

	w, err := window.Lookback(d.WindowLength, d.Offset, d.Unit, orderBy, partitionBy, true)
	if err != nil {
		return nil, nil, err
	}

	var e expr.Expr
	switch d.Kind {
	case KindLaggedDelta:
		subtrahend := d.Subtrahend
		if subtrahend == "" {
			subtrahend = d.Column
		}
		e, err = metric.LaggedDelta(
			expr.Name(d.Column), expr.Name(subtrahend), orderBy, partitionBy,
			d.WindowLength, d.Offset, d.Unit, d.Strategy,
		)
	case KindRateOfChange:
		e, err = metric.RateOfChange(
			expr.Name(d.Column), orderBy, partitionBy,
			d.WindowLength, d.Offset, d.Unit, d.Strategy,
		)
	default:
		err = fmt.Errorf("%w: unsupported kind %q", cerr.ErrInvalidArgument, string(d.Kind))
	}
	if err != nil {
		return nil, nil, err
	}
	return e, w, nil
}
