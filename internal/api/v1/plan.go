// Package v1 defines the request and response shapes of the plan API.
// Requests carry the semantic window and metric parameters; responses carry
// the opaque specifications (bounds plus rendered engine SQL) meant to be
// passed unmodified into the external query engine.
package v1

import "fmt"

// Window kinds accepted by the plan API.
const (
	WindowKindLookback  = "lookback"
	WindowKindLookahead = "lookahead"
	WindowKindCombined  = "combined"
)

// WindowRequest asks for a single window specification.
type WindowRequest struct {
	// Kind is one of lookback, lookahead or combined.
	Kind string `json:"kind"`

	// Length and Offset are counts of Unit. For combined windows they are
	// the lookback side; LookaheadLength/LookaheadOffset are the other side.
	Length          int64 `json:"length"`
	Offset          int64 `json:"offset"`
	LookaheadLength int64 `json:"lookahead_length"`
	LookaheadOffset int64 `json:"lookahead_offset"`

	Unit string `json:"unit"`

	// OrderColumn is the timestamp column; it must be castable to epoch
	// seconds by the engine.
	OrderColumn string   `json:"order_column"`
	PartitionBy []string `json:"partition_by"`

	// IncludeCurrent applies to lookback (default true) and lookahead
	// (default false) windows. Nil means the kind's default.
	IncludeCurrent *bool `json:"include_current,omitempty"`

	// IncludeStart/IncludeEnd apply to combined windows (both default true).
	IncludeStart *bool `json:"include_start,omitempty"`
	IncludeEnd   *bool `json:"include_end,omitempty"`
}

// Validate ensures the request has all required fields. Numeric and
// enumeration validation is left to the core builders so the error
// messages stay in one place.
func (r *WindowRequest) Validate() error {
	switch r.Kind {
	case WindowKindLookback, WindowKindLookahead, WindowKindCombined:
	default:
		return fmt.Errorf("kind must be one of: %s, %s, %s", WindowKindLookback, WindowKindLookahead, WindowKindCombined)
	}

	if r.OrderColumn == "" {
		return fmt.Errorf("order_column is required")
	}

	if len(r.PartitionBy) == 0 {
		return fmt.Errorf("partition_by is required")
	}

	return nil
}

// WindowResponse is the window specification: signed bounds in seconds
// relative to the current row, plus the rendered engine window clause.
type WindowResponse struct {
	Start   int64  `json:"start"`
	End     int64  `json:"end"`
	OverSQL string `json:"over_sql"`
}

// MetricRequest asks for a lagged-delta or rate-of-change expression.
type MetricRequest struct {
	// Column is the value column. For lagged deltas it is the minuend;
	// Subtrahend defaults to Column when empty.
	Column     string `json:"column"`
	Subtrahend string `json:"subtrahend,omitempty"`

	OrderColumn string   `json:"order_column"`
	PartitionBy []string `json:"partition_by"`

	Length   int64  `json:"length"`
	Offset   int64  `json:"offset"`
	Unit     string `json:"unit"`
	Strategy string `json:"strategy"`
}

// Validate ensures the request has all required fields.
func (r *MetricRequest) Validate() error {
	if r.Column == "" {
		return fmt.Errorf("column is required")
	}

	if r.OrderColumn == "" {
		return fmt.Errorf("order_column is required")
	}

	if len(r.PartitionBy) == 0 {
		return fmt.Errorf("partition_by is required")
	}

	return nil
}

// MetricResponse carries the composed expression and the lookback window it
// evaluates over.
type MetricResponse struct {
	ExpressionSQL string         `json:"expression_sql"`
	Window        WindowResponse `json:"window"`
}
