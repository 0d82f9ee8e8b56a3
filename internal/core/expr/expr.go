package expr

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Expr is an unevaluated engine expression. Implementations are immutable
// value types; SQL renders the expression in the engine's SQL dialect.
// The expression is never evaluated here — it is handed to the external
// query engine as-is.
type Expr interface {
	SQL() string
}

// column references a column by name.
type column struct {
	name string
}

func (c column) SQL() string { return c.name }

// raw is an opaque expression handle supplied by the caller. The text is
// passed through to the engine unmodified.
type raw struct {
	text string
}

func (r raw) SQL() string { return r.text }

// literal is an exact-decimal constant.
type literal struct {
	value decimal.Decimal
}

func (l literal) SQL() string { return l.value.String() }

// binary is an infix arithmetic composition. Always parenthesized so the
// composed text is safe to embed in a larger expression.
type binary struct {
	op          string
	left, right Expr
}

func (b binary) SQL() string {
	return fmt.Sprintf("(%s %s %s)", b.left.SQL(), b.op, b.right.SQL())
}

// epochSeconds casts a timestamp expression to integer epoch seconds, the
// numeric form required by range-based windowing.
type epochSeconds struct {
	arg Expr
}

func (e epochSeconds) SQL() string {
	return fmt.Sprintf("CAST(EXTRACT(EPOCH FROM %s) AS BIGINT)", e.arg.SQL())
}

// Col builds a column reference expression from a column name.
func Col(name string) Expr { return column{name: name} }

// Raw wraps an opaque engine expression string.
func Raw(text string) Expr { return raw{text: text} }

// Lit builds an exact-decimal literal.
func Lit(v decimal.Decimal) Expr { return literal{value: v} }

// Sub builds left − right.
func Sub(left, right Expr) Expr { return binary{op: "-", left: left, right: right} }

// Div builds left / right. Division by zero is not intercepted anywhere in
// this layer: the composed expression propagates the engine's own division
// semantics (typically NULL per row).
func Div(left, right Expr) Expr { return binary{op: "/", left: left, right: right} }

// EpochSeconds casts a timestamp expression to integer epoch seconds.
func EpochSeconds(arg Expr) Expr { return epochSeconds{arg: arg} }

// ColumnRef identifies a column either by name or as an opaque expression
// handle. Public builder operations accept a ColumnRef and normalize it to
// an Expr at their boundary before any arithmetic is applied.
type ColumnRef struct {
	name string
	expr Expr
}

// Name references a column by name.
func Name(name string) ColumnRef { return ColumnRef{name: name} }

// Handle references a column as an opaque expression handle.
func Handle(e Expr) ColumnRef { return ColumnRef{expr: e} }

// IsZero reports whether the reference carries neither a name nor a handle.
func (r ColumnRef) IsZero() bool {
	return r.expr == nil && strings.TrimSpace(r.name) == ""
}

// Normalize resolves the reference to an Expr.
func (r ColumnRef) Normalize() Expr {
	if r.expr != nil {
		return r.expr
	}
	return column{name: r.name}
}
