package planner

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/windrose-analytics/windrose/internal/api/v1"
	"github.com/windrose-analytics/windrose/internal/catalog"
	cerr "github.com/windrose-analytics/windrose/internal/core/errors"
	"github.com/windrose-analytics/windrose/internal/core/expr"
	"github.com/windrose-analytics/windrose/internal/core/metric"
	"github.com/windrose-analytics/windrose/internal/core/window"
	"github.com/windrose-analytics/windrose/internal/telemetry"
)

const (
	msgInvalidJSON = "Invalid JSON body"
)

// planError carries the structured HTTP error shape from a helper back to
// the handler. Helpers return this instead of writing to gin.Context
// directly, keeping them decoupled from HTTP.
type planError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *planError) Error() string {
	return e.message
}

// mapCoreError translates core sentinel errors into the HTTP taxonomy.
func mapCoreError(err error) *planError {
	switch {
	case errors.Is(err, cerr.ErrUnsupportedUnit):
		return &planError{statusCode: http.StatusBadRequest, errorType: cerr.HttpUnsupportedUnitError, message: err.Error()}
	case errors.Is(err, cerr.ErrInvalidArgument):
		return &planError{statusCode: http.StatusBadRequest, errorType: cerr.HttpInvalidArgumentError, message: err.Error()}
	case errors.Is(err, cerr.ErrNotFound):
		return &planError{statusCode: http.StatusNotFound, errorType: cerr.HttpNotFoundError, message: err.Error()}
	case errors.Is(err, catalog.ErrAlreadyExists):
		return &planError{statusCode: http.StatusConflict, errorType: cerr.HttpDuplicateError, message: err.Error()}
	default:
		return &planError{statusCode: http.StatusInternalServerError, errorType: cerr.HttpInternalError, message: err.Error()}
	}
}

// writeError serializes a planError as the JSON HTTP response.
func writeError(c *gin.Context, err *planError) {
	c.JSON(err.statusCode, cerr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}

// observe records the outcome of one plan request.
func observe(kind string, started time.Time, err *planError) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	telemetry.PlansBuilt.WithLabelValues(kind, status).Inc()
	if err == nil {
		telemetry.PlanDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
	}
}

func columnRefs(names []string) []expr.ColumnRef {
	refs := make([]expr.ColumnRef, 0, len(names))
	for _, n := range names {
		refs = append(refs, expr.Name(n))
	}
	return refs
}

func windowResponse(spec *window.Spec) v1.WindowResponse {
	return v1.WindowResponse{
		Start:   spec.Start(),
		End:     spec.End(),
		OverSQL: spec.OverSQL(),
	}
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// PlanWindowHandler builds a single window specification.
func (s *Service) PlanWindowHandler(c *gin.Context) {
	started := time.Now()

	var req v1.WindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		perr := &planError{statusCode: http.StatusBadRequest, errorType: cerr.HttpInvalidJsonError, message: msgInvalidJSON}
		observe("window", started, perr)
		writeError(c, perr)
		return
	}

	spec, perr := s.buildWindow(&req)
	observe("window", started, perr)
	if perr != nil {
		writeError(c, perr)
		return
	}

	c.JSON(http.StatusOK, windowResponse(spec))
}

func (s *Service) buildWindow(req *v1.WindowRequest) (*window.Spec, *planError) {
	if err := req.Validate(); err != nil {
		return nil, &planError{statusCode: http.StatusBadRequest, errorType: cerr.HttpInvalidArgumentError, message: err.Error()}
	}

	orderBy := expr.Name(req.OrderColumn)
	partitionBy := columnRefs(req.PartitionBy)
	unit := window.Unit(req.Unit)

	var spec *window.Spec
	var err error
	switch req.Kind {
	case v1.WindowKindLookback:
		spec, err = window.Lookback(req.Length, req.Offset, unit, orderBy, partitionBy, boolOr(req.IncludeCurrent, true))
	case v1.WindowKindLookahead:
		spec, err = window.Lookahead(req.Length, req.Offset, unit, orderBy, partitionBy, boolOr(req.IncludeCurrent, false))
	case v1.WindowKindCombined:
		spec, err = window.Combined(
			req.Length, req.LookaheadLength, req.Offset, req.LookaheadOffset,
			unit, orderBy, partitionBy,
			boolOr(req.IncludeStart, true), boolOr(req.IncludeEnd, true),
		)
	}
	if err != nil {
		slog.Warn("Window plan rejected", "kind", req.Kind, "error", err)
		return nil, mapCoreError(err)
	}
	return spec, nil
}

// PlanLaggedDeltaHandler builds a lagged-delta expression.
func (s *Service) PlanLaggedDeltaHandler(c *gin.Context) {
	s.planMetric(c, "lagged_delta")
}

// PlanRateOfChangeHandler builds a rate-of-change expression.
func (s *Service) PlanRateOfChangeHandler(c *gin.Context) {
	s.planMetric(c, "rate_of_change")
}

func (s *Service) planMetric(c *gin.Context, kind string) {
	started := time.Now()

	var req v1.MetricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		perr := &planError{statusCode: http.StatusBadRequest, errorType: cerr.HttpInvalidJsonError, message: msgInvalidJSON}
		observe(kind, started, perr)
		writeError(c, perr)
		return
	}

	resp, perr := s.buildMetric(&req, kind)
	observe(kind, started, perr)
	if perr != nil {
		writeError(c, perr)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Service) buildMetric(req *v1.MetricRequest, kind string) (*v1.MetricResponse, *planError) {
	if err := req.Validate(); err != nil {
		return nil, &planError{statusCode: http.StatusBadRequest, errorType: cerr.HttpInvalidArgumentError, message: err.Error()}
	}

	orderBy := expr.Name(req.OrderColumn)
	partitionBy := columnRefs(req.PartitionBy)
	unit := window.Unit(req.Unit)
	strategy := metric.Strategy(req.Strategy)

	var e expr.Expr
	var err error
	switch kind {
	case "lagged_delta":
		subtrahend := req.Subtrahend
		if subtrahend == "" {
			subtrahend = req.Column
		}
		e, err = metric.LaggedDelta(
			expr.Name(req.Column), expr.Name(subtrahend), orderBy, partitionBy,
			req.Length, req.Offset, unit, strategy,
		)
	case "rate_of_change":
		e, err = metric.RateOfChange(
			expr.Name(req.Column), orderBy, partitionBy,
			req.Length, req.Offset, unit, strategy,
		)
	}
	if err != nil {
		slog.Warn("Metric plan rejected", "kind", kind, "error", err)
		return nil, mapCoreError(err)
	}

	// The metric evaluates over the inclusive lookback window; echo it so
	// callers can inspect the bounds without parsing SQL.
	spec, err := window.Lookback(req.Length, req.Offset, unit, orderBy, partitionBy, true)
	if err != nil {
		return nil, mapCoreError(err)
	}

	return &v1.MetricResponse{
		ExpressionSQL: e.SQL(),
		Window:        windowResponse(spec),
	}, nil
}
