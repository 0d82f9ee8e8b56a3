package planner

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	v1 "github.com/windrose-analytics/windrose/internal/api/v1"
	"github.com/windrose-analytics/windrose/internal/catalog"
	httperr "github.com/windrose-analytics/windrose/internal/core/errors"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := catalog.NewRegistry(catalog.NewMemoryRepository())
	svc := NewService(registry)

	r := gin.New()
	svc.RegisterRoutes(r)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestPlanWindowHandler_Lookback(t *testing.T) {
	r := newTestRouter(t)

	resp := postJSON(t, r, "/v1/plan/window", v1.WindowRequest{
		Kind:        v1.WindowKindLookback,
		Length:      7,
		Offset:      0,
		Unit:        "days",
		OrderColumn: "observed_at",
		PartitionBy: []string{"device_id"},
	})

	require.Equal(t, http.StatusOK, resp.Code)

	var result v1.WindowResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.Equal(t, int64(-604800), result.Start)
	require.Equal(t, int64(0), result.End)
	require.Contains(t, result.OverSQL, "PARTITION BY device_id")
	require.Contains(t, result.OverSQL, "RANGE BETWEEN 604800 PRECEDING AND CURRENT ROW")
}

func TestPlanWindowHandler_LookbackExcludingCurrent(t *testing.T) {
	r := newTestRouter(t)

	includeCurrent := false
	resp := postJSON(t, r, "/v1/plan/window", v1.WindowRequest{
		Kind:           v1.WindowKindLookback,
		Length:         7,
		Offset:         1,
		Unit:           "days",
		OrderColumn:    "observed_at",
		PartitionBy:    []string{"device_id"},
		IncludeCurrent: &includeCurrent,
	})

	require.Equal(t, http.StatusOK, resp.Code)

	var result v1.WindowResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.Equal(t, int64(-691200), result.Start)
	require.Equal(t, int64(-86401), result.End)
}

func TestPlanWindowHandler_Lookahead(t *testing.T) {
	r := newTestRouter(t)

	resp := postJSON(t, r, "/v1/plan/window", v1.WindowRequest{
		Kind:        v1.WindowKindLookahead,
		Length:      3,
		Offset:      0,
		Unit:        "hours",
		OrderColumn: "observed_at",
		PartitionBy: []string{"device_id"},
	})

	require.Equal(t, http.StatusOK, resp.Code)

	var result v1.WindowResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.Equal(t, int64(1), result.Start)
	require.Equal(t, int64(10800), result.End)
}

func TestPlanWindowHandler_InvalidJSON(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/plan/window", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)

	var errResp httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
	require.Equal(t, httperr.HttpInvalidJsonError, errResp.ErrorType)
}

func TestPlanWindowHandler_UnsupportedUnit(t *testing.T) {
	r := newTestRouter(t)

	resp := postJSON(t, r, "/v1/plan/window", v1.WindowRequest{
		Kind:        v1.WindowKindLookback,
		Length:      2,
		Unit:        "fortnights",
		OrderColumn: "observed_at",
		PartitionBy: []string{"device_id"},
	})

	require.Equal(t, http.StatusBadRequest, resp.Code)

	var errResp httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
	require.Equal(t, httperr.HttpUnsupportedUnitError, errResp.ErrorType)
	require.Contains(t, errResp.Message, "minutes, hours, days, weeks")
}

func TestPlanWindowHandler_MissingPartitionBy(t *testing.T) {
	r := newTestRouter(t)

	resp := postJSON(t, r, "/v1/plan/window", v1.WindowRequest{
		Kind:        v1.WindowKindLookback,
		Length:      7,
		Unit:        "days",
		OrderColumn: "observed_at",
	})

	require.Equal(t, http.StatusBadRequest, resp.Code)

	var errResp httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
	require.Equal(t, httperr.HttpInvalidArgumentError, errResp.ErrorType)
	require.Contains(t, errResp.Message, "partition_by")
}

func TestPlanLaggedDeltaHandler_Success(t *testing.T) {
	r := newTestRouter(t)

	resp := postJSON(t, r, "/v1/plan/lagged-delta", v1.MetricRequest{
		Column:      "price",
		OrderColumn: "observed_at",
		PartitionBy: []string{"device_id"},
		Length:      7,
		Unit:        "days",
		Strategy:    "mean",
	})

	require.Equal(t, http.StatusOK, resp.Code)

	var result v1.MetricResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.Contains(t, result.ExpressionSQL, "(price - AVG(price) OVER")
	require.Equal(t, int64(-604800), result.Window.Start)
	require.Equal(t, int64(0), result.Window.End)
}

func TestPlanLaggedDeltaHandler_InvalidStrategy(t *testing.T) {
	r := newTestRouter(t)

	resp := postJSON(t, r, "/v1/plan/lagged-delta", v1.MetricRequest{
		Column:      "price",
		OrderColumn: "observed_at",
		PartitionBy: []string{"device_id"},
		Length:      7,
		Unit:        "days",
		Strategy:    "mode",
	})

	require.Equal(t, http.StatusBadRequest, resp.Code)

	var errResp httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
	require.Equal(t, httperr.HttpInvalidArgumentError, errResp.ErrorType)
	require.Contains(t, errResp.Message, "mean, last, first, median")
}

func TestPlanRateOfChangeHandler_Success(t *testing.T) {
	r := newTestRouter(t)

	resp := postJSON(t, r, "/v1/plan/rate-of-change", v1.MetricRequest{
		Column:      "price",
		OrderColumn: "observed_at",
		PartitionBy: []string{"device_id"},
		Length:      1,
		Unit:        "weeks",
		Strategy:    "last",
	})

	require.Equal(t, http.StatusOK, resp.Code)

	var result v1.MetricResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.Contains(t, result.ExpressionSQL, "LAST_VALUE(price) IGNORE NULLS")
	require.Contains(t, result.ExpressionSQL, "EXTRACT(EPOCH FROM observed_at)")
}

func TestCreateDefinitionHandler_Success(t *testing.T) {
	r := newTestRouter(t)

	resp := postJSON(t, r, "/v1/definitions", catalog.Definition{
		Name:         "price_drop_7d",
		Kind:         catalog.KindLaggedDelta,
		Column:       "price",
		OrderColumn:  "observed_at",
		PartitionBy:  []string{"device_id"},
		WindowLength: 7,
		Unit:         "days",
		Strategy:     "mean",
	})

	require.Equal(t, http.StatusCreated, resp.Code)

	var created catalog.Definition
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	require.Equal(t, "price_drop_7d", created.Name)
	require.False(t, created.CreatedAt.IsZero())
}

func TestCreateDefinitionHandler_Duplicate(t *testing.T) {
	r := newTestRouter(t)

	def := catalog.Definition{
		Name:         "price_drop_7d",
		Kind:         catalog.KindLaggedDelta,
		Column:       "price",
		OrderColumn:  "observed_at",
		PartitionBy:  []string{"device_id"},
		WindowLength: 7,
		Unit:         "days",
		Strategy:     "mean",
	}

	resp := postJSON(t, r, "/v1/definitions", def)
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = postJSON(t, r, "/v1/definitions", def)
	require.Equal(t, http.StatusConflict, resp.Code)

	var errResp httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
	require.Equal(t, httperr.HttpDuplicateError, errResp.ErrorType)
}

func TestCreateDefinitionHandler_InvalidDefinition(t *testing.T) {
	r := newTestRouter(t)

	resp := postJSON(t, r, "/v1/definitions", catalog.Definition{
		Name:         "bad_metric",
		Kind:         "moving_average",
		Column:       "price",
		OrderColumn:  "observed_at",
		PartitionBy:  []string{"device_id"},
		WindowLength: 7,
		Unit:         "days",
		Strategy:     "mean",
	})

	require.Equal(t, http.StatusBadRequest, resp.Code)

	var errResp httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
	require.Equal(t, httperr.HttpInvalidArgumentError, errResp.ErrorType)
}

func TestGetDefinitionHandler_NotFound(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/definitions/missing", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusNotFound, resp.Code)

	var errResp httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
	require.Equal(t, httperr.HttpNotFoundError, errResp.ErrorType)
}

func TestListDefinitionsHandler_FilterByKind(t *testing.T) {
	r := newTestRouter(t)

	resp := postJSON(t, r, "/v1/definitions", catalog.Definition{
		Name:         "price_drop_7d",
		Kind:         catalog.KindLaggedDelta,
		Column:       "price",
		OrderColumn:  "observed_at",
		PartitionBy:  []string{"device_id"},
		WindowLength: 7,
		Unit:         "days",
		Strategy:     "mean",
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = postJSON(t, r, "/v1/definitions", catalog.Definition{
		Name:         "price_velocity_1w",
		Kind:         catalog.KindRateOfChange,
		Column:       "price",
		OrderColumn:  "observed_at",
		PartitionBy:  []string{"device_id"},
		WindowLength: 1,
		Unit:         "weeks",
		Strategy:     "last",
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/definitions?kind=rate_of_change", nil)
	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)

	var result struct {
		Definitions []*catalog.Definition `json:"definitions"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &result))
	require.Len(t, result.Definitions, 1)
	require.Equal(t, "price_velocity_1w", result.Definitions[0].Name)
}

func TestListDefinitionsHandler_InvalidKind(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/definitions?kind=bogus", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestPlanDefinitionHandler_Success(t *testing.T) {
	r := newTestRouter(t)

	resp := postJSON(t, r, "/v1/definitions", catalog.Definition{
		Name:         "price_drop_7d",
		Kind:         catalog.KindLaggedDelta,
		Column:       "price",
		OrderColumn:  "observed_at",
		PartitionBy:  []string{"device_id"},
		WindowLength: 7,
		Unit:         "days",
		Strategy:     "mean",
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/definitions/price_drop_7d/plan", nil)
	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)

	var result v1.MetricResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &result))
	require.Contains(t, result.ExpressionSQL, "(price - AVG(price) OVER")
	require.Equal(t, int64(-604800), result.Window.Start)
}

func TestPlanDefinitionHandler_NotFound(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/definitions/missing/plan", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusNotFound, resp.Code)
}
