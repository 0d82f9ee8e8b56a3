package planner

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/windrose-analytics/windrose/internal/api/v1"
	"github.com/windrose-analytics/windrose/internal/catalog"
	cerr "github.com/windrose-analytics/windrose/internal/core/errors"
	"github.com/windrose-analytics/windrose/internal/telemetry"
)

// ListDefinitionsHandler returns all stored definitions, optionally
// filtered by ?kind=.
func (s *Service) ListDefinitionsHandler(c *gin.Context) {
	kind := catalog.Kind(c.Query("kind"))
	if kind != "" && !catalog.ValidKind(kind) {
		writeError(c, &planError{
			statusCode: http.StatusBadRequest,
			errorType:  cerr.HttpInvalidArgumentError,
			message:    "kind must be lagged_delta or rate_of_change",
		})
		return
	}

	defs, err := s.registry.List(c.Request.Context(), kind)
	if err != nil {
		slog.Error("Failed to list definitions", "error", err)
		writeError(c, mapCoreError(err))
		return
	}
	if defs == nil {
		defs = []*catalog.Definition{}
	}

	c.JSON(http.StatusOK, gin.H{"definitions": defs})
}

// GetDefinitionHandler returns one definition by name.
func (s *Service) GetDefinitionHandler(c *gin.Context) {
	def, err := s.registry.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		writeError(c, mapCoreError(err))
		return
	}

	c.JSON(http.StatusOK, def)
}

// CreateDefinitionHandler validates and stores a new definition.
func (s *Service) CreateDefinitionHandler(c *gin.Context) {
	var def catalog.Definition
	if err := c.ShouldBindJSON(&def); err != nil {
		writeError(c, &planError{statusCode: http.StatusBadRequest, errorType: cerr.HttpInvalidJsonError, message: msgInvalidJSON})
		return
	}

	created, err := s.registry.Register(c.Request.Context(), &def)
	if err != nil {
		slog.Warn("Definition rejected", "name", def.Name, "error", err)
		writeError(c, mapCoreError(err))
		return
	}

	telemetry.DefinitionsCreated.Inc()
	telemetry.DefinitionsLoaded.Inc()
	slog.Info("Registered definition", "name", created.Name, "kind", created.Kind, "id", created.ID)

	c.JSON(http.StatusCreated, created)
}

// PlanDefinitionHandler compiles a stored definition into its expression.
func (s *Service) PlanDefinitionHandler(c *gin.Context) {
	started := time.Now()

	def, err := s.registry.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		perr := mapCoreError(err)
		observe("definition", started, perr)
		writeError(c, perr)
		return
	}

	e, spec, err := def.Plan()
	if err != nil {
		// Stored definitions are validated on the way in, so a plan
		// failure here means the catalog and the core disagree.
		slog.Error("Stored definition failed to plan", "name", def.Name, "error", err)
		perr := mapCoreError(err)
		observe("definition", started, perr)
		writeError(c, perr)
		return
	}

	observe("definition", started, nil)
	c.JSON(http.StatusOK, v1.MetricResponse{
		ExpressionSQL: e.SQL(),
		Window:        windowResponse(spec),
	})
}
