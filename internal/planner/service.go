package planner

import (
	"github.com/gin-gonic/gin"
	"github.com/windrose-analytics/windrose/internal/catalog"
)

// Service exposes the plan API: stateless window/metric builders plus the
// definition catalog.
type Service struct {
	registry *catalog.Registry
}

func NewService(registry *catalog.Registry) *Service {
	if registry == nil {
		panic("planner: registry must not be nil")
	}
	return &Service{registry: registry}
}

// RegisterRoutes registers the plan service routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/plan/window", s.PlanWindowHandler)
	r.POST("/v1/plan/lagged-delta", s.PlanLaggedDeltaHandler)
	r.POST("/v1/plan/rate-of-change", s.PlanRateOfChangeHandler)

	r.GET("/v1/definitions", s.ListDefinitionsHandler)
	r.GET("/v1/definitions/:name", s.GetDefinitionHandler)
	r.POST("/v1/definitions", s.CreateDefinitionHandler)
	r.POST("/v1/definitions/:name/plan", s.PlanDefinitionHandler)
}
