package reports

import (
	"civicpulse_backend/internal/events"
	apphttp "civicpulse_backend/internal/http"
	"civicpulse_backend/platform/config"
	"civicpulse_backend/platform/logger"
	"civicpulse_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the reports bounded context module implementing http.Module.
type Module struct {
	handler    *Handler
	service    *Service
	repository *Repository
}

// ModuleConfig is the slice of configuration the reports module needs.
type ModuleConfig interface {
	config.IntakeConfig
}

// NewModule creates and initializes the reports module with its dependencies.
func NewModule(pool *pgxpool.Pool, cfg ModuleConfig, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	service := NewService(repo, cfg, bus, log)
	handler := NewHandler(service, val)

	return &Module{
		handler:    handler,
		service:    service,
		repository: repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "reports"
}

// Service exposes report use cases to sibling modules via adapters.
func (m *Module) Service() *Service {
	return m.service
}

// Repository exposes low-level access for the worker's mirror job.
func (m *Module) Repository() *Repository {
	return m.repository
}

// RegisterRoutes mounts report routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public read endpoints.
	ctx.V1.GET("/reports", m.handler.HandleList)
	ctx.V1.GET("/reports/:id", m.handler.HandleGet)
	ctx.V1.GET("/leaderboard", m.handler.HandleLeaderboard)

	// Authenticated submission.
	ctx.Protected.POST("/reports", m.handler.HandleCreate)

	// Admin status management.
	ctx.Admin.PATCH("/reports/:id/status", m.handler.HandleUpdateStatus)
}
