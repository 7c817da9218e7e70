package auth

import (
	apphttp "civicpulse_backend/internal/http"
	"civicpulse_backend/platform/config"
	"civicpulse_backend/platform/logger"
	"civicpulse_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule creates and initializes the auth module with its dependencies.
func NewModule(pool *pgxpool.Pool, cfg config.AuthServiceConfig, val *validator.Validator, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	service := NewService(repo, cfg, log)
	handler := NewHandler(service, val)

	return &Module{
		handler: handler,
		service: service,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// Service exposes account lookups to sibling modules via adapters.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts auth routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/auth")
	group.Use(ctx.AuthRateLimiter.RateLimit())
	group.POST("/register", m.handler.HandleRegister)
	group.POST("/login", m.handler.HandleLogin)

	ctx.Protected.GET("/auth/me", m.handler.HandleMe)
}
