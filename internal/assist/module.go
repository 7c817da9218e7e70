package assist

import (
	apphttp "civicpulse_backend/internal/http"
	"civicpulse_backend/platform/config"
	"civicpulse_backend/platform/logger"
	"civicpulse_backend/platform/validator"
)

// Module is the assist bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

// ModuleConfig is the slice of configuration the assist module needs.
type ModuleConfig interface {
	config.AssistConfig
}

// NewModule wires the assist endpoints. The chat agent may be nil when no AI
// key is configured; the chat endpoint then answers 503 while the rest of the
// module keeps working on fallbacks.
func NewModule(cfg ModuleConfig, chat *ChatAgent, service *Service, val *validator.Validator, log *logger.Logger) *Module {
	return &Module{
		handler: NewHandler(chat, service, val, cfg.GetInboundEmailSecret(), log),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "assist"
}

// RegisterRoutes mounts assist routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Chat is public but pays the strict limiter, model calls are expensive.
	ctx.V1.POST("/assist/chat", ctx.AuthRateLimiter.RateLimit(), m.handler.HandleChat)
	ctx.V1.GET("/assist/inspiration", m.handler.HandleInspiration)

	// Inbound email hook, shared-secret auth instead of JWT.
	ctx.V1.POST("/hooks/email-status", m.handler.HandleEmailStatus)
}
