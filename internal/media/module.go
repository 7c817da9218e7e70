package media

import (
	apphttp "civicpulse_backend/internal/http"
	"civicpulse_backend/platform/logger"
)

// Module is the media bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	storage *Storage
}

// NewModule creates the media module around an initialized Storage.
func NewModule(storage *Storage, log *logger.Logger) *Module {
	return &Module{
		handler: NewHandler(storage, log),
		storage: storage,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "media"
}

// Storage exposes the photo store for the worker's mirror job.
func (m *Module) Storage() *Storage {
	return m.storage
}

// RegisterRoutes mounts media routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/uploads", m.handler.HandleUpload)
}
