// Package intake provides the WhatsApp hotline bounded context: webhook
// verification, the per-sender conversation state machine, and report
// handoff.
package intake

import (
	"civicpulse_backend/internal/events"
	apphttp "civicpulse_backend/internal/http"
	"civicpulse_backend/platform/config"
	"civicpulse_backend/platform/logger"
)

// Module is the intake bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// ModuleConfig is the slice of configuration the intake module needs.
type ModuleConfig interface {
	config.TwilioConfig
	config.IntakeConfig
}

// NewModule wires the intake pipeline. The store, submitter, and reply
// transport are injected so the composition root owns all I/O clients.
func NewModule(cfg ModuleConfig, store Store, submitter ReportSubmitter, replies ReplySender, mirror MediaMirrorEnqueuer, bus events.Bus, log *logger.Logger) *Module {
	service := NewService(store, submitter, replies, mirror, bus, log)
	verifier := NewVerifier(cfg.GetTwilioAuthToken(), cfg.GetTwilioWebhookURL(), log)
	handler := NewHandler(verifier, service, cfg.GetTwilioWhatsAppNumber(), log)

	return &Module{
		handler: handler,
		service: service,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "intake"
}

// Service exposes the pipeline for the background sweep job.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts intake routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Provider webhook: signature auth, no JWT.
	ctx.V1.POST("/hooks/twilio", m.handler.HandleInbound)

	// Public QR code for the hotline number.
	ctx.V1.GET("/hotline/qr", m.handler.HandleHotlineQR)
}
