package assist

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"civicpulse_backend/platform/httpkit"
	"civicpulse_backend/platform/logger"
	"civicpulse_backend/platform/validator"
)

// inboundSecretHeader authenticates the email-status webhook.
const inboundSecretHeader = "X-Inbound-Email-Secret"

// Handler exposes the assist endpoints.
type Handler struct {
	chat          *ChatAgent
	service       *Service
	val           *validator.Validator
	inboundSecret string
	log           *logger.Logger
}

func NewHandler(chat *ChatAgent, service *Service, val *validator.Validator, inboundSecret string, log *logger.Logger) *Handler {
	return &Handler{
		chat:          chat,
		service:       service,
		val:           val,
		inboundSecret: inboundSecret,
		log:           log,
	}
}

type chatRequest struct {
	SessionID string `json:"sessionId" validate:"omitempty,uuid4"`
	Message   string `json:"message" validate:"required,min=1,max=2000"`
}

// HandleChat processes POST /assist/chat. Clients without a session ID get a
// fresh one back and reuse it for follow-up messages.
func (h *Handler) HandleChat(c *gin.Context) {
	if h.chat == nil {
		httpkit.Error(c, http.StatusServiceUnavailable, "chat assistant is not configured", nil)
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	reply, err := h.chat.Chat(c.Request.Context(), sessionID, req.Message)
	if err != nil {
		h.log.Error("chat run failed", "sessionId", sessionID, "error", err)
		httpkit.Error(c, http.StatusServiceUnavailable, "assistant is temporarily unavailable", nil)
		return
	}

	httpkit.JSON(c, http.StatusOK, gin.H{
		"sessionId": sessionID,
		"response":  reply,
	})
}

// HandleInspiration processes GET /assist/inspiration.
func (h *Handler) HandleInspiration(c *gin.Context) {
	quote := h.service.Inspiration(c.Request.Context())
	httpkit.JSON(c, http.StatusOK, gin.H{"quote": quote})
}

type emailStatusRequest struct {
	ReportID string `json:"reportId" validate:"required,uuid4"`
	Subject  string `json:"subject" validate:"required,max=500"`
	Body     string `json:"body" validate:"required,max=20000"`
}

// HandleEmailStatus processes POST /hooks/email-status. The hook is guarded
// by a shared secret and rejects everything when no secret is configured.
func (h *Handler) HandleEmailStatus(c *gin.Context) {
	if h.inboundSecret == "" {
		httpkit.Error(c, http.StatusNotFound, "not found", nil)
		return
	}
	provided := c.GetHeader(inboundSecretHeader)
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.inboundSecret)) != 1 {
		httpkit.Error(c, http.StatusUnauthorized, "invalid webhook secret", nil)
		return
	}

	var req emailStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	reportID, err := uuid.Parse(req.ReportID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid report id", nil)
		return
	}

	result, err := h.service.ApplyEmailStatus(c.Request.Context(), EmailStatusInput{
		ReportID: reportID,
		Subject:  req.Subject,
		Body:     req.Body,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusOK, result)
}
