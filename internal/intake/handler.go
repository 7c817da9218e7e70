package intake

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"civicpulse_backend/platform/logger"
	"civicpulse_backend/platform/phone"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
)

// emptyTwiML acknowledges the provider without queueing a canned reply; all
// replies go out through the dispatcher instead.
const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

const processTimeout = 30 * time.Second

// Handler terminates the provider webhook. It verifies the signature, acks
// immediately with empty TwiML, and hands the message to the service in the
// background so slow work never trips the provider's response timeout.
type Handler struct {
	verifier      *Verifier
	service       *Service
	hotlineNumber string
	log           *logger.Logger
}

func NewHandler(verifier *Verifier, service *Service, hotlineNumber string, log *logger.Logger) *Handler {
	return &Handler{
		verifier:      verifier,
		service:       service,
		hotlineNumber: hotlineNumber,
		log:           log,
	}
}

// HandleInbound processes POST /hooks/twilio.
func (h *Handler) HandleInbound(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed form body"})
		return
	}

	params := make(map[string]string, len(c.Request.PostForm))
	for name := range c.Request.PostForm {
		params[name] = c.Request.PostForm.Get(name)
	}

	if !h.verifier.Verify(c.Request, params) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	from := params["From"]
	if from == "" {
		// Authenticated but unusable; ack so the provider does not retry.
		h.log.Warn("webhook missing From field")
		c.Data(http.StatusOK, "text/xml", []byte(emptyTwiML))
		return
	}

	sender := phone.NormalizeE164(phone.StripChannel(from))
	msg := decodeMessage(params)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				h.log.Error("intake processing panic", "sender", sender, "panic", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
		defer cancel()
		h.service.Process(ctx, sender, msg)
	}()

	c.Data(http.StatusOK, "text/xml", []byte(emptyTwiML))
}

// decodeMessage maps the provider's form fields onto a Message. MediaUrl0 is
// only honored when NumMedia says media is attached.
func decodeMessage(params map[string]string) Message {
	msg := Message{Body: params["Body"]}

	if n, err := strconv.Atoi(params["NumMedia"]); err == nil && n > 0 {
		msg.MediaURL = params["MediaUrl0"]
	}

	if lat, err := strconv.ParseFloat(params["Latitude"], 64); err == nil {
		if lng, err := strconv.ParseFloat(params["Longitude"], 64); err == nil {
			msg.Latitude = &lat
			msg.Longitude = &lng
		}
	}

	return msg
}

// HandleHotlineQR serves a QR code that opens a WhatsApp chat with the
// hotline, prefilled with the greeting that starts a report.
func (h *Handler) HandleHotlineQR(c *gin.Context) {
	if h.hotlineNumber == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "hotline not configured"})
		return
	}

	link := "https://wa.me/" + trimPlus(phone.NormalizeE164(h.hotlineNumber)) + "?text=report"
	png, err := qrcode.Encode(link, qrcode.Medium, 512)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render QR code"})
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/png", png)
}

func trimPlus(number string) string {
	if len(number) > 0 && number[0] == '+' {
		return number[1:]
	}
	return number
}
