// Package twilio provides the WhatsApp transport: outbound messages through
// Twilio's REST API and inbound webhook signature validation.
package twilio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"civicpulse_backend/platform/config"
	"civicpulse_backend/platform/logger"
	"civicpulse_backend/platform/phone"
)

const defaultAPIBase = "https://api.twilio.com/2010-04-01"

type Client struct {
	apiBase    string
	accountSID string
	authToken  string
	from       string
	http       *http.Client
	log        *logger.Logger
}

// NewClient builds the outbound WhatsApp client. Returns nil when Twilio is
// not configured; a nil client drops messages silently.
func NewClient(cfg config.TwilioConfig, log *logger.Logger) *Client {
	if !cfg.IsTwilioEnabled() {
		return nil
	}

	return &Client{
		apiBase:    defaultAPIBase,
		accountSID: cfg.GetTwilioAccountSID(),
		authToken:  cfg.GetTwilioAuthToken(),
		from:       phone.WithChannel(cfg.GetTwilioWhatsAppNumber()),
		http:       &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// SendMessage delivers a WhatsApp text message to the given address.
func (c *Client) SendMessage(ctx context.Context, to string, body string) error {
	if c == nil {
		return nil
	}

	form := url.Values{}
	form.Set("From", c.from)
	form.Set("To", phone.WithChannel(to))
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.apiBase, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("twilio request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("twilio returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	c.log.Info("whatsapp message sent", "to", phone.StripChannel(to))
	return nil
}

// FetchMedia downloads a Twilio-hosted media resource. Media URLs require
// account credentials.
func (c *Client) FetchMedia(ctx context.Context, mediaURL string) ([]byte, string, error) {
	if c == nil {
		return nil, "", fmt.Errorf("twilio client not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("twilio media request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, "", fmt.Errorf("twilio media returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}

	return data, resp.Header.Get("Content-Type"), nil
}
