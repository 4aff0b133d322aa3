// Package gateway provides the client for the external WhatsApp/SMS gateway.
// Delivery failures are reported as errors; business callers log and continue,
// a failed send never fails the operation that triggered it.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/juanctr3/b2b/platform/config"
	"github.com/juanctr3/b2b/platform/logger"
	"github.com/juanctr3/b2b/platform/phone"
)

const sendPath = "/api/send/whatsapp"

// Client sends text messages through the gateway's HTTP API.
// A nil *Client is a valid disabled client: Send becomes a logged no-op.
type Client struct {
	baseURL string
	secret  string
	account string
	http    *http.Client
	log     *logger.Logger
}

type sendRequest struct {
	Secret    string `json:"secret"`
	Account   string `json:"account"`
	Recipient string `json:"recipient"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	Priority  int    `json:"priority"`
}

// NewClient creates a gateway client. It returns nil when credentials are not
// configured, which disables all outbound sends.
func NewClient(cfg config.GatewayConfig, log *logger.Logger) *Client {
	if cfg.GetGatewaySecret() == "" || cfg.GetGatewayAccount() == "" {
		log.Warn("gateway credentials not configured, outbound messages disabled")
		return nil
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.GetGatewayURL(), "/"),
		secret:  cfg.GetGatewaySecret(),
		account: cfg.GetGatewayAccount(),
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     log,
	}
}

// Send delivers a single text message. The recipient is reduced to plain
// digits before transmission; the gateway rejects '+' prefixes.
func (c *Client) Send(ctx context.Context, to string, message string) error {
	if c == nil {
		return nil
	}

	recipient := phone.Digits(phone.NormalizeE164(to))
	if recipient == "" {
		return fmt.Errorf("gateway send: recipient %q has no digits", to)
	}

	payload := sendRequest{
		Secret:    c.secret,
		Account:   c.account,
		Recipient: recipient,
		Type:      "text",
		Message:   message,
		Priority:  1,
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	enc.SetEscapeHTML(false) // keep emoji and accented characters intact
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("marshal gateway payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sendPath, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	c.log.Info("gateway message sent", "recipient", recipient)
	return nil
}
