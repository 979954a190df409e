// Package smsgateway provides a client for delivering one-time codes by SMS.
package smsgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/abrezinsky/everyonevotes/internal/logger"
)

// Message is the body posted to the gateway
type Message struct {
	To         string `json:"to"`
	Body       string `json:"body"`
	Code       string `json:"code"`
	TTLSeconds int    `json:"ttl_seconds"`
}

// Outcome is the gateway's reply
type Outcome struct {
	Status      string `json:"status"`
	MessageID   string `json:"message_id,omitempty"`
	Description string `json:"description,omitempty"`
}

// Client defines the interface for SMS delivery
type Client interface {
	// SendOTP delivers code to mobile, telling the recipient how long it is valid
	SendOTP(ctx context.Context, mobile, code string, ttl time.Duration) error
	// BaseURL returns the configured gateway URL
	BaseURL() string
}

// FormatOTPMessage renders the text a voter receives
func FormatOTPMessage(code string, ttl time.Duration) string {
	return fmt.Sprintf("Your EveryoneVotes verification code is %s. It expires in %d minutes.", code, int(ttl.Minutes()))
}

// HTTPClient posts messages to an HTTP SMS gateway. With no URL configured
// it only logs the code, which is how the demo runs locally.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
}

// NewHTTPClient creates a new gateway client
func NewHTTPClient(baseURL string, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// NewHTTPClientWithHTTPClient creates a gateway client with a custom http.Client
func NewHTTPClientWithHTTPClient(baseURL string, httpClient *http.Client, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		log:        log,
	}
}

// BaseURL returns the configured gateway URL
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// SendOTP posts the code to the gateway
func (c *HTTPClient) SendOTP(ctx context.Context, mobile, code string, ttl time.Duration) error {
	baseURL := c.baseURL
	if baseURL == "" {
		c.log.Info("SMS gateway not configured, OTP logged only", "mobile", mobile, "otp", code)
		return nil
	}

	payload, err := json.Marshal(Message{
		To:         mobile,
		Body:       FormatOTPMessage(code, ttl),
		Code:       code,
		TTLSeconds: int(ttl.Seconds()),
	})
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	c.log.Debug("SMS gateway request", "method", "POST", "url", baseURL, "mobile", mobile)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to SMS gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debug("SMS gateway response", "status", resp.StatusCode, "body", string(body))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("SMS gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	// An empty body is accepted; a body that says failure is not
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var outcome Outcome
	if err := json.Unmarshal(body, &outcome); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if outcome.Status == "failure" || outcome.Status == "error" {
		return fmt.Errorf("SMS gateway error: %s", outcome.Description)
	}
	return nil
}

var _ Client = (*HTTPClient)(nil)
