package smsgateway

import (
	"context"
	"sync"
	"time"
)

// SentMessage records one SendOTP call on the mock
type SentMessage struct {
	Mobile string
	Code   string
	TTL    time.Duration
}

// MockClient is a mock SMS gateway for testing
type MockClient struct {
	mu      sync.Mutex
	baseURL string
	sendErr error
	sent    []SentMessage
}

// MockOption configures the mock client
type MockOption func(*MockClient)

// WithSendError makes every SendOTP call fail with err
func WithSendError(err error) MockOption {
	return func(m *MockClient) {
		m.sendErr = err
	}
}

// WithBaseURL sets the base URL reported by the mock
func WithBaseURL(url string) MockOption {
	return func(m *MockClient) {
		m.baseURL = url
	}
}

// NewMockClient creates a new mock gateway
func NewMockClient(opts ...MockOption) *MockClient {
	m := &MockClient{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SendOTP records the message and returns the configured error
func (m *MockClient) SendOTP(ctx context.Context, mobile, code string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentMessage{Mobile: mobile, Code: code, TTL: ttl})
	return m.sendErr
}

// Sent returns a copy of every message sent so far
func (m *MockClient) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

// LastCode returns the most recent code sent to mobile, or ""
func (m *MockClient) LastCode(mobile string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].Mobile == mobile {
			return m.sent[i].Code
		}
	}
	return ""
}

// BaseURL returns the configured URL
func (m *MockClient) BaseURL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baseURL
}

var _ Client = (*MockClient)(nil)
