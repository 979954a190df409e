package smsgateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/abrezinsky/everyonevotes/internal/logger"
)

func TestHTTPClient_SendOTP_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %q", ct)
		}
		var msg Message
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if msg.To != "9876543210" || msg.Code != "123456" || msg.TTLSeconds != 300 {
			t.Errorf("unexpected message %+v", msg)
		}
		if !strings.Contains(msg.Body, "123456") || !strings.Contains(msg.Body, "5 minutes") {
			t.Errorf("unexpected body %q", msg.Body)
		}
		json.NewEncoder(w).Encode(Outcome{Status: "queued", MessageID: "m-1"})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, logger.Nop())
	if err := client.SendOTP(context.Background(), "9876543210", "123456", 5*time.Minute); err != nil {
		t.Fatalf("SendOTP failed: %v", err)
	}
}

func TestHTTPClient_SendOTP_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, logger.Nop())
	if err := client.SendOTP(context.Background(), "9876543210", "123456", 5*time.Minute); err != nil {
		t.Errorf("expected success on empty body, got %v", err)
	}
}

func TestHTTPClient_SendOTP_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr string
	}{
		{
			name: "http status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				w.Write([]byte("upstream down"))
			},
			wantErr: "status 502",
		},
		{
			name: "failure outcome",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(Outcome{Status: "failure", Description: "number barred"})
			},
			wantErr: "number barred",
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("{not json"))
			},
			wantErr: "failed to parse response",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewHTTPClient(server.URL, logger.Nop())
			err := client.SendOTP(context.Background(), "9876543210", "123456", 5*time.Minute)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestHTTPClient_SendOTP_ConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewHTTPClientWithHTTPClient(url, &http.Client{Timeout: time.Second}, logger.Nop())
	err := client.SendOTP(context.Background(), "9876543210", "123456", 5*time.Minute)
	if err == nil || !strings.Contains(err.Error(), "failed to connect") {
		t.Errorf("expected connection error, got %v", err)
	}
}

func TestHTTPClient_NoURLLogsOnly(t *testing.T) {
	client := NewHTTPClient("", logger.Nop())
	if err := client.SendOTP(context.Background(), "9876543210", "123456", 5*time.Minute); err != nil {
		t.Errorf("expected no error without gateway, got %v", err)
	}
	if client.BaseURL() != "" {
		t.Errorf("unexpected base URL %q", client.BaseURL())
	}
}

func TestMockClient(t *testing.T) {
	m := NewMockClient(WithBaseURL("http://mock"))
	m.SendOTP(context.Background(), "9876543210", "111111", time.Minute)
	m.SendOTP(context.Background(), "9876543210", "222222", time.Minute)
	m.SendOTP(context.Background(), "9000000000", "333333", time.Minute)

	if got := m.LastCode("9876543210"); got != "222222" {
		t.Errorf("LastCode = %q, want 222222", got)
	}
	if got := m.LastCode("9111111111"); got != "" {
		t.Errorf("LastCode for unknown mobile = %q", got)
	}
	if len(m.Sent()) != 3 {
		t.Errorf("expected 3 sent messages, got %d", len(m.Sent()))
	}
	if m.BaseURL() != "http://mock" {
		t.Errorf("unexpected base URL %q", m.BaseURL())
	}

	sendErr := errors.New("gateway down")
	failing := NewMockClient(WithSendError(sendErr))
	if err := failing.SendOTP(context.Background(), "9876543210", "1", time.Minute); err != sendErr {
		t.Errorf("expected configured error, got %v", err)
	}
}

func TestFormatOTPMessage(t *testing.T) {
	got := FormatOTPMessage("654321", 10*time.Minute)
	want := "Your EveryoneVotes verification code is 654321. It expires in 10 minutes."
	if got != want {
		t.Errorf("FormatOTPMessage = %q, want %q", got, want)
	}
}
