package config

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/abrezinsky/everyonevotes/internal/auth"
)

func envMap(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(nil, envMap(nil), io.Discard)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := Default()
	if cfg != want {
		t.Errorf("expected defaults %+v, got %+v", want, cfg)
	}
	if cfg.Addr() != ":8081" {
		t.Errorf("Addr = %q", cfg.Addr())
	}
}

func TestParse_EnvFallback(t *testing.T) {
	cfg, err := Parse(nil, envMap(map[string]string{
		"EV_PORT":            "9090",
		"EV_DB":              "/tmp/ev.db",
		"EV_OTP_TTL":         "10m",
		"EV_OTP_GRACE":       "45s",
		"EV_OTP_STORE":       "REDIS",
		"EV_REDIS_ADDR":      "localhost:6379",
		"EV_CREDENTIALS":     "bcrypt",
		"EV_SEED":            "false",
		"EV_LOG_FORMAT":      "json",
		"EV_SMS_GATEWAY_URL": "http://sms.local/send",
		"EV_HTTP_LOG":        "true",
	}), io.Discard)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Port != 9090 || cfg.DBPath != "/tmp/ev.db" {
		t.Errorf("unexpected port/db %d %q", cfg.Port, cfg.DBPath)
	}
	if cfg.OTPTTL != 10*time.Minute || cfg.OTPGrace != 45*time.Second {
		t.Errorf("unexpected otp timings %s %s", cfg.OTPTTL, cfg.OTPGrace)
	}
	if cfg.OTPStore != OTPStoreRedis || cfg.RedisAddr != "localhost:6379" {
		t.Errorf("unexpected otp store %q %q", cfg.OTPStore, cfg.RedisAddr)
	}
	if cfg.Credentials != auth.CredentialsBcrypt || cfg.Seed || cfg.LogFormat != "json" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.SMSGatewayURL != "http://sms.local/send" {
		t.Errorf("unexpected sms url %q", cfg.SMSGatewayURL)
	}
	if !cfg.HTTPLog {
		t.Error("expected HTTP logging from EV_HTTP_LOG")
	}
}

func TestParse_FlagWinsOverEnv(t *testing.T) {
	cfg, err := Parse([]string{"-port", "7000", "-otpttl", "6m"}, envMap(map[string]string{
		"EV_PORT":    "9090",
		"EV_OTP_TTL": "8m",
	}), io.Discard)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Port != 7000 || cfg.OTPTTL != 6*time.Minute {
		t.Errorf("flags should win, got port %d ttl %s", cfg.Port, cfg.OTPTTL)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		env     map[string]string
		wantErr string
	}{
		{"ttl too short", []string{"-otpttl", "1m"}, nil, "otp ttl"},
		{"ttl too long", []string{"-otpttl", "11m"}, nil, "otp ttl"},
		{"grace zero", []string{"-otpgrace", "0s"}, nil, "otp grace"},
		{"grace too long", []string{"-otpgrace", "2m"}, nil, "otp grace"},
		{"redis without addr", []string{"-otpstore", "redis"}, nil, "requires an address"},
		{"unknown store", []string{"-otpstore", "memcached"}, nil, "unknown otp store"},
		{"unknown credentials", []string{"-credentials", "ldap"}, nil, "unknown credentials"},
		{"bad port env", nil, map[string]string{"EV_PORT": "eighty"}, "EV_PORT"},
		{"bad seed env", nil, map[string]string{"EV_SEED": "maybe"}, "EV_SEED"},
		{"bad ttl env", nil, map[string]string{"EV_OTP_TTL": "five"}, "EV_OTP_TTL"},
		{"port out of range", []string{"-port", "70000"}, nil, "invalid port"},
		{"unknown log format", []string{"-logformat", "xml"}, nil, "log format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.args, envMap(tt.env), io.Discard)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestParse_CredentialsMatchVerifier(t *testing.T) {
	// every mode the config accepts must build a verifier
	for _, mode := range []string{auth.CredentialsPlain, auth.CredentialsBcrypt, "BCRYPT"} {
		cfg, err := Parse([]string{"-credentials", mode}, envMap(nil), io.Discard)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", mode, err)
		}
		if _, _, err := auth.NewVerifier(cfg.Credentials, nil); err != nil {
			t.Errorf("mode %q accepted by config but not by auth: %v", mode, err)
		}
	}
}

func TestParse_UnknownFlag(t *testing.T) {
	if _, err := Parse([]string{"-nope"}, envMap(nil), io.Discard); err == nil {
		t.Error("expected error for unknown flag")
	}
}
