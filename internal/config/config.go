// Package config turns command-line flags and EV_* environment variables
// into the server configuration.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/abrezinsky/everyonevotes/internal/auth"
)

// OTP store backends
const (
	OTPStoreSQLite = "sqlite"
	OTPStoreRedis  = "redis"
)

// Bounds for the OTP lifetime and the post-verification grace window
const (
	MinOTPTTL   = 5 * time.Minute
	MaxOTPTTL   = 10 * time.Minute
	MaxOTPGrace = 60 * time.Second
)

// Config holds all server settings
type Config struct {
	Port          int
	DBPath        string
	LogLevel      string
	LogFormat     string
	OTPTTL        time.Duration
	OTPGrace      time.Duration
	OTPStore      string
	RedisAddr     string
	RedisPassword string
	SMSGatewayURL string
	Credentials   string
	Seed          bool
	SessionTTL    time.Duration
	HTTPLog       bool
	ShowVersion   bool
}

// Default returns the configuration used when nothing is overridden
func Default() Config {
	return Config{
		Port:        8081,
		DBPath:      "everyonevotes.db",
		LogLevel:    "info",
		LogFormat:   "text",
		OTPTTL:      5 * time.Minute,
		OTPGrace:    30 * time.Second,
		OTPStore:    OTPStoreSQLite,
		Credentials: auth.CredentialsPlain,
		Seed:        true,
		SessionTTL:  24 * time.Hour,
	}
}

// LookupFunc reads an environment variable
type LookupFunc func(key string) (string, bool)

// Load reads an optional .env file into the process environment and then
// parses args with environment fallbacks.
func Load(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	return Parse(args, os.LookupEnv, os.Stderr)
}

// Parse parses args. A flag given on the command line wins over its
// environment variable, which wins over the default.
func Parse(args []string, lookup LookupFunc, output io.Writer) (Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet("everyonevotes", flag.ContinueOnError)
	if output != nil {
		fs.SetOutput(output)
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port (EV_PORT)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path (EV_DB)")
	fs.StringVar(&cfg.LogLevel, "loglevel", cfg.LogLevel, "Log level: debug, info, warn, error (EV_LOG_LEVEL)")
	fs.StringVar(&cfg.LogFormat, "logformat", cfg.LogFormat, "Log format: text or json (EV_LOG_FORMAT)")
	fs.DurationVar(&cfg.OTPTTL, "otpttl", cfg.OTPTTL, "OTP lifetime, 5m to 10m (EV_OTP_TTL)")
	fs.DurationVar(&cfg.OTPGrace, "otpgrace", cfg.OTPGrace, "How long a verified OTP stays usable (EV_OTP_GRACE)")
	fs.StringVar(&cfg.OTPStore, "otpstore", cfg.OTPStore, "OTP store: sqlite or redis (EV_OTP_STORE)")
	fs.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "Redis address for the redis OTP store (EV_REDIS_ADDR)")
	fs.StringVar(&cfg.SMSGatewayURL, "sms", cfg.SMSGatewayURL, "SMS gateway URL, empty to log codes only (EV_SMS_GATEWAY_URL)")
	fs.StringVar(&cfg.Credentials, "credentials", cfg.Credentials, "Officer credential storage: plain or bcrypt (EV_CREDENTIALS)")
	fs.BoolVar(&cfg.Seed, "seed", cfg.Seed, "Seed demo constituencies, candidates and officers (EV_SEED)")
	fs.DurationVar(&cfg.SessionTTL, "sessionttl", cfg.SessionTTL, "Session lifetime (EV_SESSION_TTL)")
	fs.BoolVar(&cfg.HTTPLog, "httplog", cfg.HTTPLog, "Log every HTTP request (EV_HTTP_LOG)")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version and exit")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	env := envReader{lookup: lookup, set: set}
	env.int("port", "EV_PORT", &cfg.Port)
	env.string("db", "EV_DB", &cfg.DBPath)
	env.string("loglevel", "EV_LOG_LEVEL", &cfg.LogLevel)
	env.string("logformat", "EV_LOG_FORMAT", &cfg.LogFormat)
	env.duration("otpttl", "EV_OTP_TTL", &cfg.OTPTTL)
	env.duration("otpgrace", "EV_OTP_GRACE", &cfg.OTPGrace)
	env.string("otpstore", "EV_OTP_STORE", &cfg.OTPStore)
	env.string("redis", "EV_REDIS_ADDR", &cfg.RedisAddr)
	env.string("sms", "EV_SMS_GATEWAY_URL", &cfg.SMSGatewayURL)
	env.string("credentials", "EV_CREDENTIALS", &cfg.Credentials)
	env.bool("seed", "EV_SEED", &cfg.Seed)
	env.duration("sessionttl", "EV_SESSION_TTL", &cfg.SessionTTL)
	env.bool("httplog", "EV_HTTP_LOG", &cfg.HTTPLog)
	if v, ok := lookup("EV_REDIS_PASSWORD"); ok {
		cfg.RedisPassword = v
	}
	if env.err != nil {
		return Config{}, env.err
	}

	cfg.OTPStore = strings.ToLower(cfg.OTPStore)
	cfg.Credentials = strings.ToLower(cfg.Credentials)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and combinations
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.DBPath == "" {
		return errors.New("database path required (use -db or EV_DB)")
	}
	if c.OTPTTL < MinOTPTTL || c.OTPTTL > MaxOTPTTL {
		return fmt.Errorf("otp ttl %s must be between %s and %s", c.OTPTTL, MinOTPTTL, MaxOTPTTL)
	}
	if c.OTPGrace <= 0 || c.OTPGrace > MaxOTPGrace {
		return fmt.Errorf("otp grace %s must be positive and at most %s", c.OTPGrace, MaxOTPGrace)
	}
	switch c.OTPStore {
	case OTPStoreSQLite:
	case OTPStoreRedis:
		if c.RedisAddr == "" {
			return errors.New("redis OTP store requires an address (use -redis or EV_REDIS_ADDR)")
		}
	default:
		return fmt.Errorf("unknown otp store %q", c.OTPStore)
	}
	switch c.Credentials {
	case auth.CredentialsPlain, auth.CredentialsBcrypt:
	default:
		return fmt.Errorf("unknown credentials mode %q", c.Credentials)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if c.SessionTTL <= 0 {
		return errors.New("session ttl must be positive")
	}
	return nil
}

// Addr returns the listen address for the HTTP server
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// envReader applies environment values to flags that were not set on the
// command line and remembers the first malformed value.
type envReader struct {
	lookup LookupFunc
	set    map[string]bool
	err    error
}

func (e *envReader) value(flagName, key string) (string, bool) {
	if e.err != nil || e.set[flagName] || e.lookup == nil {
		return "", false
	}
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (e *envReader) string(flagName, key string, dst *string) {
	if v, ok := e.value(flagName, key); ok {
		*dst = v
	}
}

func (e *envReader) int(flagName, key string, dst *int) {
	if v, ok := e.value(flagName, key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.err = fmt.Errorf("invalid %s env variable: %w", key, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) bool(flagName, key string, dst *bool) {
	if v, ok := e.value(flagName, key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.err = fmt.Errorf("invalid %s env variable: %w", key, err)
			return
		}
		*dst = b
	}
}

func (e *envReader) duration(flagName, key string, dst *time.Duration) {
	if v, ok := e.value(flagName, key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.err = fmt.Errorf("invalid %s env variable: %w", key, err)
			return
		}
		*dst = d
	}
}
