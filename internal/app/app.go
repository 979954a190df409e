package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/abrezinsky/everyonevotes/internal/auth"
	"github.com/abrezinsky/everyonevotes/internal/config"
	"github.com/abrezinsky/everyonevotes/internal/handlers"
	"github.com/abrezinsky/everyonevotes/internal/logger"
	"github.com/abrezinsky/everyonevotes/internal/repository"
	"github.com/abrezinsky/everyonevotes/internal/services"
	"github.com/abrezinsky/everyonevotes/internal/websocket"
	"github.com/abrezinsky/everyonevotes/pkg/smsgateway"
)

// Background job intervals
const (
	OTPSweepInterval       = time.Minute
	SessionPurgeInterval   = 5 * time.Minute
	DashboardRefreshPeriod = 10 * time.Second
)

// App holds all application dependencies
type App struct {
	log      logger.Logger
	handlers *handlers.Handlers
	repo     *repository.Repository
	redis    *redis.Client
	cancel   context.CancelFunc
	server   *http.Server
}

// New creates and initializes a new application instance
func New(cfg config.Config, log logger.Logger) (*App, error) {
	repo, err := repository.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	a := &App{log: log, repo: repo}
	if err := a.init(cfg); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(cfg config.Config) error {
	log, repo := a.log, a.repo

	var otpStore repository.OTPStore = repo
	var redisStore *repository.RedisOTPStore
	if cfg.OTPStore == config.OTPStoreRedis {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		redisStore = repository.NewRedisOTPStore(a.redis, cfg.OTPGrace)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisStore.Ping(ctx); err != nil {
			return fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		otpStore = redisStore
		log.Info("Using Redis OTP store", "addr", cfg.RedisAddr)
	}

	verifier, hasher, err := auth.NewVerifier(cfg.Credentials, repo)
	if err != nil {
		return err
	}

	if cfg.Seed {
		res, err := services.NewSeedService(log, repo, hasher).SeedDemoData(context.Background())
		if err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}
		log.Info("Demo data seeded",
			"constituencies", res.Constituencies,
			"candidates", res.Candidates,
			"officers", res.Officers)
	}

	if err := a.logBallotBox(context.Background()); err != nil {
		return err
	}

	// Initialize services
	sms := smsgateway.NewHTTPClient(cfg.SMSGatewayURL, log.With("component", "sms"))
	otpService := services.NewOTPService(log, otpStore, sms, cfg.OTPTTL, cfg.OTPGrace)
	identityService := services.NewIdentityService(log, repo)
	candidateService := services.NewCandidateService(log, repo)
	eligibilityService := services.NewEligibilityService(log, repo)
	ballotBox := services.NewBallotBox(log, repo, eligibilityService, nil)
	statisticsService := services.NewStatisticsService(log, repo)
	officerService := services.NewOfficerService(log, repo, verifier, statisticsService)
	receiptService := services.NewReceiptService(log, ballotBox)

	// Initialize WebSocket hub with DI
	hub := websocket.New(log.With("component", "websocket"), statisticsService)
	hub.Start()
	ballotBox.SetBroadcaster(hub)

	sessions := auth.NewSessions(cfg.SessionTTL)

	// Background jobs stop on Close
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	go otpService.RunSweeper(ctx, OTPSweepInterval)
	go hub.StartStatisticsRefresh(ctx, DashboardRefreshPeriod)
	go a.purgeSessions(ctx, sessions, SessionPurgeInterval)

	health := func(ctx context.Context) error {
		if err := repo.Ping(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		if redisStore != nil {
			if err := redisStore.Ping(ctx); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
		}
		return nil
	}

	a.handlers = handlers.New(handlers.Services{
		OTP:         otpService,
		Identity:    identityService,
		Candidates:  candidateService,
		Eligibility: eligibilityService,
		Ballots:     ballotBox,
		Statistics:  statisticsService,
		Officers:    officerService,
		Receipts:    receiptService,
	}, sessions, repo, hub, log, health)

	a.server = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           a.handlers.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// logBallotBox reports what the ballot box holds at startup
func (a *App) logBallotBox(ctx context.Context) error {
	candidates, err := a.repo.ListCandidates(ctx)
	if err != nil {
		return fmt.Errorf("failed to list candidates: %w", err)
	}
	ballots, err := a.repo.CountBallots(ctx)
	if err != nil {
		return fmt.Errorf("failed to count ballots: %w", err)
	}
	a.log.Info("Ballot box ready", "candidates", len(candidates), "ballots", ballots)
	return nil
}

// purgeSessions drops expired sessions every interval until ctx is cancelled
func (a *App) purgeSessions(ctx context.Context, sessions *auth.Sessions, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Purge(); n > 0 {
				a.log.Debug("Purged expired sessions", "count", n)
			}
		}
	}
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// Run starts the HTTP server and blocks until it stops. A server stopped by
// Shutdown returns nil.
func (a *App) Run() error {
	a.log.Info("Server starting", "addr", a.server.Addr)
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and waits for in-flight ones
func (a *App) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// Close performs graceful shutdown of app resources
func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("Failed to close redis client", "error", err)
		}
	}
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
	}
}
