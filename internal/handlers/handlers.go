package handlers

import (
	"context"

	"github.com/abrezinsky/everyonevotes/internal/auth"
	"github.com/abrezinsky/everyonevotes/internal/logger"
	"github.com/abrezinsky/everyonevotes/internal/services"
	"github.com/abrezinsky/everyonevotes/internal/websocket"
)

// Services groups the service layer the handlers call into
type Services struct {
	OTP         services.OTPServicer
	Identity    services.IdentityServicer
	Candidates  services.CandidateServicer
	Eligibility services.EligibilityChecker
	Ballots     services.BallotServicer
	Statistics  services.StatisticsServicer
	Officers    services.OfficerServicer
	Receipts    services.ReceiptServicer
}

// HealthCheck reports whether the backing stores are reachable
type HealthCheck func(ctx context.Context) error

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Services
	Sessions     *auth.Sessions
	OfficerStore auth.OfficerLookup
	Hub          *websocket.Hub
	Log          logger.Logger
	health       HealthCheck
}

// New creates a new Handlers instance with all dependencies. officers is
// used by the officer middleware to reload the officer on each request.
func New(
	svc Services,
	sessions *auth.Sessions,
	officers auth.OfficerLookup,
	hub *websocket.Hub,
	log logger.Logger,
	health HealthCheck,
) *Handlers {
	return &Handlers{
		Services:     svc,
		Sessions:     sessions,
		OfficerStore: officers,
		Hub:          hub,
		Log:          log,
		health:       health,
	}
}
