package services

import (
	"context"
	"time"

	"github.com/abrezinsky/everyonevotes/internal/models"
)

// OTPServicer defines the interface for one-time code operations
type OTPServicer interface {
	IssueChallenge(ctx context.Context, mobile string) (*Challenge, error)
	VerifyChallenge(ctx context.Context, mobile, code string) error
	Purge(ctx context.Context) (int64, error)
	RunSweeper(ctx context.Context, interval time.Duration)
	TTL() time.Duration
}

// IdentityServicer defines the interface for voter identity operations
type IdentityServicer interface {
	FindByID(ctx context.Context, id string) (*models.Voter, error)
	FindByMobile(ctx context.Context, mobile string) (*models.Voter, error)
	FindByNationalID(ctx context.Context, nationalID string) (*models.Voter, error)
	FindByVoterCode(ctx context.Context, voterCode string) (*models.Voter, error)
	Register(ctx context.Context, draft models.VoterDraft) (*models.Voter, error)
}

// CandidateServicer defines the interface for candidate registry operations
type CandidateServicer interface {
	ListByConstituency(ctx context.Context, name string) ([]models.Candidate, error)
	FindByID(ctx context.Context, id string) (*models.Candidate, error)
	Constituencies(ctx context.Context) ([]string, error)
}

// BallotServicer defines the interface for ballot operations
type BallotServicer interface {
	ValidateVoteRequest(ctx context.Context, voterID string, choice VoteChoice) (*ValidatedVote, error)
	CastVote(ctx context.Context, voterID string, choice VoteChoice) (*models.Ballot, error)
	BallotFor(ctx context.Context, voterID string) (*models.Ballot, error)
	SetBroadcaster(b Broadcaster)
}

// StatisticsServicer defines the interface for turnout reporting
type StatisticsServicer interface {
	GetStatistics(ctx context.Context) (*models.Statistics, error)
	GetScopedStatistics(ctx context.Context, scope string) (*models.Statistics, error)
}

// OfficerServicer defines the interface for officer operations
type OfficerServicer interface {
	Login(ctx context.Context, employeeID, secret string) (*models.Officer, error)
	Dashboard(ctx context.Context, officer *models.Officer) (*models.Statistics, error)
}

// ReceiptServicer defines the interface for ballot receipts
type ReceiptServicer interface {
	ReceiptPayload(ctx context.Context, voterID string) (string, error)
	GenerateReceiptQR(ctx context.Context, voterID string) ([]byte, error)
}

// Ensure concrete types implement interfaces
var (
	_ OTPServicer        = (*OTPService)(nil)
	_ IdentityServicer   = (*IdentityService)(nil)
	_ CandidateServicer  = (*CandidateService)(nil)
	_ BallotServicer     = (*BallotBox)(nil)
	_ StatisticsServicer = (*StatisticsService)(nil)
	_ OfficerServicer    = (*OfficerService)(nil)
	_ ReceiptServicer    = (*ReceiptService)(nil)
	_ EligibilityChecker = (*EligibilityService)(nil)
)
