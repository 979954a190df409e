package repository

import (
	"context"
	"time"

	"github.com/abrezinsky/everyonevotes/internal/models"
)

// VoterRepository defines voter data operations
type VoterRepository interface {
	GetVoterByID(ctx context.Context, id string) (*models.Voter, error)
	GetVoterByMobile(ctx context.Context, mobile string) (*models.Voter, error)
	GetVoterByNationalID(ctx context.Context, nationalID string) (*models.Voter, error)
	GetVoterByVoterCode(ctx context.Context, voterCode string) (*models.Voter, error)
	CreateVoter(ctx context.Context, voter *models.Voter) error
	MarkVoted(ctx context.Context, voterID string, at time.Time) error
}

// CandidateRepository defines candidate and constituency data operations
type CandidateRepository interface {
	ListCandidates(ctx context.Context) ([]models.Candidate, error)
	ListCandidatesByConstituency(ctx context.Context, constituency string) ([]models.Candidate, error)
	GetCandidate(ctx context.Context, id string) (*models.Candidate, error)
	UpsertCandidate(ctx context.Context, candidate models.Candidate, sortOrder int) error
	ListConstituencies(ctx context.Context) ([]string, error)
	UpsertConstituency(ctx context.Context, name string, sortOrder int) error
}

// BallotRepository defines ballot data operations
type BallotRepository interface {
	// InsertBallot stores the ballot and sets the voter's has-voted flag in
	// one transaction. It returns ErrAlreadyVoted when a ballot for the
	// voter exists or the flag is already set; nothing is written then.
	InsertBallot(ctx context.Context, ballot *models.Ballot) error
	GetBallotByVoter(ctx context.Context, voterID string) (*models.Ballot, error)
	CountBallots(ctx context.Context) (int, error)
}

// OTPAction tells an OTPStore what to do with a challenge after inspection
type OTPAction int

const (
	OTPKeep OTPAction = iota
	OTPSave
	OTPDelete
)

// OTPInspectFunc inspects the stored challenge for a mobile (nil when none
// is stored), may modify it, and decides what happens to it. The action is
// applied even when the returned error is non-nil.
type OTPInspectFunc func(ch *models.OTPChallenge) (OTPAction, error)

// OTPStore holds OTP challenges keyed by mobile number. Every method is
// atomic per mobile.
type OTPStore interface {
	ReplaceChallenge(ctx context.Context, ch models.OTPChallenge) error
	InspectChallenge(ctx context.Context, mobile string, fn OTPInspectFunc) error
	PurgeChallenges(ctx context.Context, now time.Time, grace time.Duration) (int64, error)
}

// OfficerRepository defines voting officer data operations
type OfficerRepository interface {
	GetOfficerByEmployeeID(ctx context.Context, employeeID string) (*models.Officer, error)
	UpsertOfficer(ctx context.Context, officer models.Officer) error
}

// StatsRepository defines read-only aggregate queries
type StatsRepository interface {
	// GetVotingStats returns raw counts for scope (a constituency name or
	// models.AllConstituencies), read in a single transaction.
	GetVotingStats(ctx context.Context, scope string, recentLimit int) (*models.Statistics, error)
}

// FullRepository combines all repository interfaces
// Use this when a service needs access to multiple domains
type FullRepository interface {
	VoterRepository
	CandidateRepository
	BallotRepository
	OTPStore
	OfficerRepository
	StatsRepository
}

// Ensure Repository implements all interfaces
var _ FullRepository = (*Repository)(nil)
