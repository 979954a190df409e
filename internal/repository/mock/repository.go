package mock

import (
	"context"
	"time"

	"github.com/abrezinsky/everyonevotes/internal/models"
	"github.com/abrezinsky/everyonevotes/internal/repository"
)

// Repository wraps a real repository and allows injecting errors for testing.
// This provides a flexible way to test error paths without complex database manipulation.
//
// Usage:
//
//	realRepo := testutil.NewTestRepository(t)
//	mockRepo := mock.NewRepository(realRepo)
//	mockRepo.InsertBallotError = errors.New("database error")
//	box := services.NewBallotBox(log, mockRepo, eligibility, nil)
//	_, err := box.CastVote(ctx, voterID, choice)
//	// err will now contain the injected error
type Repository struct {
	repository.FullRepository

	// ===== Voter Errors =====
	GetVoterByIDError         error
	GetVoterByMobileError     error
	GetVoterByNationalIDError error
	GetVoterByVoterCodeError  error
	CreateVoterError          error
	MarkVotedError            error

	// ===== Candidate Errors =====
	ListCandidatesError               error
	ListCandidatesByConstituencyError error
	GetCandidateError                 error
	UpsertCandidateError              error
	ListConstituenciesError           error
	UpsertConstituencyError           error

	// ===== Ballot Errors =====
	InsertBallotError     error
	GetBallotByVoterError error
	CountBallotsError     error

	// ===== OTP Errors =====
	ReplaceChallengeError error
	InspectChallengeError error
	PurgeChallengesError  error

	// ===== Officer Errors =====
	GetOfficerByEmployeeIDError error
	UpsertOfficerError          error

	// ===== Statistics Errors =====
	GetVotingStatsError error

	// BeforeInsertBallot, when set, runs before InsertBallot reaches storage
	BeforeInsertBallot func(ballot *models.Ballot)
}

// NewRepository creates a mock repository wrapping a real one
func NewRepository(real repository.FullRepository) *Repository {
	return &Repository{
		FullRepository: real,
	}
}

// ===== Voter Methods =====

func (m *Repository) GetVoterByID(ctx context.Context, id string) (*models.Voter, error) {
	if m.GetVoterByIDError != nil {
		return nil, m.GetVoterByIDError
	}
	return m.FullRepository.GetVoterByID(ctx, id)
}

func (m *Repository) GetVoterByMobile(ctx context.Context, mobile string) (*models.Voter, error) {
	if m.GetVoterByMobileError != nil {
		return nil, m.GetVoterByMobileError
	}
	return m.FullRepository.GetVoterByMobile(ctx, mobile)
}

func (m *Repository) GetVoterByNationalID(ctx context.Context, nationalID string) (*models.Voter, error) {
	if m.GetVoterByNationalIDError != nil {
		return nil, m.GetVoterByNationalIDError
	}
	return m.FullRepository.GetVoterByNationalID(ctx, nationalID)
}

func (m *Repository) GetVoterByVoterCode(ctx context.Context, voterCode string) (*models.Voter, error) {
	if m.GetVoterByVoterCodeError != nil {
		return nil, m.GetVoterByVoterCodeError
	}
	return m.FullRepository.GetVoterByVoterCode(ctx, voterCode)
}

func (m *Repository) CreateVoter(ctx context.Context, voter *models.Voter) error {
	if m.CreateVoterError != nil {
		return m.CreateVoterError
	}
	return m.FullRepository.CreateVoter(ctx, voter)
}

func (m *Repository) MarkVoted(ctx context.Context, voterID string, at time.Time) error {
	if m.MarkVotedError != nil {
		return m.MarkVotedError
	}
	return m.FullRepository.MarkVoted(ctx, voterID, at)
}

// ===== Candidate Methods =====

func (m *Repository) ListCandidates(ctx context.Context) ([]models.Candidate, error) {
	if m.ListCandidatesError != nil {
		return nil, m.ListCandidatesError
	}
	return m.FullRepository.ListCandidates(ctx)
}

func (m *Repository) ListCandidatesByConstituency(ctx context.Context, constituency string) ([]models.Candidate, error) {
	if m.ListCandidatesByConstituencyError != nil {
		return nil, m.ListCandidatesByConstituencyError
	}
	return m.FullRepository.ListCandidatesByConstituency(ctx, constituency)
}

func (m *Repository) GetCandidate(ctx context.Context, id string) (*models.Candidate, error) {
	if m.GetCandidateError != nil {
		return nil, m.GetCandidateError
	}
	return m.FullRepository.GetCandidate(ctx, id)
}

func (m *Repository) UpsertCandidate(ctx context.Context, candidate models.Candidate, sortOrder int) error {
	if m.UpsertCandidateError != nil {
		return m.UpsertCandidateError
	}
	return m.FullRepository.UpsertCandidate(ctx, candidate, sortOrder)
}

func (m *Repository) ListConstituencies(ctx context.Context) ([]string, error) {
	if m.ListConstituenciesError != nil {
		return nil, m.ListConstituenciesError
	}
	return m.FullRepository.ListConstituencies(ctx)
}

func (m *Repository) UpsertConstituency(ctx context.Context, name string, sortOrder int) error {
	if m.UpsertConstituencyError != nil {
		return m.UpsertConstituencyError
	}
	return m.FullRepository.UpsertConstituency(ctx, name, sortOrder)
}

// ===== Ballot Methods =====

func (m *Repository) InsertBallot(ctx context.Context, ballot *models.Ballot) error {
	if m.BeforeInsertBallot != nil {
		m.BeforeInsertBallot(ballot)
	}
	if m.InsertBallotError != nil {
		return m.InsertBallotError
	}
	return m.FullRepository.InsertBallot(ctx, ballot)
}

func (m *Repository) GetBallotByVoter(ctx context.Context, voterID string) (*models.Ballot, error) {
	if m.GetBallotByVoterError != nil {
		return nil, m.GetBallotByVoterError
	}
	return m.FullRepository.GetBallotByVoter(ctx, voterID)
}

func (m *Repository) CountBallots(ctx context.Context) (int, error) {
	if m.CountBallotsError != nil {
		return 0, m.CountBallotsError
	}
	return m.FullRepository.CountBallots(ctx)
}

// ===== OTP Methods =====

func (m *Repository) ReplaceChallenge(ctx context.Context, ch models.OTPChallenge) error {
	if m.ReplaceChallengeError != nil {
		return m.ReplaceChallengeError
	}
	return m.FullRepository.ReplaceChallenge(ctx, ch)
}

func (m *Repository) InspectChallenge(ctx context.Context, mobile string, fn repository.OTPInspectFunc) error {
	if m.InspectChallengeError != nil {
		return m.InspectChallengeError
	}
	return m.FullRepository.InspectChallenge(ctx, mobile, fn)
}

func (m *Repository) PurgeChallenges(ctx context.Context, now time.Time, grace time.Duration) (int64, error) {
	if m.PurgeChallengesError != nil {
		return 0, m.PurgeChallengesError
	}
	return m.FullRepository.PurgeChallenges(ctx, now, grace)
}

// ===== Officer Methods =====

func (m *Repository) GetOfficerByEmployeeID(ctx context.Context, employeeID string) (*models.Officer, error) {
	if m.GetOfficerByEmployeeIDError != nil {
		return nil, m.GetOfficerByEmployeeIDError
	}
	return m.FullRepository.GetOfficerByEmployeeID(ctx, employeeID)
}

func (m *Repository) UpsertOfficer(ctx context.Context, officer models.Officer) error {
	if m.UpsertOfficerError != nil {
		return m.UpsertOfficerError
	}
	return m.FullRepository.UpsertOfficer(ctx, officer)
}

// ===== Statistics Methods =====

func (m *Repository) GetVotingStats(ctx context.Context, scope string, recentLimit int) (*models.Statistics, error) {
	if m.GetVotingStatsError != nil {
		return nil, m.GetVotingStatsError
	}
	return m.FullRepository.GetVotingStats(ctx, scope, recentLimit)
}
