package services

import (
	"context"
	"slices"
	"time"

	"github.com/abrezinsky/everyonevotes/internal/errors"
	"github.com/abrezinsky/everyonevotes/internal/logger"
	"github.com/abrezinsky/everyonevotes/internal/metrics"
	"github.com/abrezinsky/everyonevotes/internal/models"
	"github.com/abrezinsky/everyonevotes/internal/repository"
	"github.com/abrezinsky/everyonevotes/internal/validation"
)

// Eligibility step names, in evaluation order
const (
	StepUserExists            = "userExists"
	StepHasValidMobile        = "hasValidMobile"
	StepHasValidNationalID    = "hasValidNationalId"
	StepHasValidVoterCode     = "hasValidVoterCode"
	StepIsEligibleAge         = "isEligibleAge"
	StepHasNotVotedYet        = "hasNotVotedYet"
	StepIsInValidConstituency = "isInValidConstituency"
)

// EligibilitySteps lists every step in the order it is reported
var EligibilitySteps = []string{
	StepUserExists,
	StepHasValidMobile,
	StepHasValidNationalID,
	StepHasValidVoterCode,
	StepIsEligibleAge,
	StepHasNotVotedYet,
	StepIsInValidConstituency,
}

// EligibilityRepository defines the repository methods needed by EligibilityService
type EligibilityRepository interface {
	GetVoterByID(ctx context.Context, id string) (*models.Voter, error)
	ListConstituencies(ctx context.Context) ([]string, error)
}

// StepResult is the outcome of one eligibility step
type StepResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
}

// EligibilityReport is the full outcome of an eligibility check
type EligibilityReport struct {
	Eligible bool          `json:"canVote"`
	Message  string        `json:"message"`
	Steps    []StepResult  `json:"verificationSteps"`
	Failed   []string      `json:"failedSteps,omitempty"`
	Voter    *models.Voter `json:"-"`
}

// Passed reports whether the named step passed
func (r *EligibilityReport) Passed(step string) bool {
	for _, s := range r.Steps {
		if s.Name == step {
			return s.Passed
		}
	}
	return false
}

// StepMap returns the step results keyed by name
func (r *EligibilityReport) StepMap() map[string]bool {
	m := make(map[string]bool, len(r.Steps))
	for _, s := range r.Steps {
		m[s.Name] = s.Passed
	}
	return m
}

// EligibilityService runs the pre-vote verification pipeline
type EligibilityService struct {
	log  logger.Logger
	repo EligibilityRepository
	now  func() time.Time
}

// NewEligibilityService creates a new EligibilityService
func NewEligibilityService(log logger.Logger, repo EligibilityRepository) *EligibilityService {
	return &EligibilityService{
		log:  log,
		repo: repo,
		now:  time.Now,
	}
}

// SetClock sets the time source (for testing)
func (s *EligibilityService) SetClock(now func() time.Time) {
	s.now = now
}

// CheckEligibility evaluates every step for voterID against current state.
// All steps run even after a failure so the report is complete. The error
// is ErrVoterNotFound for an unknown voter, an Ineligible error naming the
// failed steps, or nil.
func (s *EligibilityService) CheckEligibility(ctx context.Context, voterID string) (*EligibilityReport, error) {
	voter, err := s.repo.GetVoterByID(ctx, voterID)
	if err != nil && err != repository.ErrNotFound {
		return nil, errors.Internal(err)
	}

	passed := make(map[string]bool, len(EligibilitySteps))
	if voter != nil {
		constituencies, err := s.repo.ListConstituencies(ctx)
		if err != nil {
			return nil, errors.Internal(err)
		}

		passed[StepUserExists] = true
		passed[StepHasValidMobile] = validation.IsValidMobile(voter.Mobile)
		passed[StepHasValidNationalID] = validation.IsValidNationalID(voter.NationalID)
		passed[StepHasValidVoterCode] = validation.IsValidVoterCode(voter.VoterCode)
		passed[StepIsEligibleAge] = validation.IsAdultAt(voter.DateOfBirth, s.now())
		passed[StepHasNotVotedYet] = !voter.HasVoted
		passed[StepIsInValidConstituency] = slices.Contains(constituencies, voter.Constituency)
	}

	report := &EligibilityReport{Voter: voter}
	for _, step := range EligibilitySteps {
		report.Steps = append(report.Steps, StepResult{Name: step, Passed: passed[step]})
		if !passed[step] {
			report.Failed = append(report.Failed, step)
		}
	}

	if voter == nil {
		report.Message = ErrVoterNotFound.Message
		metrics.EligibilityChecks.WithLabelValues(CodeVoterNotFound).Inc()
		return report, ErrVoterNotFound
	}
	if len(report.Failed) > 0 {
		ineligible := errors.Ineligible(report.Failed)
		report.Message = ineligible.Message
		metrics.EligibilityChecks.WithLabelValues(errors.CodeIneligible).Inc()
		s.log.Debug("Voter ineligible", "voter_id", voterID, "failed", report.Failed)
		return report, ineligible
	}

	report.Eligible = true
	report.Message = "User verified successfully and can vote"
	metrics.EligibilityChecks.WithLabelValues(metrics.ResultOK).Inc()
	return report, nil
}
