package services

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abrezinsky/everyonevotes/internal/errors"
	"github.com/abrezinsky/everyonevotes/internal/logger"
	"github.com/abrezinsky/everyonevotes/internal/metrics"
	"github.com/abrezinsky/everyonevotes/internal/models"
	"github.com/abrezinsky/everyonevotes/internal/repository"
	"github.com/abrezinsky/everyonevotes/internal/validation"
)

// IdentityService owns voter records
type IdentityService struct {
	log   logger.Logger
	repo  repository.VoterRepository
	now   func() time.Time
	newID func() string
}

// NewIdentityService creates a new IdentityService
func NewIdentityService(log logger.Logger, repo repository.VoterRepository) *IdentityService {
	return &IdentityService{
		log:   log,
		repo:  repo,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// SetClock sets the time source (for testing)
func (s *IdentityService) SetClock(now func() time.Time) {
	s.now = now
}

func voterLookup(v *models.Voter, err error) (*models.Voter, error) {
	if err == repository.ErrNotFound {
		return nil, ErrVoterNotFound
	}
	if err != nil {
		return nil, errors.Internal(err)
	}
	return v, nil
}

// FindByID returns the voter with id
func (s *IdentityService) FindByID(ctx context.Context, id string) (*models.Voter, error) {
	return voterLookup(s.repo.GetVoterByID(ctx, id))
}

// FindByMobile returns the voter registered with mobile
func (s *IdentityService) FindByMobile(ctx context.Context, mobile string) (*models.Voter, error) {
	return voterLookup(s.repo.GetVoterByMobile(ctx, validation.NormalizeMobile(mobile)))
}

// FindByNationalID returns the voter with the national ID number
func (s *IdentityService) FindByNationalID(ctx context.Context, nationalID string) (*models.Voter, error) {
	return voterLookup(s.repo.GetVoterByNationalID(ctx, strings.TrimSpace(nationalID)))
}

// FindByVoterCode returns the voter with the voter code
func (s *IdentityService) FindByVoterCode(ctx context.Context, voterCode string) (*models.Voter, error) {
	return voterLookup(s.repo.GetVoterByVoterCode(ctx, strings.TrimSpace(voterCode)))
}

// exists reports whether lookup found a voter
func exists(v *models.Voter, err error) (bool, error) {
	if err == repository.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, errors.Internal(err)
	}
	return true, nil
}

// normalizeDraft trims the draft and checks field formats
func normalizeDraft(d models.VoterDraft, now time.Time) (models.VoterDraft, error) {
	d.Mobile = validation.NormalizeMobile(d.Mobile)
	d.NationalID = strings.TrimSpace(d.NationalID)
	d.VoterCode = strings.TrimSpace(d.VoterCode)
	d.Name = strings.TrimSpace(d.Name)
	d.Constituency = strings.TrimSpace(d.Constituency)

	switch {
	case !validation.IsValidMobile(d.Mobile):
		return d, ErrInvalidMobile
	case !validation.IsValidNationalID(d.NationalID):
		return d, ErrInvalidNationalID
	case !validation.IsValidVoterCode(d.VoterCode):
		return d, ErrInvalidVoterCode
	case len([]rune(d.Name)) < 2:
		return d, ErrInvalidName
	case d.DateOfBirth.IsZero() || !d.DateOfBirth.Before(now):
		return d, ErrInvalidDateOfBirth
	case len([]rune(d.Constituency)) < 2:
		return d, ErrInvalidConstituency
	}
	return d, nil
}

// Register creates a voter from draft. Uniqueness is checked in the order
// mobile, national ID, voter code, then age; the storage constraints back
// the checks up when two registrations race.
func (s *IdentityService) Register(ctx context.Context, draft models.VoterDraft) (*models.Voter, error) {
	now := s.now()
	voter, err := s.register(ctx, draft, now)
	if err != nil {
		metrics.Registrations.WithLabelValues(registrationResult(err)).Inc()
		return nil, err
	}
	metrics.Registrations.WithLabelValues(metrics.ResultOK).Inc()
	s.log.Info("Voter registered", "voter_id", voter.ID, "constituency", voter.Constituency)
	return voter, nil
}

func registrationResult(err error) string {
	if code := errors.CodeOf(err); code != "" {
		return code
	}
	return metrics.ResultFailed
}

func (s *IdentityService) register(ctx context.Context, draft models.VoterDraft, now time.Time) (*models.Voter, error) {
	d, err := normalizeDraft(draft, now)
	if err != nil {
		return nil, err
	}

	checks := []struct {
		lookup func() (*models.Voter, error)
		err    error
	}{
		{func() (*models.Voter, error) { return s.repo.GetVoterByMobile(ctx, d.Mobile) }, ErrDuplicateMobile},
		{func() (*models.Voter, error) { return s.repo.GetVoterByNationalID(ctx, d.NationalID) }, ErrDuplicateNationalID},
		{func() (*models.Voter, error) { return s.repo.GetVoterByVoterCode(ctx, d.VoterCode) }, ErrDuplicateVoterCode},
	}
	for _, c := range checks {
		found, err := exists(c.lookup())
		if err != nil {
			return nil, err
		}
		if found {
			return nil, c.err
		}
	}

	if !validation.IsAdultAt(d.DateOfBirth, now) {
		return nil, ErrUnderage
	}

	voter := &models.Voter{
		ID:           s.newID(),
		Mobile:       d.Mobile,
		NationalID:   d.NationalID,
		VoterCode:    d.VoterCode,
		Name:         d.Name,
		DateOfBirth:  d.DateOfBirth,
		Constituency: d.Constituency,
		CreatedAt:    now.UTC(),
	}
	if err := s.repo.CreateVoter(ctx, voter); err != nil {
		switch {
		case stderrors.Is(err, repository.ErrDuplicateMobile):
			return nil, ErrDuplicateMobile
		case stderrors.Is(err, repository.ErrDuplicateNationalID):
			return nil, ErrDuplicateNationalID
		case stderrors.Is(err, repository.ErrDuplicateVoterCode):
			return nil, ErrDuplicateVoterCode
		}
		return nil, errors.Internal(err)
	}
	return voter, nil
}
