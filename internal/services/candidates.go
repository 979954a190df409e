package services

import (
	"context"

	"github.com/abrezinsky/everyonevotes/internal/errors"
	"github.com/abrezinsky/everyonevotes/internal/logger"
	"github.com/abrezinsky/everyonevotes/internal/models"
	"github.com/abrezinsky/everyonevotes/internal/repository"
)

// CandidateService is the read-only candidate registry
type CandidateService struct {
	log  logger.Logger
	repo repository.CandidateRepository
}

// NewCandidateService creates a new CandidateService
func NewCandidateService(log logger.Logger, repo repository.CandidateRepository) *CandidateService {
	return &CandidateService{
		log:  log,
		repo: repo,
	}
}

// ListByConstituency returns the candidates standing in name, in ballot order
func (s *CandidateService) ListByConstituency(ctx context.Context, name string) ([]models.Candidate, error) {
	candidates, err := s.repo.ListCandidatesByConstituency(ctx, name)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return candidates, nil
}

// FindByID returns the candidate with id
func (s *CandidateService) FindByID(ctx context.Context, id string) (*models.Candidate, error) {
	c, err := s.repo.GetCandidate(ctx, id)
	if err == repository.ErrNotFound {
		return nil, ErrCandidateNotFound
	}
	if err != nil {
		return nil, errors.Internal(err)
	}
	return c, nil
}

// Constituencies returns the known constituency names
func (s *CandidateService) Constituencies(ctx context.Context) ([]string, error) {
	names, err := s.repo.ListConstituencies(ctx)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return names, nil
}
