package services

import (
	"context"
	"strings"

	"github.com/abrezinsky/everyonevotes/internal/errors"
	"github.com/abrezinsky/everyonevotes/internal/logger"
	"github.com/abrezinsky/everyonevotes/internal/models"
	"github.com/abrezinsky/everyonevotes/internal/repository"
)

// CredentialVerifier checks an officer's secret
type CredentialVerifier interface {
	Verify(ctx context.Context, employeeID, secret string) bool
}

// OfficerService handles voting officer login and dashboards
type OfficerService struct {
	log      logger.Logger
	repo     repository.OfficerRepository
	verifier CredentialVerifier
	stats    *StatisticsService
}

// NewOfficerService creates a new OfficerService
func NewOfficerService(log logger.Logger, repo repository.OfficerRepository, verifier CredentialVerifier, stats *StatisticsService) *OfficerService {
	return &OfficerService{
		log:      log,
		repo:     repo,
		verifier: verifier,
		stats:    stats,
	}
}

// Login verifies the officer's credentials and returns the officer
func (s *OfficerService) Login(ctx context.Context, employeeID, secret string) (*models.Officer, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" || secret == "" {
		return nil, errors.InvalidInput("Employee ID and password are required")
	}
	if !s.verifier.Verify(ctx, employeeID, secret) {
		s.log.Warn("Officer login failed", "employee_id", employeeID)
		return nil, ErrInvalidCredentials
	}

	officer, err := s.repo.GetOfficerByEmployeeID(ctx, employeeID)
	if err == repository.ErrNotFound {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, errors.Internal(err)
	}
	s.log.Info("Officer logged in", "employee_id", officer.EmployeeID, "constituency", officer.Constituency)
	return officer, nil
}

// Dashboard returns statistics limited to the officer's constituency
func (s *OfficerService) Dashboard(ctx context.Context, officer *models.Officer) (*models.Statistics, error) {
	return s.stats.GetScopedStatistics(ctx, officer.Constituency)
}
