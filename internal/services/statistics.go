package services

import (
	"context"
	"fmt"

	"github.com/abrezinsky/everyonevotes/internal/errors"
	"github.com/abrezinsky/everyonevotes/internal/logger"
	"github.com/abrezinsky/everyonevotes/internal/models"
	"github.com/abrezinsky/everyonevotes/internal/repository"
)

// RecentActivityLimit is how many ballots the activity feed shows
const RecentActivityLimit = 10

// Labels used in the activity feed
const (
	AbstainLabel        = "NOTA"
	AnonymousVoterLabel = "Anonymous Voter"
	UnknownCandidate    = "Unknown Candidate"
)

// StatisticsService handles read-only turnout reporting
type StatisticsService struct {
	log  logger.Logger
	repo repository.StatsRepository
}

// NewStatisticsService creates a new StatisticsService
func NewStatisticsService(log logger.Logger, repo repository.StatsRepository) *StatisticsService {
	return &StatisticsService{log: log, repo: repo}
}

// GetStatistics returns turnout across every constituency
func (s *StatisticsService) GetStatistics(ctx context.Context) (*models.Statistics, error) {
	return s.GetScopedStatistics(ctx, models.AllConstituencies)
}

// GetScopedStatistics returns turnout for one constituency, or for all of
// them when scope is models.AllConstituencies
func (s *StatisticsService) GetScopedStatistics(ctx context.Context, scope string) (*models.Statistics, error) {
	if scope == "" {
		scope = models.AllConstituencies
	}
	stats, err := s.repo.GetVotingStats(ctx, scope, RecentActivityLimit)
	if err != nil {
		return nil, errors.Internal(err)
	}

	stats.TotalPending = pending(stats.TotalRegistered, stats.TotalVoted)
	stats.TurnoutPercentage = TurnoutPercentage(stats.TotalVoted, stats.TotalRegistered)
	for i := range stats.Constituencies {
		c := &stats.Constituencies[i]
		c.Pending = pending(c.Registered, c.Voted)
	}
	for i := range stats.RecentActivity {
		a := &stats.RecentActivity[i]
		if a.VoterName == "" {
			a.VoterName = AnonymousVoterLabel
		}
		switch {
		case a.Abstain:
			a.CandidateName = AbstainLabel
		case a.CandidateName == "":
			a.CandidateName = UnknownCandidate
		}
	}
	return stats, nil
}

func pending(registered, voted int) int {
	if voted > registered {
		return 0
	}
	return registered - voted
}

// TurnoutPercentage formats voted/registered as a percentage with two decimals
func TurnoutPercentage(voted, registered int) string {
	if registered <= 0 {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", float64(voted)*100/float64(registered))
}
