package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/abrezinsky/everyonevotes/internal/logger"
	"github.com/abrezinsky/everyonevotes/internal/models"
	"github.com/abrezinsky/everyonevotes/internal/repository"
	"github.com/abrezinsky/everyonevotes/internal/services"
	"github.com/abrezinsky/everyonevotes/internal/testutil"
)

// testNow is the reference time used by clocked tests
var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// fakeClock is a settable time source safe for concurrent use
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// setupSeededRepo returns an in-memory repository loaded with the demo election
func setupSeededRepo(t *testing.T) *repository.Repository {
	t.Helper()
	repo := testutil.NewTestRepository(t)
	seeder := services.NewSeedService(logger.Nop(), repo, nil)
	if _, err := seeder.SeedDemoData(context.Background()); err != nil {
		t.Fatalf("SeedDemoData failed: %v", err)
	}
	return repo
}

// draft returns a valid adult registration numbered n
func draft(n int, constituency string) models.VoterDraft {
	return models.VoterDraft{
		Mobile:       fmt.Sprintf("98765432%02d", n),
		NationalID:   fmt.Sprintf("1234567890%02d", n),
		VoterCode:    fmt.Sprintf("ABC12345%02d", n),
		Name:         fmt.Sprintf("Test Voter %d", n),
		DateOfBirth:  time.Date(2000, 1, 15, 0, 0, 0, 0, time.UTC),
		Constituency: constituency,
	}
}

// registerVoter registers draft(n, constituency) and fails the test on error
func registerVoter(t *testing.T, repo repository.VoterRepository, n int, constituency string) *models.Voter {
	t.Helper()
	identity := services.NewIdentityService(logger.Nop(), repo)
	identity.SetClock(func() time.Time { return testNow })
	voter, err := identity.Register(context.Background(), draft(n, constituency))
	if err != nil {
		t.Fatalf("Register(%d) failed: %v", n, err)
	}
	return voter
}

// recordingBroadcaster captures broadcast ballots
type recordingBroadcaster struct {
	mu      sync.Mutex
	ballots []models.Ballot
}

func (b *recordingBroadcaster) BroadcastBallotCast(ballot models.Ballot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ballots = append(b.ballots, ballot)
}

func (b *recordingBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ballots)
}
