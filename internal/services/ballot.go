package services

import (
	"context"
	stderrors "errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abrezinsky/everyonevotes/internal/errors"
	"github.com/abrezinsky/everyonevotes/internal/logger"
	"github.com/abrezinsky/everyonevotes/internal/metrics"
	"github.com/abrezinsky/everyonevotes/internal/models"
	"github.com/abrezinsky/everyonevotes/internal/repository"
)

// BallotBoxRepository defines the repository methods needed by BallotBox
type BallotBoxRepository interface {
	GetCandidate(ctx context.Context, id string) (*models.Candidate, error)
	InsertBallot(ctx context.Context, ballot *models.Ballot) error
	GetBallotByVoter(ctx context.Context, voterID string) (*models.Ballot, error)
}

// EligibilityChecker gates every vote
type EligibilityChecker interface {
	CheckEligibility(ctx context.Context, voterID string) (*EligibilityReport, error)
}

// Broadcaster defines the interface for broadcasting messages to clients
type Broadcaster interface {
	BroadcastBallotCast(ballot models.Ballot)
}

// VoteChoice is what the voter selected. An empty CandidateID means no
// candidate was chosen.
type VoteChoice struct {
	CandidateID string `json:"candidateId"`
	Abstain     bool   `json:"isNOTA"`
}

// ValidatedVote is a vote request that passed every check
type ValidatedVote struct {
	Voter     *models.Voter     `json:"voter"`
	Candidate *models.Candidate `json:"candidate,omitempty"`
	Abstain   bool              `json:"isNOTA"`
}

// BallotBox records ballots and enforces one ballot per voter
type BallotBox struct {
	log         logger.Logger
	repo        BallotBoxRepository
	eligibility EligibilityChecker
	broadcaster Broadcaster
	locks       *voterLocks
	now         func() time.Time
	newID       func() string
}

// NewBallotBox creates a new BallotBox. broadcaster may be nil.
func NewBallotBox(log logger.Logger, repo BallotBoxRepository, eligibility EligibilityChecker, broadcaster Broadcaster) *BallotBox {
	return &BallotBox{
		log:         log,
		repo:        repo,
		eligibility: eligibility,
		broadcaster: broadcaster,
		locks:       newVoterLocks(),
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// SetBroadcaster sets the broadcaster for sending updates to clients
func (b *BallotBox) SetBroadcaster(broadcaster Broadcaster) {
	b.broadcaster = broadcaster
}

// SetClock sets the time source (for testing)
func (b *BallotBox) SetClock(now func() time.Time) {
	b.now = now
}

// ValidateVoteRequest checks eligibility, the shape of the choice and the
// candidate's constituency. It writes nothing.
func (b *BallotBox) ValidateVoteRequest(ctx context.Context, voterID string, choice VoteChoice) (*ValidatedVote, error) {
	report, err := b.eligibility.CheckEligibility(ctx, voterID)
	if err != nil {
		return nil, err
	}
	voter := report.Voter

	candidateID := strings.TrimSpace(choice.CandidateID)
	switch {
	case candidateID == "" && !choice.Abstain:
		return nil, ErrInvalidChoice
	case candidateID != "" && choice.Abstain:
		return nil, ErrConflictingChoice
	case choice.Abstain:
		return &ValidatedVote{Voter: voter, Abstain: true}, nil
	}

	candidate, err := b.repo.GetCandidate(ctx, candidateID)
	if err == repository.ErrNotFound {
		return nil, ErrCandidateNotFound
	}
	if err != nil {
		return nil, errors.Internal(err)
	}
	if candidate.Constituency != voter.Constituency {
		return nil, ErrConstituencyMismatch
	}
	return &ValidatedVote{Voter: voter, Candidate: candidate}, nil
}

// CastVote re-validates the request and records the ballot. The storage
// insert is keyed uniquely by voter and sets the has-voted flag in the same
// transaction; a voter who already voted gets ErrAlreadyVoted.
func (b *BallotBox) CastVote(ctx context.Context, voterID string, choice VoteChoice) (*models.Ballot, error) {
	unlock := b.locks.lock(voterID)
	defer unlock()

	ballot, err := b.castVote(ctx, voterID, choice)
	if err != nil {
		code := errors.CodeOf(err)
		if code == "" {
			code = metrics.ResultFailed
		}
		metrics.BallotsRejected.WithLabelValues(code).Inc()
		return nil, err
	}

	kind := "candidate"
	if ballot.Abstain {
		kind = "abstain"
	}
	metrics.BallotsCast.WithLabelValues(kind).Inc()
	b.log.Info("Ballot recorded", "ballot_id", ballot.ID, "constituency", ballot.Constituency)

	if b.broadcaster != nil {
		b.broadcaster.BroadcastBallotCast(*ballot)
	}
	return ballot, nil
}

func (b *BallotBox) castVote(ctx context.Context, voterID string, choice VoteChoice) (*models.Ballot, error) {
	validated, err := b.ValidateVoteRequest(ctx, voterID, choice)
	if err != nil {
		var appErr *errors.Error
		if stderrors.As(err, &appErr) && appErr.Kind == errors.ErrIneligible &&
			slices.Contains(appErr.Failed, StepHasNotVotedYet) {
			return nil, ErrAlreadyVoted
		}
		return nil, err
	}

	ballot := &models.Ballot{
		ID:           b.newID(),
		VoterID:      validated.Voter.ID,
		Constituency: validated.Voter.Constituency,
		Abstain:      validated.Abstain,
		CastAt:       b.now().UTC(),
	}
	if validated.Candidate != nil {
		id := validated.Candidate.ID
		ballot.CandidateID = &id
	}

	if err := b.repo.InsertBallot(ctx, ballot); err != nil {
		switch err {
		case repository.ErrAlreadyVoted:
			return nil, ErrAlreadyVoted
		case repository.ErrNotFound:
			return nil, ErrVoterNotFound
		}
		return nil, errors.Internal(err)
	}
	return ballot, nil
}

// BallotFor returns the ballot cast by voterID
func (b *BallotBox) BallotFor(ctx context.Context, voterID string) (*models.Ballot, error) {
	ballot, err := b.repo.GetBallotByVoter(ctx, voterID)
	if err == repository.ErrNotFound {
		return nil, ErrBallotNotFound
	}
	if err != nil {
		return nil, errors.Internal(err)
	}
	return ballot, nil
}

// voterLocks hands out one mutex per voter id and forgets it once no
// goroutine holds or waits for it.
type voterLocks struct {
	mu    sync.Mutex
	locks map[string]*voterLock
}

type voterLock struct {
	sync.Mutex
	refs int
}

func newVoterLocks() *voterLocks {
	return &voterLocks{locks: make(map[string]*voterLock)}
}

func (l *voterLocks) lock(id string) func() {
	l.mu.Lock()
	vl, ok := l.locks[id]
	if !ok {
		vl = &voterLock{}
		l.locks[id] = vl
	}
	vl.refs++
	l.mu.Unlock()

	vl.Lock()
	return func() {
		vl.Unlock()
		l.mu.Lock()
		vl.refs--
		if vl.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
