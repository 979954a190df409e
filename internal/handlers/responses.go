package handlers

import (
	"time"

	"github.com/abrezinsky/everyonevotes/internal/models"
	"github.com/abrezinsky/everyonevotes/internal/services"
)

// SendOTPResponse is the response for send-otp. The code is echoed back
// because the demo has no SMS delivery guarantee.
type SendOTPResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	OTP       string `json:"otp"`
	ExpiresIn int    `json:"expiresIn"`
}

// VerifyOTPResponse is the response for verify-otp. A new user gets a
// registration ticket instead of a session.
type VerifyOTPResponse struct {
	Success           bool          `json:"success"`
	IsNewUser         bool          `json:"isNewUser"`
	Mobile            string        `json:"mobile,omitempty"`
	RegistrationToken string        `json:"registrationToken,omitempty"`
	Token             string        `json:"token,omitempty"`
	User              *models.Voter `json:"user,omitempty"`
}

// SessionResponse carries a voter token after registration
type SessionResponse struct {
	Success bool          `json:"success"`
	Token   string        `json:"token"`
	User    *models.Voter `json:"user"`
}

// OfficerSessionResponse carries an officer token after login
type OfficerSessionResponse struct {
	Success bool            `json:"success"`
	Token   string          `json:"token"`
	Officer *models.Officer `json:"officer"`
}

// CandidatesResponse lists the candidates standing in a constituency
type CandidatesResponse struct {
	Constituency string             `json:"constituency"`
	Candidates   []models.Candidate `json:"candidates"`
}

// ValidateVoteResponse is the dry-run result of a vote request
type ValidateVoteResponse struct {
	Valid     bool              `json:"valid"`
	Candidate *models.Candidate `json:"candidate,omitempty"`
	IsNOTA    bool              `json:"isNOTA"`
}

// BallotSummary is what the voter sees about the recorded ballot
type BallotSummary struct {
	ID           string    `json:"id"`
	CandidateID  *string   `json:"candidateId"`
	Constituency string    `json:"constituency"`
	IsNOTA       bool      `json:"isNOTA"`
	Timestamp    time.Time `json:"timestamp"`
}

// CastVoteResponse is the response for a recorded vote
type CastVoteResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Ballot  BallotSummary `json:"ballot"`
}

// DashboardResponse is the officer dashboard
type DashboardResponse struct {
	Officer    *models.Officer    `json:"officer"`
	Statistics *models.Statistics `json:"statistics"`
}

// EligibilityResponse wraps the eligibility report
type EligibilityResponse struct {
	*services.EligibilityReport
	Success bool `json:"success"`
}

// ConstituenciesResponse lists the known constituencies
type ConstituenciesResponse struct {
	Constituencies []string `json:"constituencies"`
}

func ballotSummary(b *models.Ballot) BallotSummary {
	return BallotSummary{
		ID:           b.ID,
		CandidateID:  b.CandidateID,
		Constituency: b.Constituency,
		IsNOTA:       b.Abstain,
		Timestamp:    b.CastAt,
	}
}
