package models

import "time"

// AllConstituencies is the officer scope that covers every constituency
const AllConstituencies = "All"

// Voter represents a registered voter
type Voter struct {
	ID           string     `json:"id"`
	Mobile       string     `json:"mobile"`
	NationalID   string     `json:"aadharNumber"`
	VoterCode    string     `json:"voterIdNumber"`
	Name         string     `json:"fullName"`
	DateOfBirth  time.Time  `json:"dateOfBirth"`
	Constituency string     `json:"constituency"`
	HasVoted     bool       `json:"hasVoted"`
	VotedAt      *time.Time `json:"votedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// VoterDraft is the input to voter registration
type VoterDraft struct {
	Mobile       string
	NationalID   string
	VoterCode    string
	Name         string
	DateOfBirth  time.Time
	Constituency string
}

// Candidate represents a candidate standing in one constituency
type Candidate struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Party        string `json:"party"`
	Constituency string `json:"constituency"`
	Symbol       string `json:"symbol"`
	Description  string `json:"description,omitempty"`
}

// Ballot is the durable record of one cast vote or abstention.
// Exactly one of CandidateID != nil and Abstain holds.
type Ballot struct {
	ID           string    `json:"id"`
	VoterID      string    `json:"voterId"`
	CandidateID  *string   `json:"candidateId"`
	Constituency string    `json:"constituency"`
	Abstain      bool      `json:"isNOTA"`
	CastAt       time.Time `json:"timestamp"`
}

// OTPChallenge is a pending one-time code for a mobile number
type OTPChallenge struct {
	Mobile     string
	Code       string
	ExpiresAt  time.Time
	VerifiedAt *time.Time
}

// Officer is a voting officer allowed to view the dashboard
type Officer struct {
	ID           string `json:"id"`
	EmployeeID   string `json:"employeeId"`
	Name         string `json:"name"`
	Secret       string `json:"-"`
	Constituency string `json:"constituency"`
	Role         string `json:"role"`
}

// CoversAll reports whether the officer's scope is every constituency
func (o Officer) CoversAll() bool {
	return o.Constituency == AllConstituencies
}

// ConstituencyStats holds turnout for one constituency
type ConstituencyStats struct {
	Name       string `json:"name"`
	Registered int    `json:"registered"`
	Voted      int    `json:"voted"`
	Pending    int    `json:"pending"`
}

// CandidateTally is the number of ballots for one candidate
type CandidateTally struct {
	CandidateID  string `json:"candidateId"`
	Name         string `json:"candidateName"`
	Party        string `json:"candidateParty"`
	Constituency string `json:"constituency"`
	Votes        int    `json:"votes"`
}

// VoteDistribution splits ballots between candidates and abstentions
type VoteDistribution struct {
	Candidates  []CandidateTally `json:"candidates"`
	Abstentions int              `json:"nota"`
}

// Activity is one entry in the recent ballot feed
type Activity struct {
	BallotID      string    `json:"id"`
	VoterName     string    `json:"voterName"`
	CandidateName string    `json:"candidateName"`
	Constituency  string    `json:"constituency"`
	Abstain       bool      `json:"isNOTA"`
	CastAt        time.Time `json:"timestamp"`
}

// Statistics is the aggregate dashboard view
type Statistics struct {
	Scope             string              `json:"constituency"`
	TotalRegistered   int                 `json:"totalRegistered"`
	TotalVoted        int                 `json:"totalVoted"`
	TotalPending      int                 `json:"totalPending"`
	TurnoutPercentage string              `json:"turnoutPercentage"`
	Constituencies    []ConstituencyStats `json:"constituencyBreakdown"`
	Distribution      VoteDistribution    `json:"voteDistribution"`
	RecentActivity    []Activity          `json:"recentActivity"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
