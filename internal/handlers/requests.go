package handlers

// SendOTPRequest asks for a code to be sent to a mobile number
type SendOTPRequest struct {
	Mobile string `json:"mobile"`
}

// VerifyOTPRequest submits a code for a mobile number
type VerifyOTPRequest struct {
	Mobile string `json:"mobile"`
	OTP    string `json:"otp"`
}

// RegisterRequest registers a new voter. RegistrationToken is the ticket
// verify-otp hands out for a verified mobile without a voter.
type RegisterRequest struct {
	RegistrationToken string `json:"registrationToken"`
	Mobile            string `json:"mobile,omitempty"`
	AadharNumber      string `json:"aadharNumber"`
	VoterIDNumber     string `json:"voterIdNumber"`
	FullName          string `json:"fullName"`
	DateOfBirth       string `json:"dateOfBirth"`
	Constituency      string `json:"constituency"`
}

// VoteRequest is a candidate selection or an abstention
type VoteRequest struct {
	CandidateID string `json:"candidateId"`
	IsNOTA      bool   `json:"isNOTA"`
}

// OfficerLoginRequest represents a voting officer's login
type OfficerLoginRequest struct {
	EmployeeID string `json:"employeeId"`
	Password   string `json:"password"`
}
