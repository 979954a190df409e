package services

import (
	"github.com/abrezinsky/everyonevotes/internal/errors"
)

// Error codes returned by the services. Handlers and tests match on these
// with errors.Is against the sentinels below.
const (
	CodeInvalidMobile        = "INVALID_MOBILE"
	CodeInvalidNationalID    = "INVALID_NATIONAL_ID"
	CodeInvalidVoterCode     = "INVALID_VOTER_CODE"
	CodeInvalidName          = "INVALID_NAME"
	CodeInvalidDateOfBirth   = "INVALID_DATE_OF_BIRTH"
	CodeInvalidConstituency  = "INVALID_CONSTITUENCY"
	CodeOTPNotFound          = "OTP_NOT_FOUND"
	CodeOTPExpired           = "OTP_EXPIRED"
	CodeOTPMismatch          = "OTP_MISMATCH"
	CodeDuplicateMobile      = "DUPLICATE_MOBILE"
	CodeDuplicateNationalID  = "DUPLICATE_NATIONAL_ID"
	CodeDuplicateVoterCode   = "DUPLICATE_VOTER_CODE"
	CodeUnderage             = "UNDERAGE"
	CodeVoterNotFound        = "VOTER_NOT_FOUND"
	CodeCandidateNotFound    = "CANDIDATE_NOT_FOUND"
	CodeInvalidChoice        = "INVALID_CHOICE"
	CodeConflictingChoice    = "CONFLICTING_CHOICE"
	CodeConstituencyMismatch = "CONSTITUENCY_MISMATCH"
	CodeAlreadyVoted         = "ALREADY_VOTED"
	CodeBallotNotFound       = "BALLOT_NOT_FOUND"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
)

// Service errors
var (
	ErrInvalidMobile       = errors.Coded(errors.ErrValidation, CodeInvalidMobile, "Invalid mobile number format")
	ErrInvalidNationalID   = errors.Coded(errors.ErrValidation, CodeInvalidNationalID, "Invalid Aadhar number format (12 digits required)")
	ErrInvalidVoterCode    = errors.Coded(errors.ErrValidation, CodeInvalidVoterCode, "Invalid Voter ID format (3 letters + 7 digits required)")
	ErrInvalidName         = errors.Coded(errors.ErrValidation, CodeInvalidName, "Full name must be at least 2 characters")
	ErrInvalidDateOfBirth  = errors.Coded(errors.ErrValidation, CodeInvalidDateOfBirth, "Invalid date of birth")
	ErrInvalidConstituency = errors.Coded(errors.ErrValidation, CodeInvalidConstituency, "Constituency is required")

	ErrOTPNotFound = errors.Coded(errors.ErrNotFound, CodeOTPNotFound, "OTP not found or expired")
	ErrOTPExpired  = errors.Coded(errors.ErrValidation, CodeOTPExpired, "OTP expired")
	ErrOTPMismatch = errors.Coded(errors.ErrValidation, CodeOTPMismatch, "Invalid OTP")

	ErrDuplicateMobile     = errors.Coded(errors.ErrConflict, CodeDuplicateMobile, "Mobile number already registered")
	ErrDuplicateNationalID = errors.Coded(errors.ErrConflict, CodeDuplicateNationalID, "Aadhar number already registered")
	ErrDuplicateVoterCode  = errors.Coded(errors.ErrConflict, CodeDuplicateVoterCode, "Voter ID already registered")
	ErrUnderage            = errors.Coded(errors.ErrValidation, CodeUnderage, "User must be at least 18 years old to register")
	ErrVoterNotFound       = errors.Coded(errors.ErrNotFound, CodeVoterNotFound, "User not found")

	ErrCandidateNotFound    = errors.Coded(errors.ErrNotFound, CodeCandidateNotFound, "Candidate not found")
	ErrInvalidChoice        = errors.Coded(errors.ErrValidation, CodeInvalidChoice, "Must select a candidate or NOTA")
	ErrConflictingChoice    = errors.Coded(errors.ErrConflict, CodeConflictingChoice, "Cannot select both candidate and NOTA")
	ErrConstituencyMismatch = errors.Coded(errors.ErrValidation, CodeConstituencyMismatch, "Candidate not in the same constituency")
	ErrAlreadyVoted         = errors.Coded(errors.ErrConflict, CodeAlreadyVoted, "User has already voted")
	ErrBallotNotFound       = errors.Coded(errors.ErrNotFound, CodeBallotNotFound, "No ballot recorded for this voter")

	ErrInvalidCredentials = errors.Coded(errors.ErrUnauthorized, CodeInvalidCredentials, "Invalid employee ID or password")
)
