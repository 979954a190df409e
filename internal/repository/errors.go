package repository

import "errors"

// ErrNotFound is returned when a requested record is not found in the repository.
// This abstracts away the underlying storage implementation (SQL, Redis, etc.)
// from the service layer.
var ErrNotFound = errors.New("record not found")

// Uniqueness violations reported by CreateVoter
var (
	ErrDuplicateMobile     = errors.New("duplicate mobile")
	ErrDuplicateNationalID = errors.New("duplicate national id")
	ErrDuplicateVoterCode  = errors.New("duplicate voter code")
)

// ErrAlreadyVoted is returned when a ballot already exists for the voter
// or the voter's has-voted flag is already set.
var ErrAlreadyVoted = errors.New("voter has already voted")
