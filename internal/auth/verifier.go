package auth

import (
	"context"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Credential storage modes
const (
	CredentialsPlain  = "plain"
	CredentialsBcrypt = "bcrypt"
)

// PlainVerifier compares an officer's secret with the stored plaintext
type PlainVerifier struct {
	officers OfficerLookup
}

// NewPlainVerifier creates a PlainVerifier
func NewPlainVerifier(officers OfficerLookup) *PlainVerifier {
	return &PlainVerifier{officers: officers}
}

// Verify reports whether secret matches the officer's stored secret
func (v *PlainVerifier) Verify(ctx context.Context, employeeID, secret string) bool {
	o, err := v.officers.GetOfficerByEmployeeID(ctx, employeeID)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(o.Secret), []byte(secret)) == 1
}

// BcryptVerifier checks an officer's secret against a stored bcrypt hash
type BcryptVerifier struct {
	officers OfficerLookup
}

// NewBcryptVerifier creates a BcryptVerifier
func NewBcryptVerifier(officers OfficerLookup) *BcryptVerifier {
	return &BcryptVerifier{officers: officers}
}

// Verify reports whether secret hashes to the officer's stored hash
func (v *BcryptVerifier) Verify(ctx context.Context, employeeID, secret string) bool {
	o, err := v.officers.GetOfficerByEmployeeID(ctx, employeeID)
	if err != nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(o.Secret), []byte(secret)) == nil
}

// HashSecret returns the bcrypt hash of secret
func HashSecret(secret string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Verifier is satisfied by both credential verifiers
type Verifier interface {
	Verify(ctx context.Context, employeeID, secret string) bool
}

// NewVerifier returns the verifier for a credentials mode, together with the
// hasher to use when seeding officers (nil for plaintext)
func NewVerifier(mode string, officers OfficerLookup) (Verifier, func(string) (string, error), error) {
	switch mode {
	case CredentialsPlain, "":
		return NewPlainVerifier(officers), nil, nil
	case CredentialsBcrypt:
		return NewBcryptVerifier(officers), HashSecret, nil
	default:
		return nil, nil, fmt.Errorf("unknown credentials mode %q", mode)
	}
}

var (
	_ Verifier = (*PlainVerifier)(nil)
	_ Verifier = (*BcryptVerifier)(nil)
)
