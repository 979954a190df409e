package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/abrezinsky/everyonevotes/internal/models"
)

// DefaultSessionTTL is how long a session token stays valid
const DefaultSessionTTL = 24 * time.Hour

// Audience separates voter, officer and registration tokens
type Audience string

const (
	AudienceVoter   Audience = "voter"
	AudienceOfficer Audience = "officer"
	// AudienceRegistration tickets prove a verified mobile that has no
	// voter yet. The subject is the normalized mobile number.
	AudienceRegistration Audience = "registration"
)

// Session is an issued bearer token
type Session struct {
	Token     string
	Audience  Audience
	Subject   string // voter id, officer employee id or mobile
	ExpiresAt time.Time
}

// Sessions holds bearer tokens in memory
type Sessions struct {
	ttl        time.Duration
	sessions   map[string]Session
	mu         sync.RWMutex
	now        func() time.Time
	randReader io.Reader
}

// NewSessions creates a session store whose tokens live for ttl
func NewSessions(ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{
		ttl:        ttl,
		sessions:   make(map[string]Session),
		now:        time.Now,
		randReader: rand.Reader,
	}
}

// SetClock sets the time source (for testing)
func (s *Sessions) SetClock(now func() time.Time) {
	s.now = now
}

// Issue creates a token for subject in the given audience
func (s *Sessions) Issue(aud Audience, subject string) (string, error) {
	return s.IssueFor(aud, subject, s.ttl)
}

// IssueFor creates a token that lives for ttl instead of the store default
func (s *Sessions) IssueFor(aud Audience, subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.ttl
	}
	token, err := s.generateToken()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.sessions[token] = Session{
		Token:     token,
		Audience:  aud,
		Subject:   subject,
		ExpiresAt: s.now().Add(ttl),
	}
	s.mu.Unlock()
	return token, nil
}

// Validate returns the session for token if it exists, belongs to aud and
// has not expired. Expired sessions are dropped.
func (s *Sessions) Validate(token string, aud Audience) (Session, bool) {
	if token == "" {
		return Session{}, false
	}
	s.mu.RLock()
	sess, exists := s.sessions[token]
	s.mu.RUnlock()

	if !exists || sess.Audience != aud {
		return Session{}, false
	}
	if s.now().After(sess.ExpiresAt) {
		s.Revoke(token)
		return Session{}, false
	}
	return sess, true
}

// Revoke invalidates a session token
func (s *Sessions) Revoke(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// Purge drops every expired session and returns how many were removed
func (s *Sessions) Purge() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for token, sess := range s.sessions {
		if now.After(sess.ExpiresAt) {
			delete(s.sessions, token)
			n++
		}
	}
	return n
}

func (s *Sessions) generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := io.ReadFull(s.randReader, b); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// TokenFromRequest reads a bearer token from the Authorization header, or
// from the token query parameter for websocket upgrades
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

type contextKey int

const (
	voterKey contextKey = iota
	officerKey
)

// WithVoterID returns a context carrying the authenticated voter id
func WithVoterID(ctx context.Context, voterID string) context.Context {
	return context.WithValue(ctx, voterKey, voterID)
}

// VoterIDFromContext returns the voter id set by RequireVoter
func VoterIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(voterKey).(string)
	return id, ok && id != ""
}

// WithOfficer returns a context carrying the authenticated officer
func WithOfficer(ctx context.Context, officer *models.Officer) context.Context {
	return context.WithValue(ctx, officerKey, officer)
}

// OfficerFromContext returns the officer set by RequireOfficer
func OfficerFromContext(ctx context.Context) (*models.Officer, bool) {
	o, ok := ctx.Value(officerKey).(*models.Officer)
	return o, ok && o != nil
}

// OfficerLookup loads an officer by employee id
type OfficerLookup interface {
	GetOfficerByEmployeeID(ctx context.Context, employeeID string) (*models.Officer, error)
}

// RequireVoter middleware for voter endpoints (returns 401)
func (s *Sessions) RequireVoter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.Validate(TokenFromRequest(r), AudienceVoter)
		if !ok {
			writeUnauthorized(w, "Access token required")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithVoterID(r.Context(), sess.Subject)))
	})
}

// RequireOfficer middleware for officer endpoints (returns 401). The
// officer record is reloaded on every request.
func (s *Sessions) RequireOfficer(officers OfficerLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := s.Validate(TokenFromRequest(r), AudienceOfficer)
			if !ok {
				writeUnauthorized(w, "Officer token required")
				return
			}
			officer, err := officers.GetOfficerByEmployeeID(r.Context(), sess.Subject)
			if err != nil {
				writeUnauthorized(w, "Officer not found")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithOfficer(r.Context(), officer)))
		})
	}
}

// unauthorizedBody matches the handlers' JSON error shape
type unauthorizedBody struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(unauthorizedBody{Code: "UNAUTHORIZED", Message: msg})
}
