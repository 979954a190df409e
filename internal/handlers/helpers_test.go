package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/abrezinsky/everyonevotes/internal/auth"
	"github.com/abrezinsky/everyonevotes/internal/handlers"
	"github.com/abrezinsky/everyonevotes/internal/logger"
	"github.com/abrezinsky/everyonevotes/internal/repository"
	"github.com/abrezinsky/everyonevotes/internal/services"
	"github.com/abrezinsky/everyonevotes/internal/testutil"
	"github.com/abrezinsky/everyonevotes/internal/websocket"
)

// fakeClock is a settable time source shared by the OTP service and sessions
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// testServer wires the real services over an in-memory seeded database
type testServer struct {
	t        *testing.T
	repo     *repository.Repository
	sessions *auth.Sessions
	clock    *fakeClock
	router   http.Handler
}

func newTestServer(t *testing.T) *testServer {
	return newTestServerWithHealth(t, nil)
}

func newTestServerWithHealth(t *testing.T, health handlers.HealthCheck) *testServer {
	t.Helper()
	log := logger.Nop()
	repo := testutil.NewTestRepository(t)

	if _, err := services.NewSeedService(log, repo, nil).SeedDemoData(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	eligibility := services.NewEligibilityService(log, repo)
	ballots := services.NewBallotBox(log, repo, eligibility, nil)
	stats := services.NewStatisticsService(log, repo)
	hub := websocket.New(log, stats)
	hub.Start()
	ballots.SetBroadcaster(hub)

	clock := &fakeClock{now: time.Now()}
	otp := services.NewOTPService(log, repo, nil, 0, 0)
	otp.SetClock(clock.Now)
	sessions := auth.NewSessions(auth.DefaultSessionTTL)
	sessions.SetClock(clock.Now)

	h := handlers.New(handlers.Services{
		OTP:         otp,
		Identity:    services.NewIdentityService(log, repo),
		Candidates:  services.NewCandidateService(log, repo),
		Eligibility: eligibility,
		Ballots:     ballots,
		Statistics:  stats,
		Officers:    services.NewOfficerService(log, repo, auth.NewPlainVerifier(repo), stats),
		Receipts:    services.NewReceiptService(log, ballots),
	}, sessions, repo, hub, log, health)

	return &testServer{t: t, repo: repo, sessions: sessions, clock: clock, router: h.Router()}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

func expectErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	expectStatus(t, rec, status)
	var body handlers.APIError
	decode(t, rec, &body)
	if body.Code != code {
		t.Errorf("code = %q, want %q", body.Code, code)
	}
}

// sendOTP requests a code for mobile and returns it
func (s *testServer) sendOTP(mobile string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/auth/send-otp", "", handlers.SendOTPRequest{Mobile: mobile})
	expectStatus(s.t, rec, http.StatusOK)
	var resp handlers.SendOTPResponse
	decode(s.t, rec, &resp)
	return resp.OTP
}

func registerRequest(n int, ticket, constituency string) handlers.RegisterRequest {
	return handlers.RegisterRequest{
		RegistrationToken: ticket,
		AadharNumber:      fmt.Sprintf("1234567890%02d", n),
		VoterIDNumber:     fmt.Sprintf("ABC12345%02d", n),
		FullName:          fmt.Sprintf("Test Voter %d", n),
		DateOfBirth:       "2000-01-15",
		Constituency:      constituency,
	}
}

// verifyNewMobile runs send-otp and verify-otp for an unregistered mobile
// and returns the registration ticket
func (s *testServer) verifyNewMobile(mobile string) string {
	s.t.Helper()
	otp := s.sendOTP(mobile)

	rec := s.do(http.MethodPost, "/api/auth/verify-otp", "", handlers.VerifyOTPRequest{Mobile: mobile, OTP: otp})
	expectStatus(s.t, rec, http.StatusOK)
	var verified handlers.VerifyOTPResponse
	decode(s.t, rec, &verified)
	if !verified.IsNewUser || verified.RegistrationToken == "" {
		s.t.Fatalf("expected a registration ticket for %s, got %+v", mobile, verified)
	}
	return verified.RegistrationToken
}

// registerVoter runs the full OTP registration flow and returns the voter token
func (s *testServer) registerVoter(n int, constituency string) string {
	s.t.Helper()
	ticket := s.verifyNewMobile(fmt.Sprintf("98765432%02d", n))

	rec := s.do(http.MethodPost, "/api/auth/register", "", registerRequest(n, ticket, constituency))
	expectStatus(s.t, rec, http.StatusCreated)
	var resp handlers.SessionResponse
	decode(s.t, rec, &resp)
	if resp.Token == "" {
		s.t.Fatal("expected a token after registration")
	}
	return resp.Token
}

// loginOfficer logs in a seeded officer and returns the officer token
func (s *testServer) loginOfficer(employeeID string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/admin/login", "", handlers.OfficerLoginRequest{
		EmployeeID: employeeID,
		Password:   services.DemoOfficerSecret,
	})
	expectStatus(s.t, rec, http.StatusOK)
	var resp handlers.OfficerSessionResponse
	decode(s.t, rec, &resp)
	return resp.Token
}
