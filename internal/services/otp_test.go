package services_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abrezinsky/everyonevotes/internal/logger"
	"github.com/abrezinsky/everyonevotes/internal/repository/mock"
	"github.com/abrezinsky/everyonevotes/internal/services"
	"github.com/abrezinsky/everyonevotes/internal/testutil"
	"github.com/abrezinsky/everyonevotes/pkg/smsgateway"
)

const testMobile = "9876543210"

func setupOTPService(t *testing.T) (*services.OTPService, *smsgateway.MockClient, *fakeClock) {
	t.Helper()
	repo := testutil.NewTestRepository(t)
	sms := smsgateway.NewMockClient()
	clock := newFakeClock(testNow)
	svc := services.NewOTPService(logger.Nop(), repo, sms, 5*time.Minute, 30*time.Second)
	svc.SetClock(clock.Now)
	return svc, sms, clock
}

func TestIssueChallenge_ReturnsSixDigitCode(t *testing.T) {
	svc, sms, _ := setupOTPService(t)
	ctx := context.Background()

	ch, err := svc.IssueChallenge(ctx, testMobile)
	if err != nil {
		t.Fatalf("IssueChallenge failed: %v", err)
	}
	if len(ch.Code) != services.OTPCodeLength {
		t.Errorf("expected %d digit code, got %q", services.OTPCodeLength, ch.Code)
	}
	for _, r := range ch.Code {
		if r < '0' || r > '9' {
			t.Fatalf("expected digits only, got %q", ch.Code)
		}
	}
	if ch.TTLSeconds != 300 {
		t.Errorf("expected TTL 300s, got %d", ch.TTLSeconds)
	}
	if !ch.ExpiresAt.Equal(testNow.Add(5 * time.Minute)) {
		t.Errorf("unexpected expiry %v", ch.ExpiresAt)
	}
	if sms.LastCode(testMobile) != ch.Code {
		t.Errorf("expected gateway to receive %q, got %q", ch.Code, sms.LastCode(testMobile))
	}
}

func TestIssueChallenge_DeterministicWithRandReader(t *testing.T) {
	svc, _, _ := setupOTPService(t)
	// 250 and above are redrawn
	svc.SetRandReader(bytes.NewReader([]byte{1, 2, 255, 3, 250, 14, 25, 36}))

	ch, err := svc.IssueChallenge(context.Background(), testMobile)
	if err != nil {
		t.Fatalf("IssueChallenge failed: %v", err)
	}
	if ch.Code != "123456" {
		t.Errorf("expected code 123456, got %q", ch.Code)
	}
}

func TestIssueChallenge_RandReaderFailure(t *testing.T) {
	svc, _, _ := setupOTPService(t)
	svc.SetRandReader(bytes.NewReader([]byte{1, 2}))

	_, err := svc.IssueChallenge(context.Background(), testMobile)
	if err == nil {
		t.Fatal("expected error when random source runs dry")
	}
}

func TestIssueChallenge_InvalidMobile(t *testing.T) {
	svc, sms, _ := setupOTPService(t)

	for _, mobile := range []string{"", "12345", "5876543210", "98765432100"} {
		_, err := svc.IssueChallenge(context.Background(), mobile)
		if !errors.Is(err, services.ErrInvalidMobile) {
			t.Errorf("mobile %q: expected ErrInvalidMobile, got %v", mobile, err)
		}
	}
	if len(sms.Sent()) != 0 {
		t.Errorf("expected no messages sent, got %d", len(sms.Sent()))
	}
}

func TestIssueChallenge_NormalizesMobile(t *testing.T) {
	svc, _, _ := setupOTPService(t)
	ctx := context.Background()

	ch, err := svc.IssueChallenge(ctx, "+91 98765 43210")
	if err != nil {
		t.Fatalf("IssueChallenge failed: %v", err)
	}
	if ch.Mobile != testMobile {
		t.Errorf("expected normalized mobile %q, got %q", testMobile, ch.Mobile)
	}
	if err := svc.VerifyChallenge(ctx, testMobile, ch.Code); err != nil {
		t.Errorf("expected verification under national form, got %v", err)
	}
}

func TestIssueChallenge_GatewayFailureDoesNotFail(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	sms := smsgateway.NewMockClient(smsgateway.WithSendError(errors.New("gateway down")))
	svc := services.NewOTPService(logger.Nop(), repo, sms, 0, 0)

	ch, err := svc.IssueChallenge(context.Background(), testMobile)
	if err != nil {
		t.Fatalf("expected issuance to succeed, got %v", err)
	}
	if err := svc.VerifyChallenge(context.Background(), testMobile, ch.Code); err != nil {
		t.Errorf("expected code to verify, got %v", err)
	}
}

func TestIssueChallenge_StoreError(t *testing.T) {
	repo := mock.NewRepository(testutil.NewTestRepository(t))
	repo.ReplaceChallengeError = errors.New("db locked")
	svc := services.NewOTPService(logger.Nop(), repo, nil, 0, 0)

	_, err := svc.IssueChallenge(context.Background(), testMobile)
	if err == nil {
		t.Fatal("expected store error")
	}
}

func TestNewOTPService_Defaults(t *testing.T) {
	svc := services.NewOTPService(logger.Nop(), testutil.NewTestRepository(t), nil, 0, 0)
	if svc.TTL() != services.DefaultOTPTTL {
		t.Errorf("expected default TTL %v, got %v", services.DefaultOTPTTL, svc.TTL())
	}
}

func TestVerifyChallenge_Success(t *testing.T) {
	svc, _, _ := setupOTPService(t)
	ctx := context.Background()

	ch, err := svc.IssueChallenge(ctx, testMobile)
	if err != nil {
		t.Fatalf("IssueChallenge failed: %v", err)
	}
	if err := svc.VerifyChallenge(ctx, testMobile, ch.Code); err != nil {
		t.Errorf("expected success, got %v", err)
	}
}

func TestVerifyChallenge_NoChallenge(t *testing.T) {
	svc, _, _ := setupOTPService(t)

	err := svc.VerifyChallenge(context.Background(), testMobile, "123456")
	if !errors.Is(err, services.ErrOTPNotFound) {
		t.Errorf("expected ErrOTPNotFound, got %v", err)
	}
}

func TestVerifyChallenge_MismatchKeepsChallenge(t *testing.T) {
	svc, _, _ := setupOTPService(t)
	svc.SetRandReader(bytes.NewReader([]byte{1, 2, 3, 4, 5, 6}))
	ctx := context.Background()

	if _, err := svc.IssueChallenge(ctx, testMobile); err != nil {
		t.Fatalf("IssueChallenge failed: %v", err)
	}
	if err := svc.VerifyChallenge(ctx, testMobile, "000000"); !errors.Is(err, services.ErrOTPMismatch) {
		t.Fatalf("expected ErrOTPMismatch, got %v", err)
	}
	if err := svc.VerifyChallenge(ctx, testMobile, "123456"); err != nil {
		t.Errorf("expected correct code to still verify, got %v", err)
	}
}

func TestVerifyChallenge_Expired(t *testing.T) {
	svc, _, clock := setupOTPService(t)
	ctx := context.Background()

	ch, err := svc.IssueChallenge(ctx, testMobile)
	if err != nil {
		t.Fatalf("IssueChallenge failed: %v", err)
	}
	clock.Advance(5*time.Minute + time.Second)

	if err := svc.VerifyChallenge(ctx, testMobile, ch.Code); !errors.Is(err, services.ErrOTPExpired) {
		t.Fatalf("expected ErrOTPExpired, got %v", err)
	}
	// the expired challenge is gone
	if err := svc.VerifyChallenge(ctx, testMobile, ch.Code); !errors.Is(err, services.ErrOTPNotFound) {
		t.Errorf("expected ErrOTPNotFound after expiry, got %v", err)
	}
}

func TestVerifyChallenge_GraceWindow(t *testing.T) {
	svc, _, clock := setupOTPService(t)
	svc.SetRandReader(bytes.NewReader([]byte{1, 2, 3, 4, 5, 6}))
	ctx := context.Background()

	ch, err := svc.IssueChallenge(ctx, testMobile)
	if err != nil {
		t.Fatalf("IssueChallenge failed: %v", err)
	}
	if err := svc.VerifyChallenge(ctx, testMobile, ch.Code); err != nil {
		t.Fatalf("first verify failed: %v", err)
	}

	clock.Advance(20 * time.Second)
	if err := svc.VerifyChallenge(ctx, testMobile, ch.Code); err != nil {
		t.Errorf("expected repeat verify inside grace window to succeed, got %v", err)
	}
	if err := svc.VerifyChallenge(ctx, testMobile, "999999"); !errors.Is(err, services.ErrOTPMismatch) {
		t.Errorf("expected wrong code inside grace window to mismatch, got %v", err)
	}

	clock.Advance(11 * time.Second)
	if err := svc.VerifyChallenge(ctx, testMobile, ch.Code); !errors.Is(err, services.ErrOTPNotFound) {
		t.Errorf("expected ErrOTPNotFound after grace window, got %v", err)
	}
}

func TestVerifyChallenge_ReissueInvalidatesOldCode(t *testing.T) {
	svc, _, _ := setupOTPService(t)
	svc.SetRandReader(bytes.NewReader([]byte{1, 1, 1, 1, 1, 1, 2, 2, 2, 2, 2, 2}))
	ctx := context.Background()

	first, err := svc.IssueChallenge(ctx, testMobile)
	if err != nil {
		t.Fatalf("first IssueChallenge failed: %v", err)
	}
	second, err := svc.IssueChallenge(ctx, testMobile)
	if err != nil {
		t.Fatalf("second IssueChallenge failed: %v", err)
	}

	if err := svc.VerifyChallenge(ctx, testMobile, first.Code); !errors.Is(err, services.ErrOTPMismatch) {
		t.Errorf("expected old code to mismatch, got %v", err)
	}
	if err := svc.VerifyChallenge(ctx, testMobile, second.Code); err != nil {
		t.Errorf("expected new code to verify, got %v", err)
	}
}

func TestVerifyChallenge_StoreError(t *testing.T) {
	repo := mock.NewRepository(testutil.NewTestRepository(t))
	repo.InspectChallengeError = errors.New("db locked")
	svc := services.NewOTPService(logger.Nop(), repo, nil, 0, 0)

	err := svc.VerifyChallenge(context.Background(), testMobile, "123456")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, services.ErrOTPNotFound) {
		t.Error("store failure must not look like a missing challenge")
	}
}

func TestPurge_RemovesExpiredAndGraceElapsed(t *testing.T) {
	svc, _, clock := setupOTPService(t)
	ctx := context.Background()

	verified, err := svc.IssueChallenge(ctx, "9876543211")
	if err != nil {
		t.Fatalf("IssueChallenge failed: %v", err)
	}
	if err := svc.VerifyChallenge(ctx, "9876543211", verified.Code); err != nil {
		t.Fatalf("VerifyChallenge failed: %v", err)
	}
	if _, err := svc.IssueChallenge(ctx, "9876543212"); err != nil {
		t.Fatalf("IssueChallenge failed: %v", err)
	}

	n, err := svc.Purge(ctx)
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected nothing purged yet, got %d", n)
	}

	clock.Advance(6 * time.Minute)
	n, err = svc.Purge(ctx)
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 purged, got %d", n)
	}
}

func TestPurge_StoreError(t *testing.T) {
	repo := mock.NewRepository(testutil.NewTestRepository(t))
	repo.PurgeChallengesError = errors.New("db locked")
	svc := services.NewOTPService(logger.Nop(), repo, nil, 0, 0)

	if _, err := svc.Purge(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestRunSweeper_StopsOnCancel(t *testing.T) {
	svc, _, _ := setupOTPService(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		svc.RunSweeper(ctx, 5*time.Millisecond)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
