package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"
	"time"

	"github.com/abrezinsky/everyonevotes/internal/errors"
	"github.com/abrezinsky/everyonevotes/internal/logger"
	"github.com/abrezinsky/everyonevotes/internal/metrics"
	"github.com/abrezinsky/everyonevotes/internal/models"
	"github.com/abrezinsky/everyonevotes/internal/repository"
	"github.com/abrezinsky/everyonevotes/internal/validation"
	"github.com/abrezinsky/everyonevotes/pkg/smsgateway"
)

// OTPCodeLength is the number of digits in a one-time code
const OTPCodeLength = 6

// Default OTP timings
const (
	DefaultOTPTTL   = 5 * time.Minute
	DefaultOTPGrace = 30 * time.Second
)

// OTPService issues and verifies one-time codes per mobile number
type OTPService struct {
	log        logger.Logger
	store      repository.OTPStore
	sms        smsgateway.Client
	ttl        time.Duration
	grace      time.Duration
	now        func() time.Time
	randReader io.Reader // for testing: defaults to crypto/rand.Reader
}

// NewOTPService creates a new OTPService. sms may be nil.
func NewOTPService(log logger.Logger, store repository.OTPStore, sms smsgateway.Client, ttl, grace time.Duration) *OTPService {
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	if grace <= 0 {
		grace = DefaultOTPGrace
	}
	return &OTPService{
		log:        log,
		store:      store,
		sms:        sms,
		ttl:        ttl,
		grace:      grace,
		now:        time.Now,
		randReader: rand.Reader,
	}
}

// SetRandReader sets a custom random reader (for testing)
func (s *OTPService) SetRandReader(reader io.Reader) {
	s.randReader = reader
}

// SetClock sets the time source (for testing)
func (s *OTPService) SetClock(now func() time.Time) {
	s.now = now
}

// TTL returns how long an issued code stays valid
func (s *OTPService) TTL() time.Duration {
	return s.ttl
}

// Challenge is the result of issuing a code
type Challenge struct {
	Mobile     string    `json:"mobile"`
	Code       string    `json:"otp"`
	TTLSeconds int       `json:"expiresIn"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// generateCode draws OTPCodeLength uniformly distributed decimal digits
func (s *OTPService) generateCode() (string, error) {
	code := make([]byte, 0, OTPCodeLength)
	buf := make([]byte, 1)
	for len(code) < OTPCodeLength {
		if _, err := io.ReadFull(s.randReader, buf); err != nil {
			return "", fmt.Errorf("failed to generate otp: %w", err)
		}
		// 250 is the largest multiple of 10 below 256
		if buf[0] >= 250 {
			continue
		}
		code = append(code, '0'+buf[0]%10)
	}
	return string(code), nil
}

// IssueChallenge replaces any pending challenge for mobile with a fresh code.
// The code is returned to the caller and handed to the SMS gateway; a
// gateway failure is logged and does not fail issuance.
func (s *OTPService) IssueChallenge(ctx context.Context, mobile string) (*Challenge, error) {
	mobile = validation.NormalizeMobile(mobile)
	if !validation.IsValidMobile(mobile) {
		return nil, ErrInvalidMobile
	}

	code, err := s.generateCode()
	if err != nil {
		return nil, errors.Internal(err)
	}

	expiresAt := s.now().Add(s.ttl)
	if err := s.store.ReplaceChallenge(ctx, models.OTPChallenge{
		Mobile:    mobile,
		Code:      code,
		ExpiresAt: expiresAt,
	}); err != nil {
		return nil, errors.Internal(err)
	}

	delivery := "logged"
	if s.sms != nil {
		if err := s.sms.SendOTP(ctx, mobile, code, s.ttl); err != nil {
			s.log.Warn("Failed to dispatch OTP", "mobile", mobile, "error", err)
			delivery = "failed"
		} else if s.sms.BaseURL() != "" {
			delivery = "sent"
		}
	}
	metrics.OTPIssued.WithLabelValues(delivery).Inc()

	s.log.Info("OTP issued", "mobile", mobile, "otp", code, "expires_at", expiresAt)

	return &Challenge{
		Mobile:     mobile,
		Code:       code,
		TTLSeconds: int(s.ttl.Seconds()),
		ExpiresAt:  expiresAt,
	}, nil
}

// VerifyChallenge checks code against the stored challenge for mobile.
// A verified challenge stays valid for the grace window so that duplicate
// verification calls succeed; after that it is gone.
func (s *OTPService) VerifyChallenge(ctx context.Context, mobile, code string) error {
	mobile = validation.NormalizeMobile(mobile)
	if !validation.IsValidMobile(mobile) {
		return ErrInvalidMobile
	}

	now := s.now()
	err := s.store.InspectChallenge(ctx, mobile, func(ch *models.OTPChallenge) (repository.OTPAction, error) {
		if ch == nil {
			return repository.OTPKeep, ErrOTPNotFound
		}
		if ch.VerifiedAt != nil {
			if now.After(ch.VerifiedAt.Add(s.grace)) {
				return repository.OTPDelete, ErrOTPNotFound
			}
			if !codesEqual(ch.Code, code) {
				return repository.OTPKeep, ErrOTPMismatch
			}
			return repository.OTPKeep, nil
		}
		if now.After(ch.ExpiresAt) {
			return repository.OTPDelete, ErrOTPExpired
		}
		if !codesEqual(ch.Code, code) {
			return repository.OTPKeep, ErrOTPMismatch
		}
		verifiedAt := now
		ch.VerifiedAt = &verifiedAt
		return repository.OTPSave, nil
	})

	switch {
	case err == nil:
		metrics.OTPVerifications.WithLabelValues(metrics.ResultOK).Inc()
		s.log.Debug("OTP verified", "mobile", mobile)
		return nil
	case errors.CodeOf(err) != "":
		metrics.OTPVerifications.WithLabelValues(errors.CodeOf(err)).Inc()
		s.log.Debug("OTP verification rejected", "mobile", mobile, "reason", errors.CodeOf(err))
		return err
	default:
		return errors.Internal(err)
	}
}

func codesEqual(stored, supplied string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}

// Purge removes expired and grace-elapsed challenges
func (s *OTPService) Purge(ctx context.Context) (int64, error) {
	n, err := s.store.PurgeChallenges(ctx, s.now(), s.grace)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.OTPPurged.Add(float64(n))
		s.log.Debug("Purged OTP challenges", "count", n)
	}
	return n, nil
}

// RunSweeper purges challenges every interval until ctx is cancelled
func (s *OTPService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Purge(ctx); err != nil && ctx.Err() == nil {
				s.log.Warn("OTP sweep failed", "error", err)
			}
		}
	}
}
