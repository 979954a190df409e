package repository

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abrezinsky/everyonevotes/internal/models"
)

// redisKeyPrefix namespaces challenge hashes
const redisKeyPrefix = "everyonevotes:otp:"

// redisRetention keeps an expired challenge around long enough for a late
// verification to be reported as expired rather than missing.
const redisRetention = time.Minute

const redisMaxRetries = 5

// ErrTooManyRetries is returned when optimistic locking keeps losing races
var ErrTooManyRetries = stderrors.New("otp store: too many concurrent updates")

// RedisOTPStore keeps OTP challenges in Redis hashes. Keys expire on their
// own, so PurgeChallenges has nothing to do.
type RedisOTPStore struct {
	client redis.UniversalClient
	grace  time.Duration
}

// NewRedisOTPStore creates a store on client. grace must match the grace
// window the OTP service enforces.
func NewRedisOTPStore(client redis.UniversalClient, grace time.Duration) *RedisOTPStore {
	return &RedisOTPStore{client: client, grace: grace}
}

var _ OTPStore = (*RedisOTPStore)(nil)

func redisKey(mobile string) string {
	return redisKeyPrefix + mobile
}

// Ping checks the Redis connection
func (s *RedisOTPStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// expiry returns when Redis may drop the challenge
func (s *RedisOTPStore) expiry(ch models.OTPChallenge) time.Time {
	if ch.VerifiedAt != nil {
		return ch.VerifiedAt.Add(s.grace)
	}
	return ch.ExpiresAt.Add(redisRetention)
}

func challengeFields(ch models.OTPChallenge) map[string]any {
	verified := ""
	if ch.VerifiedAt != nil {
		verified = strconv.FormatInt(ch.VerifiedAt.UnixMilli(), 10)
	}
	return map[string]any{
		"code":        ch.Code,
		"expires_at":  strconv.FormatInt(ch.ExpiresAt.UnixMilli(), 10),
		"verified_at": verified,
	}
}

func parseChallenge(mobile string, vals map[string]string) (*models.OTPChallenge, error) {
	if len(vals) == 0 {
		return nil, nil
	}
	expires, err := strconv.ParseInt(vals["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("otp store: bad expires_at for %s: %w", mobile, err)
	}
	ch := &models.OTPChallenge{
		Mobile:    mobile,
		Code:      vals["code"],
		ExpiresAt: fromMillis(expires),
	}
	if v := vals["verified_at"]; v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("otp store: bad verified_at for %s: %w", mobile, err)
		}
		t := fromMillis(ms)
		ch.VerifiedAt = &t
	}
	return ch, nil
}

// ReplaceChallenge stores ch, discarding any earlier challenge for the same mobile
func (s *RedisOTPStore) ReplaceChallenge(ctx context.Context, ch models.OTPChallenge) error {
	key := redisKey(ch.Mobile)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, challengeFields(ch))
		pipe.PExpireAt(ctx, key, s.expiry(ch))
		return nil
	})
	return err
}

// InspectChallenge runs fn under WATCH so that concurrent verifications of
// the same mobile see each other's writes. Lost races are retried.
func (s *RedisOTPStore) InspectChallenge(ctx context.Context, mobile string, fn OTPInspectFunc) error {
	key := redisKey(mobile)

	var fnErr error
	txf := func(tx *redis.Tx) error {
		fnErr = nil
		vals, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		ch, err := parseChallenge(mobile, vals)
		if err != nil {
			return err
		}

		var action OTPAction
		action, fnErr = fn(ch)
		if ch == nil || action == OTPKeep {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			switch action {
			case OTPDelete:
				pipe.Del(ctx, key)
			case OTPSave:
				pipe.HSet(ctx, key, challengeFields(*ch))
				pipe.PExpireAt(ctx, key, s.expiry(*ch))
			}
			return nil
		})
		return err
	}

	for i := 0; i < redisMaxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return fnErr
		}
		if stderrors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrTooManyRetries
}

// PurgeChallenges is a no-op; Redis expires keys itself
func (s *RedisOTPStore) PurgeChallenges(ctx context.Context, now time.Time, grace time.Duration) (int64, error) {
	return 0, nil
}
