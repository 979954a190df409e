package repository

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abrezinsky/everyonevotes/internal/models"
)

// newTestRedisStore connects to the Redis named by EV_TEST_REDIS_ADDR and
// skips the test when it is not set.
func newTestRedisStore(t *testing.T) *RedisOTPStore {
	t.Helper()
	addr := os.Getenv("EV_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("EV_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("EV_TEST_REDIS_PASSWORD"),
		DB:       0,
	})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}
	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, redisKeyPrefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})
	return NewRedisOTPStore(client, 30*time.Second)
}

func TestRedisOTPStore_ReplaceAndInspect(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	store.ReplaceChallenge(ctx, models.OTPChallenge{Mobile: "9876543210", Code: "111111", ExpiresAt: now.Add(5 * time.Minute)})
	if err := store.ReplaceChallenge(ctx, models.OTPChallenge{Mobile: "9876543210", Code: "222222", ExpiresAt: now.Add(6 * time.Minute)}); err != nil {
		t.Fatalf("ReplaceChallenge failed: %v", err)
	}

	err := store.InspectChallenge(ctx, "9876543210", func(ch *models.OTPChallenge) (OTPAction, error) {
		if ch == nil || ch.Code != "222222" || !ch.ExpiresAt.Equal(now.Add(6*time.Minute)) {
			t.Errorf("unexpected challenge %+v", ch)
		}
		return OTPKeep, nil
	})
	if err != nil {
		t.Fatalf("InspectChallenge failed: %v", err)
	}
}

func TestRedisOTPStore_SaveThenDelete(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	mobile := "9876543211"

	store.ReplaceChallenge(ctx, models.OTPChallenge{Mobile: mobile, Code: "123456", ExpiresAt: now.Add(5 * time.Minute)})
	store.InspectChallenge(ctx, mobile, func(ch *models.OTPChallenge) (OTPAction, error) {
		ch.VerifiedAt = &now
		return OTPSave, nil
	})
	store.InspectChallenge(ctx, mobile, func(ch *models.OTPChallenge) (OTPAction, error) {
		if ch == nil || ch.VerifiedAt == nil || !ch.VerifiedAt.Equal(now) {
			t.Errorf("expected verified challenge, got %+v", ch)
		}
		return OTPDelete, nil
	})
	store.InspectChallenge(ctx, mobile, func(ch *models.OTPChallenge) (OTPAction, error) {
		if ch != nil {
			t.Errorf("expected challenge deleted, got %+v", ch)
		}
		return OTPKeep, nil
	})
}

func TestRedisOTPStore_ConcurrentVerifySingleWinner(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()
	mobile := "9876543212"
	store.ReplaceChallenge(ctx, models.OTPChallenge{Mobile: mobile, Code: "123456", ExpiresAt: time.Now().Add(time.Minute)})

	var mu sync.Mutex
	winners := 0
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.InspectChallenge(ctx, mobile, func(ch *models.OTPChallenge) (OTPAction, error) {
				if ch == nil {
					return OTPKeep, nil
				}
				mu.Lock()
				winners++
				mu.Unlock()
				return OTPDelete, nil
			})
		}()
	}
	wg.Wait()

	// Lost WATCH races are retried and then observe the deletion
	if winners < 1 {
		t.Errorf("expected at least one winner, got %d", winners)
	}
}
