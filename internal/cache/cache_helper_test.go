package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestManager(t *testing.T) (*CacheManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCacheManager(client), mr
}

type cachedPrefs struct {
	UserID   string          `json:"user_id"`
	Disabled map[string]bool `json:"disabled"`
}

func TestCacheHelper_SetGetDelete(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	in := cachedPrefs{UserID: "7", Disabled: map[string]bool{"badge:email": true}}
	if err := cm.Preference.Set(ctx, PreferenceKey("7"), in, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !mr.Exists("pref:user:7") {
		t.Fatal("expected prefixed key in redis")
	}

	var out cachedPrefs
	if err := cm.Preference.Get(ctx, PreferenceKey("7"), &out); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out.UserID != "7" || !out.Disabled["badge:email"] {
		t.Errorf("unexpected value: %+v", out)
	}

	InvalidatePreferenceCache(ctx, cm, "7")
	if err := cm.Preference.Get(ctx, PreferenceKey("7"), &out); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("expected ErrCacheNotFound after invalidation, got %v", err)
	}
}

func TestCacheHelper_NilClient(t *testing.T) {
	cm := NewCacheManager(nil)
	ctx := context.Background()

	if err := cm.User.Set(ctx, "id:1", "x", time.Minute); err != nil {
		t.Errorf("Set without client should be a no-op, got %v", err)
	}
	var s string
	if err := cm.User.Get(ctx, "id:1", &s); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("expected ErrCacheNotAvailable, got %v", err)
	}
	if err := cm.HealthCheck(ctx); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("expected ErrCacheNotAvailable from HealthCheck, got %v", err)
	}
}

func TestCacheHelper_CacheOrExecute(t *testing.T) {
	cm, _ := newTestManager(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return int64(5), nil
	}

	var got int64
	for i := 0; i < 3; i++ {
		if err := cm.Unread.CacheOrExecute(ctx, UnreadKey("7"), &got, time.Minute, fetch); err != nil {
			t.Fatalf("CacheOrExecute: %v", err)
		}
	}
	if got != 5 {
		t.Errorf("got %d, want 5", got)
	}
	if calls != 1 {
		t.Errorf("fetch called %d times, want 1", calls)
	}

	fetchErr := errors.New("db down")
	err := cm.Unread.CacheOrExecute(ctx, UnreadKey("8"), &got, time.Minute, func() (interface{}, error) {
		return nil, fetchErr
	})
	if !errors.Is(err, fetchErr) {
		t.Errorf("expected fetch error to propagate, got %v", err)
	}
}

func TestCacheHelper_IncrWindow(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := cm.RateLimit.IncrWindow(ctx, "dispatch:u1", time.Minute)
		if err != nil {
			t.Fatalf("IncrWindow: %v", err)
		}
		if got != want {
			t.Errorf("count = %d, want %d", got, want)
		}
	}

	if ttl := mr.TTL("ratelimit:dispatch:u1"); ttl <= 0 || ttl > time.Minute {
		t.Errorf("unexpected ttl %v", ttl)
	}

	mr.FastForward(2 * time.Minute)
	got, err := cm.RateLimit.IncrWindow(ctx, "dispatch:u1", time.Minute)
	if err != nil {
		t.Fatalf("IncrWindow: %v", err)
	}
	if got != 1 {
		t.Errorf("counter should reset after window, got %d", got)
	}
}

func TestCacheHelper_InvalidatePattern(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	for _, k := range []string{"user:1:a", "user:1:b", "user:2:a"} {
		if err := cm.Exists.Set(ctx, k, true, time.Minute); err != nil {
			t.Fatal(err)
		}
	}

	if err := cm.Exists.InvalidatePattern(ctx, "user:1:*"); err != nil {
		t.Fatalf("InvalidatePattern: %v", err)
	}

	if mr.Exists("exists:user:1:a") || mr.Exists("exists:user:1:b") {
		t.Error("matching keys should be deleted")
	}
	if !mr.Exists("exists:user:2:a") {
		t.Error("non-matching key should survive")
	}
}
