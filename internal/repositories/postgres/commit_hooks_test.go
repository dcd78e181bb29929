package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/notification-service/internal/cache"
)

func newTestCache(t *testing.T) (*cache.CacheManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return cache.NewCacheManager(client), mr
}

func TestPreferenceInvalidation_WaitsForCommit(t *testing.T) {
	cm, _ := newTestCache(t)
	ctx := context.Background()

	exists := func() bool {
		ok, err := cm.Preference.Exists(ctx, cache.PreferenceKey("7"))
		if err != nil {
			t.Fatalf("Exists: %v", err)
		}
		return ok
	}

	if err := cm.Preference.Set(ctx, cache.PreferenceKey("7"), []string{"stale"}, time.Minute); err != nil {
		t.Fatal(err)
	}

	hooks := &commitHooks{}
	inTx := &PreferencePostgreSQL{cacheManager: cm, hooks: hooks}
	inTx.invalidate(ctx, "7")

	if !exists() {
		t.Fatal("cache dropped before commit")
	}

	hooks.flush(ctx)
	if exists() {
		t.Fatal("cache still present after commit")
	}

	// Outside a transaction the cache is dropped at once.
	if err := cm.Preference.Set(ctx, cache.PreferenceKey("7"), []string{"stale"}, time.Minute); err != nil {
		t.Fatal(err)
	}
	direct := &PreferencePostgreSQL{cacheManager: cm}
	direct.invalidate(ctx, "7")
	if exists() {
		t.Fatal("cache not dropped outside a transaction")
	}
}

func TestCommitHooks_FlushRunsOnce(t *testing.T) {
	hooks := &commitHooks{}
	calls := 0
	hooks.run(context.Background(), func(context.Context) { calls++ })
	hooks.run(context.Background(), func(context.Context) { calls++ })

	if calls != 0 {
		t.Fatalf("hooks ran before flush: %d", calls)
	}
	hooks.flush(context.Background())
	hooks.flush(context.Background())
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}

	var none *commitHooks
	none.run(context.Background(), func(context.Context) { calls++ })
	if calls != 3 {
		t.Errorf("nil hooks should run immediately, calls = %d", calls)
	}
}

func TestNewPostgreSQLRepository_CacheManager(t *testing.T) {
	shared, _ := newTestCache(t)

	tests := []struct {
		name   string
		config RepositoryConfig
		shared bool
	}{
		{name: "uses the shared manager", config: RepositoryConfig{CacheManager: shared}, shared: true},
		{name: "builds its own without one", config: RepositoryConfig{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewPostgreSQLRepository(tt.config).(*PostgreSQLRepository)
			if repo.cacheManager == nil {
				t.Fatal("cacheManager is nil")
			}
			if (repo.cacheManager == shared) != tt.shared {
				t.Errorf("cacheManager shared = %v, want %v", repo.cacheManager == shared, tt.shared)
			}
			prefs := repo.Preference().(*PreferencePostgreSQL)
			if prefs.cacheManager != repo.cacheManager {
				t.Error("preference repository got a different cache manager")
			}
			notifications := repo.Notification().(*NotificationPostgreSQL)
			if notifications.cacheManager != repo.cacheManager {
				t.Error("notification repository got a different cache manager")
			}
		})
	}
}
