package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/ayush/todolist/backend/internal/models"
	"github.com/ayush/todolist/backend/internal/store"
)

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	rdb, err := store.NewRedisClient(ctx, "", mr.Addr(), "")
	if err != nil {
		t.Fatalf("redis connect: %v", err)
	}
	defer rdb.Close()
	cache := store.NewRedisCache(rdb)

	if _, ok, err := cache.Get(ctx, "getTasks1"); err != nil || ok {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}

	tasks := []models.Task{{ID: 1, UserID: 1, Title: "a", Status: models.StatusInProgress}}
	if err := cache.Set(ctx, "getTasks1", tasks, store.CacheTTL); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("sql.getTasks1") {
		t.Fatalf("expected prefixed key in redis, keys=%v", mr.Keys())
	}
	if ttl := mr.TTL("sql.getTasks1"); ttl != store.CacheTTL {
		t.Fatalf("ttl = %v, want %v", ttl, store.CacheTTL)
	}

	got, ok, err := cache.Get(ctx, "getTasks1")
	if err != nil || !ok || len(got) != 1 || got[0] != tasks[0] {
		t.Fatalf("get: %v ok=%v err=%v", got, ok, err)
	}

	mr.FastForward(store.CacheTTL + time.Second)
	if _, ok, _ := cache.Get(ctx, "getTasks1"); ok {
		t.Fatalf("expected entry to expire")
	}

	_ = cache.Set(ctx, "getTasks1", tasks, store.CacheTTL)
	if err := cache.Delete(ctx, "getTasks1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("sql.getTasks1") {
		t.Fatalf("expected key removed")
	}
}

func TestNewRedisClient_URL(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := store.NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0", "ignored:1", "")
	if err != nil {
		t.Fatalf("redis connect via url: %v", err)
	}
	_ = rdb.Close()
}

func TestStore_WithRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	rdb, err := store.NewRedisClient(ctx, "", mr.Addr(), "")
	if err != nil {
		t.Fatalf("redis connect: %v", err)
	}
	defer rdb.Close()

	s, err := store.Open(ctx, "sqlite3", "file:rediscache?mode=memory&cache=shared", store.NewRedisCache(rdb))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	uid, _ := s.CreateUser(ctx, "alice", "h")
	if _, err := s.CreateTask(ctx, uid, models.NewTask{Title: "a"}, store.CacheRefresh); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !mr.Exists("sql." + store.TaskListKey(uid)) {
		t.Fatalf("expected refreshed key, keys=%v", mr.Keys())
	}

	// Redis going away must not break reads.
	mr.Close()
	list, err := s.ListTasks(ctx, uid, store.CacheUse)
	if err != nil || len(list) != 1 {
		t.Fatalf("expected sql fallback, got %v err=%v", list, err)
	}
}
