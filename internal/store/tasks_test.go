package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ayush/todolist/backend/internal/models"
	"github.com/ayush/todolist/backend/internal/store"
	"github.com/ayush/todolist/backend/internal/testutil"
)

func TestTasks_CRUDAndOwnership(t *testing.T) {
	s := testutil.OpenStore(t, nil)
	ctx := context.Background()

	alice, _ := s.CreateUser(ctx, "alice", "h")
	bob, _ := s.CreateUser(ctx, "bob", "h")

	task, err := s.CreateTask(ctx, alice, models.NewTask{Title: "Buy milk", Description: "2%"}, store.CacheSkip)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.ID == 0 || task.UserID != alice || task.Status != models.StatusPending {
		t.Fatalf("unexpected task: %+v", task)
	}

	got, err := s.GetTask(ctx, alice, task.ID)
	if err != nil || got == nil || *got != *task {
		t.Fatalf("get: %v %+v", err, got)
	}

	// Bob cannot see, change or delete Alice's task.
	if other, err := s.GetTask(ctx, bob, task.ID); err != nil || other != nil {
		t.Fatalf("expected nil for non-owner, got %+v err=%v", other, err)
	}
	done := models.StatusCompleted
	if err := s.UpdateTask(ctx, bob, task.ID, models.TaskUpdate{Status: &done}, store.CacheSkip); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-owner update, got %v", err)
	}
	if err := s.DeleteTask(ctx, bob, task.ID, store.CacheSkip); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-owner delete, got %v", err)
	}
	if list, _ := s.ListTasks(ctx, bob, store.CacheSkip); len(list) != 0 {
		t.Fatalf("expected bob to have no tasks, got %v", list)
	}

	if err := s.DeleteTask(ctx, alice, task.ID, store.CacheSkip); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := s.GetTask(ctx, alice, task.ID); got != nil {
		t.Fatalf("expected task deleted, got %+v", got)
	}
	if err := s.DeleteTask(ctx, alice, task.ID, store.CacheSkip); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestUpdateTask_Partial(t *testing.T) {
	s := testutil.OpenStore(t, nil)
	ctx := context.Background()
	uid, _ := s.CreateUser(ctx, "alice", "h")
	task, _ := s.CreateTask(ctx, uid, models.NewTask{Title: "Buy milk", Description: "2%", Status: models.StatusPending}, store.CacheSkip)

	done := models.StatusCompleted
	if err := s.UpdateTask(ctx, uid, task.ID, models.TaskUpdate{Status: &done}, store.CacheSkip); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := s.GetTask(ctx, uid, task.ID)
	if got.Status != models.StatusCompleted || got.Title != "Buy milk" || got.Description != "2%" {
		t.Fatalf("partial update changed other fields: %+v", got)
	}

	// Same values again still succeeds.
	if err := s.UpdateTask(ctx, uid, task.ID, models.TaskUpdate{Status: &done}, store.CacheSkip); err != nil {
		t.Fatalf("idempotent update: %v", err)
	}

	title := "Buy oat milk"
	if err := s.UpdateTask(ctx, uid, task.ID, models.TaskUpdate{Title: &title}, store.CacheSkip); err != nil {
		t.Fatalf("update title: %v", err)
	}
	got, _ = s.GetTask(ctx, uid, task.ID)
	if got.Title != title || got.Status != models.StatusCompleted {
		t.Fatalf("title update: %+v", got)
	}

	if err := s.UpdateTask(ctx, uid, task.ID, models.TaskUpdate{}, store.CacheSkip); !errors.Is(err, store.ErrNoFields) {
		t.Fatalf("expected ErrNoFields, got %v", err)
	}
}

func TestListTasks_OrderedByID(t *testing.T) {
	s := testutil.OpenStore(t, nil)
	ctx := context.Background()
	uid, _ := s.CreateUser(ctx, "alice", "h")

	empty, err := s.ListTasks(ctx, uid, store.CacheSkip)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v err=%v", empty, err)
	}

	for _, title := range []string{"one", "two", "three"} {
		if _, err := s.CreateTask(ctx, uid, models.NewTask{Title: title}, store.CacheSkip); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}
	list, err := s.ListTasks(ctx, uid, store.CacheSkip)
	if err != nil || len(list) != 3 {
		t.Fatalf("list: %v %v", err, list)
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].ID >= list[i].ID {
			t.Fatalf("tasks not ordered by id: %+v", list)
		}
	}
}

func TestListTasks_CacheModes(t *testing.T) {
	cache := testutil.NewMemoryCache()
	s := testutil.OpenStore(t, cache)
	ctx := context.Background()
	uid, _ := s.CreateUser(ctx, "alice", "h")
	key := store.TaskListKey(uid)

	// Skip never touches the cache.
	if _, err := s.CreateTask(ctx, uid, models.NewTask{Title: "a"}, store.CacheSkip); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.ListTasks(ctx, uid, store.CacheSkip); err != nil {
		t.Fatalf("list: %v", err)
	}
	if cache.Gets != 0 || cache.Sets != 0 {
		t.Fatalf("skip touched cache: gets=%d sets=%d", cache.Gets, cache.Sets)
	}

	// Use fills on a miss, then serves the hit.
	first, _ := s.ListTasks(ctx, uid, store.CacheUse)
	second, _ := s.ListTasks(ctx, uid, store.CacheUse)
	if cache.Hits != 1 || len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected one hit after fill, hits=%d first=%v second=%v", cache.Hits, first, second)
	}

	// A refresh after a write leaves the cache warm with the new row.
	if _, err := s.CreateTask(ctx, uid, models.NewTask{Title: "b"}, store.CacheRefresh); err != nil {
		t.Fatalf("create: %v", err)
	}
	cached, ok := cache.Peek(key)
	if !ok || len(cached) != 2 {
		t.Fatalf("expected refreshed cache with 2 tasks, got %v ok=%v", cached, ok)
	}
	hits := cache.Hits
	warm, _ := s.ListTasks(ctx, uid, store.CacheUse)
	if cache.Hits != hits+1 || len(warm) != 2 {
		t.Fatalf("expected warm read from cache, got %v", warm)
	}

	done := models.StatusCompleted
	if err := s.UpdateTask(ctx, uid, warm[0].ID, models.TaskUpdate{Status: &done}, store.CacheRefresh); err != nil {
		t.Fatalf("update: %v", err)
	}
	cached, _ = cache.Peek(key)
	if cached[0].Status != models.StatusCompleted {
		t.Fatalf("cache not refreshed after update: %+v", cached)
	}

	if err := s.DeleteTask(ctx, uid, warm[0].ID, store.CacheRefresh); err != nil {
		t.Fatalf("delete: %v", err)
	}
	cached, _ = cache.Peek(key)
	if len(cached) != 1 {
		t.Fatalf("cache not refreshed after delete: %+v", cached)
	}
}

// nilCache reports a hit with a nil list, as a decoder of "null" would.
type nilCache struct{ store.NoCache }

func (nilCache) Get(context.Context, string) ([]models.Task, bool, error) { return nil, true, nil }

func TestListTasks_CachedEmptyListIsNotNil(t *testing.T) {
	s := testutil.OpenStore(t, nilCache{})
	ctx := context.Background()
	uid, _ := s.CreateUser(ctx, "alice", "h")

	got, err := s.ListTasks(ctx, uid, store.CacheUse)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected non-nil empty list, got %#v", got)
	}
}

func TestListTasks_EmptyListServedTwiceFromMemoryCache(t *testing.T) {
	cache := testutil.NewMemoryCache()
	s := testutil.OpenStore(t, cache)
	ctx := context.Background()
	uid, _ := s.CreateUser(ctx, "alice", "h")

	for i := 0; i < 2; i++ {
		got, err := s.ListTasks(ctx, uid, store.CacheUse)
		if err != nil {
			t.Fatalf("list %d: %v", i, err)
		}
		if got == nil || len(got) != 0 {
			t.Fatalf("list %d: expected non-nil empty list, got %#v", i, got)
		}
	}
	if cache.Hits != 1 {
		t.Fatalf("hits = %d, want 1", cache.Hits)
	}
}

var errCacheDown = errors.New("cache down")

// brokenCache fails every operation.
type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]models.Task, bool, error) {
	return nil, false, errCacheDown
}

func (brokenCache) Set(context.Context, string, []models.Task, time.Duration) error {
	return errCacheDown
}

func (brokenCache) Delete(context.Context, string) error { return errCacheDown }

func TestTasks_CacheFailuresAreSwallowed(t *testing.T) {
	s := testutil.OpenStore(t, brokenCache{})
	ctx := context.Background()
	uid, _ := s.CreateUser(ctx, "alice", "h")

	for _, mode := range []store.CacheMode{store.CacheRefresh, store.CacheUse} {
		t.Run(mode.String(), func(t *testing.T) {
			a, err := s.CreateTask(ctx, uid, models.NewTask{Title: "a"}, mode)
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			b, err := s.CreateTask(ctx, uid, models.NewTask{Title: "b"}, mode)
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			title := "a2"
			if err := s.UpdateTask(ctx, uid, a.ID, models.TaskUpdate{Title: &title}, mode); err != nil {
				t.Fatalf("update: %v", err)
			}
			if err := s.DeleteTask(ctx, uid, b.ID, mode); err != nil {
				t.Fatalf("delete: %v", err)
			}

			got, err := s.ListTasks(ctx, uid, store.CacheUse)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != 1 || got[0].ID != a.ID || got[0].Title != "a2" {
				t.Fatalf("expected rows from SQL, got %+v", got)
			}
			if err := s.DeleteTask(ctx, uid, a.ID, mode); err != nil {
				t.Fatalf("cleanup: %v", err)
			}
		})
	}

	if err := s.DeleteUser(ctx, uid); err != nil {
		t.Fatalf("delete user with broken cache: %v", err)
	}
}
