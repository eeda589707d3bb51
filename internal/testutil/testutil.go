package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ayush/todolist/backend/internal/models"
	"github.com/ayush/todolist/backend/internal/store"
)

// OpenStore opens a fresh in-memory SQLite store with the schema applied.
// The store is closed via t.Cleanup.
func OpenStore(t *testing.T, cache store.TaskCache) *store.SQLStore {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	s, err := store.Open(context.Background(), "sqlite3", dsn, cache)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate test store: %v", err)
	}
	return s
}

// MemoryCache is a map-backed store.TaskCache that counts operations.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string][]models.Task
	Gets    int
	Hits    int
	Sets    int
	Deletes int
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: map[string][]models.Task{}}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]models.Task, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Gets++
	tasks, ok := c.entries[key]
	if ok {
		c.Hits++
	}
	return append([]models.Task{}, tasks...), ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, tasks []models.Task, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Sets++
	c.entries[key] = append([]models.Task{}, tasks...)
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Deletes++
	delete(c.entries, key)
	return nil
}

// Peek returns the cached list for key without counting a read.
func (c *MemoryCache) Peek(key string) ([]models.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tasks, ok := c.entries[key]
	return tasks, ok
}
