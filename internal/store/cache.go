package store

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/ayush/todolist/backend/internal/models"
)

// CacheTTL is how long a cached task list lives without a refresh.
const CacheTTL = 2629746 * time.Second

// CacheMode tells a data access call what to do with the per-user task cache.
type CacheMode int

const (
	// CacheSkip bypasses the cache entirely.
	CacheSkip CacheMode = iota
	// CacheUse serves a cached list when present and fills it on a miss.
	CacheUse
	// CacheRefresh re-queries the database and overwrites the cached list.
	CacheRefresh
)

func (m CacheMode) String() string {
	switch m {
	case CacheSkip:
		return "skip"
	case CacheUse:
		return "use"
	case CacheRefresh:
		return "refresh"
	}
	return "unknown"
}

// TaskCache stores task lists keyed by user.
type TaskCache interface {
	Get(ctx context.Context, key string) ([]models.Task, bool, error)
	Set(ctx context.Context, key string, tasks []models.Task, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// NoCache is the TaskCache used when no cache is configured.
type NoCache struct{}

func (NoCache) Get(context.Context, string) ([]models.Task, bool, error)          { return nil, false, nil }
func (NoCache) Set(context.Context, string, []models.Task, time.Duration) error { return nil }
func (NoCache) Delete(context.Context, string) error                              { return nil }

// TaskListKey is the cache key for a user's task list.
func TaskListKey(userID int64) string {
	return "getTasks" + strconv.FormatInt(userID, 10)
}

// refreshCache re-reads the user's tasks into the cache. Failures are logged
// and swallowed; the write that triggered the refresh stays committed.
func (s *SQLStore) refreshCache(ctx context.Context, userID int64) {
	tasks, err := s.queryTasks(ctx, userID)
	if err != nil {
		log.Printf("cache refresh for user %d: %v", userID, err)
		return
	}
	if err := s.cache.Set(ctx, TaskListKey(userID), tasks, CacheTTL); err != nil {
		log.Printf("cache refresh for user %d: %v", userID, err)
	}
}

func (s *SQLStore) dropCache(ctx context.Context, userID int64) {
	if err := s.cache.Delete(ctx, TaskListKey(userID)); err != nil {
		log.Printf("cache delete for user %d: %v", userID, err)
	}
}

// afterWrite applies mode once a task mutation has committed.
func (s *SQLStore) afterWrite(ctx context.Context, userID int64, mode CacheMode) {
	switch mode {
	case CacheRefresh:
		s.refreshCache(ctx, userID)
	case CacheUse:
		s.dropCache(ctx, userID)
	}
}
