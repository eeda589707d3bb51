package testutil

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ayush/todolist/backend/internal/auth"
	"github.com/ayush/todolist/backend/internal/models"
	"github.com/ayush/todolist/backend/internal/server"
	"github.com/ayush/todolist/backend/internal/store"
	"github.com/ayush/todolist/backend/internal/tasks"
)

// TestSecret signs tokens in test servers.
const TestSecret = "test-secret"

// Server is a running API over an in-memory store.
type Server struct {
	*httptest.Server
	Store    *store.SQLStore
	Cache    *MemoryCache
	Tokens   *auth.Issuer
	Activity *MemoryActivityLog
	Archive  *MemoryArchive
}

// NewServer starts the full router on httptest. It is closed via t.Cleanup.
func NewServer(t *testing.T) *Server {
	t.Helper()
	cache := NewMemoryCache()
	st := OpenStore(t, cache)
	tokens, err := auth.NewIssuer(TestSecret)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	activity := &MemoryActivityLog{}
	archive := &MemoryArchive{}

	h := server.NewRouter(server.Options{
		Tokens: tokens,
		Users:  auth.NewHandler(st, tokens, activity, archive),
		Tasks:  tasks.NewHandler(st),
		Quiet:  true,
	})
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	return &Server{Server: ts, Store: st, Cache: cache, Tokens: tokens, Activity: activity, Archive: archive}
}

// MemoryActivityLog keeps account events in a slice.
type MemoryActivityLog struct {
	mu     sync.Mutex
	Events []models.Activity
}

func (l *MemoryActivityLog) Record(_ context.Context, userID int64, kind string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Events = append(l.Events, models.Activity{UserID: userID, Kind: kind})
	return nil
}

func (l *MemoryActivityLog) ListActivity(_ context.Context, userID int64) ([]models.Activity, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []models.Activity{}
	for i := len(l.Events) - 1; i >= 0; i-- {
		if l.Events[i].UserID == userID {
			out = append(out, l.Events[i])
		}
	}
	return out, nil
}

// Kinds returns the recorded event kinds for userID, oldest first.
func (l *MemoryActivityLog) Kinds(userID int64) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var kinds []string
	for _, e := range l.Events {
		if e.UserID == userID {
			kinds = append(kinds, e.Kind)
		}
	}
	return kinds
}

// MemoryArchive keeps archived task lists by user.
type MemoryArchive struct {
	mu       sync.Mutex
	Archived map[int64][]models.Task
}

func (a *MemoryArchive) ArchiveTasks(_ context.Context, userID int64, list []models.Task) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Archived == nil {
		a.Archived = map[int64][]models.Task{}
	}
	a.Archived[userID] = append([]models.Task(nil), list...)
	return store.ArchiveKey(userID), nil
}

// Tasks returns what was archived for userID.
func (a *MemoryArchive) Tasks(userID int64) []models.Task {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Archived[userID]
}
