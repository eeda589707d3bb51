package tasks

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ayush/todolist/backend/internal/auth"
	"github.com/ayush/todolist/backend/internal/httputil"
	"github.com/ayush/todolist/backend/internal/models"
	"github.com/ayush/todolist/backend/internal/store"
)

// MaxTitleLen bounds task titles to the column width.
const MaxTitleLen = 255

// TaskStore defines the interface for task persistence.
type TaskStore interface {
	CreateTask(ctx context.Context, userID int64, in models.NewTask, mode store.CacheMode) (*models.Task, error)
	ListTasks(ctx context.Context, userID int64, mode store.CacheMode) ([]models.Task, error)
	GetTask(ctx context.Context, userID, taskID int64) (*models.Task, error)
	UpdateTask(ctx context.Context, userID, taskID int64, upd models.TaskUpdate, mode store.CacheMode) error
	DeleteTask(ctx context.Context, userID, taskID int64, mode store.CacheMode) error
}

// Handler holds task HTTP handlers.
type Handler struct {
	tasks TaskStore
}

func NewHandler(tasks TaskStore) *Handler {
	return &Handler{tasks: tasks}
}

// Create adds a task for the current user.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r)

	var req models.CreateTaskRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateTitle(req.Title); err != nil {
		httputil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Status == "" {
		req.Status = models.StatusPending
	}
	if !req.Status.Valid() {
		httputil.Error(w, http.StatusBadRequest, "status must be Pending, In Progress or Completed")
		return
	}

	task, err := h.tasks.CreateTask(r.Context(), userID, models.NewTask{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	}, store.CacheRefresh)
	if err != nil {
		httputil.Internal(w, r, "create task", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, task)
}

// List returns all tasks of the current user.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.ListTasks(r.Context(), currentUser(r), store.CacheUse)
	if err != nil {
		httputil.Internal(w, r, "list tasks", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tasks)
}

// Get returns a single task owned by the current user.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	taskID, ok := taskParam(w, r)
	if !ok {
		return
	}
	task, err := h.tasks.GetTask(r.Context(), currentUser(r), taskID)
	if err != nil {
		httputil.Internal(w, r, "get task", err)
		return
	}
	if task == nil {
		httputil.Error(w, http.StatusNotFound, "task not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, task)
}

// Update changes only the supplied fields of a task.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	taskID, ok := taskParam(w, r)
	if !ok {
		return
	}

	var req models.UpdateTaskRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	upd := models.TaskUpdate{Title: req.Title, Description: req.Description, Status: req.Status}
	if upd.Empty() {
		httputil.Error(w, http.StatusBadRequest, "title, description or status should be provided")
		return
	}
	if upd.Title != nil {
		if err := validateTitle(*upd.Title); err != nil {
			httputil.Error(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if upd.Status != nil && !upd.Status.Valid() {
		httputil.Error(w, http.StatusBadRequest, "status must be Pending, In Progress or Completed")
		return
	}

	err := h.tasks.UpdateTask(r.Context(), currentUser(r), taskID, upd, store.CacheRefresh)
	if errors.Is(err, store.ErrNotFound) {
		httputil.Error(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		httputil.Internal(w, r, "update task", err)
		return
	}
	httputil.NoContent(w)
}

// Delete removes a task owned by the current user.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	taskID, ok := taskParam(w, r)
	if !ok {
		return
	}
	err := h.tasks.DeleteTask(r.Context(), currentUser(r), taskID, store.CacheRefresh)
	if errors.Is(err, store.ErrNotFound) {
		httputil.Error(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		httputil.Internal(w, r, "delete task", err)
		return
	}
	httputil.NoContent(w)
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return errors.New("title is required")
	}
	if len(title) > MaxTitleLen {
		return errors.New("title must be at most 255 characters")
	}
	return nil
}

func taskParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := httputil.IDParam(r, "taskId")
	if !ok {
		httputil.Error(w, http.StatusBadRequest, "invalid task id")
	}
	return id, ok
}

func currentUser(r *http.Request) int64 {
	id, _ := auth.FromContext(r.Context())
	return id.UserID
}
