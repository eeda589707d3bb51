package auth

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/ayush/todolist/backend/internal/httputil"
	"github.com/ayush/todolist/backend/internal/models"
	"github.com/ayush/todolist/backend/internal/store"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (int64, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, upd models.UserUpdate) error
	DeleteUser(ctx context.Context, id int64) error
	ListTasks(ctx context.Context, userID int64, mode store.CacheMode) ([]models.Task, error)
}

// ActivityLog records and lists account events.
type ActivityLog interface {
	Record(ctx context.Context, userID int64, kind string) error
	ListActivity(ctx context.Context, userID int64) ([]models.Activity, error)
}

// Archive keeps a copy of an account's tasks before it is deleted.
type Archive interface {
	ArchiveTasks(ctx context.Context, userID int64, tasks []models.Task) (string, error)
}

// Handler holds user-related HTTP handlers.
type Handler struct {
	users    UserStore
	tokens   *Issuer
	activity ActivityLog
	archive  Archive
}

// NewHandler wires the user handlers. Nil activity or archive disables them.
func NewHandler(users UserStore, tokens *Issuer, activity ActivityLog, archive Archive) *Handler {
	if activity == nil {
		activity = store.NopActivityLog{}
	}
	if archive == nil {
		archive = store.NopArchive{}
	}
	return &Handler{users: users, tokens: tokens, activity: activity, archive: archive}
}

// Register creates a new user and returns a token for it.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.CredentialsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		httputil.Error(w, http.StatusBadRequest, "username and password are required")
		return
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		httputil.Internal(w, r, "hash password", err)
		return
	}

	id, err := h.users.CreateUser(r.Context(), req.Username, hashed)
	if errors.Is(err, store.ErrConflict) {
		httputil.Error(w, http.StatusConflict, "user already exists")
		return
	}
	if err != nil {
		httputil.Internal(w, r, "create user", err)
		return
	}

	h.record(r.Context(), id, models.ActivityRegistered)
	h.writeToken(w, r, http.StatusCreated, id)
}

// Login checks credentials and returns a token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.CredentialsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		httputil.Error(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.users.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		httputil.Internal(w, r, "get user", err)
		return
	}
	if user == nil || !VerifyPassword(req.Password, user.PasswordHash) {
		httputil.Error(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	h.record(r.Context(), user.ID, models.ActivityLogin)
	h.writeToken(w, r, http.StatusOK, user.ID)
}

// Get returns the user's profile.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := h.lookup(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// Username returns only the user's name.
func (h *Handler) Username(w http.ResponseWriter, r *http.Request) {
	user, ok := h.lookup(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.UsernameResponse{Username: user.Username})
}

// Update changes the username and/or password.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := currentUser(r)

	var req models.UpdateUserRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" && req.Password == "" {
		httputil.Error(w, http.StatusBadRequest, "username or password should be provided")
		return
	}

	var upd models.UserUpdate
	if req.Username != "" {
		upd.Username = &req.Username
	}
	if req.Password != "" {
		hashed, err := HashPassword(req.Password)
		if err != nil {
			httputil.Internal(w, r, "hash password", err)
			return
		}
		upd.PasswordHash = &hashed
	}

	err := h.users.UpdateUser(r.Context(), id, upd)
	switch {
	case errors.Is(err, store.ErrNotFound):
		httputil.Error(w, http.StatusNotFound, "user not found")
		return
	case errors.Is(err, store.ErrConflict):
		httputil.Error(w, http.StatusConflict, "user already exists")
		return
	case err != nil:
		httputil.Internal(w, r, "update user", err)
		return
	}

	h.record(r.Context(), id, models.ActivityUpdated)
	httputil.NoContent(w)
}

// Delete archives the user's tasks and removes the account.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := currentUser(r)

	tasks, err := h.users.ListTasks(r.Context(), id, store.CacheSkip)
	if err != nil {
		httputil.Internal(w, r, "list tasks", err)
		return
	}
	if len(tasks) > 0 {
		if key, err := h.archive.ArchiveTasks(r.Context(), id, tasks); err != nil {
			log.Printf("archive tasks for user %d (non-fatal): %v", id, err)
		} else if key != "" {
			log.Printf("archived %d tasks for user %d at %s", len(tasks), id, key)
		}
	}

	err = h.users.DeleteUser(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		httputil.Error(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		httputil.Internal(w, r, "delete user", err)
		return
	}

	h.record(r.Context(), id, models.ActivityDeleted)
	httputil.NoContent(w)
}

// Activity lists recent account events, newest first.
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	events, err := h.activity.ListActivity(r.Context(), currentUser(r))
	if err != nil {
		httputil.Internal(w, r, "list activity", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, events)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, err := h.users.GetUserByID(r.Context(), currentUser(r))
	if err != nil {
		httputil.Internal(w, r, "get user", err)
		return nil, false
	}
	if user == nil {
		httputil.Error(w, http.StatusNotFound, "user not found")
		return nil, false
	}
	return user, true
}

func (h *Handler) writeToken(w http.ResponseWriter, r *http.Request, status int, userID int64) {
	token, err := h.tokens.Issue(userID)
	if err != nil {
		httputil.Internal(w, r, "issue token", err)
		return
	}
	httputil.WriteJSON(w, status, models.TokenResponse{Token: token, UserID: userID})
}

func (h *Handler) record(ctx context.Context, userID int64, kind string) {
	if err := h.activity.Record(ctx, userID, kind); err != nil {
		log.Printf("record %s for user %d (non-fatal): %v", kind, userID, err)
	}
}

// currentUser returns the caller's user id, or 0 without an identity. Routes
// using it sit behind RequireAuth and RequireOwner.
func currentUser(r *http.Request) int64 {
	id, _ := FromContext(r.Context())
	return id.UserID
}
