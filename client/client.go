// Package client is a typed Go client for the todolist API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/ayush/todolist/backend/internal/models"
)

// ErrNotAuthenticated is returned by calls that need a token when none is stored.
var ErrNotAuthenticated = errors.New("client: not authenticated")

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("todolist api: %d: %s", e.StatusCode, e.Message)
}

// Client calls the todolist API over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTokenStore(s TokenStore) Option {
	return func(c *Client) { c.tokens = s }
}

// New returns a client for baseURL with an in-memory token store.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     &MemoryTokenStore{},
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Register creates an account and stores the returned token.
func (c *Client) Register(ctx context.Context, username, password string) (int64, error) {
	return c.authenticate(ctx, "/users/register", username, password)
}

// Login stores a fresh token for the account.
func (c *Client) Login(ctx context.Context, username, password string) (int64, error) {
	return c.authenticate(ctx, "/users/login", username, password)
}

func (c *Client) authenticate(ctx context.Context, path, username, password string) (int64, error) {
	var tr models.TokenResponse
	err := c.do(ctx, http.MethodPost, path, false, models.CredentialsRequest{Username: username, Password: password}, &tr)
	if err != nil {
		return 0, err
	}
	if err := c.tokens.Save(tr.Token); err != nil {
		return 0, fmt.Errorf("save token: %w", err)
	}
	return tr.UserID, nil
}

// Logout forgets the stored token. Tokens are not revoked server-side.
func (c *Client) Logout() error {
	return c.tokens.Clear()
}

// IsAuthenticated reports whether a stored token exists and has not expired.
// The signature is not checked; the server remains the authority.
func (c *Client) IsAuthenticated() bool {
	claims, ok := c.claims()
	if !ok || claims.ExpiresAt == nil {
		return false
	}
	return c.now().Before(claims.ExpiresAt.Time)
}

// UserID decodes the user id from the stored token.
func (c *Client) UserID() (int64, bool) {
	claims, ok := c.claims()
	if !ok || claims.UserID <= 0 {
		return 0, false
	}
	return claims.UserID, true
}

type tokenClaims struct {
	UserID int64 `json:"userId"`
	jwt.RegisteredClaims
}

func (c *Client) claims() (*tokenClaims, bool) {
	token, err := c.tokens.Load()
	if err != nil || token == "" {
		return nil, false
	}
	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, false
	}
	return &claims, true
}

// GetUser returns the current user's profile.
func (c *Client) GetUser(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.userCall(ctx, http.MethodGet, "", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUsername returns the current user's name.
func (c *Client) GetUsername(ctx context.Context) (string, error) {
	var resp models.UsernameResponse
	if err := c.userCall(ctx, http.MethodGet, "/username", nil, &resp); err != nil {
		return "", err
	}
	return resp.Username, nil
}

// UpdateUser changes the username and/or password. Empty values are left alone.
func (c *Client) UpdateUser(ctx context.Context, username, password string) error {
	return c.userCall(ctx, http.MethodPut, "", models.UpdateUserRequest{Username: username, Password: password}, nil)
}

// DeleteUser removes the account and forgets the token.
func (c *Client) DeleteUser(ctx context.Context) error {
	if err := c.userCall(ctx, http.MethodDelete, "", nil, nil); err != nil {
		return err
	}
	return c.tokens.Clear()
}

// Activity lists recent account events, newest first.
func (c *Client) Activity(ctx context.Context) ([]models.Activity, error) {
	var out []models.Activity
	if err := c.userCall(ctx, http.MethodGet, "/activity", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTask adds a task. An empty status means Pending.
func (c *Client) CreateTask(ctx context.Context, req models.CreateTaskRequest) (*models.Task, error) {
	var t models.Task
	if err := c.userCall(ctx, http.MethodPost, "/tasks", req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTasks returns every task of the current user.
func (c *Client) ListTasks(ctx context.Context) ([]models.Task, error) {
	out := []models.Task{}
	if err := c.userCall(ctx, http.MethodGet, "/tasks", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetTask(ctx context.Context, taskID int64) (*models.Task, error) {
	var t models.Task
	if err := c.userCall(ctx, http.MethodGet, fmt.Sprintf("/tasks/%d", taskID), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTask changes the non-nil fields of req.
func (c *Client) UpdateTask(ctx context.Context, taskID int64, req models.UpdateTaskRequest) error {
	return c.userCall(ctx, http.MethodPut, fmt.Sprintf("/tasks/%d", taskID), req, nil)
}

func (c *Client) DeleteTask(ctx context.Context, taskID int64) error {
	return c.userCall(ctx, http.MethodDelete, fmt.Sprintf("/tasks/%d", taskID), nil, nil)
}

// userCall sends an authenticated request under /users/{id}.
func (c *Client) userCall(ctx context.Context, method, suffix string, in, out interface{}) error {
	id, ok := c.UserID()
	if !ok {
		return ErrNotAuthenticated
	}
	return c.do(ctx, method, fmt.Sprintf("/users/%d%s", id, suffix), true, in, out)
}

func (c *Client) do(ctx context.Context, method, path string, authed bool, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s %s: encode: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		token, err := c.tokens.Load()
		if err != nil {
			return fmt.Errorf("load token: %w", err)
		}
		if token == "" {
			return ErrNotAuthenticated
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if err := checkResp(resp); err != nil {
		return err
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return nil
}

// checkResp turns a non-2xx response into an *APIError carrying the
// server's {"error": ...} message, or the raw body if it has none.
func checkResp(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(resp.Body)
	var body struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
