package models

import "time"

// User represents a row in the users table.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // never serialize
}

// UserUpdate carries the columns to change; nil fields are left alone.
type UserUpdate struct {
	Username     *string
	PasswordHash *string
}

// Empty reports whether no column was supplied.
func (u UserUpdate) Empty() bool {
	return u.Username == nil && u.PasswordHash == nil
}

// CredentialsRequest is the JSON body for POST /users/register and /users/login.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateUserRequest is the JSON body for PUT /users/{id}.
type UpdateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is returned by register and login.
type TokenResponse struct {
	Token  string `json:"token"`
	UserID int64  `json:"user_id"`
}

// UsernameResponse is returned by GET /users/{id}/username.
type UsernameResponse struct {
	Username string `json:"username"`
}

// Activity kinds recorded for an account.
const (
	ActivityRegistered = "user.registered"
	ActivityLogin      = "user.login"
	ActivityUpdated    = "user.updated"
	ActivityDeleted    = "user.deleted"
)

// Activity is a single account event stored in MongoDB.
type Activity struct {
	UserID int64     `json:"user_id" bson:"user_id"`
	Kind   string    `json:"kind"    bson:"kind"`
	At     time.Time `json:"at"      bson:"at"`
}
