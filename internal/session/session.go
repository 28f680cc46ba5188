// Package session stores server-side login sessions.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// Session is the server-side record behind an auth cookie.
type Session struct {
	// Kind is the credential kind ("user" or "government").
	Kind string `json:"kind"`

	// SubjectID is the id of the user or government employee.
	SubjectID int64 `json:"subjectId"`

	// Role is the role held at login time.
	Role string `json:"role"`

	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Store persists sessions keyed by session id.
type Store interface {
	Save(ctx context.Context, id string, s Session, ttl time.Duration) error
	Load(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}
