// Package session keeps the server-side record behind the opaque session
// cookie: a snapshot of the signed-in user and the provider tokens.
package session

import (
	"context"
	"errors"
	"time"

	"storefront/internal/identity"
)

var ErrNotFound = errors.New("session not found")

// User is the profile snapshot held for the lifetime of a session.
type User struct {
	ID           string  `bson:"id" json:"id"`
	Email        string  `bson:"email" json:"email"`
	Name         string  `bson:"name" json:"name"`
	Phone        *string `bson:"phone" json:"phone"`
	Address      *string `bson:"address" json:"address"`
	IsAdmin      bool    `bson:"isAdmin" json:"is_admin"`
	ProfileImage *string `bson:"profileImage" json:"profile_image"`
	DesignStyle  *string `bson:"designStyle" json:"design_style"`
}

type Session struct {
	ID        string           `bson:"_id"`
	User      *User            `bson:"user,omitempty"`
	Tokens    *identity.Tokens `bson:"tokens,omitempty"`
	CreatedAt time.Time        `bson:"createdAt"`
	UpdatedAt time.Time        `bson:"updatedAt"`
	ExpiresAt time.Time        `bson:"expiresAt"`
}

// Authenticated reports whether the session carries provider tokens.
func (s *Session) Authenticated() bool {
	return s != nil && s.Tokens != nil && !s.Tokens.Empty()
}

// Clone returns a deep copy so callers can mutate without racing the store.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	if s.Tokens != nil {
		t := *s.Tokens
		out.Tokens = &t
	}
	return &out
}

// Store persists sessions by id. Save must not return before the write is
// durable: the next request may arrive as soon as the redirect is sent.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Destroy(ctx context.Context, id string) error
}
