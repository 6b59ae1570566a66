// Package identity talks to the hosted auth service that owns credentials,
// OAuth brokering and token issuance. Calls are never retried; any provider
// error is terminal for the request that triggered it.
package identity

import (
	"context"
	"strconv"
	"strings"
	"time"
)

//go:generate mockgen -destination=mock_identity/mock_identity.go -package=mock_identity storefront/internal/identity Provider

// Provider is the set of identity operations the storefront relies on.
type Provider interface {
	// SignUp creates an unverified account; the provider emails the
	// verification link.
	SignUp(ctx context.Context, email, password string, profile Profile) error
	// SignInWithPassword never distinguishes an unknown email from a wrong
	// password: both yield ErrInvalidCredentials.
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	BeginOAuth(ctx context.Context, provider, redirectTo string) (*OAuthRedirect, error)
	ExchangeCodeForSession(ctx context.Context, code, codeVerifier string) (*Session, error)
	GetUser(ctx context.Context, accessToken string) (*User, error)
	RefreshSession(ctx context.Context, refreshToken string) (*Session, error)
	// SetSession validates the pair, refreshing when the access token has
	// expired or was rejected.
	SetSession(ctx context.Context, tokens Tokens) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
	UpdateUserMetadata(ctx context.Context, userID string, metadata map[string]any) error
}

type Tokens struct {
	AccessToken  string `json:"access_token" bson:"accessToken"`
	RefreshToken string `json:"refresh_token" bson:"refreshToken"`
}

func (t Tokens) Empty() bool {
	return t.AccessToken == "" && t.RefreshToken == ""
}

// Session is a provider grant: the token pair plus the user it belongs to.
type Session struct {
	Tokens
	User      *User
	ExpiresAt time.Time
}

// Profile is the metadata attached to an account at sign up.
type Profile struct {
	Name    string  `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address,omitempty"`
}

type User struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at,omitempty"`
	UserMetadata     map[string]any `json:"user_metadata"`
}

// DisplayName prefers full_name, then name, then "User".
func (u *User) DisplayName() string {
	if name := u.metadataString("full_name"); name != "" {
		return name
	}
	if name := u.metadataString("name"); name != "" {
		return name
	}
	return "User"
}

// Name is like DisplayName but returns nil instead of a placeholder.
func (u *User) Name() *string {
	if name := u.metadataString("full_name"); name != "" {
		return &name
	}
	if name := u.metadataString("name"); name != "" {
		return &name
	}
	return nil
}

// RawPhone returns the phone metadata as text, whatever type it was stored as.
func (u *User) RawPhone() string {
	return u.metadataString("phone")
}

func (u *User) Address() *string {
	if address := u.metadataString("address"); address != "" {
		return &address
	}
	return nil
}

func (u *User) metadataString(key string) string {
	if u == nil || u.UserMetadata == nil {
		return ""
	}
	switch v := u.UserMetadata[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// OAuthRedirect is where to send the browser, plus the PKCE verifier the
// caller must hold until the callback.
type OAuthRedirect struct {
	URL          string
	CodeVerifier string
}
