package identity

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSignUpFailed       = errors.New("sign up failed")
	ErrOAuthFailed        = errors.New("oauth_failed")
	ErrNoUser             = errors.New("no user for token")
	ErrSessionExpired     = errors.New("session expired")
	ErrProvider           = errors.New("identity provider error")
)

// ProviderError records what the provider said about a failed call.
type ProviderError struct {
	Op      string
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("identity %s: status %d: %s: %s", e.Op, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("identity %s: status %d: %s", e.Op, e.Status, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
