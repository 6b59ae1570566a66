package models

import (
	"strings"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the application row mirrored from the identity provider. The ID is
// the provider-issued subject; passwords never live here.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Name         *string   `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash *string   `bson:"passwordHash" json:"-"`
	Phone        *string   `bson:"phone" json:"phone"`
	Address      *string   `bson:"address" json:"address"`
	Role         string    `bson:"role" json:"role"`
	CreatedAt    time.Time `bson:"createdAt" json:"created_at"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updated_at"`
}

// UserUpdate carries the admin-editable fields. Nil pointers leave the stored
// value untouched.
type UserUpdate struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *string
	Role    *string
}

// NormalizePhone keeps only the digits of raw. An empty input yields (nil, true);
// a non-empty input without any digit yields (nil, false).
func NormalizePhone(raw string) (*string, bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, true
	}
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return nil, false
	}
	digits := b.String()
	return &digits, true
}

// IsAdminEmail reports whether email is the configured admin address.
// The comparison is exact.
func IsAdminEmail(email, adminEmail string) bool {
	return adminEmail != "" && email == adminEmail
}

func StringPtr(value string) *string {
	return &value
}

// OptionalString returns nil for blank values.
func OptionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
