package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User represents a registered account. Email is the identity key. APIKeys
// maps a completion provider name to that user's credential and is encrypted
// before it reaches the backing store.
type User struct {
	ID           uuid.UUID         `json:"id"`
	Email        string            `json:"email"`
	PasswordHash string            `json:"-"`
	APIKeys      map[string]string `json:"api_keys,omitempty"`
	Theme        string            `json:"theme,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// UserCreate represents user registration data
type UserCreate struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// UserLogin represents login credentials
type UserLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SettingsUpdate carries a partial settings change. Providers mapped to an
// empty string are removed.
type SettingsUpdate struct {
	APIKeys map[string]string `json:"api_keys,omitempty"`
	Theme   string            `json:"theme,omitempty" validate:"omitempty,oneof=dark light"`
}

// TokenPair represents a JWT token pair
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// UserRepository defines the interface for credential storage.
type UserRepository interface {
	// Get returns the user keyed by email, or nil if absent.
	Get(ctx context.Context, email string) (*User, error)

	// Upsert creates or replaces the user record (last writer wins).
	Upsert(ctx context.Context, user *User) error
}
