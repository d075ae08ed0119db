// Package store implements the persistence layer on top of the key-value
// backends. Every record is a JSON blob under a well-known key.
package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/velaphi/legal-assist/internal/domain"
	"github.com/velaphi/legal-assist/internal/kvstore"
	"github.com/velaphi/legal-assist/internal/security"
)

const userKeyPrefix = "user:"

// userRecord is the stored form of a user. Provider API keys are encrypted
// with AES-GCM before they reach the backend; everything else is plaintext.
type userRecord struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	PasswordHash  string `json:"password_hash"`
	EncryptedKeys string `json:"encrypted_keys,omitempty"`
	Theme         string `json:"theme,omitempty"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

// CredentialStore persists user accounts and their provider credentials.
// Unlike the knowledge and history stores it does not degrade on backend
// failure; authentication cannot proceed without it.
type CredentialStore struct {
	kv  kvstore.Store
	enc *security.Encryptor
}

func NewCredentialStore(kv kvstore.Store, enc *security.Encryptor) *CredentialStore {
	return &CredentialStore{kv: kv, enc: enc}
}

// Get returns the user keyed by email, or nil if absent.
func (s *CredentialStore) Get(ctx context.Context, email string) (*domain.User, error) {
	key := userKeyPrefix + email

	data, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, nil
		}
		return nil, &domain.PersistenceError{Op: "get", Key: key, Err: err}
	}

	var rec userRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, &domain.PersistenceError{Op: "get", Key: key, Err: err}
	}

	return s.toUser(&rec)
}

// Upsert creates or replaces the user record.
func (s *CredentialStore) Upsert(ctx context.Context, user *domain.User) error {
	key := userKeyPrefix + user.Email

	rec, err := s.toRecord(user)
	if err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal user record: %w", err)
	}

	if err := s.kv.Set(ctx, key, data); err != nil {
		return &domain.PersistenceError{Op: "set", Key: key, Err: err}
	}
	return nil
}

func (s *CredentialStore) toRecord(user *domain.User) (*userRecord, error) {
	rec := &userRecord{
		ID:           user.ID.String(),
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Theme:        user.Theme,
		CreatedAt:    user.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt:    user.UpdatedAt.UTC().Format(timeLayout),
	}

	if len(user.APIKeys) > 0 {
		ciphertext, err := s.enc.EncryptJSON(user.APIKeys)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt api keys: %w", err)
		}
		rec.EncryptedKeys = base64.StdEncoding.EncodeToString(ciphertext)
	}

	return rec, nil
}

func (s *CredentialStore) toUser(rec *userRecord) (*domain.User, error) {
	user := &domain.User{
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
		Theme:        rec.Theme,
	}

	if err := parseUUID(rec.ID, &user.ID); err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", rec.ID, err)
	}
	user.CreatedAt = parseTime(rec.CreatedAt)
	user.UpdatedAt = parseTime(rec.UpdatedAt)

	if rec.EncryptedKeys != "" {
		ciphertext, err := base64.StdEncoding.DecodeString(rec.EncryptedKeys)
		if err != nil {
			return nil, fmt.Errorf("failed to decode api keys: %w", err)
		}
		keys := make(map[string]string)
		if err := s.enc.DecryptJSON(ciphertext, &keys); err != nil {
			return nil, fmt.Errorf("failed to decrypt api keys: %w", err)
		}
		user.APIKeys = keys
	}

	return user, nil
}
