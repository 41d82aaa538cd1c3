package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Store.Load when no record exists for the key.
var ErrNotFound = errors.New("session record not found")

// Store persists the session record as opaque bytes under a fixed key.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	// Delete removes the record. Deleting an absent record is not an error.
	Delete(ctx context.Context, key string) error
}

// Record is the durable form of the session.
type Record struct {
	AccessToken string     `json:"accessToken"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	SavedAt     time.Time  `json:"savedAt"`
}
