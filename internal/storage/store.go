// Package storage is the key-value persistence layer. Every value is a whole
// document stored under a string key and replaced in a single write.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Load when the key has no value.
	ErrNotFound = errors.New("key not found")
	// ErrCorrupt is returned by Load when the stored bytes cannot be decoded.
	ErrCorrupt = errors.New("stored value is corrupt")
)

// Store persists encoded documents by key.
type Store interface {
	// Save encodes value and replaces whatever is stored under key.
	Save(ctx context.Context, key string, value any) error
	// Load decodes the value under key into dst.
	Load(ctx context.Context, key string, dst any) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}
