// Package tracker owns a user's persisted state: the user record stored in
// the key-value store and the Workspace used to mutate it.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"viajjo/internal/core"
	"viajjo/internal/storage"
)

const userKeyPrefix = "viajjo:user:"

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// UserRecord is the single document stored per user.
type UserRecord struct {
	Email        string         `json:"email"`
	PasswordHash string         `json:"password_hash"`
	Profile      core.Profile   `json:"profile"`
	Trips        []core.Trip    `json:"trips"`
	Expenses     []core.Expense `json:"expenses"`
	CreatedAt    time.Time      `json:"created_at"`
	// Revision counts persisted mutations; caches key derived data on it.
	Revision     uint64         `json:"revision"`
}

// NormalizeEmail is the canonical form used in keys and comparisons.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func UserKey(email string) string {
	return userKeyPrefix + NormalizeEmail(email)
}

// Clone returns a deep copy.
func (r UserRecord) Clone() UserRecord {
	r.Profile = r.Profile.Clone()
	r.Trips = append(make([]core.Trip, 0, len(r.Trips)), r.Trips...)
	r.Expenses = append(make([]core.Expense, 0, len(r.Expenses)), r.Expenses...)
	return r
}

// Summary aggregates the record for display.
func (r UserRecord) Summary() core.Summary {
	return core.Summarize(r.Expenses, r.Trips)
}

// Repository loads and stores user records.
type Repository struct {
	store storage.Store
	// serializes Create's existence check within this process
	createMu sync.Mutex
}

func NewRepository(store storage.Store) *Repository {
	return &Repository{store: store}
}

// Get loads the record for email. Lists missing from the stored document
// come back empty, never nil.
func (r *Repository) Get(ctx context.Context, email string) (*UserRecord, error) {
	var rec UserRecord
	err := r.store.Load(ctx, UserKey(email), &rec)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if rec.Email == "" {
		rec.Email = NormalizeEmail(email)
	}
	if rec.Trips == nil {
		rec.Trips = []core.Trip{}
	}
	if rec.Expenses == nil {
		rec.Expenses = []core.Expense{}
	}
	return &rec, nil
}

// Create stores a new record, failing with ErrUserExists if one is present.
func (r *Repository) Create(ctx context.Context, rec *UserRecord) error {
	r.createMu.Lock()
	defer r.createMu.Unlock()

	_, err := r.Get(ctx, rec.Email)
	switch {
	case err == nil:
		return ErrUserExists
	case !errors.Is(err, ErrUserNotFound):
		return err
	}
	return r.Put(ctx, rec)
}

// Put replaces the whole stored record.
func (r *Repository) Put(ctx context.Context, rec *UserRecord) error {
	rec.Email = NormalizeEmail(rec.Email)
	if err := r.store.Save(ctx, UserKey(rec.Email), rec); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}
