// Package auth handles registration, login and browser sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"viajjo/internal/core"
	"viajjo/internal/storage"
	"viajjo/internal/tracker"
)

const (
	MinPasswordLength = 6
	// MaxPasswordLength is the most bcrypt hashes, in bytes.
	MaxPasswordLength = 72
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidInput       = errors.New("email and password are required")
	ErrWeakPassword       = fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	ErrLongPassword       = fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, MaxPasswordLength)
)

// UserStorage is the subset of the user repository auth depends on.
type UserStorage interface {
	Create(ctx context.Context, rec *tracker.UserRecord) error
	Get(ctx context.Context, email string) (*tracker.UserRecord, error)
}

// PasswordAuthenticator checks credentials against bcrypt hashes.
type PasswordAuthenticator struct {
	storage UserStorage
	cost    int
	now     func() time.Time
}

func NewPasswordAuthenticator(storage UserStorage) *PasswordAuthenticator {
	return &PasswordAuthenticator{
		storage: storage,
		cost:    bcrypt.DefaultCost,
		now:     time.Now,
	}
}

// ValidateCredential checks the password meets minimum requirements.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if strings.TrimSpace(credential) == "" {
		return ErrInvalidInput
	}
	if len(credential) < MinPasswordLength {
		return ErrWeakPassword
	}
	if len(credential) > MaxPasswordLength {
		return ErrLongPassword
	}
	return nil
}

// Register creates a record with an empty profile and empty lists.
func (a *PasswordAuthenticator) Register(ctx context.Context, email, credential string) (*tracker.UserRecord, error) {
	email = tracker.NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidInput
	}
	if err := a.ValidateCredential(credential); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(credential), a.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	rec := &tracker.UserRecord{
		Email:        email,
		PasswordHash: string(hashed),
		Profile:      core.Profile{},
		Trips:        []core.Trip{},
		Expenses:     []core.Expense{},
		CreatedAt:    a.now().UTC(),
	}
	if err := a.storage.Create(ctx, rec); err != nil {
		if errors.Is(err, tracker.ErrUserExists) {
			return nil, ErrEmailExists
		}
		// An unreadable record still occupies the email.
		if errors.Is(err, storage.ErrCorrupt) {
			return nil, fmt.Errorf("%w: %w", ErrEmailExists, err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return rec, nil
}

// Authenticate returns the record when the password matches. A missing
// user and a wrong password produce the same error.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, credential string) (*tracker.UserRecord, error) {
	rec, err := a.storage.Get(ctx, email)
	if errors.Is(err, tracker.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if errors.Is(err, storage.ErrCorrupt) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return rec, nil
}
