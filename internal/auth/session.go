package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"viajjo/internal/storage"
	"viajjo/internal/tracker"
)

const sessionKeyPrefix = "viajjo:session:"

var ErrNoSession = errors.New("no active session")

// Session is the server-side record behind a cookie.
type Session struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// Service is the login/session surface used by the HTTP layer.
type Service struct {
	passwords *PasswordAuthenticator
	tokens    *JWTManager
	store     storage.Store
}

func NewService(users UserStorage, store storage.Store, tokens *JWTManager) *Service {
	return &Service{
		passwords: NewPasswordAuthenticator(users),
		tokens:    tokens,
		store:     store,
	}
}

// WithBcryptCost overrides the hashing cost; tests use bcrypt.MinCost.
func (s *Service) WithBcryptCost(cost int) *Service {
	s.passwords.cost = cost
	return s
}

// Register creates the user and signs them in.
func (s *Service) Register(ctx context.Context, email, password string) (string, *tracker.UserRecord, error) {
	rec, err := s.passwords.Register(ctx, email, password)
	if err != nil {
		return "", nil, err
	}
	token, err := s.startSession(ctx, rec.Email)
	if err != nil {
		return "", nil, err
	}
	return token, rec, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (string, *tracker.UserRecord, error) {
	rec, err := s.passwords.Authenticate(ctx, email, password)
	if err != nil {
		return "", nil, err
	}
	token, err := s.startSession(ctx, rec.Email)
	if err != nil {
		return "", nil, err
	}
	return token, rec, nil
}

// Logout removes the session behind token. It never touches user data and
// succeeds for unknown or already-ended sessions.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil
	}
	if err := s.store.Delete(ctx, sessionKey(claims.SessionID)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Resolve returns the session for a cookie value. Unknown, expired, ended
// or unreadable sessions yield ErrNoSession.
func (s *Service) Resolve(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrNoSession
	}
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return Session{}, ErrNoSession
	}

	var sess Session
	err = s.store.Load(ctx, sessionKey(claims.SessionID), &sess)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return Session{}, ErrNoSession
	case errors.Is(err, storage.ErrCorrupt):
		slog.WarnContext(ctx, "Corrupt session record, treating as logged out",
			"session_id", claims.SessionID, "error", err)
		return Session{}, ErrNoSession
	case err != nil:
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	if tracker.NormalizeEmail(sess.Email) != tracker.NormalizeEmail(claims.Email) {
		return Session{}, ErrNoSession
	}
	return sess, nil
}

// TokenTTL is the lifetime of issued cookies.
func (s *Service) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

func (s *Service) startSession(ctx context.Context, email string) (string, error) {
	sess := Session{
		ID:        uuid.NewString(),
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Save(ctx, sessionKey(sess.ID), sess); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	token, err := s.tokens.Generate(sess)
	if err != nil {
		return "", err
	}
	return token, nil
}
