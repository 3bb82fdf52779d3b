package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"viajjo/internal/storage"
	"viajjo/internal/tracker"
)

const secret = "test-secret-0123456789"

func newTestService(t *testing.T) (*Service, *storage.MemoryStore, *tracker.Repository) {
	t.Helper()
	store := storage.NewMemoryStore(storage.JSONCodec{})
	repo := tracker.NewRepository(store)
	svc := NewService(repo, store, NewJWTManager(secret, time.Hour)).WithBcryptCost(bcrypt.MinCost)
	return svc, store, repo
}

func TestRegister(t *testing.T) {
	svc, store, repo := newTestService(t)
	ctx := context.Background()

	token, rec, err := svc.Register(ctx, " Ana@Example.com", "segredo")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "ana@example.com", rec.Email)
	assert.Empty(t, rec.Trips)
	assert.Empty(t, rec.Expenses)
	assert.Equal(t, "", rec.Profile.Name)

	stored, err := repo.Get(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "segredo", stored.PasswordHash, "password is never stored in clear")
	raw, _ := store.Raw(tracker.UserKey("ana@example.com"))
	assert.NotContains(t, string(raw), "segredo")

	sess, err := svc.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", sess.Email)
}

func TestRegisterErrors(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "ana@example.com", "segredo")
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"duplicate email", "ANA@example.com", "outra-senha", ErrEmailExists},
		{"empty email", "", "segredo", ErrInvalidInput},
		{"empty password", "bia@example.com", "", ErrInvalidInput},
		{"short password", "bia@example.com", "123", ErrWeakPassword},
		{"password over bcrypt limit", "bia@example.com", strings.Repeat("x", 80), ErrLongPassword},
		{"password over bcrypt limit is invalid input", "bia@example.com", strings.Repeat("x", 73), ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Register(ctx, tt.email, tt.password)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRegisterAcceptsPasswordAtBcryptLimit(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	pw := strings.Repeat("x", MaxPasswordLength)
	_, _, err := svc.Register(ctx, "ana@example.com", pw)
	require.NoError(t, err)
	_, _, err = svc.Login(ctx, "ana@example.com", pw)
	assert.NoError(t, err)
}

func TestRegisterLogoutLoginRestoresEmptyLists(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	token, _, err := svc.Register(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, token))

	_, _, err = svc.Login(ctx, "a@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, rec, err := svc.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	assert.NotNil(t, rec.Trips)
	assert.Empty(t, rec.Trips)
	assert.NotNil(t, rec.Expenses)
	assert.Empty(t, rec.Expenses)
}

func TestCorruptUserRecord(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	_, _, err := svc.Register(ctx, "ana@example.com", "segredo")
	require.NoError(t, err)
	store.PutRaw(tracker.UserKey("ana@example.com"), []byte("{not json"))

	_, _, err = svc.Login(ctx, "ana@example.com", "segredo")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, err, storage.ErrCorrupt)

	_, _, err = svc.Register(ctx, "ana@example.com", "segredo")
	assert.ErrorIs(t, err, ErrEmailExists)
	raw, _ := store.Raw(tracker.UserKey("ana@example.com"))
	assert.Equal(t, "{not json", string(raw), "the unreadable record is left in place")
}

func TestRegisterDuplicateKeepsExistingData(t *testing.T) {
	svc, _, repo := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "ana@example.com", "segredo")
	require.NoError(t, err)
	first, err := repo.Get(ctx, "ana@example.com")
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, "ana@example.com", "outra-senha")
	require.ErrorIs(t, err, ErrEmailExists)

	after, err := repo.Get(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.PasswordHash, after.PasswordHash)
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	_, _, err := svc.Register(ctx, "ana@example.com", "segredo")
	require.NoError(t, err)

	token, rec, err := svc.Login(ctx, "ana@example.com", "segredo")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", rec.Email)
	assert.NotEmpty(t, token)

	_, _, errWrong := svc.Login(ctx, "ana@example.com", "errada")
	_, _, errMissing := svc.Login(ctx, "ghost@example.com", "segredo")
	assert.ErrorIs(t, errWrong, ErrInvalidCredentials)
	assert.ErrorIs(t, errMissing, ErrInvalidCredentials)
	assert.Equal(t, errWrong.Error(), errMissing.Error(), "failures are indistinguishable")
}

func TestLogout(t *testing.T) {
	svc, _, repo := newTestService(t)
	ctx := context.Background()
	token, _, err := svc.Register(ctx, "ana@example.com", "segredo")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, token))
	_, err = svc.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrNoSession, "deleted session no longer resolves")

	_, err = repo.Get(ctx, "ana@example.com")
	assert.NoError(t, err, "logout leaves user data intact")

	assert.NoError(t, svc.Logout(ctx, token), "logout is idempotent")
	assert.NoError(t, svc.Logout(ctx, "garbage"))
}

func TestResolveRejectsBadTokens(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	token, _, err := svc.Register(ctx, "ana@example.com", "segredo")
	require.NoError(t, err)

	other := NewJWTManager("another-secret-0123456789", time.Hour)
	forged, err := other.Generate(Session{ID: "x", Email: "ana@example.com"})
	require.NoError(t, err)

	expiredMgr := NewJWTManager(secret, -time.Minute)
	expired, err := expiredMgr.Generate(Session{ID: "x", Email: "ana@example.com"})
	require.NoError(t, err)

	for name, tok := range map[string]string{"empty": "", "garbage": "not-a-jwt", "forged": forged, "expired": expired} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Resolve(ctx, tok)
			assert.ErrorIs(t, err, ErrNoSession)
		})
	}

	t.Run("corrupt session record", func(t *testing.T) {
		claims, err := svc.tokens.Validate(token)
		require.NoError(t, err)
		store.PutRaw(sessionKey(claims.SessionID), []byte("{broken"))
		_, err = svc.Resolve(ctx, token)
		assert.ErrorIs(t, err, ErrNoSession)
	})
}

func TestJWTManagerRejectsOtherAlgorithms(t *testing.T) {
	m := NewJWTManager(secret, time.Hour)
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{SessionID: "s", Email: "a@b.c"})
	signed, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Validate(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
