package tracker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viajjo/internal/core"
	"viajjo/internal/storage"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func fixedClock() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func newTestWorkspace(t *testing.T) (*Workspace, *Repository) {
	t.Helper()
	repo := NewRepository(storage.NewMemoryStore(storage.JSONCodec{}))
	rec := &UserRecord{Email: "Ana@Example.com ", PasswordHash: "h"}
	require.NoError(t, repo.Create(context.Background(), rec))
	w, err := Open(context.Background(), repo, "ana@example.com",
		WithIDGenerator(sequentialIDs()), WithClock(fixedClock))
	require.NoError(t, err)
	return w, repo
}

func TestWorkspaceAddAndDeleteTrip(t *testing.T) {
	w, _ := newTestWorkspace(t)

	trip := w.AddTrip(TripInput{
		Company:     "Acme",
		StartDate:   core.NewDate(2025, 5, 3),
		EndDate:     core.NewDate(2025, 5, 1),
		Destination: "Rio de Janeiro",
	})
	assert.Equal(t, "id-1", trip.ID)
	assert.Equal(t, fixedClock(), trip.CreatedAt)
	require.Len(t, w.Snapshot().Trips, 1, "reversed ranges are accepted")

	assert.False(t, w.DeleteTrip("missing"))
	assert.Len(t, w.Snapshot().Trips, 1)

	assert.True(t, w.DeleteTrip(trip.ID))
	assert.Empty(t, w.Snapshot().Trips)
	assert.False(t, w.DeleteTrip(trip.ID), "second delete is a no-op")
}

func TestWorkspaceAddAndDeleteExpense(t *testing.T) {
	w, _ := newTestWorkspace(t)

	a := w.AddExpense(ExpenseInput{Description: "Hotel", Amount: "100", Category: core.Lodging})
	b := w.AddExpense(ExpenseInput{Description: "Jantar", Amount: "abc", Category: "Lazer"})
	assert.NotEqual(t, a.ID, b.ID)

	snap := w.Snapshot()
	require.Len(t, snap.Expenses, 2)
	assert.Equal(t, "abc", snap.Expenses[1].Amount, "amount stored as entered")
	assert.Equal(t, core.Category("Lazer"), snap.Expenses[1].Category)

	assert.True(t, w.DeleteExpense(a.ID))
	assert.False(t, w.DeleteExpense(a.ID))
	snap = w.Snapshot()
	require.Len(t, snap.Expenses, 1)
	assert.Equal(t, b.ID, snap.Expenses[0].ID)
}

func TestWorkspaceDeleteTripKeepsExpenses(t *testing.T) {
	w, _ := newTestWorkspace(t)
	trip := w.AddTrip(TripInput{Company: "Acme", Destination: "Recife"})
	w.AddExpense(ExpenseInput{Description: "Táxi", Amount: "30", Category: core.Transport, TripID: trip.ID})

	require.True(t, w.DeleteTrip(trip.ID))
	snap := w.Snapshot()
	require.Len(t, snap.Expenses, 1)
	assert.Equal(t, trip.ID, snap.Expenses[0].TripID)
}

func TestWorkspacePersistRoundTrip(t *testing.T) {
	w, repo := newTestWorkspace(t)
	ctx := context.Background()

	w.AddTrip(TripInput{Company: "Acme", Destination: "Recife", StartDate: core.NewDate(2025, 1, 2)})
	w.AddExpense(ExpenseInput{Description: "Hotel", Amount: "150,50", Category: core.Lodging, Date: core.NewDate(2025, 1, 2)})
	w.SaveProfile(core.Profile{Name: "Ana", HomeCity: "São Paulo", Logos: []string{"logo.png"}})

	before, err := repo.Get(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Empty(t, before.Trips, "nothing is written before Persist")

	require.NoError(t, w.Persist(ctx))

	after, err := repo.Get(ctx, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, w.Snapshot().Trips, after.Trips)
	assert.Equal(t, w.Snapshot().Expenses, after.Expenses)
	assert.Equal(t, "São Paulo", after.Profile.HomeCity)
	assert.Equal(t, "h", after.PasswordHash)
	assert.Equal(t, int64(15050), after.Summary().Total.Cents)
	assert.Equal(t, before.Revision+1, after.Revision)

	require.NoError(t, w.Persist(ctx))
	again, err := repo.Get(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, before.Revision+2, again.Revision)
	assert.Equal(t, again.Revision, w.Snapshot().Revision)
}

func TestWorkspaceSnapshotIsIsolated(t *testing.T) {
	w, _ := newTestWorkspace(t)
	w.SaveProfile(core.Profile{Name: "Ana", Logos: []string{"a"}})
	w.AddTrip(TripInput{Destination: "Recife"})

	snap := w.Snapshot()
	snap.Trips[0].Destination = "changed"
	snap.Profile.Logos[0] = "changed"

	again := w.Snapshot()
	assert.Equal(t, "Recife", again.Trips[0].Destination)
	assert.Equal(t, "a", again.Profile.Logos[0])
}

func TestRepositoryCreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(storage.JSONCodec{})
	repo := NewRepository(store)

	_, err := repo.Get(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, repo.Create(ctx, &UserRecord{Email: "bia@example.com"}))
	assert.ErrorIs(t, repo.Create(ctx, &UserRecord{Email: " BIA@example.com"}), ErrUserExists)

	// Partially written records decode with empty lists.
	store.PutRaw(UserKey("old@example.com"), []byte(`{"password_hash":"x"}`))
	rec, err := repo.Get(ctx, "old@example.com")
	require.NoError(t, err)
	assert.Equal(t, "old@example.com", rec.Email)
	assert.NotNil(t, rec.Trips)
	assert.NotNil(t, rec.Expenses)

	store.PutRaw(UserKey("broken@example.com"), []byte(`{`))
	_, err = repo.Get(ctx, "broken@example.com")
	assert.ErrorIs(t, err, storage.ErrCorrupt)
}

func TestUserKey(t *testing.T) {
	assert.Equal(t, "viajjo:user:ana@example.com", UserKey("  Ana@Example.COM "))
}
