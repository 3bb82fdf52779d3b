package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viajjo/internal/core"
	"viajjo/internal/storage"
	"viajjo/internal/tracker"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []tracker.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, ev tracker.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []tracker.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]tracker.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type recordingInvalidator struct {
	mu        sync.Mutex
	emails    []string
	revisions []uint64
}

func (r *recordingInvalidator) Invalidate(email string, revision uint64) {
	r.mu.Lock()
	r.emails = append(r.emails, email)
	r.revisions = append(r.revisions, revision)
	r.mu.Unlock()
}

type countingRecorder struct {
	mu        sync.Mutex
	mutations map[string]int
	failures  int
}

func (c *countingRecorder) IncMutation(kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mutations == nil {
		c.mutations = map[string]int{}
	}
	c.mutations[kind]++
}

func (c *countingRecorder) IncPublishFailure() {
	c.mu.Lock()
	c.failures++
	c.mu.Unlock()
}

const testEmail = "ana@example.com"

func newService(t *testing.T, opts ...Option) (*TrackerService, *tracker.Repository) {
	t.Helper()
	repo := tracker.NewRepository(storage.NewMemoryStore(storage.JSONCodec{}))
	require.NoError(t, repo.Create(context.Background(), &tracker.UserRecord{Email: testEmail}))
	return NewTrackerService(repo, opts...), repo
}

func TestTrackerService_MutationsPersistAndPublish(t *testing.T) {
	pub := &recordingPublisher{}
	inv := &recordingInvalidator{}
	rec := &countingRecorder{}
	svc, repo := newService(t, WithPublisher(pub), WithInvalidator(inv), WithRecorder(rec))
	ctx := context.Background()

	trip, err := svc.AddTrip(ctx, "ANA@example.com", tracker.TripInput{Company: "Acme", Destination: "Recife"})
	require.NoError(t, err)
	exp, err := svc.AddExpense(ctx, testEmail, tracker.ExpenseInput{
		Description: "Hotel", Amount: "200", Category: core.Lodging, TripID: trip.ID,
	})
	require.NoError(t, err)
	require.NoError(t, svc.SaveProfile(ctx, testEmail, core.Profile{Name: "Ana", HomeCity: "Recife"}))

	stored, err := repo.Get(ctx, testEmail)
	require.NoError(t, err)
	assert.Len(t, stored.Trips, 1)
	assert.Len(t, stored.Expenses, 1)
	assert.Equal(t, "Ana", stored.Profile.Name)

	removed, err := svc.DeleteExpense(ctx, testEmail, exp.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = svc.DeleteTrip(ctx, testEmail, trip.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	assert.Equal(t, []tracker.EventType{
		tracker.TripCreated, tracker.ExpenseCreated, tracker.ProfileSaved,
		tracker.ExpenseDeleted, tracker.TripDeleted,
	}, pub.types())
	for _, ev := range pub.events {
		assert.Equal(t, testEmail, ev.Email)
		assert.False(t, ev.OccurredAt.IsZero())
	}
	assert.Equal(t, exp.ID, pub.events[3].Expense.ID, "deleted entity travels with the event")
	assert.Len(t, inv.emails, 5)
	assert.Equal(t, []uint64{0, 1, 2, 3, 4}, inv.revisions, "each mutation supersedes the previous revision")
	assert.Equal(t, 1, rec.mutations[string(tracker.ExpenseCreated)])

	snap, err := svc.Snapshot(ctx, testEmail)
	require.NoError(t, err)
	assert.Empty(t, snap.Trips)
	assert.Empty(t, snap.Expenses)
	assert.Equal(t, uint64(5), snap.Revision)
}

func TestTrackerService_DeleteMissingIsNoop(t *testing.T) {
	pub := &recordingPublisher{}
	svc, _ := newService(t, WithPublisher(pub))

	removed, err := svc.DeleteTrip(context.Background(), testEmail, "missing")
	require.NoError(t, err)
	assert.False(t, removed)
	removed, err = svc.DeleteExpense(context.Background(), testEmail, "missing")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Empty(t, pub.types(), "no-op deletes publish nothing")
}

func TestTrackerService_PublishFailureDoesNotFail(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	rec := &countingRecorder{}
	svc, repo := newService(t, WithPublisher(pub), WithRecorder(rec))

	_, err := svc.AddExpense(context.Background(), testEmail, tracker.ExpenseInput{Description: "x", Amount: "1"})
	require.NoError(t, err)

	stored, err := repo.Get(context.Background(), testEmail)
	require.NoError(t, err)
	assert.Len(t, stored.Expenses, 1)
	assert.Equal(t, 1, rec.failures)
}

func TestTrackerService_UnknownUser(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.AddTrip(context.Background(), "ghost@example.com", tracker.TripInput{})
	assert.ErrorIs(t, err, tracker.ErrUserNotFound)
}

func TestTrackerService_ConcurrentMutationsAreSerialized(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.AddExpense(ctx, testEmail, tracker.ExpenseInput{
				Description: fmt.Sprintf("e%d", i), Amount: "1", Category: core.Food,
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stored, err := repo.Get(ctx, testEmail)
	require.NoError(t, err)
	assert.Len(t, stored.Expenses, n, "no lost updates")
	assert.Equal(t, int64(n*100), stored.Summary().Total.Cents)
	assert.Equal(t, 0, svc.locks.size(), "locks are released")
}
