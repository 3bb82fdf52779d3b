package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"viajjo/internal/core"
	"viajjo/internal/tracker"
)

// ReportInvalidator drops cached reports built from a record revision that
// a mutation has just superseded.
type ReportInvalidator interface {
	Invalidate(email string, revision uint64)
}

// MutationRecorder counts persisted mutations by event type.
type MutationRecorder interface {
	IncMutation(kind string)
	IncPublishFailure()
}

// TrackerService serializes mutations per user: load, mutate, persist.
// Publishing and cache invalidation happen after the write and never fail
// the request.
type TrackerService struct {
	repo        *tracker.Repository
	locks       *keyedMutex
	publisher   tracker.EventPublisher
	invalidator ReportInvalidator
	recorder    MutationRecorder
	wsOpts      []tracker.WorkspaceOption
	now         func() time.Time
}

type Option func(*TrackerService)

func WithPublisher(p tracker.EventPublisher) Option {
	return func(s *TrackerService) { s.publisher = p }
}

func WithInvalidator(inv ReportInvalidator) Option {
	return func(s *TrackerService) { s.invalidator = inv }
}

func WithRecorder(r MutationRecorder) Option {
	return func(s *TrackerService) { s.recorder = r }
}

// WithWorkspaceOptions passes clock and id overrides to every workspace.
func WithWorkspaceOptions(opts ...tracker.WorkspaceOption) Option {
	return func(s *TrackerService) { s.wsOpts = append(s.wsOpts, opts...) }
}

func WithNow(now func() time.Time) Option {
	return func(s *TrackerService) { s.now = now }
}

func NewTrackerService(repo *tracker.Repository, opts ...Option) *TrackerService {
	s := &TrackerService{
		repo:  repo,
		locks: newKeyedMutex(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current state of the user's record.
func (s *TrackerService) Snapshot(ctx context.Context, email string) (tracker.UserRecord, error) {
	rec, err := s.repo.Get(ctx, email)
	if err != nil {
		return tracker.UserRecord{}, err
	}
	return *rec, nil
}

func (s *TrackerService) AddTrip(ctx context.Context, email string, in tracker.TripInput) (core.Trip, error) {
	var trip core.Trip
	err := s.mutate(ctx, email, func(w *tracker.Workspace) (*tracker.Event, error) {
		trip = w.AddTrip(in)
		return &tracker.Event{Type: tracker.TripCreated, EntityID: trip.ID, Trip: &trip}, nil
	})
	return trip, err
}

// DeleteTrip reports whether a trip was removed; a missing id is not an error.
func (s *TrackerService) DeleteTrip(ctx context.Context, email, id string) (bool, error) {
	var removed bool
	err := s.mutate(ctx, email, func(w *tracker.Workspace) (*tracker.Event, error) {
		trip, ok := w.Trip(id)
		if !ok {
			return nil, nil
		}
		removed = w.DeleteTrip(id)
		return &tracker.Event{Type: tracker.TripDeleted, EntityID: id, Trip: &trip}, nil
	})
	return removed, err
}

func (s *TrackerService) AddExpense(ctx context.Context, email string, in tracker.ExpenseInput) (core.Expense, error) {
	var exp core.Expense
	err := s.mutate(ctx, email, func(w *tracker.Workspace) (*tracker.Event, error) {
		exp = w.AddExpense(in)
		return &tracker.Event{Type: tracker.ExpenseCreated, EntityID: exp.ID, Expense: &exp}, nil
	})
	return exp, err
}

func (s *TrackerService) DeleteExpense(ctx context.Context, email, id string) (bool, error) {
	var removed bool
	err := s.mutate(ctx, email, func(w *tracker.Workspace) (*tracker.Event, error) {
		exp, ok := w.Expense(id)
		if !ok {
			return nil, nil
		}
		removed = w.DeleteExpense(id)
		return &tracker.Event{Type: tracker.ExpenseDeleted, EntityID: id, Expense: &exp}, nil
	})
	return removed, err
}

func (s *TrackerService) SaveProfile(ctx context.Context, email string, p core.Profile) error {
	return s.mutate(ctx, email, func(w *tracker.Workspace) (*tracker.Event, error) {
		w.SaveProfile(p)
		saved := p.Clone()
		return &tracker.Event{Type: tracker.ProfileSaved, Profile: &saved}, nil
	})
}

// mutate runs fn against a fresh workspace under the user's lock. A nil
// event means nothing changed and nothing is written.
func (s *TrackerService) mutate(ctx context.Context, email string, fn func(w *tracker.Workspace) (*tracker.Event, error)) error {
	email = tracker.NormalizeEmail(email)

	unlock := s.locks.Lock(email)
	ws, err := tracker.Open(ctx, s.repo, email, s.wsOpts...)
	if err != nil {
		unlock()
		return fmt.Errorf("open workspace: %w", err)
	}
	ev, err := fn(ws)
	if err != nil || ev == nil {
		unlock()
		return err
	}
	if err := ws.Persist(ctx); err != nil {
		unlock()
		return fmt.Errorf("persist workspace: %w", err)
	}
	revision := ws.Snapshot().Revision
	unlock()

	ev.Email = email
	ev.OccurredAt = s.now().UTC()
	s.afterMutation(ctx, *ev, revision-1)
	return nil
}

func (s *TrackerService) afterMutation(ctx context.Context, ev tracker.Event, superseded uint64) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ev.Email, superseded)
	}
	if s.recorder != nil {
		s.recorder.IncMutation(string(ev.Type))
	}
	if s.publisher == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping event", "event_type", ev.Type)
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish event",
			"event_type", ev.Type, "entity_id", ev.EntityID, "error", err)
		if s.recorder != nil {
			s.recorder.IncPublishFailure()
		}
	}
}

// keyedMutex hands out one mutex per key and forgets it when unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock acquires the mutex for key and returns its release function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
