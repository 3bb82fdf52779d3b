package tracker

import (
	"context"
	"time"

	"github.com/google/uuid"

	"viajjo/internal/core"
)

type TripInput struct {
	Company     string
	StartDate   core.Date
	EndDate     core.Date
	Destination string
}

type ExpenseInput struct {
	Description string
	Amount      string
	Category    core.Category
	Date        core.Date
	TripID      string
}

// Workspace is the working copy of one user's record. Mutations stay in
// memory until Persist writes the whole record back.
type Workspace struct {
	repo   *Repository
	record UserRecord
	now    func() time.Time
	newID  func() string
}

// WorkspaceOption configures a Workspace.
type WorkspaceOption func(*Workspace)

func WithClock(now func() time.Time) WorkspaceOption {
	return func(w *Workspace) { w.now = now }
}

func WithIDGenerator(fn func() string) WorkspaceOption {
	return func(w *Workspace) { w.newID = fn }
}

func NewWorkspace(repo *Repository, rec UserRecord, opts ...WorkspaceOption) *Workspace {
	w := &Workspace{
		repo:   repo,
		record: rec.Clone(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Open loads the stored record for email into a new Workspace.
func Open(ctx context.Context, repo *Repository, email string, opts ...WorkspaceOption) (*Workspace, error) {
	rec, err := repo.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	return NewWorkspace(repo, *rec, opts...), nil
}

func (w *Workspace) Email() string {
	return w.record.Email
}

// AddTrip appends a trip. Date ranges are not checked.
func (w *Workspace) AddTrip(in TripInput) core.Trip {
	trip := core.Trip{
		ID:          w.newID(),
		Company:     in.Company,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Destination: in.Destination,
		CreatedAt:   w.now().UTC(),
	}
	w.record.Trips = append(w.record.Trips, trip)
	return trip
}

// Trip returns the trip with id.
func (w *Workspace) Trip(id string) (core.Trip, bool) {
	for _, t := range w.record.Trips {
		if t.ID == id {
			return t, true
		}
	}
	return core.Trip{}, false
}

// DeleteTrip removes the first trip with id and reports whether one was
// removed. Expenses referencing the trip are left untouched.
func (w *Workspace) DeleteTrip(id string) bool {
	for i, t := range w.record.Trips {
		if t.ID == id {
			w.record.Trips = append(w.record.Trips[:i:i], w.record.Trips[i+1:]...)
			return true
		}
	}
	return false
}

// AddExpense appends an expense. Amount and category are stored as given.
func (w *Workspace) AddExpense(in ExpenseInput) core.Expense {
	exp := core.Expense{
		ID:          w.newID(),
		Description: in.Description,
		Amount:      in.Amount,
		Category:    in.Category,
		Date:        in.Date,
		TripID:      in.TripID,
		CreatedAt:   w.now().UTC(),
	}
	w.record.Expenses = append(w.record.Expenses, exp)
	return exp
}

func (w *Workspace) Expense(id string) (core.Expense, bool) {
	for _, e := range w.record.Expenses {
		if e.ID == id {
			return e, true
		}
	}
	return core.Expense{}, false
}

// DeleteExpense removes the first expense with id.
func (w *Workspace) DeleteExpense(id string) bool {
	for i, e := range w.record.Expenses {
		if e.ID == id {
			w.record.Expenses = append(w.record.Expenses[:i:i], w.record.Expenses[i+1:]...)
			return true
		}
	}
	return false
}

// SaveProfile replaces the profile wholesale.
func (w *Workspace) SaveProfile(p core.Profile) {
	w.record.Profile = p.Clone()
}

// Persist writes the whole record to the store and bumps its revision.
func (w *Workspace) Persist(ctx context.Context) error {
	rec := w.record.Clone()
	rec.Revision++
	if err := w.repo.Put(ctx, &rec); err != nil {
		return err
	}
	w.record.Revision = rec.Revision
	return nil
}

// Snapshot returns a deep copy safe to render while the workspace changes.
func (w *Workspace) Snapshot() UserRecord {
	return w.record.Clone()
}
