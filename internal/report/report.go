// Package report builds the downloadable expense report for a user.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/now"

	"viajjo/internal/core"
	"viajjo/internal/tracker"
)

// Period selects which expenses a report covers.
type Period string

const (
	All   Period = "all"
	Year  Period = "year"
	Month Period = "month"
)

// Periods lists the supported periods in menu order.
var Periods = []Period{All, Year, Month}

// ParsePeriod accepts "", "all", "year" or "month". Empty means All.
func ParsePeriod(s string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case "", All:
		return All, nil
	case Year:
		return Year, nil
	case Month:
		return Month, nil
	default:
		return "", fmt.Errorf("report period %q is not supported", s)
	}
}

// Bounds returns the inclusive range covered at time at. All is unbounded
// and returns zero times.
func (p Period) Bounds(at time.Time) (time.Time, time.Time) {
	n := now.With(wallUTC(at))
	switch p {
	case Year:
		return n.BeginningOfYear(), n.EndOfYear()
	case Month:
		return n.BeginningOfMonth(), n.EndOfMonth()
	default:
		return time.Time{}, time.Time{}
	}
}

// Title is the heading shown on screen and in the exported file.
func (p Period) Title(at time.Time) string {
	switch p {
	case Year:
		return fmt.Sprintf("Relatório Anual %d", at.Year())
	case Month:
		return fmt.Sprintf("Relatório Mensal %02d/%d", int(at.Month()), at.Year())
	default:
		return "Relatório Geral"
	}
}

// wallUTC keeps the wall-clock reading of t but moves it to UTC, the zone
// every core.Date lives in.
func wallUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// bucket identifies the calendar slice a period maps to at time at.
func (p Period) bucket(at time.Time) string {
	switch p {
	case Year:
		return at.Format("2006")
	case Month:
		return at.Format("2006-01")
	default:
		return "all"
	}
}

type Report struct {
	Title       string                `json:"title"`
	Owner       string                `json:"owner"`
	Company     string                `json:"company,omitempty"`
	Period      Period                `json:"period"`
	From        time.Time             `json:"from"`
	To          time.Time             `json:"to"`
	GeneratedAt time.Time             `json:"generated_at"`
	Summary     core.Summary          `json:"summary"`
	Categories  []core.CategoryAmount `json:"categories"`
	Expenses    []core.Expense        `json:"expenses"`
}

// Bounded reports whether the report covers a limited date range.
func (r Report) Bounded() bool {
	return !r.From.IsZero()
}

// Build computes the report for rec over period p as of time at.
func Build(rec tracker.UserRecord, p Period, at time.Time) Report {
	from, to := p.Bounds(at)
	trips := rec.Trips
	expenses := rec.Expenses
	if p != All {
		trips = tripsWithin(rec.Trips, from, to)
		expenses = expensesWithin(rec.Expenses, from, to)
	}

	owner := rec.Profile.Name
	if strings.TrimSpace(owner) == "" {
		owner = rec.Email
	}

	summary := core.Summarize(expenses, trips)
	return Report{
		Title:       p.Title(at),
		Owner:       owner,
		Company:     rec.Profile.Company,
		Period:      p,
		From:        from,
		To:          to,
		GeneratedAt: at,
		Summary:     summary,
		Categories:  nonZero(summary.ByCategory),
		Expenses:    append([]core.Expense(nil), expenses...),
	}
}

func within(d core.Date, from, to time.Time) bool {
	if d.IsZero() {
		return false
	}
	return !d.Before(from) && !d.After(to)
}

func expensesWithin(expenses []core.Expense, from, to time.Time) []core.Expense {
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if within(e.Date, from, to) {
			out = append(out, e)
		}
	}
	return out
}

// tripsWithin keeps trips whose date range overlaps [from, to]. A trip with
// no end date is treated as a single day.
func tripsWithin(trips []core.Trip, from, to time.Time) []core.Trip {
	out := make([]core.Trip, 0, len(trips))
	for _, t := range trips {
		if t.StartDate.IsZero() {
			continue
		}
		start, end := t.StartDate, t.EndDate
		if end.IsZero() {
			end = start
		}
		if end.Before(start.Time) {
			start, end = end, start
		}
		if !start.After(to) && !end.Before(from) {
			out = append(out, t)
		}
	}
	return out
}

func nonZero(rows []core.CategoryAmount) []core.CategoryAmount {
	out := make([]core.CategoryAmount, 0, len(rows))
	for _, r := range rows {
		if r.Amount.Cents != 0 {
			out = append(out, r)
		}
	}
	return out
}
