package http

import (
	"errors"
	"net/http"

	"viajjo/internal/core"
	applog "viajjo/internal/log"
	"viajjo/internal/report"
	"viajjo/internal/storage"
	"viajjo/internal/tracker"
)

// pageData is what every view template receives.
type pageData struct {
	View       View
	Nav        []View
	Email      string
	Record     tracker.UserRecord
	Summary    core.Summary
	Categories []core.Category
	TripNames  map[string]string
	Today      string
	Report     report.Report
	Periods    []report.Period
	Error      string
}

func (s *Server) newPage(v View, email string, rec tracker.UserRecord) pageData {
	names := make(map[string]string, len(rec.Trips))
	for _, t := range rec.Trips {
		names[t.ID] = t.Destination
	}
	return pageData{
		View:       v,
		Nav:        navViews,
		Email:      email,
		Record:     rec,
		Summary:    rec.Summary(),
		Categories: core.Categories,
		TripNames:  names,
		Today:      s.today().String(),
		Periods:    report.Periods,
	}
}

func (s *Server) today() core.Date {
	t := s.now()
	return core.NewDate(t.Year(), int(t.Month()), t.Day())
}

// page serves a view. Without a session every view renders the login form.
func (s *Server) page(v View) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, ok := s.currentUser(r)
		if !ok {
			s.renderView(w, r, pageData{View: ViewLogin}, nil)
			return
		}
		data, err := s.loadPage(r, v, email)
		if errors.Is(err, storage.ErrCorrupt) {
			s.endUnreadableSession(w, r, email, err)
			s.renderView(w, r, pageData{View: ViewLogin}, nil)
			return
		}
		if err != nil {
			s.internalError(w, r, err)
			return
		}
		s.renderView(w, r, data, nil)
	})
}

// endUnreadableSession logs the user out when their stored record cannot be
// decoded.
func (s *Server) endUnreadableSession(w http.ResponseWriter, r *http.Request, email string, err error) {
	applog.FromContext(r.Context()).Warn("Stored user record is unreadable, ending session",
		applog.FieldEmail, email,
		applog.FieldError, err)
	if c, cerr := r.Cookie(sessionCookieName); cerr == nil && c.Value != "" {
		if lerr := s.auth.Logout(r.Context(), c.Value); lerr != nil {
			applog.FromContext(r.Context()).Warn("Logout failed", applog.FieldError, lerr)
		}
	}
	clearSessionCookie(w, r)
}

// loadPage reads the user's record and fills the view-specific fields.
func (s *Server) loadPage(r *http.Request, v View, email string) (pageData, error) {
	rec, err := s.tracker.Snapshot(r.Context(), email)
	if err != nil {
		return pageData{}, err
	}
	data := s.newPage(v, email, rec)
	if v == ViewReports {
		period, err := report.ParsePeriod(r.URL.Query().Get("period"))
		if err != nil {
			period = report.All
		}
		data.Report = s.reports.Generate(rec, period)
	}
	return data, nil
}

// rerender answers a successful HTMX mutation with the refreshed view and
// plain form posts with a redirect to it.
func (s *Server) rerender(w http.ResponseWriter, r *http.Request, v View, email string, resp *HTMXResponseBuilder) {
	if !isHTMX(r) {
		http.Redirect(w, r, v.Path(), http.StatusSeeOther)
		return
	}
	data, err := s.loadPage(r, v, email)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.renderView(w, r, data, resp)
}
