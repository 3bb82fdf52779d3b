package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"viajjo/internal/core"
	"viajjo/internal/report"
)

func (s *Server) handleReportDownload(w http.ResponseWriter, r *http.Request, email string) {
	q := r.URL.Query()
	period, err := report.ParsePeriod(q.Get("period"))
	if err != nil {
		ErrorResponse(http.StatusBadRequest, "Período inválido").Write(w)
		return
	}
	format, err := report.ParseFormat(q.Get("format"))
	if err != nil {
		ErrorResponse(http.StatusBadRequest, "Formato inválido").Write(w)
		return
	}

	rec, err := s.tracker.Snapshot(r.Context(), email)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	rep := s.reports.Generate(rec, period)

	var buf bytes.Buffer
	if err := report.Render(&buf, rep, format); err != nil {
		s.internalError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+format.Filename(rep)+`"`)
	_, _ = w.Write(buf.Bytes())
}

// handleChart returns the label/value series for the dashboard chart.
// mode=seen lists categories in first-seen order without zeros.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request, email string) {
	rec, err := s.tracker.Snapshot(r.Context(), email)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	rows := core.ExpensesByFixedCategory(rec.Expenses)
	if r.URL.Query().Get("mode") == "seen" {
		rows = core.ExpensesByCategory(rec.Expenses)
	}
	writeJSON(w, http.StatusOK, core.ChartSeries(rows))
}

// handleDistance renders the distance between two cities. from defaults
// to the profile's home city.
func (s *Server) handleDistance(w http.ResponseWriter, r *http.Request, email string) {
	q := r.URL.Query()
	from := sanitizeInput(q.Get("from"))
	if from == "" {
		if rec, err := s.tracker.Snapshot(r.Context(), email); err == nil {
			from = rec.Profile.HomeCity
		}
	}
	d, err := s.distances.Lookup(from, sanitizeInput(q.Get("to")))
	if err != nil {
		if errors.Is(err, core.ErrEmptyCity) {
			validationError(w, err)
			return
		}
		s.internalError(w, r, err)
		return
	}
	s.renderPartial(w, r, "distance", d)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady runs every readiness check and fails if any does.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not ready"
	}
	writeJSON(w, status, map[string]any{"status": state, "checks": results})
}
