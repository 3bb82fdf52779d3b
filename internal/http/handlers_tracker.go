package http

import (
	"net/http"

	"viajjo/internal/core"
	applog "viajjo/internal/log"
	"viajjo/internal/tracker"
)

func (s *Server) handleCreateTrip(w http.ResponseWriter, r *http.Request, email string) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	in, err := s.parseTripForm(r, p, email)
	if err != nil {
		s.formError(w, r, err)
		return
	}

	trip, err := s.tracker.AddTrip(r.Context(), email, in)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).Info("Trip created",
		applog.NewFields().WithEmail(email).WithTrip(trip.ID).Args()...)

	s.rerender(w, r, ViewTrips, email, NewHTMXResponse().
		TriggerTripsChanged().
		TriggerFormReset().
		TriggerSuccessNotification("Viagem para "+trip.Destination+" registrada"))
}

// parseTripForm validates the trip form. An empty company falls back to
// the one saved in the profile.
func (s *Server) parseTripForm(r *http.Request, p *RequestBodyParser, email string) (tracker.TripInput, error) {
	start, err := core.ParseDate(p.Get("start_date"))
	if err != nil {
		return tracker.TripInput{}, err
	}
	end, err := core.ParseDate(p.Get("end_date"))
	if err != nil {
		return tracker.TripInput{}, err
	}
	in := tracker.TripInput{
		Company:     sanitizeInput(p.Get("company")),
		Destination: sanitizeInput(p.Get("destination")),
		StartDate:   start,
		EndDate:     end,
	}
	if in.Company == "" {
		rec, err := s.tracker.Snapshot(r.Context(), email)
		if err != nil {
			return tracker.TripInput{}, lookupError{err}
		}
		in.Company = rec.Profile.Company
	}
	trip := core.Trip{Company: in.Company, Destination: in.Destination, StartDate: in.StartDate, EndDate: in.EndDate}
	if err := trip.Validate(); err != nil {
		return tracker.TripInput{}, err
	}
	return in, nil
}

func (s *Server) handleDeleteTrip(w http.ResponseWriter, r *http.Request, email string) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	id := p.Get("id")
	if id == "" {
		ErrorResponse(http.StatusBadRequest, "Viagem não informada").Write(w)
		return
	}
	removed, err := s.tracker.DeleteTrip(r.Context(), email, id)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	resp := NewHTMXResponse()
	if removed {
		resp.TriggerTripsChanged().TriggerSuccessNotification("Viagem removida")
	}
	s.rerender(w, r, ViewTrips, email, resp)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request, email string) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	in, err := s.parseExpenseForm(r, p, email)
	if err != nil {
		s.formError(w, r, err)
		return
	}

	exp, err := s.tracker.AddExpense(r.Context(), email, in)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	cents, _ := exp.Cents()
	applog.FromContext(r.Context()).Info("Expense created",
		applog.NewFields().WithEmail(email).WithExpense(exp.ID, string(exp.Category), cents.Cents).Args()...)

	s.rerender(w, r, ViewExpenses, email, NewHTMXResponse().
		TriggerExpensesChanged().
		TriggerFormReset().
		TriggerSuccessNotification("Despesa de "+formatReais(cents)+" registrada"))
}

// parseExpenseForm validates the expense form. The date defaults to today
// and a trip, when given, must belong to the user.
func (s *Server) parseExpenseForm(r *http.Request, p *RequestBodyParser, email string) (tracker.ExpenseInput, error) {
	category, err := core.ParseCategory(p.Get("category"))
	if err != nil {
		return tracker.ExpenseInput{}, err
	}
	date, err := core.ParseDate(p.Get("date"))
	if err != nil {
		return tracker.ExpenseInput{}, err
	}
	if date.IsZero() {
		date = s.today()
	}
	in := tracker.ExpenseInput{
		Description: sanitizeInput(p.Get("description")),
		Amount:      p.Get("amount"),
		Category:    category,
		Date:        date,
		TripID:      p.Get("trip_id"),
	}
	exp := core.Expense{Description: in.Description, Amount: in.Amount, Category: in.Category, Date: in.Date}
	if err := exp.Validate(); err != nil {
		return tracker.ExpenseInput{}, err
	}

	if in.TripID != "" {
		rec, err := s.tracker.Snapshot(r.Context(), email)
		if err != nil {
			return tracker.ExpenseInput{}, lookupError{err}
		}
		found := false
		for _, t := range rec.Trips {
			if t.ID == in.TripID {
				found = true
				break
			}
		}
		if !found {
			return tracker.ExpenseInput{}, errUnknownTrip
		}
	}
	return in, nil
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request, email string) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	id := p.Get("id")
	if id == "" {
		ErrorResponse(http.StatusBadRequest, "Despesa não informada").Write(w)
		return
	}
	removed, err := s.tracker.DeleteExpense(r.Context(), email, id)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	resp := NewHTMXResponse()
	if removed {
		resp.TriggerExpensesChanged().TriggerSuccessNotification("Despesa removida")
	}
	s.rerender(w, r, ViewExpenses, email, resp)
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request, email string) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	profile := core.Profile{
		Name:     sanitizeInput(p.Get("name")),
		HomeCity: sanitizeInput(p.Get("home_city")),
		Company:  sanitizeInput(p.Get("company")),
		Logos:    splitList(p.Raw("logos")),
	}
	if err := profile.Validate(); err != nil {
		validationError(w, err)
		return
	}
	if err := s.tracker.SaveProfile(r.Context(), email, profile); err != nil {
		s.internalError(w, r, err)
		return
	}
	s.rerender(w, r, ViewProfile, email, NewHTMXResponse().
		TriggerProfileSaved().
		TriggerSuccessNotification("Perfil salvo"))
}
