package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// Client-side events sent through HX-Trigger.
const (
	eventNotification    = "show-notification"
	eventTripsChanged    = "trips:changed"
	eventExpensesChanged = "expenses:changed"
	eventProfileSaved    = "profile:saved"
	eventFormReset       = "form:reset"
)

// Tone selects how a notification is styled.
type Tone string

const (
	ToneSuccess Tone = "success"
	ToneError   Tone = "error"
	ToneInfo    Tone = "info"
)

type notification struct {
	Type     Tone   `json:"type"`
	Message  string `json:"message"`
	Duration int    `json:"duration"`
}

// HTMXResponseBuilder collects status, headers, HX-Trigger events and an
// HTML body, then writes them in one go.
type HTMXResponseBuilder struct {
	status  int
	headers http.Header
	events  map[string]any
	body    []byte
}

func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		status:  http.StatusOK,
		headers: make(http.Header),
		events:  make(map[string]any),
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.status = code
	return b
}

// Trigger adds a client event; detail is sent as the event's payload.
func (b *HTMXResponseBuilder) Trigger(event string, detail any) *HTMXResponseBuilder {
	if detail == nil {
		detail = struct{}{}
	}
	b.events[event] = detail
	return b
}

func (b *HTMXResponseBuilder) TriggerTripsChanged() *HTMXResponseBuilder {
	return b.Trigger(eventTripsChanged, nil)
}

func (b *HTMXResponseBuilder) TriggerExpensesChanged() *HTMXResponseBuilder {
	return b.Trigger(eventExpensesChanged, nil)
}

func (b *HTMXResponseBuilder) TriggerProfileSaved() *HTMXResponseBuilder {
	return b.Trigger(eventProfileSaved, nil)
}

func (b *HTMXResponseBuilder) TriggerFormReset() *HTMXResponseBuilder {
	return b.Trigger(eventFormReset, nil)
}

// Notify shows a toast for durationMs milliseconds.
func (b *HTMXResponseBuilder) Notify(tone Tone, message string, durationMs int) *HTMXResponseBuilder {
	return b.Trigger(eventNotification, notification{Type: tone, Message: message, Duration: durationMs})
}

func (b *HTMXResponseBuilder) TriggerSuccessNotification(message string) *HTMXResponseBuilder {
	return b.Notify(ToneSuccess, message, 3000)
}

func (b *HTMXResponseBuilder) TriggerErrorNotification(message string) *HTMXResponseBuilder {
	return b.Notify(ToneError, message, 5000)
}

func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.headers.Set(name, value)
	return b
}

// Redirect makes HTMX load path as a full page.
func (b *HTMXResponseBuilder) Redirect(path string) *HTMXResponseBuilder {
	return b.Header("HX-Redirect", path)
}

func (b *HTMXResponseBuilder) BodyHTML(html []byte) *HTMXResponseBuilder {
	b.headers.Set("Content-Type", "text/html; charset=utf-8")
	b.body = html
	return b
}

func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	h := w.Header()
	for name, values := range b.headers {
		h[name] = values
	}
	if len(b.events) > 0 {
		if payload, err := json.Marshal(b.events); err == nil {
			h.Set("HX-Trigger", string(payload))
		}
	}
	w.WriteHeader(b.status)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse is an escaped error fragment plus an error toast.
func ErrorResponse(status int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(status).
		TriggerErrorNotification(message).
		BodyHTML([]byte(`<div class="error">` + template.HTMLEscapeString(message) + `</div>`))
}
