package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusCreated).
		BodyHTML([]byte("<p>ok</p>")).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if w.Body.String() != "<p>ok</p>" {
		t.Errorf("Body = %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if w.Header().Get("HX-Trigger") != "" {
		t.Error("HX-Trigger should not be set without triggers")
	}
}

func TestHTMXResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerExpensesChanged().
		TriggerTripsChanged().
		TriggerFormReset().
		TriggerProfileSaved().
		TriggerSuccessNotification("Despesa registrada").
		Redirect("/").
		Write(w)

	var triggers map[string]json.RawMessage
	if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &triggers); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v", err)
	}
	for _, name := range []string{"expenses:changed", "trips:changed", "form:reset", "profile:saved", "show-notification"} {
		if _, ok := triggers[name]; !ok {
			t.Errorf("missing trigger %s", name)
		}
	}

	var notif struct {
		Type     string `json:"type"`
		Message  string `json:"message"`
		Duration int    `json:"duration"`
	}
	if err := json.Unmarshal(triggers["show-notification"], &notif); err != nil {
		t.Fatal(err)
	}
	if notif.Type != "success" || notif.Message != "Despesa registrada" || notif.Duration != 3000 {
		t.Errorf("unexpected notification %+v", notif)
	}
	if w.Header().Get("HX-Redirect") != "/" {
		t.Errorf("HX-Redirect = %q", w.Header().Get("HX-Redirect"))
	}
}

func TestErrorResponse_Escapes(t *testing.T) {
	w := httptest.NewRecorder()
	ErrorResponse(http.StatusUnprocessableEntity, `<script>x</script>`).Write(w)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d", w.Code)
	}
	if got := w.Body.String(); got != `<div class="error">&lt;script&gt;x&lt;/script&gt;</div>` {
		t.Errorf("body = %q", got)
	}
	if w.Header().Get("HX-Trigger") == "" {
		t.Error("error responses carry a notification")
	}
}

func TestHTMXResponseBuilder_NilDetail(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().Trigger("custom", nil).Notify(ToneInfo, "oi", 1000).Write(w)

	var triggers map[string]any
	if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &triggers); err != nil {
		t.Fatal(err)
	}
	if _, ok := triggers["custom"].(map[string]any); !ok {
		t.Errorf("nil detail should encode as an empty object, got %v", triggers["custom"])
	}
	notif := triggers["show-notification"].(map[string]any)
	if notif["type"] != "info" || notif["duration"] != 1000.0 {
		t.Errorf("unexpected notification %v", notif)
	}
}
