package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fintrack/internal/view"
)

func TestHTMXResponseBuilder(t *testing.T) {
	tests := []struct {
		name       string
		build      *HTMXResponseBuilder
		wantStatus int
		wantBody   string
		wantHeader map[string]string
	}{
		{
			name:       "plain body",
			build:      NewHTMXResponse().BodyString("ok"),
			wantStatus: http.StatusOK,
			wantBody:   "ok",
			wantHeader: map[string]string{"HX-Trigger": ""},
		},
		{
			name:       "client redirect",
			build:      NewHTMXResponse().Redirect("/login").Status(http.StatusNoContent),
			wantStatus: http.StatusNoContent,
			wantHeader: map[string]string{"HX-Redirect": "/login"},
		},
		{
			name:       "modal close event",
			build:      NewHTMXResponse().Status(http.StatusNoContent).TriggerEvent(EventModalsClosed),
			wantStatus: http.StatusNoContent,
			wantHeader: map[string]string{"HX-Trigger": `{"modals:closed":{}}`},
		},
		{
			name:       "bad request fragment",
			build:      BadRequestError("Invalid input"),
			wantStatus: http.StatusBadRequest,
			wantBody:   `<div class="error">Invalid input</div>`,
			wantHeader: map[string]string{"Content-Type": "text/html; charset=utf-8"},
		},
		{
			name:       "not found fragment",
			build:      NotFoundError("Unknown list"),
			wantStatus: http.StatusNotFound,
			wantBody:   `<div class="error">Unknown list</div>`,
		},
		{
			name:       "error text is escaped",
			build:      InternalServerError("<b>boom</b>"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `<div class="error">&lt;b&gt;boom&lt;/b&gt;</div>`,
		},
		{
			name:       "no toasts no trigger",
			build:      NewHTMXResponse().TriggerToasts(nil, time.Second),
			wantStatus: http.StatusOK,
			wantHeader: map[string]string{"HX-Trigger": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.build.Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.wantBody)
			}
			for name, want := range tt.wantHeader {
				if got := w.Header().Get(name); got != want {
					t.Errorf("%s = %q, want %q", name, got, want)
				}
			}
		})
	}
}

func TestHTMXResponseBuilderCombinesEvents(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().
		TriggerEvent(EventTransactionAdded).
		TriggerEvent(ListChangedEvent("budgets")).
		TriggerToasts([]view.Toast{
			{ID: "1", Kind: "error", Message: "Please enter a valid number"},
			{ID: "2", Kind: "success", Message: "Total balance updated"},
		}, 4*time.Second).
		Write(w)

	var got map[string]json.RawMessage
	if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &got); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v", err)
	}
	for _, event := range []string{EventTransactionAdded, "budgets:changed", EventShowNotification} {
		if _, ok := got[event]; !ok {
			t.Errorf("missing event %q", event)
		}
	}

	var detail struct {
		Toasts []notificationPayload `json:"toasts"`
	}
	if err := json.Unmarshal(got[EventShowNotification], &detail); err != nil {
		t.Fatal(err)
	}
	if len(detail.Toasts) != 2 || detail.Toasts[0].Type != "error" || detail.Toasts[0].Duration != 4000 ||
		!strings.HasPrefix(detail.Toasts[1].Message, "Total balance") {
		t.Errorf("toasts = %+v", detail.Toasts)
	}
}
