package http

import (
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"fintrack/internal/view"
)

// Client-side events the page templates listen for.
const (
	EventShowNotification = "show-notification"
	EventTransactionAdded = "transaction:added"
	EventDashboardRefresh = "dashboard:refresh"
	EventModalsClosed     = "modals:closed"
)

// ListChangedEvent is fired after a create on the named list page.
func ListChangedEvent(list string) string {
	return list + ":changed"
}

// HTMXResponseBuilder accumulates one partial response: status, headers,
// the HX-Trigger events and an optional HTML fragment. Nothing reaches the
// client until Write.
type HTMXResponseBuilder struct {
	status int
	header http.Header
	events map[string]any
	body   []byte
}

func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		status: http.StatusOK,
		header: http.Header{},
		events: map[string]any{},
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.status = code
	return b
}

func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.header.Set(name, value)
	return b
}

// Trigger fires event on the client with detail as its payload. A later
// trigger of the same event replaces the earlier one.
func (b *HTMXResponseBuilder) Trigger(event string, detail any) *HTMXResponseBuilder {
	b.events[event] = detail
	return b
}

func (b *HTMXResponseBuilder) TriggerEvent(event string) *HTMXResponseBuilder {
	return b.Trigger(event, struct{}{})
}

type notificationPayload struct {
	ID       string `json:"id,omitempty"`
	Type     string `json:"type"`
	Message  string `json:"message"`
	Duration int64  `json:"duration"`
}

// TriggerToasts hands the toasts to the page in one show-notification
// event, each living for lifetime. No toasts, no event.
func (b *HTMXResponseBuilder) TriggerToasts(toasts []view.Toast, lifetime time.Duration) *HTMXResponseBuilder {
	if len(toasts) == 0 {
		return b
	}
	payload := make([]notificationPayload, len(toasts))
	for i, t := range toasts {
		payload[i] = notificationPayload{ID: t.ID, Type: t.Kind, Message: t.Message, Duration: lifetime.Milliseconds()}
	}
	return b.Trigger(EventShowNotification, map[string]any{"toasts": payload})
}

// Redirect makes htmx navigate the whole page to url.
func (b *HTMXResponseBuilder) Redirect(url string) *HTMXResponseBuilder {
	return b.Header("HX-Redirect", url)
}

func (b *HTMXResponseBuilder) BodyString(s string) *HTMXResponseBuilder {
	b.body = []byte(s)
	return b
}

func (b *HTMXResponseBuilder) BodyHTML(html template.HTML) *HTMXResponseBuilder {
	b.header.Set("Content-Type", "text/html; charset=utf-8")
	b.body = []byte(html)
	return b
}

func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	out := w.Header()
	for name, values := range b.header {
		out[name] = values
	}
	if len(b.events) > 0 {
		if raw, err := json.Marshal(b.events); err == nil {
			out.Set("HX-Trigger", string(raw))
		}
	}
	w.WriteHeader(b.status)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse is an escaped error fragment with the given status.
func ErrorResponse(status int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(status).
		BodyHTML(template.HTML(`<div class="error">` + template.HTMLEscapeString(message) + `</div>`))
}

func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

func NotFoundError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}
