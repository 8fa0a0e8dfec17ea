package ui

import (
	"context"
	"strconv"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/view"
)

const (
	ToastSuccess = "success"
	ToastError   = "error"
	ToastInfo    = "info"
)

// DefaultToastDuration is how long a toast stays on screen.
const DefaultToastDuration = 4 * time.Second

// NotificationCenter owns the transient toasts and the alert dropdown.
type NotificationCenter struct {
	mu       sync.Mutex
	source   Lister[core.Notification]
	duration time.Duration
	schedule Scheduler
	now      func() time.Time
	logger   *log.Logger

	seq       int
	toasts    []view.Toast
	delivered map[string]bool

	open   bool
	alerts []core.Notification
	region *view.Region
}

type NotificationOption func(*NotificationCenter)

// WithToastDuration overrides the 4 second toast lifetime.
func WithToastDuration(d time.Duration) NotificationOption {
	return func(n *NotificationCenter) {
		if d > 0 {
			n.duration = d
		}
	}
}

// WithScheduler replaces time.AfterFunc, mainly for tests.
func WithScheduler(s Scheduler) NotificationOption {
	return func(n *NotificationCenter) {
		if s != nil {
			n.schedule = s
		}
	}
}

func WithNotificationLogger(l *log.Logger) NotificationOption {
	return func(n *NotificationCenter) {
		n.logger = l
	}
}

func NewNotificationCenter(source Lister[core.Notification], opts ...NotificationOption) *NotificationCenter {
	n := &NotificationCenter{
		source:    source,
		duration:  DefaultToastDuration,
		schedule:  AfterFunc,
		now:       time.Now,
		delivered: make(map[string]bool),
		region:    view.NewRegion("notification-list", view.Notifications(nil, time.Now())),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.logger = log.OrDefault(n.logger, log.ComponentUI)
	return n
}

// Toast shows a message and schedules its removal. Toasts are neither queued
// nor deduplicated.
func (n *NotificationCenter) Toast(kind, message string) {
	n.mu.Lock()
	n.seq++
	t := view.Toast{ID: strconv.Itoa(n.seq), Kind: kind, Message: message}
	n.toasts = append(n.toasts, t)
	n.mu.Unlock()

	n.schedule(n.duration, func() { n.remove(t.ID) })
}

func (n *NotificationCenter) remove(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, t := range n.toasts {
		if t.ID == id {
			n.toasts = append(n.toasts[:i], n.toasts[i+1:]...)
			break
		}
	}
	delete(n.delivered, id)
}

// Visible returns the toasts currently on screen.
func (n *NotificationCenter) Visible() []view.Toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]view.Toast, len(n.toasts))
	copy(out, n.toasts)
	return out
}

// Drain returns the visible toasts not yet handed to the browser and marks
// them delivered.
func (n *NotificationCenter) Drain() []view.Toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []view.Toast
	for _, t := range n.toasts {
		if !n.delivered[t.ID] {
			n.delivered[t.ID] = true
			out = append(out, t)
		}
	}
	return out
}

// Duration is the toast lifetime.
func (n *NotificationCenter) Duration() time.Duration {
	return n.duration
}

// ToggleDropdown opens or closes the alert panel. Opening fetches the alerts;
// a failed fetch shows the panel as empty.
func (n *NotificationCenter) ToggleDropdown(ctx context.Context) {
	n.mu.Lock()
	if n.open {
		n.open = false
		n.mu.Unlock()
		return
	}
	n.open = true
	n.mu.Unlock()

	n.Refresh(ctx)
}

// Refresh refetches the alerts without changing the panel visibility.
func (n *NotificationCenter) Refresh(ctx context.Context) {
	alerts, err := n.source.List(ctx)
	if err != nil {
		n.logger.WarnContext(ctx, "Notifications load failed",
			log.FieldOperation, log.OpLoad, log.FieldCollection, "notifications", log.FieldError, err)
		alerts = nil
	}

	n.mu.Lock()
	n.alerts = alerts
	n.region.Replace(view.Notifications(alerts, n.now()))
	n.mu.Unlock()
}

// ClickOutside closes the panel when a click landed on neither the toggle
// button nor the panel itself.
func (n *NotificationCenter) ClickOutside(onButton, onPanel bool) {
	if onButton || onPanel {
		return
	}
	n.Close()
}

func (n *NotificationCenter) Close() {
	n.mu.Lock()
	n.open = false
	n.mu.Unlock()
}

func (n *NotificationCenter) IsOpen() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.open
}

// HasUnread drives the dot on the bell: shown whenever the last fetched list
// was non-empty.
func (n *NotificationCenter) HasUnread() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.alerts) > 0
}

func (n *NotificationCenter) Region() *view.Region {
	return n.region
}
