package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/api"
	"fintrack/internal/core"
)

var errBoom = errors.New("boom")

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fakeCollection[T any] struct {
	mu        sync.Mutex
	items     []T
	listErr   error
	createErr error
	lists     int
	created   []core.Form
}

func (f *fakeCollection[T]) List(context.Context) ([]T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]T(nil), f.items...), nil
}

func (f *fakeCollection[T]) Create(_ context.Context, form core.Form) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, form.Clone())
	return f.createErr
}

func (f *fakeCollection[T]) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}

// fakeGoalServer stores goals and renumbers them densely on reorder.
type fakeGoalServer struct {
	fakeCollection[core.SavingsGoal]
	reorderErr error
	reorders   [][]core.ID
}

func (s *fakeGoalServer) ReorderSavingsGoals(_ context.Context, ids []core.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reorders = append(s.reorders, append([]core.ID(nil), ids...))
	if s.reorderErr != nil {
		return s.reorderErr
	}
	byID := make(map[core.ID]core.SavingsGoal, len(s.items))
	for _, g := range s.items {
		byID[g.ID] = g
	}
	next := make([]core.SavingsGoal, 0, len(ids))
	for i, id := range ids {
		g := byID[id]
		g.Priority = i + 1
		next = append(next, g)
	}
	s.items = next
	return nil
}

type fakeDashboardAPI struct {
	mu         sync.Mutex
	auth       core.AuthStatus
	authErr    error
	summary    core.DashboardSummary
	summaryErr error
	setErr     error
	summaries  int
	sets       []decimal.Decimal
}

func (f *fakeDashboardAPI) CheckAuth(context.Context) (core.AuthStatus, error) {
	return f.auth, f.authErr
}

func (f *fakeDashboardAPI) Dashboard(context.Context) (core.DashboardSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries++
	return f.summary, f.summaryErr
}

func (f *fakeDashboardAPI) SetTotalBalance(_ context.Context, v decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets = append(f.sets, v)
	if f.setErr != nil {
		return f.setErr
	}
	f.summary.TotalBalance = v
	return nil
}

type fakeCreator struct {
	mu      sync.Mutex
	err     error
	created []core.Transaction
}

func (f *fakeCreator) CreateTransaction(_ context.Context, t core.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, t)
	return f.err
}

type fakeParser struct {
	draft core.ReceiptDraft
	err   error
	names []string
}

func (f *fakeParser) ParseReceipt(_ context.Context, filename string, _ io.Reader) (core.ReceiptDraft, error) {
	f.names = append(f.names, filename)
	return f.draft, f.err
}

type fakeChat struct {
	reply string
	err   error
	sent  []string
}

func (f *fakeChat) Chat(_ context.Context, message string) (string, error) {
	f.sent = append(f.sent, message)
	return f.reply, f.err
}

type fakeSettingsAPI struct {
	profile     core.Profile
	prefs       core.NotificationSettings
	profileErr  error
	passwordErr error
	prefsErr    error
	passwords   []core.PasswordChange
}

func (f *fakeSettingsAPI) Profile(context.Context) (core.Profile, error) {
	return f.profile, f.profileErr
}

func (f *fakeSettingsAPI) UpdateProfile(_ context.Context, p core.Profile) error {
	if f.profileErr != nil {
		return f.profileErr
	}
	f.profile = p
	return nil
}

func (f *fakeSettingsAPI) ChangePassword(_ context.Context, pc core.PasswordChange) error {
	f.passwords = append(f.passwords, pc)
	return f.passwordErr
}

func (f *fakeSettingsAPI) NotificationSettings(context.Context) (core.NotificationSettings, error) {
	return f.prefs, f.prefsErr
}

func (f *fakeSettingsAPI) UpdateNotificationSettings(_ context.Context, ns core.NotificationSettings) error {
	if f.prefsErr != nil {
		return f.prefsErr
	}
	f.prefs = ns
	return nil
}

// manualClock collects scheduled callbacks until the test fires them.
type manualClock struct {
	mu      sync.Mutex
	pending []func()
	delays  []time.Duration
}

func (c *manualClock) schedule(d time.Duration, f func()) func() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, f)
	c.delays = append(c.delays, d)
	return func() bool { return false }
}

func (c *manualClock) fireAll() {
	c.mu.Lock()
	fns := c.pending
	c.pending = nil
	c.mu.Unlock()
	for _, f := range fns {
		f()
	}
}

func newTestNotifier(clock *manualClock) *NotificationCenter {
	return NewNotificationCenter(&fakeCollection[core.Notification]{}, WithScheduler(clock.schedule))
}

func unauthorized() error {
	return fmt.Errorf("GET /api/x: %w", api.ErrUnauthorized)
}

func toastMessages(n *NotificationCenter) []string {
	var out []string
	for _, t := range n.Visible() {
		out = append(out, t.Message)
	}
	return out
}
