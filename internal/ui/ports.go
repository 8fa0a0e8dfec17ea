// Package ui holds the per-session view-controllers of the finance client.
//
// Controllers keep every piece of business-relevant state (current lists,
// modal visibility, drag order, inline edits) in explicit fields, and push
// rendered fragments into view.Regions. They never return transport errors
// to the binding layer as failures of the page: a failed read keeps the prior
// fragment, a failed write is logged or surfaced as a toast, and a 401 always
// navigates to the login page.
package ui

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/api"
	"fintrack/internal/core"
)

// Lister reads one collection.
type Lister[T any] interface {
	List(ctx context.Context) ([]T, error)
}

// Collection reads a collection and creates items from a flat form.
type Collection[T any] interface {
	Lister[T]
	Create(ctx context.Context, form core.Form) error
}

type DashboardAPI interface {
	CheckAuth(ctx context.Context) (core.AuthStatus, error)
	Dashboard(ctx context.Context) (core.DashboardSummary, error)
	SetTotalBalance(ctx context.Context, value decimal.Decimal) error
}

type GoalReorderer interface {
	ReorderSavingsGoals(ctx context.Context, ids []core.ID) error
}

type ChatAPI interface {
	Chat(ctx context.Context, message string) (string, error)
}

type TransactionCreator interface {
	CreateTransaction(ctx context.Context, t core.Transaction) error
}

type ReceiptParser interface {
	ParseReceipt(ctx context.Context, filename string, image io.Reader) (core.ReceiptDraft, error)
}

type SettingsAPI interface {
	Profile(ctx context.Context) (core.Profile, error)
	UpdateProfile(ctx context.Context, p core.Profile) error
	ChangePassword(ctx context.Context, pc core.PasswordChange) error
	NotificationSettings(ctx context.Context) (core.NotificationSettings, error)
	UpdateNotificationSettings(ctx context.Context, ns core.NotificationSettings) error
}

// Confirmer asks the user a yes/no question without blocking the caller's
// other work. An error counts as "no".
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, message string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, message string) (bool, error) {
	return f(ctx, message)
}

// Answer returns a Confirmer that always gives the same answer.
func Answer(yes bool) Confirmer {
	return ConfirmFunc(func(context.Context, string) (bool, error) { return yes, nil })
}

// Navigator moves the browser to another page.
type Navigator interface {
	Navigate(url string)
}

// Redirects records the last navigation request until the binding layer
// takes it.
type Redirects struct {
	mu     sync.Mutex
	target string
}

func (r *Redirects) Navigate(url string) {
	r.mu.Lock()
	r.target = url
	r.mu.Unlock()
}

// Take returns and clears the pending target.
func (r *Redirects) Take() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	target := r.target
	r.target = ""
	return target, target != ""
}

// Scheduler runs f after d and returns a function that cancels it.
type Scheduler func(d time.Duration, f func()) (cancel func() bool)

// AfterFunc is the real-clock Scheduler.
func AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// loginGate sends the browser to the login page on auth failures.
type loginGate struct {
	nav      Navigator
	loginURL string
}

// redirectIfUnauthorized navigates to login when err is a 401 and reports
// whether it did.
func (g loginGate) redirectIfUnauthorized(err error) bool {
	if !errors.Is(err, api.ErrUnauthorized) {
		return false
	}
	g.toLogin()
	return true
}

func (g loginGate) toLogin() {
	if g.nav != nil {
		g.nav.Navigate(g.loginURL)
	}
}
