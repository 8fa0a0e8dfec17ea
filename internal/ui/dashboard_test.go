package ui

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type dashboardFixture struct {
	api      *fakeDashboardAPI
	txs      *fakeCollection[core.Transaction]
	budgets  *fakeCollection[core.Budget]
	goals    *fakeCollection[core.SavingsGoal]
	notifier *NotificationCenter
	nav      *Redirects
	dash     *Dashboard
}

func newDashboardFixture() *dashboardFixture {
	f := &dashboardFixture{
		api: &fakeDashboardAPI{
			auth:    core.AuthStatus{Authenticated: true},
			summary: core.DashboardSummary{TotalBalance: dec("100"), MonthlyIncome: dec("40")},
		},
		txs: &fakeCollection[core.Transaction]{items: []core.Transaction{
			{ID: "1", Date: core.NewDate(2024, 5, 1), Category: "groceries", Description: "Groceries", Amount: dec("12"), Type: core.Expense},
		}},
		budgets: &fakeCollection[core.Budget]{items: []core.Budget{
			{Category: "Food", Limit: dec("100"), Spent: dec("25")},
		}},
		goals: &fakeCollection[core.SavingsGoal]{items: []core.SavingsGoal{
			{ID: "g1", Name: "Holiday", Current: dec("5"), Target: dec("10"), Priority: 1},
		}},
		notifier: newTestNotifier(&manualClock{}),
		nav:      &Redirects{},
	}
	f.dash = NewDashboard(DashboardSources{
		API:          f.api,
		Transactions: f.txs,
		Budgets:      f.budgets,
		Goals:        f.goals,
	}, f.notifier, nil, f.nav, "/login", log.Discard())
	return f
}

func (f *dashboardFixture) readCount() int {
	f.api.mu.Lock()
	n := f.api.summaries
	f.api.mu.Unlock()
	return n + f.txs.listCount() + f.budgets.listCount() + f.goals.listCount()
}

func TestDashboardOpenUnauthenticatedRedirects(t *testing.T) {
	tests := []struct {
		name    string
		auth    core.AuthStatus
		authErr error
	}{
		{"not authenticated", core.AuthStatus{Authenticated: false}, nil},
		{"check failed", core.AuthStatus{}, errBoom},
		{"check unauthorized", core.AuthStatus{}, unauthorized()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDashboardFixture()
			f.api.auth = tt.auth
			f.api.authErr = tt.authErr

			if f.dash.Open(context.Background()) {
				t.Error("Open() = true, want false")
			}
			if target, ok := f.nav.Take(); !ok || target != "/login" {
				t.Errorf("redirect = %q, %v; want /login", target, ok)
			}
			if n := f.readCount(); n != 0 {
				t.Errorf("data reads = %d, want 0", n)
			}
		})
	}
}

func TestDashboardOpenLoadsEverything(t *testing.T) {
	f := newDashboardFixture()

	if !f.dash.Open(context.Background()) {
		t.Fatal("Open() = false")
	}
	if n := f.readCount(); n != 4 {
		t.Errorf("data reads = %d, want 4", n)
	}
	if got := f.dash.BalanceText(); got != "$100.00" {
		t.Errorf("BalanceText() = %q, want $100.00", got)
	}
	regions := f.dash.Regions()
	for _, want := range []struct {
		idx  int
		text string
	}{{0, "$100.00"}, {1, "Groceries"}, {2, "Food"}, {3, "Holiday"}} {
		if !strings.Contains(string(regions[want.idx].HTML()), want.text) {
			t.Errorf("region %s missing %q", regions[want.idx].ID(), want.text)
		}
	}
}

func TestDashboardFanOutResilience(t *testing.T) {
	f := newDashboardFixture()
	f.budgets.listErr = errBoom

	f.dash.LoadData(context.Background())

	regions := f.dash.Regions()
	if !strings.Contains(string(regions[2].HTML()), "No budgets set yet") {
		t.Errorf("failed read should render empty state, got %s", regions[2].HTML())
	}
	if !strings.Contains(string(regions[1].HTML()), "Groceries") {
		t.Errorf("transactions region lost: %s", regions[1].HTML())
	}
	if !strings.Contains(string(regions[3].HTML()), "Holiday") {
		t.Errorf("goals region lost: %s", regions[3].HTML())
	}
	if _, ok := f.nav.Take(); ok {
		t.Error("plain read failure must not redirect")
	}
}

func TestDashboardReadUnauthorizedRedirects(t *testing.T) {
	f := newDashboardFixture()
	f.goals.listErr = unauthorized()

	f.dash.LoadData(context.Background())

	if target, ok := f.nav.Take(); !ok || target != "/login" {
		t.Errorf("redirect = %q, %v; want /login", target, ok)
	}
}

func TestDashboardBalanceInvalidInputRollsBack(t *testing.T) {
	f := newDashboardFixture()
	ctx := context.Background()
	f.dash.LoadData(ctx)

	f.dash.FocusBalance()
	f.dash.EditBalance("abc")
	var asked atomic.Bool
	out := f.dash.CommitBalance(ctx, ConfirmFunc(func(context.Context, string) (bool, error) {
		asked.Store(true)
		return true, nil
	}))

	if out != BalanceInvalid {
		t.Errorf("outcome = %v, want invalid", out)
	}
	if got := f.dash.BalanceText(); got != "$100.00" {
		t.Errorf("BalanceText() = %q, want rollback to $100.00", got)
	}
	if asked.Load() {
		t.Error("confirmation asked for unparseable input")
	}
	if len(f.api.sets) != 0 {
		t.Errorf("SetTotalBalance calls = %d, want 0", len(f.api.sets))
	}
	if got := toastMessages(f.notifier); len(got) != 1 || got[0] != msgInvalidNumber {
		t.Errorf("toasts = %v, want one %q", got, msgInvalidNumber)
	}
}

func TestDashboardBalanceDeclinedRollsBack(t *testing.T) {
	f := newDashboardFixture()
	ctx := context.Background()
	f.dash.LoadData(ctx)

	f.dash.FocusBalance()
	f.dash.EditBalance("250")
	var prompt string
	out := f.dash.CommitBalance(ctx, ConfirmFunc(func(_ context.Context, msg string) (bool, error) {
		prompt = msg
		return false, nil
	}))

	if out != BalanceDeclined {
		t.Errorf("outcome = %v, want declined", out)
	}
	if prompt != "Set total balance to $250.00?" {
		t.Errorf("prompt = %q", prompt)
	}
	if got := f.dash.BalanceText(); got != "$100.00" {
		t.Errorf("BalanceText() = %q, want $100.00", got)
	}
	if len(f.api.sets) != 0 {
		t.Errorf("SetTotalBalance calls = %d, want 0", len(f.api.sets))
	}
	if got := toastMessages(f.notifier); len(got) != 0 {
		t.Errorf("toasts = %v, want none", got)
	}
}

func TestDashboardBalanceConfirmErrorCountsAsDecline(t *testing.T) {
	f := newDashboardFixture()
	ctx := context.Background()
	f.dash.LoadData(ctx)

	f.dash.EditBalance("250")
	out := f.dash.CommitBalance(ctx, ConfirmFunc(func(context.Context, string) (bool, error) {
		return true, errBoom
	}))

	if out != BalanceDeclined || len(f.api.sets) != 0 {
		t.Errorf("outcome = %v with %d writes, want declined with none", out, len(f.api.sets))
	}
}

func TestDashboardBalanceSaved(t *testing.T) {
	f := newDashboardFixture()
	ctx := context.Background()
	f.dash.LoadData(ctx)
	reads := f.readCount()

	f.dash.FocusBalance()
	f.dash.EditBalance("$1,250.50")
	out := f.dash.CommitBalance(ctx, Answer(true))

	if out != BalanceSaved {
		t.Fatalf("outcome = %v, want saved", out)
	}
	if len(f.api.sets) != 1 || !f.api.sets[0].Equal(dec("1250.50")) {
		t.Errorf("SetTotalBalance calls = %v", f.api.sets)
	}
	if got := f.dash.BalanceText(); got != "$1,250.50" {
		t.Errorf("BalanceText() = %q, want $1,250.50", got)
	}
	if f.readCount() != reads+4 {
		t.Errorf("save did not reload the dashboard")
	}
	if got := toastMessages(f.notifier); len(got) != 1 || got[0] != msgBalanceSaved {
		t.Errorf("toasts = %v", got)
	}
}

func TestDashboardBalanceSaveFailure(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantToast bool
		wantLogin bool
	}{
		{"server error", errBoom, true, false},
		{"unauthorized", unauthorized(), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDashboardFixture()
			ctx := context.Background()
			f.dash.LoadData(ctx)
			f.api.setErr = tt.err

			f.dash.FocusBalance()
			f.dash.EditBalance("999")
			out := f.dash.CommitBalance(ctx, Answer(true))

			if out != BalanceFailed {
				t.Errorf("outcome = %v, want failed", out)
			}
			if got := f.dash.BalanceText(); got != "$100.00" {
				t.Errorf("BalanceText() = %q, want $100.00", got)
			}
			if got := len(toastMessages(f.notifier)) == 1; got != tt.wantToast {
				t.Errorf("toast shown = %v, want %v", got, tt.wantToast)
			}
			if _, ok := f.nav.Take(); ok != tt.wantLogin {
				t.Errorf("redirected = %v, want %v", ok, tt.wantLogin)
			}
		})
	}
}

func TestDashboardCancelBalance(t *testing.T) {
	f := newDashboardFixture()
	f.dash.LoadData(context.Background())

	f.dash.FocusBalance()
	f.dash.EditBalance("42")
	f.dash.CancelBalance()

	if got := f.dash.BalanceText(); got != "$100.00" {
		t.Errorf("BalanceText() = %q, want $100.00", got)
	}
	if !strings.Contains(string(f.dash.SummaryRegion().HTML()), "$100.00") {
		t.Errorf("summary region not restored")
	}
}

func TestDashboardReloadsAfterTransactionAdded(t *testing.T) {
	f := newDashboardFixture()
	creator := &fakeCreator{}
	modal := NewTransactionModal(creator, f.notifier, f.nav, "/login", log.Discard())
	dash := NewDashboard(DashboardSources{
		API:          f.api,
		Transactions: f.txs,
		Budgets:      f.budgets,
		Goals:        f.goals,
	}, f.notifier, modal, f.nav, "/login", log.Discard())

	modal.Open()
	ok := modal.Submit(context.Background(), core.Form{
		"amount": "10", "category": "dining", "date": "2024-05-02", "type": "expense",
	})
	if !ok {
		t.Fatal("Submit() = false")
	}
	if f.readCount() != 4 {
		t.Errorf("data reads = %d, want a full dashboard reload", f.readCount())
	}

	dash.KeyDown(KeyEscape)
	if modal.IsOpen() {
		t.Error("modal still open")
	}
}
