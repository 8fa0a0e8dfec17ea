package ui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/api"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/view"
)

const (
	msgInvalidNumber  = "Please enter a valid number"
	msgBalanceSaved   = "Total balance updated"
	msgBalanceFailed  = "Could not save balance. Please try again shortly."
	balancePromptForm = "Set total balance to %s?"
)

// BalanceOutcome reports how an inline balance commit ended.
type BalanceOutcome int

const (
	BalanceInvalid BalanceOutcome = iota
	BalanceDeclined
	BalanceSaved
	BalanceFailed
)

func (o BalanceOutcome) String() string {
	switch o {
	case BalanceInvalid:
		return "invalid"
	case BalanceDeclined:
		return "declined"
	case BalanceSaved:
		return "saved"
	case BalanceFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// InlineMetric is the state of an in-place edited figure: what is shown now,
// and the text to roll back to.
type InlineMetric struct {
	display  string
	rollback string
	editing  bool
}

// Focus snapshots the shown text as the rollback value.
func (m *InlineMetric) Focus() {
	if !m.editing {
		m.rollback = m.display
		m.editing = true
	}
}

// Edit replaces the shown text, taking a snapshot first if needed.
func (m *InlineMetric) Edit(text string) {
	m.Focus()
	m.display = text
}

// Revert restores the snapshot and ends the edit.
func (m *InlineMetric) Revert() {
	if m.editing {
		m.display = m.rollback
	}
	m.editing = false
}

func (m *InlineMetric) Text() string {
	return m.display
}

// BalancePrompt is the confirmation question for setting the total balance.
func BalancePrompt(value string) string {
	return fmt.Sprintf(balancePromptForm, value)
}

type dashboardData struct {
	summary      *core.DashboardSummary
	transactions []core.Transaction
	budgets      []core.Budget
	goals        []core.SavingsGoal
}

// Dashboard aggregates the four dashboard reads and owns the inline total
// balance editor.
type Dashboard struct {
	mu           sync.Mutex
	api          DashboardAPI
	transactions Lister[core.Transaction]
	budgets      Lister[core.Budget]
	goals        Lister[core.SavingsGoal]
	notifier     *NotificationCenter
	modal        *TransactionModal
	gate         loginGate
	now          func() time.Time
	logger       *log.Logger

	data    dashboardData
	balance InlineMetric

	summaryRegion      *view.Region
	transactionsRegion *view.Region
	budgetsRegion      *view.Region
	goalsRegion        *view.Region
}

// DashboardSources groups the reads the dashboard fans out to.
type DashboardSources struct {
	API          DashboardAPI
	Transactions Lister[core.Transaction]
	Budgets      Lister[core.Budget]
	Goals        Lister[core.SavingsGoal]
}

func NewDashboard(src DashboardSources, notifier *NotificationCenter, modal *TransactionModal, nav Navigator, loginURL string, logger *log.Logger) *Dashboard {
	now := time.Now
	d := &Dashboard{
		api:                src.API,
		transactions:       src.Transactions,
		budgets:            src.Budgets,
		goals:              src.Goals,
		notifier:           notifier,
		modal:              modal,
		gate:               loginGate{nav: nav, loginURL: loginURL},
		now:                now,
		logger:             log.OrDefault(logger, log.ComponentUI),
		summaryRegion:      view.NewRegion("summary-cards", view.Summary(nil, "")),
		transactionsRegion: view.NewRegion("recent-transactions", view.RecentTransactions(nil, now())),
		budgetsRegion:      view.NewRegion("budget-list", view.BudgetProgress(nil)),
		goalsRegion:        view.NewRegion("savings-goals", view.GoalsOverview(nil)),
	}
	d.balance.display = core.FormatCurrency(core.DashboardSummary{}.TotalBalance)
	if modal != nil {
		modal.OnAdded(d.LoadData)
	}
	return d
}

// Open checks the session before anything is rendered. When the user is not
// logged in, or the check itself fails, it navigates to login and does no
// further work.
func (d *Dashboard) Open(ctx context.Context) bool {
	st, err := d.api.CheckAuth(ctx)
	if err != nil || !st.Authenticated {
		if err != nil {
			d.logger.WarnContext(ctx, "Auth check failed", log.FieldOperation, log.OpAuth, log.FieldError, err)
		}
		d.gate.toLogin()
		return false
	}
	d.LoadData(ctx)
	return true
}

// LoadData issues the four reads concurrently and renders only after all of
// them have settled. A failed read renders as that region's empty state.
func (d *Dashboard) LoadData(ctx context.Context) {
	var (
		next         dashboardData
		unauthorized bool
		authMu       sync.Mutex
	)
	settle := func(what string, err error) {
		d.logger.WarnContext(ctx, "Dashboard read failed", log.FieldOperation, log.OpLoad,
			log.FieldCollection, what, log.FieldError, err)
		if errors.Is(err, api.ErrUnauthorized) {
			authMu.Lock()
			unauthorized = true
			authMu.Unlock()
		}
	}

	var g errgroup.Group
	g.Go(func() error {
		s, err := d.api.Dashboard(ctx)
		if err != nil {
			settle("dashboard", err)
			return nil
		}
		next.summary = &s
		return nil
	})
	g.Go(func() error {
		items, err := d.transactions.List(ctx)
		if err != nil {
			settle("transactions", err)
			return nil
		}
		next.transactions = items
		return nil
	})
	g.Go(func() error {
		items, err := d.budgets.List(ctx)
		if err != nil {
			settle("budgets", err)
			return nil
		}
		next.budgets = items
		return nil
	})
	g.Go(func() error {
		items, err := d.goals.List(ctx)
		if err != nil {
			settle("savings_goals", err)
			return nil
		}
		next.goals = items
		return nil
	})
	_ = g.Wait()

	d.mu.Lock()
	d.data = next
	if !d.balance.editing {
		var total core.DashboardSummary
		if next.summary != nil {
			total = *next.summary
		}
		d.balance.display = core.FormatCurrency(total.TotalBalance)
	}
	d.renderLocked()
	d.mu.Unlock()

	if unauthorized {
		d.gate.toLogin()
	}
}

func (d *Dashboard) renderLocked() {
	d.summaryRegion.Replace(view.Summary(d.data.summary, d.balance.display))
	d.transactionsRegion.Replace(view.RecentTransactions(d.data.transactions, d.now()))
	d.budgetsRegion.Replace(view.BudgetProgress(d.data.budgets))
	d.goalsRegion.Replace(view.GoalsOverview(d.data.goals))
}

func (d *Dashboard) renderSummaryLocked() {
	d.summaryRegion.Replace(view.Summary(d.data.summary, d.balance.display))
}

// FocusBalance starts an inline edit of the total balance.
func (d *Dashboard) FocusBalance() {
	d.mu.Lock()
	d.balance.Focus()
	d.mu.Unlock()
}

// EditBalance sets the text typed into the balance field.
func (d *Dashboard) EditBalance(text string) {
	d.mu.Lock()
	d.balance.Edit(text)
	d.mu.Unlock()
}

// CancelBalance abandons the edit (Escape inside the field).
func (d *Dashboard) CancelBalance() {
	d.mu.Lock()
	d.balance.Revert()
	d.renderSummaryLocked()
	d.mu.Unlock()
}

// BalanceText is the balance currently displayed.
func (d *Dashboard) BalanceText() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.balance.Text()
}

// CommitBalance finishes an inline edit (blur). Unparseable text reverts with
// an error toast and no request. Otherwise the user is asked to confirm;
// declining reverts, accepting shows the new value at once and persists it.
// A failed save reverts with an error toast; a successful one reloads the
// whole dashboard.
func (d *Dashboard) CommitBalance(ctx context.Context, confirmer Confirmer) BalanceOutcome {
	d.mu.Lock()
	text := d.balance.Text()
	d.mu.Unlock()

	value, err := core.ParseMetricInput(text)
	if err != nil {
		d.revertBalance()
		d.notifier.Toast(ToastError, msgInvalidNumber)
		return BalanceInvalid
	}

	formatted := core.FormatCurrency(value)
	ok := false
	if confirmer != nil {
		ok, err = confirmer.Confirm(ctx, BalancePrompt(formatted))
		if err != nil {
			d.logger.WarnContext(ctx, "Balance confirmation failed", log.FieldOperation, log.OpUpdate, log.FieldError, err)
			ok = false
		}
	}
	if !ok {
		d.revertBalance()
		return BalanceDeclined
	}

	d.mu.Lock()
	d.balance.display = formatted
	d.renderSummaryLocked()
	d.mu.Unlock()

	if err := d.api.SetTotalBalance(ctx, value); err != nil {
		d.logger.ErrorContext(ctx, "Balance save failed", log.FieldOperation, log.OpUpdate, log.FieldError, err)
		d.revertBalance()
		if !d.gate.redirectIfUnauthorized(err) {
			d.notifier.Toast(ToastError, msgBalanceFailed)
		}
		return BalanceFailed
	}

	d.mu.Lock()
	d.balance.editing = false
	d.mu.Unlock()

	d.LoadData(ctx)
	d.notifier.Toast(ToastSuccess, msgBalanceSaved)
	return BalanceSaved
}

func (d *Dashboard) revertBalance() {
	d.mu.Lock()
	d.balance.Revert()
	d.renderSummaryLocked()
	d.mu.Unlock()
}

// KeyDown closes every open modal on Escape, wherever focus is.
func (d *Dashboard) KeyDown(key string) {
	if key != KeyEscape {
		return
	}
	if d.modal != nil {
		d.modal.Close()
	}
}

// Regions returns the four dashboard regions in render order.
func (d *Dashboard) Regions() []*view.Region {
	return []*view.Region{d.summaryRegion, d.transactionsRegion, d.budgetsRegion, d.goalsRegion}
}

func (d *Dashboard) SummaryRegion() *view.Region {
	return d.summaryRegion
}

func (d *Dashboard) Modal() *TransactionModal {
	return d.modal
}
