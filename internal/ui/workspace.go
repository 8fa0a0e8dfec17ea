package ui

import (
	"time"

	"fintrack/internal/api"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/view"
)

// NewBudgetList builds the budgets page controller.
func NewBudgetList(source Collection[core.Budget], opts ...ListOption) *ResourceList[core.Budget] {
	return NewResourceList[core.Budget]("budgets", source, view.BudgetCards, opts...)
}

// NewFamilyMemberList builds the family members page controller.
func NewFamilyMemberList(source Collection[core.FamilyMember], opts ...ListOption) *ResourceList[core.FamilyMember] {
	return NewResourceList[core.FamilyMember]("family", source, view.FamilyMembers, opts...)
}

// Workspace is everything one browser session sees: every page controller,
// wired to one API client, sharing one toast center and one transaction form.
type Workspace struct {
	Redirects     *Redirects
	Notifications *NotificationCenter
	Transaction   *TransactionModal
	Dashboard     *Dashboard
	Transactions  *TransactionsPage
	Budgets       *ResourceList[core.Budget]
	Savings       *SavingsList
	Family        *ResourceList[core.FamilyMember]
	Settings      *Settings
	Chat          *ChatWidget
}

// WorkspaceConfig holds the per-deployment settings of a workspace.
type WorkspaceConfig struct {
	LoginURL      string
	ToastDuration time.Duration
	Logger        *log.Logger
}

// NewWorkspace wires a fresh set of controllers around client.
func NewWorkspace(client *api.Client, cfg WorkspaceConfig) *Workspace {
	logger := log.OrDefault(cfg.Logger, log.ComponentUI)
	nav := &Redirects{}
	listOpts := []ListOption{WithLogin(nav, cfg.LoginURL), WithListLogger(logger)}

	notifier := NewNotificationCenter(client.NotificationFeed(),
		WithToastDuration(cfg.ToastDuration),
		WithNotificationLogger(logger),
	)
	modal := NewTransactionModal(client, notifier, nav, cfg.LoginURL, logger)

	dashboard := NewDashboard(DashboardSources{
		API:          client,
		Transactions: client.Transactions(),
		Budgets:      client.Budgets(),
		Goals:        client.SavingsGoals(),
	}, notifier, modal, nav, cfg.LoginURL, logger)

	return &Workspace{
		Redirects:     nav,
		Notifications: notifier,
		Transaction:   modal,
		Dashboard:     dashboard,
		Transactions:  NewTransactionsPage(NewTransactionList(client.Transactions(), listOpts...), modal, client, notifier, logger),
		Budgets:       NewBudgetList(client.Budgets(), listOpts...),
		Savings:       NewSavingsList(client.SavingsGoals(), client, listOpts...),
		Family:        NewFamilyMemberList(client.FamilyMembers(), listOpts...),
		Settings:      NewSettings(client, notifier, nav, cfg.LoginURL, logger),
		Chat:          NewChatWidget(client, logger),
	}
}

// KeyDown closes every open modal of the workspace on Escape.
func (w *Workspace) KeyDown(key string) {
	if key != KeyEscape {
		return
	}
	w.Transaction.Close()
	w.Transactions.KeyDown(key)
	w.Budgets.KeyDown(key)
	w.Savings.KeyDown(key)
	w.Family.KeyDown(key)
}

// Regions returns every region of the workspace keyed by DOM id.
func (w *Workspace) Regions() map[string]*view.Region {
	out := make(map[string]*view.Region)
	for _, r := range w.Dashboard.Regions() {
		out[r.ID()] = r
	}
	for _, r := range []*view.Region{
		w.Transactions.Region(),
		w.Budgets.Region(),
		w.Savings.Region(),
		w.Family.Region(),
		w.Notifications.Region(),
		w.Chat.Region(),
	} {
		out[r.ID()] = r
	}
	return out
}
