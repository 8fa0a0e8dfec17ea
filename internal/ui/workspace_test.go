package ui

import (
	"testing"
	"time"

	"fintrack/internal/api"
	"fintrack/internal/log"
)

func TestNewWorkspaceSharesTransactionForm(t *testing.T) {
	client := api.New("http://127.0.0.1:1", api.WithLogger(log.Discard()))
	w := NewWorkspace(client, WorkspaceConfig{LoginURL: "/login", ToastDuration: time.Second, Logger: log.Discard()})

	if w.Dashboard.Modal() != w.Transaction || w.Transactions.Modal() != w.Transaction {
		t.Fatal("dashboard and transactions page must share one transaction form")
	}
	if w.Notifications.Duration() != time.Second {
		t.Errorf("toast duration = %v, want 1s", w.Notifications.Duration())
	}

	w.Transaction.Open()
	w.Budgets.OpenCreateModal()
	w.Family.OpenCreateModal()
	w.KeyDown(KeyEscape)

	if w.Transaction.IsOpen() || w.Budgets.ModalOpen() || w.Family.ModalOpen() {
		t.Error("Escape left a modal open")
	}
}

func TestWorkspaceRegionIDs(t *testing.T) {
	w := NewWorkspace(api.New("http://127.0.0.1:1"), WorkspaceConfig{LoginURL: "/login"})

	want := map[string]string{
		"budgets":      w.Budgets.Region().ID(),
		"savings":      w.Savings.Region().ID(),
		"family":       w.Family.Region().ID(),
		"transactions": w.Transactions.Region().ID(),
	}
	for name, id := range want {
		if id != name+"-list" {
			t.Errorf("%s region id = %q, want %q", name, id, name+"-list")
		}
	}
}

func TestWorkspaceRegionsAreAddressable(t *testing.T) {
	w := NewWorkspace(api.New("http://127.0.0.1:1"), WorkspaceConfig{LoginURL: "/login"})

	regions := w.Regions()
	for _, id := range []string{
		"summary-cards", "recent-transactions", "budget-list", "savings-goals",
		"transactions-list", "budgets-list", "savings-list", "family-list",
		"notification-list", "chatbot-messages",
	} {
		if _, ok := regions[id]; !ok {
			t.Errorf("region %q not registered", id)
		}
	}
}
