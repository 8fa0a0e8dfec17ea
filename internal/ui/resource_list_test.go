package ui

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func newBudgetFixture() (*fakeCollection[core.Budget], *ResourceList[core.Budget], *Redirects) {
	src := &fakeCollection[core.Budget]{items: []core.Budget{
		{Category: "Food", Limit: dec("200"), Spent: dec("50"), Period: "monthly"},
	}}
	nav := &Redirects{}
	list := NewBudgetList(src, WithLogin(nav, "/login"), WithListLogger(log.Discard()))
	return src, list, nav
}

func TestResourceListStartsWithEmptyState(t *testing.T) {
	_, list, _ := newBudgetFixture()
	if !strings.Contains(string(list.Region().HTML()), "No budgets set yet") {
		t.Errorf("initial region = %s, want empty state", list.Region().HTML())
	}
}

func TestResourceListLoadReplacesContent(t *testing.T) {
	_, list, _ := newBudgetFixture()
	if err := list.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := len(list.Items()); got != 1 {
		t.Fatalf("Items() = %d, want 1", got)
	}
	if !strings.Contains(string(list.Region().HTML()), "Food") {
		t.Errorf("region missing budget: %s", list.Region().HTML())
	}
}

func TestResourceListLoadFailureKeepsPreviousContent(t *testing.T) {
	src, list, nav := newBudgetFixture()
	ctx := context.Background()
	if err := list.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	before := list.Region().HTML()

	src.listErr = errBoom
	if err := list.Load(ctx); err == nil {
		t.Fatal("Load() error = nil, want failure")
	}
	if list.Region().HTML() != before {
		t.Errorf("region changed after failed load")
	}
	if len(list.Items()) != 1 {
		t.Errorf("items dropped after failed load")
	}
	if _, ok := nav.Take(); ok {
		t.Errorf("plain failure must not redirect")
	}
}

func TestResourceListUnauthorizedRedirects(t *testing.T) {
	src, list, nav := newBudgetFixture()
	src.listErr = unauthorized()

	_ = list.Load(context.Background())

	target, ok := nav.Take()
	if !ok || target != "/login" {
		t.Errorf("redirect = %q, %v; want /login", target, ok)
	}
}

func TestResourceListSubmitCreate(t *testing.T) {
	tests := []struct {
		name      string
		createErr error
		wantOK    bool
		wantOpen  bool
		wantLists int
	}{
		{"success closes and refetches", nil, true, false, 1},
		{"failure keeps modal open", errBoom, false, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, list, _ := newBudgetFixture()
			src.createErr = tt.createErr
			list.OpenCreateModal()

			form := core.Form{"category": "Travel", "limit": "300", "period": "monthly"}
			ok := list.SubmitCreate(context.Background(), form)

			if ok != tt.wantOK {
				t.Errorf("SubmitCreate() = %v, want %v", ok, tt.wantOK)
			}
			if list.ModalOpen() != tt.wantOpen {
				t.Errorf("ModalOpen() = %v, want %v", list.ModalOpen(), tt.wantOpen)
			}
			if src.listCount() != tt.wantLists {
				t.Errorf("list calls = %d, want %d", src.listCount(), tt.wantLists)
			}
			if len(src.created) != 1 || src.created[0]["category"] != "Travel" {
				t.Errorf("created = %v, want the submitted form", src.created)
			}
		})
	}
}

func TestResourceListFailedCreateKeepsTypedValues(t *testing.T) {
	src, list, _ := newBudgetFixture()
	src.createErr = errBoom
	list.OpenCreateModal()

	list.SubmitCreate(context.Background(), core.Form{"category": "Travel"})

	if got := list.ModalFields().Get("category"); got != "Travel" {
		t.Errorf("field category = %q, want Travel", got)
	}
}

func TestResourceListCloseResetsFields(t *testing.T) {
	src, list, _ := newBudgetFixture()
	src.createErr = errBoom
	list.OpenCreateModal()
	list.SubmitCreate(context.Background(), core.Form{"category": "Travel"})

	list.KeyDown(KeyEscape)

	if list.ModalOpen() {
		t.Error("Escape did not close the modal")
	}
	if got := list.ModalFields().Get("category"); got != "" {
		t.Errorf("field category = %q after close, want blank", got)
	}
}

func TestResourceListArrive(t *testing.T) {
	tests := []struct {
		query    string
		wantOpen bool
	}{
		{"", false},
		{"action=add", true},
		{"action=edit", false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			src, list, _ := newBudgetFixture()
			q, _ := url.ParseQuery(tt.query)

			list.Arrive(context.Background(), q)

			if list.ModalOpen() != tt.wantOpen {
				t.Errorf("ModalOpen() = %v, want %v", list.ModalOpen(), tt.wantOpen)
			}
			if src.listCount() != 1 {
				t.Errorf("list calls = %d, want 1", src.listCount())
			}
		})
	}
}
