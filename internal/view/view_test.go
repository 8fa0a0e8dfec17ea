package view

import (
	"html/template"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRenderersAreIdempotent(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	budgets := []core.Budget{{Category: "Food", Limit: dec("100"), Spent: dec("40"), Period: "monthly"}}
	goals := []core.SavingsGoal{{ID: "1", Name: "Car", Current: dec("10"), Target: dec("50"), Priority: 1}}
	txs := []core.Transaction{{ID: "7", Date: core.NewDate(2024, 5, 10), Category: "dining", Amount: dec("12"), Type: core.Expense}}

	tests := []struct {
		name   string
		render func() template.HTML
	}{
		{"budget cards", func() template.HTML { return BudgetCards(budgets) }},
		{"goal cards", func() template.HTML { return GoalCards(goals) }},
		{"recent transactions", func() template.HTML { return RecentTransactions(txs, now) }},
		{"transaction table", func() template.HTML { return TransactionTable(txs) }},
		{"summary", func() template.HTML { return Summary(&core.DashboardSummary{TotalBalance: dec("5")}, "") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			region := NewRegion("r", "")
			region.Replace(tt.render())
			first := region.HTML()
			region.Replace(tt.render())
			if region.HTML() != first {
				t.Errorf("second render differs:\n%s\n---\n%s", first, region.HTML())
			}
		})
	}
}

func TestEmptyStateTotality(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		got  template.HTML
		kind EmptyKind
	}{
		{"nil transactions", RecentTransactions(nil, now), EmptyTransactions},
		{"empty transaction table", TransactionTable([]core.Transaction{}), EmptyTransactions},
		{"nil budgets", BudgetProgress(nil), EmptyBudgets},
		{"empty budget cards", BudgetCards([]core.Budget{}), EmptyBudgets},
		{"nil goals", GoalsOverview(nil), EmptySavingsGoals},
		{"empty goal cards", GoalCards([]core.SavingsGoal{}), EmptySavingsGoals},
		{"nil members", FamilyMembers(nil), EmptyFamilyMembers},
		{"nil notifications", Notifications(nil, now), EmptyNotifications},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := EmptyState(tt.kind)
			if tt.got != want {
				t.Errorf("got %s, want empty state %s", tt.got, want)
			}
			if !strings.Contains(string(tt.got), emptyStates[tt.kind].Title) {
				t.Errorf("empty state missing title %q", emptyStates[tt.kind].Title)
			}
		})
	}
}

func TestBudgetBarIsClampedButPercentIsNot(t *testing.T) {
	out := string(BudgetCards([]core.Budget{{Category: "Fun", Limit: dec("100"), Spent: dec("150"), Period: "monthly"}}))

	if !strings.Contains(out, "width: 100%") {
		t.Errorf("bar width not clamped to 100: %s", out)
	}
	if !strings.Contains(out, "150%") {
		t.Errorf("percent text should be unclamped 150%%: %s", out)
	}
}

func TestGoalBarIsClamped(t *testing.T) {
	out := string(GoalsOverview([]core.SavingsGoal{{ID: "1", Name: "Trip", Current: dec("300"), Target: dec("200")}}))

	if !strings.Contains(out, "width: 100%") {
		t.Errorf("bar width not clamped: %s", out)
	}
	if !strings.Contains(out, "150%") {
		t.Errorf("percent text should be 150%%: %s", out)
	}
}

func TestGoalCardsOrdinalsFollowDisplayOrder(t *testing.T) {
	goals := []core.SavingsGoal{
		{ID: "c", Name: "C", Target: dec("1"), Priority: 3},
		{ID: "a", Name: "A", Target: dec("1"), Priority: 1},
		{ID: "b", Name: "B", Target: dec("1"), Priority: 2},
	}
	out := string(GoalCards(goals))

	for _, want := range []string{
		`data-id="c"`, `data-id="a"`, `data-id="b"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %s", want)
		}
	}
	if !(strings.Index(out, `data-id="c"`) < strings.Index(out, `data-id="a"`) &&
		strings.Index(out, `data-id="a"`) < strings.Index(out, `data-id="b"`)) {
		t.Error("cards not rendered in given order")
	}
	if !(strings.Index(out, "1st") < strings.Index(out, "2nd") && strings.Index(out, "2nd") < strings.Index(out, "3rd")) {
		t.Error("ordinals not assigned by position")
	}
}

func TestSummary(t *testing.T) {
	t.Run("nil renders zeros", func(t *testing.T) {
		out := string(Summary(nil, ""))
		if strings.Count(out, "$0.00") != 4 {
			t.Errorf("want four zero cards: %s", out)
		}
	})

	t.Run("balance text overrides", func(t *testing.T) {
		out := string(Summary(&core.DashboardSummary{TotalBalance: dec("10")}, "$99.00"))
		if !strings.Contains(out, "$99.00") || strings.Contains(out, "$10.00") {
			t.Errorf("balance text not used: %s", out)
		}
		if !strings.Contains(out, `data-editable-metric="totalBalance"`) {
			t.Error("balance card not editable")
		}
	})
}

func TestRecentTransactionsShowsFirstFour(t *testing.T) {
	var txs []core.Transaction
	for i := 0; i < 6; i++ {
		txs = append(txs, core.Transaction{Category: "other", Description: "tx" + string(rune('a'+i)), Amount: dec("1"), Type: core.Income})
	}
	out := string(RecentTransactions(txs, time.Now()))

	if strings.Count(out, "recent-transaction ") != RecentLimit {
		t.Errorf("want %d rows: %s", RecentLimit, out)
	}
	if strings.Contains(out, "txe") {
		t.Error("fifth transaction should not be shown")
	}
	if !strings.Contains(out, "text-secondary") {
		t.Error("income should use the secondary color")
	}
}

func TestRendererEscapesContent(t *testing.T) {
	out := string(FamilyMembers([]core.FamilyMember{{ID: "1", Name: "<script>x</script>", Email: "a@b"}}))
	if strings.Contains(out, "<script>") {
		t.Errorf("name not escaped: %s", out)
	}
}

func TestRelativeDate(t *testing.T) {
	now := time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC)
	tests := []struct {
		date core.Date
		want string
	}{
		{core.NewDate(2024, 5, 10), "Today"},
		{core.NewDate(2024, 5, 9), "Yesterday"},
		{core.NewDate(2024, 5, 6), "4 days ago"},
		{core.NewDate(2024, 4, 2), "Apr 2"},
		{core.NewDate(2023, 12, 25), "Dec 25, 2023"},
		{core.Date{}, ""},
	}

	for _, tt := range tests {
		if got := RelativeDate(tt.date, now); got != tt.want {
			t.Errorf("RelativeDate(%v) = %q, want %q", tt.date, got, tt.want)
		}
	}
}

func TestCategoryLookups(t *testing.T) {
	if CategoryIcon("dining") != "fa-utensils" {
		t.Error("dining icon")
	}
	if CategoryIcon("unknown") != "fa-question" {
		t.Error("fallback icon")
	}
	if CategoryColor("unknown") != "bg-gray-100 text-gray-500" {
		t.Error("fallback color")
	}
}

func TestCategoriesHaveIcons(t *testing.T) {
	cats := Categories()
	if len(cats) == 0 {
		t.Fatal("no categories")
	}
	for _, c := range cats {
		if _, ok := categoryIcons[c]; !ok {
			t.Errorf("category %q has no icon", c)
		}
	}
	cats[0] = "mutated"
	if Categories()[0] == "mutated" {
		t.Error("Categories() exposes its backing slice")
	}
}
