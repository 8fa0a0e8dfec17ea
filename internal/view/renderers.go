package view

import (
	"html/template"
	"time"

	"fintrack/internal/core"
)

// RecentLimit is how many transactions the dashboard feed shows.
const RecentLimit = 4

var categoryIcons = map[string]string{
	"groceries":      "fa-shopping-basket",
	"utilities":      "fa-lightbulb",
	"transportation": "fa-car",
	"entertainment":  "fa-film",
	"healthcare":     "fa-heart",
	"salary":         "fa-money-bill-wave",
	"dining":         "fa-utensils",
	"shopping":       "fa-shopping-bag",
	"other":          "fa-question",
}

var categoryColors = map[string]string{
	"groceries":      "bg-red-100 text-red-500",
	"utilities":      "bg-purple-100 text-purple-500",
	"transportation": "bg-blue-100 text-blue-500",
	"entertainment":  "bg-green-100 text-green-500",
	"healthcare":     "bg-pink-100 text-pink-500",
	"salary":         "bg-green-100 text-green-500",
	"dining":         "bg-orange-100 text-orange-500",
	"shopping":       "bg-indigo-100 text-indigo-500",
	"other":          "bg-gray-100 text-gray-500",
}

func CategoryIcon(category string) string {
	if icon, ok := categoryIcons[category]; ok {
		return icon
	}
	return "fa-question"
}

func CategoryColor(category string) string {
	if c, ok := categoryColors[category]; ok {
		return c
	}
	return "bg-gray-100 text-gray-500"
}

var categoryOrder = []string{
	"groceries", "utilities", "transportation", "entertainment",
	"healthcare", "salary", "dining", "shopping", "other",
}

// Categories lists the known transaction categories in form order.
func Categories() []string {
	return append([]string(nil), categoryOrder...)
}

// BalanceMetric is the data-editable-metric name of the one editable card.
const BalanceMetric = "totalBalance"

type summaryCard struct {
	Label    string
	Metric   string
	Value    string
	Editable bool
}

// Summary renders the four headline cards. A nil summary renders zeros.
// balanceText, when set, replaces the formatted total balance; it carries the
// inline editor's current display value.
func Summary(s *core.DashboardSummary, balanceText string) template.HTML {
	var data core.DashboardSummary
	if s != nil {
		data = *s
	}
	if balanceText == "" {
		balanceText = core.FormatCurrency(data.TotalBalance)
	}
	cards := []summaryCard{
		{Label: "Total Balance", Metric: BalanceMetric, Value: balanceText, Editable: true},
		{Label: "Monthly Income", Metric: "monthlyIncome", Value: core.FormatCurrency(data.MonthlyIncome)},
		{Label: "Monthly Expenses", Metric: "monthlyExpenses", Value: core.FormatCurrency(data.MonthlyExpenses)},
		{Label: "Savings Goal", Metric: "savingsGoal", Value: core.FormatCurrency(data.SavingsGoal)},
	}
	return render("summary_cards", cards)
}

type transactionRow struct {
	ID          string
	Date        string
	When        string
	Title       string
	Description string
	Category    string
	Type        string
	Amount      string
	Sign        string
	AmountClass string
	Icon        string
	IconClass   string
}

func transactionRows(txs []core.Transaction, now time.Time) []transactionRow {
	rows := make([]transactionRow, 0, len(txs))
	for _, tx := range txs {
		title := tx.Description
		if title == "" {
			title = tx.Category
		}
		class := "danger"
		if tx.Type == core.Income {
			class = "secondary"
		}
		rows = append(rows, transactionRow{
			ID:          tx.ID.String(),
			Date:        tx.Date.String(),
			When:        RelativeDate(tx.Date, now),
			Title:       title,
			Description: tx.Description,
			Category:    tx.Category,
			Type:        string(tx.Type),
			Amount:      core.FormatCurrency(tx.Amount),
			Sign:        tx.Type.Sign(),
			AmountClass: class,
			Icon:        CategoryIcon(tx.Category),
			IconClass:   CategoryColor(tx.Category),
		})
	}
	return rows
}

// RecentTransactions renders the dashboard feed: the first RecentLimit items.
func RecentTransactions(txs []core.Transaction, now time.Time) template.HTML {
	if len(txs) == 0 {
		return EmptyState(EmptyTransactions)
	}
	if len(txs) > RecentLimit {
		txs = txs[:RecentLimit]
	}
	return render("recent_transactions", transactionRows(txs, now))
}

// TransactionTable renders every transaction as a table.
func TransactionTable(txs []core.Transaction) template.HTML {
	if len(txs) == 0 {
		return EmptyState(EmptyTransactions)
	}
	return render("transaction_table", transactionRows(txs, time.Time{}))
}

type progressRow struct {
	ID       string
	Title    string
	Subtitle string
	Current  string
	Target   string
	Width    string
	Percent  int64
	Level    string
	Due      string
	Ordinal  string
}

func budgetRows(budgets []core.Budget) []progressRow {
	rows := make([]progressRow, 0, len(budgets))
	for _, b := range budgets {
		p := b.Progress()
		rows = append(rows, progressRow{
			Title:    b.Category,
			Subtitle: b.Period,
			Current:  core.FormatCurrency(b.Spent),
			Target:   core.FormatCurrency(b.Limit),
			Width:    p.BarWidth().String(),
			Percent:  p.Rounded(),
			Level:    p.Level(),
		})
	}
	return rows
}

// BudgetProgress renders the compact dashboard bars.
func BudgetProgress(budgets []core.Budget) template.HTML {
	if len(budgets) == 0 {
		return EmptyState(EmptyBudgets)
	}
	return render("budget_progress", budgetRows(budgets))
}

// BudgetCards renders the budgets page.
func BudgetCards(budgets []core.Budget) template.HTML {
	if len(budgets) == 0 {
		return EmptyState(EmptyBudgets)
	}
	return render("budget_cards", budgetRows(budgets))
}

// goalRows labels each goal with the ordinal of its display position, which
// is the priority the server assigns after a reorder.
func goalRows(goals []core.SavingsGoal) []progressRow {
	rows := make([]progressRow, 0, len(goals))
	for i, g := range goals {
		p := g.Progress()
		due := ""
		if !g.TargetDate.IsEmpty() {
			due = g.TargetDate.Format("Jan 2, 2006")
		}
		rows = append(rows, progressRow{
			ID:      g.ID.String(),
			Title:   g.Name,
			Current: core.FormatCurrency(g.Current),
			Target:  core.FormatCurrency(g.Target),
			Width:   p.BarWidth().String(),
			Percent: p.Rounded(),
			Due:     due,
			Ordinal: core.Ordinal(i + 1),
		})
	}
	return rows
}

// GoalsOverview renders the dashboard savings panel.
func GoalsOverview(goals []core.SavingsGoal) template.HTML {
	if len(goals) == 0 {
		return EmptyState(EmptySavingsGoals)
	}
	return render("goals_overview", goalRows(goals))
}

// GoalCards renders the sortable savings page list in the given order.
func GoalCards(goals []core.SavingsGoal) template.HTML {
	if len(goals) == 0 {
		return EmptyState(EmptySavingsGoals)
	}
	return render("goal_cards", goalRows(goals))
}

func FamilyMembers(members []core.FamilyMember) template.HTML {
	if len(members) == 0 {
		return EmptyState(EmptyFamilyMembers)
	}
	return render("member_cards", members)
}

type notificationRow struct {
	Message   string
	TextClass string
	When      string
}

// Notifications renders the alert dropdown list.
func Notifications(list []core.Notification, now time.Time) template.HTML {
	if len(list) == 0 {
		return EmptyState(EmptyNotifications)
	}
	rows := make([]notificationRow, 0, len(list))
	for _, n := range list {
		class := "text-gray-700"
		switch n.Type {
		case core.NotificationWarning:
			class = "text-yellow-600"
		case core.NotificationError:
			class = "text-red-600"
		}
		rows = append(rows, notificationRow{Message: n.Message, TextClass: class, When: RelativeDate(n.CreatedAt, now)})
	}
	return render("notification_items", rows)
}

// Toast is one transient message.
type Toast struct {
	ID      string
	Kind    string
	Message string
}

// Toasts renders the stacked toasts; concurrent toasts simply stack.
func Toasts(toasts []Toast) template.HTML {
	return render("toasts", toasts)
}

// ChatLine is one transcript entry; Sender is "user" or "bot".
type ChatLine struct {
	Sender string
	Text   string
}

func ChatTranscript(lines []ChatLine) template.HTML {
	return render("chat_transcript", lines)
}

type confirmBar struct {
	Message string
	Action  string
	Fields  map[string]string
}

// ConfirmBar renders the non-blocking yes/no bar. Both buttons post back to
// action with fields plus confirmed=true or confirmed=false.
func ConfirmBar(message, action string, fields map[string]string) template.HTML {
	return render("confirm_bar", confirmBar{Message: message, Action: action, Fields: fields})
}
