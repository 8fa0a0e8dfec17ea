package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Weekly spending thresholds for derived alerts, in dollars.
var (
	weeklyOverspendLimit  = decimal.NewFromInt(1500)
	categoryWeeklyLimit   = decimal.NewFromInt(800)
	weeklyGoodProgressCap = decimal.NewFromInt(800)
	budgetNearRatio       = decimal.RequireFromString("0.8")
)

const defaultTopCategory = "Food & Dining"

type keywordReply struct {
	words []string
	reply func(recent []core.Transaction) string
}

// ChatReply answers a chat message from keywords and the user's recent
// transactions, newest first. It never calls out to a model.
func ChatReply(message string, recent []core.Transaction) string {
	lower := strings.ToLower(message)
	for _, kr := range keywordReplies {
		for _, w := range kr.words {
			if strings.Contains(lower, w) {
				return kr.reply(recent)
			}
		}
	}

	top := topCategory(firstN(expenses(recent), 20))
	generic := []string{
		fmt.Sprintf("That's a great question! With %s as a focus area in your spending, I'd suggest reviewing that category monthly.", top),
		"Family financial planning works best with clear goals and regular tracking. Have you set up any savings targets this year?",
		fmt.Sprintf("Focus on the big expenses first (like %s), automate savings and review monthly. What area would you like to optimize?", top),
		"Every family's financial journey is unique. Consistent tracking, smart budgeting and clear goals are the key. What's your biggest priority right now?",
	}
	return generic[len(message)%len(generic)]
}

var keywordReplies = []keywordReply{
	{
		words: []string{"spend", "spent", "spending", "expense"},
		reply: func(recent []core.Transaction) string {
			spent := expenses(recent)
			if len(spent) == 0 {
				return "You haven't added any expenses yet! Start tracking them to get personalized spending insights."
			}
			return fmt.Sprintf("Based on your recent transactions, you've spent %s. Your top category is %s. Want insights on any category?",
				core.FormatCurrency(sum(firstN(spent, 10))), topCategory(firstN(spent, 20)))
		},
	},
	{
		words: []string{"food", "dining", "restaurant", "meal"},
		reply: func([]core.Transaction) string {
			return "Food spending can be tricky! Set a weekly dining budget, plan meals ahead and keep eating out to once a week."
		},
	},
	{
		words: []string{"save", "saving", "savings", "money"},
		reply: func([]core.Transaction) string {
			return "Automate a fixed monthly transfer to savings, wait 24 hours before big purchases and review subscriptions every quarter."
		},
	},
	{
		words: []string{"budget", "budgeting", "plan"},
		reply: func(recent []core.Transaction) string {
			return fmt.Sprintf("Try the 50/30/20 rule: 50%% for needs, 30%% for wants, 20%% for savings. Your %s spending fits well in this framework.",
				topCategory(firstN(expenses(recent), 20)))
		},
	},
	{
		words: []string{"goal", "goals", "target"},
		reply: func([]core.Transaction) string {
			return "Popular family goals: an emergency fund of six months of expenses, an education fund, a home down payment and a vacation fund. Which one interests you most?"
		},
	},
	{
		words: []string{"hello", "hi", "hey", "help"},
		reply: func([]core.Transaction) string {
			return "Hi there! I'm your family finance assistant. Ask me about budgeting, saving goals or spending patterns."
		},
	},
}

// DeriveAlerts builds the notification list from the last week of
// transactions and this month's budgets. With nothing to report it returns
// a welcome message and a tip.
func DeriveAlerts(now time.Time, week []core.Transaction, budgets []core.Budget) []core.Notification {
	today := core.Date{Time: now}
	var alerts []core.Notification
	add := func(typ core.NotificationType, format string, args ...any) {
		alerts = append(alerts, core.Notification{Message: fmt.Sprintf(format, args...), Type: typ, CreatedAt: today})
	}

	spent := expenses(week)
	if len(spent) > 0 {
		total := sum(spent)
		if total.GreaterThan(weeklyOverspendLimit) {
			add(core.NotificationError, "High spending alert: %s this week. Consider reviewing your budget.", core.FormatCurrency(total))
		}
		byCategory := totalsByCategory(spent)
		if top := topCategory(spent); byCategory[top].GreaterThan(categoryWeeklyLimit) {
			add(core.NotificationWarning, "%s spending is high this week (%s). Try setting a weekly limit.", top, core.FormatCurrency(byCategory[top]))
		}
		if total.LessThan(weeklyGoodProgressCap) {
			add(core.NotificationInfo, "Great job! You've kept spending under control this week (%s). Keep it up!", core.FormatCurrency(total))
		}
	}

	for _, b := range budgets {
		if !b.Limit.IsPositive() {
			continue
		}
		switch {
		case b.Spent.GreaterThanOrEqual(b.Limit):
			add(core.NotificationError, "You are over your %s budget: %s of %s spent.", b.Category, core.FormatCurrency(b.Spent), core.FormatCurrency(b.Limit))
		case b.Spent.GreaterThanOrEqual(b.Limit.Mul(budgetNearRatio)):
			add(core.NotificationWarning, "Your %s budget is nearly used: %s of %s spent.", b.Category, core.FormatCurrency(b.Spent), core.FormatCurrency(b.Limit))
		}
	}

	if len(alerts) == 0 {
		add(core.NotificationInfo, "Welcome! Start by adding your daily expenses to get personalized insights.")
		add(core.NotificationInfo, "Pro tip: set up budgets for categories like Food, Transport and Entertainment.")
	}
	return alerts
}

func expenses(txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if t.Type == core.Expense {
			out = append(out, t)
		}
	}
	return out
}

func firstN(txs []core.Transaction, n int) []core.Transaction {
	if len(txs) > n {
		return txs[:n]
	}
	return txs
}

func sum(txs []core.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		total = total.Add(t.Amount)
	}
	return total
}

func totalsByCategory(txs []core.Transaction) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, t := range txs {
		totals[t.Category] = totals[t.Category].Add(t.Amount)
	}
	return totals
}

// topCategory returns the category with the largest total, ties broken by name.
func topCategory(txs []core.Transaction) string {
	totals := totalsByCategory(txs)
	if len(totals) == 0 {
		return defaultTopCategory
	}
	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Strings(names)
	top := names[0]
	for _, name := range names[1:] {
		if totals[name].GreaterThan(totals[top]) {
			top = name
		}
	}
	return top
}
