// Package view renders controller state into HTML fragments.
//
// Every renderer is a pure function of its input: the same data always yields
// the same markup, and an empty or nil collection always yields the fixed
// empty-state block for that collection. A Region holds the last fragment
// rendered into one replaceable part of a page.
package view

import (
	"bytes"
	"embed"
	"html/template"
	"strconv"
	"sync"
	"time"

	"fintrack/internal/core"
)

//go:embed templates/*.html
var templatesFS embed.FS

var fragments = template.Must(template.New("fragments").Funcs(template.FuncMap{
	"currency": core.FormatCurrency,
	"ordinal":  core.Ordinal,
}).ParseFS(templatesFS, "templates/*.html"))

// Region is one independently replaceable fragment of a page.
// Replace swaps the content wholesale; nothing is ever appended.
type Region struct {
	mu   sync.RWMutex
	id   string
	html template.HTML
}

func NewRegion(id string, initial template.HTML) *Region {
	return &Region{id: id, html: initial}
}

// ID is the DOM id htmx targets when swapping this region.
func (r *Region) ID() string {
	return r.id
}

func (r *Region) Replace(h template.HTML) {
	r.mu.Lock()
	r.html = h
	r.mu.Unlock()
}

func (r *Region) HTML() template.HTML {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.html
}

// EmptyKind selects the placeholder shown for an empty collection.
type EmptyKind string

const (
	EmptyTransactions  EmptyKind = "transactions"
	EmptyBudgets       EmptyKind = "budgets"
	EmptySavingsGoals  EmptyKind = "savings_goals"
	EmptyFamilyMembers EmptyKind = "family_members"
	EmptyNotifications EmptyKind = "notifications"
)

type emptyState struct {
	Icon, Title, Hint string
}

var emptyStates = map[EmptyKind]emptyState{
	EmptyTransactions:  {Icon: "fa-receipt", Title: "No transactions yet", Hint: "Add your first transaction to get started"},
	EmptyBudgets:       {Icon: "fa-bullseye", Title: "No budgets set yet", Hint: "Create budgets to track your spending"},
	EmptySavingsGoals:  {Icon: "fa-piggy-bank", Title: "No savings goals yet", Hint: "Set your first savings goal to start building wealth"},
	EmptyFamilyMembers: {Icon: "fa-users", Title: "No family members yet", Hint: "Add a member to share your household finances"},
	EmptyNotifications: {Icon: "fa-bell", Title: "No alerts", Hint: "You're all caught up"},
}

// EmptyState renders the fixed placeholder for kind.
func EmptyState(kind EmptyKind) template.HTML {
	es, ok := emptyStates[kind]
	if !ok {
		es = emptyState{Icon: "fa-inbox", Title: "Nothing here yet"}
	}
	return render("empty_state", es)
}

func render(name string, data any) template.HTML {
	var buf bytes.Buffer
	if err := fragments.ExecuteTemplate(&buf, name, data); err != nil {
		return template.HTML(`<div class="placeholder">` + template.HTMLEscapeString("Error rendering "+name) + `</div>`)
	}
	return template.HTML(buf.String())
}

// RelativeDate labels a date the way the activity feeds do:
// Today, Yesterday, "N days ago" within a week, then "Jan 2" (with the year
// when it differs from now).
func RelativeDate(d core.Date, now time.Time) string {
	if d.IsEmpty() {
		return ""
	}
	y, m, day := now.Date()
	today := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	dy, dm, dd := d.Date()
	then := time.Date(dy, dm, dd, 0, 0, 0, 0, time.UTC)

	days := int(today.Sub(then).Hours() / 24)
	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days > 1 && days < 7:
		return strconv.Itoa(days) + " days ago"
	}
	if dy != y {
		return then.Format("Jan 2, 2006")
	}
	return then.Format("Jan 2")
}
