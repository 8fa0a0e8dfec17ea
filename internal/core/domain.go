package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

type (
	TransactionType string

	NotificationType string

	// ID is an opaque server-assigned identifier. The client never creates one.
	ID string

	Date struct {
		time.Time
	}

	// Form is a submitted form serialized as a flat key to string mapping.
	Form map[string]string

	Transaction struct {
		ID          ID              `json:"id,omitempty"`
		Date        Date            `json:"date"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		Type        TransactionType `json:"type"`
	}

	Budget struct {
		Category string          `json:"category"`
		Limit    decimal.Decimal `json:"limit"`
		Spent    decimal.Decimal `json:"spent"`
		Period   string          `json:"period"`
	}

	SavingsGoal struct {
		ID         ID              `json:"id"`
		Name       string          `json:"name"`
		Current    decimal.Decimal `json:"current"`
		Target     decimal.Decimal `json:"target"`
		TargetDate Date            `json:"target_date"`
		Priority   int             `json:"priority"`
	}

	// DashboardSummary carries the four headline figures. Missing fields decode to zero.
	DashboardSummary struct {
		TotalBalance    decimal.Decimal `json:"totalBalance"`
		MonthlyIncome   decimal.Decimal `json:"monthlyIncome"`
		MonthlyExpenses decimal.Decimal `json:"monthlyExpenses"`
		SavingsGoal     decimal.Decimal `json:"savingsGoal"`
	}

	Notification struct {
		Message   string           `json:"message"`
		Type      NotificationType `json:"type"`
		CreatedAt Date             `json:"created_at"`
	}

	FamilyMember struct {
		ID    ID     `json:"id,omitempty"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	AuthStatus struct {
		Authenticated bool            `json:"authenticated"`
		User          json.RawMessage `json:"user,omitempty"`
	}

	// ReceiptDraft is what the receipt parser extracted; it only prefills a form.
	ReceiptDraft struct {
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
		Date        string          `json:"date"`
	}

	Profile struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	PasswordChange struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
		ConfirmPassword string `json:"confirm_password"`
	}

	NotificationSettings struct {
		WeeklySummary  bool `json:"weekly_summary"`
		BudgetAlerts   bool `json:"budget_alerts"`
		SavingsUpdates bool `json:"savings_updates"`
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyCategory   = errors.New("empty category")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrEmptyName       = errors.New("empty name")
	ErrInvalidDateText = errors.New("invalid date")
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC1123,
}

// ParseDate accepts the date shapes the API is known to emit.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t}, nil
		}
	}
	return Date{}, ErrInvalidDateText
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// IsEmpty returns true if the date is zero (optional dates such as a goal's target date)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// String formats the date as YYYY-MM-DD, or "" when empty.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// UnmarshalJSON accepts both numeric and string ids.
func (id *ID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Sign is the prefix shown in front of the amount.
func (t TransactionType) Sign() string {
	if t == Income {
		return "+"
	}
	return "-"
}

func (t Transaction) Validate() error {
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

// Progress returns spent against limit.
func (b Budget) Progress() Progress {
	return NewProgress(b.Spent, b.Limit)
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if !b.Limit.IsPositive() {
		return ErrInvalidAmount
	}
	if b.Spent.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// Progress returns saved against target.
func (g SavingsGoal) Progress() Progress {
	return NewProgress(g.Current, g.Target)
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if !g.Target.IsPositive() {
		return ErrInvalidAmount
	}
	if g.Current.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// Get returns the trimmed value stored under key.
func (f Form) Get(key string) string {
	return strings.TrimSpace(f[key])
}

// Clone returns an independent copy of the form.
func (f Form) Clone() Form {
	out := make(Form, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
