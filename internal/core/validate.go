package core

import (
	"strings"
)

// ValidationError aggregates every problem found in a form so they can be
// shown together in a single message.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, ", ")
}

// ValidateTransactionForm checks a create-transaction form before any
// request is made. It returns nil or a *ValidationError.
func ValidateTransactionForm(f Form) error {
	var problems []string

	amount, err := ParseAmount(f.Get("amount"))
	if err != nil || !amount.IsPositive() {
		problems = append(problems, "Amount must be greater than 0")
	}
	if f.Get("category") == "" {
		problems = append(problems, "Please select a category")
	}
	if f.Get("date") == "" {
		problems = append(problems, "Please select a date")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// TransactionFromForm converts a validated form into a transaction draft.
// Type defaults to expense when the form does not say otherwise.
func TransactionFromForm(f Form) (Transaction, error) {
	if err := ValidateTransactionForm(f); err != nil {
		return Transaction{}, err
	}
	amount, _ := ParseAmount(f.Get("amount"))
	date, err := ParseDate(f.Get("date"))
	if err != nil {
		return Transaction{}, &ValidationError{Problems: []string{"Please select a date"}}
	}
	typ := TransactionType(f.Get("type"))
	if !typ.Valid() {
		typ = Expense
	}
	return Transaction{
		Date:        date,
		Category:    f.Get("category"),
		Description: f.Get("description"),
		Amount:      amount,
		Type:        typ,
	}, nil
}
