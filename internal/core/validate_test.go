package core

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateTransactionFormZeroAmount(t *testing.T) {
	err := ValidateTransactionForm(Form{"amount": "0", "category": "food", "date": "2024-01-01"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if !strings.Contains(err.Error(), "Amount must be greater than 0") {
		t.Fatalf("message %q missing amount problem", err.Error())
	}
	if len(verr.Problems) != 1 {
		t.Fatalf("expected one problem, got %v", verr.Problems)
	}
}

func TestValidateTransactionFormJoinsProblems(t *testing.T) {
	err := ValidateTransactionForm(Form{})
	if err == nil {
		t.Fatal("expected error")
	}
	want := "Amount must be greater than 0, Please select a category, Please select a date"
	if err.Error() != want {
		t.Fatalf("got %q want %q", err.Error(), want)
	}
}

func TestTransactionFromForm(t *testing.T) {
	tr, err := TransactionFromForm(Form{
		"amount":      "12.50",
		"category":    "food",
		"date":        "2024-01-01",
		"description": " lunch ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Type != Expense || tr.Description != "lunch" || tr.Amount.String() != "12.5" {
		t.Fatalf("unexpected transaction %+v", tr)
	}
	if tr.Date.String() != "2024-01-01" {
		t.Fatalf("date = %s", tr.Date)
	}
}
