package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/events"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.LedgerEvent
	err    error
	closed bool
}

func (p *recordingPublisher) Publish(_ context.Context, e *events.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func newTestService(t *testing.T, pub events.Publisher) (*LedgerService, int64) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"), log.Discard())
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	u, err := repo.CreateUser(context.Background(), "Rossi", "rossi@example.com", "secret")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return NewLedgerService(repo, pub, log.Discard()), u.ID
}

func TestLedgerService_PublishesAfterEachWrite(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc, userID := newTestService(t, pub)

	txID, err := svc.CreateTransaction(ctx, userID, core.Transaction{
		Date: core.NewDate(2024, 3, 1), Category: "groceries", Amount: decimal.NewFromInt(20), Type: core.Expense,
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if _, err := svc.CreateBudget(ctx, userID, core.Budget{Category: "groceries", Limit: decimal.NewFromInt(300)}); err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}
	a, err := svc.CreateSavingsGoal(ctx, userID, core.SavingsGoal{Name: "Car", Target: decimal.NewFromInt(1000)})
	if err != nil {
		t.Fatalf("CreateSavingsGoal: %v", err)
	}
	b, err := svc.CreateSavingsGoal(ctx, userID, core.SavingsGoal{Name: "Trip", Target: decimal.NewFromInt(500)})
	if err != nil {
		t.Fatalf("CreateSavingsGoal: %v", err)
	}
	if err := svc.ReorderSavingsGoals(ctx, userID, []core.ID{b, a}); err != nil {
		t.Fatalf("ReorderSavingsGoals: %v", err)
	}
	if _, err := svc.CreateFamilyMember(ctx, userID, core.FamilyMember{Name: "Luca"}); err != nil {
		t.Fatalf("CreateFamilyMember: %v", err)
	}
	if err := svc.SetTotalBalance(ctx, userID, decimal.NewFromInt(900)); err != nil {
		t.Fatalf("SetTotalBalance: %v", err)
	}

	want := []string{
		events.TransactionCreated, events.BudgetCreated, events.GoalCreated, events.GoalCreated,
		events.GoalsReordered, events.MemberCreated, events.BalanceSet,
	}
	if got := pub.types(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("published %v, want %v", got, want)
	}

	first := pub.events[0]
	if first.UserID != userID || len(first.EntityIDs) != 1 || first.EntityIDs[0] != txID.String() {
		t.Errorf("transaction event = %+v", first)
	}
	if got := strings.Join(pub.events[4].EntityIDs, ","); got != b.String()+","+a.String() {
		t.Errorf("reorder event ids = %s", got)
	}
}

func TestLedgerService_FailedWriteIsNotPublished(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc, userID := newTestService(t, pub)

	_, err := svc.CreateTransaction(ctx, userID, core.Transaction{Category: "x", Amount: decimal.Zero, Type: core.Expense})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
	if err := svc.ReorderSavingsGoals(ctx, userID, []core.ID{"42"}); !errors.Is(err, storage.ErrIncompleteOrder) {
		t.Fatalf("err = %v, want ErrIncompleteOrder", err)
	}
	if n := len(pub.types()); n != 0 {
		t.Errorf("published %d events for failed writes", n)
	}
}

func TestLedgerService_PublishFailureDoesNotFailWrite(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc, userID := newTestService(t, pub)

	if _, err := svc.CreateFamilyMember(context.Background(), userID, core.FamilyMember{Name: "Giulia"}); err != nil {
		t.Fatalf("CreateFamilyMember: %v", err)
	}
}

func TestLedgerService_Close(t *testing.T) {
	t.Run("nil components", func(t *testing.T) {
		service := &LedgerService{}
		if err := service.Close(); err != nil {
			t.Fatalf("Close should not return error with nil components: %v", err)
		}
	})

	t.Run("closes publisher", func(t *testing.T) {
		pub := &recordingPublisher{}
		svc, _ := newTestService(t, pub)
		if err := svc.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
		if !pub.closed {
			t.Error("publisher not closed")
		}
	})
}

func TestNewLedgerService_NilPublisherDiscards(t *testing.T) {
	svc := NewLedgerService(nil, nil, nil)
	if _, ok := svc.publisher.(events.Discard); !ok {
		t.Errorf("publisher = %T, want events.Discard", svc.publisher)
	}
}
