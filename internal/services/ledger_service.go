// Package services orchestrates the development finance API's writes: each
// change is committed to SQLite first and then announced as a ledger event.
package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/events"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// LedgerService orchestrates ledger writes across SQLite and AMQP
type LedgerService struct {
	storage   *storage.SQLiteRepository
	publisher events.Publisher
	logger    *log.Logger
}

// NewLedgerService wires the repository to a publisher. A nil publisher drops
// every event.
func NewLedgerService(storage *storage.SQLiteRepository, publisher events.Publisher, logger *log.Logger) *LedgerService {
	if publisher == nil {
		publisher = events.Discard{}
	}
	return &LedgerService{
		storage:   storage,
		publisher: publisher,
		logger:    log.OrDefault(logger, log.ComponentDevAPI),
	}
}

func (s *LedgerService) CreateTransaction(ctx context.Context, userID int64, t core.Transaction) (core.ID, error) {
	id, err := s.storage.CreateTransaction(ctx, userID, t)
	if err != nil {
		return "", fmt.Errorf("save transaction: %w", err)
	}
	s.publish(ctx, events.TransactionCreated, userID, id.String())
	return id, nil
}

func (s *LedgerService) CreateBudget(ctx context.Context, userID int64, b core.Budget) (core.ID, error) {
	id, err := s.storage.CreateBudget(ctx, userID, b)
	if err != nil {
		return "", fmt.Errorf("save budget: %w", err)
	}
	s.publish(ctx, events.BudgetCreated, userID, id.String())
	return id, nil
}

func (s *LedgerService) CreateSavingsGoal(ctx context.Context, userID int64, g core.SavingsGoal) (core.ID, error) {
	id, err := s.storage.CreateSavingsGoal(ctx, userID, g)
	if err != nil {
		return "", fmt.Errorf("save savings goal: %w", err)
	}
	s.publish(ctx, events.GoalCreated, userID, id.String())
	return id, nil
}

// ReorderSavingsGoals stores the new priority order; ids must name every goal once.
func (s *LedgerService) ReorderSavingsGoals(ctx context.Context, userID int64, ids []core.ID) error {
	if err := s.storage.ReorderSavingsGoals(ctx, userID, ids); err != nil {
		return fmt.Errorf("reorder savings goals: %w", err)
	}
	entityIDs := make([]string, len(ids))
	for i, id := range ids {
		entityIDs[i] = id.String()
	}
	s.publish(ctx, events.GoalsReordered, userID, entityIDs...)
	return nil
}

func (s *LedgerService) CreateFamilyMember(ctx context.Context, userID int64, m core.FamilyMember) (core.ID, error) {
	id, err := s.storage.CreateFamilyMember(ctx, userID, m)
	if err != nil {
		return "", fmt.Errorf("save family member: %w", err)
	}
	s.publish(ctx, events.MemberCreated, userID, id.String())
	return id, nil
}

func (s *LedgerService) SetTotalBalance(ctx context.Context, userID int64, value decimal.Decimal) error {
	if err := s.storage.SetTotalBalance(ctx, userID, value); err != nil {
		return fmt.Errorf("set total balance: %w", err)
	}
	s.publish(ctx, events.BalanceSet, userID)
	return nil
}

// publish never fails the request: the write is already committed.
func (s *LedgerService) publish(ctx context.Context, eventType string, userID int64, ids ...string) {
	if err := s.publisher.Publish(ctx, events.NewLedgerEvent(eventType, userID, ids...)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger event",
			log.FieldOperation, log.OpPublish, "type", eventType, "user_id", userID, log.FieldError, err)
	}
}

// Close closes both storage and the publisher
func (s *LedgerService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}

	return nil
}
