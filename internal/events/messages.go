package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Ledger event types, used as routing keys.
const (
	TransactionCreated = "transaction.created"
	BudgetCreated      = "budget.created"
	GoalCreated        = "goal.created"
	GoalsReordered     = "goals.reordered"
	MemberCreated      = "member.created"
	BalanceSet         = "balance.set"
)

// LedgerEvent announces one change to a household's ledger. It carries ids
// only; consumers read the current state from the API.
type LedgerEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	UserID    int64     `json:"user_id"`
	EntityIDs []string  `json:"entity_ids,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(eventType string, userID int64, entityIDs ...string) *LedgerEvent {
	return &LedgerEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		EntityIDs: entityIDs,
		Timestamp: time.Now(),
	}
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
