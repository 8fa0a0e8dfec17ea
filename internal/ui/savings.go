package ui

import (
	"context"
	"errors"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/view"
)

// DragState is the reorder state machine:
// Idle -> Dragging -> (Reordering -> Idle) | (cancelled -> Idle).
type DragState int

const (
	DragIdle DragState = iota
	DragDragging
	DragReordering
)

func (s DragState) String() string {
	switch s {
	case DragIdle:
		return "idle"
	case DragDragging:
		return "dragging"
	case DragReordering:
		return "reordering"
	default:
		return "unknown"
	}
}

var (
	ErrNotDragging     = errors.New("no drag in progress")
	ErrAlreadyDragging = errors.New("drag already in progress")
	ErrUnknownGoal     = errors.New("unknown savings goal")
)

// SavingsList is the savings goals page. On top of the list behaviour it lets
// the user drag goals into a new order; the shown order is applied at once and
// then sent as the complete id list, and the server's priorities are
// refetched once it confirms.
type SavingsList struct {
	*ResourceList[core.SavingsGoal]
	reorderer GoalReorderer

	// guarded by ResourceList.mu
	state   DragState
	preDrag []core.SavingsGoal
}

func NewSavingsList(source Collection[core.SavingsGoal], reorderer GoalReorderer, opts ...ListOption) *SavingsList {
	s := &SavingsList{
		ResourceList: NewResourceList[core.SavingsGoal]("savings", source, view.GoalCards, opts...),
		reorderer:    reorderer,
	}
	s.replaced = s.abandonDrag
	return s
}

// abandonDrag ends a drag overtaken by a reload: the fetched list is the
// truth now, so there is no earlier order left to restore.
func (s *SavingsList) abandonDrag() {
	s.preDrag = nil
	if s.state == DragDragging {
		s.state = DragIdle
	}
}

func (s *SavingsList) State() DragState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// BeginDrag snapshots the current order so a cancelled drag can restore it.
func (s *SavingsList) BeginDrag(id core.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != DragIdle {
		return ErrAlreadyDragging
	}
	if indexOfGoal(s.items, id) < 0 {
		return ErrUnknownGoal
	}
	s.preDrag = append([]core.SavingsGoal(nil), s.items...)
	s.state = DragDragging
	return nil
}

// MoveTo moves goal id to position index of the shown list. The index is
// clamped to the list bounds.
func (s *SavingsList) MoveTo(id core.ID, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != DragDragging {
		return ErrNotDragging
	}
	from := indexOfGoal(s.items, id)
	if from < 0 {
		return ErrUnknownGoal
	}
	goal := s.items[from]
	rest := append(append([]core.SavingsGoal(nil), s.items[:from]...), s.items[from+1:]...)
	if index < 0 {
		index = 0
	}
	if index > len(rest) {
		index = len(rest)
	}
	moved := make([]core.SavingsGoal, 0, len(s.items))
	moved = append(moved, rest[:index]...)
	moved = append(moved, goal)
	moved = append(moved, rest[index:]...)
	s.items = moved
	s.region.Replace(s.render(s.items))
	return nil
}

// CancelDrag restores the order from before the drag; nothing is sent.
func (s *SavingsList) CancelDrag() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != DragDragging {
		return
	}
	s.items = s.preDrag
	s.preDrag = nil
	s.state = DragIdle
	s.region.Replace(s.render(s.items))
}

// OrderSnapshot returns the ids in the order currently shown.
func (s *SavingsList) OrderSnapshot() []core.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return goalIDs(s.items)
}

// Drop sends the shown order to the server. On success the list is refetched
// so priorities come from the server; on failure the dragged order stays on
// screen unconfirmed and the error is only logged.
func (s *SavingsList) Drop(ctx context.Context) error {
	s.mu.Lock()
	if s.state != DragDragging {
		s.mu.Unlock()
		return ErrNotDragging
	}
	s.state = DragReordering
	ids := goalIDs(s.items)
	s.mu.Unlock()

	return s.persist(ctx, ids)
}

// ApplyOrder performs a whole drag in one step, for bindings where the
// browser already moved the cards and reports the resulting id order. Goals
// missing from ids keep their relative order after the listed ones. The ids
// are sent exactly as given.
func (s *SavingsList) ApplyOrder(ctx context.Context, ids []core.ID) error {
	s.mu.Lock()
	if s.state != DragIdle {
		s.mu.Unlock()
		return ErrAlreadyDragging
	}
	s.preDrag = append([]core.SavingsGoal(nil), s.items...)
	s.items = orderGoals(s.items, ids)
	s.region.Replace(s.render(s.items))
	s.state = DragReordering
	s.mu.Unlock()

	return s.persist(ctx, ids)
}

func (s *SavingsList) persist(ctx context.Context, ids []core.ID) error {
	err := s.reorderer.ReorderSavingsGoals(ctx, ids)

	s.mu.Lock()
	s.state = DragIdle
	s.preDrag = nil
	s.mu.Unlock()

	if err != nil {
		s.logger.ErrorContext(ctx, "Reorder failed, shown order is unconfirmed",
			log.FieldOperation, log.OpReorder, log.FieldCount, len(ids), log.FieldError, err)
		s.gate.redirectIfUnauthorized(err)
		return err
	}
	_ = s.Load(ctx)
	return nil
}

func indexOfGoal(goals []core.SavingsGoal, id core.ID) int {
	for i, g := range goals {
		if g.ID == id {
			return i
		}
	}
	return -1
}

func goalIDs(goals []core.SavingsGoal) []core.ID {
	ids := make([]core.ID, len(goals))
	for i, g := range goals {
		ids[i] = g.ID
	}
	return ids
}

func orderGoals(goals []core.SavingsGoal, ids []core.ID) []core.SavingsGoal {
	byID := make(map[core.ID]core.SavingsGoal, len(goals))
	for _, g := range goals {
		byID[g.ID] = g
	}
	out := make([]core.SavingsGoal, 0, len(goals))
	placed := make(map[core.ID]bool, len(ids))
	for _, id := range ids {
		if g, ok := byID[id]; ok && !placed[id] {
			out = append(out, g)
			placed[id] = true
		}
	}
	for _, g := range goals {
		if !placed[g.ID] {
			out = append(out, g)
		}
	}
	return out
}
