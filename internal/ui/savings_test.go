package ui

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func newSavingsFixture(t *testing.T) (*fakeGoalServer, *SavingsList) {
	t.Helper()
	srv := &fakeGoalServer{}
	srv.items = []core.SavingsGoal{
		{ID: "a", Name: "Alpha", Current: dec("10"), Target: dec("100"), Priority: 1},
		{ID: "b", Name: "Bravo", Current: dec("20"), Target: dec("100"), Priority: 2},
		{ID: "c", Name: "Charlie", Current: dec("30"), Target: dec("100"), Priority: 3},
	}
	list := NewSavingsList(srv, srv, WithListLogger(log.Discard()))
	if err := list.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return srv, list
}

func names(goals []core.SavingsGoal) []string {
	out := make([]string, len(goals))
	for i, g := range goals {
		out[i] = g.Name
	}
	return out
}

func TestSavingsReorderRoundTrip(t *testing.T) {
	srv, list := newSavingsFixture(t)

	if err := list.BeginDrag("c"); err != nil {
		t.Fatalf("BeginDrag() error = %v", err)
	}
	if err := list.MoveTo("c", 0); err != nil {
		t.Fatalf("MoveTo() error = %v", err)
	}
	if err := list.Drop(context.Background()); err != nil {
		t.Fatalf("Drop() error = %v", err)
	}

	want := []core.ID{"c", "a", "b"}
	if len(srv.reorders) != 1 || !reflect.DeepEqual(srv.reorders[0], want) {
		t.Fatalf("reorder calls = %v, want [%v]", srv.reorders, want)
	}

	items := list.Items()
	if got := names(items); !reflect.DeepEqual(got, []string{"Charlie", "Alpha", "Bravo"}) {
		t.Errorf("order after reload = %v", got)
	}
	for i, g := range items {
		if g.Priority != i+1 {
			t.Errorf("%s priority = %d, want %d", g.Name, g.Priority, i+1)
		}
	}
	if list.State() != DragIdle {
		t.Errorf("State() = %v, want idle", list.State())
	}

	html := string(list.Region().HTML())
	if strings.Index(html, "Charlie") > strings.Index(html, "Alpha") {
		t.Errorf("region order does not follow the new priorities")
	}
}

func TestSavingsMoveToRendersImmediately(t *testing.T) {
	srv, list := newSavingsFixture(t)
	_ = list.BeginDrag("a")
	_ = list.MoveTo("a", 99)

	if got := list.OrderSnapshot(); !reflect.DeepEqual(got, []core.ID{"b", "c", "a"}) {
		t.Errorf("OrderSnapshot() = %v", got)
	}
	html := string(list.Region().HTML())
	if strings.Index(html, "Alpha") < strings.Index(html, "Charlie") {
		t.Errorf("region not re-rendered in dragged order")
	}
	if len(srv.reorders) != 0 {
		t.Errorf("MoveTo must not send anything")
	}
}

func TestSavingsCancelDragRestoresOrder(t *testing.T) {
	srv, list := newSavingsFixture(t)
	before := list.Region().HTML()

	_ = list.BeginDrag("a")
	_ = list.MoveTo("a", 2)
	list.CancelDrag()

	if got := list.OrderSnapshot(); !reflect.DeepEqual(got, []core.ID{"a", "b", "c"}) {
		t.Errorf("OrderSnapshot() = %v after cancel", got)
	}
	if list.Region().HTML() != before {
		t.Errorf("region not restored after cancel")
	}
	if len(srv.reorders) != 0 {
		t.Errorf("cancelled drag sent %d reorders", len(srv.reorders))
	}
	if list.State() != DragIdle {
		t.Errorf("State() = %v, want idle", list.State())
	}
}

func TestSavingsReloadDuringDragEndsIt(t *testing.T) {
	srv, list := newSavingsFixture(t)

	_ = list.BeginDrag("a")
	_ = list.MoveTo("a", 2)

	srv.mu.Lock()
	srv.items = append(srv.items, core.SavingsGoal{ID: "d", Name: "Delta", Target: dec("100"), Priority: 4})
	srv.mu.Unlock()
	if err := list.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if list.State() != DragIdle {
		t.Errorf("State() = %v after reload, want idle", list.State())
	}
	if err := list.MoveTo("a", 0); !errors.Is(err, ErrNotDragging) {
		t.Errorf("MoveTo() after reload error = %v, want ErrNotDragging", err)
	}
	list.CancelDrag()

	want := []string{"Alpha", "Bravo", "Charlie", "Delta"}
	if got := names(list.Items()); !reflect.DeepEqual(got, want) {
		t.Errorf("items after cancel = %v, want %v", got, want)
	}
	if !strings.Contains(string(list.Region().HTML()), "Delta") {
		t.Error("reloaded goal missing from region")
	}
}

func TestSavingsDropFailureKeepsDraggedOrder(t *testing.T) {
	srv, list := newSavingsFixture(t)
	srv.reorderErr = errBoom
	lists := srv.listCount()

	_ = list.BeginDrag("b")
	_ = list.MoveTo("b", 0)
	if err := list.Drop(context.Background()); err == nil {
		t.Fatal("Drop() error = nil, want failure")
	}

	if got := list.OrderSnapshot(); !reflect.DeepEqual(got, []core.ID{"b", "a", "c"}) {
		t.Errorf("OrderSnapshot() = %v, want dragged order kept", got)
	}
	if srv.listCount() != lists {
		t.Errorf("failed reorder triggered a refetch")
	}
	if list.State() != DragIdle {
		t.Errorf("State() = %v, want idle", list.State())
	}
}

func TestSavingsDragStateErrors(t *testing.T) {
	_, list := newSavingsFixture(t)

	if err := list.Drop(context.Background()); !errors.Is(err, ErrNotDragging) {
		t.Errorf("Drop() while idle = %v, want ErrNotDragging", err)
	}
	if err := list.MoveTo("a", 1); !errors.Is(err, ErrNotDragging) {
		t.Errorf("MoveTo() while idle = %v, want ErrNotDragging", err)
	}
	if err := list.BeginDrag("zzz"); !errors.Is(err, ErrUnknownGoal) {
		t.Errorf("BeginDrag(unknown) = %v, want ErrUnknownGoal", err)
	}
	_ = list.BeginDrag("a")
	if err := list.BeginDrag("b"); !errors.Is(err, ErrAlreadyDragging) {
		t.Errorf("second BeginDrag() = %v, want ErrAlreadyDragging", err)
	}
}

func TestSavingsApplyOrder(t *testing.T) {
	srv, list := newSavingsFixture(t)

	ids := []core.ID{"b", "c", "a"}
	if err := list.ApplyOrder(context.Background(), ids); err != nil {
		t.Fatalf("ApplyOrder() error = %v", err)
	}

	if !reflect.DeepEqual(srv.reorders, [][]core.ID{ids}) {
		t.Errorf("reorder calls = %v", srv.reorders)
	}
	if got := names(list.Items()); !reflect.DeepEqual(got, []string{"Bravo", "Charlie", "Alpha"}) {
		t.Errorf("order = %v", got)
	}
	if !strings.Contains(string(list.Region().HTML()), "1st") {
		t.Errorf("region missing ordinal labels")
	}
}

func TestOrderGoalsPutsUnlistedLast(t *testing.T) {
	goals := []core.SavingsGoal{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	got := goalIDs(orderGoals(goals, []core.ID{"c", "x", "c"}))
	if want := []core.ID{"c", "a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("orderGoals() = %v, want %v", got, want)
	}
}
