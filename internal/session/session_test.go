package session

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"focusflow/internal/storage"
	"focusflow/internal/tasks"
	"focusflow/internal/view"
)

type harness struct {
	mem     *storage.Memory
	adapter *tasks.Adapter
	sess    *Session
	renders []Snapshot
}

func testTaskOptions() tasks.Options {
	n := 0
	clock := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	return tasks.Options{
		Now: func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		},
		NewID: func() string {
			n++
			return fmt.Sprintf("id%d", n)
		},
	}
}

func newHarness(t *testing.T, params view.Params) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &harness{mem: storage.NewMemory(storage.Options{})}
	h.adapter = tasks.NewAdapter(h.mem, "", logger, testTaskOptions())
	h.sess = New(h.adapter, Options{
		Params:   params,
		Logger:   logger,
		Tasks:    testTaskOptions(),
		OnRender: func(s Snapshot) { h.renders = append(h.renders, s) },
	})
	return h
}

func (h *harness) mustCreate(t *testing.T, title string, prio tasks.Priority) tasks.Task {
	t.Helper()
	task, err := h.sess.Create(title, tasks.Date{}, prio)
	if err != nil {
		t.Fatalf("Create(%q): %v", title, err)
	}
	return task
}

func (h *harness) stored(t *testing.T) []tasks.Task {
	t.Helper()
	return h.adapter.Load()
}

func viewIDs(s Snapshot) []string {
	out := make([]string, len(s.View))
	for i, task := range s.View {
		out[i] = task.ID
	}
	return out
}

func assertSelectionInView(t *testing.T, s Snapshot) {
	t.Helper()
	in := map[string]bool{}
	for _, task := range s.View {
		in[task.ID] = true
	}
	for _, id := range s.Selected {
		if !in[id] {
			t.Errorf("selected id %q is not in the view", id)
		}
	}
}

func TestCreateOrderAndPersistence(t *testing.T) {
	h := newHarness(t, view.Params{Filter: view.FilterAll, Sort: "none"})
	a := h.mustCreate(t, "Buy milk", tasks.PriorityMedium)
	b := h.mustCreate(t, "Call dentist", tasks.PriorityHigh)

	snap := h.sess.Snapshot()
	if diff := cmp.Diff([]string{b.ID, a.ID}, viewIDs(snap)); diff != "" {
		t.Errorf("view (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(snap.View, h.stored(t)); diff != "" {
		t.Errorf("persisted collection differs from memory:\n%s", diff)
	}
	if len(h.renders) != 3 {
		t.Errorf("renders: got %d, want 3 (startup + two creates)", len(h.renders))
	}
}

func TestCreateRejectsBlankTitle(t *testing.T) {
	h := newHarness(t, view.Params{})
	if _, err := h.sess.Create("   ", tasks.Date{}, ""); !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("Create blank: got %v, want ErrEmptyTitle", err)
	}
	if h.mem.SetCalls != 0 {
		t.Errorf("blank create must not write, got %d writes", h.mem.SetCalls)
	}
}

func TestSessionReloadsPersistedState(t *testing.T) {
	h := newHarness(t, view.Params{})
	h.mustCreate(t, "one", tasks.PriorityLow)
	two := h.mustCreate(t, "two", tasks.PriorityHigh)
	h.sess.Toggle(two.ID)
	h.sess.Close()

	again := New(h.adapter, Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	got, ok := again.Task(two.ID)
	if !ok || !got.Completed || got.Priority != tasks.PriorityHigh {
		t.Errorf("reloaded task: %+v, %v", got, ok)
	}
}

func TestSelectThenDeletePrunesSelection(t *testing.T) {
	h := newHarness(t, view.Params{})
	a := h.mustCreate(t, "A", tasks.PriorityMedium)
	h.mustCreate(t, "B", tasks.PriorityMedium)

	if !h.sess.ToggleSelect(a.ID) {
		t.Fatal("A should be selected")
	}
	if c := h.sess.RequestDelete(a.ID); c == nil || c.Kind != ConfirmDelete {
		t.Fatalf("RequestDelete: %+v", c)
	}
	if !h.sess.Confirm() {
		t.Fatal("Confirm should delete")
	}

	snap := h.sess.Snapshot()
	if snap.IsSelected(a.ID) {
		t.Error("deleted task is still selected")
	}
	if snap.CanCompleteSelected {
		t.Error("bulk complete should be disabled with an empty selection")
	}
	if _, ok := h.sess.Task(a.ID); ok {
		t.Error("task still in store")
	}
}

func TestDeleteCancel(t *testing.T) {
	h := newHarness(t, view.Params{})
	a := h.mustCreate(t, "A", tasks.PriorityMedium)
	writes := h.mem.SetCalls

	h.sess.RequestDelete(a.ID)
	if h.sess.Snapshot().Pending == nil {
		t.Fatal("snapshot should expose the pending confirmation")
	}
	h.sess.Cancel()

	if h.sess.Pending() != nil {
		t.Error("pending should be cleared")
	}
	if _, ok := h.sess.Task(a.ID); !ok {
		t.Error("cancel must keep the task")
	}
	if h.mem.SetCalls != writes {
		t.Error("cancel must not write")
	}
	if h.sess.Confirm() {
		t.Error("Confirm with nothing pending should do nothing")
	}
}

func TestRequestDeleteUnknown(t *testing.T) {
	h := newHarness(t, view.Params{})
	if c := h.sess.RequestDelete("ghost"); c != nil {
		t.Errorf("expected nil confirmation, got %+v", c)
	}
}

func TestFilterReconcilesSelection(t *testing.T) {
	h := newHarness(t, view.Params{})
	a := h.mustCreate(t, "Buy milk", tasks.PriorityMedium)
	c := h.mustCreate(t, "Buy milk", tasks.PriorityMedium)
	h.sess.Toggle(a.ID)
	h.sess.ToggleSelect(a.ID)
	h.sess.ToggleSelect(c.ID)

	h.sess.SetFilter(view.FilterCompleted)
	h.sess.SetQuery("milk")

	snap := h.sess.Snapshot()
	if diff := cmp.Diff([]string{a.ID}, viewIDs(snap)); diff != "" {
		t.Errorf("view (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{a.ID}, snap.Selected); diff != "" {
		t.Errorf("selection (-want +got):\n%s", diff)
	}

	h.sess.SetFilter(view.FilterAll)
	if h.sess.Snapshot().IsSelected(c.ID) {
		t.Error("pruned ids must not come back when the filter widens")
	}
}

func TestToggleSelectOutsideViewDoesNotStick(t *testing.T) {
	h := newHarness(t, view.Params{Filter: view.FilterActive})
	a := h.mustCreate(t, "A", tasks.PriorityMedium)
	h.sess.Toggle(a.ID)

	if h.sess.ToggleSelect(a.ID) {
		t.Error("completed task is hidden under the active filter and cannot be selected")
	}
	if len(h.sess.Snapshot().Selected) != 0 {
		t.Error("selection should be empty")
	}
}

func TestCompleteSelected(t *testing.T) {
	h := newHarness(t, view.Params{})
	a := h.mustCreate(t, "A", tasks.PriorityMedium)
	b := h.mustCreate(t, "B", tasks.PriorityMedium)
	h.mustCreate(t, "C", tasks.PriorityMedium)

	if h.sess.CompleteSelected() != 0 {
		t.Error("nothing selected, nothing completed")
	}
	h.sess.ToggleSelect(a.ID)
	h.sess.ToggleSelect(b.ID)
	writes := h.mem.SetCalls

	if n := h.sess.CompleteSelected(); n != 2 {
		t.Errorf("completed %d, want 2", n)
	}
	if h.mem.SetCalls != writes+1 {
		t.Errorf("bulk complete should write once, wrote %d times", h.mem.SetCalls-writes)
	}
	snap := h.sess.Snapshot()
	if len(snap.Selected) != 0 {
		t.Error("selection should be cleared after bulk complete")
	}
	if snap.Summary != (view.Summary{Visible: 3, Active: 1, Completed: 2}) {
		t.Errorf("summary: %+v", snap.Summary)
	}
	if !snap.CanClearCompleted {
		t.Error("clear completed should be enabled")
	}
}

func TestClearCompleted(t *testing.T) {
	h := newHarness(t, view.Params{})
	if h.sess.RequestClearCompleted() != nil {
		t.Fatal("no completed tasks: no confirmation should be requested")
	}

	a := h.mustCreate(t, "A", tasks.PriorityMedium)
	b := h.mustCreate(t, "B", tasks.PriorityMedium)
	h.sess.Toggle(a.ID)
	writes := h.mem.SetCalls

	c := h.sess.RequestClearCompleted()
	if c == nil || c.Kind != ConfirmClearCompleted {
		t.Fatalf("RequestClearCompleted: %+v", c)
	}
	if !h.sess.Confirm() {
		t.Fatal("Confirm should clear")
	}
	if h.mem.SetCalls != writes+1 {
		t.Errorf("clear should write once, wrote %d times", h.mem.SetCalls-writes)
	}
	if diff := cmp.Diff([]string{b.ID}, viewIDs(h.sess.Snapshot())); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if h.sess.Snapshot().CanClearCompleted {
		t.Error("nothing left to clear")
	}
}

func TestReorderScenarios(t *testing.T) {
	h := newHarness(t, view.Params{Filter: view.FilterAll, Sort: "manual"})
	a := h.mustCreate(t, "A", tasks.PriorityMedium)
	b := h.mustCreate(t, "B", tasks.PriorityMedium)
	writes := h.mem.SetCalls

	if h.sess.Reorder(a.ID, 5) {
		t.Error("reorder past the end must be rejected")
	}
	if h.sess.MoveBy(b.ID, -1) {
		t.Error("moving the first task up must be rejected")
	}
	if h.mem.SetCalls != writes {
		t.Error("rejected reorders must not write")
	}
	if !h.sess.MoveBy(b.ID, 1) {
		t.Error("moving B down should succeed")
	}
	if diff := cmp.Diff([]string{a.ID, b.ID}, viewIDs(h.sess.Snapshot())); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestDragOver(t *testing.T) {
	h := newHarness(t, view.Params{Filter: view.FilterAll, Sort: "manual"})
	c := h.mustCreate(t, "C", tasks.PriorityMedium)
	b := h.mustCreate(t, "B", tasks.PriorityMedium)
	a := h.mustCreate(t, "A", tasks.PriorityMedium)
	// manual order: A B C

	if h.sess.DragOver(a.ID, a.ID, true) {
		t.Error("dragging over itself is a no-op")
	}
	if h.sess.DragOver(c.ID, b.ID, true) {
		t.Error("C is already right after B")
	}
	if h.sess.DragOver(a.ID, c.ID, true) {
		t.Error("target past the end is rejected")
	}
	if !h.sess.DragOver(a.ID, c.ID, false) {
		t.Fatal("A over the top half of C should move")
	}
	if diff := cmp.Diff([]string{b.ID, c.ID, a.ID}, viewIDs(h.sess.Snapshot())); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestSortDoesNotChangeManualOrder(t *testing.T) {
	h := newHarness(t, view.Params{Filter: view.FilterAll, Sort: view.SortPriority, Dir: view.Desc})
	low := h.mustCreate(t, "low", tasks.PriorityLow)
	high := h.mustCreate(t, "high", tasks.PriorityHigh)
	h.sess.MoveBy(high.ID, 1)

	if diff := cmp.Diff([]string{high.ID, low.ID}, viewIDs(h.sess.Snapshot())); diff != "" {
		t.Errorf("sorted view (-want +got):\n%s", diff)
	}
	stored := h.stored(t)
	if stored[0].ID != low.ID || stored[1].ID != high.ID {
		t.Errorf("manual order should be [low, high], got [%s, %s]", stored[0].Title, stored[1].Title)
	}
}

func TestRename(t *testing.T) {
	h := newHarness(t, view.Params{})
	a := h.mustCreate(t, "Old", tasks.PriorityMedium)
	writes := h.mem.SetCalls

	if h.sess.Rename(a.ID, "   ") || h.sess.Rename(a.ID, " Old ") {
		t.Error("blank or unchanged titles abort the edit")
	}
	if h.mem.SetCalls != writes {
		t.Error("aborted edits must not write")
	}
	if !h.sess.Rename(a.ID, " New ") {
		t.Fatal("rename should apply")
	}
	if got, _ := h.sess.Task(a.ID); got.Title != "New" {
		t.Errorf("title: %q", got.Title)
	}
}

func TestToggleFirstVisible(t *testing.T) {
	h := newHarness(t, view.Params{Filter: view.FilterAll, Sort: view.SortCreated, Dir: view.Asc})
	if h.sess.ToggleFirstVisible() {
		t.Error("empty view: nothing to toggle")
	}
	first := h.mustCreate(t, "first", tasks.PriorityMedium)
	h.mustCreate(t, "second", tasks.PriorityMedium)

	if !h.sess.ToggleFirstVisible() {
		t.Fatal("expected a toggle")
	}
	if got, _ := h.sess.Task(first.ID); !got.Completed {
		t.Error("oldest task should be completed under created-asc")
	}
}

func TestSaveFailureKeepsMemoryState(t *testing.T) {
	h := newHarness(t, view.Params{})
	a := h.mustCreate(t, "A", tasks.PriorityMedium)
	h.mem.FailWrites(storage.ErrQuotaExceeded)

	b := h.mustCreate(t, "B", tasks.PriorityMedium)
	snap := h.sess.Snapshot()
	if !errors.Is(snap.SaveErr, storage.ErrQuotaExceeded) {
		t.Errorf("SaveErr: got %v", snap.SaveErr)
	}
	if diff := cmp.Diff([]string{b.ID, a.ID}, viewIDs(snap)); diff != "" {
		t.Errorf("memory state (-want +got):\n%s", diff)
	}
	if got := h.stored(t); len(got) != 1 {
		t.Errorf("stored: got %d tasks, want the 1 written before the failure", len(got))
	}

	h.mem.FailWrites(nil)
	h.sess.Toggle(a.ID)
	if h.sess.Snapshot().SaveErr != nil {
		t.Error("SaveErr should clear after a successful write")
	}
}

func TestClosedSessionIgnoresIntents(t *testing.T) {
	h := newHarness(t, view.Params{})
	a := h.mustCreate(t, "A", tasks.PriorityMedium)
	h.sess.Close()
	writes := h.mem.SetCalls

	if _, err := h.sess.Create("B", tasks.Date{}, ""); err == nil {
		t.Error("Create after Close should fail")
	}
	h.sess.Toggle(a.ID)
	h.sess.Reorder(a.ID, 0)
	if h.sess.RequestDelete(a.ID) != nil {
		t.Error("no confirmations after Close")
	}
	if h.mem.SetCalls != writes {
		t.Error("closed session must not write")
	}
}

func TestRandomIntentsKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	h := newHarness(t, view.Params{})
	filters := []view.Filter{view.FilterAll, view.FilterActive, view.FilterCompleted}
	queries := []string{"", "1", "task", "zz"}

	for i := 0; i < 400; i++ {
		snap := h.sess.Snapshot()
		pick := func() string {
			if len(snap.View) == 0 {
				return "missing"
			}
			return snap.View[rng.Intn(len(snap.View))].ID
		}
		switch rng.Intn(9) {
		case 0, 1:
			h.mustCreate(t, fmt.Sprintf("task %d", i), tasks.PriorityMedium)
		case 2:
			h.sess.Toggle(pick())
		case 3:
			h.sess.RequestDelete(pick())
			h.sess.Confirm()
		case 4:
			h.sess.Reorder(pick(), rng.Intn(10)-2)
		case 5:
			h.sess.ToggleSelect(pick())
		case 6:
			h.sess.SetFilter(filters[rng.Intn(len(filters))])
		case 7:
			h.sess.SetQuery(queries[rng.Intn(len(queries))])
		case 8:
			if rng.Intn(3) == 0 {
				h.sess.CompleteSelected()
			} else if h.sess.RequestClearCompleted() != nil {
				h.sess.Confirm()
			}
		}

		after := h.sess.Snapshot()
		assertSelectionInView(t, after)
		seen := map[string]bool{}
		for _, task := range h.stored(t) {
			if seen[task.ID] {
				t.Fatalf("step %d: duplicate id %q", i, task.ID)
			}
			seen[task.ID] = true
		}
	}
}
