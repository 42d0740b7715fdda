// Package session wires the task store, view parameters and selection into
// one engine. Every intent runs mutate, persist, recompute and reconcile to
// completion before returning, and the render hook only ever sees the
// finished state.
//
// A Session is not safe for concurrent use. The UI event loop is its only
// caller.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"focusflow/internal/selection"
	"focusflow/internal/tasks"
	"focusflow/internal/view"
)

var ErrEmptyTitle = errors.New("title cannot be empty")

// Persister loads and saves the whole collection. *tasks.Adapter implements it.
type Persister interface {
	Load() []tasks.Task
	Save([]tasks.Task) error
}

type ConfirmKind string

const (
	ConfirmDelete         ConfirmKind = "delete"
	ConfirmClearCompleted ConfirmKind = "clear-completed"
)

// Confirmation is a destructive action waiting for Confirm or Cancel.
type Confirmation struct {
	Kind   ConfirmKind
	TaskID string
	Prompt string
}

// Snapshot is everything the render surface needs after a recompute.
type Snapshot struct {
	View                []tasks.Task
	Summary             view.Summary
	CanCompleteSelected bool
	CanClearCompleted   bool
	Selected            []string
	Params              view.Params
	Pending             *Confirmation
	// SaveErr is the error from the most recent write, nil once a write
	// succeeds again.
	SaveErr error
}

// IsSelected reports whether id is in the snapshot's selection.
func (s Snapshot) IsSelected(id string) bool {
	for _, sel := range s.Selected {
		if sel == id {
			return true
		}
	}
	return false
}

type Options struct {
	// Params is the initial view. A zero Params means view.DefaultParams.
	Params   view.Params
	Logger   *slog.Logger
	Tasks    tasks.Options
	OnRender func(Snapshot)
}

type Session struct {
	persist  Persister
	store    *tasks.Store
	sel      *selection.Set
	params   view.Params
	current  []tasks.Task
	pending  *Confirmation
	saveErr  error
	onRender func(Snapshot)
	logger   *slog.Logger
	closed   bool
}

// New loads the persisted tasks and computes the first view.
func New(p Persister, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Params == (view.Params{}) {
		opts.Params = view.DefaultParams()
	}
	loaded := p.Load()
	s := &Session{
		persist:  p,
		store:    tasks.NewStore(loaded, opts.Tasks),
		sel:      selection.New(),
		params:   opts.Params,
		onRender: opts.OnRender,
		logger:   opts.Logger,
	}
	s.logger.Info("session started", "tasks", s.store.Len())
	s.refresh()
	return s
}

// Close ends the session. Later intents are ignored.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.pending = nil
	s.logger.Info("session closed", "tasks", s.store.Len())
}

// commit persists the store when changed is true and then refreshes.
func (s *Session) commit(changed bool) {
	if changed {
		s.saveErr = s.persist.Save(s.store.Tasks())
	}
	s.refresh()
}

// refresh recomputes the view, reconciles the selection and renders.
func (s *Session) refresh() {
	s.current = view.Derive(s.store.Tasks(), s.params)
	if n := s.sel.Reconcile(view.IDs(s.current)); n > 0 {
		s.logger.Debug("selection pruned", "count", n)
	}
	if s.onRender != nil {
		s.onRender(s.Snapshot())
	}
}

func (s *Session) Snapshot() Snapshot {
	all := s.store.Tasks()
	v := make([]tasks.Task, len(s.current))
	copy(v, s.current)
	var pending *Confirmation
	if s.pending != nil {
		c := *s.pending
		pending = &c
	}
	return Snapshot{
		View:                v,
		Summary:             view.Summarize(all, v),
		CanCompleteSelected: view.CanCompleteSelected(s.sel.Len()),
		CanClearCompleted:   view.CanClearCompleted(all),
		Selected:            s.sel.IDs(),
		Params:              s.params,
		Pending:             pending,
		SaveErr:             s.saveErr,
	}
}

// Task returns the stored task with id.
func (s *Session) Task(id string) (tasks.Task, bool) {
	return s.store.Get(id)
}

// Create adds a task at the front. Blank titles are rejected with
// ErrEmptyTitle and never reach the store.
func (s *Session) Create(title string, due tasks.Date, priority tasks.Priority) (tasks.Task, error) {
	if s.closed {
		return tasks.Task{}, errors.New("session is closed")
	}
	if strings.TrimSpace(title) == "" {
		return tasks.Task{}, ErrEmptyTitle
	}
	t := s.store.Create(title, due, priority)
	s.logger.Debug("task created", "id", t.ID)
	s.commit(true)
	return t, nil
}

func (s *Session) Update(id string, p tasks.Patch) bool {
	if s.closed {
		return false
	}
	ok := s.store.Update(id, p)
	if ok {
		s.commit(true)
	}
	return ok
}

// Toggle flips the completed flag of id.
func (s *Session) Toggle(id string) bool {
	t, ok := s.store.Get(id)
	if !ok {
		return false
	}
	done := !t.Completed
	return s.Update(id, tasks.Patch{Completed: &done})
}

// Rename commits an inline title edit. A blank or unchanged title aborts the
// edit and leaves the task alone.
func (s *Session) Rename(id, title string) bool {
	t, ok := s.store.Get(id)
	title = strings.TrimSpace(title)
	if !ok || title == "" || title == t.Title {
		return false
	}
	return s.Update(id, tasks.Patch{Title: &title})
}

// ToggleFirstVisible flips completion of the first task in the current view.
func (s *Session) ToggleFirstVisible() bool {
	if len(s.current) == 0 {
		return false
	}
	return s.Toggle(s.current[0].ID)
}

func (s *Session) Reorder(id string, target int) bool {
	if s.closed {
		return false
	}
	ok := s.store.Reorder(id, target)
	if ok {
		s.commit(true)
	}
	return ok
}

// MoveBy is the keyboard move: current manual index plus delta, rejected past
// either end.
func (s *Session) MoveBy(id string, delta int) bool {
	i := s.store.Index(id)
	if i < 0 {
		return false
	}
	return s.Reorder(id, i+delta)
}

// DragOver moves dragID to the slot before or after overID in manual order.
func (s *Session) DragOver(dragID, overID string, after bool) bool {
	if dragID == overID {
		return false
	}
	from, over := s.store.Index(dragID), s.store.Index(overID)
	if from < 0 || over < 0 {
		return false
	}
	target := over
	if after {
		target++
	}
	if target == from {
		return false
	}
	return s.Reorder(dragID, target)
}

// ToggleSelect flips selection of id. Ids outside the current view do not
// stay selected.
func (s *Session) ToggleSelect(id string) bool {
	if s.closed {
		return false
	}
	on := s.sel.Toggle(id)
	s.refresh()
	return on && s.sel.Has(id)
}

// CompleteSelected marks every selected task completed and clears the
// selection.
func (s *Session) CompleteSelected() int {
	if s.closed || !view.CanCompleteSelected(s.sel.Len()) {
		return 0
	}
	n := s.store.BulkComplete(s.sel.Members())
	s.sel.Clear()
	s.logger.Debug("bulk complete", "count", n)
	s.commit(n > 0)
	return n
}

func (s *Session) SetFilter(f view.Filter) {
	p := s.params
	p.Filter = f
	s.SetParams(p)
}

func (s *Session) SetQuery(q string) {
	p := s.params
	p.Query = q
	s.SetParams(p)
}

func (s *Session) SetSort(key view.SortKey, dir view.Direction) {
	p := s.params
	p.Sort, p.Dir = key, dir
	s.SetParams(p)
}

func (s *Session) SetParams(p view.Params) {
	if s.closed {
		return
	}
	s.params = p
	s.refresh()
}

func (s *Session) Params() view.Params {
	return s.params
}

// RequestDelete stages deletion of id. It returns nil for an unknown id.
func (s *Session) RequestDelete(id string) *Confirmation {
	t, ok := s.store.Get(id)
	if s.closed || !ok {
		return nil
	}
	return s.stage(&Confirmation{
		Kind:   ConfirmDelete,
		TaskID: id,
		Prompt: fmt.Sprintf("Delete %q?", t.Title),
	})
}

// RequestClearCompleted stages removal of all completed tasks. It returns
// nil, with no prompt, when nothing is completed.
func (s *Session) RequestClearCompleted() *Confirmation {
	if s.closed || !s.store.HasCompleted() {
		return nil
	}
	return s.stage(&Confirmation{
		Kind:   ConfirmClearCompleted,
		Prompt: "Clear all completed tasks?",
	})
}

func (s *Session) stage(c *Confirmation) *Confirmation {
	s.pending = c
	s.refresh()
	out := *c
	return &out
}

func (s *Session) Pending() *Confirmation {
	if s.pending == nil {
		return nil
	}
	c := *s.pending
	return &c
}

// Confirm commits the pending action and reports whether anything changed.
func (s *Session) Confirm() bool {
	c := s.pending
	if s.closed || c == nil {
		return false
	}
	s.pending = nil
	var changed bool
	switch c.Kind {
	case ConfirmDelete:
		changed = s.store.Delete(c.TaskID)
		s.sel.Remove(c.TaskID)
		s.logger.Debug("task deleted", "id", c.TaskID, "found", changed)
	case ConfirmClearCompleted:
		n := s.store.ClearCompleted()
		changed = n > 0
		s.logger.Debug("completed tasks cleared", "count", n)
	}
	s.commit(changed)
	return changed
}

// Cancel drops the pending action.
func (s *Session) Cancel() {
	if s.pending == nil {
		return
	}
	s.pending = nil
	s.refresh()
}
