package tasks

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Options injects the clock and id generator. Zero values use time.Now and
// random UUIDs.
type Options struct {
	Now   func() time.Time
	NewID func() string
}

func (o Options) withDefaults() Options {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	return o
}

// Patch lists the fields an update changes. Nil fields are left alone.
type Patch struct {
	Title     *string
	Completed *bool
	Due       *Date
	Priority  *Priority
}

// Store owns the task collection in manual order. It is not safe for
// concurrent use; callers serialize access.
type Store struct {
	tasks []Task
	opts  Options
}

// NewStore copies initial into a new store. Tasks whose id repeats an earlier
// one are given a fresh id.
func NewStore(initial []Task, opts Options) *Store {
	s := &Store{opts: opts.withDefaults()}
	seen := make(map[string]struct{}, len(initial))
	s.tasks = make([]Task, 0, len(initial))
	for _, t := range initial {
		if _, dup := seen[t.ID]; dup || t.ID == "" {
			t.ID = s.freshID(seen)
		}
		seen[t.ID] = struct{}{}
		s.tasks = append(s.tasks, t)
	}
	return s
}

func (s *Store) freshID(taken map[string]struct{}) string {
	for {
		id := s.opts.NewID()
		if _, ok := taken[id]; !ok && id != "" {
			return id
		}
	}
}

func (s *Store) ids() map[string]struct{} {
	out := make(map[string]struct{}, len(s.tasks))
	for _, t := range s.tasks {
		out[t.ID] = struct{}{}
	}
	return out
}

// Tasks returns a copy of the collection in manual order.
func (s *Store) Tasks() []Task {
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *Store) Len() int {
	return len(s.tasks)
}

// Index returns the manual position of id, or -1.
func (s *Store) Index(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) Get(id string) (Task, bool) {
	i := s.Index(id)
	if i < 0 {
		return Task{}, false
	}
	return s.tasks[i], true
}

func (s *Store) HasCompleted() bool {
	for _, t := range s.tasks {
		if t.Completed {
			return true
		}
	}
	return false
}

// Create prepends a new task. The title must already be validated as
// non-blank; it is trimmed here. An invalid priority becomes medium.
func (s *Store) Create(title string, due Date, priority Priority) Task {
	if !priority.Valid() {
		priority = PriorityMedium
	}
	t := Task{
		ID:        s.freshID(s.ids()),
		Title:     strings.TrimSpace(title),
		CreatedAt: s.opts.Now().UnixMilli(),
		Due:       due,
		Priority:  priority,
	}
	s.tasks = append([]Task{t}, s.tasks...)
	return t
}

// Update merges p into the task with id. It reports false when id is unknown.
// A blank title or an invalid priority in p is ignored.
func (s *Store) Update(id string, p Patch) bool {
	i := s.Index(id)
	if i < 0 {
		return false
	}
	t := s.tasks[i]
	if p.Title != nil {
		if title := strings.TrimSpace(*p.Title); title != "" {
			t.Title = title
		}
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Due != nil {
		t.Due = *p.Due
	}
	if p.Priority != nil && p.Priority.Valid() {
		t.Priority = *p.Priority
	}
	s.tasks[i] = t
	return true
}

func (s *Store) Delete(id string) bool {
	i := s.Index(id)
	if i < 0 {
		return false
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	return true
}

// Reorder moves id to target in the manual order. Targets outside
// [0, Len()-1] are rejected, not clamped. Moving a task onto its own
// position reports false.
func (s *Store) Reorder(id string, target int) bool {
	i := s.Index(id)
	if i < 0 || target < 0 || target >= len(s.tasks) || target == i {
		return false
	}
	t := s.tasks[i]
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	s.tasks = append(s.tasks[:target], append([]Task{t}, s.tasks[target:]...)...)
	return true
}

// MoveBy shifts id by delta positions, rejecting moves past either end.
func (s *Store) MoveBy(id string, delta int) bool {
	i := s.Index(id)
	if i < 0 {
		return false
	}
	return s.Reorder(id, i+delta)
}

// BulkComplete marks every task in ids completed and returns how many tasks
// matched.
func (s *Store) BulkComplete(ids map[string]struct{}) int {
	n := 0
	for i := range s.tasks {
		if _, ok := ids[s.tasks[i].ID]; ok {
			s.tasks[i].Completed = true
			n++
		}
	}
	return n
}

// ClearCompleted drops every completed task and returns how many were removed.
func (s *Store) ClearCompleted() int {
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if !t.Completed {
			kept = append(kept, t)
		}
	}
	n := len(s.tasks) - len(kept)
	s.tasks = kept
	return n
}
