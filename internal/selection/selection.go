// Package selection tracks which task ids the user has marked.
package selection

import "sort"

// Set is the selection. The zero value is not usable; call New.
type Set struct {
	ids map[string]struct{}
}

func New() *Set {
	return &Set{ids: map[string]struct{}{}}
}

// Toggle flips membership of id and reports whether it is now selected.
func (s *Set) Toggle(id string) bool {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

func (s *Set) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *Set) Remove(id string) {
	delete(s.ids, id)
}

// Reconcile drops every id not present in visible and returns how many were
// dropped.
func (s *Set) Reconcile(visible map[string]struct{}) int {
	n := 0
	for id := range s.ids {
		if _, ok := visible[id]; !ok {
			delete(s.ids, id)
			n++
		}
	}
	return n
}

func (s *Set) Clear() {
	clear(s.ids)
}

func (s *Set) Len() int {
	return len(s.ids)
}

// IDs returns the selected ids in sorted order.
func (s *Set) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Members returns a copy of the selection.
func (s *Set) Members() map[string]struct{} {
	out := make(map[string]struct{}, len(s.ids))
	for id := range s.ids {
		out[id] = struct{}{}
	}
	return out
}
