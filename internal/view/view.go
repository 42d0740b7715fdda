// Package view derives the displayed task sequence from the store contents
// and the current view parameters. Everything here is a pure function of its
// arguments.
package view

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"focusflow/internal/tasks"
)

type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// ParseFilter maps unknown values to FilterAll.
func ParseFilter(v string) Filter {
	switch f := Filter(strings.ToLower(strings.TrimSpace(v))); f {
	case FilterActive, FilterCompleted:
		return f
	}
	return FilterAll
}

type SortKey string

const (
	SortCreated  SortKey = "created"
	SortDue      SortKey = "due"
	SortPriority SortKey = "priority"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Params are the user-controlled view settings. They are never persisted.
type Params struct {
	Filter Filter
	Query  string
	Sort   SortKey
	Dir    Direction
}

// DefaultParams shows everything, newest first.
func DefaultParams() Params {
	return Params{Filter: FilterAll, Sort: SortCreated, Dir: Desc}
}

// ParseSort reads the "key-dir" form used in config, e.g. "due-asc".
func ParseSort(v string) (SortKey, Direction, error) {
	key, dir, ok := strings.Cut(strings.ToLower(strings.TrimSpace(v)), "-")
	if !ok {
		return "", "", fmt.Errorf("sort %q: want <created|due|priority>-<asc|desc>", v)
	}
	switch SortKey(key) {
	case SortCreated, SortDue, SortPriority:
	default:
		return "", "", fmt.Errorf("sort %q: unknown key %q", v, key)
	}
	switch Direction(dir) {
	case Asc, Desc:
	default:
		return "", "", fmt.Errorf("sort %q: unknown direction %q", v, dir)
	}
	return SortKey(key), Direction(dir), nil
}

func (p Params) SortString() string {
	return string(p.Sort) + "-" + string(p.Dir)
}

// sortCycle is the order the UI steps through.
var sortCycle = []string{
	"created-desc", "created-asc",
	"due-asc", "due-desc",
	"priority-desc", "priority-asc",
}

// NextSort returns p with the following entry of the sort cycle applied.
func (p Params) NextSort() Params {
	i := slices.Index(sortCycle, p.SortString())
	next := sortCycle[(i+1)%len(sortCycle)]
	p.Sort, p.Dir, _ = ParseSort(next)
	return p
}

// Derive filters, searches and stable-sorts all into a new slice. The input
// order is the tie-break for equal sort keys.
func Derive(all []tasks.Task, p Params) []tasks.Task {
	q := strings.ToLower(strings.TrimSpace(p.Query))
	out := make([]tasks.Task, 0, len(all))
	for _, t := range all {
		switch p.Filter {
		case FilterActive:
			if t.Completed {
				continue
			}
		case FilterCompleted:
			if !t.Completed {
				continue
			}
		}
		if q != "" && !strings.Contains(strings.ToLower(t.Title), q) {
			continue
		}
		out = append(out, t)
	}

	compare := comparator(p.Sort)
	if compare == nil {
		return out
	}
	if p.Dir == Desc {
		asc := compare
		compare = func(a, b tasks.Task) int { return asc(b, a) }
	}
	slices.SortStableFunc(out, compare)
	return out
}

func comparator(key SortKey) func(a, b tasks.Task) int {
	switch key {
	case SortCreated:
		return func(a, b tasks.Task) int { return cmp.Compare(a.CreatedAt, b.CreatedAt) }
	case SortDue:
		return compareDue
	case SortPriority:
		return func(a, b tasks.Task) int { return cmp.Compare(a.Priority.Rank(), b.Priority.Rank()) }
	}
	return nil
}

// compareDue treats a missing due date as later than every real one. Two
// undated tasks compare equal.
func compareDue(a, b tasks.Task) int {
	switch {
	case !a.HasDue() && !b.HasDue():
		return 0
	case !a.HasDue():
		return 1
	case !b.HasDue():
		return -1
	}
	return a.Due.Time().Compare(b.Due.Time())
}

// IDs collects the ids of a derived view.
func IDs(v []tasks.Task) map[string]struct{} {
	out := make(map[string]struct{}, len(v))
	for _, t := range v {
		out[t.ID] = struct{}{}
	}
	return out
}
