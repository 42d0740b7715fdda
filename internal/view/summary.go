package view

import (
	"fmt"

	"focusflow/internal/tasks"
)

// Summary counts Active and Completed over the whole store and Visible over
// the derived view.
type Summary struct {
	Visible   int
	Active    int
	Completed int
}

func Summarize(all, derived []tasks.Task) Summary {
	s := Summary{Visible: len(derived)}
	for _, t := range all {
		if t.Completed {
			s.Completed++
		} else {
			s.Active++
		}
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("%d shown · %d active · %d completed", s.Visible, s.Active, s.Completed)
}

func CanCompleteSelected(selected int) bool {
	return selected > 0
}

func CanClearCompleted(all []tasks.Task) bool {
	for _, t := range all {
		if t.Completed {
			return true
		}
	}
	return false
}
