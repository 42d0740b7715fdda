package view

import (
	"fmt"

	"focusflow/internal/tasks"
)

type DueStatus string

const (
	DueNone    DueStatus = "none"
	DueFuture  DueStatus = "future"
	DueToday   DueStatus = "today"
	DueOverdue DueStatus = "overdue"
)

// DueLabel describes due relative to today for the due badge.
func DueLabel(due, today tasks.Date) (string, DueStatus) {
	if due.IsZero() {
		return "", DueNone
	}
	days := due.DaysSince(today)
	label := due.Time().Format("Jan 2")
	switch {
	case days == 0:
		return "Today", DueToday
	case days == -1:
		return "Yesterday", DueOverdue
	case days < -1:
		return fmt.Sprintf("%s · %dd overdue", label, -days), DueOverdue
	case days == 1:
		return label + " · tomorrow", DueFuture
	case days <= 7:
		return fmt.Sprintf("%s · in %dd", label, days), DueFuture
	}
	return label, DueFuture
}
