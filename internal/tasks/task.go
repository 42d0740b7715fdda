// Package tasks holds the task model, the ordered task store and the adapter
// that persists the collection into a blob store.
package tasks

import (
	"fmt"
	"strings"
	"time"
)

// Priority is one of low, medium or high.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Rank orders priorities low=1, medium=2, high=3. Unknown values rank as medium.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityHigh:
		return 3
	default:
		return 2
	}
}

// Label is the display name shown on badges.
func (p Priority) Label() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityHigh:
		return "High"
	default:
		return "Medium"
	}
}

// ParsePriority accepts the three priority names case-insensitively.
func ParsePriority(v string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(v)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q (want low, medium or high)", v)
	}
	return p, nil
}

// Next cycles low -> medium -> high -> low.
func (p Priority) Next() Priority {
	switch p {
	case PriorityLow:
		return PriorityMedium
	case PriorityMedium:
		return PriorityHigh
	default:
		return PriorityLow
	}
}

const dateLayout = "2006-01-02"

// Date is a calendar day without a time component. The zero Date means
// "no due date".
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate reads YYYY-MM-DD. An RFC 3339 timestamp is accepted and truncated
// to its date part.
func ParseDate(v string) (Date, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return Date{}, nil
	}
	if len(v) > len(dateLayout) && v[len(dateLayout)] == 'T' {
		v = v[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", v, err)
	}
	return DateOf(t), nil
}

func (d Date) IsZero() bool {
	return d == Date{}
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(dateLayout)
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// DaysSince returns the whole number of days from o to d.
func (d Date) DaysSince(o Date) int {
	return int((d.Time().Unix() - o.Time().Unix()) / 86400)
}

func (d Date) Before(o Date) bool {
	return d.Time().Before(o.Time())
}

// MarshalText writes "" for the zero Date so an absent due date persists as
// an empty string.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Task is a single to-do record. CreatedAt is milliseconds since the epoch.
type Task struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Completed bool     `json:"completed"`
	CreatedAt int64    `json:"createdAt"`
	Due       Date     `json:"due"`
	Priority  Priority `json:"priority"`
}

// Created returns CreatedAt as a time.
func (t Task) Created() time.Time {
	return time.UnixMilli(t.CreatedAt)
}

func (t Task) HasDue() bool {
	return !t.Due.IsZero()
}
