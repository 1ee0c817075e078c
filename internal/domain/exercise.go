package domain

import (
	"fmt"
	"strings"
	"time"
)

// DisplayDateLayout renders a calendar date as weekday, month, day and year.
const DisplayDateLayout = "Mon Jan 02 2006"

// User is a registered account that owns an exercise log.
type User struct {
	ID       string
	Username string
}

// Exercise is a single log entry recorded for a user.
type Exercise struct {
	ID          string
	UserID      string
	Description string
	DurationMin int
	Date        time.Time
}

// DisplayDate formats the exercise date for API responses.
func (e Exercise) DisplayDate() string {
	return e.Date.Format(DisplayDateLayout)
}

// LogFilter narrows an exercise log. Nil bounds are open; both bounds are inclusive.
type LogFilter struct {
	From  *time.Time
	To    *time.Time
	Limit int
}

// HasDateBounds reports whether any date bound is set.
func (f LogFilter) HasDateBounds() bool {
	return f.From != nil || f.To != nil
}

// Matches reports whether the date falls inside the filter bounds.
func (f LogFilter) Matches(date time.Time) bool {
	if f.From != nil && date.Before(*f.From) {
		return false
	}
	if f.To != nil && date.After(*f.To) {
		return false
	}
	return true
}

// ExerciseLog is a user together with the entries selected by a LogFilter.
type ExerciseLog struct {
	User      User
	Exercises []Exercise
}

// Count returns the number of returned entries.
func (l ExerciseLog) Count() int {
	return len(l.Exercises)
}

var acceptedDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	DisplayDateLayout,
	"January 2, 2006",
}

// ParseDate parses a calendar date in one of the accepted layouts and truncates it to midnight UTC.
func ParseDate(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	for _, layout := range acceptedDateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return StartOfDay(parsed), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}

// StartOfDay returns midnight UTC of the calendar day t falls on in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
