package domain

import (
	"strings"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusDeleted   Status = "deleted"
	StatusWaiting   Status = "waiting"
	StatusBlocked   Status = "blocked"
)

type Priority string

const (
	PriorityHigh   Priority = "H"
	PriorityMedium Priority = "M"
	PriorityLow    Priority = "L"
	PriorityNone   Priority = ""
)

// ParsePriority normalizes a priority string. The empty string is valid and
// means "no priority".
func ParsePriority(s string) (Priority, bool) {
	switch Priority(strings.ToUpper(strings.TrimSpace(s))) {
	case PriorityHigh:
		return PriorityHigh, true
	case PriorityMedium:
		return PriorityMedium, true
	case PriorityLow:
		return PriorityLow, true
	case PriorityNone:
		return PriorityNone, true
	}
	return PriorityNone, false
}

// Annotation is a timestamped note attached to a task by taskwarrior.
type Annotation struct {
	Entry       time.Time `json:"entry"`
	Description string    `json:"description"`
}

// Task is a single record read back from taskwarrior. Tasks are never owned
// by this server: every query reads them fresh from the external program and
// nothing is cached between requests.
type Task struct {
	ID          int          `json:"id,omitempty"`
	UUID        string       `json:"uuid,omitempty"`
	Description string       `json:"description"`
	Project     string       `json:"project,omitempty"`
	Status      Status       `json:"status"`
	Priority    Priority     `json:"priority,omitempty"`
	Due         *time.Time   `json:"due,omitempty"`
	Scheduled   *time.Time   `json:"scheduled,omitempty"`
	Wait        *time.Time   `json:"wait,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
	Urgency     float64      `json:"urgency,omitempty"`
}

// taskwarrior emits timestamps in compact UTC form, e.g. "20250615T143000Z".
const taskwarriorTimeLayout = "20060102T150405Z"

// ParseTime parses a taskwarrior timestamp, falling back to RFC 3339. The
// boolean reports whether the value was recognized; unparseable timestamps
// are dropped rather than failing the whole record.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(taskwarriorTimeLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
