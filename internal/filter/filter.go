// Package filter narrows a user's task list for display. Filtering is pure:
// the store's due-date-then-id order is preserved and the input slice is
// never modified.
package filter

import (
	"strings"
	"time"

	"taskdeck/internal/storage"
)

// Status selects tasks by completion state.
type Status string

const (
	StatusAll          Status = "all"
	StatusCompleted    Status = "completed"
	StatusNotCompleted Status = "not completed"
	StatusDueToday     Status = "due today"
)

// AllGroups is the group criterion that bypasses group filtering.
const AllGroups = "All Groups"

// Statuses lists every recognised Status value in display order.
var Statuses = []Status{StatusAll, StatusNotCompleted, StatusCompleted, StatusDueToday}

// ParseStatus maps free-form input onto a Status, defaulting to all.
func ParseStatus(v string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(v))) {
	case StatusCompleted:
		return StatusCompleted
	case StatusNotCompleted:
		return StatusNotCompleted
	case StatusDueToday:
		return StatusDueToday
	default:
		return StatusAll
	}
}

// GroupLookup resolves a task's group assignment. A settings bucket
// satisfies it.
type GroupLookup interface {
	Group(taskID int64) string
}

// Criteria holds the active filters. Zero values mean "no constraint":
// an empty query matches everything, an empty or AllGroups group bypasses
// group matching, and an empty status behaves as StatusAll.
type Criteria struct {
	// Query is a case-insensitive substring matched against the task's
	// title and description together.
	Query string
	// Status is the completion-state filter.
	Status Status
	// Group is an exact, case-sensitive match on the task's group.
	Group string
}

// Apply returns the subset of tasks satisfying every active criterion.
// today anchors the due-today comparison. No combination of criteria is
// invalid; an empty result is a normal outcome.
func Apply(tasks []storage.Task, c Criteria, groups GroupLookup, today time.Time) []storage.Task {
	var out []storage.Task
	query := strings.ToLower(strings.TrimSpace(c.Query))
	for _, t := range tasks {
		if !matches(t, c, query, groups, today) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func matches(t storage.Task, c Criteria, query string, groups GroupLookup, today time.Time) bool {
	if c.Group != "" && c.Group != AllGroups {
		if groups == nil || groups.Group(t.ID) != c.Group {
			return false
		}
	}
	if query != "" {
		hay := strings.ToLower(t.Title + "\n" + t.Description)
		if !strings.Contains(hay, query) {
			return false
		}
	}
	switch c.Status {
	case StatusCompleted:
		return t.Completed
	case StatusNotCompleted:
		return !t.Completed
	case StatusDueToday:
		return t.DueOn(today)
	default:
		return true
	}
}
