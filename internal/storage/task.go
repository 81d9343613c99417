package storage

import (
	"database/sql"
	"time"
)

const dateLayout = "2006-01-02"

type Task struct {
	ID          int64
	UserID      int64
	Title       string
	Description string
	Completed   bool
	Due         sql.NullTime
}

// TaskFromRow builds a validated Task from the raw column values of a
// tasks row: (id, user_id, title, description, completed, due_date).
// NULL text coerces to the empty string, completed follows integer
// truthiness, and a due date that is absent or not a YYYY-MM-DD string
// means no due date rather than an error.
func TaskFromRow(id, userID int64, title, description sql.NullString, completed int64, due sql.NullString) Task {
	t := Task{
		ID:          id,
		UserID:      userID,
		Title:       title.String,
		Description: description.String,
		Completed:   completed != 0,
	}
	if due.Valid && due.String != "" {
		if parsed, err := time.Parse(dateLayout, due.String); err == nil {
			t.Due = sql.NullTime{Time: parsed, Valid: true}
		}
	}
	return t
}

// DueDate returns the due date as YYYY-MM-DD, or "" when the task has none.
func (t Task) DueDate() string {
	if !t.Due.Valid {
		return ""
	}
	return t.Due.Time.Format(dateLayout)
}

// DueOn reports whether the task is due exactly on the given calendar day.
func (t Task) DueOn(day time.Time) bool {
	if !t.Due.Valid {
		return false
	}
	y1, m1, d1 := t.Due.Time.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// ParseDue validates a YYYY-MM-DD string. Empty input is a valid "no due
// date"; anything else that fails to parse returns an error for the
// boundary layer to reject.
func ParseDue(v string) (sql.NullTime, error) {
	if v == "" {
		return sql.NullTime{}, nil
	}
	parsed, err := time.Parse(dateLayout, v)
	if err != nil {
		return sql.NullTime{}, err
	}
	return sql.NullTime{Time: parsed, Valid: true}, nil
}
