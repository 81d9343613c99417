// Package reminder emits one notification per task per day for tasks due on
// the current date. Delivered reminders are recorded in the user's settings
// bucket, so a reminder is never re-sent within a day even across restarts;
// the record is keyed by date, which makes the set reset itself at midnight.
package reminder

import (
	"time"

	"taskdeck/internal/settings"
	"taskdeck/internal/storage"
)

// DefaultInterval is how often the front end re-runs Check.
const DefaultInterval = 60 * time.Second

// Notifier receives one call per newly due task. The front end renders it
// however it likes (status line, dialog, system notification).
type Notifier interface {
	Notify(task storage.Task, group string)
}

// NotifierFunc adapts a plain function to the Notifier interface.
type NotifierFunc func(task storage.Task, group string)

func (f NotifierFunc) Notify(task storage.Task, group string) {
	f(task, group)
}

type Engine struct {
	store    *storage.Store
	settings *settings.Store
	doc      *settings.Document
	userID   int64
	notifier Notifier

	// Now is the clock used to decide what "today" means. Tests override it.
	Now func() time.Time
}

func New(store *storage.Store, st *settings.Store, doc *settings.Document, userID int64, notifier Notifier) *Engine {
	return &Engine{
		store:    store,
		settings: st,
		doc:      doc,
		userID:   userID,
		notifier: notifier,
		Now:      time.Now,
	}
}

// Check scans the user's tasks and notifies each one that is due today,
// not completed, and not yet reminded today, then persists the updated
// reminder record. It returns how many notifications were sent.
func (e *Engine) Check() (int, error) {
	today := e.Now()
	day := today.Format("2006-01-02")

	bucket := e.doc.Bucket(e.userID)
	already := bucket.RemindedOn(day)

	tasks, err := e.store.Tasks(e.userID)
	if err != nil {
		return 0, err
	}

	var sent []int64
	for _, t := range tasks {
		if t.Completed || !t.DueOn(today) || already[t.ID] {
			continue
		}
		e.notifier.Notify(t, bucket.Group(t.ID))
		sent = append(sent, t.ID)
	}
	if len(sent) == 0 {
		return 0, nil
	}

	bucket.MarkReminded(day, sent)
	if err := e.settings.Save(e.doc); err != nil {
		// The reminders were delivered; the caller surfaces the persistence
		// failure without crashing (a repeat after restart is tolerable).
		return len(sent), err
	}
	return len(sent), nil
}
