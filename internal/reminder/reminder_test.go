package reminder

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"taskdeck/internal/settings"
	"taskdeck/internal/storage"
)

type fixture struct {
	store  *storage.Store
	sstore *settings.Store
	doc    *settings.Document
	user   *storage.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if _, err := store.CreateUser("ada", "secret"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	user, err := store.Authenticate("ada", "secret")
	if err != nil || user == nil {
		t.Fatalf("authenticate: user=%v err=%v", user, err)
	}
	sstore := settings.NewStore(filepath.Join(dir, "settings.json"))
	return &fixture{store: store, sstore: sstore, doc: sstore.Load(), user: user}
}

func (f *fixture) addTask(t *testing.T, title string, dueDay string) int64 {
	t.Helper()
	var due sql.NullTime
	if dueDay != "" {
		parsed, err := time.Parse("2006-01-02", dueDay)
		if err != nil {
			t.Fatalf("parse %q: %v", dueDay, err)
		}
		due = sql.NullTime{Time: parsed, Valid: true}
	}
	id, err := f.store.CreateTask(f.user.ID, title, "", due)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return id
}

func (f *fixture) engine(day string, notify func(storage.Task, string)) *Engine {
	eng := New(f.store, f.sstore, f.doc, f.user.ID, NotifierFunc(notify))
	at, _ := time.Parse("2006-01-02", day)
	eng.Now = func() time.Time { return at }
	return eng
}

func TestCheck_NotifiesTasksDueToday(t *testing.T) {
	f := newFixture(t)
	dueID := f.addTask(t, "due now", "2024-06-03")
	f.addTask(t, "due later", "2024-07-01")
	f.addTask(t, "undated", "")

	var notified []int64
	eng := f.engine("2024-06-03", func(task storage.Task, group string) {
		notified = append(notified, task.ID)
	})
	n, err := eng.Check()
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if n != 1 || len(notified) != 1 || notified[0] != dueID {
		t.Errorf("n=%d notified=%v, want just task %d", n, notified, dueID)
	}
}

func TestCheck_SkipsCompletedTasks(t *testing.T) {
	f := newFixture(t)
	id := f.addTask(t, "done already", "2024-06-03")
	if err := f.store.CompleteTask(id, f.user.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	eng := f.engine("2024-06-03", func(task storage.Task, group string) {
		t.Errorf("unexpected notification for task %d", task.ID)
	})
	n, err := eng.Check()
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if n != 0 {
		t.Errorf("n = %d, want 0", n)
	}
}

func TestCheck_SecondRunSameDay_SendsNothing(t *testing.T) {
	f := newFixture(t)
	f.addTask(t, "due now", "2024-06-03")

	count := 0
	eng := f.engine("2024-06-03", func(storage.Task, string) { count++ })
	if _, err := eng.Check(); err != nil {
		t.Fatalf("first check: %v", err)
	}
	if _, err := eng.Check(); err != nil {
		t.Fatalf("second check: %v", err)
	}
	if count != 1 {
		t.Errorf("notified %d times, want exactly once per day", count)
	}
}

func TestCheck_RecordSurvivesRestart(t *testing.T) {
	f := newFixture(t)
	f.addTask(t, "due now", "2024-06-03")

	eng := f.engine("2024-06-03", func(storage.Task, string) {})
	if n, err := eng.Check(); err != nil || n != 1 {
		t.Fatalf("first check: n=%d err=%v", n, err)
	}

	// A fresh document loaded from disk stands in for a program restart.
	f.doc = f.sstore.Load()
	count := 0
	eng2 := f.engine("2024-06-03", func(storage.Task, string) { count++ })
	n, err := eng2.Check()
	if err != nil {
		t.Fatalf("check after restart: %v", err)
	}
	if n != 0 || count != 0 {
		t.Errorf("reminder repeated after restart: n=%d count=%d", n, count)
	}
}

func TestCheck_NextDay_RemindsAgain(t *testing.T) {
	f := newFixture(t)
	f.addTask(t, "due tomorrow", "2024-06-04")

	count := 0
	notify := func(storage.Task, string) { count++ }

	today := f.engine("2024-06-03", notify)
	if n, _ := today.Check(); n != 0 {
		t.Fatalf("not yet due, n = %d", n)
	}
	tomorrow := f.engine("2024-06-04", notify)
	if n, err := tomorrow.Check(); err != nil || n != 1 {
		t.Fatalf("on due day: n=%d err=%v", n, err)
	}
	if count != 1 {
		t.Errorf("count = %d", count)
	}
}

func TestCheck_PassesGroupToNotifier(t *testing.T) {
	f := newFixture(t)
	id := f.addTask(t, "due now", "2024-06-03")
	f.doc.Bucket(f.user.ID).AssignGroup(id, "Work")

	var gotGroup string
	eng := f.engine("2024-06-03", func(task storage.Task, group string) { gotGroup = group })
	if _, err := eng.Check(); err != nil {
		t.Fatalf("check: %v", err)
	}
	if gotGroup != "Work" {
		t.Errorf("group = %q, want Work", gotGroup)
	}
}

func TestCheck_NothingDue_DoesNotTouchSettingsFile(t *testing.T) {
	f := newFixture(t)
	f.addTask(t, "undated", "")

	eng := f.engine("2024-06-03", func(storage.Task, string) {})
	if n, err := eng.Check(); err != nil || n != 0 {
		t.Fatalf("check: n=%d err=%v", n, err)
	}
	// No reminders sent, so no settings file should have been written.
	if _, err := os.Stat(f.sstore.Path()); err == nil {
		t.Error("settings file should not be created by a no-op check")
	}
}
