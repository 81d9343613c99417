package transfer

import (
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"taskdeck/internal/settings"
	"taskdeck/internal/storage"
)

func newStore(t *testing.T) (*storage.Store, *storage.User) {
	t.Helper()
	s, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if _, err := s.CreateUser("ada", "secret"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	u, err := s.Authenticate("ada", "secret")
	if err != nil || u == nil {
		t.Fatalf("authenticate: user=%v err=%v", u, err)
	}
	return s, u
}

func newBucket() *settings.Bucket {
	doc := &settings.Document{}
	return doc.Bucket(1)
}

func dueOn(t *testing.T, day string) sql.NullTime {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", day)
	if err != nil {
		t.Fatalf("parse %q: %v", day, err)
	}
	return sql.NullTime{Time: parsed, Valid: true}
}

// --- export --------------------------------------------------------------

func TestExport_IncludesTasksAndMetadata(t *testing.T) {
	store, user := newStore(t)
	bucket := newBucket()

	id, _ := store.CreateTask(user.ID, "write report", "numbers", dueOn(t, "2024-06-01"))
	undated, _ := store.CreateTask(user.ID, "undated", "", sql.NullTime{})
	bucket.SetPriority(id, settings.PriorityHigh)
	bucket.AssignGroup(id, "Work")
	store.CompleteTask(id, user.ID)

	now := time.Date(2024, 6, 3, 15, 30, 0, 0, time.Local)
	f, err := Export(store, user, bucket, now)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	if f.User.ID != user.ID || f.User.Username != "ada" {
		t.Errorf("user = %+v", f.User)
	}
	if f.ExportedAt != "2024-06-03T15:30:00" {
		t.Errorf("exported_at = %q", f.ExportedAt)
	}
	if len(f.Tasks) != 2 {
		t.Fatalf("tasks = %d, want 2", len(f.Tasks))
	}
	if len(f.Groups) != 1 || f.Groups[0] != "Work" {
		t.Errorf("groups = %v", f.Groups)
	}

	var report, blank *TaskEntry
	for i := range f.Tasks {
		switch f.Tasks[i].ID {
		case id:
			report = &f.Tasks[i]
		case undated:
			blank = &f.Tasks[i]
		}
	}
	if report == nil || blank == nil {
		t.Fatalf("both tasks should be exported: %+v", f.Tasks)
	}
	if report.Title != "write report" || report.Description != "numbers" {
		t.Errorf("entry = %+v", report)
	}
	if !report.Completed || report.DueDate != "2024-06-01" {
		t.Errorf("entry = %+v", report)
	}
	if report.Priority != settings.PriorityHigh || report.Group != "Work" {
		t.Errorf("entry = %+v", report)
	}
	if blank.DueDate != "" || blank.Priority != settings.PriorityLow || blank.Group != "" {
		t.Errorf("undated entry = %+v", blank)
	}
}

func TestExport_EmptyStore_YieldsEmptyLists(t *testing.T) {
	store, user := newStore(t)
	f, err := Export(store, user, newBucket(), time.Now())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(f.Tasks) != 0 || len(f.Groups) != 0 {
		t.Errorf("tasks=%v groups=%v", f.Tasks, f.Groups)
	}
	// A nil slice would serialize as JSON null instead of [].
	data, _ := json.Marshal(f)
	var raw map[string]json.RawMessage
	json.Unmarshal(data, &raw)
	if string(raw["tasks"]) != "[]" {
		t.Errorf("tasks serializes as %s, want []", raw["tasks"])
	}
}

// --- import --------------------------------------------------------------

func TestImport_RoundTrip(t *testing.T) {
	src, srcUser := newStore(t)
	srcBucket := newBucket()
	id, _ := src.CreateTask(srcUser.ID, "write report", "numbers", dueOn(t, "2024-06-01"))
	srcBucket.SetPriority(id, settings.PriorityHigh)
	srcBucket.AssignGroup(id, "Work")

	f, err := Export(src, srcUser, srcBucket, time.Now())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	dst, dstUser := newStore(t)
	dstBucket := newBucket()
	n, err := Import(data, dst, dstUser.ID, dstBucket)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 1 {
		t.Fatalf("imported %d, want 1", n)
	}

	tasks, _ := dst.Tasks(dstUser.ID)
	if len(tasks) != 1 {
		t.Fatalf("tasks = %d", len(tasks))
	}
	got := tasks[0]
	if got.Title != "write report" || got.Description != "numbers" || got.DueDate() != "2024-06-01" {
		t.Errorf("task = %+v", got)
	}
	if dstBucket.Priority(got.ID) != settings.PriorityHigh {
		t.Errorf("priority = %q", dstBucket.Priority(got.ID))
	}
	if dstBucket.Group(got.ID) != "Work" {
		t.Errorf("group = %q", dstBucket.Group(got.ID))
	}
}

func TestImport_SkipsEntriesWithoutTitle(t *testing.T) {
	store, user := newStore(t)
	data := []byte(`{"tasks": [
		{"title": "  ", "priority": "high"},
		{"title": "kept"}
	]}`)
	n, err := Import(data, store, user.ID, newBucket())
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 1 {
		t.Errorf("imported %d, want 1", n)
	}
	tasks, _ := store.Tasks(user.ID)
	if len(tasks) != 1 || tasks[0].Title != "kept" {
		t.Errorf("tasks = %v", tasks)
	}
}

func TestImport_MalformedDueDate_TreatedAsAbsent(t *testing.T) {
	store, user := newStore(t)
	data := []byte(`{"tasks": [{"title": "odd date", "due_date": "01/06/2024"}]}`)
	n, err := Import(data, store, user.ID, newBucket())
	if err != nil || n != 1 {
		t.Fatalf("import: n=%d err=%v", n, err)
	}
	tasks, _ := store.Tasks(user.ID)
	if tasks[0].Due.Valid {
		t.Errorf("malformed due date should be dropped, got %v", tasks[0].Due.Time)
	}
}

func TestImport_UnknownPriority_DefaultsToLow(t *testing.T) {
	store, user := newStore(t)
	bucket := newBucket()
	data := []byte(`{"tasks": [{"title": "task", "priority": "urgent"}]}`)
	if _, err := Import(data, store, user.ID, bucket); err != nil {
		t.Fatalf("import: %v", err)
	}
	tasks, _ := store.Tasks(user.ID)
	if bucket.Priority(tasks[0].ID) != settings.PriorityLow {
		t.Errorf("priority = %q", bucket.Priority(tasks[0].ID))
	}
}

func TestImport_MergesGroupList(t *testing.T) {
	store, user := newStore(t)
	bucket := newBucket()
	bucket.AddGroup("Existing")
	data := []byte(`{"tasks": [], "groups": ["Existing", "Imported"]}`)
	if _, err := Import(data, store, user.ID, bucket); err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(bucket.Groups) != 2 || bucket.Groups[1] != "Imported" {
		t.Errorf("groups = %v", bucket.Groups)
	}
}

func TestImport_InvalidJSON_Errors(t *testing.T) {
	store, user := newStore(t)
	if _, err := Import([]byte("{broken"), store, user.ID, newBucket()); err == nil {
		t.Error("expected a parse error")
	}
}

func TestImport_MissingTasksKey_Errors(t *testing.T) {
	store, user := newStore(t)
	if _, err := Import([]byte(`{"groups": []}`), store, user.ID, newBucket()); err == nil {
		t.Error("a file without a tasks list should be rejected")
	}
}

// --- files ---------------------------------------------------------------

func TestWriteFile_ThenImportFile_RoundTrip(t *testing.T) {
	src, srcUser := newStore(t)
	srcBucket := newBucket()
	src.CreateTask(srcUser.ID, "on disk", "", sql.NullTime{})

	f, err := Export(src, srcUser, srcBucket, time.Now())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	path := filepath.Join(t.TempDir(), "export.json")
	if err := f.WriteFile(path); err != nil {
		t.Fatalf("write: %v", err)
	}

	dst, dstUser := newStore(t)
	n, err := ImportFile(path, dst, dstUser.ID, newBucket())
	if err != nil || n != 1 {
		t.Fatalf("import file: n=%d err=%v", n, err)
	}
	tasks, _ := dst.Tasks(dstUser.ID)
	if len(tasks) != 1 || tasks[0].Title != "on disk" {
		t.Errorf("tasks = %v", tasks)
	}
}

func TestImportFile_MissingFile_Errors(t *testing.T) {
	store, user := newStore(t)
	if _, err := ImportFile(filepath.Join(t.TempDir(), "nope.json"), store, user.ID, newBucket()); err == nil {
		t.Error("expected an error for a missing file")
	}
}
