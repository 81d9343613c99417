// Package transfer reads and writes the JSON task export format.
package transfer

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"time"

	"taskdeck/internal/settings"
	"taskdeck/internal/storage"
)

type File struct {
	User       User        `json:"user"`
	ExportedAt string      `json:"exported_at"`
	Tasks      []TaskEntry `json:"tasks"`
	Groups     []string    `json:"groups"`
}

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type TaskEntry struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	DueDate     string `json:"due_date"`
	Priority    string `json:"priority"`
	Group       string `json:"group"`
}

// Export assembles the user's full task set with its bucket metadata.
func Export(store *storage.Store, user *storage.User, bucket *settings.Bucket, now time.Time) (*File, error) {
	tasks, err := store.Tasks(user.ID)
	if err != nil {
		return nil, err
	}
	out := &File{
		User:       User{ID: user.ID, Username: user.Username},
		ExportedAt: now.Format("2006-01-02T15:04:05"),
		Tasks:      make([]TaskEntry, 0, len(tasks)),
		Groups:     append([]string{}, bucket.Groups...),
	}
	for _, t := range tasks {
		out.Tasks = append(out.Tasks, TaskEntry{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Completed:   t.Completed,
			DueDate:     t.DueDate(),
			Priority:    bucket.Priority(t.ID),
			Group:       bucket.Group(t.ID),
		})
	}
	return out, nil
}

// WriteFile writes the export document to path as indented JSON.
func (f *File) WriteFile(path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Import inserts the file's tasks for userID and re-links priority and group
// metadata onto the freshly assigned ids. Entries without a title are
// skipped; malformed due dates are treated as absent; priorities default to
// low. Tasks are inserted in file order so metadata lines up with the id
// sequence the store hands back.
func Import(data []byte, store *storage.Store, userID int64, bucket *settings.Bucket) (int, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return 0, err
	}
	if f.Tasks == nil {
		return 0, errors.New("no tasks found in file")
	}

	type entry struct {
		title, description, priority, group string
		due                                 string
	}
	var sanitized []entry
	for _, t := range f.Tasks {
		title := strings.TrimSpace(t.Title)
		if title == "" {
			continue
		}
		due := strings.TrimSpace(t.DueDate)
		if _, err := storage.ParseDue(due); err != nil {
			due = ""
		}
		sanitized = append(sanitized, entry{
			title:       title,
			description: strings.TrimSpace(t.Description),
			priority:    settings.NormalizePriority(t.Priority),
			group:       strings.TrimSpace(t.Group),
			due:         due,
		})
	}

	imported := 0
	for _, e := range sanitized {
		due, _ := storage.ParseDue(e.due)
		id, err := store.CreateTask(userID, e.title, e.description, due)
		if err != nil {
			return imported, err
		}
		bucket.SetPriority(id, e.priority)
		if e.group != "" {
			bucket.AssignGroup(id, e.group)
		}
		imported++
	}

	for _, g := range f.Groups {
		bucket.AddGroup(strings.TrimSpace(g))
	}
	return imported, nil
}

// ImportFile is Import over a file on disk.
func ImportFile(path string, store *storage.Store, userID int64, bucket *settings.Bucket) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return Import(data, store, userID, bucket)
}
