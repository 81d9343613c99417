// Package settings persists the application settings document: global
// theme/accent plus a per-user bucket of task metadata (groups, priorities,
// completion log, reminder state) kept alongside the task database.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
)

const (
	DefaultFileName = "settings.json"

	DefaultTheme  = "aurora"
	DefaultAccent = "#7AA2F7"
)

type Document struct {
	Theme  string             `json:"theme"`
	Accent string             `json:"accent"`
	Users  map[string]*Bucket `json:"users"`

	// An earlier layout kept the per-user keys at the document root.
	// They are read here and moved into the owning user's bucket by
	// MigrateLegacy; omitempty keeps them out of rewritten files.
	LegacyGroups        []string           `json:"groups,omitempty"`
	LegacyTaskGroups    map[string]string  `json:"task_groups,omitempty"`
	LegacyPriorities    map[string]string  `json:"priorities,omitempty"`
	LegacyCompletionLog []string           `json:"completion_log,omitempty"`
	LegacyReminded      map[string][]int64 `json:"reminded,omitempty"`
}

type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the settings document. A missing or unreadable file is not an
// error: the document falls back to defaults and the file is rewritten on
// the next Save.
func (s *Store) Load() *Document {
	doc := defaultDocument()
	data, err := os.ReadFile(s.path)
	if err != nil {
		return doc
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return defaultDocument()
	}
	doc.ensureDefaults()
	return doc
}

// Save writes the whole document through a temp file and rename, so a failed
// write never clobbers the previous state.
func (s *Store) Save(doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.path)
}

func defaultDocument() *Document {
	return &Document{
		Theme:  DefaultTheme,
		Accent: DefaultAccent,
		Users:  map[string]*Bucket{},
	}
}

func (d *Document) ensureDefaults() {
	if d.Theme == "" {
		d.Theme = DefaultTheme
	}
	if d.Accent == "" {
		d.Accent = DefaultAccent
	}
	if d.Users == nil {
		d.Users = map[string]*Bucket{}
	}
	for _, b := range d.Users {
		b.ensure()
	}
}

// Bucket returns userID's settings bucket, creating it with schema defaults
// when missing and backfilling any keys added to the schema since the bucket
// was written.
func (d *Document) Bucket(userID int64) *Bucket {
	if d.Users == nil {
		d.Users = map[string]*Bucket{}
	}
	k := userKey(userID)
	b, ok := d.Users[k]
	if !ok {
		b = &Bucket{}
		d.Users[k] = b
	}
	b.ensure()
	return b
}

// MigrateLegacy moves any per-user keys found at the document root into
// userID's bucket. It reports whether anything moved, in which case the
// caller should save the document.
func (d *Document) MigrateLegacy(userID int64) bool {
	b := d.Bucket(userID)
	migrated := false
	if len(d.LegacyGroups) > 0 && len(b.Groups) == 0 {
		b.Groups = d.LegacyGroups
		migrated = true
	}
	if len(d.LegacyTaskGroups) > 0 && len(b.TaskGroups) == 0 {
		b.TaskGroups = d.LegacyTaskGroups
		migrated = true
	}
	if len(d.LegacyPriorities) > 0 && len(b.Priorities) == 0 {
		b.Priorities = d.LegacyPriorities
		migrated = true
	}
	if len(d.LegacyCompletionLog) > 0 && len(b.CompletionLog) == 0 {
		b.CompletionLog = d.LegacyCompletionLog
		migrated = true
	}
	if len(d.LegacyReminded) > 0 && len(b.Reminded) == 0 {
		b.Reminded = d.LegacyReminded
		migrated = true
	}
	d.LegacyGroups = nil
	d.LegacyTaskGroups = nil
	d.LegacyPriorities = nil
	d.LegacyCompletionLog = nil
	d.LegacyReminded = nil
	return migrated
}

func userKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
