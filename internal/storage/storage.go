package storage

import (
	"database/sql"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const (
	// XPReward is credited to a user each time a task transitions to completed.
	XPReward = 10

	MaxTitleLen       = 100
	MaxDescriptionLen = 1000
)

type User struct {
	ID       int64
	Username string
	XP       int
}

type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	dsn := sqliteDSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL DEFAULT '',
	xp INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	title TEXT NOT NULL,
	description TEXT DEFAULT '',
	completed INTEGER NOT NULL DEFAULT 0,
	due_date TEXT DEFAULT NULL
);`
	if _, err := s.db.Exec(ddl); err != nil {
		return err
	}
	return s.ensureUserColumns()
}

// ensureUserColumns upgrades databases created before accounts carried a
// password column.
func (s *Store) ensureUserColumns() error {
	required := map[string]string{
		"password": "ALTER TABLE users ADD COLUMN password TEXT NOT NULL DEFAULT '';",
	}
	existing := map[string]struct{}{}
	rows, err := s.db.Query(`PRAGMA table_info(users);`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return err
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for col, alter := range required {
		if _, ok := existing[col]; ok {
			continue
		}
		if _, err := s.db.Exec(alter); err != nil {
			return err
		}
	}
	return nil
}

// CreateUser inserts a new account. A taken username is an expected outcome
// and reports false without an error.
func (s *Store) CreateUser(username, password string) (bool, error) {
	res, err := s.db.Exec(`INSERT OR IGNORE INTO users (username, password, xp) VALUES (?, ?, 0);`,
		strings.TrimSpace(username), strings.TrimSpace(password))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Authenticate returns the matching user, or nil when the credentials match
// no account. Passwords are compared as stored, in plain text.
func (s *Store) Authenticate(username, password string) (*User, error) {
	row := s.db.QueryRow(`SELECT id, username, xp FROM users WHERE username = ? AND password = ?;`,
		strings.TrimSpace(username), strings.TrimSpace(password))
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.XP); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateTask(userID int64, title, description string, due sql.NullTime) (int64, error) {
	dueStr := sql.NullString{}
	if due.Valid {
		dueStr = sql.NullString{String: due.Time.Format(dateLayout), Valid: true}
	}
	res, err := s.db.Exec(`INSERT INTO tasks (user_id, title, description, completed, due_date) VALUES (?, ?, ?, 0, ?);`,
		userID, title, description, dueStr)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Tasks returns every task owned by userID ordered by due date ascending,
// then id. Rows without a due date sort before dated ones because the sort
// runs over the raw column and SQLite orders NULL ahead of any value.
func (s *Store) Tasks(userID int64) ([]Task, error) {
	rows, err := s.db.Query(`SELECT id, user_id, title, description, completed, due_date FROM tasks WHERE user_id = ? ORDER BY due_date, id;`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var id, uid, completed int64
		var title, desc, due sql.NullString
		if err := rows.Scan(&id, &uid, &title, &desc, &completed, &due); err != nil {
			return nil, err
		}
		tasks = append(tasks, TaskFromRow(id, uid, title, desc, completed, due))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CompleteTask marks the task done and credits the XP reward in a single
// transaction. XP is credited only when the row actually flips, so completing
// an already finished task changes nothing.
func (s *Store) CompleteTask(taskID, userID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	res, err := tx.Exec(`UPDATE tasks SET completed = 1 WHERE id = ? AND user_id = ? AND completed = 0;`, taskID, userID)
	if err != nil {
		tx.Rollback()
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return err
	}
	if n == 1 {
		if _, err := tx.Exec(`UPDATE users SET xp = xp + ? WHERE id = ?;`, XPReward, userID); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// DeleteTask removes the row. Per-user settings metadata for the task lives
// outside the database; the caller prunes it right after a successful delete.
func (s *Store) DeleteTask(taskID int64) error {
	_, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?;`, taskID)
	return err
}

func (s *Store) DeleteAllTasks(userID int64) error {
	_, err := s.db.Exec(`DELETE FROM tasks WHERE user_id = ?;`, userID)
	return err
}

func (s *Store) ResetXP(userID int64) error {
	_, err := s.db.Exec(`UPDATE users SET xp = 0 WHERE id = ?;`, userID)
	return err
}

// XP reports the user's current experience points, 0 when the row is missing.
func (s *Store) XP(userID int64) (int, error) {
	row := s.db.QueryRow(`SELECT COALESCE(xp, 0) FROM users WHERE id = ?;`, userID)
	var xp int
	if err := row.Scan(&xp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return xp, nil
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
