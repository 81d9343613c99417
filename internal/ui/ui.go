package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskdeck/internal/config"
	"taskdeck/internal/filter"
	"taskdeck/internal/reminder"
	"taskdeck/internal/settings"
	"taskdeck/internal/storage"
	"taskdeck/internal/transfer"
)

type mode int

const (
	modeLogin mode = iota
	modeSignup
	modeList
	modeAdd
	modeSearch
	modeCalendar
	modeSettings
)

const (
	addTitle = iota
	addDescription
	addDueDate
	addGroup
	addPriority
	addFieldCount
)

type reminderTickMsg time.Time

type Model struct {
	store  *storage.Store
	cfg    config.Config
	sstore *settings.Store
	doc    *settings.Document

	mode   mode
	status string

	authInputs []textinput.Model
	authFocus  int

	user   *storage.User
	bucket *settings.Bucket

	tasks   []storage.Task
	visible []storage.Task
	cursor  int
	xp      int

	queryInput textinput.Model
	query      string
	statusIdx  int
	groupIdx   int

	addInputs []textinput.Model
	addFocus  int

	confirmDel bool
	pendingDel *storage.Task

	setCursor int

	calMonth time.Time
	calDay   time.Time

	now func() time.Time
}

func Run(store *storage.Store, cfg config.Config, sstore *settings.Store) error {
	doc := sstore.Load()

	username := textinput.New()
	username.Placeholder = "Username"
	username.CharLimit = 64
	username.Width = 32
	username.Focus()

	password := textinput.New()
	password.Placeholder = "Password"
	password.CharLimit = 64
	password.Width = 32
	password.EchoMode = textinput.EchoPassword

	query := textinput.New()
	query.Placeholder = "Filter by title/description"
	query.CharLimit = 128
	query.Width = 40

	m := Model{
		store:      store,
		cfg:        cfg,
		sstore:     sstore,
		doc:        doc,
		mode:       modeLogin,
		status:     "Log in, or press ctrl+n for a new account.",
		authInputs: []textinput.Model{username, password},
		queryInput: query,
		addInputs:  newAddInputs(),
		now:        time.Now,
	}
	m.statusIdx = statusIndex(filter.ParseStatus(cfg.DefaultFilter))

	program := tea.NewProgram(m)
	_, err := program.Run()
	return err
}

func newAddInputs() []textinput.Model {
	labels := []string{
		"Task title (required, max 100)",
		"Description (optional, max 1000)",
		"Due date YYYY-MM-DD (optional)",
		"Group (optional)",
		"Priority low/medium/high",
	}
	inputs := make([]textinput.Model, addFieldCount)
	for i, label := range labels {
		ti := textinput.New()
		ti.Placeholder = label
		ti.CharLimit = 1100
		ti.Width = 48
		inputs[i] = ti
	}
	return inputs
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.mode {
		case modeLogin, modeSignup:
			return m.updateAuth(msg)
		case modeAdd:
			return m.updateAdd(msg)
		case modeSearch:
			return m.updateSearch(msg)
		case modeCalendar:
			return m.updateCalendar(msg.String())
		case modeSettings:
			return m.updateSettings(msg.String())
		default:
			if m.confirmDel {
				return m.updateDeleteConfirm(msg.String())
			}
			return m.updateList(msg.String())
		}
	case reminderTickMsg:
		if m.user == nil {
			return m, nil
		}
		if notes, err := m.checkReminders(); err != nil {
			m.status = fmt.Sprintf("reminder check failed: %v", err)
		} else if notes != "" {
			m.status = notes
		}
		return m, m.scheduleReminder()
	case tea.WindowSizeMsg:
		m.queryInput.Width = msg.Width - 10
	}
	return m, nil
}

// --- auth ---

func (m Model) updateAuth(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "tab", "down":
		return m.focusAuth(m.authFocus + 1), nil
	case "shift+tab", "up":
		return m.focusAuth(m.authFocus - 1), nil
	case "ctrl+n":
		if m.mode == modeLogin {
			m.mode = modeSignup
			m.status = "Create a new account."
		} else {
			m.mode = modeLogin
			m.status = "Log in with an existing account."
		}
		return m, nil
	case m.cfg.Keys.Confirm:
		if m.authFocus < len(m.authInputs)-1 {
			return m.focusAuth(m.authFocus + 1), nil
		}
		return m.submitAuth()
	default:
		var cmd tea.Cmd
		m.authInputs[m.authFocus], cmd = m.authInputs[m.authFocus].Update(msg)
		return m, cmd
	}
}

func (m Model) focusAuth(idx int) Model {
	n := len(m.authInputs)
	idx = ((idx % n) + n) % n
	for i := range m.authInputs {
		if i == idx {
			m.authInputs[i].Focus()
		} else {
			m.authInputs[i].Blur()
		}
	}
	m.authFocus = idx
	return m
}

func (m Model) submitAuth() (tea.Model, tea.Cmd) {
	username := strings.TrimSpace(m.authInputs[0].Value())
	password := strings.TrimSpace(m.authInputs[1].Value())
	if username == "" || password == "" {
		m.status = "Username and password are required"
		return m, nil
	}

	if m.mode == modeSignup {
		created, err := m.store.CreateUser(username, password)
		if err != nil {
			m.status = fmt.Sprintf("signup failed: %v", err)
			return m, nil
		}
		if !created {
			m.status = "Username already exists"
			return m, nil
		}
		m.status = "Account created, logging in..."
	}

	user, err := m.store.Authenticate(username, password)
	if err != nil {
		m.status = fmt.Sprintf("login failed: %v", err)
		return m, nil
	}
	if user == nil {
		m.status = "Invalid username or password"
		return m, nil
	}
	return m.enterList(user)
}

// enterList switches to the task list after a successful login: the user's
// settings bucket is created or upgraded, legacy root-level keys migrate in,
// and the reminder loop starts with an immediate check.
func (m Model) enterList(user *storage.User) (tea.Model, tea.Cmd) {
	m.user = user
	m.bucket = m.doc.Bucket(user.ID)
	if m.doc.MigrateLegacy(user.ID) {
		if err := m.sstore.Save(m.doc); err != nil {
			m.status = fmt.Sprintf("settings save failed: %v", err)
		}
	}
	m.mode = modeList
	m.groupIdx = 0
	if err := m.refreshTasks(); err != nil {
		m.status = fmt.Sprintf("load failed: %v", err)
		return m, nil
	}
	m.status = fmt.Sprintf("Welcome, %s.", user.Username)
	if notes, err := m.checkReminders(); err != nil {
		m.status = fmt.Sprintf("reminder check failed: %v", err)
	} else if notes != "" {
		m.status = notes
	}
	return m, m.scheduleReminder()
}

// --- list ---

func (m Model) updateList(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", m.cfg.Keys.Quit:
		return m, tea.Quit
	case m.cfg.Keys.Down, "down":
		if len(m.visible) > 0 {
			m.cursor = clampCursor(m.cursor+1, len(m.visible))
		}
	case m.cfg.Keys.Up, "up":
		if m.cursor > 0 {
			m.cursor = clampCursor(m.cursor-1, len(m.visible))
		}
	case m.cfg.Keys.Add:
		m.addInputs = newAddInputs()
		m.addFocus = 0
		m.addInputs[0].Focus()
		m.mode = modeAdd
		m.status = "Add task: enter advances fields, esc cancels"
	case m.cfg.Keys.Complete:
		return m.completeSelected()
	case m.cfg.Keys.Delete:
		if len(m.visible) == 0 {
			return m, nil
		}
		t := m.visible[m.cursor]
		m.confirmDel = true
		m.pendingDel = &t
		m.status = fmt.Sprintf("Delete \"%s\"? y/n", t.Title)
	case m.cfg.Keys.Detail:
		if len(m.visible) == 0 {
			m.status = "No tasks"
			return m, nil
		}
		m.status = m.detailLine(m.visible[m.cursor])
	case m.cfg.Keys.Search:
		m.queryInput.SetValue(m.query)
		m.queryInput.Focus()
		m.mode = modeSearch
		m.status = "Search: type to filter, enter to apply, esc to clear"
	case m.cfg.Keys.CycleStatus:
		m.statusIdx = (m.statusIdx + 1) % len(filter.Statuses)
		m.applyFilters()
	case m.cfg.Keys.CycleGroup:
		opts := m.groupOptions()
		m.groupIdx = (m.groupIdx + 1) % len(opts)
		m.applyFilters()
	case m.cfg.Keys.Calendar:
		today := m.now()
		m.calMonth = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.Local)
		m.calDay = today
		m.mode = modeCalendar
		m.status = "Calendar: arrows move, h/l change month, esc to return"
	case "s":
		m.setCursor = 0
		m.mode = modeSettings
		m.status = "Settings: enter to apply, esc to return"
	case m.cfg.Keys.Export:
		return m.exportTasks()
	case m.cfg.Keys.Import:
		return m.importTasks()
	}
	return m, nil
}

func (m Model) completeSelected() (tea.Model, tea.Cmd) {
	if len(m.visible) == 0 {
		return m, nil
	}
	t := m.visible[m.cursor]
	if t.Completed {
		m.status = "Task is already completed"
		return m, nil
	}
	if err := m.store.CompleteTask(t.ID, m.user.ID); err != nil {
		m.status = fmt.Sprintf("complete failed: %v", err)
		return m, nil
	}
	if m.bucket.LogCompletion(m.today()) {
		if err := m.sstore.Save(m.doc); err != nil {
			m.status = fmt.Sprintf("settings save failed: %v", err)
		}
	}
	if err := m.refreshTasks(); err != nil {
		m.status = fmt.Sprintf("reload failed: %v", err)
		return m, nil
	}
	m.status = fmt.Sprintf("Task completed (+%d XP)", storage.XPReward)
	return m, nil
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N":
		m.status = "Delete cancelled"
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	case "y", "Y":
		if m.pendingDel == nil {
			m.status = "Nothing to delete"
			m.confirmDel = false
			return m, nil
		}
		id := m.pendingDel.ID
		if err := m.store.DeleteTask(id); err != nil {
			m.status = fmt.Sprintf("delete failed: %v", err)
			m.confirmDel = false
			m.pendingDel = nil
			return m, nil
		}
		// The two stores are not linked, so prune the task's metadata
		// immediately after the row is gone.
		m.bucket.RemoveTask(id)
		if err := m.sstore.Save(m.doc); err != nil {
			m.status = fmt.Sprintf("settings save failed: %v", err)
		} else {
			m.status = "Deleted task"
		}
		m.confirmDel = false
		m.pendingDel = nil
		if err := m.refreshTasks(); err != nil {
			m.status = fmt.Sprintf("reload failed: %v", err)
		}
		return m, nil
	default:
		return m, nil
	}
}

// --- add form ---

func (m Model) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case m.cfg.Keys.Cancel:
		m.mode = modeList
		m.status = "Cancelled"
		return m, nil
	case "tab", "down":
		return m.focusAdd(m.addFocus + 1), nil
	case "shift+tab", "up":
		return m.focusAdd(m.addFocus - 1), nil
	case m.cfg.Keys.Confirm:
		if m.addFocus < addFieldCount-1 {
			return m.focusAdd(m.addFocus + 1), nil
		}
		return m.submitAdd()
	default:
		var cmd tea.Cmd
		m.addInputs[m.addFocus], cmd = m.addInputs[m.addFocus].Update(msg)
		return m, cmd
	}
}

func (m Model) focusAdd(idx int) Model {
	idx = ((idx % addFieldCount) + addFieldCount) % addFieldCount
	for i := range m.addInputs {
		if i == idx {
			m.addInputs[i].Focus()
		} else {
			m.addInputs[i].Blur()
		}
	}
	m.addFocus = idx
	return m
}

func (m Model) submitAdd() (tea.Model, tea.Cmd) {
	title := strings.TrimSpace(m.addInputs[addTitle].Value())
	description := strings.TrimSpace(m.addInputs[addDescription].Value())
	dueStr := strings.TrimSpace(m.addInputs[addDueDate].Value())
	group := strings.TrimSpace(m.addInputs[addGroup].Value())
	priority := settings.NormalizePriority(m.addInputs[addPriority].Value())

	// Validation happens here, at the boundary; the store never sees
	// invalid input from this path.
	if title == "" {
		m.status = "Task title cannot be empty"
		return m, nil
	}
	if len(title) > storage.MaxTitleLen {
		m.status = fmt.Sprintf("Task title too long (max %d)", storage.MaxTitleLen)
		return m, nil
	}
	if len(description) > storage.MaxDescriptionLen {
		m.status = fmt.Sprintf("Description too long (max %d)", storage.MaxDescriptionLen)
		return m, nil
	}
	due, err := storage.ParseDue(dueStr)
	if err != nil {
		m.status = "Due date must be YYYY-MM-DD"
		return m, nil
	}

	id, err := m.store.CreateTask(m.user.ID, title, description, due)
	if err != nil {
		m.status = fmt.Sprintf("save failed: %v", err)
		return m, nil
	}
	m.bucket.SetPriority(id, priority)
	if group != "" {
		m.bucket.AssignGroup(id, group)
	}
	if err := m.sstore.Save(m.doc); err != nil {
		m.status = fmt.Sprintf("settings save failed: %v", err)
	} else {
		m.status = "Added task"
	}
	m.mode = modeList
	if err := m.refreshTasks(); err != nil {
		m.status = fmt.Sprintf("reload failed: %v", err)
	}
	return m, nil
}

// --- search ---

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case m.cfg.Keys.Cancel:
		m.query = ""
		m.queryInput.SetValue("")
		m.queryInput.Blur()
		m.mode = modeList
		m.applyFilters()
		m.status = "Search cleared"
		return m, nil
	case m.cfg.Keys.Confirm:
		m.queryInput.Blur()
		m.mode = modeList
		m.status = "Search applied"
		return m, nil
	default:
		var cmd tea.Cmd
		m.queryInput, cmd = m.queryInput.Update(msg)
		m.query = m.queryInput.Value()
		m.applyFilters()
		return m, cmd
	}
}

// --- settings mode ---

var settingsEntries = []string{"Cycle theme", "Cycle accent", "Reset XP to 0", "Delete ALL tasks"}

var themes = []string{"light", "dark", "aurora"}

var accents = []string{"#7AA2F7", "#4caf50", "#ff9800", "#e91e63", "#9c27b0"}

func (m Model) updateSettings(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c":
		return m, tea.Quit
	case m.cfg.Keys.Cancel, m.cfg.Keys.Quit:
		m.mode = modeList
		m.status = "Back to tasks"
		return m, nil
	case m.cfg.Keys.Down, "down", m.cfg.Keys.Up, "up":
		delta := 1
		if key == m.cfg.Keys.Up || key == "up" {
			delta = -1
		}
		n := len(settingsEntries)
		m.setCursor = ((m.setCursor+delta)%n + n) % n
		return m, nil
	case m.cfg.Keys.Confirm:
		return m.applySetting()
	}
	return m, nil
}

func (m Model) applySetting() (tea.Model, tea.Cmd) {
	switch m.setCursor {
	case 0:
		m.doc.Theme = nextOption(themes, m.doc.Theme)
		if err := m.sstore.Save(m.doc); err != nil {
			m.status = fmt.Sprintf("settings save failed: %v", err)
		} else {
			m.status = "Theme: " + m.doc.Theme
		}
	case 1:
		m.doc.Accent = nextOption(accents, m.doc.Accent)
		if err := m.sstore.Save(m.doc); err != nil {
			m.status = fmt.Sprintf("settings save failed: %v", err)
		} else {
			m.status = "Accent: " + m.doc.Accent
		}
	case 2:
		if err := m.store.ResetXP(m.user.ID); err != nil {
			m.status = fmt.Sprintf("reset failed: %v", err)
			return m, nil
		}
		if err := m.refreshTasks(); err != nil {
			m.status = fmt.Sprintf("reload failed: %v", err)
			return m, nil
		}
		m.status = "XP reset to 0"
	case 3:
		if err := m.store.DeleteAllTasks(m.user.ID); err != nil {
			m.status = fmt.Sprintf("delete failed: %v", err)
			return m, nil
		}
		for _, t := range m.tasks {
			m.bucket.RemoveTask(t.ID)
		}
		if err := m.sstore.Save(m.doc); err != nil {
			m.status = fmt.Sprintf("settings save failed: %v", err)
		} else {
			m.status = "All tasks deleted"
		}
		if err := m.refreshTasks(); err != nil {
			m.status = fmt.Sprintf("reload failed: %v", err)
		}
	}
	return m, nil
}

func nextOption(opts []string, current string) string {
	for i, o := range opts {
		if o == current {
			return opts[(i+1)%len(opts)]
		}
	}
	return opts[0]
}

// --- export/import ---

func (m Model) exportTasks() (tea.Model, tea.Cmd) {
	f, err := transfer.Export(m.store, m.user, m.bucket, m.now())
	if err != nil {
		m.status = fmt.Sprintf("export failed: %v", err)
		return m, nil
	}
	if err := f.WriteFile(m.cfg.ExportPath); err != nil {
		m.status = fmt.Sprintf("export failed: %v", err)
		return m, nil
	}
	m.status = fmt.Sprintf("Exported %d tasks to %s", len(f.Tasks), m.cfg.ExportPath)
	return m, nil
}

func (m Model) importTasks() (tea.Model, tea.Cmd) {
	n, err := transfer.ImportFile(m.cfg.ExportPath, m.store, m.user.ID, m.bucket)
	if err != nil {
		m.status = fmt.Sprintf("import failed: %v", err)
		return m, nil
	}
	if err := m.sstore.Save(m.doc); err != nil {
		m.status = fmt.Sprintf("settings save failed: %v", err)
	} else if n == 0 {
		m.status = "Nothing to import"
	} else {
		m.status = fmt.Sprintf("Imported %d tasks from %s", n, m.cfg.ExportPath)
	}
	if err := m.refreshTasks(); err != nil {
		m.status = fmt.Sprintf("reload failed: %v", err)
	}
	return m, nil
}

// --- reminders ---

func (m Model) scheduleReminder() tea.Cmd {
	interval := time.Duration(m.cfg.ReminderInterval) * time.Second
	if interval <= 0 {
		interval = reminder.DefaultInterval
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return reminderTickMsg(t)
	})
}

func (m Model) checkReminders() (string, error) {
	var notes []string
	eng := reminder.New(m.store, m.sstore, m.doc, m.user.ID, reminder.NotifierFunc(func(t storage.Task, group string) {
		if group != "" {
			notes = append(notes, fmt.Sprintf("'%s' [%s] is due today", t.Title, group))
		} else {
			notes = append(notes, fmt.Sprintf("'%s' is due today", t.Title))
		}
	}))
	eng.Now = m.now
	if _, err := eng.Check(); err != nil {
		return "", err
	}
	if len(notes) == 0 {
		return "", nil
	}
	return "Reminder: " + strings.Join(notes, " • "), nil
}

// --- shared state ---

func (m *Model) refreshTasks() error {
	tasks, err := m.store.Tasks(m.user.ID)
	if err != nil {
		return err
	}
	m.tasks = tasks
	xp, err := m.store.XP(m.user.ID)
	if err != nil {
		return err
	}
	m.xp = xp
	m.applyFilters()
	return nil
}

func (m *Model) applyFilters() {
	opts := m.groupOptions()
	if m.groupIdx >= len(opts) {
		m.groupIdx = 0
	}
	m.visible = filter.Apply(m.tasks, filter.Criteria{
		Query:  m.query,
		Status: filter.Statuses[m.statusIdx],
		Group:  opts[m.groupIdx],
	}, m.bucket, m.now())
	m.cursor = clampCursor(m.cursor, len(m.visible))
}

func (m Model) groupOptions() []string {
	opts := []string{filter.AllGroups}
	if m.bucket != nil {
		opts = append(opts, m.bucket.Groups...)
	}
	return opts
}

func (m Model) today() string {
	return m.now().Format("2006-01-02")
}

func (m Model) detailLine(t storage.Task) string {
	info := fmt.Sprintf("Task #%d • %s • %s • priority:%s", t.ID, t.Title, humanCompleted(t.Completed), m.bucket.Priority(t.ID))
	if g := m.bucket.Group(t.ID); g != "" {
		info += " • group:" + g
	}
	if t.Due.Valid {
		info += " • due:" + t.DueDate()
	}
	if t.Description != "" {
		info += " • " + t.Description
	}
	return info
}

func statusIndex(s filter.Status) int {
	for i, v := range filter.Statuses {
		if v == s {
			return i
		}
	}
	return 0
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}

func humanCompleted(done bool) string {
	if done {
		return "completed"
	}
	return "pending"
}
