package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"taskdeck/internal/filter"
	"taskdeck/internal/settings"
	"taskdeck/internal/storage"
)

func (m Model) View() string {
	switch m.mode {
	case modeLogin, modeSignup:
		return m.viewAuth()
	case modeAdd:
		return m.viewAdd()
	case modeCalendar:
		return m.viewCalendar()
	case modeSettings:
		return m.viewSettings()
	default:
		return m.viewList()
	}
}

func (m Model) accent() lipgloss.Style {
	accent := settings.DefaultAccent
	if m.doc != nil && m.doc.Accent != "" {
		accent = m.doc.Accent
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(accent))
}

func (m Model) viewAuth() string {
	var b strings.Builder

	title := "Log in"
	hint := "ctrl+n to create an account"
	if m.mode == modeSignup {
		title = "Sign up"
		hint = "ctrl+n to log in instead"
	}
	b.WriteString(m.accent().Bold(true).Render("Taskdeck — " + title))
	b.WriteString("\n\n")
	for i, ti := range m.authInputs {
		cursor := " "
		if i == m.authFocus {
			cursor = ">"
		}
		b.WriteString(cursor + " " + ti.View() + "\n")
	}
	b.WriteString("\n")
	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("enter submit • tab next field • %s • ctrl+c quit", hint))
	return b.String()
}

func (m Model) viewList() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderFilters())
	b.WriteString("\n\n")

	if len(m.visible) == 0 {
		if len(m.tasks) == 0 {
			b.WriteString("No tasks yet. Press '" + m.cfg.Keys.Add + "' to add one.")
		} else {
			b.WriteString("No tasks match the current filters.")
		}
		b.WriteString("\n")
	} else {
		for i, t := range m.visible {
			b.WriteString(m.renderTaskLine(t, i == m.cursor))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderHeader() string {
	level := m.xp / 100
	progress := m.xp % 100
	streak := settings.Streak(m.bucket.CompletionLog, m.now())

	bar := strings.Repeat("█", progress/10) + strings.Repeat("░", 10-progress/10)
	left := fmt.Sprintf("%s  XP: %d  Level: %d  [%s] %d%%",
		m.accent().Bold(true).Render("Taskdeck"), m.xp, level, bar, progress)
	right := fmt.Sprintf("Streak: %d", streak)
	if streak > 0 {
		right = m.accent().Render(right)
	}
	return left + "   " + right
}

func (m Model) renderFilters() string {
	query := m.query
	if m.mode == modeSearch {
		return "Search: " + m.queryInput.View()
	}
	if query == "" {
		query = "(none)"
	}
	return fmt.Sprintf("Search: %s  •  Filter: %s  •  Group: %s",
		query, statusLabel(filter.Statuses[m.statusIdx]), m.groupOptions()[m.groupIdx])
}

func (m Model) renderTaskLine(t storage.Task, selected bool) string {
	cursor := " "
	if selected {
		cursor = ">"
	}
	checkbox := "[ ]"
	if t.Completed {
		checkbox = "[x]"
	}
	marker := priorityMarker(m.bucket.Priority(t.ID))

	body := fmt.Sprintf("%s %s %s [%d] ", cursor, checkbox, marker, t.ID)
	if g := m.bucket.Group(t.ID); g != "" {
		body += "[" + g + "] "
	}
	body += t.Title

	dueToday := t.DueOn(m.now())
	switch {
	case dueToday:
		body += " (Due Today!)"
	case t.Due.Valid:
		body += " (Due: " + t.Due.Time.Format("January 02, 2006") + ")"
	default:
		body += " (No due date)"
	}

	if dueToday && !t.Completed {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render(body)
	}
	if t.Completed {
		return lipgloss.NewStyle().Faint(true).Render(body)
	}
	return body
}

func (m Model) renderHelp() string {
	k := m.cfg.Keys
	return fmt.Sprintf("%s/%s move • %s add • space complete • %s delete • %s detail • %s search • %s filter • %s group • %s calendar • s settings • %s/%s export/import • %s quit",
		k.Up, k.Down, k.Add, k.Delete, k.Detail, k.Search, k.CycleStatus, k.CycleGroup, k.Calendar, k.Export, k.Import, k.Quit)
}

func (m Model) viewAdd() string {
	var b strings.Builder
	b.WriteString(m.accent().Bold(true).Render("New Task"))
	b.WriteString("\n\n")
	labels := []string{"Title", "Description", "Due date", "Group", "Priority"}
	for i, ti := range m.addInputs {
		cursor := " "
		if i == m.addFocus {
			cursor = ">"
		}
		b.WriteString(fmt.Sprintf("%s %-12s %s\n", cursor, labels[i]+":", ti.View()))
	}
	b.WriteString("\n")
	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString("enter next/save • tab move • esc cancel")
	return b.String()
}

func (m Model) viewSettings() string {
	var b strings.Builder
	b.WriteString(m.accent().Bold(true).Render("Settings"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Theme: %s   Accent: %s\n\n", m.doc.Theme, m.accent().Render(m.doc.Accent)))
	for i, entry := range settingsEntries {
		cursor := " "
		if i == m.setCursor {
			cursor = ">"
		}
		b.WriteString(cursor + " " + entry + "\n")
	}
	b.WriteString("\n")
	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString("enter apply • esc back")
	return b.String()
}

func statusLabel(s filter.Status) string {
	switch s {
	case filter.StatusCompleted:
		return "Completed"
	case filter.StatusNotCompleted:
		return "Not Completed"
	case filter.StatusDueToday:
		return "Due Today"
	default:
		return "All"
	}
}

func priorityMarker(priority string) string {
	switch priority {
	case settings.PriorityHigh:
		return "!!!"
	case settings.PriorityMedium:
		return " !!"
	default:
		return "  !"
	}
}
