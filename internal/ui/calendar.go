package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (m Model) updateCalendar(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c":
		return m, tea.Quit
	case m.cfg.Keys.Cancel, m.cfg.Keys.Quit:
		m.mode = modeList
		m.status = "Back to tasks"
		return m, nil
	case "left":
		m.calDay = m.calDay.AddDate(0, 0, -1)
	case "right":
		m.calDay = m.calDay.AddDate(0, 0, 1)
	case "up":
		m.calDay = m.calDay.AddDate(0, 0, -7)
	case "down":
		m.calDay = m.calDay.AddDate(0, 0, 7)
	case "h":
		m.calMonth = m.calMonth.AddDate(0, -1, 0)
		m.calDay = m.calMonth
		return m, nil
	case "l":
		m.calMonth = m.calMonth.AddDate(0, 1, 0)
		m.calDay = m.calMonth
		return m, nil
	}
	// Keep the visible month in step with the selected day.
	m.calMonth = time.Date(m.calDay.Year(), m.calDay.Month(), 1, 0, 0, 0, 0, time.Local)
	return m, nil
}

func (m Model) viewCalendar() string {
	var b strings.Builder
	b.WriteString(m.accent().Bold(true).Render(m.calMonth.Format("January 2006")))
	b.WriteString("\n\n")
	b.WriteString("Su Mo Tu We Th Fr Sa\n")

	// due marks for the visible month: day -> has any / has incomplete
	type mark struct{ any, incomplete bool }
	marks := map[int]mark{}
	for _, t := range m.tasks {
		if !t.Due.Valid {
			continue
		}
		d := t.Due.Time
		if d.Year() != m.calMonth.Year() || d.Month() != m.calMonth.Month() {
			continue
		}
		mk := marks[d.Day()]
		mk.any = true
		mk.incomplete = mk.incomplete || !t.Completed
		marks[d.Day()] = mk
	}

	first := m.calMonth
	daysInMonth := first.AddDate(0, 1, -1).Day()
	offset := int(first.Weekday())
	b.WriteString(strings.Repeat("   ", offset))

	selected := m.calDay
	for day := 1; day <= daysInMonth; day++ {
		cell := fmt.Sprintf("%2d", day)
		onSelected := selected.Year() == first.Year() && selected.Month() == first.Month() && selected.Day() == day
		switch {
		case onSelected:
			cell = lipgloss.NewStyle().Reverse(true).Render(cell)
		case marks[day].incomplete:
			cell = m.accent().Bold(true).Render(cell)
		case marks[day].any:
			cell = m.accent().Render(cell)
		}
		b.WriteString(cell + " ")
		if (offset+day)%7 == 0 {
			b.WriteString("\n")
		}
	}
	b.WriteString("\n\n")

	b.WriteString("Tasks on " + m.calDay.Format("Monday, January 02, 2006") + ":\n")
	found := false
	for _, t := range m.tasks {
		if !t.DueOn(m.calDay) {
			continue
		}
		found = true
		status := "[ ]"
		if t.Completed {
			status = "[x]"
		}
		line := fmt.Sprintf("  %s %s [%d] ", status, priorityMarker(m.bucket.Priority(t.ID)), t.ID)
		if g := m.bucket.Group(t.ID); g != "" {
			line += "[" + g + "] "
		}
		line += t.Title
		b.WriteString(line + "\n")
	}
	if !found {
		b.WriteString("  No tasks due.\n")
	}

	b.WriteString("\n")
	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString("arrows move day • h/l month • esc back")
	return b.String()
}
