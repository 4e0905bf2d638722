package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type TaskRow struct {
	ID           string
	Title        string
	Category     string
	AlarmTime    string
	RepeatDays   string
	AlarmEnabled bool
	Completed    bool
	Selected     bool
	Ringing      bool
}

type TaskPanelData struct {
	Filter string
	Rows   []TaskRow
}

type StatsData struct {
	Pending      int
	Completed    int
	ActiveAlarms int
	NextAlarm    string
}

type AlarmBannerData struct {
	Title     string
	Body      string
	AlarmTime string
}

type HelpPanelData struct {
	Markdown string
	KeysView string
}

var (
	doneStyle     = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("8"))
	selectedStyle = lipgloss.NewStyle().Bold(true)
	ringingStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func RenderTaskPanel(data TaskPanelData) string {
	var b strings.Builder
	filter := data.Filter
	if filter == "" {
		filter = "all"
	}
	b.WriteString(fmt.Sprintf("tasks [%s]:\n", filter))
	if len(data.Rows) == 0 {
		b.WriteString(mutedStyle.Render("  (no tasks, press / and type: add <title> @HH:MM)"))
		return b.String()
	}
	for _, row := range data.Rows {
		b.WriteString(renderTaskRow(row))
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func renderTaskRow(row TaskRow) string {
	cursor := " "
	if row.Selected {
		cursor = ">"
	}
	check := "[ ]"
	if row.Completed {
		check = "[x]"
	}
	bell := "  "
	if row.AlarmEnabled {
		bell = "⏰"
	}
	schedule := row.AlarmTime
	if row.RepeatDays != "" {
		schedule += " " + row.RepeatDays
	} else {
		schedule += " daily"
	}

	title := row.Title
	switch {
	case row.Ringing:
		title = ringingStyle.Render(title)
	case row.Completed:
		title = doneStyle.Render(title)
	case row.Selected:
		title = selectedStyle.Render(title)
	}
	return fmt.Sprintf("%s %s %s %s %s %s", cursor, check, bell, title, mutedStyle.Render(schedule), mutedStyle.Render("#"+row.Category))
}

func RenderStats(data StatsData) string {
	line := fmt.Sprintf("pending: %d | completed: %d | active alarms: %d", data.Pending, data.Completed, data.ActiveAlarms)
	if data.NextAlarm != "" {
		line += " | next: " + data.NextAlarm
	}
	return mutedStyle.Render(line)
}

func RenderAlarmBanner(data AlarmBannerData) string {
	if data.Title == "" {
		return ""
	}
	return fmt.Sprintf("%s  (%s)\n%s\n[d] dismiss   [c] complete", data.Title, data.AlarmTime, data.Body)
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderHelpPanel(data HelpPanelData) string {
	md := RenderMarkdown(data.Markdown)
	if data.KeysView == "" {
		return md
	}
	return md + "\n\n" + data.KeysView
}
