package update

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/routined/internal/alarm"
	"github.com/sandeepkv93/routined/internal/config"
	"github.com/sandeepkv93/routined/internal/model"
	"github.com/sandeepkv93/routined/internal/views"
)

func clockTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return ClockTickMsg{} })
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitForFiring(), clockTickCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			return m.handlePaletteKey(typed)
		}
		return m.handleKey(typed)
	case FiringMsg:
		return m.onFiring(typed.Firing)
	case bellDoneMsg:
		m.bellPending = false
		return m, nil
	case PollerStoppedMsg:
		m.Status = StatusBar{Text: "alarm poller stopped", IsError: true}
		return m, nil
	case RefreshMsg:
		m.refresh()
		return m, nil
	case ClockTickMsg:
		return m, clockTickCmd()
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		if typed.Err != nil {
			m.fail(typed.Err)
			m.refresh()
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Palette):
		return m.openPalette(), nil
	case key.Matches(msg, m.keys.Help):
		m.HelpVisible = !m.HelpVisible
		return m, nil
	case key.Matches(msg, m.keys.Dismiss):
		if m.alarmActive() {
			return m.dismissAlarm(), nil
		}
	case key.Matches(msg, m.keys.Complete):
		if m.alarmActive() {
			return m.completeAlarm()
		}
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Toggle):
		if err := m.toggleSelectedCompleted(); err != nil {
			m.fail(err)
		}
	case key.Matches(msg, m.keys.Alarm):
		if err := m.toggleSelectedAlarm(); err != nil {
			m.fail(err)
		}
	case key.Matches(msg, m.keys.Filter):
		m.cycleFilter()
	case key.Matches(msg, m.keys.Clock):
		if m.TimeFormat == config.TimeFormat12h {
			m.TimeFormat = config.TimeFormat24h
		} else {
			m.TimeFormat = config.TimeFormat12h
		}
	}
	return m, nil
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}
	now := m.clock.Now()

	var ringing string
	if f, ok := m.controller.Active(); ok {
		ringing = f.Task.ID
	}
	visible := m.Visible()
	rows := make([]views.TaskRow, 0, len(visible))
	for i, t := range visible {
		rows = append(rows, views.TaskRow{
			ID:           t.ID,
			Title:        t.Title,
			Category:     string(t.Category),
			AlarmTime:    formatAlarmTime(t.AlarmTime, m.TimeFormat),
			RepeatDays:   t.RepeatDays.String(),
			AlarmEnabled: t.AlarmEnabled,
			Completed:    t.IsCompleted,
			Selected:     i == m.Cursor,
			Ringing:      t.ID == ringing,
		})
	}

	next := ""
	if upcoming := alarm.UpcomingAlarms(m.Tasks, now, 1); len(upcoming) > 0 {
		u := upcoming[0]
		next = fmt.Sprintf("%s %s", u.Task.Title, formatAlarmTime(model.ClockString(u.At), m.TimeFormat))
		if !sameDay(u.At, now) {
			next += " " + u.At.Format("Mon")
		}
	}

	right := views.RenderCommandPalette(m.Palette.Active, m.Palette.Input)
	if help := m.renderHelpIfVisible(); help != "" {
		right = joinNonEmpty(right, help)
	}

	status := ""
	if m.Status.Text != "" {
		status = "status: " + m.Status.Text
		if m.Status.IsError {
			status = "status: error: " + m.Status.Text
		}
	}

	return m.ringBell(views.RenderApp(views.AppData{
		Header: "routined",
		Clock:  formatClock(now, m.TimeFormat),
		Stats: views.RenderStats(views.StatsData{
			Pending:      m.Stats.Pending,
			Completed:    m.Stats.Completed,
			ActiveAlarms: m.Stats.ActiveAlarms,
			NextAlarm:    next,
		}),
		Banner:     m.renderAlarmBanner(),
		LeftPane:   views.RenderTaskPanel(views.TaskPanelData{Filter: string(m.Filter), Rows: rows}),
		RightPane:  right,
		StatusLine: status,
		IsError:    m.Status.IsError,
		Footer:     m.helpModel.View(m.keys),
	}))
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "\n\n" + b
	}
}
