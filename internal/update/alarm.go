package update

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/routined/internal/alarm"
	"github.com/sandeepkv93/routined/internal/notify"
	"github.com/sandeepkv93/routined/internal/views"
)

const (
	refreshAfterComplete = 300 * time.Millisecond
	// bellHold keeps the bell in exactly one rendered frame.
	bellHold = 50 * time.Millisecond
)

type bellDoneMsg struct{}

func waitForFiringCmd(ch <-chan alarm.Firing) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		f, ok := <-ch
		if !ok {
			return PollerStoppedMsg{}
		}
		return FiringMsg{Firing: f}
	}
}

func (m Model) waitForFiring() tea.Cmd {
	if m.poller == nil {
		return nil
	}
	return waitForFiringCmd(m.poller.C())
}

func (m Model) onFiring(f alarm.Firing) (Model, tea.Cmd) {
	m.Status = StatusBar{Text: notify.ForTask(f.Task).Title}
	m.refresh()
	if !m.sound {
		return m, m.waitForFiring()
	}
	m.bellPending = true
	return m, tea.Batch(m.waitForFiring(), tea.Tick(bellHold, func(time.Time) tea.Msg { return bellDoneMsg{} }))
}

// ringBell prefixes the frame with BEL. Going through the renderer keeps the
// bell out of the middle of its escape sequences.
func (m Model) ringBell(frame string) string {
	if !m.bellPending {
		return frame
	}
	return "\a" + frame
}

func (m Model) dismissAlarm() Model {
	f, err := m.controller.Dismiss()
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m
	}
	m.Status = StatusBar{Text: "dismissed: " + f.Task.Title}
	return m
}

// completeAlarm resolves the active alarm as done. The store write happens
// in the background; the list is updated optimistically and reloaded shortly
// after.
func (m Model) completeAlarm() (Model, tea.Cmd) {
	f, err := m.controller.Complete(m.ctx)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	m.markCompletedLocally(f.Task.ID)
	m.Status = StatusBar{Text: "completed: " + f.Task.Title}
	m.logger.Debug("completion requested", slog.String("task_id", f.Task.ID))
	return m, tea.Tick(refreshAfterComplete, func(time.Time) tea.Msg { return RefreshMsg{} })
}

func (m Model) alarmActive() bool {
	return m.controller.State() == alarm.StateAlarming
}

func (m Model) renderAlarmBanner() string {
	f, ok := m.controller.Active()
	if !ok {
		return ""
	}
	n := notify.ForTask(f.Task)
	return views.RenderAlarmBanner(views.AlarmBannerData{
		Title:     n.Title,
		Body:      n.Body,
		AlarmTime: formatAlarmTime(f.Task.AlarmTime, m.TimeFormat),
	})
}
