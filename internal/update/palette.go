package update

import (
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/routined/internal/commands"
	"github.com/sandeepkv93/routined/internal/model"
	"github.com/sandeepkv93/routined/internal/storage"
)

func (m Model) openPalette() Model {
	m.Palette.Active = true
	m.Palette.Input = ""
	m.commandInput.Focus()
	m.commandInput.SetValue("")
	m.Status = StatusBar{Text: "command palette active"}
	return m
}

func (m Model) closePalette() Model {
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
	return m
}

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m = m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
		return m, nil
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	}
	if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
		m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
		if msg.Type == tea.KeySpace && len(msg.Runes) == 0 {
			m.commandInput.SetValue(m.commandInput.Value() + " ")
		}
		m.Palette.Input = m.commandInput.Value()
		return m, nil
	}
	var cmd tea.Cmd
	m.commandInput, cmd = m.commandInput.Update(msg)
	m.Palette.Input = m.commandInput.Value()
	return m, cmd
}

func (m Model) executePaletteCommand() (Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m = m.closePalette()

	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	var follow tea.Cmd
	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			if m.repo == nil {
				return commands.Result{}, fmt.Errorf("no task store configured")
			}
			task, err := storage.AddTask(m.ctx, m.repo, model.Task{
				Title:        a.Title,
				Description:  a.Description,
				Category:     a.Category,
				AlarmEnabled: true,
				AlarmTime:    a.AlarmTime,
				RepeatDays:   a.RepeatDays,
			}, m.clock.Now())
			if err != nil {
				return commands.Result{}, err
			}
			m.refresh()
			m.Cursor = 0
			return commands.Result{Message: fmt.Sprintf("added %q at %s", task.Title, formatAlarmTime(task.AlarmTime, m.TimeFormat))}, nil
		},
		Complete: func(c commands.CompleteArgs) (commands.Result, error) {
			if c.Target == "" && m.alarmActive() {
				var tc tea.Cmd
				m, tc = m.completeAlarm()
				follow = tc
				return commands.Result{Message: m.Status.Text}, nil
			}
			task, err := m.targetOrSelected(c.Target)
			if err != nil {
				return commands.Result{}, err
			}
			if err := m.setCompleted(task, true); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: "completed: " + task.Title}, nil
		},
		Dismiss: func() (commands.Result, error) {
			f, err := m.controller.Dismiss()
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: "dismissed: " + f.Task.Title}, nil
		},
		Alarm: func(a commands.AlarmArgs) (commands.Result, error) {
			task, err := m.resolveTask(a.Target)
			if err != nil {
				return commands.Result{}, err
			}
			if err := m.setAlarm(task, a.Enabled); err != nil {
				return commands.Result{}, err
			}
			state := "off"
			if a.Enabled {
				state = "on"
			}
			return commands.Result{Message: fmt.Sprintf("alarm %s: %s", state, task.Title)}, nil
		},
		Filter: func(f commands.FilterArgs) (commands.Result, error) {
			m.Filter = f.Category
			m.Cursor = 0
			label := string(f.Category)
			if label == "" {
				label = "all"
			}
			return commands.Result{Message: "filter: " + label}, nil
		},
		Delete: func(d commands.DeleteArgs) (commands.Result, error) {
			task, err := m.resolveTask(d.Target)
			if err != nil {
				return commands.Result{}, err
			}
			if m.repo == nil {
				return commands.Result{}, fmt.Errorf("no task store configured")
			}
			if err := m.repo.DeleteTask(m.ctx, task.ID); err != nil {
				return commands.Result{}, err
			}
			m.refresh()
			return commands.Result{Message: "deleted: " + task.Title}, nil
		},
		Edit: func(e commands.EditArgs) (commands.Result, error) {
			task, err := m.resolveTask(e.Target)
			if err != nil {
				return commands.Result{}, err
			}
			if m.repo == nil {
				return commands.Result{}, fmt.Errorf("no task store configured")
			}
			edited, err := storage.EditTask(m.ctx, m.repo, task.ID, e.Apply)
			if err != nil {
				return commands.Result{}, err
			}
			m.refresh()
			return commands.Result{Message: fmt.Sprintf("updated %q at %s", edited.Title, formatAlarmTime(edited.AlarmTime, m.TimeFormat))}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.logger.Warn("command failed", slog.String("command", string(cmd.Type)), slog.String("error", err.Error()))
		return m, nil
	}
	m.Status = StatusBar{Text: res.Message}
	return m, follow
}

func (m Model) targetOrSelected(target string) (model.Task, error) {
	if target != "" {
		return m.resolveTask(target)
	}
	task, ok := m.Selected()
	if !ok {
		return model.Task{}, errNoSelection
	}
	return task, nil
}
