package update

import (
	"context"
	"io"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/sandeepkv93/routined/internal/alarm"
	"github.com/sandeepkv93/routined/internal/config"
	"github.com/sandeepkv93/routined/internal/model"
	"github.com/sandeepkv93/routined/internal/scheduler"
	"github.com/sandeepkv93/routined/internal/storage"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

// Model is the routine list plus the alarm banner. The controller owns the
// alarm state; the model only reads it and forwards dismiss/complete.
type Model struct {
	Tasks       []model.Task
	Stats       storage.Stats
	Cursor      int
	Filter      model.Category
	TimeFormat  string
	Palette     CommandPaletteState
	HelpVisible bool
	Status      StatusBar
	Quitting    bool
	LastError   error

	sound       bool
	bellPending bool

	ctx          context.Context
	repo         storage.Repository
	poller       *scheduler.Poller
	controller   *alarm.Controller
	clock        alarm.Clock
	logger       *slog.Logger
	keys         keyMap
	helpModel    help.Model
	commandInput textinput.Model
}

type Options struct {
	Context    context.Context
	Repo       storage.Repository
	Poller     *scheduler.Poller
	Controller *alarm.Controller
	Clock      alarm.Clock
	TimeFormat string
	Logger     *slog.Logger
	// Sound rings the terminal bell when an alarm fires.
	Sound      bool
}

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Toggle   key.Binding
	Alarm    key.Binding
	Dismiss  key.Binding
	Complete key.Binding
	Filter   key.Binding
	Clock    key.Binding
	Palette  key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		Toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle done")),
		Alarm:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "toggle alarm")),
		Dismiss:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "dismiss alarm")),
		Complete: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "complete alarm")),
		Filter:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "cycle category")),
		Clock:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "12h/24h")),
		Palette:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "command")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Alarm, k.Filter, k.Palette, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.Alarm},
		{k.Dismiss, k.Complete},
		{k.Filter, k.Clock, k.Palette, k.Help, k.Quit},
	}
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

// FiringMsg carries a firing the poller handed to the controller.
type FiringMsg struct {
	Firing alarm.Firing
}

// PollerStoppedMsg arrives once the poller's channel is closed.
type PollerStoppedMsg struct{}

type RefreshMsg struct{}

type ClockTickMsg struct{}

func NewModel(opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Clock == nil {
		opts.Clock = alarm.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.TimeFormat == "" {
		opts.TimeFormat = config.TimeFormat24h
	}
	if opts.Controller == nil && opts.Poller != nil {
		opts.Controller = opts.Poller.Controller()
	}
	if opts.Controller == nil {
		opts.Controller = alarm.NewController(nil)
	}

	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = "add stretch @07:30 days:weekdays cat:morning"

	m := Model{
		TimeFormat:   opts.TimeFormat,
		sound:        opts.Sound,
		ctx:          opts.Context,
		repo:         opts.Repo,
		poller:       opts.Poller,
		controller:   opts.Controller,
		clock:        opts.Clock,
		logger:       opts.Logger,
		keys:         defaultKeyMap(),
		helpModel:    help.New(),
		commandInput: input,
	}
	m.refresh()
	return m
}
