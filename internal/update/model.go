package update

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/ShiftPioneer/nexus-app-sub003/internal/app"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/model"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/scheduler"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/tasks"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	NextView string
	PrevView string
	Up       string
	Down     string
	Toggle   string
	Delete   string
	Restore  string
	Palette  string
	Help     string
	Quit     string
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

// Model is the dashboard over one open session.
type Model struct {
	App          *app.App
	CurrentView  tasks.View
	Query        string
	Rows         []model.Task
	Cursor       int
	Summary      app.Summary
	Palette      CommandPaletteState
	HelpVisible  bool
	Status       StatusBar
	Keys         GlobalKeyMap
	Quitting     bool
	LastError    error
	TickInterval time.Duration
	Width        int

	ctx          context.Context
	levelShown   int
	taskTable    table.Model
	commandInput textinput.Model
	xpProgress   progress.Model
	xpPercent    float64
	helpModel    help.Model
}

type SwitchViewMsg struct {
	View tasks.View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

// TickMsg fires the time-driven daily checks.
type TickMsg struct {
	At time.Time
}

// RefreshMsg re-reads the stores, e.g. once a level-up notice expires.
type RefreshMsg struct{}

func NewModel(ctx context.Context, a *app.App) Model {
	interval := scheduler.DefaultInterval
	if a.Config != nil && a.Config.TickInterval > 0 {
		interval = a.Config.TickInterval
	}
	m := Model{
		App:          a,
		CurrentView:  tasks.ViewInbox,
		TickInterval: interval,
		Keys: GlobalKeyMap{
			NextView: "tab",
			PrevView: "shift+tab",
			Up:       "k",
			Down:     "j",
			Toggle:   " ",
			Delete:   "d",
			Restore:  "r",
			Palette:  "/",
			Help:     "?",
			Quit:     "q",
		},
		ctx: ctx,
	}
	m.initBubbleComponents()
	m.refresh()
	if a.Sink.Degraded {
		m.Status = StatusBar{Text: "no durable store available, changes are kept in memory only", IsError: true}
	}
	return m
}

func (m *Model) initBubbleComponents() {
	cols := []table.Column{
		{Title: "#", Width: 3},
		{Title: "Title", Width: 30},
		{Title: "Status", Width: 11},
		{Title: "Priority", Width: 8},
		{Title: "Quadrant", Width: 9},
		{Title: "Due", Width: 10},
	}
	m.taskTable = table.New(table.WithColumns(cols), table.WithRows([]table.Row{}), table.WithFocused(true), table.WithHeight(14))

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 60

	m.xpProgress = progress.New(progress.WithDefaultGradient(), progress.WithWidth(36))
	m.helpModel = help.New()
}
