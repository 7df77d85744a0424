package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ShiftPioneer/nexus-app-sub003/internal/commands"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/model"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/tasks"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
		return m, nil
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.Palette.Input = m.commandInput.Value()
			return m, nil
		}
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		m.Palette.Input = m.commandInput.Value()
		return m, cmd
	}
}

func (m *Model) closePalette() {
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}

func (m Model) executePaletteCommand() (Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m.closePalette()
	parsed, err := commands.Parse(raw, m.App.Now().In(m.App.Location))
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	res, err := commands.Execute(parsed, m.handlers())
	m.setOutcome(res.Message, err)
	cmd := m.refresh()
	return m, cmd
}

// handlers binds palette commands to the session. Targets resolve against
// the rows on screen first.
func (m *Model) handlers() commands.Handlers {
	return commands.Bind(m.ctx, commands.Session{
		App:  m.App,
		Rows: m.Rows,
		ShowView: func(v tasks.View) (commands.Result, error) {
			m.CurrentView = v
			m.Query = ""
			m.Cursor = 0
			return commands.Result{Message: fmt.Sprintf("showing %s", v)}, nil
		},
		ShowMatches: func(query string, matches []model.Task) (commands.Result, error) {
			m.Query = query
			m.Cursor = 0
			return commands.Result{Message: fmt.Sprintf("%d match(es) for %q", len(matches), query)}, nil
		},
	})
}

func (m *Model) setOutcome(msg string, err error) {
	if err != nil {
		m.LastError = err
		text := err.Error()
		if msg != "" {
			text = msg + " (" + text + ")"
		}
		m.Status = StatusBar{Text: text, IsError: true}
		return
	}
	m.Status = StatusBar{Text: msg}
}
