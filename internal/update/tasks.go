package update

import (
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ShiftPioneer/nexus-app-sub003/internal/commands"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/model"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/tasks"
)

// refresh re-reads rows and the side-panel summary from the stores.
func (m *Model) refresh() tea.Cmd {
	if m.Query != "" {
		m.Rows = m.App.Tasks.Search(m.Query, commands.SearchLimit)
	} else {
		m.Rows = m.App.Tasks.List(m.CurrentView)
	}
	if m.Cursor >= len(m.Rows) {
		m.Cursor = len(m.Rows) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
	m.Summary = m.App.Summary(m.ctx)
	m.syncBubbleData()

	ann := m.Summary.Announcement
	if ann == nil || ann.Level == m.levelShown {
		return nil
	}
	m.levelShown = ann.Level
	wait := ann.ExpiresAt.Sub(m.App.Now())
	return tea.Tick(wait, func(time.Time) tea.Msg { return RefreshMsg{} })
}

func (m *Model) syncBubbleData() {
	rows := make([]table.Row, 0, len(m.Rows))
	for i, t := range m.Rows {
		rows = append(rows, table.Row{
			strconv.Itoa(i + 1),
			t.Title,
			string(t.Status),
			string(t.Priority),
			quadrantLabel(t),
			dueLabel(t),
		})
	}
	m.taskTable.SetRows(rows)
	if len(rows) > 0 {
		m.taskTable.SetCursor(m.Cursor)
	}

	m.xpPercent = m.Summary.LevelProgress
	m.commandInput.SetValue(m.Palette.Input)
}

func (m Model) selected() (model.Task, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Rows) {
		return model.Task{}, false
	}
	return m.Rows[m.Cursor], true
}

func (m Model) shiftView(step int) Model {
	idx := 0
	for i, v := range tasks.Views {
		if v == m.CurrentView {
			idx = i
			break
		}
	}
	n := len(tasks.Views)
	m.CurrentView = tasks.Views[(idx+step+n)%n]
	m.Query = ""
	m.Cursor = 0
	return m
}

func (m Model) handleTaskKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case m.Keys.Down, "down":
		if m.Cursor < len(m.Rows)-1 {
			m.Cursor++
		}
		m.syncBubbleData()
		return m, nil
	case m.Keys.Up, "up":
		if m.Cursor > 0 {
			m.Cursor--
		}
		m.syncBubbleData()
		return m, nil
	}

	t, ok := m.selected()
	if !ok {
		return m, nil
	}
	var (
		out     model.Task
		changed bool
		err     error
		verb    string
	)
	switch msg.String() {
	case m.Keys.Toggle:
		verb = "toggled"
		out, changed, err = m.App.Tasks.ToggleComplete(m.ctx, t.ID)
	case m.Keys.Delete:
		verb = "moved to trash"
		out, changed, err = m.App.Tasks.SoftDelete(m.ctx, t.ID)
	case m.Keys.Restore:
		verb = "restored"
		out, changed, err = m.App.Tasks.Restore(m.ctx, t.ID)
	default:
		return m, nil
	}
	res, err := commands.TaskOutcome(verb, out, changed, err)
	m.setOutcome(res, err)
	cmd := m.refresh()
	return m, cmd
}

func quadrantLabel(t model.Task) string {
	q, ok := model.QuadrantOf(t)
	if !ok {
		return "-"
	}
	return string(q)
}

func dueLabel(t model.Task) string {
	if t.DueDate == nil {
		return ""
	}
	return model.Day(*t.DueDate)
}
