package update

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ShiftPioneer/nexus-app-sub003/internal/app"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/scheduler"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/tasks"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/views"
)

func (m Model) Init() tea.Cmd {
	return m.nextTickCmd()
}

// nextTickCmd waits for the periodic check or local midnight, whichever
// comes first.
func (m Model) nextTickCmd() tea.Cmd {
	now := m.App.Now()
	wait := m.TickInterval
	if untilMidnight := scheduler.NextMidnight(now, m.App.Location).Sub(now); untilMidnight < wait {
		wait = untilMidnight
	}
	return tea.Tick(wait, func(at time.Time) tea.Msg { return TickMsg{At: at} })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			return m.handlePaletteKey(typed)
		}
		switch typed.String() {
		case m.Keys.Palette, ":":
			m.Palette.Active = true
			m.Palette.Input = ""
			m.commandInput.SetValue("")
			m.commandInput.Focus()
			m.Status = StatusBar{Text: "command palette active"}
			return m, nil
		case m.Keys.NextView:
			m = m.shiftView(1)
			cmd := m.refresh()
			return m, cmd
		case m.Keys.PrevView:
			m = m.shiftView(-1)
			cmd := m.refresh()
			return m, cmd
		case m.Keys.Help:
			m.HelpVisible = !m.HelpVisible
			return m, nil
		case "ctrl+c", m.Keys.Quit:
			m.Quitting = true
			return m, tea.Quit
		}
		return m.handleTaskKey(typed)
	case tea.WindowSizeMsg:
		m.Width = typed.Width
		return m, nil
	case SwitchViewMsg:
		if _, err := tasks.ParseView(string(typed.View)); err == nil && typed.View != "" {
			m.CurrentView = typed.View
			m.Query = ""
			m.Cursor = 0
			cmd := m.refresh()
			return m, cmd
		}
		return m, nil
	case TickMsg:
		report := m.App.Tick(m.ctx, typed.At)
		if text := tickStatus(report); text != "" {
			m.Status = StatusBar{Text: text}
		}
		cmd := m.refresh()
		return m, tea.Batch(cmd, m.nextTickCmd())
	case RefreshMsg:
		cmd := m.refresh()
		return m, cmd
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
		}
		return m, nil
	}
	return m, nil
}

func tickStatus(r app.TickReport) string {
	var parts []string
	if r.HabitsReset {
		parts = append(parts, "new day, habits reset")
	}
	if r.LoginBonus != nil {
		parts = append(parts, fmt.Sprintf("daily login +%d xp", r.LoginBonus.Amount))
	}
	return strings.Join(parts, ", ")
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}
	counts := make(map[string]int, len(m.Summary.Counts))
	names := make([]string, 0, len(tasks.Views))
	for _, v := range tasks.Views {
		names = append(names, string(v))
		counts[string(v)] = m.Summary.Counts[v]
	}
	left := views.RenderTaskPanel(views.TaskPanelData{
		View:      string(m.CurrentView),
		Views:     names,
		Counts:    counts,
		TableView: m.taskTable.View(),
		Empty:     len(m.Rows) == 0,
	})

	s := m.Summary
	habitRows := make([]views.HabitRowData, 0, len(s.Habits))
	for _, h := range s.Habits {
		habitRows = append(habitRows, views.HabitRowData{Title: h.Title, Today: h.TodayCompletions, DailyTarget: h.DailyTarget, Streak: h.Streak, Status: string(h.Status)})
	}
	goalRows := make([]views.GoalRowData, 0, len(s.Goals))
	for _, g := range s.Goals {
		goalRows = append(goalRows, views.GoalRowData{Title: g.Title, Progress: g.Progress, Status: string(g.Status)})
	}
	right := strings.Join([]string{
		views.RenderLedgerPanel(views.LedgerPanelData{
			Level:        s.Ledger.Level,
			CurrentXP:    s.Ledger.CurrentXP,
			LevelSize:    s.LevelSize,
			TotalXP:      s.Ledger.TotalXP,
			StreakDays:   s.Ledger.StreakDays,
			ProgressView: m.xpProgress.ViewAs(m.xpPercent),
			Achievements: s.Ledger.Achievements,
		}),
		views.RenderHabitsPanel(habitRows),
		views.RenderGoalsPanel(goalRows),
	}, "\n\n")
	right += views.RenderCommandPalette(m.Palette.Active, m.commandInput.View())
	right += m.renderHelpIfVisible()

	header := fmt.Sprintf("nexus | %s | store: %s", m.CurrentView, s.Backend)
	if m.Query != "" {
		header = fmt.Sprintf("nexus | find: %q | store: %s", m.Query, s.Backend)
	}
	banner := ""
	if s.Announcement != nil {
		banner = views.RenderLevelUp(s.Announcement.Level)
	}
	return views.RenderFrame(views.Frame{
		Title:   header,
		Badge:   fmt.Sprintf("LV %d", s.Ledger.Level),
		Banner:  banner,
		Tasks:   left,
		Side:    right,
		Status:  m.Status.Text,
		IsError: m.Status.IsError,
		Keys:    "keys: tab view | j/k move | space toggle | d trash | r restore | / cmd | ? help | q quit",
		Width:   m.Width,
	})
}
