package views

import (
	"fmt"
	"strings"
)

type TaskPanelData struct {
	View      string
	Views     []string
	Counts    map[string]int
	TableView string
	Empty     bool
}

type LedgerPanelData struct {
	Level        int
	CurrentXP    int
	LevelSize    int
	TotalXP      int
	StreakDays   int
	ProgressView string
	Achievements []string
}

type HabitRowData struct {
	Title       string
	Today       int
	DailyTarget int
	Streak      int
	Status      string
}

type GoalRowData struct {
	Title    string
	Progress int
	Status   string
}

type HelpPanelData struct {
	CurrentView string
	Bindings    []string
	HelpView    string
}

func RenderTaskPanel(data TaskPanelData) string {
	var b strings.Builder
	tabs := make([]string, 0, len(data.Views))
	for _, v := range data.Views {
		label := fmt.Sprintf("%s(%d)", v, data.Counts[v])
		if v == data.View {
			label = "[" + label + "]"
		}
		tabs = append(tabs, label)
	}
	b.WriteString(strings.Join(tabs, " ") + "\n\n")
	if data.Empty {
		b.WriteString(fmt.Sprintf("(no tasks in %s)", data.View))
		return b.String()
	}
	b.WriteString(data.TableView)
	return strings.TrimSpace(b.String())
}

func RenderLedgerPanel(data LedgerPanelData) string {
	var b strings.Builder
	b.WriteString(section("progress") + "\n")
	b.WriteString(fmt.Sprintf("level %d  %d/%d xp  (total %d)\n", data.Level, data.CurrentXP, data.LevelSize, data.TotalXP))
	b.WriteString(data.ProgressView + "\n")
	b.WriteString(fmt.Sprintf("streak: %d day(s)\n", data.StreakDays))
	if len(data.Achievements) > 0 {
		b.WriteString("badges: " + strings.Join(data.Achievements, ", ") + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderHabitsPanel(rows []HabitRowData) string {
	var b strings.Builder
	b.WriteString(section("habits") + "\n")
	if len(rows) == 0 {
		b.WriteString("(none)")
		return b.String()
	}
	for i, h := range rows {
		b.WriteString(fmt.Sprintf("%d. %s %s %d/%d streak:%d\n", i+1, habitBadge(h.Status), h.Title, h.Today, h.DailyTarget, h.Streak))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderGoalsPanel(rows []GoalRowData) string {
	var b strings.Builder
	b.WriteString(section("goals") + "\n")
	if len(rows) == 0 {
		b.WriteString("(none)")
		return b.String()
	}
	for i, g := range rows {
		b.WriteString(fmt.Sprintf("%d. %s %3d%% [%s]\n", i+1, g.Title, g.Progress, g.Status))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("\n\ncommand: %s", input)
}

func RenderLevelUp(level int) string {
	return fmt.Sprintf("LEVEL UP! You reached level %d", level)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("\n\nhelp (%s):\n%s\n%s",
		strings.ToLower(data.CurrentView),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}

func habitBadge(status string) string {
	switch status {
	case "completed":
		return "[x]"
	case "partial":
		return "[~]"
	case "missed":
		return "[!]"
	default:
		return "[ ]"
	}
}
