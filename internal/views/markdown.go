package views

import (
	"fmt"
	"strings"

	"github.com/ShiftPioneer/nexus-app-sub003/internal/app"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/model"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/tasks"
)

// SummaryMarkdown formats a status summary as a markdown document.
func SummaryMarkdown(s app.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# NEXUS status, %s\n\n", model.Day(s.At))
	if s.Degraded {
		b.WriteString("> **Degraded session**: changes are kept in memory only.\n\n")
	} else {
		fmt.Fprintf(&b, "_store: %s_\n\n", s.Backend)
	}

	b.WriteString("## Progress\n\n")
	fmt.Fprintf(&b, "- Level **%d** (%d/%d XP, %d total)\n", s.Ledger.Level, s.Ledger.CurrentXP, s.LevelSize, s.Ledger.TotalXP)
	fmt.Fprintf(&b, "- Next level at %d XP\n", s.NextLevelXP)
	fmt.Fprintf(&b, "- Activity streak: %d day(s)\n", s.Ledger.StreakDays)
	if len(s.Ledger.Achievements) > 0 {
		fmt.Fprintf(&b, "- Achievements: %s\n", strings.Join(s.Ledger.Achievements, ", "))
	}

	b.WriteString("\n## Tasks\n\n| view | count |\n|---|---|\n")
	for _, v := range tasks.Views {
		if v == tasks.ViewAll {
			continue
		}
		fmt.Fprintf(&b, "| %s | %d |\n", v, s.Counts[v])
	}
	if len(s.Today) > 0 {
		b.WriteString("\n### Today\n\n")
		for _, t := range s.Today {
			fmt.Fprintf(&b, "- %s _(%s)_\n", t.Title, t.Priority)
		}
	}

	b.WriteString("\n## Habits\n\n")
	if len(s.Habits) == 0 {
		b.WriteString("_none_\n")
	}
	for _, h := range s.Habits {
		mark := " "
		if h.Status == model.HabitStatusCompleted {
			mark = "x"
		}
		fmt.Fprintf(&b, "- [%s] %s %d/%d, streak %d\n", mark, h.Title, h.TodayCompletions, h.DailyTarget, h.Streak)
	}

	b.WriteString("\n## Goals\n\n")
	if len(s.Goals) == 0 {
		b.WriteString("_none_\n")
	}
	for _, g := range s.Goals {
		fmt.Fprintf(&b, "- %s: %d%% (%s)\n", g.Title, g.Progress, g.Status)
	}
	return b.String()
}
