package app

import (
	"context"
	"time"

	"github.com/ShiftPioneer/nexus-app-sub003/internal/gamify"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/model"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/tasks"
)

// Summary is a point-in-time view over every store, used by `nexus status`
// and the dashboard side panel. LevelProgress is the share of the current
// level already earned, from 0 to 1.
type Summary struct {
	At            time.Time
	Backend       string
	Degraded      bool
	Counts        map[tasks.View]int
	Today         []model.Task
	Ledger        model.LedgerState
	LevelSize     int
	LevelXP       int
	NextLevelXP   int
	LevelProgress float64
	Announcement  *gamify.Announcement
	Habits        []model.Habit
	Goals         []model.Goal
}

// Summary collects the current state. A goal collection that cannot be read
// is logged and left empty.
func (a *App) Summary(ctx context.Context) Summary {
	s := Summary{
		At:        a.now(),
		Backend:   a.Sink.Backend,
		Degraded:  a.Sink.Degraded,
		Counts:    a.Tasks.Counts(),
		Today:     a.Tasks.List(tasks.ViewToday),
		Ledger:    a.Ledger.State(),
		LevelSize: a.Ledger.LevelSize(),
		Habits:    a.Habits.List(),
	}
	s.LevelXP = gamify.LevelXP(s.Ledger.Level, s.LevelSize)
	s.NextLevelXP = gamify.NextLevelXP(s.Ledger.Level, s.LevelSize)
	s.LevelProgress = levelProgress(s.Ledger.TotalXP, s.LevelXP, s.NextLevelXP)
	if ann, ok := a.Ledger.CurrentAnnouncement(); ok {
		s.Announcement = &ann
	}
	goals, err := a.Goals.List(ctx)
	if err != nil {
		a.Logger.Warn("listing goals failed", "err", err)
	}
	s.Goals = goals
	return s
}

func levelProgress(total, from, to int) float64 {
	if to <= from {
		return 0
	}
	p := float64(total-from) / float64(to-from)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
