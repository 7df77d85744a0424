package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ShiftPioneer/nexus-app-sub003/internal/habits"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/storage"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/tasks"
)

func TestResolveTaskByPositionAndPrefix(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 2, 9, 8, 0, 0, 0, time.UTC)}
	a := openTestApp(t, testConfig(t), storage.NewMemorySink(), clock)
	ctx := context.Background()
	for _, title := range []string{"alpha", "beta"} {
		if _, err := a.Tasks.Create(ctx, tasks.NewTask{Title: title}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	rows := a.Tasks.List(tasks.ViewInbox)

	got, err := a.ResolveTask("2", rows)
	if err != nil || got.Title != "beta" {
		t.Fatalf("position lookup = %+v, %v", got, err)
	}
	got, err = a.ResolveTask("id-1", rows)
	if err != nil || got.Title != "alpha" {
		t.Fatalf("id lookup = %+v, %v", got, err)
	}
	if _, err := a.ResolveTask("id-", rows); !errors.Is(err, ErrAmbiguous) {
		t.Fatalf("expected ambiguous prefix, got %v", err)
	}
	if _, err := a.ResolveTask("zzz", rows); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected no match, got %v", err)
	}
}

func TestResolveHabitAndSummary(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 2, 9, 8, 0, 0, 0, time.UTC)}
	a := openTestApp(t, testConfig(t), storage.NewMemorySink(), clock)
	ctx := context.Background()
	h, err := a.Habits.Create(ctx, habits.NewHabit{Title: "Stretch", DailyTarget: 2})
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}
	got, err := a.ResolveHabit("1")
	if err != nil || got.ID != h.ID {
		t.Fatalf("habit lookup = %+v, %v", got, err)
	}

	s := a.Summary(ctx)
	if s.Backend != "custom" || len(s.Habits) != 1 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if s.Ledger.Level != 1 || s.LevelXP != 0 || s.NextLevelXP != 100 {
		t.Fatalf("unexpected ledger in summary: %+v from=%d next=%d", s.Ledger, s.LevelXP, s.NextLevelXP)
	}
	if s.LevelProgress < 0.049 || s.LevelProgress > 0.051 {
		t.Fatalf("expected login bonus to fill 5%% of the level, got %v", s.LevelProgress)
	}
}

func TestLevelProgress(t *testing.T) {
	cases := []struct {
		total, from, to int
		want            float64
	}{
		{total: 250, from: 200, to: 300, want: 0.5},
		{total: 200, from: 200, to: 300, want: 0},
		{total: 420, from: 200, to: 300, want: 1},
		{total: 10, from: 100, to: 100, want: 0},
	}
	for _, c := range cases {
		if got := levelProgress(c.total, c.from, c.to); got != c.want {
			t.Fatalf("levelProgress(%d, %d, %d) = %v, want %v", c.total, c.from, c.to, got, c.want)
		}
	}
}
