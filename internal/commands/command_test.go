package commands

import (
	"errors"
	"testing"
	"time"

	"github.com/ShiftPioneer/nexus-app-sub003/internal/model"
)

var parseNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func TestParseSupportedCommands(t *testing.T) {
	cases := []struct {
		in       string
		typeWant Type
	}{
		{"/add pay rent tag:finance", TypeAdd},
		{"clarify 2 do", TypeClarify},
		{"done 1", TypeDone},
		{"toggle 1", TypeToggle},
		{"rm 3", TypeDelete},
		{"restore 3", TypeRestore},
		{"purge 3", TypePurge},
		{"move 1 someday", TypeMove},
		{"schedule 1 tomorrow 09:00-10:30", TypeSchedule},
		{"view trash", TypeView},
		{"find rent", TypeFind},
		{"habit 1", TypeHabit},
		{"journal", TypeJournal},
	}

	for _, tc := range cases {
		cmd, err := Parse(tc.in, parseNow)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if cmd.Type != tc.typeWant {
			t.Fatalf("parse %q type = %s, want %s", tc.in, cmd.Type, tc.typeWant)
		}
	}
}

func TestParseAddExtractsMarkers(t *testing.T) {
	cmd, err := Parse("add  pay rent tag:Finance goal:g-1 due:+2", parseNow)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	a := cmd.Add
	if a.Title != "pay rent" {
		t.Fatalf("title = %q", a.Title)
	}
	if len(a.Tags) != 1 || a.Tags[0] != "Finance" {
		t.Fatalf("tags = %v", a.Tags)
	}
	if a.GoalID != "g-1" {
		t.Fatalf("goal = %q", a.GoalID)
	}
	if a.Due == nil || model.Day(*a.Due) != "2026-03-12" {
		t.Fatalf("due = %v", a.Due)
	}
}

func TestParseMoveDestinations(t *testing.T) {
	cmd, err := Parse("move 4 waiting", parseNow)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Move.Status != model.TaskStatusWaitingFor || cmd.Move.Quadrant != "" {
		t.Fatalf("move = %+v", cmd.Move)
	}

	cmd, err = Parse("move 4 delegate", parseNow)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Move.Quadrant != model.QuadrantDelegate || cmd.Move.Status != "" {
		t.Fatalf("move = %+v", cmd.Move)
	}
}

func TestParseSchedule(t *testing.T) {
	cmd, err := Parse("schedule abc 2026-04-01 09:00-10:00", parseNow)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	s := cmd.Schedule
	if s.Target != "abc" || model.Day(s.Day) != "2026-04-01" || s.Start != "09:00" || s.End != "10:00" {
		t.Fatalf("schedule = %+v", s)
	}

	cmd, err = Parse("schedule abc today", parseNow)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Schedule.Start != "" || model.Day(cmd.Schedule.Day) != "2026-03-10" {
		t.Fatalf("all-day schedule = %+v", cmd.Schedule)
	}
}

func TestParseInvalidArguments(t *testing.T) {
	for _, in := range []string{
		"add tag:x",
		"clarify 1 maybe",
		"done",
		"move 1 completed",
		"schedule 1 someday",
		"schedule 1 today 25:00",
		"find",
	} {
		_, err := Parse(in, parseNow)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeInvalidArgument {
			t.Fatalf("parse %q: expected invalid argument, got %v", in, err)
		}
	}
}

func TestParseEmptyAndUnknown(t *testing.T) {
	_, err := Parse("  / ", parseNow)
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeEmptyInput {
		t.Fatalf("expected empty input error, got %v", err)
	}

	_, err = Parse("/unknown do x", parseNow)
	if !errors.As(err, &ce) || ce.Code != ErrCodeUnknownCommand {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestParseDay(t *testing.T) {
	cases := map[string]string{
		"today":      "2026-03-10",
		"Tomorrow":   "2026-03-11",
		"+7":         "2026-03-17",
		"2026-12-25": "2026-12-25",
	}
	for in, want := range cases {
		got, err := ParseDay(in, parseNow)
		if err != nil {
			t.Fatalf("ParseDay(%q): %v", in, err)
		}
		if model.Day(got) != want {
			t.Fatalf("ParseDay(%q) = %s, want %s", in, model.Day(got), want)
		}
	}
	if _, err := ParseDay("-1", parseNow); err == nil {
		t.Fatal("expected error for negative offset")
	}
}

func TestExecuteDispatch(t *testing.T) {
	cmd, err := Parse("/add write docs", parseNow)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	called := false
	res, err := Execute(cmd, Handlers{
		Add: func(a AddArgs) (Result, error) {
			called = true
			if a.Title != "write docs" {
				t.Fatalf("unexpected title: %q", a.Title)
			}
			return Result{Message: "ok"}, nil
		},
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !called || res.Message != "ok" {
		t.Fatalf("dispatch failed, called=%v res=%+v", called, res)
	}
}

func TestExecuteTargetDispatch(t *testing.T) {
	var got []string
	record := func(name string) func(TargetArgs) (Result, error) {
		return func(a TargetArgs) (Result, error) {
			got = append(got, name+":"+a.Target)
			return Result{}, nil
		}
	}
	h := Handlers{
		Done:    record("done"),
		Toggle:  record("toggle"),
		Delete:  record("rm"),
		Restore: record("restore"),
		Purge:   record("purge"),
		Habit:   record("habit"),
	}
	for _, in := range []string{"done 1", "toggle 2", "rm 3", "restore 4", "purge 5", "habit 6"} {
		cmd, err := Parse(in, parseNow)
		if err != nil {
			t.Fatalf("parse %q failed: %v", in, err)
		}
		if _, err := Execute(cmd, h); err != nil {
			t.Fatalf("execute %q failed: %v", in, err)
		}
	}
	want := []string{"done:1", "toggle:2", "rm:3", "restore:4", "purge:5", "habit:6"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("dispatch order = %v, want %v", got, want)
		}
	}
}

func TestExecuteMissingHandler(t *testing.T) {
	cmd, err := Parse("view trash", parseNow)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, err = Execute(cmd, Handlers{})
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeHandlerMissing {
		t.Fatalf("expected missing handler error, got %v", err)
	}
}
