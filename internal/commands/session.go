package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/ShiftPioneer/nexus-app-sub003/internal/app"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/model"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/storage"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/tasks"
)

const SearchLimit = 20

// Session is what bound commands act on. Rows are the tasks the user is
// looking at, so positional targets resolve against them first.
type Session struct {
	App         *app.App
	Rows        []model.Task
	ShowView    func(v tasks.View) (Result, error)
	ShowMatches func(query string, matches []model.Task) (Result, error)
}

// Bind returns handlers that apply every command to the session's stores.
func Bind(ctx context.Context, s Session) Handlers {
	a := s.App
	withTask := func(target, verb string, fn func(id string) (model.Task, bool, error)) (Result, error) {
		t, err := a.ResolveTask(target, s.Rows)
		if err != nil {
			return Result{}, err
		}
		out, changed, err := fn(t.ID)
		msg, err := TaskOutcome(verb, out, changed, err)
		return Result{Message: msg}, err
	}

	return Handlers{
		Add: func(args AddArgs) (Result, error) {
			t, err := a.Tasks.Create(ctx, tasks.NewTask{Title: args.Title, Tags: args.Tags, GoalID: args.GoalID, DueDate: args.Due})
			msg, err := TaskOutcome("added to "+string(t.Status), t, err == nil || errors.Is(err, storage.ErrPersist), err)
			return Result{Message: msg}, err
		},
		Clarify: func(args ClarifyArgs) (Result, error) {
			urgent, important := args.Quadrant.Flags()
			return withTask(args.Target, "clarified as "+string(args.Quadrant), func(id string) (model.Task, bool, error) {
				return a.Tasks.Clarify(ctx, id, urgent, important)
			})
		},
		Done: func(args TargetArgs) (Result, error) {
			return withTask(args.Target, "completed", func(id string) (model.Task, bool, error) {
				return a.Tasks.Complete(ctx, id)
			})
		},
		Toggle: func(args TargetArgs) (Result, error) {
			return withTask(args.Target, "toggled", func(id string) (model.Task, bool, error) {
				return a.Tasks.ToggleComplete(ctx, id)
			})
		},
		Delete: func(args TargetArgs) (Result, error) {
			return withTask(args.Target, "moved to trash", func(id string) (model.Task, bool, error) {
				return a.Tasks.SoftDelete(ctx, id)
			})
		},
		Restore: func(args TargetArgs) (Result, error) {
			return withTask(args.Target, "restored", func(id string) (model.Task, bool, error) {
				return a.Tasks.Restore(ctx, id)
			})
		},
		Purge: func(args TargetArgs) (Result, error) {
			t, err := a.ResolveTask(args.Target, s.Rows)
			if err != nil {
				return Result{}, err
			}
			removed, err := a.Tasks.PermanentDelete(ctx, t.ID)
			msg, err := TaskOutcome("deleted permanently", t, removed, err)
			return Result{Message: msg}, err
		},
		Move: func(args MoveArgs) (Result, error) {
			if args.Status != "" {
				return withTask(args.Target, "moved to "+string(args.Status), func(id string) (model.Task, bool, error) {
					return a.Tasks.Move(ctx, id, args.Status)
				})
			}
			return withTask(args.Target, "moved to "+string(args.Quadrant), func(id string) (model.Task, bool, error) {
				return a.Tasks.Relocate(ctx, id, args.Quadrant)
			})
		},
		Schedule: func(args ScheduleArgs) (Result, error) {
			return withTask(args.Target, "scheduled for "+model.Day(args.Day), func(id string) (model.Task, bool, error) {
				return a.Tasks.Schedule(ctx, id, args.Day, args.Start, args.End)
			})
		},
		View: func(args ViewArgs) (Result, error) {
			v, err := tasks.ParseView(args.Name)
			if err != nil {
				return Result{}, invalidArg("%v", err)
			}
			if s.ShowView == nil {
				return Result{Message: fmt.Sprintf("%d task(s) in %s", len(a.Tasks.List(v)), v)}, nil
			}
			return s.ShowView(v)
		},
		Find: func(args FindArgs) (Result, error) {
			matches := a.Tasks.Search(args.Query, SearchLimit)
			if s.ShowMatches == nil {
				return Result{Message: fmt.Sprintf("%d match(es) for %q", len(matches), args.Query)}, nil
			}
			return s.ShowMatches(args.Query, matches)
		},
		Habit: func(args TargetArgs) (Result, error) {
			h, err := a.ResolveHabit(args.Target)
			if err != nil {
				return Result{}, err
			}
			out, _, err := a.Habits.MarkComplete(ctx, h.ID)
			if err != nil && !errors.Is(err, storage.ErrPersist) {
				return Result{}, err
			}
			msg := fmt.Sprintf("%s %d/%d today (%s)", out.Title, out.TodayCompletions, out.DailyTarget, out.Status)
			return Result{Message: msg}, Unsaved(err)
		},
		Journal: func() (Result, error) {
			res, err := a.Ledger.RecordJournalEntry(ctx)
			return Result{Message: fmt.Sprintf("journal entry recorded, +%d xp", res.Amount)}, Unsaved(err)
		},
	}
}

// TaskOutcome phrases the result of one store call. A persistence failure
// still reports the change, since it stays in memory.
func TaskOutcome(verb string, t model.Task, changed bool, err error) (string, error) {
	switch {
	case err != nil && !errors.Is(err, storage.ErrPersist):
		return "", err
	case !changed:
		return "no such task", nil
	}
	return fmt.Sprintf("%q %s", t.Title, verb), Unsaved(err)
}

// Unsaved marks a persistence failure as session-only.
func Unsaved(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("not saved, kept for this session: %w", err)
}
