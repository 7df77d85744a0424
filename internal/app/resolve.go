package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ShiftPioneer/nexus-app-sub003/internal/model"
)

var (
	ErrNoMatch   = errors.New("app: no matching item")
	ErrAmbiguous = errors.New("app: reference matches more than one item")
)

// ResolveTask finds a task by 1-based position in rows, then by exact id or
// unique id prefix across every task.
func (a *App) ResolveTask(ref string, rows []model.Task) (model.Task, error) {
	return resolve(ref, rows, a.Tasks.Snapshot(), func(t model.Task) string { return t.ID })
}

// ResolveHabit finds a habit by 1-based list position or id prefix.
func (a *App) ResolveHabit(ref string) (model.Habit, error) {
	list := a.Habits.List()
	return resolve(ref, list, list, func(h model.Habit) string { return h.ID })
}

// ResolveGoal finds a goal by 1-based list position or id prefix.
func (a *App) ResolveGoal(ctx context.Context, ref string) (model.Goal, error) {
	list, err := a.Goals.List(ctx)
	if err != nil {
		return model.Goal{}, err
	}
	return resolve(ref, list, list, func(g model.Goal) string { return g.ID })
}

func resolve[T any](ref string, rows, all []T, id func(T) string) (T, error) {
	var zero T
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return zero, fmt.Errorf("%w: empty reference", ErrNoMatch)
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(rows) {
		return rows[n-1], nil
	}

	var found []T
	for _, item := range all {
		if id(item) == ref {
			return item, nil
		}
		if strings.HasPrefix(id(item), ref) {
			found = append(found, item)
		}
	}
	switch len(found) {
	case 0:
		return zero, fmt.Errorf("%w: %q", ErrNoMatch, ref)
	case 1:
		return found[0], nil
	default:
		return zero, fmt.Errorf("%w: %q (%d candidates)", ErrAmbiguous, ref, len(found))
	}
}
