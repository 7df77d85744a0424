package goals

import (
	"context"
	"log/slog"
	"math"

	"github.com/ShiftPioneer/nexus-app-sub003/internal/events"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/model"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/storage"
)

// Hysteresis is the smallest progress change, in percentage points, worth
// writing back. Reaching 100% is always written.
const Hysteresis = 5

type TaskSource interface {
	Snapshot() []model.Task
}

// Reconciler recomputes goal progress from the tasks linked to each goal.
type Reconciler struct {
	goals  *Store
	tasks  TaskSource
	bus    *events.Bus
	logger *slog.Logger
}

func NewReconciler(goals *Store, tasks TaskSource, bus *events.Bus, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{goals: goals, tasks: tasks, bus: bus, logger: logger}
}

// Subscribe runs a pass after every task change until the returned func is called.
func (r *Reconciler) Subscribe() func() {
	return r.bus.Subscribe(func(c events.Change) {
		if c.Collection != storage.CollectionTasks {
			return
		}
		_, _ = r.Reconcile(context.Background())
	})
}

type Update struct {
	GoalID   string
	From, To int
	Status   model.GoalStatus
}

// Reconcile runs one pass and returns the goals it rewrote. A malformed
// goal record aborts the pass.
func (r *Reconciler) Reconcile(ctx context.Context) ([]Update, error) {
	all, err := r.goals.List(ctx)
	if err != nil {
		r.logger.Warn("goal reconciliation aborted", "err", err)
		return nil, err
	}

	type tally struct{ done, total int }
	counts := make(map[string]*tally)
	for _, t := range r.tasks.Snapshot() {
		if t.GoalID == "" || t.Status == model.TaskStatusDeleted {
			continue
		}
		c := counts[t.GoalID]
		if c == nil {
			c = &tally{}
			counts[t.GoalID] = c
		}
		c.total++
		if t.Status == model.TaskStatusCompleted {
			c.done++
		}
	}

	var updates []Update
	for _, g := range all {
		c := counts[g.ID]
		if c == nil || c.total == 0 {
			continue
		}
		pct := int(math.Round(100 * float64(c.done) / float64(c.total)))
		if !shouldWrite(g.Progress, pct) {
			continue
		}
		next := g.Clone()
		next.Progress = pct
		next.Status = statusFor(g, pct)
		if err := r.goals.Put(ctx, next); err != nil {
			r.logger.Warn("goal progress write failed", "id", g.ID, "err", err)
			continue
		}
		updates = append(updates, Update{GoalID: g.ID, From: g.Progress, To: pct, Status: next.Status})
		if pct > g.Progress {
			r.bus.Publish(events.Change{Collection: storage.CollectionGoals, Kind: events.GoalProgressAdvanced, ID: g.ID})
		}
	}
	return updates, nil
}

func shouldWrite(stored, pct int) bool {
	if pct == 100 && stored != 100 {
		return true
	}
	diff := pct - stored
	if diff < 0 {
		diff = -diff
	}
	return diff > Hysteresis
}

func statusFor(g model.Goal, pct int) model.GoalStatus {
	switch {
	case pct >= 100:
		if g.HasIncompleteMilestone() {
			return model.GoalStatusInProgress
		}
		return model.GoalStatusCompleted
	case g.Status == model.GoalStatusCompleted:
		return model.GoalStatusInProgress
	case pct > 0 && g.Status == model.GoalStatusNotStarted:
		return model.GoalStatusInProgress
	default:
		return g.Status
	}
}
