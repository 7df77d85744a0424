package goals

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ShiftPioneer/nexus-app-sub003/internal/events"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/model"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/storage"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/storage/storagetest"
)

var testNow = time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)

type taskList []model.Task

func (l taskList) Snapshot() []model.Task { return append([]model.Task(nil), l...) }

func linkedTask(id, goalID string, status model.TaskStatus) model.Task {
	t := model.Task{
		ID:        id,
		Title:     id,
		Type:      model.TaskTypeAction,
		Status:    status,
		Priority:  model.PriorityMedium,
		GoalID:    goalID,
		CreatedAt: testNow,
	}
	if status == model.TaskStatusCompleted {
		t.CompletedAt = &testNow
	}
	if status == model.TaskStatusDeleted {
		t.DeletedAt = &testNow
	}
	return t
}

func newTestGoals(t *testing.T, sink storage.Sink) (*Store, *events.Bus) {
	t.Helper()
	bus := events.NewBus()
	seq := 0
	return NewStore(sink, bus, Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:    func() time.Time { return testNow },
		NewID: func() string {
			seq++
			return fmt.Sprintf("goal-%d", seq)
		},
	}), bus
}

func mustGoal(t *testing.T, s *Store, id string) model.Goal {
	t.Helper()
	g, found, err := s.Get(context.Background(), id)
	if err != nil || !found {
		t.Fatalf("get goal %s: found=%v err=%v", id, found, err)
	}
	return g
}

func TestReconcileConverges(t *testing.T) {
	goals, bus := newTestGoals(t, storage.NewMemorySink())
	ctx := context.Background()
	g, err := goals.Create(ctx, "Launch site", nil)
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	tasks := taskList{
		linkedTask("t1", g.ID, model.TaskStatusCompleted),
		linkedTask("t2", g.ID, model.TaskStatusCompleted),
		linkedTask("t3", g.ID, model.TaskStatusActive),
		linkedTask("t4", g.ID, model.TaskStatusWaitingFor),
		linkedTask("other", "", model.TaskStatusCompleted),
	}
	rec := NewReconciler(goals, tasks, bus, nil)
	if _, err := rec.Reconcile(ctx); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	got := mustGoal(t, goals, g.ID)
	if got.Progress != 50 || got.Status != model.GoalStatusInProgress {
		t.Fatalf("after 2/4: progress=%d status=%s", got.Progress, got.Status)
	}

	tasks[2] = linkedTask("t3", g.ID, model.TaskStatusCompleted)
	rec.tasks = tasks
	if _, err := rec.Reconcile(ctx); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if got := mustGoal(t, goals, g.ID); got.Progress != 75 || got.Status != model.GoalStatusInProgress {
		t.Fatalf("after 3/4: progress=%d status=%s", got.Progress, got.Status)
	}

	tasks[3] = linkedTask("t4", g.ID, model.TaskStatusCompleted)
	rec.tasks = tasks
	if _, err := rec.Reconcile(ctx); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if got := mustGoal(t, goals, g.ID); got.Progress != 100 || got.Status != model.GoalStatusCompleted {
		t.Fatalf("after 4/4: progress=%d status=%s", got.Progress, got.Status)
	}
}

func TestReconcileHysteresis(t *testing.T) {
	goals, bus := newTestGoals(t, storage.NewMemorySink())
	ctx := context.Background()
	g, err := goals.Create(ctx, "Read 30 books", nil)
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	g.Progress = 30
	g.Status = model.GoalStatusInProgress
	if err := goals.Put(ctx, g); err != nil {
		t.Fatalf("put: %v", err)
	}

	// 1 of 3 done is 33%, within the hysteresis band of the stored 30.
	tasks := taskList{
		linkedTask("t1", g.ID, model.TaskStatusCompleted),
		linkedTask("t2", g.ID, model.TaskStatusActive),
		linkedTask("t3", g.ID, model.TaskStatusActive),
	}
	updates, err := NewReconciler(goals, tasks, bus, nil).Reconcile(ctx)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(updates) != 0 {
		t.Fatalf("expected no writes inside hysteresis band, got %+v", updates)
	}
	if got := mustGoal(t, goals, g.ID); got.Progress != 30 {
		t.Fatalf("expected stored progress unchanged, got %d", got.Progress)
	}
}

func TestReconcileIncompleteMilestoneBlocksCompletion(t *testing.T) {
	goals, bus := newTestGoals(t, storage.NewMemorySink())
	ctx := context.Background()
	g, err := goals.Create(ctx, "Marathon", []string{"10k", "half"})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	if _, _, err := goals.SetMilestone(ctx, g.ID, 0, true); err != nil {
		t.Fatalf("set milestone: %v", err)
	}

	tasks := taskList{linkedTask("t1", g.ID, model.TaskStatusCompleted)}
	if _, err := NewReconciler(goals, tasks, bus, nil).Reconcile(ctx); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	got := mustGoal(t, goals, g.ID)
	if got.Progress != 100 || got.Status != model.GoalStatusInProgress {
		t.Fatalf("expected 100%% in progress, got progress=%d status=%s", got.Progress, got.Status)
	}

	got, _, err = goals.SetMilestone(ctx, g.ID, 1, true)
	if err != nil {
		t.Fatalf("set milestone: %v", err)
	}
	if got.Status != model.GoalStatusCompleted {
		t.Fatalf("expected completed once milestones are done, got %s", got.Status)
	}
}

func TestReconcileReopensCompletedGoal(t *testing.T) {
	goals, bus := newTestGoals(t, storage.NewMemorySink())
	ctx := context.Background()
	g, _ := goals.Create(ctx, "Inbox zero", nil)
	g.Progress = 100
	g.Status = model.GoalStatusCompleted
	if err := goals.Put(ctx, g); err != nil {
		t.Fatalf("put: %v", err)
	}
	tasks := taskList{
		linkedTask("t1", g.ID, model.TaskStatusCompleted),
		linkedTask("t2", g.ID, model.TaskStatusActive),
	}
	if _, err := NewReconciler(goals, tasks, bus, nil).Reconcile(ctx); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if got := mustGoal(t, goals, g.ID); got.Progress != 50 || got.Status != model.GoalStatusInProgress {
		t.Fatalf("expected reopened goal, got progress=%d status=%s", got.Progress, got.Status)
	}
}

func TestReconcileIgnoresDeletedAndUnlinkedGoals(t *testing.T) {
	goals, bus := newTestGoals(t, storage.NewMemorySink())
	ctx := context.Background()
	g, _ := goals.Create(ctx, "Unlinked", nil)
	tasks := taskList{linkedTask("t1", g.ID, model.TaskStatusDeleted)}
	updates, err := NewReconciler(goals, tasks, bus, nil).Reconcile(ctx)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(updates) != 0 {
		t.Fatalf("expected no updates, got %+v", updates)
	}
	if got := mustGoal(t, goals, g.ID); got.Status != model.GoalStatusNotStarted {
		t.Fatalf("expected untouched goal, got %s", got.Status)
	}
}

func TestReconcileAbortsOnMalformedGoal(t *testing.T) {
	sink := storage.NewMemorySink()
	goals, bus := newTestGoals(t, sink)
	ctx := context.Background()
	if err := storagetest.Seed(ctx, sink, storage.CollectionGoals,
		`{"id":"g1","title":"ok","progress":0,"status":"not_started","createdAt":"2026-02-09T12:00:00Z"}`,
		`{"id":"g2","title":"bad","progress":140,"status":"not_started","createdAt":"2026-02-09T12:00:00Z"}`,
	); err != nil {
		t.Fatalf("seed: %v", err)
	}
	tasks := taskList{linkedTask("t1", "g1", model.TaskStatusCompleted)}
	_, err := NewReconciler(goals, tasks, bus, nil).Reconcile(ctx)
	if !errors.Is(err, storage.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestReconcilePublishesAdvance(t *testing.T) {
	goals, bus := newTestGoals(t, storage.NewMemorySink())
	ctx := context.Background()
	g, _ := goals.Create(ctx, "Garden", nil)
	advanced := 0
	bus.Subscribe(func(c events.Change) {
		if c.Kind == events.GoalProgressAdvanced && c.ID == g.ID {
			advanced++
		}
	})
	tasks := taskList{
		linkedTask("t1", g.ID, model.TaskStatusCompleted),
		linkedTask("t2", g.ID, model.TaskStatusActive),
	}
	if _, err := NewReconciler(goals, tasks, bus, nil).Reconcile(ctx); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if advanced != 1 {
		t.Fatalf("expected one advance event, got %d", advanced)
	}
}

func TestSubscribeReconcilesOnTaskChange(t *testing.T) {
	goals, bus := newTestGoals(t, storage.NewMemorySink())
	ctx := context.Background()
	g, _ := goals.Create(ctx, "Ship v1", nil)
	tasks := taskList{linkedTask("t1", g.ID, model.TaskStatusCompleted)}
	cancel := NewReconciler(goals, tasks, bus, nil).Subscribe()
	defer cancel()

	bus.Publish(events.Change{Collection: storage.CollectionTasks, Kind: events.TaskCompleted, ID: "t1"})
	if got := mustGoal(t, goals, g.ID); got.Status != model.GoalStatusCompleted {
		t.Fatalf("expected completed after task change, got %s", got.Status)
	}
}

func TestPutPersistFailure(t *testing.T) {
	sink := storagetest.NewFlakySink()
	goals, _ := newTestGoals(t, sink)
	sink.SetFail(true)
	if _, err := goals.Create(context.Background(), "Unsaved", nil); !errors.Is(err, storage.ErrPersist) {
		t.Fatalf("expected ErrPersist, got %v", err)
	}
}
