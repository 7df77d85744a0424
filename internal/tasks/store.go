package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ShiftPioneer/nexus-app-sub003/internal/events"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/model"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/storage"
)

var ErrTitleRequired = errors.New("tasks: title is required")

type Options struct {
	Logger *slog.Logger
	Now    func() time.Time
	NewID  func() string

	// Location decides which calendar day the today view covers.
	Location *time.Location
}

// Store owns the ordered task collection. Every mutation is applied in
// memory first, then written through to the sink, then announced on the bus.
type Store struct {
	mu     sync.Mutex
	items  []model.Task
	sink   storage.Sink
	bus    *events.Bus
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
	loc    *time.Location
}

func NewStore(sink storage.Sink, bus *events.Bus, opts Options) *Store {
	s := &Store{
		sink:   sink,
		bus:    bus,
		logger: opts.Logger,
		now:    opts.Now,
		newID:  opts.NewID,
		loc:    opts.Location,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	return s
}

// Load replaces the in-memory collection with the sink's contents.
// Records that fail validation are skipped; an unreadable collection
// leaves the store empty.
func (s *Store) Load(ctx context.Context) error {
	recs, err := s.sink.Load(ctx, storage.CollectionTasks)
	if err != nil {
		s.mu.Lock()
		s.items = nil
		s.mu.Unlock()
		if errors.Is(err, storage.ErrMalformed) {
			s.logger.Warn("task collection unreadable, starting empty", "err", err)
			return nil
		}
		return fmt.Errorf("load tasks: %w", err)
	}

	items := make([]model.Task, 0, len(recs))
	seen := make(map[string]bool, len(recs))
	for i, rec := range recs {
		t, err := decodeTask(rec.Payload)
		if err != nil {
			s.logger.Warn("skipping malformed task", "index", i, "id", rec.ID, "err", err)
			continue
		}
		if seen[t.ID] {
			s.logger.Warn("skipping duplicate task id", "index", i, "id", t.ID)
			continue
		}
		seen[t.ID] = true
		items = append(items, t)
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	s.bus.Publish(events.Change{Collection: storage.CollectionTasks, Kind: events.TaskUpdated})
	return nil
}

type NewTask struct {
	Title        string
	Description  string
	Type         model.TaskType
	Priority     model.Priority
	Category     string
	Context      string
	GoalID       string
	ProjectID    string
	Urgent       *bool
	Important    *bool
	DueDate      *time.Time
	TimeEstimate int
	Tags         []string
	Attachment   *model.Attachment
}

// Create appends a task. A task created with both Eisenhower flags skips
// the inbox and lands clarified in active.
func (s *Store) Create(ctx context.Context, in NewTask) (model.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return model.Task{}, ErrTitleRequired
	}
	t := model.Task{
		ID:           s.newID(),
		Title:        title,
		Description:  in.Description,
		Type:         in.Type,
		Status:       model.TaskStatusInbox,
		Priority:     in.Priority,
		Category:     in.Category,
		Context:      in.Context,
		GoalID:       in.GoalID,
		ProjectID:    in.ProjectID,
		TimeEstimate: in.TimeEstimate,
		Tags:         normalizeTags(in.Tags),
		CreatedAt:    s.now().UTC(),
	}
	if t.Type == "" {
		t.Type = model.TaskTypeAction
	}
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
	if in.DueDate != nil {
		d := in.DueDate.UTC()
		t.DueDate = &d
	}
	if in.Attachment != nil {
		a := *in.Attachment
		t.Attachment = &a
	}
	if in.Urgent != nil && in.Important != nil {
		var err error
		if t, err = model.Clarify(t, *in.Urgent, *in.Important); err != nil {
			return model.Task{}, err
		}
	}
	if err := t.Validate(); err != nil {
		return model.Task{}, err
	}

	s.mu.Lock()
	s.items = append(s.items, t)
	perr := s.persist(ctx, "create", t)
	s.mu.Unlock()

	s.bus.Publish(events.Change{Collection: storage.CollectionTasks, Kind: events.TaskCreated, ID: t.ID})
	return t.Clone(), perr
}

// Patch lists the editable fields; nil leaves a field unchanged.
type Patch struct {
	Title           *string
	Description     *string
	Type            *model.TaskType
	Priority        *model.Priority
	Category        *string
	Context         *string
	GoalID          *string
	ProjectID       *string
	DueDate         *time.Time
	ClearDueDate    bool
	TimeEstimate    *int
	Tags            []string
	SetTags         bool
	Attachment      *model.Attachment
	ClearAttachment bool
}

func (s *Store) Edit(ctx context.Context, id string, p Patch) (model.Task, bool, error) {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return model.Task{}, false, ErrTitleRequired
	}
	return s.mutate(ctx, id, "edit", events.TaskUpdated, func(t model.Task) (model.Task, error) {
		out := t.Clone()
		if p.Title != nil {
			out.Title = strings.TrimSpace(*p.Title)
		}
		if p.Description != nil {
			out.Description = *p.Description
		}
		if p.Type != nil {
			out.Type = *p.Type
		}
		if p.Priority != nil {
			out.Priority = *p.Priority
		}
		if p.Category != nil {
			out.Category = *p.Category
		}
		if p.Context != nil {
			out.Context = *p.Context
		}
		if p.GoalID != nil {
			out.GoalID = *p.GoalID
		}
		if p.ProjectID != nil {
			out.ProjectID = *p.ProjectID
		}
		if p.ClearDueDate {
			out.DueDate = nil
		} else if p.DueDate != nil {
			d := p.DueDate.UTC()
			out.DueDate = &d
		}
		if p.TimeEstimate != nil {
			out.TimeEstimate = *p.TimeEstimate
		}
		if p.SetTags {
			out.Tags = normalizeTags(p.Tags)
		}
		if p.ClearAttachment {
			out.Attachment = nil
		} else if p.Attachment != nil {
			a := *p.Attachment
			out.Attachment = &a
		}
		return out, nil
	})
}

func (s *Store) Clarify(ctx context.Context, id string, urgent, important bool) (model.Task, bool, error) {
	return s.mutate(ctx, id, "clarify", events.TaskUpdated, func(t model.Task) (model.Task, error) {
		return model.Clarify(t, urgent, important)
	})
}

func (s *Store) Schedule(ctx context.Context, id string, day time.Time, start, end string) (model.Task, bool, error) {
	return s.mutate(ctx, id, "schedule", events.TaskUpdated, func(t model.Task) (model.Task, error) {
		return model.Schedule(t, day, start, end)
	})
}

func (s *Store) Complete(ctx context.Context, id string) (model.Task, bool, error) {
	now := s.now()
	return s.mutateFn(ctx, id, "complete", func(t model.Task) (model.Task, events.Kind, error) {
		if t.Status == model.TaskStatusCompleted {
			return t, "", nil
		}
		out, err := model.Complete(t, now)
		return out, events.TaskCompleted, err
	})
}

func (s *Store) ToggleComplete(ctx context.Context, id string) (model.Task, bool, error) {
	now := s.now()
	return s.mutateFn(ctx, id, "toggle", func(t model.Task) (model.Task, events.Kind, error) {
		out, err := model.ToggleComplete(t, now)
		if out.Status == model.TaskStatusCompleted {
			return out, events.TaskCompleted, err
		}
		return out, events.TaskUpdated, err
	})
}

func (s *Store) SoftDelete(ctx context.Context, id string) (model.Task, bool, error) {
	now := s.now()
	return s.mutateFn(ctx, id, "delete", func(t model.Task) (model.Task, events.Kind, error) {
		if t.Status == model.TaskStatusDeleted {
			return t, "", nil
		}
		return model.SoftDelete(t, now), events.TaskDeleted, nil
	})
}

func (s *Store) Restore(ctx context.Context, id string) (model.Task, bool, error) {
	return s.mutate(ctx, id, "restore", events.TaskRestored, model.Restore)
}

// Move sets the GTD list of a task directly.
func (s *Store) Move(ctx context.Context, id string, target model.TaskStatus) (model.Task, bool, error) {
	return s.mutate(ctx, id, "move", events.TaskUpdated, func(t model.Task) (model.Task, error) {
		return model.Move(t, target)
	})
}

// Relocate drops a task into an Eisenhower quadrant.
func (s *Store) Relocate(ctx context.Context, id string, q model.Quadrant) (model.Task, bool, error) {
	return s.mutate(ctx, id, "relocate", events.TaskUpdated, func(t model.Task) (model.Task, error) {
		return model.Relocate(t, q)
	})
}

// PermanentDelete drops the task from the store and the sink whatever its
// status. Unknown ids are ignored.
func (s *Store) PermanentDelete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return false, nil
	}
	s.items = append(s.items[:idx:idx], s.items[idx+1:]...)
	var perr error
	if err := s.sink.DeleteOne(ctx, storage.CollectionTasks, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
		perr = s.persistFailed("purge", id, err)
	}
	s.mu.Unlock()

	s.bus.Publish(events.Change{Collection: storage.CollectionTasks, Kind: events.TaskPurged, ID: id})
	return true, perr
}

func (s *Store) Get(id string) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return model.Task{}, false
	}
	return s.items[idx].Clone(), true
}

// Snapshot returns a copy of every task, trashed ones included, in store order.
func (s *Store) Snapshot() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Task, len(s.items))
	for i, t := range s.items {
		out[i] = t.Clone()
	}
	return out
}

func (s *Store) List(v View) []model.Task {
	now := s.now().In(s.loc)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Task, 0)
	for _, t := range s.items {
		if v.Matches(t, now) {
			out = append(out, t.Clone())
		}
	}
	return out
}

// Counts returns the size of every view.
func (s *Store) Counts() map[View]int {
	now := s.now().In(s.loc)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[View]int, len(Views))
	for _, t := range s.items {
		for _, v := range Views {
			if v.Matches(t, now) {
				out[v]++
			}
		}
	}
	return out
}

func (s *Store) mutate(ctx context.Context, id, op string, kind events.Kind, fn func(model.Task) (model.Task, error)) (model.Task, bool, error) {
	return s.mutateFn(ctx, id, op, func(t model.Task) (model.Task, events.Kind, error) {
		out, err := fn(t)
		return out, kind, err
	})
}

// mutateFn applies fn to the task with id. An empty kind from fn means
// nothing changed and nothing is written or published.
func (s *Store) mutateFn(ctx context.Context, id, op string, fn func(model.Task) (model.Task, events.Kind, error)) (model.Task, bool, error) {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return model.Task{}, false, nil
	}
	next, kind, err := fn(s.items[idx].Clone())
	if err != nil {
		s.mu.Unlock()
		return model.Task{}, true, err
	}
	if kind == "" {
		s.mu.Unlock()
		return next.Clone(), true, nil
	}
	if err := next.Validate(); err != nil {
		s.mu.Unlock()
		return model.Task{}, true, err
	}
	s.items[idx] = next
	perr := s.persist(ctx, op, next)
	s.mu.Unlock()

	s.bus.Publish(events.Change{Collection: storage.CollectionTasks, Kind: kind, ID: id})
	return next.Clone(), true, perr
}

// persist writes t through to the sink. Callers hold s.mu.
func (s *Store) persist(ctx context.Context, op string, t model.Task) error {
	rec, err := encodeTask(t)
	if err != nil {
		return s.persistFailed(op, t.ID, err)
	}
	if err := s.sink.UpsertOne(ctx, storage.CollectionTasks, rec); err != nil {
		return s.persistFailed(op, t.ID, err)
	}
	return nil
}

func (s *Store) persistFailed(op, id string, err error) error {
	s.logger.Warn("task write failed, keeping in-memory change",
		"op", op, "collection", storage.CollectionTasks, "id", id, "err", err)
	return &storage.PersistError{Op: op, Collection: storage.CollectionTasks, ID: id, Err: err}
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
