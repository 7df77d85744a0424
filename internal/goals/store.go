package goals

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

var (
	ErrTitleRequired   = errors.New("goals: title is required")
	ErrNoSuchMilestone = errors.New("goals: milestone index out of range")
)

type Options struct {
	Logger *slog.Logger
	Now    func() time.Time
	NewID  func() string
}

// Store reads goals straight from the sink on every call. The planning
// side owns goals; this store only offers the read-modify-write the
// reconciler and the CLI need.
type Store struct {
	mu     sync.Mutex
	sink   storage.Sink
	bus    *events.Bus
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

func NewStore(sink storage.Sink, bus *events.Bus, opts Options) *Store {
	s := &Store{sink: sink, bus: bus, logger: opts.Logger, now: opts.Now, newID: opts.NewID}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// List returns every goal. Any malformed record fails the whole read.
func (s *Store) List(ctx context.Context) ([]model.Goal, error) {
	recs, err := s.sink.Load(ctx, storage.CollectionGoals)
	if err != nil {
		return nil, fmt.Errorf("load goals: %w", err)
	}
	out := make([]model.Goal, 0, len(recs))
	for i, rec := range recs {
		g, err := storage.Decode[model.Goal](rec.Payload)
		if err != nil {
			return nil, fmt.Errorf("goal %d (%s): %w", i, rec.ID, err)
		}
		out = append(out, g)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id string) (model.Goal, bool, error) {
	all, err := s.List(ctx)
	if err != nil {
		return model.Goal{}, false, err
	}
	for _, g := range all {
		if g.ID == id {
			return g, true, nil
		}
	}
	return model.Goal{}, false, nil
}

func (s *Store) Create(ctx context.Context, title string, milestones []string) (model.Goal, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Goal{}, ErrTitleRequired
	}
	g := model.Goal{
		ID:        s.newID(),
		Title:     title,
		Status:    model.GoalStatusNotStarted,
		CreatedAt: s.now().UTC(),
	}
	for _, m := range milestones {
		if m = strings.TrimSpace(m); m != "" {
			g.Milestones = append(g.Milestones, model.Milestone{Title: m})
		}
	}
	if err := s.Put(ctx, g); err != nil {
		return g, err
	}
	return g, nil
}

// Put validates and upserts g.
func (s *Store) Put(ctx context.Context, g model.Goal) error {
	if err := g.Validate(); err != nil {
		return err
	}
	rec, err := storage.Encode(g.ID, g)
	if err != nil {
		return err
	}
	s.mu.Lock()
	err = s.sink.UpsertOne(ctx, storage.CollectionGoals, rec)
	s.mu.Unlock()
	if err != nil {
		s.logger.Warn("goal write failed", "collection", storage.CollectionGoals, "id", g.ID, "err", err)
		return &storage.PersistError{Op: "upsert", Collection: storage.CollectionGoals, ID: g.ID, Err: err}
	}
	s.bus.Publish(events.Change{Collection: storage.CollectionGoals, Kind: events.GoalUpdated, ID: g.ID})
	return nil
}

// SetMilestone marks one milestone done or open. A goal sitting at 100%
// is re-evaluated so its status follows the milestone state.
func (s *Store) SetMilestone(ctx context.Context, id string, index int, completed bool) (model.Goal, bool, error) {
	g, found, err := s.Get(ctx, id)
	if err != nil || !found {
		return model.Goal{}, found, err
	}
	if index < 0 || index >= len(g.Milestones) {
		return g, true, fmt.Errorf("%w: %d", ErrNoSuchMilestone, index)
	}
	g = g.Clone()
	g.Milestones[index].Completed = completed
	if g.Progress == 100 {
		g.Status = statusFor(g, 100)
	}
	return g, true, s.Put(ctx, g)
}
