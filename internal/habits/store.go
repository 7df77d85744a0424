package habits

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

var ErrTitleRequired = errors.New("habits: title is required")

const resetMarkerID = "habit_reset"

type resetMarker struct {
	ID            string `json:"id"`
	LastResetDate string `json:"lastResetDate"`
}

func (m resetMarker) Validate() error {
	if m.ID != resetMarkerID {
		return fmt.Errorf("habits: unexpected marker id %q", m.ID)
	}
	if _, err := model.ParseDay(m.LastResetDate); err != nil {
		return err
	}
	return nil
}

type Options struct {
	Logger   *slog.Logger
	Now      func() time.Time
	NewID    func() string
	Location *time.Location
}

type Store struct {
	mu        sync.Mutex
	items     []model.Habit
	lastReset string
	sink      storage.Sink
	bus       *events.Bus
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
	loc       *time.Location
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

func (s *Store) today() string {
	return model.Day(s.now().In(s.loc))
}

// Load reads habits and the reset marker, then runs the daily reset.
func (s *Store) Load(ctx context.Context) error {
	items, err := s.loadHabits(ctx)
	if err != nil {
		return err
	}
	marker := s.loadMarker(ctx)

	s.mu.Lock()
	s.items = items
	s.lastReset = marker
	s.mu.Unlock()

	_, err = s.ResetIfNewDay(ctx)
	return err
}

func (s *Store) loadHabits(ctx context.Context) ([]model.Habit, error) {
	recs, err := s.sink.Load(ctx, storage.CollectionHabits)
	if err != nil {
		if errors.Is(err, storage.ErrMalformed) {
			s.logger.Warn("habit collection unreadable, starting empty", "err", err)
			return nil, nil
		}
		return nil, fmt.Errorf("load habits: %w", err)
	}
	items := make([]model.Habit, 0, len(recs))
	seen := make(map[string]bool, len(recs))
	for i, rec := range recs {
		h, err := storage.Decode[model.Habit](rec.Payload)
		if err != nil {
			s.logger.Warn("skipping malformed habit", "index", i, "id", rec.ID, "err", err)
			continue
		}
		if seen[h.ID] {
			s.logger.Warn("skipping duplicate habit id", "index", i, "id", h.ID)
			continue
		}
		seen[h.ID] = true
		items = append(items, h)
	}
	return items, nil
}

func (s *Store) loadMarker(ctx context.Context) string {
	recs, err := s.sink.Load(ctx, storage.CollectionMeta)
	if err != nil {
		s.logger.Warn("reading habit reset marker failed", "err", err)
		return ""
	}
	for _, rec := range recs {
		if rec.ID != resetMarkerID {
			continue
		}
		m, err := storage.Decode[resetMarker](rec.Payload)
		if err != nil {
			s.logger.Warn("ignoring malformed habit reset marker", "err", err)
			return ""
		}
		return m.LastResetDate
	}
	return ""
}

type NewHabit struct {
	Title       string
	Category    string
	Target      int
	DailyTarget int
}

func (s *Store) Create(ctx context.Context, in NewHabit) (model.Habit, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return model.Habit{}, ErrTitleRequired
	}
	h := model.Habit{
		ID:          s.newID(),
		Title:       title,
		Category:    in.Category,
		Target:      in.Target,
		DailyTarget: in.DailyTarget,
		Status:      model.HabitStatusPending,
		CreatedAt:   s.now().UTC(),
	}
	if h.Target == 0 {
		h.Target = 1
	}
	if h.DailyTarget == 0 {
		h.DailyTarget = 1
	}
	if err := h.Validate(); err != nil {
		return model.Habit{}, err
	}

	s.mu.Lock()
	s.items = append(s.items, h)
	perr := s.persist(ctx, "create", h)
	s.mu.Unlock()

	s.bus.Publish(events.Change{Collection: storage.CollectionHabits, Kind: events.HabitCreated, ID: h.ID})
	return h.Clone(), perr
}

// Delete removes a habit and its history. Unknown ids are ignored.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return false, nil
	}
	s.items = append(s.items[:idx:idx], s.items[idx+1:]...)
	var perr error
	if err := s.sink.DeleteOne(ctx, storage.CollectionHabits, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
		perr = s.persistFailed("delete", id, err)
	}
	s.mu.Unlock()

	s.bus.Publish(events.Change{Collection: storage.CollectionHabits, Kind: events.HabitDeleted, ID: id})
	return true, perr
}

// MarkComplete records one completion for today. The streak grows only on
// the completion that first reaches the daily target.
func (s *Store) MarkComplete(ctx context.Context, id string) (model.Habit, bool, error) {
	if _, err := s.ResetIfNewDay(ctx); err != nil && !errors.Is(err, storage.ErrPersist) {
		return model.Habit{}, false, err
	}
	today := s.today()

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return model.Habit{}, false, nil
	}
	h := s.items[idx].Clone()
	h.TodayCompletions++
	if !h.CompletedOn(today) {
		h.CompletionDates = append(h.CompletionDates, today)
	}
	h.CompletionHistory = bumpHistory(h.CompletionHistory, today)

	kind := events.HabitProgress
	switch {
	case h.TodayCompletions == h.DailyTarget:
		h.Streak++
		h.Status = model.HabitStatusCompleted
		kind = events.HabitDayCompleted
	case h.TodayCompletions > h.DailyTarget:
		h.Status = model.HabitStatusCompleted
	default:
		h.Status = model.HabitStatusPartial
	}
	s.items[idx] = h
	perr := s.persist(ctx, "complete", h)
	s.mu.Unlock()

	s.bus.Publish(events.Change{Collection: storage.CollectionHabits, Kind: kind, ID: id})
	return h.Clone(), true, perr
}

// ResetIfNewDay starts a new accounting day when the stored reset date is
// not today. Habits that fell short of their daily target on the previous
// day lose their streak and are marked missed.
func (s *Store) ResetIfNewDay(ctx context.Context) (bool, error) {
	today := s.today()
	yesterday, err := model.AddDays(today, -1)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	if s.lastReset == today {
		s.mu.Unlock()
		return false, nil
	}
	missed := 0
	for i := range s.items {
		h := s.items[i].Clone()
		h.TodayCompletions = h.CountOn(today)
		switch {
		case h.TodayCompletions >= h.DailyTarget:
			h.Status = model.HabitStatusCompleted
		case h.TodayCompletions > 0:
			h.Status = model.HabitStatusPartial
		case s.existedOn(h, yesterday) && h.CountOn(yesterday) < h.DailyTarget:
			if h.Streak > 0 {
				s.logger.Info("habit streak reset", "id", h.ID, "title", h.Title, "streak", h.Streak, "day", yesterday)
			}
			h.Streak = 0
			h.Status = model.HabitStatusMissed
			missed++
		default:
			h.Status = model.HabitStatusPending
		}
		s.items[i] = h
	}
	s.lastReset = today
	perr := s.saveAll(ctx)
	s.mu.Unlock()

	s.logger.Info("habits reset for new day", "day", today, "missed", missed)
	s.bus.Publish(events.Change{Collection: storage.CollectionHabits, Kind: events.HabitsReset})
	return true, perr
}

func (s *Store) existedOn(h model.Habit, day string) bool {
	return model.Day(h.CreatedAt.In(s.loc)) <= day
}

func (s *Store) Get(id string) (model.Habit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return model.Habit{}, false
	}
	return s.items[idx].Clone(), true
}

func (s *Store) List() []model.Habit {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Habit, len(s.items))
	for i, h := range s.items {
		out[i] = h.Clone()
	}
	return out
}

func (s *Store) LastResetDate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReset
}

// saveAll writes every habit and the reset marker. Callers hold s.mu.
func (s *Store) saveAll(ctx context.Context) error {
	recs := make([]storage.Record, 0, len(s.items))
	for _, h := range s.items {
		rec, err := storage.Encode(h.ID, h)
		if err != nil {
			return s.persistFailed("reset", h.ID, err)
		}
		recs = append(recs, rec)
	}
	if err := s.sink.Save(ctx, storage.CollectionHabits, recs); err != nil {
		return s.persistFailed("reset", "", err)
	}
	marker, err := storage.Encode(resetMarkerID, resetMarker{ID: resetMarkerID, LastResetDate: s.lastReset})
	if err != nil {
		return s.persistFailed("reset", resetMarkerID, err)
	}
	if err := s.sink.UpsertOne(ctx, storage.CollectionMeta, marker); err != nil {
		return s.persistFailed("reset", resetMarkerID, err)
	}
	return nil
}

func (s *Store) persist(ctx context.Context, op string, h model.Habit) error {
	rec, err := storage.Encode(h.ID, h)
	if err != nil {
		return s.persistFailed(op, h.ID, err)
	}
	if err := s.sink.UpsertOne(ctx, storage.CollectionHabits, rec); err != nil {
		return s.persistFailed(op, h.ID, err)
	}
	return nil
}

func (s *Store) persistFailed(op, id string, err error) error {
	s.logger.Warn("habit write failed, keeping in-memory change",
		"op", op, "collection", storage.CollectionHabits, "id", id, "err", err)
	return &storage.PersistError{Op: op, Collection: storage.CollectionHabits, ID: id, Err: err}
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func bumpHistory(history []model.CompletionEntry, day string) []model.CompletionEntry {
	for i := range history {
		if history[i].Date == day {
			history[i].Count++
			return history
		}
	}
	return append(history, model.CompletionEntry{Date: day, Count: 1})
}
