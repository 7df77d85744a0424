package gamify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ShiftPioneer/nexus-app-sub003/internal/events"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/model"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/storage"
)

const (
	ledgerRecordID        = "ledger"
	DefaultLevelUpDisplay = 5 * time.Second
)

type ledgerRecord struct {
	ID string `json:"id"`
	model.LedgerState
}

type Options struct {
	Logger         *slog.Logger
	Now            func() time.Time
	Location       *time.Location
	LevelSize      int
	Rewards        Rewards
	LevelUpDisplay time.Duration
}

// Announcement is a level-up notice shown until ExpiresAt.
type Announcement struct {
	Level     int
	ExpiresAt time.Time
}

// Result describes the effect of one award.
type Result struct {
	Event     Event
	Amount    int
	Level     int
	LeveledUp bool
	Unlocked  []string
}

// Ledger owns the XP, level, activity streak and achievement state.
type Ledger struct {
	mu           sync.Mutex
	state        model.LedgerState
	announcement *Announcement

	sink      storage.Sink
	bus       *events.Bus
	logger    *slog.Logger
	now       func() time.Time
	loc       *time.Location
	levelSize int
	rewards   Rewards
	display   time.Duration
}

func NewLedger(sink storage.Sink, bus *events.Bus, opts Options) *Ledger {
	l := &Ledger{
		state:     model.NewLedgerState(),
		sink:      sink,
		bus:       bus,
		logger:    opts.Logger,
		now:       opts.Now,
		loc:       opts.Location,
		levelSize: opts.LevelSize,
		rewards:   opts.Rewards,
		display:   opts.LevelUpDisplay,
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	if l.now == nil {
		l.now = time.Now
	}
	if l.loc == nil {
		l.loc = time.Local
	}
	if l.levelSize <= 0 {
		l.levelSize = DefaultLevelSize
	}
	if l.rewards == nil {
		l.rewards = DefaultRewards()
	}
	if l.display <= 0 {
		l.display = DefaultLevelUpDisplay
	}
	return l
}

// Load reads the persisted state. Level and in-level XP are always
// re-derived from the lifetime total.
func (l *Ledger) Load(ctx context.Context) error {
	state := model.NewLedgerState()
	recs, err := l.sink.Load(ctx, storage.CollectionMeta)
	switch {
	case errors.Is(err, storage.ErrMalformed):
		l.logger.Warn("ledger unreadable, starting fresh", "err", err)
	case err != nil:
		return fmt.Errorf("load ledger: %w", err)
	}
	for _, rec := range recs {
		if rec.ID != ledgerRecordID {
			continue
		}
		stored, err := storage.Decode[ledgerRecord](rec.Payload)
		if err != nil {
			l.logger.Warn("ledger record malformed, starting fresh", "err", err)
			break
		}
		state = stored.LedgerState
	}
	state.Level, state.CurrentXP = Derive(state.TotalXP, l.levelSize)

	l.mu.Lock()
	l.state = state
	l.mu.Unlock()
	return nil
}

func (l *Ledger) State() model.LedgerState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Clone()
}

func (l *Ledger) LevelSize() int { return l.levelSize }

// Award grants the reward for ev and counts today as an active day.
func (l *Ledger) Award(ctx context.Context, ev Event) (Result, error) {
	amount := l.rewards[ev]
	res := Result{Event: ev, Amount: amount}
	if amount <= 0 {
		l.mu.Lock()
		res.Level = l.state.Level
		l.mu.Unlock()
		return res, nil
	}
	now := l.now()
	today := model.Day(now.In(l.loc))

	l.mu.Lock()
	next := l.state.Clone()
	touchStreak(&next, today)
	before := next.Level
	next.TotalXP += amount
	next.CurrentXP += amount
	for next.CurrentXP >= l.levelSize {
		next.CurrentXP -= l.levelSize
		next.Level++
	}
	res.Level = next.Level
	res.LeveledUp = next.Level > before
	res.Unlocked = unlock(&next)
	if res.LeveledUp {
		l.announcement = &Announcement{Level: next.Level, ExpiresAt: now.Add(l.display)}
	}
	l.state = next
	perr := l.persist(ctx, next)
	l.mu.Unlock()

	if res.LeveledUp {
		l.logger.Info("level up", "level", res.Level, "total_xp", next.TotalXP)
	}
	for _, id := range res.Unlocked {
		l.logger.Info("achievement unlocked", "id", id)
	}
	return res, perr
}

// CheckDailyLogin grants the daily login bonus unless today has already
// been rewarded.
func (l *Ledger) CheckDailyLogin(ctx context.Context) (Result, bool, error) {
	today := model.Day(l.now().In(l.loc))
	l.mu.Lock()
	done := l.state.LastActivityDate == today
	l.mu.Unlock()
	if done {
		return Result{}, false, nil
	}
	res, err := l.Award(ctx, EventDailyLogin)
	return res, true, err
}

func (l *Ledger) RecordJournalEntry(ctx context.Context) (Result, error) {
	res, err := l.Award(ctx, EventJournalEntry)
	l.bus.Publish(events.Change{Collection: storage.CollectionMeta, Kind: events.JournalEntryRecorded})
	return res, err
}

// CurrentAnnouncement returns the pending level-up notice, clearing it once
// its display time has passed.
func (l *Ledger) CurrentAnnouncement() (Announcement, bool) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.announcement == nil {
		return Announcement{}, false
	}
	if !now.Before(l.announcement.ExpiresAt) {
		l.announcement = nil
		return Announcement{}, false
	}
	return *l.announcement, true
}

// Subscribe awards XP for completed tasks, finished habit days and goal
// progress until the returned func is called.
func (l *Ledger) Subscribe() func() {
	return l.bus.Subscribe(func(c events.Change) {
		var ev Event
		switch c.Kind {
		case events.TaskCompleted:
			ev = EventTaskCompleted
		case events.HabitDayCompleted:
			ev = EventHabitCompleted
		case events.GoalProgressAdvanced:
			ev = EventGoalProgress
		default:
			return
		}
		_, _ = l.Award(context.Background(), ev)
	})
}

func touchStreak(s *model.LedgerState, today string) {
	if s.LastActivityDate == today {
		return
	}
	yesterday, err := model.AddDays(today, -1)
	if err == nil && s.LastActivityDate == yesterday {
		s.StreakDays++
	} else {
		s.StreakDays = 1
	}
	s.LastActivityDate = today
}

func (l *Ledger) persist(ctx context.Context, s model.LedgerState) error {
	rec, err := storage.Encode(ledgerRecordID, ledgerRecord{ID: ledgerRecordID, LedgerState: s})
	if err == nil {
		err = l.sink.UpsertOne(ctx, storage.CollectionMeta, rec)
	}
	if err != nil {
		l.logger.Warn("ledger write failed, keeping in-memory change",
			"collection", storage.CollectionMeta, "id", ledgerRecordID, "err", err)
		return &storage.PersistError{Op: "upsert", Collection: storage.CollectionMeta, ID: ledgerRecordID, Err: err}
	}
	return nil
}
