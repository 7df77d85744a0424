package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ShiftPioneer/nexus-app-sub003/internal/auth"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/config"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/events"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/gamify"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/goals"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/habits"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/storage"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/tasks"
)

type Options struct {
	Config *config.Config
	Logger *slog.Logger
	Auth   auth.Provider
	// Sink bypasses backend selection when set.
	Sink  storage.Sink
	Now   func() time.Time
	NewID func() string
}

// App is the explicit owner of every store for one session.
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	Bus        *events.Bus
	Tasks      *tasks.Store
	Habits     *habits.Store
	Goals      *goals.Store
	Reconciler *goals.Reconciler
	Ledger     *gamify.Ledger
	Sink       SinkInfo
	Location   *time.Location
	// OpenReport is what the tick run by Open did.
	OpenReport TickReport

	sink        storage.Sink
	unsubscribe []func()
	now         func() time.Time
}

// Open builds the session: picks a sink, loads every store and runs the
// first tick. Load problems are logged and leave the affected store empty.
func Open(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	sink, info := opts.Sink, SinkInfo{Backend: "custom"}
	if sink == nil {
		provider := opts.Auth
		if provider == nil {
			provider = NewAuthProvider(cfg)
		}
		sink, info = openSink(ctx, cfg, provider, logger)
	}

	bus := events.NewBus()
	a := &App{
		Config:   cfg,
		Logger:   logger,
		Bus:      bus,
		Sink:     info,
		Location: loc,
		sink:     sink,
		now:      now,
	}
	a.Tasks = tasks.NewStore(sink, bus, tasks.Options{Logger: logger, Now: now, NewID: opts.NewID, Location: loc})
	a.Habits = habits.NewStore(sink, bus, habits.Options{Logger: logger, Now: now, NewID: opts.NewID, Location: loc})
	a.Goals = goals.NewStore(sink, bus, goals.Options{Logger: logger, Now: now, NewID: opts.NewID})
	a.Reconciler = goals.NewReconciler(a.Goals, a.Tasks, bus, logger)
	a.Ledger = gamify.NewLedger(sink, bus, gamify.Options{
		Logger:         logger,
		Now:            now,
		Location:       loc,
		LevelSize:      cfg.LevelSize,
		Rewards:        rewardsFromConfig(cfg.Rewards),
		LevelUpDisplay: cfg.LevelUpDisplay,
	})

	if err := a.Ledger.Load(ctx); err != nil {
		logger.Warn("loading ledger failed", "err", err)
	}
	a.unsubscribe = append(a.unsubscribe, a.Ledger.Subscribe(), a.Reconciler.Subscribe())
	if err := a.Tasks.Load(ctx); err != nil {
		logger.Warn("loading tasks failed", "err", err)
	}
	if err := a.Habits.Load(ctx); err != nil && !errors.Is(err, storage.ErrPersist) {
		logger.Warn("loading habits failed", "err", err)
	}
	a.OpenReport = a.Tick(ctx, now())
	return a, nil
}

func rewardsFromConfig(r config.RewardsConfig) gamify.Rewards {
	return gamify.Rewards{
		gamify.EventTaskCompleted:  r.Task,
		gamify.EventHabitCompleted: r.Habit,
		gamify.EventGoalProgress:   r.GoalProgress,
		gamify.EventJournalEntry:   r.Journal,
		gamify.EventDailyLogin:     r.DailyLogin,
	}
}

// TickReport says what one tick did.
type TickReport struct {
	At          time.Time
	HabitsReset bool
	LoginBonus  *gamify.Result
}

// Tick is the single time-driven entry point: the daily habit reset and
// the daily login bonus. Hosts call it on load, hourly and at midnight.
func (a *App) Tick(ctx context.Context, at time.Time) TickReport {
	report := TickReport{At: at}
	reset, err := a.Habits.ResetIfNewDay(ctx)
	if err != nil {
		a.Logger.Warn("daily habit reset incomplete", "err", err)
	}
	report.HabitsReset = reset

	res, awarded, err := a.Ledger.CheckDailyLogin(ctx)
	if err != nil {
		a.Logger.Warn("daily login bonus not saved", "err", err)
	}
	if awarded {
		report.LoginBonus = &res
	}
	a.Logger.Debug("tick", "at", at, "habits_reset", reset, "login_bonus", awarded)
	return report
}

func (a *App) Now() time.Time { return a.now() }

// Close detaches subscribers and releases the sink.
func (a *App) Close() error {
	for _, fn := range a.unsubscribe {
		fn()
	}
	a.unsubscribe = nil
	return a.sink.Close()
}
