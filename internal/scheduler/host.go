package scheduler

import (
	"context"
	"log/slog"
	"time"
)

const DefaultInterval = time.Hour

// TickFunc is the single entry point the host drives.
type TickFunc func(ctx context.Context, now time.Time)

type HostOptions struct {
	Interval time.Duration
	Location *time.Location
	Buffer   int
	Logger   *slog.Logger
	Now      func() time.Time
}

// minHostBuffer lets both job kinds fall due together without a drop. A
// dropped kind would never be rescheduled.
const minHostBuffer = 2

// Host keeps a periodic check and a next-midnight job queued on an Engine
// and calls tick whenever either fires.
type Host struct {
	engine   *Engine
	tick     TickFunc
	interval time.Duration
	loc      *time.Location
	logger   *slog.Logger
	now      func() time.Time
}

func NewHost(tick TickFunc, opts HostOptions) *Host {
	buffer := opts.Buffer
	if buffer < minHostBuffer {
		buffer = minHostBuffer
	}
	h := &Host{
		engine:   NewEngine(buffer),
		tick:     tick,
		interval: opts.Interval,
		loc:      opts.Location,
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if h.interval <= 0 {
		h.interval = DefaultInterval
	}
	if h.loc == nil {
		h.loc = time.Local
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.now == nil {
		h.now = time.Now
	}
	h.engine.now = h.now
	return h
}

// NextMidnight returns the first local midnight strictly after now.
func NextMidnight(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
}

// Run ticks once immediately, then on every due job until ctx is done.
func (h *Host) Run(ctx context.Context) error {
	h.engine.Start()
	defer h.engine.Stop()

	now := h.now()
	h.tick(ctx, now)
	if err := h.reschedule(JobPeriodicCheck, now); err != nil {
		return err
	}
	if err := h.reschedule(JobMidnight, now); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case job, ok := <-h.engine.C():
			if !ok {
				return nil
			}
			now := h.now()
			h.logger.Debug("scheduled tick", "job", job.ID, "kind", job.Kind, "at", now)
			h.tick(ctx, now)
			if err := h.reschedule(job.Kind, now); err != nil {
				return err
			}
		}
	}
}

func (h *Host) reschedule(kind JobKind, now time.Time) error {
	job := Job{ID: string(kind), Kind: kind}
	switch kind {
	case JobMidnight:
		job.RunAt = NextMidnight(now, h.loc)
	default:
		job.RunAt = now.Add(h.interval)
	}
	return h.engine.Schedule(job)
}
