package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestEngineEmitsInRunOrder(t *testing.T) {
	engine := NewEngine(8)
	engine.Start()
	defer engine.Stop()

	now := time.Now()
	if err := engine.Schedule(Job{ID: "later", RunAt: now.Add(80 * time.Millisecond)}); err != nil {
		t.Fatalf("schedule later: %v", err)
	}
	if err := engine.Schedule(Job{ID: "sooner", RunAt: now.Add(20 * time.Millisecond)}); err != nil {
		t.Fatalf("schedule sooner: %v", err)
	}

	first := waitJob(t, engine.C(), time.Second)
	second := waitJob(t, engine.C(), time.Second)
	if first.ID != "sooner" || second.ID != "later" {
		t.Fatalf("unexpected order: first=%s second=%s", first.ID, second.ID)
	}
}

func TestEngineNonBlockingDropsWhenConsumerIsSlow(t *testing.T) {
	engine := NewEngine(1)
	engine.Start()
	defer engine.Stop()

	at := time.Now().Add(20 * time.Millisecond)
	for i := 0; i < 25; i++ {
		if err := engine.Schedule(Job{Kind: JobPeriodicCheck, RunAt: at}); err != nil {
			t.Fatalf("schedule job: %v", err)
		}
	}

	time.Sleep(120 * time.Millisecond)
	if engine.Dropped() == 0 {
		t.Fatalf("expected dropped jobs > 0, got %d", engine.Dropped())
	}
}

func TestScheduleReplacesJobWithSameID(t *testing.T) {
	engine := NewEngine(4)
	engine.Start()
	defer engine.Stop()

	now := time.Now()
	if err := engine.Schedule(Job{ID: "check", Kind: JobPeriodicCheck, RunAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := engine.Schedule(Job{ID: "check", Kind: JobMidnight, RunAt: now.Add(20 * time.Millisecond)}); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if engine.Pending() != 1 {
		t.Fatalf("expected one pending job, got %d", engine.Pending())
	}
	job := waitJob(t, engine.C(), time.Second)
	if job.Kind != JobMidnight {
		t.Fatalf("expected replaced job, got %+v", job)
	}
}

func TestCancelRemovesPendingJob(t *testing.T) {
	engine := NewEngine(4)
	engine.Start()
	defer engine.Stop()

	now := time.Now()
	_ = engine.Schedule(Job{ID: "gone", RunAt: now.Add(30 * time.Millisecond)})
	_ = engine.Schedule(Job{ID: "kept", RunAt: now.Add(60 * time.Millisecond)})
	if !engine.Cancel("gone") {
		t.Fatalf("expected cancel to find job")
	}
	if engine.Cancel("gone") {
		t.Fatalf("second cancel must report false")
	}
	if job := waitJob(t, engine.C(), time.Second); job.ID != "kept" {
		t.Fatalf("expected kept job, got %s", job.ID)
	}
}

func TestScheduleValidatesRunTime(t *testing.T) {
	engine := NewEngine(1)
	if err := engine.Schedule(Job{ID: "bad"}); err != ErrInvalidRunTime {
		t.Fatalf("expected ErrInvalidRunTime, got %v", err)
	}
	engine.Stop()
	if err := engine.Schedule(Job{ID: "late", RunAt: time.Now()}); err != ErrStopped {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestNextMidnight(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	now := time.Date(2026, 1, 31, 23, 30, 0, 0, time.UTC) // 01:30 on Feb 1 local
	got := NextMidnight(now, loc)
	want := time.Date(2026, 2, 2, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestHostTicksOnStartAndInterval(t *testing.T) {
	var mu sync.Mutex
	ticks := 0
	host := NewHost(func(context.Context, time.Time) {
		mu.Lock()
		ticks++
		mu.Unlock()
	}, HostOptions{Interval: 15 * time.Millisecond, Location: time.UTC, Buffer: 4})

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()
	if err := host.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if ticks < 3 {
		t.Fatalf("expected start tick plus periodic ticks, got %d", ticks)
	}
}

func waitJob(t *testing.T, ch <-chan Job, timeout time.Duration) Job {
	t.Helper()
	select {
	case job := <-ch:
		return job
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for job")
		return Job{}
	}
}

func TestHostBufferHoldsBothJobKinds(t *testing.T) {
	host := NewHost(func(context.Context, time.Time) {}, HostOptions{Interval: time.Hour, Location: time.UTC, Buffer: 1})
	host.engine.Start()
	defer host.engine.Stop()

	past := time.Now().Add(-time.Minute)
	if err := host.engine.Schedule(Job{ID: string(JobPeriodicCheck), Kind: JobPeriodicCheck, RunAt: past}); err != nil {
		t.Fatalf("schedule periodic: %v", err)
	}
	if err := host.engine.Schedule(Job{ID: string(JobMidnight), Kind: JobMidnight, RunAt: past}); err != nil {
		t.Fatalf("schedule midnight: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	kinds := map[JobKind]bool{}
	kinds[waitJob(t, host.engine.C(), time.Second).Kind] = true
	kinds[waitJob(t, host.engine.C(), time.Second).Kind] = true
	if !kinds[JobPeriodicCheck] || !kinds[JobMidnight] {
		t.Fatalf("expected both job kinds delivered, got %v", kinds)
	}
	if host.engine.Dropped() != 0 {
		t.Fatalf("expected no drops, got %d", host.engine.Dropped())
	}
}
