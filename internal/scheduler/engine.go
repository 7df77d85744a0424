package scheduler

import (
	"container/heap"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrInvalidRunTime = errors.New("scheduler: invalid run time")
	ErrStopped        = errors.New("scheduler: engine stopped")
)

type JobKind string

const (
	JobPeriodicCheck JobKind = "periodic_check"
	JobMidnight      JobKind = "midnight"
)

// Job is one timed wake-up. Jobs sharing an ID replace each other.
type Job struct {
	ID    string
	Kind  JobKind
	RunAt time.Time
}

type queueItem struct {
	job   Job
	seq   uint64
	index int
}

type jobQueue []*queueItem

func (q jobQueue) Len() int { return len(q) }

func (q jobQueue) Less(i, j int) bool {
	if q[i].job.RunAt.Equal(q[j].job.RunAt) {
		return q[i].seq < q[j].seq
	}
	return q[i].job.RunAt.Before(q[j].job.RunAt)
}

func (q jobQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *jobQueue) Push(x any) {
	item := x.(*queueItem)
	item.index = len(*q)
	*q = append(*q, item)
}

func (q *jobQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*q = old[:n-1]
	return item
}

// Engine emits jobs on C() once their run time has passed. Delivery never
// blocks the timer loop; jobs the consumer is too slow for are dropped.
type Engine struct {
	mu      sync.Mutex
	queue   jobQueue
	byID    map[string]*queueItem
	seq     uint64
	out     chan Job
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	dropped uint64
	now     func() time.Time
}

func NewEngine(bufferSize int) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Engine{
		queue:  make(jobQueue, 0),
		byID:   make(map[string]*queueItem),
		out:    make(chan Job, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
		now:    time.Now,
	}
}

func (e *Engine) C() <-chan Job {
	return e.out
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started || e.stopped {
		return
	}
	e.started = true
	heap.Init(&e.queue)
	go e.loop()
}

// Stop halts the loop and closes C. Stopping an engine that never started
// only marks it stopped.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	started := e.started
	close(e.stopCh)
	e.mu.Unlock()
	if started {
		<-e.doneCh
	}
}

// Schedule queues job, replacing any pending job with the same ID.
func (e *Engine) Schedule(job Job) error {
	if job.RunAt.IsZero() {
		return ErrInvalidRunTime
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrStopped
	}

	e.seq++
	if job.ID != "" {
		if old, ok := e.byID[job.ID]; ok {
			old.job = job
			old.seq = e.seq
			heap.Fix(&e.queue, old.index)
			e.signalWakeup()
			return nil
		}
	}
	item := &queueItem{job: job, seq: e.seq}
	heap.Push(&e.queue, item)
	if job.ID != "" {
		e.byID[job.ID] = item
	}
	e.signalWakeup()
	return nil
}

// Cancel removes a pending job and reports whether one was queued.
func (e *Engine) Cancel(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	item, ok := e.byID[id]
	if !ok {
		return false
	}
	heap.Remove(&e.queue, item.index)
	delete(e.byID, id)
	e.signalWakeup()
	return true
}

func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

func (e *Engine) Dropped() uint64 {
	return atomic.LoadUint64(&e.dropped)
}

func (e *Engine) loop() {
	defer close(e.doneCh)
	defer close(e.out)

	var timer *time.Timer
	for {
		next, hasNext := e.peek()
		if !hasNext {
			select {
			case <-e.wakeup:
				continue
			case <-e.stopCh:
				return
			}
		}

		wait := next.RunAt.Sub(e.now())
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			for _, job := range e.popDue(e.now()) {
				select {
				case e.out <- job:
				default:
					atomic.AddUint64(&e.dropped, 1)
				}
			}
		case <-e.wakeup:
			continue
		case <-e.stopCh:
			stopTimer(timer)
			return
		}
	}
}

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

func (e *Engine) peek() (Job, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return Job{}, false
	}
	return e.queue[0].job, true
}

func (e *Engine) popDue(now time.Time) []Job {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Job, 0)
	for len(e.queue) > 0 {
		if e.queue[0].job.RunAt.After(now) {
			break
		}
		item := heap.Pop(&e.queue).(*queueItem)
		if e.byID[item.job.ID] == item {
			delete(e.byID, item.job.ID)
		}
		out = append(out, item.job)
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
