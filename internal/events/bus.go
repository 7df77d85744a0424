package events

import "sync"

type Kind string

const (
	TaskCreated          Kind = "task.created"
	TaskUpdated          Kind = "task.updated"
	TaskCompleted        Kind = "task.completed"
	TaskDeleted          Kind = "task.deleted"
	TaskRestored         Kind = "task.restored"
	TaskPurged           Kind = "task.purged"
	HabitCreated         Kind = "habit.created"
	HabitDeleted         Kind = "habit.deleted"
	HabitProgress        Kind = "habit.progress"
	HabitDayCompleted    Kind = "habit.day_completed"
	HabitsReset          Kind = "habit.reset"
	GoalUpdated          Kind = "goal.updated"
	GoalProgressAdvanced Kind = "goal.progress_advanced"
	JournalEntryRecorded Kind = "journal.recorded"
)

// Change describes one state mutation. Subscribers re-read whatever state
// they need; the change carries identity only.
type Change struct {
	Collection string
	Kind       Kind
	ID         string
}

type Handler func(Change)

// Bus fans changes out to subscribers synchronously, in subscription order.
type Bus struct {
	mu       sync.RWMutex
	next     int
	handlers map[int]Handler
	order    []int
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[int]Handler)}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.handlers[id] = fn
	b.order = append(b.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish delivers c to every subscriber. Handlers may publish further
// changes; they must not subscribe from inside a handler.
func (b *Bus) Publish(c Change) {
	if b == nil {
		return
	}
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.order))
	for _, id := range b.order {
		handlers = append(handlers, b.handlers[id])
	}
	b.mu.RUnlock()
	for _, h := range handlers {
		h(c)
	}
}
