package model

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidTransition = errors.New("model: invalid status transition")

type Quadrant string

const (
	QuadrantDo        Quadrant = "do"
	QuadrantSchedule  Quadrant = "schedule"
	QuadrantDelegate  Quadrant = "delegate"
	QuadrantEliminate Quadrant = "eliminate"
)

func (q Quadrant) IsValid() bool {
	switch q {
	case QuadrantDo, QuadrantSchedule, QuadrantDelegate, QuadrantEliminate:
		return true
	default:
		return false
	}
}

// Flags returns the urgent/important pair that places a task in q.
func (q Quadrant) Flags() (urgent, important bool) {
	switch q {
	case QuadrantDo:
		return true, true
	case QuadrantSchedule:
		return false, true
	case QuadrantDelegate:
		return true, false
	default:
		return false, false
	}
}

// Classify maps the Eisenhower booleans to a priority label.
func Classify(urgent, important bool) Priority {
	switch {
	case urgent && important:
		return PriorityUrgent
	case important:
		return PriorityHigh
	case urgent:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// QuadrantOf places a clarified task in the matrix.
func QuadrantOf(t Task) (Quadrant, bool) {
	if !t.Clarified {
		return "", false
	}
	urgent, important := t.Flags()
	switch {
	case urgent && important:
		return QuadrantDo, true
	case important:
		return QuadrantSchedule, true
	case urgent:
		return QuadrantDelegate, true
	default:
		return QuadrantEliminate, true
	}
}

func invalid(t Task, action string) error {
	return fmt.Errorf("%w: cannot %s task in status %q", ErrInvalidTransition, action, t.Status)
}

// Clarify records the Eisenhower flags and moves an inbox task to active.
// Tasks already past the inbox keep their status.
func Clarify(t Task, urgent, important bool) (Task, error) {
	if t.Status == TaskStatusDeleted {
		return t, invalid(t, "clarify")
	}
	out := t.Clone()
	out.Urgent = Bool(urgent)
	out.Important = Bool(important)
	out.Clarified = true
	out.Priority = Classify(urgent, important)
	if out.Status == TaskStatusInbox {
		out.Status = TaskStatusActive
	}
	return out, nil
}

// Complete moves an organized task to completed. Completing an already
// completed task keeps the original completion time.
func Complete(t Task, now time.Time) (Task, error) {
	switch t.Status {
	case TaskStatusCompleted:
		return t, nil
	case TaskStatusActive, TaskStatusWaitingFor, TaskStatusSomeday:
	default:
		return t, invalid(t, "complete")
	}
	out := t.Clone()
	out.Status = TaskStatusCompleted
	ts := now.UTC()
	out.CompletedAt = &ts
	return out, nil
}

// ToggleComplete reopens a completed task as active, otherwise completes it.
func ToggleComplete(t Task, now time.Time) (Task, error) {
	if t.Status != TaskStatusCompleted {
		return Complete(t, now)
	}
	out := t.Clone()
	out.Status = TaskStatusActive
	out.CompletedAt = nil
	return out, nil
}

// SoftDelete moves any task to the trash without touching its other fields.
func SoftDelete(t Task, now time.Time) Task {
	if t.Status == TaskStatusDeleted {
		return t
	}
	out := t.Clone()
	out.Status = TaskStatusDeleted
	ts := now.UTC()
	out.DeletedAt = &ts
	return out
}

// Restore returns a trashed task to the inbox and clears its deletion time.
func Restore(t Task) (Task, error) {
	if t.Status != TaskStatusDeleted {
		return t, invalid(t, "restore")
	}
	out := t.Clone()
	out.Status = TaskStatusInbox
	out.DeletedAt = nil
	return out, nil
}

// Move sets the status directly, as a drag between GTD lists does.
func Move(t Task, target TaskStatus) (Task, error) {
	if !target.IsMovable() {
		return t, fmt.Errorf("%w: %q is not a move target", ErrInvalidTransition, target)
	}
	if t.Status == TaskStatusDeleted {
		return t, invalid(t, "move")
	}
	out := t.Clone()
	out.Status = target
	out.CompletedAt = nil
	return out, nil
}

// Relocate places a task in an Eisenhower quadrant.
func Relocate(t Task, q Quadrant) (Task, error) {
	if !q.IsValid() {
		return t, fmt.Errorf("%w: unknown quadrant %q", ErrInvalidTransition, q)
	}
	urgent, important := q.Flags()
	return Clarify(t, urgent, important)
}

// Schedule places a task on the calendar. Empty start/end leave an all-day slot.
func Schedule(t Task, day time.Time, start, end string) (Task, error) {
	if t.Status == TaskStatusDeleted {
		return t, invalid(t, "schedule")
	}
	if err := validateWindow(start, end); err != nil {
		return t, err
	}
	out := t.Clone()
	d := day.UTC()
	out.ScheduledDate = &d
	out.StartTime = start
	out.EndTime = end
	return out, nil
}
