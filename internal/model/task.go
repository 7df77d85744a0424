package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidStatus   = errors.New("model: invalid task status")
	ErrInvalidPriority = errors.New("model: invalid task priority")
	ErrInvalidType     = errors.New("model: invalid task type")
	ErrInvalidClock    = errors.New("model: invalid time of day")
)

type TaskStatus string

const (
	TaskStatusInbox      TaskStatus = "inbox"
	TaskStatusActive     TaskStatus = "active"
	TaskStatusWaitingFor TaskStatus = "waiting_for"
	TaskStatusSomeday    TaskStatus = "someday"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusDeleted    TaskStatus = "deleted"
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusInbox, TaskStatusActive, TaskStatusWaitingFor, TaskStatusSomeday, TaskStatusCompleted, TaskStatusDeleted:
		return true
	default:
		return false
	}
}

// IsMovable reports whether s is a valid drag-and-drop target.
func (s TaskStatus) IsMovable() bool {
	switch s {
	case TaskStatusActive, TaskStatusWaitingFor, TaskStatusSomeday:
		return true
	default:
		return false
	}
}

type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

type TaskType string

const (
	TaskTypeAction    TaskType = "action"
	TaskTypeNotTodo   TaskType = "not_todo"
	TaskTypeProject   TaskType = "project"
	TaskTypeReference TaskType = "reference"
	TaskTypeSomeday   TaskType = "someday"
)

func (t TaskType) IsValid() bool {
	switch t {
	case TaskTypeAction, TaskTypeNotTodo, TaskTypeProject, TaskTypeReference, TaskTypeSomeday:
		return true
	default:
		return false
	}
}

type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Kind string `json:"kind,omitempty"`
}

type Task struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Description   string      `json:"description,omitempty"`
	Type          TaskType    `json:"type"`
	Status        TaskStatus  `json:"status"`
	Priority      Priority    `json:"priority"`
	Category      string      `json:"category,omitempty"`
	Clarified     bool        `json:"clarified"`
	Urgent        *bool       `json:"urgent,omitempty"`
	Important     *bool       `json:"important,omitempty"`
	Context       string      `json:"context,omitempty"`
	GoalID        string      `json:"goalId,omitempty"`
	ProjectID     string      `json:"projectId,omitempty"`
	DueDate       *time.Time  `json:"dueDate,omitempty"`
	ScheduledDate *time.Time  `json:"scheduledDate,omitempty"`
	StartTime     string      `json:"startTime,omitempty"`
	EndTime       string      `json:"endTime,omitempty"`
	TimeEstimate  int         `json:"timeEstimate,omitempty"`
	Tags          []string    `json:"tags,omitempty"`
	Attachment    *Attachment `json:"attachment,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	CompletedAt   *time.Time  `json:"completedAt,omitempty"`
	DeletedAt     *time.Time  `json:"deletedAt,omitempty"`
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("model: task title is required")
	}
	if !t.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, t.Type)
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, t.Status)
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}
	if t.CreatedAt.IsZero() {
		return errors.New("model: task created_at is required")
	}
	if t.Clarified && (t.Urgent == nil || t.Important == nil) {
		return errors.New("model: clarified task requires urgent and important")
	}
	if t.Status == TaskStatusCompleted && t.CompletedAt == nil {
		return errors.New("model: completed_at is required when task status is completed")
	}
	if t.Status == TaskStatusDeleted && t.DeletedAt == nil {
		return errors.New("model: deleted_at is required when task status is deleted")
	}
	if t.TimeEstimate < 0 {
		return errors.New("model: time estimate must not be negative")
	}
	if err := validateWindow(t.StartTime, t.EndTime); err != nil {
		return err
	}
	return nil
}

// Clone returns a copy that shares no pointers or slices with t.
func (t Task) Clone() Task {
	out := t
	out.Urgent = cloneBool(t.Urgent)
	out.Important = cloneBool(t.Important)
	out.DueDate = cloneTime(t.DueDate)
	out.ScheduledDate = cloneTime(t.ScheduledDate)
	out.CompletedAt = cloneTime(t.CompletedAt)
	out.DeletedAt = cloneTime(t.DeletedAt)
	if t.Tags != nil {
		out.Tags = append([]string(nil), t.Tags...)
	}
	if t.Attachment != nil {
		a := *t.Attachment
		out.Attachment = &a
	}
	return out
}

// Flags returns the Eisenhower booleans, treating unset values as false.
func (t Task) Flags() (urgent, important bool) {
	if t.Urgent != nil {
		urgent = *t.Urgent
	}
	if t.Important != nil {
		important = *t.Important
	}
	return urgent, important
}

// ParseClock validates an "HH:MM" time of day and returns minutes since midnight.
func ParseClock(v string) (int, error) {
	tm, err := time.Parse("15:04", strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, v)
	}
	return tm.Hour()*60 + tm.Minute(), nil
}

func validateWindow(start, end string) error {
	var startMin, endMin int
	var err error
	if start != "" {
		if startMin, err = ParseClock(start); err != nil {
			return err
		}
	}
	if end != "" {
		if endMin, err = ParseClock(end); err != nil {
			return err
		}
	}
	if start != "" && end != "" && endMin < startMin {
		return fmt.Errorf("%w: end %s before start %s", ErrInvalidClock, end, start)
	}
	return nil
}

func cloneBool(v *bool) *bool {
	if v == nil {
		return nil
	}
	b := *v
	return &b
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	tm := *v
	return &tm
}

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }
