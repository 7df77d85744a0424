package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidHabitStatus = errors.New("model: invalid habit status")

type HabitStatus string

const (
	HabitStatusPending   HabitStatus = "pending"
	HabitStatusPartial   HabitStatus = "partial"
	HabitStatusCompleted HabitStatus = "completed"
	HabitStatusMissed    HabitStatus = "missed"
)

func (s HabitStatus) IsValid() bool {
	switch s {
	case HabitStatusPending, HabitStatusPartial, HabitStatusCompleted, HabitStatusMissed:
		return true
	default:
		return false
	}
}

// CompletionEntry counts the completions recorded on one calendar date.
type CompletionEntry struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type Habit struct {
	ID                string            `json:"id"`
	Title             string            `json:"title"`
	Category          string            `json:"category,omitempty"`
	Streak            int               `json:"streak"`
	Target            int               `json:"target"`
	DailyTarget       int               `json:"dailyTarget"`
	TodayCompletions  int               `json:"todayCompletions"`
	CompletionDates   []string          `json:"completionDates"`
	CompletionHistory []CompletionEntry `json:"completionHistory"`
	Status            HabitStatus       `json:"status"`
	CreatedAt         time.Time         `json:"createdAt"`
}

func (h Habit) Validate() error {
	if strings.TrimSpace(h.ID) == "" {
		return errors.New("model: habit id is required")
	}
	if strings.TrimSpace(h.Title) == "" {
		return errors.New("model: habit title is required")
	}
	if h.Streak < 0 {
		return errors.New("model: habit streak must not be negative")
	}
	if h.Target < 1 {
		return errors.New("model: habit target must be at least 1")
	}
	if h.DailyTarget < 1 {
		return errors.New("model: habit daily target must be at least 1")
	}
	if h.TodayCompletions < 0 {
		return errors.New("model: habit today completions must not be negative")
	}
	if !h.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidHabitStatus, h.Status)
	}
	if h.CreatedAt.IsZero() {
		return errors.New("model: habit created_at is required")
	}
	seen := make(map[string]bool, len(h.CompletionDates))
	for _, d := range h.CompletionDates {
		if _, err := ParseDay(d); err != nil {
			return err
		}
		if seen[d] {
			return fmt.Errorf("model: duplicate completion date %s", d)
		}
		seen[d] = true
	}
	for _, e := range h.CompletionHistory {
		if _, err := ParseDay(e.Date); err != nil {
			return err
		}
		if e.Count < 0 {
			return fmt.Errorf("model: negative completion count on %s", e.Date)
		}
	}
	return nil
}

func (h Habit) Clone() Habit {
	out := h
	if h.CompletionDates != nil {
		out.CompletionDates = append([]string(nil), h.CompletionDates...)
	}
	if h.CompletionHistory != nil {
		out.CompletionHistory = append([]CompletionEntry(nil), h.CompletionHistory...)
	}
	return out
}

// CountOn returns the completions recorded on day.
func (h Habit) CountOn(day string) int {
	for _, e := range h.CompletionHistory {
		if e.Date == day {
			return e.Count
		}
	}
	return 0
}

func (h Habit) CompletedOn(day string) bool {
	for _, d := range h.CompletionDates {
		if d == day {
			return true
		}
	}
	return false
}
