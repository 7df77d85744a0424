package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidGoalStatus = errors.New("model: invalid goal status")

type GoalStatus string

const (
	GoalStatusNotStarted GoalStatus = "not_started"
	GoalStatusInProgress GoalStatus = "in_progress"
	GoalStatusCompleted  GoalStatus = "completed"
)

func (s GoalStatus) IsValid() bool {
	switch s {
	case GoalStatusNotStarted, GoalStatusInProgress, GoalStatusCompleted:
		return true
	default:
		return false
	}
}

type Milestone struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

type Goal struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Progress   int         `json:"progress"`
	Status     GoalStatus  `json:"status"`
	Milestones []Milestone `json:"milestones,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.ID) == "" {
		return errors.New("model: goal id is required")
	}
	if strings.TrimSpace(g.Title) == "" {
		return errors.New("model: goal title is required")
	}
	if g.Progress < 0 || g.Progress > 100 {
		return fmt.Errorf("model: goal progress %d out of range", g.Progress)
	}
	if !g.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidGoalStatus, g.Status)
	}
	return nil
}

func (g Goal) HasIncompleteMilestone() bool {
	for _, m := range g.Milestones {
		if !m.Completed {
			return true
		}
	}
	return false
}

func (g Goal) Clone() Goal {
	out := g
	if g.Milestones != nil {
		out.Milestones = append([]Milestone(nil), g.Milestones...)
	}
	return out
}
