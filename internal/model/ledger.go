package model

import "errors"

// LedgerState is the persisted gamification record.
type LedgerState struct {
	CurrentXP        int      `json:"currentXP"`
	TotalXP          int      `json:"totalXP"`
	Level            int      `json:"level"`
	StreakDays       int      `json:"streakDays"`
	LastActivityDate string   `json:"lastActivityDate,omitempty"`
	Achievements     []string `json:"achievements,omitempty"`
}

func NewLedgerState() LedgerState {
	return LedgerState{Level: 1}
}

func (s LedgerState) Validate() error {
	if s.TotalXP < 0 || s.CurrentXP < 0 {
		return errors.New("model: ledger xp must not be negative")
	}
	if s.Level < 1 {
		return errors.New("model: ledger level must be at least 1")
	}
	if s.StreakDays < 0 {
		return errors.New("model: ledger streak must not be negative")
	}
	if s.LastActivityDate != "" {
		if _, err := ParseDay(s.LastActivityDate); err != nil {
			return err
		}
	}
	return nil
}

func (s LedgerState) HasAchievement(id string) bool {
	for _, a := range s.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

func (s LedgerState) Clone() LedgerState {
	out := s
	if s.Achievements != nil {
		out.Achievements = append([]string(nil), s.Achievements...)
	}
	return out
}
