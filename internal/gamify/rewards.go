package gamify

import "fmt"

type Event string

const (
	EventTaskCompleted  Event = "task"
	EventHabitCompleted Event = "habit"
	EventGoalProgress   Event = "goal_progress"
	EventJournalEntry   Event = "journal"
	EventDailyLogin     Event = "daily_login"
)

const DefaultLevelSize = 100

// Rewards maps each event to the XP it earns.
type Rewards map[Event]int

func DefaultRewards() Rewards {
	return Rewards{
		EventTaskCompleted:  10,
		EventHabitCompleted: 5,
		EventGoalProgress:   15,
		EventJournalEntry:   8,
		EventDailyLogin:     5,
	}
}

func (r Rewards) Validate() error {
	for ev, xp := range r {
		if xp < 0 {
			return fmt.Errorf("gamify: negative reward for %s", ev)
		}
	}
	return nil
}

// LevelXP is the lifetime XP at which level starts.
func LevelXP(level, size int) int {
	if level < 1 {
		level = 1
	}
	return (level - 1) * size
}

// NextLevelXP is the lifetime XP at which the level after level starts.
func NextLevelXP(level, size int) int {
	if level < 1 {
		level = 1
	}
	return level * size
}

// Derive returns the level and in-level XP for a lifetime total.
func Derive(totalXP, size int) (level, currentXP int) {
	if totalXP < 0 {
		totalXP = 0
	}
	return totalXP/size + 1, totalXP % size
}
