package gamify

import "github.com/ShiftPioneer/nexus-app-sub003/internal/model"

// Achievement is a badge unlocked once its condition first holds.
type Achievement struct {
	ID          string
	Name        string
	Description string
	earned      func(model.LedgerState) bool
}

var catalog = []Achievement{
	levelAchievement("first_level_up", "Level Up", "Reach level 2", 2),
	levelAchievement("level_5", "On the Path", "Reach level 5", 5),
	levelAchievement("level_10", "Seasoned", "Reach level 10", 10),
	streakAchievement("streak_3", "Warming Up", "Stay active 3 days in a row", 3),
	streakAchievement("streak_7", "Full Week", "Stay active 7 days in a row", 7),
	streakAchievement("streak_30", "Unbroken", "Stay active 30 days in a row", 30),
	{
		ID:          "xp_1000",
		Name:        "Thousand Club",
		Description: "Earn 1000 XP",
		earned:      func(s model.LedgerState) bool { return s.TotalXP >= 1000 },
	},
}

func levelAchievement(id, name, desc string, level int) Achievement {
	return Achievement{ID: id, Name: name, Description: desc, earned: func(s model.LedgerState) bool {
		return s.Level >= level
	}}
}

func streakAchievement(id, name, desc string, days int) Achievement {
	return Achievement{ID: id, Name: name, Description: desc, earned: func(s model.LedgerState) bool {
		return s.StreakDays >= days
	}}
}

// Achievements lists the full catalog.
func Achievements() []Achievement {
	return append([]Achievement(nil), catalog...)
}

// unlock adds every newly earned achievement to s and returns their ids.
func unlock(s *model.LedgerState) []string {
	var out []string
	for _, a := range catalog {
		if s.HasAchievement(a.ID) || !a.earned(*s) {
			continue
		}
		s.Achievements = append(s.Achievements, a.ID)
		out = append(out, a.ID)
	}
	return out
}
