package quest

import (
	"time"

	"github.com/cory-johannsen/levelup/internal/game/inventory"
)

// Starter returns the quests every new character begins with.
func Starter(now time.Time) []Quest {
	qs := []Quest{
		{
			ID:               "q1",
			Title:            "Daily Workout Routine",
			Description:      "Complete your strength training exercises",
			Difficulty:       DifficultyB,
			Expiry:           "Daily",
			ExpReward:        50,
			StatPointsReward: 2,
			GoldReward:       50,
			StatRewards:      map[string]int{"str": 5, "vit": 3},
		},
		{
			ID:               "q2",
			Title:            "Study Session",
			Description:      "Read chapter 5 of your textbook",
			Difficulty:       DifficultyC,
			Expiry:           "Daily",
			ExpReward:        30,
			StatPointsReward: 1,
			GoldReward:       30,
			StatRewards:      map[string]int{"int": 4, "per": 2},
		},
		{
			ID:               "q3",
			Title:            "Meditation Practice",
			Description:      "Complete 20 minutes of focused meditation",
			Difficulty:       DifficultyD,
			Expiry:           "Daily",
			ExpReward:        20,
			StatPointsReward: 1,
			GoldReward:       20,
			StatRewards:      map[string]int{"per": 3, "int": 2},
		},
		{
			ID:               "q4",
			Title:            "Project Deadline",
			Description:      "Complete your work project before the deadline",
			Difficulty:       DifficultyA,
			Expiry:           "Weekly",
			ExpReward:        100,
			StatPointsReward: 5,
			GoldReward:       100,
			StatRewards:      map[string]int{"int": 10, "agi": 5},
			ItemRewards:      []inventory.ItemSpec{{ID: "item-focus-potion", Quantity: 1}},
		},
	}
	for i := range qs {
		qs[i].Active = true
		qs[i].CreatedAt = now
		qs[i].Reward = RewardSummary(qs[i])
	}
	return qs
}
