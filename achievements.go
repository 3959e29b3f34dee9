package main

import (
	"context"
	"fmt"
	"time"
)

// Achievement is a badge a player can earn.
type Achievement struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Earned      bool       `json:"earned"`
	UnlockedAt  *time.Time `json:"unlockedAt,omitempty"`
}

// Unlock records when a player earned an achievement.
type Unlock struct {
	Player        string    `json:"player"`
	AchievementID string    `json:"achievementId"`
	UnlockedAt    time.Time `json:"unlockedAt"`
}

// achievementRule ties a catalog entry to the condition that earns it.
type achievementRule struct {
	Achievement
	earned func(st *PlayerStats, cs *ChallengeSet) bool
}

func gamesPlayedRule(id, name, icon string, n int) achievementRule {
	return achievementRule{
		Achievement: Achievement{ID: id, Name: name, Description: fmt.Sprintf("Play %d games", n), Icon: icon},
		earned: func(st *PlayerStats, _ *ChallengeSet) bool {
			return st.GamesPlayed >= n
		},
	}
}

func streakRule(id, name, icon string, days int) achievementRule {
	return achievementRule{
		Achievement: Achievement{ID: id, Name: name, Description: fmt.Sprintf("Play %d days in a row", days), Icon: icon},
		earned: func(st *PlayerStats, _ *ChallengeSet) bool {
			return st.LongestStreak >= days
		},
	}
}

var achievementRules = []achievementRule{
	{
		Achievement: Achievement{ID: "first_game", Name: "First Steps", Description: "Finish your first game", Icon: "🌱"},
		earned: func(st *PlayerStats, _ *ChallengeSet) bool {
			return st.GamesPlayed >= 1
		},
	},
	gamesPlayedRule("regular", "Regular", "🎯", 10),
	gamesPlayedRule("enthusiast", "Enthusiast", "🏅", 50),
	gamesPlayedRule("champion", "Champion", "🏆", 100),
	{
		Achievement: Achievement{ID: "hour_played", Name: "Time Well Spent", Description: "Play for a total of one hour", Icon: "⏰"},
		earned: func(st *PlayerStats, _ *ChallengeSet) bool {
			return st.TimePlayedSeconds >= 3600
		},
	},
	{
		Achievement: Achievement{ID: "explorer", Name: "Explorer", Description: "Try every game", Icon: "🧭"},
		earned: func(st *PlayerStats, _ *ChallengeSet) bool {
			for _, g := range gameCatalog {
				if gs, ok := st.Games[g.ID]; !ok || gs.Played == 0 {
					return false
				}
			}
			return true
		},
	},
	streakRule("streak_3", "Three in a Row", "🔥", 3),
	streakRule("streak_7", "Full Week", "📅", 7),
	{
		Achievement: Achievement{ID: "daily_done", Name: "Daily Champion", Description: "Complete all of today's challenges", Icon: "⭐"},
		earned: func(_ *PlayerStats, cs *ChallengeSet) bool {
			return cs != nil && cs.AllCompleted()
		},
	},
	{
		Achievement: Achievement{ID: "brave", Name: "Brave Heart", Description: "Finish a game on hard or crazy", Icon: "💪"},
		earned: func(st *PlayerStats, _ *ChallengeSet) bool {
			return st.HardGames >= 1
		},
	},
}

// Achievements evaluates the catalog for players and persists unlocks.
type Achievements struct {
	store Store
	now   func() time.Time
}

func NewAchievements(store Store) *Achievements {
	return &Achievements{store: store, now: time.Now}
}

// Evaluate unlocks every achievement the player now qualifies for and returns
// the ones that are new.
func (a *Achievements) Evaluate(ctx context.Context, st *PlayerStats, cs *ChallengeSet) ([]Achievement, error) {
	now := a.now().UTC()

	var fresh []Achievement
	for _, rule := range achievementRules {
		if !rule.earned(st, cs) {
			continue
		}
		isNew, err := a.store.SaveUnlock(ctx, Unlock{
			Player:        st.Player,
			AchievementID: rule.ID,
			UnlockedAt:    now,
		})
		if err != nil {
			return fresh, fmt.Errorf("save unlock %s: %w", rule.ID, err)
		}
		if isNew {
			earned := rule.Achievement
			earned.Earned = true
			earned.UnlockedAt = &now
			fresh = append(fresh, earned)
		}
	}
	return fresh, nil
}

// List returns the whole catalog with the player's earned flags.
func (a *Achievements) List(ctx context.Context, player string) ([]Achievement, error) {
	unlocks, err := a.store.Unlocks(ctx, player)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]time.Time, len(unlocks))
	for _, u := range unlocks {
		byID[u.AchievementID] = u.UnlockedAt
	}

	list := make([]Achievement, 0, len(achievementRules))
	for _, rule := range achievementRules {
		ach := rule.Achievement
		if at, ok := byID[ach.ID]; ok {
			ach.Earned = true
			ach.UnlockedAt = &at
		}
		list = append(list, ach)
	}
	return list, nil
}
