package main

import "strings"

// GameInfo describes one mini-game of the suite.
type GameInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	LowerIsBetter bool   `json:"lowerIsBetter"`
}

// gameCatalog lists every game that can post scores.
// Memory, word search and number sorting score moves or seconds, so lower wins.
var gameCatalog = []GameInfo{
	{ID: "memory", Name: "Memory Match", LowerIsBetter: true},
	{ID: "whack-a-mole", Name: "Whack-a-Mole"},
	{ID: "color-sequence", Name: "Color Sequence"},
	{ID: "math", Name: "Math Drills"},
	{ID: "word-search", Name: "Word Search", LowerIsBetter: true},
	{ID: "number-sorting", Name: "Number Sorting", LowerIsBetter: true},
	{ID: "tic-tac-toe", Name: "Tic-Tac-Toe"},
	{ID: "connect-4", Name: "Connect 4"},
	{ID: "rhythm", Name: "Rhythm"},
	{ID: "quiz", Name: "Quiz"},
}

func lookupGame(id string) (GameInfo, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, g := range gameCatalog {
		if g.ID == id {
			return g, true
		}
	}
	return GameInfo{}, false
}

// Better reports whether score a beats score b for this game.
func (g GameInfo) Better(a, b int64) bool {
	if g.LowerIsBetter {
		return a < b
	}
	return a > b
}

// Meets reports whether score reaches target in the game's direction.
func (g GameInfo) Meets(score, target int64) bool {
	if g.LowerIsBetter {
		return score <= target
	}
	return score >= target
}

// Difficulty is the level a game was played at.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
	Crazy  Difficulty = "crazy"
)

var difficultyRank = map[Difficulty]int{
	Easy:   1,
	Medium: 2,
	Hard:   3,
	Crazy:  4,
}

// Rank orders difficulties for leaderboards; unknown values rank lowest.
func (d Difficulty) Rank() int {
	return difficultyRank[d]
}

func (d Difficulty) Valid() bool {
	_, ok := difficultyRank[d]
	return ok
}

func parseDifficulty(s string) (Difficulty, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Easy, nil
	}
	d := Difficulty(s)
	if !d.Valid() {
		return "", invalid("difficulty", "must be easy, medium, hard or crazy")
	}
	return d, nil
}
