package main

import "time"

const dayLayout = "2006-01-02"

// GameStats is a player's breakdown for one game.
type GameStats struct {
	Played            int       `json:"played"`
	TimePlayedSeconds int64     `json:"timePlayedSeconds"`
	BestScore         *int64    `json:"bestScore,omitempty"`
	BestDifficulty    string    `json:"bestDifficulty,omitempty"`
	LastScore         int64     `json:"lastScore"`
	LastPlayedAt      time.Time `json:"lastPlayedAt"`
}

// PlayerStats aggregates everything a player has done, keyed by display name.
type PlayerStats struct {
	Player            string                `json:"player"`
	GamesPlayed       int                   `json:"gamesPlayed"`
	TimePlayedSeconds int64                 `json:"timePlayedSeconds"`
	Games             map[string]*GameStats `json:"games"`
	HardGames         int                   `json:"hardGames"`
	CurrentStreak     int                   `json:"currentStreak"`
	LongestStreak     int                   `json:"longestStreak"`
	LastPlayedDay     string                `json:"lastPlayedDay,omitempty"`
	UpdatedAt         time.Time             `json:"updatedAt"`
}

func newPlayerStats(player string) *PlayerStats {
	return &PlayerStats{
		Player: player,
		Games:  make(map[string]*GameStats),
	}
}

func (p *PlayerStats) clone() *PlayerStats {
	cp := *p
	cp.Games = make(map[string]*GameStats, len(p.Games))
	for id, gs := range p.Games {
		g := *gs
		if gs.BestScore != nil {
			best := *gs.BestScore
			g.BestScore = &best
		}
		cp.Games[id] = &g
	}
	return &cp
}

// GameResult is one finished game as reported by the client.
type GameResult struct {
	Game            GameInfo
	Player          string
	Score           int64
	Difficulty      Difficulty
	Time            *int64
	DurationSeconds int64
	At              time.Time
}

// Apply folds a result into the stats. day is the result's calendar day in the
// server's time zone and drives the daily streak.
func (p *PlayerStats) Apply(r GameResult, day string) {
	if p.Games == nil {
		p.Games = make(map[string]*GameStats)
	}
	gs, ok := p.Games[r.Game.ID]
	if !ok {
		gs = &GameStats{}
		p.Games[r.Game.ID] = gs
	}

	duration := max(r.DurationSeconds, 0)

	p.GamesPlayed++
	p.TimePlayedSeconds += duration
	if r.Difficulty == Hard || r.Difficulty == Crazy {
		p.HardGames++
	}

	gs.Played++
	gs.TimePlayedSeconds += duration
	gs.LastScore = r.Score
	gs.LastPlayedAt = r.At
	if gs.BestScore == nil || r.Game.Better(r.Score, *gs.BestScore) {
		best := r.Score
		gs.BestScore = &best
		gs.BestDifficulty = string(r.Difficulty)
	}

	p.bumpStreak(day)
	p.UpdatedAt = r.At
}

func (p *PlayerStats) bumpStreak(day string) {
	switch {
	case p.LastPlayedDay == day:
		return
	case p.LastPlayedDay != "" && nextDay(p.LastPlayedDay) == day:
		p.CurrentStreak++
	default:
		p.CurrentStreak = 1
	}
	p.LastPlayedDay = day
	p.LongestStreak = max(p.LongestStreak, p.CurrentStreak)
}

func nextDay(day string) string {
	t, err := time.Parse(dayLayout, day)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, 1).Format(dayLayout)
}

func dayOf(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(dayLayout)
}
