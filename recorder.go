package main

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// ResultRequest is the body of POST /api/games/{game}/results.
type ResultRequest struct {
	Name            string `json:"name"`
	Score           int64  `json:"score"`
	Difficulty      string `json:"difficulty"`
	Time            *int64 `json:"time,omitempty"`
	DurationSeconds int64  `json:"durationSeconds,omitempty"`
}

// ResultOutcome reports what recording a result changed. Saved is false when
// any persistence step failed; the player keeps playing regardless.
type ResultOutcome struct {
	Entry               *LeaderboardEntry `json:"entry,omitempty"`
	Stats               *PlayerStats      `json:"stats,omitempty"`
	CompletedChallenges []Challenge       `json:"completedChallenges"`
	NewAchievements     []Achievement     `json:"newAchievements"`
	Saved               bool              `json:"saved"`
}

// Recorder fans one finished game out to the leaderboard, stats, daily
// challenges and achievements.
type Recorder struct {
	board        *Leaderboard
	store        Store
	challenges   *Challenges
	achievements *Achievements
	loc          *time.Location
	now          func() time.Time

	statsMu sync.Mutex // serialises read-modify-write of player stats
}

func NewRecorder(board *Leaderboard, store Store, challenges *Challenges, achievements *Achievements, loc *time.Location) *Recorder {
	return &Recorder{
		board:        board,
		store:        store,
		challenges:   challenges,
		achievements: achievements,
		loc:          loc,
		now:          time.Now,
	}
}

// Record validates the result and applies it. Only validation failures are
// returned as errors; storage failures are logged and reflected in Saved.
func (rec *Recorder) Record(ctx context.Context, gameID string, req ResultRequest) (ResultOutcome, error) {
	out := ResultOutcome{
		CompletedChallenges: []Challenge{},
		NewAchievements:     []Achievement{},
	}

	game, ok := lookupGame(gameID)
	if !ok {
		return out, invalid("game", "unknown game")
	}
	name := sanitizeName(req.Name)
	if name == "" {
		return out, invalid("name", "required")
	}
	d, err := parseDifficulty(req.Difficulty)
	if err != nil {
		return out, err
	}
	if req.Score < 0 {
		return out, invalid("score", "must not be negative")
	}

	result := GameResult{
		Game:            game,
		Player:          name,
		Score:           req.Score,
		Difficulty:      d,
		Time:            req.Time,
		DurationSeconds: req.DurationSeconds,
		At:              rec.now().UTC(),
	}
	if result.DurationSeconds == 0 && req.Time != nil {
		result.DurationSeconds = *req.Time
	}

	out.Saved = true

	entry, err := rec.board.Add(ctx, LeaderboardEntry{
		Game:       game.ID,
		Name:       name,
		Score:      req.Score,
		Difficulty: d,
		Time:       req.Time,
	})
	if err != nil {
		var ve ValidationError
		if errors.As(err, &ve) {
			return out, err
		}
		log.Printf("record %s for %s: leaderboard: %v", game.ID, name, err)
		out.Saved = false
	} else {
		out.Entry = &entry
	}

	stats, err := rec.updateStats(ctx, result)
	if err != nil {
		log.Printf("record %s for %s: stats: %v", game.ID, name, err)
		out.Saved = false
	} else {
		out.Stats = stats
	}

	done, set, err := rec.challenges.Record(ctx, result)
	if err != nil {
		log.Printf("record %s for %s: challenges: %v", game.ID, name, err)
		out.Saved = false
	} else if len(done) > 0 {
		out.CompletedChallenges = done
	}

	if stats != nil {
		fresh, err := rec.achievements.Evaluate(ctx, stats, set)
		if err != nil {
			log.Printf("record %s for %s: achievements: %v", game.ID, name, err)
			out.Saved = false
		}
		if len(fresh) > 0 {
			out.NewAchievements = fresh
		}
	}

	return out, nil
}

func (rec *Recorder) updateStats(ctx context.Context, r GameResult) (*PlayerStats, error) {
	rec.statsMu.Lock()
	defer rec.statsMu.Unlock()

	st, err := rec.store.PlayerStats(ctx, r.Player)
	if errors.Is(err, ErrNotFound) {
		st = newPlayerStats(r.Player)
	} else if err != nil {
		return nil, err
	}

	st.Apply(r, dayOf(r.At, rec.loc))
	if err := rec.store.SavePlayerStats(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}
