package main

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	leaderboardSize = 10
	maxNameLength   = 30
)

// LeaderboardEntry is one finished game posted to a leaderboard.
type LeaderboardEntry struct {
	ID         string     `json:"id"`
	Game       string     `json:"game"`
	Name       string     `json:"name"`
	Score      int64      `json:"score"`
	Difficulty Difficulty `json:"difficulty"`
	Time       *int64     `json:"time,omitempty"` // seconds, when the game is timed
	CreatedAt  time.Time  `json:"createdAt"`
}

func (e LeaderboardEntry) clone() LeaderboardEntry {
	if e.Time != nil {
		t := *e.Time
		e.Time = &t
	}
	return e
}

// sortEntries orders entries by difficulty rank (hardest first), then by score
// in the game's direction, then by time and finally by age.
func sortEntries(game GameInfo, entries []LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if ra, rb := a.Difficulty.Rank(), b.Difficulty.Rank(); ra != rb {
			return ra > rb
		}
		if a.Score != b.Score {
			return game.Better(a.Score, b.Score)
		}
		if a.Time != nil && b.Time != nil && *a.Time != *b.Time {
			return *a.Time < *b.Time
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

// rankEntries filters by difficulty (empty keeps all), sorts and truncates.
func rankEntries(game GameInfo, entries []LeaderboardEntry, d Difficulty) []LeaderboardEntry {
	list := entries[:0:0]
	for _, e := range entries {
		if d == "" || e.Difficulty == d {
			list = append(list, e)
		}
	}
	sortEntries(game, list)
	if len(list) > leaderboardSize {
		list = list[:leaderboardSize]
	}
	return list
}

// LeaderboardCache caches ranked top lists. Difficulty "" is the overall board.
type LeaderboardCache interface {
	Get(ctx context.Context, game string, d Difficulty) ([]LeaderboardEntry, bool, error)
	Set(ctx context.Context, game string, d Difficulty, entries []LeaderboardEntry) error
	Invalidate(ctx context.Context, game string) error
}

// Leaderboard ranks scores and pushes fresh snapshots to subscribers.
type Leaderboard struct {
	store Store
	cache LeaderboardCache
	sse   *Broadcaster
	now   func() time.Time

	mu   sync.Mutex
	gens map[string]uint64 // bumped on every write to a game's scores
}

// NewLeaderboard creates a leaderboard service. cache may be nil.
func NewLeaderboard(store Store, cache LeaderboardCache, sse *Broadcaster) *Leaderboard {
	return &Leaderboard{
		store: store,
		cache: cache,
		sse:   sse,
		now:   time.Now,
		gens:  make(map[string]uint64),
	}
}

func (l *Leaderboard) generation(game string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gens[game]
}

func (l *Leaderboard) bump(game string) {
	l.mu.Lock()
	l.gens[game]++
	l.mu.Unlock()
}

func leaderboardTopic(game string) string {
	return "leaderboard:" + game
}

// Add validates and persists an entry, then notifies subscribers.
func (l *Leaderboard) Add(ctx context.Context, e LeaderboardEntry) (LeaderboardEntry, error) {
	game, ok := lookupGame(e.Game)
	if !ok {
		return LeaderboardEntry{}, invalid("game", "unknown game")
	}
	e.Game = game.ID

	e.Name = sanitizeName(e.Name)
	if e.Name == "" {
		return LeaderboardEntry{}, invalid("name", "required")
	}
	if e.Score < 0 {
		return LeaderboardEntry{}, invalid("score", "must not be negative")
	}
	if e.Time != nil && *e.Time < 0 {
		return LeaderboardEntry{}, invalid("time", "must not be negative")
	}
	d, err := parseDifficulty(string(e.Difficulty))
	if err != nil {
		return LeaderboardEntry{}, err
	}
	e.Difficulty = d
	e.ID = uuid.NewString()
	e.CreatedAt = l.now().UTC()

	if err := l.store.AddScore(ctx, e); err != nil {
		return LeaderboardEntry{}, err
	}
	l.changed(ctx, game)
	return e, nil
}

// Top returns the best entries of a game, optionally for one difficulty.
func (l *Leaderboard) Top(ctx context.Context, gameID string, d Difficulty) ([]LeaderboardEntry, error) {
	game, ok := lookupGame(gameID)
	if !ok {
		return nil, invalid("game", "unknown game")
	}

	if l.cache != nil {
		entries, hit, err := l.cache.Get(ctx, game.ID, d)
		if err != nil {
			log.Printf("leaderboard cache get %s: %v", game.ID, err)
		} else if hit {
			return entries, nil
		}
	}

	gen := l.generation(game.ID)
	all, err := l.store.Scores(ctx, game.ID)
	if err != nil {
		return nil, err
	}
	top := rankEntries(game, all, d)

	if l.cache != nil {
		if err := l.cache.Set(ctx, game.ID, d, top); err != nil {
			log.Printf("leaderboard cache set %s: %v", game.ID, err)
		}
		// A write that landed after the read may have invalidated before
		// this Set. Drop what was just cached so it is not served stale.
		if l.generation(game.ID) != gen {
			if err := l.cache.Invalidate(ctx, game.ID); err != nil {
				log.Printf("leaderboard cache invalidate %s: %v", game.ID, err)
			}
		}
	}
	return top, nil
}

// Delete removes one entry.
func (l *Leaderboard) Delete(ctx context.Context, gameID, id string) error {
	game, ok := lookupGame(gameID)
	if !ok {
		return invalid("game", "unknown game")
	}
	if err := l.store.DeleteScore(ctx, game.ID, id); err != nil {
		return err
	}
	l.changed(ctx, game)
	return nil
}

// Clear removes every entry of a game.
func (l *Leaderboard) Clear(ctx context.Context, gameID string) error {
	game, ok := lookupGame(gameID)
	if !ok {
		return invalid("game", "unknown game")
	}
	if err := l.store.ClearScores(ctx, game.ID); err != nil {
		return err
	}
	l.changed(ctx, game)
	return nil
}

// changed drops cached boards and broadcasts the new overall board.
func (l *Leaderboard) changed(ctx context.Context, game GameInfo) {
	l.bump(game.ID)
	if l.cache != nil {
		if err := l.cache.Invalidate(ctx, game.ID); err != nil {
			log.Printf("leaderboard cache invalidate %s: %v", game.ID, err)
		}
	}
	if l.sse == nil || l.sse.Subscribers(leaderboardTopic(game.ID)) == 0 {
		return
	}
	evt, err := l.snapshotEvent(ctx, game.ID)
	if err != nil {
		log.Printf("leaderboard snapshot %s: %v", game.ID, err)
		return
	}
	l.sse.Broadcast(leaderboardTopic(game.ID), evt)
}

func (l *Leaderboard) snapshotEvent(ctx context.Context, gameID string) (string, error) {
	top, err := l.Top(ctx, gameID, "")
	if err != nil {
		return "", err
	}
	evt, err := json.Marshal(map[string]any{
		"type":    "leaderboard",
		"game":    gameID,
		"entries": top,
	})
	if err != nil {
		return "", err
	}
	return string(evt), nil
}

func sanitizeName(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > maxNameLength {
		s = strings.TrimSpace(string([]rune(s)[:maxNameLength]))
	}
	return s
}
