package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

const dailyChallengeCount = 3

// Challenge is one daily task. An empty Difficulty accepts any level.
type Challenge struct {
	ID          string     `json:"id"`
	Game        string     `json:"game"`
	Difficulty  Difficulty `json:"difficulty,omitempty"`
	Target      int64      `json:"target"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// ChallengeSet is the challenges a player drew for one day.
type ChallengeSet struct {
	Player     string      `json:"player"`
	Day        string      `json:"day"`
	Challenges []Challenge `json:"challenges"`
	CreatedAt  time.Time   `json:"createdAt"`
}

func (cs *ChallengeSet) clone() *ChallengeSet {
	cp := *cs
	cp.Challenges = make([]Challenge, len(cs.Challenges))
	for i, c := range cs.Challenges {
		if c.CompletedAt != nil {
			at := *c.CompletedAt
			c.CompletedAt = &at
		}
		cp.Challenges[i] = c
	}
	return &cp
}

// AllCompleted reports whether every challenge of the set is done.
func (cs *ChallengeSet) AllCompleted() bool {
	if len(cs.Challenges) == 0 {
		return false
	}
	for _, c := range cs.Challenges {
		if !c.Completed {
			return false
		}
	}
	return true
}

// complete marks challenges satisfied by r and returns the ones newly done.
func (cs *ChallengeSet) complete(r GameResult) []Challenge {
	var done []Challenge
	for i := range cs.Challenges {
		c := &cs.Challenges[i]
		if c.Completed || c.Game != r.Game.ID {
			continue
		}
		if c.Difficulty != "" && c.Difficulty != r.Difficulty {
			continue
		}
		if !r.Game.Meets(r.Score, c.Target) {
			continue
		}
		at := r.At
		c.Completed = true
		c.CompletedAt = &at
		done = append(done, *c)
	}
	return done
}

// challengeCatalog is the static pool daily challenges are drawn from.
var challengeCatalog = []Challenge{
	{Game: "memory", Difficulty: Easy, Target: 20, Description: "Finish Memory Match (easy) in 20 moves or fewer"},
	{Game: "memory", Difficulty: Medium, Target: 30, Description: "Finish Memory Match (medium) in 30 moves or fewer"},
	{Game: "whack-a-mole", Target: 15, Description: "Whack 15 moles in one game"},
	{Game: "whack-a-mole", Difficulty: Hard, Target: 20, Description: "Whack 20 moles on hard"},
	{Game: "color-sequence", Target: 5, Description: "Remember a color sequence of 5"},
	{Game: "color-sequence", Difficulty: Medium, Target: 7, Description: "Reach a sequence of 7 on medium"},
	{Game: "math", Target: 8, Description: "Answer 8 math questions correctly"},
	{Game: "math", Difficulty: Hard, Target: 6, Description: "Answer 6 hard math questions correctly"},
	{Game: "word-search", Target: 180, Description: "Find all words within 3 minutes"},
	{Game: "word-search", Difficulty: Medium, Target: 240, Description: "Finish a medium word search within 4 minutes"},
	{Game: "number-sorting", Target: 60, Description: "Sort the numbers within 60 seconds"},
	{Game: "tic-tac-toe", Target: 1, Description: "Win a game of Tic-Tac-Toe"},
	{Game: "connect-4", Target: 1, Description: "Win a game of Connect 4"},
	{Game: "rhythm", Target: 500, Description: "Score 500 points in Rhythm"},
	{Game: "quiz", Target: 7, Description: "Get 7 quiz answers right"},
}

// drawChallenges samples distinct catalog entries for day.
func drawChallenges(rng *rand.Rand, day string) []Challenge {
	perm := rng.Perm(len(challengeCatalog))
	n := min(dailyChallengeCount, len(perm))
	out := make([]Challenge, 0, n)
	for i, idx := range perm[:n] {
		c := challengeCatalog[idx]
		c.ID = fmt.Sprintf("%s-%d", day, i+1)
		out = append(out, c)
	}
	return out
}

// Challenges hands out and scores daily challenge sets.
type Challenges struct {
	store Store
	loc   *time.Location
	now   func() time.Time

	mu  sync.Mutex // guards rng and get-or-create
	rng *rand.Rand
}

// NewChallenges creates the service; loc sets where a day starts.
func NewChallenges(store Store, loc *time.Location, rng *rand.Rand) *Challenges {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Challenges{
		store: store,
		loc:   loc,
		now:   time.Now,
		rng:   rng,
	}
}

// Today returns the player's set for the current day, drawing one if needed.
func (c *Challenges) Today(ctx context.Context, player string) (*ChallengeSet, error) {
	player = sanitizeName(player)
	if player == "" {
		return nil, invalid("name", "required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.today(ctx, player)
}

func (c *Challenges) today(ctx context.Context, player string) (*ChallengeSet, error) {
	now := c.now()
	day := dayOf(now, c.loc)

	cs, err := c.store.ChallengeSet(ctx, player, day)
	if err == nil {
		return cs, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	cs = &ChallengeSet{
		Player:     player,
		Day:        day,
		Challenges: drawChallenges(c.rng, day),
		CreatedAt:  now.UTC(),
	}
	if err := c.store.SaveChallengeSet(ctx, cs); err != nil {
		return nil, fmt.Errorf("save challenges: %w", err)
	}
	return cs, nil
}

// Record checks a result against today's set and returns the challenges it
// completed together with the updated set.
func (c *Challenges) Record(ctx context.Context, r GameResult) ([]Challenge, *ChallengeSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cs, err := c.today(ctx, r.Player)
	if err != nil {
		return nil, nil, err
	}
	done := cs.complete(r)
	if len(done) == 0 {
		return nil, cs, nil
	}
	if err := c.store.SaveChallengeSet(ctx, cs); err != nil {
		return nil, nil, fmt.Errorf("save challenges: %w", err)
	}
	return done, cs, nil
}
