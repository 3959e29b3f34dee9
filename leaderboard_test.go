package main

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// mapCache is an in-process LeaderboardCache for tests.
type mapCache struct {
	mu          sync.Mutex
	boards      map[string][]LeaderboardEntry
	gets        int
	hits        int
	invalidated []string
}

func newMapCache() *mapCache {
	return &mapCache{boards: make(map[string][]LeaderboardEntry)}
}

func (c *mapCache) Get(_ context.Context, game string, d Difficulty) ([]LeaderboardEntry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	e, ok := c.boards[boardKey(game, d)]
	if ok {
		c.hits++
	}
	return e, ok, nil
}

func (c *mapCache) Set(_ context.Context, game string, d Difficulty, entries []LeaderboardEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.boards[boardKey(game, d)] = entries
	return nil
}

func (c *mapCache) Invalidate(_ context.Context, game string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.boards {
		if strings.HasPrefix(k, "leaderboard:"+game+":") {
			delete(c.boards, k)
		}
	}
	c.invalidated = append(c.invalidated, game)
	return nil
}

func TestSortEntriesDifficultyThenScore(t *testing.T) {
	game, _ := lookupGame("math")
	entries := []LeaderboardEntry{
		{Name: "easy-high", Score: 100, Difficulty: Easy},
		{Name: "crazy-low", Score: 1, Difficulty: Crazy},
		{Name: "hard-mid", Score: 50, Difficulty: Hard},
		{Name: "hard-high", Score: 60, Difficulty: Hard},
		{Name: "medium", Score: 70, Difficulty: Medium},
	}
	sortEntries(game, entries)

	want := []string{"crazy-low", "hard-high", "hard-mid", "medium", "easy-high"}
	for i, name := range want {
		if entries[i].Name != name {
			t.Fatalf("position %d: got %s, want %s", i, entries[i].Name, name)
		}
	}
}

func TestSortEntriesLowerIsBetter(t *testing.T) {
	for _, id := range []string{"memory", "word-search", "number-sorting"} {
		game, _ := lookupGame(id)
		entries := []LeaderboardEntry{
			{Name: "slow", Score: 40, Difficulty: Easy},
			{Name: "fast", Score: 12, Difficulty: Easy},
		}
		sortEntries(game, entries)
		if entries[0].Name != "fast" {
			t.Fatalf("%s: expected lower score first, got %s", id, entries[0].Name)
		}
	}
}

func TestSortEntriesTiebreaks(t *testing.T) {
	game, _ := lookupGame("math")
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := []LeaderboardEntry{
		{Name: "later", Score: 10, Difficulty: Easy, CreatedAt: t0.Add(time.Hour)},
		{Name: "slower", Score: 10, Difficulty: Easy, Time: int64p(90), CreatedAt: t0},
		{Name: "quicker", Score: 10, Difficulty: Easy, Time: int64p(30), CreatedAt: t0.Add(2 * time.Hour)},
		{Name: "earlier", Score: 10, Difficulty: Easy, CreatedAt: t0.Add(-time.Hour)},
	}
	pair := []LeaderboardEntry{entries[1], entries[2]}
	sortEntries(game, pair)
	if pair[0].Name != "quicker" {
		t.Fatalf("expected faster time first, got %s", pair[0].Name)
	}

	untimed := []LeaderboardEntry{entries[0], entries[3]}
	sortEntries(game, untimed)
	if untimed[0].Name != "earlier" {
		t.Fatalf("expected older entry first, got %s", untimed[0].Name)
	}
}

func TestRankEntriesFiltersAndTruncates(t *testing.T) {
	game, _ := lookupGame("whack-a-mole")
	var entries []LeaderboardEntry
	for i := range 15 {
		entries = append(entries, LeaderboardEntry{Score: int64(i), Difficulty: Easy})
	}
	entries = append(entries, LeaderboardEntry{Score: 1, Difficulty: Hard})

	top := rankEntries(game, entries, "")
	if len(top) != leaderboardSize {
		t.Fatalf("expected %d entries, got %d", leaderboardSize, len(top))
	}
	if top[0].Difficulty != Hard {
		t.Fatal("hard entry should lead the overall board")
	}

	easy := rankEntries(game, entries, Easy)
	if len(easy) != leaderboardSize || easy[0].Score != 14 {
		t.Fatalf("unexpected easy board head %+v", easy[0])
	}
	hard := rankEntries(game, entries, Hard)
	if len(hard) != 1 {
		t.Fatalf("expected 1 hard entry, got %d", len(hard))
	}
}

func TestLeaderboardAddValidates(t *testing.T) {
	lb := NewLeaderboard(NewMemoryStore(), nil, nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		entry LeaderboardEntry
	}{
		{"unknown game", LeaderboardEntry{Game: "chess", Name: "Ah Ma"}},
		{"blank name", LeaderboardEntry{Game: "math", Name: "   "}},
		{"bad difficulty", LeaderboardEntry{Game: "math", Name: "Ah Ma", Difficulty: "extreme"}},
		{"negative score", LeaderboardEntry{Game: "math", Name: "Ah Ma", Score: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := lb.Add(ctx, tt.entry)
			var ve ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	long := strings.Repeat("名", 40)
	e, err := lb.Add(ctx, LeaderboardEntry{Game: "Math", Name: "  " + long, Score: 3})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if e.ID == "" || e.Game != "math" || e.Difficulty != Easy {
		t.Fatalf("unexpected normalised entry %+v", e)
	}
	if n := len([]rune(e.Name)); n != maxNameLength {
		t.Fatalf("expected name truncated to %d runes, got %d", maxNameLength, n)
	}
}

func TestLeaderboardCacheReadThrough(t *testing.T) {
	cache := newMapCache()
	lb := NewLeaderboard(NewMemoryStore(), cache, nil)
	ctx := context.Background()

	lb.Add(ctx, LeaderboardEntry{Game: "math", Name: "Ah Ma", Score: 5})
	if _, err := lb.Top(ctx, "math", ""); err != nil {
		t.Fatalf("top: %v", err)
	}
	top, err := lb.Top(ctx, "math", "")
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 1 || cache.hits != 1 {
		t.Fatalf("expected one cached read, got hits=%d len=%d", cache.hits, len(top))
	}

	lb.Add(ctx, LeaderboardEntry{Game: "math", Name: "Uncle Lim", Score: 9})
	top, _ = lb.Top(ctx, "math", "")
	if len(top) != 2 || top[0].Name != "Uncle Lim" {
		t.Fatalf("cache not invalidated after add: %+v", top)
	}
	if len(cache.invalidated) != 2 {
		t.Fatalf("expected 2 invalidations, got %d", len(cache.invalidated))
	}
}

// racyStore runs afterRead once, between reading scores and returning them.
type racyStore struct {
	*MemoryStore
	afterRead func()
}

func (s *racyStore) Scores(ctx context.Context, game string) ([]LeaderboardEntry, error) {
	entries, err := s.MemoryStore.Scores(ctx, game)
	if f := s.afterRead; f != nil {
		s.afterRead = nil
		f()
	}
	return entries, err
}

func TestLeaderboardWriteDuringFillIsNotCached(t *testing.T) {
	cache := newMapCache()
	store := &racyStore{MemoryStore: NewMemoryStore()}
	lb := NewLeaderboard(store, cache, nil)
	ctx := context.Background()

	lb.Add(ctx, LeaderboardEntry{Game: "math", Name: "Ah Ma", Score: 5})
	store.afterRead = func() {
		lb.Add(ctx, LeaderboardEntry{Game: "math", Name: "Uncle Lim", Score: 9})
	}

	stale, err := lb.Top(ctx, "math", "")
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(stale) != 1 {
		t.Fatalf("expected the pre-write board, got %+v", stale)
	}
	if _, ok, _ := cache.Get(ctx, "math", ""); ok {
		t.Fatal("board read before a concurrent write was left in the cache")
	}

	top, _ := lb.Top(ctx, "math", "")
	if len(top) != 2 || top[0].Name != "Uncle Lim" {
		t.Fatalf("expected the fresh board, got %+v", top)
	}
}

func TestLeaderboardBroadcastsSnapshot(t *testing.T) {
	sse := NewBroadcaster()
	lb := NewLeaderboard(NewMemoryStore(), nil, sse)
	ctx := context.Background()

	sub := sse.Subscribe(leaderboardTopic("memory"))
	defer sse.Unsubscribe(sub)

	if _, err := lb.Add(ctx, LeaderboardEntry{Game: "memory", Name: "Auntie", Score: 18}); err != nil {
		t.Fatalf("add: %v", err)
	}

	select {
	case msg := <-sub.ch:
		if !strings.Contains(msg, `"type":"leaderboard"`) || !strings.Contains(msg, "Auntie") {
			t.Fatalf("unexpected snapshot %s", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot broadcast")
	}
}

func TestLeaderboardDeleteAndClear(t *testing.T) {
	lb := NewLeaderboard(NewMemoryStore(), nil, nil)
	ctx := context.Background()

	a, _ := lb.Add(ctx, LeaderboardEntry{Game: "rhythm", Name: "A", Score: 100})
	lb.Add(ctx, LeaderboardEntry{Game: "rhythm", Name: "B", Score: 200})

	if err := lb.Delete(ctx, "rhythm", a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := lb.Delete(ctx, "rhythm", a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	top, _ := lb.Top(ctx, "rhythm", "")
	if len(top) != 1 || top[0].Name != "B" {
		t.Fatalf("unexpected board after delete %+v", top)
	}

	if err := lb.Clear(ctx, "rhythm"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if top, _ := lb.Top(ctx, "rhythm", ""); len(top) != 0 {
		t.Fatalf("expected empty board, got %d", len(top))
	}
}
