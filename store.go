package main

import (
	"context"
	"sort"
	"sync"
)

// Store persists leaderboards, player stats, daily challenges, achievement
// unlocks and quiz questions. Lookups of a single record return ErrNotFound
// when it does not exist.
type Store interface {
	AddScore(ctx context.Context, e LeaderboardEntry) error
	Scores(ctx context.Context, game string) ([]LeaderboardEntry, error)
	DeleteScore(ctx context.Context, game, id string) error
	ClearScores(ctx context.Context, game string) error

	PlayerStats(ctx context.Context, player string) (*PlayerStats, error)
	SavePlayerStats(ctx context.Context, s *PlayerStats) error
	ListPlayerStats(ctx context.Context) ([]*PlayerStats, error)

	ChallengeSet(ctx context.Context, player, day string) (*ChallengeSet, error)
	SaveChallengeSet(ctx context.Context, cs *ChallengeSet) error

	Unlocks(ctx context.Context, player string) ([]Unlock, error)
	// SaveUnlock records an achievement and reports whether it was new.
	SaveUnlock(ctx context.Context, u Unlock) (bool, error)

	QuizQuestions(ctx context.Context) ([]QuizQuestion, error)
	QuizQuestion(ctx context.Context, id string) (*QuizQuestion, error)
	SaveQuizQuestion(ctx context.Context, q QuizQuestion) error
	DeleteQuizQuestion(ctx context.Context, id string) error

	Ping(ctx context.Context) error
	Close() error
}

// MemoryStore holds everything in memory. Records are copied on the way in
// and out so callers never share state with the store.
type MemoryStore struct {
	mu         sync.RWMutex
	scores     map[string][]LeaderboardEntry
	stats      map[string]*PlayerStats
	challenges map[string]*ChallengeSet
	unlocks    map[string]map[string]Unlock
	questions  map[string]QuizQuestion
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		scores:     make(map[string][]LeaderboardEntry),
		stats:      make(map[string]*PlayerStats),
		challenges: make(map[string]*ChallengeSet),
		unlocks:    make(map[string]map[string]Unlock),
		questions:  make(map[string]QuizQuestion),
	}
}

func (s *MemoryStore) AddScore(_ context.Context, e LeaderboardEntry) error {
	s.mu.Lock()
	s.scores[e.Game] = append(s.scores[e.Game], e.clone())
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Scores(_ context.Context, game string) ([]LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]LeaderboardEntry, 0, len(s.scores[game]))
	for _, e := range s.scores[game] {
		list = append(list, e.clone())
	}
	return list, nil
}

func (s *MemoryStore) DeleteScore(_ context.Context, game, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.scores[game]
	for i, e := range list {
		if e.ID == id {
			s.scores[game] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) ClearScores(_ context.Context, game string) error {
	s.mu.Lock()
	delete(s.scores, game)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) PlayerStats(_ context.Context, player string) (*PlayerStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.stats[player]
	if !ok {
		return nil, ErrNotFound
	}
	return st.clone(), nil
}

func (s *MemoryStore) SavePlayerStats(_ context.Context, st *PlayerStats) error {
	s.mu.Lock()
	s.stats[st.Player] = st.clone()
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ListPlayerStats(_ context.Context) ([]*PlayerStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*PlayerStats, 0, len(s.stats))
	for _, st := range s.stats {
		list = append(list, st.clone())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Player < list[j].Player })
	return list, nil
}

func challengeKey(player, day string) string {
	return player + "\x00" + day
}

func (s *MemoryStore) ChallengeSet(_ context.Context, player, day string) (*ChallengeSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cs, ok := s.challenges[challengeKey(player, day)]
	if !ok {
		return nil, ErrNotFound
	}
	return cs.clone(), nil
}

func (s *MemoryStore) SaveChallengeSet(_ context.Context, cs *ChallengeSet) error {
	s.mu.Lock()
	s.challenges[challengeKey(cs.Player, cs.Day)] = cs.clone()
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Unlocks(_ context.Context, player string) ([]Unlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Unlock, 0, len(s.unlocks[player]))
	for _, u := range s.unlocks[player] {
		list = append(list, u)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UnlockedAt.Before(list[j].UnlockedAt) })
	return list, nil
}

func (s *MemoryStore) SaveUnlock(_ context.Context, u Unlock) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID, ok := s.unlocks[u.Player]
	if !ok {
		byID = make(map[string]Unlock)
		s.unlocks[u.Player] = byID
	}
	if _, exists := byID[u.AchievementID]; exists {
		return false, nil
	}
	byID[u.AchievementID] = u
	return true, nil
}

func (s *MemoryStore) QuizQuestions(_ context.Context) ([]QuizQuestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]QuizQuestion, 0, len(s.questions))
	for _, q := range s.questions {
		list = append(list, q)
	}
	sortQuestions(list)
	return list, nil
}

func (s *MemoryStore) QuizQuestion(_ context.Context, id string) (*QuizQuestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.questions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &q, nil
}

func (s *MemoryStore) SaveQuizQuestion(_ context.Context, q QuizQuestion) error {
	s.mu.Lock()
	s.questions[q.ID] = q
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) DeleteQuizQuestion(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.questions[id]; !ok {
		return ErrNotFound
	}
	delete(s.questions, id)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
