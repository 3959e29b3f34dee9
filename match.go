package main

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MatchKind is a board game played against the computer.
type MatchKind string

const (
	KindTicTacToe MatchKind = "tic-tac-toe"
	KindConnect4  MatchKind = "connect-4"

	matchRetention = time.Hour
)

// Move is one placed mark.
type Move struct {
	Mark string    `json:"mark"`
	Row  int       `json:"row"`
	Col  int       `json:"col"`
	At   time.Time `json:"at"`
}

// MatchView is the JSON snapshot of a match.
type MatchView struct {
	ID           string     `json:"id"`
	Kind         MatchKind  `json:"kind"`
	Difficulty   Difficulty `json:"difficulty"`
	Player       string     `json:"player"`
	PlayerMark   string     `json:"playerMark"`
	ComputerMark string     `json:"computerMark"`
	Cells        [][]string `json:"cells"`
	Turn         string     `json:"turn,omitempty"`
	Winner       string     `json:"winner,omitempty"`
	Moves        []Move     `json:"moves"`
	CreatedAt    time.Time  `json:"createdAt"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty"`
}

// Match is a single game against the computer. The player always opens.
type Match struct {
	mu         sync.Mutex
	id         string
	kind       MatchKind
	difficulty Difficulty
	player     string
	playerMark string
	cpuMark    string
	ttt        [9]string
	c4         Connect4Board
	turn       string
	winner     string
	moves      []Move
	createdAt  time.Time
	finishedAt *time.Time

	// pick chooses the computer's cell; col only for connect-4.
	pick func(m *Match, rng *rand.Rand) (row, col int)
}

func (m *Match) ID() string { return m.id }

// Play applies the player's move, lets the computer answer and returns the
// resulting snapshot. For connect-4 only col is used.
func (m *Match) Play(row, col int, rng *rand.Rand, now time.Time) (MatchView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.winner != "" {
		return MatchView{}, ErrMatchOver
	}
	if m.turn != m.playerMark {
		return MatchView{}, ErrNotYourTurn
	}
	if err := m.place(m.playerMark, row, col, now); err != nil {
		return MatchView{}, err
	}
	if m.settle(now) {
		return m.view(), nil
	}

	m.turn = m.cpuMark
	row, col = m.pick(m, rng)
	if err := m.place(m.cpuMark, row, col, now); err != nil {
		// Hand the turn back so the board stays playable.
		m.turn = m.playerMark
		return MatchView{}, fmt.Errorf("computer move %d,%d: %v", row, col, err)
	}
	if !m.settle(now) {
		m.turn = m.playerMark
	}
	return m.view(), nil
}

func computerMove(m *Match, rng *rand.Rand) (row, col int) {
	if m.kind == KindConnect4 {
		return 0, connect4Move(m.c4, m.cpuMark, m.playerMark, m.difficulty, rng)
	}
	i := ticTacToeMove(m.ttt, m.cpuMark, m.playerMark, m.difficulty, rng)
	return i / 3, i % 3
}

func (m *Match) place(mark string, row, col int, now time.Time) error {
	switch m.kind {
	case KindTicTacToe:
		if row < 0 || row > 2 || col < 0 || col > 2 {
			return invalid("cell", "out of range")
		}
		i := row*3 + col
		if m.ttt[i] != "" {
			return ErrCellTaken
		}
		m.ttt[i] = mark
	case KindConnect4:
		r, err := Connect4Drop(&m.c4, col, mark)
		if err != nil {
			return err
		}
		row = r
	}
	m.moves = append(m.moves, Move{Mark: mark, Row: row, Col: col, At: now})
	return nil
}

// settle records a winner or draw and reports whether the match ended.
func (m *Match) settle(now time.Time) bool {
	var w string
	switch m.kind {
	case KindTicTacToe:
		w = TicTacToeWinner(m.ttt)
	case KindConnect4:
		w = Connect4Winner(m.c4)
	}
	if w == "" {
		return false
	}
	m.winner = w
	m.turn = ""
	m.finishedAt = &now
	return true
}

// PlayerWon reports whether the match ended with the player's line.
func (m *Match) PlayerWon() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.winner == m.playerMark
}

// View returns a copy of the current state.
func (m *Match) View() MatchView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view()
}

func (m *Match) view() MatchView {
	v := MatchView{
		ID:           m.id,
		Kind:         m.kind,
		Difficulty:   m.difficulty,
		Player:       m.player,
		PlayerMark:   m.playerMark,
		ComputerMark: m.cpuMark,
		Turn:         m.turn,
		Winner:       m.winner,
		Moves:        append([]Move(nil), m.moves...),
		CreatedAt:    m.createdAt,
		FinishedAt:   m.finishedAt,
	}
	switch m.kind {
	case KindTicTacToe:
		v.Cells = make([][]string, 3)
		for r := range 3 {
			v.Cells[r] = append([]string(nil), m.ttt[r*3:r*3+3]...)
		}
	case KindConnect4:
		v.Cells = make([][]string, connect4Rows)
		for r := range connect4Rows {
			v.Cells[r] = append([]string(nil), m.c4[r][:]...)
		}
	}
	return v
}

// Matches holds live matches in memory.
type Matches struct {
	mu      sync.Mutex
	matches map[string]*Match
	rngMu   sync.Mutex
	rng     *rand.Rand
	now     func() time.Time
}

func NewMatches(rng *rand.Rand) *Matches {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Matches{
		matches: make(map[string]*Match),
		rng:     rng,
		now:     time.Now,
	}
}

// Create starts a match for player.
func (ms *Matches) Create(kind MatchKind, d Difficulty, player string) (*Match, error) {
	player = sanitizeName(player)
	if player == "" {
		return nil, invalid("player", "required")
	}
	m := &Match{
		id:         uuid.NewString(),
		kind:       kind,
		difficulty: d,
		player:     player,
		createdAt:  ms.now().UTC(),
		pick:       computerMove,
	}
	switch kind {
	case KindTicTacToe:
		m.playerMark, m.cpuMark = "X", "O"
	case KindConnect4:
		m.playerMark, m.cpuMark = "R", "Y"
	default:
		return nil, invalid("kind", "must be tic-tac-toe or connect-4")
	}
	m.turn = m.playerMark

	ms.mu.Lock()
	ms.prune(m.createdAt)
	ms.matches[m.id] = m
	ms.mu.Unlock()
	return m, nil
}

// Get returns a match by ID, or nil if not found.
func (ms *Matches) Get(id string) *Match {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.matches[id]
}

// Play forwards a move to the match using the shared random source.
func (ms *Matches) Play(m *Match, row, col int) (MatchView, error) {
	ms.rngMu.Lock()
	defer ms.rngMu.Unlock()
	return m.Play(row, col, ms.rng, ms.now().UTC())
}

// prune drops matches older than matchRetention. Caller holds ms.mu.
func (ms *Matches) prune(now time.Time) {
	for id, m := range ms.matches {
		if now.Sub(m.createdAt) > matchRetention {
			delete(ms.matches, id)
		}
	}
}
