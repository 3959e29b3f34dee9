package main

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
)

// ErrWordsDoNotFit is returned when no layout holds every requested word.
var ErrWordsDoNotFit = errors.New("words do not fit in the grid")

const (
	placementAttempts = 100
	gridRestarts      = 50
	backtrackBudget   = 2_000_000
)

type direction struct {
	DRow int
	DCol int
}

var (
	dirRight     = direction{0, 1}
	dirDown      = direction{1, 0}
	dirDownRight = direction{1, 1}
	dirUpRight   = direction{-1, 1}
	dirLeft      = direction{0, -1}
	dirUp        = direction{-1, 0}
	dirUpLeft    = direction{-1, -1}
	dirDownLeft  = direction{1, -1}

	allDirections = []direction{dirRight, dirDown, dirDownRight, dirUpRight, dirLeft, dirUp, dirUpLeft, dirDownLeft}
)

type wordSearchLayout struct {
	size     int
	maxWords int
	dirs     []direction
}

func layoutFor(d Difficulty) wordSearchLayout {
	switch d {
	case Medium:
		return wordSearchLayout{size: 8, maxWords: 8, dirs: []direction{dirRight, dirDown, dirDownRight, dirUpRight}}
	case Hard:
		return wordSearchLayout{size: 10, maxWords: 10, dirs: allDirections}
	case Crazy:
		return wordSearchLayout{size: 10, maxWords: 12, dirs: allDirections}
	default:
		return wordSearchLayout{size: 6, maxWords: 6, dirs: []direction{dirRight, dirDown}}
	}
}

// Placement locates a word in a grid.
type Placement struct {
	Word string `json:"word"`
	Row  int    `json:"row"`
	Col  int    `json:"col"`
	DRow int    `json:"dRow"`
	DCol int    `json:"dCol"`
}

// WordSearch is a generated puzzle. Grid holds one string per row.
type WordSearch struct {
	Difficulty Difficulty  `json:"difficulty"`
	Size       int         `json:"size"`
	Grid       []string    `json:"grid"`
	Words      []string    `json:"words"`
	Placements []Placement `json:"placements"`
}

// normalizeWords upper-cases, strips non-letters and drops duplicates.
func normalizeWords(words []string) []string {
	seen := make(map[string]bool, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Map(func(r rune) rune {
			if r >= 'a' && r <= 'z' {
				return r - 'a' + 'A'
			}
			if r >= 'A' && r <= 'Z' {
				return r
			}
			return -1
		}, w)
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// GenerateWordSearch lays out words on a grid sized for the difficulty and
// fills the rest with random letters. Every word is placed or an error is
// returned; nothing is dropped.
func GenerateWordSearch(words []string, d Difficulty, rng *rand.Rand) (*WordSearch, error) {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	layout := layoutFor(d)

	words = normalizeWords(words)
	if len(words) == 0 {
		return nil, invalid("words", "at least one word is required")
	}
	if len(words) > layout.maxWords {
		return nil, invalid("words", fmt.Sprintf("at most %d words for %s", layout.maxWords, d))
	}
	for _, w := range words {
		if len(w) > layout.size {
			return nil, invalid("words", fmt.Sprintf("%q is longer than the %dx%d grid", w, layout.size, layout.size))
		}
	}

	// Longest first leaves the awkward words the most room.
	order := append([]string(nil), words...)
	sort.SliceStable(order, func(i, j int) bool { return len(order[i]) > len(order[j]) })

	var (
		grid       [][]byte
		placements []Placement
		ok         bool
	)
	for range gridRestarts {
		grid, placements, ok = placeRandomly(order, layout, rng)
		if ok {
			break
		}
	}
	if !ok {
		grid = newGrid(layout.size)
		placements = nil
		budget := backtrackBudget
		if !backtrack(grid, order, layout.dirs, &placements, &budget) {
			return nil, ErrWordsDoNotFit
		}
	}

	for _, row := range grid {
		for c := range row {
			if row[c] == 0 {
				row[c] = byte('A' + rng.IntN(26))
			}
		}
	}

	ws := &WordSearch{
		Difficulty: d,
		Size:       layout.size,
		Grid:       make([]string, layout.size),
		Words:      words,
		Placements: placements,
	}
	for i, row := range grid {
		ws.Grid[i] = string(row)
	}
	return ws, nil
}

func newGrid(size int) [][]byte {
	grid := make([][]byte, size)
	for i := range grid {
		grid[i] = make([]byte, size)
	}
	return grid
}

// startRange returns the inclusive range of start indexes that keep a word of
// length n inside [0,size) when moving by step.
func startRange(size, n, step int) (int, int) {
	switch {
	case step > 0:
		return 0, size - n
	case step < 0:
		return n - 1, size - 1
	default:
		return 0, size - 1
	}
}

func placeRandomly(words []string, layout wordSearchLayout, rng *rand.Rand) ([][]byte, []Placement, bool) {
	grid := newGrid(layout.size)
	placements := make([]Placement, 0, len(words))

	for _, w := range words {
		placed := false
		for range placementAttempts {
			dir := layout.dirs[rng.IntN(len(layout.dirs))]
			rLo, rHi := startRange(layout.size, len(w), dir.DRow)
			cLo, cHi := startRange(layout.size, len(w), dir.DCol)
			if rHi < rLo || cHi < cLo {
				continue
			}
			r := rLo + rng.IntN(rHi-rLo+1)
			c := cLo + rng.IntN(cHi-cLo+1)
			if !fits(grid, w, r, c, dir) {
				continue
			}
			writeWord(grid, w, r, c, dir)
			placements = append(placements, Placement{Word: w, Row: r, Col: c, DRow: dir.DRow, DCol: dir.DCol})
			placed = true
			break
		}
		if !placed {
			return nil, nil, false
		}
	}
	return grid, placements, true
}

func fits(grid [][]byte, w string, r, c int, dir direction) bool {
	size := len(grid)
	for i := range len(w) {
		rr, cc := r+i*dir.DRow, c+i*dir.DCol
		if rr < 0 || rr >= size || cc < 0 || cc >= size {
			return false
		}
		if cell := grid[rr][cc]; cell != 0 && cell != w[i] {
			return false
		}
	}
	return true
}

// writeWord places w and returns the cells that were empty before, for undo.
func writeWord(grid [][]byte, w string, r, c int, dir direction) [][2]int {
	var written [][2]int
	for i := range len(w) {
		rr, cc := r+i*dir.DRow, c+i*dir.DCol
		if grid[rr][cc] == 0 {
			grid[rr][cc] = w[i]
			written = append(written, [2]int{rr, cc})
		}
	}
	return written
}

// backtrack tries every position and direction in order until all words fit
// or the step budget runs out.
func backtrack(grid [][]byte, words []string, dirs []direction, placements *[]Placement, budget *int) bool {
	if len(words) == 0 {
		return true
	}
	w := words[0]
	size := len(grid)
	for r := range size {
		for c := range size {
			for _, dir := range dirs {
				*budget--
				if *budget <= 0 {
					return false
				}
				if !fits(grid, w, r, c, dir) {
					continue
				}
				written := writeWord(grid, w, r, c, dir)
				*placements = append(*placements, Placement{Word: w, Row: r, Col: c, DRow: dir.DRow, DCol: dir.DCol})
				if backtrack(grid, words[1:], dirs, placements, budget) {
					return true
				}
				*placements = (*placements)[:len(*placements)-1]
				for _, cell := range written {
					grid[cell[0]][cell[1]] = 0
				}
			}
		}
	}
	return false
}

// FindWord scans all eight directions from every cell for word.
func FindWord(grid []string, word string) (Placement, bool) {
	word = strings.ToUpper(word)
	if word == "" {
		return Placement{}, false
	}
	for r := range grid {
		for c := range len(grid[r]) {
			if grid[r][c] != word[0] {
				continue
			}
			for _, dir := range allDirections {
				if matchAt(grid, word, r, c, dir) {
					return Placement{Word: word, Row: r, Col: c, DRow: dir.DRow, DCol: dir.DCol}, true
				}
			}
		}
	}
	return Placement{}, false
}

func matchAt(grid []string, word string, r, c int, dir direction) bool {
	for i := range len(word) {
		rr, cc := r+i*dir.DRow, c+i*dir.DCol
		if rr < 0 || rr >= len(grid) || cc < 0 || cc >= len(grid[rr]) {
			return false
		}
		if grid[rr][cc] != word[i] {
			return false
		}
	}
	return true
}
