package main

import (
	"errors"
	"math/rand/v2"
)

var (
	ErrColumnFull  = errors.New("column is full")
	ErrCellTaken   = errors.New("cell is already taken")
	ErrMatchOver   = errors.New("match is over")
	ErrNotYourTurn = errors.New("not your turn")
)

const (
	outcomeDraw = "draw"

	connect4Rows = 6
	connect4Cols = 7
)

// ticTacToeLines are the eight winning triples of a 3x3 board indexed row-major.
var ticTacToeLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// TicTacToeWinner returns the winning mark, "draw" for a full board without a
// line, or "" while the game is still open.
func TicTacToeWinner(b [9]string) string {
	for _, l := range ticTacToeLines {
		if b[l[0]] != "" && b[l[0]] == b[l[1]] && b[l[1]] == b[l[2]] {
			return b[l[0]]
		}
	}
	for _, c := range b {
		if c == "" {
			return ""
		}
	}
	return outcomeDraw
}

// Connect4Board is indexed [row][col] with row 0 at the top.
type Connect4Board [connect4Rows][connect4Cols]string

// Connect4Winner scans every horizontal, vertical and diagonal run of four.
func Connect4Winner(b Connect4Board) string {
	steps := [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}
	full := true
	for r := range connect4Rows {
		for c := range connect4Cols {
			mark := b[r][c]
			if mark == "" {
				full = false
				continue
			}
			for _, s := range steps {
				endR, endC := r+3*s[0], c+3*s[1]
				if endR < 0 || endR >= connect4Rows || endC < 0 || endC >= connect4Cols {
					continue
				}
				if b[r+s[0]][c+s[1]] == mark && b[r+2*s[0]][c+2*s[1]] == mark && b[endR][endC] == mark {
					return mark
				}
			}
		}
	}
	if full {
		return outcomeDraw
	}
	return ""
}

// Connect4Drop lets mark fall into col and returns the row it lands on.
func Connect4Drop(b *Connect4Board, col int, mark string) (int, error) {
	if col < 0 || col >= connect4Cols {
		return 0, invalid("column", "out of range")
	}
	for r := connect4Rows - 1; r >= 0; r-- {
		if b[r][col] == "" {
			b[r][col] = mark
			return r, nil
		}
	}
	return 0, ErrColumnFull
}

// ticTacToeMove picks the computer's cell. Easy plays at random, medium takes
// wins and blocks, hard and crazy also prefer centre then corners.
func ticTacToeMove(b [9]string, me, opp string, d Difficulty, rng *rand.Rand) int {
	var open []int
	for i, c := range b {
		if c == "" {
			open = append(open, i)
		}
	}
	if len(open) == 0 {
		return -1
	}
	if d != Easy {
		for _, mark := range []string{me, opp} {
			for _, i := range open {
				b[i] = mark
				won := TicTacToeWinner(b) == mark
				b[i] = ""
				if won {
					return i
				}
			}
		}
	}
	if d == Hard || d == Crazy {
		for _, i := range []int{4, 0, 2, 6, 8} {
			if b[i] == "" {
				return i
			}
		}
	}
	return open[rng.IntN(len(open))]
}

// connect4Move picks the computer's column with the same difficulty ladder,
// preferring centre columns on hard and crazy.
func connect4Move(b Connect4Board, me, opp string, d Difficulty, rng *rand.Rand) int {
	var open []int
	for c := range connect4Cols {
		if b[0][c] == "" {
			open = append(open, c)
		}
	}
	if len(open) == 0 {
		return -1
	}
	if d != Easy {
		for _, mark := range []string{me, opp} {
			for _, c := range open {
				trial := b
				if _, err := Connect4Drop(&trial, c, mark); err != nil {
					continue
				}
				if Connect4Winner(trial) == mark {
					return c
				}
			}
		}
	}
	if d == Hard || d == Crazy {
		for _, c := range []int{3, 2, 4, 1, 5, 0, 6} {
			if b[0][c] == "" {
				return c
			}
		}
	}
	return open[rng.IntN(len(open))]
}
