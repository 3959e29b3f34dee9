package main

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"
)

func TestMatchCreateValidates(t *testing.T) {
	ms := NewMatches(rand.New(rand.NewPCG(1, 1)))

	if _, err := ms.Create("chess", Easy, "Ah Ma"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
	if _, err := ms.Create(KindTicTacToe, Easy, "   "); err == nil {
		t.Fatal("expected error for empty player")
	}

	m, err := ms.Create(KindConnect4, Hard, "Ah Ma")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	v := m.View()
	if v.PlayerMark != "R" || v.ComputerMark != "Y" || v.Turn != "R" {
		t.Fatalf("unexpected marks %+v", v)
	}
	if len(v.Cells) != connect4Rows || len(v.Cells[0]) != connect4Cols {
		t.Fatalf("expected %dx%d cells", connect4Rows, connect4Cols)
	}
	if ms.Get(m.ID()) != m {
		t.Fatal("match not retrievable by ID")
	}
	if ms.Get("missing") != nil {
		t.Fatal("expected nil for unknown match")
	}
}

func TestMatchTicTacToeComputerAnswers(t *testing.T) {
	ms := NewMatches(rand.New(rand.NewPCG(3, 3)))
	m, _ := ms.Create(KindTicTacToe, Hard, "Uncle Lim")

	v, err := ms.Play(m, 0, 0)
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if len(v.Moves) != 2 {
		t.Fatalf("expected player and computer moves, got %d", len(v.Moves))
	}
	if v.Cells[1][1] != "O" {
		t.Fatalf("hard computer should take the centre, got %v", v.Cells)
	}
	if v.Turn != "X" {
		t.Fatalf("expected player's turn, got %q", v.Turn)
	}

	if _, err := ms.Play(m, 0, 0); !errors.Is(err, ErrCellTaken) {
		t.Fatalf("expected ErrCellTaken, got %v", err)
	}
	if _, err := ms.Play(m, 3, 0); err == nil {
		t.Fatal("expected error for out of range cell")
	}
}

func TestMatchPlaysToCompletion(t *testing.T) {
	for _, kind := range []MatchKind{KindTicTacToe, KindConnect4} {
		t.Run(string(kind), func(t *testing.T) {
			rng := rand.New(rand.NewPCG(9, 9))
			ms := NewMatches(rng)
			m, _ := ms.Create(kind, Easy, "Ah Ma")

			var v MatchView
			for moves := 0; ; moves++ {
				if moves > 500 {
					t.Fatal("match never finished")
				}
				row, col := rng.IntN(3), rng.IntN(3)
				if kind == KindConnect4 {
					col = rng.IntN(connect4Cols)
				}
				var err error
				v, err = ms.Play(m, row, col)
				if errors.Is(err, ErrCellTaken) || errors.Is(err, ErrColumnFull) {
					continue
				}
				if err != nil {
					t.Fatalf("play: %v", err)
				}
				if v.Winner != "" {
					break
				}
			}

			if v.FinishedAt == nil || v.Turn != "" {
				t.Fatalf("finished match should have no turn and a finish time: %+v", v)
			}
			if v.Winner != v.PlayerMark && v.Winner != v.ComputerMark && v.Winner != outcomeDraw {
				t.Fatalf("unexpected winner %q", v.Winner)
			}
			if m.PlayerWon() != (v.Winner == v.PlayerMark) {
				t.Fatal("PlayerWon disagrees with the view")
			}
			if _, err := ms.Play(m, 0, 0); !errors.Is(err, ErrMatchOver) {
				t.Fatalf("expected ErrMatchOver, got %v", err)
			}
		})
	}
}

func TestMatchRejectsBadComputerMove(t *testing.T) {
	ms := NewMatches(rand.New(rand.NewPCG(5, 5)))
	m, _ := ms.Create(KindTicTacToe, Easy, "Ah Ma")
	// Always answer on the centre, which the player takes first.
	m.pick = func(*Match, *rand.Rand) (int, int) { return 1, 1 }

	_, err := m.Play(1, 1, rand.New(rand.NewPCG(1, 2)), time.Now())
	if err == nil {
		t.Fatal("expected an error for an occupied computer cell")
	}
	if errors.Is(err, ErrCellTaken) || statusFor(err) != 500 {
		t.Fatalf("computer failure should be internal, got %v", err)
	}
	v := m.View()
	if v.Turn != "X" || len(v.Moves) != 1 {
		t.Fatalf("expected the player's move only and the turn handed back, got %+v", v)
	}
}
