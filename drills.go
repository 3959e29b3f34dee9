package main

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
)

const mathDrillSize = 10

// MathProblem is one arithmetic question.
type MathProblem struct {
	Prompt string `json:"prompt"`
	Answer int    `json:"answer"`
}

// SortingSet is a number-sorting puzzle; Answer is the ascending order.
type SortingSet struct {
	Difficulty Difficulty `json:"difficulty"`
	Numbers    []int      `json:"numbers"`
	Answer     []int      `json:"answer,omitempty"`
}

// ColorSequence is a sequence to repeat back.
type ColorSequence struct {
	Difficulty Difficulty `json:"difficulty"`
	Palette    []string   `json:"palette"`
	Sequence   []string   `json:"sequence"`
}

var colorPalette = []string{"red", "blue", "green", "yellow", "purple", "orange", "pink", "brown"}

// Drills generates practice content. The random source is shared, so access
// goes through mu.
type Drills struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewDrills(rng *rand.Rand) *Drills {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Drills{rng: rng}
}

// Math returns a set of arithmetic problems for d.
func (dr *Drills) Math(d Difficulty) []MathProblem {
	dr.mu.Lock()
	defer dr.mu.Unlock()

	out := make([]MathProblem, 0, mathDrillSize)
	for range mathDrillSize {
		out = append(out, dr.mathProblem(d))
	}
	return out
}

func (dr *Drills) between(lo, hi int) int {
	return lo + dr.rng.IntN(hi-lo+1)
}

func (dr *Drills) mathProblem(d Difficulty) MathProblem {
	switch d {
	case Medium:
		switch dr.rng.IntN(3) {
		case 0:
			a := dr.between(1, 49)
			b := dr.between(1, 50-a)
			return MathProblem{Prompt: fmt.Sprintf("%d + %d", a, b), Answer: a + b}
		case 1:
			a := dr.between(2, 50)
			b := dr.between(1, a)
			return MathProblem{Prompt: fmt.Sprintf("%d - %d", a, b), Answer: a - b}
		default:
			a, b := dr.between(2, 10), dr.between(2, 10)
			return MathProblem{Prompt: fmt.Sprintf("%d × %d", a, b), Answer: a * b}
		}
	case Hard:
		return dr.hardProblem()
	case Crazy:
		if dr.rng.IntN(2) == 0 {
			return dr.hardProblem()
		}
		a, b, c := dr.between(2, 12), dr.between(2, 12), dr.between(1, 50)
		return MathProblem{Prompt: fmt.Sprintf("%d × %d + %d", a, b, c), Answer: a*b + c}
	default:
		a := dr.between(1, 10)
		if dr.rng.IntN(2) == 0 {
			b := dr.between(0, 10-a)
			return MathProblem{Prompt: fmt.Sprintf("%d + %d", a, b), Answer: a + b}
		}
		b := dr.between(0, a)
		return MathProblem{Prompt: fmt.Sprintf("%d - %d", a, b), Answer: a - b}
	}
}

func (dr *Drills) hardProblem() MathProblem {
	switch dr.rng.IntN(4) {
	case 0:
		a := dr.between(10, 90)
		b := dr.between(10, 100-a)
		return MathProblem{Prompt: fmt.Sprintf("%d + %d", a, b), Answer: a + b}
	case 1:
		a := dr.between(20, 100)
		b := dr.between(1, a)
		return MathProblem{Prompt: fmt.Sprintf("%d - %d", a, b), Answer: a - b}
	case 2:
		a := dr.between(3, 12)
		b := dr.between(3, 100/a)
		return MathProblem{Prompt: fmt.Sprintf("%d × %d", a, b), Answer: a * b}
	default:
		b := dr.between(2, 10)
		q := dr.between(2, 10)
		return MathProblem{Prompt: fmt.Sprintf("%d ÷ %d", b*q, b), Answer: q}
	}
}

func sortingLayout(d Difficulty) (count, maxValue int) {
	switch d {
	case Medium:
		return 7, 50
	case Hard:
		return 9, 100
	case Crazy:
		return 12, 999
	default:
		return 5, 20
	}
}

// Sorting returns distinct shuffled numbers to put in ascending order.
func (dr *Drills) Sorting(d Difficulty) SortingSet {
	dr.mu.Lock()
	defer dr.mu.Unlock()

	count, maxValue := sortingLayout(d)
	perm := dr.rng.Perm(maxValue)
	numbers := make([]int, count)
	for i := range count {
		numbers[i] = perm[i] + 1
	}
	answer := slices.Clone(numbers)
	slices.Sort(answer)
	return SortingSet{Difficulty: d, Numbers: numbers, Answer: answer}
}

// CheckSorting reports whether ordering is numbers sorted ascending.
func CheckSorting(numbers, ordering []int) bool {
	if len(numbers) != len(ordering) {
		return false
	}
	want := slices.Clone(numbers)
	slices.Sort(want)
	return slices.Equal(want, ordering)
}

func paletteSize(d Difficulty) int {
	switch d {
	case Medium:
		return 5
	case Hard:
		return 6
	case Crazy:
		return 8
	default:
		return 4
	}
}

// Sequence returns a color sequence of length n drawn from the difficulty's palette.
func (dr *Drills) Sequence(d Difficulty, n int) ColorSequence {
	dr.mu.Lock()
	defer dr.mu.Unlock()

	n = min(max(n, 1), 30)
	palette := colorPalette[:paletteSize(d)]
	seq := make([]string, n)
	for i := range seq {
		seq[i] = palette[dr.rng.IntN(len(palette))]
	}
	return ColorSequence{Difficulty: d, Palette: slices.Clone(palette), Sequence: seq}
}
