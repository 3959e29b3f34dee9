package main

import (
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"testing"
)

// evalPrompt evaluates the small expressions math drills produce.
func evalPrompt(t *testing.T, prompt string) int {
	t.Helper()
	f := strings.Fields(prompt)
	num := func(s string) int {
		n, err := strconv.Atoi(s)
		if err != nil {
			t.Fatalf("bad operand %q in %q", s, prompt)
		}
		return n
	}
	apply := func(a int, op string, b int) int {
		switch op {
		case "+":
			return a + b
		case "-":
			return a - b
		case "×":
			return a * b
		case "÷":
			if a%b != 0 {
				t.Fatalf("inexact division in %q", prompt)
			}
			return a / b
		}
		t.Fatalf("unknown operator %q in %q", op, prompt)
		return 0
	}
	switch len(f) {
	case 3:
		return apply(num(f[0]), f[1], num(f[2]))
	case 5:
		return apply(apply(num(f[0]), f[1], num(f[2])), f[3], num(f[4]))
	}
	t.Fatalf("unexpected prompt %q", prompt)
	return 0
}

// mathLimit is the largest answer a difficulty may produce for prompt.
func mathLimit(d Difficulty, prompt string) int {
	switch d {
	case Easy:
		return 10
	case Medium:
		if strings.Contains(prompt, "×") {
			return 100
		}
		return 50
	case Hard:
		return 100
	default:
		if strings.Count(prompt, " ") > 2 {
			return 12*12 + 50
		}
		return 100
	}
}

func TestDrillsMathAnswers(t *testing.T) {
	dr := NewDrills(rand.New(rand.NewPCG(5, 5)))
	for _, d := range []Difficulty{Easy, Medium, Hard, Crazy} {
		for range 20 {
			set := dr.Math(d)
			if len(set) != mathDrillSize {
				t.Fatalf("%s: expected %d problems, got %d", d, mathDrillSize, len(set))
			}
			for _, p := range set {
				if got := evalPrompt(t, p.Prompt); got != p.Answer {
					t.Fatalf("%s: %q answered %d, want %d", d, p.Prompt, p.Answer, got)
				}
				if p.Answer < 0 {
					t.Fatalf("%s: negative answer for %q", d, p.Prompt)
				}
				if limit := mathLimit(d, p.Prompt); p.Answer > limit {
					t.Fatalf("%s: answer %d above %d for %q", d, p.Answer, limit, p.Prompt)
				}
			}
		}
	}
}

func TestDrillsSorting(t *testing.T) {
	dr := NewDrills(rand.New(rand.NewPCG(6, 6)))
	for _, d := range []Difficulty{Easy, Medium, Hard, Crazy} {
		set := dr.Sorting(d)
		count, maxValue := sortingLayout(d)
		if len(set.Numbers) != count {
			t.Fatalf("%s: expected %d numbers, got %d", d, count, len(set.Numbers))
		}
		seen := make(map[int]bool)
		for _, n := range set.Numbers {
			if n < 1 || n > maxValue || seen[n] {
				t.Fatalf("%s: bad or repeated number %d", d, n)
			}
			seen[n] = true
		}
		if !slices.IsSorted(set.Answer) {
			t.Fatalf("%s: answer not sorted %v", d, set.Answer)
		}
		if !CheckSorting(set.Numbers, set.Answer) {
			t.Fatalf("%s: answer rejected", d)
		}
	}
}

func TestCheckSorting(t *testing.T) {
	numbers := []int{7, 2, 9}
	tests := []struct {
		ordering []int
		want     bool
	}{
		{[]int{2, 7, 9}, true},
		{[]int{9, 7, 2}, false},
		{[]int{2, 7}, false},
		{[]int{2, 7, 8}, false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := CheckSorting(numbers, tt.ordering); got != tt.want {
			t.Fatalf("CheckSorting(%v) = %v, want %v", tt.ordering, got, tt.want)
		}
	}
}

func TestDrillsSequence(t *testing.T) {
	dr := NewDrills(nil)

	seq := dr.Sequence(Medium, 6)
	if len(seq.Sequence) != 6 || len(seq.Palette) != 5 {
		t.Fatalf("unexpected medium sequence %+v", seq)
	}
	for _, c := range seq.Sequence {
		if !slices.Contains(seq.Palette, c) {
			t.Fatalf("color %s not in palette", c)
		}
	}

	if got := len(dr.Sequence(Easy, 0).Sequence); got != 1 {
		t.Fatalf("expected length clamped to 1, got %d", got)
	}
	if got := len(dr.Sequence(Crazy, 500).Sequence); got != 30 {
		t.Fatalf("expected length clamped to 30, got %d", got)
	}
}
