package main

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	colorAccent = lipgloss.Color("205")
	colorGood   = lipgloss.Color("42")
	colorBad    = lipgloss.Color("196")
	colorMuted  = lipgloss.Color("244")

	styleTitle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	styleGood   = lipgloss.NewStyle().Bold(true).Foreground(colorGood)
	styleBad    = lipgloss.NewStyle().Bold(true).Foreground(colorBad)
	styleMuted  = lipgloss.NewStyle().Foreground(colorMuted)
	styleLetter = lipgloss.NewStyle().Bold(true).Foreground(colorGood)
	styleGrid   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func newWordSearchCmd() *cobra.Command {
	var (
		difficulty string
		seed       uint64
		reveal     bool
	)
	cmd := &cobra.Command{
		Use:   "wordsearch WORD...",
		Short: "Generate a word search puzzle in the terminal",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			d, err := parseDifficulty(difficulty)
			if err != nil {
				return err
			}
			if seed == 0 {
				seed = rand.Uint64()
			}
			ws, err := GenerateWordSearch(args, d, rand.New(rand.NewPCG(seed, seed)))
			if err != nil {
				return err
			}
			fmt.Println(renderWordSearch(ws, reveal))
			fmt.Println(styleMuted.Render(fmt.Sprintf("seed %d", seed)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&difficulty, "difficulty", "d", "easy", "easy, medium, hard or crazy")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (0 picks one)")
	cmd.Flags().BoolVar(&reveal, "reveal", false, "highlight placed words")
	return cmd
}

// renderWordSearch draws the grid with the word list underneath. With reveal
// set, cells covered by a placement are highlighted.
func renderWordSearch(ws *WordSearch, reveal bool) string {
	placed := make(map[[2]int]bool)
	if reveal {
		for _, p := range ws.Placements {
			for i := range len(p.Word) {
				placed[[2]int{p.Row + i*p.DRow, p.Col + i*p.DCol}] = true
			}
		}
	}

	var grid strings.Builder
	for r, row := range ws.Grid {
		if r > 0 {
			grid.WriteByte('\n')
		}
		for c := range len(row) {
			if c > 0 {
				grid.WriteByte(' ')
			}
			cell := string(row[c])
			if placed[[2]int{r, c}] {
				cell = styleLetter.Render(cell)
			}
			grid.WriteString(cell)
		}
	}

	title := styleTitle.Render(fmt.Sprintf("Word search · %s · %d×%d", ws.Difficulty, ws.Size, ws.Size))
	words := styleMuted.Render(strings.Join(ws.Words, "  "))
	return lipgloss.JoinVertical(lipgloss.Left, title, styleGrid.Render(grid.String()), words)
}
