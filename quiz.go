package main

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// QuizQuestion is a free-text question managed from the admin panel.
type QuizQuestion struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer,omitempty"`
	Enabled  bool   `json:"enabled"`
	Order    int    `json:"order"`
}

func sortQuestions(list []QuizQuestion) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Order != list[j].Order {
			return list[i].Order < list[j].Order
		}
		return list[i].ID < list[j].ID
	})
}

var numberWords = map[string]float64{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19, "twenty": 20,
}

// normalizeAnswer lowercases, collapses whitespace and trims punctuation.
func normalizeAnswer(s string) string {
	s = strings.Join(strings.Fields(strings.ToLower(s)), " ")
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) && r != '-' && r != '.' || unicode.IsSpace(r)
	})
}

// answerNumber parses numeric answers like "1,000", "$5", "5.0" or "five".
func answerNumber(s string) (float64, bool) {
	if n, ok := numberWords[s]; ok {
		return n, true
	}
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ',', '$', ' ':
			return -1
		}
		return r
	}, s)
	cleaned = strings.TrimSuffix(cleaned, ".")
	if cleaned == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// answersMatch compares a player's answer with the expected one loosely.
func answersMatch(given, expected string) bool {
	g, e := normalizeAnswer(given), normalizeAnswer(expected)
	if g == "" {
		return false
	}
	if gn, ok := answerNumber(g); ok {
		if en, ok := answerNumber(e); ok {
			return gn == en
		}
	}
	return strings.TrimSuffix(g, ".") == strings.TrimSuffix(e, ".")
}

// Quiz serves questions to players and lets admins manage them.
type Quiz struct {
	store Store
}

func NewQuiz(store Store) *Quiz {
	return &Quiz{store: store}
}

// Questions returns questions in play order. Answers are stripped unless
// includeAll is set, in which case disabled questions are listed too.
func (q *Quiz) Questions(ctx context.Context, includeAll bool) ([]QuizQuestion, error) {
	all, err := q.store.QuizQuestions(ctx)
	if err != nil {
		return nil, err
	}
	if includeAll {
		return all, nil
	}

	list := make([]QuizQuestion, 0, len(all))
	for _, qq := range all {
		if !qq.Enabled {
			continue
		}
		qq.Answer = ""
		list = append(list, qq)
	}
	return list, nil
}

// Check grades an answer. Disabled questions count as missing.
func (q *Quiz) Check(ctx context.Context, id, answer string) (bool, string, error) {
	qq, err := q.store.QuizQuestion(ctx, id)
	if err != nil {
		return false, "", err
	}
	if !qq.Enabled {
		return false, "", ErrNotFound
	}
	return answersMatch(answer, qq.Answer), qq.Answer, nil
}

func validateQuestion(qq QuizQuestion) (QuizQuestion, error) {
	qq.Question = strings.TrimSpace(qq.Question)
	qq.Answer = strings.TrimSpace(qq.Answer)
	if qq.Question == "" {
		return qq, invalid("question", "required")
	}
	if qq.Answer == "" {
		return qq, invalid("answer", "required")
	}
	return qq, nil
}

// Create stores a new question with a generated ID.
func (q *Quiz) Create(ctx context.Context, qq QuizQuestion) (QuizQuestion, error) {
	qq, err := validateQuestion(qq)
	if err != nil {
		return qq, err
	}
	qq.ID = uuid.NewString()
	if err := q.store.SaveQuizQuestion(ctx, qq); err != nil {
		return qq, err
	}
	return qq, nil
}

// Update replaces an existing question.
func (q *Quiz) Update(ctx context.Context, qq QuizQuestion) (QuizQuestion, error) {
	qq, err := validateQuestion(qq)
	if err != nil {
		return qq, err
	}
	if _, err := q.store.QuizQuestion(ctx, qq.ID); err != nil {
		return qq, err
	}
	if err := q.store.SaveQuizQuestion(ctx, qq); err != nil {
		return qq, err
	}
	return qq, nil
}

func (q *Quiz) Delete(ctx context.Context, id string) error {
	return q.store.DeleteQuizQuestion(ctx, id)
}
