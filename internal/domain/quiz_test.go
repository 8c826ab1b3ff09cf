package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestIsAvailable(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	before := now.Add(-time.Hour)
	after := now.Add(time.Hour)

	tests := []struct {
		name string
		quiz Quiz
		want bool
	}{
		{"active no window", Quiz{IsActive: true}, true},
		{"inactive", Quiz{IsActive: false}, false},
		{"started", Quiz{IsActive: true, StartDate: &before}, true},
		{"not started", Quiz{IsActive: true, StartDate: &after}, false},
		{"ended", Quiz{IsActive: true, EndDate: &before}, false},
		{"inside window", Quiz{IsActive: true, StartDate: &before, EndDate: &after}, true},
		{"start boundary", Quiz{IsActive: true, StartDate: &now}, true},
		{"end boundary", Quiz{IsActive: true, EndDate: &now}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.quiz.IsAvailable(now); got != tt.want {
				t.Errorf("IsAvailable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEligibility(t *testing.T) {
	now := time.Now()
	retake := Quiz{IsActive: true, AllowRetake: true, MaxAttempts: 2}

	if err := retake.Eligibility(now, 1); err != nil {
		t.Fatalf("expected eligible, got %v", err)
	}
	if err := retake.Eligibility(now, 2); !errors.Is(err, ErrMaxAttemptsReached) {
		t.Fatalf("expected max attempts, got %v", err)
	}
	if !(Quiz{IsActive: true, AllowRetake: true}).CanBeAttemptedBy(now, 50) {
		t.Fatalf("expected unlimited attempts when max attempts unset")
	}

	once := Quiz{IsActive: true, AllowRetake: false, MaxAttempts: 5}
	if err := once.Eligibility(now, 1); !errors.Is(err, ErrMaxAttemptsReached) {
		t.Fatalf("expected single attempt without retakes, got %v", err)
	}

	inactive := Quiz{IsActive: false, AllowRetake: true}
	if err := inactive.Eligibility(now, 0); !errors.Is(err, ErrQuizNotAvailable) {
		t.Fatalf("expected not available, got %v", err)
	}
}

func TestNextQuestionOrder(t *testing.T) {
	if got := (Quiz{}).NextQuestionOrder(); got != 1 {
		t.Fatalf("expected 1 for empty quiz, got %d", got)
	}
	q := Quiz{Questions: []Question{{Order: 3}, {Order: 7}, {Order: 2}}}
	if got := q.NextQuestionOrder(); got != 8 {
		t.Fatalf("expected 8, got %d", got)
	}
}

func TestQuizTotals(t *testing.T) {
	q := Quiz{Questions: []Question{
		{ID: "a", Type: TypeSingleChoice, Points: 5},
		{ID: "b", Type: TypeMultiTrueFalse, Points: 9, SubStatements: []SubStatement{{Points: 2}, {Points: 3}}},
		{ID: "c", Type: TypeDescriptive},
	}}
	if got := q.TotalQuestions(); got != 3 {
		t.Fatalf("expected 3 questions, got %d", got)
	}
	if got := q.TotalPoints(); got != 11 {
		t.Fatalf("expected 11 points, got %v", got)
	}
}

func TestDecodeAnswersRejectsWrongShape(t *testing.T) {
	q := Quiz{Questions: []Question{
		{ID: "q1", Type: TypeSingleChoice},
		{ID: "q2", Type: TypeMultiChoice},
		{ID: "q3", Type: TypeMultiTrueFalse, SubStatements: []SubStatement{{IsTrue: true, Points: 2}, {Points: 3}}},
	}}
	for _, bad := range []map[string]json.RawMessage{
		{"q1": json.RawMessage(`["A"]`)},
		{"q2": json.RawMessage(`["A",null]`)},
		{"q3": json.RawMessage(`[true,null]`)},
	} {
		if _, err := q.DecodeAnswers(bad); !errors.Is(err, ErrMalformedAnswer) {
			t.Fatalf("expected malformed answer for %s, got %v", bad, err)
		}
	}

	got, err := q.DecodeAnswers(map[string]json.RawMessage{
		"q1":      json.RawMessage(`"A"`),
		"q2":      json.RawMessage(`null`),
		"removed": json.RawMessage(`42`),
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got["q1"] != (ChoiceAnswer{Option: "A"}) {
		t.Fatalf("expected only q1 decoded, got %#v", got)
	}
}

func TestQuestionCheck(t *testing.T) {
	tests := []struct {
		name    string
		q       Question
		wantErr bool
	}{
		{"single ok", Question{Text: "x", Type: TypeSingleChoice, Options: []string{"A", "B"}, Key: AnswerKey{Option: "A"}}, false},
		{"single key missing from options", Question{Text: "x", Type: TypeSingleChoice, Options: []string{"A", "B"}, Key: AnswerKey{Option: "C"}}, true},
		{"multi ok", Question{Text: "x", Type: TypeMultiChoice, Options: []string{"A", "B"}, Key: AnswerKey{Options: []string{"A", "B"}}}, false},
		{"multi stray key", Question{Text: "x", Type: TypeMultiChoice, Options: []string{"A", "B"}, Key: AnswerKey{Options: []string{"A", "Z"}}}, true},
		{"multi empty key", Question{Text: "x", Type: TypeMultiChoice, Options: []string{"A"}}, true},
		{"true false ok", Question{Text: "x", Type: TypeTrueFalse}, false},
		{"mtf ok", Question{Text: "x", Type: TypeMultiTrueFalse, SubStatements: []SubStatement{{Text: "s", Points: 1}}}, false},
		{"mtf empty", Question{Text: "x", Type: TypeMultiTrueFalse}, true},
		{"mtf zero points", Question{Text: "x", Type: TypeMultiTrueFalse, SubStatements: []SubStatement{{Text: "s"}}}, true},
		{"blanks ok", Question{Text: "x", Type: TypeFillBlanks, Key: AnswerKey{Blanks: []string{"a"}}}, false},
		{"blanks empty", Question{Text: "x", Type: TypeFillBlanks, Key: AnswerKey{Blanks: []string{" "}}}, true},
		{"matching ok", Question{Text: "x", Type: TypeMatching, Key: AnswerKey{Pairs: []MatchPair{{Left: "a", Right: "1"}}}}, false},
		{"matching duplicate", Question{Text: "x", Type: TypeMatching, Key: AnswerKey{Pairs: []MatchPair{{Left: "a", Right: "1"}, {Left: "a", Right: "2"}}}}, true},
		{"descriptive ok", Question{Text: "x", Type: TypeDescriptive}, false},
		{"no text", Question{Type: TypeDescriptive}, true},
		{"unknown type", Question{Text: "x", Type: "essay"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Check()
			if tt.wantErr && !errors.Is(err, ErrInvalidQuestion) {
				t.Fatalf("expected ErrInvalidQuestion, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestQuizCheck(t *testing.T) {
	start := time.Now()
	end := start.Add(-time.Hour)
	bad := []Quiz{
		{Title: ""},
		{Title: "t", PassingScore: 101},
		{Title: "t", PassingScore: -1},
		{Title: "t", TimeLimit: -5},
		{Title: "t", MaxAttempts: -1},
		{Title: "t", Difficulty: "extreme"},
		{Title: "t", StartDate: &start, EndDate: &end},
	}
	for i, q := range bad {
		if err := q.Check(); !errors.Is(err, ErrInvalidQuiz) {
			t.Errorf("case %d: expected ErrInvalidQuiz, got %v", i, err)
		}
	}
	if err := (Quiz{Title: "ok", Difficulty: DifficultyHard, PassingScore: 60}).Check(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPresentHidesKeysAndShufflesStably(t *testing.T) {
	quiz := Quiz{
		ID:           "quiz-1",
		IsRandomized: true,
		Questions: []Question{
			{ID: "q2", Order: 2, Type: TypeMatching, Text: "match", Key: AnswerKey{Pairs: []MatchPair{{Left: "a", Right: "1"}, {Left: "b", Right: "2"}}}},
			{ID: "q1", Order: 1, Type: TypeSingleChoice, Text: "pick", Options: []string{"A", "B", "C", "D", "E", "F"}, Key: AnswerKey{Option: "A"}, Explanation: "because"},
		},
	}
	first := quiz.Present("attempt-1", false)
	again := quiz.Present("attempt-1", false)
	if first[0].ID != "q1" || first[1].ID != "q2" {
		t.Fatalf("expected questions sorted by order, got %s, %s", first[0].ID, first[1].ID)
	}
	for i := range first[0].Options {
		if first[0].Options[i] != again[0].Options[i] {
			t.Fatalf("expected stable shuffle, got %v vs %v", first[0].Options, again[0].Options)
		}
	}
	if len(first[0].Options) != 6 || first[0].Explanation != "" {
		t.Fatalf("unexpected view %+v", first[0])
	}
	if quiz.Questions[1].Options[0] != "A" {
		t.Fatalf("expected quiz options untouched")
	}

	revealed := quiz.Present("attempt-1", true)
	if revealed[0].Explanation != "because" {
		t.Fatalf("expected explanation after reveal")
	}
}
