package domain

import "testing"

func TestValidateByType(t *testing.T) {
	single := Question{ID: "q1", Type: TypeSingleChoice, Options: []string{"A", "B", "C"}, Key: AnswerKey{Option: "B"}, Points: 2}
	multi := Question{ID: "q2", Type: TypeMultiChoice, Options: []string{"A", "B", "C"}, Key: AnswerKey{Options: []string{"A", "B"}}, Points: 3}
	tf := Question{ID: "q3", Type: TypeTrueFalse, Key: AnswerKey{Truth: false}}
	blanks := Question{ID: "q4", Type: TypeFillBlanks, Key: AnswerKey{Blanks: []string{"Paris", "Rome"}}}
	matching := Question{ID: "q5", Type: TypeMatching, Key: AnswerKey{Pairs: []MatchPair{{Left: "a", Right: "1"}, {Left: "b", Right: "2"}}}}
	descriptive := Question{ID: "q6", Type: TypeDescriptive, Points: 5}

	tests := []struct {
		name     string
		question Question
		answer   Answer
		want     bool
	}{
		{"single exact", single, ChoiceAnswer{Option: "B"}, true},
		{"single wrong", single, ChoiceAnswer{Option: "A"}, false},
		{"single case differs", single, ChoiceAnswer{Option: "b"}, false},
		{"single missing", single, nil, false},
		{"single wrong shape", single, MultiChoiceAnswer{Options: []string{"B"}}, false},
		{"multi same order", multi, MultiChoiceAnswer{Options: []string{"A", "B"}}, true},
		{"multi reversed order", multi, MultiChoiceAnswer{Options: []string{"B", "A"}}, true},
		{"multi subset", multi, MultiChoiceAnswer{Options: []string{"A"}}, false},
		{"multi superset", multi, MultiChoiceAnswer{Options: []string{"A", "B", "C"}}, false},
		{"multi duplicate", multi, MultiChoiceAnswer{Options: []string{"A", "A"}}, false},
		{"true false match", tf, TrueFalseAnswer{Value: false}, true},
		{"true false mismatch", tf, TrueFalseAnswer{Value: true}, false},
		{"blanks case and space", blanks, BlanksAnswer{Blanks: []string{" paris ", "ROME"}}, true},
		{"blanks one wrong", blanks, BlanksAnswer{Blanks: []string{"Paris", "Milan"}}, false},
		{"blanks short", blanks, BlanksAnswer{Blanks: []string{"Paris"}}, false},
		{"blanks long", blanks, BlanksAnswer{Blanks: []string{"Paris", "Rome", "Oslo"}}, false},
		{"matching any order", matching, MatchingAnswer{Pairs: []MatchPair{{Left: "b", Right: "2"}, {Left: "a", Right: "1"}}}, true},
		{"matching swapped", matching, MatchingAnswer{Pairs: []MatchPair{{Left: "a", Right: "2"}, {Left: "b", Right: "1"}}}, false},
		{"matching duplicate left", matching, MatchingAnswer{Pairs: []MatchPair{{Left: "a", Right: "1"}, {Left: "a", Right: "1"}}}, false},
		{"descriptive answered", descriptive, TextAnswer{Text: "because"}, true},
		{"descriptive blank", descriptive, TextAnswer{Text: "   "}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.question.Validate(tt.answer); got != tt.want {
				t.Errorf("Validate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScoreMultipleTrueFalsePartialCredit(t *testing.T) {
	q := Question{
		ID:   "mtf",
		Type: TypeMultiTrueFalse,
		SubStatements: []SubStatement{
			{Text: "first", IsTrue: true, Points: 2},
			{Text: "second", IsTrue: false, Points: 3},
		},
		Points: 100, // ignored for this type
	}

	tests := []struct {
		name      string
		values    []bool
		wantScore float64
		wantValid bool
	}{
		{"all right", []bool{true, false}, 5, true},
		{"second only", []bool{false, false}, 3, false},
		{"first only", []bool{true, true}, 2, false},
		{"none", []bool{false, true}, 0, false},
		{"wrong arity", []bool{true}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ans := MultiTrueFalseAnswer{Values: tt.values}
			if got := q.Score(ans); got != tt.wantScore {
				t.Errorf("Score() = %v, want %v", got, tt.wantScore)
			}
			if got := q.Validate(ans); got != tt.wantValid {
				t.Errorf("Validate() = %v, want %v", got, tt.wantValid)
			}
		})
	}
	if got := q.MaxPoints(); got != 5 {
		t.Fatalf("expected max points 5 from sub-statements, got %v", got)
	}
}

func TestScoreOrdinaryTypes(t *testing.T) {
	q := Question{ID: "q1", Type: TypeSingleChoice, Options: []string{"A", "B"}, Key: AnswerKey{Option: "A"}, Points: 4}
	if got := q.Score(ChoiceAnswer{Option: "A"}); got != 4 {
		t.Fatalf("expected 4 points, got %v", got)
	}
	if got := q.Score(ChoiceAnswer{Option: "B"}); got != 0 {
		t.Fatalf("expected 0 points, got %v", got)
	}

	unset := Question{ID: "q2", Type: TypeTrueFalse, Key: AnswerKey{Truth: true}}
	if got := unset.Score(TrueFalseAnswer{Value: true}); got != 1 {
		t.Fatalf("expected default of 1 point, got %v", got)
	}
}

func TestDescriptiveNeedsReview(t *testing.T) {
	q := Question{ID: "essay", Type: TypeDescriptive, Points: 10}
	res := q.Evaluate(TextAnswer{Text: "an essay"})
	if !res.Answered || !res.NeedsReview {
		t.Fatalf("expected answered essay awaiting review, got %+v", res)
	}
	if res.Awarded != 0 || res.MaxPoints != 10 {
		t.Fatalf("expected 0 of 10 points, got %+v", res)
	}

	blank := q.Evaluate(TextAnswer{Text: ""})
	if blank.Answered || blank.NeedsReview {
		t.Fatalf("expected blank essay to be unanswered, got %+v", blank)
	}
}

func TestValidateDoesNotMutateKey(t *testing.T) {
	q := Question{ID: "q", Type: TypeMultiChoice, Options: []string{"C", "B", "A"}, Key: AnswerKey{Options: []string{"C", "A"}}}
	submitted := []string{"A", "C"}
	if !q.Validate(MultiChoiceAnswer{Options: submitted}) {
		t.Fatalf("expected valid answer")
	}
	if q.Key.Options[0] != "C" || submitted[0] != "A" {
		t.Fatalf("expected inputs untouched, key=%v submitted=%v", q.Key.Options, submitted)
	}
}
