package domain

import (
	"slices"
	"strings"
)

// Validate reports whether ans is a correct answer to q. Missing or
// mismatched answers are never an error, they are simply incorrect.
// For descriptive questions it reports whether the text is non-blank;
// correctness of free text is left to a human grader.
func (q Question) Validate(ans Answer) bool {
	if ans == nil || ans.Kind() != q.Type {
		return false
	}
	switch a := ans.(type) {
	case ChoiceAnswer:
		return a.Option == q.Key.Option
	case MultiChoiceAnswer:
		return sameSet(a.Options, q.Key.Options)
	case TrueFalseAnswer:
		return a.Value == q.Key.Truth
	case MultiTrueFalseAnswer:
		if len(a.Values) != len(q.SubStatements) {
			return false
		}
		for i, st := range q.SubStatements {
			if a.Values[i] != st.IsTrue {
				return false
			}
		}
		return true
	case BlanksAnswer:
		if len(a.Blanks) != len(q.Key.Blanks) {
			return false
		}
		for i, want := range q.Key.Blanks {
			if !strings.EqualFold(strings.TrimSpace(a.Blanks[i]), strings.TrimSpace(want)) {
				return false
			}
		}
		return true
	case MatchingAnswer:
		return samePairs(a.Pairs, q.Key.Pairs)
	case TextAnswer:
		return strings.TrimSpace(a.Text) != ""
	}
	return false
}

// Score returns the points ans earns on q. Multiple-true/false questions
// earn each matching sub-statement's points independently; descriptive
// questions always score 0 until graded manually.
func (q Question) Score(ans Answer) float64 {
	switch q.Type {
	case TypeDescriptive:
		return 0
	case TypeMultiTrueFalse:
		a, ok := ans.(MultiTrueFalseAnswer)
		if !ok || len(a.Values) != len(q.SubStatements) {
			return 0
		}
		var earned float64
		for i, st := range q.SubStatements {
			if a.Values[i] == st.IsTrue {
				earned += float64(st.Points)
			}
		}
		return earned
	}
	if q.Validate(ans) {
		return q.MaxPoints()
	}
	return 0
}

// MaxPoints is the most q can award.
func (q Question) MaxPoints() float64 {
	if q.Type == TypeMultiTrueFalse {
		var total int
		for _, st := range q.SubStatements {
			total += st.Points
		}
		return float64(total)
	}
	if q.Points <= 0 {
		return 1
	}
	return float64(q.Points)
}

// Evaluate scores ans on q and records the outcome.
func (q Question) Evaluate(ans Answer) QuestionResult {
	res := QuestionResult{
		QuestionID: q.ID,
		MaxPoints:  q.MaxPoints(),
	}
	if ans != nil && ans.Kind() == q.Type {
		res.Answered = true
	}
	if q.Type == TypeDescriptive {
		res.Answered = q.Validate(ans)
		res.NeedsReview = res.Answered
		return res
	}
	res.Correct = q.Validate(ans)
	res.Awarded = q.Score(ans)
	return res
}

func sameSet(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	g := slices.Clone(got)
	w := slices.Clone(want)
	slices.Sort(g)
	slices.Sort(w)
	return slices.Equal(g, w)
}

func samePairs(got, want []MatchPair) bool {
	if len(got) != len(want) {
		return false
	}
	expected := make(map[string]string, len(want))
	for _, p := range want {
		expected[p.Left] = p.Right
	}
	seen := make(map[string]struct{}, len(got))
	for _, p := range got {
		if _, dup := seen[p.Left]; dup {
			return false
		}
		seen[p.Left] = struct{}{}
		right, ok := expected[p.Left]
		if !ok || right != p.Right {
			return false
		}
	}
	return true
}
