package domain

import (
	"hash/fnv"
	"math/rand/v2"
	"slices"
	"sort"
)

// QuestionView is a question as shown to a student: no answer key.
type QuestionView struct {
	ID          string       `json:"id"`
	Text        string       `json:"text"`
	Type        QuestionType `json:"type"`
	Options     []string     `json:"options,omitempty"`
	Statements  []string     `json:"statements,omitempty"`
	Blanks      int          `json:"blanks,omitempty"`
	MatchLeft   []string     `json:"matchLeft,omitempty"`
	MatchRight  []string     `json:"matchRight,omitempty"`
	Points      float64      `json:"points"`
	Order       int          `json:"order"`
	IsRequired  bool         `json:"isRequired"`
	Explanation string       `json:"explanation,omitempty"`
}

// Present renders the quiz's questions for one attempt. Option order is
// shuffled per attempt when the quiz is randomized, and stays stable across
// reloads of the same attempt. Explanations are included only when reveal is set.
func (q Quiz) Present(attemptID string, reveal bool) []QuestionView {
	questions := slices.Clone(q.Questions)
	sort.SliceStable(questions, func(i, j int) bool { return questions[i].Order < questions[j].Order })

	rng := rand.New(rand.NewPCG(seedFor(attemptID), seedFor(q.ID)))
	views := make([]QuestionView, 0, len(questions))
	for _, question := range questions {
		v := QuestionView{
			ID:         question.ID,
			Text:       question.Text,
			Type:       question.Type,
			Points:     question.MaxPoints(),
			Order:      question.Order,
			IsRequired: question.IsRequired,
		}
		if reveal {
			v.Explanation = question.Explanation
		}
		switch question.Type {
		case TypeSingleChoice, TypeMultiChoice:
			v.Options = slices.Clone(question.Options)
			if q.IsRandomized {
				rng.Shuffle(len(v.Options), func(i, j int) { v.Options[i], v.Options[j] = v.Options[j], v.Options[i] })
			}
		case TypeMultiTrueFalse:
			for _, st := range question.SubStatements {
				v.Statements = append(v.Statements, st.Text)
			}
		case TypeFillBlanks:
			v.Blanks = len(question.Key.Blanks)
		case TypeMatching:
			for _, p := range question.Key.Pairs {
				v.MatchLeft = append(v.MatchLeft, p.Left)
				v.MatchRight = append(v.MatchRight, p.Right)
			}
			if q.IsRandomized {
				rng.Shuffle(len(v.MatchRight), func(i, j int) { v.MatchRight[i], v.MatchRight[j] = v.MatchRight[j], v.MatchRight[i] })
			} else {
				sort.Strings(v.MatchRight)
			}
		}
		views = append(views, v)
	}
	return views
}

func seedFor(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
