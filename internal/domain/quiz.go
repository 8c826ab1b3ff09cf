package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// IsAvailable reports whether the quiz is active and now falls inside its
// availability window.
func (q Quiz) IsAvailable(now time.Time) bool {
	if !q.IsActive {
		return false
	}
	if q.StartDate != nil && now.Before(*q.StartDate) {
		return false
	}
	if q.EndDate != nil && now.After(*q.EndDate) {
		return false
	}
	return true
}

// EffectiveMaxAttempts is the attempt cap per student, 0 meaning unlimited.
// A quiz that disallows retakes allows exactly one attempt.
func (q Quiz) EffectiveMaxAttempts() int {
	if !q.AllowRetake {
		return 1
	}
	return q.MaxAttempts
}

// CanBeAttemptedBy reports whether a student with priorAttempts earlier
// attempts may start a new one at now.
func (q Quiz) CanBeAttemptedBy(now time.Time, priorAttempts int) bool {
	return q.Eligibility(now, priorAttempts) == nil
}

// Eligibility is CanBeAttemptedBy with the rejection reason.
func (q Quiz) Eligibility(now time.Time, priorAttempts int) error {
	if !q.IsAvailable(now) {
		return ErrQuizNotAvailable
	}
	if limit := q.EffectiveMaxAttempts(); limit > 0 && priorAttempts >= limit {
		return ErrMaxAttemptsReached
	}
	return nil
}

// NextQuestionOrder is one past the highest question order, or 1 for an empty quiz.
func (q Quiz) NextQuestionOrder() int {
	highest := 0
	for _, question := range q.Questions {
		if question.Order > highest {
			highest = question.Order
		}
	}
	return highest + 1
}

// TotalQuestions is the number of questions in the quiz.
func (q Quiz) TotalQuestions() int {
	return len(q.Questions)
}

// TotalPoints sums the maximal points of every question.
func (q Quiz) TotalPoints() float64 {
	var total float64
	for _, question := range q.Questions {
		total += question.MaxPoints()
	}
	return total
}

// Question looks up a question by id.
func (q Quiz) Question(id string) (Question, bool) {
	for _, question := range q.Questions {
		if question.ID == id {
			return question, true
		}
	}
	return Question{}, false
}

// DecodeAnswers decodes a submission against the quiz's questions. Entries
// for ids that are not questions of this quiz are skipped.
func (q Quiz) DecodeAnswers(raw map[string]json.RawMessage) (map[string]Answer, error) {
	out := make(map[string]Answer, len(raw))
	for id, payload := range raw {
		question, ok := q.Question(id)
		if !ok {
			continue
		}
		ans, err := DecodeAnswer(question.Type, payload)
		if err != nil {
			return nil, fmt.Errorf("question %s: %w", id, err)
		}
		if ans != nil {
			out[id] = ans
		}
	}
	return out, nil
}

// Clone returns a copy of the quiz that shares no slices or pointers with q.
func (q Quiz) Clone() Quiz {
	out := q
	if q.StartDate != nil {
		start := *q.StartDate
		out.StartDate = &start
	}
	if q.EndDate != nil {
		end := *q.EndDate
		out.EndDate = &end
	}
	if q.Questions != nil {
		out.Questions = make([]Question, len(q.Questions))
		for i, question := range q.Questions {
			out.Questions[i] = question.detach()
		}
	}
	return out
}

// Check validates quiz metadata.
func (q Quiz) Check() error {
	if strings.TrimSpace(q.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidQuiz)
	}
	switch q.Difficulty {
	case "", DifficultyEasy, DifficultyMedium, DifficultyHard:
	default:
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidQuiz, q.Difficulty)
	}
	if q.PassingScore < 0 || q.PassingScore > 100 {
		return fmt.Errorf("%w: passing score must be within 0..100", ErrInvalidQuiz)
	}
	if q.TimeLimit < 0 {
		return fmt.Errorf("%w: time limit must not be negative", ErrInvalidQuiz)
	}
	if q.MaxAttempts < 0 {
		return fmt.Errorf("%w: max attempts must not be negative", ErrInvalidQuiz)
	}
	if q.StartDate != nil && q.EndDate != nil && q.EndDate.Before(*q.StartDate) {
		return fmt.Errorf("%w: end date before start date", ErrInvalidQuiz)
	}
	return nil
}

// Normalize applies defaults and detaches the question's lists from the caller.
func (q *Question) Normalize() {
	if q.Points <= 0 {
		q.Points = 1
	}
	q.Text = strings.TrimSpace(q.Text)
	*q = q.detach()
}

func (q Question) detach() Question {
	q.Options = cloneStrings(q.Options)
	q.Key.Options = cloneStrings(q.Key.Options)
	q.Key.Blanks = cloneStrings(q.Key.Blanks)
	if q.Key.Pairs != nil {
		q.Key.Pairs = append([]MatchPair(nil), q.Key.Pairs...)
	}
	if q.SubStatements != nil {
		q.SubStatements = append([]SubStatement(nil), q.SubStatements...)
	}
	return q
}

// Check enforces the shape rules of the question's type.
func (q Question) Check() error {
	if !q.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidQuestion, q.Type)
	}
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: text is required", ErrInvalidQuestion)
	}
	if q.Points < 0 {
		return fmt.Errorf("%w: points must be positive", ErrInvalidQuestion)
	}
	if q.Order < 0 {
		return fmt.Errorf("%w: order must not be negative", ErrInvalidQuestion)
	}
	switch q.Type {
	case TypeSingleChoice:
		if !contains(q.Options, q.Key.Option) {
			return fmt.Errorf("%w: correct option %q is not among the options", ErrInvalidQuestion, q.Key.Option)
		}
	case TypeMultiChoice:
		if len(q.Key.Options) == 0 {
			return fmt.Errorf("%w: at least one correct option is required", ErrInvalidQuestion)
		}
		for _, opt := range q.Key.Options {
			if !contains(q.Options, opt) {
				return fmt.Errorf("%w: correct option %q is not among the options", ErrInvalidQuestion, opt)
			}
		}
	case TypeMultiTrueFalse:
		if len(q.SubStatements) == 0 {
			return fmt.Errorf("%w: sub-statements are required", ErrInvalidQuestion)
		}
		for i, st := range q.SubStatements {
			if strings.TrimSpace(st.Text) == "" {
				return fmt.Errorf("%w: sub-statement %d has no text", ErrInvalidQuestion, i)
			}
			if st.Points <= 0 {
				return fmt.Errorf("%w: sub-statement %d needs positive points", ErrInvalidQuestion, i)
			}
		}
	case TypeFillBlanks:
		if len(q.Key.Blanks) == 0 {
			return fmt.Errorf("%w: at least one blank is required", ErrInvalidQuestion)
		}
		for i, b := range q.Key.Blanks {
			if strings.TrimSpace(b) == "" {
				return fmt.Errorf("%w: blank %d is empty", ErrInvalidQuestion, i)
			}
		}
	case TypeMatching:
		if len(q.Key.Pairs) == 0 {
			return fmt.Errorf("%w: at least one pair is required", ErrInvalidQuestion)
		}
		lefts := make(map[string]struct{}, len(q.Key.Pairs))
		for _, p := range q.Key.Pairs {
			if _, dup := lefts[p.Left]; dup {
				return fmt.Errorf("%w: duplicate left item %q", ErrInvalidQuestion, p.Left)
			}
			lefts[p.Left] = struct{}{}
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
