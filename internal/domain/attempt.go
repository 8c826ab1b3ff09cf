package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// NewAttempt opens an in-progress attempt for studentID on quiz. Callers
// check quiz.Eligibility before opening one.
func NewAttempt(id string, quiz Quiz, studentID string, now time.Time) Attempt {
	return Attempt{
		ID:        id,
		QuizID:    quiz.ID,
		StudentID: studentID,
		Status:    StatusInProgress,
		StartedAt: now,
		TimeLimit: quiz.TimeLimit,
		Answers:   map[string]json.RawMessage{},
	}
}

// Clone returns a copy sharing no maps, slices or pointers with a.
func (a Attempt) Clone() Attempt {
	out := a
	if a.CompletedAt != nil {
		completed := *a.CompletedAt
		out.CompletedAt = &completed
	}
	if a.Answers != nil {
		out.Answers = make(map[string]json.RawMessage, len(a.Answers))
		for id, raw := range a.Answers {
			out.Answers[id] = append(json.RawMessage(nil), raw...)
		}
	}
	if a.Results != nil {
		out.Results = append([]QuestionResult(nil), a.Results...)
	}
	return out
}

// Deadline returns when the attempt expires, or false for untimed attempts.
func (a Attempt) Deadline() (time.Time, bool) {
	if a.TimeLimit <= 0 {
		return time.Time{}, false
	}
	return a.StartedAt.Add(time.Duration(a.TimeLimit) * time.Minute), true
}

// IsExpired reports whether now is past the deadline.
func (a Attempt) IsExpired(now time.Time) bool {
	deadline, ok := a.Deadline()
	return ok && now.After(deadline)
}

// RemainingTime returns whole seconds left before the deadline, 0 when
// untimed or past the deadline.
func (a Attempt) RemainingTime(now time.Time) int {
	deadline, ok := a.Deadline()
	if !ok {
		return 0
	}
	left := deadline.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(left / time.Second)
}

// CanBeResumed reports whether the student may keep working on this attempt.
func (a Attempt) CanBeResumed(now time.Time) bool {
	return a.Status == StatusInProgress && !a.IsExpired(now)
}

// ProgressPercentage is the share of quiz questions with a non-empty answer.
// Stored answers for ids that are not questions of quiz do not count.
func (a Attempt) ProgressPercentage(quiz Quiz) float64 {
	if len(quiz.Questions) == 0 {
		return 0
	}
	answered := 0
	for _, question := range quiz.Questions {
		if raw, ok := a.Answers[question.ID]; ok && !IsEmptyAnswer(raw) {
			answered++
		}
	}
	return percentage(float64(answered), float64(len(quiz.Questions)))
}

// RecordAnswers merges answers into an in-progress attempt.
func (a *Attempt) RecordAnswers(answers map[string]json.RawMessage) error {
	if err := a.requireInProgress("record answers"); err != nil {
		return err
	}
	if a.Answers == nil {
		a.Answers = make(map[string]json.RawMessage, len(answers))
	}
	for id, raw := range answers {
		a.Answers[id] = raw
	}
	return nil
}

// Complete grades answers against quiz and closes the attempt. The raw
// answers are stored verbatim.
func (a *Attempt) Complete(quiz Quiz, answers map[string]json.RawMessage, now time.Time) error {
	if err := a.requireInProgress("complete"); err != nil {
		return err
	}
	if answers == nil {
		answers = map[string]json.RawMessage{}
	}
	a.Answers = answers
	a.grade(quiz)
	a.close(StatusCompleted, now, elapsedSeconds(a.StartedAt, now))
	return nil
}

// Abandon closes the attempt without grading it.
func (a *Attempt) Abandon(now time.Time) error {
	if err := a.requireInProgress("abandon"); err != nil {
		return err
	}
	a.close(StatusAbandoned, now, elapsedSeconds(a.StartedAt, now))
	return nil
}

// Timeout closes an expired attempt. Time taken is pinned to the limit so a
// late detection cannot inflate it. Answers stored before the deadline are
// graded best-effort.
func (a *Attempt) Timeout(quiz Quiz, now time.Time) error {
	if err := a.requireInProgress("time out"); err != nil {
		return err
	}
	if !a.IsExpired(now) {
		return ErrAttemptNotExpired
	}
	a.grade(quiz)
	a.close(StatusTimedOut, now, a.TimeLimit*60)
	return nil
}

// GradeManually overrides the awarded points of a descriptive question on a
// graded attempt and recomputes the totals against the frozen total score
// and passing score.
func (a *Attempt) GradeManually(quiz Quiz, questionID string, points float64, feedback string) error {
	if a.Status != StatusCompleted && a.Status != StatusTimedOut {
		return fmt.Errorf("%w: attempt is %s", ErrNotGradable, a.Status)
	}
	question, ok := quiz.Question(questionID)
	if !ok {
		return ErrQuestionNotFound
	}
	if question.Type != TypeDescriptive {
		return fmt.Errorf("%w: question %s is %s", ErrNotGradable, questionID, question.Type)
	}
	idx := -1
	for i := range a.Results {
		if a.Results[i].QuestionID == questionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: question %s was not part of this attempt", ErrNotGradable, questionID)
	}
	res := &a.Results[idx]
	if points < 0 || points > res.MaxPoints {
		return fmt.Errorf("%w: points must be within 0..%v", ErrNotGradable, res.MaxPoints)
	}
	res.Awarded = points
	res.Correct = points >= res.MaxPoints
	res.NeedsReview = false
	res.Graded = true
	if feedback != "" {
		a.Feedback = feedback
	}

	var score float64
	for _, r := range a.Results {
		score += r.Awarded
	}
	a.setScore(score, a.TotalScore)
	return nil
}

func (a *Attempt) grade(quiz Quiz) {
	results := make([]QuestionResult, 0, len(quiz.Questions))
	var score, total float64
	for _, question := range quiz.Questions {
		// A payload that fails to decode counts as unanswered.
		ans, err := DecodeAnswer(question.Type, a.Answers[question.ID])
		if err != nil {
			ans = nil
		}
		res := question.Evaluate(ans)
		results = append(results, res)
		score += res.Awarded
		total += res.MaxPoints
	}
	a.Results = results
	a.PassingScore = quiz.PassingScore
	a.setScore(score, total)
}

func (a *Attempt) setScore(score, total float64) {
	a.Score = score
	a.TotalScore = total
	a.Percentage = percentage(score, total)
	a.IsPassed = a.Percentage >= float64(a.PassingScore)
}

func (a *Attempt) close(status AttemptStatus, now time.Time, timeTaken int) {
	completed := now
	a.Status = status
	a.CompletedAt = &completed
	a.TimeTaken = timeTaken
}

func (a Attempt) requireInProgress(action string) error {
	if a.Status != StatusInProgress {
		return fmt.Errorf("%w: cannot %s a %s attempt", ErrAttemptConflict, action, a.Status)
	}
	return nil
}

// percentage is part/whole*100 rounded to 2 places, 0 when whole is 0.
func percentage(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	pct := decimal.NewFromFloat(part).
		Div(decimal.NewFromFloat(whole)).
		Mul(decimal.NewFromInt(100)).
		Round(2)
	f, _ := pct.Float64()
	return f
}

func elapsedSeconds(start, now time.Time) int {
	d := now.Sub(start)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}
