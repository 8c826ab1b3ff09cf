package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"academy-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizCache is a QuizRepository whose entries can be dropped after an edit.
type QuizCache interface {
	QuizRepository
	Invalidate(ctx context.Context, quizID string) error
}

// AttemptRepository persists attempts.
type AttemptRepository interface {
	Create(ctx context.Context, attempt domain.Attempt) error
	Get(ctx context.Context, attemptID string) (domain.Attempt, error)
	ListByStudent(ctx context.Context, quizID, studentID string) ([]domain.Attempt, error)
	ListByQuiz(ctx context.Context, quizID string) ([]domain.Attempt, error)
	// Save replaces the stored attempt only if the stored version still equals
	// expectedVersion, otherwise it returns domain.ErrAttemptConflict.
	Save(ctx context.Context, attempt domain.Attempt, expectedVersion int) error
}

// AttemptView is an attempt as returned to its student, with the derived
// timing fields and the questions to render.
type AttemptView struct {
	domain.Attempt
	RemainingSeconds   int                   `json:"remainingSeconds"`
	IsExpired          bool                  `json:"isExpired"`
	CanBeResumed       bool                  `json:"canBeResumed"`
	ProgressPercentage float64               `json:"progressPercentage"`
	Questions          []domain.QuestionView `json:"questions"`
}

// AttemptService drives attempts through their lifecycle.
type AttemptService struct {
	quizzes  QuizRepository
	attempts AttemptRepository
	feeds    FeedRepository
	now      func() time.Time
	newID    func() string
}

func NewAttemptService(quizzes QuizRepository, attempts AttemptRepository, feeds FeedRepository) *AttemptService {
	return NewAttemptServiceWithClock(quizzes, attempts, feeds, time.Now)
}

// NewAttemptServiceWithClock allows deterministic timestamps in tests.
func NewAttemptServiceWithClock(quizzes QuizRepository, attempts AttemptRepository, feeds FeedRepository, now func() time.Time) *AttemptService {
	return &AttemptService{
		quizzes:  quizzes,
		attempts: attempts,
		feeds:    feeds,
		now:      now,
		newID:    uuid.NewString,
	}
}

// Start opens an attempt for studentID. A resumable attempt already in
// progress is returned instead of opening a second one; an expired one is
// timed out first and counts towards the attempt limit.
func (s *AttemptService) Start(ctx context.Context, quizID, studentID string) (AttemptView, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return AttemptView{}, err
	}
	prior, err := s.attempts.ListByStudent(ctx, quizID, studentID)
	if err != nil {
		return AttemptView{}, err
	}

	now := s.now()
	for _, a := range prior {
		if a.Status != domain.StatusInProgress {
			continue
		}
		if a.CanBeResumed(now) {
			slog.Info("attempt resumed", "attempt_id", a.ID, "quiz_id", quizID, "student_id", studentID)
			return s.view(quiz, a, now), nil
		}
		if _, err := s.expire(ctx, quiz, a, now); err != nil {
			return AttemptView{}, err
		}
	}

	if err := quiz.Eligibility(now, len(prior)); err != nil {
		return AttemptView{}, err
	}
	a := domain.NewAttempt(s.newID(), quiz, studentID, now)
	if err := s.attempts.Create(ctx, a); err != nil {
		return AttemptView{}, err
	}
	slog.Info("attempt started", "attempt_id", a.ID, "quiz_id", quizID, "student_id", studentID, "time_limit", a.TimeLimit)
	return s.view(quiz, a, now), nil
}

// Get returns the attempt with its derived timing fields. It has no side
// effects: an expired attempt is reported as such but stays in progress.
func (s *AttemptService) Get(ctx context.Context, attemptID, studentID string) (AttemptView, error) {
	a, err := s.load(ctx, attemptID, studentID)
	if err != nil {
		return AttemptView{}, err
	}
	quiz, err := s.quizzes.GetQuiz(ctx, a.QuizID)
	if err != nil {
		return AttemptView{}, err
	}
	return s.view(quiz, a, s.now()), nil
}

// SubmitAnswers merges answers into an in-progress attempt. Payloads are
// shape-checked against their questions first, so a malformed submission
// stores nothing. Submitting past the deadline times the attempt out and is
// rejected as a conflict.
func (s *AttemptService) SubmitAnswers(ctx context.Context, attemptID, studentID string, answers map[string]json.RawMessage) (AttemptView, error) {
	a, err := s.load(ctx, attemptID, studentID)
	if err != nil {
		return AttemptView{}, err
	}
	quiz, err := s.quizzes.GetQuiz(ctx, a.QuizID)
	if err != nil {
		return AttemptView{}, err
	}
	now := s.now()
	if a.Status == domain.StatusInProgress && a.IsExpired(now) {
		if _, err := s.expire(ctx, quiz, a, now); err != nil {
			return AttemptView{}, err
		}
		return AttemptView{}, fmt.Errorf("%w: time limit exceeded", domain.ErrAttemptConflict)
	}
	if _, err := quiz.DecodeAnswers(answers); err != nil {
		return AttemptView{}, err
	}
	return s.apply(ctx, quiz, a, now, "answers saved", func(a *domain.Attempt) error {
		return a.RecordAnswers(answers)
	})
}

// Complete grades the attempt. answers are merged over the ones already
// saved. When the deadline has passed the submission is ignored and the
// attempt is timed out with what was saved before the deadline.
func (s *AttemptService) Complete(ctx context.Context, attemptID, studentID string, answers map[string]json.RawMessage) (AttemptView, error) {
	a, err := s.load(ctx, attemptID, studentID)
	if err != nil {
		return AttemptView{}, err
	}
	quiz, err := s.quizzes.GetQuiz(ctx, a.QuizID)
	if err != nil {
		return AttemptView{}, err
	}
	now := s.now()
	if a.Status == domain.StatusInProgress && a.IsExpired(now) {
		timedOut, err := s.expire(ctx, quiz, a, now)
		if err != nil {
			return AttemptView{}, err
		}
		return s.view(quiz, timedOut, now), nil
	}
	if _, err := quiz.DecodeAnswers(answers); err != nil {
		return AttemptView{}, err
	}

	final := make(map[string]json.RawMessage, len(a.Answers)+len(answers))
	for id, raw := range a.Answers {
		final[id] = raw
	}
	for id, raw := range answers {
		final[id] = raw
	}
	return s.apply(ctx, quiz, a, now, "attempt completed", func(a *domain.Attempt) error {
		return a.Complete(quiz, final, now)
	})
}

// Abandon closes the attempt without grading it.
func (s *AttemptService) Abandon(ctx context.Context, attemptID, studentID string) (AttemptView, error) {
	a, err := s.load(ctx, attemptID, studentID)
	if err != nil {
		return AttemptView{}, err
	}
	quiz, err := s.quizzes.GetQuiz(ctx, a.QuizID)
	if err != nil {
		return AttemptView{}, err
	}
	now := s.now()
	return s.apply(ctx, quiz, a, now, "attempt abandoned", func(a *domain.Attempt) error {
		return a.Abandon(now)
	})
}

// Timeout closes an attempt whose deadline has passed.
func (s *AttemptService) Timeout(ctx context.Context, attemptID, studentID string) (AttemptView, error) {
	a, err := s.load(ctx, attemptID, studentID)
	if err != nil {
		return AttemptView{}, err
	}
	quiz, err := s.quizzes.GetQuiz(ctx, a.QuizID)
	if err != nil {
		return AttemptView{}, err
	}
	now := s.now()
	return s.apply(ctx, quiz, a, now, "attempt timed out", func(a *domain.Attempt) error {
		return a.Timeout(quiz, now)
	})
}

// EnforceDeadline returns the current view, timing the attempt out first if
// it is still in progress past its deadline. Live channels call it on every tick.
func (s *AttemptService) EnforceDeadline(ctx context.Context, attemptID, studentID string) (AttemptView, error) {
	a, err := s.load(ctx, attemptID, studentID)
	if err != nil {
		return AttemptView{}, err
	}
	quiz, err := s.quizzes.GetQuiz(ctx, a.QuizID)
	if err != nil {
		return AttemptView{}, err
	}
	now := s.now()
	if a.Status == domain.StatusInProgress && a.IsExpired(now) {
		if a, err = s.expire(ctx, quiz, a, now); err != nil {
			return AttemptView{}, err
		}
	}
	return s.view(quiz, a, now), nil
}

// GradeDescriptive records a grader's points for a descriptive question.
// Only the quiz author may grade.
func (s *AttemptService) GradeDescriptive(ctx context.Context, attemptID, graderID, questionID string, points float64, feedback string) (AttemptView, error) {
	a, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return AttemptView{}, err
	}
	quiz, err := s.quizzes.GetQuiz(ctx, a.QuizID)
	if err != nil {
		return AttemptView{}, err
	}
	if quiz.AuthorID != graderID {
		return AttemptView{}, domain.ErrNotAuthor
	}
	return s.apply(ctx, quiz, a, s.now(), "descriptive graded", func(a *domain.Attempt) error {
		return a.GradeManually(quiz, questionID, points, feedback)
	})
}

// Subscribe returns the current view and a channel receiving every later
// change to the attempt. The caller must invoke the returned cancel function
// to avoid leaks.
func (s *AttemptService) Subscribe(ctx context.Context, attemptID, studentID string) (<-chan AttemptView, func(), error) {
	view, err := s.Get(ctx, attemptID, studentID)
	if err != nil {
		return nil, nil, err
	}
	feed := s.feeds.GetOrCreate(attemptID)
	ch, unsubscribe := feed.subscribe(view)
	cancel := func() {
		unsubscribe()
		s.feeds.DeleteIfEmpty(attemptID)
	}
	return ch, cancel, nil
}

// expire times out an attempt found in progress past its deadline. Losing
// the race to a concurrent transition is fine: the stored attempt wins.
func (s *AttemptService) expire(ctx context.Context, quiz domain.Quiz, a domain.Attempt, now time.Time) (domain.Attempt, error) {
	view, err := s.apply(ctx, quiz, a, now, "attempt timed out", func(a *domain.Attempt) error {
		return a.Timeout(quiz, now)
	})
	if errors.Is(err, domain.ErrAttemptConflict) {
		return s.attempts.Get(ctx, a.ID)
	}
	if err != nil {
		return domain.Attempt{}, err
	}
	return view.Attempt, nil
}

// apply runs a transition on a copy of the attempt and persists it with an
// optimistic version check, then notifies live watchers.
func (s *AttemptService) apply(ctx context.Context, quiz domain.Quiz, a domain.Attempt, now time.Time, event string, transition func(*domain.Attempt) error) (AttemptView, error) {
	expected := a.Version
	if err := transition(&a); err != nil {
		return AttemptView{}, err
	}
	a.Version = expected + 1
	if err := s.attempts.Save(ctx, a, expected); err != nil {
		if errors.Is(err, domain.ErrAttemptConflict) {
			slog.Warn("attempt changed concurrently", "attempt_id", a.ID, "event", event)
		}
		return AttemptView{}, err
	}

	attrs := []any{"attempt_id", a.ID, "quiz_id", a.QuizID, "student_id", a.StudentID, "status", a.Status}
	if a.Status.Terminal() && a.Status != domain.StatusAbandoned {
		attrs = append(attrs, "score", a.Score, "total_score", a.TotalScore, "percentage", a.Percentage, "passed", a.IsPassed)
	}
	slog.Info(event, attrs...)

	view := s.view(quiz, a, now)
	if feed, ok := s.feeds.Get(a.ID); ok {
		feed.publish(view)
	}
	return view, nil
}

func (s *AttemptService) load(ctx context.Context, attemptID, studentID string) (domain.Attempt, error) {
	a, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return domain.Attempt{}, err
	}
	if a.StudentID != studentID {
		return domain.Attempt{}, domain.ErrAttemptNotOwned
	}
	return a, nil
}

func (s *AttemptService) view(quiz domain.Quiz, a domain.Attempt, now time.Time) AttemptView {
	v := AttemptView{
		Attempt:            a,
		CanBeResumed:       a.CanBeResumed(now),
		ProgressPercentage: a.ProgressPercentage(quiz),
		Questions:          quiz.Present(a.ID, a.Status.Terminal()),
	}
	if a.Status == domain.StatusInProgress {
		v.RemainingSeconds = a.RemainingTime(now)
		v.IsExpired = a.IsExpired(now)
	}
	return v
}
