package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"academy-quiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuizStore is the durable home of quizzes and their questions.
type QuizStore interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
	// UpdateQuiz replaces quiz metadata. Questions are left untouched.
	UpdateQuiz(ctx context.Context, quiz domain.Quiz) error
	SaveQuestion(ctx context.Context, question domain.Question) error
	DeleteQuestion(ctx context.Context, quizID, questionID string) error
}

// QuizSummary aggregates the attempts made against a quiz.
type QuizSummary struct {
	QuizID         string                       `json:"quizId"`
	TotalQuestions int                          `json:"totalQuestions"`
	TotalPoints    float64                      `json:"totalPoints"`
	Attempts       map[domain.AttemptStatus]int `json:"attempts"`
	Passed         int                          `json:"passed"`
	AverageScore   float64                      `json:"averageScore"`
}

// AuthoringService manages quizzes and their questions. Every write drops
// the cached quiz so attempts are scored against the current question set.
type AuthoringService struct {
	store    QuizStore
	cache    QuizCache
	attempts AttemptRepository
	now      func() time.Time
	newID    func() string
}

func NewAuthoringService(store QuizStore, cache QuizCache, attempts AttemptRepository) *AuthoringService {
	return NewAuthoringServiceWithClock(store, cache, attempts, time.Now)
}

// NewAuthoringServiceWithClock allows deterministic timestamps in tests.
func NewAuthoringServiceWithClock(store QuizStore, cache QuizCache, attempts AttemptRepository, now func() time.Time) *AuthoringService {
	return &AuthoringService{store: store, cache: cache, attempts: attempts, now: now, newID: uuid.NewString}
}

// CreateQuiz stores a new quiz authored by authorID together with any
// questions it carries.
func (s *AuthoringService) CreateQuiz(ctx context.Context, authorID string, quiz domain.Quiz) (domain.Quiz, error) {
	if err := quiz.Check(); err != nil {
		return domain.Quiz{}, err
	}
	now := s.now()
	if quiz.ID == "" {
		quiz.ID = s.newID()
	}
	quiz.AuthorID = authorID
	quiz.CreatedAt = now
	quiz.UpdatedAt = now

	questions := quiz.Questions
	quiz.Questions = make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		prepared, err := s.prepareQuestion(quiz, q, "")
		if err != nil {
			return domain.Quiz{}, err
		}
		quiz.Questions = append(quiz.Questions, prepared)
	}

	if err := s.store.CreateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	slog.Info("quiz created", "quiz_id", quiz.ID, "author_id", authorID, "questions", len(quiz.Questions))
	return quiz, nil
}

// GetQuiz returns the stored quiz including answer keys.
func (s *AuthoringService) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.store.LoadQuiz(ctx, quizID)
}

// UpdateQuiz replaces the metadata of a quiz. Identity, authorship and the
// question set are kept.
func (s *AuthoringService) UpdateQuiz(ctx context.Context, quizID string, changes domain.Quiz) (domain.Quiz, error) {
	current, err := s.store.LoadQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	changes.ID = current.ID
	changes.AuthorID = current.AuthorID
	changes.CreatedAt = current.CreatedAt
	changes.Questions = current.Questions
	changes.UpdatedAt = s.now()
	if err := changes.Check(); err != nil {
		return domain.Quiz{}, err
	}
	if err := s.store.UpdateQuiz(ctx, changes); err != nil {
		return domain.Quiz{}, err
	}
	s.invalidate(ctx, quizID)
	slog.Info("quiz updated", "quiz_id", quizID)
	return changes, nil
}

// Deactivate closes the quiz to new attempts. Past attempts keep referencing it.
func (s *AuthoringService) Deactivate(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz, err := s.store.LoadQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz.IsActive = false
	quiz.UpdatedAt = s.now()
	if err := s.store.UpdateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	s.invalidate(ctx, quizID)
	slog.Info("quiz deactivated", "quiz_id", quizID)
	return quiz, nil
}

// AddQuestion appends a question. Order 0 means "after the last question".
func (s *AuthoringService) AddQuestion(ctx context.Context, quizID string, question domain.Question) (domain.Question, error) {
	quiz, err := s.store.LoadQuiz(ctx, quizID)
	if err != nil {
		return domain.Question{}, err
	}
	question.ID = ""
	prepared, err := s.prepareQuestion(quiz, question, "")
	if err != nil {
		return domain.Question{}, err
	}
	if err := s.store.SaveQuestion(ctx, prepared); err != nil {
		return domain.Question{}, err
	}
	s.invalidate(ctx, quizID)
	slog.Info("question added", "quiz_id", quizID, "question_id", prepared.ID, "type", prepared.Type)
	return prepared, nil
}

// UpdateQuestion replaces a question in place. Order 0 keeps the current order.
func (s *AuthoringService) UpdateQuestion(ctx context.Context, quizID, questionID string, question domain.Question) (domain.Question, error) {
	quiz, err := s.store.LoadQuiz(ctx, quizID)
	if err != nil {
		return domain.Question{}, err
	}
	current, ok := quiz.Question(questionID)
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	question.ID = questionID
	if question.Order == 0 {
		question.Order = current.Order
	}
	prepared, err := s.prepareQuestion(quiz, question, questionID)
	if err != nil {
		return domain.Question{}, err
	}
	if err := s.store.SaveQuestion(ctx, prepared); err != nil {
		return domain.Question{}, err
	}
	s.invalidate(ctx, quizID)
	slog.Info("question updated", "quiz_id", quizID, "question_id", questionID)
	return prepared, nil
}

// DeleteQuestion removes a question. Remaining orders are not compacted.
func (s *AuthoringService) DeleteQuestion(ctx context.Context, quizID, questionID string) error {
	quiz, err := s.store.LoadQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	if _, ok := quiz.Question(questionID); !ok {
		return domain.ErrQuestionNotFound
	}
	if err := s.store.DeleteQuestion(ctx, quizID, questionID); err != nil {
		return err
	}
	s.invalidate(ctx, quizID)
	slog.Info("question deleted", "quiz_id", quizID, "question_id", questionID)
	return nil
}

// Summary counts attempts by status and averages the percentage of graded ones.
func (s *AuthoringService) Summary(ctx context.Context, quizID string) (QuizSummary, error) {
	quiz, err := s.store.LoadQuiz(ctx, quizID)
	if err != nil {
		return QuizSummary{}, err
	}
	attempts, err := s.attempts.ListByQuiz(ctx, quizID)
	if err != nil {
		return QuizSummary{}, err
	}

	summary := QuizSummary{
		QuizID:         quizID,
		TotalQuestions: quiz.TotalQuestions(),
		TotalPoints:    quiz.TotalPoints(),
		Attempts:       make(map[domain.AttemptStatus]int),
	}
	sum := decimal.Zero
	graded := 0
	for _, a := range attempts {
		summary.Attempts[a.Status]++
		if a.Status != domain.StatusCompleted {
			continue
		}
		graded++
		sum = sum.Add(decimal.NewFromFloat(a.Percentage))
		if a.IsPassed {
			summary.Passed++
		}
	}
	if graded > 0 {
		summary.AverageScore, _ = sum.Div(decimal.NewFromInt(int64(graded))).Round(2).Float64()
	}
	return summary, nil
}

// prepareQuestion normalizes q for quiz and checks it. selfID is the id of
// the question being replaced, if any, so it does not collide with itself.
func (s *AuthoringService) prepareQuestion(quiz domain.Quiz, q domain.Question, selfID string) (domain.Question, error) {
	q.Normalize()
	q.QuizID = quiz.ID
	if q.ID == "" {
		q.ID = s.newID()
	}
	if q.Order == 0 {
		q.Order = quiz.NextQuestionOrder()
	}
	if err := q.Check(); err != nil {
		return domain.Question{}, err
	}
	for _, other := range quiz.Questions {
		if other.ID != selfID && other.Order == q.Order {
			return domain.Question{}, fmt.Errorf("%w: order %d", domain.ErrDuplicateOrder, q.Order)
		}
	}
	return q, nil
}

func (s *AuthoringService) invalidate(ctx context.Context, quizID string) {
	if err := s.cache.Invalidate(ctx, quizID); err != nil {
		slog.Warn("quiz cache invalidation failed", "quiz_id", quizID, "error", err)
	}
}
