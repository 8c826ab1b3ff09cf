package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"academy-quiz-service/internal/domain"
)

// QuizStore is an in-memory implementation of app.QuizStore. It also serves
// as the loader behind the quiz cache when no database is configured.
type QuizStore struct {
	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
}

func NewQuizStore(quizzes ...domain.Quiz) *QuizStore {
	s := &QuizStore{quizzes: make(map[string]domain.Quiz, len(quizzes))}
	for _, quiz := range quizzes {
		s.quizzes[quiz.ID] = quiz.Clone()
	}
	return s
}

func (s *QuizStore) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz.Clone(), nil
}

func (s *QuizStore) CreateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quiz.ID]; ok {
		return fmt.Errorf("%w: quiz %s", domain.ErrDuplicateID, quiz.ID)
	}
	for _, other := range s.quizzes {
		for _, q := range quiz.Questions {
			if _, taken := other.Question(q.ID); taken {
				return fmt.Errorf("%w: question %s", domain.ErrDuplicateID, q.ID)
			}
		}
	}
	quiz = quiz.Clone()
	sortQuestions(quiz.Questions)
	s.quizzes[quiz.ID] = quiz
	return nil
}

func (s *QuizStore) UpdateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.quizzes[quiz.ID]
	if !ok {
		return domain.ErrQuizNotFound
	}
	quiz = quiz.Clone()
	quiz.Questions = current.Questions
	s.quizzes[quiz.ID] = quiz
	return nil
}

// SaveQuestion inserts the question or replaces the one with the same id.
func (s *QuizStore) SaveQuestion(_ context.Context, question domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[question.QuizID]
	if !ok {
		return domain.ErrQuizNotFound
	}
	questions := make([]domain.Question, 0, len(quiz.Questions)+1)
	for _, q := range quiz.Questions {
		if q.ID != question.ID {
			questions = append(questions, q)
		}
	}
	question.Normalize()
	questions = append(questions, question)
	sortQuestions(questions)
	quiz.Questions = questions
	s.quizzes[quiz.ID] = quiz
	return nil
}

func (s *QuizStore) DeleteQuestion(_ context.Context, quizID, questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.ErrQuizNotFound
	}
	questions := make([]domain.Question, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		if q.ID != questionID {
			questions = append(questions, q)
		}
	}
	if len(questions) == len(quiz.Questions) {
		return domain.ErrQuestionNotFound
	}
	quiz.Questions = questions
	s.quizzes[quizID] = quiz
	return nil
}

func sortQuestions(questions []domain.Question) {
	sort.SliceStable(questions, func(i, j int) bool { return questions[i].Order < questions[j].Order })
}
