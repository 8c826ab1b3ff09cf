package postgres

import (
	"context"
	"errors"
	"fmt"

	"academy-quiz-service/internal/domain"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"

	questionOrderConstraint = "questions_quiz_order_key"
)

// QuizStore writes quizzes through bun and reads them back through the pgx
// loader, so authoring sees exactly what the scoring path loads.
type QuizStore struct {
	db     *bun.DB
	loader *QuizLoader
}

func NewQuizStore(db *bun.DB, loader *QuizLoader) *QuizStore {
	return &QuizStore{db: db, loader: loader}
}

func (s *QuizStore) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.loader.LoadQuiz(ctx, quizID)
}

func (s *QuizStore) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := newQuizRow(quiz)
		if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: quiz %s", domain.ErrDuplicateID, quiz.ID)
			}
			return fmt.Errorf("insert quiz: %w", err)
		}
		if len(quiz.Questions) == 0 {
			return nil
		}
		rows := make([]questionRow, 0, len(quiz.Questions))
		for _, q := range quiz.Questions {
			rows = append(rows, newQuestionRow(q))
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return questionError(err)
		}
		return nil
	})
}

func (s *QuizStore) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	row := newQuizRow(quiz)
	res, err := s.db.NewUpdate().
		Model(&row).
		ExcludeColumn("author_id", "created_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update quiz: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

// SaveQuestion upserts by question id.
func (s *QuizStore) SaveQuestion(ctx context.Context, question domain.Question) error {
	row := newQuestionRow(question)
	_, err := s.db.NewInsert().
		Model(&row).
		On("CONFLICT (id) DO UPDATE").
		Set("text = EXCLUDED.text").
		Set("type = EXCLUDED.type").
		Set("options = EXCLUDED.options").
		Set("answer_key = EXCLUDED.answer_key").
		Set("sub_statements = EXCLUDED.sub_statements").
		Set("points = EXCLUDED.points").
		Set("order_index = EXCLUDED.order_index").
		Set("explanation = EXCLUDED.explanation").
		Set("is_required = EXCLUDED.is_required").
		Exec(ctx)
	if err != nil {
		return questionError(err)
	}
	return nil
}

func (s *QuizStore) DeleteQuestion(ctx context.Context, quizID, questionID string) error {
	res, err := s.db.NewDelete().
		Model((*questionRow)(nil)).
		Where("id = ?", questionID).
		Where("quiz_id = ?", quizID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

// questionError maps constraint violations on the questions table. Only the
// (quiz_id, order_index) constraint means a taken order; any other unique
// violation is an id collision.
func questionError(err error) error {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		switch pgErr.Field('C') {
		case uniqueViolation:
			if pgErr.Field('n') == questionOrderConstraint {
				return fmt.Errorf("%w: %s", domain.ErrDuplicateOrder, pgErr.Field('M'))
			}
			return fmt.Errorf("%w: %s", domain.ErrDuplicateID, pgErr.Field('M'))
		case foreignKeyViolation:
			return domain.ErrQuizNotFound
		}
	}
	return fmt.Errorf("save question: %w", err)
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation
}
