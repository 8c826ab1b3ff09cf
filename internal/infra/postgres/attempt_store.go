package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"academy-quiz-service/internal/domain"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// AttemptStore persists attempts through bun. Save is a conditional UPDATE
// on the version column.
type AttemptStore struct {
	db *bun.DB
}

func NewAttemptStore(db *bun.DB) *AttemptStore {
	return &AttemptStore{db: db}
}

func (s *AttemptStore) Create(ctx context.Context, attempt domain.Attempt) error {
	row := newAttemptRow(attempt)
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) {
			switch pgErr.Field('C') {
			case uniqueViolation:
				return fmt.Errorf("%w: attempt %s already exists", domain.ErrAttemptConflict, attempt.ID)
			case foreignKeyViolation:
				return domain.ErrQuizNotFound
			}
		}
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) Get(ctx context.Context, attemptID string) (domain.Attempt, error) {
	var row attemptRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", attemptID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("get attempt: %w", err)
	}
	return row.attempt(), nil
}

func (s *AttemptStore) ListByStudent(ctx context.Context, quizID, studentID string) ([]domain.Attempt, error) {
	return s.list(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("quiz_id = ?", quizID).Where("student_id = ?", studentID)
	})
}

func (s *AttemptStore) ListByQuiz(ctx context.Context, quizID string) ([]domain.Attempt, error) {
	return s.list(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("quiz_id = ?", quizID)
	})
}

func (s *AttemptStore) Save(ctx context.Context, attempt domain.Attempt, expectedVersion int) error {
	row := newAttemptRow(attempt)
	res, err := s.db.NewUpdate().
		Model(&row).
		WherePK().
		Where("version = ?", expectedVersion).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	exists, err := s.db.NewSelect().Model((*attemptRow)(nil)).Where("id = ?", attempt.ID).Exists(ctx)
	if err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}
	if !exists {
		return domain.ErrAttemptNotFound
	}
	return fmt.Errorf("%w: version moved past %d", domain.ErrAttemptConflict, expectedVersion)
}

func (s *AttemptStore) list(ctx context.Context, filter func(*bun.SelectQuery) *bun.SelectQuery) ([]domain.Attempt, error) {
	var rows []attemptRow
	q := s.db.NewSelect().Model(&rows)
	if err := filter(q).Order("started_at ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	out := make([]domain.Attempt, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.attempt())
	}
	return out, nil
}
