package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"academy-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuizLoader reads a quiz and its ordered questions from Postgres. It is the
// read path behind the quiz cache.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var (
		quiz       domain.Quiz
		difficulty string
	)
	err := l.pool.QueryRow(ctx, `
		SELECT id, author_id, title, description, category, difficulty, time_limit, passing_score,
		       is_active, start_date, end_date, is_randomized, allow_retake, max_attempts, created_at, updated_at
		FROM quizzes WHERE id=$1`, quizID).Scan(
		&quiz.ID, &quiz.AuthorID, &quiz.Title, &quiz.Description, &quiz.Category, &difficulty,
		&quiz.TimeLimit, &quiz.PassingScore, &quiz.IsActive, &quiz.StartDate, &quiz.EndDate,
		&quiz.IsRandomized, &quiz.AllowRetake, &quiz.MaxAttempts, &quiz.CreatedAt, &quiz.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	quiz.Difficulty = domain.Difficulty(difficulty)

	rows, err := l.pool.Query(ctx, `
		SELECT id, quiz_id, text, type, options, answer_key, sub_statements, points, order_index, explanation, is_required
		FROM questions WHERE quiz_id=$1 ORDER BY order_index`, quizID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			q                           domain.Question
			qtype                       string
			options, key, subStatements []byte
		)
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Text, &qtype, &options, &key, &subStatements,
			&q.Points, &q.Order, &q.Explanation, &q.IsRequired); err != nil {
			return domain.Quiz{}, fmt.Errorf("scan question: %w", err)
		}
		q.Type = domain.QuestionType(qtype)
		if err := unmarshalColumns(
			column{"options", options, &q.Options},
			column{"answer_key", key, &q.Key},
			column{"sub_statements", subStatements, &q.SubStatements},
		); err != nil {
			return domain.Quiz{}, fmt.Errorf("question %s: %w", q.ID, err)
		}
		quiz.Questions = append(quiz.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}
	return quiz, nil
}

type column struct {
	name string
	raw  []byte
	dst  any
}

func unmarshalColumns(cols ...column) error {
	for _, c := range cols {
		if len(c.raw) == 0 || string(c.raw) == "null" {
			continue
		}
		if err := json.Unmarshal(c.raw, c.dst); err != nil {
			return fmt.Errorf("unmarshal %s: %w", c.name, err)
		}
	}
	return nil
}
