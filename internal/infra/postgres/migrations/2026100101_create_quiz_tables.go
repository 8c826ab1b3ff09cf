package migrations

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

var Migrations = migrate.NewMigrations()

var createQuizTables = []string{
	`CREATE TABLE IF NOT EXISTS quizzes (
		id            TEXT PRIMARY KEY,
		author_id     TEXT NOT NULL DEFAULT '',
		title         TEXT NOT NULL,
		description   TEXT NOT NULL DEFAULT '',
		category      TEXT NOT NULL DEFAULT '',
		difficulty    TEXT NOT NULL DEFAULT '',
		time_limit    INTEGER NOT NULL DEFAULT 0 CHECK (time_limit >= 0),
		passing_score INTEGER NOT NULL DEFAULT 0 CHECK (passing_score BETWEEN 0 AND 100),
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		start_date    TIMESTAMPTZ,
		end_date      TIMESTAMPTZ,
		is_randomized BOOLEAN NOT NULL DEFAULT FALSE,
		allow_retake  BOOLEAN NOT NULL DEFAULT FALSE,
		max_attempts  INTEGER NOT NULL DEFAULT 0 CHECK (max_attempts >= 0),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS questions (
		id             TEXT PRIMARY KEY,
		quiz_id        TEXT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
		text           TEXT NOT NULL,
		type           TEXT NOT NULL,
		options        JSONB,
		answer_key     JSONB,
		sub_statements JSONB,
		points         INTEGER NOT NULL DEFAULT 1,
		order_index    INTEGER NOT NULL,
		explanation    TEXT NOT NULL DEFAULT '',
		is_required    BOOLEAN NOT NULL DEFAULT FALSE,
		CONSTRAINT questions_quiz_order_key UNIQUE (quiz_id, order_index)
	)`,
	`CREATE TABLE IF NOT EXISTS attempts (
		id           TEXT PRIMARY KEY,
		quiz_id      TEXT NOT NULL REFERENCES quizzes(id),
		student_id   TEXT NOT NULL,
		status       TEXT NOT NULL,
		started_at   TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ,
		time_limit   INTEGER NOT NULL DEFAULT 0,
		passing_score INTEGER NOT NULL DEFAULT 0,
		time_taken   INTEGER NOT NULL DEFAULT 0,
		score        DOUBLE PRECISION NOT NULL DEFAULT 0,
		total_score  DOUBLE PRECISION NOT NULL DEFAULT 0,
		percentage   DOUBLE PRECISION NOT NULL DEFAULT 0,
		is_passed    BOOLEAN NOT NULL DEFAULT FALSE,
		answers      JSONB,
		results      JSONB,
		feedback     TEXT NOT NULL DEFAULT '',
		version      INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS attempts_quiz_student_idx ON attempts (quiz_id, student_id)`,
}

var dropQuizTables = []string{
	`DROP TABLE IF EXISTS attempts`,
	`DROP TABLE IF EXISTS questions`,
	`DROP TABLE IF EXISTS quizzes`,
}

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			return execAll(ctx, db, createQuizTables)
		},
		func(ctx context.Context, db *bun.DB) error {
			return execAll(ctx, db, dropQuizTables)
		},
	)
}

func execAll(ctx context.Context, db *bun.DB, statements []string) error {
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
