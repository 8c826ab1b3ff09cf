package postgres

import (
	"encoding/json"
	"time"

	"academy-quiz-service/internal/domain"
	"github.com/uptrace/bun"
)

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID           string     `bun:"id,pk"`
	AuthorID     string     `bun:"author_id"`
	Title        string     `bun:"title"`
	Description  string     `bun:"description"`
	Category     string     `bun:"category"`
	Difficulty   string     `bun:"difficulty"`
	TimeLimit    int        `bun:"time_limit"`
	PassingScore int        `bun:"passing_score"`
	IsActive     bool       `bun:"is_active"`
	StartDate    *time.Time `bun:"start_date"`
	EndDate      *time.Time `bun:"end_date"`
	IsRandomized bool       `bun:"is_randomized"`
	AllowRetake  bool       `bun:"allow_retake"`
	MaxAttempts  int        `bun:"max_attempts"`
	CreatedAt    time.Time  `bun:"created_at"`
	UpdatedAt    time.Time  `bun:"updated_at"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions"`

	ID            string                `bun:"id,pk"`
	QuizID        string                `bun:"quiz_id"`
	Text          string                `bun:"text"`
	Type          string                `bun:"type"`
	Options       []string              `bun:"options,type:jsonb"`
	AnswerKey     domain.AnswerKey      `bun:"answer_key,type:jsonb"`
	SubStatements []domain.SubStatement `bun:"sub_statements,type:jsonb"`
	Points        int                   `bun:"points"`
	Order         int                   `bun:"order_index"`
	Explanation   string                `bun:"explanation"`
	IsRequired    bool                  `bun:"is_required"`
}

type attemptRow struct {
	bun.BaseModel `bun:"table:attempts"`

	ID           string                     `bun:"id,pk"`
	QuizID       string                     `bun:"quiz_id"`
	StudentID    string                     `bun:"student_id"`
	Status       string                     `bun:"status"`
	StartedAt    time.Time                  `bun:"started_at"`
	CompletedAt  *time.Time                 `bun:"completed_at"`
	TimeLimit    int                        `bun:"time_limit"`
	PassingScore int                        `bun:"passing_score"`
	TimeTaken    int                        `bun:"time_taken"`
	Score        float64                    `bun:"score"`
	TotalScore   float64                    `bun:"total_score"`
	Percentage   float64                    `bun:"percentage"`
	IsPassed     bool                       `bun:"is_passed"`
	Answers      map[string]json.RawMessage `bun:"answers,type:jsonb"`
	Results      []domain.QuestionResult    `bun:"results,type:jsonb"`
	Feedback     string                     `bun:"feedback"`
	Version      int                        `bun:"version"`
}

func newQuizRow(q domain.Quiz) quizRow {
	return quizRow{
		ID:           q.ID,
		AuthorID:     q.AuthorID,
		Title:        q.Title,
		Description:  q.Description,
		Category:     q.Category,
		Difficulty:   string(q.Difficulty),
		TimeLimit:    q.TimeLimit,
		PassingScore: q.PassingScore,
		IsActive:     q.IsActive,
		StartDate:    q.StartDate,
		EndDate:      q.EndDate,
		IsRandomized: q.IsRandomized,
		AllowRetake:  q.AllowRetake,
		MaxAttempts:  q.MaxAttempts,
		CreatedAt:    q.CreatedAt,
		UpdatedAt:    q.UpdatedAt,
	}
}

func newQuestionRow(q domain.Question) questionRow {
	return questionRow{
		ID:            q.ID,
		QuizID:        q.QuizID,
		Text:          q.Text,
		Type:          string(q.Type),
		Options:       q.Options,
		AnswerKey:     q.Key,
		SubStatements: q.SubStatements,
		Points:        q.Points,
		Order:         q.Order,
		Explanation:   q.Explanation,
		IsRequired:    q.IsRequired,
	}
}

func newAttemptRow(a domain.Attempt) attemptRow {
	return attemptRow{
		ID:           a.ID,
		QuizID:       a.QuizID,
		StudentID:    a.StudentID,
		Status:       string(a.Status),
		StartedAt:    a.StartedAt,
		CompletedAt:  a.CompletedAt,
		TimeLimit:    a.TimeLimit,
		PassingScore: a.PassingScore,
		TimeTaken:    a.TimeTaken,
		Score:        a.Score,
		TotalScore:   a.TotalScore,
		Percentage:   a.Percentage,
		IsPassed:     a.IsPassed,
		Answers:      a.Answers,
		Results:      a.Results,
		Feedback:     a.Feedback,
		Version:      a.Version,
	}
}

func (r attemptRow) attempt() domain.Attempt {
	answers := r.Answers
	if answers == nil {
		answers = map[string]json.RawMessage{}
	}
	return domain.Attempt{
		ID:           r.ID,
		QuizID:       r.QuizID,
		StudentID:    r.StudentID,
		Status:       domain.AttemptStatus(r.Status),
		StartedAt:    r.StartedAt,
		CompletedAt:  r.CompletedAt,
		TimeLimit:    r.TimeLimit,
		PassingScore: r.PassingScore,
		TimeTaken:    r.TimeTaken,
		Score:        r.Score,
		TotalScore:   r.TotalScore,
		Percentage:   r.Percentage,
		IsPassed:     r.IsPassed,
		Answers:      answers,
		Results:      r.Results,
		Feedback:     r.Feedback,
		Version:      r.Version,
	}
}
