package http

import (
	"encoding/json"
	"time"

	"academy-quiz-service/internal/domain"
)

type quizRequest struct {
	Title        string            `json:"title" validate:"required,max=200"`
	Description  string            `json:"description"`
	Category     string            `json:"category" validate:"max=100"`
	Difficulty   string            `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	TimeLimit    int               `json:"timeLimit" validate:"gte=0"`
	PassingScore int               `json:"passingScore" validate:"gte=0,lte=100"`
	IsActive     *bool             `json:"isActive"`
	StartDate    *time.Time        `json:"startDate"`
	EndDate      *time.Time        `json:"endDate"`
	IsRandomized bool              `json:"isRandomized"`
	AllowRetake  bool              `json:"allowRetake"`
	MaxAttempts  int               `json:"maxAttempts" validate:"gte=0"`
	Questions    []questionRequest `json:"questions" validate:"dive"`
}

// quiz converts the request. New quizzes are active unless the author says otherwise.
func (r quizRequest) quiz() domain.Quiz {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	q := domain.Quiz{
		Title:        r.Title,
		Description:  r.Description,
		Category:     r.Category,
		Difficulty:   domain.Difficulty(r.Difficulty),
		TimeLimit:    r.TimeLimit,
		PassingScore: r.PassingScore,
		IsActive:     active,
		StartDate:    r.StartDate,
		EndDate:      r.EndDate,
		IsRandomized: r.IsRandomized,
		AllowRetake:  r.AllowRetake,
		MaxAttempts:  r.MaxAttempts,
	}
	for _, question := range r.Questions {
		q.Questions = append(q.Questions, question.question())
	}
	return q
}

type questionRequest struct {
	ID            string                `json:"id"`
	Text          string                `json:"text" validate:"required"`
	Type          string                `json:"type" validate:"required,oneof=single_choice multi_choice true_false multi_true_false fill_blanks matching descriptive"`
	Options       []string              `json:"options" validate:"omitempty,dive,required"`
	Key           domain.AnswerKey      `json:"key"`
	SubStatements []domain.SubStatement `json:"subStatements"`
	Points        int                   `json:"points" validate:"gte=0"`
	Order         int                   `json:"order" validate:"gte=0"`
	Explanation   string                `json:"explanation"`
	IsRequired    bool                  `json:"isRequired"`
}

func (r questionRequest) question() domain.Question {
	return domain.Question{
		ID:            r.ID,
		Text:          r.Text,
		Type:          domain.QuestionType(r.Type),
		Options:       r.Options,
		Key:           r.Key,
		SubStatements: r.SubStatements,
		Points:        r.Points,
		Order:         r.Order,
		Explanation:   r.Explanation,
		IsRequired:    r.IsRequired,
	}
}

type answersRequest struct {
	Answers map[string]json.RawMessage `json:"answers"`
}

type gradeRequest struct {
	QuestionID string   `json:"questionId" validate:"required"`
	Points     *float64 `json:"points" validate:"required,gte=0"`
	Feedback   string   `json:"feedback" validate:"max=2000"`
}

type errorResponse struct {
	Error string `json:"error"`
}
