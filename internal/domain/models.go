package domain

import (
	"encoding/json"
	"time"
)

// Difficulty is the author-declared difficulty of a quiz.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// QuestionType selects the answer shape and comparison rule of a question.
type QuestionType string

const (
	TypeSingleChoice   QuestionType = "single_choice"
	TypeMultiChoice    QuestionType = "multi_choice"
	TypeTrueFalse      QuestionType = "true_false"
	TypeMultiTrueFalse QuestionType = "multi_true_false"
	TypeFillBlanks     QuestionType = "fill_blanks"
	TypeMatching       QuestionType = "matching"
	TypeDescriptive    QuestionType = "descriptive"
)

// Valid reports whether t is one of the supported question types.
func (t QuestionType) Valid() bool {
	switch t {
	case TypeSingleChoice, TypeMultiChoice, TypeTrueFalse, TypeMultiTrueFalse,
		TypeFillBlanks, TypeMatching, TypeDescriptive:
		return true
	}
	return false
}

// AttemptStatus is the lifecycle state of an attempt.
type AttemptStatus string

const (
	StatusInProgress AttemptStatus = "in_progress"
	StatusCompleted  AttemptStatus = "completed"
	StatusAbandoned  AttemptStatus = "abandoned"
	StatusTimedOut   AttemptStatus = "timed_out"
)

// Terminal reports whether no transition leaves s.
func (s AttemptStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned || s == StatusTimedOut
}

// Quiz is a timed collection of questions with a pass threshold.
type Quiz struct {
	ID           string     `json:"id" yaml:"id"`
	AuthorID     string     `json:"authorId" yaml:"authorId"`
	Title        string     `json:"title" yaml:"title"`
	Description  string     `json:"description" yaml:"description"`
	Category     string     `json:"category" yaml:"category"`
	Difficulty   Difficulty `json:"difficulty" yaml:"difficulty"`
	TimeLimit    int        `json:"timeLimit" yaml:"timeLimit"` // minutes, 0 = untimed
	PassingScore int        `json:"passingScore" yaml:"passingScore"`
	IsActive     bool       `json:"isActive" yaml:"isActive"`
	StartDate    *time.Time `json:"startDate,omitempty" yaml:"startDate,omitempty"`
	EndDate      *time.Time `json:"endDate,omitempty" yaml:"endDate,omitempty"`
	IsRandomized bool       `json:"isRandomized" yaml:"isRandomized"`
	AllowRetake  bool       `json:"allowRetake" yaml:"allowRetake"`
	MaxAttempts  int        `json:"maxAttempts" yaml:"maxAttempts"` // 0 = unlimited
	Questions    []Question `json:"questions" yaml:"questions"`
	CreatedAt    time.Time  `json:"createdAt" yaml:"-"`
	UpdatedAt    time.Time  `json:"updatedAt" yaml:"-"`
}

// SubStatement is one independently scored clause of a multiple-true/false question.
type SubStatement struct {
	Text   string `json:"text" yaml:"text"`
	IsTrue bool   `json:"isTrue" yaml:"isTrue"`
	Points int    `json:"points" yaml:"points"`
}

// MatchPair links a left-hand item to its right-hand counterpart.
type MatchPair struct {
	Left  string `json:"left" yaml:"left"`
	Right string `json:"right" yaml:"right"`
}

// AnswerKey holds the correct answer. Only the field that belongs to the
// question's type is meaningful.
type AnswerKey struct {
	Option  string      `json:"option,omitempty" yaml:"option,omitempty"`   // single_choice
	Options []string    `json:"options,omitempty" yaml:"options,omitempty"` // multi_choice
	Truth   bool        `json:"truth,omitempty" yaml:"truth,omitempty"`     // true_false
	Blanks  []string    `json:"blanks,omitempty" yaml:"blanks,omitempty"`   // fill_blanks
	Pairs   []MatchPair `json:"pairs,omitempty" yaml:"pairs,omitempty"`     // matching
}

// Question is a single assessable item owned by exactly one quiz.
type Question struct {
	ID            string         `json:"id" yaml:"id"`
	QuizID        string         `json:"quizId" yaml:"-"`
	Text          string         `json:"text" yaml:"text"`
	Type          QuestionType   `json:"type" yaml:"type"`
	Options       []string       `json:"options,omitempty" yaml:"options,omitempty"`
	Key           AnswerKey      `json:"key" yaml:"key"`
	SubStatements []SubStatement `json:"subStatements,omitempty" yaml:"subStatements,omitempty"`
	Points        int            `json:"points" yaml:"points"` // defaults to 1 if zero
	Order         int            `json:"order" yaml:"order"`
	Explanation   string         `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	IsRequired    bool           `json:"isRequired" yaml:"isRequired"`
}

// QuestionResult is the frozen scoring outcome of one question within an attempt.
type QuestionResult struct {
	QuestionID  string  `json:"questionId"`
	Answered    bool    `json:"answered"`
	Correct     bool    `json:"correct"`
	Awarded     float64 `json:"awarded"`
	MaxPoints   float64 `json:"maxPoints"`
	NeedsReview bool    `json:"needsReview"`
	Graded      bool    `json:"graded"`
}

// Attempt is one student's single pass through a quiz.
type Attempt struct {
	ID          string        `json:"id"`
	QuizID      string        `json:"quizId"`
	StudentID   string        `json:"studentId"`
	Status      AttemptStatus `json:"status"`
	StartedAt   time.Time     `json:"startedAt"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
	TimeLimit   int           `json:"timeLimit"` // minutes, snapshot of the quiz at start
	TimeTaken   int           `json:"timeTaken"` // seconds
	// PassingScore is the quiz threshold recorded when the attempt was graded.
	PassingScore int                        `json:"passingScore,omitempty"`
	Score        float64                    `json:"score"`
	TotalScore   float64                    `json:"totalScore"`
	Percentage   float64                    `json:"percentage"`
	IsPassed     bool                       `json:"isPassed"`
	Answers      map[string]json.RawMessage `json:"answers"`
	Results      []QuestionResult           `json:"results,omitempty"`
	Feedback     string                     `json:"feedback,omitempty"`
	Version      int                        `json:"version"`
}
