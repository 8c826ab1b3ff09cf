package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"academy-quiz-service/internal/app"
	"academy-quiz-service/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
)

// Handler serves the REST API and the live attempt channel.
type Handler struct {
	attempts  *app.AttemptService
	authoring *app.AuthoringService
	validate  *validator.Validate
	upgrader  websocket.Upgrader
	tick      time.Duration
}

// NewHandler builds a Handler. tick is how often live channels push the
// remaining time and enforce the deadline.
func NewHandler(attempts *app.AttemptService, authoring *app.AuthoringService, tick time.Duration) *Handler {
	if tick <= 0 {
		tick = time.Second
	}
	return &Handler{
		attempts:  attempts,
		authoring: authoring,
		validate:  validator.New(),
		tick:      tick,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// NewRouter mounts the handler behind the standard middleware.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	h.Routes(r)
	return r
}

// Routes registers all API routes.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/quizzes", func(r chi.Router) {
		r.Post("/", h.handleCreateQuiz)
		r.Route("/{quizID}", func(r chi.Router) {
			r.Get("/", h.handleGetQuiz)
			r.Put("/", h.handleUpdateQuiz)
			r.Post("/deactivate", h.handleDeactivate)
			r.Get("/summary", h.handleSummary)
			r.Post("/questions", h.handleAddQuestion)
			r.Put("/questions/{questionID}", h.handleUpdateQuestion)
			r.Delete("/questions/{questionID}", h.handleDeleteQuestion)
			r.Post("/attempts", h.handleStartAttempt)
		})
	})
	r.Route("/attempts/{attemptID}", func(r chi.Router) {
		r.Get("/", h.handleGetAttempt)
		r.Put("/answers", h.handleSubmitAnswers)
		r.Post("/complete", h.handleComplete)
		r.Post("/abandon", h.handleAbandon)
		r.Post("/timeout", h.handleTimeout)
		r.Post("/grades", h.handleGrade)
	})
	r.Get("/ws/attempts/{attemptID}", h.ServeAttempt)
}

func (h *Handler) handleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req quizRequest
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	quiz, err := h.authoring.CreateQuiz(r.Context(), user, req.quiz())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

// handleGetQuiz returns the full quiz to its author and the student view to
// everyone else.
func (h *Handler) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	quiz, err := h.authoring.GetQuiz(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if quiz.AuthorID == user {
		writeJSON(w, http.StatusOK, quiz)
		return
	}
	writeJSON(w, http.StatusOK, publicQuiz{
		ID:             quiz.ID,
		Title:          quiz.Title,
		Description:    quiz.Description,
		Category:       quiz.Category,
		Difficulty:     quiz.Difficulty,
		TimeLimit:      quiz.TimeLimit,
		PassingScore:   quiz.PassingScore,
		IsActive:       quiz.IsActive,
		StartDate:      quiz.StartDate,
		EndDate:        quiz.EndDate,
		AllowRetake:    quiz.AllowRetake,
		MaxAttempts:    quiz.EffectiveMaxAttempts(),
		TotalQuestions: quiz.TotalQuestions(),
		TotalPoints:    quiz.TotalPoints(),
	})
}

type publicQuiz struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Category       string            `json:"category"`
	Difficulty     domain.Difficulty `json:"difficulty"`
	TimeLimit      int               `json:"timeLimit"`
	PassingScore   int               `json:"passingScore"`
	IsActive       bool              `json:"isActive"`
	StartDate      *time.Time        `json:"startDate,omitempty"`
	EndDate        *time.Time        `json:"endDate,omitempty"`
	AllowRetake    bool              `json:"allowRetake"`
	MaxAttempts    int               `json:"maxAttempts"`
	TotalQuestions int               `json:"totalQuestions"`
	TotalPoints    float64           `json:"totalPoints"`
}

func (h *Handler) handleUpdateQuiz(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizID")
	if err := h.requireAuthor(r, quizID); err != nil {
		writeError(w, r, err)
		return
	}
	var req quizRequest
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	quiz, err := h.authoring.UpdateQuiz(r.Context(), quizID, req.quiz())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizID")
	if err := h.requireAuthor(r, quizID); err != nil {
		writeError(w, r, err)
		return
	}
	quiz, err := h.authoring.Deactivate(r.Context(), quizID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizID")
	if err := h.requireAuthor(r, quizID); err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := h.authoring.Summary(r.Context(), quizID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleAddQuestion(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizID")
	if err := h.requireAuthor(r, quizID); err != nil {
		writeError(w, r, err)
		return
	}
	var req questionRequest
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	question, err := h.authoring.AddQuestion(r.Context(), quizID, req.question())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, question)
}

func (h *Handler) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizID")
	if err := h.requireAuthor(r, quizID); err != nil {
		writeError(w, r, err)
		return
	}
	var req questionRequest
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	question, err := h.authoring.UpdateQuestion(r.Context(), quizID, chi.URLParam(r, "questionID"), req.question())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, question)
}

func (h *Handler) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizID")
	if err := h.requireAuthor(r, quizID); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.authoring.DeleteQuestion(r.Context(), quizID, chi.URLParam(r, "questionID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleStartAttempt(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.attempts.Start(r.Context(), chi.URLParam(r, "quizID"), user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *Handler) handleGetAttempt(w http.ResponseWriter, r *http.Request) {
	h.attemptAction(w, r, h.attempts.Get)
}

func (h *Handler) handleAbandon(w http.ResponseWriter, r *http.Request) {
	h.attemptAction(w, r, h.attempts.Abandon)
}

func (h *Handler) handleTimeout(w http.ResponseWriter, r *http.Request) {
	h.attemptAction(w, r, h.attempts.Timeout)
}

func (h *Handler) handleSubmitAnswers(w http.ResponseWriter, r *http.Request) {
	var req answersRequest
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.attemptAction(w, r, func(ctx context.Context, attemptID, studentID string) (app.AttemptView, error) {
		return h.attempts.SubmitAnswers(ctx, attemptID, studentID, req.Answers)
	})
}

// handleComplete accepts an optional final batch of answers.
func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req answersRequest
	if err := h.decode(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, err)
		return
	}
	h.attemptAction(w, r, func(ctx context.Context, attemptID, studentID string) (app.AttemptView, error) {
		return h.attempts.Complete(ctx, attemptID, studentID, req.Answers)
	})
}

func (h *Handler) handleGrade(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req gradeRequest
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.attempts.GradeDescriptive(r.Context(), chi.URLParam(r, "attemptID"), user, req.QuestionID, *req.Points, req.Feedback)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) attemptAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, attemptID, studentID string) (app.AttemptView, error)) {
	user, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := action(r.Context(), chi.URLParam(r, "attemptID"), user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) requireAuthor(r *http.Request, quizID string) error {
	user, err := userID(r)
	if err != nil {
		return err
	}
	quiz, err := h.authoring.GetQuiz(r.Context(), quizID)
	if err != nil {
		return err
	}
	if quiz.AuthorID != user {
		return domain.ErrNotAuthor
	}
	return nil
}
