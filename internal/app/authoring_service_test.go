package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"academy-quiz-service/internal/app"
	"academy-quiz-service/internal/domain"
	"academy-quiz-service/internal/infra/memory"
)

func newAuthoring() (*app.AuthoringService, *app.AttemptService, *memory.QuizRepository) {
	store := memory.NewQuizStore()
	attempts := memory.NewAttemptStore()
	cache := memory.NewQuizRepository(store, time.Hour)
	return app.NewAuthoringService(store, cache, attempts),
		app.NewAttemptService(cache, attempts, memory.NewFeedStore()),
		cache
}

func TestCreateQuizAssignsIDsAndOrders(t *testing.T) {
	ctx := context.Background()
	authoring, _, _ := newAuthoring()

	quiz, err := authoring.CreateQuiz(ctx, "author-1", domain.Quiz{
		Title:        "Capitals",
		PassingScore: 50,
		IsActive:     true,
		Questions: []domain.Question{
			{Text: "Capital of France?", Type: domain.TypeFillBlanks, Key: domain.AnswerKey{Blanks: []string{"Paris"}}},
			{Text: "Pick Rome", Type: domain.TypeSingleChoice, Options: []string{"Rome", "Oslo"}, Key: domain.AnswerKey{Option: "Rome"}, Points: 3},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if quiz.ID == "" || quiz.AuthorID != "author-1" || quiz.CreatedAt.IsZero() {
		t.Fatalf("expected identity filled in, got %+v", quiz)
	}
	if quiz.Questions[0].Order != 1 || quiz.Questions[1].Order != 2 {
		t.Fatalf("expected sequential orders, got %d, %d", quiz.Questions[0].Order, quiz.Questions[1].Order)
	}
	if quiz.Questions[0].Points != 1 || quiz.Questions[0].ID == "" || quiz.Questions[0].QuizID != quiz.ID {
		t.Fatalf("expected defaults on first question, got %+v", quiz.Questions[0])
	}

	if _, err := authoring.CreateQuiz(ctx, "author-1", domain.Quiz{Title: "bad", PassingScore: 120}); !errors.Is(err, domain.ErrInvalidQuiz) {
		t.Fatalf("expected invalid quiz, got %v", err)
	}
	_, err = authoring.CreateQuiz(ctx, "author-1", domain.Quiz{Title: "bad", Questions: []domain.Question{
		{Text: "x", Type: domain.TypeSingleChoice, Options: []string{"A"}, Key: domain.AnswerKey{Option: "B"}},
	}})
	if !errors.Is(err, domain.ErrInvalidQuestion) {
		t.Fatalf("expected invalid question, got %v", err)
	}
}

func TestQuestionEditsInvalidateCache(t *testing.T) {
	ctx := context.Background()
	authoring, _, cache := newAuthoring()
	quiz, _ := authoring.CreateQuiz(ctx, "author-1", domain.Quiz{Title: "T", IsActive: true})

	if cached, _ := cache.GetQuiz(ctx, quiz.ID); len(cached.Questions) != 0 {
		t.Fatalf("expected empty quiz cached")
	}
	q, err := authoring.AddQuestion(ctx, quiz.ID, domain.Question{Text: "Sky is blue", Type: domain.TypeTrueFalse, Key: domain.AnswerKey{Truth: true}})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	cached, _ := cache.GetQuiz(ctx, quiz.ID)
	if len(cached.Questions) != 1 || cached.Questions[0].ID != q.ID {
		t.Fatalf("expected cache to see the new question, got %+v", cached.Questions)
	}

	q.Text = "Grass is blue"
	q.Key.Truth = false
	updated, err := authoring.UpdateQuestion(ctx, quiz.ID, q.ID, domain.Question{Text: q.Text, Type: q.Type, Key: q.Key})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Order != q.Order {
		t.Fatalf("expected order kept, got %d", updated.Order)
	}
	cached, _ = cache.GetQuiz(ctx, quiz.ID)
	if cached.Questions[0].Text != "Grass is blue" {
		t.Fatalf("expected cache refreshed, got %q", cached.Questions[0].Text)
	}

	if err := authoring.DeleteQuestion(ctx, quiz.ID, q.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := authoring.DeleteQuestion(ctx, quiz.ID, q.ID); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	cached, _ = cache.GetQuiz(ctx, quiz.ID)
	if len(cached.Questions) != 0 {
		t.Fatalf("expected question gone from cache")
	}
}

func TestDuplicateOrderRejected(t *testing.T) {
	ctx := context.Background()
	authoring, _, _ := newAuthoring()
	quiz, _ := authoring.CreateQuiz(ctx, "a", domain.Quiz{Title: "T"})

	first, _ := authoring.AddQuestion(ctx, quiz.ID, domain.Question{Text: "one", Type: domain.TypeDescriptive, Order: 4})
	if _, err := authoring.AddQuestion(ctx, quiz.ID, domain.Question{Text: "two", Type: domain.TypeDescriptive, Order: 4}); !errors.Is(err, domain.ErrDuplicateOrder) {
		t.Fatalf("expected duplicate order, got %v", err)
	}
	next, _ := authoring.AddQuestion(ctx, quiz.ID, domain.Question{Text: "three", Type: domain.TypeDescriptive})
	if next.Order != 5 {
		t.Fatalf("expected next order 5, got %d", next.Order)
	}
	if _, err := authoring.UpdateQuestion(ctx, quiz.ID, first.ID, domain.Question{Text: "one", Type: domain.TypeDescriptive, Order: 4}); err != nil {
		t.Fatalf("expected question to keep its own order, got %v", err)
	}
}

func TestDeactivateBlocksNewAttempts(t *testing.T) {
	ctx := context.Background()
	authoring, attempts, _ := newAuthoring()
	quiz, _ := authoring.CreateQuiz(ctx, "a", domain.Quiz{Title: "T", IsActive: true, AllowRetake: true})

	if _, err := attempts.Start(ctx, quiz.ID, "s1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := authoring.Deactivate(ctx, quiz.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := attempts.Start(ctx, quiz.ID, "s2"); !errors.Is(err, domain.ErrQuizNotAvailable) {
		t.Fatalf("expected not available after deactivation, got %v", err)
	}

	updated, err := authoring.UpdateQuiz(ctx, quiz.ID, domain.Quiz{Title: "Renamed", IsActive: true, PassingScore: 70})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.AuthorID != "a" || !updated.CreatedAt.Equal(quiz.CreatedAt) {
		t.Fatalf("expected identity preserved, got %+v", updated)
	}
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	authoring, attempts, _ := newAuthoring()
	quiz, _ := authoring.CreateQuiz(ctx, "a", domain.Quiz{
		Title: "T", IsActive: true, AllowRetake: true, PassingScore: 50,
		Questions: []domain.Question{
			{Text: "pick A", Type: domain.TypeSingleChoice, Options: []string{"A", "B", "C"}, Key: domain.AnswerKey{Option: "A"}, Points: 3},
		},
	})
	qid := quiz.Questions[0].ID

	for student, answer := range map[string]string{"s1": `"A"`, "s2": `"B"`} {
		v, _ := attempts.Start(ctx, quiz.ID, student)
		if _, err := attempts.Complete(ctx, v.ID, student, answers(map[string]string{qid: answer})); err != nil {
			t.Fatalf("complete %s: %v", student, err)
		}
	}
	v, _ := attempts.Start(ctx, quiz.ID, "s3")
	_, _ = attempts.Abandon(ctx, v.ID, "s3")

	summary, err := authoring.Summary(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.TotalQuestions != 1 || summary.TotalPoints != 3 {
		t.Fatalf("unexpected totals: %+v", summary)
	}
	if summary.Attempts[domain.StatusCompleted] != 2 || summary.Attempts[domain.StatusAbandoned] != 1 {
		t.Fatalf("unexpected counts: %+v", summary.Attempts)
	}
	if summary.AverageScore != 50 || summary.Passed != 1 {
		t.Fatalf("expected average 50 with one pass, got %+v", summary)
	}
}
