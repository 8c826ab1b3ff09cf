package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"academy-quiz-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
)

func TestAttemptStoreRoundTripAndIndexes(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewAttemptStore(newClient(mr))
	ctx := context.Background()
	start := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	quiz := sampleQuiz()

	later := domain.NewAttempt("a2", quiz, "s1", start.Add(time.Hour))
	earlier := domain.NewAttempt("a1", quiz, "s1", start)
	other := domain.NewAttempt("a3", quiz, "s2", start)
	for _, a := range []domain.Attempt{later, earlier, other} {
		if err := store.Create(ctx, a); err != nil {
			t.Fatalf("create %s: %v", a.ID, err)
		}
	}
	if err := store.Create(ctx, earlier); !errors.Is(err, domain.ErrAttemptConflict) {
		t.Fatalf("expected duplicate create to conflict, got %v", err)
	}

	mine, err := store.ListByStudent(ctx, "quiz-1", "s1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 2 || mine[0].ID != "a1" || mine[1].ID != "a2" {
		t.Fatalf("expected a1, a2 in start order, got %+v", mine)
	}
	all, _ := store.ListByQuiz(ctx, "quiz-1")
	if len(all) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(all))
	}
	if none, _ := store.ListByQuiz(ctx, "quiz-2"); len(none) != 0 {
		t.Fatalf("expected no attempts for another quiz, got %d", len(none))
	}

	got, err := store.Get(ctx, "a1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.StartedAt.Equal(start) || got.Status != domain.StatusInProgress {
		t.Fatalf("unexpected attempt: %+v", got)
	}
	if _, err := store.Get(ctx, "ghost"); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAttemptStoreSaveChecksVersion(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewAttemptStore(newClient(mr))
	ctx := context.Background()
	quiz := sampleQuiz()
	start := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	attempt := domain.NewAttempt("a1", quiz, "s1", start)
	_ = store.Create(ctx, attempt)

	done := attempt
	if err := done.Complete(quiz, map[string]json.RawMessage{"q1": json.RawMessage(`"4"`)}, start.Add(time.Minute)); err != nil {
		t.Fatalf("complete: %v", err)
	}
	done.Version = 1
	if err := store.Save(ctx, done, 0); err != nil {
		t.Fatalf("save: %v", err)
	}

	abandoned := attempt
	_ = abandoned.Abandon(start.Add(2 * time.Minute))
	abandoned.Version = 1
	if err := store.Save(ctx, abandoned, 0); !errors.Is(err, domain.ErrAttemptConflict) {
		t.Fatalf("expected stale save to conflict, got %v", err)
	}

	got, _ := store.Get(ctx, "a1")
	if got.Status != domain.StatusCompleted || got.Score != 5 || got.Version != 1 || len(got.Results) != 2 {
		t.Fatalf("expected the completed attempt to win, got %+v", got)
	}
	if err := store.Save(ctx, domain.Attempt{ID: "ghost"}, 0); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
