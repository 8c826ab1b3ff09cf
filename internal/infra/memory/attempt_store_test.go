package memory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"academy-quiz-service/internal/domain"
)

func TestAttemptStoreOptimisticSave(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()
	start := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	attempt := domain.NewAttempt("a1", sampleQuiz(), "s1", start)

	if err := store.Create(ctx, attempt); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, attempt); !errors.Is(err, domain.ErrAttemptConflict) {
		t.Fatalf("expected duplicate create to conflict, got %v", err)
	}

	first := attempt
	first.Answers = map[string]json.RawMessage{"q1": json.RawMessage(`"4"`)}
	first.Version = 1
	if err := store.Save(ctx, first, 0); err != nil {
		t.Fatalf("save: %v", err)
	}

	stale := attempt
	stale.Status = domain.StatusAbandoned
	stale.Version = 1
	if err := store.Save(ctx, stale, 0); !errors.Is(err, domain.ErrAttemptConflict) {
		t.Fatalf("expected stale save to conflict, got %v", err)
	}

	got, err := store.Get(ctx, "a1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.StatusInProgress || got.Version != 1 || string(got.Answers["q1"]) != `"4"` {
		t.Fatalf("unexpected stored attempt: %+v", got)
	}

	if err := store.Save(ctx, domain.Attempt{ID: "ghost"}, 0); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAttemptStoreListsAndIsolatesCopies(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()
	start := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	quiz := sampleQuiz()

	_ = store.Create(ctx, domain.NewAttempt("a2", quiz, "s1", start.Add(time.Hour)))
	_ = store.Create(ctx, domain.NewAttempt("a1", quiz, "s1", start))
	_ = store.Create(ctx, domain.NewAttempt("a3", quiz, "s2", start))

	mine, _ := store.ListByStudent(ctx, "quiz-1", "s1")
	if len(mine) != 2 || mine[0].ID != "a1" || mine[1].ID != "a2" {
		t.Fatalf("expected a1, a2 in start order, got %+v", mine)
	}
	all, _ := store.ListByQuiz(ctx, "quiz-1")
	if len(all) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(all))
	}

	mine[0].Answers["q1"] = json.RawMessage(`"3"`)
	again, _ := store.Get(ctx, "a1")
	if _, leaked := again.Answers["q1"]; leaked {
		t.Fatalf("expected stored attempt isolated from callers")
	}
}
