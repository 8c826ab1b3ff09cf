package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"academy-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// AttemptStore keeps attempts in Redis as JSON values with set indexes:
//
//	SET  attempt:{attemptID} {json}
//	SADD attempts:quiz:{quizID} {attemptID}
//	SADD attempts:student:{quizID}:{studentID} {attemptID}
//
// Save is a compare-and-set on the attempt version under WATCH.
type AttemptStore struct {
	client *redis.Client
}

func NewAttemptStore(client *redis.Client) *AttemptStore {
	return &AttemptStore{client: client}
}

func (s *AttemptStore) Create(ctx context.Context, attempt domain.Attempt) error {
	payload, err := json.Marshal(attempt)
	if err != nil {
		return err
	}
	created, err := s.client.SetNX(ctx, s.attemptKey(attempt.ID), payload, 0).Result()
	if err != nil {
		return fmt.Errorf("create attempt: %w", err)
	}
	if !created {
		return fmt.Errorf("%w: attempt %s already exists", domain.ErrAttemptConflict, attempt.ID)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, s.quizKey(attempt.QuizID), attempt.ID)
		pipe.SAdd(ctx, s.studentKey(attempt.QuizID, attempt.StudentID), attempt.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("index attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) Get(ctx context.Context, attemptID string) (domain.Attempt, error) {
	payload, err := s.client.Get(ctx, s.attemptKey(attemptID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("get attempt: %w", err)
	}
	return decodeAttempt(payload)
}

func (s *AttemptStore) ListByStudent(ctx context.Context, quizID, studentID string) ([]domain.Attempt, error) {
	return s.list(ctx, s.studentKey(quizID, studentID))
}

func (s *AttemptStore) ListByQuiz(ctx context.Context, quizID string) ([]domain.Attempt, error) {
	return s.list(ctx, s.quizKey(quizID))
}

// Save writes the attempt only while the stored version equals
// expectedVersion. A concurrent write between WATCH and EXEC aborts the
// transaction and is reported as a conflict too.
func (s *AttemptStore) Save(ctx context.Context, attempt domain.Attempt, expectedVersion int) error {
	key := s.attemptKey(attempt.ID)
	payload, err := json.Marshal(attempt)
	if err != nil {
		return err
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return domain.ErrAttemptNotFound
		}
		if err != nil {
			return err
		}
		stored, err := decodeAttempt(current)
		if err != nil {
			return err
		}
		if stored.Version != expectedVersion {
			return fmt.Errorf("%w: version %d, expected %d", domain.ErrAttemptConflict, stored.Version, expectedVersion)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%w: concurrent write", domain.ErrAttemptConflict)
	}
	return err
}

func (s *AttemptStore) list(ctx context.Context, indexKey string) ([]domain.Attempt, error) {
	ids, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	out := make([]domain.Attempt, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.attemptKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load attempts: %w", err)
	}
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		a, err := decodeAttempt([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

func decodeAttempt(payload []byte) (domain.Attempt, error) {
	var a domain.Attempt
	if err := json.Unmarshal(payload, &a); err != nil {
		return domain.Attempt{}, fmt.Errorf("decode attempt: %w", err)
	}
	return a, nil
}

func (s *AttemptStore) attemptKey(attemptID string) string {
	return "attempt:" + attemptID
}

func (s *AttemptStore) quizKey(quizID string) string {
	return "attempts:quiz:" + quizID
}

func (s *AttemptStore) studentKey(quizID, studentID string) string {
	return "attempts:student:" + quizID + ":" + studentID
}
