package redis

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"academy-quiz-service/internal/app"
	"github.com/redis/go-redis/v9"
)

// FeedStore keeps live attempt feeds in process and marks each watched
// attempt in Redis, so operators can see which attempts have a live
// connection:
//
//	SET attempt:feed:{attemptID} {opened unix} EX ttl
//
// The marker expires on its own if this instance dies.
type FeedStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	feeds  map[string]*app.Feed
}

func NewFeedStore(client *redis.Client, ttl time.Duration) *FeedStore {
	return &FeedStore{
		client: client,
		ttl:    ttl,
		feeds:  make(map[string]*app.Feed),
	}
}

func (s *FeedStore) GetOrCreate(attemptID string) *app.Feed {
	s.mu.Lock()
	defer s.mu.Unlock()
	if feed, ok := s.feeds[attemptID]; ok {
		return feed
	}
	feed := app.NewFeed(attemptID)
	s.feeds[attemptID] = feed
	if err := s.client.Set(context.Background(), s.key(attemptID), feed.CreatedAt().Unix(), s.ttl).Err(); err != nil {
		slog.Warn("feed marker write failed", "attempt_id", attemptID, "error", err)
	}
	return feed
}

func (s *FeedStore) Get(attemptID string) (*app.Feed, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	feed, ok := s.feeds[attemptID]
	return feed, ok
}

func (s *FeedStore) DeleteIfEmpty(attemptID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	feed, ok := s.feeds[attemptID]
	if !ok {
		return
	}
	if feed.IsEmpty() {
		delete(s.feeds, attemptID)
		_ = s.client.Del(context.Background(), s.key(attemptID)).Err()
	}
}

func (s *FeedStore) key(attemptID string) string {
	return "attempt:feed:" + attemptID
}
