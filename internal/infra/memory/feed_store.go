package memory

import (
	"sync"

	"academy-quiz-service/internal/app"
)

// FeedStore is an in-memory implementation of app.FeedRepository.
type FeedStore struct {
	mu    sync.RWMutex
	feeds map[string]*app.Feed
}

func NewFeedStore() *FeedStore {
	return &FeedStore{
		feeds: make(map[string]*app.Feed),
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
	}
}
