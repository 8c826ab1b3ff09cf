package app

import (
	"log/slog"
	"sync"
	"time"
)

// FeedRepository abstracts where live attempt feeds are kept (in-memory, Redis, etc).
type FeedRepository interface {
	GetOrCreate(attemptID string) *Feed
	Get(attemptID string) (*Feed, bool)
	DeleteIfEmpty(attemptID string)
}

// Feed fans attempt snapshots out to the live connections watching one attempt.
type Feed struct {
	attemptID   string
	createdAt   time.Time
	mu          sync.Mutex
	subscribers map[chan AttemptView]struct{}
}

// NewFeed is exported for infrastructure layers that keep feeds.
func NewFeed(attemptID string) *Feed {
	return &Feed{
		attemptID:   attemptID,
		createdAt:   time.Now(),
		subscribers: make(map[chan AttemptView]struct{}),
	}
}

// CreatedAt returns when the first watcher opened the feed.
func (f *Feed) CreatedAt() time.Time {
	return f.createdAt
}

// IsEmpty reports whether nobody is watching.
func (f *Feed) IsEmpty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers) == 0
}

func (f *Feed) subscribe(initial AttemptView) (<-chan AttemptView, func()) {
	ch := make(chan AttemptView, 8)
	ch <- initial

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

func (f *Feed) publish(view AttemptView) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- view:
		default:
			// slow watcher: replace the oldest snapshot, only the latest matters
			slog.Debug("dropping stale snapshot for slow watcher", "attempt_id", f.attemptID)
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
}
