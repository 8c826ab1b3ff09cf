package memory

import "testing"

func TestFeedStoreLifecycle(t *testing.T) {
	store := NewFeedStore()

	feed := store.GetOrCreate("attempt-1")
	if feed == nil {
		t.Fatalf("expected feed")
	}
	if again := store.GetOrCreate("attempt-1"); again != feed {
		t.Fatalf("expected the same feed for the same attempt")
	}
	if _, ok := store.Get("attempt-1"); !ok {
		t.Fatalf("expected feed present")
	}

	store.DeleteIfEmpty("attempt-1")
	if _, ok := store.Get("attempt-1"); ok {
		t.Fatalf("expected feed removed when empty")
	}
}
