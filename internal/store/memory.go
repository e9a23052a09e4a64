package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryHistory keeps history in process memory.
type MemoryHistory struct {
	mu      sync.RWMutex
	entries []HistoryEntry
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{}
}

func (h *MemoryHistory) Append(_ context.Context, e HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, e)
	return nil
}

func (h *MemoryHistory) List(_ context.Context, limit int) ([]HistoryEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := len(h.entries)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]HistoryEntry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, h.entries[i])
	}
	return out, nil
}

func (h *MemoryHistory) Clear(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
	return nil
}

// MemoryBookmarks keeps bookmarks in process memory.
type MemoryBookmarks struct {
	mu    sync.RWMutex
	byURL map[string]BookmarkEntry
}

func NewMemoryBookmarks() *MemoryBookmarks {
	return &MemoryBookmarks{byURL: make(map[string]BookmarkEntry)}
}

func (b *MemoryBookmarks) Add(_ context.Context, e BookmarkEntry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.byURL[e.URL] = e
	return nil
}

func (b *MemoryBookmarks) Remove(_ context.Context, url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.byURL, url)
	return nil
}

func (b *MemoryBookmarks) Has(_ context.Context, url string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.byURL[url]
	return ok, nil
}

func (b *MemoryBookmarks) List(context.Context) ([]BookmarkEntry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]BookmarkEntry, 0, len(b.byURL))
	for _, e := range b.byURL {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp > out[j].Timestamp
		}
		return out[i].URL < out[j].URL
	})
	return out, nil
}

// MemorySnapshots keeps the last session snapshot in process memory.
type MemorySnapshots struct {
	mu    sync.RWMutex
	tabs  []SnapshotTab
	saved bool
}

func NewMemorySnapshots() *MemorySnapshots {
	return &MemorySnapshots{}
}

func (s *MemorySnapshots) Save(_ context.Context, tabs []SnapshotTab) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabs = append([]SnapshotTab(nil), tabs...)
	s.saved = true
	return nil
}

func (s *MemorySnapshots) Load(context.Context) ([]SnapshotTab, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.saved {
		return nil, ErrPersistenceRead
	}
	return append([]SnapshotTab(nil), s.tabs...), nil
}

// NewMemorySet returns a fresh set of in-memory stores.
func NewMemorySet() Set {
	return Set{
		History:   NewMemoryHistory(),
		Bookmarks: NewMemoryBookmarks(),
		Snapshots: NewMemorySnapshots(),
	}
}
