// Package store defines the persistence contracts for history, bookmarks and
// the session snapshot, with an in-memory implementation.
//
// Stores are only handed to normal-mode windows. Incognito windows receive
// nil stores and never read or write them.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrPersistenceRead is returned when persisted data is missing or malformed.
var ErrPersistenceRead = errors.New("persistence read failure")

// HistoryEntry records one normal-mode navigation.
type HistoryEntry struct {
	Title     string `json:"title" yaml:"title"`
	URL       string `json:"url" yaml:"url"`
	Timestamp int64  `json:"timestamp" yaml:"timestamp"`
}

// BookmarkEntry is a saved address, unique by URL.
type BookmarkEntry struct {
	Title     string `json:"title" yaml:"title"`
	URL       string `json:"url" yaml:"url"`
	Timestamp int64  `json:"timestamp" yaml:"timestamp"`
}

// SnapshotTab is one tab of a saved session, in strip order.
type SnapshotTab struct {
	URL    string `json:"url"`
	Title  string `json:"title"`
	Active bool   `json:"active"`
}

// History is an append-only navigation log.
type History interface {
	Append(ctx context.Context, e HistoryEntry) error
	// List returns up to limit entries, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]HistoryEntry, error)
	Clear(ctx context.Context) error
}

// Bookmarks is a set of entries keyed by URL.
type Bookmarks interface {
	// Add inserts or refreshes the entry for e.URL.
	Add(ctx context.Context, e BookmarkEntry) error
	Remove(ctx context.Context, url string) error
	Has(ctx context.Context, url string) (bool, error)
	// List returns every bookmark, newest first.
	List(ctx context.Context) ([]BookmarkEntry, error)
}

// Snapshots holds the single most recent session snapshot.
type Snapshots interface {
	Save(ctx context.Context, tabs []SnapshotTab) error
	// Load returns ErrPersistenceRead when no usable snapshot exists.
	Load(ctx context.Context) ([]SnapshotTab, error)
}

// Set groups the stores given to a normal-mode window.
type Set struct {
	History   History
	Bookmarks Bookmarks
	Snapshots Snapshots
}

// Toggle adds the bookmark if absent or removes it if present, and reports
// whether the URL is bookmarked afterwards.
func Toggle(ctx context.Context, b Bookmarks, e BookmarkEntry) (bool, error) {
	has, err := b.Has(ctx, e.URL)
	if err != nil {
		return false, err
	}
	if has {
		return false, b.Remove(ctx, e.URL)
	}
	if e.Timestamp == 0 {
		e.Timestamp = NowMillis()
	}
	return true, b.Add(ctx, e)
}

// NowMillis returns the current time in epoch milliseconds.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
