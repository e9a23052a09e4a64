// Package sqlite persists history, bookmarks and the session snapshot in a
// single SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/Fawazpw/Project-Sol/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS history (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	title      TEXT    NOT NULL DEFAULT '',
	url        TEXT    NOT NULL,
	visited_ms INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS bookmarks (
	url        TEXT PRIMARY KEY,
	title      TEXT    NOT NULL DEFAULT '',
	created_ms INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS session_snapshot (
	id       INTEGER PRIMARY KEY CHECK (id = 1),
	payload  BLOB    NOT NULL,
	saved_ms INTEGER NOT NULL
);`

type config struct {
	busyTimeout int
	mkdirAll    bool
	logger      *zap.Logger
}

// Option customises Open.
type Option func(*config)

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 5000.
func WithBusyTimeout(ms int) Option { return func(c *config) { c.busyTimeout = ms } }

// WithMkdirAll creates the parent directory of the database path.
func WithMkdirAll() Option { return func(c *config) { c.mkdirAll = true } }

// WithLogger sets the logger used for recovered read failures.
func WithLogger(l *zap.Logger) Option { return func(c *config) { c.logger = l } }

// Store owns the database. Its History, Bookmarks and Snapshots views share
// the single connection.
type Store struct {
	db        *sql.DB
	History   *History
	Bookmarks *Bookmarks
	Snapshots *Snapshots
}

// History implements store.History.
type History struct{ db *sql.DB }

// Bookmarks implements store.Bookmarks.
type Bookmarks struct{ db *sql.DB }

// Snapshots implements store.Snapshots.
type Snapshots struct {
	db     *sql.DB
	logger *zap.Logger
}

var (
	_ store.History   = (*History)(nil)
	_ store.Bookmarks = (*Bookmarks)(nil)
	_ store.Snapshots = (*Snapshots)(nil)
)

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for a throwaway database.
func Open(path string, opts ...Option) (*Store, error) {
	cfg := config{busyTimeout: 5000}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	if cfg.mkdirAll && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// One connection keeps pragmas in effect and serialises writers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.busyTimeout),
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: schema: %w", err)
	}

	return &Store{
		db:        db,
		History:   &History{db: db},
		Bookmarks: &Bookmarks{db: db},
		Snapshots: &Snapshots{db: db, logger: cfg.logger},
	}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Set exposes the store as a store.Set.
func (s *Store) Set() store.Set {
	return store.Set{History: s.History, Bookmarks: s.Bookmarks, Snapshots: s.Snapshots}
}

// Append records a history entry.
func (h *History) Append(ctx context.Context, e store.HistoryEntry) error {
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO history (title, url, visited_ms) VALUES (?, ?, ?)`,
		e.Title, e.URL, e.Timestamp)
	if err != nil {
		return fmt.Errorf("sqlite: append history: %w", err)
	}
	return nil
}

// List returns up to limit history entries, newest first.
func (h *History) List(ctx context.Context, limit int) ([]store.HistoryEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := h.db.QueryContext(ctx,
		`SELECT title, url, visited_ms FROM history ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list history: %w", err)
	}
	defer rows.Close()

	var out []store.HistoryEntry
	for rows.Next() {
		var e store.HistoryEntry
		if err := rows.Scan(&e.Title, &e.URL, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("sqlite: scan history: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Clear erases all history.
func (h *History) Clear(ctx context.Context) error {
	if _, err := h.db.ExecContext(ctx, `DELETE FROM history`); err != nil {
		return fmt.Errorf("sqlite: clear history: %w", err)
	}
	return nil
}

// Add inserts a bookmark or refreshes the title of an existing one.
func (b *Bookmarks) Add(ctx context.Context, e store.BookmarkEntry) error {
	if e.Timestamp == 0 {
		e.Timestamp = store.NowMillis()
	}
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO bookmarks (url, title, created_ms) VALUES (?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET title = excluded.title`,
		e.URL, e.Title, e.Timestamp)
	if err != nil {
		return fmt.Errorf("sqlite: add bookmark: %w", err)
	}
	return nil
}

// Remove deletes the bookmark for url, if any.
func (b *Bookmarks) Remove(ctx context.Context, url string) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE url = ?`, url); err != nil {
		return fmt.Errorf("sqlite: remove bookmark: %w", err)
	}
	return nil
}

// Has reports whether url is bookmarked.
func (b *Bookmarks) Has(ctx context.Context, url string) (bool, error) {
	var n int
	err := b.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM bookmarks WHERE url = ?`, url).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sqlite: query bookmark: %w", err)
	}
	return n > 0, nil
}

// List returns every bookmark, newest first.
func (b *Bookmarks) List(ctx context.Context) ([]store.BookmarkEntry, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT title, url, created_ms FROM bookmarks ORDER BY created_ms DESC, url ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list bookmarks: %w", err)
	}
	defer rows.Close()

	var out []store.BookmarkEntry
	for rows.Next() {
		var e store.BookmarkEntry
		if err := rows.Scan(&e.Title, &e.URL, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("sqlite: scan bookmark: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Save overwrites the session snapshot.
func (s *Snapshots) Save(ctx context.Context, tabs []store.SnapshotTab) error {
	if tabs == nil {
		tabs = []store.SnapshotTab{}
	}
	payload, err := sonic.Marshal(tabs)
	if err != nil {
		return fmt.Errorf("sqlite: encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session_snapshot (id, payload, saved_ms) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, saved_ms = excluded.saved_ms`,
		payload, store.NowMillis())
	if err != nil {
		return fmt.Errorf("sqlite: save snapshot: %w", err)
	}
	return nil
}

// Load reads the session snapshot. A missing row or undecodable payload is
// reported as store.ErrPersistenceRead.
func (s *Snapshots) Load(ctx context.Context) ([]store.SnapshotTab, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM session_snapshot WHERE id = 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no snapshot", store.ErrPersistenceRead)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: load snapshot: %w", err)
	}

	var tabs []store.SnapshotTab
	if err := sonic.Unmarshal(payload, &tabs); err != nil {
		s.logger.Warn("discarding malformed session snapshot", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", store.ErrPersistenceRead, err)
	}
	return tabs, nil
}
