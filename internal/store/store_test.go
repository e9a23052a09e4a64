package store

import (
	"bytes"
	"context"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryHistory(t *testing.T) {
	ctx := context.Background()
	h := NewMemoryHistory()

	for i, u := range []string{"https://a.test", "https://b.test", "https://c.test"} {
		require.NoError(t, h.Append(ctx, HistoryEntry{URL: u, Timestamp: int64(i)}))
	}

	all, err := h.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "https://c.test", all[0].URL, "newest first")

	two, _ := h.List(ctx, 2)
	assert.Equal(t, []string{"https://c.test", "https://b.test"}, []string{two[0].URL, two[1].URL})

	require.NoError(t, h.Clear(ctx))
	all, _ = h.List(ctx, 0)
	assert.Empty(t, all)
}

func TestBookmarkToggleSetSemantics(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBookmarks()
	e := BookmarkEntry{Title: "A", URL: "https://a.test"}

	on, err := Toggle(ctx, b, e)
	require.NoError(t, err)
	assert.True(t, on)

	require.NoError(t, b.Add(ctx, BookmarkEntry{Title: "A again", URL: "https://a.test", Timestamp: 5}))
	list, _ := b.List(ctx)
	require.Len(t, list, 1, "no duplicate urls")
	assert.Equal(t, "A again", list[0].Title)

	on, err = Toggle(ctx, b, e)
	require.NoError(t, err)
	assert.False(t, on)
	has, _ := b.Has(ctx, e.URL)
	assert.False(t, has)
}

func TestMemorySnapshots(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySnapshots()

	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, ErrPersistenceRead)

	tabs := []SnapshotTab{{URL: "https://a.test", Active: true}, {URL: "https://b.test"}}
	require.NoError(t, s.Save(ctx, tabs))
	tabs[0].URL = "mutated"

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://a.test", got[0].URL)
	assert.True(t, got[0].Active)
}

func TestExportBookmarks(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBookmarks()
	require.NoError(t, b.Add(ctx, BookmarkEntry{Title: "Go", URL: "https://go.dev", Timestamp: 2}))
	require.NoError(t, b.Add(ctx, BookmarkEntry{Title: "Rod", URL: "https://go-rod.github.io", Timestamp: 1}))

	var js bytes.Buffer
	require.NoError(t, ExportBookmarks(ctx, b, &js, FormatJSON))
	var fromJSON []BookmarkEntry
	require.NoError(t, sonic.Unmarshal(js.Bytes(), &fromJSON))
	assert.Equal(t, "https://go.dev", fromJSON[0].URL)

	var ym bytes.Buffer
	require.NoError(t, ExportBookmarks(ctx, b, &ym, FormatYAML))
	var fromYAML []BookmarkEntry
	require.NoError(t, yaml.Unmarshal(ym.Bytes(), &fromYAML))
	assert.Equal(t, fromJSON, fromYAML)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, _ = ParseFormat("yml")
	assert.Equal(t, FormatYAML, f)
	assert.Equal(t, "application/yaml", f.ContentType())

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}
