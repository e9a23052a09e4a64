package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fawazpw/Project-Sol/internal/domain/navigation"
	"github.com/Fawazpw/Project-Sol/internal/domain/pages"
	"github.com/Fawazpw/Project-Sol/internal/domain/tab"
	"github.com/Fawazpw/Project-Sol/internal/domain/workspace"
	"github.com/Fawazpw/Project-Sol/internal/shared/id"
	"github.com/Fawazpw/Project-Sol/internal/store"
	"github.com/Fawazpw/Project-Sol/internal/surface"
	"github.com/Fawazpw/Project-Sol/internal/surface/headless"
)

type failingFactory struct {
	*headless.Factory
	failURL string
}

func (f *failingFactory) Bind(ctx context.Context, tabID id.NodeID, target navigation.Target, emit surface.Emitter) (surface.Surface, error) {
	if target.URL == f.failURL {
		return nil, errors.New("no renderer")
	}
	return f.Factory.Bind(ctx, tabID, target, emit)
}

type counts struct{ saved, restored int }

func (c *counts) SessionSaved()    { c.saved++ }
func (c *counts) SessionRestored() { c.restored++ }

type fixture struct {
	ctrl  *tab.Controller
	coord *Coordinator
	snaps store.Snapshots
	stats *counts
}

func newFixture(t *testing.T, snaps store.Snapshots, incognito bool, failURL string) *fixture {
	t.Helper()
	f := &fixture{snaps: snaps, stats: &counts{}}
	set := store.NewMemorySet()
	factory := &failingFactory{Factory: headless.NewFactory(""), failURL: failURL}

	f.ctrl = tab.NewController(workspace.NewTree(), factory, nil, tab.Options{
		Incognito: incognito,
		History:   set.History,
		Bookmarks: set.Bookmarks,
		Pages:     &pages.Renderer{History: set.History, Bookmarks: set.Bookmarks, Incognito: incognito},
		OnChange: func(tabID workspace.NodeID, c tab.Change) {
			f.coord.HandleChange(context.Background(), tabID, c)
		},
	})
	f.coord = NewCoordinator(f.ctrl, snaps, f.stats, nil)
	return f
}

func (f *fixture) urls() []string {
	var out []string
	for _, t := range f.ctrl.Tree().Tabs() {
		out = append(out, t.Target.String())
	}
	return out
}

func (f *fixture) active(t *testing.T) *workspace.TabNode {
	t.Helper()
	activeID, ok := f.ctrl.Tree().Active()
	require.True(t, ok)
	node, err := f.ctrl.Tree().Tab(activeID)
	require.NoError(t, err)
	return node
}

func TestRestoreActivatesFlaggedTab(t *testing.T) {
	ctx := context.Background()
	snaps := store.NewMemorySnapshots()
	require.NoError(t, snaps.Save(ctx, []store.SnapshotTab{
		{URL: "https://a.test", Title: "A", Active: true},
		{URL: "https://b.test", Title: "B"},
	}))

	f := newFixture(t, snaps, false, "")
	restored, err := f.coord.Restore(ctx)
	require.NoError(t, err)
	assert.True(t, restored)

	assert.Equal(t, []string{"https://a.test", "https://b.test"}, f.urls())
	assert.Equal(t, "https://a.test", f.active(t).Target.URL)
	assert.Equal(t, 1, f.stats.restored)
	assert.NotNil(t, f.coord.Stats().LastRestored)
}

func TestRestoreActivatesFirstWithoutFlag(t *testing.T) {
	ctx := context.Background()
	snaps := store.NewMemorySnapshots()
	require.NoError(t, snaps.Save(ctx, []store.SnapshotTab{
		{URL: "https://a.test"},
		{URL: "https://b.test"},
		{URL: "https://c.test"},
	}))

	f := newFixture(t, snaps, false, "")
	_, err := f.coord.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://a.test", f.active(t).Target.URL)
}

func TestRestoreContinuesPastBindFailure(t *testing.T) {
	ctx := context.Background()
	snaps := store.NewMemorySnapshots()
	require.NoError(t, snaps.Save(ctx, []store.SnapshotTab{
		{URL: "https://a.test"},
		{URL: "https://broken.test", Active: true},
		{URL: "https://c.test"},
	}))

	f := newFixture(t, snaps, false, "https://broken.test")
	restored, err := f.coord.Restore(ctx)
	require.NoError(t, err)
	assert.True(t, restored)

	tabs := f.ctrl.Tree().Tabs()
	require.Len(t, tabs, 3)
	assert.Equal(t, workspace.StateCreating, tabs[1].State)
	assert.ErrorIs(t, tabs[1].Err, surface.ErrBindFailure)
	assert.True(t, tabs[1].Active)
}

func TestRestoreInternalPage(t *testing.T) {
	ctx := context.Background()
	snaps := store.NewMemorySnapshots()
	require.NoError(t, snaps.Save(ctx, []store.SnapshotTab{{URL: "sol://history", Active: true}}))

	f := newFixture(t, snaps, false, "")
	_, err := f.coord.Restore(ctx)
	require.NoError(t, err)

	active := f.active(t)
	assert.Equal(t, navigation.KindInternal, active.Target.Kind)
	assert.Equal(t, navigation.PageHistory, active.Target.Page)
}

func TestStartWithoutSnapshotOpensHome(t *testing.T) {
	tests := []struct {
		name  string
		setup func(store.Snapshots)
	}{
		{"missing", func(store.Snapshots) {}},
		{"empty", func(s store.Snapshots) { _ = s.Save(context.Background(), nil) }},
		{"blank urls", func(s store.Snapshots) {
			_ = s.Save(context.Background(), []store.SnapshotTab{{URL: ""}})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snaps := store.NewMemorySnapshots()
			tt.setup(snaps)

			f := newFixture(t, snaps, false, "")
			require.NoError(t, f.coord.Start(context.Background()))

			assert.Equal(t, []string{navigation.DefaultHomeURL}, f.urls())
			assert.Zero(t, f.stats.restored)
		})
	}
}

func TestSaveTracksStructuralChanges(t *testing.T) {
	ctx := context.Background()
	snaps := store.NewMemorySnapshots()
	f := newFixture(t, snaps, false, "")

	first, err := f.ctrl.OpenTab(ctx, navigation.External("https://a.test"), "")
	require.NoError(t, err)
	_, err = f.ctrl.OpenTab(ctx, navigation.External("https://b.test"), "")
	require.NoError(t, err)
	_, err = f.ctrl.OpenTab(ctx, navigation.Inline("<p>scratch</p>"), "")
	require.NoError(t, err)

	saved, err := snaps.Load(ctx)
	require.NoError(t, err)
	require.Len(t, saved, 2, "inline documents are not saved")
	assert.False(t, saved[0].Active)

	_, err = f.ctrl.ActivateTab(ctx, first)
	require.NoError(t, err)
	saved, err = snaps.Load(ctx)
	require.NoError(t, err)
	assert.True(t, saved[0].Active)

	require.NoError(t, f.ctrl.CloseTab(ctx, first))
	saved, err = snaps.Load(ctx)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "https://b.test", saved[0].URL)

	assert.Positive(t, f.stats.saved)
	assert.NotNil(t, f.coord.Stats().LastSaved)
}

func TestRestoreDoesNotRewriteSnapshotMidway(t *testing.T) {
	ctx := context.Background()
	snaps := store.NewMemorySnapshots()
	require.NoError(t, snaps.Save(ctx, []store.SnapshotTab{
		{URL: "https://a.test"},
		{URL: "https://b.test", Active: true},
	}))

	f := newFixture(t, snaps, false, "")
	_, err := f.coord.Restore(ctx)
	require.NoError(t, err)

	// Only the final activation saves.
	assert.Equal(t, 1, f.stats.saved)
	saved, err := snaps.Load(ctx)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.True(t, saved[1].Active)
}

func TestIncognitoNeverTouchesSnapshots(t *testing.T) {
	ctx := context.Background()
	snaps := store.NewMemorySnapshots()
	require.NoError(t, snaps.Save(ctx, []store.SnapshotTab{{URL: "https://kept.test", Active: true}}))

	f := newFixture(t, snaps, true, "")
	require.NoError(t, f.coord.Start(ctx))

	active := f.active(t)
	assert.Equal(t, navigation.PageIncognitoLanding, active.Target.Page)

	_, err := f.ctrl.OpenTab(ctx, navigation.External("https://secret.test"), "")
	require.NoError(t, err)

	saved, err := snaps.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []store.SnapshotTab{{URL: "https://kept.test", Active: true}}, saved)
	assert.Zero(t, f.stats.saved)
}
