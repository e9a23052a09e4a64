package window

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fawazpw/Project-Sol/internal/domain/navigation"
	"github.com/Fawazpw/Project-Sol/internal/domain/tab"
	"github.com/Fawazpw/Project-Sol/internal/domain/workspace"
	"github.com/Fawazpw/Project-Sol/internal/shared/id"
	"github.com/Fawazpw/Project-Sol/internal/store"
	"github.com/Fawazpw/Project-Sol/internal/surface"
	"github.com/Fawazpw/Project-Sol/internal/surface/headless"
)

// partitions hands out headless factories and remembers them.
type partitions struct {
	mu        sync.Mutex
	factories []*headless.Factory
	fail      bool
}

func (p *partitions) Partition(incognito bool) (surface.Factory, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return nil, errors.New("browser gone")
	}
	name := "default"
	if incognito {
		name = ""
	}
	f := headless.NewFactory(name)
	p.factories = append(p.factories, f)
	return f, nil
}

type shell struct {
	mu         sync.Mutex
	fullscreen int
	devtools   []workspace.NodeID
	quit       bool
}

func (s *shell) ToggleFullscreen(id.WindowID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fullscreen++
	return nil
}

func (s *shell) ToggleDevTools(_ id.WindowID, tabID workspace.NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devtools = append(s.devtools, tabID)
	return nil
}

func (s *shell) Quit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quit = true
	return nil
}

func newManager(t *testing.T, stores store.Set) (*Manager, *partitions, *shell) {
	t.Helper()
	parts := &partitions{}
	sh := &shell{}
	m := NewManager(Options{
		Surfaces: parts,
		Stores:   stores,
		Chrome:   sh,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, m.Shutdown(ctx))
	})
	return m, parts, sh
}

func snapshot(t *testing.T, w *Window) State {
	t.Helper()
	var st State
	require.NoError(t, w.Do(context.Background(), func(ctx context.Context) error {
		st = w.Snapshot(ctx)
		return nil
	}))
	return st
}

func execute(t *testing.T, w *Window, cmd Command) Result {
	t.Helper()
	var r Result
	err := w.Do(context.Background(), func(ctx context.Context) error {
		var err error
		r, err = w.Execute(ctx, cmd)
		return err
	})
	require.NoError(t, err)
	return r
}

func tabCount(st State) int {
	n := 0
	for _, row := range st.Tree {
		if row.Kind == workspace.KindTab {
			n++
		}
	}
	return n
}

func TestOpenNormalWindowStartsOnHome(t *testing.T) {
	m, _, _ := newManager(t, store.NewMemorySet())

	w, err := m.Open(context.Background(), ModeNormal)
	require.NoError(t, err)

	st := snapshot(t, w)
	assert.Equal(t, ModeNormal, st.Mode)
	assert.True(t, st.SidebarVisible)
	require.NotNil(t, st.Active)
	assert.Equal(t, navigation.DefaultHomeURL, st.Active.URL)
	assert.Equal(t, "www.google.com", st.Active.Title, "load events were applied before Do returned")
	assert.Equal(t, workspace.StateReady.String(), st.Active.State)
}

func TestSecondNormalWindowRestoresSession(t *testing.T) {
	ctx := context.Background()
	stores := store.NewMemorySet()
	m, _, _ := newManager(t, stores)

	first, err := m.Open(ctx, ModeNormal)
	require.NoError(t, err)
	require.NoError(t, first.Do(ctx, func(ctx context.Context) error {
		_, err := first.Controller().Navigate(ctx, "a.test")
		return err
	}))
	require.NoError(t, m.Close(ctx, first.ID()))

	second, err := m.Open(ctx, ModeNormal)
	require.NoError(t, err)
	st := snapshot(t, second)
	require.NotNil(t, st.Active)
	assert.Equal(t, "https://a.test", st.Active.URL)
	assert.NotNil(t, st.Session.LastRestored)
}

func TestMoveSavesTabOrder(t *testing.T) {
	ctx := context.Background()
	stores := store.NewMemorySet()
	m, _, _ := newManager(t, stores)

	w, err := m.Open(ctx, ModeNormal)
	require.NoError(t, err)

	var b workspace.NodeID
	require.NoError(t, w.Do(ctx, func(ctx context.Context) error {
		var err error
		b, err = w.Controller().OpenTab(ctx, navigation.External("https://b.test"), "")
		return err
	}))

	saved, err := stores.Snapshots.Load(ctx)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, navigation.DefaultHomeURL, saved[0].URL)
	assert.Equal(t, "www.google.com", saved[0].Title)
	assert.Equal(t, "b.test", saved[1].Title, "titles arriving after navigation are saved")

	var moved bool
	require.NoError(t, w.Do(ctx, func(ctx context.Context) error {
		moved = w.Move(ctx, b, workspace.RootID, 0)
		return nil
	}))
	require.True(t, moved)

	saved, err = stores.Snapshots.Load(ctx)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, "https://b.test", saved[0].URL)
	assert.Equal(t, navigation.DefaultHomeURL, saved[1].URL)
}

func TestIncognitoWindowIsIsolated(t *testing.T) {
	ctx := context.Background()
	stores := store.NewMemorySet()
	m, parts, _ := newManager(t, stores)

	normal, err := m.Open(ctx, ModeNormal)
	require.NoError(t, err)
	private, err := m.Open(ctx, ModeIncognito)
	require.NoError(t, err)

	st := snapshot(t, private)
	require.NotNil(t, st.Active)
	assert.Equal(t, "sol://incognito-landing", st.Active.URL)
	assert.NotEqual(t, snapshot(t, normal).Partition, st.Partition)

	require.NoError(t, private.Do(ctx, func(ctx context.Context) error {
		if _, err := private.Controller().Navigate(ctx, "secret.test"); err != nil {
			return err
		}
		_, err := private.Controller().ToggleBookmark(ctx, "")
		assert.ErrorIs(t, err, tab.ErrIncognito)
		return private.Controller().CloseTab(ctx, "")
	}))

	history, err := stores.History.List(ctx, 0)
	require.NoError(t, err)
	for _, e := range history {
		assert.NotContains(t, e.URL, "secret.test")
	}
	saved, err := stores.Snapshots.Load(ctx)
	require.NoError(t, err)
	for _, s := range saved {
		assert.NotContains(t, s.URL, "secret.test")
	}
	assert.Zero(t, snapshot(t, private).ClosedTabs)

	incognitoFactory := parts.factories[1]
	require.NoError(t, m.Close(ctx, private.ID()))
	assert.Zero(t, incognitoFactory.Open(), "every surface released")

	_, err = m.Get(private.ID())
	assert.ErrorIs(t, err, ErrWindowNotFound)
	assert.ErrorIs(t, private.Do(ctx, func(context.Context) error { return nil }), ErrWindowClosed)
}

func TestCommands(t *testing.T) {
	ctx := context.Background()
	m, _, sh := newManager(t, store.NewMemorySet())
	w, err := m.Open(ctx, ModeNormal)
	require.NoError(t, err)

	r := execute(t, w, CmdNewTab)
	assert.NotEmpty(t, r.TabID)
	assert.Equal(t, 2, tabCount(snapshot(t, w)))

	execute(t, w, CmdCloseTab)
	assert.Equal(t, 1, tabCount(snapshot(t, w)))

	r = execute(t, w, CmdRestoreTab)
	require.NotNil(t, r.Value)
	assert.True(t, *r.Value)
	assert.Equal(t, 2, tabCount(snapshot(t, w)))

	r = execute(t, w, CmdToggleSidebar)
	require.NotNil(t, r.Value)
	assert.False(t, *r.Value)
	assert.False(t, snapshot(t, w).SidebarVisible)

	r = execute(t, w, CmdOpenHistory)
	st := snapshot(t, w)
	assert.Equal(t, r.TabID, st.Active.TabID)
	assert.Equal(t, "sol://history", st.Active.URL)

	execute(t, w, CmdOpenSettings)
	assert.Equal(t, "sol://settings", snapshot(t, w).Active.URL)

	execute(t, w, CmdToggleFullscreen)
	execute(t, w, CmdToggleDevTools)
	execute(t, w, CmdQuit)
	assert.Equal(t, 1, sh.fullscreen)
	assert.Equal(t, []workspace.NodeID{snapshot(t, w).Active.TabID}, sh.devtools)
	assert.True(t, sh.quit)

	r = execute(t, w, CmdNewIncognitoWindow)
	assert.NotEmpty(t, r.WindowID)
	assert.Len(t, m.List(), 2)

	err = w.Do(ctx, func(ctx context.Context) error {
		_, err := w.Execute(ctx, "teleport")
		return err
	})
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestBookmarkAndNavigationCommands(t *testing.T) {
	ctx := context.Background()
	stores := store.NewMemorySet()
	m, _, _ := newManager(t, stores)
	w, err := m.Open(ctx, ModeNormal)
	require.NoError(t, err)

	require.NoError(t, w.Do(ctx, func(ctx context.Context) error {
		_, err := w.Controller().Navigate(ctx, "b.test")
		return err
	}))

	r := execute(t, w, CmdToggleBookmark)
	require.NotNil(t, r.Value)
	assert.True(t, *r.Value)
	has, err := stores.Bookmarks.Has(ctx, "https://b.test")
	require.NoError(t, err)
	assert.True(t, has)

	execute(t, w, CmdBack)
	st := snapshot(t, w)
	assert.Equal(t, navigation.DefaultHomeURL, st.Active.URL)
	assert.True(t, st.Active.CanGoForward)

	execute(t, w, CmdForward)
	assert.Equal(t, "https://b.test", snapshot(t, w).Active.URL)

	execute(t, w, CmdReload)
	execute(t, w, CmdStop)
}

func TestFolderEditsNotifySubscribers(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newManager(t, store.NewMemorySet())
	w, err := m.Open(ctx, ModeNormal)
	require.NoError(t, err)

	events, cancel := w.Subscribe()
	defer cancel()

	var folderID, tabID workspace.NodeID
	require.NoError(t, w.Do(ctx, func(context.Context) error {
		var err error
		folderID, err = w.AddFolder("")
		if err != nil {
			return err
		}
		tabID, _ = w.Tree().Active()
		if !w.Move(ctx, tabID, folderID, 0) {
			return errors.New("move refused")
		}
		if w.Move(ctx, folderID, folderID, 0) {
			return errors.New("folder moved into itself")
		}
		if err := w.RenameFolder(folderID, "Work"); err != nil {
			return err
		}
		_, err = w.ToggleFolder(folderID)
		return err
	}))

	var kinds []NotificationKind
	for i := 0; i < 4; i++ {
		select {
		case n := <-events:
			assert.Equal(t, w.ID(), n.Window)
			kinds = append(kinds, n.Kind)
		case <-time.After(time.Second):
			t.Fatal("missing notification")
		}
	}
	assert.Equal(t, []NotificationKind{NotifyTree, NotifyTree, NotifyTree, NotifyTree}, kinds)

	st := snapshot(t, w)
	require.Len(t, st.Tree, 2)
	assert.Equal(t, "Work", st.Tree[0].Title)
	assert.True(t, st.Tree[0].Collapsed)
	assert.Equal(t, tabID, st.Tree[1].ID)
	assert.Equal(t, 1, st.Tree[1].Depth)

	require.NoError(t, w.Do(ctx, func(context.Context) error { return w.DeleteFolder(folderID) }))
	st = snapshot(t, w)
	require.Len(t, st.Tree, 1)
	assert.Equal(t, 0, st.Tree[0].Depth)
}

func TestSubscribersSeeCloseAndChannelEnds(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newManager(t, store.NewMemorySet())
	w, err := m.Open(ctx, ModeNormal)
	require.NoError(t, err)

	events, _ := w.Subscribe()
	require.NoError(t, m.Close(ctx, w.ID()))

	var last Notification
	for n := range events {
		last = n
	}
	assert.Equal(t, NotifyClosed, last.Kind)

	late, cancel := w.Subscribe()
	cancel()
	_, open := <-late
	assert.False(t, open)
}

func TestEventsFromOtherGoroutinesAreApplied(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newManager(t, store.NewMemorySet())
	w, err := m.Open(ctx, ModeNormal)
	require.NoError(t, err)

	var tabID workspace.NodeID
	require.NoError(t, w.Do(ctx, func(context.Context) error {
		tabID, _ = w.Tree().Active()
		return nil
	}))

	events, cancel := w.Subscribe()
	defer cancel()

	go w.enqueue(surface.Event{Tab: tabID, Kind: surface.TitleUpdated, Title: "From the driver"})

	select {
	case n := <-events:
		assert.Equal(t, NotifyTab, n.Kind)
	case <-time.After(time.Second):
		t.Fatal("event not applied")
	}
	assert.Equal(t, "From the driver", snapshot(t, w).Active.Title)
}

func TestOpenFailsWithoutPartition(t *testing.T) {
	m, parts, _ := newManager(t, store.NewMemorySet())
	parts.fail = true

	_, err := m.Open(context.Background(), ModeNormal)
	assert.Error(t, err)
	assert.Empty(t, m.List())

	_, err = m.Open(context.Background(), "kiosk")
	assert.Error(t, err)
}

func TestGuardedPartitionFailsFast(t *testing.T) {
	ctx := context.Background()
	m := NewManager(Options{
		Surfaces: SurfacesFunc(func(bool) (surface.Factory, error) {
			return brokenFactory{headless.NewFactory("")}, nil
		}),
		Guard:  &surface.GuardSettings{Threshold: 1, Cooldown: time.Hour},
		Stores: store.NewMemorySet(),
	})
	defer m.Shutdown(ctx)

	w, err := m.Open(ctx, ModeNormal)
	require.NoError(t, err, "a failed first tab leaves the window usable")

	st := snapshot(t, w)
	require.NotNil(t, st.Active)
	assert.Equal(t, workspace.StateCreating.String(), st.Active.State)

	err = w.Do(ctx, func(ctx context.Context) error {
		_, err := w.Controller().OpenTab(ctx, navigation.External("https://x.test"), "")
		return err
	})
	assert.ErrorIs(t, err, surface.ErrSurfaceUnavailable)
}

type brokenFactory struct{ *headless.Factory }

func (brokenFactory) Bind(context.Context, id.NodeID, navigation.Target, surface.Emitter) (surface.Surface, error) {
	return nil, errors.New("renderer crashed")
}
