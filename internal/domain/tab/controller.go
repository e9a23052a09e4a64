// Package tab drives tabs through their lifecycle: opening and binding a
// content surface, activation, closing with replacement and undo, and
// applying surface events.
//
// A Controller is single-threaded. The owning window calls it from its loop
// goroutine only, and surface events reach it through that same loop.
package tab

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Fawazpw/Project-Sol/internal/domain/navigation"
	"github.com/Fawazpw/Project-Sol/internal/domain/workspace"
	"github.com/Fawazpw/Project-Sol/internal/store"
	"github.com/Fawazpw/Project-Sol/internal/surface"
)

var (
	// ErrIncognito is returned when a persistence feature is used in an
	// incognito window.
	ErrIncognito = errors.New("not available in incognito windows")

	// ErrNotBookmarkable is returned when the tab shows nothing that can be
	// bookmarked.
	ErrNotBookmarkable = errors.New("page cannot be bookmarked")
)

// Renderer turns internal targets into inline documents.
type Renderer interface {
	Render(ctx context.Context, target navigation.Target) (navigation.Target, error)
}

// Recorder receives lifecycle counters.
type Recorder interface {
	TabOpened()
	TabClosed()
	TabRestored()
	BindFailed()
	HistoryAppended()
}

type nopRecorder struct{}

func (nopRecorder) TabOpened()       {}
func (nopRecorder) TabClosed()       {}
func (nopRecorder) TabRestored()     {}
func (nopRecorder) BindFailed()      {}
func (nopRecorder) HistoryAppended() {}

// Change describes why the tab set changed.
type Change string

const (
	ChangeOpened    Change = "opened"
	ChangeClosed    Change = "closed"
	ChangeNavigated Change = "navigated"
	ChangeActivated Change = "activated"
	ChangeUpdated   Change = "updated"
	// ChangeTitled means the tab's title changed.
	ChangeTitled Change = "titled"
)

// Options configures a Controller.
type Options struct {
	Resolver  navigation.Resolver
	Home      navigation.Target
	Titles    *Titles
	Closed    *ClosedStack
	Incognito bool
	// History and Bookmarks are nil for incognito windows.
	History   store.History
	Bookmarks store.Bookmarks
	Pages     Renderer
	Recorder  Recorder
	Logger    *zap.Logger
	// OnChange is called after every change to the tab set or a tab's
	// navigation state. Structural changes trigger a session save.
	OnChange func(workspace.NodeID, Change)
}

// View is what the chrome shows for a tab.
type View struct {
	TabID        workspace.NodeID `json:"tab_id"`
	URL          string           `json:"url"`
	Title        string           `json:"title"`
	DisplayTitle string           `json:"display_title"`
	State        string           `json:"state"`
	Loading      bool             `json:"loading"`
	CanGoBack    bool             `json:"can_go_back"`
	CanGoForward bool             `json:"can_go_forward"`
	Bookmarked   bool             `json:"bookmarked"`
	Active       bool             `json:"active"`
	Error        string           `json:"error,omitempty"`
}

// Controller manages the tabs of one window.
type Controller struct {
	tree    *workspace.Tree
	factory surface.Factory
	emit    surface.Emitter
	opts    Options
	logger  *zap.Logger

	// unrecorded holds tabs whose current URL is owed a history entry once
	// its title is known.
	unrecorded map[workspace.NodeID]struct{}
}

// NewController wires a controller to a tree and a surface factory. emit is
// handed to every surface the controller binds.
func NewController(tree *workspace.Tree, factory surface.Factory, emit surface.Emitter, opts Options) *Controller {
	if opts.Titles == nil {
		opts.Titles = NewTitles(DefaultTitleSuffixes, DefaultTitleLimit)
	}
	if opts.Closed == nil {
		opts.Closed = NewClosedStack(0)
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.Home.URL == "" && opts.Home.Kind == navigation.KindExternal {
		opts.Home = navigation.External(navigation.DefaultHomeURL)
	}
	if opts.Incognito {
		opts.History = nil
		opts.Bookmarks = nil
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tree.OnCloseError(func(tabID workspace.NodeID, err error) {
		logger.Warn("closing tab surface", zap.String("tab_id", tabID.String()), zap.Error(err))
	})
	return &Controller{
		tree:    tree,
		factory: factory,
		emit:    emit,
		opts:    opts,
		logger:  logger,

		unrecorded: make(map[workspace.NodeID]struct{}),
	}
}

// Tree returns the workspace tree the controller mutates.
func (c *Controller) Tree() *workspace.Tree { return c.tree }

// Incognito reports whether the controller belongs to an incognito window.
func (c *Controller) Incognito() bool { return c.opts.Incognito }

// Closed returns the closed-tab stack.
func (c *Controller) Closed() *ClosedStack { return c.opts.Closed }

// Home returns the default tab target.
func (c *Controller) Home() navigation.Target { return c.opts.Home }

// OpenTab creates a tab for target under parent (root when empty), binds a
// content surface and activates it. On a bind failure the tab stays in
// Creating with its error recorded, is still activated, and the returned
// error wraps surface.ErrBindFailure.
func (c *Controller) OpenTab(ctx context.Context, target navigation.Target, parent workspace.NodeID) (workspace.NodeID, error) {
	tabID, err := c.tree.CreateTab(parent, target)
	if err != nil {
		return "", err
	}
	tab, _ := c.tree.Tab(tabID)
	if target.Kind == navigation.KindInternal {
		tab.Title = internalTitle(target.Page)
	}
	c.opts.Recorder.TabOpened()

	bindErr := c.bind(ctx, tab, target)

	if err := c.tree.SetActive(tabID); err != nil {
		return tabID, err
	}
	c.changed(tabID, ChangeOpened)
	return tabID, bindErr
}

// Retry re-binds a tab whose bind failed.
func (c *Controller) Retry(ctx context.Context, tabID workspace.NodeID) error {
	tab, err := c.tree.Tab(tabID)
	if err != nil {
		return err
	}
	if tab.State != workspace.StateCreating {
		return nil
	}
	err = c.bind(ctx, tab, tab.Target)
	c.changed(tabID, ChangeUpdated)
	return err
}

func (c *Controller) bind(ctx context.Context, tab *workspace.TabNode, target navigation.Target) error {
	content, err := c.render(ctx, target)
	if err == nil {
		var s surface.Surface
		s, err = c.factory.Bind(ctx, tab.ID, content, c.emit)
		if err == nil {
			tab.Err = nil
			tab.State = workspace.StateLoading
			return c.tree.AttachHandle(tab.ID, s)
		}
	}

	if !errors.Is(err, surface.ErrBindFailure) {
		err = fmt.Errorf("%w: %w", surface.ErrBindFailure, err)
	}
	tab.Err = err
	c.opts.Recorder.BindFailed()
	c.logger.Warn("content surface bind failed", zap.String("tab_id", tab.ID.String()), zap.Error(err))
	return fmt.Errorf("tab %s: %w", tab.ID, err)
}

func (c *Controller) render(ctx context.Context, target navigation.Target) (navigation.Target, error) {
	if target.Kind != navigation.KindInternal {
		return target, nil
	}
	if c.opts.Pages == nil {
		return navigation.Target{}, fmt.Errorf("no renderer for %s", target)
	}
	return c.opts.Pages.Render(ctx, target)
}

// CloseTab closes tabID, or the active tab when tabID is empty. Closing with
// no tabs, or closing a tab that is already closing, does nothing. If the
// closed tab was active, the next tab in document order is activated, else
// the previous one. A window is never left without tabs: closing the last
// one opens the home target.
func (c *Controller) CloseTab(ctx context.Context, tabID workspace.NodeID) error {
	if tabID == "" {
		active, ok := c.tree.Active()
		if !ok {
			return nil
		}
		tabID = active
	}

	tab, err := c.tree.Tab(tabID)
	if err != nil {
		return err
	}
	if tab.State == workspace.StateClosing || tab.State == workspace.StateClosed {
		return nil
	}
	tab.State = workspace.StateClosing

	if !c.opts.Incognito && tab.Target.Persistable() {
		c.opts.Closed.Push(tab.Target)
	}

	var replacement workspace.NodeID
	if tab.Active {
		replacement = c.neighbor(tabID)
	}

	if err := c.tree.RemoveNode(tabID); err != nil {
		return err
	}
	delete(c.unrecorded, tabID)
	c.opts.Recorder.TabClosed()
	c.logger.Debug("tab closed", zap.String("tab_id", tabID.String()))

	if replacement != "" {
		if err := c.tree.SetActive(replacement); err != nil {
			return err
		}
	}
	c.changed(tabID, ChangeClosed)

	if c.tree.TabCount() == 0 {
		if _, err := c.OpenTab(ctx, c.opts.Home, ""); err != nil {
			c.logger.Warn("default tab failed to bind", zap.Error(err))
		}
	}
	return nil
}

// neighbor picks the tab after tabID in document order, else the one before.
func (c *Controller) neighbor(tabID workspace.NodeID) workspace.NodeID {
	tabs := c.tree.Tabs()
	for i, t := range tabs {
		if t.ID != tabID {
			continue
		}
		if i+1 < len(tabs) {
			return tabs[i+1].ID
		}
		if i > 0 {
			return tabs[i-1].ID
		}
	}
	return ""
}

// ActivateTab makes tabID active and returns its view.
func (c *Controller) ActivateTab(ctx context.Context, tabID workspace.NodeID) (View, error) {
	if err := c.tree.SetActive(tabID); err != nil {
		return View{}, err
	}
	c.changed(tabID, ChangeActivated)
	return c.View(ctx, tabID)
}

// View describes a tab for the chrome. Bookmark state is read from the
// bookmark store and is always false in incognito windows.
func (c *Controller) View(ctx context.Context, tabID workspace.NodeID) (View, error) {
	tab, err := c.tree.Tab(tabID)
	if err != nil {
		return View{}, err
	}

	v := View{
		TabID:        tab.ID,
		URL:          tab.Target.String(),
		Title:        tab.Title,
		DisplayTitle: c.opts.Titles.Display(tab.Title),
		State:        tab.State.String(),
		Loading:      tab.State == workspace.StateLoading || tab.State == workspace.StateCreating,
		Active:       tab.Active,
	}
	if tab.Err != nil {
		v.Error = tab.Err.Error()
		v.Loading = false
	}
	if h, ok := tab.Handle.(surface.Surface); ok {
		v.CanGoBack = h.CanGoBack()
		v.CanGoForward = h.CanGoForward()
	}
	if c.opts.Bookmarks != nil && tab.Target.Persistable() {
		has, err := c.opts.Bookmarks.Has(ctx, tab.Target.URL)
		if err != nil {
			c.logger.Debug("bookmark lookup failed", zap.String("tab_id", tab.ID.String()), zap.Error(err))
		}
		v.Bookmarked = has
	}
	return v, nil
}

// ActiveView returns the view of the active tab.
func (c *Controller) ActiveView(ctx context.Context) (View, bool) {
	active, ok := c.tree.Active()
	if !ok {
		return View{}, false
	}
	v, err := c.View(ctx, active)
	return v, err == nil
}

// HandleEvent applies a surface event. Events for tabs that no longer exist
// or are closing are dropped.
func (c *Controller) HandleEvent(ctx context.Context, ev surface.Event) {
	tab, err := c.tree.Tab(ev.Tab)
	if err != nil {
		c.logger.Debug("dropping event for missing tab", zap.String("tab_id", ev.Tab.String()), zap.Stringer("event", ev.Kind))
		return
	}
	if tab.State == workspace.StateClosing || tab.State == workspace.StateClosed {
		return
	}

	switch ev.Kind {
	case surface.LoadStarted:
		tab.State = workspace.StateLoading
		c.changed(tab.ID, ChangeUpdated)

	case surface.Navigated:
		c.flushHistory(ctx, tab)
		previous := tab.Target.URL
		if !isDocumentAddress(ev.URL) {
			tab.Target = navigation.ParseTarget(ev.URL)
		}
		switch {
		case ev.Title != "":
			tab.Title = c.opts.Titles.Clean(ev.Title)
		case !sameDocument(previous, tab.Target.URL):
			tab.Title = ""
		}
		c.unrecorded[tab.ID] = struct{}{}
		if tab.Title != "" {
			c.flushHistory(ctx, tab)
		}
		c.changed(tab.ID, ChangeNavigated)

	case surface.LoadFinished:
		tab.State = workspace.StateReady
		titled := c.setTitle(tab, ev.Title)
		c.flushHistory(ctx, tab)
		c.changed(tab.ID, titleChange(titled))

	case surface.TitleUpdated:
		titled := c.setTitle(tab, ev.Title)
		if tab.Title != "" {
			c.flushHistory(ctx, tab)
		}
		c.changed(tab.ID, titleChange(titled))
	}
}

// setTitle stores a cleaned title and reports whether it changed. An event
// without a title keeps the current one.
func (c *Controller) setTitle(tab *workspace.TabNode, raw string) bool {
	title := c.opts.Titles.Clean(raw)
	if raw == "" || title == tab.Title {
		return false
	}
	tab.Title = title
	return true
}

func titleChange(titled bool) Change {
	if titled {
		return ChangeTitled
	}
	return ChangeUpdated
}

// flushHistory writes the entry owed for the tab's current URL, if any.
func (c *Controller) flushHistory(ctx context.Context, tab *workspace.TabNode) {
	if _, ok := c.unrecorded[tab.ID]; !ok {
		return
	}
	delete(c.unrecorded, tab.ID)
	c.recordHistory(ctx, tab)
}

func (c *Controller) recordHistory(ctx context.Context, tab *workspace.TabNode) {
	if c.opts.Incognito || c.opts.History == nil || !tab.Target.Persistable() {
		return
	}
	e := store.HistoryEntry{Title: tab.Title, URL: tab.Target.URL, Timestamp: store.NowMillis()}
	if err := c.opts.History.Append(ctx, e); err != nil {
		c.logger.Warn("history append failed", zap.String("tab_id", tab.ID.String()), zap.Error(err))
		return
	}
	c.opts.Recorder.HistoryAppended()
}

// Navigate resolves address-bar input and loads it into the active tab, or
// opens a new tab when there is none.
func (c *Controller) Navigate(ctx context.Context, input string) (workspace.NodeID, error) {
	target := c.Resolve(input)

	active, ok := c.tree.Active()
	if !ok {
		return c.OpenTab(ctx, target, "")
	}
	return active, c.Load(ctx, active, target)
}

// Resolve turns address-bar input into a target without loading it.
func (c *Controller) Resolve(input string) navigation.Target {
	return c.opts.Resolver.Resolve(input)
}

// Load replaces what tabID shows.
func (c *Controller) Load(ctx context.Context, tabID workspace.NodeID, target navigation.Target) error {
	tab, err := c.tree.Tab(tabID)
	if err != nil {
		return err
	}
	if tab.State == workspace.StateClosing {
		return nil
	}

	tab.Target = target
	if target.Kind == navigation.KindInternal {
		tab.Title = internalTitle(target.Page)
	}

	s, ok := tab.Handle.(surface.Surface)
	if !ok {
		return c.Retry(ctx, tabID)
	}
	content, err := c.render(ctx, target)
	if err != nil {
		return err
	}
	tab.State = workspace.StateLoading
	c.changed(tabID, ChangeUpdated)
	return s.Load(ctx, content)
}

// GoBack navigates the active tab back.
func (c *Controller) GoBack(ctx context.Context) error {
	return c.withActive(func(s surface.Surface) error { return s.GoBack(ctx) })
}

// GoForward navigates the active tab forward.
func (c *Controller) GoForward(ctx context.Context) error {
	return c.withActive(func(s surface.Surface) error { return s.GoForward(ctx) })
}

// Stop stops loading the active tab.
func (c *Controller) Stop(ctx context.Context) error {
	return c.withActive(func(s surface.Surface) error { return s.Stop(ctx) })
}

// Reload reloads the active tab. Internal pages are rendered again so they
// show current data.
func (c *Controller) Reload(ctx context.Context) error {
	active, ok := c.tree.Active()
	if !ok {
		return nil
	}
	tab, err := c.tree.Tab(active)
	if err != nil {
		return err
	}
	if tab.Target.Kind == navigation.KindInternal {
		return c.Load(ctx, active, tab.Target)
	}
	return c.withActive(func(s surface.Surface) error { return s.Reload(ctx) })
}

func (c *Controller) withActive(fn func(surface.Surface) error) error {
	active, ok := c.tree.Active()
	if !ok {
		return nil
	}
	tab, err := c.tree.Tab(active)
	if err != nil {
		return err
	}
	s, ok := tab.Handle.(surface.Surface)
	if !ok {
		return nil
	}
	return fn(s)
}

// RestoreClosed reopens the most recently closed tab. It reports false when
// there is nothing to restore.
func (c *Controller) RestoreClosed(ctx context.Context) (workspace.NodeID, bool, error) {
	target, ok := c.opts.Closed.Pop()
	if !ok {
		return "", false, nil
	}
	tabID, err := c.OpenTab(ctx, target, "")
	c.opts.Recorder.TabRestored()
	return tabID, true, err
}

// ToggleBookmark adds or removes the bookmark for what tabID shows and
// reports whether it is bookmarked afterwards.
func (c *Controller) ToggleBookmark(ctx context.Context, tabID workspace.NodeID) (bool, error) {
	if c.opts.Incognito || c.opts.Bookmarks == nil {
		return false, ErrIncognito
	}
	tab, err := c.tree.Tab(tabID)
	if err != nil {
		return false, err
	}
	if !tab.Target.Persistable() {
		return false, ErrNotBookmarkable
	}
	on, err := store.Toggle(ctx, c.opts.Bookmarks, store.BookmarkEntry{
		Title: tab.Title,
		URL:   tab.Target.URL,
	})
	if err != nil {
		return false, err
	}
	c.changed(tabID, ChangeUpdated)
	return on, nil
}

func (c *Controller) changed(tabID workspace.NodeID, change Change) {
	if c.opts.OnChange != nil {
		c.opts.OnChange(tabID, change)
	}
}

// isDocumentAddress reports addresses surfaces use for inline content.
func isDocumentAddress(u string) bool {
	switch u {
	case navigation.InlineAddress, "about:blank", "":
		return true
	}
	return len(u) >= 5 && (u[:5] == "data:" || u[:5] == "DATA:")
}

// sameDocument reports whether a and b differ only in their fragment.
func sameDocument(a, b string) bool {
	if i := strings.IndexByte(a, '#'); i >= 0 {
		a = a[:i]
	}
	if i := strings.IndexByte(b, '#'); i >= 0 {
		b = b[:i]
	}
	return a == b
}

func internalTitle(p navigation.Page) string {
	switch p {
	case navigation.PageHistory:
		return "History"
	case navigation.PageBookmarks:
		return "Bookmarks"
	case navigation.PageSettings:
		return "Settings"
	case navigation.PageIncognitoLanding:
		return "Incognito"
	}
	return string(p)
}
