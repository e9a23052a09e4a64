package window

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/Fawazpw/Project-Sol/internal/domain/navigation"
	"github.com/Fawazpw/Project-Sol/internal/domain/session"
	"github.com/Fawazpw/Project-Sol/internal/domain/tab"
	"github.com/Fawazpw/Project-Sol/internal/domain/workspace"
	"github.com/Fawazpw/Project-Sol/internal/shared/id"
	"github.com/Fawazpw/Project-Sol/internal/store"
	"github.com/Fawazpw/Project-Sol/internal/surface"
)

var (
	// ErrWindowClosed is returned for work submitted to a window that has
	// shut down.
	ErrWindowClosed = errors.New("window closed")
	// ErrWindowNotFound is returned for unknown window ids.
	ErrWindowNotFound = errors.New("window not found")
)

// Mode separates normal windows from incognito ones.
type Mode string

const (
	ModeNormal    Mode = "normal"
	ModeIncognito Mode = "incognito"
)

// NotificationKind says what a Notification is about.
type NotificationKind string

const (
	// NotifyTab carries a tab.Change for Node.
	NotifyTab NotificationKind = "tab"
	// NotifyTree follows folder edits and reorders.
	NotifyTree    NotificationKind = "tree"
	NotifySidebar NotificationKind = "sidebar"
	NotifyClosed  NotificationKind = "closed"
)

// Notification tells subscribers that the window changed. Subscribers read
// the new state with Snapshot.
type Notification struct {
	Window id.WindowID      `json:"window_id"`
	Kind   NotificationKind `json:"kind"`
	Node   workspace.NodeID `json:"node_id,omitempty"`
	Change tab.Change       `json:"change,omitempty"`
}

// State is a read-only picture of a window.
type State struct {
	ID             id.WindowID     `json:"id"`
	Mode           Mode            `json:"mode"`
	Partition      string          `json:"partition"`
	SidebarVisible bool            `json:"sidebar_visible"`
	Active         *tab.View       `json:"active,omitempty"`
	Tree           []workspace.Row `json:"tree"`
	ClosedTabs     int             `json:"closed_tabs"`
	Session        session.Stats   `json:"session"`
}

const subscriberBuffer = 64

type job struct {
	fn     func(context.Context) error
	result chan error
}

// Window is one browser window: a workspace tree with its controller,
// organizer and session coordinator, bound to a surface partition. All
// mutations run on the loop goroutine started by Run; other goroutines
// submit work with Do.
type Window struct {
	id      id.WindowID
	mode    Mode
	tree    *workspace.Tree
	org     *workspace.Organizer
	ctrl    *tab.Controller
	coord   *session.Coordinator
	factory surface.Factory
	chrome  Chrome
	opener  func(context.Context, Mode) (*Window, error)
	logger  *zap.Logger

	// loop state
	ctx     context.Context
	sidebar bool

	work chan job
	wake chan struct{}
	stop chan struct{}
	done chan struct{}
	once sync.Once

	mu      sync.Mutex
	pending []surface.Event

	subMu  sync.Mutex
	subs   map[int]chan Notification
	nextID int

	onTeardown func(*Window, int)
}

// Config carries everything a Window is built from.
type Config struct {
	ID       id.WindowID
	Mode     Mode
	Factory  surface.Factory
	Resolver navigation.Resolver
	Home     navigation.Target
	Titles   *tab.Titles
	Closed   *tab.ClosedStack
	// Stores is ignored for incognito windows.
	Stores   store.Set
	Pages    tab.Renderer
	Recorder Recorder
	Chrome   Chrome
	Logger   *zap.Logger
	Opener   func(context.Context, Mode) (*Window, error)
	Teardown func(w *Window, tabs int)
}

// New assembles a window. It does not start the loop or open any tab.
func New(cfg Config) *Window {
	if cfg.ID == "" {
		cfg.ID = id.NewWindowID()
	}
	if cfg.Chrome == nil {
		cfg.Chrome = NopChrome{}
	}
	if cfg.Recorder == nil {
		cfg.Recorder = nopRecorder{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	incognito := cfg.Mode == ModeIncognito
	if incognito {
		cfg.Home = navigation.Internal(navigation.PageIncognitoLanding, nil)
		cfg.Stores = store.Set{}
	}

	w := &Window{
		id:         cfg.ID,
		mode:       cfg.Mode,
		tree:       workspace.NewTree(),
		factory:    cfg.Factory,
		chrome:     cfg.Chrome,
		opener:     cfg.Opener,
		logger:     cfg.Logger,
		ctx:        context.Background(),
		sidebar:    true,
		work:       make(chan job),
		wake:       make(chan struct{}, 1),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		subs:       make(map[int]chan Notification),
		onTeardown: cfg.Teardown,
	}

	w.org = workspace.NewOrganizer(w.tree, cfg.Logger.Named("organizer"), func(error) {
		cfg.Recorder.InvalidMove()
	})
	w.ctrl = tab.NewController(w.tree, cfg.Factory, w.enqueue, tab.Options{
		Resolver:  cfg.Resolver,
		Home:      cfg.Home,
		Titles:    cfg.Titles,
		Closed:    cfg.Closed,
		Incognito: incognito,
		History:   cfg.Stores.History,
		Bookmarks: cfg.Stores.Bookmarks,
		Pages:     cfg.Pages,
		Recorder:  cfg.Recorder,
		Logger:    cfg.Logger.Named("tab"),
		OnChange:  w.tabChanged,
	})
	w.coord = session.NewCoordinator(w.ctrl, cfg.Stores.Snapshots, cfg.Recorder, cfg.Logger.Named("session"))
	return w
}

// ID returns the window id.
func (w *Window) ID() id.WindowID { return w.id }

// Mode returns whether the window is incognito.
func (w *Window) Mode() Mode { return w.mode }

// Incognito reports whether the window is incognito.
func (w *Window) Incognito() bool { return w.mode == ModeIncognito }

// Done is closed once the window has been torn down.
func (w *Window) Done() <-chan struct{} { return w.done }

// The accessors below are only safe inside Do.

func (w *Window) Tree() *workspace.Tree             { return w.tree }
func (w *Window) Organizer() *workspace.Organizer   { return w.org }
func (w *Window) Controller() *tab.Controller       { return w.ctrl }
func (w *Window) Coordinator() *session.Coordinator { return w.coord }
func (w *Window) SidebarVisible() bool              { return w.sidebar }

// Run processes submitted work and surface events until ctx is cancelled or
// Close is called, then releases every tab and the surface partition.
func (w *Window) Run(ctx context.Context) {
	w.ctx = ctx
	defer w.teardown()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case j := <-w.work:
			err := j.fn(ctx)
			w.drain(ctx)
			j.result <- err
		case <-w.wake:
			w.drain(ctx)
		}
	}
}

// Do runs fn on the window loop and waits for it. Surface events raised by
// fn are applied before Do returns.
func (w *Window) Do(ctx context.Context, fn func(context.Context) error) error {
	result := make(chan error, 1)

	select {
	case w.work <- job{fn: fn, result: result}:
	case <-w.done:
		return ErrWindowClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-w.done:
		// The loop always finishes a job before exiting.
		return <-result
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the window state. It must be called inside Do.
func (w *Window) Snapshot(ctx context.Context) State {
	st := State{
		ID:             w.id,
		Mode:           w.mode,
		Partition:      w.factory.Partition(),
		SidebarVisible: w.sidebar,
		Tree:           w.tree.Outline(),
		ClosedTabs:     w.ctrl.Closed().Len(),
		Session:        w.coord.Stats(),
	}
	if v, ok := w.ctrl.ActiveView(ctx); ok {
		st.Active = &v
	}
	return st
}

// Subscribe returns a channel of notifications and a function that ends the
// subscription. Slow subscribers miss notifications instead of blocking the
// window. The channel is closed when the window is torn down.
func (w *Window) Subscribe() (<-chan Notification, func()) {
	w.subMu.Lock()
	defer w.subMu.Unlock()

	ch := make(chan Notification, subscriberBuffer)
	select {
	case <-w.done:
		close(ch)
		return ch, func() {}
	default:
	}

	key := w.nextID
	w.nextID++
	w.subs[key] = ch

	return ch, func() {
		w.subMu.Lock()
		defer w.subMu.Unlock()
		if c, ok := w.subs[key]; ok {
			delete(w.subs, key)
			close(c)
		}
	}
}

// Close stops the loop and waits for teardown.
func (w *Window) Close(ctx context.Context) error {
	w.once.Do(func() { close(w.stop) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Window) publish(n Notification) {
	n.Window = w.id
	w.subMu.Lock()
	defer w.subMu.Unlock()
	for _, ch := range w.subs {
		select {
		case ch <- n:
		default:
			w.logger.Debug("subscriber lagging, notification dropped", zap.String("kind", string(n.Kind)))
		}
	}
}

func (w *Window) tabChanged(tabID workspace.NodeID, change tab.Change) {
	w.coord.HandleChange(w.ctx, tabID, change)
	w.publish(Notification{Kind: NotifyTab, Node: tabID, Change: change})
}

// enqueue is the emitter handed to surfaces. Drivers call it from their own
// goroutines; events are applied on the loop in arrival order.
func (w *Window) enqueue(ev surface.Event) {
	w.mu.Lock()
	w.pending = append(w.pending, ev)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Window) drain(ctx context.Context) {
	for {
		w.mu.Lock()
		if len(w.pending) == 0 {
			w.mu.Unlock()
			return
		}
		ev := w.pending[0]
		w.pending = w.pending[1:]
		w.mu.Unlock()

		w.ctrl.HandleEvent(ctx, ev)
	}
}

func (w *Window) teardown() {
	tabs := w.tree.TabCount()
	if err := w.tree.Release(); err != nil {
		w.logger.Warn("closing tab surfaces", zap.Error(err))
	}
	if err := w.factory.Close(); err != nil {
		w.logger.Warn("closing surface partition", zap.Error(err))
	}
	w.ctrl.Closed().Clear()

	w.mu.Lock()
	w.pending = nil
	w.mu.Unlock()

	w.subMu.Lock()
	for key, ch := range w.subs {
		select {
		case ch <- Notification{Window: w.id, Kind: NotifyClosed}:
		default:
		}
		close(ch)
		delete(w.subs, key)
	}
	close(w.done)
	w.subMu.Unlock()

	if w.onTeardown != nil {
		w.onTeardown(w, tabs)
	}
	w.logger.Info("window closed", zap.Int("tabs", tabs))
}
