package window

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/Fawazpw/Project-Sol/internal/domain/navigation"
	"github.com/Fawazpw/Project-Sol/internal/domain/pages"
	"github.com/Fawazpw/Project-Sol/internal/domain/session"
	"github.com/Fawazpw/Project-Sol/internal/domain/tab"
	"github.com/Fawazpw/Project-Sol/internal/infrastructure/logging"
	"github.com/Fawazpw/Project-Sol/internal/preferences"
	"github.com/Fawazpw/Project-Sol/internal/shared/id"
	"github.com/Fawazpw/Project-Sol/internal/store"
	"github.com/Fawazpw/Project-Sol/internal/surface"
)

// Recorder collects counters from every window.
type Recorder interface {
	tab.Recorder
	session.Recorder
	InvalidMove()
}

// Metrics is the recorder the manager reports window and tab totals to.
type Metrics interface {
	Recorder
	WindowOpened(mode string)
	WindowClosed(mode string)
	TabsReleased(n int)
	SurfaceAvailable(ok bool)
}

type nopRecorder struct{}

func (nopRecorder) TabOpened()       {}
func (nopRecorder) TabClosed()       {}
func (nopRecorder) TabRestored()     {}
func (nopRecorder) BindFailed()      {}
func (nopRecorder) HistoryAppended() {}
func (nopRecorder) SessionSaved()    {}
func (nopRecorder) SessionRestored() {}
func (nopRecorder) InvalidMove()     {}

type nopMetrics struct{ nopRecorder }

func (nopMetrics) WindowOpened(string)   {}
func (nopMetrics) WindowClosed(string)   {}
func (nopMetrics) TabsReleased(int)      {}
func (nopMetrics) SurfaceAvailable(bool) {}

// Surfaces hands out one surface partition per window. Incognito windows
// must get a partition that shares nothing with any other window.
type Surfaces interface {
	Partition(incognito bool) (surface.Factory, error)
}

// SurfacesFunc adapts a function to Surfaces.
type SurfacesFunc func(incognito bool) (surface.Factory, error)

func (f SurfacesFunc) Partition(incognito bool) (surface.Factory, error) { return f(incognito) }

// Options configures a Manager.
type Options struct {
	Surfaces Surfaces
	// Guard, when set, wraps every partition in a bind guard.
	Guard *surface.GuardSettings
	// Stores are shared by all normal windows.
	Stores         store.Set
	Prefs          *preferences.Store
	Resolver       navigation.Resolver
	Home           navigation.Target
	Titles         *tab.Titles
	ClosedTabLimit int
	Metrics        Metrics
	Chrome         Chrome
	Logger         *logging.Logger
}

// Manager owns every open window.
type Manager struct {
	opts   Options
	log    *logging.Logger
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	windows map[id.WindowID]*Window
}

// NewManager creates a manager. Window loops run until Shutdown.
func NewManager(opts Options) *Manager {
	if opts.Metrics == nil {
		opts.Metrics = nopMetrics{}
	}
	if opts.Chrome == nil {
		opts.Chrome = NopChrome{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		opts:    opts,
		log:     opts.Logger,
		logger:  opts.Logger.Component("windows"),
		ctx:     ctx,
		cancel:  cancel,
		windows: make(map[id.WindowID]*Window),
	}
}

// Open creates a window, starts its loop and populates it: a normal window
// restores the last session, an incognito window opens the landing page.
func (m *Manager) Open(ctx context.Context, mode Mode) (*Window, error) {
	if mode != ModeNormal && mode != ModeIncognito {
		return nil, fmt.Errorf("unknown window mode %q", mode)
	}
	incognito := mode == ModeIncognito

	factory, err := m.opts.Surfaces.Partition(incognito)
	if err != nil {
		return nil, fmt.Errorf("surface partition: %w", err)
	}
	if m.opts.Guard != nil {
		settings := *m.opts.Guard
		settings.OnStateChange = func(_, to surface.GuardState) {
			m.opts.Metrics.SurfaceAvailable(to != surface.GuardOpen)
			m.logger.Warn("surface guard state changed", zap.String("state", to.String()))
		}
		factory = surface.NewGuard(factory, settings)
	}

	windowID := id.NewWindowID()
	w := New(Config{
		ID:       windowID,
		Mode:     mode,
		Factory:  factory,
		Resolver: m.opts.Resolver,
		Home:     m.opts.Home,
		Titles:   m.opts.Titles,
		Closed:   tab.NewClosedStack(m.opts.ClosedTabLimit),
		Stores:   m.opts.Stores,
		Pages: &pages.Renderer{
			History:   m.opts.Stores.History,
			Bookmarks: m.opts.Stores.Bookmarks,
			Prefs:     m.opts.Prefs,
			Incognito: incognito,
		},
		Recorder: m.opts.Metrics,
		Chrome:   m.opts.Chrome,
		Logger:   m.log.Window(windowID.String(), incognito),
		Opener:   m.Open,
		Teardown: m.forget,
	})

	m.mu.Lock()
	m.windows[w.ID()] = w
	m.mu.Unlock()
	m.opts.Metrics.WindowOpened(string(mode))

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		w.Run(m.ctx)
	}()

	err = w.Do(ctx, func(ctx context.Context) error {
		return w.coord.Start(ctx)
	})
	if err != nil {
		// The window is usable; its first tab carries the bind error.
		m.logger.Warn("window started with errors", zap.String("window_id", w.ID().String()), zap.Error(err))
	}
	m.logger.Info("window opened", zap.String("window_id", w.ID().String()), zap.String("mode", string(mode)))
	return w, nil
}

// Get returns an open window.
func (m *Manager) Get(windowID id.WindowID) (*Window, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[windowID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWindowNotFound, windowID)
	}
	return w, nil
}

// List returns the open windows, oldest first.
func (m *Manager) List() []*Window {
	m.mu.Lock()
	out := make([]*Window, 0, len(m.windows))
	for _, w := range m.windows {
		out = append(out, w)
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Close tears one window down. For incognito windows this discards every
// trace of the window's browsing.
func (m *Manager) Close(ctx context.Context, windowID id.WindowID) error {
	w, err := m.Get(windowID)
	if err != nil {
		return err
	}
	return w.Close(ctx)
}

// Shutdown closes every window and waits for their loops to exit.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) forget(w *Window, tabs int) {
	m.mu.Lock()
	delete(m.windows, w.ID())
	m.mu.Unlock()

	m.opts.Metrics.WindowClosed(string(w.Mode()))
	m.opts.Metrics.TabsReleased(tabs)
}
