package chrome

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/Fawazpw/Project-Sol/internal/domain/navigation"
	"github.com/Fawazpw/Project-Sol/internal/shared/id"
	"github.com/Fawazpw/Project-Sol/internal/surface"
)

// Factory opens pages in one browser context.
type Factory struct {
	browser   *rod.Browser
	name      string
	timeout   time.Duration
	logger    *zap.Logger
	incognito bool

	mu     sync.Mutex
	pages  map[*Surface]struct{}
	closed bool
}

var _ surface.Factory = (*Factory)(nil)

// Partition names the browser context.
func (f *Factory) Partition() string { return f.name }

// Bind opens a page for tab, subscribes to its lifecycle events and loads
// target.
func (f *Factory) Bind(ctx context.Context, tab id.NodeID, target navigation.Target, emit surface.Emitter) (surface.Surface, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, surface.ErrClosed
	}
	f.mu.Unlock()

	page, err := f.browser.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return nil, fmt.Errorf("chrome: create page: %w", err)
	}

	listenCtx, cancel := context.WithCancel(context.Background())
	s := &Surface{
		factory: f,
		page:    page,
		tab:     tab,
		emit:    emit,
		cancel:  cancel,
	}
	s.listen(listenCtx)

	f.mu.Lock()
	f.pages[s] = struct{}{}
	f.mu.Unlock()

	if err := s.Load(ctx, target); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close closes every page and, for incognito contexts, the context itself.
func (f *Factory) Close() error {
	f.mu.Lock()
	f.closed = true
	open := make([]*Surface, 0, len(f.pages))
	for s := range f.pages {
		open = append(open, s)
	}
	f.mu.Unlock()

	for _, s := range open {
		s.Close()
	}
	if f.incognito {
		return proto.TargetDisposeBrowserContext{BrowserContextID: f.browser.BrowserContextID}.Call(f.browser)
	}
	return nil
}

// Surface is one Chrome page.
type Surface struct {
	factory *Factory
	page    *rod.Page
	tab     id.NodeID
	emit    surface.Emitter
	cancel  context.CancelFunc

	mu     sync.Mutex
	closed bool
}

var _ surface.Surface = (*Surface)(nil)

// listen maps CDP page events of the main frame to surface events. rod
// delivers them on its own goroutine; the emitter queues them for the window.
func (s *Surface) listen(ctx context.Context) {
	mainFrame := s.page.FrameID
	wait := s.page.Context(ctx).EachEvent(
		func(e *proto.PageFrameStartedLoading) {
			if e.FrameID == mainFrame {
				s.send(surface.Event{Kind: surface.LoadStarted})
			}
		},
		func(e *proto.PageFrameNavigated) {
			if e.Frame != nil && e.Frame.ParentID == "" {
				s.send(surface.Event{Kind: surface.Navigated, URL: e.Frame.URL})
			}
		},
		func(e *proto.PageNavigatedWithinDocument) {
			if e.FrameID == mainFrame {
				s.send(surface.Event{Kind: surface.Navigated, URL: e.URL})
			}
		},
		func(*proto.PageLoadEventFired) {
			s.send(surface.Event{Kind: surface.LoadFinished, URL: s.URL(), Title: s.Title()})
		},
	)
	go wait()
}

func (s *Surface) Load(ctx context.Context, target navigation.Target) error {
	if s.isClosed() {
		return surface.ErrClosed
	}
	navCtx, cancel := context.WithTimeout(ctx, s.factory.timeout)
	defer cancel()
	p := s.page.Context(navCtx)

	switch target.Kind {
	case navigation.KindInline:
		if err := p.Navigate("about:blank"); err != nil {
			return fmt.Errorf("chrome: blank: %w", err)
		}
		if err := p.SetDocumentContent(target.HTML); err != nil {
			return fmt.Errorf("chrome: set document: %w", err)
		}
		s.send(surface.Event{Kind: surface.LoadFinished, URL: navigation.InlineAddress, Title: s.Title()})
		return nil
	case navigation.KindInternal:
		return fmt.Errorf("chrome: internal page %s must be rendered before loading", target.Page)
	}

	if err := p.Navigate(target.URL); err != nil {
		return fmt.Errorf("chrome: navigate %s: %w", target.URL, err)
	}
	return nil
}

func (s *Surface) Stop(ctx context.Context) error {
	if s.isClosed() {
		return surface.ErrClosed
	}
	return s.page.Context(ctx).StopLoading()
}

func (s *Surface) Reload(ctx context.Context) error {
	if s.isClosed() {
		return surface.ErrClosed
	}
	return s.page.Context(ctx).Reload()
}

func (s *Surface) GoBack(ctx context.Context) error {
	if s.isClosed() {
		return surface.ErrClosed
	}
	return s.page.Context(ctx).NavigateBack()
}

func (s *Surface) GoForward(ctx context.Context) error {
	if s.isClosed() {
		return surface.ErrClosed
	}
	return s.page.Context(ctx).NavigateForward()
}

func (s *Surface) CanGoBack() bool {
	idx, n := s.history()
	return n > 0 && idx > 0
}

func (s *Surface) CanGoForward() bool {
	idx, n := s.history()
	return n > 0 && idx < n-1
}

func (s *Surface) URL() string {
	info := s.info()
	if info == nil {
		return ""
	}
	return info.URL
}

func (s *Surface) Title() string {
	info := s.info()
	if info == nil {
		return ""
	}
	return info.Title
}

// Close stops event delivery and closes the page.
func (s *Surface) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.factory.mu.Lock()
	delete(s.factory.pages, s)
	s.factory.mu.Unlock()
	return s.page.Close()
}

func (s *Surface) history() (int, int) {
	if s.isClosed() {
		return 0, 0
	}
	res, err := proto.PageGetNavigationHistory{}.Call(s.page)
	if err != nil {
		return 0, 0
	}
	return res.CurrentIndex, len(res.Entries)
}

func (s *Surface) info() *proto.TargetTargetInfo {
	if s.isClosed() {
		return nil
	}
	info, err := s.page.Info()
	if err != nil {
		s.factory.logger.Debug("page info unavailable", zap.String("tab_id", s.tab.String()), zap.Error(err))
		return nil
	}
	return info
}

func (s *Surface) send(ev surface.Event) {
	if s.isClosed() || s.emit == nil {
		return
	}
	ev.Tab = s.tab
	s.emit(ev)
}

func (s *Surface) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
