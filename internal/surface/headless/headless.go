// Package headless is a surface driver that keeps navigation state in memory
// without rendering anything. It backs tests, the CLI and CI runs where no
// browser is available.
package headless

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/Fawazpw/Project-Sol/internal/domain/navigation"
	"github.com/Fawazpw/Project-Sol/internal/shared/id"
	"github.com/Fawazpw/Project-Sol/internal/surface"
)

// Factory creates headless surfaces in one partition.
type Factory struct {
	partition string

	mu        sync.Mutex
	documents map[string]string
	surfaces  map[*Surface]struct{}
	closed    bool
}

var _ surface.Factory = (*Factory)(nil)

// NewFactory returns a factory with the given partition name; an empty name
// gets a random one.
func NewFactory(partition string) *Factory {
	if partition == "" {
		partition = id.NewPartition()
	}
	return &Factory{
		partition: partition,
		documents: make(map[string]string),
		surfaces:  make(map[*Surface]struct{}),
	}
}

// Partition returns the partition name.
func (f *Factory) Partition() string { return f.partition }

// Serve registers an HTML document returned for loads of rawURL. Titles of
// unregistered URLs fall back to the host name.
func (f *Factory) Serve(rawURL, html string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.documents[rawURL] = html
}

// Open returns the number of surfaces bound and not yet closed.
func (f *Factory) Open() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.surfaces)
}

// Bind creates a surface and loads target into it.
func (f *Factory) Bind(ctx context.Context, tab id.NodeID, target navigation.Target, emit surface.Emitter) (surface.Surface, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, surface.ErrClosed
	}
	s := &Surface{factory: f, tab: tab, emit: emit}
	f.surfaces[s] = struct{}{}
	f.mu.Unlock()

	if err := s.Load(ctx, target); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close closes every surface of the partition.
func (f *Factory) Close() error {
	f.mu.Lock()
	f.closed = true
	open := make([]*Surface, 0, len(f.surfaces))
	for s := range f.surfaces {
		open = append(open, s)
	}
	f.mu.Unlock()

	for _, s := range open {
		s.Close()
	}
	return nil
}

func (f *Factory) document(rawURL string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.documents[rawURL]
	return doc, ok
}

func (f *Factory) forget(s *Surface) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.surfaces, s)
}

type entry struct {
	url   string
	title string
}

// Surface is an in-memory navigation stack.
type Surface struct {
	factory *Factory
	tab     id.NodeID
	emit    surface.Emitter

	mu      sync.Mutex
	entries []entry
	index   int
	closed  bool
}

var _ surface.Surface = (*Surface)(nil)

// Load pushes target onto the navigation stack, dropping forward entries.
func (s *Surface) Load(ctx context.Context, target navigation.Target) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := s.factory.resolve(target)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return surface.ErrClosed
	}
	if len(s.entries) > 0 {
		s.entries = s.entries[:s.index+1]
	}
	s.entries = append(s.entries, e)
	s.index = len(s.entries) - 1
	s.mu.Unlock()

	s.send(surface.LoadStarted, e)
	s.send(surface.Navigated, e)
	s.send(surface.LoadFinished, e)
	return nil
}

func (s *Surface) Stop(context.Context) error {
	return s.check()
}

func (s *Surface) Reload(context.Context) error {
	e, err := s.current()
	if err != nil {
		return err
	}
	s.send(surface.LoadStarted, e)
	s.send(surface.LoadFinished, e)
	return nil
}

func (s *Surface) GoBack(context.Context) error {
	return s.step(-1)
}

func (s *Surface) GoForward(context.Context) error {
	return s.step(1)
}

func (s *Surface) CanGoBack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.index > 0
}

func (s *Surface) CanGoForward() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.index < len(s.entries)-1
}

func (s *Surface) URL() string {
	e, _ := s.current()
	return e.url
}

func (s *Surface) Title() string {
	e, _ := s.current()
	return e.title
}

// Close releases the surface. Later events are never emitted.
func (s *Surface) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.factory.forget(s)
	return nil
}

func (s *Surface) step(delta int) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return surface.ErrClosed
	}
	next := s.index + delta
	if next < 0 || next >= len(s.entries) {
		s.mu.Unlock()
		return nil
	}
	s.index = next
	e := s.entries[next]
	s.mu.Unlock()

	s.send(surface.LoadStarted, e)
	s.send(surface.Navigated, e)
	s.send(surface.LoadFinished, e)
	return nil
}

func (s *Surface) current() (entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return entry{}, surface.ErrClosed
	}
	if len(s.entries) == 0 {
		return entry{}, nil
	}
	return s.entries[s.index], nil
}

func (s *Surface) check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return surface.ErrClosed
	}
	return nil
}

func (s *Surface) send(kind surface.EventKind, e entry) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed || s.emit == nil {
		return
	}
	ev := surface.Event{Tab: s.tab, Kind: kind, URL: e.url}
	if kind == surface.LoadFinished || kind == surface.TitleUpdated {
		ev.Title = e.title
	}
	s.emit(ev)
}

func (f *Factory) resolve(target navigation.Target) entry {
	switch target.Kind {
	case navigation.KindInline:
		return entry{url: navigation.InlineAddress, title: documentTitle(target.HTML)}
	case navigation.KindInternal:
		return entry{url: target.String(), title: string(target.Page)}
	}

	if doc, ok := f.document(target.URL); ok {
		if title := documentTitle(doc); title != "" {
			return entry{url: target.URL, title: title}
		}
	}
	return entry{url: target.URL, title: hostTitle(target.URL)}
}

func documentTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func hostTitle(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
