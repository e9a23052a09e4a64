// Package surface defines the content-rendering capability a tab is bound to.
//
// The workspace only ever talks to a Surface through this package: drivers
// (headless, rod) implement Factory and report lifecycle changes through an
// Emitter. Emitters may be called from any goroutine; the window queues the
// events and applies them on its own loop.
package surface

import (
	"context"
	"errors"

	"github.com/Fawazpw/Project-Sol/internal/domain/navigation"
	"github.com/Fawazpw/Project-Sol/internal/shared/id"
)

var (
	// ErrBindFailure is returned when a surface could not be created for a tab.
	ErrBindFailure = errors.New("content surface bind failed")

	// ErrSurfaceUnavailable is returned while the bind guard is open after
	// repeated driver failures.
	ErrSurfaceUnavailable = errors.New("content surface driver unavailable")

	// ErrClosed is returned by operations on a closed surface.
	ErrClosed = errors.New("content surface closed")
)

// EventKind enumerates surface lifecycle notifications.
type EventKind int

const (
	LoadStarted EventKind = iota
	LoadFinished
	Navigated
	TitleUpdated
)

func (k EventKind) String() string {
	switch k {
	case LoadStarted:
		return "load-started"
	case LoadFinished:
		return "load-finished"
	case Navigated:
		return "navigated"
	case TitleUpdated:
		return "title-updated"
	default:
		return "unknown"
	}
}

// Event is emitted by a surface for the tab it is bound to.
type Event struct {
	Tab   id.NodeID
	Kind  EventKind
	URL   string
	Title string
}

// Emitter receives surface events.
type Emitter func(Event)

// Surface is one tab's content view.
type Surface interface {
	Load(ctx context.Context, target navigation.Target) error
	Stop(ctx context.Context) error
	Reload(ctx context.Context) error
	GoBack(ctx context.Context) error
	GoForward(ctx context.Context) error
	CanGoBack() bool
	CanGoForward() bool
	URL() string
	Title() string
	Close() error
}

// Factory binds new surfaces. Each factory is one resource partition:
// cookies, cache and storage are not shared across factories.
type Factory interface {
	Bind(ctx context.Context, tab id.NodeID, target navigation.Target, emit Emitter) (Surface, error)
	Partition() string
	Close() error
}
