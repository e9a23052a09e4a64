package surface

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Fawazpw/Project-Sol/internal/domain/navigation"
	"github.com/Fawazpw/Project-Sol/internal/shared/id"
)

// GuardState is the state of a Guard.
type GuardState int

const (
	GuardClosed GuardState = iota
	GuardHalfOpen
	GuardOpen
)

func (s GuardState) String() string {
	switch s {
	case GuardClosed:
		return "closed"
	case GuardHalfOpen:
		return "half-open"
	case GuardOpen:
		return "open"
	default:
		return "unknown"
	}
}

// GuardSettings configures a Guard.
type GuardSettings struct {
	// Threshold is the number of consecutive bind failures that opens the guard.
	Threshold int
	// Cooldown is how long the guard stays open before allowing one trial bind.
	Cooldown time.Duration
	// OnStateChange is called whenever the state changes.
	OnStateChange func(from, to GuardState)
}

// Guard wraps a Factory so that a driver which keeps failing (browser
// crashed, control socket gone) fails fast with ErrSurfaceUnavailable
// instead of stalling every new tab.
type Guard struct {
	Factory
	settings GuardSettings
	now      func() time.Time

	mu       sync.Mutex
	state    GuardState
	failures int
	openedAt time.Time
	trial    bool
}

// NewGuard wraps f.
func NewGuard(f Factory, settings GuardSettings) *Guard {
	if settings.Threshold <= 0 {
		settings.Threshold = 5
	}
	if settings.Cooldown <= 0 {
		settings.Cooldown = 30 * time.Second
	}
	return &Guard{Factory: f, settings: settings, now: time.Now}
}

// State returns the current guard state.
func (g *Guard) State() GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current()
}

// Bind forwards to the wrapped factory unless the guard is open. Errors are
// wrapped with ErrBindFailure.
func (g *Guard) Bind(ctx context.Context, tab id.NodeID, target navigation.Target, emit Emitter) (Surface, error) {
	if err := g.before(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBindFailure, err)
	}

	s, err := g.Factory.Bind(ctx, tab, target, emit)
	g.after(err == nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBindFailure, err)
	}
	return s, nil
}

func (g *Guard) before() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.current() {
	case GuardOpen:
		return ErrSurfaceUnavailable
	case GuardHalfOpen:
		if g.trial {
			return ErrSurfaceUnavailable
		}
		g.trial = true
	}
	return nil
}

func (g *Guard) after(ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	state := g.current()
	g.trial = false
	if ok {
		g.failures = 0
		g.setState(state, GuardClosed)
		return
	}

	g.failures++
	if state == GuardHalfOpen || g.failures >= g.settings.Threshold {
		g.openedAt = g.now()
		g.setState(state, GuardOpen)
	}
}

// current promotes an expired open guard to half-open. Caller holds mu.
func (g *Guard) current() GuardState {
	if g.state == GuardOpen && g.now().Sub(g.openedAt) >= g.settings.Cooldown {
		g.setState(GuardOpen, GuardHalfOpen)
	}
	return g.state
}

func (g *Guard) setState(from, to GuardState) {
	if from == to && g.state == to {
		return
	}
	g.state = to
	if g.settings.OnStateChange != nil {
		g.settings.OnStateChange(from, to)
	}
}
