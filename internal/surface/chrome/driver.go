// Package chrome drives real Chrome pages over the DevTools protocol.
//
// One browser process serves every window. Normal windows share the default
// browser context; each incognito window gets its own incognito browser
// context, which Chrome discards with all cookies and storage when it closes.
package chrome

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"go.uber.org/zap"
)

// Config controls how the browser is started.
type Config struct {
	// RemoteURL connects to an already running browser instead of launching one.
	RemoteURL string
	Headless  bool
	// NavigateTimeout bounds the initial navigation of a bind.
	NavigateTimeout time.Duration
	Logger          *zap.Logger
}

func (c *Config) defaults() {
	if c.NavigateTimeout <= 0 {
		c.NavigateTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

// Driver owns the browser process.
type Driver struct {
	cfg     Config
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// NewDriver returns an unstarted driver.
func NewDriver(cfg Config) *Driver {
	cfg.defaults()
	return &Driver{cfg: cfg}
}

// Start launches or connects to the browser.
func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return fmt.Errorf("chrome: driver is closed")
	}
	if d.browser != nil {
		return nil
	}

	log := d.cfg.Logger
	wsURL := d.cfg.RemoteURL
	if wsURL != "" {
		log.Info("connecting to remote browser", zap.String("url", wsURL))
	} else {
		l := launcher.New().Context(ctx).Headless(d.cfg.Headless)
		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("chrome: launch: %w", err)
		}
		wsURL = u
		d.lnch = l
		log.Info("launched local browser", zap.String("url", wsURL), zap.Bool("headless", d.cfg.Headless))
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		d.cleanup()
		return fmt.Errorf("chrome: connect: %w", err)
	}
	d.browser = b
	return nil
}

// Partition returns a factory for a window. Incognito windows get a fresh
// incognito browser context.
func (d *Driver) Partition(incognito bool) (*Factory, error) {
	d.mu.Lock()
	b := d.browser
	d.mu.Unlock()

	if b == nil {
		return nil, fmt.Errorf("chrome: driver not started")
	}

	f := &Factory{
		browser:   b,
		name:      "default",
		timeout:   d.cfg.NavigateTimeout,
		logger:    d.cfg.Logger,
		pages:     make(map[*Surface]struct{}),
		incognito: incognito,
	}
	if incognito {
		ib, err := b.Incognito()
		if err != nil {
			return nil, fmt.Errorf("chrome: incognito context: %w", err)
		}
		f.browser = ib
		f.name = "incognito_" + string(ib.BrowserContextID)
	}
	return f, nil
}

// Close shuts the browser down.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return d.cleanup()
}

func (d *Driver) cleanup() error {
	var err error
	if d.browser != nil {
		err = d.browser.Close()
		d.browser = nil
	}
	if d.lnch != nil {
		d.lnch.Cleanup()
		d.lnch = nil
	}
	return err
}
