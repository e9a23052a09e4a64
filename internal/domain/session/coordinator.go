package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Fawazpw/Project-Sol/internal/domain/navigation"
	"github.com/Fawazpw/Project-Sol/internal/domain/tab"
	"github.com/Fawazpw/Project-Sol/internal/domain/workspace"
	"github.com/Fawazpw/Project-Sol/internal/store"
)

// Recorder receives session counters.
type Recorder interface {
	SessionSaved()
	SessionRestored()
}

type nopRecorder struct{}

func (nopRecorder) SessionSaved()    {}
func (nopRecorder) SessionRestored() {}

// Stats reports when the session was last written and read.
type Stats struct {
	LastSaved    *time.Time `json:"last_saved,omitempty"`
	LastRestored *time.Time `json:"last_restored,omitempty"`
	Saves        int        `json:"saves"`
}

// Coordinator saves the open tabs of a window and restores them at start.
// Incognito windows are never saved or restored.
type Coordinator struct {
	ctrl      *tab.Controller
	snapshots store.Snapshots
	landing   navigation.Target
	recorder  Recorder
	logger    *zap.Logger

	restoring bool

	mu           sync.RWMutex
	lastSaved    *time.Time
	lastRestored *time.Time
	saves        int
}

// NewCoordinator creates a coordinator. snapshots may be nil for incognito
// windows.
func NewCoordinator(ctrl *tab.Controller, snapshots store.Snapshots, recorder Recorder, logger *zap.Logger) *Coordinator {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		ctrl:      ctrl,
		snapshots: snapshots,
		landing:   navigation.Internal(navigation.PageIncognitoLanding, nil),
		recorder:  recorder,
		logger:    logger,
	}
}

func (c *Coordinator) enabled() bool {
	return !c.ctrl.Incognito() && c.snapshots != nil
}

// Snapshot captures the open tabs in document order. Inline documents are
// left out because they cannot be reloaded.
func (c *Coordinator) Snapshot() []store.SnapshotTab {
	tabs := c.ctrl.Tree().Tabs()
	out := make([]store.SnapshotTab, 0, len(tabs))
	for _, t := range tabs {
		if !t.Target.Restorable() {
			continue
		}
		out = append(out, store.SnapshotTab{
			URL:    t.Target.String(),
			Title:  t.Title,
			Active: t.Active,
		})
	}
	return out
}

// Save overwrites the stored snapshot with the current tabs. It does nothing
// for incognito windows or while a restore is running.
func (c *Coordinator) Save(ctx context.Context) error {
	if !c.enabled() || c.restoring {
		return nil
	}

	if err := c.snapshots.Save(ctx, c.Snapshot()); err != nil {
		c.logger.Warn("session save failed", zap.Error(err))
		return err
	}
	c.recorder.SessionSaved()

	now := time.Now()
	c.mu.Lock()
	c.lastSaved = &now
	c.saves++
	c.mu.Unlock()
	return nil
}

// HandleChange saves after changes that alter what a restore would
// reproduce.
func (c *Coordinator) HandleChange(ctx context.Context, _ workspace.NodeID, change tab.Change) {
	switch change {
	case tab.ChangeOpened, tab.ChangeClosed, tab.ChangeNavigated, tab.ChangeActivated, tab.ChangeTitled:
		_ = c.Save(ctx)
	}
}

// Load reads the stored snapshot. It reports false when the snapshot is
// missing, malformed or empty, and always for incognito windows.
func (c *Coordinator) Load(ctx context.Context) ([]store.SnapshotTab, bool) {
	if !c.enabled() {
		return nil, false
	}
	tabs, err := c.snapshots.Load(ctx)
	if err != nil {
		c.logger.Info("no session to restore", zap.Error(err))
		return nil, false
	}
	valid := make([]store.SnapshotTab, 0, len(tabs))
	for _, t := range tabs {
		if t.URL != "" {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		return nil, false
	}
	return valid, true
}

// Restore reopens the stored tabs in order and activates the one saved as
// active, or the first when none was. A tab that fails to bind stays in the
// workspace in its failed state and does not stop the others.
func (c *Coordinator) Restore(ctx context.Context) (bool, error) {
	entries, ok := c.Load(ctx)
	if !ok {
		return false, nil
	}

	c.restoring = true
	var activate workspace.NodeID
	opened := 0
	for _, e := range entries {
		tabID, err := c.ctrl.OpenTab(ctx, navigation.ParseTarget(e.URL), "")
		if tabID == "" {
			c.logger.Warn("session tab not restored", zap.Error(err))
			continue
		}
		if err != nil {
			c.logger.Warn("session tab failed to bind", zap.String("tab_id", tabID.String()), zap.Error(err))
		}
		if t, terr := c.ctrl.Tree().Tab(tabID); terr == nil && e.Title != "" && t.Title == "" {
			t.Title = e.Title
		}
		opened++
		if opened == 1 || e.Active {
			activate = tabID
		}
	}
	c.restoring = false

	if opened == 0 {
		return false, nil
	}
	if _, err := c.ctrl.ActivateTab(ctx, activate); err != nil {
		return true, err
	}
	c.recorder.SessionRestored()

	now := time.Now()
	c.mu.Lock()
	c.lastRestored = &now
	c.mu.Unlock()

	c.logger.Info("session restored", zap.Int("tabs", opened))
	return true, nil
}

// Start populates a new window: incognito windows open the landing page,
// normal windows restore the last session or open the home page.
func (c *Coordinator) Start(ctx context.Context) error {
	if c.ctrl.Incognito() {
		_, err := c.ctrl.OpenTab(ctx, c.landing, "")
		return err
	}

	restored, err := c.Restore(ctx)
	if err != nil {
		c.logger.Warn("session restore incomplete", zap.Error(err))
	}
	if restored {
		return nil
	}
	_, err = c.ctrl.OpenTab(ctx, c.ctrl.Home(), "")
	return err
}

// Stats returns save and restore timestamps.
func (c *Coordinator) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		LastSaved:    c.lastSaved,
		LastRestored: c.lastRestored,
		Saves:        c.saves,
	}
}
