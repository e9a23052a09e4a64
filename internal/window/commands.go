package window

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Fawazpw/Project-Sol/internal/domain/navigation"
	"github.com/Fawazpw/Project-Sol/internal/domain/workspace"
	"github.com/Fawazpw/Project-Sol/internal/shared/id"
)

// ErrUnknownCommand is returned by Execute for names it does not know.
var ErrUnknownCommand = errors.New("unknown command")

// Command names a window-chrome action, as bound to menus and shortcuts.
type Command string

const (
	CmdNewTab             Command = "new-tab"
	CmdCloseTab           Command = "close-tab"
	CmdRestoreTab         Command = "restore-tab"
	CmdToggleSidebar      Command = "toggle-sidebar"
	CmdOpenHistory        Command = "open-history"
	CmdOpenBookmarks      Command = "open-bookmarks"
	CmdOpenSettings       Command = "open-settings"
	CmdNewIncognitoWindow Command = "new-incognito-window"
	CmdToggleFullscreen   Command = "toggle-fullscreen"
	CmdToggleDevTools     Command = "toggle-devtools"
	CmdQuit               Command = "quit"
	CmdBack               Command = "back"
	CmdForward            Command = "forward"
	CmdReload             Command = "reload"
	CmdStop               Command = "stop"
	CmdToggleBookmark     Command = "toggle-bookmark"
)

var commands = map[Command]func(*Window, context.Context, *Result) error{
	CmdNewTab: func(w *Window, ctx context.Context, r *Result) error {
		tabID, err := w.ctrl.OpenTab(ctx, w.ctrl.Home(), "")
		r.TabID = tabID
		return err
	},
	CmdCloseTab: func(w *Window, ctx context.Context, _ *Result) error {
		return w.ctrl.CloseTab(ctx, "")
	},
	CmdRestoreTab: func(w *Window, ctx context.Context, r *Result) error {
		tabID, ok, err := w.ctrl.RestoreClosed(ctx)
		r.TabID = tabID
		r.Value = &ok
		return err
	},
	CmdToggleSidebar: func(w *Window, _ context.Context, r *Result) error {
		w.sidebar = !w.sidebar
		visible := w.sidebar
		r.Value = &visible
		w.publish(Notification{Kind: NotifySidebar})
		return nil
	},
	CmdOpenHistory:   openPage(navigation.PageHistory),
	CmdOpenBookmarks: openPage(navigation.PageBookmarks),
	CmdOpenSettings:  openPage(navigation.PageSettings),
	CmdNewIncognitoWindow: func(w *Window, ctx context.Context, r *Result) error {
		if w.opener == nil {
			return fmt.Errorf("%s: no window manager", CmdNewIncognitoWindow)
		}
		nw, err := w.opener(ctx, ModeIncognito)
		if err != nil {
			return err
		}
		r.WindowID = nw.ID()
		return nil
	},
	CmdToggleFullscreen: func(w *Window, _ context.Context, _ *Result) error {
		return w.chrome.ToggleFullscreen(w.id)
	},
	CmdToggleDevTools: func(w *Window, _ context.Context, _ *Result) error {
		active, _ := w.tree.Active()
		return w.chrome.ToggleDevTools(w.id, active)
	},
	CmdQuit: func(w *Window, _ context.Context, _ *Result) error {
		return w.chrome.Quit()
	},
	CmdBack: func(w *Window, ctx context.Context, _ *Result) error {
		return w.ctrl.GoBack(ctx)
	},
	CmdForward: func(w *Window, ctx context.Context, _ *Result) error {
		return w.ctrl.GoForward(ctx)
	},
	CmdReload: func(w *Window, ctx context.Context, _ *Result) error {
		return w.ctrl.Reload(ctx)
	},
	CmdStop: func(w *Window, ctx context.Context, _ *Result) error {
		return w.ctrl.Stop(ctx)
	},
	CmdToggleBookmark: func(w *Window, ctx context.Context, r *Result) error {
		active, _ := w.tree.Active()
		on, err := w.ctrl.ToggleBookmark(ctx, active)
		if err != nil {
			return err
		}
		r.TabID = active
		r.Value = &on
		return nil
	},
}

func openPage(page navigation.Page) func(*Window, context.Context, *Result) error {
	return func(w *Window, ctx context.Context, r *Result) error {
		tabID, err := w.ctrl.OpenTab(ctx, navigation.Internal(page, nil), "")
		r.TabID = tabID
		return err
	}
}

// Commands lists the known command names.
func Commands() []Command {
	out := make([]Command, 0, len(commands))
	for c := range commands {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Result reports what a command did. Value is the new state of whatever
// the command toggled.
type Result struct {
	Command  Command          `json:"command"`
	TabID    workspace.NodeID `json:"tab_id,omitempty"`
	WindowID id.WindowID      `json:"window_id,omitempty"`
	Value    *bool            `json:"value,omitempty"`
}

// Execute runs a named command. It must be called inside Do.
func (w *Window) Execute(ctx context.Context, name Command) (Result, error) {
	run, ok := commands[name]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	r := Result{Command: name}
	err := run(w, ctx, &r)
	if err != nil {
		w.logger.Debug("command failed", zap.String("command", string(name)), zap.Error(err))
	}
	return r, err
}

// Folder and reorder edits go through the window so subscribers hear about
// them. They must be called inside Do.

func (w *Window) AddFolder(parent workspace.NodeID) (workspace.NodeID, error) {
	folderID, err := w.org.AddFolder(parent)
	if err == nil {
		w.publish(Notification{Kind: NotifyTree, Node: folderID})
	}
	return folderID, err
}

func (w *Window) RenameFolder(folderID workspace.NodeID, title string) error {
	err := w.org.RenameFolder(folderID, title)
	if err == nil {
		w.publish(Notification{Kind: NotifyTree, Node: folderID})
	}
	return err
}

// DeleteFolder removes a folder; its children take its place.
func (w *Window) DeleteFolder(folderID workspace.NodeID) error {
	err := w.org.DeleteFolder(folderID)
	if err == nil {
		w.publish(Notification{Kind: NotifyTree, Node: folderID})
	}
	return err
}

func (w *Window) ToggleFolder(folderID workspace.NodeID) (bool, error) {
	collapsed, err := w.org.ToggleCollapsed(folderID)
	if err == nil {
		w.publish(Notification{Kind: NotifyTree, Node: folderID})
	}
	return collapsed, err
}

// Move drops a node into container at index and saves the session, since
// the tab order may have changed. It reports false when the move was
// refused; the tree is then unchanged.
func (w *Window) Move(ctx context.Context, nodeID, container workspace.NodeID, index int) bool {
	if !w.org.Reorder(nodeID, container, index) {
		return false
	}
	_ = w.coord.Save(ctx)
	w.publish(Notification{Kind: NotifyTree, Node: nodeID})
	return true
}
