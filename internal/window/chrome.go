package window

import (
	"github.com/Fawazpw/Project-Sol/internal/domain/workspace"
	"github.com/Fawazpw/Project-Sol/internal/shared/id"
)

// Chrome is the native window shell around the workspace. Commands that
// only the shell can carry out are forwarded to it.
type Chrome interface {
	ToggleFullscreen(window id.WindowID) error
	ToggleDevTools(window id.WindowID, tab workspace.NodeID) error
	Quit() error
}

// NopChrome ignores shell commands. It is used when no native shell is
// attached, such as under the headless driver.
type NopChrome struct{}

func (NopChrome) ToggleFullscreen(id.WindowID) error                 { return nil }
func (NopChrome) ToggleDevTools(id.WindowID, workspace.NodeID) error { return nil }
func (NopChrome) Quit() error                                        { return nil }
