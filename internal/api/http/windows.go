package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Fawazpw/Project-Sol/internal/domain/tab"
	"github.com/Fawazpw/Project-Sol/internal/domain/workspace"
	"github.com/Fawazpw/Project-Sol/internal/shared/id"
	"github.com/Fawazpw/Project-Sol/internal/surface"
	"github.com/Fawazpw/Project-Sol/internal/window"
)

type openWindowRequest struct {
	Mode window.Mode `json:"mode"`
}

type openTabRequest struct {
	URL    string           `json:"url"`
	Parent workspace.NodeID `json:"parent"`
}

type navigateRequest struct {
	Input string `json:"input" binding:"required"`
}

type folderRequest struct {
	Parent workspace.NodeID `json:"parent"`
}

type renameRequest struct {
	Title string `json:"title"`
}

type moveRequest struct {
	Parent workspace.NodeID `json:"parent"`
	Index  *int             `json:"index"`
}

// within runs fn on the loop of the window named in the path.
func (h *Handlers) within(c *gin.Context, fn func(context.Context, *window.Window) error) bool {
	w, err := h.windows.Get(id.WindowID(c.Param("wid")))
	if err != nil {
		h.fail(c, err)
		return false
	}
	if err := w.Do(c.Request.Context(), func(ctx context.Context) error { return fn(ctx, w) }); err != nil {
		h.fail(c, err)
		return false
	}
	return true
}

func bind(c *gin.Context, req any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(req); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

// ListWindows returns the state of every open window.
func (h *Handlers) ListWindows(c *gin.Context) {
	states := make([]window.State, 0)
	for _, w := range h.windows.List() {
		var st window.State
		err := w.Do(c.Request.Context(), func(ctx context.Context) error {
			st = w.Snapshot(ctx)
			return nil
		})
		if errors.Is(err, window.ErrWindowClosed) {
			continue
		}
		if err != nil {
			h.fail(c, err)
			return
		}
		states = append(states, st)
	}
	c.JSON(http.StatusOK, gin.H{"windows": states})
}

// OpenWindow creates a normal or incognito window.
func (h *Handlers) OpenWindow(c *gin.Context) {
	var req openWindowRequest
	if err := bind(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	if req.Mode == "" {
		req.Mode = window.ModeNormal
	}
	if req.Mode != window.ModeNormal && req.Mode != window.ModeIncognito {
		h.fail(c, fmt.Errorf("%w: unknown mode %q", errBadRequest, req.Mode))
		return
	}

	w, err := h.windows.Open(c.Request.Context(), req.Mode)
	if err != nil {
		h.fail(c, err)
		return
	}
	var st window.State
	if err := w.Do(c.Request.Context(), func(ctx context.Context) error {
		st = w.Snapshot(ctx)
		return nil
	}); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

// CloseWindow tears a window down.
func (h *Handlers) CloseWindow(c *gin.Context) {
	windowID := id.WindowID(c.Param("wid"))
	if err := h.windows.Close(c.Request.Context(), windowID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "window_id": windowID})
}

// GetTree returns the window state including its outline.
func (h *Handlers) GetTree(c *gin.Context) {
	var st window.State
	if h.within(c, func(ctx context.Context, w *window.Window) error {
		st = w.Snapshot(ctx)
		return nil
	}) {
		c.JSON(http.StatusOK, st)
	}
}

// OpenTab opens a tab for url, or the home page when url is empty. A tab
// whose surface failed to bind is still created; the response carries its
// view with the error.
func (h *Handlers) OpenTab(c *gin.Context) {
	var req openTabRequest
	if err := bind(c, &req); err != nil {
		h.fail(c, err)
		return
	}

	var view tab.View
	var bindErr error
	if !h.within(c, func(ctx context.Context, w *window.Window) error {
		ctrl := w.Controller()
		target := ctrl.Home()
		if req.URL != "" {
			target = ctrl.Resolve(req.URL)
		}
		tabID, err := ctrl.OpenTab(ctx, target, req.Parent)
		if tabID == "" {
			return err
		}
		bindErr = err
		view, err = ctrl.View(ctx, tabID)
		return err
	}) {
		return
	}

	if bindErr != nil {
		status := http.StatusBadGateway
		if errors.Is(bindErr, surface.ErrSurfaceUnavailable) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": bindErr.Error(), "tab": view})
		return
	}
	c.JSON(http.StatusCreated, view)
}

// CloseTab closes a tab.
func (h *Handlers) CloseTab(c *gin.Context) {
	tabID := workspace.NodeID(c.Param("id"))
	if h.within(c, func(ctx context.Context, w *window.Window) error {
		return w.Controller().CloseTab(ctx, tabID)
	}) {
		c.JSON(http.StatusOK, gin.H{"success": true, "tab_id": tabID})
	}
}

// ActivateTab makes a tab active and returns its view.
func (h *Handlers) ActivateTab(c *gin.Context) {
	tabID := workspace.NodeID(c.Param("id"))
	var view tab.View
	if h.within(c, func(ctx context.Context, w *window.Window) error {
		var err error
		view, err = w.Controller().ActivateTab(ctx, tabID)
		return err
	}) {
		c.JSON(http.StatusOK, view)
	}
}

// RetryTab binds a tab whose surface failed to bind.
func (h *Handlers) RetryTab(c *gin.Context) {
	tabID := workspace.NodeID(c.Param("id"))
	var view tab.View
	if h.within(c, func(ctx context.Context, w *window.Window) error {
		if err := w.Controller().Retry(ctx, tabID); err != nil {
			return err
		}
		var err error
		view, err = w.Controller().View(ctx, tabID)
		return err
	}) {
		c.JSON(http.StatusOK, view)
	}
}

// Navigate loads address-bar input into the active tab.
func (h *Handlers) Navigate(c *gin.Context) {
	var req navigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	var view tab.View
	if h.within(c, func(ctx context.Context, w *window.Window) error {
		tabID, err := w.Controller().Navigate(ctx, req.Input)
		if err != nil {
			return err
		}
		view, err = w.Controller().View(ctx, tabID)
		return err
	}) {
		c.JSON(http.StatusOK, view)
	}
}

// Command runs a named window command.
func (h *Handlers) Command(c *gin.Context) {
	name := window.Command(c.Param("name"))
	var res window.Result
	if h.within(c, func(ctx context.Context, w *window.Window) error {
		var err error
		res, err = w.Execute(ctx, name)
		return err
	}) {
		c.JSON(http.StatusOK, res)
	}
}

// AddFolder creates a folder.
func (h *Handlers) AddFolder(c *gin.Context) {
	var req folderRequest
	if err := bind(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	var folderID workspace.NodeID
	if h.within(c, func(_ context.Context, w *window.Window) error {
		var err error
		folderID, err = w.AddFolder(req.Parent)
		return err
	}) {
		c.JSON(http.StatusCreated, gin.H{"id": folderID, "title": workspace.DefaultFolderTitle})
	}
}

// RenameFolder sets a folder title.
func (h *Handlers) RenameFolder(c *gin.Context) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	folderID := workspace.NodeID(c.Param("id"))
	if h.within(c, func(_ context.Context, w *window.Window) error {
		return w.RenameFolder(folderID, req.Title)
	}) {
		c.JSON(http.StatusOK, gin.H{"success": true, "id": folderID})
	}
}

// DeleteFolder removes a folder and promotes its children.
func (h *Handlers) DeleteFolder(c *gin.Context) {
	folderID := workspace.NodeID(c.Param("id"))
	if h.within(c, func(_ context.Context, w *window.Window) error {
		return w.DeleteFolder(folderID)
	}) {
		c.JSON(http.StatusOK, gin.H{"success": true, "id": folderID})
	}
}

// ToggleFolder collapses or expands a folder.
func (h *Handlers) ToggleFolder(c *gin.Context) {
	folderID := workspace.NodeID(c.Param("id"))
	var collapsed bool
	if h.within(c, func(_ context.Context, w *window.Window) error {
		var err error
		collapsed, err = w.ToggleFolder(folderID)
		return err
	}) {
		c.JSON(http.StatusOK, gin.H{"id": folderID, "collapsed": collapsed})
	}
}

// MoveNode is the drop end of a drag. A refused move answers 409 so the UI
// can put the node back.
func (h *Handlers) MoveNode(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	index := -1
	if req.Index != nil {
		index = *req.Index
	}

	nodeID := workspace.NodeID(c.Param("id"))
	var moved bool
	if !h.within(c, func(ctx context.Context, w *window.Window) error {
		moved = w.Move(ctx, nodeID, req.Parent, index)
		return nil
	}) {
		return
	}
	status := http.StatusOK
	if !moved {
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"id": nodeID, "moved": moved})
}
