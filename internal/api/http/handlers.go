package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Fawazpw/Project-Sol/internal/domain/tab"
	"github.com/Fawazpw/Project-Sol/internal/domain/workspace"
	"github.com/Fawazpw/Project-Sol/internal/infrastructure/tracing"
	"github.com/Fawazpw/Project-Sol/internal/preferences"
	"github.com/Fawazpw/Project-Sol/internal/store"
	"github.com/Fawazpw/Project-Sol/internal/surface"
	"github.com/Fawazpw/Project-Sol/internal/window"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	windows *window.Manager
	stores  store.Set
	prefs   *preferences.Store
	logger  *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(windows *window.Manager, stores store.Set, prefs *preferences.Store, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		windows: windows,
		stores:  stores,
		prefs:   prefs,
		logger:  logger,
	}
}

// Register attaches every route to r.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/health", h.Health)

	r.GET("/windows", h.ListWindows)
	r.POST("/windows", h.OpenWindow)
	r.DELETE("/windows/:wid", h.CloseWindow)
	r.GET("/windows/:wid/tree", h.GetTree)

	r.POST("/windows/:wid/tabs", h.OpenTab)
	r.DELETE("/windows/:wid/tabs/:id", h.CloseTab)
	r.POST("/windows/:wid/tabs/:id/activate", h.ActivateTab)
	r.POST("/windows/:wid/tabs/:id/retry", h.RetryTab)
	r.POST("/windows/:wid/navigate", h.Navigate)
	r.POST("/windows/:wid/commands/:name", h.Command)

	r.POST("/windows/:wid/folders", h.AddFolder)
	r.PATCH("/windows/:wid/folders/:id", h.RenameFolder)
	r.DELETE("/windows/:wid/folders/:id", h.DeleteFolder)
	r.POST("/windows/:wid/folders/:id/toggle", h.ToggleFolder)
	r.POST("/windows/:wid/nodes/:id/move", h.MoveNode)

	r.GET("/history", h.ListHistory)
	r.DELETE("/history", h.ClearHistory)
	r.GET("/bookmarks", h.ExportBookmarks)
	r.GET("/preferences", h.GetPreferences)
	r.PUT("/preferences", h.PutPreferences)
	r.POST("/preferences/theme", h.ToggleTheme)
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	normal, incognito := 0, 0
	for _, w := range h.windows.List() {
		if w.Incognito() {
			incognito++
		} else {
			normal++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"windows": gin.H{"normal": normal, "incognito": incognito},
	})
}

// fail writes err with the status its kind maps to.
func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Warn("request failed",
			zap.String("path", c.FullPath()),
			tracing.Field(c.Request.Context()),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, window.ErrWindowNotFound),
		errors.Is(err, workspace.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, window.ErrWindowClosed):
		return http.StatusGone
	case errors.Is(err, workspace.ErrInvalidMove),
		errors.Is(err, workspace.ErrNotFolder),
		errors.Is(err, workspace.ErrNotTab),
		errors.Is(err, workspace.ErrEmptyTitle),
		errors.Is(err, window.ErrUnknownCommand),
		errors.Is(err, preferences.ErrInvalid),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, tab.ErrIncognito),
		errors.Is(err, tab.ErrNotBookmarkable):
		return http.StatusConflict
	case errors.Is(err, surface.ErrSurfaceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, surface.ErrBindFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")
