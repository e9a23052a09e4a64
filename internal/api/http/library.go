package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Fawazpw/Project-Sol/internal/store"
)

const defaultHistoryLimit = 100

// ListHistory returns history newest first. q filters by title or URL.
func (h *Handlers) ListHistory(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.fail(c, fmt.Errorf("%w: limit must be a non-negative integer", errBadRequest))
			return
		}
		limit = n
	}

	q := strings.ToLower(strings.TrimSpace(c.Query("q")))
	fetch := limit
	if q != "" {
		fetch = 0
	}
	entries, err := h.stores.History.List(c.Request.Context(), fetch)
	if err != nil {
		h.fail(c, err)
		return
	}
	if q != "" {
		matched := make([]store.HistoryEntry, 0, len(entries))
		for _, e := range entries {
			if strings.Contains(strings.ToLower(e.Title), q) || strings.Contains(strings.ToLower(e.URL), q) {
				matched = append(matched, e)
			}
			if limit > 0 && len(matched) == limit {
				break
			}
		}
		entries = matched
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

// ClearHistory deletes every history entry.
func (h *Handlers) ClearHistory(c *gin.Context) {
	if err := h.stores.History.Clear(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ExportBookmarks writes every bookmark as JSON or YAML.
func (h *Handlers) ExportBookmarks(c *gin.Context) {
	format, err := store.ParseFormat(c.Query("format"))
	if err != nil {
		h.fail(c, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	var buf bytes.Buffer
	if err := store.ExportBookmarks(c.Request.Context(), h.stores.Bookmarks, &buf, format); err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// GetPreferences returns the user preferences.
func (h *Handlers) GetPreferences(c *gin.Context) {
	c.JSON(http.StatusOK, h.prefs.Get())
}

// PutPreferences replaces the user preferences.
func (h *Handlers) PutPreferences(c *gin.Context) {
	p := h.prefs.Get()
	if err := c.ShouldBindJSON(&p); err != nil {
		h.fail(c, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	if err := h.prefs.Set(p); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.prefs.Get())
}

// ToggleTheme switches between light and dark and resets the sidebar color.
func (h *Handlers) ToggleTheme(c *gin.Context) {
	if _, err := h.prefs.ToggleTheme(); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.prefs.Get())
}
