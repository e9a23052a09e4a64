package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fawazpw/Project-Sol/internal/domain/tab"
	"github.com/Fawazpw/Project-Sol/internal/domain/workspace"
	"github.com/Fawazpw/Project-Sol/internal/preferences"
	"github.com/Fawazpw/Project-Sol/internal/store"
	"github.com/Fawazpw/Project-Sol/internal/surface"
	"github.com/Fawazpw/Project-Sol/internal/surface/headless"
	"github.com/Fawazpw/Project-Sol/internal/window"
)

type fixture struct {
	t       *testing.T
	router  *gin.Engine
	windows *window.Manager
	stores  store.Set
}

func setup(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	stores := store.NewMemorySet()
	prefs, err := preferences.Open("")
	require.NoError(t, err)

	m := window.NewManager(window.Options{
		Surfaces: window.SurfacesFunc(func(incognito bool) (surface.Factory, error) {
			return headless.NewFactory("default"), nil
		}),
		Stores: stores,
		Prefs:  prefs,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		m.Shutdown(ctx)
	})

	router := gin.New()
	NewHandlers(m, stores, prefs, nil).Register(router)
	return &fixture{t: t, router: router, windows: m, stores: stores}
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// open creates a window through the API and returns its id.
func (f *fixture) open(mode window.Mode) string {
	f.t.Helper()
	w := f.do(http.MethodPost, "/windows", fmt.Sprintf(`{"mode":%q}`, mode))
	require.Equal(f.t, http.StatusCreated, w.Code, w.Body.String())
	return string(decode[window.State](f.t, w).ID)
}

func (f *fixture) tree(wid string) window.State {
	f.t.Helper()
	w := f.do(http.MethodGet, "/windows/"+wid+"/tree", "")
	require.Equal(f.t, http.StatusOK, w.Code, w.Body.String())
	return decode[window.State](f.t, w)
}

func TestOpenWindow(t *testing.T) {
	f := setup(t)

	w := f.do(http.MethodPost, "/windows", "")
	require.Equal(t, http.StatusCreated, w.Code)
	st := decode[window.State](t, w)
	assert.Equal(t, window.ModeNormal, st.Mode)
	require.Len(t, st.Tree, 1)
	assert.Equal(t, "https://www.google.com", st.Tree[0].URL)

	w = f.do(http.MethodPost, "/windows", `{"mode":"kiosk"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.open(window.ModeIncognito)
	w = f.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[struct {
		Windows map[string]int `json:"windows"`
	}](t, w)
	assert.Equal(t, map[string]int{"normal": 1, "incognito": 1}, health.Windows)

	w = f.do(http.MethodGet, "/windows", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Windows []window.State `json:"windows"`
	}](t, w)
	assert.Len(t, list.Windows, 2)
}

func TestUnknownWindow(t *testing.T) {
	f := setup(t)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/windows/win_missing/tree", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, "/windows/win_missing", "").Code)
}

func TestTabLifecycle(t *testing.T) {
	f := setup(t)
	wid := f.open(window.ModeNormal)

	w := f.do(http.MethodPost, "/windows/"+wid+"/tabs", `{"url":"golang.org"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	view := decode[tab.View](t, w)
	assert.Equal(t, "https://golang.org", view.URL)
	assert.True(t, view.Active)

	w = f.do(http.MethodPost, "/windows/"+wid+"/navigate", `{"input":"go generics"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "https://www.google.com/search?q=go+generics", decode[tab.View](t, w).URL)

	w = f.do(http.MethodGet, "/history?q=golang", "")
	require.Equal(t, http.StatusOK, w.Code)
	hist := decode[struct {
		Entries []store.HistoryEntry `json:"entries"`
	}](t, w)
	require.Len(t, hist.Entries, 1)
	assert.Equal(t, "https://golang.org", hist.Entries[0].URL)

	st := f.tree(wid)
	require.Len(t, st.Tree, 2)
	first := st.Tree[0].ID

	w = f.do(http.MethodPost, "/windows/"+wid+"/tabs/"+string(first)+"/activate", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, first, decode[tab.View](t, w).TabID)

	w = f.do(http.MethodDelete, "/windows/"+wid+"/tabs/"+string(view.TabID), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, f.tree(wid).Tree, 1)

	w = f.do(http.MethodDelete, "/windows/"+wid+"/tabs/tab_missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodPost, "/windows/"+wid+"/navigate", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClosingLastTabOpensHome(t *testing.T) {
	f := setup(t)
	wid := f.open(window.ModeNormal)
	home := f.tree(wid).Tree[0]

	w := f.do(http.MethodDelete, "/windows/"+wid+"/tabs/"+string(home.ID), "")
	require.Equal(t, http.StatusOK, w.Code)

	st := f.tree(wid)
	require.Len(t, st.Tree, 1)
	assert.NotEqual(t, home.ID, st.Tree[0].ID)
	assert.Equal(t, home.URL, st.Tree[0].URL)
	assert.Equal(t, 1, st.ClosedTabs)
}

func TestCommands(t *testing.T) {
	f := setup(t)
	wid := f.open(window.ModeNormal)

	w := f.do(http.MethodPost, "/windows/"+wid+"/commands/toggle-sidebar", "")
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[window.Result](t, w)
	require.NotNil(t, res.Value)
	assert.False(t, *res.Value)

	w = f.do(http.MethodPost, "/windows/"+wid+"/commands/toggle-bookmark", "")
	require.Equal(t, http.StatusOK, w.Code)
	res = decode[window.Result](t, w)
	require.NotNil(t, res.Value)
	assert.True(t, *res.Value)

	w = f.do(http.MethodGet, "/bookmarks?format=yaml", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/yaml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "url: https://www.google.com")

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/bookmarks?format=csv", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/windows/"+wid+"/commands/fly", "").Code)

	w = f.do(http.MethodPost, "/windows/"+wid+"/commands/new-incognito-window", "")
	require.Equal(t, http.StatusOK, w.Code)
	res = decode[window.Result](t, w)
	require.NotEmpty(t, res.WindowID)

	w = f.do(http.MethodPost, "/windows/"+string(res.WindowID)+"/commands/toggle-bookmark", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestFolders(t *testing.T) {
	f := setup(t)
	wid := f.open(window.ModeNormal)
	tabID := f.tree(wid).Tree[0].ID

	w := f.do(http.MethodPost, "/windows/"+wid+"/folders", "")
	require.Equal(t, http.StatusCreated, w.Code)
	folder := decode[struct {
		ID    workspace.NodeID `json:"id"`
		Title string           `json:"title"`
	}](t, w)
	assert.Equal(t, workspace.DefaultFolderTitle, folder.Title)
	base := "/windows/" + wid + "/folders/" + string(folder.ID)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPatch, base, `{"title":"  "}`).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodPatch, base, `{"title":"Reading"}`).Code)

	w = f.do(http.MethodPost, "/windows/"+wid+"/nodes/"+string(tabID)+"/move", fmt.Sprintf(`{"parent":%q}`, folder.ID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(http.MethodPost, "/windows/"+wid+"/nodes/"+string(folder.ID)+"/move", fmt.Sprintf(`{"parent":%q,"index":0}`, folder.ID))
	assert.Equal(t, http.StatusConflict, w.Code)

	st := f.tree(wid)
	require.Len(t, st.Tree, 2)
	assert.Equal(t, "Reading", st.Tree[0].Title)
	assert.Equal(t, folder.ID, st.Tree[1].Parent)
	assert.Equal(t, 1, st.Tree[1].Depth)

	w = f.do(http.MethodPost, base+"/toggle", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"collapsed":true`)

	require.Equal(t, http.StatusOK, f.do(http.MethodDelete, base, "").Code)
	st = f.tree(wid)
	require.Len(t, st.Tree, 1)
	assert.Equal(t, tabID, st.Tree[0].ID)
	assert.Equal(t, workspace.RootID, st.Tree[0].Parent)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodDelete, "/windows/"+wid+"/folders/"+string(tabID), "").Code)
}

func TestPreferences(t *testing.T) {
	f := setup(t)

	w := f.do(http.MethodGet, "/preferences", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, preferences.Default(), decode[preferences.Preferences](t, w))

	w = f.do(http.MethodPut, "/preferences", `{"theme":"dark"}`)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[preferences.Preferences](t, w)
	assert.Equal(t, preferences.ThemeDark, got.Theme)
	assert.Equal(t, preferences.Default().SidebarWidth, got.SidebarWidth)

	w = f.do(http.MethodPut, "/preferences", `{"sidebar_width":5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/preferences/theme", "")
	require.Equal(t, http.StatusOK, w.Code)
	got = decode[preferences.Preferences](t, w)
	assert.Equal(t, preferences.ThemeLight, got.Theme)
	assert.Equal(t, preferences.ThemeLight.SidebarColor(), got.SidebarColor)
}

func TestClearHistory(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.stores.History.Append(ctx, store.HistoryEntry{Title: "a", URL: "https://a.test"}))

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/history?limit=x", "").Code)
	require.Equal(t, http.StatusOK, f.do(http.MethodDelete, "/history", "").Code)

	entries, err := f.stores.History.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCloseWindow(t *testing.T) {
	f := setup(t)
	wid := f.open(window.ModeIncognito)

	require.Equal(t, http.StatusOK, f.do(http.MethodDelete, "/windows/"+wid, "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/windows/"+wid+"/tree", "").Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{window.ErrWindowNotFound, http.StatusNotFound},
		{fmt.Errorf("wrap: %w", workspace.ErrNodeNotFound), http.StatusNotFound},
		{window.ErrWindowClosed, http.StatusGone},
		{workspace.ErrInvalidMove, http.StatusBadRequest},
		{preferences.ErrInvalid, http.StatusBadRequest},
		{tab.ErrIncognito, http.StatusConflict},
		{surface.ErrSurfaceUnavailable, http.StatusServiceUnavailable},
		{surface.ErrBindFailure, http.StatusBadGateway},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
