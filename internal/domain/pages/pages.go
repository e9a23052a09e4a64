// Package pages renders the reserved sol:// pages into inline documents.
package pages

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/Fawazpw/Project-Sol/internal/domain/navigation"
	"github.com/Fawazpw/Project-Sol/internal/preferences"
	"github.com/Fawazpw/Project-Sol/internal/store"
)

// HistoryLimit caps the entries shown on the history page.
const HistoryLimit = 500

// Renderer turns internal targets into inline documents. History and
// Bookmarks are nil for incognito windows.
type Renderer struct {
	History   store.History
	Bookmarks store.Bookmarks
	Prefs     *preferences.Store
	Incognito bool
}

type row struct {
	Title string
	URL   string
	When  string
}

type pageData struct {
	Title       string
	Page        string
	Theme       string
	Query       string
	Rows        []row
	Unavailable bool
	Incognito   bool
	Prefs       preferences.Preferences
}

var tmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html data-theme="{{.Theme}}">
<head><meta charset="utf-8"><title>{{.Title}}</title>
<style>body{font-family:system-ui,sans-serif;margin:2rem}html[data-theme=dark] body{background:#202124;color:#e8eaed}a{color:inherit}li{margin:.25rem 0}.when{opacity:.6;margin-left:.5rem}</style>
</head>
<body class="page-{{.Page}}">
<h1>{{.Title}}</h1>
{{- if .Unavailable}}
<p class="unavailable">Not available in incognito windows.</p>
{{- else if eq .Page "incognito-landing"}}
<p>You are browsing privately. Pages you visit are not saved to history, and nothing is written to disk when this window closes.</p>
{{- else if eq .Page "settings"}}
<dl>
<dt>Theme</dt><dd id="theme">{{.Prefs.Theme}}</dd>
<dt>Sidebar color</dt><dd id="sidebar-color">{{.Prefs.SidebarColor}}</dd>
<dt>Sidebar width</dt><dd id="sidebar-width">{{.Prefs.SidebarWidth}}</dd>
</dl>
{{- else}}
{{- if .Query}}<p class="query">Results for “{{.Query}}”</p>{{end}}
{{- if .Rows}}
<ul>
{{- range .Rows}}
<li><a href="{{.URL}}">{{if .Title}}{{.Title}}{{else}}{{.URL}}{{end}}</a><span class="when">{{.When}}</span></li>
{{- end}}
</ul>
{{- else}}
<p class="empty">Nothing here yet.</p>
{{- end}}
{{- end}}
</body>
</html>`))

// Render produces the inline document for an internal target.
func (r *Renderer) Render(ctx context.Context, target navigation.Target) (navigation.Target, error) {
	if target.Kind != navigation.KindInternal {
		return target, nil
	}

	data := pageData{Page: string(target.Page), Incognito: r.Incognito}
	prefs := preferences.Default()
	if r.Prefs != nil {
		prefs = r.Prefs.Get()
	}
	data.Prefs = prefs
	data.Theme = string(prefs.Theme)

	switch target.Page {
	case navigation.PageHistory:
		data.Title = "History"
		data.Query = strings.TrimSpace(target.Params.Get("q"))
		if r.Incognito || r.History == nil {
			data.Unavailable = true
			break
		}
		entries, err := r.History.List(ctx, HistoryLimit)
		if err != nil {
			return navigation.Target{}, fmt.Errorf("render history: %w", err)
		}
		for _, e := range entries {
			if data.Query != "" && !matches(e.Title, e.URL, data.Query) {
				continue
			}
			data.Rows = append(data.Rows, row{Title: e.Title, URL: e.URL, When: when(e.Timestamp)})
		}
	case navigation.PageBookmarks:
		data.Title = "Bookmarks"
		if r.Incognito || r.Bookmarks == nil {
			data.Unavailable = true
			break
		}
		entries, err := r.Bookmarks.List(ctx)
		if err != nil {
			return navigation.Target{}, fmt.Errorf("render bookmarks: %w", err)
		}
		for _, e := range entries {
			data.Rows = append(data.Rows, row{Title: e.Title, URL: e.URL, When: when(e.Timestamp)})
		}
	case navigation.PageSettings:
		data.Title = "Settings"
	case navigation.PageIncognitoLanding:
		data.Title = "Incognito"
	default:
		return navigation.Target{}, fmt.Errorf("unknown internal page %q", target.Page)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return navigation.Target{}, fmt.Errorf("render %s: %w", target.Page, err)
	}
	return navigation.Inline(buf.String()), nil
}

func matches(title, url, q string) bool {
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(title), q) || strings.Contains(strings.ToLower(url), q)
}

func when(ms int64) string {
	if ms <= 0 {
		return ""
	}
	return time.UnixMilli(ms).Format("2006-01-02 15:04")
}
