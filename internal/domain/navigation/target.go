// Package navigation turns address-bar input into a navigable target.
package navigation

import (
	"net/url"
	"strings"
)

// Kind tags the variant held by a Target.
type Kind int

const (
	KindExternal Kind = iota
	KindInternal
	KindInline
)

func (k Kind) String() string {
	switch k {
	case KindExternal:
		return "external"
	case KindInternal:
		return "internal"
	case KindInline:
		return "inline"
	default:
		return "unknown"
	}
}

// Page names a reserved internal page.
type Page string

const (
	PageHistory          Page = "history"
	PageBookmarks        Page = "bookmarks"
	PageSettings         Page = "settings"
	PageIncognitoLanding Page = "incognito-landing"
)

// Scheme is the address-bar scheme of internal pages.
const Scheme = "sol"

// InlineAddress is what the address bar shows for inline documents.
const InlineAddress = "about:inline"

var pages = map[Page]struct{}{
	PageHistory:          {},
	PageBookmarks:        {},
	PageSettings:         {},
	PageIncognitoLanding: {},
}

// IsReserved reports whether p is one of the reserved internal pages.
func IsReserved(p Page) bool {
	_, ok := pages[p]
	return ok
}

// Target is what a tab displays: an external URL, a reserved internal page
// with parameters, or an inline document.
type Target struct {
	Kind   Kind
	URL    string
	Page   Page
	Params url.Values
	HTML   string
}

// External targets a remote resource.
func External(u string) Target {
	return Target{Kind: KindExternal, URL: u}
}

// Internal targets a reserved page.
func Internal(p Page, params url.Values) Target {
	return Target{Kind: KindInternal, Page: p, Params: params}
}

// Inline targets a document supplied by content.
func Inline(html string) Target {
	return Target{Kind: KindInline, HTML: html}
}

// String returns the address-bar form of the target.
func (t Target) String() string {
	switch t.Kind {
	case KindInternal:
		s := Scheme + "://" + string(t.Page)
		if len(t.Params) > 0 {
			s += "?" + t.Params.Encode()
		}
		return s
	case KindInline:
		return InlineAddress
	default:
		return t.URL
	}
}

// Persistable reports whether the target may be written to history, the
// closed-tab stack or the session snapshot as a plain URL.
func (t Target) Persistable() bool {
	if t.Kind != KindExternal || t.URL == "" {
		return false
	}
	lower := strings.ToLower(t.URL)
	return !strings.HasPrefix(lower, "data:") && !strings.HasPrefix(lower, "about:")
}

// Restorable reports whether the target can be written to a session
// snapshot. Internal pages survive restarts; inline documents do not.
func (t Target) Restorable() bool {
	return t.Kind == KindInternal || t.Persistable()
}

// Equal compares targets structurally.
func (t Target) Equal(o Target) bool {
	return t.Kind == o.Kind && t.String() == o.String() && t.HTML == o.HTML
}

// ParseTarget maps a stored or reported address back to a target. Internal
// addresses for unknown pages become external targets.
func ParseTarget(s string) Target {
	if p, params, ok := parseInternal(s); ok {
		return Internal(p, params)
	}
	return External(s)
}

func parseInternal(s string) (Page, url.Values, bool) {
	u, err := url.Parse(s)
	if err != nil || !strings.EqualFold(u.Scheme, Scheme) {
		return "", nil, false
	}
	p := Page(strings.ToLower(u.Host))
	if !IsReserved(p) {
		return "", nil, false
	}
	var params url.Values
	if u.RawQuery != "" {
		params = u.Query()
	}
	return p, params, true
}
