package tab

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// DefaultTitle is shown for tabs without a title.
const DefaultTitle = "New Tab"

// DefaultTitleLimit is the display width of a tab title, in runes.
const DefaultTitleLimit = 25

// DefaultTitleSuffixes are stripped from page titles.
var DefaultTitleSuffixes = []string{" - Google Search"}

// Titles cleans page titles for storage and display.
type Titles struct {
	suffixes []string
	limit    int
	policy   *bluemonday.Policy
}

// NewTitles returns a title cleaner. A limit <= 0 uses DefaultTitleLimit.
func NewTitles(suffixes []string, limit int) *Titles {
	if limit <= 0 {
		limit = DefaultTitleLimit
	}
	return &Titles{
		suffixes: suffixes,
		limit:    limit,
		policy:   bluemonday.StrictPolicy(),
	}
}

// Clean strips markup and known suffixes. The result is what gets stored;
// it is not truncated.
func (t *Titles) Clean(raw string) string {
	s := html.UnescapeString(t.policy.Sanitize(raw))
	s = strings.Join(strings.Fields(s), " ")
	for _, suffix := range t.suffixes {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
			break
		}
	}
	return s
}

// Display truncates a stored title for the tab strip.
func (t *Titles) Display(title string) string {
	if title == "" {
		return DefaultTitle
	}
	if utf8.RuneCountInString(title) <= t.limit {
		return title
	}
	return string([]rune(title)[:t.limit])
}
