package navigation

import (
	"net/url"
	"regexp"
	"strings"
)

// DefaultSearchURL is the query prefix used when input is not an address.
const DefaultSearchURL = "https://www.google.com/search?q="

// DefaultHomeURL is the target of a default tab.
const DefaultHomeURL = "https://www.google.com"

var (
	// labels separated by dots, a 2+ letter TLD, optional port and path
	domainPattern = regexp.MustCompile(`(?i)^([a-z0-9]+(-[a-z0-9]+)*\.)+[a-z]{2,}(:\d{1,5})?([/?#].*)?$`)
	schemePattern = regexp.MustCompile(`(?i)^[a-z][a-z0-9+.\-]*://`)
	opaquePattern = regexp.MustCompile(`(?i)^(file|data|about):`)
)

// Resolver maps freeform address-bar text to a Target. The zero value uses
// DefaultSearchURL.
type Resolver struct {
	SearchURL string
}

// NewResolver returns a resolver that builds queries against searchURL.
func NewResolver(searchURL string) Resolver {
	return Resolver{SearchURL: searchURL}
}

// Resolve classifies input. Reserved internal addresses win over whitespace,
// whitespace wins over address heuristics, and anything left is a search.
func (r Resolver) Resolve(input string) Target {
	input = strings.TrimSpace(input)

	if p, params, ok := parseInternal(input); ok {
		return Internal(p, params)
	}

	if strings.ContainsFunc(input, isSpace) {
		return r.Search(input)
	}

	if hasScheme(input) {
		return External(input)
	}

	if domainPattern.MatchString(input) || isLocalhost(input) {
		return External("https://" + input)
	}

	return r.Search(input)
}

// Search builds a search-query target for text.
func (r Resolver) Search(text string) Target {
	base := r.SearchURL
	if base == "" {
		base = DefaultSearchURL
	}
	return External(base + url.QueryEscape(text))
}

func hasScheme(s string) bool {
	return schemePattern.MatchString(s) || opaquePattern.MatchString(s)
}

func isLocalhost(s string) bool {
	if len(s) < len("localhost") || !strings.EqualFold(s[:len("localhost")], "localhost") {
		return false
	}
	rest := s[len("localhost"):]
	return rest == "" || strings.ContainsRune(":/?#", rune(rest[0]))
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
