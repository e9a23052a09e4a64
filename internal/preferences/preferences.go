// Package preferences stores user-facing appearance settings in a TOML file.
package preferences

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the preferences file inside the data directory.
const FileName = "preferences.toml"

// Theme is the chrome color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// SidebarColor returns the theme's default sidebar color.
func (t Theme) SidebarColor() string {
	if t == ThemeDark {
		return "#252525"
	}
	return "#e9ebee"
}

var colorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ErrInvalid is returned when preferences fail validation.
var ErrInvalid = errors.New("invalid preferences")

// Preferences are the persisted appearance settings.
type Preferences struct {
	Theme        Theme  `toml:"theme" json:"theme"`
	SidebarColor string `toml:"sidebar_color" json:"sidebar_color"`
	SidebarWidth int    `toml:"sidebar_width" json:"sidebar_width"`
}

// Default returns the preferences used when none are saved.
func Default() Preferences {
	return Preferences{
		Theme:        ThemeLight,
		SidebarColor: ThemeLight.SidebarColor(),
		SidebarWidth: 240,
	}
}

// Validate checks field values.
func (p Preferences) Validate() error {
	if p.Theme != ThemeLight && p.Theme != ThemeDark {
		return fmt.Errorf("%w: theme %q", ErrInvalid, p.Theme)
	}
	if !colorPattern.MatchString(p.SidebarColor) {
		return fmt.Errorf("%w: sidebar color %q", ErrInvalid, p.SidebarColor)
	}
	if p.SidebarWidth < 120 || p.SidebarWidth > 800 {
		return fmt.Errorf("%w: sidebar width %d", ErrInvalid, p.SidebarWidth)
	}
	return nil
}

// Store loads and saves preferences at a fixed path. An empty path keeps
// preferences in memory only.
type Store struct {
	path string

	mu      sync.RWMutex
	current Preferences
}

// Open reads path, falling back to defaults when the file is missing or
// unreadable.
func Open(path string) (*Store, error) {
	s := &Store{path: path, current: Default()}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read preferences: %w", err)
	}

	p := Default()
	if err := toml.Unmarshal(data, &p); err != nil {
		return s, fmt.Errorf("parse preferences: %w", err)
	}
	if err := p.Validate(); err != nil {
		return s, err
	}
	s.current = p
	return s, nil
}

// Get returns the current preferences.
func (s *Store) Get() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set validates and persists p.
func (s *Store) Set(p Preferences) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path != "" {
		data, err := toml.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode preferences: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			return fmt.Errorf("create preferences dir: %w", err)
		}
		tmp := s.path + ".tmp"
		if err := os.WriteFile(tmp, data, 0o644); err != nil {
			return fmt.Errorf("write preferences: %w", err)
		}
		if err := os.Rename(tmp, s.path); err != nil {
			return fmt.Errorf("replace preferences: %w", err)
		}
	}
	s.current = p
	return nil
}

// ToggleTheme flips between light and dark, resets the sidebar color to the
// new theme's default and persists the result.
func (s *Store) ToggleTheme() (Theme, error) {
	p := s.Get()
	if p.Theme == ThemeDark {
		p.Theme = ThemeLight
	} else {
		p.Theme = ThemeDark
	}
	p.SidebarColor = p.Theme.SidebarColor()
	return p.Theme, s.Set(p)
}
