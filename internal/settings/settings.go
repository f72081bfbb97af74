// Package settings persists user preferences that outlive a session.
// The file is read once on Open and rewritten on every change.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"fridgecal/internal/config"
	appLog "fridgecal/internal/log"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

var ErrInvalidTheme = errors.New("settings: theme must be light or dark")

type file struct {
	Theme string `yaml:"theme"`
}

// Service holds the in-memory preferences and the path they persist to.
type Service struct {
	path string

	mu    sync.RWMutex
	theme string
}

// Open reads path. A missing or unreadable file yields the defaults; only
// a malformed file is an error.
func Open(path string) (*Service, error) {
	s := &Service{path: path, theme: ThemeLight}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			appLog.Warn("settings unreadable, using defaults", "path", path, "err", err)
		}
		return s, nil
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return s, fmt.Errorf("settings: parse %s: %w", path, err)
	}
	if validTheme(f.Theme) {
		s.theme = f.Theme
	}
	return s, nil
}

func validTheme(t string) bool {
	return t == ThemeLight || t == ThemeDark
}

func (s *Service) Theme() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// SetTheme updates and persists the theme.
func (s *Service) SetTheme(theme string) error {
	if !validTheme(theme) {
		return ErrInvalidTheme
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = theme
	return s.saveLocked()
}

// Toggle flips light and dark and returns the new theme.
func (s *Service) Toggle() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.theme == ThemeDark {
		s.theme = ThemeLight
	} else {
		s.theme = ThemeDark
	}
	return s.theme, s.saveLocked()
}

func (s *Service) saveLocked() error {
	if s.path == "" {
		return nil
	}
	data, err := yaml.Marshal(file{Theme: s.theme})
	if err != nil {
		return err
	}
	if err := config.WriteFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("settings: save %s: %w", s.path, err)
	}
	appLog.Debug("settings saved", "path", s.path, "theme", s.theme)
	return nil
}
