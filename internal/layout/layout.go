// Package layout persists the explorer's arrangement between runs: last
// open folder, bookmarks, pane split and per-panel page sizes. The file
// is cosmetic state, so a missing or corrupt copy silently becomes the
// defaults instead of an error the frontends would have to explain.
package layout

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/remex-io/remex/internal/constants"
	"github.com/remex-io/remex/internal/events"
)

// Panel names for per-panel page sizes.
const (
	PanelFolders = "folders"
	PanelFiles   = "files"
	PanelFlat    = "flat"
)

// Split fraction bounds. A pane never collapses past these.
const (
	MinSplitFraction     = 0.1
	MaxSplitFraction     = 0.9
	DefaultSplitFraction = 0.5
)

// Layout is the persisted arrangement.
type Layout struct {
	LastPath      string         `json:"last_path"`
	Bookmarks     []string       `json:"bookmarks"`
	SplitFraction float64        `json:"split_fraction"`
	PageSizes     map[string]int `json:"page_sizes"`
}

// defaultLayout returns the arrangement used when nothing is on disk.
func defaultLayout() Layout {
	return Layout{
		SplitFraction: DefaultSplitFraction,
		PageSizes:     make(map[string]int),
	}
}

// Store holds the layout in memory and mirrors every change to disk.
// Mutators persist atomically after updating memory; a write failure is
// returned but the in-memory change sticks, so the session keeps working
// and only persistence is lost. Thread-safe.
type Store struct {
	mu       sync.Mutex
	layout   Layout
	filePath string
	bus      *events.Bus
}

// Open loads the layout from filePath, falling back to defaults when the
// file is missing or unreadable. An empty filePath uses defaults and
// disables persistence (mutators only update memory).
func Open(filePath string, bus *events.Bus) *Store {
	s := &Store{
		layout:   defaultLayout(),
		filePath: filePath,
		bus:      bus,
	}
	if filePath == "" {
		return s
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return s
	}
	var loaded Layout
	if err := json.Unmarshal(data, &loaded); err != nil {
		return s
	}

	if loaded.PageSizes == nil {
		loaded.PageSizes = make(map[string]int)
	}
	if loaded.SplitFraction < MinSplitFraction || loaded.SplitFraction > MaxSplitFraction {
		loaded.SplitFraction = DefaultSplitFraction
	}
	s.layout = loaded
	return s
}

// Snapshot returns a copy of the current layout.
func (s *Store) Snapshot() Layout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// SetLastPath records the folder to reopen next run.
func (s *Store) SetLastPath(path string) error {
	s.mu.Lock()
	if s.layout.LastPath == path {
		s.mu.Unlock()
		return nil
	}
	s.layout.LastPath = path
	err := s.saveLocked()
	s.mu.Unlock()

	s.publish("last_path")
	return err
}

// AddBookmark appends a folder to the bookmark list. Adding a path that
// is already bookmarked is a no-op that skips the disk write.
func (s *Store) AddBookmark(path string) error {
	s.mu.Lock()
	for _, b := range s.layout.Bookmarks {
		if b == path {
			s.mu.Unlock()
			return nil
		}
	}
	s.layout.Bookmarks = append(s.layout.Bookmarks, path)
	err := s.saveLocked()
	s.mu.Unlock()

	s.publish("bookmarks")
	return err
}

// RemoveBookmark drops a folder from the bookmark list. Removing a path
// that is not bookmarked is a no-op that skips the disk write.
func (s *Store) RemoveBookmark(path string) error {
	s.mu.Lock()
	idx := -1
	for i, b := range s.layout.Bookmarks {
		if b == path {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	s.layout.Bookmarks = append(s.layout.Bookmarks[:idx], s.layout.Bookmarks[idx+1:]...)
	err := s.saveLocked()
	s.mu.Unlock()

	s.publish("bookmarks")
	return err
}

// IsBookmarked reports whether path is in the bookmark list.
func (s *Store) IsBookmarked(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.layout.Bookmarks {
		if b == path {
			return true
		}
	}
	return false
}

// SetSplitFraction positions the pane divider, clamped so neither pane
// collapses.
func (s *Store) SetSplitFraction(fraction float64) error {
	if fraction < MinSplitFraction {
		fraction = MinSplitFraction
	}
	if fraction > MaxSplitFraction {
		fraction = MaxSplitFraction
	}

	s.mu.Lock()
	if s.layout.SplitFraction == fraction {
		s.mu.Unlock()
		return nil
	}
	s.layout.SplitFraction = fraction
	err := s.saveLocked()
	s.mu.Unlock()

	s.publish("split")
	return err
}

// SetPageSize records the rows-per-page choice for one panel. Sizes
// below zero are rejected silently; zero means "show everything".
func (s *Store) SetPageSize(panel string, n int) error {
	if n < 0 {
		return nil
	}

	s.mu.Lock()
	if current, ok := s.layout.PageSizes[panel]; ok && current == n {
		s.mu.Unlock()
		return nil
	}
	s.layout.PageSizes[panel] = n
	err := s.saveLocked()
	s.mu.Unlock()

	s.publish("page_size")
	return err
}

// PageSize returns the stored rows-per-page for a panel, or the default
// when the panel has no stored choice.
func (s *Store) PageSize(panel string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.layout.PageSizes[panel]; ok {
		return n
	}
	return constants.DefaultPageSize
}

func (s *Store) copyLocked() Layout {
	result := s.layout
	result.Bookmarks = make([]string, len(s.layout.Bookmarks))
	copy(result.Bookmarks, s.layout.Bookmarks)
	result.PageSizes = make(map[string]int, len(s.layout.PageSizes))
	for k, v := range s.layout.PageSizes {
		result.PageSizes[k] = v
	}
	return result
}

// saveLocked writes the layout to disk via a temp file and rename.
// Callers hold mu.
func (s *Store) saveLocked() error {
	if s.filePath == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return fmt.Errorf("failed to create layout directory: %w", err)
	}

	data, err := json.MarshalIndent(s.layout, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal layout: %w", err)
	}

	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write layout file: %w", err)
	}
	if err := os.Rename(tmpFile, s.filePath); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename layout file: %w", err)
	}
	return nil
}

func (s *Store) publish(field string) {
	if s.bus != nil {
		s.bus.PublishLayout(field)
	}
}
