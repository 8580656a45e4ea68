package explorer

import (
	"sort"
	"sync"

	"github.com/remex-io/remex/internal/events"
)

// GroupState is the tri-state of a visible group's header checkbox.
type GroupState int

const (
	// GroupNone - no item of the group is selected (or the group is empty)
	GroupNone GroupState = iota
	// GroupPartial - some but not all items are selected
	GroupPartial
	// GroupAll - every item of the group is selected
	GroupAll
)

func (g GroupState) String() string {
	switch g {
	case GroupPartial:
		return "partial"
	case GroupAll:
		return "all"
	default:
		return "none"
	}
}

// Selection is the set of marked paths in a panel. Membership survives
// paging and filtering; only explicit calls mutate it. Thread-safe for
// concurrent access.
type Selection struct {
	bus *events.Bus

	mu    sync.RWMutex
	paths map[string]bool
}

// NewSelection creates an empty selection.
func NewSelection(bus *events.Bus) *Selection {
	return &Selection{
		bus:   bus,
		paths: make(map[string]bool),
	}
}

// Toggle flips one path's membership.
func (s *Selection) Toggle(path string) {
	s.mu.Lock()
	if s.paths[path] {
		delete(s.paths, path)
	} else {
		s.paths[path] = true
	}
	count := len(s.paths)
	s.mu.Unlock()

	s.publish(count)
}

// SelectAll adds every given path (union with the current set).
func (s *Selection) SelectAll(paths []string) {
	s.mu.Lock()
	for _, path := range paths {
		s.paths[path] = true
	}
	count := len(s.paths)
	s.mu.Unlock()

	s.publish(count)
}

// Deselect removes one path.
func (s *Selection) Deselect(path string) {
	s.mu.Lock()
	delete(s.paths, path)
	count := len(s.paths)
	s.mu.Unlock()

	s.publish(count)
}

// DeselectAll removes every given path.
func (s *Selection) DeselectAll(paths []string) {
	s.mu.Lock()
	for _, path := range paths {
		delete(s.paths, path)
	}
	count := len(s.paths)
	s.mu.Unlock()

	s.publish(count)
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.mu.Lock()
	s.paths = make(map[string]bool)
	s.mu.Unlock()

	s.publish(0)
}

// Has returns whether a path is selected.
func (s *Selection) Has(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paths[path]
}

// Count returns the number of selected paths.
func (s *Selection) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.paths)
}

// Paths returns the selected paths as a sorted copy.
func (s *Selection) Paths() []string {
	s.mu.RLock()
	result := make([]string, 0, len(s.paths))
	for path := range s.paths {
		result = append(result, path)
	}
	s.mu.RUnlock()

	sort.Strings(result)
	return result
}

// GroupState computes the header tri-state for a visible group of paths.
// An empty group is GroupNone.
func (s *Selection) GroupState(paths []string) GroupState {
	if len(paths) == 0 {
		return GroupNone
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	selected := 0
	for _, path := range paths {
		if s.paths[path] {
			selected++
		}
	}

	switch selected {
	case 0:
		return GroupNone
	case len(paths):
		return GroupAll
	default:
		return GroupPartial
	}
}

func (s *Selection) publish(count int) {
	if s.bus != nil {
		s.bus.PublishSelection(count)
	}
}
