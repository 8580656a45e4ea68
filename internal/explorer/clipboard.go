package explorer

import (
	"context"
	"errors"
	"sync"

	"github.com/remex-io/remex/internal/agent"
	"github.com/remex-io/remex/internal/events"
	"github.com/remex-io/remex/internal/winpath"
)

// Mode says what a paste will do with the held paths.
type Mode string

const (
	// ModeCopy - paste duplicates the held paths; the payload survives
	// any number of pastes
	ModeCopy Mode = "copy"
	// ModeCut - paste moves the held paths; the payload clears after
	// exactly one successful paste
	ModeCut Mode = "cut"
)

// ErrClipboardEmpty means Paste was called with nothing held.
var ErrClipboardEmpty = errors.New("clipboard is empty")

// ErrNoDestination means Paste was called without a destination directory.
var ErrNoDestination = errors.New("no destination directory")

// PasteAPI is the slice of the agent client the clipboard needs.
type PasteAPI interface {
	BulkCopy(ctx context.Context, sources []string, dest string) (*agent.BulkOutcome, error)
	BulkMove(ctx context.Context, sources []string, dest string) (*agent.BulkOutcome, error)
}

// Clipboard holds a copy/cut payload between panels. A failed paste leaves
// the payload intact so the user can retry elsewhere. Thread-safe.
type Clipboard struct {
	api       PasteAPI
	cache     *Cache
	selection *Selection
	bus       *events.Bus

	mu    sync.RWMutex
	mode  Mode
	items []string
}

// NewClipboard creates an empty clipboard.
func NewClipboard(api PasteAPI, cache *Cache, selection *Selection, bus *events.Bus) *Clipboard {
	return &Clipboard{
		api:       api,
		cache:     cache,
		selection: selection,
		bus:       bus,
	}
}

// Copy snapshots paths for a later duplicating paste. Empty input is a no-op
// so a stray shortcut cannot wipe a held payload.
func (c *Clipboard) Copy(paths []string) {
	c.hold(ModeCopy, paths)
}

// Cut snapshots paths for a later moving paste.
func (c *Clipboard) Cut(paths []string) {
	c.hold(ModeCut, paths)
}

func (c *Clipboard) hold(mode Mode, paths []string) {
	if len(paths) == 0 {
		return
	}

	c.mu.Lock()
	c.mode = mode
	c.items = make([]string, len(paths))
	copy(c.items, paths)
	count := len(c.items)
	c.mu.Unlock()

	if c.bus != nil {
		c.bus.PublishClipboard(string(mode), count)
	}
}

// Clear drops the held payload.
func (c *Clipboard) Clear() {
	c.mu.Lock()
	c.mode = ""
	c.items = nil
	c.mu.Unlock()

	if c.bus != nil {
		c.bus.PublishClipboard("", 0)
	}
}

// Mode returns what a paste would do.
func (c *Clipboard) Mode() Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

// Items returns a copy of the held paths.
func (c *Clipboard) Items() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]string, len(c.items))
	copy(result, c.items)
	return result
}

// Count returns the number of held paths.
func (c *Clipboard) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// CanPaste reports whether a paste into dest could run.
func (c *Clipboard) CanPaste(dest string) bool {
	if dest == "" {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items) > 0
}

// Paste sends the held paths to dest. ModeCopy duplicates and keeps the
// payload; ModeCut moves and clears it. On any error the payload stays
// intact. Success invalidates the destination listing (and each source
// parent for a cut) and clears the selection; per-item failures come back
// in the outcome, not as an error.
func (c *Clipboard) Paste(ctx context.Context, dest string) (*agent.BulkOutcome, error) {
	if dest == "" {
		return nil, ErrNoDestination
	}

	c.mu.RLock()
	mode := c.mode
	sources := make([]string, len(c.items))
	copy(sources, c.items)
	c.mu.RUnlock()

	if len(sources) == 0 {
		return nil, ErrClipboardEmpty
	}

	var outcome *agent.BulkOutcome
	var err error
	if mode == ModeCut {
		outcome, err = c.api.BulkMove(ctx, sources, dest)
	} else {
		outcome, err = c.api.BulkCopy(ctx, sources, dest)
	}
	if err != nil {
		return nil, err
	}

	stale := []string{dest}
	if mode == ModeCut {
		for _, source := range sources {
			stale = append(stale, winpath.ParentOf(source))
		}

		c.mu.Lock()
		c.mode = ""
		c.items = nil
		c.mu.Unlock()

		if c.bus != nil {
			c.bus.PublishClipboard("", 0)
		}
	}

	if c.cache != nil {
		c.cache.Invalidate(stale...)
	}
	if c.selection != nil {
		c.selection.Clear()
	}

	return outcome, nil
}
