// Package tail follows one remote text file the way tail -f does. The
// agent's REST surface has no push channel, so the poller refetches the
// file on a fixed cadence and publishes each snapshot; frontends diff or
// rerender as they see fit. One file at a time: starting a new tail
// supersedes the old one.
package tail

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/remex-io/remex/internal/constants"
	"github.com/remex-io/remex/internal/events"
	"github.com/remex-io/remex/internal/filekind"
	"github.com/remex-io/remex/internal/logging"
)

// ErrNotTailable means the file's kind has no textual content to follow.
// Frontends route images to the preview instead.
var ErrNotTailable = errors.New("file type cannot be tailed")

// State is the poller lifecycle position.
type State string

const (
	StateInactive State = "inactive"
	StateActive   State = "active"
	StatePaused   State = "paused"
)

// ReadAPI is the slice of the agent client the poller needs.
type ReadAPI interface {
	ReadFile(ctx context.Context, path string) (string, error)
}

// Snapshot is the poller's current view for display.
type Snapshot struct {
	State     State
	Path      string
	Content   string
	UpdatedAt time.Time
}

// Poller drives a single tail session. A fetch error is terminal for the
// session: the poller publishes it and goes inactive rather than hammering
// a file that went away. Thread-safe.
type Poller struct {
	api    ReadAPI
	bus    *events.Bus
	logger *logging.Logger

	// interval is how often the file is refetched. Settable before Start
	// via SetInterval.
	interval time.Duration

	mu        sync.Mutex
	state     State
	path      string
	content   string
	updatedAt time.Time
	gen       int // session generation; stale loops see a mismatch and exit
	cancel    context.CancelFunc
}

// NewPoller creates an inactive poller.
func NewPoller(api ReadAPI, bus *events.Bus, logger *logging.Logger) *Poller {
	if logger == nil {
		logger = logging.NewDefault()
	}
	return &Poller{
		api:      api,
		bus:      bus,
		logger:   logger,
		interval: constants.TailPollInterval,
		state:    StateInactive,
	}
}

// SetInterval changes the poll cadence for sessions started afterwards.
// Non-positive values are ignored.
func (p *Poller) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	p.mu.Lock()
	p.interval = d
	p.mu.Unlock()
}

// Start begins tailing path, superseding any session already running.
// The first fetch happens immediately, then on every interval tick.
func (p *Poller) Start(path string) error {
	if !filekind.Detect(path).CanTail() {
		return ErrNotTailable
	}

	p.mu.Lock()
	p.stopSessionLocked()
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.state = StateActive
	p.path = path
	p.content = ""
	p.updatedAt = time.Time{}
	gen := p.gen
	interval := p.interval
	p.mu.Unlock()

	p.logger.Debug().Str("path", path).Msg("Tail started")
	if p.bus != nil {
		p.bus.PublishTail(events.EventTailStarted, path, string(StateActive), "", nil)
	}

	go p.run(ctx, gen, path, interval)
	return nil
}

// Pause stops the ticker but keeps the path and last content so Resume
// can pick the session back up. Ignored unless active.
func (p *Poller) Pause() {
	p.mu.Lock()
	if p.state != StateActive {
		p.mu.Unlock()
		return
	}
	p.stopSessionLocked()
	p.state = StatePaused
	path := p.path
	p.mu.Unlock()

	p.logger.Debug().Str("path", path).Msg("Tail paused")
}

// Resume restarts ticking with an immediate fetch. Ignored unless paused.
func (p *Poller) Resume() {
	p.mu.Lock()
	if p.state != StatePaused {
		p.mu.Unlock()
		return
	}
	p.stopSessionLocked()
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.state = StateActive
	gen := p.gen
	path := p.path
	interval := p.interval
	p.mu.Unlock()

	p.logger.Debug().Str("path", path).Msg("Tail resumed")
	go p.run(ctx, gen, path, interval)
}

// Stop ends the session and clears the held content.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.state == StateInactive {
		p.mu.Unlock()
		return
	}
	path := p.path
	p.stopSessionLocked()
	p.clearLocked()
	p.mu.Unlock()

	p.logger.Debug().Str("path", path).Msg("Tail stopped")
	if p.bus != nil {
		p.bus.PublishTail(events.EventTailStopped, path, string(StateInactive), "", nil)
	}
}

// State returns the current lifecycle position.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Snapshot returns the current session view for display.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		State:     p.state,
		Path:      p.path,
		Content:   p.content,
		UpdatedAt: p.updatedAt,
	}
}

// stopSessionLocked invalidates the running poll loop, if any. Callers
// hold mu. The loop exits on its own once it sees the generation bump;
// nothing waits for it because stale results are discarded anyway.
func (p *Poller) stopSessionLocked() {
	p.gen++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Poller) clearLocked() {
	p.state = StateInactive
	p.path = ""
	p.content = ""
	p.updatedAt = time.Time{}
}

func (p *Poller) run(ctx context.Context, gen int, path string, interval time.Duration) {
	if !p.fetch(ctx, gen, path) {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.fetch(ctx, gen, path) {
				return
			}
		}
	}
}

// fetch reads the file once and applies the result if the session is
// still current. Returns false when the loop should exit.
func (p *Poller) fetch(ctx context.Context, gen int, path string) bool {
	content, err := p.api.ReadFile(ctx, path)

	p.mu.Lock()
	if gen != p.gen {
		// Superseded, paused or stopped while the read was in flight.
		p.mu.Unlock()
		return false
	}
	if err != nil {
		p.stopSessionLocked()
		p.clearLocked()
		p.mu.Unlock()

		p.logger.Warn().Str("path", path).Err(err).Msg("Tail fetch failed, stopping")
		if p.bus != nil {
			p.bus.PublishTail(events.EventTailError, path, string(StateInactive), "", err)
		}
		return false
	}
	p.content = content
	p.updatedAt = time.Now()
	p.mu.Unlock()

	if p.bus != nil {
		p.bus.PublishTail(events.EventTailTick, path, string(StateActive), content, nil)
	}
	return true
}
