// Package tui is the interactive two-pane explorer. It renders the same
// state containers the CLI commands use and talks to the agent through
// the same coordinator, so both frontends stay in lockstep.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/remex-io/remex/internal/agent"
	"github.com/remex-io/remex/internal/bulk"
	"github.com/remex-io/remex/internal/config"
	"github.com/remex-io/remex/internal/events"
	"github.com/remex-io/remex/internal/explorer"
	"github.com/remex-io/remex/internal/layout"
	"github.com/remex-io/remex/internal/tail"
	"github.com/remex-io/remex/internal/transfer"
)

// Deps carries everything the explorer renders and acts on. All fields
// must be set; StartPath may be empty to reopen the previous session's
// folder (or the drive list when there is none).
type Deps struct {
	Config      *config.Config
	Client      *agent.Client
	Bus         *events.Bus
	Cache       *explorer.Cache
	Selection   *explorer.Selection
	Clipboard   *explorer.Clipboard
	Queue       *transfer.Queue
	Coordinator *bulk.Coordinator
	Layout      *layout.Store
	Tail        *tail.Poller
	StartPath   string
}

// Run opens the explorer and blocks until the user quits.
func Run(deps Deps) error {
	ch := deps.Bus.SubscribeAll()
	defer deps.Bus.UnsubscribeAll(ch)

	m := newExplorerModel(deps, ch)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()

	// A tail session may still be polling when the user quits from
	// another view.
	deps.Tail.Stop()
	return err
}
