package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/remex-io/remex/internal/agent"
	"github.com/remex-io/remex/internal/bulk"
	"github.com/remex-io/remex/internal/events"
	"github.com/remex-io/remex/internal/explorer"
)

// listingLoadedMsg delivers one folder listing (or the drive list).
type listingLoadedMsg struct {
	path    string
	entries []agent.Entry
	err     error
}

// opDoneMsg reports a finished bulk operation. detail carries a produced
// path (archive, download destination) when the verb has one.
type opDoneMsg struct {
	verb    string
	detail  string
	summary bulk.Summary
	err     error
}

// busEventMsg wraps one event from the shared bus.
type busEventMsg struct {
	event events.Event
}

// loadListingCmd fetches a listing off the Update loop. refresh bypasses
// the cache.
func loadListingCmd(ctx context.Context, cache *explorer.Cache, path string, refresh bool) tea.Cmd {
	return func() tea.Msg {
		var entries []agent.Entry
		var err error
		if refresh {
			entries, err = cache.Refresh(ctx, path)
		} else {
			entries, err = cache.Load(ctx, path)
		}
		return listingLoadedMsg{path: path, entries: entries, err: err}
	}
}

// waitForBusEvent blocks on the subscription channel and hands the next
// event to Update. The handler re-arms it after every receipt.
func waitForBusEvent(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return nil
		}
		return busEventMsg{event: evt}
	}
}

// outcomeSummary converts the agent's bulk tally into the coordinator's
// summary shape so paste renders like every other batch.
func outcomeSummary(outcome *agent.BulkOutcome) bulk.Summary {
	if outcome == nil {
		return bulk.Summary{}
	}
	summary := bulk.Summary{Succeeded: outcome.Succeeded, Failed: len(outcome.Failed)}
	for _, f := range outcome.Failed {
		summary.Failures = append(summary.Failures, bulk.Failure{Path: f.Path, Reason: f.Reason})
	}
	return summary
}
