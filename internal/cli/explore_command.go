package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/remex-io/remex/internal/config"
	"github.com/remex-io/remex/internal/layout"
	"github.com/remex-io/remex/internal/tail"
	"github.com/remex-io/remex/internal/tui"
)

// newExploreCmd creates the 'explore' command.
func newExploreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explore [path]",
		Short: "Open the interactive explorer",
		Long: `Open the two-pane interactive explorer.

Starts at the given folder, at the last folder from the previous
session, or at the drive list. Press ? inside for the key reference.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := newWorkspace()
			if err != nil {
				return err
			}

			// Cosmetic state: if the layout path cannot be determined
			// the explorer still runs, it just forgets on exit.
			layoutPath, err := config.DefaultLayoutPath()
			if err != nil {
				layoutPath = ""
			}
			store := layout.Open(layoutPath, ws.bus)

			startPath := ""
			if len(args) == 1 {
				startPath = normalizeRemote(args[0])
			}

			// The explorer owns the terminal; stray log lines would
			// tear its frames.
			log := GetLogger()
			prevOut := log.Output()
			log.SetOutput(io.Discard)
			defer log.SetOutput(prevOut)

			return tui.Run(tui.Deps{
				Config:      ws.cfg,
				Client:      ws.client,
				Bus:         ws.bus,
				Cache:       ws.cache,
				Selection:   ws.selection,
				Clipboard:   ws.clipboard,
				Queue:       ws.queue,
				Coordinator: ws.coordinator,
				Layout:      store,
				Tail:        tail.NewPoller(ws.client, ws.bus, log),
				StartPath:   startPath,
			})
		},
	}
}
