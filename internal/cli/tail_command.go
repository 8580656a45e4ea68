package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/remex-io/remex/internal/constants"
	"github.com/remex-io/remex/internal/events"
	"github.com/remex-io/remex/internal/tail"
)

// newTailCmd creates the 'tail' command.
func newTailCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "tail <path>",
		Short: "Follow a remote text file",
		Long: `Poll a remote text file and print new content as it appears,
like tail -f. The agent has no push channel, so the file is refetched
on a fixed cadence. Press Ctrl+C to stop.

Examples:
  remex tail 'C:\logs\run.log'
  remex tail 'C:\logs\run.log' --interval 500ms`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newClient()
			if err != nil {
				return err
			}

			bus := events.NewBus(constants.EventBusDefaultBuffer)
			ch := bus.SubscribeAll()
			defer bus.UnsubscribeAll(ch)

			poller := tail.NewPoller(client, bus, GetLogger())
			poller.SetInterval(interval)

			path := normalizeRemote(args[0])
			if err := poller.Start(path); err != nil {
				return fmt.Errorf("cannot tail %s: %w", path, err)
			}
			defer poller.Stop()

			fmt.Fprintf(os.Stderr, "Tailing %s (every %s, Ctrl+C to stop)\n", path, interval)

			ctx := GetContext()
			var last string
			for {
				select {
				case <-ctx.Done():
					fmt.Println()
					return nil
				case evt, ok := <-ch:
					if !ok {
						return nil
					}
					te, ok := evt.(*events.TailEvent)
					if !ok {
						continue
					}
					switch te.Type() {
					case events.EventTailTick:
						if !strings.HasPrefix(te.Content, last) {
							// Rotated or truncated: reprint from the top.
							last = ""
						}
						fmt.Print(te.Content[len(last):])
						last = te.Content
					case events.EventTailError:
						return fmt.Errorf("tail stopped: %w", te.Error)
					case events.EventTailStopped:
						return nil
					}
				}
			}
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", constants.TailPollInterval, "Poll cadence (e.g. 2s, 500ms)")

	return cmd
}
