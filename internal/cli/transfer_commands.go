package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remex-io/remex/internal/agent"
	"github.com/remex-io/remex/internal/progress"
)

// newDownloadCmd creates the 'download' command.
func newDownloadCmd() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "download <path>...",
		Short: "Download remote files or folders",
		Long: `Download remote files or folders to a local directory.

A single file streams directly. A folder, or several paths together,
is zipped by the agent and streams as one archive; the remote temp
archive is removed afterwards.

Examples:
  # Single file
  remex download 'C:\logs\run.log' -o ./logs

  # Whole folder, arrives as <name>_<yyyy-mm-dd>.zip
  remex download 'C:\work\results'

  # Several items as one archive
  remex download 'C:\work\a.txt' 'C:\work\b.txt'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := newWorkspace()
			if err != nil {
				return err
			}
			// Folder and multi-item downloads leave a temp archive on
			// the agent; hold the process open until its deferred
			// delete has fired.
			defer ws.coordinator.WaitCleanups()
			ctx := GetContext()

			paths := normalizeAll(args)
			entries := make([]agent.Entry, len(paths))
			for i, path := range paths {
				entry, err := resolveEntry(ctx, ws.client, path)
				if err != nil {
					return err
				}
				entries[i] = entry
			}

			// Every shape of download is one transfer task: a direct
			// file stream or a single combined archive stream.
			ui := progress.NewTransferUI(1)
			ui.Watch(ws.bus)
			log := GetLogger()
			prevOut := log.Output()
			log.SetOutput(ui.LogWriter())

			localPath, err := ws.coordinator.DownloadSelection(ctx, entries, outputDir)

			ui.Stop()
			log.SetOutput(prevOut)

			if err != nil {
				return fmt.Errorf("download failed: %w", err)
			}
			fmt.Printf("✓ Downloaded to %s\n", localPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "outdir", "o", ".", "Local directory to download into")

	return cmd
}

// newUploadCmd creates the 'upload' command.
func newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <local>... <remote-dir>",
		Short: "Upload local files to a remote folder",
		Long: `Upload local files into a remote folder, one at a time in the
order given. The batch stops at the first failure; files already
uploaded stay.

Examples:
  remex upload data.csv 'C:\work'
  remex upload run1.log run2.log 'C:\logs'`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			locals := args[:len(args)-1]
			remoteDir := normalizeRemote(args[len(args)-1])

			ws, err := newWorkspace()
			if err != nil {
				return err
			}
			ctx := GetContext()

			ui := progress.NewTransferUI(len(locals))
			ui.Watch(ws.bus)
			log := GetLogger()
			prevOut := log.Output()
			log.SetOutput(ui.LogWriter())

			summary, err := ws.coordinator.Upload(ctx, remoteDir, locals)

			ui.Stop()
			log.SetOutput(prevOut)

			// Validation failures return before anything ran; an empty
			// tally has nothing to report.
			if summary.Succeeded+summary.Failed+summary.Skipped > 0 {
				printSummary("Uploaded", summary)
			}
			if err != nil {
				return fmt.Errorf("upload aborted: %w", err)
			}
			return nil
		},
	}
}
