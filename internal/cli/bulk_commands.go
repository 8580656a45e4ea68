package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/remex-io/remex/internal/bulk"
)

// newRmCmd creates the 'rm' command.
func newRmCmd() *cobra.Command {
	var each bool
	var yes bool

	cmd := &cobra.Command{
		Use:   "rm <path> [path...]",
		Short: "Delete remote files or folders",
		Long: `Delete remote files or folders. Folders are removed with their
content.

By default all paths go in one bulk request and the agent reports a
per-item tally. With --each, paths are deleted one request at a time
and a failure does not stop the rest.

Examples:
  # Delete with confirmation
  remex rm 'C:\work\old.txt' 'C:\work\tmp'

  # Skip the prompt
  remex rm 'C:\work\old.txt' --yes`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := normalizeAll(args)

			if !yes {
				action, err := promptDeleteConfirm(os.Stdin, os.Stdout, paths)
				if err != nil {
					return err
				}
				if action != DeleteProceed {
					fmt.Println("Deletion cancelled")
					return nil
				}
			}

			ws, err := newWorkspace()
			if err != nil {
				return err
			}
			ctx := GetContext()

			var summary bulk.Summary
			err = spinWhile(fmt.Sprintf("Deleting %d item(s)", len(paths)), func() error {
				if each {
					summary = ws.coordinator.DeleteEach(ctx, paths)
					return nil
				}
				var deleteErr error
				summary, deleteErr = ws.coordinator.DeleteAll(ctx, paths)
				return deleteErr
			})
			if err != nil {
				return fmt.Errorf("failed to delete: %w", err)
			}

			printSummary("Deleted", summary)
			return nil
		},
	}

	cmd.Flags().BoolVar(&each, "each", false, "Delete one request at a time, continuing past failures")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

// newCpCmd creates the 'cp' command.
func newCpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cp <source>... <dest>",
		Short: "Copy remote files or folders into a folder",
		Long: `Copy remote files or folders into a destination folder on the
same machine. The agent reports a per-item tally; a partial failure
does not undo the items that went through.

Example:
  remex cp 'C:\work\a.txt' 'C:\work\b.txt' 'C:\backup'`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sources := normalizeAll(args[:len(args)-1])
			dest := normalizeRemote(args[len(args)-1])

			ws, err := newWorkspace()
			if err != nil {
				return err
			}
			ctx := GetContext()

			var summary bulk.Summary
			err = spinWhile(fmt.Sprintf("Copying %d item(s)", len(sources)), func() error {
				var copyErr error
				summary, copyErr = ws.coordinator.CopyInto(ctx, sources, dest)
				return copyErr
			})
			if err != nil {
				return fmt.Errorf("failed to copy: %w", err)
			}

			printSummary("Copied", summary)
			return nil
		},
	}
}

// newMvCmd creates the 'mv' command.
func newMvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mv <source>... <dest>",
		Short: "Move remote files or folders into a folder",
		Long: `Move remote files or folders into a destination folder on the
same machine.

Example:
  remex mv 'C:\work\run1' 'C:\work\run2' 'C:\archive'`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sources := normalizeAll(args[:len(args)-1])
			dest := normalizeRemote(args[len(args)-1])

			ws, err := newWorkspace()
			if err != nil {
				return err
			}
			ctx := GetContext()

			var summary bulk.Summary
			err = spinWhile(fmt.Sprintf("Moving %d item(s)", len(sources)), func() error {
				var moveErr error
				summary, moveErr = ws.coordinator.MoveInto(ctx, sources, dest)
				return moveErr
			})
			if err != nil {
				return fmt.Errorf("failed to move: %w", err)
			}

			printSummary("Moved", summary)
			return nil
		},
	}
}

// newZipCmd creates the 'zip' command.
func newZipCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "zip <source>...",
		Short: "Zip remote files or folders into a remote archive",
		Long: `Create a zip archive on the remote machine from remote sources.
Nothing is downloaded; use 'download' for that.

Without --out, a lone source zips beside itself as <name>.zip and
several sources land in the first source's parent as
archive_<yyyy-mm-dd>.zip.

Example:
  remex zip 'C:\work\results' --out 'C:\work\results.zip'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sources := normalizeAll(args)

			ws, err := newWorkspace()
			if err != nil {
				return err
			}
			ctx := GetContext()

			var zipPath string
			err = spinWhile(fmt.Sprintf("Zipping %d item(s)", len(sources)), func() error {
				var zipErr error
				zipPath, zipErr = ws.coordinator.ZipSelection(ctx, sources, normalizeRemote(out))
				return zipErr
			})
			if err != nil {
				return fmt.Errorf("failed to zip: %w", err)
			}

			fmt.Printf("✓ Created %s\n", zipPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Archive path on the remote machine")

	return cmd
}

// newUnzipCmd creates the 'unzip' command.
func newUnzipCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unzip <zip> [dest]",
		Short: "Extract a remote archive on the remote machine",
		Long: `Extract a zip archive that lives on the remote machine. Without
a destination, the archive extracts beside itself.

Example:
  remex unzip 'C:\work\results.zip' 'C:\work\extracted'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			zipPath := normalizeRemote(args[0])
			dest := ""
			if len(args) == 2 {
				dest = normalizeRemote(args[1])
			}

			ws, err := newWorkspace()
			if err != nil {
				return err
			}
			ctx := GetContext()

			err = spinWhile(fmt.Sprintf("Extracting %s", zipPath), func() error {
				return ws.coordinator.Unzip(ctx, zipPath, dest)
			})
			if err != nil {
				return fmt.Errorf("failed to extract: %w", err)
			}

			fmt.Printf("✓ Extracted %s\n", zipPath)
			return nil
		},
	}
}

// printSummary reports a batch outcome, listing per-item failures.
func printSummary(verb string, summary bulk.Summary) {
	if summary.AllSucceeded() {
		fmt.Printf("✓ %s %d item(s)\n", verb, summary.Succeeded)
		return
	}

	total := summary.Succeeded + summary.Failed + summary.Skipped
	fmt.Printf("%s %d of %d item(s): %d failed, %d skipped\n",
		verb, summary.Succeeded, total, summary.Failed, summary.Skipped)
	for _, failure := range summary.Failures {
		fmt.Printf("  ✗ %s: %s\n", failure.Path, failure.Reason)
	}
}
