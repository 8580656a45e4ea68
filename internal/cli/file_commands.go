package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/remex-io/remex/internal/winpath"
)

// newCatCmd creates the 'cat' command.
func newCatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <path>",
		Short: "Print a remote text file",
		Long: `Print the content of a remote text file to stdout.

Example:
  remex cat 'C:\logs\run.log'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newClient()
			if err != nil {
				return err
			}

			path := normalizeRemote(args[0])
			content, err := client.ReadFile(GetContext(), path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			fmt.Print(content)
			return nil
		},
	}
}

// newWriteCmd creates the 'write' command.
func newWriteCmd() *cobra.Command {
	var fromFile string
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   "write <path>",
		Short: "Write a remote text file",
		Long: `Write content to a remote text file, replacing what is there.

Examples:
  # Push a local file's content
  remex write 'C:\work\notes.txt' --file notes.txt

  # Pipe content in
  echo done | remex write 'C:\work\status.txt' --stdin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if fromFile == "" && !fromStdin {
				return fmt.Errorf("either --file or --stdin is required")
			}
			if fromFile != "" && fromStdin {
				return fmt.Errorf("only one of --file and --stdin can be given")
			}

			var content []byte
			var err error
			if fromStdin {
				content, err = io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
			} else {
				content, err = os.ReadFile(fromFile)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", fromFile, err)
				}
			}

			client, _, err := newClient()
			if err != nil {
				return err
			}

			path := normalizeRemote(args[0])
			if err := client.WriteFile(GetContext(), path, string(content)); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}

			fmt.Printf("✓ Wrote %s (%d bytes)\n", path, len(content))
			return nil
		},
	}

	cmd.Flags().StringVar(&fromFile, "file", "", "Local file whose content to write")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read the content from stdin")

	return cmd
}

// newMkdirCmd creates the 'mkdir' command.
func newMkdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a remote folder",
		Long: `Create a folder on the remote machine. The parent must exist.

Example:
  remex mkdir 'C:\work\results'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := normalizeRemote(args[0])
			parent, name := winpath.SplitDir(path)
			if name == "" {
				return fmt.Errorf("cannot create %s: no folder name", path)
			}

			client, _, err := newClient()
			if err != nil {
				return err
			}

			if err := client.Mkdir(GetContext(), parent, name); err != nil {
				return fmt.Errorf("failed to create %s: %w", path, err)
			}

			fmt.Printf("✓ Created %s\n", path)
			return nil
		},
	}
}

// newRenameCmd creates the 'rename' command.
func newRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <path> <new-name>",
		Short: "Rename a remote file or folder",
		Long: `Rename a remote file or folder in place. The new name is a bare
name, not a path; use 'mv' to change the containing folder.

Example:
  remex rename 'C:\work\draft.txt' final.txt`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			newName := args[1]
			if strings.ContainsAny(newName, `\/`) {
				return fmt.Errorf("new name must not contain path separators, got %q", newName)
			}

			client, _, err := newClient()
			if err != nil {
				return err
			}

			path := normalizeRemote(args[0])
			if err := client.Rename(GetContext(), path, newName); err != nil {
				return fmt.Errorf("failed to rename %s: %w", path, err)
			}

			fmt.Printf("✓ Renamed %s to %s\n", path, newName)
			return nil
		},
	}
}
