package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remex-io/remex/internal/config"
	"github.com/remex-io/remex/internal/layout"
)

// newBookmarkCmd creates the 'bookmark' command group.
func newBookmarkCmd() *cobra.Command {
	bookmarkCmd := &cobra.Command{
		Use:   "bookmark",
		Short: "Manage bookmarked remote folders",
		Long: `Bookmarked folders appear in the explorer's jump list and are
shared with the interactive explorer.`,
	}

	bookmarkCmd.AddCommand(newBookmarkListCmd())
	bookmarkCmd.AddCommand(newBookmarkAddCmd())
	bookmarkCmd.AddCommand(newBookmarkRemoveCmd())

	return bookmarkCmd
}

// openLayout opens the persisted layout store the explorer shares.
func openLayout() (*layout.Store, error) {
	path, err := config.DefaultLayoutPath()
	if err != nil {
		return nil, fmt.Errorf("failed to locate layout file: %w", err)
	}
	return layout.Open(path, nil), nil
}

// newBookmarkListCmd creates the 'bookmark list' command.
func newBookmarkListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List bookmarked folders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openLayout()
			if err != nil {
				return err
			}

			bookmarks := store.Snapshot().Bookmarks
			if len(bookmarks) == 0 {
				fmt.Println("No bookmarks")
				return nil
			}

			fmt.Printf("Found %d bookmark(s):\n\n", len(bookmarks))
			for _, bookmark := range bookmarks {
				fmt.Printf("  %s\n", bookmark)
			}
			return nil
		},
	}
}

// newBookmarkAddCmd creates the 'bookmark add' command.
func newBookmarkAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <path>",
		Short: "Bookmark a remote folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openLayout()
			if err != nil {
				return err
			}

			path := normalizeRemote(args[0])
			if store.IsBookmarked(path) {
				fmt.Printf("%s is already bookmarked\n", path)
				return nil
			}
			if err := store.AddBookmark(path); err != nil {
				return fmt.Errorf("failed to save bookmarks: %w", err)
			}

			fmt.Printf("✓ Bookmarked %s\n", path)
			return nil
		},
	}
}

// newBookmarkRemoveCmd creates the 'bookmark remove' command.
func newBookmarkRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <path>",
		Short: "Remove a bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openLayout()
			if err != nil {
				return err
			}

			path := normalizeRemote(args[0])
			if !store.IsBookmarked(path) {
				fmt.Printf("%s is not bookmarked\n", path)
				return nil
			}
			if err := store.RemoveBookmark(path); err != nil {
				return fmt.Errorf("failed to save bookmarks: %w", err)
			}

			fmt.Printf("✓ Removed bookmark %s\n", path)
			return nil
		},
	}
}
