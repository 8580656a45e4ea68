package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/remex-io/remex/internal/agent"
	"github.com/remex-io/remex/internal/explorer"
	"github.com/remex-io/remex/internal/winpath"
)

// newLsCmd creates the 'ls' command.
func newLsCmd() *cobra.Command {
	var sortField string
	var descending bool
	var search string
	var page int
	var pageSize int
	var long bool

	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List a remote folder",
		Long: `List the entries of a remote folder. Without a path, lists the
agent's drives.

Examples:
  # List drives
  remex ls

  # List a folder
  remex ls 'C:\Users\lab'

  # Largest files first, with details
  remex ls 'C:\data' --sort size --desc --long

  # Only names containing "report"
  remex ls 'C:\data' --search report`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := newClient()
			if err != nil {
				return err
			}
			ctx := GetContext()

			if len(args) == 0 {
				return listDrives(ctx, client)
			}

			// Flags left at their zero value fall back to the config
			// file's explorer defaults.
			if sortField == "" {
				sortField = cfg.Explorer.SortField
			}
			key, err := sortKeyFromField(sortField)
			if err != nil {
				return err
			}
			ascending := cfg.Explorer.SortAscending
			if descending {
				ascending = false
			}
			if pageSize == 0 {
				pageSize = cfg.Explorer.PageSize
			}

			path := normalizeRemote(args[0])
			entries, err := client.List(ctx, path)
			if err != nil {
				return fmt.Errorf("failed to list %s: %w", path, err)
			}

			result := explorer.Apply(entries, explorer.Query{
				Search:       search,
				Key:          key,
				Ascending:    ascending,
				FoldersFirst: true,
				Page:         page - 1,
				PageSize:     pageSize,
			})
			printEntries(result, long)
			return nil
		},
	}

	cmd.Flags().StringVar(&sortField, "sort", "", "Sort by: name, size or modified (default from config)")
	cmd.Flags().BoolVar(&descending, "desc", false, "Sort descending")
	cmd.Flags().StringVar(&search, "search", "", "Only entries whose name contains this (case-insensitive)")
	cmd.Flags().IntVar(&page, "page", 1, "Page to show (1-based)")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Rows per page (0 = config default, negative = everything)")
	cmd.Flags().BoolVar(&long, "long", false, "Show type, size and modification time")

	return cmd
}

// newDrivesCmd creates the 'drives' command.
func newDrivesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drives",
		Short: "List the agent's drives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newClient()
			if err != nil {
				return err
			}
			return listDrives(GetContext(), client)
		},
	}
}

func listDrives(ctx context.Context, client *agent.Client) error {
	drives, err := client.Drives(ctx)
	if err != nil {
		return fmt.Errorf("failed to list drives: %w", err)
	}

	if len(drives) == 0 {
		fmt.Println("No drives found")
		return nil
	}

	fmt.Printf("Found %d drive(s):\n\n", len(drives))
	for _, drive := range drives {
		if drive.Name != "" && drive.Name != drive.Path {
			fmt.Printf("  %-8s %s\n", drive.Path, drive.Name)
		} else {
			fmt.Printf("  %s\n", drive.Path)
		}
	}
	return nil
}

// sortKeyFromField maps the config/flag sort field to a view sort key.
// The config file says "modified"; the view pipeline calls it "date".
func sortKeyFromField(field string) (string, error) {
	switch field {
	case "name", "size":
		return field, nil
	case "modified":
		return "date", nil
	default:
		return "", fmt.Errorf("invalid sort field %q (valid: name, size, modified)", field)
	}
}

// printEntries renders one shaped page. Long mode adds the size and
// modification time columns; short mode prints bare names for piping.
func printEntries(page explorer.Page, long bool) {
	if page.Total == 0 {
		fmt.Println("No entries found")
		return
	}

	if !long {
		for _, entry := range page.Rows {
			name := entry.Name
			if entry.IsDir {
				name += winpath.Separator
			}
			fmt.Println(name)
		}
		if page.TotalPages > 1 {
			fmt.Fprintf(os.Stderr, "(page %d/%d, %d entries total)\n", page.Index+1, page.TotalPages, page.Total)
		}
		return
	}

	fmt.Printf("Found %d entries (page %d/%d):\n\n", page.Total, page.Index+1, page.TotalPages)
	fmt.Printf("%-5s %-40s %12s  %s\n", "TYPE", "NAME", "SIZE", "MODIFIED")
	fmt.Println(strings.Repeat("-", 80))

	for _, entry := range page.Rows {
		kind := "file"
		size := humanSize(entry.Size)
		if entry.IsDir {
			kind = "dir"
			size = ""
		}
		fmt.Printf("%-5s %-40s %12s  %s\n", kind, entry.Name, size, entry.ModTime.Format("2006-01-02 15:04"))
	}
}

// humanSize renders a byte count for the listing table.
func humanSize(size int64) string {
	const (
		kb = 1 << 10
		mb = 1 << 20
		gb = 1 << 30
	)
	switch {
	case size >= gb:
		return fmt.Sprintf("%.1f GB", float64(size)/gb)
	case size >= mb:
		return fmt.Sprintf("%.1f MB", float64(size)/mb)
	case size >= kb:
		return fmt.Sprintf("%.1f KB", float64(size)/kb)
	default:
		return fmt.Sprintf("%d B", size)
	}
}
