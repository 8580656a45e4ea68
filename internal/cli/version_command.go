package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remex-io/remex/internal/version"
)

// newVersionCmd creates the 'version' command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("remex %s (built %s)\n", version.Version, version.BuildTime)
		},
	}
}
