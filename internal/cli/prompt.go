package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// DeleteAction represents the user's choice at the delete confirmation.
type DeleteAction int

const (
	DeleteProceed DeleteAction = iota
	DeleteAbort
)

// promptDeleteConfirm asks before a bulk delete. Reads from in so tests
// can script the answer.
func promptDeleteConfirm(in io.Reader, out io.Writer, paths []string) (DeleteAction, error) {
	fmt.Fprintf(out, "\n⚠️  About to delete %d item(s):\n", len(paths))
	const maxShown = 10
	shown := paths
	if len(shown) > maxShown {
		shown = shown[:maxShown]
	}
	for _, path := range shown {
		fmt.Fprintf(out, "  %s\n", path)
	}
	if len(paths) > maxShown {
		fmt.Fprintf(out, "  ... and %d more\n", len(paths)-maxShown)
	}

	fmt.Fprintln(out, "This cannot be undone. What would you like to do?")
	fmt.Fprintln(out, "  1. Delete - Remove the items")
	fmt.Fprintln(out, "  2. Abort - Keep everything")
	fmt.Fprint(out, "Choose [1-2]: ")

	reader := bufio.NewReader(in)
	for {
		input, err := reader.ReadString('\n')
		if err != nil {
			return DeleteAbort, err
		}

		switch strings.TrimSpace(input) {
		case "1":
			return DeleteProceed, nil
		case "2":
			return DeleteAbort, nil
		default:
			fmt.Fprintln(out, "Invalid choice, please try again.")
			fmt.Fprint(out, "Choose [1-2]: ")
		}
	}
}
