//go:build !windows
// +build !windows

package progress

import "os"

// enableWindowsANSI is a no-op off Windows; Unix terminals handle ANSI
// natively.
func enableWindowsANSI(f *os.File) {
}
