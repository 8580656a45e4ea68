// Package diskspace checks free space on the local filesystem before a
// download is allowed to start. The platform-specific stat lives in the
// _unix/_windows files; this file holds the shared error type.
package diskspace

import (
	"errors"
	"fmt"
)

// InsufficientSpaceError indicates the target filesystem cannot hold the
// transfer. RequiredBytes already includes the safety margin.
type InsufficientSpaceError struct {
	Path           string
	RequiredBytes  int64
	AvailableBytes int64
}

func (e *InsufficientSpaceError) Error() string {
	requiredMB := float64(e.RequiredBytes) / (1024 * 1024)
	availableMB := float64(e.AvailableBytes) / (1024 * 1024)
	return fmt.Sprintf("insufficient disk space for %s: need %.2f MB, have %.2f MB available",
		e.Path, requiredMB, availableMB)
}

// IsInsufficientSpaceError reports whether err is a disk space failure.
func IsInsufficientSpaceError(err error) bool {
	var spaceErr *InsufficientSpaceError
	return errors.As(err, &spaceErr)
}
