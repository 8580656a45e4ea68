package agent

import "time"

// Entry is one file or directory exactly as the agent reports it.
// Identity is Path (case-preserving, backslash-delimited); entries are
// replaced wholesale on every listing refresh, never patched in place.
type Entry struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	IsDir   bool      `json:"isDir"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}

// ItemFailure records one item that a bulk operation could not process.
type ItemFailure struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// BulkOutcome is the agent's per-item tally for a bulk request.
// Partial failure is data here, not an error: the request itself succeeded
// even when some items did not.
type BulkOutcome struct {
	Requested int           `json:"requested"`
	Succeeded int           `json:"succeeded"`
	Failed    []ItemFailure `json:"failed"`
}

// FailedCount returns the number of items that failed.
func (o *BulkOutcome) FailedCount() int {
	return len(o.Failed)
}

// AllSucceeded reports whether every requested item went through.
func (o *BulkOutcome) AllSucceeded() bool {
	return len(o.Failed) == 0
}
