// Package bulk orchestrates multi-item operations against the agent:
// bulk delete, copy, move, remote zip/unzip, downloads and sequential
// uploads. The coordinator owns the side effects the raw client does
// not: cache invalidation, selection clearing, transfer queue tracking
// and deferred archive cleanup. Both frontends drive the same
// coordinator so the semantics cannot drift between them.
package bulk

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/remex-io/remex/internal/agent"
	"github.com/remex-io/remex/internal/constants"
	"github.com/remex-io/remex/internal/diskspace"
	"github.com/remex-io/remex/internal/explorer"
	"github.com/remex-io/remex/internal/logging"
	"github.com/remex-io/remex/internal/transfer"
	"github.com/remex-io/remex/internal/winpath"
)

// Validation errors returned before any request is made.
var (
	ErrNoSources     = errors.New("no source paths given")
	ErrNoDestination = errors.New("no destination path given")
)

// archiveDateFormat stamps generated archive names as yyyy-mm-dd.
const archiveDateFormat = "2006-01-02"

// Failure records one item a batch could not process.
type Failure struct {
	Path   string
	Reason string
}

// Summary tallies a batch after it ran. Per-item failures are data, not
// errors: the batch itself went through even when some items did not.
// Skipped counts items never attempted because an earlier failure or a
// cancellation aborted the rest.
type Summary struct {
	Succeeded int
	Failed    int
	Skipped   int
	Failures  []Failure
}

// AllSucceeded reports whether every item went through.
func (s Summary) AllSucceeded() bool {
	return s.Failed == 0 && s.Skipped == 0
}

// API is the slice of the agent client the coordinator needs.
type API interface {
	Delete(ctx context.Context, path string) error
	BulkDelete(ctx context.Context, paths []string) (*agent.BulkOutcome, error)
	BulkCopy(ctx context.Context, sources []string, dest string) (*agent.BulkOutcome, error)
	BulkMove(ctx context.Context, sources []string, dest string) (*agent.BulkOutcome, error)
	Zip(ctx context.Context, sources []string, zipPath string) error
	Unzip(ctx context.Context, zipPath, dest string) error
	DownloadRaw(ctx context.Context, path string, w io.Writer) (int64, error)
	DownloadArchive(ctx context.Context, paths []string, w io.Writer) (int64, error)
	Upload(ctx context.Context, destDir, name string, r io.Reader, progress func(n int64)) error
}

// Coordinator runs bulk operations and keeps the client-side state that
// depends on them consistent. cache and selection may be nil for
// one-shot command use; queue and api must be set.
type Coordinator struct {
	api       API
	cache     *explorer.Cache
	selection *explorer.Selection
	queue     *transfer.Queue
	logger    *logging.Logger

	cleanups sync.WaitGroup

	// Injectable for tests.
	now          func() time.Time
	schedule     func(d time.Duration, fn func())
	cleanupDelay time.Duration
	spaceCheck   func(path string, requiredBytes int64, safetyMargin float64) error
}

// NewCoordinator wires a coordinator to the client and state containers.
func NewCoordinator(api API, cache *explorer.Cache, selection *explorer.Selection, queue *transfer.Queue, logger *logging.Logger) *Coordinator {
	if logger == nil {
		logger = logging.NewDefault()
	}
	return &Coordinator{
		api:          api,
		cache:        cache,
		selection:    selection,
		queue:        queue,
		logger:       logger,
		now:          time.Now,
		schedule:     func(d time.Duration, fn func()) { time.AfterFunc(d, fn) },
		cleanupDelay: constants.ArchiveCleanupDelay,
		spaceCheck:   diskspace.CheckAvailableSpace,
	}
}

// WaitCleanups blocks until every scheduled archive cleanup has fired.
// One-shot commands call it before exiting; a long-lived frontend never
// needs to.
func (c *Coordinator) WaitCleanups() {
	c.cleanups.Wait()
}

// DeleteAll removes paths in one bulk request. The agent's per-item
// tally comes back as the Summary; confirmation is the frontend's job
// before calling. Affected parent listings are invalidated and the
// selection cleared.
func (c *Coordinator) DeleteAll(ctx context.Context, paths []string) (Summary, error) {
	if len(paths) == 0 {
		return Summary{}, ErrNoSources
	}

	outcome, err := c.api.BulkDelete(ctx, paths)
	if err != nil {
		return Summary{}, err
	}

	c.invalidate(parentsOf(paths)...)
	c.clearSelection()

	summary := summaryFromOutcome(outcome)
	c.logger.Info().
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Msg("Bulk delete finished")
	return summary, nil
}

// DeleteEach removes paths one request at a time, continuing past
// failures. A cancelled context marks the remainder skipped. The caller
// reads the tally from the Summary; there is no error to return because
// per-item failures are the expected outcome shape here.
func (c *Coordinator) DeleteEach(ctx context.Context, paths []string) Summary {
	summary := Summary{}
	for i, path := range paths {
		if ctx.Err() != nil {
			summary.Skipped = len(paths) - i
			break
		}
		if err := c.api.Delete(ctx, path); err != nil {
			summary.Failed++
			summary.Failures = append(summary.Failures, Failure{Path: path, Reason: err.Error()})
			c.logger.Warn().Str("path", path).Err(err).Msg("Delete failed, continuing")
			continue
		}
		summary.Succeeded++
	}

	c.invalidate(parentsOf(paths)...)
	c.clearSelection()
	return summary
}

// ZipSelection zips sources into a remote archive. An empty zipPath
// picks a default: a lone source zips beside itself as <leaf>.zip,
// several sources land in the first source's parent as
// archive_<yyyy-mm-dd>.zip. Returns the archive path used. The
// selection survives so the same items can be downloaded next.
func (c *Coordinator) ZipSelection(ctx context.Context, sources []string, zipPath string) (string, error) {
	if len(sources) == 0 {
		return "", ErrNoSources
	}
	if zipPath == "" {
		parent := winpath.ParentOf(sources[0])
		if len(sources) == 1 {
			zipPath = winpath.Join(parent, archiveBaseName(sources[0])+".zip")
		} else {
			zipPath = winpath.Join(parent, "archive_"+c.now().Format(archiveDateFormat)+".zip")
		}
	}

	if err := c.api.Zip(ctx, sources, zipPath); err != nil {
		return "", err
	}

	c.invalidate(winpath.ParentOf(zipPath))
	c.logger.Info().Int("sources", len(sources)).Str("archive", zipPath).Msg("Created archive")
	return zipPath, nil
}

// Unzip extracts a remote archive. An empty dest extracts beside the
// archive.
func (c *Coordinator) Unzip(ctx context.Context, zipPath, dest string) error {
	if zipPath == "" {
		return ErrNoSources
	}
	if dest == "" {
		dest = winpath.ParentOf(zipPath)
	}

	if err := c.api.Unzip(ctx, zipPath, dest); err != nil {
		return err
	}

	c.invalidate(dest)
	c.logger.Info().Str("archive", zipPath).Str("dest", dest).Msg("Extracted archive")
	return nil
}

// CopyInto bulk-copies sources into dest. The destination listing goes
// stale; source parents do not.
func (c *Coordinator) CopyInto(ctx context.Context, sources []string, dest string) (Summary, error) {
	return c.transferInto(ctx, sources, dest, c.api.BulkCopy, false)
}

// MoveInto bulk-moves sources into dest. Source parents go stale along
// with the destination.
func (c *Coordinator) MoveInto(ctx context.Context, sources []string, dest string) (Summary, error) {
	return c.transferInto(ctx, sources, dest, c.api.BulkMove, true)
}

func (c *Coordinator) transferInto(ctx context.Context, sources []string, dest string, call func(context.Context, []string, string) (*agent.BulkOutcome, error), sourcesMove bool) (Summary, error) {
	if dest == "" {
		return Summary{}, ErrNoDestination
	}
	if len(sources) == 0 {
		return Summary{}, ErrNoSources
	}

	outcome, err := call(ctx, sources, dest)
	if err != nil {
		return Summary{}, err
	}

	stale := []string{dest}
	if sourcesMove {
		stale = append(stale, parentsOf(sources)...)
	}
	c.invalidate(stale...)
	c.clearSelection()
	return summaryFromOutcome(outcome), nil
}

func (c *Coordinator) invalidate(paths ...string) {
	if c.cache != nil {
		c.cache.Invalidate(paths...)
	}
}

func (c *Coordinator) clearSelection() {
	if c.selection != nil {
		c.selection.Clear()
	}
}

func summaryFromOutcome(outcome *agent.BulkOutcome) Summary {
	summary := Summary{
		Succeeded: outcome.Succeeded,
		Failed:    outcome.FailedCount(),
	}
	for _, item := range outcome.Failed {
		summary.Failures = append(summary.Failures, Failure{Path: item.Path, Reason: item.Reason})
	}
	return summary
}

// parentsOf returns the distinct parent folders of paths, in input
// order, for cache invalidation.
func parentsOf(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	parents := make([]string, 0, len(paths))
	for _, path := range paths {
		parent := winpath.ParentOf(path)
		if !seen[parent] {
			seen[parent] = true
			parents = append(parents, parent)
		}
	}
	return parents
}

// archiveBaseName returns the leaf of path with the separators a root
// leaf carries ("C:\", "\\host") stripped, so it can sit inside an
// archive file name.
func archiveBaseName(path string) string {
	return strings.Trim(winpath.Leaf(path), `\:`)
}
