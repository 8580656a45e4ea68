package bulk

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/remex-io/remex/internal/transfer"
)

// Upload sends local files into the remote destDir one at a time. Every
// path is validated before the first request so a typo cannot strand a
// half-done batch. The first failed transfer aborts the rest: the
// remaining queued tasks flip to cancelled and count as skipped in the
// Summary. The destination listing is invalidated either way.
func (c *Coordinator) Upload(ctx context.Context, destDir string, localPaths []string) (Summary, error) {
	if destDir == "" {
		return Summary{}, ErrNoDestination
	}
	if len(localPaths) == 0 {
		return Summary{}, ErrNoSources
	}

	sizes := make([]int64, len(localPaths))
	for i, localPath := range localPaths {
		info, err := os.Stat(localPath)
		if err != nil {
			return Summary{}, fmt.Errorf("cannot upload %s: %w", localPath, err)
		}
		if info.IsDir() {
			return Summary{}, fmt.Errorf("cannot upload %s: is a directory", localPath)
		}
		sizes[i] = info.Size()
	}

	// Track the whole batch up front so the pending files are visible
	// while the first one streams.
	tasks := make([]transfer.TransferTask, len(localPaths))
	for i, localPath := range localPaths {
		tasks[i] = c.queue.Track(transfer.TaskSpec{
			Type:   transfer.TaskTypeUpload,
			Name:   filepath.Base(localPath),
			Source: localPath,
			Dest:   destDir,
			Size:   sizes[i],
		})
	}

	summary := Summary{}
	var firstErr error
	for i, localPath := range localPaths {
		if err := c.uploadOne(ctx, tasks[i].ID, destDir, localPath); err != nil {
			summary.Failed++
			summary.Failures = append(summary.Failures, Failure{Path: localPath, Reason: err.Error()})
			firstErr = fmt.Errorf("upload %s: %w", filepath.Base(localPath), err)
			for _, rest := range tasks[i+1:] {
				c.queue.Cancel(rest.ID)
			}
			summary.Skipped = len(localPaths) - i - 1
			break
		}
		summary.Succeeded++
	}

	c.invalidate(destDir)
	c.logger.Info().
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Str("dest", destDir).
		Msg("Upload batch finished")
	return summary, firstErr
}

func (c *Coordinator) uploadOne(ctx context.Context, taskID, destDir, localPath string) error {
	c.queue.Activate(taskID)

	upCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.queue.SetCancel(taskID, cancel)

	file, err := os.Open(localPath)
	if err != nil {
		c.queue.Fail(taskID, err)
		return err
	}
	defer file.Close()

	// The client reports per-read deltas; the queue wants the running
	// total.
	var sent int64
	err = c.api.Upload(upCtx, destDir, filepath.Base(localPath), file, func(n int64) {
		sent += n
		c.queue.Start(taskID)
		c.queue.UpdateProgress(taskID, sent)
	})
	if err != nil {
		c.queue.Fail(taskID, err)
		return err
	}

	c.queue.Complete(taskID)
	return nil
}
