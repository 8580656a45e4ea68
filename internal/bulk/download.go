package bulk

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/remex-io/remex/internal/agent"
	"github.com/remex-io/remex/internal/constants"
	"github.com/remex-io/remex/internal/transfer"
	"github.com/remex-io/remex/internal/winpath"
)

// DownloadFile streams one remote file into destDir and returns the
// local path written. Free space is checked against the known size
// before anything starts; a failed or cancelled stream removes the
// partial file.
func (c *Coordinator) DownloadFile(ctx context.Context, entry agent.Entry, destDir string) (string, error) {
	if entry.IsDir {
		return c.DownloadFolder(ctx, entry, destDir)
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	localPath := filepath.Join(destDir, entry.Name)
	if err := c.spaceCheck(localPath, entry.Size, constants.DiskSpaceSafetyMargin); err != nil {
		return "", err
	}

	task := c.queue.Track(transfer.TaskSpec{
		Type:   transfer.TaskTypeDownload,
		Name:   entry.Name,
		Source: entry.Path,
		Dest:   localPath,
		Size:   entry.Size,
	})
	c.queue.Activate(task.ID)

	err := c.runDownload(ctx, task.ID, localPath, func(dlCtx context.Context, w io.Writer) error {
		_, err := c.api.DownloadRaw(dlCtx, entry.Path, w)
		return err
	})
	if err != nil {
		return "", err
	}

	c.logger.Info().Str("path", entry.Path).Str("local", localPath).Msg("File downloaded")
	return localPath, nil
}

// DownloadFolder zips the folder on the remote side, streams the
// archive down as <leaf>_<yyyy-mm-dd>.zip, and schedules the remote
// temp archive for deletion shortly after the stream opens. The
// cleanup fires whether or not the download itself succeeds. A drive
// root zips into the root itself.
func (c *Coordinator) DownloadFolder(ctx context.Context, folder agent.Entry, destDir string) (string, error) {
	if !folder.IsDir {
		return c.DownloadFile(ctx, folder, destDir)
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	archiveName := archiveBaseName(folder.Path) + "_" + c.now().Format(archiveDateFormat) + ".zip"
	zipPath := winpath.Join(winpath.ParentOf(folder.Path), archiveName)
	localPath := filepath.Join(destDir, archiveName)

	// Archive size is unknown until streamed, so no space check and the
	// task reports bytes without a fraction.
	task := c.queue.Track(transfer.TaskSpec{
		Type:   transfer.TaskTypeDownload,
		Name:   archiveName,
		Source: zipPath,
		Dest:   localPath,
		Size:   0,
	})
	c.queue.Activate(task.ID)

	if err := c.api.Zip(ctx, []string{folder.Path}, zipPath); err != nil {
		c.queue.Fail(task.ID, err)
		return "", fmt.Errorf("failed to zip %s: %w", folder.Path, err)
	}
	c.invalidate(winpath.ParentOf(zipPath))
	c.scheduleCleanup(zipPath)

	err := c.runDownload(ctx, task.ID, localPath, func(dlCtx context.Context, w io.Writer) error {
		_, err := c.api.DownloadRaw(dlCtx, zipPath, w)
		return err
	})
	if err != nil {
		return "", err
	}

	c.logger.Info().Str("folder", folder.Path).Str("local", localPath).Msg("Folder downloaded")
	return localPath, nil
}

// DownloadSelection downloads entries into destDir. A single entry goes
// through the file or folder path; several entries stream as one
// combined download_<yyyy-mm-dd>.zip archive. Folders inside a multi
// selection are zipped recursively by the agent. Returns the local
// path written.
func (c *Coordinator) DownloadSelection(ctx context.Context, entries []agent.Entry, destDir string) (string, error) {
	switch len(entries) {
	case 0:
		return "", ErrNoSources
	case 1:
		if entries[0].IsDir {
			return c.DownloadFolder(ctx, entries[0], destDir)
		}
		return c.DownloadFile(ctx, entries[0], destDir)
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	archiveName := "download_" + c.now().Format(archiveDateFormat) + ".zip"
	localPath := filepath.Join(destDir, archiveName)
	paths := make([]string, len(entries))
	for i, entry := range entries {
		paths[i] = entry.Path
	}

	task := c.queue.Track(transfer.TaskSpec{
		Type:   transfer.TaskTypeDownload,
		Name:   archiveName,
		Source: winpath.ParentOf(entries[0].Path),
		Dest:   localPath,
		Size:   0,
	})
	c.queue.Activate(task.ID)

	err := c.runDownload(ctx, task.ID, localPath, func(dlCtx context.Context, w io.Writer) error {
		_, err := c.api.DownloadArchive(dlCtx, paths, w)
		return err
	})
	if err != nil {
		return "", err
	}

	c.logger.Info().Int("items", len(entries)).Str("local", localPath).Msg("Selection downloaded")
	return localPath, nil
}

// runDownload streams one remote source into localPath while feeding
// the transfer queue. The task must already be tracked and activated;
// the queue flips it active on the first byte written.
func (c *Coordinator) runDownload(ctx context.Context, taskID, localPath string, stream func(ctx context.Context, w io.Writer) error) error {
	dlCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.queue.SetCancel(taskID, cancel)

	file, err := os.Create(localPath)
	if err != nil {
		c.queue.Fail(taskID, err)
		return err
	}

	counting := &countingWriter{w: file, fn: func(total int64) {
		c.queue.Start(taskID)
		c.queue.UpdateProgress(taskID, total)
	}}

	streamErr := stream(dlCtx, counting)
	if closeErr := file.Close(); streamErr == nil {
		streamErr = closeErr
	}
	if streamErr != nil {
		os.Remove(localPath)
		c.queue.Fail(taskID, streamErr)
		return streamErr
	}

	c.queue.Complete(taskID)
	return nil
}

// scheduleCleanup deletes a remote temp archive after the configured
// delay. The delete is best effort: a failure is logged at debug and
// otherwise swallowed, leaving the stray archive visible in the folder
// listing. Runs on a background context because the cleanup must
// outlive the request that spawned it.
func (c *Coordinator) scheduleCleanup(zipPath string) {
	c.cleanups.Add(1)
	c.schedule(c.cleanupDelay, func() {
		defer c.cleanups.Done()
		if err := c.api.Delete(context.Background(), zipPath); err != nil {
			c.logger.Debug().Str("path", zipPath).Err(err).Msg("Temp archive cleanup failed")
			return
		}
		c.invalidate(winpath.ParentOf(zipPath))
		c.logger.Debug().Str("path", zipPath).Msg("Temp archive removed")
	})
}

// countingWriter forwards writes and reports the running byte total.
type countingWriter struct {
	w     io.Writer
	total int64
	fn    func(total int64)
}

func (cw *countingWriter) Write(b []byte) (int, error) {
	n, err := cw.w.Write(b)
	if n > 0 {
		cw.total += int64(n)
		cw.fn(cw.total)
	}
	return n, err
}
