package bulk

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/remex-io/remex/internal/explorer"
	"github.com/remex-io/remex/internal/transfer"
)

func writeLocalFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s) error: %v", name, err)
	}
	return path
}

func TestUploadSingleFile(t *testing.T) {
	api := &fakeAPI{}
	c := newTestCoordinator(api)
	local := writeLocalFile(t, t.TempDir(), "a.txt", "hello upload")

	summary, err := c.Upload(context.Background(), `C:\inbox\`, []string{local})
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	if summary.Succeeded != 1 || summary.Failed != 0 || summary.Skipped != 0 {
		t.Errorf("summary = %+v, want 1/0/0", summary)
	}

	if len(api.uploads) != 1 {
		t.Fatalf("Upload called %d times, want 1", len(api.uploads))
	}
	got := api.uploads[0]
	if got.dest != `C:\inbox\` || got.name != "a.txt" {
		t.Errorf("upload call = %q into %q, want a.txt into C:\\inbox\\", got.name, got.dest)
	}
	if string(got.content) != "hello upload" {
		t.Errorf("uploaded content = %q, want %q", got.content, "hello upload")
	}

	task := c.queue.Tasks()[0]
	if task.State != transfer.TaskCompleted {
		t.Errorf("State = %v, want %v", task.State, transfer.TaskCompleted)
	}
	if task.Bytes != int64(len("hello upload")) {
		t.Errorf("Bytes = %d, want %d (accumulated from per-read deltas)", task.Bytes, len("hello upload"))
	}
}

func TestUploadMultipleFilesInOrder(t *testing.T) {
	api := &fakeAPI{}
	c := newTestCoordinator(api)
	dir := t.TempDir()
	paths := []string{
		writeLocalFile(t, dir, "a.txt", "first"),
		writeLocalFile(t, dir, "b.txt", "second"),
		writeLocalFile(t, dir, "c.txt", "third"),
	}

	summary, err := c.Upload(context.Background(), `C:\inbox\`, paths)
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	if summary.Succeeded != 3 {
		t.Errorf("Succeeded = %d, want 3", summary.Succeeded)
	}

	if len(api.uploads) != 3 {
		t.Fatalf("Upload called %d times, want 3", len(api.uploads))
	}
	for i, want := range []string{"a.txt", "b.txt", "c.txt"} {
		if api.uploads[i].name != want {
			t.Errorf("upload %d = %q, want %q (sequential order)", i, api.uploads[i].name, want)
		}
	}
}

func TestUploadValidatesBeforeStarting(t *testing.T) {
	api := &fakeAPI{}
	c := newTestCoordinator(api)
	dir := t.TempDir()
	good := writeLocalFile(t, dir, "a.txt", "data")
	missing := filepath.Join(dir, "nope.txt")

	_, err := c.Upload(context.Background(), `C:\inbox\`, []string{good, missing})
	if err == nil {
		t.Fatal("Upload() error = nil, want validation error")
	}
	if !strings.Contains(err.Error(), "cannot upload") {
		t.Errorf("error = %v, want a cannot upload message", err)
	}
	if len(api.uploads) != 0 {
		t.Errorf("Upload called %d times, want 0 (validation rejects the whole batch)", len(api.uploads))
	}
	if got := c.queue.Stats().Total(); got != 0 {
		t.Errorf("queue has %d tasks, want 0", got)
	}
}

func TestUploadRejectsDirectories(t *testing.T) {
	c := newTestCoordinator(&fakeAPI{})
	dir := t.TempDir()

	_, err := c.Upload(context.Background(), `C:\inbox\`, []string{dir})
	if err == nil || !strings.Contains(err.Error(), "is a directory") {
		t.Errorf("Upload(dir) error = %v, want is a directory", err)
	}
}

func TestUploadAbortsOnFirstFailure(t *testing.T) {
	api := &fakeAPI{uploadErr: map[string]error{"b.txt": errors.New("disk full")}}
	c := newTestCoordinator(api)
	dir := t.TempDir()
	paths := []string{
		writeLocalFile(t, dir, "a.txt", "first"),
		writeLocalFile(t, dir, "b.txt", "second"),
		writeLocalFile(t, dir, "c.txt", "third"),
	}

	summary, err := c.Upload(context.Background(), `C:\inbox\`, paths)
	if err == nil || !strings.Contains(err.Error(), "upload b.txt") {
		t.Fatalf("Upload() error = %v, want upload b.txt failure", err)
	}
	if summary.Succeeded != 1 || summary.Failed != 1 || summary.Skipped != 1 {
		t.Errorf("summary = %+v, want 1/1/1", summary)
	}
	if len(summary.Failures) != 1 || summary.Failures[0].Path != paths[1] {
		t.Errorf("Failures = %+v, want b.txt", summary.Failures)
	}

	// Only the first file actually went up.
	if len(api.uploads) != 1 || api.uploads[0].name != "a.txt" {
		t.Errorf("uploads = %+v, want a.txt only", api.uploads)
	}

	tasks := c.queue.Tasks()
	if len(tasks) != 3 {
		t.Fatalf("queue has %d tasks, want 3 (whole batch tracked up front)", len(tasks))
	}
	wantStates := []transfer.TaskState{transfer.TaskCompleted, transfer.TaskFailed, transfer.TaskCancelled}
	for i, want := range wantStates {
		if tasks[i].State != want {
			t.Errorf("task %d State = %v, want %v", i, tasks[i].State, want)
		}
	}
}

func TestUploadEmptyArgs(t *testing.T) {
	c := newTestCoordinator(&fakeAPI{})

	if _, err := c.Upload(context.Background(), "", []string{"a.txt"}); !errors.Is(err, ErrNoDestination) {
		t.Errorf("empty dest error = %v, want ErrNoDestination", err)
	}
	if _, err := c.Upload(context.Background(), `C:\inbox\`, nil); !errors.Is(err, ErrNoSources) {
		t.Errorf("empty sources error = %v, want ErrNoSources", err)
	}
}

func TestUploadInvalidatesDestination(t *testing.T) {
	api := &fakeAPI{}
	cache := seededCache(t, `C:\inbox\`)
	c := NewCoordinator(api, cache, nil, transfer.NewQueue(nil), quietLogger())
	local := writeLocalFile(t, t.TempDir(), "a.txt", "data")

	if _, err := c.Upload(context.Background(), `C:\inbox\`, []string{local}); err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	if _, ok := cache.Peek(`C:\inbox\`); ok {
		t.Error("dest listing still cached, want invalidated")
	}
}

func TestUploadInvalidatesDestinationAfterFailure(t *testing.T) {
	api := &fakeAPI{uploadErr: map[string]error{"a.txt": errors.New("disk full")}}
	cache := seededCache(t, `C:\inbox\`)
	c := NewCoordinator(api, cache, nil, transfer.NewQueue(nil), quietLogger())
	local := writeLocalFile(t, t.TempDir(), "a.txt", "data")

	_, err := c.Upload(context.Background(), `C:\inbox\`, []string{local})
	if err == nil {
		t.Fatal("Upload() error = nil, want failure")
	}
	// A failed batch may still have changed the folder, so it goes
	// stale either way.
	if _, ok := cache.Peek(`C:\inbox\`); ok {
		t.Error("dest listing still cached, want invalidated")
	}
}

func TestUploadClearsNothingOnSelection(t *testing.T) {
	api := &fakeAPI{}
	selection := explorer.NewSelection(nil)
	selection.SelectAll([]string{`C:\inbox\old.txt`})
	c := NewCoordinator(api, nil, selection, transfer.NewQueue(nil), quietLogger())
	local := writeLocalFile(t, t.TempDir(), "a.txt", "data")

	if _, err := c.Upload(context.Background(), `C:\inbox\`, []string{local}); err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	if selection.Count() != 1 {
		t.Errorf("selection Count() = %d, want 1 (upload does not touch the selection)", selection.Count())
	}
}
