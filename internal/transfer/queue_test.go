package transfer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/remex-io/remex/internal/events"
)

func uploadSpec(name string, size int64) TaskSpec {
	return TaskSpec{
		Type:   TaskTypeUpload,
		Name:   name,
		Source: `C:\local\` + name,
		Dest:   `C:\remote\inbox\`,
		Size:   size,
	}
}

func TestNewTask(t *testing.T) {
	task := NewTask(TaskSpec{
		Type:   TaskTypeDownload,
		Name:   "result.zip",
		Source: `D:\jobs\result.zip`,
		Dest:   `/home/user/result.zip`,
		Size:   2048,
	})

	if task.ID == "" {
		t.Error("ID should not be empty")
	}
	if task.Type != TaskTypeDownload {
		t.Errorf("Type = %v, want %v", task.Type, TaskTypeDownload)
	}
	if task.Name != "result.zip" {
		t.Errorf("Name = %q, want %q", task.Name, "result.zip")
	}
	if task.State != TaskQueued {
		t.Errorf("State = %v, want %v", task.State, TaskQueued)
	}
	if task.Progress != 0.0 {
		t.Errorf("Progress = %f, want 0.0", task.Progress)
	}
}

func TestTaskIDsAreUnique(t *testing.T) {
	a := NewTask(uploadSpec("a.dat", 1))
	b := NewTask(uploadSpec("b.dat", 1))
	if a.ID == b.ID {
		t.Errorf("two tasks share ID %q", a.ID)
	}
}

func TestTaskIsTerminal(t *testing.T) {
	tests := []struct {
		state    TaskState
		terminal bool
	}{
		{TaskQueued, false},
		{TaskStarting, false},
		{TaskActive, false},
		{TaskCompleted, true},
		{TaskFailed, true},
		{TaskCancelled, true},
	}

	for _, tt := range tests {
		task := NewTask(uploadSpec("t.dat", 100))
		task.State = tt.state
		if task.IsTerminal() != tt.terminal {
			t.Errorf("IsTerminal() in %v = %v, want %v", tt.state, task.IsTerminal(), tt.terminal)
		}
	}
}

func TestTaskCanRetry(t *testing.T) {
	tests := []struct {
		state    TaskState
		canRetry bool
	}{
		{TaskQueued, false},
		{TaskStarting, false},
		{TaskActive, false},
		{TaskCompleted, false},
		{TaskFailed, true},
		{TaskCancelled, true},
	}

	for _, tt := range tests {
		task := NewTask(uploadSpec("t.dat", 100))
		task.State = tt.state
		if task.CanRetry() != tt.canRetry {
			t.Errorf("CanRetry() in %v = %v, want %v", tt.state, task.CanRetry(), tt.canRetry)
		}
	}
}

func TestQueueTrack(t *testing.T) {
	queue := NewQueue(nil)

	task := queue.Track(uploadSpec("upload.dat", 1024))

	if task.ID == "" {
		t.Error("tracked task should have an ID")
	}
	if task.Name != "upload.dat" {
		t.Errorf("Name = %q, want %q", task.Name, "upload.dat")
	}
	if task.State != TaskQueued {
		t.Errorf("State = %v, want %v", task.State, TaskQueued)
	}

	stats := queue.Stats()
	if stats.Queued != 1 {
		t.Errorf("Stats().Queued = %d, want 1", stats.Queued)
	}
}

func TestQueueActivateThenStart(t *testing.T) {
	queue := NewQueue(nil)
	task := queue.Track(uploadSpec("upload.dat", 1024))

	queue.Activate(task.ID)

	got, ok := queue.Task(task.ID)
	if !ok {
		t.Fatal("task not found after Activate")
	}
	if got.State != TaskStarting {
		t.Errorf("State after Activate = %v, want %v", got.State, TaskStarting)
	}
	if got.StartedAt.IsZero() {
		t.Error("StartedAt should be set after Activate")
	}
	if queue.Stats().Starting != 1 {
		t.Errorf("Stats().Starting = %d, want 1", queue.Stats().Starting)
	}

	queue.Start(task.ID)

	got, _ = queue.Task(task.ID)
	if got.State != TaskActive {
		t.Errorf("State after Start = %v, want %v", got.State, TaskActive)
	}
	if queue.Stats().Active != 1 {
		t.Errorf("Stats().Active = %d, want 1", queue.Stats().Active)
	}
}

func TestQueueStartWithoutActivateIsIgnored(t *testing.T) {
	queue := NewQueue(nil)
	task := queue.Track(uploadSpec("upload.dat", 1024))

	queue.Start(task.ID)

	got, _ := queue.Task(task.ID)
	if got.State != TaskQueued {
		t.Errorf("State = %v, want %v (Start only applies to starting tasks)", got.State, TaskQueued)
	}
}

func TestQueueUpdateProgressBytes(t *testing.T) {
	queue := NewQueue(nil)
	task := queue.Track(uploadSpec("data.bin", 1000))
	queue.Activate(task.ID)
	queue.Start(task.ID)

	queue.UpdateProgress(task.ID, 250)

	got, ok := queue.Task(task.ID)
	if !ok {
		t.Fatal("task not found")
	}
	if got.Bytes != 250 {
		t.Errorf("Bytes = %d, want 250", got.Bytes)
	}
	if got.Progress != 0.25 {
		t.Errorf("Progress = %f, want 0.25", got.Progress)
	}

	// More bytes than the stat said: fraction clamps, byte count does not.
	queue.UpdateProgress(task.ID, 2000)

	got, _ = queue.Task(task.ID)
	if got.Progress != 1.0 {
		t.Errorf("Progress = %f, want clamped 1.0", got.Progress)
	}
	if got.Bytes != 2000 {
		t.Errorf("Bytes = %d, want 2000", got.Bytes)
	}
}

func TestQueueUpdateProgressUnknownSize(t *testing.T) {
	queue := NewQueue(nil)
	task := queue.Track(TaskSpec{
		Type:   TaskTypeDownload,
		Name:   "download_2026-01-15.zip",
		Source: `C:\work\`,
		Dest:   "/tmp/download_2026-01-15.zip",
		Size:   0, // streamed archive, no length up front
	})
	queue.Activate(task.ID)
	queue.Start(task.ID)

	queue.UpdateProgress(task.ID, 4096)

	got, _ := queue.Task(task.ID)
	if got.Bytes != 4096 {
		t.Errorf("Bytes = %d, want 4096", got.Bytes)
	}
	if got.Progress != 0.0 {
		t.Errorf("Progress = %f, want 0.0 while size is unknown", got.Progress)
	}
}

func TestQueueSpeedCalculation(t *testing.T) {
	queue := NewQueue(nil)
	task := queue.Track(uploadSpec("speed.dat", 100000))
	queue.Activate(task.ID)
	queue.Start(task.ID)

	// First update is the baseline, second must land past the sample window.
	queue.UpdateProgress(task.ID, 10000)
	time.Sleep(350 * time.Millisecond)
	queue.UpdateProgress(task.ID, 30000)

	got, _ := queue.Task(task.ID)
	if got.Speed == 0 {
		t.Error("Speed should be calculated after two spaced progress updates")
	}
}

func TestQueueSpeedIgnoresRapidSamples(t *testing.T) {
	queue := NewQueue(nil)
	task := queue.Track(uploadSpec("burst.dat", 100000))
	queue.Activate(task.ID)
	queue.Start(task.ID)

	// Back-to-back updates are folded into the next sample window.
	queue.UpdateProgress(task.ID, 10000)
	queue.UpdateProgress(task.ID, 20000)
	queue.UpdateProgress(task.ID, 30000)

	got, _ := queue.Task(task.ID)
	if got.Speed != 0 {
		t.Errorf("Speed = %f, want 0 until a full sample window elapses", got.Speed)
	}
	if got.Bytes != 30000 {
		t.Errorf("Bytes = %d, want 30000 (byte count still tracks every update)", got.Bytes)
	}
}

func TestQueueComplete(t *testing.T) {
	queue := NewQueue(nil)
	task := queue.Track(uploadSpec("done.dat", 1000))
	queue.Activate(task.ID)
	queue.Complete(task.ID)

	got, ok := queue.Task(task.ID)
	if !ok {
		t.Fatal("task not found")
	}
	if got.State != TaskCompleted {
		t.Errorf("State = %v, want %v", got.State, TaskCompleted)
	}
	if got.Progress != 1.0 {
		t.Errorf("Progress = %f, want 1.0", got.Progress)
	}
	if got.Bytes != 1000 {
		t.Errorf("Bytes = %d, want 1000", got.Bytes)
	}
	if queue.Stats().Completed != 1 {
		t.Errorf("Stats().Completed = %d, want 1", queue.Stats().Completed)
	}
}

func TestQueueFail(t *testing.T) {
	queue := NewQueue(nil)
	task := queue.Track(TaskSpec{
		Type:   TaskTypeDownload,
		Name:   "broken.dat",
		Source: `C:\work\broken.dat`,
		Dest:   "/tmp/broken.dat",
		Size:   500,
	})
	queue.Activate(task.ID)

	testErr := errors.New("network error")
	queue.Fail(task.ID, testErr)

	got, ok := queue.Task(task.ID)
	if !ok {
		t.Fatal("task not found")
	}
	if got.State != TaskFailed {
		t.Errorf("State = %v, want %v", got.State, TaskFailed)
	}
	if got.Error == nil || got.Error.Error() != "network error" {
		t.Errorf("Error = %v, want %q", got.Error, "network error")
	}
	if queue.Stats().Failed != 1 {
		t.Errorf("Stats().Failed = %d, want 1", queue.Stats().Failed)
	}
}

func TestQueueCancelCallsCancelFunc(t *testing.T) {
	queue := NewQueue(nil)
	task := queue.Track(uploadSpec("cancel.dat", 1000))
	queue.Activate(task.ID)
	queue.Start(task.ID)

	ctx, cancel := context.WithCancel(context.Background())
	called := false
	queue.SetCancel(task.ID, func() {
		called = true
		cancel()
	})

	if err := queue.Cancel(task.ID); err != nil {
		t.Errorf("Cancel() error = %v", err)
	}
	if !called {
		t.Error("stored cancel function was not called")
	}

	select {
	case <-ctx.Done():
	default:
		t.Error("context should be cancelled")
	}

	got, _ := queue.Task(task.ID)
	if got.State != TaskCancelled {
		t.Errorf("State = %v, want %v", got.State, TaskCancelled)
	}
}

func TestQueueCancelQueuedTask(t *testing.T) {
	queue := NewQueue(nil)
	task := queue.Track(uploadSpec("pending.dat", 1000))

	// No cancel function stored yet: the transfer never began.
	if err := queue.Cancel(task.ID); err != nil {
		t.Errorf("Cancel() on queued task error = %v", err)
	}

	got, _ := queue.Task(task.ID)
	if got.State != TaskCancelled {
		t.Errorf("State = %v, want %v", got.State, TaskCancelled)
	}
}

func TestQueueCancelFinishedTask(t *testing.T) {
	queue := NewQueue(nil)
	task := queue.Track(uploadSpec("done.dat", 1000))
	queue.Activate(task.ID)
	queue.Complete(task.ID)

	if err := queue.Cancel(task.ID); err == nil {
		t.Error("Cancel() on completed task should fail")
	}
}

func TestQueueCancelUnknownTask(t *testing.T) {
	queue := NewQueue(nil)
	if err := queue.Cancel("no-such-task"); err == nil {
		t.Error("Cancel() on unknown task should fail")
	}
}

func TestQueueUpdateProgressAfterCancelDropped(t *testing.T) {
	queue := NewQueue(nil)
	task := queue.Track(uploadSpec("late.dat", 1000))
	queue.Activate(task.ID)
	queue.Start(task.ID)
	queue.Cancel(task.ID)

	queue.UpdateProgress(task.ID, 900)

	got, _ := queue.Task(task.ID)
	if got.Bytes != 0 {
		t.Errorf("Bytes = %d, want 0 (late callback after cancel)", got.Bytes)
	}
	if got.State != TaskCancelled {
		t.Errorf("State = %v, want %v", got.State, TaskCancelled)
	}
}

func TestQueueFailAfterCancelKeepsCancelled(t *testing.T) {
	queue := NewQueue(nil)
	task := queue.Track(uploadSpec("aborted.dat", 1000))
	queue.Activate(task.ID)
	queue.Start(task.ID)
	queue.Cancel(task.ID)

	// The aborted stream reports its context error after the cancel.
	queue.Fail(task.ID, context.Canceled)

	got, _ := queue.Task(task.ID)
	if got.State != TaskCancelled {
		t.Errorf("State = %v, want %v", got.State, TaskCancelled)
	}
	if got.Error != nil {
		t.Errorf("Error = %v, want nil", got.Error)
	}
}

func TestQueueCompleteAfterFailIgnored(t *testing.T) {
	queue := NewQueue(nil)
	task := queue.Track(uploadSpec("done.dat", 1000))
	queue.Activate(task.ID)
	queue.Start(task.ID)
	queue.Fail(task.ID, errors.New("connection reset"))

	queue.Complete(task.ID)

	got, _ := queue.Task(task.ID)
	if got.State != TaskFailed {
		t.Errorf("State = %v, want %v", got.State, TaskFailed)
	}
}

func TestQueueCancelAll(t *testing.T) {
	queue := NewQueue(nil)

	queued := queue.Track(uploadSpec("one.dat", 100))
	starting := queue.Track(uploadSpec("two.dat", 200))
	active := queue.Track(uploadSpec("three.dat", 300))
	finished := queue.Track(uploadSpec("four.dat", 400))

	queue.Activate(starting.ID)
	queue.Activate(active.ID)
	queue.Start(active.ID)
	queue.Activate(finished.ID)
	queue.Complete(finished.ID)

	cancelCalls := 0
	queue.SetCancel(active.ID, func() { cancelCalls++ })

	queue.CancelAll()

	if cancelCalls != 1 {
		t.Errorf("cancel calls = %d, want 1", cancelCalls)
	}

	stats := queue.Stats()
	if stats.Cancelled != 3 {
		t.Errorf("Stats().Cancelled = %d, want 3", stats.Cancelled)
	}
	if stats.Completed != 1 {
		t.Errorf("Stats().Completed = %d, want 1 (finished tasks stay)", stats.Completed)
	}
	if stats.Queued != 0 || stats.Starting != 0 || stats.Active != 0 {
		t.Errorf("running counts after CancelAll = %d/%d/%d, want 0/0/0",
			stats.Queued, stats.Starting, stats.Active)
	}
	_ = queued
}

// mockRetryExecutor records retry requests. ExecuteRetry runs on a
// goroutine inside Queue.Retry, so access is guarded and completions are
// signalled on a channel.
type mockRetryExecutor struct {
	mu       sync.Mutex
	executed []TransferTask
	doneCh   chan struct{}
}

func newMockRetryExecutor() *mockRetryExecutor {
	return &mockRetryExecutor{doneCh: make(chan struct{}, 10)}
}

func (m *mockRetryExecutor) ExecuteRetry(task TransferTask) {
	m.mu.Lock()
	m.executed = append(m.executed, task)
	m.mu.Unlock()
	m.doneCh <- struct{}{}
}

func (m *mockRetryExecutor) waitForExecutions(n int, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for i := 0; i < n; i++ {
		select {
		case <-m.doneCh:
		case <-timer.C:
			return false
		}
	}
	return true
}

func (m *mockRetryExecutor) getExecuted() []TransferTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]TransferTask, len(m.executed))
	copy(cp, m.executed)
	return cp
}

func TestQueueRetry(t *testing.T) {
	queue := NewQueue(nil)
	executor := newMockRetryExecutor()
	queue.SetRetryExecutor(executor)

	task := queue.Track(uploadSpec("retry.dat", 100))
	queue.Activate(task.ID)
	queue.Start(task.ID)
	queue.UpdateProgress(task.ID, 40)
	queue.Fail(task.ID, errors.New("failed"))

	retryID, err := queue.Retry(task.ID)
	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if retryID != task.ID {
		t.Errorf("Retry() ID = %q, want same ID %q", retryID, task.ID)
	}

	if !executor.waitForExecutions(1, 5*time.Second) {
		t.Fatal("timed out waiting for retry execution")
	}

	executed := executor.getExecuted()
	if len(executed) != 1 {
		t.Fatalf("retry executions = %d, want 1", len(executed))
	}
	if executed[0].ID != task.ID {
		t.Errorf("executor got task %q, want %q", executed[0].ID, task.ID)
	}

	got, _ := queue.Task(task.ID)
	if got.State != TaskQueued {
		t.Errorf("State after Retry = %v, want %v", got.State, TaskQueued)
	}
	if got.Bytes != 0 || got.Progress != 0 || got.Error != nil {
		t.Errorf("attempt state not reset: bytes=%d progress=%f err=%v",
			got.Bytes, got.Progress, got.Error)
	}
}

func TestQueueRetryNoExecutor(t *testing.T) {
	queue := NewQueue(nil)

	task := queue.Track(uploadSpec("retry.dat", 100))
	queue.Activate(task.ID)
	queue.Fail(task.ID, errors.New("failed"))

	if _, err := queue.Retry(task.ID); err == nil {
		t.Error("Retry() without executor should fail")
	}
}

func TestQueueRetryRunningTask(t *testing.T) {
	queue := NewQueue(nil)
	queue.SetRetryExecutor(newMockRetryExecutor())

	task := queue.Track(uploadSpec("active.dat", 100))
	queue.Activate(task.ID)
	queue.Start(task.ID)

	if _, err := queue.Retry(task.ID); err == nil {
		t.Error("Retry() on a running task should fail")
	}
}

func TestQueueClearCompleted(t *testing.T) {
	queue := NewQueue(nil)

	done := queue.Track(uploadSpec("done.dat", 100))
	failed := queue.Track(uploadSpec("failed.dat", 100))
	running := queue.Track(uploadSpec("running.dat", 100))

	queue.Activate(done.ID)
	queue.Complete(done.ID)
	queue.Activate(failed.ID)
	queue.Fail(failed.ID, errors.New("boom"))
	queue.Activate(running.ID)

	queue.ClearCompleted()

	tasks := queue.Tasks()
	if len(tasks) != 1 {
		t.Fatalf("tasks after ClearCompleted = %d, want 1", len(tasks))
	}
	if tasks[0].ID != running.ID {
		t.Errorf("remaining task = %q, want %q", tasks[0].ID, running.ID)
	}
	if _, ok := queue.Task(done.ID); ok {
		t.Error("cleared task should not be found by ID")
	}
}

func TestQueueTasksReturnsCopies(t *testing.T) {
	queue := NewQueue(nil)
	queue.Track(uploadSpec("a.dat", 100))
	queue.Track(uploadSpec("b.dat", 200))

	tasks := queue.Tasks()
	if len(tasks) != 2 {
		t.Fatalf("Tasks() = %d entries, want 2", len(tasks))
	}

	tasks[0].Name = "mutated"

	fresh := queue.Tasks()
	if fresh[0].Name == "mutated" {
		t.Error("Tasks() should return copies, not shared state")
	}
}

func TestQueueTaskLookup(t *testing.T) {
	queue := NewQueue(nil)
	task := queue.Track(uploadSpec("findme.dat", 100))

	got, ok := queue.Task(task.ID)
	if !ok {
		t.Fatal("Task() should find a tracked task")
	}
	if got.Name != "findme.dat" {
		t.Errorf("Name = %q, want %q", got.Name, "findme.dat")
	}

	if _, ok := queue.Task("nonexistent"); ok {
		t.Error("Task() should not find an unknown ID")
	}
}

func TestQueueStatsCounts(t *testing.T) {
	queue := NewQueue(nil)

	first := queue.Track(uploadSpec("q1.dat", 100))
	second := queue.Track(uploadSpec("q2.dat", 100))
	queue.Activate(first.ID)
	queue.Activate(second.ID)
	queue.Start(first.ID)
	queue.Start(second.ID)

	cancelled := queue.Track(uploadSpec("cancel.dat", 100))
	queue.Activate(cancelled.ID)
	queue.SetCancel(cancelled.ID, func() {})
	queue.Cancel(cancelled.ID)

	completed := queue.Track(uploadSpec("complete.dat", 100))
	queue.Activate(completed.ID)
	queue.Complete(completed.ID)

	failed := queue.Track(uploadSpec("fail.dat", 100))
	queue.Activate(failed.ID)
	queue.Fail(failed.ID, errors.New("err"))

	stats := queue.Stats()
	if stats.Active != 2 {
		t.Errorf("Stats().Active = %d, want 2", stats.Active)
	}
	if stats.Cancelled != 1 {
		t.Errorf("Stats().Cancelled = %d, want 1", stats.Cancelled)
	}
	if stats.Completed != 1 {
		t.Errorf("Stats().Completed = %d, want 1", stats.Completed)
	}
	if stats.Failed != 1 {
		t.Errorf("Stats().Failed = %d, want 1", stats.Failed)
	}
	if stats.Total() != 5 {
		t.Errorf("Stats().Total() = %d, want 5", stats.Total())
	}
}

func TestQueueEvents(t *testing.T) {
	bus := events.NewBus(100)
	defer bus.Close()

	queue := NewQueue(bus)

	queuedCh := bus.Subscribe(events.EventTransferQueued)
	startingCh := bus.Subscribe(events.EventTransferStarting)
	startedCh := bus.Subscribe(events.EventTransferStarted)
	progressCh := bus.Subscribe(events.EventTransferProgress)
	completedCh := bus.Subscribe(events.EventTransferCompleted)

	task := queue.Track(uploadSpec("event.dat", 1000))

	select {
	case event := <-queuedCh:
		te, ok := event.(*events.TransferEvent)
		if !ok {
			t.Fatalf("event type = %T, want *events.TransferEvent", event)
		}
		if te.Name != "event.dat" {
			t.Errorf("queued event Name = %q, want %q", te.Name, "event.dat")
		}
		if te.TaskType != "upload" {
			t.Errorf("queued event TaskType = %q, want %q", te.TaskType, "upload")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for queued event")
	}

	queue.Activate(task.ID)
	select {
	case event := <-startingCh:
		te := event.(*events.TransferEvent)
		if te.TaskID != task.ID {
			t.Errorf("starting event TaskID = %q, want %q", te.TaskID, task.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for starting event")
	}

	queue.Start(task.ID)
	select {
	case <-startedCh:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for started event")
	}

	queue.UpdateProgress(task.ID, 500)
	select {
	case event := <-progressCh:
		te := event.(*events.TransferEvent)
		if te.Bytes != 500 {
			t.Errorf("progress event Bytes = %d, want 500", te.Bytes)
		}
		if te.Progress != 0.5 {
			t.Errorf("progress event Progress = %f, want 0.5", te.Progress)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for progress event")
	}

	queue.Complete(task.ID)
	select {
	case event := <-completedCh:
		te := event.(*events.TransferEvent)
		if te.Progress != 1.0 {
			t.Errorf("completed event Progress = %f, want 1.0", te.Progress)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for completed event")
	}
}

func TestQueueNilBus(t *testing.T) {
	queue := NewQueue(nil)

	// Every publishing path must tolerate a nil bus.
	task := queue.Track(uploadSpec("quiet.dat", 100))
	queue.Activate(task.ID)
	queue.Start(task.ID)
	queue.UpdateProgress(task.ID, 50)
	queue.Complete(task.ID)

	got, _ := queue.Task(task.ID)
	if got.State != TaskCompleted {
		t.Errorf("State = %v, want %v", got.State, TaskCompleted)
	}
}
