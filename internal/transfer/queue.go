package transfer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/remex-io/remex/internal/events"
)

// RetryExecutor re-runs a failed or cancelled transfer. The queue resets
// the task to TaskQueued before calling ExecuteRetry; the executor drives
// the task through Activate, Start, SetCancel, UpdateProgress and
// Complete/Fail like any first attempt.
type RetryExecutor interface {
	ExecuteRetry(task TransferTask)
}

// Stats holds per-state task counts.
type Stats struct {
	Queued    int
	Starting  int
	Active    int
	Completed int
	Failed    int
	Cancelled int
}

// Total returns the number of tracked tasks.
func (s Stats) Total() int {
	return s.Queued + s.Starting + s.Active + s.Completed + s.Failed + s.Cancelled
}

// Speed smoothing for UpdateProgress. Samples closer together than
// speedMinSample are folded into the next one so a burst of small reads
// does not swing the display.
const (
	speedAlpha     = 0.1
	speedMinSample = 300 * time.Millisecond
)

// Queue is a passive transfer tracker that publishes events for frontends.
// It does not execute transfers: the bulk coordinator registers a task,
// stores its cancel function, feeds progress and finally marks the
// outcome. One lock owns all task state; snapshots taken under the lock
// are published after it is released.
type Queue struct {
	mu        sync.RWMutex
	tasks     []*TransferTask // Creation order, for display
	tasksByID map[string]*TransferTask

	cancelFuncs map[string]context.CancelFunc

	retryExecutor RetryExecutor

	bus *events.Bus
}

// NewQueue creates a transfer queue publishing to the given bus. A nil
// bus disables events but not tracking.
func NewQueue(bus *events.Bus) *Queue {
	return &Queue{
		tasks:       make([]*TransferTask, 0),
		tasksByID:   make(map[string]*TransferTask),
		cancelFuncs: make(map[string]context.CancelFunc),
		bus:         bus,
	}
}

// SetRetryExecutor sets the executor that handles retry requests. Must be
// called before Retry can work.
func (q *Queue) SetRetryExecutor(executor RetryExecutor) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.retryExecutor = executor
}

// Track registers a transfer that will be executed elsewhere. The task
// starts queued; call Activate when preparation begins and Start when the
// first bytes move. Returns a copy of the new task.
func (q *Queue) Track(spec TaskSpec) TransferTask {
	task := NewTask(spec)

	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	q.tasksByID[task.ID] = task
	snap := task.Clone()
	q.mu.Unlock()

	q.publish(events.EventTransferQueued, snap)
	return snap
}

// Activate moves a queued task to starting. Call it when preparation work
// begins, before any bytes move. Calls in any other state are ignored.
func (q *Queue) Activate(taskID string) {
	q.mu.Lock()
	task := q.tasksByID[taskID]
	if task == nil || task.State != TaskQueued {
		q.mu.Unlock()
		return
	}
	task.State = TaskStarting
	task.StartedAt = time.Now()
	snap := task.Clone()
	q.mu.Unlock()

	q.publish(events.EventTransferStarting, snap)
}

// Start moves a starting task to active. Call it when the first progress
// callback fires. Calls in any other state are ignored.
func (q *Queue) Start(taskID string) {
	q.mu.Lock()
	task := q.tasksByID[taskID]
	if task == nil || task.State != TaskStarting {
		q.mu.Unlock()
		return
	}
	task.State = TaskActive
	snap := task.Clone()
	q.mu.Unlock()

	q.publish(events.EventTransferStarted, snap)
}

// SetCancel stores the cancel function that Cancel and CancelAll call.
func (q *Queue) SetCancel(taskID string, cancel context.CancelFunc) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cancelFuncs[taskID] = cancel
}

// UpdateProgress records the total bytes moved so far. Progress is
// derived from the task size and clamped to 1.0; it stays 0 when the
// size is unknown. Speed is an EMA over samples at least 0.3s apart.
// Late callbacks racing a cancel are dropped.
func (q *Queue) UpdateProgress(taskID string, bytesTransferred int64) {
	q.mu.Lock()
	task := q.tasksByID[taskID]
	if task == nil || task.IsTerminal() {
		q.mu.Unlock()
		return
	}

	now := time.Now()
	if task.lastUpdate.IsZero() {
		// First sample is the baseline; no rate yet.
		task.lastBytes = bytesTransferred
		task.lastUpdate = now
	} else if delta := bytesTransferred - task.lastBytes; delta > 0 {
		if elapsed := now.Sub(task.lastUpdate).Seconds(); elapsed >= speedMinSample.Seconds() {
			instant := float64(delta) / elapsed
			if task.Speed == 0 {
				task.Speed = instant
			} else {
				task.Speed = speedAlpha*instant + (1-speedAlpha)*task.Speed
			}
			task.lastBytes = bytesTransferred
			task.lastUpdate = now
		}
	}

	task.Bytes = bytesTransferred
	if task.Size > 0 {
		progress := float64(bytesTransferred) / float64(task.Size)
		if progress > 1.0 {
			progress = 1.0
		}
		task.Progress = progress
	}
	snap := task.Clone()
	q.mu.Unlock()

	q.publish(events.EventTransferProgress, snap)
}

// Complete marks a task as successfully finished. Terminal states are
// final: completing an already cancelled or failed task does nothing.
func (q *Queue) Complete(taskID string) {
	q.mu.Lock()
	task := q.tasksByID[taskID]
	if task == nil || task.IsTerminal() {
		q.mu.Unlock()
		return
	}
	task.State = TaskCompleted
	task.Progress = 1.0
	if task.Size > 0 {
		task.Bytes = task.Size
	}
	task.CompletedAt = time.Now()
	delete(q.cancelFuncs, taskID)
	snap := task.Clone()
	q.mu.Unlock()

	q.publish(events.EventTransferCompleted, snap)
}

// Fail marks a task as failed with an error. A task that was cancelled
// first stays cancelled: the aborted stream's own error arrives after
// the cancel and must not relabel it.
func (q *Queue) Fail(taskID string, err error) {
	q.mu.Lock()
	task := q.tasksByID[taskID]
	if task == nil || task.IsTerminal() {
		q.mu.Unlock()
		return
	}
	task.State = TaskFailed
	task.Error = err
	task.CompletedAt = time.Now()
	delete(q.cancelFuncs, taskID)
	snap := task.Clone()
	q.mu.Unlock()

	q.publish(events.EventTransferFailed, snap)
}

// Cancel cancels a task that has not finished, calling its stored cancel
// function when one was set. Queued tasks cancel too: a sequential batch
// aborting early needs to mark the remainder it never attempted.
func (q *Queue) Cancel(taskID string) error {
	q.mu.Lock()
	task := q.tasksByID[taskID]
	if task == nil {
		q.mu.Unlock()
		return errors.New("task not found")
	}
	if task.IsTerminal() {
		q.mu.Unlock()
		return errors.New("task already finished")
	}
	cancelFn := q.cancelFuncs[taskID]
	task.State = TaskCancelled
	task.CompletedAt = time.Now()
	delete(q.cancelFuncs, taskID)
	snap := task.Clone()
	q.mu.Unlock()

	if cancelFn != nil {
		cancelFn()
	}
	q.publish(events.EventTransferCancelled, snap)
	return nil
}

// CancelAll cancels every task that has not finished.
func (q *Queue) CancelAll() {
	q.mu.Lock()
	snaps := make([]TransferTask, 0)
	cancelFns := make([]context.CancelFunc, 0)
	for _, task := range q.tasks {
		if task.IsTerminal() {
			continue
		}
		if fn := q.cancelFuncs[task.ID]; fn != nil {
			cancelFns = append(cancelFns, fn)
		}
		task.State = TaskCancelled
		task.CompletedAt = time.Now()
		delete(q.cancelFuncs, task.ID)
		snaps = append(snaps, task.Clone())
	}
	q.mu.Unlock()

	for _, fn := range cancelFns {
		fn()
	}
	for _, snap := range snaps {
		q.publish(events.EventTransferCancelled, snap)
	}
}

// Retry resets a failed or cancelled task and hands it to the retry
// executor. The task keeps its ID and queue position; only the attempt
// state resets.
func (q *Queue) Retry(taskID string) (string, error) {
	q.mu.Lock()
	task := q.tasksByID[taskID]
	executor := q.retryExecutor
	if task == nil {
		q.mu.Unlock()
		return "", errors.New("task not found")
	}
	if !task.CanRetry() {
		q.mu.Unlock()
		return "", errors.New("task cannot be retried")
	}
	if executor == nil {
		q.mu.Unlock()
		return "", errors.New("no retry executor configured")
	}

	task.State = TaskQueued
	task.Bytes = 0
	task.Progress = 0.0
	task.Speed = 0.0
	task.Error = nil
	task.StartedAt = time.Time{}
	task.CompletedAt = time.Time{}
	task.lastBytes = 0
	task.lastUpdate = time.Time{}
	snap := task.Clone()
	q.mu.Unlock()

	q.publish(events.EventTransferQueued, snap)

	// Executor runs in its own goroutine so Retry never blocks the caller.
	go executor.ExecuteRetry(snap)

	return taskID, nil
}

// ClearCompleted removes all finished tasks from the queue.
func (q *Queue) ClearCompleted() {
	q.mu.Lock()
	defer q.mu.Unlock()

	filtered := make([]*TransferTask, 0, len(q.tasks))
	for _, task := range q.tasks {
		if task.IsTerminal() {
			delete(q.tasksByID, task.ID)
		} else {
			filtered = append(filtered, task)
		}
	}
	q.tasks = filtered
}

// Stats returns current per-state counts.
func (q *Queue) Stats() Stats {
	q.mu.RLock()
	defer q.mu.RUnlock()

	stats := Stats{}
	for _, task := range q.tasks {
		switch task.State {
		case TaskQueued:
			stats.Queued++
		case TaskStarting:
			stats.Starting++
		case TaskActive:
			stats.Active++
		case TaskCompleted:
			stats.Completed++
		case TaskFailed:
			stats.Failed++
		case TaskCancelled:
			stats.Cancelled++
		}
	}
	return stats
}

// Tasks returns copies of all tasks in creation order.
func (q *Queue) Tasks() []TransferTask {
	q.mu.RLock()
	defer q.mu.RUnlock()

	result := make([]TransferTask, len(q.tasks))
	for i, task := range q.tasks {
		result[i] = task.Clone()
	}
	return result
}

// Task returns a copy of one task by ID.
func (q *Queue) Task(taskID string) (TransferTask, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	task, ok := q.tasksByID[taskID]
	if !ok {
		return TransferTask{}, false
	}
	return task.Clone(), true
}

func (q *Queue) publish(eventType events.EventType, task TransferTask) {
	if q.bus == nil {
		return
	}
	q.bus.Publish(&events.TransferEvent{
		BaseEvent: events.BaseEvent{
			EventType: eventType,
			Time:      time.Now(),
		},
		TaskID:   task.ID,
		TaskType: string(task.Type),
		Name:     task.Name,
		Size:     task.Size,
		Bytes:    task.Bytes,
		Progress: task.Progress,
		Speed:    task.Speed,
		Error:    task.Error,
	})
}
