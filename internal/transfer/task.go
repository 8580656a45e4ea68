// Package transfer tracks upload and download tasks for display and
// cancellation. The queue observes transfers instead of executing them:
// the bulk coordinator registers tasks, feeds progress and marks the
// outcome, while frontends render the queue events.
package transfer

import (
	"fmt"
	"sync"
	"time"
)

// TaskType indicates whether a task is an upload or download.
type TaskType string

const (
	TaskTypeUpload   TaskType = "upload"
	TaskTypeDownload TaskType = "download"
)

// TaskState represents the current state of a transfer task.
type TaskState string

const (
	TaskQueued    TaskState = "queued"   // Registered, nothing running yet
	TaskStarting  TaskState = "starting" // Preparing (remote zip, stat) before bytes move
	TaskActive    TaskState = "active"   // Bytes are moving
	TaskCompleted TaskState = "completed"
	TaskFailed    TaskState = "failed"
	TaskCancelled TaskState = "cancelled"
)

// TaskSpec describes a transfer to track.
type TaskSpec struct {
	Type   TaskType
	Name   string // Display name (usually the file name)
	Source string // Remote path for downloads, local path for uploads
	Dest   string // Local path for downloads, remote folder for uploads
	Size   int64  // Total bytes, 0 when unknown (streamed archives)
}

// TransferTask is one upload or download tracked by the queue. Tasks are
// owned by the queue: callers mutate them through queue methods and only
// ever see value copies outside the queue's lock.
type TransferTask struct {
	ID   string
	Type TaskType

	Name   string
	Source string
	Dest   string
	Size   int64

	State    TaskState
	Bytes    int64   // Bytes moved so far
	Progress float64 // 0.0 to 1.0; stays 0 while Size is unknown
	Speed    float64 // bytes/sec, EMA smoothed
	Error    error

	// Speed sampling internals
	lastBytes  int64
	lastUpdate time.Time

	CreatedAt   time.Time
	StartedAt   time.Time
	CompletedAt time.Time
}

// NewTask builds a queued task from a spec. Callers normally go through
// Queue.Track instead.
func NewTask(spec TaskSpec) *TransferTask {
	return &TransferTask{
		ID:        generateTaskID(),
		Type:      spec.Type,
		Name:      spec.Name,
		Source:    spec.Source,
		Dest:      spec.Dest,
		Size:      spec.Size,
		State:     TaskQueued,
		CreatedAt: time.Now(),
	}
}

// Clone returns a value copy safe to hand out past the queue's lock.
func (t *TransferTask) Clone() TransferTask {
	return *t
}

// IsTerminal reports whether the task reached a final state.
func (t *TransferTask) IsTerminal() bool {
	return t.State == TaskCompleted || t.State == TaskFailed || t.State == TaskCancelled
}

// CanRetry reports whether Retry may re-queue the task.
func (t *TransferTask) CanRetry() bool {
	return t.State == TaskFailed || t.State == TaskCancelled
}

// ID generation
var (
	taskCounter uint64
	taskMu      sync.Mutex
)

func generateTaskID() string {
	taskMu.Lock()
	defer taskMu.Unlock()
	taskCounter++
	return fmt.Sprintf("task-%d-%d", time.Now().UnixNano(), taskCounter)
}
