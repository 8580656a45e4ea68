// Package events decouples the explorer stores from the frontends: stores
// publish typed events after each mutation and any number of views consume
// them without the stores knowing who is listening.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/remex-io/remex/internal/constants"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	EventLog EventType = "log"

	// Listing cache events
	EventListingLoaded      EventType = "listing_loaded"      // Fresh listing fetched and cached
	EventListingInvalidated EventType = "listing_invalidated" // Cache entry dropped, next read refetches

	// Explorer state events
	EventSelectionChanged EventType = "selection_changed"
	EventClipboardChanged EventType = "clipboard_changed"
	EventLayoutChanged    EventType = "layout_changed"

	// Tail session events
	EventTailStarted EventType = "tail_started"
	EventTailTick    EventType = "tail_tick" // New content snapshot available
	EventTailError   EventType = "tail_error"
	EventTailStopped EventType = "tail_stopped"

	// Transfer queue events
	EventTransferQueued    EventType = "transfer_queued"
	EventTransferStarting  EventType = "transfer_starting" // Preparing (remote zip, stat) before bytes move
	EventTransferStarted   EventType = "transfer_started"
	EventTransferProgress  EventType = "transfer_progress"
	EventTransferCompleted EventType = "transfer_completed"
	EventTransferFailed    EventType = "transfer_failed"
	EventTransferCancelled EventType = "transfer_cancelled"
)

// LogLevel defines log severity levels
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// LogEvent carries a log line for frontends that own the terminal and
// cannot let the logger write to it directly.
type LogEvent struct {
	BaseEvent
	Level   LogLevel
	Message string
	Error   error
}

// ListingEvent reports cache activity for one folder path. The empty path
// is the drive listing.
type ListingEvent struct {
	BaseEvent
	Path  string
	Count int // Entries in the fresh listing; 0 for invalidations
}

// SelectionEvent reports the selection set after a change.
type SelectionEvent struct {
	BaseEvent
	Count int
}

// ClipboardEvent reports the clipboard after copy/cut/paste/clear.
type ClipboardEvent struct {
	BaseEvent
	Mode  string // "copy", "cut" or "" when empty
	Count int
}

// TailEvent reports tail session transitions and content ticks.
type TailEvent struct {
	BaseEvent
	Path    string
	State   string // "active", "paused", "inactive"
	Content string // Full snapshot on tick, empty otherwise
	Error   error
}

// LayoutEvent reports a persisted layout change.
type LayoutEvent struct {
	BaseEvent
	Field string // "bookmarks", "last_path", "split", "page_size"
}

// TransferEvent reports transfer queue activity.
type TransferEvent struct {
	BaseEvent
	TaskID   string  // Unique task ID
	TaskType string  // "upload" or "download"
	Name     string  // Display name (filename)
	Size     int64   // Total bytes, 0 when unknown (streamed archives)
	Bytes    int64   // Bytes moved so far
	Progress float64 // 0.0 to 1.0; stays 0 while Size is unknown
	Speed    float64 // bytes/sec
	Error    error   // Error if failed
}

// Bus manages event subscriptions and publishing
type Bus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event // Subscribers to all events
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64 // Count of dropped events due to full buffers
}

// NewBus creates a new event bus with the specified buffer size per
// subscriber channel.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = constants.EventBusDefaultBuffer
	}
	return &Bus{
		subscribers: make(map[EventType][]chan Event),
		all:         make([]chan Event, 0),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type
func (b *Bus) Subscribe(eventType EventType) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, b.bufferSize)
	b.subscribers[eventType] = append(b.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events
func (b *Bus) SubscribeAll() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, b.bufferSize)
	b.all = append(b.all, ch)
	return ch
}

// Publish sends an event to all subscribers. Publishing never blocks a
// store mutation: a full subscriber channel drops the event and bumps the
// dropped counter instead.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, ch := range b.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			b.droppedEvents.Add(1)
		}
	}

	for _, ch := range b.all {
		select {
		case ch <- event:
		default:
			b.droppedEvents.Add(1)
		}
	}
}

// Unsubscribe removes a subscription channel from a specific event type
// This prevents memory leaks from abandoned subscriptions
func (b *Bus) Unsubscribe(eventType EventType, ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	subscribers := b.subscribers[eventType]
	for i, subCh := range subscribers {
		if subCh == ch {
			subscribers[i] = subscribers[len(subscribers)-1]
			b.subscribers[eventType] = subscribers[:len(subscribers)-1]
			break
		}
	}
}

// UnsubscribeAll removes a subscription channel from all event types
func (b *Bus) UnsubscribeAll(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	for eventType, subscribers := range b.subscribers {
		for i, subCh := range subscribers {
			if subCh == ch {
				subscribers[i] = subscribers[len(subscribers)-1]
				b.subscribers[eventType] = subscribers[:len(subscribers)-1]
				break
			}
		}
	}

	for i, subCh := range b.all {
		if subCh == ch {
			b.all[i] = b.all[len(b.all)-1]
			b.all = b.all[:len(b.all)-1]
			break
		}
	}
}

// Close shuts down the event bus and closes all channels
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.closed = true

	for _, channels := range b.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}

	for _, ch := range b.all {
		close(ch)
	}
}

// DroppedEventCount returns the total number of events dropped due to full
// buffers. Useful when tuning subscriber buffer sizes.
func (b *Bus) DroppedEventCount() int64 {
	return b.droppedEvents.Load()
}

// PublishLog is a convenience method for publishing log events
func (b *Bus) PublishLog(level LogLevel, message string, err error) {
	b.Publish(&LogEvent{
		BaseEvent: BaseEvent{EventType: EventLog, Time: time.Now()},
		Level:     level,
		Message:   message,
		Error:     err,
	})
}

// PublishListing is a convenience method for listing cache events.
func (b *Bus) PublishListing(eventType EventType, path string, count int) {
	b.Publish(&ListingEvent{
		BaseEvent: BaseEvent{EventType: eventType, Time: time.Now()},
		Path:      path,
		Count:     count,
	})
}

// PublishSelection is a convenience method for selection change events.
func (b *Bus) PublishSelection(count int) {
	b.Publish(&SelectionEvent{
		BaseEvent: BaseEvent{EventType: EventSelectionChanged, Time: time.Now()},
		Count:     count,
	})
}

// PublishClipboard is a convenience method for clipboard change events.
func (b *Bus) PublishClipboard(mode string, count int) {
	b.Publish(&ClipboardEvent{
		BaseEvent: BaseEvent{EventType: EventClipboardChanged, Time: time.Now()},
		Mode:      mode,
		Count:     count,
	})
}

// PublishTail is a convenience method for tail session events.
func (b *Bus) PublishTail(eventType EventType, path, state, content string, err error) {
	b.Publish(&TailEvent{
		BaseEvent: BaseEvent{EventType: eventType, Time: time.Now()},
		Path:      path,
		State:     state,
		Content:   content,
		Error:     err,
	})
}

// PublishLayout is a convenience method for layout change events.
func (b *Bus) PublishLayout(field string) {
	b.Publish(&LayoutEvent{
		BaseEvent: BaseEvent{EventType: EventLayoutChanged, Time: time.Now()},
		Field:     field,
	})
}
