package constants

import (
	"time"
)

// Tail polling
const (
	// TailPollInterval - interval between content fetches while tailing (2 seconds)
	// Matches the agent's write-flush cadence; faster polling just re-reads
	// identical content.
	TailPollInterval = 2 * time.Second
)

// Remote archive housekeeping
const (
	// ArchiveCleanupDelay - delay before deleting a temporary remote archive (2 seconds)
	// Folder downloads zip server-side first; the archive must outlive the
	// moment the download stream opens, after which it is disposable.
	ArchiveCleanupDelay = 2 * time.Second
)

// Listing and pagination
const (
	// DefaultPageSize - rows per page in list views (50)
	DefaultPageSize = 50

	// PageSizeAll - sentinel page size meaning "no pagination"
	PageSizeAll = 0
)

// Event System
const (
	// EventBusDefaultBuffer - default buffer size for event channels (1000)
	EventBusDefaultBuffer = 1000
)

// Retry configuration
const (
	// MaxRetries - maximum number of retries for transient agent errors
	MaxRetries = 5

	// RetryWaitMin - initial delay before first retry (1 second)
	RetryWaitMin = 1 * time.Second

	// RetryWaitMax - maximum delay between retries (30 seconds)
	// Exponential backoff caps at this value.
	RetryWaitMax = 30 * time.Second
)

// API and Context Timeouts
const (
	// APIContextTimeout - default timeout for agent API operations (30 seconds)
	APIContextTimeout = 30 * time.Second

	// APIConnectionTestTimeout - timeout for probing agent connectivity (10 seconds)
	APIConnectionTestTimeout = 10 * time.Second
)

// HTTP Client Timeouts
const (
	// HTTPIdleConnTimeout - how long to keep idle connections open (90 seconds)
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - timeout for TLS handshake (60 seconds)
	HTTPTLSHandshakeTimeout = 60 * time.Second

	// HTTPExpectContinueTimeout - timeout for 100-continue response (1 second)
	HTTPExpectContinueTimeout = 1 * time.Second

	// HTTPDialTimeout - timeout for establishing connection (30 seconds)
	HTTPDialTimeout = 30 * time.Second

	// HTTPDialKeepAlive - keep-alive period for dialer (30 seconds)
	HTTPDialKeepAlive = 30 * time.Second
)

// Transfers
const (
	// CopyBufferSize - buffer size for streaming downloads and uploads (256 KB)
	// Large enough for throughput, small enough for responsive progress.
	CopyBufferSize = 256 * 1024

	// DiskSpaceSafetyMargin - multiplier applied to required download space (1.1)
	DiskSpaceSafetyMargin = 1.1
)

// UI Updates
const (
	// ProgressUpdateInterval - interval for progress bar updates (250ms)
	ProgressUpdateInterval = 250 * time.Millisecond
)
