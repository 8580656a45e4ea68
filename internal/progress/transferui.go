package progress

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"github.com/remex-io/remex/internal/events"
	"github.com/remex-io/remex/internal/transfer"
)

// TransferUI renders transfer queue activity as mpb progress bars. It
// consumes the queue's events from the bus, so it works the same whether
// the coordinator moves one file or a whole batch. Bars render only when
// stderr is a terminal; otherwise each transfer prints one start line
// and one summary line.
type TransferUI struct {
	progress   *mpb.Progress
	bus        *events.Bus
	eventCh    <-chan events.Event
	quit       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
	bars       map[string]*taskBar // Task ID -> bar; only the watch goroutine writes
	out        io.Writer           // Non-terminal start and summary lines
	isTerminal bool
	totalFiles int
	started    int
}

// taskBar is the render state for one tracked transfer.
type taskBar struct {
	bar        *mpb.Bar
	index      int
	name       string
	taskType   string
	size       int64
	retries    int32 // Read by the mpb render goroutine, so atomic
	startTime  time.Time
	lastUpdate time.Time
	lastBytes  int64
	finished   bool
}

// NewTransferUI creates a transfer renderer for a batch of totalFiles
// transfers.
func NewTransferUI(totalFiles int) *TransferUI {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))

	var p *mpb.Progress
	if isTerminal {
		// Windows needs Virtual Terminal processing for the bar redraws.
		enableANSIOnWindows(os.Stderr)

		p = mpb.New(
			mpb.WithOutput(os.Stderr),
			mpb.WithRefreshRate(300*time.Millisecond),
			mpb.WithWidth(100),
		)
	} else {
		// Non-TTY: no bars, text lines only.
		p = mpb.New(mpb.WithOutput(io.Discard))
	}

	return &TransferUI{
		progress:   p,
		bars:       make(map[string]*taskBar),
		out:        os.Stdout,
		isTerminal: isTerminal,
		totalFiles: totalFiles,
	}
}

// Watch subscribes to the bus and starts rendering queue events.
func (u *TransferUI) Watch(bus *events.Bus) {
	u.bus = bus
	u.eventCh = bus.SubscribeAll()
	u.quit = make(chan struct{})
	u.done = make(chan struct{})
	go u.loop()
}

// Stop detaches from the bus, drains the events already delivered and
// blocks until rendering has settled. Bars the queue never resolved are
// dropped rather than left mid-flight.
func (u *TransferUI) Stop() {
	u.stopOnce.Do(func() {
		if u.bus != nil {
			u.bus.UnsubscribeAll(u.eventCh)
		}
		if u.done != nil {
			close(u.quit)
			<-u.done
		}
		for _, fb := range u.bars {
			if !fb.finished && fb.bar != nil {
				fb.bar.Abort(true)
			}
		}
	})
	if u.progress != nil {
		u.progress.Wait()
	}
}

// LogWriter returns a writer that prints above the live bars. Route
// console log output through it while transfers render.
func (u *TransferUI) LogWriter() io.Writer {
	if u.progress != nil && u.isTerminal {
		return u.progress
	}
	return os.Stderr
}

// IsTerminal reports whether bars are being rendered.
func (u *TransferUI) IsTerminal() bool {
	return u.isTerminal
}

func (u *TransferUI) loop() {
	defer close(u.done)
	for {
		select {
		case evt, ok := <-u.eventCh:
			if !ok {
				return
			}
			u.handle(evt)
		case <-u.quit:
			// Unsubscribed already; drain what the bus delivered before
			// the detach so late completions still print.
			for {
				select {
				case evt, ok := <-u.eventCh:
					if !ok {
						return
					}
					u.handle(evt)
				default:
					return
				}
			}
		}
	}
}

func (u *TransferUI) handle(evt events.Event) {
	te, ok := evt.(*events.TransferEvent)
	if !ok {
		return
	}
	switch te.Type() {
	case events.EventTransferQueued:
		u.addBar(te)
	case events.EventTransferStarted:
		u.restartClock(te)
	case events.EventTransferProgress:
		u.advance(te)
	case events.EventTransferCompleted:
		u.finish(te, nil)
	case events.EventTransferFailed:
		u.finish(te, te.Error)
	case events.EventTransferCancelled:
		u.cancelBar(te)
	}
}

// addBar creates a progress bar for a newly queued transfer. A task ID
// seen before is a retry: it keeps its slot number and the label gains a
// retry count.
func (u *TransferUI) addBar(te *events.TransferEvent) {
	var index int
	var retries int32
	if prior := u.bars[te.TaskID]; prior != nil {
		index = prior.index
		retries = atomic.LoadInt32(&prior.retries) + 1
	} else {
		u.started++
		index = u.started
	}

	fb := &taskBar{
		index:      index,
		name:       te.Name,
		taskType:   te.TaskType,
		size:       te.Size,
		startTime:  time.Now(),
		lastUpdate: time.Now(),
	}
	atomic.StoreInt32(&fb.retries, retries)

	if u.isTerminal {
		var counters mpb.BarOption
		if te.Size > 0 {
			counters = mpb.AppendDecorators(
				decor.CountersKibiByte("% .1f / % .1f", decor.WCSyncSpace),
				decor.Name("  "),
				// Fixed-width percentage; a zero total stays at 0.
				decor.Any(func(s decor.Statistics) string {
					pct := float64(s.Current) / float64(s.Total) * 100
					if s.Total == 0 {
						pct = 0
					}
					return fmt.Sprintf("%6.2f%%", pct)
				}, decor.WCSyncSpace),
				decor.Name("  "),
				decor.EwmaSpeed(decor.SizeB1024(0), "% .1f", 60, decor.WCSyncSpace),
				decor.Name("  "),
				decor.Name("ETA ", decor.WCSyncWidth),
				decor.EwmaETA(decor.ET_STYLE_GO, 60),
			)
		} else {
			// Streamed archives have no total: show bytes moved and the
			// rate, no percentage or ETA.
			counters = mpb.AppendDecorators(
				decor.Current(decor.SizeB1024(0), "% .1f", decor.WCSyncSpace),
				decor.Name("  "),
				decor.EwmaSpeed(decor.SizeB1024(0), "% .1f", 60, decor.WCSyncSpace),
			)
		}

		fb.bar = u.progress.New(te.Size,
			mpb.BarStyle().
				Lbound("[").
				Filler("█").
				Tip("█").
				Padding("░").
				Rbound("]"),
			mpb.PrependDecorators(
				decor.Any(func(s decor.Statistics) string {
					base := fmt.Sprintf("[%d/%d] %s %s%s",
						fb.index, u.totalFiles,
						arrow(fb.taskType), fb.name,
						sizeSuffix(fb.size))
					if r := atomic.LoadInt32(&fb.retries); r > 0 {
						return fmt.Sprintf("%s (retry %d)", base, r)
					}
					return base
				}, decor.WCSyncSpace),
			),
			counters,
			mpb.BarRemoveOnComplete(),
		)
	} else {
		fmt.Fprintf(u.out, "%s [%d/%d]: %s%s\n",
			verb(te.TaskType), index, u.totalFiles, te.Name, sizeSuffix(te.Size))
	}

	u.bars[te.TaskID] = fb
}

// restartClock resets the rate baseline when the first bytes move, so
// remote zip preparation stays out of the transfer speed.
func (u *TransferUI) restartClock(te *events.TransferEvent) {
	fb := u.bars[te.TaskID]
	if fb == nil {
		return
	}
	fb.startTime = time.Now()
	fb.lastUpdate = time.Now()
}

// advance feeds byte progress into the bar. Updates are throttled to one
// per 300ms; EwmaIncrBy gets the full elapsed time either way so the
// speed and ETA estimates stay honest.
func (u *TransferUI) advance(te *events.TransferEvent) {
	fb := u.bars[te.TaskID]
	if fb == nil || fb.bar == nil {
		return
	}

	now := time.Now()
	elapsed := now.Sub(fb.lastUpdate)
	bytesDelta := te.Bytes - fb.lastBytes

	const updateInterval = 300 * time.Millisecond

	if elapsed >= updateInterval {
		fb.bar.EwmaIncrBy(int(bytesDelta), elapsed)
		fb.lastBytes = te.Bytes
		fb.lastUpdate = now
	}
}

// finish resolves a bar and prints its summary line.
func (u *TransferUI) finish(te *events.TransferEvent, err error) {
	fb := u.bars[te.TaskID]
	if fb == nil || fb.finished {
		return
	}
	fb.finished = true

	total := te.Size
	if total <= 0 {
		total = te.Bytes
	}
	elapsed := time.Since(fb.startTime)
	speed := float64(total) / elapsed.Seconds() / (1024 * 1024)

	if err == nil {
		if fb.bar != nil {
			// Force exact completion so rounding never leaves 99.99%.
			fb.bar.SetCurrent(total)
			fb.bar.SetTotal(total, true)
		}
		u.write(fmt.Sprintf("✓ %s %s (%.1f MiB, %s, %.1f MiB/s)\n",
			arrow(fb.taskType), fb.name,
			float64(total)/(1024*1024),
			elapsed.Round(time.Second),
			speed))
		return
	}

	if fb.bar != nil {
		fb.bar.Abort(false) // keep the failed bar visible
	}
	if r := atomic.LoadInt32(&fb.retries); r > 0 {
		u.write(fmt.Sprintf("✗ %s %s: %v (after %d retries)\n",
			arrow(fb.taskType), fb.name, err, r))
		return
	}
	u.write(fmt.Sprintf("✗ %s %s: %v\n", arrow(fb.taskType), fb.name, err))
}

// cancelBar drops a cancelled transfer's bar.
func (u *TransferUI) cancelBar(te *events.TransferEvent) {
	fb := u.bars[te.TaskID]
	if fb == nil || fb.finished {
		return
	}
	fb.finished = true
	if fb.bar != nil {
		fb.bar.Abort(true)
	}
	u.write(fmt.Sprintf("⊘ %s %s cancelled\n", arrow(fb.taskType), fb.name))
}

// write prints a summary line through mpb's writer so it lands above the
// live bars instead of fighting their redraws.
func (u *TransferUI) write(msg string) {
	if u.isTerminal && u.progress != nil {
		u.progress.Write([]byte(msg))
		return
	}
	fmt.Fprint(u.out, msg)
}

func arrow(taskType string) string {
	if taskType == string(transfer.TaskTypeUpload) {
		return "↑"
	}
	return "↓"
}

func verb(taskType string) string {
	if taskType == string(transfer.TaskTypeUpload) {
		return "Uploading"
	}
	return "Downloading"
}

func sizeSuffix(size int64) string {
	if size <= 0 {
		return ""
	}
	return fmt.Sprintf(" (%.1f MiB)", float64(size)/(1024*1024))
}

// enableANSIOnWindows enables Virtual Terminal processing for ANSI escape
// sequences. No-op everywhere else; the real work is in
// transferui_windows.go.
func enableANSIOnWindows(f *os.File) {
	if runtime.GOOS == "windows" {
		enableWindowsANSI(f)
	}
}
