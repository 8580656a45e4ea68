package explorer

import (
	"context"
	"errors"
	"testing"

	"github.com/remex-io/remex/internal/agent"
)

type fakePasteAPI struct {
	copyCalls  int
	moveCalls  int
	gotSources []string
	gotDest    string
	outcome    *agent.BulkOutcome
	err        error
}

func (f *fakePasteAPI) BulkCopy(ctx context.Context, sources []string, dest string) (*agent.BulkOutcome, error) {
	f.copyCalls++
	f.gotSources = sources
	f.gotDest = dest
	if f.err != nil {
		return nil, f.err
	}
	return f.outcome, nil
}

func (f *fakePasteAPI) BulkMove(ctx context.Context, sources []string, dest string) (*agent.BulkOutcome, error) {
	f.moveCalls++
	f.gotSources = sources
	f.gotDest = dest
	if f.err != nil {
		return nil, f.err
	}
	return f.outcome, nil
}

func okOutcome(n int) *agent.BulkOutcome {
	return &agent.BulkOutcome{Requested: n, Succeeded: n}
}

func TestClipboardCopyPasteKeepsPayload(t *testing.T) {
	api := &fakePasteAPI{outcome: okOutcome(2)}
	cb := NewClipboard(api, nil, nil, nil)

	cb.Copy([]string{`C:\work\a.txt`, `C:\work\b.txt`})

	if cb.Mode() != ModeCopy {
		t.Errorf("Mode() = %q, want copy", cb.Mode())
	}
	if !cb.CanPaste(`D:\backup\`) {
		t.Fatal("CanPaste() = false, want true")
	}

	// A copy payload survives any number of pastes.
	for i := 0; i < 3; i++ {
		outcome, err := cb.Paste(context.Background(), `D:\backup\`)
		if err != nil {
			t.Fatalf("Paste() #%d error = %v, want nil", i+1, err)
		}
		if !outcome.AllSucceeded() {
			t.Fatalf("Paste() #%d outcome = %+v, want all succeeded", i+1, outcome)
		}
	}

	if api.copyCalls != 3 || api.moveCalls != 0 {
		t.Errorf("calls = %d copy / %d move, want 3 / 0", api.copyCalls, api.moveCalls)
	}
	if cb.Count() != 2 {
		t.Errorf("Count() after copy-paste = %d, want 2 (payload kept)", cb.Count())
	}
	if api.gotDest != `D:\backup\` {
		t.Errorf("destination = %q, want D:\\backup\\", api.gotDest)
	}
}

func TestClipboardCutPasteClearsPayloadOnce(t *testing.T) {
	api := &fakePasteAPI{outcome: okOutcome(1)}
	cb := NewClipboard(api, nil, nil, nil)

	cb.Cut([]string{`C:\work\a.txt`})

	if _, err := cb.Paste(context.Background(), `D:\backup\`); err != nil {
		t.Fatalf("Paste() error = %v, want nil", err)
	}

	if api.moveCalls != 1 || api.copyCalls != 0 {
		t.Errorf("calls = %d copy / %d move, want 0 / 1", api.copyCalls, api.moveCalls)
	}
	if cb.Count() != 0 {
		t.Errorf("Count() after cut-paste = %d, want 0 (payload cleared)", cb.Count())
	}
	if cb.Mode() != "" {
		t.Errorf("Mode() after cut-paste = %q, want empty", cb.Mode())
	}

	if _, err := cb.Paste(context.Background(), `D:\backup\`); !errors.Is(err, ErrClipboardEmpty) {
		t.Errorf("second Paste() error = %v, want ErrClipboardEmpty", err)
	}
}

// TestClipboardFailedCutPasteKeepsPayload covers the retry path: a cut
// payload survives a failed paste so the user can paste elsewhere.
func TestClipboardFailedCutPasteKeepsPayload(t *testing.T) {
	api := &fakePasteAPI{err: errors.New("agent unreachable")}
	cb := NewClipboard(api, nil, nil, nil)

	cb.Cut([]string{`C:\work\a.txt`, `C:\work\b.txt`})

	if _, err := cb.Paste(context.Background(), `D:\backup\`); err == nil {
		t.Fatal("Paste() error = nil, want the agent error")
	}

	if cb.Count() != 2 {
		t.Errorf("Count() after failed paste = %d, want 2 (payload kept)", cb.Count())
	}
	if cb.Mode() != ModeCut {
		t.Errorf("Mode() after failed paste = %q, want cut", cb.Mode())
	}
}

func TestClipboardEmptyInputIsNoOp(t *testing.T) {
	cb := NewClipboard(&fakePasteAPI{}, nil, nil, nil)

	cb.Copy([]string{`C:\work\a.txt`})
	cb.Copy(nil) // a stray shortcut with nothing marked

	if cb.Count() != 1 {
		t.Errorf("Count() = %d, want 1 (empty Copy must not wipe the payload)", cb.Count())
	}

	cb.Cut([]string{})
	if cb.Mode() != ModeCopy {
		t.Errorf("Mode() = %q, want copy (empty Cut must not switch modes)", cb.Mode())
	}
}

func TestClipboardPasteValidation(t *testing.T) {
	cb := NewClipboard(&fakePasteAPI{}, nil, nil, nil)

	if _, err := cb.Paste(context.Background(), `D:\backup\`); !errors.Is(err, ErrClipboardEmpty) {
		t.Errorf("Paste() on empty clipboard error = %v, want ErrClipboardEmpty", err)
	}

	cb.Copy([]string{`C:\work\a.txt`})
	if _, err := cb.Paste(context.Background(), ""); !errors.Is(err, ErrNoDestination) {
		t.Errorf("Paste() without destination error = %v, want ErrNoDestination", err)
	}

	if cb.CanPaste("") {
		t.Error("CanPaste(\"\") = true, want false")
	}
}

func TestClipboardClear(t *testing.T) {
	cb := NewClipboard(&fakePasteAPI{}, nil, nil, nil)

	cb.Cut([]string{`C:\work\a.txt`})
	cb.Clear()

	if cb.Count() != 0 || cb.Mode() != "" {
		t.Errorf("after Clear: count %d mode %q, want 0 and empty", cb.Count(), cb.Mode())
	}
}

func TestClipboardPasteInvalidatesListingsAndSelection(t *testing.T) {
	listAPI := &fakeListAPI{listings: map[string][]agent.Entry{
		`D:\backup\`: {{Name: "old.txt"}},
		`C:\work\`:   {{Name: "a.txt"}},
	}}
	cache := NewCache(listAPI, nil)
	cache.Load(context.Background(), `D:\backup\`)
	cache.Load(context.Background(), `C:\work\`)

	sel := NewSelection(nil)
	sel.Toggle(`C:\work\a.txt`)

	api := &fakePasteAPI{outcome: okOutcome(1)}
	cb := NewClipboard(api, cache, sel, nil)

	cb.Cut([]string{`C:\work\a.txt`})
	if _, err := cb.Paste(context.Background(), `D:\backup\`); err != nil {
		t.Fatalf("Paste() error = %v, want nil", err)
	}

	if _, ok := cache.Peek(`D:\backup\`); ok {
		t.Error("destination listing still cached, want invalidated")
	}
	// Cut also invalidates each source's parent folder.
	if _, ok := cache.Peek(`C:\work\`); ok {
		t.Error("source parent listing still cached, want invalidated")
	}
	if sel.Count() != 0 {
		t.Errorf("selection count = %d, want 0 after paste", sel.Count())
	}
}

func TestClipboardCopyPasteLeavesSourcesCached(t *testing.T) {
	listAPI := &fakeListAPI{listings: map[string][]agent.Entry{
		`D:\backup\`: {{Name: "old.txt"}},
		`C:\work\`:   {{Name: "a.txt"}},
	}}
	cache := NewCache(listAPI, nil)
	cache.Load(context.Background(), `D:\backup\`)
	cache.Load(context.Background(), `C:\work\`)

	api := &fakePasteAPI{outcome: okOutcome(1)}
	cb := NewClipboard(api, cache, nil, nil)

	cb.Copy([]string{`C:\work\a.txt`})
	if _, err := cb.Paste(context.Background(), `D:\backup\`); err != nil {
		t.Fatalf("Paste() error = %v, want nil", err)
	}

	if _, ok := cache.Peek(`D:\backup\`); ok {
		t.Error("destination listing still cached, want invalidated")
	}
	// A copy does not change the source folder; its listing stays valid.
	if _, ok := cache.Peek(`C:\work\`); !ok {
		t.Error("source listing was invalidated, want kept for a copy")
	}
}
