package explorer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/remex-io/remex/internal/agent"
	"github.com/remex-io/remex/internal/events"
)

type fakeListAPI struct {
	listCalls   int
	drivesCalls int
	listings    map[string][]agent.Entry
	drives      []agent.Entry
	err         error
}

func (f *fakeListAPI) List(ctx context.Context, path string) ([]agent.Entry, error) {
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.listings[path], nil
}

func (f *fakeListAPI) Drives(ctx context.Context) ([]agent.Entry, error) {
	f.drivesCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.drives, nil
}

func TestCacheLoadFetchesOnceThenServesCached(t *testing.T) {
	api := &fakeListAPI{listings: map[string][]agent.Entry{
		`C:\work\`: {
			{Name: "a.txt", Path: `C:\work\a.txt`},
			{Name: "b.txt", Path: `C:\work\b.txt`},
		},
	}}
	cache := NewCache(api, nil)

	first, err := cache.Load(context.Background(), `C:\work\`)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	second, err := cache.Load(context.Background(), `C:\work\`)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if api.listCalls != 1 {
		t.Errorf("List called %d times, want 1", api.listCalls)
	}
	if len(first) != 2 || len(second) != 2 {
		t.Errorf("Load() returned %d then %d entries, want 2 and 2", len(first), len(second))
	}
}

func TestCacheDrivesKeyLoadsDrives(t *testing.T) {
	api := &fakeListAPI{drives: []agent.Entry{
		{Name: `C:\`, Path: `C:\`, IsDir: true},
		{Name: `D:\`, Path: `D:\`, IsDir: true},
	}}
	cache := NewCache(api, nil)

	drives, err := cache.Load(context.Background(), DrivesKey)
	if err != nil {
		t.Fatalf("Load(DrivesKey) error = %v, want nil", err)
	}

	if api.drivesCalls != 1 || api.listCalls != 0 {
		t.Errorf("calls = %d drives / %d list, want 1 / 0", api.drivesCalls, api.listCalls)
	}
	if len(drives) != 2 {
		t.Errorf("Load(DrivesKey) returned %d entries, want 2", len(drives))
	}
}

func TestCacheRefreshAlwaysFetches(t *testing.T) {
	api := &fakeListAPI{listings: map[string][]agent.Entry{
		`C:\work\`: {{Name: "a.txt", Path: `C:\work\a.txt`}},
	}}
	cache := NewCache(api, nil)

	if _, err := cache.Load(context.Background(), `C:\work\`); err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	// The agent-side folder changed; Refresh must see it.
	api.listings[`C:\work\`] = []agent.Entry{
		{Name: "a.txt", Path: `C:\work\a.txt`},
		{Name: "new.txt", Path: `C:\work\new.txt`},
	}

	refreshed, err := cache.Refresh(context.Background(), `C:\work\`)
	if err != nil {
		t.Fatalf("Refresh() error = %v, want nil", err)
	}

	if api.listCalls != 2 {
		t.Errorf("List called %d times, want 2", api.listCalls)
	}
	if len(refreshed) != 2 {
		t.Errorf("Refresh() returned %d entries, want 2", len(refreshed))
	}

	cached, ok := cache.Peek(`C:\work\`)
	if !ok || len(cached) != 2 {
		t.Errorf("Peek() after refresh = %d entries (ok=%v), want 2", len(cached), ok)
	}
}

// TestCacheRefreshFailureKeepsPriorEntry verifies a failed refresh leaves
// the stale listing usable instead of blanking the panel.
func TestCacheRefreshFailureKeepsPriorEntry(t *testing.T) {
	api := &fakeListAPI{listings: map[string][]agent.Entry{
		`C:\work\`: {{Name: "a.txt", Path: `C:\work\a.txt`}},
	}}
	cache := NewCache(api, nil)

	if _, err := cache.Load(context.Background(), `C:\work\`); err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	api.err = errors.New("agent unreachable")
	if _, err := cache.Refresh(context.Background(), `C:\work\`); err == nil {
		t.Fatal("Refresh() error = nil, want fetch error")
	}

	cached, ok := cache.Peek(`C:\work\`)
	if !ok {
		t.Fatal("Peek() after failed refresh = miss, want prior entry")
	}
	if len(cached) != 1 || cached[0].Name != "a.txt" {
		t.Errorf("Peek() = %+v, want the prior single entry", cached)
	}
}

func TestCacheInvalidateDropsEntry(t *testing.T) {
	api := &fakeListAPI{listings: map[string][]agent.Entry{
		`C:\work\`: {{Name: "a.txt", Path: `C:\work\a.txt`}},
	}}
	cache := NewCache(api, nil)

	if _, err := cache.Load(context.Background(), `C:\work\`); err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	cache.Invalidate(`C:\work\`)

	if _, ok := cache.Peek(`C:\work\`); ok {
		t.Error("Peek() after Invalidate = hit, want miss")
	}

	if _, err := cache.Load(context.Background(), `C:\work\`); err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if api.listCalls != 2 {
		t.Errorf("List called %d times, want 2 (refetch after invalidate)", api.listCalls)
	}
}

func TestCacheInvalidateAll(t *testing.T) {
	api := &fakeListAPI{
		listings: map[string][]agent.Entry{
			`C:\work\`: {{Name: "a.txt"}},
			`D:\data\`: {{Name: "b.txt"}},
		},
	}
	cache := NewCache(api, nil)

	cache.Load(context.Background(), `C:\work\`)
	cache.Load(context.Background(), `D:\data\`)
	if cache.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", cache.Size())
	}

	cache.InvalidateAll()
	if cache.Size() != 0 {
		t.Errorf("Size() after InvalidateAll = %d, want 0", cache.Size())
	}
}

func TestCacheLoadReturnsCopy(t *testing.T) {
	api := &fakeListAPI{listings: map[string][]agent.Entry{
		`C:\work\`: {{Name: "a.txt", Path: `C:\work\a.txt`}},
	}}
	cache := NewCache(api, nil)

	entries, err := cache.Load(context.Background(), `C:\work\`)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	entries[0].Name = "mutated"

	cached, _ := cache.Peek(`C:\work\`)
	if cached[0].Name != "a.txt" {
		t.Errorf("cached entry name = %q, want a.txt (caller mutation must not leak)", cached[0].Name)
	}
}

func TestCachePublishesListingEvents(t *testing.T) {
	api := &fakeListAPI{listings: map[string][]agent.Entry{
		`C:\work\`: {{Name: "a.txt"}, {Name: "b.txt"}},
	}}
	bus := events.NewBus(100)
	defer bus.Close()
	cache := NewCache(api, bus)

	loaded := bus.Subscribe(events.EventListingLoaded)
	invalidated := bus.Subscribe(events.EventListingInvalidated)

	if _, err := cache.Load(context.Background(), `C:\work\`); err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	select {
	case e := <-loaded:
		le, ok := e.(*events.ListingEvent)
		if !ok {
			t.Fatalf("event type = %T, want *events.ListingEvent", e)
		}
		if le.Path != `C:\work\` || le.Count != 2 {
			t.Errorf("loaded event = %q/%d, want C:\\work\\ with 2 entries", le.Path, le.Count)
		}
	case <-time.After(time.Second):
		t.Fatal("no listing.loaded event received")
	}

	cache.Invalidate(`C:\work\`)

	select {
	case e := <-invalidated:
		le := e.(*events.ListingEvent)
		if le.Path != `C:\work\` {
			t.Errorf("invalidated event path = %q, want C:\\work\\", le.Path)
		}
	case <-time.After(time.Second):
		t.Fatal("no listing.invalidated event received")
	}
}
