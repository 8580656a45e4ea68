package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/remex-io/remex/internal/agent"
)

func TestSortKeyFromField(t *testing.T) {
	tests := []struct {
		field   string
		want    string
		wantErr bool
	}{
		{"name", "name", false},
		{"size", "size", false},
		{"modified", "date", false},
		{"date", "", true},
		{"bogus", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			got, err := sortKeyFromField(tt.field)
			if (err != nil) != tt.wantErr {
				t.Fatalf("sortKeyFromField(%q) error = %v, wantErr %v", tt.field, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("sortKeyFromField(%q) = %q, want %q", tt.field, got, tt.want)
			}
		})
	}
}

func TestNormalizeRemote(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"forward slashes", `C:/Users/lab`, `C:\Users\lab`},
		{"collapsed separators", `C:\\Users\\\lab`, `C:\Users\lab`},
		{"surrounding whitespace", ` C:\Users `, `C:\Users`},
		{"unc preserved", `\\host\share`, `\\host\share`},
		{"empty is the drive sentinel", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeRemote(tt.in); got != tt.want {
				t.Errorf("normalizeRemote(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeAll(t *testing.T) {
	got := normalizeAll([]string{`C:/a`, `D:\b\`})
	want := []string{`C:\a`, `D:\b\`}
	if len(got) != len(want) {
		t.Fatalf("normalizeAll() returned %d paths, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("normalizeAll()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestHumanSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1536, "1.5 KB"},
		{3 << 20, "3.0 MB"},
		{5 << 30, "5.0 GB"},
	}

	for _, tt := range tests {
		if got := humanSize(tt.size); got != tt.want {
			t.Errorf("humanSize(%d) = %q, want %q", tt.size, got, tt.want)
		}
	}
}

// listFake serves canned listings for resolveEntry.
type listFake struct {
	listings map[string][]agent.Entry
	err      error
}

func (f *listFake) List(ctx context.Context, path string) ([]agent.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.listings[path], nil
}

func TestResolveEntry(t *testing.T) {
	fake := &listFake{listings: map[string][]agent.Entry{
		`C:\work\`: {
			{Name: "docs", Path: `C:\work\docs`, IsDir: true},
			{Name: "a.txt", Path: `C:\work\a.txt`, Size: 42},
		},
	}}

	entry, err := resolveEntry(context.Background(), fake, `C:\work\a.txt`)
	if err != nil {
		t.Fatalf("resolveEntry() error: %v", err)
	}
	if entry.Size != 42 || entry.IsDir {
		t.Errorf("resolveEntry() = %+v, want the a.txt file entry", entry)
	}
}

func TestResolveEntryCaseInsensitive(t *testing.T) {
	fake := &listFake{listings: map[string][]agent.Entry{
		`C:\work\`: {{Name: "Docs", Path: `C:\work\Docs`, IsDir: true}},
	}}

	entry, err := resolveEntry(context.Background(), fake, `C:\work\docs`)
	if err != nil {
		t.Fatalf("resolveEntry() error: %v", err)
	}
	if entry.Path != `C:\work\Docs` {
		t.Errorf("Path = %q, want the agent's casing preserved", entry.Path)
	}
}

func TestResolveEntryNotFound(t *testing.T) {
	fake := &listFake{listings: map[string][]agent.Entry{}}

	if _, err := resolveEntry(context.Background(), fake, `C:\work\ghost.txt`); err == nil {
		t.Fatal("resolveEntry() error = nil, want not found")
	}
}

func TestResolveEntryListError(t *testing.T) {
	fake := &listFake{err: errors.New("agent unreachable")}

	if _, err := resolveEntry(context.Background(), fake, `C:\work\a.txt`); err == nil {
		t.Fatal("resolveEntry() error = nil, want the listing error")
	}
}

func TestResolveEntryRoot(t *testing.T) {
	// Roots resolve without touching the client.
	fake := &listFake{err: errors.New("must not be called")}

	entry, err := resolveEntry(context.Background(), fake, `C:\`)
	if err != nil {
		t.Fatalf("resolveEntry() error: %v", err)
	}
	if !entry.IsDir {
		t.Error("drive root should resolve as a folder")
	}
	if entry.Path != `C:\` {
		t.Errorf("Path = %q, want C:\\", entry.Path)
	}
}

func TestSpinWhileReturnsFnError(t *testing.T) {
	wantErr := errors.New("agent said no")
	if err := spinWhile("working", func() error { return wantErr }); !errors.Is(err, wantErr) {
		t.Errorf("spinWhile() error = %v, want %v", err, wantErr)
	}
	if err := spinWhile("working", func() error { return nil }); err != nil {
		t.Errorf("spinWhile() error = %v, want nil", err)
	}
}

func TestSpinWhileWaitsForFn(t *testing.T) {
	started := time.Now()
	err := spinWhile("working", func() error {
		time.Sleep(50 * time.Millisecond)
		return nil
	})
	if err != nil {
		t.Fatalf("spinWhile() error: %v", err)
	}
	if elapsed := time.Since(started); elapsed < 50*time.Millisecond {
		t.Errorf("spinWhile() returned after %v, before fn finished", elapsed)
	}
}
