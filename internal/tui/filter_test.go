package tui

import (
	"fmt"
	"testing"

	"github.com/remex-io/remex/internal/agent"
)

func named(names ...string) []agent.Entry {
	entries := make([]agent.Entry, len(names))
	for i, name := range names {
		entries[i] = agent.Entry{Name: name, Path: `C:\work\` + name}
	}
	return entries
}

func TestFilterEntriesEmptyQueryKeepsAll(t *testing.T) {
	entries := named("docs", "report.pdf", "notes.txt")
	got := filterEntries(entries, "")
	if len(got) != len(entries) {
		t.Fatalf("filterEntries(\"\") returned %d entries, want %d", len(got), len(entries))
	}
}

func TestFilterEntriesFuzzyMatchesSubsequences(t *testing.T) {
	entries := named("docs", "report.pdf", "notes.txt")

	got := filterEntries(entries, "dcs")
	if len(got) != 1 || got[0].Name != "docs" {
		t.Fatalf("filterEntries(\"dcs\") = %v, want just docs", names(got))
	}

	if got := filterEntries(entries, "zzz"); len(got) != 0 {
		t.Errorf("filterEntries(\"zzz\") = %v, want none", names(got))
	}
}

func TestFilterEntriesFuzzyRanksExactFirst(t *testing.T) {
	entries := named("no-tes-backup.txt", "notes.txt")

	got := filterEntries(entries, "notes")
	if len(got) != 2 {
		t.Fatalf("filterEntries(\"notes\") returned %d entries, want 2", len(got))
	}
	if got[0].Name != "notes.txt" {
		t.Errorf("best match = %q, want notes.txt first", got[0].Name)
	}
}

func TestFilterEntriesLargeListingUsesSubstring(t *testing.T) {
	entries := make([]agent.Entry, 0, fastFilterThreshold+2)
	for i := 0; i < fastFilterThreshold+1; i++ {
		entries = append(entries, agent.Entry{Name: fmt.Sprintf("frame-%05d.log", i)})
	}
	entries = append(entries, agent.Entry{Name: "target.txt"})

	// A subsequence that is not a substring only matches in fuzzy mode.
	if got := filterEntries(entries, "tgt"); len(got) != 0 {
		t.Errorf("filterEntries(\"tgt\") over a large listing = %d entries, want 0", len(got))
	}

	got := filterEntries(entries, "TARGET")
	if len(got) != 1 || got[0].Name != "target.txt" {
		t.Errorf("filterEntries(\"TARGET\") = %v, want just target.txt", names(got))
	}
}

func TestSplitEntries(t *testing.T) {
	entries := []agent.Entry{
		{Name: "docs", IsDir: true},
		{Name: "a.txt"},
		{Name: "build", IsDir: true},
		{Name: "b.log"},
	}

	folders, files := splitEntries(entries)
	if len(folders) != 2 || folders[0].Name != "docs" || folders[1].Name != "build" {
		t.Errorf("folders = %v, want [docs build] in input order", names(folders))
	}
	if len(files) != 2 || files[0].Name != "a.txt" || files[1].Name != "b.log" {
		t.Errorf("files = %v, want [a.txt b.log] in input order", names(files))
	}
}

func names(entries []agent.Entry) []string {
	result := make([]string, len(entries))
	for i, entry := range entries {
		result[i] = entry.Name
	}
	return result
}
