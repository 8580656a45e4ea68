package tui

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/remex-io/remex/internal/agent"
)

// fastFilterThreshold is the listing size past which the filter drops
// fuzzy ranking for a plain substring scan. Ranking every keystroke over
// a huge folder lags the input loop.
const fastFilterThreshold = 5000

// entrySource adapts a listing for fuzzy matching on entry names.
type entrySource []agent.Entry

func (s entrySource) String(i int) string { return s[i].Name }
func (s entrySource) Len() int            { return len(s) }

// filterEntries narrows a listing to entries matching query. Small
// listings are fuzzy-ranked (best match first); large ones keep their
// order and match on case-insensitive substring only. An empty query
// returns the input unchanged.
func filterEntries(entries []agent.Entry, query string) []agent.Entry {
	if query == "" {
		return entries
	}

	if len(entries) > fastFilterThreshold {
		needle := strings.ToLower(query)
		result := make([]agent.Entry, 0, 64)
		for _, entry := range entries {
			if strings.Contains(strings.ToLower(entry.Name), needle) {
				result = append(result, entry)
			}
		}
		return result
	}

	matches := fuzzy.FindFrom(query, entrySource(entries))
	result := make([]agent.Entry, len(matches))
	for i, match := range matches {
		result[i] = entries[match.Index]
	}
	return result
}

// splitEntries partitions a listing into the folder and file panes.
func splitEntries(entries []agent.Entry) (folders, files []agent.Entry) {
	for _, entry := range entries {
		if entry.IsDir {
			folders = append(folders, entry)
		} else {
			files = append(files, entry)
		}
	}
	return folders, files
}
