package explorer

import (
	"sort"
	"strings"

	"github.com/remex-io/remex/internal/agent"
)

// Query describes how one panel wants its listing shaped:
// filter, then sort, then slice one page.
type Query struct {
	Search       string // case-insensitive substring on Name; empty keeps all
	Key          string // "name", "size" or "date"
	Ascending    bool
	FoldersFirst bool
	Page         int // zero-based; out-of-range clamps
	PageSize     int // <= 0 means everything on one page
}

// Page is one shaped slice of a listing plus the numbers the paging
// controls render.
type Page struct {
	Rows       []agent.Entry
	Total      int // rows after filtering, before slicing
	TotalPages int // at least 1
	Index      int // the page actually returned
}

// Apply runs the filter → sort → slice pipeline over a listing snapshot.
// The input slice is not modified.
func Apply(entries []agent.Entry, q Query) Page {
	filtered := filter(entries, q.Search)
	sortEntries(filtered, q)
	return paginate(filtered, q.Page, q.PageSize)
}

func filter(entries []agent.Entry, search string) []agent.Entry {
	if search == "" {
		result := make([]agent.Entry, len(entries))
		copy(result, entries)
		return result
	}

	needle := strings.ToLower(search)
	result := make([]agent.Entry, 0, len(entries))
	for _, entry := range entries {
		if strings.Contains(strings.ToLower(entry.Name), needle) {
			result = append(result, entry)
		}
	}
	return result
}

// sortEntries sorts in place. The sort is stable so equal keys keep the
// agent's order across re-sorts.
func sortEntries(entries []agent.Entry, q Query) {
	if len(entries) == 0 {
		return
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]

		if q.FoldersFirst && a.IsDir != b.IsDir {
			return a.IsDir
		}

		var less bool
		switch q.Key {
		case "size":
			less = a.Size < b.Size
		case "date":
			less = a.ModTime.Before(b.ModTime)
		default: // "name"
			less = strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}

		if q.Ascending {
			return less
		}
		return !less
	})
}

func paginate(entries []agent.Entry, page, pageSize int) Page {
	total := len(entries)

	if pageSize <= 0 {
		return Page{Rows: entries, Total: total, TotalPages: 1, Index: 0}
	}

	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	if page < 0 {
		page = 0
	}
	if page > totalPages-1 {
		page = totalPages - 1
	}

	start := page * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page{
		Rows:       entries[start:end],
		Total:      total,
		TotalPages: totalPages,
		Index:      page,
	}
}

// SortKeys lists the accepted Query.Key values in display order.
func SortKeys() []string {
	return []string{"name", "size", "date"}
}
