// Package winpath implements path algebra for the Windows-style paths the
// agent reports. All functions are pure string manipulation: the client never
// touches the remote filesystem to reason about a path, and local
// path/filepath semantics (which follow the client OS, not the agent OS) are
// deliberately not used.
//
// The empty string is a reserved sentinel meaning "no folder open" and maps
// to the drive listing; every function passes it through unchanged.
package winpath

import "strings"

// Separator is the path separator the agent uses on the wire.
const Separator = `\`

// Clean canonicalizes raw user or agent input: forward slashes become
// backslashes, runs of separators collapse to one, and surrounding
// whitespace is dropped. The leading double-backslash of a UNC path is
// preserved.
func Clean(path string) string {
	p := strings.TrimSpace(path)
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, "/", Separator)

	unc := strings.HasPrefix(p, Separator+Separator)
	for strings.Contains(p, Separator+Separator) {
		p = strings.ReplaceAll(p, Separator+Separator, Separator)
	}
	if unc {
		p = Separator + p
	}
	return p
}

// Normalize appends the trailing separator folder paths carry on the wire.
// Already-terminal paths and the empty sentinel are returned unchanged.
func Normalize(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasSuffix(path, Separator) {
		return path
	}
	return path + Separator
}

// IsUNC reports whether the path addresses a network share (\\host\...).
func IsUNC(path string) bool {
	return strings.HasPrefix(path, Separator+Separator)
}

// IsDriveRoot reports whether the path is a bare drive letter root,
// with or without its trailing separator ("C:" or "C:\").
func IsDriveRoot(path string) bool {
	p := strings.TrimSuffix(path, Separator)
	if len(p) != 2 || p[1] != ':' {
		return false
	}
	c := p[0]
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// IsRoot reports whether the path has no parent other than itself:
// drive roots ("C:\") and bare UNC hosts ("\\host").
func IsRoot(path string) bool {
	if IsDriveRoot(path) {
		return true
	}
	if !IsUNC(path) {
		return false
	}
	// \\host or \\host\ but not \\host\share
	inner := strings.TrimSuffix(path[2:], Separator)
	return inner != "" && !strings.Contains(inner, Separator)
}

// ParentOf returns the normalized parent folder of path. Roots are their own
// parent, so the function is idempotent once a root is reached:
//
//	ParentOf(`C:\Users\bob\`) = `C:\Users\`
//	ParentOf(`C:\Users`)      = `C:\`
//	ParentOf(`C:\`)           = `C:\`
//	ParentOf(`\\host\share`)  = `\\host\`
func ParentOf(path string) string {
	p := Clean(path)
	if p == "" {
		return ""
	}
	if IsRoot(p) {
		return Normalize(p)
	}
	p = trimTrailing(p)
	if IsRoot(p) {
		return Normalize(p)
	}
	idx := strings.LastIndex(p, Separator)
	if idx <= 0 {
		// A relative fragment with no separator has nothing above it.
		return Normalize(p)
	}
	return Normalize(p[:idx])
}

// Join appends a single leaf name under parent:
// Join(`C:\Users`, "bob") = `C:\Users\bob`. An empty parent returns the leaf
// untouched so callers composing from the drive picker keep the drive path
// the agent reported.
func Join(parent, leaf string) string {
	if parent == "" {
		return leaf
	}
	if leaf == "" {
		return Normalize(parent)
	}
	return Normalize(parent) + leaf
}

// Leaf returns the display name of the last path segment. Drive roots and
// UNC hosts render as themselves (`C:\`, `\\host`) rather than an empty
// string.
func Leaf(path string) string {
	p := Clean(path)
	if p == "" {
		return ""
	}
	if IsDriveRoot(p) {
		return Normalize(strings.ToUpper(p[:2]))
	}
	if IsRoot(p) {
		return trimTrailing(p)
	}
	p = trimTrailing(p)
	idx := strings.LastIndex(p, Separator)
	if idx < 0 {
		return p
	}
	return p[idx+1:]
}

// SplitDir breaks a path into its containing folder and entry name, the pair
// the directory-create and rename endpoints want. Roots split into
// (normalized root, "").
func SplitDir(path string) (dir, name string) {
	p := Clean(path)
	if p == "" {
		return "", ""
	}
	if IsRoot(p) {
		return Normalize(p), ""
	}
	return ParentOf(p), Leaf(p)
}

// trimTrailing strips trailing separators while refusing to eat the
// structural ones in `C:\` and `\\`.
func trimTrailing(p string) string {
	for strings.HasSuffix(p, Separator) && !IsDriveRoot(p) && len(p) > 2 {
		p = p[:len(p)-1]
	}
	return p
}
