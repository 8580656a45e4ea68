// Package filekind classifies remote entries by filename extension and
// derives the capabilities the frontends dispatch on: which files open in
// the editor, which can be tailed, which preview inline, which offer an
// extract action.
package filekind

import (
	"path"
	"strings"
)

// Kind is the closed set of file classes. Classification is total: anything
// unrecognized is Unknown, never an error.
type Kind int

const (
	Unknown Kind = iota
	Image
	Video
	Audio
	Archive
	Code
	Text
	Executable
	Document
)

func (k Kind) String() string {
	switch k {
	case Image:
		return "image"
	case Video:
		return "video"
	case Audio:
		return "audio"
	case Archive:
		return "archive"
	case Code:
		return "code"
	case Text:
		return "text"
	case Executable:
		return "executable"
	case Document:
		return "document"
	default:
		return "unknown"
	}
}

var kindByExt = map[string]Kind{}

func register(k Kind, exts ...string) {
	for _, e := range exts {
		kindByExt[e] = k
	}
}

func init() {
	register(Image, "png", "jpg", "jpeg", "gif", "bmp", "webp", "svg", "ico")
	register(Video, "mp4", "mkv", "avi", "mov", "wmv", "webm")
	register(Audio, "mp3", "wav", "flac", "ogg", "m4a", "aac")
	register(Archive, "zip", "7z", "rar", "tar", "gz", "bz2", "xz")
	register(Code, "go", "py", "js", "ts", "java", "c", "cpp", "h", "cs",
		"rs", "rb", "php", "sh", "ps1", "bat", "cmd", "sql", "html", "css")
	register(Text, "txt", "log", "md", "json", "yaml", "yml", "xml", "ini",
		"cfg", "conf", "csv", "toml", "properties")
	register(Executable, "exe", "msi", "dll", "bin", "com")
	register(Document, "pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx")
}

// Detect classifies a filename by its extension, case-insensitively.
// Dotfiles without a further extension and extensionless names are Unknown.
func Detect(name string) Kind {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if ext == "" {
		return Unknown
	}
	if k, ok := kindByExt[ext]; ok {
		return k
	}
	return Unknown
}

// CanEdit reports whether the entry opens in the text editor.
func (k Kind) CanEdit() bool {
	return k == Text || k == Code
}

// CanTail reports whether the entry may be followed by the tail poller.
// Only textual content is tailable; images go to the preview instead.
func (k Kind) CanTail() bool {
	return k == Text || k == Code
}

// CanPreview reports whether the entry renders as an inline image preview.
func (k Kind) CanPreview() bool {
	return k == Image
}

// CanExtract reports whether the entry offers the unzip action.
func (k Kind) CanExtract() bool {
	return k == Archive
}

// Icon returns the glyph the list views render in front of an entry name.
func Icon(name string, isDir bool) string {
	if isDir {
		return "📁"
	}
	switch Detect(name) {
	case Image:
		return "🖼️"
	case Video:
		return "🎬"
	case Audio:
		return "🎵"
	case Archive:
		return "📦"
	case Code:
		return "💻"
	case Text:
		return "📄"
	case Executable:
		return "⚙️"
	case Document:
		return "📚"
	default:
		return "📄"
	}
}
