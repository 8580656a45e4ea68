package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/remex-io/remex/internal/agent"
	"github.com/remex-io/remex/internal/explorer"
	"github.com/remex-io/remex/internal/filekind"
)

func (m explorerModel) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "starting..."
	}

	switch m.overlay {
	case overlayHelp:
		return m.renderHelpOverlay()
	case overlayTail:
		return m.renderTailOverlay()
	case overlayConfirmDelete:
		return m.renderConfirmOverlay()
	case overlayBookmarks:
		return m.renderBookmarkOverlay()
	}

	sections := []string{m.renderTitle(), m.renderBody()}
	if m.filterFocused || m.filterInput.Value() != "" {
		sections = append(sections, " "+m.filterInput.View())
	}
	sections = append(sections, m.renderStatus(), m.renderFooter())

	return lipgloss.NewStyle().MaxHeight(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m explorerModel) renderTitle() string {
	order := "↑"
	if !m.ascending {
		order = "↓"
	}
	parts := []string{fmt.Sprintf("sort %s %s", m.sortKey, order)}
	if n := m.deps.Selection.Count(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", n))
	}
	if n := m.deps.Clipboard.Count(); n > 0 {
		parts = append(parts, fmt.Sprintf("clipboard %d (%s)", n, m.deps.Clipboard.Mode()))
	}
	if stats := m.deps.Queue.Stats(); stats.Active+stats.Starting > 0 {
		parts = append(parts, fmt.Sprintf("%d transfer(s) running", stats.Active+stats.Starting))
	}

	left := titleStyle.Render("remex " + displayPath(m.path))
	right := subtleStyle.Render(strings.Join(parts, " · ") + " ")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m explorerModel) renderBody() string {
	bodyHeight := m.height - 4
	if m.filterFocused || m.filterInput.Value() != "" {
		bodyHeight--
	}
	if bodyHeight < 3 {
		bodyHeight = 3
	}

	if m.loading {
		return lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center,
			busyStyle.Render("loading "+displayPath(m.path)+"..."))
	}
	if m.loadErr != nil {
		message := statusErrStyle.Render(fmt.Sprintf("cannot list %s: %v", displayPath(m.path), m.loadErr)) +
			"\n\n" + subtleStyle.Render("r retries · backspace goes up")
		return lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, message)
	}

	folderPage, filePage := m.panes()

	if m.path == explorer.DrivesKey {
		return m.renderPane("Drives", folderPage, m.folders, true, false, m.width, bodyHeight)
	}

	split := m.deps.Layout.Snapshot().SplitFraction
	leftWidth := int(float64(m.width) * split)
	if leftWidth < 24 {
		leftWidth = 24
	}
	if leftWidth > m.width-24 {
		leftWidth = m.width - 24
	}

	left := m.renderPane("Folders", folderPage, m.folders, m.focus == focusFolders, false, leftWidth, bodyHeight)
	right := m.renderPane("Files", filePage, m.files, m.focus == focusFiles, true, m.width-leftWidth, bodyHeight)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

// renderPane draws one bordered pane: tri-state header, the cursor
// window of the current page, and a pager line when there are more
// pages.
func (m explorerModel) renderPane(title string, page explorer.Page, st paneState, focused, showMeta bool, width, height int) string {
	contentWidth := width - 4
	if contentWidth < 8 {
		contentWidth = 8
	}

	header := fmt.Sprintf("%s %s (%d)", m.paneMarker(page), title, page.Total)
	if page.TotalPages > 1 {
		header += fmt.Sprintf(" · page %d/%d", page.Index+1, page.TotalPages)
	}
	lines := []string{paneHeaderStyle.Render(truncate(header, contentWidth))}

	listHeight := height - 3
	if listHeight < 1 {
		listHeight = 1
	}

	if len(page.Rows) == 0 {
		lines = append(lines, subtleStyle.Render("(empty)"))
	} else {
		start := 0
		if st.cursor >= listHeight {
			start = st.cursor - listHeight + 1
		}
		end := start + listHeight
		if end > len(page.Rows) {
			end = len(page.Rows)
		}
		for i := start; i < end; i++ {
			entry := page.Rows[i]
			lines = append(lines, m.renderRow(entry, m.deps.Selection.Has(entry.Path), i == st.cursor, contentWidth, showMeta))
		}
	}

	style := paneStyle
	if focused {
		style = focusedPaneStyle
	}
	return style.Width(width - 2).Height(height - 2).Render(strings.Join(lines, "\n"))
}

// paneMarker is the pane header's tri-state checkbox over the visible
// rows.
func (m explorerModel) paneMarker(page explorer.Page) string {
	if m.path == explorer.DrivesKey || len(page.Rows) == 0 {
		return "[ ]"
	}
	paths := make([]string, len(page.Rows))
	for i, entry := range page.Rows {
		paths[i] = entry.Path
	}
	switch m.deps.Selection.GroupState(paths) {
	case explorer.GroupAll:
		return "[x]"
	case explorer.GroupPartial:
		return "[~]"
	default:
		return "[ ]"
	}
}

func (m explorerModel) renderRow(entry agent.Entry, selected, cursor bool, width int, showMeta bool) string {
	marker := " "
	if selected {
		marker = "✓"
	}

	name := entry.Name
	if entry.IsDir {
		name += `\`
	}
	row := fmt.Sprintf("%s %s %s", marker, filekind.Icon(entry.Name, entry.IsDir), name)

	if showMeta {
		meta := fmt.Sprintf("%8s  %s", formatSize(entry.Size), entry.ModTime.Format("2006-01-02 15:04"))
		pad := width - lipgloss.Width(row) - lipgloss.Width(meta)
		if pad < 1 {
			row = truncate(row, width-lipgloss.Width(meta)-1)
			pad = width - lipgloss.Width(row) - lipgloss.Width(meta)
			if pad < 1 {
				pad = 1
			}
		}
		row += strings.Repeat(" ", pad) + meta
	}
	row = truncate(row, width)

	if cursor {
		return cursorRowStyle.Width(width).Render(row)
	}
	if selected {
		return selectedMarkStyle.Render(row)
	}
	if entry.IsDir {
		return dirStyle.Render(row)
	}
	return fileStyle.Render(row)
}

func (m explorerModel) renderStatus() string {
	switch {
	case m.busy != "":
		return busyStyle.Render(" " + m.busy + "...")
	case m.status == "":
		return " "
	case m.statusErr:
		return statusErrStyle.Render(" " + m.status)
	default:
		return statusOKStyle.Render(" " + m.status)
	}
}

func (m explorerModel) renderFooter() string {
	if m.filterFocused {
		return subtleStyle.Render(" enter keeps the filter · esc clears it")
	}
	if m.path == explorer.DrivesKey {
		return subtleStyle.Render(" enter open · / filter · g bookmarks · r refresh · ? help · q quit")
	}
	return subtleStyle.Render(" space select · c/x/v clipboard · d delete · z zip · D download · t tail · ? help · q quit")
}

func (m explorerModel) renderHelpOverlay() string {
	box := overlayStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Keys"),
		m.helpView.View(),
		subtleStyle.Render("esc closes · ↑/↓ scroll"),
	))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m explorerModel) renderTailOverlay() string {
	snapshot := m.deps.Tail.Snapshot()
	header := titleStyle.Render("tail "+m.tailPath) +
		subtleStyle.Render(fmt.Sprintf(" [%s]", snapshot.State))
	box := overlayStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.tailView.View(),
		subtleStyle.Render("space pauses · esc closes · ↑/↓ scroll"),
	))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m explorerModel) renderConfirmOverlay() string {
	const maxShown = 8

	lines := []string{fmt.Sprintf("Delete %d item(s)?", len(m.confirmPaths)), ""}
	shown := m.confirmPaths
	if len(shown) > maxShown {
		shown = shown[:maxShown]
	}
	for _, path := range shown {
		lines = append(lines, path)
	}
	if rest := len(m.confirmPaths) - len(shown); rest > 0 {
		lines = append(lines, fmt.Sprintf("... and %d more", rest))
	}
	lines = append(lines, "", "y deletes · n keeps everything")

	box := confirmStyle.Render(strings.Join(lines, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m explorerModel) renderBookmarkOverlay() string {
	lines := []string{titleStyle.Render("Bookmarks"), ""}
	for i, bookmark := range m.bookmarkRows {
		if i == m.bookmarkCursor {
			lines = append(lines, cursorRowStyle.Render("> "+bookmark))
		} else {
			lines = append(lines, "  "+bookmark)
		}
	}
	lines = append(lines, "", subtleStyle.Render("enter opens · esc closes"))

	box := overlayStyle.Render(strings.Join(lines, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// displayPath names the open location; the empty sentinel is the drive
// list.
func displayPath(path string) string {
	if path == explorer.DrivesKey {
		return "Drives"
	}
	return path
}

// truncate clips a row to the pane width. Emoji icons render wider than
// their rune count, so clipping measures display cells, not bytes.
func truncate(s string, width int) string {
	if width < 1 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// formatSize returns a human-readable byte count.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
