package tui

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/remex-io/remex/internal/agent"
	"github.com/remex-io/remex/internal/bulk"
	"github.com/remex-io/remex/internal/events"
	"github.com/remex-io/remex/internal/explorer"
	"github.com/remex-io/remex/internal/layout"
	"github.com/remex-io/remex/internal/tail"
	"github.com/remex-io/remex/internal/winpath"
)

// focusArea names the pane the cursor keys drive.
type focusArea int

const (
	focusFolders focusArea = iota
	focusFiles
)

// overlayKind names the modal drawn over the panes, if any.
type overlayKind int

const (
	overlayNone overlayKind = iota
	overlayHelp
	overlayConfirmDelete
	overlayBookmarks
	overlayTail
)

// pageSizeCycle is what the p key steps through. Zero means everything
// on one page.
var pageSizeCycle = []int{25, 50, 100, 0}

// splitStep is how far < and > move the pane divider per press.
const splitStep = 0.05

// paneState is the cursor and page position of one pane.
type paneState struct {
	cursor int
	page   int
}

type explorerModel struct {
	deps   Deps
	ctx    context.Context
	events <-chan events.Event

	// path is the open folder, normalized with its trailing separator so
	// cache keys line up with the coordinator's invalidations. Empty is
	// the drive list.
	path    string
	entries []agent.Entry
	loading bool
	loadErr error

	focus   focusArea
	folders paneState
	files   paneState

	sortKey   string
	ascending bool

	filterInput   textinput.Model
	filterFocused bool

	overlay        overlayKind
	confirmPaths   []string
	bookmarkRows   []string
	bookmarkCursor int

	helpView viewport.Model
	tailView viewport.Model
	tailPath string

	// busy is the operation in flight; mutating keys wait for it.
	busy      string
	status    string
	statusErr bool

	downloadDir string

	width, height int
	ready         bool
	quitting      bool
}

func newExplorerModel(deps Deps, ch <-chan events.Event) explorerModel {
	ti := textinput.New()
	ti.Placeholder = "type to filter"
	ti.Prompt = "/ "
	ti.CharLimit = 64

	start := deps.StartPath
	if start == "" {
		start = deps.Layout.Snapshot().LastPath
	}
	if start != "" {
		start = winpath.Normalize(winpath.Clean(start))
	}

	sortKey := "name"
	ascending := true
	if deps.Config != nil {
		sortKey = sortKeyFromConfig(deps.Config.Explorer.SortField)
		ascending = deps.Config.Explorer.SortAscending
	}

	// Downloads land where remex was launched, same as the CLI default.
	downloadDir, err := os.Getwd()
	if err != nil {
		downloadDir = "."
	}

	return explorerModel{
		deps:        deps,
		ctx:         context.Background(),
		events:      ch,
		path:        start,
		loading:     true,
		sortKey:     sortKey,
		ascending:   ascending,
		filterInput: ti,
		helpView:    viewport.New(76, 20),
		tailView:    viewport.New(80, 20),
		downloadDir: downloadDir,
	}
}

// sortKeyFromConfig maps the config file's sort_field to the view
// pipeline's key; the file says "modified" where the pipeline says
// "date".
func sortKeyFromConfig(field string) string {
	switch field {
	case "size":
		return "size"
	case "modified":
		return "date"
	default:
		return "name"
	}
}

func (m explorerModel) Init() tea.Cmd {
	return tea.Batch(
		loadListingCmd(m.ctx, m.deps.Cache, m.path, false),
		waitForBusEvent(m.events),
	)
}

// panes shapes the listing for both panes: filter, split, sort, slice.
// Cursor and page positions are clamped to what came back. At the drive
// list everything lands in the folder pane whatever IsDir says.
func (m *explorerModel) panes() (folderPage, filePage explorer.Page) {
	narrowed := filterEntries(m.entries, m.filterInput.Value())

	var folders, files []agent.Entry
	if m.path == explorer.DrivesKey {
		folders = narrowed
	} else {
		folders, files = splitEntries(narrowed)
	}

	folderPage = explorer.Apply(folders, explorer.Query{
		Key:       m.sortKey,
		Ascending: m.ascending,
		Page:      m.folders.page,
		PageSize:  m.deps.Layout.PageSize(layout.PanelFolders),
	})
	filePage = explorer.Apply(files, explorer.Query{
		Key:       m.sortKey,
		Ascending: m.ascending,
		Page:      m.files.page,
		PageSize:  m.deps.Layout.PageSize(layout.PanelFiles),
	})

	m.folders.page = folderPage.Index
	m.files.page = filePage.Index
	m.folders.cursor = clampCursor(m.folders.cursor, len(folderPage.Rows))
	m.files.cursor = clampCursor(m.files.cursor, len(filePage.Rows))
	return folderPage, filePage
}

func clampCursor(cursor, rows int) int {
	if cursor >= rows {
		cursor = rows - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	return cursor
}

// focusedPane returns the pane the cursor keys currently drive.
func (m *explorerModel) focusedPane() (explorer.Page, *paneState, string) {
	folderPage, filePage := m.panes()
	if m.path == explorer.DrivesKey || m.focus == focusFolders {
		return folderPage, &m.folders, layout.PanelFolders
	}
	return filePage, &m.files, layout.PanelFiles
}

// cursorEntry returns the entry under the cursor in the focused pane.
func (m *explorerModel) cursorEntry() (agent.Entry, bool) {
	page, st, _ := m.focusedPane()
	if len(page.Rows) == 0 {
		return agent.Entry{}, false
	}
	return page.Rows[st.cursor], true
}

// actionPaths is what a bulk key operates on: the selection when one
// exists, the cursor entry otherwise.
func (m *explorerModel) actionPaths() []string {
	if m.deps.Selection.Count() > 0 {
		return m.deps.Selection.Paths()
	}
	if entry, ok := m.cursorEntry(); ok {
		return []string{entry.Path}
	}
	return nil
}

// resolveSelection maps the acted-on paths back to listing entries via
// the cache. Every selected path came from a cached listing, so a miss
// only happens when the listing changed underneath; those are skipped.
func (m *explorerModel) resolveSelection(paths []string) []agent.Entry {
	resolved := make([]agent.Entry, 0, len(paths))
	for _, path := range paths {
		if winpath.IsRoot(path) {
			resolved = append(resolved, agent.Entry{
				Name:  winpath.Leaf(path),
				Path:  winpath.Normalize(path),
				IsDir: true,
			})
			continue
		}
		parent := winpath.ParentOf(path)
		entries, ok := m.deps.Cache.Peek(parent)
		if !ok {
			continue
		}
		want := winpath.Normalize(winpath.Clean(path))
		for _, entry := range entries {
			if winpath.Normalize(entry.Path) == want {
				resolved = append(resolved, entry)
				break
			}
		}
	}
	return resolved
}

func (m *explorerModel) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

// navigateTo opens a folder (or the drive list) and resets the view
// state that belongs to the previous one.
func (m *explorerModel) navigateTo(path string) tea.Cmd {
	m.path = path
	m.entries = nil
	m.loading = true
	m.loadErr = nil
	m.folders = paneState{}
	m.files = paneState{}
	m.focus = focusFolders
	m.filterInput.Reset()
	m.filterFocused = false
	m.setStatus("", false)

	if path != explorer.DrivesKey {
		// Best effort: a failed write only loses persistence.
		m.deps.Layout.SetLastPath(path)
	}
	return loadListingCmd(m.ctx, m.deps.Cache, path, false)
}

func (m explorerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.helpView.Width = min(msg.Width-8, 76)
		m.helpView.Height = msg.Height - 8
		m.tailView.Width = msg.Width - 8
		m.tailView.Height = msg.Height - 10
		return m, nil

	case listingLoadedMsg:
		if msg.path != m.path {
			// A navigation happened while this fetch was in flight.
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.loadErr = msg.err
			return m, nil
		}
		m.loadErr = nil
		m.entries = msg.entries
		m.panes()
		return m, nil

	case opDoneMsg:
		m.busy = ""
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("%s failed: %v", msg.verb, msg.err), true)
		} else {
			m.setStatus(summaryLine(msg.verb, msg.detail, msg.summary), !msg.summary.AllSucceeded())
		}
		// The coordinator invalidated what changed; reload the open
		// folder so the panes show it.
		return m, loadListingCmd(m.ctx, m.deps.Cache, m.path, false)

	case busEventMsg:
		cmd := m.handleBusEvent(msg.event)
		return m, tea.Batch(cmd, waitForBusEvent(m.events))

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// handleBusEvent reacts to state changes published by the packages
// underneath; rendering pulls the rest directly.
func (m *explorerModel) handleBusEvent(evt events.Event) tea.Cmd {
	switch evt := evt.(type) {
	case *events.ListingEvent:
		if evt.Type() == events.EventListingInvalidated && evt.Path == m.path {
			return loadListingCmd(m.ctx, m.deps.Cache, m.path, false)
		}

	case *events.TailEvent:
		if m.overlay != overlayTail {
			return nil
		}
		switch evt.Type() {
		case events.EventTailTick:
			m.tailView.SetContent(evt.Content)
			m.tailView.GotoBottom()
		case events.EventTailError:
			m.overlay = overlayNone
			m.setStatus(fmt.Sprintf("tail stopped: %v", evt.Error), true)
		}

	case *events.LogEvent:
		if evt.Level >= events.WarnLevel {
			m.setStatus(evt.Message, evt.Level >= events.ErrorLevel)
		}
	}
	return nil
}

func (m explorerModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Overlays swallow every key.
	switch m.overlay {
	case overlayHelp:
		return m.handleHelpKey(msg)
	case overlayConfirmDelete:
		return m.handleConfirmKey(msg)
	case overlayBookmarks:
		return m.handleBookmarkKey(msg)
	case overlayTail:
		return m.handleTailKey(msg)
	}

	if m.filterFocused {
		return m.handleFilterKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit

	case "?":
		m.overlay = overlayHelp
		m.helpView.SetContent(helpText)
		m.helpView.GotoTop()
		return m, nil

	case "up", "k":
		_, st, _ := m.focusedPane()
		if st.cursor > 0 {
			st.cursor--
		}
		return m, nil

	case "down", "j":
		page, st, _ := m.focusedPane()
		if st.cursor < len(page.Rows)-1 {
			st.cursor++
		}
		return m, nil

	case "tab":
		if m.path != explorer.DrivesKey {
			if m.focus == focusFolders {
				m.focus = focusFiles
			} else {
				m.focus = focusFolders
			}
		}
		return m, nil

	case "left", "h":
		m.focus = focusFolders
		return m, nil

	case "right", "l":
		if m.path != explorer.DrivesKey {
			m.focus = focusFiles
		}
		return m, nil

	case "enter":
		entry, ok := m.cursorEntry()
		if !ok {
			return m, nil
		}
		if m.path == explorer.DrivesKey || entry.IsDir {
			return m, m.navigateTo(winpath.Normalize(winpath.Clean(entry.Path)))
		}
		m.setStatus("not a folder; t tails, D downloads", false)
		return m, nil

	case "backspace":
		if m.path == explorer.DrivesKey {
			return m, nil
		}
		if winpath.IsRoot(m.path) {
			return m, m.navigateTo(explorer.DrivesKey)
		}
		return m, m.navigateTo(winpath.ParentOf(m.path))

	case " ":
		if m.path == explorer.DrivesKey {
			return m, nil
		}
		if entry, ok := m.cursorEntry(); ok {
			m.deps.Selection.Toggle(entry.Path)
		}
		return m, nil

	case "a":
		if m.path == explorer.DrivesKey {
			return m, nil
		}
		page, _, _ := m.focusedPane()
		paths := make([]string, len(page.Rows))
		for i, entry := range page.Rows {
			paths[i] = entry.Path
		}
		m.deps.Selection.SelectAll(paths)
		return m, nil

	case "esc":
		if m.filterInput.Value() != "" {
			m.filterInput.Reset()
			m.folders.page, m.files.page = 0, 0
			return m, nil
		}
		if m.deps.Selection.Count() > 0 {
			m.deps.Selection.Clear()
		}
		return m, nil

	case "/":
		m.filterFocused = true
		m.filterInput.Focus()
		return m, textinput.Blink

	case "s":
		m.sortKey = nextSortKey(m.sortKey)
		return m, nil

	case "o":
		m.ascending = !m.ascending
		return m, nil

	case "[":
		_, st, _ := m.focusedPane()
		if st.page > 0 {
			st.page--
			st.cursor = 0
		}
		return m, nil

	case "]":
		page, st, _ := m.focusedPane()
		if st.page < page.TotalPages-1 {
			st.page++
			st.cursor = 0
		}
		return m, nil

	case "p":
		_, st, panel := m.focusedPane()
		next := nextPageSize(m.deps.Layout.PageSize(panel))
		m.deps.Layout.SetPageSize(panel, next)
		st.page = 0
		st.cursor = 0
		return m, nil

	case "<":
		m.adjustSplit(-splitStep)
		return m, nil

	case ">":
		m.adjustSplit(splitStep)
		return m, nil

	case "r":
		m.loading = true
		return m, loadListingCmd(m.ctx, m.deps.Cache, m.path, true)

	case "c":
		if paths := m.actionPaths(); len(paths) > 0 {
			m.deps.Clipboard.Copy(paths)
			m.setStatus(fmt.Sprintf("copied %d item(s)", len(paths)), false)
		}
		return m, nil

	case "x":
		if paths := m.actionPaths(); len(paths) > 0 {
			m.deps.Clipboard.Cut(paths)
			m.setStatus(fmt.Sprintf("cut %d item(s)", len(paths)), false)
		}
		return m, nil

	case "v":
		return m.startPaste()

	case "d":
		if m.busy != "" || m.path == explorer.DrivesKey {
			return m, nil
		}
		if paths := m.actionPaths(); len(paths) > 0 {
			m.confirmPaths = paths
			m.overlay = overlayConfirmDelete
		}
		return m, nil

	case "z":
		return m.startZip()

	case "D":
		return m.startDownload()

	case "t":
		return m.startTail()

	case "b":
		return m.toggleBookmark()

	case "g":
		m.bookmarkRows = m.deps.Layout.Snapshot().Bookmarks
		if len(m.bookmarkRows) == 0 {
			m.setStatus("no bookmarks yet; b adds one", false)
			return m, nil
		}
		m.bookmarkCursor = 0
		m.overlay = overlayBookmarks
		return m, nil
	}

	return m, nil
}

func (m explorerModel) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filterInput.Reset()
		m.filterInput.Blur()
		m.filterFocused = false
		m.folders.page, m.files.page = 0, 0
		return m, nil
	case "enter":
		m.filterInput.Blur()
		m.filterFocused = false
		return m, nil
	}

	before := m.filterInput.Value()
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	if m.filterInput.Value() != before {
		m.folders = paneState{}
		m.files = paneState{}
	}
	return m, cmd
}

func (m explorerModel) handleHelpKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "?":
		m.overlay = overlayNone
		return m, nil
	}
	var cmd tea.Cmd
	m.helpView, cmd = m.helpView.Update(msg)
	return m, cmd
}

func (m explorerModel) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		paths := m.confirmPaths
		m.confirmPaths = nil
		m.overlay = overlayNone
		m.busy = fmt.Sprintf("deleting %d item(s)", len(paths))
		ctx, coordinator := m.ctx, m.deps.Coordinator
		return m, func() tea.Msg {
			summary, err := coordinator.DeleteAll(ctx, paths)
			return opDoneMsg{verb: "Deleted", summary: summary, err: err}
		}
	case "n", "N", "esc", "q":
		m.confirmPaths = nil
		m.overlay = overlayNone
		m.setStatus("deletion cancelled", false)
		return m, nil
	}
	return m, nil
}

func (m explorerModel) handleBookmarkKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "g":
		m.overlay = overlayNone
		return m, nil
	case "up", "k":
		if m.bookmarkCursor > 0 {
			m.bookmarkCursor--
		}
		return m, nil
	case "down", "j":
		if m.bookmarkCursor < len(m.bookmarkRows)-1 {
			m.bookmarkCursor++
		}
		return m, nil
	case "enter":
		m.overlay = overlayNone
		if m.bookmarkCursor < len(m.bookmarkRows) {
			return m, m.navigateTo(m.bookmarkRows[m.bookmarkCursor])
		}
		return m, nil
	}
	return m, nil
}

func (m explorerModel) handleTailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "t":
		m.deps.Tail.Stop()
		m.overlay = overlayNone
		m.tailPath = ""
		return m, nil
	case " ":
		if m.deps.Tail.State() == tail.StateActive {
			m.deps.Tail.Pause()
		} else {
			m.deps.Tail.Resume()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.tailView, cmd = m.tailView.Update(msg)
	return m, cmd
}

func (m explorerModel) startPaste() (tea.Model, tea.Cmd) {
	if m.busy != "" {
		return m, nil
	}
	if m.path == explorer.DrivesKey {
		m.setStatus("open a folder to paste into", true)
		return m, nil
	}
	if !m.deps.Clipboard.CanPaste(m.path) {
		m.setStatus("clipboard is empty", true)
		return m, nil
	}

	verb := "Copied"
	if m.deps.Clipboard.Mode() == explorer.ModeCut {
		verb = "Moved"
	}
	m.busy = fmt.Sprintf("pasting %d item(s)", m.deps.Clipboard.Count())
	ctx, clipboard, dest := m.ctx, m.deps.Clipboard, m.path
	return m, func() tea.Msg {
		outcome, err := clipboard.Paste(ctx, dest)
		return opDoneMsg{verb: verb, summary: outcomeSummary(outcome), err: err}
	}
}

func (m explorerModel) startZip() (tea.Model, tea.Cmd) {
	if m.busy != "" || m.path == explorer.DrivesKey {
		return m, nil
	}
	paths := m.actionPaths()
	if len(paths) == 0 {
		return m, nil
	}

	m.busy = fmt.Sprintf("zipping %d item(s)", len(paths))
	ctx, coordinator := m.ctx, m.deps.Coordinator
	return m, func() tea.Msg {
		zipPath, err := coordinator.ZipSelection(ctx, paths, "")
		return opDoneMsg{verb: "Created", detail: zipPath, err: err}
	}
}

func (m explorerModel) startDownload() (tea.Model, tea.Cmd) {
	if m.busy != "" || m.path == explorer.DrivesKey {
		return m, nil
	}
	entries := m.resolveSelection(m.actionPaths())
	if len(entries) == 0 {
		m.setStatus("nothing to download", true)
		return m, nil
	}

	m.busy = fmt.Sprintf("downloading %d item(s)", len(entries))
	ctx, coordinator, destDir := m.ctx, m.deps.Coordinator, m.downloadDir
	return m, func() tea.Msg {
		localPath, err := coordinator.DownloadSelection(ctx, entries, destDir)
		return opDoneMsg{verb: "Downloaded", detail: localPath, err: err}
	}
}

func (m explorerModel) startTail() (tea.Model, tea.Cmd) {
	entry, ok := m.cursorEntry()
	if !ok || entry.IsDir || m.path == explorer.DrivesKey {
		return m, nil
	}

	if err := m.deps.Tail.Start(entry.Path); err != nil {
		m.setStatus(fmt.Sprintf("cannot tail %s: %v", entry.Name, err), true)
		return m, nil
	}
	m.tailPath = entry.Path
	m.tailView.SetContent("waiting for content...")
	m.overlay = overlayTail
	return m, nil
}

func (m explorerModel) toggleBookmark() (tea.Model, tea.Cmd) {
	if m.path == explorer.DrivesKey {
		return m, nil
	}
	if m.deps.Layout.IsBookmarked(m.path) {
		m.deps.Layout.RemoveBookmark(m.path)
		m.setStatus(fmt.Sprintf("removed bookmark %s", m.path), false)
	} else {
		m.deps.Layout.AddBookmark(m.path)
		m.setStatus(fmt.Sprintf("bookmarked %s", m.path), false)
	}
	return m, nil
}

func (m *explorerModel) adjustSplit(delta float64) {
	current := m.deps.Layout.Snapshot().SplitFraction
	m.deps.Layout.SetSplitFraction(current + delta)
}

// nextSortKey cycles name → size → date → name.
func nextSortKey(key string) string {
	keys := explorer.SortKeys()
	for i, k := range keys {
		if k == key {
			return keys[(i+1)%len(keys)]
		}
	}
	return keys[0]
}

// nextPageSize steps through the page size cycle; unknown sizes restart
// it.
func nextPageSize(size int) int {
	for i, n := range pageSizeCycle {
		if n == size {
			return pageSizeCycle[(i+1)%len(pageSizeCycle)]
		}
	}
	return pageSizeCycle[0]
}

// summaryLine renders a finished batch for the status bar.
func summaryLine(verb, detail string, summary bulk.Summary) string {
	if detail != "" {
		return fmt.Sprintf("✓ %s %s", verb, detail)
	}
	if summary.AllSucceeded() {
		return fmt.Sprintf("✓ %s %d item(s)", verb, summary.Succeeded)
	}
	total := summary.Succeeded + summary.Failed + summary.Skipped
	return fmt.Sprintf("%s %d of %d item(s), %d failed", verb, summary.Succeeded, total, summary.Failed)
}
