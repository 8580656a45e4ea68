package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	colorAccent = lipgloss.Color("#44A8F0") // folders, focused borders
	colorGreen  = lipgloss.Color("#50FA7B")
	colorRed    = lipgloss.Color("#FF5555")
	colorYellow = lipgloss.Color("#F1FA8C")
	colorGray   = lipgloss.Color("240")
	colorWhite  = lipgloss.Color("#E0E0E0")
	colorCursor = lipgloss.Color("#5A4E8C") // cursor row background
)

// Shared styles
var (
	titleStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true).
			Padding(0, 1)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorGray).
			Padding(0, 1)

	focusedPaneStyle = paneStyle.
				BorderForeground(colorAccent)

	paneHeaderStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	cursorRowStyle = lipgloss.NewStyle().
			Background(colorCursor).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true)

	selectedMarkStyle = lipgloss.NewStyle().
				Foreground(colorGreen).
				Bold(true)

	dirStyle  = lipgloss.NewStyle().Foreground(colorAccent)
	fileStyle = lipgloss.NewStyle().Foreground(colorWhite)

	subtleStyle = lipgloss.NewStyle().Foreground(colorGray)

	statusOKStyle = lipgloss.NewStyle().Foreground(colorGreen)

	statusErrStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	busyStyle = lipgloss.NewStyle().Foreground(colorYellow)

	overlayStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(1, 2)

	confirmStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorRed).
			Padding(1, 4).
			Align(lipgloss.Center)
)
