package monitor

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Layout constants for responsive terminal width
const (
	MinTerminalWidth = 60  // Minimum supported terminal width
	MaxContentWidth  = 120 // Maximum content width before capping
)

// Color palette
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple
	OKColor      = lipgloss.Color("#43BF6D") // Green
	WarningColor = lipgloss.Color("#FFA500") // Orange
	ErrorColor   = lipgloss.Color("#FF0000") // Red
	SubtleColor  = lipgloss.Color("#626262") // Gray
	TextColor    = lipgloss.Color("#FFFFFF") // White
)

// Common styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	ValueStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	ModeSafeStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	ModeActiveStyle = lipgloss.NewStyle().
			Foreground(OKColor).
			Bold(true)

	PendingStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	HelpStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	LogBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(SubtleColor).
			Padding(0, 1)
)

// GetTerminalSize returns the current terminal width and height, clamped to
// the supported range, with a fallback when stdout is not a terminal.
func GetTerminalSize() (int, int) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return MinTerminalWidth, 24
	}
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}
	if width > MaxContentWidth {
		width = MaxContentWidth
	}
	return width, height
}
