// Package tui provides styled console output using lipgloss for rich
// terminal rendering of version tables and environment listings.
package tui

import (
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/nodedesk/nodedesk/src/internal/catalog"
	"github.com/nodedesk/nodedesk/src/internal/opqueue"
)

// Lazy initialization to avoid cold start penalty from lipgloss terminal detection
var (
	initOnce sync.Once

	// Colors
	colorPrimary   lipgloss.Color
	colorSecondary lipgloss.Color
	colorSuccess   lipgloss.Color
	colorWarning   lipgloss.Color
	colorError     lipgloss.Color
	colorMuted     lipgloss.Color

	// Text styles
	StyleTitle          lipgloss.Style
	StyleEnvironment    lipgloss.Style
	StyleVersion        lipgloss.Style
	StyleDefaultVersion lipgloss.Style
	StyleCodename       lipgloss.Style
	StyleMuted          lipgloss.Style
	StyleWarning        lipgloss.Style
	StyleError          lipgloss.Style

	// Table styles
	StyleTableHeader lipgloss.Style
	StyleTableCell   lipgloss.Style
	StyleTableBorder lipgloss.Style

	// Indicator strings
	CheckMark string
	CrossMark string
	Bullet    string
	Arrow     string
)

// initStyles initializes all lipgloss styles lazily
func initStyles() {
	initOnce.Do(func() {
		// Force TrueColor profile to skip slow terminal capability detection
		// See: https://github.com/charmbracelet/lipgloss/issues/86
		lipgloss.SetColorProfile(termenv.TrueColor)

		colorPrimary = lipgloss.Color("39")    // Cyan
		colorSecondary = lipgloss.Color("213") // Magenta/Pink
		colorSuccess = lipgloss.Color("42")    // Green
		colorWarning = lipgloss.Color("214")   // Orange/Yellow
		colorError = lipgloss.Color("196")     // Red
		colorMuted = lipgloss.Color("245")     // Gray

		StyleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			MarginBottom(1)

		StyleEnvironment = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

		StyleVersion = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorSecondary)

		StyleDefaultVersion = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorSuccess)

		StyleCodename = lipgloss.NewStyle().
			Foreground(colorSecondary)

		StyleMuted = lipgloss.NewStyle().
			Foreground(colorMuted)

		StyleWarning = lipgloss.NewStyle().
			Foreground(colorWarning)

		StyleError = lipgloss.NewStyle().
			Foreground(colorError)

		StyleTableHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			PaddingRight(2)

		StyleTableCell = lipgloss.NewStyle().
			PaddingRight(2)

		StyleTableBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)

		CheckMark = lipgloss.NewStyle().Foreground(colorSuccess).Render("✓")
		CrossMark = lipgloss.NewStyle().Foreground(colorError).Render("✗")
		Bullet = StyleMuted.Render("•")
		Arrow = lipgloss.NewStyle().Foreground(colorPrimary).Render("→")
	})
}

// Init ensures styles are initialized. Call this before using any styles.
func Init() {
	initStyles()
}

// RenderTitle renders a styled title
func RenderTitle(text string) string {
	initStyles()
	return StyleTitle.Render(text)
}

// RenderEnvironment renders an environment label
func RenderEnvironment(label string) string {
	initStyles()
	return StyleEnvironment.Render(label)
}

// RenderVersion renders a version string
func RenderVersion(v catalog.NodeVersion) string {
	initStyles()
	return StyleVersion.Render(v.String())
}

// RenderDefaultVersion renders the environment's default version
func RenderDefaultVersion(v catalog.NodeVersion) string {
	initStyles()
	return StyleDefaultVersion.Render(v.String())
}

// RenderCodename renders an LTS codename, empty input stays empty
func RenderCodename(name string) string {
	if name == "" {
		return ""
	}
	initStyles()
	return StyleCodename.Render("(" + name + ")")
}

// RenderMuted renders text in a muted/dim style
func RenderMuted(text string) string {
	initStyles()
	return StyleMuted.Render(text)
}

// RenderSupportState renders an end-of-life classification as a short badge.
func RenderSupportState(s catalog.SupportState) string {
	initStyles()
	switch s {
	case catalog.SupportEnded:
		return StyleError.Render("eol")
	case catalog.SupportEnding:
		return StyleWarning.Render("eol soon")
	case catalog.SupportActive:
		return StyleMuted.Render("supported")
	default:
		return ""
	}
}

// RenderOperationStatus renders an operation status with a fitting color.
func RenderOperationStatus(s opqueue.Status) string {
	initStyles()
	switch s {
	case opqueue.StatusSucceeded, opqueue.StatusUndoAvailable:
		return StyleDefaultVersion.Render(string(s))
	case opqueue.StatusFailed:
		return StyleError.Render(string(s))
	case opqueue.StatusRunning:
		return StyleEnvironment.Render(string(s))
	default:
		return StyleMuted.Render(string(s))
	}
}
