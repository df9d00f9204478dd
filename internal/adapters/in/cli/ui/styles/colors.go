// Package styles provides the terminal palette and composed styles used by
// the omero-render commands.
package styles

import "github.com/charmbracelet/lipgloss"

// Palette.
var (
	Blue300 = lipgloss.Color("#7fb3e6")
	Blue500 = lipgloss.Color("#2f7fc8")

	Neutral200 = lipgloss.Color("#e5e5e5")
	Neutral500 = lipgloss.Color("#737373")
	Neutral700 = lipgloss.Color("#404040")

	Green  = lipgloss.Color("#3ccf7a")
	Red    = lipgloss.Color("#ff5555")
	Yellow = lipgloss.Color("#f5c542")
	Black  = lipgloss.Color("#000000")
)

// Semantic colors.
var (
	ColorPrimary   = Blue300
	ColorSecondary = Blue500
	ColorSuccess   = Green
	ColorWarning   = Yellow
	ColorError     = Red
	ColorInfo      = Blue300

	ColorText      = Neutral200
	ColorTextMuted = Neutral500
	ColorBorder    = Neutral700
	ColorBg        = Black
)
