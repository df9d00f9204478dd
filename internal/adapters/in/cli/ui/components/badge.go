package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ome/omero-render/internal/adapters/in/cli/ui/styles"
)

// Badge renders a compact status label with a background matching its
// meaning.
func Badge(status string) string {
	return badgeStyle(status).Render(status)
}

func badgeStyle(status string) lipgloss.Style {
	switch status {
	case "ok", "active", "fill":
		return styles.Theme.BadgeSuccess
	case "fail", "expired":
		return styles.Theme.BadgeError
	case "miss", "cancel":
		return styles.Theme.BadgeWarning
	}
	return styles.Theme.BadgeInfo
}
