package components

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ome/omero-render/internal/adapters/in/cli/ui/styles"
	"github.com/ome/omero-render/internal/domain"
)

var channelColumns = []TableColumn{
	{Title: "CH", Width: 4},
	{Title: "LABEL", Width: 20},
	{Title: "ACTIVE", Width: 8},
	{Title: "COLOR", Width: 14},
	{Title: "WINDOW"},
	{Title: "RANGE"},
}

// SettingsView renders the rendering settings of one image: a header line
// followed by one table row per channel.
func SettingsView(rs *domain.RenderingSettings) string {
	var sb strings.Builder

	title := fmt.Sprintf("Image:%d", rs.ImageID)
	if rs.Name != "" {
		title += " " + rs.Name
	}
	sb.WriteString(styles.Theme.Title.Render(title))
	sb.WriteByte('\n')
	sb.WriteString(styles.Theme.Subtitle.Render(fmt.Sprintf("model=%s z=%d t=%d pixels=%s tiles=%t",
		rs.Model, rs.DefaultZ+1, rs.DefaultT+1, rs.PixelsType, rs.Tiles)))
	sb.WriteByte('\n')

	tbl := NewTable(WithColumns(channelColumns))
	for i, ch := range rs.Channels {
		active := styles.Theme.Muted.Render(styles.IconOff)
		if ch.Active {
			active = styles.Theme.Success.Render(styles.IconActive)
		}
		tbl.AddRow(
			strconv.Itoa(i+1),
			ch.Label,
			active,
			styles.Swatch(ch.Color),
			bounds(ch.Start, ch.End),
			bounds(ch.Min, ch.Max),
		)
	}
	sb.WriteString(tbl.Render())
	return sb.String()
}

func bounds(lo, hi *float64) string {
	return formatBound(lo) + " - " + formatBound(hi)
}

func formatBound(v *float64) string {
	if v == nil {
		return "?"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
