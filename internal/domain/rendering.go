package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Rendering models understood by the server.
const (
	ModelGreyscale = "greyscale"
	ModelColor     = "color"
)

// ChannelInfo is the server-side rendering state of one channel.
type ChannelInfo struct {
	EmissionWave *float64
	Label        string
	Color        string
	Active       bool
	// Window bounds. Nil when the channel has no statistics loaded.
	Min   *float64
	Max   *float64
	Start *float64
	End   *float64
	// HasStats is false when no statistics exist on the server for the channel.
	HasStats bool
}

// RenderingSettings is a snapshot of an image's current rendering definition.
type RenderingSettings struct {
	ImageID    int64
	Name       string
	PixelsType string
	Tiles      bool
	TileWidth  int
	TileHeight int
	Levels     int
	PixelRange [2]float64
	Channels   []ChannelInfo
	Model      string
	Projection string
	// DefaultZ and DefaultT are 0-based.
	DefaultZ int
	DefaultT int
}

// Greyscale reports whether the image renders with the greyscale model.
func (r *RenderingSettings) Greyscale() bool {
	return r.Model == ModelGreyscale
}

// String renders the plain-text summary printed by "info".
func (r *RenderingSettings) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "rdefv%d: model=%s, z=%d, t=%d\n", 2, r.Model, r.DefaultZ, r.DefaultT)
	fmt.Fprintf(&sb, "tiles: %t\n", r.Tiles)
	for i, ch := range r.Channels {
		fmt.Fprintf(&sb, "ch%d: %s\n", i, ch.String())
	}
	return sb.String()
}

func (c ChannelInfo) String() string {
	return strings.Join([]string{
		"active=" + strconv.FormatBool(c.Active),
		"color=" + c.Color,
		"label=" + c.Label,
		"min=" + formatOptional(c.Min),
		"start=" + formatOptional(c.Start),
		"end=" + formatOptional(c.End),
		"max=" + formatOptional(c.Max),
	}, ",")
}

func formatOptional(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// ChannelUpdate is the state written to one channel. Nil fields keep the
// server's current value.
type ChannelUpdate struct {
	// Index is 1-based.
	Index  int
	Active bool
	Start  *float64
	End    *float64
	Color  *string
}

// RenderingUpdate is a complete rendering change for a single image.
type RenderingUpdate struct {
	Channels []ChannelUpdate
	// Model is ModelGreyscale, ModelColor or empty to keep the current one.
	Model string
	// DefaultZ and DefaultT are 1-based; nil keeps the current plane.
	DefaultZ *int
	DefaultT *int
}

// ChannelStats replaces the global min/max of one channel. Nil keeps the
// current bound.
type ChannelStats struct {
	// Index is 1-based.
	Index int
	Min   *float64
	Max   *float64
}
