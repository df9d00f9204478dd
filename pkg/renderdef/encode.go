package renderdef

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Map returns the document as the generic structure written by Encode. Keys
// match the ones Parse accepts, so the output can be fed back to "set".
func (d *Document) Map() map[string]any {
	channels := make(channelMap, len(d.Channels))
	for idx, ch := range d.Channels {
		channels[idx] = ch.Map()
	}

	m := map[string]any{
		"version":  d.Version,
		"channels": channels,
	}
	if d.Greyscale != nil {
		m["greyscale"] = *d.Greyscale
	}
	if d.Z != nil {
		m["z"] = *d.Z
	}
	if d.T != nil {
		m["t"] = *d.T
	}
	return m
}

// channelMap encodes to JSON with channel indices in numeric order.
type channelMap map[int]any

func (m channelMap) MarshalJSON() ([]byte, error) {
	keys := slices.Sorted(maps.Keys(m))

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		v, err := json.Marshal(m[k])
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, "%q:", strconv.Itoa(k))
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Map returns the set fields of the channel.
func (c ChannelSetting) Map() map[string]any {
	m := make(map[string]any)
	if c.Label != nil {
		m["label"] = *c.Label
	}
	if c.Color != nil {
		m["color"] = *c.Color
	}
	if c.Min != nil {
		m["min"] = *c.Min
	}
	if c.Max != nil {
		m["max"] = *c.Max
	}
	if c.Start != nil {
		m["start"] = *c.Start
	}
	if c.End != nil {
		m["end"] = *c.End
	}
	if c.Active != nil {
		m["active"] = *c.Active
	}
	return m
}

// Encode serializes the document. JSON output has sorted keys and a 4-space
// indent; YAML output starts with an explicit document marker.
func (d *Document) Encode(format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		b, err := json.MarshalIndent(d.Map(), "", "    ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode json: %w", err)
		}
		return b, nil
	case FormatYAML:
		var buf bytes.Buffer
		buf.WriteString("---\n")
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(4)
		if err := enc.Encode(d.Map()); err != nil {
			return nil, fmt.Errorf("failed to encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode yaml: %w", err)
		}
		return []byte(strings.TrimRight(buf.String(), "\n")), nil
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}
