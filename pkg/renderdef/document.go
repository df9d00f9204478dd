// Package renderdef reads and writes rendering settings documents: the
// YAML or JSON files accepted by "set" and produced by "info"/"get".
package renderdef

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the serialization of a settings document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromName picks the format from a file name; anything that is not
// ".json" is read as YAML.
func FormatFromName(name string) Format {
	if strings.EqualFold(filepath.Ext(name), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// ChannelSetting holds the settings of one channel. Nil fields are left
// untouched when the document is applied.
type ChannelSetting struct {
	// EmissionWave is informational and never applied.
	EmissionWave *float64
	Label        *string
	Color        *string
	Active       *bool
	Start        *float64
	End          *float64
	Min          *float64
	Max          *float64
}

// IsActive reports the active flag, which defaults to true.
func (c ChannelSetting) IsActive() bool {
	return c.Active == nil || *c.Active
}

// HasWindow reports whether the window start or end is set.
func (c ChannelSetting) HasWindow() bool {
	return c.Start != nil || c.End != nil
}

// HasStats reports whether min or max is set.
func (c ChannelSetting) HasStats() bool {
	return c.Min != nil || c.Max != nil
}

// Document is a parsed rendering settings document.
type Document struct {
	Version int
	// Channels is keyed by 1-based channel index.
	Channels  map[int]ChannelSetting
	Greyscale *bool
	// Z and T are 1-based default planes.
	Z *int
	T *int
}

// IndexedChannel pairs a channel setting with its 1-based index.
type IndexedChannel struct {
	Index int
	ChannelSetting
}

// SortedChannels returns the channels in ascending index order.
func (d *Document) SortedChannels() []IndexedChannel {
	out := make([]IndexedChannel, 0, len(d.Channels))
	for idx, ch := range d.Channels {
		out = append(out, IndexedChannel{Index: idx, ChannelSetting: ch})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Names returns the non-empty channel labels keyed by channel index.
func (d *Document) Names() map[int]string {
	names := make(map[int]string)
	for idx, ch := range d.Channels {
		if ch.Label != nil && *ch.Label != "" {
			names[idx] = *ch.Label
		}
	}
	return names
}

// Load reads and parses the document stored at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrUnreadable, path, err)
	}
	return Parse(data, FormatFromName(path))
}

// Parse decodes and validates a document.
func Parse(data []byte, format Format) (*Document, error) {
	raw, err := decodeRaw(data, format)
	if err != nil {
		return nil, err
	}

	if _, ok := raw["channels"]; !ok {
		return nil, ErrNoChannels
	}

	version, err := ResolveVersion(raw)
	if err != nil {
		return nil, err
	}

	if err := Validate(raw); err != nil {
		return nil, err
	}

	doc := &Document{
		Version:  version,
		Channels: make(map[int]ChannelSetting),
	}

	channels, _ := raw["channels"].(map[string]any)
	for key, value := range channels {
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 1 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidChannelIndex, key)
		}
		fields, _ := value.(map[string]any)
		ch, err := decodeChannel(fields, version)
		if err != nil {
			return nil, fmt.Errorf("%w %s: %v", ErrInvalidChannel, key, err)
		}
		doc.Channels[idx] = ch
	}

	if g, ok := raw["greyscale"].(bool); ok {
		doc.Greyscale = &g
	}
	if doc.Z, err = decodePlane(raw, "z"); err != nil {
		return nil, err
	}
	if doc.T, err = decodePlane(raw, "t"); err != nil {
		return nil, err
	}

	return doc, nil
}

// decodeRaw returns the document in JSON shape: string keys everywhere and
// json.Number for numbers, whatever the input format.
func decodeRaw(data []byte, format Format) (map[string]any, error) {
	var v any
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
	default:
		var y any
		if err := yaml.Unmarshal(data, &y); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
		normalized, err := toJSONShape(y)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
		keepNonIntVersion(y, normalized)
		v = normalized
	}

	raw, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top level is not a mapping", ErrUnreadable)
	}
	return raw, nil
}

// keepNonIntVersion restores a YAML version that was not decoded as an
// integer. The JSON round trip would otherwise turn 2.0 into the number 2.
func keepNonIntVersion(decoded, normalized any) {
	top, ok := decoded.(map[string]any)
	if !ok {
		return
	}
	version, ok := top["version"]
	if !ok {
		return
	}
	if _, isInt := version.(int); isInt {
		return
	}
	if out, ok := normalized.(map[string]any); ok {
		out["version"] = version
	}
}

// toJSONShape round-trips YAML values through JSON so that integer map keys
// become strings and numbers become json.Number.
func toJSONShape(v any) (any, error) {
	b, err := json.Marshal(stringKeys(v))
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func stringKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = stringKeys(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = stringKeys(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = stringKeys(val)
		}
		return out
	}
	return v
}

func decodeChannel(fields map[string]any, version int) (ChannelSetting, error) {
	var ch ChannelSetting

	switch l := fields["label"].(type) {
	case string:
		ch.Label = &l
	case json.Number:
		s := l.String()
		ch.Label = &s
	}
	if c, ok := fields["color"].(string); ok {
		ch.Color = &c
	}
	active := true
	if a, ok := fields["active"].(bool); ok {
		active = a
	}
	ch.Active = &active

	var err error
	if ch.Min, err = optionalFloat(fields, "min"); err != nil {
		return ch, err
	}
	if ch.Max, err = optionalFloat(fields, "max"); err != nil {
		return ch, err
	}
	if version > 1 {
		if ch.Start, err = optionalFloat(fields, "start"); err != nil {
			return ch, err
		}
		if ch.End, err = optionalFloat(fields, "end"); err != nil {
			return ch, err
		}
	} else {
		ch.Start = ch.Min
		ch.End = ch.Max
	}
	return ch, nil
}

func optionalFloat(fields map[string]any, key string) (*float64, error) {
	v, ok := fields[key]
	if !ok {
		return nil, nil
	}
	n, ok := v.(json.Number)
	if !ok {
		return nil, fmt.Errorf("%s is not a number: %v", key, v)
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &f, nil
}

func decodePlane(raw map[string]any, key string) (*int, error) {
	v, ok := raw[key]
	if !ok {
		return nil, nil
	}
	n, ok := v.(json.Number)
	if !ok {
		return nil, fmt.Errorf("%w %s: %v", ErrInvalidPlane, strings.ToUpper(key), v)
	}
	f, err := n.Float64()
	if err != nil || f < 1 || f != math.Trunc(f) {
		return nil, fmt.Errorf("%w %s: %v", ErrInvalidPlane, strings.ToUpper(key), v)
	}
	plane := int(f)
	return &plane, nil
}
