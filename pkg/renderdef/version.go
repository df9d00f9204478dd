package renderdef

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// CurrentVersion is the newest revision of the settings format. Version 1
// used min/max for the rendering window; version 2 uses start/end and keeps
// min/max for channel statistics.
const CurrentVersion = 2

// ResolveVersion returns the format revision of a decoded document. An
// explicit "version" must be an integer between 1 and CurrentVersion.
// Without one, the window field family used by the channels decides, and a
// document mixing start/end with min/max is rejected.
func ResolveVersion(raw map[string]any) (int, error) {
	if v, ok := raw["version"]; ok {
		n, ok := asInt(v)
		if !ok || n < 1 || n > CurrentVersion {
			return 0, fmt.Errorf("%w: version %v", ErrUnknownVersion, v)
		}
		return n, nil
	}

	channels, ok := raw["channels"].(map[string]any)
	if !ok {
		return CurrentVersion, nil
	}

	var sawWindow, sawMinMax bool
	for _, key := range sortedChannelKeys(channels) {
		ch, ok := channels[key].(map[string]any)
		if !ok {
			continue
		}
		window := hasAny(ch, "start", "end")
		minmax := hasAny(ch, "min", "max")
		if window && minmax {
			return 0, fmt.Errorf("%w: channel %s", ErrUnknownVersion, key)
		}
		sawWindow = sawWindow || window
		sawMinMax = sawMinMax || minmax
	}

	switch {
	case sawWindow && sawMinMax:
		return 0, ErrUnknownVersion
	case sawWindow:
		return 2, nil
	case sawMinMax:
		return 1, nil
	}
	return CurrentVersion, nil
}

func hasAny(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

// sortedChannelKeys orders numeric keys numerically and puts anything else
// last, in lexical order.
func sortedChannelKeys(channels map[string]any) []string {
	keys := make([]string, 0, len(channels))
	for k := range channels {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return keys[i] < keys[j]
	})
	return keys
}

func asInt(v any) (int, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(n.String())
	if err != nil {
		return 0, false
	}
	return i, true
}
