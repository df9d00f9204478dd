package renderdef

import (
	"fmt"
	"strings"
)

// Range is an optional pair of bounds; either end may be nil.
type Range struct {
	Low  *float64
	High *float64
}

// ChannelPlan is a document flattened into the per-channel changes it asks
// for. All maps are keyed by 1-based channel index.
type ChannelPlan struct {
	// Names holds the non-empty labels.
	Names map[int]string
	// Active lists every channel in ascending order, negated when the
	// document deactivates it.
	Active []int
	// Windows and Colors only hold active channels.
	Windows map[int]Range
	Colors  map[int]string
	// Stats holds min/max for every channel that sets either.
	Stats map[int]Range
}

// Plan flattens the document.
func (d *Document) Plan() ChannelPlan {
	plan := ChannelPlan{
		Names:   d.Names(),
		Windows: make(map[int]Range),
		Colors:  make(map[int]string),
		Stats:   make(map[int]Range),
	}
	for _, ch := range d.SortedChannels() {
		if ch.HasStats() {
			plan.Stats[ch.Index] = Range{Low: ch.Min, High: ch.Max}
		}
		if !ch.IsActive() {
			plan.Active = append(plan.Active, -ch.Index)
			continue
		}
		plan.Active = append(plan.Active, ch.Index)
		if ch.HasWindow() {
			plan.Windows[ch.Index] = Range{Low: ch.Start, High: ch.End}
		}
		if ch.Color != nil {
			plan.Colors[ch.Index] = *ch.Color
		}
	}
	return plan
}

// Deactivated reports whether the plan explicitly turns channel idx off.
func (p ChannelPlan) Deactivated(idx int) bool {
	for _, a := range p.Active {
		if a == -idx {
			return true
		}
	}
	return false
}

// Activated reports whether the plan explicitly turns channel idx on.
func (p ChannelPlan) Activated(idx int) bool {
	for _, a := range p.Active {
		if a == idx {
			return true
		}
	}
	return false
}

// ValidatePlanes checks that the default planes are 1-based.
func (d *Document) ValidatePlanes() error {
	for key, plane := range map[string]*int{"z": d.Z, "t": d.T} {
		if plane != nil && *plane < 1 {
			return fmt.Errorf("%w %s: %d", ErrInvalidPlane, strings.ToUpper(key), *plane)
		}
	}
	return nil
}
