// Package zones models sampler key zones: named, colored, inclusive note
// ranges assigned to sampler instances. Zones own their lifecycle; the
// layout manager in pkg/interval only learns about them through
// Insert/Remove/Update notifications, and the manager state is rebuilt by
// replaying Insert whenever a bank is re-scanned.
package zones

import (
	"errors"
	"fmt"

	"github.com/vanderheijden86/keyspan/pkg/interval"
)

// Common errors.
var (
	ErrDuplicateZoneID = errors.New("duplicate zone id")
	ErrEmptyBank       = errors.New("zone bank is empty")
)

// Zone is one sampler key zone.
type Zone struct {
	ID         string `json:"id" yaml:"id"`                                       // stable identity, survives range edits
	Name       string `json:"name" yaml:"name"`                                   // display name, usually the sample name
	Instrument string `json:"instrument,omitempty" yaml:"instrument,omitempty"`   // sampler instance the zone belongs to
	Low        int    `json:"low" yaml:"low"`                                     // lowest note, inclusive
	High       int    `json:"high" yaml:"high"`                                   // highest note, inclusive
	Color      string `json:"color,omitempty" yaml:"color,omitempty"`             // "#rrggbb" track color
}

// Span returns the zone's note range as an interval span.
func (z Zone) Span() interval.Span {
	return interval.Span{Start: z.Low, End: z.High}
}

// Validate rejects degenerate or off-axis ranges at the boundary, per the
// contract with the layout manager.
func (z Zone) Validate() error {
	if _, err := interval.NewSpan(z.Low, z.High); err != nil {
		return fmt.Errorf("zone %q: %w", z.ID, err)
	}
	return nil
}

// Label returns the zone's display name, falling back to its ID.
func (z Zone) Label() string {
	if z.Name != "" {
		return z.Name
	}
	return z.ID
}

// Set is an ordered collection of zones, typically one bank file.
type Set struct {
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Zones []Zone `json:"zones" yaml:"zones"`
}

// Validate checks every zone and ID uniqueness. Zones without an ID get a
// positional one assigned, mirroring how the original sampler identified
// instances by index.
func (s *Set) Validate() error {
	seen := make(map[string]bool, len(s.Zones))
	for i := range s.Zones {
		z := &s.Zones[i]
		if z.ID == "" {
			z.ID = fmt.Sprintf("zone-%d", i)
		}
		if seen[z.ID] {
			return fmt.Errorf("%w: %q", ErrDuplicateZoneID, z.ID)
		}
		seen[z.ID] = true
		if err := z.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Find returns the zone with the given ID, or nil.
func (s *Set) Find(id string) *Zone {
	for i := range s.Zones {
		if s.Zones[i].ID == id {
			return &s.Zones[i]
		}
	}
	return nil
}

// BuildManager rebuilds layout state for the set by replaying Insert for
// every zone. The set must have been validated.
func BuildManager(s *Set) (*interval.Manager, error) {
	m := interval.NewManager()
	for _, z := range s.Zones {
		if err := m.Insert(z.ID, z.Span()); err != nil {
			return nil, fmt.Errorf("placing zone %q: %w", z.ID, err)
		}
	}
	return m, nil
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName returns the conventional name for a MIDI note number, with
// C4 = 60 (so note 0 is "C-1", matching the original piano roll labels).
func NoteName(n int) string {
	if n < interval.MinNote || n > interval.MaxNote {
		return fmt.Sprintf("?%d", n)
	}
	return fmt.Sprintf("%s%d", noteNames[n%12], n/12-1)
}

// IsBlackKey reports whether the note is a black piano key.
func IsBlackKey(n int) bool {
	switch n % 12 {
	case 1, 3, 6, 8, 10:
		return true
	}
	return false
}

// RangeLabel formats a zone range like "C1..E3".
func RangeLabel(s interval.Span) string {
	return fmt.Sprintf("%s..%s", NoteName(s.Start), NoteName(s.End))
}
