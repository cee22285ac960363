// Package interval maintains overlap-connected groups of key-range spans
// and their stacked layer assignments.
//
// A Span is an inclusive integer note range on the 0..127 axis. The
// Manager partitions tracked spans into maximal overlap-connected groups
// and, within each group, assigns spans to the minimum number of
// non-overlapping layers. All maintenance is incremental: moving or
// resizing one span only touches the groups in its neighbourhood instead
// of recomputing the whole collection, which keeps per-gesture cost small
// when bounds change at drag-tick frequency.
package interval

import (
	"errors"
	"fmt"
)

// Note axis bounds. The axis is the 128-note MIDI range.
const (
	MinNote = 0
	MaxNote = 127
)

// Common errors.
var (
	ErrInvalidSpan       = errors.New("invalid span: start must not exceed end")
	ErrOutOfRange        = errors.New("span out of note range")
	ErrUnknownInterval   = errors.New("unknown interval")
	ErrDuplicateInterval = errors.New("interval already tracked")
)

// Span is an inclusive note range [Start, End] with Start <= End.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// NewSpan validates bounds and returns the span. The manager assumes
// Start <= End for every span it is handed; violations are rejected here,
// at the boundary, rather than repaired.
func NewSpan(start, end int) (Span, error) {
	s := Span{Start: start, End: end}
	if start > end {
		return s, fmt.Errorf("%w: [%d, %d]", ErrInvalidSpan, start, end)
	}
	if start < MinNote || end > MaxNote {
		return s, fmt.Errorf("%w: [%d, %d] outside [%d, %d]", ErrOutOfRange, start, end, MinNote, MaxNote)
	}
	return s, nil
}

// Valid reports whether the span satisfies the Start <= End invariant and
// lies on the note axis.
func (s Span) Valid() bool {
	return s.Start <= s.End && s.Start >= MinNote && s.End <= MaxNote
}

// Overlaps reports whether two spans overlap: neither is strictly before
// the other. Touching endpoints count as overlapping, since inclusive
// ranges sharing an endpoint share that note.
func (s Span) Overlaps(o Span) bool {
	return s.End >= o.Start && o.End >= s.Start
}

// Width returns the number of notes the span covers.
func (s Span) Width() int {
	return s.End - s.Start + 1
}

// Union returns the smallest span covering both s and o.
func (s Span) Union(o Span) Span {
	u := s
	if o.Start < u.Start {
		u.Start = o.Start
	}
	if o.End > u.End {
		u.End = o.End
	}
	return u
}

// String returns the span in "[start, end]" form.
func (s Span) String() string {
	return fmt.Sprintf("[%d, %d]", s.Start, s.End)
}
