// Package testutil provides shared helpers for generating zone data and
// checking structural invariants in tests.
package testutil

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/vanderheijden86/keyspan/pkg/interval"
	"github.com/vanderheijden86/keyspan/pkg/zones"
)

// RandomSpan returns a valid span with width at most maxWidth
func RandomSpan(rng *rand.Rand, maxWidth int) interval.Span {
	if maxWidth < 1 {
		maxWidth = 1
	}
	start := rng.Intn(interval.MaxNote + 1)
	width := rng.Intn(maxWidth)
	end := start + width
	if end > interval.MaxNote {
		end = interval.MaxNote
	}
	return interval.Span{Start: start, End: end}
}

// RandomSpans returns n valid spans keyed by generated IDs
func RandomSpans(rng *rand.Rand, n, maxWidth int) map[string]interval.Span {
	spans := make(map[string]interval.Span, n)
	for i := 0; i < n; i++ {
		spans[fmt.Sprintf("iv-%d", i)] = RandomSpan(rng, maxWidth)
	}
	return spans
}

// RandomSet returns a zone set with n randomly ranged zones
func RandomSet(rng *rand.Rand, n int) *zones.Set {
	set := &zones.Set{Name: "random"}
	for i := 0; i < n; i++ {
		span := RandomSpan(rng, 24)
		set.Zones = append(set.Zones, zones.Zone{
			ID:   fmt.Sprintf("zone-%d", i),
			Name: fmt.Sprintf("Zone %d", i),
			Low:  span.Start,
			High: span.End,
		})
	}
	return set
}

// PopulatedManager builds a manager containing the given spans, inserted
// in sorted ID order for reproducibility.
func PopulatedManager(spans map[string]interval.Span) (*interval.Manager, error) {
	m := interval.NewManager()
	ids := make([]string, 0, len(spans))
	for id := range spans {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := m.Insert(id, spans[id]); err != nil {
			return nil, fmt.Errorf("insert %s: %w", id, err)
		}
	}
	return m, nil
}
