package testutil

import (
	"github.com/vanderheijden86/keyspan/pkg/analysis"
	"github.com/vanderheijden86/keyspan/pkg/interval"
)

// TB is the subset of testing.TB the invariant checks need. Both
// *testing.T and *rapid.T satisfy it.
type TB interface {
	Helper()
	Errorf(format string, args ...any)
	Fatalf(format string, args ...any)
}

// CheckInvariants verifies the structural invariants of a manager:
// every interval belongs to exactly one group, groups match the
// overlap-connected components of the tracked spans, each layer is an
// ordered non-overlapping chain, and every group uses the minimum
// number of layers.
func CheckInvariants(t TB, m *interval.Manager) {
	t.Helper()

	groups := m.Groups()

	// Collect all tracked spans and check membership is a partition.
	seen := make(map[string]int)
	all := make(map[string]interval.Span)
	for _, g := range groups {
		for _, id := range g.Members {
			seen[id]++
			span, ok := m.Span(id)
			if !ok {
				t.Fatalf("group %d member %q has no tracked span", g.ID, id)
			}
			all[id] = span
		}
	}
	for id, count := range seen {
		if count != 1 {
			t.Errorf("interval %q appears in %d groups, want 1", id, count)
		}
	}
	if len(all) != m.Len() {
		t.Errorf("groups cover %d intervals, manager tracks %d", len(all), m.Len())
	}

	// Groups must match the overlap-connected components.
	components := analysis.Components(all)
	if len(components) != len(groups) {
		t.Errorf("got %d groups, want %d connected components", len(groups), len(components))
	}
	groupOf := make(map[string]int)
	for _, g := range groups {
		for _, id := range g.Members {
			groupOf[id] = g.ID
		}
	}
	for _, comp := range components {
		gid := groupOf[comp[0]]
		for _, id := range comp[1:] {
			if groupOf[id] != gid {
				t.Errorf("intervals %q and %q are overlap-connected but in different groups", comp[0], id)
			}
		}
	}

	for _, g := range groups {
		checkGroupLayers(t, m, g)
	}
}

func checkGroupLayers(t TB, m *interval.Manager, g interval.GroupSnapshot) {
	t.Helper()

	// Every member appears in exactly one layer.
	inLayer := make(map[string]int)
	for _, layer := range g.Layers {
		if len(layer) == 0 {
			t.Errorf("group %d has an empty layer", g.ID)
		}
		for _, id := range layer {
			inLayer[id]++
		}
	}
	for _, id := range g.Members {
		if inLayer[id] != 1 {
			t.Errorf("group %d: interval %q appears in %d layers, want 1", g.ID, id, inLayer[id])
		}
	}

	// Within a layer, spans are ordered by start with a strict gap.
	spans := make([]interval.Span, 0, len(g.Members))
	for _, layer := range g.Layers {
		var prev interval.Span
		for i, id := range layer {
			span, ok := m.Span(id)
			if !ok {
				t.Fatalf("group %d layer member %q is not tracked", g.ID, id)
			}
			if i > 0 && span.Start <= prev.End {
				t.Errorf("group %d: layer members %v overlap at %q (start %d <= prev end %d)",
					g.ID, layer, id, span.Start, prev.End)
			}
			prev = span
		}
	}
	for _, id := range g.Members {
		span, _ := m.Span(id)
		spans = append(spans, span)
	}

	// Layer count matches maximum overlap depth.
	if want := analysis.MaxOverlapDepth(spans); len(g.Layers) != want {
		t.Errorf("group %d uses %d layers, want %d (max overlap depth)", g.ID, len(g.Layers), want)
	}

	// Placements agree with the snapshot.
	for li, layer := range g.Layers {
		for _, id := range layer {
			p, err := m.Placement(id)
			if err != nil {
				t.Fatalf("placement for %q: %v", id, err)
			}
			if p.GroupID != g.ID || p.LayerIndex != li || p.LayerCount != len(g.Layers) {
				t.Errorf("placement for %q = {group %d, layer %d/%d}, want {group %d, layer %d/%d}",
					id, p.GroupID, p.LayerIndex, p.LayerCount, g.ID, li, len(g.Layers))
			}
		}
	}
}
