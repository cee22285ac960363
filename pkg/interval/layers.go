package interval

import (
	"sort"

	"github.com/vanderheijden86/keyspan/pkg/metrics"
)

// computeLayers assigns a group's members to the minimum number of
// non-overlapping layers. Members are taken in ascending start order
// (ties by arrival order, stable); each pass seeds a layer with the first
// unplaced member and greedily appends every later unplaced member whose
// start lies strictly past the layer's last end. The greedy sorted sweep
// is the classical optimal coloring for interval graphs, so the pass
// count equals the group's maximum overlap depth.
func (m *Manager) computeLayers(ids []string) [][]string {
	defer metrics.Timer(metrics.LayerCompute)()

	pool := append([]string(nil), ids...)
	sort.SliceStable(pool, func(i, j int) bool {
		a, b := m.intervals[pool[i]], m.intervals[pool[j]]
		if a.span.Start != b.span.Start {
			return a.span.Start < b.span.Start
		}
		return a.arrival < b.arrival
	})

	var layers [][]string
	for len(pool) > 0 {
		layer := []string{pool[0]}
		lastEnd := m.intervals[pool[0]].span.End
		var rest []string
		for _, id := range pool[1:] {
			span := m.intervals[id].span
			if span.Start > lastEnd {
				layer = append(layer, id)
				lastEnd = span.End
			} else {
				rest = append(rest, id)
			}
		}
		layers = append(layers, layer)
		pool = rest
	}
	return layers
}

// RowHeights splits an available pixel height into count integer rows.
// Every row gets the floor share; the last (bottom-most) row absorbs the
// rounding remainder so the rows sum exactly to total.
func RowHeights(total, count int) []int {
	if count <= 0 || total <= 0 {
		return nil
	}
	rows := make([]int, count)
	base := total / count
	for i := range rows {
		rows[i] = base
	}
	rows[count-1] = total - base*(count-1)
	return rows
}
