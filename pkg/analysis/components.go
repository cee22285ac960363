package analysis

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/vanderheijden86/keyspan/pkg/interval"
)

// Components partitions spans into overlap-connected components using the
// pairwise overlap graph. Unlike the manager's sweep, this builds the
// graph explicitly and asks gonum for its connected components, which
// makes it an independent check on the manager's group partition.
//
// Each returned component is sorted by ID; components are ordered by
// their first ID. IDs map is keyed by opaque interval identity.
func Components(spans map[string]interval.Span) [][]string {
	if len(spans) == 0 {
		return nil
	}

	ids := make([]string, 0, len(spans))
	for id := range spans {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	g := simple.NewUndirectedGraph()
	nodeFor := make(map[string]int64, len(ids))
	idFor := make(map[int64]string, len(ids))
	for i, id := range ids {
		nid := int64(i)
		nodeFor[id] = nid
		idFor[nid] = id
		g.AddNode(simple.Node(nid))
	}

	for i, a := range ids {
		for _, b := range ids[i+1:] {
			if spans[a].Overlaps(spans[b]) {
				g.SetEdge(g.NewEdge(simple.Node(nodeFor[a]), simple.Node(nodeFor[b])))
			}
		}
	}

	var out [][]string
	for _, comp := range topo.ConnectedComponents(g) {
		part := make([]string, 0, len(comp))
		for _, n := range comp {
			part = append(part, idFor[n.ID()])
		}
		sort.Strings(part)
		out = append(out, part)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// Connected reports whether all spans form a single overlap-connected
// component. Empty input counts as connected.
func Connected(spans map[string]interval.Span) bool {
	return len(Components(spans)) <= 1
}
