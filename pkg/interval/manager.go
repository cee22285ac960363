package interval

import (
	"fmt"
	"sort"

	"github.com/vanderheijden86/keyspan/pkg/debug"
	"github.com/vanderheijden86/keyspan/pkg/metrics"
)

// tracked is the manager's record of one interval.
type tracked struct {
	span    Span
	arrival int // original insertion order, used as the stable layer tie-break
}

// group is a maximal overlap-connected cluster of tracked intervals.
// bounds and layers are caches, refreshed whenever membership or geometry
// changes; they are never read while stale.
type group struct {
	bounds  Span
	members []string   // interval IDs in arrival order
	layers  [][]string // layer index -> interval IDs, left-to-right
	layerOf map[string]int
}

// Placement is what a renderer needs for one interval: its bounds for the
// horizontal slot and its layer position for the vertical slot.
type Placement struct {
	Span       Span
	GroupID    int
	LayerIndex int
	LayerCount int
}

// GroupSnapshot is a read-only copy of one group's state.
type GroupSnapshot struct {
	ID      int
	Bounds  Span
	Members []string
	Layers  [][]string
}

// Manager owns the partition of tracked intervals into overlap-connected
// groups and the layer assignment within each group. It is the sole
// mutator of group membership; interval lifecycle belongs to the caller,
// which reports changes via Insert, Remove and Update.
//
// The manager has no internal locking: it expects a single logical caller
// (see the package comment). Embeddings with multiple callers must
// serialize access externally.
type Manager struct {
	groups    map[int]*group
	byID      map[string]int // interval ID -> group ID
	intervals map[string]*tracked
	nextGroup int
	nextSeq   int
}

// NewManager returns an empty manager.
func NewManager() *Manager {
	return &Manager{
		groups:    make(map[int]*group),
		byID:      make(map[string]int),
		intervals: make(map[string]*tracked),
	}
}

// Len returns the number of tracked intervals.
func (m *Manager) Len() int {
	return len(m.intervals)
}

// GroupCount returns the number of groups.
func (m *Manager) GroupCount() int {
	return len(m.groups)
}

// Contains reports whether the interval is currently tracked.
func (m *Manager) Contains(id string) bool {
	_, ok := m.byID[id]
	return ok
}

// Span returns the current bounds of a tracked interval.
func (m *Manager) Span(id string) (Span, bool) {
	t, ok := m.intervals[id]
	if !ok {
		return Span{}, false
	}
	return t.span, true
}

// Insert starts tracking a new interval. It joins the first group whose
// aggregate bounds overlap the span, merging any further groups the grown
// bounds now reach, or becomes a singleton group when nothing overlaps.
// The touched group's layer assignment is fresh on return.
func (m *Manager) Insert(id string, span Span) error {
	if err := validateSpan(span); err != nil {
		return err
	}
	if _, ok := m.byID[id]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateInterval, id)
	}

	m.intervals[id] = &tracked{span: span, arrival: m.nextSeq}
	m.nextSeq++
	m.place(id)
	return nil
}

// Remove stops tracking an interval. Its former group is discarded when
// empty, split into freshly layered components when the removal
// disconnected it, and simply re-layered otherwise.
func (m *Manager) Remove(id string) error {
	gid, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownInterval, id)
	}
	m.detach(id, gid)
	delete(m.intervals, id)
	return nil
}

// Update re-places an interval after its bounds changed: it leaves its
// previous group (possibly splitting it), re-enters the collection with
// the new bounds, and cascading merges restore the partition invariant.
// Validation happens before any mutation, so a failed Update leaves the
// manager exactly as it was.
func (m *Manager) Update(id string, span Span) error {
	defer metrics.Timer(metrics.ManagerUpdate)()

	if err := validateSpan(span); err != nil {
		return err
	}
	gid, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownInterval, id)
	}

	m.detach(id, gid)
	m.intervals[id].span = span // arrival order survives mutation
	m.place(id)
	return nil
}

// Placement returns the interval's bounds and layer position.
func (m *Manager) Placement(id string) (Placement, error) {
	gid, ok := m.byID[id]
	if !ok {
		return Placement{}, fmt.Errorf("%w: %q", ErrUnknownInterval, id)
	}
	g := m.groups[gid]
	return Placement{
		Span:       m.intervals[id].span,
		GroupID:    gid,
		LayerIndex: g.layerOf[id],
		LayerCount: len(g.layers),
	}, nil
}

// Groups returns snapshots of all groups, ordered by aggregate start
// (ties by group ID) for deterministic output.
func (m *Manager) Groups() []GroupSnapshot {
	out := make([]GroupSnapshot, 0, len(m.groups))
	for gid, g := range m.groups {
		snap := GroupSnapshot{
			ID:      gid,
			Bounds:  g.bounds,
			Members: append([]string(nil), g.members...),
			Layers:  make([][]string, len(g.layers)),
		}
		for i, layer := range g.layers {
			snap.Layers[i] = append([]string(nil), layer...)
		}
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Bounds.Start != out[j].Bounds.Start {
			return out[i].Bounds.Start < out[j].Bounds.Start
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// validateSpan rejects degenerate or off-axis spans at the boundary.
func validateSpan(span Span) error {
	if span.Start > span.End {
		return fmt.Errorf("%w: %s", ErrInvalidSpan, span)
	}
	if span.Start < MinNote || span.End > MaxNote {
		return fmt.Errorf("%w: %s", ErrOutOfRange, span)
	}
	return nil
}

// place attaches an already-registered interval to the group structure:
// join the first bounds-overlapping group or found a singleton, then
// cascade merges and refresh the target's layers.
func (m *Manager) place(id string) {
	span := m.intervals[id].span

	target := -1
	for gid, g := range m.groups {
		if g.bounds.Overlaps(span) {
			target = gid
			break
		}
	}

	if target == -1 {
		target = m.nextGroup
		m.nextGroup++
		m.groups[target] = &group{bounds: span}
	} else {
		g := m.groups[target]
		g.bounds = g.bounds.Union(span)
	}

	g := m.groups[target]
	g.members = append(g.members, id)
	m.byID[id] = target

	m.mergeCascade(target)
	m.relayer(target)
}

// mergeCascade absorbs every group whose aggregate bounds overlap the
// target's. Each merge grows the target's bounds, which may bring further
// groups into reach, so the scan repeats until a pass finds nothing.
func (m *Manager) mergeCascade(target int) {
	for {
		merged := false
		for gid, g := range m.groups {
			if gid == target {
				continue
			}
			if !g.bounds.Overlaps(m.groups[target].bounds) {
				continue
			}
			t := m.groups[target]
			t.bounds = t.bounds.Union(g.bounds)
			t.members = append(t.members, g.members...)
			m.sortByArrival(t.members)
			for _, id := range g.members {
				m.byID[id] = target
			}
			delete(m.groups, gid)
			debug.Log("merged group %d into %d, bounds now %s", gid, target, t.bounds)
			merged = true
			break
		}
		if !merged {
			return
		}
	}
}

// detach removes the interval from its group and restores the partition:
// discard an emptied group, split a disconnected one, re-layer otherwise.
// The interval itself stays registered; Remove and Update decide its fate.
func (m *Manager) detach(id string, gid int) {
	g := m.groups[gid]
	for i, member := range g.members {
		if member == id {
			g.members = append(g.members[:i], g.members[i+1:]...)
			break
		}
	}
	delete(m.byID, id)

	if len(g.members) == 0 {
		delete(m.groups, gid)
		return
	}

	parts := m.components(g.members)
	if len(parts) == 1 {
		g.bounds = m.coverage(g.members)
		m.relayer(gid)
		return
	}

	defer metrics.Timer(metrics.GroupSplit)()
	debug.Log("group %d split into %d components after removing %q", gid, len(parts), id)

	// First component keeps the group ID; the rest become new groups.
	for i, part := range parts {
		pid := gid
		if i > 0 {
			pid = m.nextGroup
			m.nextGroup++
			m.groups[pid] = &group{}
		}
		pg := m.groups[pid]
		pg.members = part
		m.sortByArrival(pg.members)
		pg.bounds = m.coverage(part)
		for _, member := range part {
			m.byID[member] = pid
		}
		m.relayer(pid)
	}
}

// sortByArrival restores insertion order after a merge or split has
// rearranged a member list, keeping group.members true to its contract.
func (m *Manager) sortByArrival(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		return m.intervals[ids[i]].arrival < m.intervals[ids[j]].arrival
	})
}

// components partitions member IDs into overlap-connected components.
// For one-dimensional intervals a single sweep suffices: sorted by start,
// a new component begins exactly where a span starts strictly past the
// running maximum end.
func (m *Manager) components(ids []string) [][]string {
	sorted := append([]string(nil), ids...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := m.intervals[sorted[i]], m.intervals[sorted[j]]
		if a.span.Start != b.span.Start {
			return a.span.Start < b.span.Start
		}
		return a.arrival < b.arrival
	})

	var parts [][]string
	var current []string
	maxEnd := 0
	for i, id := range sorted {
		span := m.intervals[id].span
		if i == 0 || span.Start <= maxEnd {
			current = append(current, id)
		} else {
			parts = append(parts, current)
			current = []string{id}
		}
		if i == 0 || span.End > maxEnd {
			maxEnd = span.End
		}
	}
	if len(current) > 0 {
		parts = append(parts, current)
	}
	return parts
}

// coverage recomputes aggregate bounds from member spans.
func (m *Manager) coverage(ids []string) Span {
	bounds := m.intervals[ids[0]].span
	for _, id := range ids[1:] {
		bounds = bounds.Union(m.intervals[id].span)
	}
	return bounds
}

// relayer refreshes a group's cached layer assignment.
func (m *Manager) relayer(gid int) {
	g := m.groups[gid]
	g.layers = m.computeLayers(g.members)
	if g.layerOf == nil {
		g.layerOf = make(map[string]int, len(g.members))
	} else {
		clear(g.layerOf)
	}
	for idx, layer := range g.layers {
		for _, id := range layer {
			g.layerOf[id] = idx
		}
	}
}
