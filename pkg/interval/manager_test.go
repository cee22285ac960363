package interval_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/vanderheijden86/keyspan/pkg/interval"
	"github.com/vanderheijden86/keyspan/pkg/testutil"
)

func mustInsert(t *testing.T, m *interval.Manager, id string, start, end int) {
	t.Helper()
	if err := m.Insert(id, interval.Span{Start: start, End: end}); err != nil {
		t.Fatalf("Insert(%q, [%d, %d]): %v", id, start, end, err)
	}
}

func TestInsertDisjointSpans(t *testing.T) {
	m := interval.NewManager()
	mustInsert(t, m, "low", 0, 20)
	mustInsert(t, m, "mid", 40, 60)
	mustInsert(t, m, "high", 100, 127)

	if m.Len() != 3 {
		t.Errorf("Len() = %d, want 3", m.Len())
	}
	if m.GroupCount() != 3 {
		t.Errorf("GroupCount() = %d, want 3", m.GroupCount())
	}
	for _, id := range []string{"low", "mid", "high"} {
		p, err := m.Placement(id)
		if err != nil {
			t.Fatalf("Placement(%q): %v", id, err)
		}
		if p.LayerIndex != 0 || p.LayerCount != 1 {
			t.Errorf("Placement(%q) layer = %d/%d, want 0/1", id, p.LayerIndex, p.LayerCount)
		}
	}
	testutil.CheckInvariants(t, m)
}

func TestInsertOverlappingSpansStack(t *testing.T) {
	m := interval.NewManager()
	mustInsert(t, m, "a", 10, 30)
	mustInsert(t, m, "b", 20, 40)
	mustInsert(t, m, "c", 25, 35)

	if m.GroupCount() != 1 {
		t.Fatalf("GroupCount() = %d, want 1", m.GroupCount())
	}
	groups := m.Groups()
	if got := groups[0].Bounds; got != (interval.Span{Start: 10, End: 40}) {
		t.Errorf("Bounds = %s, want [10, 40]", got)
	}
	// All three share note 25..30, so each needs its own layer.
	if got := len(groups[0].Layers); got != 3 {
		t.Errorf("layer count = %d, want 3", got)
	}
	testutil.CheckInvariants(t, m)
}

func TestInsertBridgeMergesGroups(t *testing.T) {
	m := interval.NewManager()
	mustInsert(t, m, "left", 0, 20)
	mustInsert(t, m, "right", 50, 70)
	if m.GroupCount() != 2 {
		t.Fatalf("GroupCount() = %d, want 2", m.GroupCount())
	}

	// Spans both existing groups.
	mustInsert(t, m, "bridge", 15, 55)
	if m.GroupCount() != 1 {
		t.Fatalf("GroupCount() after bridge = %d, want 1", m.GroupCount())
	}
	groups := m.Groups()
	if got := groups[0].Bounds; got != (interval.Span{Start: 0, End: 70}) {
		t.Errorf("merged Bounds = %s, want [0, 70]", got)
	}
	testutil.CheckInvariants(t, m)
}

func TestInsertCascadingMerge(t *testing.T) {
	m := interval.NewManager()
	// Chain of groups that only connect through successive unions.
	mustInsert(t, m, "g1", 0, 10)
	mustInsert(t, m, "g2", 20, 30)
	mustInsert(t, m, "g3", 40, 50)
	mustInsert(t, m, "g4", 60, 70)
	if m.GroupCount() != 4 {
		t.Fatalf("GroupCount() = %d, want 4", m.GroupCount())
	}

	// Overlaps g2 and g3 directly; the union [5, 65] then reaches g1
	// and g4 as well.
	mustInsert(t, m, "wide", 5, 65)
	if m.GroupCount() != 1 {
		t.Fatalf("GroupCount() after cascade = %d, want 1", m.GroupCount())
	}
	testutil.CheckInvariants(t, m)
}

func TestRemoveSplitsGroup(t *testing.T) {
	m := interval.NewManager()
	mustInsert(t, m, "left", 0, 20)
	mustInsert(t, m, "bridge", 15, 55)
	mustInsert(t, m, "right", 50, 70)
	if m.GroupCount() != 1 {
		t.Fatalf("GroupCount() = %d, want 1", m.GroupCount())
	}

	if err := m.Remove("bridge"); err != nil {
		t.Fatalf("Remove(bridge): %v", err)
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
	if m.GroupCount() != 2 {
		t.Fatalf("GroupCount() after split = %d, want 2", m.GroupCount())
	}
	if m.Contains("bridge") {
		t.Error("removed interval still tracked")
	}
	testutil.CheckInvariants(t, m)
}

func TestRemoveLastMemberDiscardsGroup(t *testing.T) {
	m := interval.NewManager()
	mustInsert(t, m, "only", 60, 72)
	if err := m.Remove("only"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if m.Len() != 0 || m.GroupCount() != 0 {
		t.Errorf("Len() = %d, GroupCount() = %d, want 0, 0", m.Len(), m.GroupCount())
	}
}

func TestRemoveRelayersSurvivors(t *testing.T) {
	m := interval.NewManager()
	mustInsert(t, m, "a", 10, 30)
	mustInsert(t, m, "b", 20, 40)
	mustInsert(t, m, "c", 25, 35)

	if err := m.Remove("b"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	groups := m.Groups()
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	// a and c still overlap: two layers, not three.
	if got := len(groups[0].Layers); got != 2 {
		t.Errorf("layer count after removal = %d, want 2", got)
	}
	testutil.CheckInvariants(t, m)
}

func TestUpdateMovesAcrossGroups(t *testing.T) {
	m := interval.NewManager()
	mustInsert(t, m, "a", 0, 10)
	mustInsert(t, m, "b", 5, 15)
	mustInsert(t, m, "far", 100, 120)
	if m.GroupCount() != 2 {
		t.Fatalf("GroupCount() = %d, want 2", m.GroupCount())
	}

	// Drag b across the axis into far's neighbourhood.
	if err := m.Update("b", interval.Span{Start: 110, End: 125}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if m.GroupCount() != 2 {
		t.Fatalf("GroupCount() after move = %d, want 2", m.GroupCount())
	}
	pb, _ := m.Placement("b")
	pf, _ := m.Placement("far")
	if pb.GroupID != pf.GroupID {
		t.Errorf("b in group %d, far in group %d, want same", pb.GroupID, pf.GroupID)
	}
	pa, _ := m.Placement("a")
	if pa.GroupID == pb.GroupID {
		t.Error("a should no longer share a group with b")
	}
	testutil.CheckInvariants(t, m)
}

func TestUpdateSplitsFormerGroup(t *testing.T) {
	m := interval.NewManager()
	mustInsert(t, m, "left", 0, 20)
	mustInsert(t, m, "bridge", 15, 55)
	mustInsert(t, m, "right", 50, 70)

	// Shrinking the bridge disconnects left from right.
	if err := m.Update("bridge", interval.Span{Start: 90, End: 100}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if m.GroupCount() != 3 {
		t.Fatalf("GroupCount() = %d, want 3", m.GroupCount())
	}
	testutil.CheckInvariants(t, m)
}

func TestUpdateWithinGroupRelayers(t *testing.T) {
	m := interval.NewManager()
	mustInsert(t, m, "a", 10, 30)
	mustInsert(t, m, "b", 20, 40)
	mustInsert(t, m, "c", 25, 35)
	if got := len(m.Groups()[0].Layers); got != 3 {
		t.Fatalf("initial layer count = %d, want 3", got)
	}

	// Sliding c past a frees it to share a's layer.
	if err := m.Update("c", interval.Span{Start: 35, End: 60}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	groups := m.Groups()
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	if got := len(groups[0].Layers); got != 2 {
		t.Errorf("layer count = %d, want 2", got)
	}
	testutil.CheckInvariants(t, m)
}

func TestErrors(t *testing.T) {
	m := interval.NewManager()
	mustInsert(t, m, "a", 0, 10)

	if err := m.Insert("a", interval.Span{Start: 50, End: 60}); !errors.Is(err, interval.ErrDuplicateInterval) {
		t.Errorf("duplicate Insert error = %v, want ErrDuplicateInterval", err)
	}
	if err := m.Insert("bad", interval.Span{Start: 10, End: 5}); !errors.Is(err, interval.ErrInvalidSpan) {
		t.Errorf("inverted Insert error = %v, want ErrInvalidSpan", err)
	}
	if err := m.Insert("off", interval.Span{Start: 120, End: 130}); !errors.Is(err, interval.ErrOutOfRange) {
		t.Errorf("off-axis Insert error = %v, want ErrOutOfRange", err)
	}
	if err := m.Remove("ghost"); !errors.Is(err, interval.ErrUnknownInterval) {
		t.Errorf("Remove unknown error = %v, want ErrUnknownInterval", err)
	}
	if err := m.Update("ghost", interval.Span{Start: 0, End: 1}); !errors.Is(err, interval.ErrUnknownInterval) {
		t.Errorf("Update unknown error = %v, want ErrUnknownInterval", err)
	}
	if _, err := m.Placement("ghost"); !errors.Is(err, interval.ErrUnknownInterval) {
		t.Errorf("Placement unknown error = %v, want ErrUnknownInterval", err)
	}
}

// A rejected Update must leave the manager untouched.
func TestUpdateValidationFailureLeavesStateIntact(t *testing.T) {
	m := interval.NewManager()
	mustInsert(t, m, "a", 10, 30)
	mustInsert(t, m, "b", 20, 40)
	before := m.Groups()

	if err := m.Update("a", interval.Span{Start: 30, End: 10}); !errors.Is(err, interval.ErrInvalidSpan) {
		t.Fatalf("Update error = %v, want ErrInvalidSpan", err)
	}
	after := m.Groups()
	if !reflect.DeepEqual(before, after) {
		t.Errorf("groups changed after rejected update:\nbefore %+v\nafter  %+v", before, after)
	}
	span, ok := m.Span("a")
	if !ok || span != (interval.Span{Start: 10, End: 30}) {
		t.Errorf("Span(a) = %v, %v; want [10, 30], true", span, ok)
	}
}

func TestEmptyManager(t *testing.T) {
	m := interval.NewManager()
	if m.Len() != 0 || m.GroupCount() != 0 {
		t.Errorf("empty manager: Len() = %d, GroupCount() = %d", m.Len(), m.GroupCount())
	}
	if m.Contains("anything") {
		t.Error("empty manager claims to contain an interval")
	}
	if got := m.Groups(); len(got) != 0 {
		t.Errorf("Groups() = %v, want empty", got)
	}
}

func TestGroupsDeterministicOrder(t *testing.T) {
	m := interval.NewManager()
	mustInsert(t, m, "high", 100, 110)
	mustInsert(t, m, "low", 0, 10)
	mustInsert(t, m, "mid", 50, 60)

	groups := m.Groups()
	starts := make([]int, len(groups))
	for i, g := range groups {
		starts[i] = g.Bounds.Start
	}
	if !sortedInts(starts) {
		t.Errorf("Groups() not ordered by start: %v", starts)
	}
}

// Group members stay in insertion order even after merges and splits
// rebuild the member lists.
func TestMembersKeepInsertionOrder(t *testing.T) {
	m := interval.NewManager()
	mustInsert(t, m, "right", 40, 60)
	mustInsert(t, m, "left", 0, 20)
	mustInsert(t, m, "bridge", 15, 45)

	groups := m.Groups()
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	want := []string{"right", "left", "bridge"}
	if !reflect.DeepEqual(groups[0].Members, want) {
		t.Errorf("after merge Members = %v, want %v", groups[0].Members, want)
	}

	// A split rebuilds members from a start-sorted sweep; insertion
	// order must survive it.
	m2 := interval.NewManager()
	mustInsert(t, m2, "d", 60, 70)
	mustInsert(t, m2, "c", 50, 65)
	mustInsert(t, m2, "b", 10, 20)
	mustInsert(t, m2, "a", 0, 15)
	mustInsert(t, m2, "link", 18, 52)
	if err := m2.Remove("link"); err != nil {
		t.Fatalf("Remove(link): %v", err)
	}

	groups = m2.Groups()
	if len(groups) != 2 {
		t.Fatalf("got %d groups after split, want 2", len(groups))
	}
	if got, want := groups[0].Members, []string{"b", "a"}; !reflect.DeepEqual(got, want) {
		t.Errorf("low group Members = %v, want %v", got, want)
	}
	if got, want := groups[1].Members, []string{"d", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("high group Members = %v, want %v", got, want)
	}
}

// Layer assignment breaks start ties by insertion order.
func TestLayerOrderStableUnderTies(t *testing.T) {
	m := interval.NewManager()
	mustInsert(t, m, "first", 20, 40)
	mustInsert(t, m, "second", 20, 40)
	mustInsert(t, m, "third", 20, 40)

	groups := m.Groups()
	if len(groups) != 1 || len(groups[0].Layers) != 3 {
		t.Fatalf("got %d groups with layers %v", len(groups), groups)
	}
	want := [][]string{{"first"}, {"second"}, {"third"}}
	if !reflect.DeepEqual(groups[0].Layers, want) {
		t.Errorf("Layers = %v, want %v", groups[0].Layers, want)
	}
}

func sortedInts(s []int) bool {
	for i := 1; i < len(s); i++ {
		if s[i] < s[i-1] {
			return false
		}
	}
	return true
}
