package datasource

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vanderheijden86/keyspan/pkg/zones"
)

// ZoneMismatch describes a zone present in both sources with different ranges
type ZoneMismatch struct {
	ID         string
	LeftRange  string
	RightRange string
}

// DiffResult holds the differences between two zone sets
type DiffResult struct {
	// OnlyLeft lists zone IDs present only in the left set
	OnlyLeft []string
	// OnlyRight lists zone IDs present only in the right set
	OnlyRight []string
	// Mismatched lists zones whose ranges differ between sets
	Mismatched []ZoneMismatch
}

// Empty reports whether the two sets are equivalent
func (d DiffResult) Empty() bool {
	return len(d.OnlyLeft) == 0 && len(d.OnlyRight) == 0 && len(d.Mismatched) == 0
}

// String returns a human-readable diff summary
func (d DiffResult) String() string {
	if d.Empty() {
		return "sources are in sync"
	}
	var b strings.Builder
	for _, id := range d.OnlyLeft {
		fmt.Fprintf(&b, "only in left: %s\n", id)
	}
	for _, id := range d.OnlyRight {
		fmt.Fprintf(&b, "only in right: %s\n", id)
	}
	for _, m := range d.Mismatched {
		fmt.Fprintf(&b, "range mismatch for %s: %s vs %s\n", m.ID, m.LeftRange, m.RightRange)
	}
	return strings.TrimRight(b.String(), "\n")
}

// DiffSets compares two zone sets by ID and range
func DiffSets(left, right *zones.Set) DiffResult {
	leftByID := make(map[string]zones.Zone, len(left.Zones))
	for _, z := range left.Zones {
		leftByID[z.ID] = z
	}
	rightByID := make(map[string]zones.Zone, len(right.Zones))
	for _, z := range right.Zones {
		rightByID[z.ID] = z
	}

	var result DiffResult
	for id, lz := range leftByID {
		rz, ok := rightByID[id]
		if !ok {
			result.OnlyLeft = append(result.OnlyLeft, id)
			continue
		}
		if lz.Low != rz.Low || lz.High != rz.High {
			result.Mismatched = append(result.Mismatched, ZoneMismatch{
				ID:         id,
				LeftRange:  fmt.Sprintf("[%d..%d]", lz.Low, lz.High),
				RightRange: fmt.Sprintf("[%d..%d]", rz.Low, rz.High),
			})
		}
	}
	for id := range rightByID {
		if _, ok := leftByID[id]; !ok {
			result.OnlyRight = append(result.OnlyRight, id)
		}
	}

	sort.Strings(result.OnlyLeft)
	sort.Strings(result.OnlyRight)
	sort.Slice(result.Mismatched, func(i, j int) bool {
		return result.Mismatched[i].ID < result.Mismatched[j].ID
	})
	return result
}

// DiffSources loads both sources and diffs their zone sets
func DiffSources(left, right DataSource) (DiffResult, error) {
	leftSet, err := LoadFromSource(left)
	if err != nil {
		return DiffResult{}, fmt.Errorf("failed to load left source: %w", err)
	}
	rightSet, err := LoadFromSource(right)
	if err != nil {
		return DiffResult{}, fmt.Errorf("failed to load right source: %w", err)
	}
	return DiffSets(leftSet, rightSet), nil
}
