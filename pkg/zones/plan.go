package zones

import (
	"fmt"

	"github.com/vanderheijden86/keyspan/pkg/interval"
)

// PlannedTrack is one track in a separation plan: the zones of a single
// layer within a single group. Zones on one layer never overlap, so they
// can share a track without key-range collisions.
type PlannedTrack struct {
	Name    string   `json:"name"`
	GroupID int      `json:"group_id"`
	Layer   int      `json:"layer"`
	ZoneIDs []string `json:"zone_ids"`
}

// PlannedBus is an optional routing bus covering one group's tracks.
type PlannedBus struct {
	Name    string `json:"name"`
	GroupID int    `json:"group_id"`
	Tracks  int    `json:"tracks"`
}

// Plan describes how to separate a zone set onto tracks so that zones on
// any one track never overlap. It is a plan only; carrying it out in a
// host application is the caller's business.
type Plan struct {
	Tracks []PlannedTrack `json:"tracks"`
	Buses  []PlannedBus   `json:"buses,omitempty"`
}

// PlanOptions configures plan building.
type PlanOptions struct {
	// WithBuses adds one routing bus per multi-layer group.
	WithBuses bool
}

// BuildPlan derives a track separation plan from the manager's current
// partition. Groups with a single layer yield one track; groups with
// stacked layers yield one track per layer, optionally under a bus.
func BuildPlan(set *Set, m *interval.Manager, opts PlanOptions) Plan {
	var plan Plan
	for _, g := range m.Groups() {
		rangeName := RangeLabel(g.Bounds)
		for layer, ids := range g.Layers {
			name := rangeName
			if len(g.Layers) > 1 {
				name = fmt.Sprintf("%s %d", rangeName, layer+1)
			}
			if len(ids) == 1 {
				if z := set.Find(ids[0]); z != nil {
					name = z.Label()
				}
			}
			plan.Tracks = append(plan.Tracks, PlannedTrack{
				Name:    name,
				GroupID: g.ID,
				Layer:   layer,
				ZoneIDs: append([]string(nil), ids...),
			})
		}
		if opts.WithBuses && len(g.Layers) > 1 {
			plan.Buses = append(plan.Buses, PlannedBus{
				Name:    fmt.Sprintf("bus - %s", rangeName),
				GroupID: g.ID,
				Tracks:  len(g.Layers),
			})
		}
	}
	return plan
}
