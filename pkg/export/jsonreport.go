package export

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/keyspan/pkg/analysis"
	"github.com/vanderheijden86/keyspan/pkg/interval"
	"github.com/vanderheijden86/keyspan/pkg/version"
	"github.com/vanderheijden86/keyspan/pkg/zones"
)

// JSONReport is the machine-readable layout report.
type JSONReport struct {
	Version     string                `json:"version"`
	GeneratedAt time.Time             `json:"generated_at"`
	Bank        string                `json:"bank,omitempty"`
	Zones       []ZoneReport          `json:"zones"`
	Groups      []GroupReport         `json:"groups"`
	Plan        zones.Plan            `json:"plan"`
	Density     analysis.DensityStats `json:"density"`
}

// ZoneReport is one zone's placement in the report.
type ZoneReport struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	Instrument string `json:"instrument,omitempty"`
	Low        int    `json:"low"`
	High       int    `json:"high"`
	GroupID    int    `json:"group_id"`
	LayerIndex int    `json:"layer_index"`
	LayerCount int    `json:"layer_count"`
}

// GroupReport is one group's partition in the report.
type GroupReport struct {
	ID     int        `json:"id"`
	Low    int        `json:"low"`
	High   int        `json:"high"`
	Layers [][]string `json:"layers"`
}

// BuildJSONReport assembles the report from the current layout state.
func BuildJSONReport(set *zones.Set, m *interval.Manager, plan zones.Plan) (*JSONReport, error) {
	if set == nil || m == nil {
		return nil, fmt.Errorf("zone set and layout manager are required")
	}

	report := &JSONReport{
		Version:     version.Version,
		GeneratedAt: time.Now().UTC(),
		Bank:        set.Name,
		Plan:        plan,
	}

	for _, z := range set.Zones {
		pl, err := m.Placement(z.ID)
		if err != nil {
			return nil, fmt.Errorf("zone %q has no placement: %w", z.ID, err)
		}
		report.Zones = append(report.Zones, ZoneReport{
			ID:         z.ID,
			Name:       z.Name,
			Instrument: z.Instrument,
			Low:        z.Low,
			High:       z.High,
			GroupID:    pl.GroupID,
			LayerIndex: pl.LayerIndex,
			LayerCount: pl.LayerCount,
		})
	}

	for _, g := range m.Groups() {
		report.Groups = append(report.Groups, GroupReport{
			ID:     g.ID,
			Low:    g.Bounds.Start,
			High:   g.Bounds.End,
			Layers: g.Layers,
		})
	}

	spans := make([]interval.Span, 0, len(set.Zones))
	for _, z := range set.Zones {
		spans = append(spans, z.Span())
	}
	report.Density = analysis.Density(spans)

	return report, nil
}

// SaveJSON writes the JSON report to a file.
func SaveJSON(path string, set *zones.Set, m *interval.Manager, plan zones.Plan) error {
	report, err := BuildJSONReport(set, m, plan)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
