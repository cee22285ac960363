package export

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/vanderheijden86/keyspan/pkg/analysis"
	"github.com/vanderheijden86/keyspan/pkg/interval"
	"github.com/vanderheijden86/keyspan/pkg/zones"
)

// GenerateMarkdown creates a markdown report of the zone layout: groups,
// their stacked layers, the track separation plan, and axis density.
func GenerateMarkdown(set *zones.Set, m *interval.Manager, plan zones.Plan, title string) (string, error) {
	if set == nil || m == nil {
		return "", fmt.Errorf("zone set and layout manager are required")
	}

	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	sb.WriteString(fmt.Sprintf("*Generated: %s*\n\n", time.Now().Format(time.RFC1123)))
	sb.WriteString(fmt.Sprintf("**Zones:** %d | **Groups:** %d\n\n", m.Len(), m.GroupCount()))

	// Groups and layers
	sb.WriteString("## Groups\n\n")
	for _, g := range m.Groups() {
		sb.WriteString(fmt.Sprintf("### %s (%d zones, %d layers)\n\n",
			zones.RangeLabel(g.Bounds), len(g.Members), len(g.Layers)))
		for layer, ids := range g.Layers {
			sb.WriteString(fmt.Sprintf("- layer %d:", layer+1))
			for _, id := range ids {
				label := id
				span := g.Bounds
				if z := set.Find(id); z != nil {
					label = z.Label()
					span = z.Span()
				}
				sb.WriteString(fmt.Sprintf(" `%s %s`", label, zones.RangeLabel(span)))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	// Track plan
	if len(plan.Tracks) > 0 {
		sb.WriteString("## Track Plan\n\n")
		sb.WriteString("| Track | Group | Layer | Zones |\n")
		sb.WriteString("|-------|-------|-------|-------|\n")
		for _, t := range plan.Tracks {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %s |\n",
				t.Name, t.GroupID, t.Layer+1, strings.Join(t.ZoneIDs, ", ")))
		}
		sb.WriteString("\n")
		for _, b := range plan.Buses {
			sb.WriteString(fmt.Sprintf("- bus `%s` over %d tracks\n", b.Name, b.Tracks))
		}
		if len(plan.Buses) > 0 {
			sb.WriteString("\n")
		}
	}

	// Density
	spans := make([]interval.Span, 0, len(set.Zones))
	for _, z := range set.Zones {
		spans = append(spans, z.Span())
	}
	density := analysis.Density(spans)
	sb.WriteString("## Axis Density\n\n")
	sb.WriteString(fmt.Sprintf("- max overlap depth: %d (at %s)\n", density.MaxDepth, zones.NoteName(density.PeakNote)))
	sb.WriteString(fmt.Sprintf("- covered notes: %d of %d (%.0f%%)\n", density.CoveredNotes, analysis.AxisSize, density.Coverage*100))
	sb.WriteString(fmt.Sprintf("- mean depth: %.2f (stddev %.2f)\n", density.MeanDepth, density.StdDevDepth))

	return sb.String(), nil
}

// SaveMarkdown writes the markdown report to a file.
func SaveMarkdown(path string, set *zones.Set, m *interval.Manager, plan zones.Plan, title string) error {
	report, err := GenerateMarkdown(set, m, plan, title)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(report), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
