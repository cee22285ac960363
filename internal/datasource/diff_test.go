package datasource

import (
	"reflect"
	"strings"
	"testing"

	"github.com/vanderheijden86/keyspan/pkg/zones"
)

func TestDiffSetsInSync(t *testing.T) {
	s := &zones.Set{Zones: []zones.Zone{
		{ID: "a", Low: 0, High: 10},
		{ID: "b", Low: 20, High: 30},
	}}
	d := DiffSets(s, s)
	if !d.Empty() {
		t.Errorf("identical sets diff = %+v", d)
	}
	if got := d.String(); got != "sources are in sync" {
		t.Errorf("String() = %q", got)
	}
}

func TestDiffSetsReportsAllDifferences(t *testing.T) {
	left := &zones.Set{Zones: []zones.Zone{
		{ID: "shared", Low: 0, High: 10},
		{ID: "moved", Low: 20, High: 30},
		{ID: "left-only", Low: 40, High: 50},
	}}
	right := &zones.Set{Zones: []zones.Zone{
		{ID: "shared", Low: 0, High: 10},
		{ID: "moved", Low: 25, High: 35},
		{ID: "right-only", Low: 60, High: 70},
	}}

	d := DiffSets(left, right)
	if d.Empty() {
		t.Fatal("differing sets reported as in sync")
	}
	if !reflect.DeepEqual(d.OnlyLeft, []string{"left-only"}) {
		t.Errorf("OnlyLeft = %v", d.OnlyLeft)
	}
	if !reflect.DeepEqual(d.OnlyRight, []string{"right-only"}) {
		t.Errorf("OnlyRight = %v", d.OnlyRight)
	}
	if len(d.Mismatched) != 1 || d.Mismatched[0].ID != "moved" {
		t.Fatalf("Mismatched = %+v", d.Mismatched)
	}
	if d.Mismatched[0].LeftRange != "[20..30]" || d.Mismatched[0].RightRange != "[25..35]" {
		t.Errorf("ranges = %s vs %s", d.Mismatched[0].LeftRange, d.Mismatched[0].RightRange)
	}

	out := d.String()
	for _, want := range []string{"only in left: left-only", "only in right: right-only", "range mismatch for moved"} {
		if !strings.Contains(out, want) {
			t.Errorf("String() missing %q:\n%s", want, out)
		}
	}
}

func TestDiffSourcesAcrossFormats(t *testing.T) {
	dir := t.TempDir()
	yamlPath := writeFile(t, dir, "bank.yaml", `
zones:
  - id: kick
    low: 36
    high: 36
`)
	jsonlPath := writeFile(t, dir, "bank.jsonl", `{"id": "kick", "low": 36, "high": 40}`)

	d, err := DiffSources(
		DataSource{Type: SourceTypeYAML, Path: yamlPath},
		DataSource{Type: SourceTypeJSON, Path: jsonlPath},
	)
	if err != nil {
		t.Fatalf("DiffSources: %v", err)
	}
	if len(d.Mismatched) != 1 || d.Mismatched[0].ID != "kick" {
		t.Errorf("diff = %+v", d)
	}
}
