package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/keyspan/pkg/version"
	"github.com/vanderheijden86/keyspan/pkg/zones"
)

func TestBuildJSONReport(t *testing.T) {
	set, m, plan := exportFixture(t)
	report, err := BuildJSONReport(set, m, plan)
	if err != nil {
		t.Fatalf("BuildJSONReport: %v", err)
	}

	if report.Version != version.Version {
		t.Errorf("Version = %q, want %q", report.Version, version.Version)
	}
	if report.Bank != "session" {
		t.Errorf("Bank = %q, want session", report.Bank)
	}
	if len(report.Zones) != 3 {
		t.Fatalf("got %d zones, want 3", len(report.Zones))
	}
	if len(report.Groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(report.Groups))
	}

	// bass and keys overlap: stacked two deep in the same group.
	byID := make(map[string]ZoneReport)
	for _, z := range report.Zones {
		byID[z.ID] = z
	}
	if byID["bass"].GroupID != byID["keys"].GroupID {
		t.Error("bass and keys should share a group")
	}
	if byID["bass"].LayerCount != 2 {
		t.Errorf("bass LayerCount = %d, want 2", byID["bass"].LayerCount)
	}
	if byID["lead"].LayerCount != 1 {
		t.Errorf("lead LayerCount = %d, want 1", byID["lead"].LayerCount)
	}
	if report.Density.MaxDepth != 2 {
		t.Errorf("Density.MaxDepth = %d, want 2", report.Density.MaxDepth)
	}
}

func TestSaveJSONRoundTrip(t *testing.T) {
	set, m, plan := exportFixture(t)
	path := filepath.Join(t.TempDir(), "layout.json")
	if err := SaveJSON(path, set, m, plan); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var report JSONReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(report.Zones) != 3 || len(report.Plan.Tracks) != 3 {
		t.Errorf("round trip: %d zones, %d tracks", len(report.Zones), len(report.Plan.Tracks))
	}
}

func TestBuildJSONReportRejectsUnplacedZone(t *testing.T) {
	set, m, plan := exportFixture(t)
	set.Zones = append(set.Zones, zones.Zone{ID: "ghost", Low: 90, High: 95})
	if _, err := BuildJSONReport(set, m, plan); err == nil {
		t.Error("BuildJSONReport accepted a zone the manager never saw")
	}
}
