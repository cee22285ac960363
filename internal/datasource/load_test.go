package datasource

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/vanderheijden86/keyspan/pkg/export"
	"github.com/vanderheijden86/keyspan/pkg/zones"
)

func exportTestDB(t *testing.T, dir string) string {
	t.Helper()
	set := &zones.Set{Name: "studio", Zones: []zones.Zone{
		{ID: "bass", Name: "Bass", Low: 0, High: 30, Color: "#204080"},
		{ID: "keys", Name: "Keys", Low: 25, High: 60},
	}}
	m, err := zones.BuildManager(set)
	if err != nil {
		t.Fatal(err)
	}
	plan := zones.BuildPlan(set, m, zones.PlanOptions{})
	dbPath := filepath.Join(dir, "zones.db")
	if err := export.NewSQLiteExporter(set, m, plan).Export(dbPath); err != nil {
		t.Fatalf("export db: %v", err)
	}
	return dbPath
}

func TestSQLiteReaderRoundTrip(t *testing.T) {
	dbPath := exportTestDB(t, t.TempDir())

	r, err := NewSQLiteReader(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteReader: %v", err)
	}
	defer r.Close()

	set, err := r.ReadSet()
	if err != nil {
		t.Fatalf("ReadSet: %v", err)
	}
	if len(set.Zones) != 2 {
		t.Fatalf("got %d zones, want 2", len(set.Zones))
	}
	if z := set.Find("bass"); z == nil || z.Color != "#204080" || z.High != 30 {
		t.Errorf("bass = %+v", z)
	}
	if got := r.BankName(); got != "studio" {
		t.Errorf("BankName() = %q, want studio (from meta table)", got)
	}
}

// Databases written by other tools may leave text columns NULL.
func TestSQLiteReaderNullTextColumns(t *testing.T) {
	dbPath := exportTestDB(t, t.TempDir())

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if _, err := db.Exec(`UPDATE zones SET name = NULL, instrument = NULL, color = NULL WHERE id = 'keys'`); err != nil {
		t.Fatalf("null out columns: %v", err)
	}
	db.Close()

	r, err := NewSQLiteReader(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteReader: %v", err)
	}
	defer r.Close()

	set, err := r.ReadSet()
	if err != nil {
		t.Fatalf("ReadSet with NULL text columns: %v", err)
	}
	z := set.Find("keys")
	if z == nil {
		t.Fatal("keys zone missing")
	}
	if z.Name != "" || z.Instrument != "" || z.Color != "" {
		t.Errorf("NULL columns not read as empty strings: %+v", z)
	}
}

func TestLoadZonesPrefersFreshSQLite(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bank.yaml", validYAMLBank)
	exportTestDB(t, dir) // written after the yaml, so fresher

	set, src, err := LoadZones(dir)
	if err != nil {
		t.Fatalf("LoadZones: %v", err)
	}
	if src.Type != SourceTypeSQLite {
		t.Errorf("selected source type = %s, want sqlite", src.Type)
	}
	if set.Name != "studio" || len(set.Zones) != 2 {
		t.Errorf("set = %q with %d zones", set.Name, len(set.Zones))
	}
}

func TestLoadZonesFallsBackToFileBank(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bank.yaml", validYAMLBank)

	set, src, err := LoadZones(dir)
	if err != nil {
		t.Fatalf("LoadZones: %v", err)
	}
	if src.Type != SourceTypeYAML {
		t.Errorf("source type = %s, want yaml", src.Type)
	}
	if len(set.Zones) != 2 {
		t.Errorf("got %d zones, want 2", len(set.Zones))
	}
}

func TestLoadZonesEmptyDir(t *testing.T) {
	if _, _, err := LoadZones(t.TempDir()); err == nil {
		t.Error("LoadZones succeeded with no sources")
	}
}

func TestLoadFromSourceUnknownType(t *testing.T) {
	if _, err := LoadFromSource(DataSource{Type: "ftp", Path: "x"}); err == nil {
		t.Error("LoadFromSource accepted an unknown source type")
	}
}
