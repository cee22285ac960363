package datasource

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validYAMLBank = `
zones:
  - id: kick
    low: 36
    high: 36
  - id: pad
    low: 48
    high: 72
`

func TestDiscoverSourcesFindsByExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bank.yaml", validYAMLBank)
	writeFile(t, dir, "bank.jsonl", `{"id": "a", "low": 0, "high": 10}`)
	writeFile(t, dir, "notes.txt", "ignored")
	writeFile(t, dir, ".hidden.yaml", validYAMLBank)
	writeFile(t, dir, "bank.yaml.backup", validYAMLBank)
	writeFile(t, dir, "bank.yaml~", validYAMLBank)

	sources, err := DiscoverSources(DiscoveryOptions{BankDir: dir})
	if err != nil {
		t.Fatalf("DiscoverSources: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("got %d sources, want 2: %+v", len(sources), sources)
	}
	types := map[SourceType]bool{}
	for _, s := range sources {
		types[s.Type] = true
	}
	if !types[SourceTypeYAML] || !types[SourceTypeJSON] {
		t.Errorf("source types = %v", types)
	}
}

func TestDiscoverSourcesOrdersByFreshnessThenPriority(t *testing.T) {
	dir := t.TempDir()
	old := writeFile(t, dir, "old.yaml", validYAMLBank)
	fresh := writeFile(t, dir, "fresh.jsonl", `{"id": "a", "low": 0, "high": 10}`)

	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}

	sources, err := DiscoverSources(DiscoveryOptions{BankDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(sources))
	}
	if sources[0].Path != fresh {
		t.Errorf("freshest source = %s, want %s", sources[0].Path, fresh)
	}

	// Equal timestamps: higher priority wins.
	now := time.Now()
	for _, p := range []string{old, fresh} {
		if err := os.Chtimes(p, now, now); err != nil {
			t.Fatal(err)
		}
	}
	sources, err = DiscoverSources(DiscoveryOptions{BankDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if sources[0].Type != SourceTypeYAML {
		t.Errorf("with equal mtimes, first source = %s, want yaml (higher priority)", sources[0].Type)
	}
}

func TestDiscoverSourcesValidation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.yaml", validYAMLBank)
	writeFile(t, dir, "broken.yaml", "zones:\n  - id: bad\n    low: 90\n    high: 10\n")

	sources, err := DiscoverSources(DiscoveryOptions{
		BankDir:                dir,
		ValidateAfterDiscovery: true,
		IncludeInvalid:         true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(sources))
	}
	byName := map[string]DataSource{}
	for _, s := range sources {
		byName[filepath.Base(s.Path)] = s
	}
	good := byName["good.yaml"]
	if !good.Valid || good.ZoneCount != 2 {
		t.Errorf("good.yaml = %+v", good)
	}
	broken := byName["broken.yaml"]
	if broken.Valid || broken.ValidationError == "" {
		t.Errorf("broken.yaml = %+v", broken)
	}

	// Without IncludeInvalid the broken source is filtered out.
	sources, err = DiscoverSources(DiscoveryOptions{
		BankDir:                dir,
		ValidateAfterDiscovery: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 1 || filepath.Base(sources[0].Path) != "good.yaml" {
		t.Errorf("filtered sources = %+v", sources)
	}
}

func TestSelectBestSource(t *testing.T) {
	sources := []DataSource{
		{Path: "a.yaml", Valid: false},
		{Path: "b.yaml", Valid: true},
		{Path: "c.yaml", Valid: true},
	}
	best, err := SelectBestSource(sources)
	if err != nil {
		t.Fatal(err)
	}
	if best.Path != "b.yaml" {
		t.Errorf("best = %s, want b.yaml (first valid)", best.Path)
	}

	if _, err := SelectBestSource([]DataSource{{Valid: false}}); err == nil {
		t.Error("SelectBestSource accepted all-invalid input")
	}
	if _, err := SelectBestSource(nil); err == nil {
		t.Error("SelectBestSource accepted empty input")
	}
}

func TestDiscoverSourcesEmptyDir(t *testing.T) {
	sources, err := DiscoverSources(DiscoveryOptions{BankDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 0 {
		t.Errorf("got %d sources in empty dir", len(sources))
	}
}

func TestDiscoverSourcesMissingDir(t *testing.T) {
	if _, err := DiscoverSources(DiscoveryOptions{BankDir: filepath.Join(t.TempDir(), "nope")}); err == nil {
		t.Error("DiscoverSources accepted a missing directory")
	}
}
