package datasource

import (
	"fmt"

	"github.com/vanderheijden86/keyspan/pkg/debug"
	"github.com/vanderheijden86/keyspan/pkg/zones"
)

// LoadFromSource loads a zone set from a specific source
func LoadFromSource(src DataSource) (*zones.Set, error) {
	switch src.Type {
	case SourceTypeSQLite:
		reader, err := NewSQLiteReader(src.Path)
		if err != nil {
			return nil, err
		}
		defer reader.Close()
		set, err := reader.ReadSet()
		if err != nil {
			return nil, err
		}
		set.Name = reader.BankName()
		return set, nil
	case SourceTypeYAML, SourceTypeJSON:
		return zones.LoadSet(src.Path)
	default:
		return nil, fmt.Errorf("unknown source type: %s", src.Type)
	}
}

// LoadZones discovers sources in bankDir and loads the best one, falling
// back to the next source when loading fails after validation.
func LoadZones(bankDir string) (*zones.Set, DataSource, error) {
	sources, err := DiscoverSources(DiscoveryOptions{
		BankDir:                bankDir,
		ValidateAfterDiscovery: true,
		Verbose:                debug.Enabled(),
		Logger:                 func(msg string) { debug.Log("%s", msg) },
	})
	if err != nil {
		return nil, DataSource{}, err
	}
	if len(sources) == 0 {
		return nil, DataSource{}, fmt.Errorf("no zone sources found in %s", bankDir)
	}

	var lastErr error
	for _, src := range sources {
		set, err := LoadFromSource(src)
		if err != nil {
			debug.Log("Load failed for %s, trying next source: %v", src.Path, err)
			lastErr = err
			continue
		}
		debug.Log("Loaded %d zones from %s", len(set.Zones), src.Path)
		return set, src, nil
	}
	return nil, DataSource{}, fmt.Errorf("all sources failed to load: %w", lastErr)
}
