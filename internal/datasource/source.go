// Package datasource provides multi-source detection and selection for
// zone banks. It discovers, validates, and selects the freshest valid
// source from SQLite bank databases and YAML/JSON/JSONL bank files.
package datasource

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// SourceType identifies the type of data source
type SourceType string

const (
	// SourceTypeSQLite is a SQLite bank database (zones.db)
	SourceTypeSQLite SourceType = "sqlite"
	// SourceTypeYAML is a YAML bank file
	SourceTypeYAML SourceType = "yaml"
	// SourceTypeJSON is a JSON or JSONL bank file
	SourceTypeJSON SourceType = "json"
)

// Priority values for source types (higher = more authoritative)
const (
	PrioritySQLite = 100
	PriorityYAML   = 80
	PriorityJSON   = 50
)

// DataSource represents a potential source of zone data
type DataSource struct {
	// Type identifies the source type
	Type SourceType `json:"type"`
	// Path is the absolute path to the source file
	Path string `json:"path"`
	// Priority determines preference when timestamps are equal (higher = preferred)
	Priority int `json:"priority"`
	// ModTime is the last modification time of the source
	ModTime time.Time `json:"mod_time"`
	// Valid indicates whether the source passed validation
	Valid bool `json:"valid"`
	// ValidationError describes why validation failed (if Valid is false)
	ValidationError string `json:"validation_error,omitempty"`
	// ZoneCount is the number of zones in the source (set during validation)
	ZoneCount int `json:"zone_count"`
	// Size is the file size in bytes
	Size int64 `json:"size"`
}

// String returns a human-readable description of the source
func (s DataSource) String() string {
	status := "valid"
	if !s.Valid {
		status = fmt.Sprintf("invalid: %s", s.ValidationError)
	}
	return fmt.Sprintf("%s (%s, priority=%d, mod=%s, zones=%d, %s)",
		s.Path, s.Type, s.Priority, s.ModTime.Format(time.RFC3339), s.ZoneCount, status)
}

// DiscoveryOptions configures source discovery behavior
type DiscoveryOptions struct {
	// BankDir is the directory to scan (defaults to cwd)
	BankDir string
	// ValidateAfterDiscovery runs validation on each discovered source
	ValidateAfterDiscovery bool
	// IncludeInvalid includes sources that failed validation in results
	IncludeInvalid bool
	// Verbose enables detailed logging during discovery
	Verbose bool
	// Logger receives log messages when Verbose is true
	Logger func(msg string)
}

// DiscoverSources finds all potential zone sources in the bank directory
func DiscoverSources(opts DiscoveryOptions) ([]DataSource, error) {
	if opts.Logger == nil {
		opts.Logger = func(string) {}
	}

	bankDir := opts.BankDir
	if bankDir == "" {
		if envDir := os.Getenv("KS_BANK_DIR"); envDir != "" {
			bankDir = envDir
		} else {
			var err error
			bankDir, err = os.Getwd()
			if err != nil {
				return nil, fmt.Errorf("failed to get current directory: %w", err)
			}
		}
	}

	if opts.Verbose {
		opts.Logger(fmt.Sprintf("Discovering sources in: %s", bankDir))
	}

	entries, err := os.ReadDir(bankDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read bank directory: %w", err)
	}

	var sources []DataSource
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()

		// Skip backups and editor artifacts
		if strings.Contains(name, ".backup") ||
			strings.Contains(name, ".orig") ||
			strings.HasPrefix(name, ".") ||
			strings.HasSuffix(name, "~") {
			continue
		}

		var srcType SourceType
		var priority int
		switch strings.ToLower(filepath.Ext(name)) {
		case ".db", ".sqlite", ".sqlite3":
			srcType, priority = SourceTypeSQLite, PrioritySQLite
		case ".yaml", ".yml":
			srcType, priority = SourceTypeYAML, PriorityYAML
		case ".json", ".jsonl":
			srcType, priority = SourceTypeJSON, PriorityJSON
		default:
			continue
		}

		info, err := e.Info()
		if err != nil {
			continue
		}

		src := DataSource{
			Type:     srcType,
			Path:     filepath.Join(bankDir, name),
			Priority: priority,
			ModTime:  info.ModTime(),
			Size:     info.Size(),
		}
		sources = append(sources, src)

		if opts.Verbose {
			opts.Logger(fmt.Sprintf("Found %s source: %s (mod=%s)", srcType, src.Path, info.ModTime().Format(time.RFC3339)))
		}
	}

	// Validate sources if requested
	if opts.ValidateAfterDiscovery {
		for i := range sources {
			if err := ValidateSource(&sources[i]); err != nil && opts.Verbose {
				opts.Logger(fmt.Sprintf("Validation failed for %s: %v", sources[i].Path, err))
			}
		}
	}

	// Filter out invalid sources if not including them
	if opts.ValidateAfterDiscovery && !opts.IncludeInvalid {
		var validSources []DataSource
		for _, s := range sources {
			if s.Valid {
				validSources = append(validSources, s)
			}
		}
		sources = validSources
	}

	// Sort by mod time, then priority
	sort.Slice(sources, func(i, j int) bool {
		if sources[i].ModTime.Equal(sources[j].ModTime) {
			return sources[i].Priority > sources[j].Priority
		}
		return sources[i].ModTime.After(sources[j].ModTime)
	})

	if opts.Verbose {
		opts.Logger(fmt.Sprintf("Discovered %d sources", len(sources)))
	}

	return sources, nil
}

// SelectBestSource returns the freshest valid source. Sources are already
// ordered by (mod time, priority), so this is the first valid entry.
func SelectBestSource(sources []DataSource) (DataSource, error) {
	for _, s := range sources {
		if s.Valid {
			return s, nil
		}
	}
	return DataSource{}, fmt.Errorf("no valid zone source available")
}

// ValidateSource loads the source far enough to confirm it parses and
// records its zone count. Marks the source valid/invalid in place.
func ValidateSource(s *DataSource) error {
	set, err := LoadFromSource(*s)
	if err != nil {
		s.Valid = false
		s.ValidationError = err.Error()
		return err
	}
	s.Valid = true
	s.ValidationError = ""
	s.ZoneCount = len(set.Zones)
	return nil
}
