package zones

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/keyspan/pkg/debug"
	"github.com/vanderheijden86/keyspan/pkg/metrics"
)

// LoadSet reads a zone bank file. The format is chosen by extension:
// .yaml/.yml for a whole-set document, .json for a whole-set document,
// .jsonl for one zone object per line. The returned set is validated.
func LoadSet(path string) (*Set, error) {
	defer metrics.Timer(metrics.BankLoad)()

	var (
		set *Set
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		set, err = loadYAML(path)
	case ".json":
		set, err = loadJSON(path)
	case ".jsonl":
		set, err = loadJSONL(path)
	default:
		return nil, fmt.Errorf("unsupported bank format: %s", path)
	}
	if err != nil {
		return nil, err
	}

	if set.Name == "" {
		set.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	debug.Log("loaded bank %s: %d zones", path, len(set.Zones))
	return set, nil
}

func loadYAML(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bank: %w", err)
	}
	var set Set
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parsing bank %s: %w", path, err)
	}
	return &set, nil
}

func loadJSON(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bank: %w", err)
	}
	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parsing bank %s: %w", path, err)
	}
	return &set, nil
}

// loadJSONL reads one zone object per line, skipping blank lines.
func loadJSONL(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading bank: %w", err)
	}
	defer f.Close()

	var set Set
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var z Zone
		if err := json.Unmarshal([]byte(line), &z); err != nil {
			return nil, fmt.Errorf("parsing bank %s line %d: %w", path, lineNo, err)
		}
		set.Zones = append(set.Zones, z)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading bank %s: %w", path, err)
	}
	return &set, nil
}

// BankResult contains the result of loading a single bank file.
type BankResult struct {
	// Path is the bank file path
	Path string
	// Set is the loaded zone set (nil on error)
	Set *Set
	// Error is set if loading failed
	Error error
}

// LoadBanks loads several bank files concurrently. Individual bank
// failures are captured in the results rather than aborting the whole
// load; results keep the input order.
func LoadBanks(ctx context.Context, paths []string) []BankResult {
	results := make([]BankResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	// Limit concurrency to avoid file descriptor exhaustion
	g.SetLimit(16)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-ctx.Done():
				results[i] = BankResult{Path: path, Error: ctx.Err()}
				return nil
			default:
			}

			set, err := LoadSet(path)
			results[i] = BankResult{Path: path, Set: set, Error: err}
			return nil // individual bank errors stay in results
		})
	}

	_ = g.Wait()
	return results
}

// Merge combines successfully loaded banks into one set, prefixing zone
// IDs with the bank name when the same ID appears in more than one bank.
func Merge(results []BankResult) *Set {
	merged := &Set{Name: "merged"}
	seen := make(map[string]bool)
	for _, r := range results {
		if r.Error != nil || r.Set == nil {
			continue
		}
		for _, z := range r.Set.Zones {
			if seen[z.ID] {
				z.ID = r.Set.Name + "/" + z.ID
			}
			seen[z.ID] = true
			merged.Zones = append(merged.Zones, z)
		}
	}
	return merged
}
