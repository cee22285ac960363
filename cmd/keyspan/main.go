package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/vanderheijden86/keyspan/internal/datasource"
	"github.com/vanderheijden86/keyspan/pkg/analysis"
	"github.com/vanderheijden86/keyspan/pkg/config"
	"github.com/vanderheijden86/keyspan/pkg/export"
	"github.com/vanderheijden86/keyspan/pkg/interval"
	"github.com/vanderheijden86/keyspan/pkg/metrics"
	"github.com/vanderheijden86/keyspan/pkg/version"
	"github.com/vanderheijden86/keyspan/pkg/watcher"
	"github.com/vanderheijden86/keyspan/pkg/zones"
)

func main() {
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	bankDir := flag.String("bank", "", "Bank directory to scan for zone sources (default: config, then cwd)")
	snapshotPath := flag.String("snapshot", "", "Write an SVG or PNG snapshot to this path")
	preset := flag.String("preset", "", "Snapshot layout preset: compact or roomy (default: config)")
	reportPath := flag.String("report", "", "Write a Markdown layout report to this path")
	jsonPath := flag.String("json", "", "Write a JSON layout report to this path")
	exportDB := flag.String("export-db", "", "Export zones, groups and track plan to a SQLite database")
	withBuses := flag.Bool("buses", true, "Include routing buses in the track plan")
	statsFlag := flag.Bool("stats", false, "Print timing metrics after the run")
	checkFlag := flag.Bool("check", false, "Validate all discovered sources and diff them against the freshest")
	watchFlag := flag.Bool("watch", false, "Watch the bank source and re-run outputs on change")
	flag.Parse()

	// CPU profiling support
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if *help {
		fmt.Println("Usage: keyspan [options]")
		fmt.Println("\nA layered keyboard-zone layout tool.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("keyspan %s\n", version.Version)
		os.Exit(0)
	}

	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		// Non-fatal: continue with defaults
		cfg = config.DefaultConfig()
	}
	if *bankDir == "" {
		*bankDir = cfg.BankDir
	}
	if *preset == "" {
		*preset = cfg.Snapshot.Preset
	}

	// Handle --check
	if *checkFlag {
		if err := runCheck(*bankDir); err != nil {
			fmt.Fprintf(os.Stderr, "Check failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	run := func() error {
		set, src, err := datasource.LoadZones(*bankDir)
		if err != nil {
			return err
		}
		m, err := zones.BuildManager(set)
		if err != nil {
			return fmt.Errorf("failed to build layout for %s: %w", src.Path, err)
		}
		plan := zones.BuildPlan(set, m, zones.PlanOptions{WithBuses: *withBuses})

		fmt.Print(formatLayoutTable(set, m))
		fmt.Print(formatPlanSummary(plan))

		spans := make([]interval.Span, 0, len(set.Zones))
		for _, z := range set.Zones {
			spans = append(spans, z.Span())
		}
		fmt.Printf("\n%s\n", formatDensity(analysis.Density(spans)))
		if *statsFlag {
			fmt.Print(formatGroupStats(m))
		}

		if *snapshotPath != "" {
			err := export.SaveSnapshot(export.SnapshotOptions{
				Path:     *snapshotPath,
				Format:   cfg.Snapshot.Format,
				Title:    set.Name,
				Preset:   *preset,
				AxisLow:  cfg.Axis.Low,
				AxisHigh: cfg.Axis.High,
				Set:      set,
				Manager:  m,
			})
			if err != nil {
				return fmt.Errorf("snapshot failed: %w", err)
			}
			fmt.Printf("Snapshot written to %s\n", *snapshotPath)
		}
		if *reportPath != "" {
			if err := export.SaveMarkdown(*reportPath, set, m, plan, set.Name); err != nil {
				return fmt.Errorf("report failed: %w", err)
			}
			fmt.Printf("Report written to %s\n", *reportPath)
		}
		if *jsonPath != "" {
			if err := export.SaveJSON(*jsonPath, set, m, plan); err != nil {
				return fmt.Errorf("JSON report failed: %w", err)
			}
			fmt.Printf("JSON report written to %s\n", *jsonPath)
		}
		if *exportDB != "" {
			exporter := export.NewSQLiteExporter(set, m, plan)
			if err := exporter.Export(*exportDB); err != nil {
				return fmt.Errorf("database export failed: %w", err)
			}
			fmt.Printf("Database written to %s\n", *exportDB)
		}
		return nil
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Place a zone bank (.yaml, .json, .jsonl or .db) in the bank directory.")
		os.Exit(1)
	}

	if *watchFlag {
		if err := runWatch(*bankDir, cfg, run); err != nil {
			fmt.Fprintf(os.Stderr, "Watch error: %v\n", err)
			os.Exit(1)
		}
	}

	if *statsFlag {
		printStats()
	}
}

// runCheck validates every discovered source and diffs each against the
// freshest valid one.
func runCheck(bankDir string) error {
	sources, err := datasource.DiscoverSources(datasource.DiscoveryOptions{
		BankDir:                bankDir,
		ValidateAfterDiscovery: true,
		IncludeInvalid:         true,
	})
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return fmt.Errorf("no zone sources found")
	}

	for _, s := range sources {
		fmt.Println(s.String())
	}

	best, err := datasource.SelectBestSource(sources)
	if err != nil {
		return err
	}
	fmt.Printf("\nSelected: %s\n", best.Path)

	for _, s := range sources {
		if !s.Valid || s.Path == best.Path {
			continue
		}
		diff, err := datasource.DiffSources(best, s)
		if err != nil {
			fmt.Printf("diff against %s failed: %v\n", s.Path, err)
			continue
		}
		fmt.Printf("\nvs %s:\n%s\n", s.Path, diff.String())
	}
	return nil
}

// runWatch re-runs the pipeline whenever the selected bank source changes.
func runWatch(bankDir string, cfg config.Config, run func() error) error {
	_, src, err := datasource.LoadZones(bankDir)
	if err != nil {
		return err
	}

	opts := []watcher.WatcherOption{
		watcher.WithOnError(func(err error) {
			fmt.Fprintf(os.Stderr, "watch: %v\n", err)
		}),
	}
	if cfg.Watch.DebounceMS > 0 {
		opts = append(opts, watcher.WithDebounceDuration(time.Duration(cfg.Watch.DebounceMS)*time.Millisecond))
	}
	if cfg.Watch.ForcePoll {
		opts = append(opts, watcher.WithForcePoll(true))
	}

	w, err := watcher.NewWatcher(src.Path, opts...)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	mode := "fsnotify"
	if w.IsPolling() {
		mode = "polling"
	}
	fmt.Printf("\nWatching %s (%s). Press Ctrl+C to stop.\n", src.Path, mode)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-w.Changed():
			fmt.Printf("\n--- %s changed ---\n", src.Path)
			if err := run(); err != nil {
				fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
			}
		case <-sigCh:
			return nil
		}
	}
}

// formatLayoutTable renders zones with their group and layer placement
// as an aligned table.
func formatLayoutTable(set *zones.Set, m *interval.Manager) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Bank: %s (%d zones, %d groups)\n\n", set.Name, m.Len(), m.GroupCount())

	tw := tabwriter.NewWriter(&b, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ZONE\tRANGE\tGROUP\tLAYER")
	for _, g := range m.Groups() {
		for li, layer := range g.Layers {
			for _, id := range layer {
				label := id
				if z := set.Find(id); z != nil {
					label = z.Label()
				}
				span, ok := m.Span(id)
				if !ok {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d/%d\n",
					label, zones.RangeLabel(span), g.ID, li+1, len(g.Layers))
			}
		}
	}
	tw.Flush()
	return b.String()
}

// formatPlanSummary renders the track plan as a short listing.
func formatPlanSummary(plan zones.Plan) string {
	if len(plan.Tracks) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\nTrack plan (%d tracks", len(plan.Tracks))
	if len(plan.Buses) > 0 {
		fmt.Fprintf(&b, ", %d buses", len(plan.Buses))
	}
	b.WriteString("):\n")
	for _, t := range plan.Tracks {
		fmt.Fprintf(&b, "  %s (group %d, layer %d: %s)\n",
			t.Name, t.GroupID, t.Layer+1, strings.Join(t.ZoneIDs, ", "))
	}
	for _, bus := range plan.Buses {
		fmt.Fprintf(&b, "  %s routes %d tracks\n", bus.Name, bus.Tracks)
	}
	return b.String()
}

// formatGroupStats renders per-group overlap statistics.
func formatGroupStats(m *interval.Manager) string {
	var b strings.Builder
	b.WriteString("\nGroup statistics:\n")
	tw := tabwriter.NewWriter(&b, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tBOUNDS\tZONES\tLAYERS")
	for _, g := range m.Groups() {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\n",
			g.ID, zones.RangeLabel(g.Bounds), len(g.Members), len(g.Layers))
	}
	tw.Flush()
	return b.String()
}

// formatDensity renders axis coverage statistics.
func formatDensity(stats analysis.DensityStats) string {
	return fmt.Sprintf("coverage %.0f%% of axis, mean depth %.2f, peak depth %d at note %d",
		stats.Coverage*100, stats.MeanDepth, stats.MaxDepth, stats.PeakNote)
}

func printStats() {
	stats := metrics.AllTimingStats()
	if len(stats) == 0 {
		fmt.Println("\nNo timing metrics recorded.")
		return
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].TotalMs > stats[j].TotalMs })
	fmt.Println("\nTiming metrics:")
	tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tCOUNT\tTOTAL MS\tAVG MS\tMAX MS")
	for _, s := range stats {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.2f\n", s.Name, s.Count, s.TotalMs, s.AvgMs, s.MaxMs)
	}
	tw.Flush()
}
