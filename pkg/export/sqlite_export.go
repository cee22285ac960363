package export

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/keyspan/pkg/interval"
	"github.com/vanderheijden86/keyspan/pkg/metrics"
	"github.com/vanderheijden86/keyspan/pkg/version"
	"github.com/vanderheijden86/keyspan/pkg/zones"
)

// SQLiteExporter writes a computed layout to a SQLite database so external
// tools can query placements without re-running the layout.
type SQLiteExporter struct {
	Set     *zones.Set
	Manager *interval.Manager
	Plan    zones.Plan
}

// NewSQLiteExporter creates an exporter for the given layout state.
func NewSQLiteExporter(set *zones.Set, m *interval.Manager, plan zones.Plan) *SQLiteExporter {
	return &SQLiteExporter{Set: set, Manager: m, Plan: plan}
}

// Export writes the database at dbPath, replacing any existing file.
func (e *SQLiteExporter) Export(dbPath string) error {
	defer metrics.Timer(metrics.SQLiteExport)()

	if e.Set == nil || e.Manager == nil {
		return fmt.Errorf("zone set and layout manager are required")
	}

	if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing database: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := createSchema(db); err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := e.insertMeta(tx); err != nil {
		return err
	}
	if err := e.insertZones(tx); err != nil {
		return err
	}
	if err := e.insertGroups(tx); err != nil {
		return err
	}
	if err := e.insertTracks(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	CREATE TABLE zones (
		id          TEXT PRIMARY KEY,
		name        TEXT,
		instrument  TEXT,
		color       TEXT,
		low         INTEGER NOT NULL,
		high        INTEGER NOT NULL,
		group_id    INTEGER NOT NULL,
		layer_index INTEGER NOT NULL,
		layer_count INTEGER NOT NULL
	);
	CREATE TABLE groups (
		id          INTEGER PRIMARY KEY,
		low         INTEGER NOT NULL,
		high        INTEGER NOT NULL,
		layer_count INTEGER NOT NULL
	);
	CREATE TABLE tracks (
		name     TEXT NOT NULL,
		group_id INTEGER NOT NULL,
		layer    INTEGER NOT NULL,
		zone_id  TEXT NOT NULL
	);
	CREATE INDEX idx_zones_group ON zones(group_id);
	CREATE INDEX idx_tracks_group ON tracks(group_id);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (e *SQLiteExporter) insertMeta(tx *sql.Tx) error {
	stmt, err := tx.Prepare("INSERT INTO meta (key, value) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("prepare meta: %w", err)
	}
	defer stmt.Close()

	rows := [][2]string{
		{"version", version.Version},
		{"bank", e.Set.Name},
		{"exported_at", time.Now().UTC().Format(time.RFC3339)},
		{"zone_count", fmt.Sprintf("%d", e.Manager.Len())},
		{"group_count", fmt.Sprintf("%d", e.Manager.GroupCount())},
	}
	for _, r := range rows {
		if _, err := stmt.Exec(r[0], r[1]); err != nil {
			return fmt.Errorf("insert meta %s: %w", r[0], err)
		}
	}
	return nil
}

func (e *SQLiteExporter) insertZones(tx *sql.Tx) error {
	stmt, err := tx.Prepare(`INSERT INTO zones
		(id, name, instrument, color, low, high, group_id, layer_index, layer_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare zones: %w", err)
	}
	defer stmt.Close()

	for _, z := range e.Set.Zones {
		pl, err := e.Manager.Placement(z.ID)
		if err != nil {
			return fmt.Errorf("zone %q has no placement: %w", z.ID, err)
		}
		if _, err := stmt.Exec(z.ID, z.Name, z.Instrument, z.Color, z.Low, z.High,
			pl.GroupID, pl.LayerIndex, pl.LayerCount); err != nil {
			return fmt.Errorf("insert zone %s: %w", z.ID, err)
		}
	}
	return nil
}

func (e *SQLiteExporter) insertGroups(tx *sql.Tx) error {
	stmt, err := tx.Prepare("INSERT INTO groups (id, low, high, layer_count) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare groups: %w", err)
	}
	defer stmt.Close()

	for _, g := range e.Manager.Groups() {
		if _, err := stmt.Exec(g.ID, g.Bounds.Start, g.Bounds.End, len(g.Layers)); err != nil {
			return fmt.Errorf("insert group %d: %w", g.ID, err)
		}
	}
	return nil
}

func (e *SQLiteExporter) insertTracks(tx *sql.Tx) error {
	stmt, err := tx.Prepare("INSERT INTO tracks (name, group_id, layer, zone_id) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare tracks: %w", err)
	}
	defer stmt.Close()

	for _, t := range e.Plan.Tracks {
		for _, zid := range t.ZoneIDs {
			if _, err := stmt.Exec(t.Name, t.GroupID, t.Layer, zid); err != nil {
				return fmt.Errorf("insert track row %s: %w", t.Name, err)
			}
		}
	}
	return nil
}
