package datasource

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/keyspan/pkg/zones"
)

// SQLiteReader reads zone banks from a SQLite database written by the
// snapshot exporter (or any database with a compatible zones table).
type SQLiteReader struct {
	db   *sql.DB
	path string
}

// NewSQLiteReader opens the database at path for reading
func NewSQLiteReader(path string) (*SQLiteReader, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database %s: %w", path, err)
	}
	return &SQLiteReader{db: db, path: path}, nil
}

// Close releases the database handle
func (r *SQLiteReader) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// ReadSet loads all zones from the zones table
func (r *SQLiteReader) ReadSet() (*zones.Set, error) {
	rows, err := r.db.Query(`SELECT id, COALESCE(name, ''), COALESCE(instrument, ''), low, high, COALESCE(color, '') FROM zones ORDER BY low, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query zones: %w", err)
	}
	defer rows.Close()

	set := &zones.Set{Name: bankNameFromPath(r.path)}
	for rows.Next() {
		var z zones.Zone
		if err := rows.Scan(&z.ID, &z.Name, &z.Instrument, &z.Low, &z.High, &z.Color); err != nil {
			return nil, fmt.Errorf("failed to scan zone row: %w", err)
		}
		set.Zones = append(set.Zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate zone rows: %w", err)
	}

	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("invalid zone data in %s: %w", r.path, err)
	}
	return set, nil
}

// BankName reads the bank name from the meta table if present, falling
// back to the database filename.
func (r *SQLiteReader) BankName() string {
	var name string
	err := r.db.QueryRow(`SELECT value FROM meta WHERE key = 'bank'`).Scan(&name)
	if err != nil || name == "" {
		return bankNameFromPath(r.path)
	}
	return name
}

func bankNameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
