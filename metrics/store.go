package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

// Store keeps aggregated access slots in SQLite. It never holds content.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the metrics database at path.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create metrics dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open metrics db: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS access_slots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			api TEXT NOT NULL,
			name TEXT NOT NULL,
			total INTEGER NOT NULL,
			unique_total INTEGER NOT NULL,
			slot_start INTEGER NOT NULL,
			slot_end INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_access_slots_start ON access_slots(slot_start);
		CREATE INDEX IF NOT EXISTS idx_access_slots_name ON access_slots(api, name);

		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

// currentSchemaVersion is the latest schema version. Increment when adding migrations.
const currentSchemaVersion = 1

func (s *Store) migrate() error {
	verStr, err := s.GetSetting("schema_version")
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	version := 0
	if verStr != "" {
		version, err = strconv.Atoi(verStr)
		if err != nil {
			return fmt.Errorf("parse schema version %q: %w", verStr, err)
		}
	}
	if version < currentSchemaVersion {
		version = currentSchemaVersion
	}
	return s.SetSetting("schema_version", strconv.Itoa(version))
}

// GetSetting retrieves a setting value by key. Returns empty string if not found.
func (s *Store) GetSetting(key string) (string, error) {
	var val string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&val)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return val, err
}

// SetSetting stores a setting value by key (upsert).
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO settings(key, value) VALUES(?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// SaveSlots writes slots in one transaction.
func (s *Store) SaveSlots(ctx context.Context, slots []Slot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO access_slots
		(api, name, total, unique_total, slot_start, slot_end) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, sl := range slots {
		if _, err := stmt.ExecContext(ctx, string(sl.API), sl.Name, sl.Total, sl.UniqueTotal,
			sl.Start.Unix(), sl.End.Unix()); err != nil {
			return fmt.Errorf("insert slot %s/%s: %w", sl.API, sl.Name, err)
		}
	}
	return tx.Commit()
}

// NameStat is the sum of slots for one (api, name) pair.
type NameStat struct {
	API    API
	Name   string
	Total  int
	Unique int
}

// Top returns the most accessed names since the given time.
func (s *Store) Top(ctx context.Context, since time.Time, limit int) ([]NameStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT api, name, SUM(total), SUM(unique_total)
		FROM access_slots
		WHERE slot_start >= ?
		GROUP BY api, name
		ORDER BY SUM(total) DESC, api, name
		LIMIT ?`, since.Unix(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NameStat
	for rows.Next() {
		var ns NameStat
		var api string
		if err := rows.Scan(&api, &ns.Name, &ns.Total, &ns.Unique); err != nil {
			return nil, err
		}
		ns.API = API(api)
		out = append(out, ns)
	}
	return out, rows.Err()
}

// Totals returns the summed totals since the given time.
func (s *Store) Totals(ctx context.Context, since time.Time) (total, unique int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total), 0), COALESCE(SUM(unique_total), 0)
		FROM access_slots WHERE slot_start >= ?`, since.Unix()).Scan(&total, &unique)
	return total, unique, err
}

// Cleanup removes slots older than the retention period.
func (s *Store) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	res, err := s.db.ExecContext(ctx, `DELETE FROM access_slots WHERE slot_end < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("cleanup access_slots: %w", err)
	}
	return res.RowsAffected()
}
