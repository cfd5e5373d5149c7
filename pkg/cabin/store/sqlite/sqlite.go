package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/cabin/pkg/cabin/catalog"
	"github.com/cognicore/cabin/pkg/cabin/internalerr"
	"github.com/cognicore/cabin/pkg/cabin/normalize"
	"github.com/cognicore/cabin/pkg/cabin/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS settings (
	name TEXT PRIMARY KEY,
	position INTEGER NOT NULL,
	categories TEXT,
	allows_amount INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS setting_values (
	setting TEXT NOT NULL,
	position INTEGER NOT NULL,
	name TEXT NOT NULL,
	requires_amount INTEGER NOT NULL DEFAULT 0,
	requires_confirmation INTEGER NOT NULL DEFAULT 0,
	antonym TEXT,
	changes_sign INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY(setting, name),
	FOREIGN KEY(setting) REFERENCES settings(name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS setting_amounts (
	setting TEXT NOT NULL,
	position INTEGER NOT NULL,
	unit TEXT,
	min REAL,
	max REAL,
	PRIMARY KEY(setting, position),
	FOREIGN KEY(setting) REFERENCES settings(name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS setting_includes (
	setting TEXT NOT NULL,
	position INTEGER NOT NULL,
	included TEXT NOT NULL,
	PRIMARY KEY(setting, included),
	FOREIGN KEY(setting) REFERENCES settings(name) ON DELETE CASCADE,
	FOREIGN KEY(included) REFERENCES settings(name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS alternative_names (
	setting TEXT PRIMARY KEY,
	names TEXT,
	value_names TEXT
);

CREATE TABLE IF NOT EXISTS normalization_entries (
	table_name TEXT NOT NULL,
	position INTEGER NOT NULL,
	canonical TEXT NOT NULL,
	aliases TEXT NOT NULL,
	PRIMARY KEY(table_name, position)
);

CREATE TABLE IF NOT EXISTS records (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	intent TEXT,
	stage TEXT,
	entities TEXT,
	changes TEXT,
	statuses TEXT
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveCatalog replaces the stored catalog with c
func (s *sqliteStore) SaveCatalog(ctx context.Context, c *catalog.Catalog) error {
	if c == nil {
		return fmt.Errorf("save nil catalog: %w", internalerr.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM setting_includes",
		"DELETE FROM setting_amounts",
		"DELETE FROM setting_values",
		"DELETE FROM settings",
		"DELETE FROM alternative_names",
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	settings := c.Settings()
	for i, st := range settings {
		cats, err := json.Marshal(st.Categories)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO settings (name, position, categories, allows_amount) VALUES (?, ?, ?, ?)`,
			st.CanonicalName, i, string(cats), st.AllowsAmount); err != nil {
			return fmt.Errorf("insert setting %s: %w", st.CanonicalName, err)
		}
		if err := insertValues(ctx, tx, st); err != nil {
			return err
		}
		if err := insertAmounts(ctx, tx, st); err != nil {
			return err
		}
	}

	// Includes reference other settings, so they go in after all settings exist.
	for _, st := range settings {
		for j, included := range st.IncludedSettings {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO setting_includes (setting, position, included) VALUES (?, ?, ?)`,
				st.CanonicalName, j, included); err != nil {
				return fmt.Errorf("insert include %s -> %s: %w", st.CanonicalName, included, err)
			}
		}
	}

	for name, alt := range c.Alternatives() {
		names, err := json.Marshal(alt.Names)
		if err != nil {
			return err
		}
		valueNames, err := json.Marshal(alt.ValueNames)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO alternative_names (setting, names, value_names) VALUES (?, ?, ?)`,
			name, string(names), string(valueNames)); err != nil {
			return fmt.Errorf("insert alternative names for %s: %w", name, err)
		}
	}

	return tx.Commit()
}

func insertValues(ctx context.Context, tx *sql.Tx, st catalog.Setting) error {
	const stmt = `
INSERT INTO setting_values (setting, position, name, requires_amount, requires_confirmation, antonym, changes_sign)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	for i, v := range st.Values {
		if _, err := tx.ExecContext(ctx, stmt,
			st.CanonicalName, i, v.CanonicalName,
			v.RequiresAmount, v.RequiresConfirmation, v.Antonym, v.ChangesSignOfAmount); err != nil {
			return fmt.Errorf("insert value %s/%s: %w", st.CanonicalName, v.CanonicalName, err)
		}
	}
	return nil
}

func insertAmounts(ctx context.Context, tx *sql.Tx, st catalog.Setting) error {
	for i, a := range st.Amounts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO setting_amounts (setting, position, unit, min, max) VALUES (?, ?, ?, ?, ?)`,
			st.CanonicalName, i, a.Unit, nullFloat(a.Min), nullFloat(a.Max)); err != nil {
			return fmt.Errorf("insert amount %s[%d]: %w", st.CanonicalName, i, err)
		}
	}
	return nil
}

// LoadCatalog rebuilds the stored catalog, validating it again
func (s *sqliteStore) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, categories, allows_amount FROM settings ORDER BY position`)
	if err != nil {
		return nil, err
	}

	var (
		settings []catalog.Setting
		index    = make(map[string]int)
	)
	for rows.Next() {
		var (
			st   catalog.Setting
			cats sql.NullString
		)
		if err := rows.Scan(&st.CanonicalName, &cats, &st.AllowsAmount); err != nil {
			rows.Close()
			return nil, err
		}
		if cats.Valid {
			if err := json.Unmarshal([]byte(cats.String), &st.Categories); err != nil {
				rows.Close()
				return nil, fmt.Errorf("decode categories of %s: %w", st.CanonicalName, err)
			}
		}
		index[st.CanonicalName] = len(settings)
		settings = append(settings, st)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(settings) == 0 {
		return nil, fmt.Errorf("catalog: %w", internalerr.ErrNotFound)
	}

	if err := s.loadValues(ctx, settings, index); err != nil {
		return nil, err
	}
	if err := s.loadAmounts(ctx, settings, index); err != nil {
		return nil, err
	}
	if err := s.loadIncludes(ctx, settings, index); err != nil {
		return nil, err
	}

	alternatives, err := s.loadAlternatives(ctx)
	if err != nil {
		return nil, err
	}

	return catalog.New(settings, alternatives)
}

func (s *sqliteStore) loadValues(ctx context.Context, settings []catalog.Setting, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, `
SELECT setting, name, requires_amount, requires_confirmation, antonym, changes_sign
FROM setting_values ORDER BY setting, position`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name    string
			v       catalog.Value
			antonym sql.NullString
		)
		if err := rows.Scan(&name, &v.CanonicalName, &v.RequiresAmount, &v.RequiresConfirmation, &antonym, &v.ChangesSignOfAmount); err != nil {
			return err
		}
		v.Antonym = antonym.String
		i := index[name]
		settings[i].Values = append(settings[i].Values, v)
	}
	return rows.Err()
}

func (s *sqliteStore) loadAmounts(ctx context.Context, settings []catalog.Setting, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT setting, unit, min, max FROM setting_amounts ORDER BY setting, position`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name   string
			unit   sql.NullString
			lo, hi sql.NullFloat64
		)
		if err := rows.Scan(&name, &unit, &lo, &hi); err != nil {
			return err
		}
		i := index[name]
		settings[i].Amounts = append(settings[i].Amounts, catalog.Amount{
			Unit: unit.String,
			Min:  floatPtr(lo),
			Max:  floatPtr(hi),
		})
	}
	return rows.Err()
}

func (s *sqliteStore) loadIncludes(ctx context.Context, settings []catalog.Setting, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT setting, included FROM setting_includes ORDER BY setting, position`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, included string
		if err := rows.Scan(&name, &included); err != nil {
			return err
		}
		i := index[name]
		settings[i].IncludedSettings = append(settings[i].IncludedSettings, included)
	}
	return rows.Err()
}

func (s *sqliteStore) loadAlternatives(ctx context.Context) (map[string]catalog.AlternativeNames, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT setting, names, value_names FROM alternative_names`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]catalog.AlternativeNames)
	for rows.Next() {
		var (
			name              string
			names, valueNames sql.NullString
			alt               catalog.AlternativeNames
		)
		if err := rows.Scan(&name, &names, &valueNames); err != nil {
			return nil, err
		}
		if names.Valid {
			if err := json.Unmarshal([]byte(names.String), &alt.Names); err != nil {
				return nil, fmt.Errorf("decode alternative names of %s: %w", name, err)
			}
		}
		if valueNames.Valid {
			if err := json.Unmarshal([]byte(valueNames.String), &alt.ValueNames); err != nil {
				return nil, fmt.Errorf("decode alternative value names of %s: %w", name, err)
			}
		}
		out[name] = alt
	}
	return out, rows.Err()
}

// SaveTable replaces the named normalization table
func (s *sqliteStore) SaveTable(ctx context.Context, name string, entries []normalize.Entry) error {
	if name == "" {
		return fmt.Errorf("table without name: %w", internalerr.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM normalization_entries WHERE table_name = ?`, name); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO normalization_entries (table_name, position, canonical, aliases) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, e := range entries {
		aliases, err := json.Marshal(e.Aliases)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, name, i, e.Canonical, string(aliases)); err != nil {
			return fmt.Errorf("insert %s entry %q: %w", name, e.Canonical, err)
		}
	}

	return tx.Commit()
}

// LoadTable returns the entries of the named table in saved order
func (s *sqliteStore) LoadTable(ctx context.Context, name string) ([]normalize.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT canonical, aliases FROM normalization_entries WHERE table_name = ? ORDER BY position`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []normalize.Entry
	for rows.Next() {
		var (
			e       normalize.Entry
			aliases string
		)
		if err := rows.Scan(&e.Canonical, &aliases); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(aliases), &e.Aliases); err != nil {
			return nil, fmt.Errorf("decode aliases of %s/%s: %w", name, e.Canonical, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if entries == nil {
		return nil, fmt.Errorf("table %q: %w", name, internalerr.ErrNotFound)
	}
	return entries, nil
}

// AppendRecord adds a record to the journal
func (s *sqliteStore) AppendRecord(ctx context.Context, r store.Record) error {
	if r.ID == "" {
		return fmt.Errorf("record without id: %w", internalerr.ErrInvalidInput)
	}

	entitiesJSON, err := json.Marshal(r.Entities)
	if err != nil {
		return err
	}
	changesJSON, err := json.Marshal(r.Changes)
	if err != nil {
		return err
	}
	statusesJSON, err := json.Marshal(r.Statuses)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO records (id, created_at, intent, stage, entities, changes, statuses)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.Time.UTC().Format(time.RFC3339Nano),
		r.Intent,
		r.Stage,
		string(entitiesJSON),
		string(changesJSON),
		string(statusesJSON),
	)
	if err != nil {
		return fmt.Errorf("append record %s: %w", r.ID, err)
	}
	return nil
}

// RecentRecords returns up to k records, newest first. IDs are ULIDs, so
// they sort by creation time.
func (s *sqliteStore) RecentRecords(ctx context.Context, k int) ([]store.Record, error) {
	query := `SELECT id, created_at, intent, stage, entities, changes, statuses FROM records ORDER BY id DESC`
	var args []any
	if k > 0 {
		query += ` LIMIT ?`
		args = append(args, k)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []store.Record
	for rows.Next() {
		var (
			r         store.Record
			createdAt string
			cols      [5]sql.NullString
		)
		if err := rows.Scan(&r.ID, &createdAt, &cols[0], &cols[1], &cols[2], &cols[3], &cols[4]); err != nil {
			return nil, err
		}
		r.Intent = cols[0].String
		r.Stage = cols[1].String
		if r.Time, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("record %s: %w", r.ID, err)
		}
		if err := decodeJSON(cols[2], &r.Entities); err != nil {
			return nil, fmt.Errorf("record %s entities: %w", r.ID, err)
		}
		if err := decodeJSON(cols[3], &r.Changes); err != nil {
			return nil, fmt.Errorf("record %s changes: %w", r.ID, err)
		}
		if err := decodeJSON(cols[4], &r.Statuses); err != nil {
			return nil, fmt.Errorf("record %s statuses: %w", r.ID, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func decodeJSON(s sql.NullString, v any) error {
	if !s.Valid || s.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(s.String), v)
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
