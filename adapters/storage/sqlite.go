package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"move-quote/core/settings"
	qerrors "move-quote/internal/errors"
)

const dialectSQLite = "sqlite3"

// SQLiteStore keeps settings revisions in a SQLite database
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens a SQLite database, sets recommended pragmas, validates
// connectivity and applies migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, qerrors.Storage("open sqlite database", err)
	}

	if _, err := db.ExecContext(ctx, `
		PRAGMA journal_mode = WAL;
		PRAGMA foreign_keys = ON;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		db.Close()
		return nil, qerrors.Storage("set sqlite pragmas", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, qerrors.Storage("ping sqlite database", err)
	}

	if err := Migrate(ctx, db, dialectSQLite); err != nil {
		db.Close()
		return nil, qerrors.Storage("migrate sqlite database", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Name implements settings.Source
func (s *SQLiteStore) Name() string {
	return "sqlite:" + filepath.Base(s.path)
}

// DB exposes the underlying handle
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// SchemaVersion returns the applied migration version
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (int64, error) {
	return SchemaVersion(ctx, s.db, dialectSQLite)
}

// Close implements io.Closer
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Fetch implements settings.Source: it returns the latest revision
func (s *SQLiteStore) Fetch(ctx context.Context) (settings.Document, error) {
	var rev sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(revision) FROM settings_revisions`).Scan(&rev); err != nil {
		return settings.Document{}, qerrors.Storage("read latest revision", err)
	}
	if !rev.Valid {
		return settings.Document{}, qerrors.NotFound("settings revision", s.Name())
	}

	doc := settings.Document{Revision: rev.Int64, Values: map[string]string{}}

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings_values WHERE revision = ? ORDER BY key`, rev.Int64)
	if err != nil {
		return settings.Document{}, qerrors.Storage("read settings values", err)
	}
	defer rows.Close()
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return settings.Document{}, qerrors.Storage("scan settings value", err)
		}
		doc.Values[k] = v
	}
	if err := rows.Err(); err != nil {
		return settings.Document{}, qerrors.Storage("read settings values", err)
	}

	promos, err := s.db.QueryContext(ctx, `
		SELECT code, kind, value, valid_from, valid_to, max_discount
		FROM promo_codes WHERE revision = ? ORDER BY code`, rev.Int64)
	if err != nil {
		return settings.Document{}, qerrors.Storage("read promo codes", err)
	}
	defer promos.Close()
	for promos.Next() {
		var p settings.PromoRecord
		if err := promos.Scan(&p.Code, &p.Kind, &p.Value, &p.ValidFrom, &p.ValidTo, &p.MaxDiscount); err != nil {
			return settings.Document{}, qerrors.Storage("scan promo code", err)
		}
		doc.Promos = append(doc.Promos, p)
	}
	if err := promos.Err(); err != nil {
		return settings.Document{}, qerrors.Storage("read promo codes", err)
	}

	return doc, nil
}

// Import implements Importer. The stored revision is always one above the
// latest; doc.Revision is ignored.
func (s *SQLiteStore) Import(ctx context.Context, doc settings.Document, note string) (int64, error) {
	if _, err := settings.Build(doc); err != nil {
		return 0, qerrors.Wrap(qerrors.TypeValidation, "settings document rejected", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, qerrors.Storage("begin import", err)
	}
	defer tx.Rollback()

	var latest sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(revision) FROM settings_revisions`).Scan(&latest); err != nil {
		return 0, qerrors.Storage("read latest revision", err)
	}
	rev := latest.Int64 + 1

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO settings_revisions (revision, note, created_at) VALUES (?, ?, ?)`,
		rev, note, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return 0, qerrors.Storage("insert revision", err)
	}
	for k, v := range doc.Values {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO settings_values (revision, key, value) VALUES (?, ?, ?)`, rev, k, v); err != nil {
			return 0, qerrors.Storage(fmt.Sprintf("insert value %s", k), err)
		}
	}
	for _, p := range doc.Promos {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO promo_codes (revision, code, kind, value, valid_from, valid_to, max_discount)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rev, p.Code, p.Kind, p.Value, p.ValidFrom, p.ValidTo, p.MaxDiscount); err != nil {
			return 0, qerrors.Storage(fmt.Sprintf("insert promo %s", p.Code), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, qerrors.Storage("commit import", err)
	}
	return rev, nil
}

// Revisions lists stored revisions, newest first
func (s *SQLiteStore) Revisions(ctx context.Context, limit int) ([]Revision, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT revision, note, created_at FROM settings_revisions ORDER BY revision DESC LIMIT ?`, limit)
	if err != nil {
		return nil, qerrors.Storage("list revisions", err)
	}
	defer rows.Close()

	var out []Revision
	for rows.Next() {
		var r Revision
		var created string
		if err := rows.Scan(&r.Revision, &r.Note, &created); err != nil {
			return nil, qerrors.Storage("scan revision", err)
		}
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			r.CreatedAt = t
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, qerrors.Storage("list revisions", err)
	}
	return out, nil
}

// Revision is one stored settings revision
type Revision struct {
	Revision  int64     `json:"revision"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
