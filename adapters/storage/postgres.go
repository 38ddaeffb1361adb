package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"move-quote/core/settings"
	qerrors "move-quote/internal/errors"
)

const dialectPostgres = "postgres"

// PostgresStore keeps settings revisions in PostgreSQL
type PostgresStore struct {
	db *pgxpool.Pool
}

// OpenPostgres connects a pool and applies migrations
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, qerrors.Storage("connect postgres", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, qerrors.Storage("ping postgres", err)
	}

	sqlDB := stdlib.OpenDBFromPool(db)
	defer sqlDB.Close()
	if err := Migrate(ctx, sqlDB, dialectPostgres); err != nil {
		db.Close()
		return nil, qerrors.Storage("migrate postgres", err)
	}

	return NewPostgresStore(db), nil
}

// NewPostgresStore returns a store backed by the given connection pool
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Name implements settings.Source
func (s *PostgresStore) Name() string {
	return "postgres"
}

// Close implements io.Closer
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

// Fetch implements settings.Source: it returns the latest revision
func (s *PostgresStore) Fetch(ctx context.Context) (settings.Document, error) {
	var rev *int64
	if err := s.db.QueryRow(ctx, `SELECT MAX(revision) FROM settings_revisions`).Scan(&rev); err != nil {
		return settings.Document{}, qerrors.Storage("read latest revision", err)
	}
	if rev == nil {
		return settings.Document{}, qerrors.NotFound("settings revision", s.Name())
	}

	doc := settings.Document{Revision: *rev, Values: map[string]string{}}

	rows, err := s.db.Query(ctx, `SELECT key, value FROM settings_values WHERE revision = $1 ORDER BY key`, *rev)
	if err != nil {
		return settings.Document{}, qerrors.Storage("read settings values", err)
	}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			rows.Close()
			return settings.Document{}, qerrors.Storage("scan settings value", err)
		}
		doc.Values[k] = v
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return settings.Document{}, qerrors.Storage("read settings values", err)
	}

	promos, err := s.db.Query(ctx, `
		SELECT code, kind, value, valid_from, valid_to, max_discount
		FROM promo_codes WHERE revision = $1 ORDER BY code`, *rev)
	if err != nil {
		return settings.Document{}, qerrors.Storage("read promo codes", err)
	}
	doc.Promos, err = pgx.CollectRows(promos, func(row pgx.CollectableRow) (settings.PromoRecord, error) {
		var p settings.PromoRecord
		err := row.Scan(&p.Code, &p.Kind, &p.Value, &p.ValidFrom, &p.ValidTo, &p.MaxDiscount)
		return p, err
	})
	if err != nil {
		return settings.Document{}, qerrors.Storage("read promo codes", err)
	}
	if len(doc.Promos) == 0 {
		doc.Promos = nil
	}

	return doc, nil
}

// Import implements Importer. The stored revision is always one above the
// latest; doc.Revision is ignored.
func (s *PostgresStore) Import(ctx context.Context, doc settings.Document, note string) (int64, error) {
	if _, err := settings.Build(doc); err != nil {
		return 0, qerrors.Wrap(qerrors.TypeValidation, "settings document rejected", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, qerrors.Storage("begin import", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// serialize concurrent imports on the revision counter
	if _, err := tx.Exec(ctx, `LOCK TABLE settings_revisions IN EXCLUSIVE MODE`); err != nil {
		return 0, qerrors.Storage("lock revisions", err)
	}

	var rev int64
	if err := tx.QueryRow(ctx,
		`INSERT INTO settings_revisions (revision, note)
		 SELECT COALESCE(MAX(revision), 0) + 1, $1 FROM settings_revisions
		 RETURNING revision`, note).Scan(&rev); err != nil {
		return 0, qerrors.Storage("insert revision", err)
	}

	batch := &pgx.Batch{}
	for k, v := range doc.Values {
		batch.Queue(`INSERT INTO settings_values (revision, key, value) VALUES ($1, $2, $3)`, rev, k, v)
	}
	for _, p := range doc.Promos {
		batch.Queue(`
			INSERT INTO promo_codes (revision, code, kind, value, valid_from, valid_to, max_discount)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			rev, p.Code, p.Kind, p.Value, p.ValidFrom, p.ValidTo, p.MaxDiscount)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, qerrors.Storage(fmt.Sprintf("insert revision %d", rev), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, qerrors.Storage("commit import", err)
	}
	return rev, nil
}
