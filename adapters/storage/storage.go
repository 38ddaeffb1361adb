// Package storage provides settings storage backends.
// Supports a JSON file, SQLite and PostgreSQL. Each backend is a
// settings.Source; the database backends also accept imports.
package storage

import (
	"context"
	"fmt"
	"io"

	"move-quote/core/settings"
)

// Backend is a storage backend type
type Backend string

const (
	BackendDefault  Backend = "default"
	BackendFile     Backend = "file"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// Store is a settings source that can be closed
type Store interface {
	settings.Source
	io.Closer
}

// Importer writes a new settings revision
type Importer interface {
	// Import validates doc and stores it as the next revision, returning
	// the revision assigned
	Import(ctx context.Context, doc settings.Document, note string) (int64, error)
}

// Config selects and configures a backend
type Config struct {
	Backend Backend

	// Path is the JSON file or SQLite database path
	Path string

	// DSN is the PostgreSQL connection string
	DSN string
}

// Open creates the store for cfg. Database backends are migrated first.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendDefault, "":
		return nopCloser{settings.StaticSource{Label: settings.DefaultSourceName, Doc: settings.DefaultDocument()}}, nil
	case BackendFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("file backend requires a path")
		}
		return NewFileSource(cfg.Path), nil
	case BackendSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite backend requires a path")
		}
		return OpenSQLite(ctx, cfg.Path)
	case BackendPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres backend requires a dsn")
		}
		return OpenPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported backend: %s", cfg.Backend)
	}
}

type nopCloser struct {
	settings.Source
}

func (nopCloser) Close() error { return nil }

// Ensure interfaces are implemented
var (
	_ Store    = (*FileSource)(nil)
	_ Store    = (*SQLiteStore)(nil)
	_ Store    = (*PostgresStore)(nil)
	_ Importer = (*SQLiteStore)(nil)
	_ Importer = (*PostgresStore)(nil)
)
