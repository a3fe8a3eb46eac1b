package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver
	_ "modernc.org/sqlite"             // register sqlite as database/sql driver

	"sticky-uploads/internal/config"
)

var ErrNotFound = errors.New("not found")

// Store wraps the upload-record database connection.
type Store struct {
	DB     *sql.DB
	driver string
}

// New opens a connection for the configured driver.
func New(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	if cfg.Driver == "" {
		cfg.Driver = "sqlite"
	}

	driverName := "pgx"
	if cfg.IsSQLite() {
		driverName = "sqlite"
	}

	db, err := sql.Open(driverName, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.IsSQLite() {
		// SQLite: single writer, WAL mode for concurrent reads
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL: %w", err)
		}
	} else if cfg.PoolSize > 0 {
		db.SetMaxOpenConns(cfg.PoolSize)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &Store{DB: db, driver: cfg.Driver}, nil
}

// Bootstrap creates the upload-record table. The DDL is portable across
// postgres and sqlite.
func (s *Store) Bootstrap(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS _uploads (
		id           TEXT PRIMARY KEY,
		filename     TEXT NOT NULL,
		stored_name  TEXT NOT NULL,
		storage      TEXT NOT NULL,
		content_type TEXT NOT NULL,
		size         BIGINT NOT NULL,
		token_scope  TEXT NOT NULL,
		created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := s.DB.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create _uploads: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() {
	s.DB.Close()
}

// rebind converts $N placeholders to sqlite's ? form when needed.
func (s *Store) rebind(query string) string {
	if s.driver == "postgres" {
		return query
	}
	out := make([]byte, 0, len(query))
	for i := 0; i < len(query); i++ {
		if query[i] == '$' {
			out = append(out, '?')
			for i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
				i++
			}
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}
