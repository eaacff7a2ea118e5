package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/2beens/gymtracker/internal/telemetry/tracing"
	"github.com/2beens/gymtracker/pkg"

	"go.opentelemetry.io/otel/attribute"
	_ "modernc.org/sqlite"
)

var _ Backend = (*SQLiteStore)(nil)

// SQLiteStore is the default on-device backend: a single kv_store table in a local db file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the SQLite database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if err := pkg.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("creating sqlite dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// single writer; avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS kv_store (
		store_key   TEXT PRIMARY KEY,
		store_value TEXT NOT NULL,
		updated_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating kv_store table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (_ string, _ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "kvstore.sqlite.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("key", key))

	var value string
	err = s.db.QueryRowContext(ctx,
		`SELECT store_value FROM kv_store WHERE store_key = ?`,
		key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query key %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key, value string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "kvstore.sqlite.set")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("key", key))
	span.SetAttributes(attribute.Int("value_len", len(value)))

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv_store (store_key, store_value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(store_key) DO UPDATE SET store_value = excluded.store_value, updated_at = excluded.updated_at`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("upsert key %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
