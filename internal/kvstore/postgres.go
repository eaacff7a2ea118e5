package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/gymtracker/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
)

var _ Backend = (*PostgresStore)(nil)

// pgxPool is the subset of *pgxpool.Pool used by the store.
type pgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

type PostgresStore struct {
	db pgxPool
}

// NewPostgresStore creates the kv_store table if missing and returns the store.
func NewPostgresStore(ctx context.Context, db pgxPool) (*PostgresStore, error) {
	_, err := db.Exec(ctx, `CREATE TABLE IF NOT EXISTS kv_store (
		store_key   TEXT PRIMARY KEY,
		store_value TEXT NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	);`)
	if err != nil {
		return nil, fmt.Errorf("create kv_store table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (_ string, _ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "kvstore.postgres.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("key", key))

	var value string
	err = s.db.QueryRow(ctx,
		`SELECT store_value FROM kv_store WHERE store_key = $1;`,
		key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query key %s: %w", key, err)
	}
	return value, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key, value string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "kvstore.postgres.set")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("key", key))

	tag, err := s.db.Exec(ctx,
		`INSERT INTO kv_store (store_key, store_value, updated_at) VALUES ($1, $2, now())
			ON CONFLICT (store_key) DO UPDATE SET store_value = EXCLUDED.store_value, updated_at = EXCLUDED.updated_at;`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("upsert key %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("upsert key %s: no rows affected", key)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
