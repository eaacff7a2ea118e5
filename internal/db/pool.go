package db

import (
	"context"
	"fmt"
	"net"
	"net/url"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultUser     = "postgres"
	defaultMaxConns = 4
)

type NewDBPoolParams struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string // postgres when empty
	DBPassword string
	// MaxConns caps the pool; 0 means 4 (one local user).
	MaxConns       int32
	TracingEnabled bool
}

// NewDBPool builds a lazily connecting pool; the first query opens a connection.
func NewDBPool(ctx context.Context, params NewDBPoolParams) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connString(params))
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	poolConfig.MaxConns = params.MaxConns
	if poolConfig.MaxConns <= 0 {
		poolConfig.MaxConns = defaultMaxConns
	}
	if params.TracingEnabled {
		poolConfig.ConnConfig.Tracer = otelpgx.NewTracer()
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	return pool, nil
}

func connString(params NewDBPoolParams) string {
	user := params.DBUser
	if user == "" {
		user = defaultUser
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.User(user),
		Host:   net.JoinHostPort(params.DBHost, params.DBPort),
		Path:   "/" + params.DBName,
	}
	if params.DBPassword != "" {
		u.User = url.UserPassword(user, params.DBPassword)
	}
	return u.String()
}
