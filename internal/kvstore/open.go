package kvstore

import (
	"context"
	"fmt"
	"net"

	"github.com/2beens/gymtracker/internal/db"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const megabyte = 1024 * 1024

type Params struct {
	Backend     string // memory | file | sqlite | redis | postgres
	Path        string
	CacheSizeMB int

	RedisHost      string
	RedisPort      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	PostgresHost     string
	PostgresPort     string
	PostgresDBName   string
	PostgresUser     string
	PostgresPassword string
	PostgresMaxConns int32

	TracingEnabled bool
	// Registerer receives the pgx pool collector for the postgres backend (optional).
	Registerer prometheus.Registerer
}

// Open builds the configured backend, wrapped with the freecache layer when
// CacheSizeMB > 0.
func Open(ctx context.Context, params Params) (Backend, error) {
	backend, err := openBackend(ctx, params)
	if err != nil {
		return nil, err
	}

	if params.CacheSizeMB > 0 {
		log.Debugf("kv store: using %d MB freecache layer", params.CacheSizeMB)
		return NewCachedStore(backend, params.CacheSizeMB*megabyte), nil
	}
	return backend, nil
}

func openBackend(ctx context.Context, params Params) (Backend, error) {
	log.Infof("kv store: opening [%s] backend", params.Backend)

	switch params.Backend {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(params.Path)
	case "sqlite":
		return OpenSQLiteStore(params.Path)
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(params.RedisHost, params.RedisPort),
			Password: params.RedisPassword,
			DB:       params.RedisDB,
		})
		if params.TracingEnabled {
			rdb.AddHook(redisotel.NewTracingHook())
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Errorf("--> failed to ping redis: %s", err)
		}
		return NewRedisStore(rdb, params.RedisKeyPrefix), nil
	case "postgres":
		pool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         params.PostgresHost,
			DBPort:         params.PostgresPort,
			DBName:         params.PostgresDBName,
			DBUser:         params.PostgresUser,
			DBPassword:     params.PostgresPassword,
			MaxConns:       params.PostgresMaxConns,
			TracingEnabled: params.TracingEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		if params.Registerer != nil {
			params.Registerer.MustRegister(pgxpoolprometheus.NewCollector(
				pool,
				map[string]string{"db_name": params.PostgresDBName},
			))
		}
		store, err := NewPostgresStore(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, params.Backend)
	}
}
