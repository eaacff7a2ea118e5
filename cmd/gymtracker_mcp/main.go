// Package main runs the read-only gymtracker MCP server over stdio.
// Stdout carries the protocol, so logs go to stderr or to the configured file.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/2beens/gymtracker/internal/config"
	gymmcp "github.com/2beens/gymtracker/internal/gymstats/mcp"
	"github.com/2beens/gymtracker/internal/gymstats/routines"
	"github.com/2beens/gymtracker/internal/gymstats/workouts"
	"github.com/2beens/gymtracker/internal/kvstore"
	"github.com/2beens/gymtracker/internal/logging"
	"github.com/2beens/gymtracker/internal/telemetry/metrics"
	"github.com/2beens/gymtracker/internal/telemetry/tracing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path to TOML config file")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    cfg.LogFormatJSON,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        os.Getenv("SENTRY_DSN"),
		SentryServerName: "gymtracker-mcp",
	})
	log.Warnf("---->> running in [%s] environment", cfg.Environment)

	otelShutdown, err := tracing.HoneycombSetup(cfg.TracingEnabled)
	if err != nil {
		log.Fatalf("otel setup: %s", err)
	}
	defer otelShutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	promRegistry := metrics.SetupPrometheus()
	metricsManager := metrics.NewManager("gymtracker", "mcp", promRegistry)

	store, err := kvstore.Open(ctx, kvstore.Params{
		Backend:          cfg.StorageBackend,
		Path:             cfg.StoragePath,
		CacheSizeMB:      cfg.CacheSizeMB,
		RedisHost:        cfg.RedisHost,
		RedisPort:        cfg.RedisPort,
		RedisPassword:    cfg.RedisPassword,
		RedisDB:          cfg.RedisDB,
		RedisKeyPrefix:   cfg.RedisKeyPrefix,
		PostgresHost:     cfg.PostgresHost,
		PostgresPort:     cfg.PostgresPort,
		PostgresDBName:   cfg.PostgresDBName,
		PostgresUser:     cfg.PostgresUser,
		PostgresPassword: cfg.PostgresPassword,
		PostgresMaxConns: cfg.PostgresMaxConns,
		TracingEnabled:   cfg.TracingEnabled,
		Registerer:       promRegistry,
	})
	if err != nil {
		log.Fatalf("open kv store: %s", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Errorf("close kv store: %s", err)
		}
	}()

	if cfg.MetricsAddr != "" {
		metrics.Serve(ctx, cfg.MetricsAddr, promRegistry)
	}

	routinesRepo := routines.NewRepo(store, metricsManager)
	historyRepo := workouts.NewHistoryRepo(store, cfg.HistoryLimit, metricsManager)
	server := gymmcp.NewServer(routinesRepo, workouts.NewAnalyzer(historyRepo))

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-signals
		log.Warnf("signal [%s] received, stopping", sig)
		cancel()
	}()

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		log.Errorf("mcp server: %s", err)
	}
	log.Infoln("mcp server stopped")
}
