package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/feral-file/pkp-indexer/internal/adapter"
	"github.com/feral-file/pkp-indexer/internal/config"
	"github.com/feral-file/pkp-indexer/internal/logger"
	"github.com/feral-file/pkp-indexer/internal/providers/dune"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadTableSetupConfig(*configFile, *envPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "dune-table-setup",
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer logger.Flush(2 * time.Second)

	if err := cfg.Validate(); err != nil {
		logger.Error(fmt.Errorf("invalid configuration: %w", err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpClient := adapter.NewHTTPClientWithRetry(cfg.Dune.HTTPTimeout, adapter.DefaultRetryConfig())
	client := dune.NewClient(httpClient, nil, cfg.Dune.APIURL, cfg.Dune.APIKey, adapter.NewJSON())

	var tables []dune.CreateTableRequest
	if cfg.Dune.EventsTable != "" {
		tables = append(tables, dune.EventsTable(cfg.Dune.Namespace, cfg.Dune.EventsTable, cfg.Dune.PrivateTables))
	}
	if cfg.Dune.EndBlockTable != "" {
		tables = append(tables, dune.EndBlockTable(cfg.Dune.Namespace, cfg.Dune.EndBlockTable, cfg.Dune.PrivateTables))
	}

	if err := dune.CreateTables(ctx, client, tables...); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("namespace", cfg.Dune.Namespace))
		return 1
	}

	logger.InfoCtx(ctx, "Dune tables ready",
		zap.String("namespace", cfg.Dune.Namespace),
		zap.Int("tables", len(tables)))
	return 0
}
