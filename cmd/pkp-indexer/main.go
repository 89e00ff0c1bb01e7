package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/feral-file/pkp-indexer/internal/adapter"
	"github.com/feral-file/pkp-indexer/internal/config"
	"github.com/feral-file/pkp-indexer/internal/domain"
	"github.com/feral-file/pkp-indexer/internal/fetcher"
	"github.com/feral-file/pkp-indexer/internal/ingest"
	"github.com/feral-file/pkp-indexer/internal/logger"
	"github.com/feral-file/pkp-indexer/internal/metrics"
	"github.com/feral-file/pkp-indexer/internal/providers/dune"
	"github.com/feral-file/pkp-indexer/internal/providers/ethereum"
	"github.com/feral-file/pkp-indexer/internal/sink"
	"github.com/feral-file/pkp-indexer/internal/store"
)

const (
	// duneRequestsPerSecond keeps a run well below the Dune API rate limits
	duneRequestsPerSecond = 1
	metricsNamespace      = "pkp_indexer"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()
	os.Exit(run())
}

// run executes one indexer run and returns the process exit code
func run() int {
	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadIndexerConfig(*configFile, *envPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	// Initialize logger with sentry integration
	runID := uuid.New().String()
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "pkp-indexer",
			"run_id":  runID,
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer logger.Flush(2 * time.Second)

	registry := domain.DefaultRegistry(cfg.RPCOverrides)
	if err := cfg.Validate(registry); err != nil {
		logger.Error(fmt.Errorf("invalid configuration: %w", err))
		return 1
	}
	pair := cfg.Pair()

	// SIGINT/SIGTERM cancel the run
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.InfoCtx(ctx, "Starting PKP indexer",
		append(logger.PairFields(pair),
			zap.String("checkpoint_driver", cfg.Checkpoint.Driver),
			zap.String("sink_driver", cfg.Sink.Driver))...)

	// Initialize adapters
	clock := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()

	var duneClient dune.Client
	if cfg.Checkpoint.Driver == config.CheckpointDriverDune || cfg.Sink.Driver == config.SinkDriverDune {
		httpClient := adapter.NewHTTPClientWithRetry(cfg.Dune.HTTPTimeout, adapter.DefaultRetryConfig())
		duneClient = dune.NewClient(httpClient, rate.NewLimiter(rate.Limit(duneRequestsPerSecond), 1),
			cfg.Dune.APIURL, cfg.Dune.APIKey, jsonAdapter)

		if cfg.Dune.CreateTables {
			if err := dune.CreateTables(ctx, duneClient, duneTables(cfg)...); err != nil {
				logger.ErrorCtx(ctx, err)
				return 1
			}
		}
	}

	var db *gorm.DB
	if cfg.Checkpoint.Driver == config.CheckpointDriverPostgres || cfg.Sink.Driver == config.SinkDriverPostgres {
		db, err = store.OpenPostgres(cfg.Database.DSN(), cfg.Debug)
		if err != nil {
			logger.ErrorCtx(ctx, err, zap.String("host", cfg.Database.Host), zap.String("dbname", cfg.Database.DBName))
			return 1
		}
		defer func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}()
		logger.InfoCtx(ctx, "Connected to database", zap.String("host", cfg.Database.Host))
	}

	// Initialize checkpoint store
	var checkpoints store.CheckpointStore
	switch cfg.Checkpoint.Driver {
	case config.CheckpointDriverDune:
		checkpoints = store.NewDuneCheckpointStore(duneClient, jsonAdapter, clock, store.DuneTableConfig{
			Namespace: cfg.Dune.Namespace,
			TableName: cfg.Dune.EndBlockTable,
			QueryID:   cfg.Dune.EndBlockQueryID,
		})
	case config.CheckpointDriverPostgres:
		checkpoints = store.NewPGCheckpointStore(db)
	case config.CheckpointDriverPebble:
		checkpoints, err = store.NewPebbleCheckpointStore(cfg.Checkpoint.PebbleDir, jsonAdapter)
		if err != nil {
			logger.ErrorCtx(ctx, err, zap.String("dir", cfg.Checkpoint.PebbleDir))
			return 1
		}
	}
	defer checkpoints.Close()

	// Initialize sink
	var eventSink sink.Sink
	switch cfg.Sink.Driver {
	case config.SinkDriverDune:
		eventSink = sink.NewDuneSink(duneClient, sink.DuneConfig{
			Namespace: cfg.Dune.Namespace,
			TableName: cfg.Dune.EventsTable,
			QueryID:   cfg.Dune.EventsQueryID,
		})
	case config.SinkDriverFile:
		eventSink = sink.NewFileSink(adapter.NewFileSystem(), cfg.Sink.FilePath)
	case config.SinkDriverPostgres:
		eventSink = sink.NewPGSink(store.NewPGMintStore(db))
	}
	defer eventSink.Close()

	// Connect to the chain
	reader, err := ethereum.Dial(ctx, adapter.NewEthClientDialer(), registry, pair, cfg.Fetch.RPCTimeout)
	if err != nil {
		logger.ErrorCtx(ctx, err)
		return 1
	}
	defer reader.Close()

	if err := reader.VerifyChainID(ctx); err != nil {
		logger.ErrorCtx(ctx, err)
		return 1
	}

	eventFetcher, err := fetcher.New(reader, clock, fetcher.Config{
		BlockInterval: cfg.Fetch.BlockInterval,
		Delay:         cfg.Fetch.Delay,
		RetryAttempts: cfg.Fetch.RetryAttempts,
		Policy:        fetcher.FailurePolicy(cfg.Fetch.FailurePolicy),
	})
	if err != nil {
		logger.ErrorCtx(ctx, err)
		return 1
	}

	runMetrics := metrics.NewMetrics(metricsNamespace)
	orchestrator, err := ingest.New(ingest.Config{
		Pair:        pair,
		BatchSize:   cfg.Indexer.BatchSize,
		StartBlock:  cfg.Indexer.StartBlock,
		EndBlock:    cfg.Indexer.EndBlock,
		ClampToHead: cfg.Indexer.ClampToHead,
	}, checkpoints, reader, eventFetcher, eventSink, clock, runMetrics)
	if err != nil {
		logger.ErrorCtx(ctx, err)
		return 1
	}

	report, runErr := orchestrator.Run(ctx)

	// Push metrics whatever the outcome; ctx may already be canceled
	if cfg.Metrics.PushgatewayURL != "" {
		pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := runMetrics.Push(pushCtx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, pair); err != nil {
			logger.Warn("Failed to push metrics", zap.Error(err))
		}
		cancel()
	}

	fields := append(logger.PairFields(pair),
		zap.String("state", string(report.State)),
		zap.Int("events", len(report.Events)),
		zap.Int("rows", report.Rows),
		zap.Int("failed_windows", len(report.FailedWindows)),
		zap.Int("failed_events", len(report.FailedEvents)),
		zap.Bool("halted", report.Halted))
	if report.Range != nil {
		fields = append(fields, logger.RangeFields(*report.Range)...)
	}
	if report.Checkpoint != nil {
		fields = append(fields, zap.Uint64("checkpoint", report.Checkpoint.EndBlock))
	}

	if runErr != nil {
		logger.Error(fmt.Errorf("PKP indexer run failed at %s: %w", report.FailedAt, runErr), fields...)
		return 1
	}

	logger.Info("PKP indexer run finished", fields...)
	return 0
}

// duneTables returns the Dune tables used by the configured drivers
func duneTables(cfg *config.IndexerServiceConfig) []dune.CreateTableRequest {
	var tables []dune.CreateTableRequest
	if cfg.Sink.Driver == config.SinkDriverDune {
		tables = append(tables, dune.EventsTable(cfg.Dune.Namespace, cfg.Dune.EventsTable, cfg.Dune.PrivateTables))
	}
	if cfg.Checkpoint.Driver == config.CheckpointDriverDune {
		tables = append(tables, dune.EndBlockTable(cfg.Dune.Namespace, cfg.Dune.EndBlockTable, cfg.Dune.PrivateTables))
	}
	return tables
}
