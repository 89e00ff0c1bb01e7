package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/pkp-indexer/internal/domain"
)

func TestLoadIndexerConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *IndexerServiceConfig)
	}{
		{
			name: "valid config file",
			configFile: `
debug: true
sentry_dsn: "https://sentry.example.com"
blockchain: Yellowstone
network: datil_prod
rpc_overrides:
  yellowstone: "http://localhost:8545"
fetch:
  block_interval: 5000
  delay: "500ms"
  retry_attempts: 2
  failure_policy: HALT
indexer:
  batch_size: 1000
  start_block: 42
  end_block: 900
  clamp_to_head: false
checkpoint:
  driver: postgres
sink:
  driver: file
  file_path: "out/results.csv"
dune:
  api_key: "dune-key"
  namespace: "lit"
database:
  host: localhost
  port: 5433
  user: testuser
  password: testpass
  dbname: testdb
  sslmode: require
metrics:
  pushgateway_url: "http://localhost:9091"
`,
			expectError: false,
			validate: func(t *testing.T, cfg *IndexerServiceConfig) {
				assert.True(t, cfg.Debug)
				assert.Equal(t, "https://sentry.example.com", cfg.SentryDSN)
				assert.Equal(t, "yellowstone", cfg.Blockchain)
				assert.Equal(t, "datil_prod", cfg.Network)
				assert.Equal(t, "http://localhost:8545", cfg.RPCOverrides["yellowstone"])
				assert.Equal(t, uint64(5000), cfg.Fetch.BlockInterval)
				assert.Equal(t, 500*time.Millisecond, cfg.Fetch.Delay)
				assert.Equal(t, 2, cfg.Fetch.RetryAttempts)
				assert.Equal(t, FailurePolicyHalt, cfg.Fetch.FailurePolicy)
				assert.Equal(t, uint64(1000), cfg.Indexer.BatchSize)
				require.NotNil(t, cfg.Indexer.StartBlock)
				assert.Equal(t, uint64(42), *cfg.Indexer.StartBlock)
				require.NotNil(t, cfg.Indexer.EndBlock)
				assert.Equal(t, uint64(900), *cfg.Indexer.EndBlock)
				assert.False(t, cfg.Indexer.ClampToHead)
				assert.Equal(t, CheckpointDriverPostgres, cfg.Checkpoint.Driver)
				assert.Equal(t, SinkDriverFile, cfg.Sink.Driver)
				assert.Equal(t, "out/results.csv", cfg.Sink.FilePath)
				assert.Equal(t, "dune-key", cfg.Dune.APIKey)
				assert.Equal(t, 5433, cfg.Database.Port)
				assert.Equal(t, "require", cfg.Database.SSLMode)
				assert.Equal(t, "http://localhost:9091", cfg.Metrics.PushgatewayURL)
				assert.Equal(t, domain.Pair{Blockchain: domain.BlockchainYellowstone, Network: domain.NetworkDatilProd}, cfg.Pair())
			},
		},
		{
			name: "config with defaults",
			configFile: `
blockchain: chronicle
network: manzano
`,
			expectError: false,
			validate: func(t *testing.T, cfg *IndexerServiceConfig) {
				// Check defaults
				assert.Equal(t, uint64(25000), cfg.Fetch.BlockInterval)
				assert.Equal(t, 2*time.Second, cfg.Fetch.Delay)
				assert.Equal(t, 0, cfg.Fetch.RetryAttempts)
				assert.Equal(t, FailurePolicySkip, cfg.Fetch.FailurePolicy)
				assert.Equal(t, 30*time.Second, cfg.Fetch.RPCTimeout)
				assert.Equal(t, uint64(100), cfg.Indexer.BatchSize)
				assert.Nil(t, cfg.Indexer.StartBlock)
				assert.Nil(t, cfg.Indexer.EndBlock)
				assert.True(t, cfg.Indexer.ClampToHead)
				assert.Equal(t, CheckpointDriverDune, cfg.Checkpoint.Driver)
				assert.Equal(t, SinkDriverDune, cfg.Sink.Driver)
				assert.Equal(t, "results.csv", cfg.Sink.FilePath)
				assert.Equal(t, "https://api.dune.com/api", cfg.Dune.APIURL)
				assert.Equal(t, 30*time.Second, cfg.Dune.HTTPTimeout)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "disable", cfg.Database.SSLMode)
				assert.Equal(t, "pkp-indexer", cfg.Metrics.Job)
			},
		},
		{
			name:        "missing config file",
			configFile:  "",
			expectError: false,
			validate:    nil,
		},
		{
			name: "invalid yaml",
			configFile: `
				fetch:
				  block_interval: invalid
			`,
			expectError: true,
			validate:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			var configFile string

			if tt.configFile != "" {
				configFile = filepath.Join(tmpDir, "config.yaml")
				err := os.WriteFile(configFile, []byte(tt.configFile), 0600)
				require.NoError(t, err)
			} else {
				configFile = filepath.Join(tmpDir, "nonexistent.yaml")
			}

			cfg, err := LoadIndexerConfig(configFile, tmpDir)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
			} else {
				if tt.validate != nil {
					require.NoError(t, err)
					require.NotNil(t, cfg)
					tt.validate(t, cfg)
				}
			}
		})
	}
}

func TestLoadIndexerConfig_LegacyEnvironment(t *testing.T) {
	t.Setenv("BLOCKCHAIN", "yellowstone")
	t.Setenv("NETWORK", "datil_test")
	t.Setenv("BLOCK_INTERVAL", "1000")
	t.Setenv("START_BLOCK", "500")
	t.Setenv("CHRONICLE_RPC_URL", "http://chronicle.local")
	t.Setenv("DUNE_API_KEY", "legacy-key")
	t.Setenv("DUNE_NAMESPACE", "lit")
	t.Setenv("DUNE_TABLE_NAME_YELLOWSTONE_DATIL", "pkp_mints")
	t.Setenv("DUNE_QUERY_ID_YELLOWSTONE_DATIL", "111")
	t.Setenv("DUNE_TABLE_NAME_END_BLOCK", "pkp_end_block")
	t.Setenv("DUNE_QUERY_ID_END_BLOCK", "222")

	tmpDir := t.TempDir()
	cfg, err := LoadIndexerConfig(filepath.Join(tmpDir, "nonexistent.yaml"), tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "yellowstone", cfg.Blockchain)
	assert.Equal(t, "datil_test", cfg.Network)
	assert.Equal(t, uint64(1000), cfg.Fetch.BlockInterval)
	require.NotNil(t, cfg.Indexer.StartBlock)
	assert.Equal(t, uint64(500), *cfg.Indexer.StartBlock)
	assert.Equal(t, "http://chronicle.local", cfg.RPCOverrides["chronicle"])
	assert.Equal(t, "legacy-key", cfg.Dune.APIKey)
	assert.Equal(t, "lit", cfg.Dune.Namespace)
	assert.Equal(t, "pkp_mints", cfg.Dune.EventsTable)
	assert.Equal(t, "111", cfg.Dune.EventsQueryID)
	assert.Equal(t, "pkp_end_block", cfg.Dune.EndBlockTable)
	assert.Equal(t, "222", cfg.Dune.EndBlockQueryID)

	require.NoError(t, cfg.Validate(domain.DefaultRegistry(cfg.RPCOverrides)))
}

func TestLoadIndexerConfig_PrefixedEnvironmentWins(t *testing.T) {
	t.Setenv("NETWORK", "datil_test")
	t.Setenv("PKP_INDEXER_NETWORK", "datil_dev")

	tmpDir := t.TempDir()
	cfg, err := LoadIndexerConfig(filepath.Join(tmpDir, "nonexistent.yaml"), tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "datil_dev", cfg.Network)
}

func TestLoadIndexerConfig_EnvFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".env"), []byte("PKP_INDEXER_SINK_FILE_PATH=base.csv\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".env.pkp-indexer.local"), []byte("PKP_INDEXER_SINK_FILE_PATH=local.csv\n"), 0600))
	t.Cleanup(func() { _ = os.Unsetenv("PKP_INDEXER_SINK_FILE_PATH") })

	cfg, err := LoadIndexerConfig(filepath.Join(tmpDir, "nonexistent.yaml"), tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "local.csv", cfg.Sink.FilePath)
}

func validIndexerConfig() *IndexerServiceConfig {
	return &IndexerServiceConfig{
		Blockchain: "yellowstone",
		Network:    "datil_prod",
		Fetch: FetchConfig{
			BlockInterval: 25000,
			FailurePolicy: FailurePolicySkip,
		},
		Indexer: IndexerConfig{BatchSize: 100},
		Checkpoint: CheckpointConfig{
			Driver:    CheckpointDriverPebble,
			PebbleDir: "data/checkpoints",
		},
		Sink: SinkConfig{
			Driver:   SinkDriverFile,
			FilePath: "results.csv",
		},
		Dune: DuneConfig{APIURL: "https://api.dune.com/api"},
	}
}

func TestIndexerServiceConfig_Validate(t *testing.T) {
	u64 := func(v uint64) *uint64 { return &v }

	tests := []struct {
		name      string
		mutate    func(*IndexerServiceConfig)
		expectKey string
		expectErr error
	}{
		{
			name:   "valid",
			mutate: func(c *IndexerServiceConfig) {},
		},
		{
			name:      "missing blockchain",
			mutate:    func(c *IndexerServiceConfig) { c.Blockchain = "" },
			expectKey: "blockchain",
			expectErr: domain.ErrMissingConfig,
		},
		{
			name:      "missing network",
			mutate:    func(c *IndexerServiceConfig) { c.Network = "" },
			expectKey: "network",
			expectErr: domain.ErrMissingConfig,
		},
		{
			name:      "unknown blockchain",
			mutate:    func(c *IndexerServiceConfig) { c.Blockchain = "mainnet" },
			expectKey: "mainnet",
			expectErr: domain.ErrUnknownBlockchain,
		},
		{
			name:      "unknown network",
			mutate:    func(c *IndexerServiceConfig) { c.Network = "datil" },
			expectKey: "datil",
			expectErr: domain.ErrUnknownNetwork,
		},
		{
			name:      "zero block interval",
			mutate:    func(c *IndexerServiceConfig) { c.Fetch.BlockInterval = 0 },
			expectKey: "fetch.block_interval",
			expectErr: domain.ErrInvalidConfig,
		},
		{
			name:      "negative retry attempts",
			mutate:    func(c *IndexerServiceConfig) { c.Fetch.RetryAttempts = -1 },
			expectKey: "fetch.retry_attempts",
			expectErr: domain.ErrInvalidConfig,
		},
		{
			name:      "unknown failure policy",
			mutate:    func(c *IndexerServiceConfig) { c.Fetch.FailurePolicy = "retry" },
			expectKey: "fetch.failure_policy",
			expectErr: domain.ErrInvalidConfig,
		},
		{
			name:      "zero batch size",
			mutate:    func(c *IndexerServiceConfig) { c.Indexer.BatchSize = 0 },
			expectKey: "indexer.batch_size",
			expectErr: domain.ErrInvalidConfig,
		},
		{
			name: "end block before start block",
			mutate: func(c *IndexerServiceConfig) {
				c.Indexer.StartBlock = u64(10)
				c.Indexer.EndBlock = u64(5)
			},
			expectKey: "indexer.end_block",
			expectErr: domain.ErrInvalidConfig,
		},
		{
			name:      "unknown checkpoint driver",
			mutate:    func(c *IndexerServiceConfig) { c.Checkpoint.Driver = "redis" },
			expectKey: "checkpoint.driver",
			expectErr: domain.ErrInvalidConfig,
		},
		{
			name:      "dune checkpoint without api key",
			mutate:    func(c *IndexerServiceConfig) { c.Checkpoint.Driver = CheckpointDriverDune },
			expectKey: "dune.api_key",
			expectErr: domain.ErrMissingConfig,
		},
		{
			name: "dune checkpoint without query id",
			mutate: func(c *IndexerServiceConfig) {
				c.Checkpoint.Driver = CheckpointDriverDune
				c.Dune.APIKey = "key"
				c.Dune.EndBlockTable = "pkp_end_block"
			},
			expectKey: "dune.end_block_query_id",
			expectErr: domain.ErrMissingConfig,
		},
		{
			name:      "postgres checkpoint without host",
			mutate:    func(c *IndexerServiceConfig) { c.Checkpoint.Driver = CheckpointDriverPostgres },
			expectKey: "database.host",
			expectErr: domain.ErrMissingConfig,
		},
		{
			name:      "unknown sink driver",
			mutate:    func(c *IndexerServiceConfig) { c.Sink.Driver = "s3" },
			expectKey: "sink.driver",
			expectErr: domain.ErrInvalidConfig,
		},
		{
			name: "dune sink without events table",
			mutate: func(c *IndexerServiceConfig) {
				c.Sink.Driver = SinkDriverDune
				c.Dune.APIKey = "key"
				c.Dune.Namespace = "lit"
			},
			expectKey: "dune.events_table",
			expectErr: domain.ErrMissingConfig,
		},
		{
			name:      "file sink without path",
			mutate:    func(c *IndexerServiceConfig) { c.Sink.FilePath = "" },
			expectKey: "sink.file_path",
			expectErr: domain.ErrMissingConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validIndexerConfig()
			tt.mutate(cfg)

			err := cfg.Validate(domain.DefaultRegistry(nil))
			if tt.expectErr == nil {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			var cfgErr *domain.ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.expectKey, cfgErr.Key)
			assert.ErrorIs(t, err, tt.expectErr)
		})
	}
}

func TestTableSetupConfig_Validate(t *testing.T) {
	cfg := &TableSetupConfig{Dune: DuneConfig{APIURL: "https://api.dune.com/api", APIKey: "key"}}
	assert.True(t, domain.IsConfigError(cfg.Validate()))

	cfg.Dune.Namespace = "lit"
	assert.True(t, domain.IsConfigError(cfg.Validate()))

	cfg.Dune.EndBlockTable = "pkp_end_block"
	assert.NoError(t, cfg.Validate())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "user",
		Password: "pass",
		DBName:   "pkp",
		SSLMode:  "disable",
	}
	assert.Equal(t, "host=localhost port=5432 user=user password=pass dbname=pkp sslmode=disable", cfg.DSN())
}
