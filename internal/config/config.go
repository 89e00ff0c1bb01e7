package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/feral-file/pkp-indexer/internal/domain"
)

const (
	CheckpointDriverDune     = "dune"
	CheckpointDriverPostgres = "postgres"
	CheckpointDriverPebble   = "pebble"

	SinkDriverDune     = "dune"
	SinkDriverFile     = "file"
	SinkDriverPostgres = "postgres"

	FailurePolicySkip = "skip"
	FailurePolicyHalt = "halt"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// FetchConfig controls how the block range of a run is walked
type FetchConfig struct {
	BlockInterval uint64        `mapstructure:"block_interval"` // Blocks per eth_getLogs window
	Delay         time.Duration `mapstructure:"delay"`          // Pause between windows
	RetryAttempts int           `mapstructure:"retry_attempts"` // Extra attempts per window/event before dropping it
	FailurePolicy string        `mapstructure:"failure_policy"` // "skip" or "halt"
	RPCTimeout    time.Duration `mapstructure:"rpc_timeout"`
}

// IndexerConfig controls the range computed for a run
type IndexerConfig struct {
	BatchSize   uint64  `mapstructure:"batch_size"`
	StartBlock  *uint64 `mapstructure:"start_block"`
	EndBlock    *uint64 `mapstructure:"end_block"`
	ClampToHead bool    `mapstructure:"clamp_to_head"`
}

// CheckpointConfig selects the checkpoint store
type CheckpointConfig struct {
	Driver    string `mapstructure:"driver"`
	PebbleDir string `mapstructure:"pebble_dir"`
}

// SinkConfig selects where event rows are written
type SinkConfig struct {
	Driver   string `mapstructure:"driver"`
	FilePath string `mapstructure:"file_path"`
}

// DuneConfig holds Dune Analytics API settings
type DuneConfig struct {
	APIURL          string        `mapstructure:"api_url"`
	APIKey          string        `mapstructure:"api_key"`
	Namespace       string        `mapstructure:"namespace"`
	EventsTable     string        `mapstructure:"events_table"`
	EventsQueryID   string        `mapstructure:"events_query_id"`
	EndBlockTable   string        `mapstructure:"end_block_table"`
	EndBlockQueryID string        `mapstructure:"end_block_query_id"`
	HTTPTimeout     time.Duration `mapstructure:"http_timeout"`
	CreateTables    bool          `mapstructure:"create_tables"`
	PrivateTables   bool          `mapstructure:"private_tables"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// MetricsConfig holds Prometheus Pushgateway settings
type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	Job            string `mapstructure:"job"`
}

// IndexerServiceConfig holds configuration for pkp-indexer
type IndexerServiceConfig struct {
	BaseConfig   `mapstructure:",squash"`
	Blockchain   string            `mapstructure:"blockchain"`
	Network      string            `mapstructure:"network"`
	RPCOverrides map[string]string `mapstructure:"rpc_overrides"`
	Fetch        FetchConfig       `mapstructure:"fetch"`
	Indexer      IndexerConfig     `mapstructure:"indexer"`
	Checkpoint   CheckpointConfig  `mapstructure:"checkpoint"`
	Sink         SinkConfig        `mapstructure:"sink"`
	Dune         DuneConfig        `mapstructure:"dune"`
	Database     DatabaseConfig    `mapstructure:"database"`
	Metrics      MetricsConfig     `mapstructure:"metrics"`
}

// TableSetupConfig holds configuration for dune-table-setup
type TableSetupConfig struct {
	BaseConfig `mapstructure:",squash"`
	Dune       DuneConfig `mapstructure:"dune"`
}

// LoadIndexerConfig loads configuration for pkp-indexer
func LoadIndexerConfig(configFile string, envPath string) (*IndexerServiceConfig, error) {
	v := configureViper("pkp-indexer", configFile, envPath)

	// Set defaults
	v.SetDefault("fetch.block_interval", 25000)
	v.SetDefault("fetch.delay", "2s")
	v.SetDefault("fetch.retry_attempts", 0)
	v.SetDefault("fetch.failure_policy", FailurePolicySkip)
	v.SetDefault("fetch.rpc_timeout", "30s")
	v.SetDefault("indexer.batch_size", 100)
	v.SetDefault("indexer.clamp_to_head", true)
	v.SetDefault("checkpoint.driver", CheckpointDriverDune)
	v.SetDefault("checkpoint.pebble_dir", "data/checkpoints")
	v.SetDefault("sink.driver", SinkDriverDune)
	v.SetDefault("sink.file_path", "results.csv")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("metrics.job", "pkp-indexer")
	setDuneDefaults(v)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg IndexerServiceConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Blockchain = strings.ToLower(strings.TrimSpace(cfg.Blockchain))
	cfg.Network = strings.ToLower(strings.TrimSpace(cfg.Network))
	cfg.Checkpoint.Driver = strings.ToLower(strings.TrimSpace(cfg.Checkpoint.Driver))
	cfg.Sink.Driver = strings.ToLower(strings.TrimSpace(cfg.Sink.Driver))
	cfg.Fetch.FailurePolicy = strings.ToLower(strings.TrimSpace(cfg.Fetch.FailurePolicy))

	return &cfg, nil
}

// LoadTableSetupConfig loads configuration for dune-table-setup
func LoadTableSetupConfig(configFile string, envPath string) (*TableSetupConfig, error) {
	v := configureViper("dune-table-setup", configFile, envPath)
	setDuneDefaults(v)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg TableSetupConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Pair returns the configured (blockchain, network) pair
func (c *IndexerServiceConfig) Pair() domain.Pair {
	return domain.Pair{Blockchain: domain.Blockchain(c.Blockchain), Network: domain.Network(c.Network)}
}

// Validate checks the configuration against the registry and the selected drivers.
// Every failure is a *domain.ConfigError.
func (c *IndexerServiceConfig) Validate(registry *domain.Registry) error {
	if c.Blockchain == "" {
		return domain.NewConfigError("blockchain", domain.ErrMissingConfig)
	}
	if c.Network == "" {
		return domain.NewConfigError("network", domain.ErrMissingConfig)
	}
	if _, err := registry.Blockchain(domain.Blockchain(c.Blockchain)); err != nil {
		return err
	}
	if _, err := registry.ContractAddress(domain.Network(c.Network)); err != nil {
		return err
	}

	if c.Fetch.BlockInterval == 0 {
		return invalid("fetch.block_interval", "must be greater than 0")
	}
	if c.Fetch.RetryAttempts < 0 {
		return invalid("fetch.retry_attempts", "must not be negative")
	}
	switch c.Fetch.FailurePolicy {
	case FailurePolicySkip, FailurePolicyHalt:
	default:
		return invalid("fetch.failure_policy", fmt.Sprintf("unsupported policy %q", c.Fetch.FailurePolicy))
	}
	if c.Indexer.BatchSize == 0 {
		return invalid("indexer.batch_size", "must be greater than 0")
	}
	if c.Indexer.StartBlock != nil && c.Indexer.EndBlock != nil && *c.Indexer.StartBlock > *c.Indexer.EndBlock {
		return invalid("indexer.end_block", "must not be lower than indexer.start_block")
	}

	switch c.Checkpoint.Driver {
	case CheckpointDriverDune:
		if err := c.Dune.validateAPI(); err != nil {
			return err
		}
		if c.Dune.EndBlockTable == "" {
			return domain.NewConfigError("dune.end_block_table", domain.ErrMissingConfig)
		}
		if c.Dune.EndBlockQueryID == "" {
			return domain.NewConfigError("dune.end_block_query_id", domain.ErrMissingConfig)
		}
	case CheckpointDriverPostgres:
		if err := c.Database.validate(); err != nil {
			return err
		}
	case CheckpointDriverPebble:
		if c.Checkpoint.PebbleDir == "" {
			return domain.NewConfigError("checkpoint.pebble_dir", domain.ErrMissingConfig)
		}
	default:
		return invalid("checkpoint.driver", fmt.Sprintf("unsupported driver %q", c.Checkpoint.Driver))
	}

	switch c.Sink.Driver {
	case SinkDriverDune:
		if err := c.Dune.validateAPI(); err != nil {
			return err
		}
		if c.Dune.Namespace == "" {
			return domain.NewConfigError("dune.namespace", domain.ErrMissingConfig)
		}
		if c.Dune.EventsTable == "" {
			return domain.NewConfigError("dune.events_table", domain.ErrMissingConfig)
		}
	case SinkDriverFile:
		if c.Sink.FilePath == "" {
			return domain.NewConfigError("sink.file_path", domain.ErrMissingConfig)
		}
	case SinkDriverPostgres:
		if err := c.Database.validate(); err != nil {
			return err
		}
	default:
		return invalid("sink.driver", fmt.Sprintf("unsupported driver %q", c.Sink.Driver))
	}

	return nil
}

// Validate checks the settings needed to create the Dune tables
func (c *TableSetupConfig) Validate() error {
	if err := c.Dune.validateAPI(); err != nil {
		return err
	}
	if c.Dune.Namespace == "" {
		return domain.NewConfigError("dune.namespace", domain.ErrMissingConfig)
	}
	if c.Dune.EventsTable == "" && c.Dune.EndBlockTable == "" {
		return domain.NewConfigError("dune.events_table", domain.ErrMissingConfig)
	}
	return nil
}

func (c *DuneConfig) validateAPI() error {
	if c.APIURL == "" {
		return domain.NewConfigError("dune.api_url", domain.ErrMissingConfig)
	}
	if c.APIKey == "" {
		return domain.NewConfigError("dune.api_key", domain.ErrMissingConfig)
	}
	return nil
}

func (c *DatabaseConfig) validate() error {
	if c.Host == "" {
		return domain.NewConfigError("database.host", domain.ErrMissingConfig)
	}
	if c.DBName == "" {
		return domain.NewConfigError("database.dbname", domain.ErrMissingConfig)
	}
	return nil
}

func invalid(key string, reason string) error {
	return domain.NewConfigError(key, fmt.Errorf("%w: %s", domain.ErrInvalidConfig, reason))
}

func setDuneDefaults(v *viper.Viper) {
	v.SetDefault("dune.api_url", "https://api.dune.com/api")
	v.SetDefault("dune.http_timeout", "30s")
	v.SetDefault("dune.create_tables", false)
	v.SetDefault("dune.private_tables", false)
}

// readConfig reads the config file, falling back to environment variables when there is none
func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("PKP_INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAllEnvVars(v)
	return v
}

// legacyEnvNames maps config keys to the environment variable names used by the
// existing deployments. The prefixed name always wins over the legacy one.
var legacyEnvNames = map[string]string{
	"blockchain":                  "BLOCKCHAIN",
	"network":                     "NETWORK",
	"sentry_dsn":                  "SENTRY_DSN",
	"fetch.block_interval":        "BLOCK_INTERVAL",
	"fetch.delay":                 "FETCH_DELAY",
	"fetch.retry_attempts":        "FETCH_RETRY_ATTEMPTS",
	"fetch.failure_policy":        "FETCH_FAILURE_POLICY",
	"indexer.batch_size":          "BATCH_SIZE",
	"indexer.start_block":         "START_BLOCK",
	"indexer.end_block":           "END_BLOCK",
	"rpc_overrides.chronicle":     "CHRONICLE_RPC_URL",
	"rpc_overrides.yellowstone":   "YELLOWSTONE_RPC_URL",
	"checkpoint.driver":           "CHECKPOINT_DRIVER",
	"sink.driver":                 "SINK_DRIVER",
	"dune.api_key":                "DUNE_API_KEY",
	"dune.namespace":              "DUNE_NAMESPACE",
	"dune.events_table":           "DUNE_TABLE_NAME_YELLOWSTONE_DATIL",
	"dune.events_query_id":        "DUNE_QUERY_ID_YELLOWSTONE_DATIL",
	"dune.end_block_table":        "DUNE_TABLE_NAME_END_BLOCK",
	"dune.end_block_query_id":     "DUNE_QUERY_ID_END_BLOCK",
	"metrics.pushgateway_url":     "PUSHGATEWAY_URL",
}

// bindAllEnvVars explicitly binds all possible environment variables.
// This is required for viper to map env vars to config struct fields when no config file exists.
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		"blockchain",
		"network",
		"rpc_overrides.chronicle",
		"rpc_overrides.yellowstone",
		// Fetch
		"fetch.block_interval",
		"fetch.delay",
		"fetch.retry_attempts",
		"fetch.failure_policy",
		"fetch.rpc_timeout",
		// Indexer
		"indexer.batch_size",
		"indexer.start_block",
		"indexer.end_block",
		"indexer.clamp_to_head",
		// Checkpoint
		"checkpoint.driver",
		"checkpoint.pebble_dir",
		// Sink
		"sink.driver",
		"sink.file_path",
		// Dune
		"dune.api_url",
		"dune.api_key",
		"dune.namespace",
		"dune.events_table",
		"dune.events_query_id",
		"dune.end_block_table",
		"dune.end_block_query_id",
		"dune.http_timeout",
		"dune.create_tables",
		"dune.private_tables",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		// Metrics
		"metrics.pushgateway_url",
		"metrics.job",
	}

	for _, key := range keys {
		prefixed := "PKP_INDEXER_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if legacy, ok := legacyEnvNames[key]; ok {
			_ = v.BindEnv(key, prefixed, legacy)
			continue
		}
		_ = v.BindEnv(key, prefixed)
	}
}

// loadEnv loads environment variables from the env directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
