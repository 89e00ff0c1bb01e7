package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/feral-file/pkp-indexer/internal/domain"
	"github.com/feral-file/pkp-indexer/internal/store/schema"
)

var (
	testDB      *gorm.DB
	pgContainer *postgres.PostgresContainer
)

// setupTestDatabase connects testDB to an external database or a PostgreSQL container.
// testDB stays nil when neither is available and the PostgreSQL tests are skipped.
func setupTestDatabase() func() {
	ctx := context.Background()

	// Check if we should use an external database (for CI or local development)
	dbHost := os.Getenv("TEST_DB_HOST")
	dbPort := os.Getenv("TEST_DB_PORT")
	dbUser := os.Getenv("TEST_DB_USER")
	dbPassword := os.Getenv("TEST_DB_PASSWORD")
	dbName := os.Getenv("TEST_DB_NAME")

	var dsn string
	var err error

	terminate := func() {
		if pgContainer != nil {
			if err := pgContainer.Terminate(ctx); err != nil {
				fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
			}
		}
	}

	if dbHost != "" {
		if dbPort == "" {
			dbPort = "5432"
		}
		if dbUser == "" {
			dbUser = "postgres"
		}
		if dbPassword == "" {
			dbPassword = "postgres"
		}
		if dbName == "" {
			dbName = "test_db"
		}

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			dbHost, dbPort, dbUser, dbPassword, dbName)

		fmt.Printf("Using external database: %s:%s/%s\n", dbHost, dbPort, dbName)
	} else {
		if err := dockerHealth(ctx, testcontainers.NewDockerProvider); err != nil {
			fmt.Printf("Skipping PostgreSQL tests, docker is not available: %v\n", err)
			return func() {}
		}

		pgContainer, err = postgres.Run(ctx,
			"postgres:18-alpine",
			postgres.WithDatabase("test_db"),
			postgres.WithUsername("postgres"),
			postgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		if err != nil {
			fmt.Printf("Skipping PostgreSQL tests, failed to start container: %v\n", err)
			pgContainer = nil
			return func() {}
		}

		dsn, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			fmt.Printf("Skipping PostgreSQL tests, failed to get connection string: %v\n", err)
			terminate()
			return func() {}
		}

		fmt.Printf("Started PostgreSQL container\n")
	}

	db, err := gorm.Open(pgdriver.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Printf("Skipping PostgreSQL tests, failed to connect: %v\n", err)
		terminate()
		return func() {}
	}

	if err := Migrate(db); err != nil {
		fmt.Printf("Skipping PostgreSQL tests, failed to migrate: %v\n", err)
		terminate()
		return func() {}
	}

	testDB = db
	return terminate
}

// dockerHealth reports whether a docker daemon is reachable.
// testcontainers panics when it cannot resolve a docker host, so the panic is turned into an error.
func dockerHealth(ctx context.Context, newProvider func(...testcontainers.DockerProviderOption) (*testcontainers.DockerProvider, error)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("docker host: %v", r)
		}
	}()

	provider, err := newProvider()
	if err != nil {
		return err
	}
	return provider.Health(ctx)
}

// withTx returns a transaction rolled back when the test ends
func withTx(t *testing.T) *gorm.DB {
	t.Helper()
	if testDB == nil {
		t.Skip("PostgreSQL is not available")
	}

	tx := testDB.Begin()
	require.NoError(t, tx.Error)
	t.Cleanup(func() { tx.Rollback() })
	return tx
}

func TestPGCheckpointStore(t *testing.T) {
	RunCheckpointStoreTests(t, func(t *testing.T) CheckpointStore {
		return NewPGCheckpointStore(withTx(t))
	})
}

func TestPGCheckpointStore_FetchAllOrdered(t *testing.T) {
	ctx := context.Background()
	s := NewPGCheckpointStore(withTx(t))

	require.NoError(t, s.Upsert(ctx, checkpointOf(yellowstoneDatilProd, 3)))
	require.NoError(t, s.Upsert(ctx, checkpointOf(chronicleManzano, 2)))
	require.NoError(t, s.Upsert(ctx, checkpointOf(yellowstoneDatilDev, 1)))

	all, err := s.FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Checkpoint{
		checkpointOf(chronicleManzano, 2),
		checkpointOf(yellowstoneDatilDev, 1),
		checkpointOf(yellowstoneDatilProd, 3),
	}, all)
}

func TestPGMintStore_InsertMints(t *testing.T) {
	ctx := context.Background()
	db := withTx(t)
	s := NewPGMintStore(db)

	events := []domain.MintEvent{
		{Blockchain: domain.BlockchainYellowstone, Network: domain.NetworkDatilProd, TokenID: "7", EthAddress: "0x00000000000000000000000000000000000000aA"},
		{Blockchain: domain.BlockchainYellowstone, Network: domain.NetworkDatilProd, TokenID: "8", EthAddress: "0x00000000000000000000000000000000000000bB"},
	}

	inserted, err := s.InsertMints(ctx, events)
	require.NoError(t, err)
	assert.Equal(t, int64(2), inserted)

	// rerunning the same window inserts nothing
	inserted, err = s.InsertMints(ctx, events)
	require.NoError(t, err)
	assert.Equal(t, int64(0), inserted)

	// same token on another network is a different mint
	inserted, err = s.InsertMints(ctx, []domain.MintEvent{
		{Blockchain: domain.BlockchainYellowstone, Network: domain.NetworkDatilDev, TokenID: "7", EthAddress: "0x00000000000000000000000000000000000000cC"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), inserted)

	var stored []schema.Mint
	require.NoError(t, db.Where("blockchain = ? AND network = ?", "yellowstone", "datil_prod").Order("id").Find(&stored).Error)
	require.Len(t, stored, 2)
	assert.Equal(t, "7", stored[0].TokenID)
	assert.Equal(t, "0x00000000000000000000000000000000000000aA", stored[0].EthAddress)
	assert.Equal(t, "8", stored[1].TokenID)
}

func TestDockerHealth_NoDockerHost(t *testing.T) {
	noHost := func(...testcontainers.DockerProviderOption) (*testcontainers.DockerProvider, error) {
		panic("rootless Docker not found")
	}

	var err error
	assert.NotPanics(t, func() {
		err = dockerHealth(context.Background(), noHost)
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rootless Docker not found")
}

func TestDockerHealth_ProviderError(t *testing.T) {
	failing := func(...testcontainers.DockerProviderOption) (*testcontainers.DockerProvider, error) {
		return nil, errors.New("cannot connect to the docker daemon")
	}

	err := dockerHealth(context.Background(), failing)
	assert.EqualError(t, err, "cannot connect to the docker daemon")
}
