package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/feral-file/pkp-indexer/internal/domain"
	"github.com/feral-file/pkp-indexer/internal/store/schema"
)

// OpenPostgres connects to PostgreSQL and creates the indexer tables if missing
func OpenPostgres(dsn string, debug bool) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}
	if debug {
		gormConfig.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates the indexer tables if missing
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(schema.Models()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

type pgCheckpointStore struct {
	db *gorm.DB
}

// NewPGCheckpointStore creates a checkpoint store keyed by (blockchain, network).
// The caller owns the connection.
func NewPGCheckpointStore(db *gorm.DB) CheckpointStore {
	return &pgCheckpointStore{db: db}
}

// FetchAll returns every stored checkpoint
func (s *pgCheckpointStore) FetchAll(ctx context.Context) ([]domain.Checkpoint, error) {
	var rows []schema.Checkpoint
	if err := s.db.WithContext(ctx).Order("blockchain, network").Find(&rows).Error; err != nil {
		return nil, checkpointError("fetch", domain.Pair{}, fmt.Errorf("failed to list checkpoints: %w", err))
	}

	checkpoints := make([]domain.Checkpoint, 0, len(rows))
	for _, row := range rows {
		checkpoints = append(checkpoints, toDomainCheckpoint(row))
	}
	return checkpoints, nil
}

// Get returns the checkpoint of a pair
func (s *pgCheckpointStore) Get(ctx context.Context, pair domain.Pair) (*domain.Checkpoint, error) {
	var row schema.Checkpoint
	err := s.db.WithContext(ctx).
		Where("blockchain = ? AND network = ?", string(pair.Blockchain), string(pair.Network)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, checkpointError("get", pair, fmt.Errorf("failed to get checkpoint: %w", err))
	}

	cp := toDomainCheckpoint(row)
	return &cp, nil
}

// Upsert replaces the checkpoint of the pair or inserts it
func (s *pgCheckpointStore) Upsert(ctx context.Context, checkpoint domain.Checkpoint) error {
	row := schema.Checkpoint{
		Blockchain: string(checkpoint.Blockchain),
		Network:    string(checkpoint.Network),
		EndBlock:   checkpoint.EndBlock,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "blockchain"}, {Name: "network"}},
		DoUpdates: clause.AssignmentColumns([]string{"end_block", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return checkpointError("upsert", checkpoint.Pair(), fmt.Errorf("failed to upsert checkpoint: %w", err))
	}

	return nil
}

func (s *pgCheckpointStore) Close() error {
	return nil
}

func toDomainCheckpoint(row schema.Checkpoint) domain.Checkpoint {
	return domain.Checkpoint{
		Blockchain: domain.Blockchain(row.Blockchain),
		Network:    domain.Network(row.Network),
		EndBlock:   row.EndBlock,
	}
}
