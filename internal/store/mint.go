package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/pkp-indexer/internal/domain"
	"github.com/feral-file/pkp-indexer/internal/store/schema"
)

// mintInsertBatchSize bounds the number of rows per INSERT statement
const mintInsertBatchSize = 500

// MintStore persists decoded mint events
//
//go:generate mockgen -source=mint.go -destination=../mocks/mint_store.go -package=mocks -mock_names=MintStore=MockMintStore
type MintStore interface {
	// InsertMints stores the events, skipping tokens already stored for the pair.
	// Returns the number of inserted rows.
	InsertMints(ctx context.Context, events []domain.MintEvent) (int64, error)
}

type pgMintStore struct {
	db *gorm.DB
}

// NewPGMintStore creates a mint store over the pkp_mints table
func NewPGMintStore(db *gorm.DB) MintStore {
	return &pgMintStore{db: db}
}

func (s *pgMintStore) InsertMints(ctx context.Context, events []domain.MintEvent) (int64, error) {
	if len(events) == 0 {
		return 0, nil
	}

	rows := make([]schema.Mint, 0, len(events))
	for _, e := range events {
		rows = append(rows, schema.Mint{
			Blockchain: string(e.Blockchain),
			Network:    string(e.Network),
			TokenID:    e.TokenID,
			EthAddress: e.EthAddress,
		})
	}

	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "blockchain"}, {Name: "network"}, {Name: "token_id"}},
		DoNothing: true,
	}).CreateInBatches(&rows, mintInsertBatchSize)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to insert mints: %w", result.Error)
	}

	return result.RowsAffected, nil
}
