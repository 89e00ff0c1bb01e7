package store

import (
	"context"
	"sort"

	"github.com/feral-file/pkp-indexer/internal/domain"
)

// CheckpointStore defines the interface for reading and advancing checkpoints.
// Every error returned is a *domain.CheckpointError.
//
//go:generate mockgen -source=store.go -destination=../mocks/checkpoint_store.go -package=mocks -mock_names=CheckpointStore=MockCheckpointStore
type CheckpointStore interface {
	// FetchAll returns every stored checkpoint
	FetchAll(ctx context.Context) ([]domain.Checkpoint, error)

	// Get returns the checkpoint of a pair, nil when the pair has none
	Get(ctx context.Context, pair domain.Pair) (*domain.Checkpoint, error)

	// Upsert replaces the checkpoint of the pair or inserts it.
	// Checkpoints of other pairs are left untouched.
	Upsert(ctx context.Context, checkpoint domain.Checkpoint) error

	// Close releases the resources held by the store
	Close() error
}

// findCheckpoint returns the first checkpoint of the pair, nil when there is none
func findCheckpoint(checkpoints []domain.Checkpoint, pair domain.Pair) *domain.Checkpoint {
	for _, cp := range checkpoints {
		if cp.Pair() == pair {
			found := cp
			return &found
		}
	}
	return nil
}

// sortCheckpoints orders checkpoints by blockchain, then network
func sortCheckpoints(checkpoints []domain.Checkpoint) {
	sort.Slice(checkpoints, func(i, j int) bool {
		if checkpoints[i].Blockchain != checkpoints[j].Blockchain {
			return checkpoints[i].Blockchain < checkpoints[j].Blockchain
		}
		return checkpoints[i].Network < checkpoints[j].Network
	})
}

func checkpointError(op string, pair domain.Pair, err error) error {
	return &domain.CheckpointError{Op: op, Pair: pair, Err: err}
}
