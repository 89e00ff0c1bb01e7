package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble/v2"

	"github.com/feral-file/pkp-indexer/internal/adapter"
	"github.com/feral-file/pkp-indexer/internal/domain"
)

const checkpointKeyPrefix = "checkpoint:"

type pebbleCheckpointStore struct {
	db   *pebble.DB
	json adapter.JSON
}

// NewPebbleCheckpointStore opens (or creates) a local checkpoint store in dir
func NewPebbleCheckpointStore(dir string, json adapter.JSON) (CheckpointStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, checkpointError("open", domain.Pair{}, fmt.Errorf("opening pebble db: %w", err))
	}

	return &pebbleCheckpointStore{db: db, json: json}, nil
}

func checkpointKey(pair domain.Pair) []byte {
	return []byte(fmt.Sprintf("%s%s:%s", checkpointKeyPrefix, pair.Blockchain, pair.Network))
}

// FetchAll returns every stored checkpoint
func (s *pebbleCheckpointStore) FetchAll(_ context.Context) ([]domain.Checkpoint, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(checkpointKeyPrefix),
		UpperBound: []byte(checkpointKeyPrefix[:len(checkpointKeyPrefix)-1] + ";"), // ';' sorts right after ':'
	})
	if err != nil {
		return nil, checkpointError("fetch", domain.Pair{}, fmt.Errorf("creating iterator: %w", err))
	}
	defer iter.Close()

	var checkpoints []domain.Checkpoint
	for iter.First(); iter.Valid(); iter.Next() {
		value, err := iter.ValueAndErr()
		if err != nil {
			return nil, checkpointError("fetch", domain.Pair{}, fmt.Errorf("getting value from iter: %w", err))
		}

		var cp domain.Checkpoint
		if err := s.json.Unmarshal(value, &cp); err != nil {
			return nil, checkpointError("fetch", domain.Pair{}, fmt.Errorf("decoding %s: %w", iter.Key(), err))
		}
		checkpoints = append(checkpoints, cp)
	}

	return checkpoints, nil
}

// Get returns the checkpoint of a pair
func (s *pebbleCheckpointStore) Get(_ context.Context, pair domain.Pair) (*domain.Checkpoint, error) {
	value, closer, err := s.db.Get(checkpointKey(pair))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, checkpointError("get", pair, fmt.Errorf("getting checkpoint: %w", err))
	}
	defer closer.Close()

	var cp domain.Checkpoint
	if err := s.json.Unmarshal(value, &cp); err != nil {
		return nil, checkpointError("get", pair, fmt.Errorf("decoding checkpoint: %w", err))
	}
	return &cp, nil
}

// Upsert replaces the checkpoint of the pair or inserts it
func (s *pebbleCheckpointStore) Upsert(_ context.Context, checkpoint domain.Checkpoint) error {
	value, err := s.json.Marshal(checkpoint)
	if err != nil {
		return checkpointError("upsert", checkpoint.Pair(), fmt.Errorf("encoding checkpoint: %w", err))
	}

	// sync to prevent data loss, one write per run
	if err := s.db.Set(checkpointKey(checkpoint.Pair()), value, pebble.Sync); err != nil {
		return checkpointError("upsert", checkpoint.Pair(), fmt.Errorf("setting checkpoint: %w", err))
	}
	return nil
}

func (s *pebbleCheckpointStore) Close() error {
	return s.db.Close()
}
