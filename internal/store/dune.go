package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/feral-file/pkp-indexer/internal/adapter"
	"github.com/feral-file/pkp-indexer/internal/domain"
	"github.com/feral-file/pkp-indexer/internal/format"
	"github.com/feral-file/pkp-indexer/internal/logger"
	"github.com/feral-file/pkp-indexer/internal/providers/dune"
)

// CheckpointRecord is one row of an append-only checkpoint log.
// Revision is the unix time in milliseconds of the write.
type CheckpointRecord struct {
	domain.Checkpoint
	Revision int64
}

// CheckpointLog is a table that only supports appending rows
type CheckpointLog interface {
	Read(ctx context.Context) ([]CheckpointRecord, error)
	Append(ctx context.Context, record CheckpointRecord) error
}

// LogStore keeps checkpoints in an append-only log.
// Every upsert appends one record; the record with the highest revision of a pair wins,
// ties going to the highest end block. Rows of other pairs are never rewritten.
type LogStore struct {
	log   CheckpointLog
	clock adapter.Clock

	mu           sync.Mutex
	lastRevision int64
}

// NewLogStore creates a checkpoint store over an append-only log
func NewLogStore(log CheckpointLog, clock adapter.Clock) *LogStore {
	return &LogStore{log: log, clock: clock}
}

// FetchAll returns the latest checkpoint of every pair, ordered by blockchain and network
func (s *LogStore) FetchAll(ctx context.Context) ([]domain.Checkpoint, error) {
	records, err := s.log.Read(ctx)
	if err != nil {
		return nil, checkpointError("fetch", domain.Pair{}, err)
	}
	return latestCheckpoints(records), nil
}

// Get returns the latest checkpoint of a pair
func (s *LogStore) Get(ctx context.Context, pair domain.Pair) (*domain.Checkpoint, error) {
	records, err := s.log.Read(ctx)
	if err != nil {
		return nil, checkpointError("get", pair, err)
	}
	return findCheckpoint(latestCheckpoints(records), pair), nil
}

// Upsert appends a record of the checkpoint
func (s *LogStore) Upsert(ctx context.Context, checkpoint domain.Checkpoint) error {
	record := CheckpointRecord{Checkpoint: checkpoint, Revision: s.nextRevision()}
	if err := s.log.Append(ctx, record); err != nil {
		return checkpointError("upsert", checkpoint.Pair(), err)
	}
	return nil
}

// nextRevision returns the current time in milliseconds, strictly increasing within the process
func (s *LogStore) nextRevision() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	rev := s.clock.Now().UnixMilli()
	if rev <= s.lastRevision {
		rev = s.lastRevision + 1
	}
	s.lastRevision = rev
	return rev
}

func (s *LogStore) Close() error {
	return nil
}

// latestCheckpoints reduces a log to the winning checkpoint of every pair
func latestCheckpoints(records []CheckpointRecord) []domain.Checkpoint {
	latest := make(map[domain.Pair]CheckpointRecord, len(records))
	for _, r := range records {
		cur, ok := latest[r.Pair()]
		if !ok || r.Revision > cur.Revision ||
			(r.Revision == cur.Revision && r.EndBlock > cur.EndBlock) {
			latest[r.Pair()] = r
		}
	}

	checkpoints := make([]domain.Checkpoint, 0, len(latest))
	for _, r := range latest {
		checkpoints = append(checkpoints, r.Checkpoint)
	}
	sortCheckpoints(checkpoints)
	return checkpoints
}

// DuneTableConfig holds the end block table settings
type DuneTableConfig struct {
	Namespace string
	TableName string
	QueryID   string // Query selecting the rows of the table
}

// duneLog is a CheckpointLog over a Dune table
type duneLog struct {
	client dune.Client
	json   adapter.JSON
	config DuneTableConfig
}

// duneRecord is the inserted row; end_block and updated_at are integer columns
type duneRecord struct {
	Blockchain string `json:"blockchain"`
	Network    string `json:"network"`
	EndBlock   uint64 `json:"end_block"`
	UpdatedAt  int64  `json:"updated_at"`
}

// NewDuneLog creates a CheckpointLog over a Dune table
func NewDuneLog(client dune.Client, json adapter.JSON, cfg DuneTableConfig) CheckpointLog {
	return &duneLog{client: client, json: json, config: cfg}
}

// NewDuneCheckpointStore creates a checkpoint store over a Dune table
func NewDuneCheckpointStore(client dune.Client, json adapter.JSON, clock adapter.Clock, cfg DuneTableConfig) CheckpointStore {
	return NewLogStore(NewDuneLog(client, json, cfg), clock)
}

// Read returns the rows of the latest execution of the table query.
// Results are read as CSV so that block numbers keep their exact integer value.
func (l *duneLog) Read(ctx context.Context) ([]CheckpointRecord, error) {
	data, err := l.client.QueryResultsCSV(ctx, l.config.QueryID)
	if err != nil {
		return nil, err
	}

	_, rows, err := format.ParseCSV(data)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", l.config.QueryID, err)
	}

	records := make([]CheckpointRecord, 0, len(rows))
	for i, row := range rows {
		record, err := recordFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d of query %s: %w", i, l.config.QueryID, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// Append inserts the record and refreshes the table query
func (l *duneLog) Append(ctx context.Context, record CheckpointRecord) error {
	line, err := l.json.MarshalLine(duneRecord{
		Blockchain: string(record.Blockchain),
		Network:    string(record.Network),
		EndBlock:   record.EndBlock,
		UpdatedAt:  record.Revision,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	if _, err := l.client.InsertNDJSON(ctx, l.config.Namespace, l.config.TableName, line); err != nil {
		return err
	}

	if _, err := l.client.ExecuteQuery(ctx, l.config.QueryID); err != nil {
		return err
	}

	logger.InfoCtx(ctx, "Checkpoint appended",
		append(logger.PairFields(record.Pair()),
			zap.String("table", l.config.TableName),
			zap.Uint64("end_block", record.EndBlock),
			zap.Int64("revision", record.Revision))...)

	return nil
}

// recordFromRow converts a CSV result row. Rows written before updated_at existed have revision 0.
func recordFromRow(row format.Row) (CheckpointRecord, error) {
	blockchain := strings.TrimSpace(row[format.ColumnBlockchain])
	network := strings.TrimSpace(row[format.ColumnNetwork])
	if blockchain == "" || network == "" {
		return CheckpointRecord{}, fmt.Errorf("missing blockchain or network")
	}

	endBlock, err := strconv.ParseUint(strings.TrimSpace(row[format.SinkColumnEndBlock]), 10, 64)
	if err != nil {
		return CheckpointRecord{}, fmt.Errorf("invalid end_block %q: %w", row[format.SinkColumnEndBlock], err)
	}

	var revision int64
	if v := strings.TrimSpace(row[format.SinkColumnUpdatedAt]); v != "" {
		revision, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return CheckpointRecord{}, fmt.Errorf("invalid updated_at %q: %w", v, err)
		}
	}

	return CheckpointRecord{
		Checkpoint: domain.Checkpoint{
			Blockchain: domain.Blockchain(blockchain),
			Network:    domain.Network(network),
			EndBlock:   endBlock,
		},
		Revision: revision,
	}, nil
}
