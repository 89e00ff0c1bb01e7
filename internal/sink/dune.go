package sink

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/feral-file/pkp-indexer/internal/format"
	"github.com/feral-file/pkp-indexer/internal/logger"
	"github.com/feral-file/pkp-indexer/internal/providers/dune"
)

// DuneConfig holds the events table settings
type DuneConfig struct {
	Namespace string
	TableName string
	QueryID   string // optional, executed after each insert so the results include the new rows
}

type duneSink struct {
	client dune.Client
	config DuneConfig
}

// NewDuneSink creates a sink inserting NDJSON rows into a Dune table
func NewDuneSink(client dune.Client, cfg DuneConfig) Sink {
	return &duneSink{client: client, config: cfg}
}

func (s *duneSink) Name() string {
	return NameDune
}

// Append inserts the rows, leaving the existing content of the table untouched
func (s *duneSink) Append(ctx context.Context, rows []format.Row) error {
	if len(rows) == 0 {
		return nil
	}

	data, err := format.ToNDJSON(rows, format.SinkColumns)
	if err != nil {
		return sinkError(s.Name(), err)
	}

	resp, err := s.client.InsertNDJSON(ctx, s.config.Namespace, s.config.TableName, data)
	if err != nil {
		return sinkError(s.Name(), fmt.Errorf("failed to insert into %s.%s: %w", s.config.Namespace, s.config.TableName, err))
	}

	fields := []zap.Field{zap.String("table", s.config.TableName), zap.Int("rows", len(rows))}
	if resp != nil {
		fields = append(fields, zap.Int64("rowsWritten", resp.RowsWritten), zap.Int64("bytesWritten", resp.BytesWritten))
	}
	logger.InfoCtx(ctx, "Inserted rows into Dune table", fields...)

	if s.config.QueryID == "" {
		return nil
	}

	exec, err := s.client.ExecuteQuery(ctx, s.config.QueryID)
	if err != nil {
		return sinkError(s.Name(), fmt.Errorf("failed to refresh query %s: %w", s.config.QueryID, err))
	}
	if exec != nil {
		logger.DebugCtx(ctx, "Refreshed events query",
			zap.String("queryID", s.config.QueryID),
			zap.String("executionID", exec.ExecutionID))
	}

	return nil
}

func (s *duneSink) Close() error {
	return nil
}
