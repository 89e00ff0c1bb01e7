package sink

import (
	"context"

	"go.uber.org/zap"

	"github.com/feral-file/pkp-indexer/internal/format"
	"github.com/feral-file/pkp-indexer/internal/logger"
	"github.com/feral-file/pkp-indexer/internal/store"
)

type pgSink struct {
	mints store.MintStore
}

// NewPGSink creates a sink storing rows in the pkp_mints table.
// Tokens already stored for their pair are skipped.
func NewPGSink(mints store.MintStore) Sink {
	return &pgSink{mints: mints}
}

func (s *pgSink) Name() string {
	return NamePostgres
}

func (s *pgSink) Append(ctx context.Context, rows []format.Row) error {
	if len(rows) == 0 {
		return nil
	}

	inserted, err := s.mints.InsertMints(ctx, format.ToEvents(rows))
	if err != nil {
		return sinkError(s.Name(), err)
	}

	logger.InfoCtx(ctx, "Stored mints",
		zap.Int("rows", len(rows)),
		zap.Int64("inserted", inserted),
		zap.Int64("duplicates", int64(len(rows))-inserted))

	return nil
}

func (s *pgSink) Close() error {
	return nil
}
