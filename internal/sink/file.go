package sink

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"go.uber.org/zap"

	"github.com/feral-file/pkp-indexer/internal/adapter"
	"github.com/feral-file/pkp-indexer/internal/format"
	"github.com/feral-file/pkp-indexer/internal/logger"
)

type fileSink struct {
	fs   adapter.FileSystem
	path string
}

// NewFileSink creates a sink appending CSV rows to a local file.
// The header line is written when the file is new or empty.
func NewFileSink(fs adapter.FileSystem, path string) Sink {
	return &fileSink{fs: fs, path: path}
}

func (s *fileSink) Name() string {
	return NameFile
}

func (s *fileSink) Append(ctx context.Context, rows []format.Row) error {
	if len(rows) == 0 {
		return nil
	}

	writeHeader, err := s.isEmpty()
	if err != nil {
		return sinkError(s.Name(), err)
	}

	var data []byte
	if writeHeader {
		data, err = format.ToCSV(rows, format.SinkColumns, format.FileHeader)
	} else {
		data, err = format.ToCSVRecords(rows, format.SinkColumns)
	}
	if err != nil {
		return sinkError(s.Name(), err)
	}

	f, err := s.fs.OpenAppend(s.path)
	if err != nil {
		return sinkError(s.Name(), fmt.Errorf("failed to open %s: %w", s.path, err))
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return sinkError(s.Name(), fmt.Errorf("failed to write %s: %w", s.path, err))
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return sinkError(s.Name(), fmt.Errorf("failed to sync %s: %w", s.path, err))
	}
	if err := f.Close(); err != nil {
		return sinkError(s.Name(), fmt.Errorf("failed to close %s: %w", s.path, err))
	}

	logger.InfoCtx(ctx, "Appended rows to file",
		zap.String("path", s.path),
		zap.Int("rows", len(rows)),
		zap.Bool("header", writeHeader))

	return nil
}

func (s *fileSink) isEmpty() (bool, error) {
	info, err := s.fs.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", s.path, err)
	}
	return info.Size() == 0, nil
}

func (s *fileSink) Close() error {
	return nil
}
