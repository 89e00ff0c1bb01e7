package sink

import (
	"context"

	"github.com/feral-file/pkp-indexer/internal/domain"
	"github.com/feral-file/pkp-indexer/internal/format"
)

const (
	NameDune     = "dune"
	NameFile     = "file"
	NamePostgres = "postgres"
)

// Sink appends event rows keyed by format.SinkColumns to a destination.
// Appending an empty batch is a no-op, and every error returned is a *domain.SinkError.
//
//go:generate mockgen -source=sink.go -destination=../mocks/sink.go -package=mocks -mock_names=Sink=MockSink
type Sink interface {
	// Name returns the driver name of the sink
	Name() string

	// Append writes the rows after the ones already stored
	Append(ctx context.Context, rows []format.Row) error

	// Close releases the resources held by the sink
	Close() error
}

func sinkError(name string, err error) error {
	return &domain.SinkError{Sink: name, Err: err}
}
