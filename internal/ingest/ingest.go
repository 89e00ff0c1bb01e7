package ingest

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/feral-file/pkp-indexer/internal/adapter"
	"github.com/feral-file/pkp-indexer/internal/domain"
	"github.com/feral-file/pkp-indexer/internal/fetcher"
	"github.com/feral-file/pkp-indexer/internal/format"
	"github.com/feral-file/pkp-indexer/internal/logger"
	"github.com/feral-file/pkp-indexer/internal/metrics"
	"github.com/feral-file/pkp-indexer/internal/providers/ethereum"
	"github.com/feral-file/pkp-indexer/internal/sink"
	"github.com/feral-file/pkp-indexer/internal/store"
)

// State is a step of an indexer run
type State string

const (
	StateReadCheckpoint  State = "read_checkpoint"
	StateComputeRange    State = "compute_range"
	StateFetch           State = "fetch"
	StateFormat          State = "format"
	StateWriteSink       State = "write_sink"
	StateWriteCheckpoint State = "write_checkpoint"
	StateDone            State = "done"
	StateFailed          State = "failed"
)

// DefaultBatchSize is the number of blocks added to the start block to get the end block of a run
const DefaultBatchSize uint64 = 100

// Config holds the settings of a run
type Config struct {
	Pair        domain.Pair
	BatchSize   uint64
	StartBlock  *uint64 // overrides the checkpoint
	EndBlock    *uint64 // caps the end block
	ClampToHead bool    // caps the end block to the chain head
}

// Report describes the outcome of a run
type Report struct {
	State    State
	FailedAt State // the state that failed, empty unless State is StateFailed

	Range         *domain.BlockRange
	Events        []domain.MintEvent
	Rows          int
	FailedWindows []fetcher.WindowFailure
	FailedEvents  []fetcher.EventFailure
	Halted        bool

	// Checkpoint is the checkpoint written by the run, nil when none was written
	Checkpoint *domain.Checkpoint
}

// Orchestrator runs one ingestion for a pair:
// read the checkpoint, compute the block range, fetch events, format rows,
// append them to the sink and advance the checkpoint.
type Orchestrator struct {
	config      Config
	checkpoints store.CheckpointStore
	reader      ethereum.ChainReader
	fetcher     fetcher.Fetcher
	sink        sink.Sink
	clock       adapter.Clock
	metrics     *metrics.Metrics
}

// New creates an orchestrator. m may be nil.
func New(cfg Config, checkpoints store.CheckpointStore, reader ethereum.ChainReader, f fetcher.Fetcher, s sink.Sink, clock adapter.Clock, m *metrics.Metrics) (*Orchestrator, error) {
	if cfg.BatchSize == 0 {
		return nil, domain.NewConfigError("indexer.batch_size", domain.ErrInvalidConfig)
	}
	if cfg.Pair.Blockchain == "" || cfg.Pair.Network == "" {
		return nil, domain.NewConfigError("blockchain", domain.ErrMissingConfig)
	}

	return &Orchestrator{
		config:      cfg,
		checkpoints: checkpoints,
		reader:      reader,
		fetcher:     f,
		sink:        s,
		clock:       clock,
		metrics:     m,
	}, nil
}

// run carries the data passed between states
type run struct {
	report     *Report
	checkpoint *domain.Checkpoint
	result     *fetcher.Result
	rows       []format.Row
}

// Run executes the states in order until StateDone or StateFailed.
// The error is set for fatal failures only; failed windows and events are in the report.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	startedAt := o.clock.Now()
	if o.metrics != nil {
		defer func() { o.metrics.ObserveDuration(o.clock.Since(startedAt)) }()
	}

	r := &run{report: &Report{}}
	state := StateReadCheckpoint
	for state != StateDone {
		r.report.State = state

		next, err := o.step(ctx, state, r)
		if err != nil {
			r.report.State = StateFailed
			r.report.FailedAt = state
			logger.ErrorCtx(ctx, fmt.Errorf("indexer run failed: %w", err),
				append(logger.PairFields(o.config.Pair), zap.String("state", string(state)))...)
			return r.report, err
		}
		state = next
	}

	r.report.State = StateDone
	return r.report, nil
}

func (o *Orchestrator) step(ctx context.Context, state State, r *run) (State, error) {
	switch state {
	case StateReadCheckpoint:
		return o.readCheckpoint(ctx, r)
	case StateComputeRange:
		return o.computeRange(ctx, r)
	case StateFetch:
		return o.fetch(ctx, r)
	case StateFormat:
		return o.format(ctx, r)
	case StateWriteSink:
		return o.writeSink(ctx, r)
	case StateWriteCheckpoint:
		return o.writeCheckpoint(ctx, r)
	default:
		return StateFailed, fmt.Errorf("unknown state %q", state)
	}
}

func (o *Orchestrator) readCheckpoint(ctx context.Context, r *run) (State, error) {
	cp, err := o.checkpoints.Get(ctx, o.config.Pair)
	if err != nil {
		return StateFailed, err
	}
	r.checkpoint = cp

	if cp == nil {
		logger.InfoCtx(ctx, "No checkpoint found", logger.PairFields(o.config.Pair)...)
	} else {
		logger.InfoCtx(ctx, "Read checkpoint",
			append(logger.PairFields(o.config.Pair), zap.Uint64("endBlock", cp.EndBlock))...)
	}
	return StateComputeRange, nil
}

func (o *Orchestrator) computeRange(ctx context.Context, r *run) (State, error) {
	var start uint64
	switch {
	case o.config.StartBlock != nil:
		start = *o.config.StartBlock
	case r.checkpoint != nil:
		if r.checkpoint.EndBlock == math.MaxUint64 {
			logger.InfoCtx(ctx, "Checkpoint is at the last block, nothing to do", logger.PairFields(o.config.Pair)...)
			return StateDone, nil
		}
		start = r.checkpoint.NextBlock()
	}

	end := start + o.config.BatchSize
	if end < start {
		end = math.MaxUint64
	}
	if o.config.EndBlock != nil && *o.config.EndBlock < end {
		end = *o.config.EndBlock
	}
	if o.config.ClampToHead {
		head, err := o.reader.LatestBlock(ctx)
		if err != nil {
			return StateFailed, err
		}
		if head < end {
			end = head
		}
	}

	if start > end {
		logger.InfoCtx(ctx, "Nothing to do",
			append(logger.PairFields(o.config.Pair), zap.Uint64("startBlock", start), zap.Uint64("endBlock", end))...)
		return StateDone, nil
	}

	rng := domain.BlockRange{From: start, To: end}
	r.report.Range = &rng
	if o.metrics != nil {
		o.metrics.SetRange(rng)
	}

	logger.InfoCtx(ctx, "Computed block range",
		append(logger.PairFields(o.config.Pair), logger.RangeFields(rng)...)...)
	return StateFetch, nil
}

func (o *Orchestrator) fetch(ctx context.Context, r *run) (State, error) {
	result, err := o.fetcher.Fetch(ctx, *r.report.Range)
	if result != nil {
		o.record(r, result)
	}
	if err != nil {
		return StateFailed, err
	}
	r.result = result

	if len(result.FailedWindows) > 0 || len(result.FailedEvents) > 0 {
		logger.WarnCtx(ctx, "Fetched with failures",
			append(logger.PairFields(o.config.Pair),
				zap.Int("events", len(result.Events)),
				zap.Int("failedWindows", len(result.FailedWindows)),
				zap.Int("failedEvents", len(result.FailedEvents)),
				zap.Bool("halted", result.Halted))...)
	}
	return StateFormat, nil
}

func (o *Orchestrator) record(r *run, result *fetcher.Result) {
	r.report.Events = result.Events
	r.report.FailedWindows = result.FailedWindows
	r.report.FailedEvents = result.FailedEvents
	r.report.Halted = result.Halted

	if o.metrics != nil {
		failed := len(result.FailedWindows)
		o.metrics.AddWindows(result.Windows-failed, failed)
		o.metrics.AddEvents(len(result.Events), len(result.FailedEvents))
	}
}

func (o *Orchestrator) format(ctx context.Context, r *run) (State, error) {
	// malformed token ids or addresses count as dropped rows
	wellFormed := make([]domain.MintEvent, 0, len(r.result.Events))
	for _, e := range r.result.Events {
		if e.Valid() {
			wellFormed = append(wellFormed, e)
		}
	}

	cleaned := format.Clean(format.FromEvents(wellFormed), format.DecodedColumns)
	if dropped := len(r.result.Events) - len(cleaned); dropped > 0 {
		logger.WarnCtx(ctx, "Dropped incomplete rows",
			append(logger.PairFields(o.config.Pair), zap.Int("dropped", dropped))...)
	}

	r.rows = format.Rename(cleaned, format.SinkRenames())
	r.report.Rows = len(r.rows)
	return StateWriteSink, nil
}

func (o *Orchestrator) writeSink(ctx context.Context, r *run) (State, error) {
	if err := o.sink.Append(ctx, r.rows); err != nil {
		return StateFailed, err
	}
	return StateWriteCheckpoint, nil
}

func (o *Orchestrator) writeCheckpoint(ctx context.Context, r *run) (State, error) {
	processed := r.result.Processed
	if processed == nil {
		logger.WarnCtx(ctx, "No block processed, checkpoint unchanged", logger.PairFields(o.config.Pair)...)
		return StateDone, nil
	}

	cp := domain.Checkpoint{
		Blockchain: o.config.Pair.Blockchain,
		Network:    o.config.Pair.Network,
		EndBlock:   processed.To,
	}
	if err := o.checkpoints.Upsert(ctx, cp); err != nil {
		return StateFailed, err
	}
	r.report.Checkpoint = &cp

	if o.metrics != nil {
		o.metrics.MarkSuccess(o.clock.Now())
	}

	logger.InfoCtx(ctx, "Advanced checkpoint",
		append(logger.PairFields(o.config.Pair),
			zap.Uint64("endBlock", cp.EndBlock),
			zap.Int("rows", r.report.Rows))...)
	return StateDone, nil
}
