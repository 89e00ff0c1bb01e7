package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/feral-file/pkp-indexer/internal/adapter"
	"github.com/feral-file/pkp-indexer/internal/domain"
	"github.com/feral-file/pkp-indexer/internal/logger"
	"github.com/feral-file/pkp-indexer/internal/providers/ethereum"
)

// FailurePolicy decides what happens to the rest of the range after a failure
type FailurePolicy string

const (
	// FailurePolicySkip logs and records the failure, then continues with the next window
	FailurePolicySkip FailurePolicy = "skip"

	// FailurePolicyHalt stops at the first failed window; only the windows before it count as processed
	FailurePolicyHalt FailurePolicy = "halt"
)

// Config holds the fetcher settings
type Config struct {
	BlockInterval uint64        // Blocks per window
	Delay         time.Duration // Pause between windows
	RetryAttempts int           // Extra attempts per failing call, 0 disables retries
	RetryInterval time.Duration // Initial backoff interval between retries
	Policy        FailurePolicy
}

// WindowFailure is a window whose logs could not be queried
type WindowFailure struct {
	Range domain.BlockRange
	Err   error
}

// EventFailure is a log that could not be turned into a mint event
type EventFailure struct {
	Window      domain.BlockRange
	BlockNumber uint64
	TxHash      string
	TokenID     string
	Err         error
}

// Result is the outcome of walking a block range
type Result struct {
	Events        []domain.MintEvent
	FailedWindows []WindowFailure
	FailedEvents  []EventFailure

	// Processed is the prefix of the range that was walked, nil when nothing was
	Processed *domain.BlockRange

	// Windows counts the windows queried, failed ones included
	Windows int

	// Halted is set when FailurePolicyHalt stopped the walk early
	Halted bool
}

// Fetcher collects mint events of a block range
//
//go:generate mockgen -source=fetcher.go -destination=../mocks/fetcher.go -package=mocks -mock_names=Fetcher=MockFetcher
type Fetcher interface {
	// Fetch walks the range window by window. Failed windows and events are returned as data;
	// the error is only set when the context is done.
	Fetch(ctx context.Context, rng domain.BlockRange) (*Result, error)
}

type fetcher struct {
	reader ethereum.ChainReader
	clock  adapter.Clock
	config Config
}

// New creates a fetcher reading from the chain reader
func New(reader ethereum.ChainReader, clock adapter.Clock, cfg Config) (Fetcher, error) {
	if cfg.BlockInterval == 0 {
		return nil, ErrZeroWindowSize
	}
	if cfg.RetryAttempts < 0 {
		return nil, fmt.Errorf("retry attempts must not be negative: %d", cfg.RetryAttempts)
	}
	switch cfg.Policy {
	case FailurePolicySkip, FailurePolicyHalt:
	case "":
		cfg.Policy = FailurePolicySkip
	default:
		return nil, fmt.Errorf("unsupported failure policy %q", cfg.Policy)
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 500 * time.Millisecond
	}

	return &fetcher{reader: reader, clock: clock, config: cfg}, nil
}

// Fetch walks the range window by window
func (f *fetcher) Fetch(ctx context.Context, rng domain.BlockRange) (*Result, error) {
	result := &Result{}
	pair := f.reader.Pair()

	windows, err := Windows(rng, f.config.BlockInterval)
	if err != nil {
		return nil, err
	}

	first := true
	for window := range windows {
		if !first {
			if err := f.wait(ctx); err != nil {
				return result, err
			}
		}
		first = false

		if err := ctx.Err(); err != nil {
			return result, err
		}

		result.Windows++
		events, eventFailures, windowErr := f.fetchWindow(ctx, window)
		if windowErr != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}

			logger.ErrorCtx(ctx, fmt.Errorf("failed to fetch events: %w", windowErr),
				append(logger.PairFields(pair), logger.RangeFields(window)...)...)
			result.FailedWindows = append(result.FailedWindows, WindowFailure{Range: window, Err: windowErr})

			if f.config.Policy == FailurePolicyHalt {
				result.Halted = true
				return result, nil
			}
			result.markProcessed(rng.From, window.To)
			continue
		}

		result.FailedEvents = append(result.FailedEvents, eventFailures...)
		if len(eventFailures) > 0 && f.config.Policy == FailurePolicyHalt {
			// the whole window is read again by the next run
			result.Halted = true
			return result, nil
		}

		result.Events = append(result.Events, events...)
		result.markProcessed(rng.From, window.To)
	}

	return result, nil
}

// fetchWindow queries one window and resolves every log in it.
// The error is set only when the window itself could not be queried.
func (f *fetcher) fetchWindow(ctx context.Context, window domain.BlockRange) ([]domain.MintEvent, []EventFailure, error) {
	pair := f.reader.Pair()

	logs, err := retry(ctx, f.clock, f.config, func() ([]types.Log, error) {
		return f.reader.QueryLogs(ctx, window)
	})
	if err != nil {
		return nil, nil, err
	}

	logger.InfoCtx(ctx, "Found PKPMinted events",
		append(logger.PairFields(pair), append(logger.RangeFields(window), zap.Int("count", len(logs)))...)...)

	var events []domain.MintEvent
	var failures []EventFailure
	for _, vLog := range logs {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		minted, err := f.reader.ParsePKPMinted(vLog)
		if err != nil {
			logger.WarnCtx(ctx, "Skipping malformed PKPMinted log",
				append(logger.PairFields(pair),
					zap.Uint64("block", vLog.BlockNumber),
					zap.String("txHash", vLog.TxHash.Hex()),
					zap.Error(err))...)
			failures = append(failures, EventFailure{
				Window:      window,
				BlockNumber: vLog.BlockNumber,
				TxHash:      vLog.TxHash.Hex(),
				Err:         err,
			})
			continue
		}

		tokenID := minted.TokenID.String()
		ethAddress, err := retry(ctx, f.clock, f.config, func() (common.Address, error) {
			return f.reader.GetEthAddress(ctx, minted.TokenID)
		})
		if err != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("failed to fetch ETH address: %w", err),
				append(logger.PairFields(pair), zap.String("token_id", tokenID))...)
			failures = append(failures, EventFailure{
				Window:      window,
				BlockNumber: minted.BlockNumber,
				TxHash:      minted.TxHash.Hex(),
				TokenID:     tokenID,
				Err:         err,
			})
			continue
		}

		logger.DebugCtx(ctx, "Resolved PKP ETH address",
			append(logger.PairFields(pair),
				zap.String("token_id", tokenID),
				zap.String("eth_address", ethAddress.Hex()))...)

		events = append(events, domain.MintEvent{
			Blockchain:  pair.Blockchain,
			Network:     pair.Network,
			TokenID:     tokenID,
			EthAddress:  ethAddress.Hex(),
			BlockNumber: minted.BlockNumber,
			TxHash:      minted.TxHash.Hex(),
		})
	}

	return events, failures, nil
}

// wait pauses between windows to avoid overloading the RPC provider
func (f *fetcher) wait(ctx context.Context) error {
	if f.config.Delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-f.clock.After(f.config.Delay):
		return nil
	}
}

func (r *Result) markProcessed(from, to uint64) {
	r.Processed = &domain.BlockRange{From: from, To: to}
}

// retry runs op once plus up to cfg.RetryAttempts more times with exponential backoff.
// Only recoverable errors are retried. The backoff reads time and waits through the clock.
func retry[T any](ctx context.Context, clock adapter.Clock, cfg Config, op func() (T, error)) (T, error) {
	if cfg.RetryAttempts == 0 {
		return op()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.RetryInterval
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	b.Clock = clock

	var result T
	operation := func() error {
		var err error
		result, err = op()
		if err != nil && (ctx.Err() != nil || !domain.IsRecoverable(err)) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		logger.WarnCtx(ctx, "RPC call failed, retrying", zap.Error(err), zap.Duration("backoff", next))
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(cfg.RetryAttempts)), ctx) //nolint:gosec,G115 // validated non-negative in New
	if err := backoff.RetryNotifyWithTimer(operation, policy, notify, adapter.NewBackoffTimer(clock)); err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
