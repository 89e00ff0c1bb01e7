package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownBlockchain is returned when a blockchain is not in the registry
	ErrUnknownBlockchain = errors.New("unknown blockchain")

	// ErrUnknownNetwork is returned when a network is not in the registry
	ErrUnknownNetwork = errors.New("unknown network")

	// ErrMissingConfig is returned when a required setting is empty
	ErrMissingConfig = errors.New("missing required config")

	// ErrInvalidConfig is returned when a setting has an unusable value
	ErrInvalidConfig = errors.New("invalid config")

	// ErrChainIDMismatch is returned when the RPC node serves a different chain than configured
	ErrChainIDMismatch = errors.New("chain id mismatch")

	// ErrMalformedLog is returned when a log does not decode as PKPMinted
	ErrMalformedLog = errors.New("malformed PKPMinted log")
)

// ConfigError is a fatal error raised before any I/O
type ConfigError struct {
	Key string
	Err error
}

func NewConfigError(key string, err error) *ConfigError {
	return &ConfigError{Key: key, Err: err}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %q: %v", e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// RPCError is a recoverable node/query/call failure.
// Range is set for window failures, TokenID for per-event failures.
type RPCError struct {
	Op      string
	Pair    Pair
	Range   *BlockRange
	TokenID string
	Err     error
}

func (e *RPCError) Error() string {
	msg := fmt.Sprintf("rpc %s on %s", e.Op, e.Pair)
	if e.Range != nil {
		msg += fmt.Sprintf(" blocks %s", e.Range)
	}
	if e.TokenID != "" {
		msg += fmt.Sprintf(" token %s", e.TokenID)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *RPCError) Unwrap() error { return e.Err }

// SinkError is a fatal failure writing event rows
type SinkError struct {
	Sink string
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink %s: %v", e.Sink, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }

// CheckpointError is a fatal failure reading or writing the checkpoint store
type CheckpointError struct {
	Op   string
	Pair Pair
	Err  error
}

func (e *CheckpointError) Error() string {
	if e.Pair == (Pair{}) {
		return fmt.Sprintf("checkpoint %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("checkpoint %s for %s: %v", e.Op, e.Pair, e.Err)
}

func (e *CheckpointError) Unwrap() error { return e.Err }

// IsRecoverable reports whether the run may continue after err.
// Only RPC failures inside the fetch loop are recoverable.
func IsRecoverable(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr)
}

// IsConfigError reports whether err is a configuration error
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}
