package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/feral-file/pkp-indexer/internal/adapter"
	"github.com/feral-file/pkp-indexer/internal/domain"
	"github.com/feral-file/pkp-indexer/internal/logger"
)

// pkpNFTABI holds the PKPMinted event and the getEthAddress view of the PKP NFT contract
const pkpNFTABI = `[
	{"anonymous":false,"inputs":[{"indexed":true,"internalType":"uint256","name":"tokenId","type":"uint256"},{"indexed":false,"internalType":"bytes","name":"pubkey","type":"bytes"}],"name":"PKPMinted","type":"event"},
	{"inputs":[{"internalType":"uint256","name":"tokenId","type":"uint256"}],"name":"getEthAddress","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"}
]`

var (
	// pkpMintedEventSignature is keccak256("PKPMinted(uint256,bytes)")
	pkpMintedEventSignature = crypto.Keccak256Hash([]byte(domain.PKPMintedEventSignature))

	parsedPKPNFTABI = mustParseABI(pkpNFTABI)
)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("failed to parse PKP NFT ABI: %v", err))
	}
	return parsed
}

// PKPMinted is a decoded PKPMinted log
type PKPMinted struct {
	TokenID     *big.Int
	PubKey      []byte
	BlockNumber uint64
	TxHash      common.Hash
}

// ChainReader reads PKP NFT data of one (blockchain, network) pair
//
//go:generate mockgen -source=client.go -destination=../../mocks/chain_reader.go -package=mocks -mock_names=ChainReader=MockChainReader
type ChainReader interface {
	// Pair returns the (blockchain, network) the reader is bound to
	Pair() domain.Pair

	// QueryLogs returns the PKPMinted logs of the contract in the inclusive block range
	QueryLogs(ctx context.Context, rng domain.BlockRange) ([]types.Log, error)

	// ParsePKPMinted decodes the token id and public key of a PKPMinted log
	ParsePKPMinted(log types.Log) (*PKPMinted, error)

	// GetEthAddress resolves the ETH address of a PKP token through the contract view call
	GetEthAddress(ctx context.Context, tokenID *big.Int) (common.Address, error)

	// LatestBlock returns the current chain head
	LatestBlock(ctx context.Context) (uint64, error)

	// VerifyChainID checks that the node serves the configured chain
	VerifyChainID(ctx context.Context) error

	// Close closes the connection
	Close()
}

type chainReader struct {
	pair       domain.Pair
	chainID    uint64
	contract   common.Address
	client     adapter.EthClient
	rpcTimeout time.Duration
}

// NewChainReader creates a chain reader over an already connected client
func NewChainReader(pair domain.Pair, spec domain.ChainSpec, contract common.Address, client adapter.EthClient, rpcTimeout time.Duration) ChainReader {
	return &chainReader{
		pair:       pair,
		chainID:    spec.ChainID,
		contract:   contract,
		client:     client,
		rpcTimeout: rpcTimeout,
	}
}

// Dial resolves the pair in the registry and connects to its RPC endpoint.
// Unknown blockchains or networks are returned as *domain.ConfigError before dialing.
func Dial(ctx context.Context, dialer adapter.EthClientDialer, registry *domain.Registry, pair domain.Pair, rpcTimeout time.Duration) (ChainReader, error) {
	spec, err := registry.Blockchain(pair.Blockchain)
	if err != nil {
		return nil, err
	}
	contract, err := registry.ContractAddress(pair.Network)
	if err != nil {
		return nil, err
	}

	client, err := dialer.Dial(ctx, spec.RPCURL)
	if err != nil {
		return nil, &domain.RPCError{Op: "dial", Pair: pair, Err: err}
	}

	logger.InfoCtx(ctx, "Connected to RPC endpoint",
		append(logger.PairFields(pair),
			zap.String("rpcURL", spec.RPCURL),
			zap.Uint64("chainID", spec.ChainID),
			zap.String("contract", contract.Hex()))...)

	return NewChainReader(pair, spec, contract, client, rpcTimeout), nil
}

func (c *chainReader) Pair() domain.Pair {
	return c.pair
}

// QueryLogs returns the PKPMinted logs of the contract in the inclusive block range
func (c *chainReader) QueryLogs(ctx context.Context, rng domain.BlockRange) ([]types.Log, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	logs, err := c.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(rng.From),
		ToBlock:   new(big.Int).SetUint64(rng.To),
		Addresses: []common.Address{c.contract},
		Topics:    [][]common.Hash{{pkpMintedEventSignature}},
	})
	if err != nil {
		return nil, &domain.RPCError{Op: "eth_getLogs", Pair: c.pair, Range: &rng, Err: err}
	}

	return logs, nil
}

// ParsePKPMinted decodes the token id and public key of a PKPMinted log
func (c *chainReader) ParsePKPMinted(log types.Log) (*PKPMinted, error) {
	event, err := ParsePKPMintedLog(log)
	if err != nil {
		return nil, &domain.RPCError{Op: "parse", Pair: c.pair, Err: err}
	}
	return event, nil
}

// ParsePKPMintedLog decodes a PKPMinted log.
// PKPMinted(uint256 indexed tokenId, bytes pubkey): the token id is topic 1, the public key is in data.
func ParsePKPMintedLog(log types.Log) (*PKPMinted, error) {
	if len(log.Topics) != 2 {
		return nil, fmt.Errorf("%w: expected 2 topics, got %d", domain.ErrMalformedLog, len(log.Topics))
	}
	if log.Topics[0] != pkpMintedEventSignature {
		return nil, fmt.Errorf("%w: unexpected event signature %s", domain.ErrMalformedLog, log.Topics[0].Hex())
	}

	values, err := parsedPKPNFTABI.Unpack("PKPMinted", log.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedLog, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%w: expected 1 data value, got %d", domain.ErrMalformedLog, len(values))
	}
	pubkey, ok := values[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: pubkey is %T", domain.ErrMalformedLog, values[0])
	}

	return &PKPMinted{
		TokenID:     new(big.Int).SetBytes(log.Topics[1].Bytes()),
		PubKey:      pubkey,
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash,
	}, nil
}

// GetEthAddress resolves the ETH address of a PKP token
func (c *chainReader) GetEthAddress(ctx context.Context, tokenID *big.Int) (common.Address, error) {
	rpcErr := func(err error) error {
		return &domain.RPCError{Op: "eth_call", Pair: c.pair, TokenID: tokenID.String(), Err: err}
	}

	data, err := parsedPKPNFTABI.Pack(domain.GetEthAddressMethod, tokenID)
	if err != nil {
		return common.Address{}, rpcErr(fmt.Errorf("failed to pack data: %w", err))
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	result, err := c.client.CallContract(ctx, ethereum.CallMsg{
		To:   &c.contract,
		Data: data,
	}, nil)
	if err != nil {
		return common.Address{}, rpcErr(fmt.Errorf("failed to call contract: %w", err))
	}

	var ethAddress common.Address
	if err := parsedPKPNFTABI.UnpackIntoInterface(&ethAddress, domain.GetEthAddressMethod, result); err != nil {
		return common.Address{}, rpcErr(fmt.Errorf("failed to unpack result: %w", err))
	}

	return ethAddress, nil
}

// LatestBlock returns the current chain head
func (c *chainReader) LatestBlock(ctx context.Context) (uint64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	head, err := c.client.BlockNumber(ctx)
	if err != nil {
		return 0, &domain.RPCError{Op: "eth_blockNumber", Pair: c.pair, Err: err}
	}
	return head, nil
}

// VerifyChainID checks that the node serves the configured chain
func (c *chainReader) VerifyChainID(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	chainID, err := c.client.ChainID(ctx)
	if err != nil {
		return &domain.RPCError{Op: "eth_chainId", Pair: c.pair, Err: err}
	}

	if !chainID.IsUint64() || chainID.Uint64() != c.chainID {
		return domain.NewConfigError(string(c.pair.Blockchain),
			fmt.Errorf("%w: node serves %s, expected %d", domain.ErrChainIDMismatch, chainID, c.chainID))
	}

	return nil
}

// Close closes the connection
func (c *chainReader) Close() {
	c.client.Close()
}

func (c *chainReader) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.rpcTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.rpcTimeout)
}
