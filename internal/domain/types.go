package domain

import (
	"fmt"
	"regexp"

	"github.com/ethereum/go-ethereum/common"
)

// Blockchain represents the Lit Protocol chain name (e.g. "chronicle", "yellowstone")
type Blockchain string

const (
	BlockchainChronicle   Blockchain = "chronicle"
	BlockchainYellowstone Blockchain = "yellowstone"
)

// Network represents the Lit network whose PKP NFT contract is indexed (e.g. "datil_prod")
type Network string

const (
	NetworkCayenne   Network = "cayenne"
	NetworkHabanero  Network = "habanero"
	NetworkManzano   Network = "manzano"
	NetworkSerrano   Network = "serrano"
	NetworkDatilProd Network = "datil_prod"
	NetworkDatilDev  Network = "datil_dev"
	NetworkDatilTest Network = "datil_test"
)

// Pair identifies the unit of progress tracking: one checkpoint per (blockchain, network)
type Pair struct {
	Blockchain Blockchain `json:"blockchain"`
	Network    Network    `json:"network"`
}

// String returns the pair as "blockchain/network"
func (p Pair) String() string {
	return fmt.Sprintf("%s/%s", p.Blockchain, p.Network)
}

// MintEvent is one decoded PKPMinted log resolved to its ETH address
type MintEvent struct {
	Blockchain Blockchain `json:"blockchain"`
	Network    Network    `json:"network"`
	TokenID    string     `json:"token_id"`    // decimal string
	EthAddress string     `json:"eth_address"` // checksummed hex address

	// Diagnostics only, never written to a sink
	BlockNumber uint64 `json:"-"`
	TxHash      string `json:"-"`
}

// Pair returns the checkpoint key of the event
func (e MintEvent) Pair() Pair {
	return Pair{Blockchain: e.Blockchain, Network: e.Network}
}

// Valid checks that every sink column is populated and well formed
func (e MintEvent) Valid() bool {
	if e.Blockchain == "" || e.Network == "" {
		return false
	}
	if e.TokenID == "" || !validTokenNumber(e.TokenID) {
		return false
	}
	return common.IsHexAddress(e.EthAddress)
}

// Checkpoint is the last processed block (inclusive) for a pair
type Checkpoint struct {
	Blockchain Blockchain `json:"blockchain"`
	Network    Network    `json:"network"`
	EndBlock   uint64     `json:"end_block"`
}

// Pair returns the checkpoint key
func (c Checkpoint) Pair() Pair {
	return Pair{Blockchain: c.Blockchain, Network: c.Network}
}

// NextBlock returns the first block a subsequent run should read
func (c Checkpoint) NextBlock() uint64 {
	return c.EndBlock + 1
}

// BlockRange is an inclusive range of block numbers
type BlockRange struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
}

// Len returns the number of blocks in the range, 0 for an empty range
func (r BlockRange) Len() uint64 {
	if r.Empty() {
		return 0
	}
	return r.To - r.From + 1
}

// Empty reports whether the range contains no block
func (r BlockRange) Empty() bool {
	return r.From > r.To
}

func (r BlockRange) String() string {
	return fmt.Sprintf("[%d, %d]", r.From, r.To)
}

var tokenNumberPattern = regexp.MustCompile(`^[0-9]+$`)

// validTokenNumber checks if a token number is a non-empty decimal string
func validTokenNumber(tokenNumber string) bool {
	return tokenNumberPattern.MatchString(tokenNumber)
}
