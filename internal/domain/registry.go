package domain

import (
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ChainSpec describes how to reach a blockchain
type ChainSpec struct {
	RPCURL  string
	ChainID uint64
}

// Registry is an immutable lookup of the known blockchains and PKP NFT contracts.
// It is built once at startup and injected wherever a lookup is needed.
type Registry struct {
	blockchains map[Blockchain]ChainSpec
	networks    map[Network]common.Address
}

var defaultBlockchains = map[Blockchain]ChainSpec{
	BlockchainChronicle: {
		RPCURL:  "https://chain-rpc.litprotocol.com/replica-http",
		ChainID: 175177,
	},
	BlockchainYellowstone: {
		RPCURL:  "https://yellowstone-rpc.litprotocol.com/",
		ChainID: 175188,
	},
}

var defaultNetworks = map[Network]common.Address{
	NetworkCayenne:   common.HexToAddress("0x58582b93d978F30b4c4E812A16a7b31C035A69f7"),
	NetworkHabanero:  common.HexToAddress("0x80182Ec46E3dD7Bb8fa4f89b48d303bD769465B2"),
	NetworkManzano:   common.HexToAddress("0x3c3ad2d238757Ea4AF87A8624c716B11455c1F9A"),
	NetworkSerrano:   common.HexToAddress("0x8F75a53F65e31DD0D2e40d0827becAaE2299D111"),
	NetworkDatilProd: common.HexToAddress("0x487A9D096BB4B7Ac1520Cb12370e31e677B175EA"),
	NetworkDatilDev:  common.HexToAddress("0x02C4242F72d62c8fEF2b2DB088A35a9F4ec741C7"),
	NetworkDatilTest: common.HexToAddress("0x6a0f439f064B7167A8Ea6B22AcC07ae5360ee0d1"),
}

// NewRegistry creates a registry from the given tables. The maps are copied.
func NewRegistry(blockchains map[Blockchain]ChainSpec, networks map[Network]common.Address) *Registry {
	r := &Registry{
		blockchains: make(map[Blockchain]ChainSpec, len(blockchains)),
		networks:    make(map[Network]common.Address, len(networks)),
	}
	for k, v := range blockchains {
		r.blockchains[k] = v
	}
	for k, v := range networks {
		r.networks[k] = v
	}
	return r
}

// DefaultRegistry returns the built-in Lit Protocol tables with optional RPC URL
// overrides keyed by blockchain name. Empty overrides are ignored.
func DefaultRegistry(rpcOverrides map[string]string) *Registry {
	r := NewRegistry(defaultBlockchains, defaultNetworks)
	for name, url := range rpcOverrides {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		bc := Blockchain(strings.ToLower(strings.TrimSpace(name)))
		spec, ok := r.blockchains[bc]
		if !ok {
			continue
		}
		spec.RPCURL = url
		r.blockchains[bc] = spec
	}
	return r
}

// Blockchain resolves the RPC endpoint and chain id of a blockchain
func (r *Registry) Blockchain(name Blockchain) (ChainSpec, error) {
	spec, ok := r.blockchains[name]
	if !ok || spec.RPCURL == "" || spec.ChainID == 0 {
		return ChainSpec{}, NewConfigError(string(name), ErrUnknownBlockchain)
	}
	return spec, nil
}

// ContractAddress resolves the PKP NFT contract of a network
func (r *Registry) ContractAddress(name Network) (common.Address, error) {
	addr, ok := r.networks[name]
	if !ok || addr == (common.Address{}) {
		return common.Address{}, NewConfigError(string(name), ErrUnknownNetwork)
	}
	return addr, nil
}

// Blockchains returns the known blockchain names, sorted
func (r *Registry) Blockchains() []Blockchain {
	names := make([]Blockchain, 0, len(r.blockchains))
	for k := range r.blockchains {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Networks returns the known network names, sorted
func (r *Registry) Networks() []Network {
	names := make([]Network, 0, len(r.networks))
	for k := range r.networks {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
