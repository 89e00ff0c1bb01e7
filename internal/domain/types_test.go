package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMintEvent_Valid(t *testing.T) {
	valid := MintEvent{
		Blockchain: BlockchainYellowstone,
		Network:    NetworkDatilProd,
		TokenID:    "9365417838328170688784621750843422999757712915165857517238501371202806961902",
		EthAddress: "0xf70363601654d452728151a931cF82467181459c",
	}

	tests := []struct {
		name     string
		mutate   func(e *MintEvent)
		expected bool
	}{
		{
			name:     "valid event",
			mutate:   func(e *MintEvent) {},
			expected: true,
		},
		{
			name:     "missing blockchain",
			mutate:   func(e *MintEvent) { e.Blockchain = "" },
			expected: false,
		},
		{
			name:     "missing network",
			mutate:   func(e *MintEvent) { e.Network = "" },
			expected: false,
		},
		{
			name:     "empty token id",
			mutate:   func(e *MintEvent) { e.TokenID = "" },
			expected: false,
		},
		{
			name:     "hex token id",
			mutate:   func(e *MintEvent) { e.TokenID = "0x1f" },
			expected: false,
		},
		{
			name:     "invalid address",
			mutate:   func(e *MintEvent) { e.EthAddress = "0x123" },
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			assert.Equal(t, tt.expected, e.Valid())
		})
	}
}

func TestBlockRange(t *testing.T) {
	r := BlockRange{From: 10, To: 19}
	assert.Equal(t, uint64(10), r.Len())
	assert.False(t, r.Empty())
	assert.Equal(t, "[10, 19]", r.String())

	single := BlockRange{From: 5, To: 5}
	assert.Equal(t, uint64(1), single.Len())

	empty := BlockRange{From: 6, To: 5}
	assert.True(t, empty.Empty())
	assert.Equal(t, uint64(0), empty.Len())
}

func TestCheckpoint_NextBlock(t *testing.T) {
	cp := Checkpoint{Blockchain: BlockchainYellowstone, Network: NetworkDatilDev, EndBlock: 100}
	assert.Equal(t, uint64(101), cp.NextBlock())
	assert.Equal(t, Pair{Blockchain: BlockchainYellowstone, Network: NetworkDatilDev}, cp.Pair())
	assert.Equal(t, "yellowstone/datil_dev", cp.Pair().String())
}
