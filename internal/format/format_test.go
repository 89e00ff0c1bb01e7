package format

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/pkp-indexer/internal/domain"
)

func TestClean(t *testing.T) {
	rows := []Row{
		{"blockchain": "yellowstone", "network": "datil_prod", "tokenId": "1", "ethAddress": "0xa"},
		{"blockchain": "yellowstone", "network": "datil_prod", "tokenId": "", "ethAddress": "0xb"},
		{"blockchain": "yellowstone", "network": "datil_prod", "tokenId": "3"},
		nil,
		{"blockchain": "yellowstone", "network": "datil_prod", "tokenId": "4", "ethAddress": "0xd"},
	}

	cleaned := Clean(rows, DecodedColumns)

	require.Len(t, cleaned, 2)
	assert.Equal(t, "1", cleaned[0]["tokenId"])
	assert.Equal(t, "4", cleaned[1]["tokenId"])
}

func TestClean_Empty(t *testing.T) {
	assert.Empty(t, Clean(nil, DecodedColumns))
}

func TestRename(t *testing.T) {
	rows := []Row{{"blockchain": "chronicle", "network": "manzano", "tokenId": "7", "ethAddress": "0xabc"}}

	renamed := Rename(rows, SinkRenames())

	require.Len(t, renamed, 1)
	assert.Equal(t, Row{"blockchain": "chronicle", "network": "manzano", "token_id": "7", "eth_address": "0xabc"}, renamed[0])
	// input rows are untouched
	assert.Equal(t, "7", rows[0]["tokenId"])

	back := map[string]string{}
	for from, to := range SinkRenames() {
		back[to] = from
	}
	assert.Equal(t, rows, Rename(renamed, back))
}

func TestToCSV(t *testing.T) {
	rows := []Row{
		{"blockchain": "yellowstone", "network": "datil_prod", "token_id": "7", "eth_address": "0x00000000000000000000000000000000000000aA"},
		{"blockchain": "yellowstone", "network": "datil_prod", "token_id": "8", "eth_address": "0x00000000000000000000000000000000000000bB"},
	}

	out, err := ToCSV(rows, SinkColumns, nil)
	require.NoError(t, err)
	assert.Equal(t,
		"blockchain,network,token_id,eth_address\n"+
			"yellowstone,datil_prod,7,0x00000000000000000000000000000000000000aA\n"+
			"yellowstone,datil_prod,8,0x00000000000000000000000000000000000000bB\n",
		string(out))

	out, err = ToCSV(nil, SinkColumns, FileHeader)
	require.NoError(t, err)
	assert.Equal(t, "Blockchain,Network,Token ID,ETH Address\n", string(out))

	_, err = ToCSV(rows, SinkColumns, []string{"only"})
	assert.Error(t, err)
}

func TestToCSV_ParseCSV_RoundTrip(t *testing.T) {
	rows := []Row{
		{"blockchain": "yellowstone", "network": "datil_prod", "token_id": "9365417838328170688784621750843422999757712915165857517238501371202806961902", "eth_address": "0xf70363601654d452728151a931cF82467181459c"},
		{"blockchain": "chronicle", "network": "with,comma", "token_id": "1", "eth_address": "0x1"},
	}

	out, err := ToCSV(rows, SinkColumns, nil)
	require.NoError(t, err)

	columns, parsed, err := ParseCSV(out)
	require.NoError(t, err)
	assert.Equal(t, SinkColumns, columns)
	assert.Equal(t, rows, parsed)
}

func TestParseCSV(t *testing.T) {
	columns, rows, err := ParseCSV(nil)
	require.NoError(t, err)
	assert.Nil(t, columns)
	assert.Nil(t, rows)

	columns, rows, err = ParseCSV([]byte("blockchain,end_block,network\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"blockchain", "end_block", "network"}, columns)
	assert.Empty(t, rows)

	columns, rows, err = ParseCSV([]byte("blockchain, end_block ,network\r\nyellowstone,100,datil_prod\r\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"blockchain", "end_block", "network"}, columns)
	assert.Equal(t, []Row{{"blockchain": "yellowstone", "end_block": "100", "network": "datil_prod"}}, rows)

	_, _, err = ParseCSV([]byte("a,b\n1,2,3\n"))
	assert.Error(t, err)
}

func TestToCSVRecords(t *testing.T) {
	out, err := ToCSVRecords([]Row{{"blockchain": "chronicle", "network": "serrano", "token_id": "5", "eth_address": "0x5"}}, SinkColumns)
	require.NoError(t, err)
	assert.Equal(t, "chronicle,serrano,5,0x5\n", string(out))
}

func TestToNDJSON(t *testing.T) {
	rows := []Row{
		{"blockchain": "yellowstone", "network": "datil_prod", "token_id": "7", "eth_address": "0xa", "extra": "dropped"},
		{"blockchain": "yellowstone", "network": "datil_prod", "token_id": "8", "eth_address": "0xb"},
	}

	out, err := ToNDJSON(rows, SinkColumns)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(out), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"blockchain":"yellowstone","network":"datil_prod","token_id":"7","eth_address":"0xa"}`, lines[0])
	assert.JSONEq(t, `{"blockchain":"yellowstone","network":"datil_prod","token_id":"8","eth_address":"0xb"}`, lines[1])

	out, err = ToNDJSON(nil, SinkColumns)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestEventsPipeline(t *testing.T) {
	events := []domain.MintEvent{
		{Blockchain: domain.BlockchainYellowstone, Network: domain.NetworkDatilProd, TokenID: "7", EthAddress: "0x00000000000000000000000000000000000000aA", BlockNumber: 100},
		{Blockchain: domain.BlockchainYellowstone, Network: domain.NetworkDatilProd, TokenID: "8"},
	}

	rows := Rename(Clean(FromEvents(events), DecodedColumns), SinkRenames())
	require.Len(t, rows, 1)

	back := ToEvents(rows)
	require.Len(t, back, 1)
	assert.Equal(t, domain.MintEvent{
		Blockchain: domain.BlockchainYellowstone,
		Network:    domain.NetworkDatilProd,
		TokenID:    "7",
		EthAddress: "0x00000000000000000000000000000000000000aA",
	}, back[0])
}
