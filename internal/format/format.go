package format

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/feral-file/pkp-indexer/internal/domain"
)

// Row is one tabular record keyed by column name
type Row map[string]string

// Decoded column names, as produced by the event fetcher
const (
	ColumnBlockchain = "blockchain"
	ColumnNetwork    = "network"
	ColumnTokenID    = "tokenId"
	ColumnEthAddress = "ethAddress"
)

// Sink column names
const (
	SinkColumnTokenID    = "token_id"
	SinkColumnEthAddress = "eth_address"
	SinkColumnEndBlock   = "end_block"
	SinkColumnUpdatedAt  = "updated_at"
)

var (
	// DecodedColumns are the columns of rows built from mint events
	DecodedColumns = []string{ColumnBlockchain, ColumnNetwork, ColumnTokenID, ColumnEthAddress}

	// SinkColumns are the columns written to every sink, in order
	SinkColumns = []string{ColumnBlockchain, ColumnNetwork, SinkColumnTokenID, SinkColumnEthAddress}

	// FileHeader is the human readable header of the local CSV file
	FileHeader = []string{"Blockchain", "Network", "Token ID", "ETH Address"}
)

// SinkRenames returns the mapping from decoded to sink column names
func SinkRenames() map[string]string {
	return map[string]string{
		ColumnTokenID:    SinkColumnTokenID,
		ColumnEthAddress: SinkColumnEthAddress,
	}
}

// FromEvents builds rows keyed by the decoded column names
func FromEvents(events []domain.MintEvent) []Row {
	rows := make([]Row, 0, len(events))
	for _, e := range events {
		rows = append(rows, Row{
			ColumnBlockchain: string(e.Blockchain),
			ColumnNetwork:    string(e.Network),
			ColumnTokenID:    e.TokenID,
			ColumnEthAddress: e.EthAddress,
		})
	}
	return rows
}

// Clean drops every row missing a value in any of the given columns.
// The order of the remaining rows is preserved.
func Clean(rows []Row, columns []string) []Row {
	cleaned := make([]Row, 0, len(rows))
	for _, row := range rows {
		if complete(row, columns) {
			cleaned = append(cleaned, row)
		}
	}
	return cleaned
}

func complete(row Row, columns []string) bool {
	if row == nil {
		return false
	}
	for _, col := range columns {
		if row[col] == "" {
			return false
		}
	}
	return true
}

// Rename returns copies of the rows with columns renamed; columns without a mapping keep their name
func Rename(rows []Row, renames map[string]string) []Row {
	renamed := make([]Row, 0, len(rows))
	for _, row := range rows {
		out := make(Row, len(row))
		for k, v := range row {
			if to, ok := renames[k]; ok {
				k = to
			}
			out[k] = v
		}
		renamed = append(renamed, out)
	}
	return renamed
}

// ToCSV renders a header line followed by one line per row, taking the given columns in order.
// header defaults to columns when nil.
func ToCSV(rows []Row, columns []string, header []string) ([]byte, error) {
	if header == nil {
		header = columns
	}
	if len(header) != len(columns) {
		return nil, fmt.Errorf("header has %d fields for %d columns", len(header), len(columns))
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := writeRecords(w, rows, columns); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ToCSVRecords renders the rows without a header line
func ToCSVRecords(rows []Row, columns []string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := writeRecords(w, rows, columns); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRecords(w *csv.Writer, rows []Row, columns []string) error {
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = row[col]
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write csv record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// ParseCSV parses CSV with a header line into its columns and rows.
// Empty input yields no columns and no rows.
func ParseCSV(data []byte) ([]string, []Row, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, nil
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	var rows []Row
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read csv record: %w", err)
		}
		if len(record) != len(columns) {
			return nil, nil, fmt.Errorf("csv record has %d fields, header has %d", len(record), len(columns))
		}
		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = record[i]
		}
		rows = append(rows, row)
	}

	return columns, rows, nil
}

// ToNDJSON renders one JSON object per row and line, restricted to the given columns
func ToNDJSON(rows []Row, columns []string) ([]byte, error) {
	var buf bytes.Buffer
	for _, row := range rows {
		obj := make(map[string]string, len(columns))
		for _, col := range columns {
			obj[col] = row[col]
		}
		line, err := json.Marshal(obj)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal row: %w", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// ToEvents converts rows keyed by the sink columns back to mint events
func ToEvents(rows []Row) []domain.MintEvent {
	events := make([]domain.MintEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, domain.MintEvent{
			Blockchain: domain.Blockchain(row[ColumnBlockchain]),
			Network:    domain.Network(row[ColumnNetwork]),
			TokenID:    row[SinkColumnTokenID],
			EthAddress: row[SinkColumnEthAddress],
		})
	}
	return events
}
