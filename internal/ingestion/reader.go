package ingestion

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned when an uploaded file is not supported.
var ErrUnsupportedFormat = errors.New("unsupported file format")

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// delimiterCandidates are tried during auto-detection, most common first.
var delimiterCandidates = []rune{',', '\t', '|', ';'}

// detectDelimiter samples a short prefix and picks the candidate that appears
// most often, with a consistent count, across the sampled lines. Falls back
// to comma.
func detectDelimiter(payload []byte) rune {
	const sampleLines = 5

	sample := payload
	if len(sample) > 8192 {
		sample = sample[:8192]
	}

	lines := strings.Split(string(sample), "\n")
	if len(lines) > sampleLines {
		lines = lines[:sampleLines]
	}

	best := ','
	bestScore := 0
	for _, candidate := range delimiterCandidates {
		score := 0
		prev := -1
		consistent := true
		for _, line := range lines {
			if strings.TrimSpace(line) == "" {
				continue
			}
			count := strings.Count(line, string(candidate))
			if prev >= 0 && count != prev {
				consistent = false
			}
			prev = count
			score += count
		}
		if consistent && score > bestScore {
			best = candidate
			bestScore = score
		}
	}
	return best
}

// tableData is one parsed source: sanitized headers plus data rows.
type tableData struct {
	headers        []string
	rows           [][]string
	headerRowIndex int
}

// parseTable dispatches on file extension. Delimiter zero means auto-detect
// (CSV only).
func parseTable(fileName string, payload []byte, delimiter rune) (tableData, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv", ".txt", ".tsv", "":
		return parseCSV(payload, delimiter)
	case ".xlsx":
		return parseExcel(payload)
	default:
		return tableData{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func parseCSV(payload []byte, delimiter rune) (tableData, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	if delimiter == 0 {
		delimiter = detectDelimiter(bytes.TrimPrefix(payload, byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return tableData{}, fmt.Errorf("failed to read csv: %w", err)
	}

	return normalizeTable(records)
}

func parseExcel(payload []byte) (tableData, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return tableData{}, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return tableData{}, errors.New("excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return tableData{}, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}

	return normalizeTable(rows)
}

// normalizeTable finds the header row (first non-empty row), pads short data
// rows to header width, and keeps empty data rows so the pass can count or
// skip them per policy.
func normalizeTable(records [][]string) (tableData, error) {
	if len(records) == 0 {
		return tableData{}, errors.New("no rows found in file")
	}

	var headerRow []string
	var dataRows [][]string
	headerIndex := -1

	for idx, row := range records {
		if headerRow == nil {
			if rowIsEmpty(row) {
				continue
			}
			headerRow = row
			headerIndex = idx
			continue
		}
		dataRows = append(dataRows, row)
	}

	if headerRow == nil {
		return tableData{}, errors.New("header row could not be detected")
	}

	headers := make([]string, len(headerRow))
	for i, value := range headerRow {
		headers[i] = strings.TrimSpace(value)
	}

	for i := range dataRows {
		dataRows[i] = padRow(dataRows[i], len(headers))
	}

	return tableData{
		headers:        headers,
		rows:           dataRows,
		headerRowIndex: headerIndex,
	}, nil
}

func rowIsEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func padRow(row []string, length int) []string {
	if len(row) >= length {
		return row[:length]
	}
	padded := make([]string, length)
	copy(padded, row)
	return padded
}
