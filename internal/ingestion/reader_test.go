package ingestion

import (
	"errors"
	"testing"
)

func TestDetectDelimiter(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    rune
	}{
		{"comma", "a,b,c\n1,2,3\n", ','},
		{"semicolon", "a;b;c\n1;2;3\n", ';'},
		{"tab", "a\tb\tc\n1\t2\t3\n", '\t'},
		{"pipe", "a|b|c\n1|2|3\n", '|'},
		{"single column falls back to comma", "a\n1\n2\n", ','},
	}
	for _, tc := range cases {
		if got := detectDelimiter([]byte(tc.payload)); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestDetectDelimiterPrefersConsistency(t *testing.T) {
	// Commas appear often but with varying counts per line; the semicolon
	// count is stable.
	payload := "a;b,,,\nc;d,\ne;f,,\n"
	if got := detectDelimiter([]byte(payload)); got != ';' {
		t.Fatalf("expected semicolon, got %q", got)
	}
}

func TestParseCSVStripsByteOrderMark(t *testing.T) {
	payload := append([]byte{0xEF, 0xBB, 0xBF}, []byte("order_id,order_date\nORD-1,2024-01-15\n")...)

	table, err := parseCSV(payload, 0)
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}
	if table.headers[0] != "order_id" {
		t.Fatalf("BOM leaked into first header: %q", table.headers[0])
	}
}

func TestParseTableSkipsLeadingBlankRows(t *testing.T) {
	payload := []byte(",,\n,,\norder_id,order_date,total\nORD-1,2024-01-15,100\n")

	table, err := parseCSV(payload, ',')
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}
	if table.headerRowIndex != 2 {
		t.Fatalf("expected header at index 2, got %d", table.headerRowIndex)
	}
	if len(table.headers) != 3 || table.headers[0] != "order_id" {
		t.Fatalf("unexpected headers: %v", table.headers)
	}
	if len(table.rows) != 1 {
		t.Fatalf("expected 1 data row, got %d", len(table.rows))
	}
}

func TestParseTablePadsShortRows(t *testing.T) {
	payload := []byte("order_id,order_date,total\nORD-1,2024-01-15\n")

	table, err := parseCSV(payload, ',')
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}
	row := table.rows[0]
	if len(row) != 3 {
		t.Fatalf("expected padded row of width 3, got %d", len(row))
	}
	if row[2] != "" {
		t.Fatalf("expected empty pad cell, got %q", row[2])
	}
}

func TestParseTableKeepsEmptyDataRows(t *testing.T) {
	payload := []byte("order_id,order_date\nORD-1,2024-01-15\n,\nORD-2,2024-01-16\n")

	table, err := parseCSV(payload, ',')
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}
	if len(table.rows) != 3 {
		t.Fatalf("empty data rows are a policy decision for the pass, got %d rows", len(table.rows))
	}
}

func TestParseTableRejectsUnknownExtension(t *testing.T) {
	_, err := parseTable("orders.pdf", []byte("data"), 0)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestParseTableDispatchesTSV(t *testing.T) {
	table, err := parseTable("orders.tsv", []byte("order_id\torder_date\nORD-1\t2024-01-15\n"), 0)
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}
	if len(table.headers) != 2 {
		t.Fatalf("expected tab detection to yield 2 headers, got %v", table.headers)
	}
}

func TestParseTableNoRows(t *testing.T) {
	if _, err := parseCSV([]byte(""), ','); err == nil {
		t.Fatalf("expected error for empty payload")
	}
	if _, err := parseCSV([]byte(",,\n,,\n"), ','); err == nil {
		t.Fatalf("expected error when no header row exists")
	}
}
