package domain

import "strings"

// RawValue is a cell as read from a source file: either text or absent.
// Absent covers both a missing column and a row shorter than the header.
type RawValue struct {
	text    string
	present bool
}

// Text wraps a raw cell value.
func Text(s string) RawValue {
	return RawValue{text: s, present: true}
}

// Absent is the missing-cell value.
func Absent() RawValue {
	return RawValue{}
}

// Present reports whether the cell existed in the source row.
func (v RawValue) Present() bool {
	return v.present
}

// String returns the raw text, trimmed. Absent cells return "".
func (v RawValue) String() string {
	return strings.TrimSpace(v.text)
}

// Empty reports whether the cell is absent or contains only whitespace.
func (v RawValue) Empty() bool {
	return !v.present || strings.TrimSpace(v.text) == ""
}

// RawRow maps source column names to raw cell values for one data row.
// Rows are read once and never mutated; normalization produces new records.
type RawRow map[string]RawValue

// Get returns the cell for a source column, Absent when the column is not in
// the row.
func (r RawRow) Get(column string) RawValue {
	if v, ok := r[column]; ok {
		return v
	}
	return Absent()
}

// Empty reports whether every cell in the row is empty.
func (r RawRow) Empty() bool {
	for _, v := range r {
		if !v.Empty() {
			return false
		}
	}
	return true
}
