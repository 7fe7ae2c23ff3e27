package domain

import (
	"encoding/json"
	"fmt"
)

// FieldMapping associates canonical fields with a source's actual column
// names for one ingestion run. At most one column per field; a column serves
// at most one field.
type FieldMapping map[CanonicalField]string

// Column returns the source column mapped to a field and whether one exists.
func (m FieldMapping) Column(field CanonicalField) (string, bool) {
	col, ok := m[field]
	return col, ok
}

// Has reports whether the field has a mapped source column.
func (m FieldMapping) Has(field CanonicalField) bool {
	_, ok := m[field]
	return ok
}

// Validate checks that the mapping resolves every required field and that no
// source column is claimed twice. A mapping that fails validation must not be
// used to normalize rows.
func (m FieldMapping) Validate() error {
	for _, field := range RequiredFields {
		if _, ok := m[field]; !ok {
			return fmt.Errorf("mapping is missing required field %s", field)
		}
	}
	claimed := make(map[string]CanonicalField, len(m))
	for field, column := range m {
		if prior, ok := claimed[column]; ok {
			return fmt.Errorf("source column %q mapped to both %s and %s", column, prior, field)
		}
		claimed[column] = field
	}
	return nil
}

// CoversColumns reports whether every mapped source column appears in the
// given header list. A mapping built against different headers must not be
// used to normalize rows, even when it is structurally valid.
func (m FieldMapping) CoversColumns(headers []string) bool {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	for _, column := range m {
		if !present[column] {
			return false
		}
	}
	return true
}

// Export serializes the mapping for storage alongside a vendor profile.
// ImportMapping on the output reproduces the identical mapping.
func (m FieldMapping) Export() ([]byte, error) {
	out := make(map[string]string, len(m))
	for field, column := range m {
		out[string(field)] = column
	}
	return json.Marshal(out)
}

// ImportMapping parses a mapping previously produced by Export. Unknown
// canonical field names are rejected so a stale export cannot silently invent
// schema slots.
func ImportMapping(data []byte) (FieldMapping, error) {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse field mapping: %w", err)
	}
	known := make(map[CanonicalField]bool, len(AllFields))
	for _, f := range AllFields {
		known[f] = true
	}
	m := make(FieldMapping, len(raw))
	for name, column := range raw {
		field := CanonicalField(name)
		if !known[field] {
			return nil, fmt.Errorf("unknown canonical field %q in mapping", name)
		}
		m[field] = column
	}
	return m, nil
}

// Clone returns an independent copy of the mapping.
func (m FieldMapping) Clone() FieldMapping {
	out := make(FieldMapping, len(m))
	for field, column := range m {
		out[field] = column
	}
	return out
}
