package schema

import (
	"fmt"
	"sort"
	"strings"
)

// ============================================================================
// SCHEMA — Describes the shape of a tabular dataset
// ============================================================================
// A Config maps source columns to field keys and says which fields are
// dimensions (categorical, grouped and filtered on) and which are measures
// (numeric, charted on continuous axes). The loader uses it to select and
// rename columns and to recognize null tokens; the views use it for labels.
// ============================================================================

// Config describes the complete shape of a dataset.
type Config struct {
	Name        string `json:"name"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`

	Dimensions []DimensionMeta `json:"dimensions"`
	Measures   []MeasureMeta   `json:"measures"`

	// Cell values read as null, compared after trimming surrounding spaces.
	// The empty string is always null.
	NullTokens []string `json:"nullTokens,omitempty"`
}

// DimensionMeta describes a string field used for grouping/filtering.
type DimensionMeta struct {
	Key         string   `json:"key"`
	Source      string   `json:"source,omitempty"` // source column; empty for derived fields
	DisplayName string   `json:"displayName"`
	Description string   `json:"description,omitempty"`
	Values      []string `json:"values,omitempty"` // closed value set in display order
	Groupable   bool     `json:"groupable"`
	Filterable  bool     `json:"filterable"`
	DerivedFrom string   `json:"derivedFrom,omitempty"`
}

// MeasureMeta describes a numeric field.
type MeasureMeta struct {
	Key         string `json:"key"`
	Source      string `json:"source,omitempty"`
	DisplayName string `json:"displayName"`
	Description string `json:"description,omitempty"`
	Unit        string `json:"unit,omitempty"` // "years", "usd", "score", "weight"
	Integer     bool   `json:"integer,omitempty"`
}

// DefaultDimension creates a DimensionMeta with sensible defaults.
func DefaultDimension(key, source string) DimensionMeta {
	return DimensionMeta{
		Key:         key,
		Source:      source,
		DisplayName: ToDisplayName(key),
		Groupable:   true,
		Filterable:  true,
	}
}

// DefaultMeasure creates a MeasureMeta with sensible defaults.
func DefaultMeasure(key, source string) MeasureMeta {
	return MeasureMeta{
		Key:         key,
		Source:      source,
		DisplayName: ToDisplayName(key),
	}
}

// DimensionKeys returns all dimension keys.
func (c Config) DimensionKeys() []string {
	keys := make([]string, len(c.Dimensions))
	for i, d := range c.Dimensions {
		keys[i] = d.Key
	}
	return keys
}

// MeasureKeys returns all measure keys.
func (c Config) MeasureKeys() []string {
	keys := make([]string, len(c.Measures))
	for i, m := range c.Measures {
		keys[i] = m.Key
	}
	return keys
}

// SourceColumns returns every source column the dataset reads, in schema order.
// Derived fields have no source column and are left out.
func (c Config) SourceColumns() []string {
	var cols []string
	for _, d := range c.Dimensions {
		if d.Source != "" {
			cols = append(cols, d.Source)
		}
	}
	for _, m := range c.Measures {
		if m.Source != "" {
			cols = append(cols, m.Source)
		}
	}
	return cols
}

// Dimension looks up a dimension by key.
func (c Config) Dimension(key string) (DimensionMeta, bool) {
	for _, d := range c.Dimensions {
		if d.Key == key {
			return d, true
		}
	}
	return DimensionMeta{}, false
}

// Measure looks up a measure by key.
func (c Config) Measure(key string) (MeasureMeta, bool) {
	for _, m := range c.Measures {
		if m.Key == key {
			return m, true
		}
	}
	return MeasureMeta{}, false
}

// DisplayName returns the display name of a field, or a title-cased key for
// fields the schema does not know.
func (c Config) DisplayName(key string) string {
	if d, ok := c.Dimension(key); ok {
		return d.DisplayName
	}
	if m, ok := c.Measure(key); ok {
		return m.DisplayName
	}
	return ToDisplayName(key)
}

// IsNull reports whether a raw cell value is a null token.
func (c Config) IsNull(raw string) bool {
	v := strings.TrimSpace(raw)
	if v == "" {
		return true
	}
	for _, tok := range c.NullTokens {
		if v == tok {
			return true
		}
	}
	return false
}

// ============================================================================
// HEADER RESOLUTION
// ============================================================================

// MissingColumnsError lists source columns absent from a header row.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing columns: %s", strings.Join(e.Columns, ", "))
}

// ResolveHeader maps each source column to its index in header.
// Header cells are matched after trimming spaces and a UTF-8 byte order mark;
// columns not in the schema are ignored.
func (c Config) ResolveHeader(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	positions := make(map[string]int)
	var missing []string
	for _, col := range c.SourceColumns() {
		i, ok := index[col]
		if !ok {
			missing = append(missing, col)
			continue
		}
		positions[col] = i
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &MissingColumnsError{Columns: missing}
	}
	return positions, nil
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// ToDisplayName cleans a key for human display.
// "job_prestige" → "Job Prestige", "region_name" → "Region Name"
func ToDisplayName(s string) string {
	// If already has spaces, just trim
	if strings.Contains(s, " ") {
		return strings.TrimSpace(s)
	}

	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")

	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
