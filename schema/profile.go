package schema

import (
	"sort"

	"github.com/spektr-org/gssdash/engine"
)

// ============================================================================
// PROFILE — Per-field data quality summary of a loaded view
// ============================================================================
// Profile walks every field the schema declares and reports how much of it is
// usable: null count, distinct values, a sorted sample and, for measures, the
// observed range and mean. Fields the view does not carry profile as fully null.
// ============================================================================

// MaxSamples bounds the sample values kept per field.
const MaxSamples = 10

// ColumnProfile summarizes one field.
type ColumnProfile struct {
	Key         string   `json:"key"`
	DisplayName string   `json:"displayName"`
	Role        string   `json:"role"` // "dimension" or "measure"
	Total       int      `json:"total"`
	NonNull     int      `json:"nonNull"`
	Nulls       int      `json:"nulls"`
	Distinct    int      `json:"distinct"`
	Samples     []string `json:"samples,omitempty"`
	Cardinality string   `json:"cardinality"` // "low", "medium", "high"

	// Measures only; nil when every value is null.
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
	Mean *float64 `json:"mean,omitempty"`

	// Values outside the closed value set of a dimension.
	Unexpected []string `json:"unexpected,omitempty"`
}

// NullRatio is the share of rows where the field is null.
func (p ColumnProfile) NullRatio() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Nulls) / float64(p.Total)
}

// Profile summarizes every dimension then every measure of c over view.
func Profile(view engine.RecordView, c Config) []ColumnProfile {
	profiles := make([]ColumnProfile, 0, len(c.Dimensions)+len(c.Measures))
	for _, d := range c.Dimensions {
		profiles = append(profiles, profileDimension(view, d))
	}
	for _, m := range c.Measures {
		profiles = append(profiles, profileMeasure(view, m))
	}
	return profiles
}

func profileDimension(view engine.RecordView, d DimensionMeta) ColumnProfile {
	p := ColumnProfile{
		Key:         d.Key,
		DisplayName: d.DisplayName,
		Role:        "dimension",
		Total:       view.Len(),
	}

	unique := make(map[string]bool)
	if hasKey(view.DimensionKeys(), d.Key) {
		for i := 0; i < view.Len(); i++ {
			v := view.Dimension(i, d.Key)
			if v == "" {
				continue
			}
			p.NonNull++
			unique[v] = true
		}
	}
	p.finish(unique)

	if len(d.Values) > 0 {
		for v := range unique {
			if !hasKey(d.Values, v) {
				p.Unexpected = append(p.Unexpected, v)
			}
		}
		sort.Strings(p.Unexpected)
	}
	return p
}

func profileMeasure(view engine.RecordView, m MeasureMeta) ColumnProfile {
	p := ColumnProfile{
		Key:         m.Key,
		DisplayName: m.DisplayName,
		Role:        "measure",
		Total:       view.Len(),
	}
	if !hasKey(view.MeasureKeys(), m.Key) {
		p.finish(nil)
		return p
	}

	unique := make(map[string]bool)
	for i := 0; i < view.Len(); i++ {
		if v, ok := view.Measure(i, m.Key); ok {
			p.NonNull++
			unique[engine.FormatNumber(v)] = true
		}
	}
	p.finish(unique)

	p.Min = aggregate(view, m.Key, "min")
	p.Max = aggregate(view, m.Key, "max")
	p.Mean = aggregate(view, m.Key, "avg")
	return p
}

func aggregate(view engine.RecordView, key, aggregation string) *float64 {
	v, ok := engine.AggregateMeasure(view, key, aggregation)
	if !ok {
		return nil
	}
	return &v
}

func (p *ColumnProfile) finish(unique map[string]bool) {
	p.Nulls = p.Total - p.NonNull
	p.Distinct = len(unique)
	p.Samples = collectSamples(unique, MaxSamples)

	switch {
	case p.Distinct <= 10:
		p.Cardinality = "low"
	case p.Distinct <= 100:
		p.Cardinality = "medium"
	default:
		p.Cardinality = "high"
	}
}

// collectSamples returns up to maxSamples values of the set, sorted.
func collectSamples(unique map[string]bool, maxSamples int) []string {
	samples := make([]string, 0, len(unique))
	for v := range unique {
		samples = append(samples, v)
	}
	sort.Strings(samples)

	if len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	return samples
}

func hasKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
