package engine

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/gonum/floats"
)

// ============================================================================
// AGGREGATORS — Grouping, Aggregation, and Ordering via RecordView
// ============================================================================
// All functions operate on RecordView — zero-copy access to any data source.
// Grouping produces SubViews (index lists into parent view).
// Null measures are skipped by every aggregation.
// ============================================================================

// GroupAndAggregate groups view by up to two fields and aggregates each
// group: "count" counts rows, "avg", "min" and "max" reduce measure, "none"
// only groups. Groups keep first-seen order.
func GroupAndAggregate(view RecordView, groupBy []string, measure, aggregation string) []Group {
	if view.Len() == 0 {
		return nil
	}

	var groups []Group
	switch len(groupBy) {
	case 0:
		groups = []Group{{Key: "all", Label: "Total", View: view}}
	case 1:
		groups = groupBySingle(view, groupBy[0])
	default:
		groups = groupByMulti(view, groupBy)
	}

	for i := range groups {
		aggregateGroup(&groups[i], measure, aggregation)
		for j := range groups[i].SubGroups {
			aggregateGroup(&groups[i].SubGroups[j], measure, aggregation)
		}
	}
	return groups
}

// ============================================================================
// GROUPING
// ============================================================================

func groupBySingle(view RecordView, dimension string) []Group {
	grouped := make(map[string][]int)
	order := make([]string, 0)

	for i := 0; i < view.Len(); i++ {
		key, _ := FieldValue(view, i, dimension)
		if _, exists := grouped[key]; !exists {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], i)
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		groups = append(groups, Group{
			Key:   key,
			Label: key,
			View:  newSubView(view, grouped[key]),
		})
	}
	return groups
}

func groupByMulti(view RecordView, dimensions []string) []Group {
	if len(dimensions) < 2 {
		return groupBySingle(view, dimensions[0])
	}

	primaryGroups := groupBySingle(view, dimensions[0])
	for i := range primaryGroups {
		primaryGroups[i].SubGroups = groupBySingle(primaryGroups[i].View, dimensions[1])
	}
	return primaryGroups
}

// ============================================================================
// AGGREGATION
// ============================================================================

func aggregateGroup(group *Group, measure string, aggregation string) {
	group.Count = group.View.Len()
	if group.Count == 0 {
		return
	}

	switch aggregation {
	case "none":
	case "avg", "min", "max":
		group.Value, _ = AggregateMeasure(group.View, measure, aggregation)
	default:
		group.Value = float64(group.Count)
	}
}

// MeasureValues collects the non-null values of a measure, in view order.
func MeasureValues(view RecordView, measure string) []float64 {
	values := make([]float64, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		if v, ok := view.Measure(i, measure); ok {
			values = append(values, v)
		}
	}
	return values
}

// AggregateMeasure reduces the non-null values of a measure with "avg",
// "min" or "max". ok is false when there is no value to reduce.
func AggregateMeasure(view RecordView, measure, aggregation string) (float64, bool) {
	values := MeasureValues(view, measure)
	if len(values) == 0 {
		return 0, false
	}
	switch aggregation {
	case "avg":
		return floats.Sum(values) / float64(len(values)), true
	case "min":
		return floats.Min(values), true
	case "max":
		return floats.Max(values), true
	default:
		return 0, false
	}
}

// ============================================================================
// ORDERING
// ============================================================================

// OrderKeys arranges keys so that those listed in preferred come first, in
// that order, followed by the rest alphabetically. Preferred values absent
// from keys are left out.
func OrderKeys(keys []string, preferred []string) []string {
	present := make(map[string]bool, len(keys))
	for _, k := range keys {
		present[k] = true
	}

	ordered := make([]string, 0, len(keys))
	used := make(map[string]bool, len(keys))
	for _, p := range preferred {
		if present[p] && !used[p] {
			ordered = append(ordered, p)
			used[p] = true
		}
	}

	rest := make([]string, 0, len(keys))
	for _, k := range keys {
		if !used[k] {
			rest = append(rest, k)
			used[k] = true
		}
	}
	sort.Strings(rest)
	return append(ordered, rest...)
}

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	return humanize.Comma(int64(n))
}

// FormatNumber prints whole numbers without decimals and keeps the shortest
// exact form otherwise.
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// LabelForDimension turns a field key into a title: "job_prestige" → "Job Prestige".
func LabelForDimension(dimension string) string {
	words := strings.Fields(strings.ReplaceAll(dimension, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// LabelForAggregation returns a human-readable label for an aggregation type.
func LabelForAggregation(aggregation string) string {
	switch aggregation {
	case "count":
		return "Count"
	case "avg":
		return "Average"
	case "max":
		return "Maximum"
	case "min":
		return "Minimum"
	default:
		return "Value"
	}
}
