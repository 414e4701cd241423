package engine

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// ============================================================================
// EXECUTOR — Dispatcher + Placeholder Resolution
// ============================================================================
// Entry point: Execute(spec, view, opts...)
//
// Pipeline:
//   1. Validate the ChartSpec
//   2. Apply filters → SubView
//   3. Drop rows with a null in any required field → SubView
//   4. Dispatch to the builder for spec.Kind
//   5. Resolve reply template placeholders
//   6. Return Result
//
// Zero data copy — the engine reads consumer data through RecordView.
// ============================================================================

// ErrInvalidSpec is returned when a ChartSpec cannot be executed.
var ErrInvalidSpec = errors.New("invalid chart spec")

// Execute runs a ChartSpec against a RecordView and returns a render-ready Result.
// An empty selection is reported through Result.Empty, not as an error.
//
// Options:
//   - WithLogger(logger) — debug output for each pipeline stage
//   - WithPalette(colors...) — series colors not covered by spec.ColorMap
func Execute(spec ChartSpec, view RecordView, opts ...Option) (*Result, error) {
	cfg := applyOptions(opts)

	if err := ValidateSpec(spec); err != nil {
		return nil, err
	}

	// 1. Filters → SubView (zero-copy)
	filtered := ApplyFilters(view, spec.Filters)

	// 2. Null-drop projection
	required := spec.RequiredFields()
	prepared := DropNulls(filtered, required)

	cfg.Logger.Debug("chart spec prepared",
		zap.String("chart", spec.ID),
		zap.String("kind", spec.Kind),
		zap.Int("rows", view.Len()),
		zap.Int("filtered", filtered.Len()),
		zap.Int("complete", prepared.Len()),
		zap.Strings("required", required),
	)

	// 3. Build
	result := &Result{
		Success:     true,
		Type:        "chart",
		Title:       spec.Title,
		Count:       prepared.Len(),
		ChartConfig: BuildChart(spec, prepared, cfg.Palette),
	}
	result.Empty = result.ChartConfig.IsEmpty()

	// 4. Reply
	result.Reply = ResolvePlaceholders(spec.Reply, spec, prepared)

	return result, nil
}

// ValidateSpec checks that spec names a known kind and the fields that kind needs.
func ValidateSpec(spec ChartSpec) error {
	switch spec.Kind {
	case KindHistogram:
		if spec.X == "" {
			return fmt.Errorf("%w: histogram %q needs x", ErrInvalidSpec, spec.ID)
		}
	case KindBox:
		if spec.Y == "" || (spec.X == "" && spec.Color == "") {
			return fmt.Errorf("%w: box %q needs y and a category field", ErrInvalidSpec, spec.ID)
		}
	case KindScatter:
		if spec.X == "" || spec.Y == "" {
			return fmt.Errorf("%w: scatter %q needs x and y", ErrInvalidSpec, spec.ID)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidSpec, spec.Kind)
	}
	return nil
}

// ============================================================================
// PLACEHOLDER RESOLUTION
// ============================================================================

// ResolvePlaceholders substitutes computed values into the reply template.
//
//	{count}        rows charted
//	{count_fmt}    rows charted with thousands separators
//	{filter_label} the active filter values, or "All"
//	{title}        the chart title
//	{y_avg}        mean of the Y field, likewise {y_min} and {y_max}
func ResolvePlaceholders(template string, spec ChartSpec, view RecordView) string {
	if template == "" {
		return buildDefaultReply(spec, view)
	}

	replacements := map[string]string{
		"{count}":        strconv.Itoa(view.Len()),
		"{count_fmt}":    FormatInt(view.Len()),
		"{filter_label}": buildFilterLabel(&spec.Filters),
		"{title}":        spec.Title,
	}
	if spec.Y != "" {
		for _, agg := range []string{"avg", "min", "max"} {
			if v, ok := AggregateMeasure(view, spec.Y, agg); ok {
				replacements["{y_"+agg+"}"] = humanize.CommafWithDigits(v, 2)
			}
		}
	}

	result := template
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	// Safety net: strip unresolved placeholders
	return stripUnresolvedPlaceholders(result)
}

// ============================================================================
// INTERNAL HELPERS
// ============================================================================

func buildDefaultReply(spec ChartSpec, view RecordView) string {
	if view.Len() == 0 {
		return "No matching respondents."
	}
	return fmt.Sprintf("%s respondents (%s).", FormatInt(view.Len()), buildFilterLabel(&spec.Filters))
}

// buildFilterLabel creates a human-readable label from Filters.
// Dimensions are listed alphabetically so the label is stable.
func buildFilterLabel(f *Filters) string {
	if f == nil || f.IsEmpty() {
		return "All"
	}

	dims := make([]string, 0, len(f.Dimensions))
	for dim, vals := range f.Dimensions {
		if len(vals) > 0 {
			dims = append(dims, dim)
		}
	}
	sort.Strings(dims)

	parts := make([]string, 0, len(dims))
	for _, dim := range dims {
		parts = append(parts, strings.Join(f.Dimensions[dim], ", "))
	}
	return strings.Join(parts, "; ")
}

var placeholderRegex = regexp.MustCompile(`\{[a-z_]+\}`)

func stripUnresolvedPlaceholders(text string) string {
	cleaned := placeholderRegex.ReplaceAllString(text, "")
	cleaned = strings.ReplaceAll(cleaned, "  ", " ")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimRight(cleaned, " .-")
	if cleaned == "" {
		return text
	}
	return cleaned
}
