package gss

import (
	"database/sql"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ============================================================================
// LOOKUP TABLES — presentation labels and derived categories
// ============================================================================

// Option is one selectable value with its display label.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ── Regions ──────────────────────────────────────────────────────────────────

// RegionNames maps census region codes to display labels.
var RegionNames = map[string]string{
	"e. nor. central": "East North Central",
	"e. sou. central": "East South Central",
	"middle atlantic": "Middle Atlantic",
	"mountain":        "Mountain",
	"new england":     "New England",
	"pacific":         "Pacific",
	"south atlantic":  "South Atlantic",
	"w. nor. central": "West North Central",
	"w. sou. central": "West South Central",
}

// RegionLabel returns the display label of a region code. Codes outside
// RegionNames are title-cased. The result is never empty for a non-empty code.
func RegionLabel(code string) string {
	if label, ok := RegionNames[code]; ok {
		return label
	}
	if strings.TrimSpace(code) == "" {
		return code
	}
	return cases.Title(language.English).String(code)
}

// RegionOptions builds selector options for the given codes, keeping their order.
func RegionOptions(codes []string) []Option {
	opts := make([]Option, 0, len(codes))
	for _, c := range codes {
		opts = append(opts, Option{Label: RegionLabel(c), Value: c})
	}
	return opts
}

// ── Education ────────────────────────────────────────────────────────────────

// Education categories, lowest to highest.
const (
	EduLessThanHighSchool = "Less than High School"
	EduHighSchool         = "High School Graduate"
	EduSomeCollege        = "Some College"
	EduBachelor           = "Bachelor's Degree"
	EduGraduate           = "Graduate Degree"
	EduMissing            = "Missing"
)

// EducationCategories lists the categories in display order.
var EducationCategories = []string{
	EduLessThanHighSchool, EduHighSchool, EduSomeCollege, EduBachelor, EduGraduate, EduMissing,
}

// EducationCategory buckets years of schooling. Null years are Missing.
func EducationCategory(years sql.NullInt64) string {
	if !years.Valid {
		return EduMissing
	}
	switch y := years.Int64; {
	case y <= 8:
		return EduLessThanHighSchool
	case y <= 12:
		return EduHighSchool
	case y <= 15:
		return EduSomeCollege
	case y <= 18:
		return EduBachelor
	default:
		return EduGraduate
	}
}

// ── Selector tables ──────────────────────────────────────────────────────────

// BarFeatures are the categorical fields offered by the custom bar chart.
var BarFeatures = []Option{
	{Label: "Satisfaction with Job", Value: FieldSatJob},
	{Label: "Relationship Satisfaction", Value: FieldRelationship},
	{Label: "Male Breadwinner Statement", Value: FieldMaleBreadwinner},
	{Label: "Men Better Suited for Politics", Value: FieldMenBetterSuited},
	{Label: "Children Suffer if Mother Works", Value: FieldChildSuffer},
	{Label: "Men Overwork", Value: FieldMenOverwork},
}

// GroupByOptions are the fields the custom bar chart can color by.
var GroupByOptions = []Option{
	{Label: "Sex", Value: FieldSex},
	{Label: "Region", Value: FieldRegion},
	{Label: "Education Category", Value: FieldEducationCat},
}

// Defaults of the custom bar chart selectors.
const (
	DefaultBarFeature = FieldMaleBreadwinner
	DefaultGroupBy    = FieldSex
)

// OptionLabel returns the label of value in opts, or value itself.
func OptionLabel(opts []Option, value string) string {
	for _, o := range opts {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}

// HasOption reports whether value is one of opts.
func HasOption(opts []Option, value string) bool {
	for _, o := range opts {
		if o.Value == value {
			return true
		}
	}
	return false
}

// ── Colors ───────────────────────────────────────────────────────────────────

// SexColors is the fixed color encoding for Sex in every chart.
var SexColors = map[string]string{
	string(Male):   "#FF0000",
	string(Female): "#0000FF",
}

// CategoryOrder returns the display order of a categorical field's values,
// or nil for fields without a fixed order.
func CategoryOrder(field string) []string {
	switch field {
	case FieldSex:
		return Strings(Sexes)
	case FieldSatJob:
		return Strings(JobSatisfactions)
	case FieldRelationship, FieldMaleBreadwinner, FieldMenBetterSuited, FieldChildSuffer, FieldMenOverwork:
		return Strings(Agreements)
	case FieldEducationCat:
		return EducationCategories
	}
	return nil
}
