package gss

import (
	"database/sql"

	"github.com/spektr-org/gssdash/engine"
	"github.com/spektr-org/gssdash/schema"
)

// SurveyNullTokens are the survey's non-response codes.
var SurveyNullTokens = []string{
	"IAP",
	"IAP,DK,NA,uncodeable",
	"NOT SURE",
	"DK",
	"IAP, DK, NA, uncodeable",
	".a",
	"CAN'T CHOOSE",
}

// MissingValueTokens are the generic spellings of a missing cell that CSV
// tooling writes, NaN included.
var MissingValueTokens = []string{
	"#N/A", "#N/A N/A", "#NA",
	"-1.#IND", "-1.#QNAN", "1.#IND", "1.#QNAN",
	"-NaN", "-nan", "NaN", "nan",
	"<NA>", "N/A", "NA", "n/a",
	"NULL", "null", "None",
}

// NullTokens are every cell value read as null.
var NullTokens = append(append([]string{}, SurveyNullTokens...), MissingValueTokens...)

// AgeTopCode is the textual age top-code and the value it stands for.
const (
	AgeTopCode      = "89 or older"
	AgeTopCodeValue = 89
)

// Schema describes the columns read from the survey file and the fields they
// become. Source columns not listed here are dropped on load.
var Schema = schema.Config{
	Name:        "GSS 2018",
	Version:     "2018",
	Description: "General Social Survey 2018 extract: demographics, income, occupational prestige and gender-role attitudes",
	Dimensions: []schema.DimensionMeta{
		enumDimension(FieldSex, "sex", "Sex", Strings(Sexes)),
		{Key: FieldRegion, Source: "region", DisplayName: "Region", Groupable: true, Filterable: true},
		enumDimension(FieldSatJob, "satjob", "Satisfaction with Job", Strings(JobSatisfactions)),
		enumDimension(FieldRelationship, "fechld", "Relationship Satisfaction", Strings(Agreements)),
		enumDimension(FieldMaleBreadwinner, "fefam", "Male Breadwinner Statement", Strings(Agreements)),
		enumDimension(FieldMenBetterSuited, "fepol", "Men Better Suited for Politics", Strings(Agreements)),
		enumDimension(FieldChildSuffer, "fepresch", "Children Suffer if Mother Works", Strings(Agreements)),
		enumDimension(FieldMenOverwork, "meovrwrk", "Men Overwork", Strings(Agreements)),
		{Key: FieldEducationCat, DisplayName: "Education Category", Values: EducationCategories, Groupable: true, Filterable: true, DerivedFrom: FieldEducation},
		{Key: FieldRegionName, DisplayName: "Region Name", Groupable: true, DerivedFrom: FieldRegion},
	},
	Measures: []schema.MeasureMeta{
		{Key: FieldID, Source: "id", DisplayName: "Respondent ID", Integer: true},
		{Key: FieldWeight, Source: "wtss", DisplayName: "Weight", Unit: "weight"},
		{Key: FieldEducation, Source: "educ", DisplayName: "Years of Education", Unit: "years", Integer: true},
		{Key: FieldAge, Source: "age", DisplayName: "Age", Unit: "years"},
		{Key: FieldIncome, Source: "coninc", DisplayName: "Personal Annual Income", Unit: "usd"},
		{Key: FieldJobPrestige, Source: "prestg10", DisplayName: "Job Prestige Score", Unit: "score"},
		{Key: FieldMotherJobPrestige, Source: "mapres10", DisplayName: "Mother's Job Prestige", Unit: "score"},
		{Key: FieldFatherJobPrestige, Source: "papres10", DisplayName: "Father's Job Prestige", Unit: "score"},
		{Key: FieldSocioeconomicIndex, Source: "sei10", DisplayName: "Socioeconomic Index", Unit: "score"},
	},
	NullTokens: NullTokens,
}

func enumDimension(key, source, display string, values []string) schema.DimensionMeta {
	d := schema.DefaultDimension(key, source)
	d.DisplayName = display
	d.Values = values
	return d
}

// Columns lists every field of a respondent in export order.
var Columns = []string{
	FieldID, FieldWeight, FieldSex, FieldEducation, FieldEducationCat, FieldRegion, FieldAge,
	FieldIncome, FieldJobPrestige, FieldMotherJobPrestige, FieldFatherJobPrestige, FieldSocioeconomicIndex,
	FieldSatJob, FieldRelationship, FieldMaleBreadwinner, FieldMenBetterSuited, FieldChildSuffer, FieldMenOverwork,
}

// ============================================================================
// RECORD VIEW BINDING
// ============================================================================

func nullable(v sql.NullFloat64) (float64, bool) { return v.Float64, v.Valid }

// Adapter exposes Respondent fields to the engine without copying.
var Adapter = engine.NewDomainAdapter[Respondent]().
	Dimension(FieldSex, func(r Respondent) string { return string(r.Sex) }).
	Dimension(FieldRegion, func(r Respondent) string { return r.Region }).
	Dimension(FieldSatJob, func(r Respondent) string { return string(r.SatJob) }).
	Dimension(FieldRelationship, func(r Respondent) string { return string(r.Relationship) }).
	Dimension(FieldMaleBreadwinner, func(r Respondent) string { return string(r.MaleBreadwinner) }).
	Dimension(FieldMenBetterSuited, func(r Respondent) string { return string(r.MenBetterSuited) }).
	Dimension(FieldChildSuffer, func(r Respondent) string { return string(r.ChildSuffer) }).
	Dimension(FieldMenOverwork, func(r Respondent) string { return string(r.MenOverwork) }).
	Dimension(FieldEducationCat, func(r Respondent) string { return r.EducationCat }).
	Measure(FieldID, func(r Respondent) (float64, bool) { return float64(r.ID), true }).
	Measure(FieldWeight, func(r Respondent) (float64, bool) { return r.Weight, true }).
	Measure(FieldEducation, func(r Respondent) (float64, bool) {
		return float64(r.Education.Int64), r.Education.Valid
	}).
	Measure(FieldAge, func(r Respondent) (float64, bool) { return nullable(r.Age) }).
	Measure(FieldIncome, func(r Respondent) (float64, bool) { return nullable(r.Income) }).
	Measure(FieldJobPrestige, func(r Respondent) (float64, bool) { return nullable(r.JobPrestige) }).
	Measure(FieldMotherJobPrestige, func(r Respondent) (float64, bool) { return nullable(r.MotherJobPrestige) }).
	Measure(FieldFatherJobPrestige, func(r Respondent) (float64, bool) { return nullable(r.FatherJobPrestige) }).
	Measure(FieldSocioeconomicIndex, func(r Respondent) (float64, bool) { return nullable(r.SocioeconomicIndex) })

// View binds respondents to a RecordView.
func View(respondents []Respondent) engine.RecordView {
	return Adapter.Bind(respondents)
}
