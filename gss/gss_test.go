package gss

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func years(n int64) sql.NullInt64 { return sql.NullInt64{Int64: n, Valid: true} }

func TestEducationCategory_Boundaries(t *testing.T) {
	cases := []struct {
		years sql.NullInt64
		want  string
	}{
		{years(0), EduLessThanHighSchool},
		{years(8), EduLessThanHighSchool},
		{years(9), EduHighSchool},
		{years(12), EduHighSchool},
		{years(13), EduSomeCollege},
		{years(15), EduSomeCollege},
		{years(16), EduBachelor},
		{years(18), EduBachelor},
		{years(19), EduGraduate},
		{years(20), EduGraduate},
		{sql.NullInt64{}, EduMissing},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, EducationCategory(tc.years), "years=%v", tc.years)
	}
}

func TestRegionLabel(t *testing.T) {
	assert.Equal(t, "East North Central", RegionLabel("e. nor. central"))
	assert.Equal(t, "Pacific", RegionLabel("pacific"))
	assert.Equal(t, "Foreign Land", RegionLabel("foreign land"))

	for code := range RegionNames {
		assert.NotEmpty(t, RegionLabel(code))
	}
}

func TestRegionOptions(t *testing.T) {
	opts := RegionOptions([]string{"mountain", "pacific"})
	assert.Equal(t, []Option{{Label: "Mountain", Value: "mountain"}, {Label: "Pacific", Value: "pacific"}}, opts)
}

func TestParseEnums(t *testing.T) {
	s, err := ParseSex(" Female ")
	require.NoError(t, err)
	assert.Equal(t, Female, s)

	a, err := ParseAgreement("STRONGLY AGREE")
	require.NoError(t, err)
	assert.Equal(t, StronglyAgree, a)

	j, err := ParseJobSatisfaction("mod. satisfied")
	require.NoError(t, err)
	assert.Equal(t, ModSatisfied, j)

	_, err = ParseAgreement("neutral")
	assert.ErrorIs(t, err, ErrUnknownValue)
}

func TestOptionTables(t *testing.T) {
	assert.Equal(t, "Male Breadwinner Statement", OptionLabel(BarFeatures, DefaultBarFeature))
	assert.Equal(t, "Education Category", OptionLabel(GroupByOptions, FieldEducationCat))
	assert.Equal(t, "unknown", OptionLabel(GroupByOptions, "unknown"))
	assert.True(t, HasOption(GroupByOptions, DefaultGroupBy))
	assert.False(t, HasOption(BarFeatures, FieldIncome))
}

func TestSchema(t *testing.T) {
	cols := Schema.SourceColumns()
	assert.Len(t, cols, 17)
	assert.Contains(t, cols, "wtss")
	assert.Contains(t, cols, "meovrwrk")
	assert.NotContains(t, cols, "")

	assert.True(t, Schema.IsNull("IAP"))
	assert.True(t, Schema.IsNull(" DK "))
	assert.True(t, Schema.IsNull(""))
	assert.False(t, Schema.IsNull("iap"))
	assert.Equal(t, "Region Name", Schema.DisplayName(FieldRegionName))
}

func TestView(t *testing.T) {
	view := View([]Respondent{
		{ID: 1, Sex: Male, Region: "pacific", Income: sql.NullFloat64{Float64: 10, Valid: true}, EducationCat: EduMissing},
		{ID: 2, Sex: Female, Education: years(16)},
	})

	require.Equal(t, 2, view.Len())
	assert.Equal(t, "male", view.Dimension(0, FieldSex))
	assert.Equal(t, "", view.Dimension(1, FieldRegion))

	v, ok := view.Measure(0, FieldIncome)
	assert.True(t, ok)
	assert.Equal(t, 10.0, v)

	_, ok = view.Measure(1, FieldIncome)
	assert.False(t, ok)

	v, ok = view.Measure(1, FieldEducation)
	assert.True(t, ok)
	assert.Equal(t, 16.0, v)
}
