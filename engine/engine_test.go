package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Test Data ─────────────────────────────────────────────────────────────────

func rec(dims map[string]string, meas map[string]float64) Record {
	return Record{Dimensions: dims, Measures: meas}
}

func sampleView() RecordView {
	return NewSliceView([]Record{
		rec(map[string]string{"sex": "male", "region": "pacific", "opinion": "agree"}, map[string]float64{"income": 50000, "prestige": 50}),
		rec(map[string]string{"sex": "female", "region": "pacific", "opinion": "disagree"}, map[string]float64{"income": 40000, "prestige": 40}),
		rec(map[string]string{"sex": "male", "region": "mountain", "opinion": "agree"}, map[string]float64{"income": 30000}),
		rec(map[string]string{"sex": "female", "opinion": "strongly agree"}, map[string]float64{"income": 20000, "prestige": 20}),
		rec(map[string]string{"sex": "female", "region": "new england"}, map[string]float64{"prestige": 60}),
	})
}

func dims(view RecordView, key string) []string {
	out := make([]string, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		out = append(out, view.Dimension(i, key))
	}
	return out
}

// ============================================================================
// FILTERS
// ============================================================================

func TestApplyFilters_EmptyIsPassThrough(t *testing.T) {
	view := sampleView()
	assert.Same(t, view, ApplyFilters(view, Filters{}))
	assert.Same(t, view, ApplyFilters(view, Filters{Dimensions: map[string][]string{"region": {}}}))
}

func TestApplyFilters_OrWithinDimension(t *testing.T) {
	got := ApplyFilters(sampleView(), Filters{Dimensions: map[string][]string{"region": {"pacific", "mountain"}}})
	assert.Equal(t, []string{"pacific", "pacific", "mountain"}, dims(got, "region"))
}

func TestApplyFilters_AndAcrossDimensions(t *testing.T) {
	got := ApplyFilters(sampleView(), Filters{Dimensions: map[string][]string{
		"region": {"pacific", "mountain"},
		"sex":    {"male"},
	}})
	assert.Equal(t, []string{"pacific", "mountain"}, dims(got, "region"))
}

func TestApplyFilters_NullNeverMatches(t *testing.T) {
	got := ApplyFilters(sampleView(), Filters{Dimensions: map[string][]string{"region": {""}}})
	assert.Equal(t, 0, got.Len())
}

func TestApplyFilters_MatchesExactly(t *testing.T) {
	got := ApplyFilters(sampleView(), Filters{Dimensions: map[string][]string{"region": {"PACIFIC", "Mountain"}}})
	assert.Equal(t, 0, got.Len())
}

func TestDropNulls(t *testing.T) {
	view := sampleView()

	got := DropNulls(view, []string{"income", "prestige", "sex"})
	assert.Equal(t, []string{"male", "female", "female"}, dims(got, "sex"))

	// Unlisted nulls never drop a row.
	got = DropNulls(view, []string{"sex"})
	assert.Same(t, view, got)

	got = DropNulls(view, []string{"region"})
	assert.Equal(t, 4, got.Len())
	assert.ElementsMatch(t, []string{"sex", "region", "opinion"}, got.DimensionKeys())
}

// ============================================================================
// VIEWS
// ============================================================================

func TestDerivedDimension(t *testing.T) {
	view := WithDerivedDimension(sampleView(), "region_name", "region", func(code string) string {
		return "R:" + code
	})
	assert.Equal(t, []string{"R:pacific", "R:pacific", "R:mountain", "", "R:new england"}, dims(view, "region_name"))
	assert.Contains(t, view.DimensionKeys(), "region_name")
	assert.Equal(t, "pacific", view.Dimension(0, "region"))
}

type person struct {
	Name   string
	Income *float64
}

func TestDomainAdapter(t *testing.T) {
	income := 12.5
	adapter := NewDomainAdapter[person]().
		Dimension("name", func(p person) string { return p.Name }).
		Measure("income", func(p person) (float64, bool) {
			if p.Income == nil {
				return 0, false
			}
			return *p.Income, true
		})

	view := adapter.Bind([]person{{Name: "a", Income: &income}, {Name: "b"}})
	require.Equal(t, 2, view.Len())

	v, ok := view.Measure(0, "income")
	assert.True(t, ok)
	assert.Equal(t, 12.5, v)

	_, ok = view.Measure(1, "income")
	assert.False(t, ok)

	s, ok := FieldValue(view, 0, "income")
	assert.True(t, ok)
	assert.Equal(t, "12.5", s)

	assert.Equal(t, []string{"name"}, view.DimensionKeys())
	assert.Equal(t, []string{"income"}, view.MeasureKeys())
}

// ============================================================================
// STATS
// ============================================================================

func TestBoxStats(t *testing.T) {
	b := BoxStats([]float64{9, 1, 2, 3, 4, 5, 6, 7, 8, 100})
	require.NotNil(t, b)
	assert.Equal(t, 10, b.N)
	assert.Equal(t, 1.0, b.Min)
	assert.Equal(t, 100.0, b.Max)
	assert.Equal(t, 3.25, b.Q1)
	assert.Equal(t, 5.5, b.Median)
	assert.Equal(t, 7.75, b.Q3)
	assert.Equal(t, 1.0, b.LowerFence)
	assert.Equal(t, 9.0, b.UpperFence)
	assert.Equal(t, []float64{100}, b.Outliers)

	assert.Nil(t, BoxStats(nil))
}

func TestBoxStats_InterpolatesQuartiles(t *testing.T) {
	tests := []struct {
		name           string
		values         []float64
		q1, median, q3 float64
	}{
		{name: "single value", values: []float64{7}, q1: 7, median: 7, q3: 7},
		{name: "two values", values: []float64{50000, 45000}, q1: 46250, median: 47500, q3: 48750},
		{name: "four values", values: []float64{4, 1, 3, 2}, q1: 1.75, median: 2.5, q3: 3.25},
		{name: "odd count", values: []float64{1, 2, 3, 4, 5}, q1: 2, median: 3, q3: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := BoxStats(tt.values)
			require.NotNil(t, b)
			assert.InDelta(t, tt.q1, b.Q1, 1e-9)
			assert.InDelta(t, tt.median, b.Median, 1e-9)
			assert.InDelta(t, tt.q3, b.Q3, 1e-9)
		})
	}
}

func TestLinearFit(t *testing.T) {
	xs := []float64{1, 2, 3, 4}
	ys := []float64{3, 5, 7, 9}

	fit := LinearFit(xs, ys)
	require.NotNil(t, fit)
	assert.InDelta(t, 1.0, fit.Intercept, 1e-9)
	assert.InDelta(t, 2.0, fit.Slope, 1e-9)
	assert.InDelta(t, 1.0, fit.RSquared, 1e-9)
	assert.Equal(t, 1.0, fit.X0)
	assert.Equal(t, 4.0, fit.X1)
	assert.InDelta(t, 9.0, fit.Y1, 1e-9)

	assert.Nil(t, LinearFit([]float64{2, 2, 2}, []float64{1, 2, 3}), "single distinct x")
	assert.Nil(t, LinearFit([]float64{1}, []float64{1}))
	assert.Nil(t, LinearFit([]float64{1, 2}, []float64{1}))
}

// ============================================================================
// EXECUTE
// ============================================================================

func TestExecute_Histogram(t *testing.T) {
	spec := ChartSpec{
		ID:             "bar",
		Kind:           KindHistogram,
		X:              "opinion",
		Color:          "sex",
		CategoryOrders: map[string][]string{"opinion": {"strongly disagree", "disagree", "agree", "strongly agree"}},
		ColorMap:       map[string]string{"male": "#FF0000", "female": "#0000FF"},
		XTitle:         "Level of Agreement",
		YTitle:         "Number of Respondents",
		LegendTitle:    "Sex",
		Reply:          "{count} respondents in {filter_label}",
	}

	res, err := Execute(spec, sampleView())
	require.NoError(t, err)
	assert.Equal(t, 4, res.Count)
	assert.False(t, res.Empty)
	assert.Equal(t, "4 respondents in All", res.Reply)

	cfg := res.ChartConfig
	assert.Equal(t, []string{"disagree", "agree", "strongly agree"}, cfg.Categories)
	require.Len(t, cfg.Series, 2)

	want := []ChartSeries{
		{Name: "female", Color: "#0000FF", Data: []ChartPoint{{"disagree", 1}, {"agree", 0}, {"strongly agree", 1}}},
		{Name: "male", Color: "#FF0000", Data: []ChartPoint{{"disagree", 0}, {"agree", 2}, {"strongly agree", 0}}},
	}
	if diff := cmp.Diff(want, cfg.Series); diff != "" {
		t.Errorf("series mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"#0000FF", "#FF0000"}, cfg.Colors)
	assert.True(t, cfg.ShowLegend)
}

func TestExecute_BoxWithFilter(t *testing.T) {
	spec := ChartSpec{
		ID:         "box",
		Kind:       KindBox,
		X:          "sex",
		Y:          "income",
		Color:      "sex",
		Required:   []string{"income", "prestige", "sex"},
		Filters:    Filters{Dimensions: map[string][]string{"region": {"pacific"}}},
		HideLegend: true,
	}

	res, err := Execute(spec, sampleView())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.False(t, res.ChartConfig.ShowLegend)
	require.Len(t, res.ChartConfig.Series, 2)

	for _, s := range res.ChartConfig.Series {
		require.NotNil(t, s.Box)
		assert.Equal(t, 1, s.Box.N)
	}
	assert.Equal(t, []float64{40000}, res.ChartConfig.Series[0].Values)
}

func TestExecute_EmptySelection(t *testing.T) {
	spec := ChartSpec{
		ID:      "box",
		Kind:    KindBox,
		X:       "sex",
		Y:       "income",
		Filters: Filters{Dimensions: map[string][]string{"region": {"nowhere"}}},
	}

	res, err := Execute(spec, sampleView())
	require.NoError(t, err)
	assert.True(t, res.Empty)
	assert.Equal(t, 0, res.Count)
	assert.Empty(t, res.ChartConfig.Series)
}

func TestExecute_ScatterTrendline(t *testing.T) {
	view := NewSliceView([]Record{
		rec(map[string]string{"sex": "male", "educ": "12"}, map[string]float64{"x": 1, "y": 3}),
		rec(map[string]string{"sex": "male", "educ": "16"}, map[string]float64{"x": 2, "y": 5}),
		rec(map[string]string{"sex": "male"}, map[string]float64{"x": 3, "y": 7}),
		rec(map[string]string{"sex": "female", "educ": "10"}, map[string]float64{"x": 5, "y": 1}),
	})
	spec := ChartSpec{ID: "sc", Kind: KindScatter, X: "x", Y: "y", Color: "sex", Hover: []string{"educ"}, Trendline: true}

	res, err := Execute(spec, view)
	require.NoError(t, err)
	require.Len(t, res.ChartConfig.Series, 2)

	female, male := res.ChartConfig.Series[0], res.ChartConfig.Series[1]
	assert.Equal(t, "female", female.Name)
	assert.Nil(t, female.Trendline, "one point cannot carry a line")

	require.NotNil(t, male.Trendline)
	assert.InDelta(t, 2.0, male.Trendline.Slope, 1e-9)
	assert.Equal(t, map[string]string{"educ": "12"}, male.Points[0].Hover)
	assert.Empty(t, male.Points[2].Hover)
}

func TestExecute_InvalidSpec(t *testing.T) {
	_, err := Execute(ChartSpec{Kind: "pie", X: "sex"}, sampleView())
	assert.ErrorIs(t, err, ErrInvalidSpec)

	_, err = Execute(ChartSpec{Kind: KindScatter, X: "x"}, sampleView())
	assert.ErrorIs(t, err, ErrInvalidSpec)
}

// ============================================================================
// HELPERS
// ============================================================================

func TestGroupAndAggregate(t *testing.T) {
	groups := GroupAndAggregate(sampleView(), []string{"sex"}, "income", "avg")
	require.Len(t, groups, 2)
	assert.Equal(t, "male", groups[0].Key)
	assert.Equal(t, 2, groups[0].Count)
	assert.Equal(t, 40000.0, groups[0].Value)
	assert.Equal(t, "female", groups[1].Key)
	assert.Equal(t, 3, groups[1].Count)
	assert.Equal(t, 30000.0, groups[1].Value, "null incomes are skipped")

	total := GroupAndAggregate(sampleView(), nil, "income", "max")
	require.Len(t, total, 1)
	assert.Equal(t, "all", total[0].Key)
	assert.Equal(t, 50000.0, total[0].Value)

	nested := GroupAndAggregate(sampleView(), []string{"sex", "opinion"}, "", "count")
	require.Len(t, nested[0].SubGroups, 1)
	assert.Equal(t, "agree", nested[0].SubGroups[0].Key)
	assert.Equal(t, 2.0, nested[0].SubGroups[0].Value)
	assert.Len(t, nested[1].SubGroups, 3)

	assert.Nil(t, GroupAndAggregate(NewSliceView(nil), []string{"sex"}, "", "count"))
}

func TestAggregateMeasure(t *testing.T) {
	v, ok := AggregateMeasure(sampleView(), "income", "min")
	require.True(t, ok)
	assert.Equal(t, 20000.0, v)

	_, ok = AggregateMeasure(sampleView(), "income", "median")
	assert.False(t, ok)
	_, ok = AggregateMeasure(sampleView(), "weight", "avg")
	assert.False(t, ok)
}

func TestResolvePlaceholders_Measure(t *testing.T) {
	view := sampleView()
	got := ResolvePlaceholders("mean {y_avg}, range {y_min} to {y_max}", ChartSpec{Y: "income"}, view)
	assert.Equal(t, "mean 35,000, range 20,000 to 50,000", got)

	assert.Equal(t, "mean", ResolvePlaceholders("mean {y_avg}", ChartSpec{}, view))
}

func TestOrderKeys(t *testing.T) {
	got := OrderKeys([]string{"b", "agree", "a", "disagree"}, []string{"strongly disagree", "disagree", "agree"})
	assert.Equal(t, []string{"disagree", "agree", "a", "b"}, got)
}

func TestLabelForDimension(t *testing.T) {
	assert.Equal(t, "Region Name", LabelForDimension("region_name"))
	assert.Equal(t, "Education Cat", LabelForDimension("education_cat"))
	assert.Equal(t, "Sex", LabelForDimension("sex"))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "89", FormatNumber(89))
	assert.Equal(t, "12.5", FormatNumber(12.5))
	assert.Equal(t, "1,234,567", FormatInt(1234567))
}

func TestBuildTable_Histogram(t *testing.T) {
	res, err := Execute(ChartSpec{Kind: KindHistogram, X: "sex"}, sampleView())
	require.NoError(t, err)

	table := BuildTable(res.ChartConfig)
	assert.Equal(t, [][]string{{"Count", "female", "3"}, {"Count", "male", "2"}}, table.Rows)
	assert.Equal(t, "5", table.Summary.Values["count"])
}
