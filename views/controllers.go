package views

import (
	"fmt"

	"github.com/spektr-org/gssdash/engine"
	"github.com/spektr-org/gssdash/gss"
)

// ============================================================================
// VIEW CONTROLLERS
// ============================================================================
// Each controller owns a fixed set of ChartSpecs. Render filters the shared
// view by the selected regions, projects away rows missing a charted field,
// and runs the specs through engine.Execute.
// ============================================================================

// Required fields per chart.
var (
	agreementRequired    = []string{gss.FieldSex, gss.FieldMaleBreadwinner}
	distributionRequired = []string{gss.FieldIncome, gss.FieldJobPrestige, gss.FieldSex}
	scatterRequired      = []string{gss.FieldJobPrestige, gss.FieldIncome, gss.FieldSex, gss.FieldEducation, gss.FieldSocioeconomicIndex}
)

func sexOrder() []string { return gss.CategoryOrder(gss.FieldSex) }

// ── Agreement bar ────────────────────────────────────────────────────────────

type agreementController struct {
	view engine.RecordView
	opts []engine.Option
}

// NewAgreement builds the male-breadwinner agreement bar chart controller.
func NewAgreement(view engine.RecordView, opts ...engine.Option) Controller {
	return &agreementController{view: view, opts: opts}
}

func (c *agreementController) ID() string        { return "agreement" }
func (c *agreementController) Inputs() []string  { return []string{SelectorRegion} }
func (c *agreementController) Outputs() []string { return []string{ChartAgreement} }

func (c *agreementController) Render(sel Selection) (*Output, error) {
	regions := sel.Values(SelectorRegion)
	view := Project(FilterByRegion(c.view, regions), agreementRequired)

	res, err := engine.Execute(engine.ChartSpec{
		ID:       ChartAgreement,
		Kind:     engine.KindHistogram,
		Title:    `Level of Agreement with "Male Breadwinner" Statement`,
		X:        gss.FieldMaleBreadwinner,
		Color:    gss.FieldSex,
		Required: agreementRequired,
		CategoryOrders: map[string][]string{
			gss.FieldMaleBreadwinner: gss.Strings(gss.Agreements),
			gss.FieldSex:             sexOrder(),
		},
		ColorMap:    gss.SexColors,
		XTitle:      "Level of Agreement",
		YTitle:      "Number of Respondents",
		LegendTitle: "Sex",
		Reply:       fmt.Sprintf("{count_fmt} respondents in %s", regionLabel(regions)),
	}, view, c.opts...)
	if err != nil {
		return nil, err
	}
	return newOutput(c.ID(), c.Outputs(), []*engine.Result{res}), nil
}

// ── Income / prestige box plots ──────────────────────────────────────────────

type distributionController struct {
	view engine.RecordView
	opts []engine.Option
}

// NewDistribution builds the income and job prestige box plot controller.
func NewDistribution(view engine.RecordView, opts ...engine.Option) Controller {
	return &distributionController{view: view, opts: opts}
}

func (c *distributionController) ID() string       { return "distribution" }
func (c *distributionController) Inputs() []string { return []string{SelectorRegion} }
func (c *distributionController) Outputs() []string {
	return []string{ChartIncomeBox, ChartPrestigeBox}
}

func (c *distributionController) Render(sel Selection) (*Output, error) {
	regions := sel.Values(SelectorRegion)
	view := Project(FilterByRegion(c.view, regions), distributionRequired)

	box := func(id, field, title string) (*engine.Result, error) {
		return engine.Execute(engine.ChartSpec{
			ID:             id,
			Kind:           engine.KindBox,
			Title:          title,
			X:              gss.FieldSex,
			Y:              field,
			Color:          gss.FieldSex,
			Required:       distributionRequired,
			CategoryOrders: map[string][]string{gss.FieldSex: sexOrder()},
			ColorMap:       gss.SexColors,
			YTitle:         title,
			HideLegend:     true,
			Reply:          fmt.Sprintf("{count_fmt} respondents in %s, mean {y_avg}", regionLabel(regions)),
		}, view, c.opts...)
	}

	income, err := box(ChartIncomeBox, gss.FieldIncome, "Personal Annual Income")
	if err != nil {
		return nil, err
	}
	prestige, err := box(ChartPrestigeBox, gss.FieldJobPrestige, "Job Prestige Score")
	if err != nil {
		return nil, err
	}
	return newOutput(c.ID(), c.Outputs(), []*engine.Result{income, prestige}), nil
}

// ── Prestige vs income scatter ───────────────────────────────────────────────

type scatterController struct {
	view engine.RecordView
	opts []engine.Option
}

// NewScatter builds the job prestige vs income scatter controller.
func NewScatter(view engine.RecordView, opts ...engine.Option) Controller {
	return &scatterController{view: view, opts: opts}
}

func (c *scatterController) ID() string        { return "scatter" }
func (c *scatterController) Inputs() []string  { return []string{SelectorRegionScatter} }
func (c *scatterController) Outputs() []string { return []string{ChartScatter} }

func (c *scatterController) Render(sel Selection) (*Output, error) {
	regions := sel.Values(SelectorRegionScatter)
	view := Project(FilterByRegion(c.view, regions), scatterRequired)

	res, err := engine.Execute(engine.ChartSpec{
		ID:             ChartScatter,
		Kind:           engine.KindScatter,
		Title:          "Job Prestige vs Income",
		X:              gss.FieldJobPrestige,
		Y:              gss.FieldIncome,
		Color:          gss.FieldSex,
		Required:       scatterRequired,
		CategoryOrders: map[string][]string{gss.FieldSex: sexOrder()},
		ColorMap:       gss.SexColors,
		Hover:          []string{gss.FieldEducation, gss.FieldSocioeconomicIndex},
		Trendline:      true,
		XTitle:         "Job Prestige",
		YTitle:         "Income",
		LegendTitle:    "Sex",
		Reply:          fmt.Sprintf("{count_fmt} respondents in %s", regionLabel(regions)),
	}, view, c.opts...)
	if err != nil {
		return nil, err
	}
	return newOutput(c.ID(), c.Outputs(), []*engine.Result{res}), nil
}

// ── Custom grouped bar ───────────────────────────────────────────────────────

type customController struct {
	view engine.RecordView
	opts []engine.Option
}

// NewCustom builds the user-configurable grouped bar chart controller.
func NewCustom(view engine.RecordView, opts ...engine.Option) Controller {
	return &customController{view: view, opts: opts}
}

func (c *customController) ID() string        { return "custom" }
func (c *customController) Inputs() []string  { return []string{SelectorBarFeature, SelectorGroupBy} }
func (c *customController) Outputs() []string { return []string{ChartCustom} }

func (c *customController) Render(sel Selection) (*Output, error) {
	feature := sel.First(SelectorBarFeature, gss.DefaultBarFeature)
	if !gss.HasOption(gss.BarFeatures, feature) {
		return nil, invalid(SelectorBarFeature, feature)
	}
	groupBy := sel.First(SelectorGroupBy, gss.DefaultGroupBy)
	if !gss.HasOption(gss.GroupByOptions, groupBy) {
		return nil, invalid(SelectorGroupBy, groupBy)
	}

	required := []string{feature, groupBy}
	view, column := ResolveGroupBy(Project(c.view, required), groupBy)

	var colors map[string]string
	if column == gss.FieldSex {
		colors = gss.SexColors
	}
	featureLabel := gss.OptionLabel(gss.BarFeatures, feature)
	legend := engine.LabelForDimension(column)

	res, err := engine.Execute(engine.ChartSpec{
		ID:       ChartCustom,
		Kind:     engine.KindHistogram,
		Title:    fmt.Sprintf("%s by %s", featureLabel, legend),
		X:        feature,
		Color:    column,
		Required: required,
		CategoryOrders: map[string][]string{
			feature: gss.CategoryOrder(feature),
			column:  gss.CategoryOrder(column),
		},
		ColorMap:    colors,
		XTitle:      featureLabel,
		YTitle:      "Count",
		LegendTitle: legend,
		Reply:       "{count_fmt} respondents",
	}, view, c.opts...)
	if err != nil {
		return nil, err
	}
	return newOutput(c.ID(), c.Outputs(), []*engine.Result{res}), nil
}

// Controllers returns the dashboard's controllers in registration order.
func Controllers(view engine.RecordView, opts ...engine.Option) []Controller {
	return []Controller{
		NewAgreement(view, opts...),
		NewDistribution(view, opts...),
		NewScatter(view, opts...),
		NewCustom(view, opts...),
	}
}
