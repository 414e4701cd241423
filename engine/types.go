package engine

// ============================================================================
// ENGINE TYPES — Declarative chart specs and render-ready output
// ============================================================================
// A ChartSpec says WHAT to draw: chart kind, field bindings, color and
// category encodings, axis titles. The engine reads rows through a
// RecordView, applies filters and the null-drop projection, computes the
// counts / box statistics / trendlines, and returns a ChartConfig that a
// front-end or the render package can draw without further computation.
//
// Dependency: engine only imports gonum/stat (statistics) and zap (logging).
// ============================================================================

// Chart kinds understood by Execute.
const (
	KindHistogram = "histogram" // counts of X per category, grouped by Color
	KindBox       = "box"       // distribution of Y per X category
	KindScatter   = "scatter"   // X vs Y points, one series per Color value
)

// ============================================================================
// RECORD — Generic data row
// ============================================================================

// Record is a single data row with string dimensions and numeric measures.
// A key absent from the maps is null.
type Record struct {
	Dimensions map[string]string  `json:"dimensions"`
	Measures   map[string]float64 `json:"measures"`
}

// ============================================================================
// CHARTSPEC — Contract between view controllers and the engine
// ============================================================================

// ChartSpec defines what the engine should compute and how it is encoded.
type ChartSpec struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"` // "histogram", "box", "scatter"
	Title string `json:"title,omitempty"`

	X     string `json:"x"`               // category field (histogram, box) or numeric x (scatter)
	Y     string `json:"y,omitempty"`     // numeric field (box, scatter)
	Color string `json:"color,omitempty"` // grouping field, one series per value

	Filters  Filters  `json:"filters"`            // which rows to include
	Required []string `json:"required,omitempty"` // rows with a null in any of these are dropped; empty = X, Y, Color

	CategoryOrders map[string][]string `json:"categoryOrders,omitempty"` // field → preferred value order
	ColorMap       map[string]string   `json:"colorMap,omitempty"`       // Color value → color
	Hover          []string            `json:"hover,omitempty"`          // extra fields carried on scatter points
	Trendline      bool                `json:"trendline,omitempty"`      // OLS line per scatter series

	XTitle      string `json:"xTitle,omitempty"`
	YTitle      string `json:"yTitle,omitempty"`
	LegendTitle string `json:"legendTitle,omitempty"`
	HideLegend  bool   `json:"hideLegend,omitempty"`

	Reply string `json:"reply,omitempty"` // template: "{count} respondents in {filter_label}"
}

// RequiredFields returns the fields a row must have non-null to be charted.
func (s ChartSpec) RequiredFields() []string {
	if len(s.Required) > 0 {
		return s.Required
	}
	var fields []string
	for _, f := range []string{s.X, s.Y, s.Color} {
		if f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// Filters define which records to include.
// Keys are dimension names. Values are allowed values.
// OR within a dimension, AND across dimensions. Empty = all.
type Filters struct {
	Dimensions map[string][]string `json:"dimensions"`
}

// IsEmpty returns true if no filters are set.
func (f Filters) IsEmpty() bool {
	if f.Dimensions == nil {
		return true
	}
	for _, vals := range f.Dimensions {
		if len(vals) > 0 {
			return false
		}
	}
	return true
}

// ============================================================================
// RESULT — Render-ready output
// ============================================================================

// Result is the engine's render-ready output for one ChartSpec.
// An empty selection is not an error: Empty is set and the chart has no data.
type Result struct {
	Success     bool         `json:"success"`
	Type        string       `json:"type"` // "chart"
	Title       string       `json:"title"`
	Reply       string       `json:"reply,omitempty"`
	Count       int          `json:"count"`
	Empty       bool         `json:"empty"`
	ChartConfig *ChartConfig `json:"chartConfig"`
}

// ============================================================================
// GROUP — Intermediate computation result
// ============================================================================

// Group represents a grouped/aggregated result.
// Builders convert these into chart series.
type Group struct {
	Key       string     `json:"key"`
	Label     string     `json:"label"`
	Value     float64    `json:"value"`
	Count     int        `json:"count"`
	SubGroups []Group    `json:"subGroups,omitempty"`
	View      RecordView `json:"-"` // Sub-view for records in this group (zero-copy)
}

// ============================================================================
// CHART TYPES
// ============================================================================

// ChartConfig defines how to render a chart.
type ChartConfig struct {
	ChartType   string        `json:"chartType"`
	Title       string        `json:"title"`
	XField      string        `json:"xField"`
	YField      string        `json:"yField,omitempty"`
	ColorField  string        `json:"colorField,omitempty"`
	XAxis       string        `json:"xAxis,omitempty"`
	YAxis       string        `json:"yAxis,omitempty"`
	LegendTitle string        `json:"legendTitle,omitempty"`
	Categories  []string      `json:"categories,omitempty"` // x category order (histogram, box)
	Series      []ChartSeries `json:"series"`
	Colors      []string      `json:"colors,omitempty"`
	Hover       []string      `json:"hover,omitempty"`
	ShowLegend  bool          `json:"showLegend"`
	ShowGrid    bool          `json:"showGrid"`
}

// IsEmpty reports whether no series carries any data.
func (c *ChartConfig) IsEmpty() bool {
	if c == nil {
		return true
	}
	for _, s := range c.Series {
		if len(s.Data) > 0 || len(s.Points) > 0 || len(s.Values) > 0 {
			return false
		}
	}
	return true
}

// ChartSeries represents one color group of a chart.
// Histograms fill Data, box plots fill Values and Box, scatters fill Points.
type ChartSeries struct {
	Name      string       `json:"name"`
	Color     string       `json:"color,omitempty"`
	Data      []ChartPoint `json:"data,omitempty"`
	Points    []XYPoint    `json:"points,omitempty"`
	Values    []float64    `json:"values,omitempty"`
	Box       *BoxSummary  `json:"box,omitempty"`
	Trendline *Trendline   `json:"trendline,omitempty"`
}

// ChartPoint represents a single category count.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// XYPoint is a scatter point with optional hover fields.
type XYPoint struct {
	X     float64           `json:"x"`
	Y     float64           `json:"y"`
	Hover map[string]string `json:"hover,omitempty"`
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData is a tabular rendition of a chart.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number"
	Align string `json:"align"` // "left", "center", "right"
}

// Summary provides totals for a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}
