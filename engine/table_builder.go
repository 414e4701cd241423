package engine

import (
	"strconv"
)

// ============================================================================
// TABLE BUILDER — Produces TableData from a ChartConfig or a RecordView
// ============================================================================
// Chart tables are what the CSV/XLSX exports write: one row per point so a
// chart can be reproduced from its table.
// ============================================================================

// BuildTable flattens a chart into rows.
//
//	histogram: series, category, count
//	box:       series, n, min, q1, median, q3, max, mean, lower fence, upper fence
//	scatter:   series, x, y, hover fields...
func BuildTable(cfg *ChartConfig) *TableData {
	if cfg == nil {
		return &TableData{Columns: []Column{}, Rows: [][]string{}}
	}

	seriesLabel := cfg.LegendTitle
	if seriesLabel == "" {
		seriesLabel = "Series"
	}

	switch cfg.ChartType {
	case KindBox:
		return buildBoxTable(cfg, seriesLabel)
	case KindScatter:
		return buildScatterTable(cfg, seriesLabel)
	default:
		return buildHistogramTable(cfg, seriesLabel)
	}
}

func buildHistogramTable(cfg *ChartConfig, seriesLabel string) *TableData {
	categoryLabel := cfg.XAxis
	if categoryLabel == "" {
		categoryLabel = LabelForDimension(cfg.XField)
	}

	columns := []Column{
		{Key: "series", Label: seriesLabel, Type: "text", Align: "left"},
		{Key: "category", Label: categoryLabel, Type: "text", Align: "left"},
		{Key: "count", Label: "Count", Type: "number", Align: "right"},
	}

	rows := [][]string{}
	var total float64
	for _, s := range cfg.Series {
		for _, p := range s.Data {
			rows = append(rows, []string{s.Name, p.Label, FormatNumber(p.Value)})
			total += p.Value
		}
	}

	return &TableData{
		Title:   cfg.Title,
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{
			Label:  "Total",
			Values: map[string]string{"count": FormatNumber(total)},
		},
	}
}

func buildBoxTable(cfg *ChartConfig, seriesLabel string) *TableData {
	columns := []Column{{Key: "series", Label: seriesLabel, Type: "text", Align: "left"}}
	for _, k := range []string{"n", "min", "q1", "median", "q3", "max", "mean", "lower_fence", "upper_fence"} {
		columns = append(columns, Column{Key: k, Label: LabelForDimension(k), Type: "number", Align: "right"})
	}

	rows := [][]string{}
	var n int
	for _, s := range cfg.Series {
		b := s.Box
		if b == nil {
			continue
		}
		rows = append(rows, []string{
			s.Name,
			strconv.Itoa(b.N),
			FormatNumber(b.Min),
			FormatNumber(b.Q1),
			FormatNumber(b.Median),
			FormatNumber(b.Q3),
			FormatNumber(b.Max),
			FormatNumber(RoundTo2(b.Mean)),
			FormatNumber(b.LowerFence),
			FormatNumber(b.UpperFence),
		})
		n += b.N
	}

	return &TableData{
		Title:   cfg.Title,
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{
			Label:  "Total",
			Values: map[string]string{"n": strconv.Itoa(n)},
		},
	}
}

func buildScatterTable(cfg *ChartConfig, seriesLabel string) *TableData {
	columns := []Column{
		{Key: "series", Label: seriesLabel, Type: "text", Align: "left"},
		{Key: cfg.XField, Label: LabelForDimension(cfg.XField), Type: "number", Align: "right"},
		{Key: cfg.YField, Label: LabelForDimension(cfg.YField), Type: "number", Align: "right"},
	}
	for _, h := range cfg.Hover {
		columns = append(columns, Column{Key: h, Label: LabelForDimension(h), Type: "text", Align: "left"})
	}

	rows := [][]string{}
	for _, s := range cfg.Series {
		for _, p := range s.Points {
			row := []string{s.Name, FormatNumber(p.X), FormatNumber(p.Y)}
			for _, h := range cfg.Hover {
				row = append(row, p.Hover[h])
			}
			rows = append(rows, row)
		}
	}

	return &TableData{
		Title:   cfg.Title,
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{
			Label:  "Total",
			Values: map[string]string{"points": strconv.Itoa(len(rows))},
		},
	}
}

// BuildRecordTable lists the given columns of every row in view.
// Null cells are empty strings.
func BuildRecordTable(title string, view RecordView, columns []string) *TableData {
	cols := make([]Column, 0, len(columns))
	measures := make(map[string]bool)
	for _, k := range view.MeasureKeys() {
		measures[k] = true
	}
	for _, key := range columns {
		c := Column{Key: key, Label: LabelForDimension(key), Type: "text", Align: "left"}
		if measures[key] {
			c.Type, c.Align = "number", "right"
		}
		cols = append(cols, c)
	}

	rows := make([][]string, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		row := make([]string, 0, len(columns))
		for _, key := range columns {
			v, _ := FieldValue(view, i, key)
			row = append(row, v)
		}
		rows = append(rows, row)
	}

	return &TableData{
		Title:   title,
		Columns: cols,
		Rows:    rows,
		Summary: &Summary{
			Label:  "Total",
			Values: map[string]string{"rows": FormatInt(view.Len())},
		},
	}
}
