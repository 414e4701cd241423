package engine

// ============================================================================
// CHART BUILDER — Produces ChartConfig from ChartSpec + a prepared view
// ============================================================================
// The view handed to the builders is already filtered and null-dropped.
// Series order follows CategoryOrders[Color] when present, then the
// remaining values alphabetically. Series colors come from ColorMap, else
// the palette in series order.
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// BuildChart produces a ChartConfig for spec from a prepared view.
func BuildChart(spec ChartSpec, view RecordView, palette []string) *ChartConfig {
	if len(palette) == 0 {
		palette = defaultColors
	}

	config := &ChartConfig{
		ChartType:   spec.Kind,
		Title:       spec.Title,
		XField:      spec.X,
		YField:      spec.Y,
		ColorField:  spec.Color,
		XAxis:       spec.XTitle,
		YAxis:       spec.YTitle,
		LegendTitle: spec.LegendTitle,
		Hover:       spec.Hover,
		ShowLegend:  !spec.HideLegend,
		ShowGrid:    true,
		Series:      []ChartSeries{},
	}
	if config.LegendTitle == "" && spec.Color != "" {
		config.LegendTitle = LabelForDimension(spec.Color)
	}

	switch spec.Kind {
	case KindHistogram:
		if config.YAxis == "" {
			config.YAxis = LabelForAggregation("count")
		}
		buildHistogram(config, spec, view, palette)
	case KindBox:
		buildBox(config, spec, view, palette)
	case KindScatter:
		buildScatter(config, spec, view, palette)
	}

	config.Colors = make([]string, 0, len(config.Series))
	for _, s := range config.Series {
		config.Colors = append(config.Colors, s.Color)
	}
	return config
}

// ============================================================================
// HISTOGRAM — counts of X per category, one series per Color value
// ============================================================================

func buildHistogram(config *ChartConfig, spec ChartSpec, view RecordView, palette []string) {
	groupBy := []string{spec.X}
	if spec.Color != "" {
		groupBy = append(groupBy, spec.Color)
	}
	groups := GroupAndAggregate(view, groupBy, "", "count")
	if len(groups) == 0 {
		return
	}

	categoryKeys := make([]string, 0, len(groups))
	byCategory := make(map[string]Group, len(groups))
	for _, g := range groups {
		categoryKeys = append(categoryKeys, g.Key)
		byCategory[g.Key] = g
	}
	config.Categories = OrderKeys(categoryKeys, spec.CategoryOrders[spec.X])

	if spec.Color == "" {
		name := spec.Title
		if name == "" {
			name = LabelForAggregation("count")
		}
		points := make([]ChartPoint, 0, len(config.Categories))
		for _, c := range config.Categories {
			points = append(points, ChartPoint{Label: c, Value: float64(byCategory[c].Count)})
		}
		config.Series = append(config.Series, ChartSeries{
			Name:  name,
			Color: seriesColor(spec, name, 0, palette),
			Data:  points,
		})
		return
	}

	seen := make(map[string]bool)
	var seriesKeys []string
	for _, g := range groups {
		for _, sg := range g.SubGroups {
			if !seen[sg.Key] {
				seen[sg.Key] = true
				seriesKeys = append(seriesKeys, sg.Key)
			}
		}
	}
	seriesKeys = OrderKeys(seriesKeys, spec.CategoryOrders[spec.Color])

	for i, key := range seriesKeys {
		points := make([]ChartPoint, 0, len(config.Categories))
		for _, c := range config.Categories {
			var count int
			for _, sg := range byCategory[c].SubGroups {
				if sg.Key == key {
					count = sg.Count
					break
				}
			}
			points = append(points, ChartPoint{Label: c, Value: float64(count)})
		}
		config.Series = append(config.Series, ChartSeries{
			Name:  key,
			Color: seriesColor(spec, key, i, palette),
			Data:  points,
		})
	}
}

// ============================================================================
// BOX — distribution of Y, one box per Color value (X when Color is unset)
// ============================================================================

func buildBox(config *ChartConfig, spec ChartSpec, view RecordView, palette []string) {
	key := spec.Color
	if key == "" {
		key = spec.X
	}
	groups := GroupAndAggregate(view, []string{key}, spec.Y, "none")
	if len(groups) == 0 {
		return
	}

	byKey := make(map[string]Group, len(groups))
	keys := make([]string, 0, len(groups))
	for _, g := range groups {
		byKey[g.Key] = g
		keys = append(keys, g.Key)
	}
	keys = OrderKeys(keys, spec.CategoryOrders[key])
	config.Categories = keys

	for i, k := range keys {
		values := MeasureValues(byKey[k].View, spec.Y)
		config.Series = append(config.Series, ChartSeries{
			Name:   k,
			Color:  seriesColor(spec, k, i, palette),
			Values: values,
			Box:    BoxStats(values),
		})
	}
}

// ============================================================================
// SCATTER — X vs Y points, one series per Color value, optional OLS line
// ============================================================================

func buildScatter(config *ChartConfig, spec ChartSpec, view RecordView, palette []string) {
	var groups []Group
	if spec.Color == "" {
		groups = GroupAndAggregate(view, nil, "", "none")
	} else {
		groups = GroupAndAggregate(view, []string{spec.Color}, "", "none")
	}
	if len(groups) == 0 {
		return
	}

	byKey := make(map[string]Group, len(groups))
	keys := make([]string, 0, len(groups))
	for _, g := range groups {
		name := g.Key
		if spec.Color == "" {
			name = spec.Title
		}
		byKey[name] = g
		keys = append(keys, name)
	}
	if spec.Color != "" {
		keys = OrderKeys(keys, spec.CategoryOrders[spec.Color])
	}

	for i, k := range keys {
		sub := byKey[k].View
		points := make([]XYPoint, 0, sub.Len())
		xs := make([]float64, 0, sub.Len())
		ys := make([]float64, 0, sub.Len())
		for r := 0; r < sub.Len(); r++ {
			x, okX := sub.Measure(r, spec.X)
			y, okY := sub.Measure(r, spec.Y)
			if !okX || !okY {
				continue
			}
			p := XYPoint{X: x, Y: y}
			if len(spec.Hover) > 0 {
				p.Hover = make(map[string]string, len(spec.Hover))
				for _, h := range spec.Hover {
					if v, ok := FieldValue(sub, r, h); ok {
						p.Hover[h] = v
					}
				}
			}
			points = append(points, p)
			xs = append(xs, x)
			ys = append(ys, y)
		}

		series := ChartSeries{
			Name:   k,
			Color:  seriesColor(spec, k, i, palette),
			Points: points,
		}
		if spec.Trendline {
			series.Trendline = LinearFit(xs, ys)
		}
		config.Series = append(config.Series, series)
	}
}

// ============================================================================
// COLORS
// ============================================================================

func seriesColor(spec ChartSpec, key string, index int, palette []string) string {
	if c, ok := spec.ColorMap[key]; ok && c != "" {
		return c
	}
	return palette[index%len(palette)]
}
