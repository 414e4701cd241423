package render

import (
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/spektr-org/gssdash/engine"
)

// ============================================================================
// GO-CHART BACKEND — bars and scatters
// ============================================================================
// go-chart has no box plot and cannot draw a chart without a data range, so
// box plots and empty charts return ErrUnsupported before anything is written.
// ============================================================================

// GoChartRenderer draws histograms and scatters with go-chart.
type GoChartRenderer struct {
	size Size
}

// NewGoChart returns a go-chart renderer.
func NewGoChart(size Size) *GoChartRenderer {
	return &GoChartRenderer{size: size.orDefault()}
}

func (r *GoChartRenderer) Name() string { return "gochart" }

func (r *GoChartRenderer) Render(w io.Writer, cfg *engine.ChartConfig, format Format) error {
	if cfg == nil {
		return fmt.Errorf("render: nil chart")
	}
	var provider chart.RendererProvider
	switch format {
	case PNG:
		provider = chart.PNG
	case SVG:
		provider = chart.SVG
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if cfg.IsEmpty() {
		return fmt.Errorf("%w: empty chart", ErrUnsupported)
	}

	switch cfg.ChartType {
	case engine.KindHistogram:
		bc, err := r.bars(cfg)
		if err != nil {
			return err
		}
		return bc.Render(provider, w)
	case engine.KindScatter:
		ch, err := r.scatter(cfg)
		if err != nil {
			return err
		}
		return ch.Render(provider, w)
	default:
		return fmt.Errorf("%w: chart type %q", ErrUnsupported, cfg.ChartType)
	}
}

// bars lays out grouped bars category by category. go-chart's bar chart has
// no legend, so with several series each label carries the series name.
func (r *GoChartRenderer) bars(cfg *engine.ChartConfig) (*chart.BarChart, error) {
	var bars []chart.Value
	var top float64
	for ci, category := range cfg.Categories {
		for _, s := range cfg.Series {
			if ci >= len(s.Data) {
				continue
			}
			label := category
			if len(cfg.Series) > 1 {
				label = category + " / " + s.Name
			}
			col := parseColor(s.Color)
			bars = append(bars, chart.Value{
				Label: label,
				Value: s.Data[ci].Value,
				Style: chart.Style{FillColor: col, StrokeColor: col, StrokeWidth: 1},
			})
			top = math.Max(top, s.Data[ci].Value)
		}
	}
	if top <= 0 {
		return nil, fmt.Errorf("%w: all bars are zero", ErrUnsupported)
	}

	return &chart.BarChart{
		Title:      cfg.Title,
		Width:      r.size.Width,
		Height:     r.size.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}},
		BarWidth:   max(8, r.size.Width/(2*max(len(bars), 1))),
		YAxis: chart.YAxis{
			Name:  cfg.YAxis,
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
		Bars: bars,
	}, nil
}

func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{StrokeWidth: 0, DotWidth: 3, DotColor: col}
}

// scatter needs a non-zero x and y extent; a degenerate cloud is left to the
// fallback renderer.
func (r *GoChartRenderer) scatter(cfg *engine.ChartConfig) (*chart.Chart, error) {
	var series []chart.Series
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, s := range cfg.Series {
		if len(s.Points) == 0 {
			continue
		}
		xs := make([]float64, len(s.Points))
		ys := make([]float64, len(s.Points))
		for i, pt := range s.Points {
			xs[i], ys[i] = pt.X, pt.Y
			minX, maxX = math.Min(minX, pt.X), math.Max(maxX, pt.X)
			minY, maxY = math.Min(minY, pt.Y), math.Max(maxY, pt.Y)
		}
		col := parseColor(s.Color)
		series = append(series, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
			Style:   pointStyle(col),
		})
		if t := s.Trendline; t != nil {
			series = append(series, chart.ContinuousSeries{
				Name:    s.Name + " OLS",
				XValues: []float64{t.X0, t.X1},
				YValues: []float64{t.Y0, t.Y1},
				Style:   chart.Style{StrokeColor: col, StrokeWidth: 2},
			})
		}
	}

	if !(maxX > minX) || !(maxY > minY) {
		return nil, fmt.Errorf("%w: zero data range", ErrUnsupported)
	}

	ch := &chart.Chart{
		Title:      cfg.Title,
		Width:      r.size.Width,
		Height:     r.size.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}},
		XAxis:      chart.XAxis{Name: cfg.XAxis},
		YAxis:      chart.YAxis{Name: cfg.YAxis},
		Series:     series,
	}
	if cfg.ShowLegend {
		ch.Elements = []chart.Renderable{chart.Legend(ch)}
	}
	return ch, nil
}
