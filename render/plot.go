package render

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/spektr-org/gssdash/engine"
)

// ============================================================================
// GONUM/PLOT BACKEND — draws every chart kind
// ============================================================================

// pixelsPerInch matches the vgimg default resolution.
const pixelsPerInch = 96

// PlotRenderer draws charts with gonum/plot.
type PlotRenderer struct {
	size Size
}

// NewPlot returns a gonum/plot renderer.
func NewPlot(size Size) *PlotRenderer {
	return &PlotRenderer{size: size.orDefault()}
}

func (r *PlotRenderer) Name() string { return "plot" }

// Render draws cfg. A chart without data is drawn as axes only.
func (r *PlotRenderer) Render(w io.Writer, cfg *engine.ChartConfig, format Format) error {
	if cfg == nil {
		return fmt.Errorf("render: nil chart")
	}
	if format != PNG && format != SVG {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	p := plot.New()
	p.Title.Text = cfg.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = cfg.XAxis
	p.Y.Label.Text = cfg.YAxis
	p.Legend.Top = true
	if cfg.ShowGrid {
		p.Add(plotter.NewGrid())
	}

	var err error
	switch cfg.ChartType {
	case engine.KindHistogram:
		err = r.bars(p, cfg)
	case engine.KindBox:
		err = r.boxes(p, cfg)
	case engine.KindScatter:
		err = r.scatter(p, cfg)
	default:
		err = fmt.Errorf("%w: chart type %q", ErrUnsupported, cfg.ChartType)
	}
	if err != nil {
		return err
	}

	wt, err := p.WriterTo(pixels(r.size.Width), pixels(r.size.Height), string(format))
	if err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}
	_, err = wt.WriteTo(w)
	return err
}

func pixels(n int) vg.Length {
	return vg.Length(n) * vg.Inch / pixelsPerInch
}

// bars draws one bar group per category, one bar per series.
func (r *PlotRenderer) bars(p *plot.Plot, cfg *engine.ChartConfig) error {
	if len(cfg.Categories) == 0 {
		return nil
	}
	width := vg.Points(60 / float64(max(len(cfg.Series), 1)))
	n := float64(len(cfg.Series))
	for i, s := range cfg.Series {
		if len(s.Data) == 0 {
			continue
		}
		values := make(plotter.Values, len(s.Data))
		for j, d := range s.Data {
			values[j] = d.Value
		}
		bars, err := plotter.NewBarChart(values, width)
		if err != nil {
			return fmt.Errorf("series %q: %w", s.Name, err)
		}
		bars.Color = rgba(s.Color)
		bars.LineStyle.Width = vg.Length(0)
		bars.Offset = vg.Length(float64(i)-(n-1)/2) * width
		p.Add(bars)
		if cfg.ShowLegend {
			p.Legend.Add(s.Name, bars)
		}
	}
	p.NominalX(cfg.Categories...)
	return nil
}

// boxes draws one box per series at consecutive x positions.
func (r *PlotRenderer) boxes(p *plot.Plot, cfg *engine.ChartConfig) error {
	var names []string
	for _, s := range cfg.Series {
		if len(s.Values) == 0 {
			continue
		}
		box, err := plotter.NewBoxPlot(vg.Points(40), float64(len(names)), plotter.Values(s.Values))
		if err != nil {
			return fmt.Errorf("series %q: %w", s.Name, err)
		}
		box.FillColor = rgba(s.Color)
		p.Add(box)
		if cfg.ShowLegend {
			p.Legend.Add(s.Name, box)
		}
		names = append(names, s.Name)
	}
	if len(names) > 0 {
		p.NominalX(names...)
	}
	return nil
}

// scatter draws the points of each series and its trendline, if any.
func (r *PlotRenderer) scatter(p *plot.Plot, cfg *engine.ChartConfig) error {
	for _, s := range cfg.Series {
		if len(s.Points) == 0 {
			continue
		}
		xys := make(plotter.XYs, len(s.Points))
		for i, pt := range s.Points {
			xys[i].X = pt.X
			xys[i].Y = pt.Y
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return fmt.Errorf("series %q: %w", s.Name, err)
		}
		col := rgba(s.Color)
		sc.GlyphStyle.Color = col
		sc.GlyphStyle.Radius = vg.Points(2)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
		if cfg.ShowLegend {
			p.Legend.Add(s.Name, sc)
		}

		if t := s.Trendline; t != nil {
			line, err := plotter.NewLine(plotter.XYs{{X: t.X0, Y: t.Y0}, {X: t.X1, Y: t.Y1}})
			if err != nil {
				return fmt.Errorf("trendline %q: %w", s.Name, err)
			}
			line.LineStyle.Color = col
			line.LineStyle.Width = vg.Points(1.5)
			p.Add(line)
		}
	}
	return nil
}
