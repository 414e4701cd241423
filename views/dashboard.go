package views

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/spektr-org/gssdash/engine"
	"github.com/spektr-org/gssdash/gss"
)

// ============================================================================
// DASHBOARD — selector catalogue, dispatch and memoization
// ============================================================================
// Dispatch re-renders only the controllers that declare a changed selector.
// The dataset never changes, so an Output depends on nothing but the
// controller and its selector values; those form the cache key.
// ============================================================================

// Source is the data a Dashboard reads.
type Source interface {
	View() engine.RecordView
	Regions() []string
}

// Recorder receives recomputation and cache events.
type Recorder interface {
	Recomputed(controller string, took time.Duration)
	CacheHit(controller string)
}

type nopRecorder struct{}

func (nopRecorder) Recomputed(string, time.Duration) {}
func (nopRecorder) CacheHit(string)                  {}

// Option configures a Dashboard.
type Option func(*Dashboard)

// WithLogger sets the logger for the dashboard and the engine runs it makes.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dashboard) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithCache memoizes outputs for ttl (cache.NoExpiration keeps them for the
// process lifetime). A cleanup interval of zero runs no janitor goroutine.
func WithCache(ttl, cleanup time.Duration) Option {
	return func(d *Dashboard) {
		d.cache = cache.New(ttl, cleanup)
	}
}

// WithRecorder reports recomputations and cache hits.
func WithRecorder(r Recorder) Option {
	return func(d *Dashboard) {
		if r != nil {
			d.recorder = r
		}
	}
}

// WithPalette sets the series colors used where a chart fixes none.
func WithPalette(colors ...string) Option {
	return func(d *Dashboard) { d.palette = colors }
}

// WithControllers replaces the default controllers.
func WithControllers(cs ...Controller) Option {
	return func(d *Dashboard) { d.controllers = cs }
}

// Dashboard routes selector changes to controllers.
type Dashboard struct {
	source      Source
	controllers []Controller
	cache       *cache.Cache
	recorder    Recorder
	logger      *zap.Logger
	palette     []string
}

// NewDashboard creates a Dashboard over src with the four standard controllers.
func NewDashboard(src Source, opts ...Option) *Dashboard {
	d := &Dashboard{
		source:   src,
		recorder: nopRecorder{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.controllers == nil {
		d.controllers = Controllers(src.View(), engine.WithLogger(d.logger), engine.WithPalette(d.palette...))
	}
	return d
}

// Controllers returns the registered controllers in order.
func (d *Dashboard) Controllers() []Controller { return d.controllers }

// Controller looks up a controller by id.
func (d *Dashboard) Controller(id string) (Controller, error) {
	for _, c := range d.controllers {
		if c.ID() == id {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownView, id)
}

// ControllerForChart finds the controller that produces a chart.
func (d *Dashboard) ControllerForChart(chartID string) (Controller, error) {
	for _, c := range d.controllers {
		for _, out := range c.Outputs() {
			if out == chartID {
				return c, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: chart %q", ErrUnknownView, chartID)
}

// Render runs one controller, using the cache when enabled.
func (d *Dashboard) Render(id string, sel Selection) (*Output, error) {
	c, err := d.Controller(id)
	if err != nil {
		return nil, err
	}
	return d.render(c, sel)
}

// Chart computes a single chart by id.
func (d *Dashboard) Chart(chartID string, sel Selection) (*engine.Result, error) {
	c, err := d.ControllerForChart(chartID)
	if err != nil {
		return nil, err
	}
	out, err := d.render(c, sel)
	if err != nil {
		return nil, err
	}
	res, _ := out.Chart(chartID)
	return res, nil
}

// Dispatch re-renders, in registration order, every controller with a
// declared input among changed. With no changed ids every controller runs.
// The result is keyed by controller id.
func (d *Dashboard) Dispatch(state Selection, changed ...string) (map[string]*Output, error) {
	changedSet := make(map[string]bool, len(changed))
	for _, id := range changed {
		changedSet[id] = true
	}

	outputs := make(map[string]*Output)
	for _, c := range d.controllers {
		if len(changed) > 0 && !dependsOn(c, changedSet) {
			continue
		}
		out, err := d.render(c, state)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.ID(), err)
		}
		outputs[c.ID()] = out
	}
	return outputs, nil
}

func dependsOn(c Controller, changed map[string]bool) bool {
	for _, in := range c.Inputs() {
		if changed[in] {
			return true
		}
	}
	return false
}

func (d *Dashboard) render(c Controller, sel Selection) (*Output, error) {
	key := c.ID() + "|" + sel.key(c.Inputs())
	if d.cache != nil {
		if v, ok := d.cache.Get(key); ok {
			d.recorder.CacheHit(c.ID())
			return v.(*Output), nil
		}
	}

	start := time.Now()
	out, err := c.Render(sel)
	if err != nil {
		return nil, err
	}
	took := time.Since(start)
	d.recorder.Recomputed(c.ID(), took)
	d.logger.Debug("view recomputed",
		zap.String("controller", c.ID()),
		zap.String("selection", key),
		zap.Duration("took", took),
		zap.Bool("empty", out.Empty),
	)

	if d.cache != nil {
		d.cache.SetDefault(key, out)
	}
	return out, nil
}

// ============================================================================
// SELECTOR CATALOGUE
// ============================================================================

// Selector describes one dashboard input.
type Selector struct {
	ID      string       `json:"id"`
	Label   string       `json:"label"`
	Multi   bool         `json:"multi"`
	Options []gss.Option `json:"options"`
	Default []string     `json:"default"`
}

// Options returns the selector catalogue.
func (d *Dashboard) Options() []Selector {
	regions := gss.RegionOptions(d.source.Regions())
	return []Selector{
		{ID: SelectorRegion, Label: "Region", Multi: true, Options: regions, Default: []string{}},
		{ID: SelectorRegionScatter, Label: "Region", Multi: true, Options: regions, Default: []string{}},
		{ID: SelectorBarFeature, Label: "Feature", Options: gss.BarFeatures, Default: []string{gss.DefaultBarFeature}},
		{ID: SelectorGroupBy, Label: "Group by", Options: gss.GroupByOptions, Default: []string{gss.DefaultGroupBy}},
	}
}

// Validate checks selector values against the catalogue. Unknown selector
// ids are rejected as well.
func (d *Dashboard) Validate(sel Selection) error {
	catalogue := d.Options()
	for id, vals := range sel {
		var s *Selector
		for i := range catalogue {
			if catalogue[i].ID == id {
				s = &catalogue[i]
				break
			}
		}
		if s == nil {
			return fmt.Errorf("%w: unknown selector %q", ErrInvalidSelection, id)
		}
		if s.ID == SelectorRegion || s.ID == SelectorRegionScatter {
			// Unknown regions filter to an empty chart.
			continue
		}
		for _, v := range vals {
			if v != "" && !gss.HasOption(s.Options, v) {
				return invalid(id, v)
			}
		}
	}
	return nil
}
