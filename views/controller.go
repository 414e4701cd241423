package views

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spektr-org/gssdash/engine"
	"github.com/spektr-org/gssdash/gss"
)

// Selector ids.
const (
	SelectorRegion        = "region-dropdown"
	SelectorRegionScatter = "region-dropdown-scatter"
	SelectorBarFeature    = "custom-bar-feature"
	SelectorGroupBy       = "custom-groupby"
)

// Chart ids.
const (
	ChartAgreement   = "barplot"
	ChartIncomeBox   = "income-boxplot"
	ChartPrestigeBox = "jobprestige-boxplot"
	ChartScatter     = "scatterplot"
	ChartCustom      = "custom-barplot"
)

var (
	// ErrInvalidSelection is returned for a selector value outside its options.
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrUnknownView is returned for a controller or chart id that does not exist.
	ErrUnknownView = errors.New("unknown view")
)

// Selection holds the current value(s) of each selector, keyed by selector id.
// Multi-select selectors use every value; single-select ones the first.
type Selection map[string][]string

// First returns the first value of a selector, or def when it has none.
func (s Selection) First(selector, def string) string {
	if vals := s[selector]; len(vals) > 0 && vals[0] != "" {
		return vals[0]
	}
	return def
}

// Values returns the non-empty values of a selector.
func (s Selection) Values(selector string) []string {
	var out []string
	for _, v := range s[selector] {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// key is a canonical form of the given selectors' values.
func (s Selection) key(selectors []string) string {
	var b strings.Builder
	for _, sel := range selectors {
		vals := s.Values(sel)
		sort.Strings(vals)
		b.WriteString(sel)
		b.WriteByte('=')
		b.WriteString(strings.Join(vals, "\x1f"))
		b.WriteByte(';')
	}
	return b.String()
}

// Chart is one computed chart of a controller.
type Chart struct {
	ID string `json:"id"`
	*engine.Result
}

// Output is everything one controller produced for a selection.
type Output struct {
	Controller string  `json:"controller"`
	Charts     []Chart `json:"charts"`
	Empty      bool    `json:"empty"` // every chart is empty
}

// Chart returns the chart with the given id.
func (o *Output) Chart(id string) (*engine.Result, bool) {
	for _, c := range o.Charts {
		if c.ID == id {
			return c.Result, true
		}
	}
	return nil, false
}

// Controller recomputes one or more charts from the selectors it declares.
type Controller interface {
	ID() string
	Inputs() []string
	Outputs() []string
	Render(sel Selection) (*Output, error)
}

// newOutput assembles an Output from chart results in order.
func newOutput(controller string, ids []string, results []*engine.Result) *Output {
	out := &Output{Controller: controller, Empty: true}
	for i, r := range results {
		out.Charts = append(out.Charts, Chart{ID: ids[i], Result: r})
		if !r.Empty {
			out.Empty = false
		}
	}
	return out
}

// regionLabel describes a region selection for chart replies.
func regionLabel(codes []string) string {
	if len(codes) == 0 {
		return "all regions"
	}
	labels := make([]string, len(codes))
	for i, c := range codes {
		labels[i] = gss.RegionLabel(c)
	}
	return strings.Join(labels, ", ")
}

func invalid(selector, value string) error {
	return fmt.Errorf("%w: %s=%q", ErrInvalidSelection, selector, value)
}
