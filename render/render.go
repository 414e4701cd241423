// Package render draws engine.ChartConfig values as PNG or SVG images.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/spektr-org/gssdash/engine"
)

// Format is an image output format.
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

var (
	// ErrUnsupported is returned by a backend that cannot draw a chart kind.
	ErrUnsupported = errors.New("chart not supported by renderer")
	// ErrUnknownFormat is returned for a format other than png or svg.
	ErrUnknownFormat = errors.New("unknown image format")
)

// ParseFormat reads a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(s, "."))); f {
	case PNG, SVG:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == SVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// Renderer draws a chart to w.
type Renderer interface {
	Name() string
	Render(w io.Writer, cfg *engine.ChartConfig, format Format) error
}

// Size is an image size in pixels.
type Size struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// DefaultSize is used when a renderer is given a zero size.
var DefaultSize = Size{Width: 900, Height: 560}

func (s Size) orDefault() Size {
	if s.Width <= 0 || s.Height <= 0 {
		return DefaultSize
	}
	return s
}

// New returns a renderer by backend name: "plot", "gochart", or "auto" for
// go-chart with gonum/plot as fallback.
func New(backend string, size Size) (Renderer, error) {
	switch backend {
	case "plot", "gonum":
		return NewPlot(size), nil
	case "gochart", "go-chart":
		return NewGoChart(size), nil
	case "", "auto":
		return Chain(NewGoChart(size), NewPlot(size)), nil
	default:
		return nil, fmt.Errorf("unknown renderer %q", backend)
	}
}

// ============================================================================
// CHAIN
// ============================================================================

type chain struct {
	primary, fallback Renderer
}

// Chain renders with primary and retries with fallback when primary reports
// ErrUnsupported. Primary must not write to w before deciding.
func Chain(primary, fallback Renderer) Renderer {
	return &chain{primary: primary, fallback: fallback}
}

func (c *chain) Name() string { return c.primary.Name() + "+" + c.fallback.Name() }

func (c *chain) Render(w io.Writer, cfg *engine.ChartConfig, format Format) error {
	err := c.primary.Render(w, cfg, format)
	if errors.Is(err, ErrUnsupported) {
		return c.fallback.Render(w, cfg, format)
	}
	return err
}

// ============================================================================
// COLORS
// ============================================================================

// parseColor reads "#RRGGBB" (or "RRGGBB"); invalid input yields black.
func parseColor(hex string) drawing.Color {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 && len(hex) != 3 {
		return drawing.ColorBlack
	}
	return drawing.ColorFromHex(hex)
}

func rgba(hex string) color.Color {
	c := parseColor(hex)
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}
