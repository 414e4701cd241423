// Package gssdash serves an interactive dashboard over the 2018 General Social
// Survey extract, comparing income, job prestige and gender-role attitudes
// between men and women.
//
// Usage:
//
//	data, err := dataset.Load(ctx, dataset.DefaultSource)
//	dash := views.NewDashboard(data)
//	out, err := dash.Render("distribution", views.Selection{
//	    views.SelectorRegion: {"pacific"},
//	})
//
// Charts come back as engine.ChartConfig values; the render package draws
// them as PNG or SVG and the export package writes their series as CSV or
// XLSX. The server package exposes the dashboard over HTTP and cmd/gssdash
// wraps everything in a CLI.
package gssdash

// Version is the release of the dashboard.
const Version = "0.3.0"
