// Package views turns selector values into chart results: the region
// filter, the null-drop projection and the group-by resolver, and the view
// controllers that combine them for each dashboard chart.
package views

import (
	"github.com/spektr-org/gssdash/engine"
	"github.com/spektr-org/gssdash/gss"
)

// FilterByRegion keeps the rows whose region is one of codes.
// An empty codes slice applies no filter and returns view itself.
// Rows with a null region never match; row order is preserved.
func FilterByRegion(view engine.RecordView, codes []string) engine.RecordView {
	if len(codes) == 0 {
		return view
	}
	return engine.ApplyFilters(view, engine.Filters{
		Dimensions: map[string][]string{gss.FieldRegion: codes},
	})
}

// Project keeps the rows that are non-null in every required field.
// All columns stay available; nulls in other fields never drop a row.
func Project(view engine.RecordView, required []string) engine.RecordView {
	return engine.DropNulls(view, required)
}

// ResolveGroupBy returns the view and column to color a chart by for a
// group-by selector value. Region resolves to the derived region_name
// column; any other key is used as is.
func ResolveGroupBy(view engine.RecordView, key string) (engine.RecordView, string) {
	switch key {
	case gss.FieldRegion:
		return engine.WithDerivedDimension(view, gss.FieldRegionName, gss.FieldRegion, regionName), gss.FieldRegionName
	default:
		return view, key
	}
}

// regionName labels a region code, keeping unmapped codes as they are.
func regionName(code string) string {
	if label, ok := gss.RegionNames[code]; ok {
		return label
	}
	return code
}
