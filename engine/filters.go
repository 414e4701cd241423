package engine

// ============================================================================
// FILTERS — Dimension filtering and null-drop projection via RecordView
// ============================================================================
// Both passes are single loops that return a SubView (index list into the
// parent) — zero data copy, parent row order preserved.
// ============================================================================

// ApplyFilters returns a view of records matching all dimension filters.
// Dimensions are AND-combined; values within a dimension are OR-combined.
// Empty filter = no restriction (returns original view).
// Matching is exact; values are not case-folded.
// A row whose filtered dimension is null never matches a non-empty filter.
func ApplyFilters(view RecordView, filters Filters) RecordView {
	if filters.IsEmpty() {
		return view
	}

	// Pre-build lookup sets for each dimension filter
	sets := make(map[string]map[string]bool)
	for dim, allowed := range filters.Dimensions {
		if len(allowed) > 0 {
			sets[dim] = toSet(allowed)
		}
	}

	if len(sets) == 0 {
		return view
	}

	// Single pass — record passes if it matches ALL dimension filters
	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		pass := true
		for dim, set := range sets {
			val := view.Dimension(i, dim)
			if val == "" || !set[val] {
				pass = false
				break
			}
		}
		if pass {
			indices = append(indices, i)
		}
	}

	return newSubView(view, indices)
}

// DropNulls returns a view of the rows where every field in required is
// non-null. All columns are retained; nulls in unlisted fields never drop a row.
func DropNulls(view RecordView, required []string) RecordView {
	if len(required) == 0 {
		return view
	}

	measures := make(map[string]bool, len(view.MeasureKeys()))
	for _, k := range view.MeasureKeys() {
		measures[k] = true
	}

	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		keep := true
		for _, field := range required {
			if measures[field] {
				if _, ok := view.Measure(i, field); !ok {
					keep = false
					break
				}
			} else if view.Dimension(i, field) == "" {
				keep = false
				break
			}
		}
		if keep {
			indices = append(indices, i)
		}
	}

	if len(indices) == n {
		return view
	}
	return newSubView(view, indices)
}

// toSet converts a string slice to a lookup set.
func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
