package memory

// AttributionFilter narrows retrieval results by who said it, which
// agent captured it, and which conversation it belongs to. Empty fields
// impose no constraint; set fields must match exactly.
type AttributionFilter struct {
	EntityID  string
	ProcessID string
	SessionID string
}

// IsZero reports whether the filter imposes no constraints.
func (f AttributionFilter) IsZero() bool {
	return f.EntityID == "" && f.ProcessID == "" && f.SessionID == ""
}

// Matches reports whether the item satisfies every set field.
func (f AttributionFilter) Matches(it *Item) bool {
	if f.EntityID != "" && it.EntityID != f.EntityID {
		return false
	}
	if f.ProcessID != "" && it.ProcessID != f.ProcessID {
		return false
	}
	if f.SessionID != "" && it.SessionID != f.SessionID {
		return false
	}
	return true
}

// Apply keeps only the results whose items match the filter, preserving
// order. An empty outcome is a valid result, not an error.
func (f AttributionFilter) Apply(results []HybridResult) []HybridResult {
	if f.IsZero() {
		return results
	}
	filtered := make([]HybridResult, 0, len(results))
	for _, r := range results {
		if f.Matches(&r.Item) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
