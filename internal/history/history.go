// Package history presents persisted optimizations for display: most recent
// first, with derived per-record reduction percentages. Sort and derive only,
// no mutation of the underlying records.
package history

import (
	"sort"

	"github.com/kerru/bonsai/internal/prompt"
)

// Entry is a display view over one stored optimization.
type Entry struct {
	prompt.Optimization

	// ReductionPercentage is derived from the stored character counts.
	// 0 when the original length is 0 (explicit guard, never NaN).
	ReductionPercentage float64 `json:"reduction_percentage"`
}

// Format orders records by timestamp descending and derives display fields.
// Ties keep their input order (stable). The input slice is not modified.
func Format(records []prompt.Optimization) []Entry {
	entries := make([]Entry, len(records))
	for i, rec := range records {
		entries[i] = Entry{
			Optimization:        rec,
			ReductionPercentage: rec.ReductionPercent(),
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt > entries[j].CreatedAt
	})

	return entries
}
