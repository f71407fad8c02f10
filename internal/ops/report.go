package ops

import (
	"database/sql"

	"github.com/kerru/bonsai/internal/db"
	"github.com/kerru/bonsai/internal/history"
)

// ReportOutput summarizes the whole optimization history.
type ReportOutput struct {
	TotalOptimizations    int     `json:"total_optimizations"`
	TotalOriginalChars    int     `json:"total_original_chars"`
	TotalOptimizedChars   int     `json:"total_optimized_chars"`
	TotalEstimatedSavings float64 `json:"total_estimated_savings"`

	// AverageReduction is the mean per-record reduction percentage.
	// 0 when the history is empty.
	AverageReduction float64 `json:"average_reduction"`
}

// Report aggregates the stored history into summary totals.
func Report(database *sql.DB) (*ReportOutput, error) {
	records, err := db.ListAll(database)
	if err != nil {
		return nil, err
	}

	out := &ReportOutput{TotalOptimizations: len(records)}
	if len(records) == 0 {
		return out, nil
	}

	reductionSum := 0.0
	for _, e := range history.Format(records) {
		out.TotalOriginalChars += e.OriginalChars
		out.TotalOptimizedChars += e.OptimizedChars
		out.TotalEstimatedSavings += e.EstimatedSavings
		reductionSum += e.ReductionPercentage
	}
	out.AverageReduction = reductionSum / float64(len(records))

	return out, nil
}
