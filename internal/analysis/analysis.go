// Package analysis computes prompt statistics: a baseline analysis of the
// submitted prompt and the before/after stats for one optimization run.
// Everything here is side-effect free and recomputed from scratch on every
// invocation.
package analysis

import (
	"math"
	"strings"

	"github.com/kerru/bonsai/internal/prompt"
)

// Analysis describes a prompt before optimization.
type Analysis struct {
	// Length is the character (rune) count of the prompt
	Length int `json:"length"`

	// Complexity is a unitless heuristic: vocabulary diversity scaled by
	// the log of the word count. Longer prompts with varied vocabulary
	// score higher.
	Complexity float64 `json:"complexity"`

	// EstimatedSavings is the CO2-equivalent mass (kg) attributable to the
	// whole prompt, used as the baseline for per-optimization savings.
	EstimatedSavings float64 `json:"estimated_savings"`
}

// Stats quantifies a single optimization run.
type Stats struct {
	OriginalTokens  int `json:"original_tokens"`
	OptimizedTokens int `json:"optimized_tokens"`

	// ReductionPercentage is the relative token reduction. 0 when the
	// original estimate is 0 tokens (guarded, never NaN).
	ReductionPercentage float64 `json:"reduction_percentage"`

	// EstimatedSavings scales the baseline savings by the achieved
	// reduction, floored at 0: a rewrite that grows the text must not
	// report negative savings.
	EstimatedSavings float64 `json:"estimated_savings"`
}

// Analyze computes the baseline analysis for a prompt. savingsPerTokenKG is
// the configured CO2-equivalent mass attributed to one estimated token.
func Analyze(text string, savingsPerTokenKG float64) Analysis {
	words := strings.Fields(text)

	complexity := 0.0
	if len(words) > 0 {
		unique := make(map[string]bool, len(words))
		for _, w := range words {
			unique[strings.ToLower(w)] = true
		}
		diversity := float64(len(unique)) / float64(len(words))
		complexity = diversity * math.Log1p(float64(len(words)))
	}

	return Analysis{
		Length:           prompt.CountChars(text),
		Complexity:       complexity,
		EstimatedSavings: float64(prompt.EstimateTokens(text)) * savingsPerTokenKG,
	}
}

// ComputeStats combines original and optimized text with a baseline savings
// estimate into the stats for one run.
func ComputeStats(original, optimized string, baselineSavings float64) Stats {
	originalTokens := prompt.EstimateTokens(original)
	optimizedTokens := prompt.EstimateTokens(optimized)

	reduction := 0.0
	if originalTokens > 0 {
		reduction = float64(originalTokens-optimizedTokens) / float64(originalTokens) * 100
	}

	savings := baselineSavings * (reduction / 100)

	return Stats{
		OriginalTokens:      originalTokens,
		OptimizedTokens:     optimizedTokens,
		ReductionPercentage: reduction,
		EstimatedSavings:    math.Max(0, savings),
	}
}
