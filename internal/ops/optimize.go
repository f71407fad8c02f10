package ops

import (
	"strings"

	"github.com/kerru/bonsai/internal/analysis"
	"github.com/kerru/bonsai/internal/config"
	"github.com/kerru/bonsai/internal/errors"
	"github.com/kerru/bonsai/internal/prompt"
)

// OptimizeInput contains parameters for the Optimize operation.
type OptimizeInput struct {
	Prompt string // required, must not be blank
}

// OptimizeOutput contains the result of one optimization run.
type OptimizeOutput struct {
	OriginalPrompt  string            `json:"original_prompt"`
	OptimizedPrompt string            `json:"optimized_prompt"`
	AppliedRules    []string          `json:"applied_rules"`
	Analysis        analysis.Analysis `json:"analysis"`
	Stats           analysis.Stats    `json:"stats"`
}

// Optimize validates the prompt, runs the baseline analysis and the rule
// pipeline, and aggregates the statistics. Pure aside from validation; the
// result is not persisted here.
func Optimize(cfg *config.Config, input OptimizeInput) (*OptimizeOutput, error) {
	if strings.TrimSpace(input.Prompt) == "" {
		return nil, errors.NewInvalidRequest("prompt must not be empty")
	}

	a := analysis.Analyze(input.Prompt, cfg.SavingsPerTokenKG)
	optimized, rules := prompt.Optimize(input.Prompt)
	stats := analysis.ComputeStats(input.Prompt, optimized, a.EstimatedSavings)

	return &OptimizeOutput{
		OriginalPrompt:  input.Prompt,
		OptimizedPrompt: optimized,
		AppliedRules:    rules,
		Analysis:        a,
		Stats:           stats,
	}, nil
}
