package ops

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kerru/bonsai/internal/config"
	"github.com/kerru/bonsai/internal/db"
	"github.com/kerru/bonsai/internal/errors"
)

// TestFullWorkflow exercises the complete optimization lifecycle:
// optimize → save → list → latest → get → report → clear → get (not found)
func TestFullWorkflow(t *testing.T) {
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	require.NoError(t, err)
	defer database.Close()

	cfg := config.DefaultConfig()

	// 1. Optimize
	optOut, err := Optimize(cfg, OptimizeInput{
		Prompt: "Hey, could you please maybe help me write a summary of this report?",
	})
	require.NoError(t, err)
	require.Equal(t, "help me write a summary of this report?", optOut.OptimizedPrompt)
	require.Contains(t, optOut.AppliedRules, "Removed greeting")
	require.Contains(t, optOut.AppliedRules, "Removed polite phrasing")
	require.Greater(t, optOut.Stats.ReductionPercentage, 0.0)
	require.GreaterOrEqual(t, optOut.Stats.EstimatedSavings, 0.0)

	// 2. Save
	saveOut, err := Save(database, SaveInput{
		OriginalPrompt:   optOut.OriginalPrompt,
		OptimizedPrompt:  optOut.OptimizedPrompt,
		EstimatedSavings: optOut.Stats.EstimatedSavings,
	})
	require.NoError(t, err)
	require.NotEmpty(t, saveOut.ID)
	require.NotEmpty(t, saveOut.Signature)
	require.Greater(t, saveOut.CreatedAt, int64(0))
	id := saveOut.ID

	// 3. Repeat save of the same content pair is a typed duplicate
	_, err = Save(database, SaveInput{
		OriginalPrompt:  optOut.OriginalPrompt,
		OptimizedPrompt: optOut.OptimizedPrompt,
	})
	require.True(t, errors.Is(err, errors.ErrDuplicate))

	// 4. List
	listOut, err := List(database, ListInput{})
	require.NoError(t, err)
	require.Len(t, listOut.Items, 1)
	require.Equal(t, id, listOut.Items[0].ID)
	require.Greater(t, listOut.Items[0].ReductionPercentage, 0.0)

	// 5. Latest
	latestOut, err := Latest(database)
	require.NoError(t, err)
	require.NotNil(t, latestOut.Item)
	require.Equal(t, id, latestOut.Item.ID)

	// 6. Get
	getOut, err := Get(database, GetInput{ID: id})
	require.NoError(t, err)
	require.Equal(t, optOut.OptimizedPrompt, getOut.OptimizedPrompt)

	// 7. Report
	reportOut, err := Report(database)
	require.NoError(t, err)
	require.Equal(t, 1, reportOut.TotalOptimizations)
	require.Greater(t, reportOut.AverageReduction, 0.0)

	// 8. Clear
	clearOut, err := Clear(database)
	require.NoError(t, err)
	require.Equal(t, 1, clearOut.Cleared)

	// 9. Get after clear - verify 404
	_, err = Get(database, GetInput{ID: id})
	require.True(t, errors.Is(err, errors.ErrNotFound))

	// 10. Subsequent reads reflect the cleared state
	listOut, err = List(database, ListInput{})
	require.NoError(t, err)
	require.Len(t, listOut.Items, 0)

	latestOut, err = Latest(database)
	require.NoError(t, err)
	require.Nil(t, latestOut.Item)
}
