package ops

import (
	"database/sql"
	"fmt"

	"github.com/kerru/bonsai/internal/db"
)

// ClearOutput contains the result of the Clear operation.
type ClearOutput struct {
	Cleared int    `json:"cleared"`
	Message string `json:"message"`
}

// Clear permanently deletes the entire optimization history.
func Clear(database *sql.DB) (*ClearOutput, error) {
	count, err := db.DeleteAll(database)
	if err != nil {
		return nil, err
	}

	return &ClearOutput{
		Cleared: count,
		Message: formatClearMessage(count),
	}, nil
}

// formatClearMessage creates a human-readable message for the clear result.
func formatClearMessage(count int) string {
	if count == 0 {
		return "No optimizations to clear"
	}

	word := "optimization"
	if count > 1 {
		word = "optimizations"
	}
	return fmt.Sprintf("Permanently deleted %d %s", count, word)
}
