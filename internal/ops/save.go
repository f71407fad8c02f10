package ops

import (
	"database/sql"
	"time"

	"github.com/kerru/bonsai/internal/db"
	"github.com/kerru/bonsai/internal/errors"
	"github.com/kerru/bonsai/internal/prompt"
)

// SaveInput contains parameters for the Save operation.
type SaveInput struct {
	OriginalPrompt   string  // required
	OptimizedPrompt  string  // required
	EstimatedSavings float64 // from the run's stats, never negative
}

// SaveOutput contains the result of the Save operation.
type SaveOutput struct {
	ID        string `json:"id"`
	Signature string `json:"signature"`
	CreatedAt int64  `json:"created_at"`
}

// Save persists a completed optimization to the history store. A repeat save
// of the same content pair returns a DUPLICATE error; auto-saving callers
// treat that as already-saved.
func Save(database *sql.DB, input SaveInput) (*SaveOutput, error) {
	if input.OriginalPrompt == "" || input.OptimizedPrompt == "" {
		return nil, errors.NewInvalidRequest("original_prompt and optimized_prompt are required")
	}

	rec, err := prompt.NewOptimization(
		input.OriginalPrompt,
		input.OptimizedPrompt,
		input.EstimatedSavings,
		TimestampNanos(database),
	)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	if err := db.Insert(database, rec); err != nil {
		return nil, err
	}

	return &SaveOutput{
		ID:        rec.ID,
		Signature: rec.Signature,
		CreatedAt: rec.CreatedAt,
	}, nil
}

// TimestampNanos returns the save timestamp in nanoseconds, preferring the
// store clock and falling back to the local clock when it is unavailable.
func TimestampNanos(database *sql.DB) int64 {
	if ns, err := db.CurrentTimeNanos(database); err == nil {
		return ns
	}
	return time.Now().UnixNano()
}
