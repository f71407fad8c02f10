package ops

import (
	"database/sql"
	"strings"

	"github.com/kerru/bonsai/internal/db"
	"github.com/kerru/bonsai/internal/errors"
	"github.com/kerru/bonsai/internal/history"
)

// GetInput contains parameters for the Get operation.
type GetInput struct {
	ID string // required
}

// GetOutput contains the result of the Get operation.
type GetOutput struct {
	history.Entry
}

// Get retrieves a single stored optimization by ID.
func Get(database *sql.DB, input GetInput) (*GetOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	rec, err := db.GetByID(database, id)
	if err != nil {
		return nil, err
	}

	return &GetOutput{
		Entry: history.Entry{
			Optimization:        *rec,
			ReductionPercentage: rec.ReductionPercent(),
		},
	}, nil
}
