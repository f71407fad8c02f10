package ops

import (
	"database/sql"

	"github.com/kerru/bonsai/internal/db"
	"github.com/kerru/bonsai/internal/history"
)

// LatestOutput contains the result of the Latest operation.
type LatestOutput struct {
	Item *history.Entry `json:"item"` // nil if the history is empty
}

// Latest retrieves the most recently saved optimization.
func Latest(database *sql.DB) (*LatestOutput, error) {
	records, err := db.ListAll(database)
	if err != nil {
		return nil, err
	}

	entries := history.Format(records)
	if len(entries) == 0 {
		return &LatestOutput{Item: nil}, nil
	}

	return &LatestOutput{Item: &entries[0]}, nil
}
