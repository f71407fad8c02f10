package ops

import (
	"database/sql"

	"github.com/kerru/bonsai/internal/db"
	"github.com/kerru/bonsai/internal/history"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Limit  int // default: 20, max: 100
	Offset int // default: 0
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []history.Entry `json:"items"`
	Pagination Pagination      `json:"pagination"`
	Sort       string          `json:"sort"`
}

// List retrieves stored optimizations, most recent first, with pagination.
func List(database *sql.DB, input ListInput) (*ListOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	offset := max(input.Offset, 0)

	records, err := db.ListAll(database)
	if err != nil {
		return nil, err
	}

	entries := history.Format(records)
	total := len(entries)

	// Page out of the formatted view
	if offset >= total {
		entries = []history.Entry{}
	} else {
		end := min(offset+limit, total)
		entries = entries[offset:end]
	}

	return &ListOutput{
		Items: entries,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(entries) < total,
			Total:   total,
		},
		Sort: "created_at_desc",
	}, nil
}
