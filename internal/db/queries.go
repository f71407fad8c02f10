package db

import (
	"database/sql"
	"strings"

	"github.com/kerru/bonsai/internal/errors"
	"github.com/kerru/bonsai/internal/prompt"
)

// Insert stores a new optimization in the history.
// A signature collision maps to a typed DUPLICATE error so callers can treat
// repeat saves of the same content pair as already-saved.
func Insert(db *sql.DB, o *prompt.Optimization) error {
	query := `
		INSERT INTO optimizations (
			id, signature, original_prompt, optimized_prompt,
			original_chars, optimized_chars, estimated_savings, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query,
		o.ID, o.Signature, o.OriginalPrompt, o.OptimizedPrompt,
		o.OriginalChars, o.OptimizedChars, o.EstimatedSavings, o.CreatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return errors.NewDuplicate(o.Signature)
		}
		return errors.NewInternal(err)
	}

	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GetByID retrieves an optimization by its ULID.
func GetByID(db *sql.DB, id string) (*prompt.Optimization, error) {
	query := `
		SELECT id, signature, original_prompt, optimized_prompt,
			original_chars, optimized_chars, estimated_savings, created_at
		FROM optimizations
		WHERE id = ?
	`

	row := db.QueryRow(query, id)
	o, err := scanOptimization(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	return o, nil
}

// ListAll returns every stored optimization in insertion order. An empty or
// uninitialized history yields an empty slice, never an error.
func ListAll(db *sql.DB) ([]prompt.Optimization, error) {
	query := `
		SELECT id, signature, original_prompt, optimized_prompt,
			original_chars, optimized_chars, estimated_savings, created_at
		FROM optimizations
		ORDER BY rowid ASC
	`

	rows, err := db.Query(query)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	records := []prompt.Optimization{}
	for rows.Next() {
		var o prompt.Optimization
		if err := rows.Scan(
			&o.ID, &o.Signature, &o.OriginalPrompt, &o.OptimizedPrompt,
			&o.OriginalChars, &o.OptimizedChars, &o.EstimatedSavings, &o.CreatedAt,
		); err != nil {
			return nil, errors.NewInternal(err)
		}
		records = append(records, o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return records, nil
}

// DeleteAll removes every stored optimization and returns how many were deleted.
func DeleteAll(db *sql.DB) (int, error) {
	result, err := db.Exec("DELETE FROM optimizations")
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(count), nil
}

// CurrentTimeNanos reads the store clock, scaled to nanoseconds.
// Second resolution; callers fall back to the local clock on error.
func CurrentTimeNanos(db *sql.DB) (int64, error) {
	var seconds int64
	if err := db.QueryRow("SELECT CAST(strftime('%s','now') AS INTEGER)").Scan(&seconds); err != nil {
		return 0, errors.NewInternal(err)
	}
	return seconds * 1_000_000_000, nil
}

// scanOptimization scans a single row into an Optimization.
func scanOptimization(row *sql.Row) (*prompt.Optimization, error) {
	var o prompt.Optimization
	err := row.Scan(
		&o.ID, &o.Signature, &o.OriginalPrompt, &o.OptimizedPrompt,
		&o.OriginalChars, &o.OptimizedChars, &o.EstimatedSavings, &o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
