// Package ops implements the operations exposed by the CLI, MCP server, and
// web UI: running an optimization, persisting results, and reading the
// history store.
package ops

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}
