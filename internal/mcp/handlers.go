package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kerru/bonsai/internal/analysis"
	"github.com/kerru/bonsai/internal/config"
	"github.com/kerru/bonsai/internal/errors"
	"github.com/kerru/bonsai/internal/ops"
	"github.com/kerru/bonsai/internal/prompt"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{db: db, cfg: cfg}
}

// Request types for each tool

// OptimizeRequest represents the arguments for prompt_optimize.
type OptimizeRequest struct {
	Prompt string `json:"prompt"`
	Save   bool   `json:"save,omitempty"`
}

// AnalyzeRequest represents the arguments for prompt_analyze.
type AnalyzeRequest struct {
	Text string `json:"text"`
}

// ListRequest represents the arguments for history_list.
type ListRequest struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// GetRequest represents the arguments for history_get.
type GetRequest struct {
	ID string `json:"id"`
}

// SavedInfo reports the persistence outcome of an optimize call with save:true.
type SavedInfo struct {
	ID           string `json:"id,omitempty"`
	Signature    string `json:"signature"`
	CreatedAt    int64  `json:"created_at,omitempty"`
	AlreadySaved bool   `json:"already_saved,omitempty"`
}

// OptimizeResult is the prompt_optimize response payload.
type OptimizeResult struct {
	*ops.OptimizeOutput
	Saved *SavedInfo `json:"saved,omitempty"`
}

// Handler implementations

// HandleOptimize handles the prompt_optimize tool call.
func (h *Handlers) HandleOptimize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[OptimizeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Optimize(h.cfg, ops.OptimizeInput{Prompt: input.Prompt})
	if err != nil {
		return errorResult(err), nil
	}

	out := OptimizeResult{OptimizeOutput: result}

	if input.Save {
		saved, err := ops.Save(h.db, ops.SaveInput{
			OriginalPrompt:   result.OriginalPrompt,
			OptimizedPrompt:  result.OptimizedPrompt,
			EstimatedSavings: result.Stats.EstimatedSavings,
		})
		switch {
		case err == nil:
			out.Saved = &SavedInfo{
				ID:        saved.ID,
				Signature: saved.Signature,
				CreatedAt: saved.CreatedAt,
			}
		case errors.Is(err, errors.ErrDuplicate):
			// Same content pair already on record; not a failure.
			out.Saved = &SavedInfo{
				Signature:    prompt.Signature(result.OriginalPrompt, result.OptimizedPrompt),
				AlreadySaved: true,
			}
		default:
			return errorResult(err), nil
		}
	}

	return successResult(out)
}

// HandleAnalyze handles the prompt_analyze tool call.
func (h *Handlers) HandleAnalyze(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AnalyzeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Text == "" {
		return errorResult(errors.NewInvalidRequest("text must not be empty")), nil
	}

	return successResult(analysis.Analyze(input.Text, h.cfg.SavingsPerTokenKG))
}

// HandleList handles the history_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(h.db, ops.ListInput{
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleGet handles the history_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Get(h.db, ops.GetInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleLatest handles the history_latest tool call.
func (h *Handlers) HandleLatest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Latest(h.db)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleClear handles the history_clear tool call.
func (h *Handlers) HandleClear(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Clear(h.db)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleReport handles the history_report tool call.
func (h *Handlers) HandleReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Report(h.db)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if bErr, ok := err.(*errors.BonsaiError); ok {
		errorObj := map[string]any{
			"code":    bErr.Code,
			"message": bErr.Message,
			"status":  bErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if bErr.Code != errors.ErrInternal && bErr.Details != nil {
			errorObj["details"] = bErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
