package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kerru/bonsai/internal/config"
	"github.com/kerru/bonsai/internal/db"
)

// testSetup creates a temporary database and config for testing.
func testSetup(t *testing.T) (*sql.DB, *config.Config, func()) {
	t.Helper()

	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}

	cfg := config.DefaultConfig()

	cleanup := func() {
		database.Close()
	}

	return database, cfg, cleanup
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// TestHandleOptimize tests the optimize handler.
func TestHandleOptimize(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(database, cfg)
	ctx := context.Background()

	tests := []struct {
		name      string
		args      map[string]any
		wantError bool
		errorCode string
	}{
		{
			name: "optimize filler prompt",
			args: map[string]any{
				"prompt": "Hey, could you please write a summary of this report?",
			},
			wantError: false,
		},
		{
			name:      "optimize without prompt",
			args:      map[string]any{},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
		{
			name: "optimize blank prompt",
			args: map[string]any{
				"prompt": "   ",
			},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := makeRequest(tt.args)
			result, err := h.HandleOptimize(ctx, req)

			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}

			if tt.wantError {
				if !result.IsError {
					t.Errorf("expected error result, got success")
				}
				if tt.errorCode != "" {
					assertErrorCode(t, result, tt.errorCode)
				}
			} else {
				if result.IsError {
					t.Errorf("expected success, got error: %v", extractErrorMessage(result))
				}
			}
		})
	}
}

// TestHandleOptimize_Output verifies the optimize response payload shape.
func TestHandleOptimize_Output(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(database, cfg)
	ctx := context.Background()

	req := makeRequest(map[string]any{
		"prompt": "Hey, could you please write a summary of this report?",
	})
	result, err := h.HandleOptimize(ctx, req)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}

	out := unmarshalResult(t, result)
	optimized, _ := out["optimized_prompt"].(string)
	if optimized != "write a summary of this report?" {
		t.Errorf("got optimized prompt %q", optimized)
	}
	rules, _ := out["applied_rules"].([]any)
	if len(rules) == 0 {
		t.Errorf("expected applied rules, got none")
	}
	if _, ok := out["saved"]; ok {
		t.Errorf("saved field present without save:true")
	}
}

// TestHandleOptimize_Save tests the persistence path of optimize.
func TestHandleOptimize_Save(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(database, cfg)
	ctx := context.Background()

	req := makeRequest(map[string]any{
		"prompt": "Hey, could you please write a summary of this report?",
		"save":   true,
	})

	// First save records the result.
	result, err := h.HandleOptimize(ctx, req)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}

	out := unmarshalResult(t, result)
	saved, ok := out["saved"].(map[string]any)
	if !ok {
		t.Fatalf("no saved object in response")
	}
	if id, _ := saved["id"].(string); id == "" {
		t.Errorf("saved.id is empty")
	}

	// Second save of the same prompt is reported as already saved.
	result, err = h.HandleOptimize(ctx, req)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("repeat save must not fail, got: %v", extractErrorMessage(result))
	}

	out = unmarshalResult(t, result)
	saved, ok = out["saved"].(map[string]any)
	if !ok {
		t.Fatalf("no saved object in repeat response")
	}
	if already, _ := saved["already_saved"].(bool); !already {
		t.Errorf("expected already_saved on repeat save")
	}
}

// TestHandleAnalyze tests the analyze handler.
func TestHandleAnalyze(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(database, cfg)
	ctx := context.Background()

	tests := []struct {
		name      string
		args      map[string]any
		wantError bool
		errorCode string
	}{
		{
			name:      "analyze text",
			args:      map[string]any{"text": "summarize the quarterly report"},
			wantError: false,
		},
		{
			name:      "analyze without text",
			args:      map[string]any{},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := makeRequest(tt.args)
			result, err := h.HandleAnalyze(ctx, req)

			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}

			if tt.wantError {
				if !result.IsError {
					t.Errorf("expected error result, got success")
				}
				if tt.errorCode != "" {
					assertErrorCode(t, result, tt.errorCode)
				}
			} else {
				if result.IsError {
					t.Errorf("expected success, got error: %v", extractErrorMessage(result))
				}
			}
		})
	}
}

// TestHandleHistoryTools walks the history tools over a seeded store.
func TestHandleHistoryTools(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(database, cfg)
	ctx := context.Background()

	// Seed two entries through the optimize tool.
	for _, p := range []string{
		"Hey, could you please write a summary of this report?",
		"I would like you to draft an email to the finance team",
	} {
		req := makeRequest(map[string]any{"prompt": p, "save": true})
		result, err := h.HandleOptimize(ctx, req)
		if err != nil {
			t.Fatalf("seed optimize returned error: %v", err)
		}
		if result.IsError {
			t.Fatalf("seed optimize failed: %v", extractErrorMessage(result))
		}
	}

	// List returns both, most recent first.
	listResult, err := h.HandleList(ctx, makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	if listResult.IsError {
		t.Fatalf("list failed: %v", extractErrorMessage(listResult))
	}
	listOut := unmarshalResult(t, listResult)
	items, _ := listOut["items"].([]any)
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	first, _ := items[0].(map[string]any)
	firstID, _ := first["id"].(string)
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		entry, _ := it.(map[string]any)
		original, _ := entry["original_prompt"].(string)
		seen[original] = true
	}
	if len(seen) != 2 {
		t.Errorf("expected two distinct entries, got %v", seen)
	}

	// Latest matches the head of the list.
	latestResult, err := h.HandleLatest(ctx, makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("latest returned error: %v", err)
	}
	latestOut := unmarshalResult(t, latestResult)
	item, _ := latestOut["item"].(map[string]any)
	if item == nil {
		t.Fatalf("latest returned no item")
	}
	if item["id"] != firstID {
		t.Errorf("latest id %v does not match list head %v", item["id"], firstID)
	}

	// Get by ID.
	getResult, err := h.HandleGet(ctx, makeRequest(map[string]any{"id": firstID}))
	if err != nil {
		t.Fatalf("get returned error: %v", err)
	}
	if getResult.IsError {
		t.Fatalf("get failed: %v", extractErrorMessage(getResult))
	}

	// Get with a bogus ID.
	getResult, err = h.HandleGet(ctx, makeRequest(map[string]any{"id": "nope"}))
	if err != nil {
		t.Fatalf("get returned error: %v", err)
	}
	if !getResult.IsError {
		t.Errorf("expected NOT_FOUND for bogus id")
	}
	assertErrorCode(t, getResult, "NOT_FOUND")

	// Report aggregates both entries.
	reportResult, err := h.HandleReport(ctx, makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("report returned error: %v", err)
	}
	reportOut := unmarshalResult(t, reportResult)
	if total, _ := reportOut["total_optimizations"].(float64); total != 2 {
		t.Errorf("got total_optimizations %v, want 2", total)
	}

	// Clear removes everything.
	clearResult, err := h.HandleClear(ctx, makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("clear returned error: %v", err)
	}
	clearOut := unmarshalResult(t, clearResult)
	if cleared, _ := clearOut["cleared"].(float64); cleared != 2 {
		t.Errorf("got cleared %v, want 2", cleared)
	}

	latestResult, err = h.HandleLatest(ctx, makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("latest returned error: %v", err)
	}
	latestOut = unmarshalResult(t, latestResult)
	if latestOut["item"] != nil {
		t.Errorf("latest item should be null after clear, got %v", latestOut["item"])
	}
}

// TestValidateDisabledTools checks disabled-tool name validation.
func TestValidateDisabledTools(t *testing.T) {
	unknown := ValidateDisabledTools([]string{"prompt_optimize", "prompt_shred"})
	if len(unknown) != 1 || unknown[0] != "prompt_shred" {
		t.Errorf("got unknown %v, want [prompt_shred]", unknown)
	}

	if got := ValidateDisabledTools(nil); len(got) != 0 {
		t.Errorf("expected no unknown names, got %v", got)
	}
}

// TestAllToolNames makes sure the registry covers the full tool surface.
func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	want := []string{
		"prompt_optimize", "prompt_analyze",
		"history_list", "history_get", "history_latest",
		"history_clear", "history_report",
	}
	if len(names) != len(want) {
		t.Fatalf("got %d tools, want %d", len(names), len(want))
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	for _, w := range want {
		if !set[w] {
			t.Errorf("missing tool %q", w)
		}
	}
}

// Test helpers

// unmarshalResult decodes a success result's JSON payload.
func unmarshalResult(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()

	if len(result.Content) == 0 {
		t.Fatalf("no content in result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is not TextContent")
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(text.Text), &out); err != nil {
		t.Fatalf("failed to unmarshal result: %v", err)
	}
	return out
}

// assertErrorCode checks that an error result carries the expected code.
func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()

	if len(result.Content) == 0 {
		t.Errorf("no content in error result")
		return
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Errorf("content is not TextContent")
		return
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Errorf("failed to unmarshal error payload: %v", err)
		return
	}

	errorObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Errorf("no error object in payload")
		return
	}

	code, ok := errorObj["code"].(string)
	if !ok {
		t.Errorf("no code in error object")
		return
	}

	if code != expectedCode {
		t.Errorf("got error code %q, want %q", code, expectedCode)
	}
}

// extractErrorMessage pulls the raw text from an error result for messages.
func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}

	return text.Text
}
