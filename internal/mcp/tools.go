package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Tool definitions. Descriptions are what MCP clients show to the model, so
// they state exactly what each tool does and what the caller gets back.

var optimizeToolDef = mcp.NewTool("prompt_optimize",
	mcp.WithDescription("Rewrite a prompt into a shorter, more direct form. "+
		"Returns the optimized prompt, the list of applied rules, a baseline "+
		"analysis of the original text, and before/after token statistics. "+
		"Pass save:true to also record the result in history."),
	mcp.WithString("prompt",
		mcp.Required(),
		mcp.Description("The prompt text to optimize. Must not be blank."),
	),
	mcp.WithBoolean("save",
		mcp.Description("Persist the result to history. A repeat save of the same content pair reports already_saved instead of failing."),
	),
)

var analyzeToolDef = mcp.NewTool("prompt_analyze",
	mcp.WithDescription("Analyze a prompt without rewriting it. Returns "+
		"character length, a complexity score, and the estimated baseline "+
		"savings in kg CO2e."),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("The text to analyze."),
	),
)

var listToolDef = mcp.NewTool("history_list",
	mcp.WithDescription("List saved optimizations, most recent first. "+
		"Returns summaries with per-entry reduction percentages and pagination info."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum entries to return (default 20, max 100)."),
	),
	mcp.WithNumber("offset",
		mcp.Description("Number of entries to skip (default 0)."),
	),
)

var getToolDef = mcp.NewTool("history_get",
	mcp.WithDescription("Fetch one saved optimization by its ID, including the full original and optimized prompts."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("The optimization ID (ULID)."),
	),
)

var latestToolDef = mcp.NewTool("history_latest",
	mcp.WithDescription("Fetch the most recently saved optimization. Returns item:null when history is empty."),
)

var clearToolDef = mcp.NewTool("history_clear",
	mcp.WithDescription("Delete all saved optimizations. Returns the number of entries removed."),
)

var reportToolDef = mcp.NewTool("history_report",
	mcp.WithDescription("Aggregate statistics across all saved optimizations: "+
		"totals for characters and estimated savings, plus the average reduction percentage."),
)
