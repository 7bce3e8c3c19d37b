package mcp

import "github.com/mark3labs/mcp-go/mcp"

// chatTool defines the maintly_chat MCP tool.
var chatTool = mcp.NewTool("maintly_chat",
	mcp.WithDescription("Ask the maintenance copilot for a recommendation, a risk explanation, a top-risk ranking or a general answer."),
	mcp.WithString("message",
		mcp.Required(),
		mcp.Description("Natural language operator request"),
	),
	mcp.WithString("product_id",
		mcp.Description("Target machine product id, when already known"),
	),
	mcp.WithNumber("window_days",
		mcp.Description("Rolling window length in days"),
	),
	mcp.WithNumber("top_k",
		mcp.Description("Number of ranked machines to consider"),
	),
	mcp.WithBoolean("save",
		mcp.Description("Persist a produced recommendation (default true)"),
	),
)

// listMachinesTool defines the list_machines MCP tool.
var listMachinesTool = mcp.NewTool("list_machines",
	mcp.WithDescription("List all monitored machines with their current risk state."),
)

// getMachineContextTool defines the get_machine_context MCP tool.
var getMachineContextTool = mcp.NewTool("get_machine_context",
	mcp.WithDescription("Get a machine's current telemetry summary, latest prediction and recent anomalies."),
	mcp.WithString("product_id",
		mcp.Required(),
		mcp.Description("Machine product id"),
	),
)

// searchRecommendationsTool defines the search_recommendations MCP tool.
var searchRecommendationsTool = mcp.NewTool("search_recommendations",
	mcp.WithDescription("Search previously saved maintenance recommendations by meaning."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 5)"),
	),
)
