package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/maintly/maintly/internal/agent"
	"github.com/maintly/maintly/internal/apperr"
)

// handleChat runs one chat request through the engine.
func (s *Server) handleChat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: message"), nil
	}

	req := &agent.ChatRequest{Message: message}
	if v := request.GetString("product_id", ""); v != "" {
		req.ProductID = &v
	}
	if v := request.GetFloat("window_days", 0); v > 0 {
		req.WindowDays = &v
	}
	if v := request.GetFloat("top_k", 0); v > 0 {
		req.TopK = &v
	}
	save := request.GetBool("save", true)
	req.Save = &save

	result, err := s.engine.Chat(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(apperr.ClientMessage(err)), nil
	}

	body, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}

// handleListMachines returns the machine fleet with current risk state.
func (s *Server) handleListMachines(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.machines.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing machines: %v", err)), nil
	}
	if len(list) == 0 {
		return mcp.NewToolResultText("No machines registered. Run `maintly seed` to load demo data."), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d machine(s):\n", len(list)))
	for _, m := range list {
		score := "n/a"
		if m.CurrentRiskScore != nil {
			score = fmt.Sprintf("%.3f", *m.CurrentRiskScore)
		}
		sb.WriteString(fmt.Sprintf("- %s (%s) risk=%s score=%s\n",
			m.ProductID, m.Type, m.CurrentRiskLevel, score))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleGetMachineContext assembles and returns a machine's read bundle.
func (s *Server) handleGetMachineContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	productID, err := request.RequireString("product_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: product_id"), nil
	}

	mctx, err := agent.AssembleContext(ctx, s.agents, productID, time.Now().UTC(), 72, 5)
	if err != nil {
		return mcp.NewToolResultError(apperr.ClientMessage(err)), nil
	}

	body, err := json.MarshalIndent(mctx, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding context: %v", err)), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}

// handleSearchRecommendations searches the similarity index.
func (s *Server) handleSearchRecommendations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.memory == nil {
		return mcp.NewToolResultError("recommendation similarity search is disabled"), nil
	}

	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	limit := request.GetInt("limit", 5)
	if limit <= 0 {
		limit = 5
	}

	hits, err := s.memory.SearchSimilar(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(hits) == 0 {
		return mcp.NewToolResultText("No similar recommendations found."), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d result(s):\n", len(hits)))
	for i, h := range hits {
		sb.WriteString(fmt.Sprintf("\n--- Result %d (similarity: %.4f) ---\n", i+1, h.Similarity))
		sb.WriteString(fmt.Sprintf("Machine: %s\n", h.ProductID))
		if h.FailureType != "" {
			sb.WriteString(fmt.Sprintf("Failure type: %s\n", h.FailureType))
		}
		sb.WriteString(fmt.Sprintf("Action: %s\n", h.ActionText))
		sb.WriteString(fmt.Sprintf("Reason: %s\n", h.Reason))
	}
	return mcp.NewToolResultText(sb.String()), nil
}
