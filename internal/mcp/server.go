// Package mcp exposes the maintenance copilot over the Model Context
// Protocol so other agents can drive it as a tool.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/maintly/maintly/internal/agent"
	"github.com/maintly/maintly/internal/machines"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes the chat engine and machine reads.
type Server struct {
	engine   *agent.Engine
	machines *machines.Store
	agents   *agent.Store
	memory   agent.SimilarityIndex
	mcp      *server.MCPServer
}

// NewServer creates an MCP server. memory may be nil when the similarity
// index is disabled.
func NewServer(engine *agent.Engine, machineStore *machines.Store, agentStore *agent.Store, memory agent.SimilarityIndex) *Server {
	s := &Server{
		engine:   engine,
		machines: machineStore,
		agents:   agentStore,
		memory:   memory,
	}

	s.mcp = server.NewMCPServer(
		"maintly",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers.
func (s *Server) registerTools() {
	s.mcp.AddTool(chatTool, s.handleChat)
	s.mcp.AddTool(listMachinesTool, s.handleListMachines)
	s.mcp.AddTool(getMachineContextTool, s.handleGetMachineContext)
	s.mcp.AddTool(searchRecommendationsTool, s.handleSearchRecommendations)
}

// Serve starts the MCP server on stdio. Stdout carries MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
