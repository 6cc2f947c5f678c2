package handler

import (
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	expertservice "github.com/verifai/automcp/internal/service/expert"
	historyservice "github.com/verifai/automcp/internal/service/history"
)

// ServerName and ServerVersion identify this server during the MCP handshake.
const (
	ServerName    = "automcp"
	ServerVersion = "1.0.0"
)

// NewServer wires every tool to the core services and returns the assembled
// MCP server, ready to be served over stdio.
func NewServer(expertSvc *expertservice.Service, historySvc *historyservice.Service) *server.MCPServer {
	s := server.NewMCPServer(ServerName, ServerVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	NewExpertHandler(expertSvc).RegisterTools(s)
	NewHistoryHandler(historySvc).RegisterTools(s)
	return s
}

// errorResult surfaces a recoverable failure as tool-result text. Nothing
// here is fatal to the process; the server stays available for later calls.
func errorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError("Error: " + err.Error())
}

// formatMillis renders an epoch-ms timestamp for listings.
func formatMillis(ms int64) string {
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
}
