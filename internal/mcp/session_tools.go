package mcp

import (
	"context"
	"fmt"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

func (s *Server) registerSessionTools() {
	listTool := mcplib.NewTool("browser_list_sessions",
		mcplib.WithDescription("List open browser sessions and mark the current one"),
	)
	s.addTool(listTool, "listing sessions", func(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		ids := s.registry.IDs()
		if len(ids) == 0 {
			return textResult("No open browser sessions")
		}

		current, _ := s.registry.CurrentSession()
		var b strings.Builder
		b.WriteString("Open browser sessions:")
		for _, id := range ids {
			b.WriteString("\n")
			if id == current {
				b.WriteString("* ")
			} else {
				b.WriteString("  ")
			}
			b.WriteString(id)
		}
		return textResult("%s", b.String())
	})

	switchTool := mcplib.NewTool("browser_switch_session",
		mcplib.WithDescription(`Make an open browser session the current one.

Use browser_list_sessions to find session ids. Later tool calls act on the selected session.`),
		mcplib.WithString("sessionId",
			mcplib.Required(),
			mcplib.Description("Id returned by browser_open"),
		),
	)
	s.addTool(switchTool, "switching session", func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		id, err := request.RequireString("sessionId")
		if err != nil {
			return nil, err
		}
		if _, ok := s.registry.Lookup(id); !ok {
			return nil, fmt.Errorf("unknown session %s", id)
		}
		s.registry.SetCurrentSession(id)

		s.logger.Info("current session switched", zap.String("session_id", id))
		return textResult("Switched to session %s", id)
	})
}
