package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

const (
	browserStatusURI = "browser-status://current"
	serverHealthURI  = "server-health://status"
	serverStatsURI   = "server-stats://current"
)

func (s *Server) registerResources() {
	s.mcp.AddResource(mcplib.NewResource(browserStatusURI, "browser-status",
		mcplib.WithResourceDescription("The current browser session"),
		mcplib.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      request.Params.URI,
				MIMEType: "text/plain",
				Text:     s.browserStatus(),
			},
		}, nil
	})

	s.mcp.AddResource(mcplib.NewResource(serverHealthURI, "server-health",
		mcplib.WithResourceDescription("Server readiness, uptime and open session count"),
		mcplib.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		return jsonResource(request.Params.URI, s.HealthStatus())
	})

	s.mcp.AddResource(mcplib.NewResource(serverStatsURI, "server-stats",
		mcplib.WithResourceDescription("Server memory usage and browser session details"),
		mcplib.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		return jsonResource(request.Params.URI, s.Stats())
	})
}

func (s *Server) browserStatus() string {
	if id, ok := s.registry.CurrentSession(); ok {
		return "Active browser session: " + id
	}
	return "No active browser session"
}

func jsonResource(uri string, v interface{}) ([]mcplib.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
