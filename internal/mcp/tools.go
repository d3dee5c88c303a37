package mcp

import (
	"context"
	"fmt"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/standardbeagle/webdriver-mcp/internal/browser"
)

// toolFunc does the work of one tool. Errors become error results; they
// never reach the protocol layer.
type toolFunc func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error)

func (s *Server) registerTools() {
	s.registerBrowserTools()
	s.registerSessionTools()
	s.registerElementTools()
	s.registerActionTools()
	s.registerCookieTools()
}

// addTool registers tool behind the readiness gate. A failure or panic in fn
// is reported as "Error <doing>: <message>".
func (s *Server) addTool(tool mcplib.Tool, doing string, fn toolFunc) {
	logger := s.logger.Named("tools")

	s.mcp.AddTool(tool, func(ctx context.Context, request mcplib.CallToolRequest) (result *mcplib.CallToolResult, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("tool panicked", zap.String("tool", tool.Name), zap.Any("panic", r))
				result, err = toolError(doing, fmt.Errorf("%v", r)), nil
			}
		}()

		if !s.IsReady() {
			return toolError(doing, ErrNotReady), nil
		}

		start := time.Now()
		result, err = fn(ctx, request)
		if err != nil {
			logger.Debug("tool failed", zap.String("tool", tool.Name), zap.Duration("took", time.Since(start)), zap.Error(err))
			return toolError(doing, err), nil
		}
		logger.Debug("tool completed", zap.String("tool", tool.Name), zap.Duration("took", time.Since(start)))
		return result, nil
	})
}

func toolError(doing string, err error) *mcplib.CallToolResult {
	return mcplib.NewToolResultError(fmt.Sprintf("Error %s: %v", doing, err))
}

func textResult(format string, args ...interface{}) (*mcplib.CallToolResult, error) {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{
				Type: "text",
				Text: fmt.Sprintf(format, args...),
			},
		},
	}, nil
}

// withLocator adds the by/value/timeout arguments shared by element tools.
func withLocator(opts ...mcplib.ToolOption) []mcplib.ToolOption {
	return append([]mcplib.ToolOption{
		mcplib.WithString("by",
			mcplib.Required(),
			mcplib.Enum(browser.StrategyNames()...),
			mcplib.Description("Locator strategy to find element"),
		),
		mcplib.WithString("value",
			mcplib.Required(),
			mcplib.Description("Value for the locator strategy"),
		),
		mcplib.WithNumber("timeout",
			mcplib.Description("Maximum time to wait for element in milliseconds"),
		),
	}, opts...)
}

// locator reads a Locator from the byKey and valueKey arguments plus the
// optional "timeout" in milliseconds.
func (s *Server) locator(request mcplib.CallToolRequest, byKey, valueKey string) (browser.Locator, error) {
	by, err := request.RequireString(byKey)
	if err != nil {
		return browser.Locator{}, err
	}
	value, err := request.RequireString(valueKey)
	if err != nil {
		return browser.Locator{}, err
	}

	timeout := time.Duration(request.GetFloat("timeout", 0) * float64(time.Millisecond))
	if timeout <= 0 {
		timeout = s.cfg.Browser.DefaultTimeout.Duration
	}
	return browser.NewLocator(by, value, timeout)
}

// elementTool registers a tool that resolves a locator on the current
// session and hands it to act.
func (s *Server) elementTool(tool mcplib.Tool, doing string, act func(ctx context.Context, request mcplib.CallToolRequest, d browser.Driver, loc browser.Locator) (*mcplib.CallToolResult, error)) {
	s.addTool(tool, doing, func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		loc, err := s.locator(request, "by", "value")
		if err != nil {
			return nil, err
		}
		d, err := s.registry.Driver()
		if err != nil {
			return nil, err
		}
		return act(ctx, request, d, loc)
	})
}

// driverTool registers a tool that acts on the current session.
func (s *Server) driverTool(tool mcplib.Tool, doing string, act func(ctx context.Context, request mcplib.CallToolRequest, d browser.Driver) (*mcplib.CallToolResult, error)) {
	s.addTool(tool, doing, func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		d, err := s.registry.Driver()
		if err != nil {
			return nil, err
		}
		return act(ctx, request, d)
	})
}
