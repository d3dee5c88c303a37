package mcp

import (
	"context"
	"errors"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/standardbeagle/webdriver-mcp/internal/browser"
	"github.com/standardbeagle/webdriver-mcp/internal/session"
)

func (s *Server) registerBrowserTools() {
	openTool := mcplib.NewTool("browser_open",
		mcplib.WithDescription(`Open a new browser session and make it the current session.

**When to use:**
- Before any other browser_* tool: every tool acts on the current session
- To run a second browser side by side; earlier sessions stay open

Returns the new session_id. Use browser_switch_session to go back to an earlier one.`),
		mcplib.WithString("browser",
			mcplib.Required(),
			mcplib.Enum(browser.KindNames()...),
			mcplib.Description("Browser to launch"),
		),
		mcplib.WithObject("options",
			mcplib.Description("Browser options"),
			mcplib.Properties(map[string]interface{}{
				"headless": map[string]interface{}{
					"type":        "boolean",
					"description": "Run browser in headless mode",
				},
				"arguments": map[string]interface{}{
					"type":        "array",
					"description": "Additional browser arguments",
					"items":       map[string]interface{}{"type": "string"},
				},
			}),
		),
	)
	s.addTool(openTool, "starting browser", s.handleOpen)

	navigateTool := mcplib.NewTool("browser_navigate",
		mcplib.WithDescription("Navigate to a URL"),
		mcplib.WithString("url",
			mcplib.Required(),
			mcplib.Description("URL to navigate to"),
		),
	)
	s.driverTool(navigateTool, "navigating", func(ctx context.Context, request mcplib.CallToolRequest, d browser.Driver) (*mcplib.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return nil, err
		}
		if err := s.checkNavigation(url); err != nil {
			return nil, err
		}
		if err := d.Navigate(ctx, url); err != nil {
			return nil, err
		}
		return textResult("Navigated to %s", url)
	})

	s.driverTool(mcplib.NewTool("browser_navigate_back", mcplib.WithDescription("Navigate back in the browser")),
		"navigating back", func(ctx context.Context, _ mcplib.CallToolRequest, d browser.Driver) (*mcplib.CallToolResult, error) {
			if err := d.Back(ctx); err != nil {
				return nil, err
			}
			return textResult("Navigated back")
		})

	s.driverTool(mcplib.NewTool("browser_navigate_forward", mcplib.WithDescription("Navigate forward in the browser")),
		"navigating forward", func(ctx context.Context, _ mcplib.CallToolRequest, d browser.Driver) (*mcplib.CallToolResult, error) {
			if err := d.Forward(ctx); err != nil {
				return nil, err
			}
			return textResult("Navigated forward")
		})

	resizeTool := mcplib.NewTool("browser_resize",
		mcplib.WithDescription("Resize the browser window"),
		mcplib.WithNumber("width",
			mcplib.Required(),
			mcplib.Description("New width of the browser window"),
		),
		mcplib.WithNumber("height",
			mcplib.Required(),
			mcplib.Description("New height of the browser window"),
		),
	)
	s.driverTool(resizeTool, "resizing browser window", func(ctx context.Context, request mcplib.CallToolRequest, d browser.Driver) (*mcplib.CallToolResult, error) {
		width, err := request.RequireInt("width")
		if err != nil {
			return nil, err
		}
		height, err := request.RequireInt("height")
		if err != nil {
			return nil, err
		}
		if width <= 0 || height <= 0 {
			return nil, fmt.Errorf("window size must be positive, got %dx%d", width, height)
		}
		if err := d.Resize(ctx, width, height); err != nil {
			return nil, err
		}
		return textResult("Browser window resized to %dx%d", width, height)
	})

	closeTool := mcplib.NewTool("browser_close",
		mcplib.WithDescription("Close the current browser session"),
	)
	s.addTool(closeTool, "closing session", s.handleClose)
}

func (s *Server) handleOpen(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	tag, err := request.RequireString("browser")
	if err != nil {
		return nil, err
	}
	kind, err := browser.ParseKind(tag)
	if err != nil {
		return nil, err
	}

	opts, err := s.browserOptions(request)
	if err != nil {
		return nil, err
	}
	spec, err := browser.NewSpec(kind, opts)
	if err != nil {
		return nil, err
	}

	d, err := s.launcher.Launch(ctx, spec)
	if err != nil {
		return nil, err
	}

	id := session.NewID(kind)

	// Registration happens under the lifecycle lock so a drain that has
	// already taken its snapshot never misses this driver.
	s.mu.Lock()
	if s.shuttingDown {
		s.mu.Unlock()
		if qerr := d.Quit(); qerr != nil {
			s.logger.Warn("failed to quit browser opened during shutdown", zap.Error(qerr))
		}
		return nil, ErrShuttingDown
	}
	s.registry.AddDriver(id, d)
	s.registry.SetCurrentSession(id)
	s.mu.Unlock()

	s.logger.Info("browser session opened",
		zap.String("session_id", id),
		zap.String("browser", string(kind)),
		zap.Bool("headless", opts.Headless))
	return textResult("Browser started with session_id: %s", id)
}

// browserOptions reads the optional "options" object. Headless falls back to
// the configured default.
func (s *Server) browserOptions(request mcplib.CallToolRequest) (browser.Options, error) {
	opts := browser.Options{Headless: s.cfg.Browser.DefaultHeadless}

	raw, ok := request.GetArguments()["options"]
	if !ok || raw == nil {
		return opts, nil
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return opts, fmt.Errorf("options must be an object")
	}

	if v, ok := m["headless"]; ok && v != nil {
		b, ok := v.(bool)
		if !ok {
			return opts, fmt.Errorf("options.headless must be a boolean")
		}
		opts.Headless = b
	}
	if v, ok := m["arguments"]; ok && v != nil {
		list, ok := v.([]interface{})
		if !ok {
			return opts, fmt.Errorf("options.arguments must be an array of strings")
		}
		for _, item := range list {
			arg, ok := item.(string)
			if !ok {
				return opts, fmt.Errorf("options.arguments must be an array of strings")
			}
			opts.Arguments = append(opts.Arguments, arg)
		}
	}
	return opts, nil
}

func (s *Server) handleClose(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	d, err := s.registry.Driver()
	if err != nil {
		return nil, err
	}
	id, _ := s.registry.CurrentSession()

	if err := session.QuitWithin(d, s.cfg.Shutdown.SessionTimeout.Duration); err != nil {
		if !errors.Is(err, session.ErrCleanupTimeout) {
			return nil, err
		}
		// The quit keeps running on its own goroutine; the handle is dropped.
		s.registry.RemoveDriver(id)
		s.registry.ResetCurrentSession()
		s.logger.Warn("browser session abandoned", zap.String("session_id", id), zap.Error(err))
		return nil, err
	}
	s.registry.RemoveDriver(id)
	s.registry.ResetCurrentSession()

	s.logger.Info("browser session closed", zap.String("session_id", id))
	return textResult("Browser session %s closed", id)
}
