package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/standardbeagle/webdriver-mcp/internal/browser"
)

func (s *Server) registerActionTools() {
	s.registerPointerTools()
	s.registerFormTools()
	s.registerScrollTools()
	s.registerPageTools()
}

func (s *Server) registerPointerTools() {
	s.elementTool(mcplib.NewTool("browser_hover", withLocator(
		mcplib.WithDescription("Move the mouse to hover over an element"),
	)...), "hovering over element", func(ctx context.Context, _ mcplib.CallToolRequest, d browser.Driver, loc browser.Locator) (*mcplib.CallToolResult, error) {
		if err := d.Hover(ctx, loc); err != nil {
			return nil, err
		}
		return textResult("Hovered over element")
	})

	s.elementTool(mcplib.NewTool("browser_wait_for_element", withLocator(
		mcplib.WithDescription("Wait for an element to be present"),
		mcplib.WithNumber("timeout",
			mcplib.Required(),
			mcplib.Description("Timeout in milliseconds"),
		),
	)...), "waiting for element", func(ctx context.Context, _ mcplib.CallToolRequest, d browser.Driver, loc browser.Locator) (*mcplib.CallToolResult, error) {
		if err := d.WaitFor(ctx, loc); err != nil {
			return nil, err
		}
		return textResult("Waited for element: %s", loc.Value)
	})

	s.elementTool(mcplib.NewTool("browser_drag_and_drop", withLocator(
		mcplib.WithDescription("Drag an element and drop it onto another element"),
		mcplib.WithString("targetBy",
			mcplib.Required(),
			mcplib.Enum(browser.StrategyNames()...),
			mcplib.Description("Locator strategy to find target element"),
		),
		mcplib.WithString("targetValue",
			mcplib.Required(),
			mcplib.Description("Value for the target locator strategy"),
		),
	)...), "performing drag and drop", func(ctx context.Context, request mcplib.CallToolRequest, d browser.Driver, source browser.Locator) (*mcplib.CallToolResult, error) {
		target, err := s.locator(request, "targetBy", "targetValue")
		if err != nil {
			return nil, err
		}
		if err := d.DragAndDrop(ctx, source, target); err != nil {
			return nil, err
		}
		return textResult("Drag and drop completed")
	})

	s.elementTool(mcplib.NewTool("browser_double_click", withLocator(
		mcplib.WithDescription("Perform a double click on an element"),
	)...), "performing double click", func(ctx context.Context, _ mcplib.CallToolRequest, d browser.Driver, loc browser.Locator) (*mcplib.CallToolResult, error) {
		if err := d.DoubleClick(ctx, loc); err != nil {
			return nil, err
		}
		return textResult("Double click performed")
	})

	s.elementTool(mcplib.NewTool("browser_right_click", withLocator(
		mcplib.WithDescription("Perform a right click (context click) on an element"),
	)...), "performing right click", func(ctx context.Context, _ mcplib.CallToolRequest, d browser.Driver, loc browser.Locator) (*mcplib.CallToolResult, error) {
		if err := d.RightClick(ctx, loc); err != nil {
			return nil, err
		}
		return textResult("Right click performed")
	})

	pressTool := mcplib.NewTool("browser_key_press",
		mcplib.WithDescription("Simulate pressing a keyboard key"),
		mcplib.WithString("key",
			mcplib.Required(),
			mcplib.Description("Key to press (e.g., 'Enter', 'Tab', 'a', etc.)"),
		),
	)
	s.driverTool(pressTool, "pressing key", func(ctx context.Context, request mcplib.CallToolRequest, d browser.Driver) (*mcplib.CallToolResult, error) {
		key, err := request.RequireString("key")
		if err != nil {
			return nil, err
		}
		if err := d.PressKey(ctx, key); err != nil {
			return nil, err
		}
		return textResult("Key '%s' pressed", key)
	})
}

func (s *Server) registerFormTools() {
	s.elementTool(mcplib.NewTool("browser_select_dropdown_by_text", withLocator(
		mcplib.WithDescription("Select an option in a dropdown by its visible text"),
		mcplib.WithString("text",
			mcplib.Required(),
			mcplib.Description("Visible text of the option to select"),
		),
	)...), "selecting dropdown option by text", func(ctx context.Context, request mcplib.CallToolRequest, d browser.Driver, loc browser.Locator) (*mcplib.CallToolResult, error) {
		text, err := request.RequireString("text")
		if err != nil {
			return nil, err
		}
		if err := d.SelectByText(ctx, loc, text); err != nil {
			return nil, err
		}
		return textResult("Selected dropdown option by text: %s", text)
	})

	s.elementTool(mcplib.NewTool("browser_select_dropdown_by_value", withLocator(
		mcplib.WithDescription("Select an option in a dropdown by its value attribute"),
		mcplib.WithString("optionValue",
			mcplib.Required(),
			mcplib.Description("Value of the option to select"),
		),
	)...), "selecting dropdown option by value", func(ctx context.Context, request mcplib.CallToolRequest, d browser.Driver, loc browser.Locator) (*mcplib.CallToolResult, error) {
		value, err := request.RequireString("optionValue")
		if err != nil {
			return nil, err
		}
		if err := d.SelectByValue(ctx, loc, value); err != nil {
			return nil, err
		}
		return textResult("Selected dropdown option by value: %s", value)
	})

	checkbox := func(name, description, doing, done string, checked bool) {
		s.elementTool(mcplib.NewTool(name, withLocator(
			mcplib.WithDescription(description),
		)...), doing, func(ctx context.Context, _ mcplib.CallToolRequest, d browser.Driver, loc browser.Locator) (*mcplib.CallToolResult, error) {
			if err := d.SetChecked(ctx, loc, checked); err != nil {
				return nil, err
			}
			return textResult("%s", done)
		})
	}
	checkbox("browser_select_checkbox", "Select a checkbox if it is not already selected", "selecting checkbox", "Selected checkbox", true)
	checkbox("browser_unselect_checkbox", "Unselect a checkbox if it is selected", "unselecting checkbox", "Unselected checkbox", false)

	s.elementTool(mcplib.NewTool("browser_submit_form", withLocator(
		mcplib.WithDescription("Submit a form, located by the form or any element inside it"),
	)...), "submitting form", func(ctx context.Context, _ mcplib.CallToolRequest, d browser.Driver, loc browser.Locator) (*mcplib.CallToolResult, error) {
		if err := d.SubmitForm(ctx, loc); err != nil {
			return nil, err
		}
		return textResult("Submitted form")
	})

	s.elementTool(mcplib.NewTool("browser_focus_element", withLocator(
		mcplib.WithDescription("Give keyboard focus to an element"),
	)...), "focusing on element", func(ctx context.Context, _ mcplib.CallToolRequest, d browser.Driver, loc browser.Locator) (*mcplib.CallToolResult, error) {
		if err := d.Focus(ctx, loc); err != nil {
			return nil, err
		}
		return textResult("Focused on element")
	})

	s.elementTool(mcplib.NewTool("browser_blur_element", withLocator(
		mcplib.WithDescription("Remove keyboard focus from an element"),
	)...), "removing focus from element", func(ctx context.Context, _ mcplib.CallToolRequest, d browser.Driver, loc browser.Locator) (*mcplib.CallToolResult, error) {
		if err := d.Blur(ctx, loc); err != nil {
			return nil, err
		}
		return textResult("Removed focus from element")
	})
}

func (s *Server) registerScrollTools() {
	s.elementTool(mcplib.NewTool("browser_scroll_to_element", withLocator(
		mcplib.WithDescription("Scroll an element into view"),
	)...), "scrolling to element", func(ctx context.Context, _ mcplib.CallToolRequest, d browser.Driver, loc browser.Locator) (*mcplib.CallToolResult, error) {
		if err := d.ScrollToElement(ctx, loc); err != nil {
			return nil, err
		}
		return textResult("Scrolled to element")
	})

	s.driverTool(mcplib.NewTool("browser_scroll_to_top",
		mcplib.WithDescription("Scroll to the top of the page"),
	), "scrolling to top", func(ctx context.Context, _ mcplib.CallToolRequest, d browser.Driver) (*mcplib.CallToolResult, error) {
		if err := d.ScrollToTop(ctx); err != nil {
			return nil, err
		}
		return textResult("Scrolled to top of the page")
	})

	s.driverTool(mcplib.NewTool("browser_scroll_to_bottom",
		mcplib.WithDescription("Scroll to the bottom of the page"),
	), "scrolling to bottom", func(ctx context.Context, _ mcplib.CallToolRequest, d browser.Driver) (*mcplib.CallToolResult, error) {
		if err := d.ScrollToBottom(ctx); err != nil {
			return nil, err
		}
		return textResult("Scrolled to bottom of the page")
	})

	s.driverTool(mcplib.NewTool("browser_scroll_to_coordinates",
		mcplib.WithDescription("Scroll to absolute page coordinates"),
		mcplib.WithNumber("x", mcplib.Required(), mcplib.Description("X coordinate")),
		mcplib.WithNumber("y", mcplib.Required(), mcplib.Description("Y coordinate")),
	), "scrolling to coordinates", func(ctx context.Context, request mcplib.CallToolRequest, d browser.Driver) (*mcplib.CallToolResult, error) {
		x, y, err := coordinates(request)
		if err != nil {
			return nil, err
		}
		if err := d.ScrollTo(ctx, x, y); err != nil {
			return nil, err
		}
		return textResult("Scrolled to coordinates (%g, %g)", x, y)
	})

	s.driverTool(mcplib.NewTool("browser_scroll_by_pixels",
		mcplib.WithDescription("Scroll by a relative amount of pixels"),
		mcplib.WithNumber("x", mcplib.Required(), mcplib.Description("Number of pixels to scroll horizontally")),
		mcplib.WithNumber("y", mcplib.Required(), mcplib.Description("Number of pixels to scroll vertically")),
	), "scrolling by pixels", func(ctx context.Context, request mcplib.CallToolRequest, d browser.Driver) (*mcplib.CallToolResult, error) {
		x, y, err := coordinates(request)
		if err != nil {
			return nil, err
		}
		if err := d.ScrollBy(ctx, x, y); err != nil {
			return nil, err
		}
		return textResult("Scrolled by pixels (%g, %g)", x, y)
	})
}

func coordinates(request mcplib.CallToolRequest) (float64, float64, error) {
	x, err := request.RequireFloat("x")
	if err != nil {
		return 0, 0, err
	}
	y, err := request.RequireFloat("y")
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func (s *Server) registerPageTools() {
	scriptTool := mcplib.NewTool("browser_execute_script",
		mcplib.WithDescription(`Execute JavaScript in the current frame.

The script runs as a function body: use "return" to send a value back. Results are rendered as JSON.`),
		mcplib.WithString("script",
			mcplib.Required(),
			mcplib.Description("JavaScript code to execute"),
		),
	)
	s.driverTool(scriptTool, "executing script", func(ctx context.Context, request mcplib.CallToolRequest, d browser.Driver) (*mcplib.CallToolResult, error) {
		script, err := request.RequireString("script")
		if err != nil {
			return nil, err
		}
		result, err := d.ExecuteScript(ctx, script)
		if err != nil {
			return nil, err
		}
		return textResult("Script executed successfully: %s", formatScriptResult(result))
	})

	screenshotTool := mcplib.NewTool("browser_screenshot",
		mcplib.WithDescription("Take a screenshot of the current page"),
		mcplib.WithString("outputPath",
			mcplib.Description("Optional path where to save the screenshot. If not provided, returns base64 data."),
		),
	)
	s.driverTool(screenshotTool, "taking screenshot", func(ctx context.Context, request mcplib.CallToolRequest, d browser.Driver) (*mcplib.CallToolResult, error) {
		png, err := d.Screenshot(ctx)
		if err != nil {
			return nil, err
		}

		if outputPath := request.GetString("outputPath", ""); outputPath != "" {
			path := s.screenshotPath(outputPath)
			if err := os.WriteFile(path, png, 0644); err != nil {
				return nil, fmt.Errorf("failed to write screenshot: %w", err)
			}
			return textResult("Screenshot saved to %s", path)
		}

		encoded := base64.StdEncoding.EncodeToString(png)
		return &mcplib.CallToolResult{
			Content: []mcplib.Content{
				mcplib.TextContent{Type: "text", Text: "Screenshot captured as base64:"},
				mcplib.TextContent{Type: "text", Text: encoded},
				mcplib.ImageContent{Type: "image", Data: encoded, MIMEType: "image/png"},
			},
		}, nil
	})
}

// screenshotPath places relative paths under the configured screenshot directory.
func (s *Server) screenshotPath(p string) string {
	if filepath.IsAbs(p) || s.cfg.Browser.ScreenshotDir == "" {
		return p
	}
	return filepath.Join(s.cfg.Browser.ScreenshotDir, p)
}

func formatScriptResult(v interface{}) string {
	switch r := v.(type) {
	case nil:
		return "null"
	case string:
		return r
	default:
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Sprint(r)
		}
		return string(data)
	}
}
