package mcp

import (
	"context"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/standardbeagle/webdriver-mcp/internal/browser"
)

func (s *Server) registerElementTools() {
	s.elementTool(mcplib.NewTool("browser_find_element", withLocator(
		mcplib.WithDescription("Find an element"),
	)...), "finding element", func(ctx context.Context, _ mcplib.CallToolRequest, d browser.Driver, loc browser.Locator) (*mcplib.CallToolResult, error) {
		if err := d.FindElement(ctx, loc); err != nil {
			return nil, err
		}
		return textResult("Element found")
	})

	s.elementTool(mcplib.NewTool("browser_click", withLocator(
		mcplib.WithDescription("Perform a click on an element"),
	)...), "clicking element", func(ctx context.Context, _ mcplib.CallToolRequest, d browser.Driver, loc browser.Locator) (*mcplib.CallToolResult, error) {
		if err := d.Click(ctx, loc); err != nil {
			return nil, err
		}
		return textResult("Element clicked")
	})

	s.elementTool(mcplib.NewTool("browser_type", withLocator(
		mcplib.WithDescription("Type text into an element, replacing its current content"),
		mcplib.WithString("text",
			mcplib.Required(),
			mcplib.Description("Text to enter into the element"),
		),
	)...), "entering text", func(ctx context.Context, request mcplib.CallToolRequest, d browser.Driver, loc browser.Locator) (*mcplib.CallToolResult, error) {
		text, err := request.RequireString("text")
		if err != nil {
			return nil, err
		}
		if err := d.Type(ctx, loc, text); err != nil {
			return nil, err
		}
		return textResult("Text %q entered into element", text)
	})

	s.elementTool(mcplib.NewTool("browser_clear", withLocator(
		mcplib.WithDescription("Clear the content of an input element"),
	)...), "clearing element", func(ctx context.Context, _ mcplib.CallToolRequest, d browser.Driver, loc browser.Locator) (*mcplib.CallToolResult, error) {
		if err := d.Clear(ctx, loc); err != nil {
			return nil, err
		}
		return textResult("Element cleared")
	})

	s.elementTool(mcplib.NewTool("browser_get_element_text", withLocator(
		mcplib.WithDescription("Get the visible text of an element"),
	)...), "getting element text", func(ctx context.Context, _ mcplib.CallToolRequest, d browser.Driver, loc browser.Locator) (*mcplib.CallToolResult, error) {
		text, err := d.Text(ctx, loc)
		if err != nil {
			return nil, err
		}
		return textResult("%s", text)
	})

	s.elementTool(mcplib.NewTool("browser_get_attribute", withLocator(
		mcplib.WithDescription("Get the value of an attribute of an element"),
		mcplib.WithString("attribute",
			mcplib.Required(),
			mcplib.Description("Name of the attribute to get"),
		),
	)...), "getting attribute", func(ctx context.Context, request mcplib.CallToolRequest, d browser.Driver, loc browser.Locator) (*mcplib.CallToolResult, error) {
		name, err := request.RequireString("attribute")
		if err != nil {
			return nil, err
		}
		value, ok, err := d.Attribute(ctx, loc, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			return textResult("Attribute %q has value: null", name)
		}
		return textResult("Attribute %q has value: %s", name, value)
	})

	s.elementTool(mcplib.NewTool("browser_element_is_displayed", withLocator(
		mcplib.WithDescription("Check whether an element is displayed"),
	)...), "checking element display status", func(ctx context.Context, _ mcplib.CallToolRequest, d browser.Driver, loc browser.Locator) (*mcplib.CallToolResult, error) {
		shown, err := d.IsDisplayed(ctx, loc)
		if err != nil {
			return nil, err
		}
		return textResult("Element is displayed: %t", shown)
	})

	s.elementTool(mcplib.NewTool("browser_switch_to_frame", withLocator(
		mcplib.WithDescription("Switch to an iframe element. Later element tools search inside it"),
	)...), "switching to frame", func(ctx context.Context, _ mcplib.CallToolRequest, d browser.Driver, loc browser.Locator) (*mcplib.CallToolResult, error) {
		if err := d.SwitchToFrame(ctx, loc); err != nil {
			return nil, err
		}
		return textResult("Switched to iframe")
	})

	s.driverTool(mcplib.NewTool("browser_switch_to_default_content",
		mcplib.WithDescription("Switch back from an iframe to the top-level document"),
	), "switching to default content", func(ctx context.Context, _ mcplib.CallToolRequest, d browser.Driver) (*mcplib.CallToolResult, error) {
		if err := d.SwitchToDefault(ctx); err != nil {
			return nil, err
		}
		return textResult("Switched to default content")
	})

	s.elementTool(mcplib.NewTool("browser_file_upload", withLocator(
		mcplib.WithDescription("Upload a file using a file input element"),
		mcplib.WithString("filePath",
			mcplib.Required(),
			mcplib.Description("Absolute path to the file to upload"),
		),
	)...), "uploading file", func(ctx context.Context, request mcplib.CallToolRequest, d browser.Driver, loc browser.Locator) (*mcplib.CallToolResult, error) {
		path, err := request.RequireString("filePath")
		if err != nil {
			return nil, err
		}
		if err := d.UploadFile(ctx, loc, path); err != nil {
			return nil, err
		}
		return textResult("File upload initiated")
	})
}
