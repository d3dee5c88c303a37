package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/standardbeagle/webdriver-mcp/internal/browser"
)

const maxCookieLength = 4096

func (s *Server) registerCookieTools() {
	s.driverTool(mcplib.NewTool("browser_get_cookies",
		mcplib.WithDescription("Get all cookies visible to the current page"),
	), "getting cookies", func(ctx context.Context, _ mcplib.CallToolRequest, d browser.Driver) (*mcplib.CallToolResult, error) {
		cookies, err := d.Cookies(ctx)
		if err != nil {
			return nil, err
		}
		sort.Slice(cookies, func(i, j int) bool { return cookies[i].Name < cookies[j].Name })

		data, err := json.Marshal(cookies)
		if err != nil {
			return nil, err
		}
		return textResult("Cookies: %s", data)
	})

	s.driverTool(mcplib.NewTool("browser_get_cookie_by_name",
		mcplib.WithDescription("Get a cookie by name"),
		mcplib.WithString("name",
			mcplib.Required(),
			mcplib.Description("Name of the cookie to get"),
		),
	), "getting cookie", func(ctx context.Context, request mcplib.CallToolRequest, d browser.Driver) (*mcplib.CallToolResult, error) {
		name, err := request.RequireString("name")
		if err != nil {
			return nil, err
		}
		c, err := d.Cookie(ctx, name)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return textResult("Cookie: null")
		}
		data, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		return textResult("Cookie: %s", data)
	})

	s.driverTool(mcplib.NewTool("browser_add_cookie_by_name",
		mcplib.WithDescription("Add a cookie to the browser"),
		mcplib.WithString("name",
			mcplib.Required(),
			mcplib.Description("Name of the cookie to add"),
		),
		mcplib.WithString("value",
			mcplib.Required(),
			mcplib.MinLength(1),
			mcplib.MaxLength(maxCookieLength),
			mcplib.Description("Value of the cookie to add"),
		),
	), "adding cookie", func(ctx context.Context, request mcplib.CallToolRequest, d browser.Driver) (*mcplib.CallToolResult, error) {
		name, err := request.RequireString("name")
		if err != nil {
			return nil, err
		}
		value, err := request.RequireString("value")
		if err != nil {
			return nil, err
		}
		if err := checkCookieLength("value", value); err != nil {
			return nil, err
		}
		if err := d.AddCookie(ctx, browser.Cookie{Name: name, Value: value}); err != nil {
			return nil, err
		}
		return textResult("Added cookie: %s", name)
	})

	s.driverTool(mcplib.NewTool("browser_set_cookie_object",
		mcplib.WithDescription("Set a cookie in the browser from a Set-Cookie style string"),
		mcplib.WithString("cookie",
			mcplib.Required(),
			mcplib.MinLength(1),
			mcplib.MaxLength(maxCookieLength),
			mcplib.Description("Cookie string to set, e.g. 'name=value; Path=/; HttpOnly'"),
		),
	), "setting cookie", func(ctx context.Context, request mcplib.CallToolRequest, d browser.Driver) (*mcplib.CallToolResult, error) {
		raw, err := request.RequireString("cookie")
		if err != nil {
			return nil, err
		}
		if err := checkCookieLength("cookie", raw); err != nil {
			return nil, err
		}
		c, err := browser.ParseCookie(raw)
		if err != nil {
			return nil, err
		}
		if err := d.AddCookie(ctx, c); err != nil {
			return nil, err
		}
		return textResult("Set cookie: %s", raw)
	})

	s.driverTool(mcplib.NewTool("browser_delete_cookie",
		mcplib.WithDescription("Delete a cookie by name"),
		mcplib.WithString("name",
			mcplib.Required(),
			mcplib.Description("Name of the cookie to delete"),
		),
	), "deleting cookie", func(ctx context.Context, request mcplib.CallToolRequest, d browser.Driver) (*mcplib.CallToolResult, error) {
		name, err := request.RequireString("name")
		if err != nil {
			return nil, err
		}
		if err := d.DeleteCookie(ctx, name); err != nil {
			return nil, err
		}
		return textResult("Deleted cookie: %s", name)
	})

	s.driverTool(mcplib.NewTool("browser_delete_cookies",
		mcplib.WithDescription("Delete all cookies from the browser"),
	), "deleting cookies", func(ctx context.Context, _ mcplib.CallToolRequest, d browser.Driver) (*mcplib.CallToolResult, error) {
		if err := d.DeleteAllCookies(ctx); err != nil {
			return nil, err
		}
		return textResult("Deleted all cookies")
	})
}

func checkCookieLength(field, v string) error {
	if n := len(v); n < 1 || n > maxCookieLength {
		return fmt.Errorf("%s must be between 1 and %d characters, got %d", field, maxCookieLength, n)
	}
	return nil
}
