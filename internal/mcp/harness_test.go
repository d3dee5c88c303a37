package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/webdriver-mcp/internal/browser/browsertest"
	"github.com/standardbeagle/webdriver-mcp/internal/config"
)

type harness struct {
	t        *testing.T
	srv      *Server
	launcher *browsertest.Launcher
	nextID   int64
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Shutdown.SessionTimeout.Duration = 200 * time.Millisecond
	cfg.Shutdown.Timeout.Duration = time.Second
	return cfg
}

// newHarness returns a started server backed by a fake launcher.
func newHarness(t *testing.T, mutate ...func(*config.Config)) *harness {
	t.Helper()
	h := newUnstartedHarness(t, mutate...)
	require.NoError(t, h.srv.Start())
	return h
}

func newUnstartedHarness(t *testing.T, mutate ...func(*config.Config)) *harness {
	t.Helper()
	cfg := testConfig(t)
	for _, m := range mutate {
		m(cfg)
	}

	launcher := &browsertest.Launcher{}
	srv, err := NewServer(cfg, Options{Launcher: launcher})
	require.NoError(t, err)

	h := &harness{t: t, srv: srv, launcher: launcher}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	})
	h.rpc("initialize", map[string]interface{}{
		"protocolVersion": "2024-11-05",
		"capabilities":    map[string]interface{}{},
		"clientInfo":      map[string]interface{}{"name": "test", "version": "1.0"},
	})
	return h
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (h *harness) rpc(method string, params interface{}) rpcResponse {
	h.t.Helper()

	msg, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      atomic.AddInt64(&h.nextID, 1),
		"method":  method,
		"params":  params,
	})
	require.NoError(h.t, err)

	reply := h.srv.MCPServer().HandleMessage(context.Background(), msg)
	data, err := json.Marshal(reply)
	require.NoError(h.t, err)

	var resp rpcResponse
	require.NoError(h.t, json.Unmarshal(data, &resp))
	return resp
}

type toolContent struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Data     string `json:"data"`
	MIMEType string `json:"mimeType"`
}

type toolResponse struct {
	Content []toolContent `json:"content"`
	IsError bool          `json:"isError"`
}

// Text joins the text parts of the result.
func (r toolResponse) Text() string {
	var parts []string
	for _, c := range r.Content {
		if c.Type == "text" {
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func (h *harness) call(name string, args map[string]interface{}) toolResponse {
	h.t.Helper()
	if args == nil {
		args = map[string]interface{}{}
	}

	resp := h.rpc("tools/call", map[string]interface{}{
		"name":      name,
		"arguments": args,
	})
	require.Nil(h.t, resp.Error, "tool %s returned a protocol error", name)

	var out toolResponse
	require.NoError(h.t, json.Unmarshal(resp.Result, &out))
	return out
}

// open starts a browser through the tool and returns the new session id.
func (h *harness) open(kind string) string {
	h.t.Helper()
	res := h.call("browser_open", map[string]interface{}{"browser": kind})
	require.False(h.t, res.IsError, res.Text())

	id, ok := h.srv.Registry().CurrentSession()
	require.True(h.t, ok)
	require.Equal(h.t, "Browser started with session_id: "+id, res.Text())
	return id
}
