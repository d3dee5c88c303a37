package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resourceResponse struct {
	Contents []struct {
		URI      string `json:"uri"`
		MIMEType string `json:"mimeType"`
		Text     string `json:"text"`
	} `json:"contents"`
}

func (h *harness) readResource(uri string) resourceResponse {
	h.t.Helper()
	resp := h.rpc("resources/read", map[string]interface{}{"uri": uri})
	require.Nil(h.t, resp.Error, "reading %s", uri)

	var out resourceResponse
	require.NoError(h.t, json.Unmarshal(resp.Result, &out))
	require.Len(h.t, out.Contents, 1)
	return out
}

func TestResourcesList(t *testing.T) {
	h := newHarness(t)

	resp := h.rpc("resources/list", map[string]interface{}{})
	require.Nil(t, resp.Error)
	for _, uri := range []string{browserStatusURI, serverHealthURI, serverStatsURI} {
		assert.Contains(t, string(resp.Result), `"uri":"`+uri+`"`)
	}
}

func TestBrowserStatusResource(t *testing.T) {
	h := newHarness(t)

	res := h.readResource(browserStatusURI)
	assert.Equal(t, "No active browser session", res.Contents[0].Text)
	assert.Equal(t, "text/plain", res.Contents[0].MIMEType)

	id := h.open("safari")
	res = h.readResource(browserStatusURI)
	assert.Equal(t, "Active browser session: "+id, res.Contents[0].Text)
}

func TestHealthResource(t *testing.T) {
	h := newHarness(t)
	h.open("chrome")

	res := h.readResource(serverHealthURI)
	assert.Equal(t, "application/json", res.Contents[0].MIMEType)

	var health HealthStatus
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "webdriver-mcp", health.ServerName)
	assert.Equal(t, 1, health.ActiveSessions)
	assert.GreaterOrEqual(t, health.Uptime, 0.0)
}

func TestStatsResource(t *testing.T) {
	h := newHarness(t)
	first := h.open("chrome")
	second := h.open("firefox")

	res := h.readResource(serverStatsURI)

	var stats Stats
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &stats))
	assert.Equal(t, "ready", stats.Server.State)
	assert.False(t, stats.Server.IsShuttingDown)
	assert.NotEmpty(t, stats.Server.MemoryUsage.Summary)
	assert.Positive(t, stats.Server.MemoryUsage.Goroutines)
	assert.Equal(t, 2, stats.Sessions.Total)
	assert.ElementsMatch(t, []string{first, second}, stats.Sessions.SessionIDs)
	require.NotNil(t, stats.Sessions.CurrentSession)
	assert.Equal(t, second, *stats.Sessions.CurrentSession)
}

func TestStatsAfterStop(t *testing.T) {
	h := newHarness(t)
	h.open("chrome")
	require.NoError(t, h.srv.Stop(context.Background()))

	stats := h.srv.Stats()
	assert.Equal(t, "stopped", stats.Server.State)
	assert.True(t, stats.Server.IsShuttingDown)
	assert.Zero(t, stats.Sessions.Total)
	assert.Nil(t, stats.Sessions.CurrentSession)
}
