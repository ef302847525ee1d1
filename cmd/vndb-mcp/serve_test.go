package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pario-ai/vndb-mcp/pkg/clock"
	"github.com/pario-ai/vndb-mcp/pkg/config"
	"github.com/pario-ai/vndb-mcp/pkg/logging"
	"github.com/pario-ai/vndb-mcp/pkg/mcp"
	"github.com/pario-ai/vndb-mcp/pkg/models"
)

func newKana(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/vn", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"id":"v17","title":"Ever17 -the out of infinity-","released":"2002-08-29","image":{"url":"https://t.vndb.org/cv/88/4488.jpg"}}],"more":false}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testApp(t *testing.T, endpoint string) *app {
	t.Helper()
	cfg := config.Default()
	cfg.VNDB.Endpoint = endpoint
	cfg.Notes.DBPath = filepath.Join(t.TempDir(), "notes.db")
	a, err := newApp(cfg, logging.Discard(), clock.Real{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func toolCall(t *testing.T, id int, name string, args string) string {
	t.Helper()
	params, err := json.Marshal(mcp.ToolCallParams{Name: name, Arguments: json.RawMessage(args)})
	require.NoError(t, err)
	line, err := json.Marshal(mcp.Request{JSONRPC: "2.0", ID: json.RawMessage(strconv.Itoa(id)), Method: "tools/call", Params: params})
	require.NoError(t, err)
	return string(line) + "\n"
}

func runServe(t *testing.T, a *app, input string) []mcp.Response {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, serve(context.Background(), a, strings.NewReader(input), &out))

	var resps []mcp.Response
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if line == "" {
			continue
		}
		var resp mcp.Response
		require.NoError(t, json.Unmarshal([]byte(line), &resp))
		if len(resp.ID) > 0 {
			resps = append(resps, resp)
		}
	}
	return resps
}

func toolText(t *testing.T, resp mcp.Response) string {
	t.Helper()
	require.Nil(t, resp.Error)
	data, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	var result mcp.ToolCallResult
	require.NoError(t, json.Unmarshal(data, &result))
	require.Len(t, result.Content, 1)
	return result.Content[0].Text
}

func TestServeSearchIsCached(t *testing.T) {
	var calls atomic.Int32
	a := testApp(t, newKana(t, &calls).URL)

	resps := runServe(t, a, toolCall(t, 1, "search-vn", `{"query":"ever17","limit":5}`))
	require.Len(t, resps, 1)
	first := toolText(t, resps[0])

	resps = runServe(t, a, toolCall(t, 2, "search-vn", `{"query":" ever17 ","limit":5}`))
	require.Len(t, resps, 1)
	second := toolText(t, resps[0])

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())

	var payload models.SearchResult
	require.NoError(t, json.Unmarshal([]byte(first), &payload))
	assert.Equal(t, 1, payload.Count)
	assert.Equal(t, "v17", payload.Results[0].ID)
	require.NotNil(t, payload.Results[0].ImageURL)
	assert.Equal(t, "https://t.vndb.org/cv/88/4488.jpg", *payload.Results[0].ImageURL)
}

func TestServeInvalidIDNeverCallsRemote(t *testing.T) {
	var calls atomic.Int32
	a := testApp(t, newKana(t, &calls).URL)

	resps := runServe(t, a, toolCall(t, 1, "get-vn-details", `{"id":"17"}`))
	require.Len(t, resps, 1)

	var env models.ErrorEnvelope
	require.NoError(t, json.Unmarshal([]byte(toolText(t, resps[0])), &env))
	assert.Contains(t, env.Error, "invalid id")
	assert.Zero(t, calls.Load())
}

func TestServeNotesPersist(t *testing.T) {
	var calls atomic.Int32
	a := testApp(t, newKana(t, &calls).URL)

	resps := runServe(t, a, toolCall(t, 1, "add-note", `{"name":"todo","content":"finish Ever17"}`))
	require.Len(t, resps, 1)
	assert.Contains(t, toolText(t, resps[0]), "Added note 'todo'")

	list, err := a.notes.List()
	require.NoError(t, err)
	assert.Equal(t, []models.Note{{Name: "todo", Content: "finish Ever17"}}, list)
}
