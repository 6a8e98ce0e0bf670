package mcp_test

import (
	"context"
	"encoding/json"
	"testing"

	vsmmcp "github.com/aretw0/vsm/pkg/adapters/mcp"
	"github.com/aretw0/vsm/pkg/domain"
	"github.com/aretw0/vsm/pkg/dsl"
	"github.com/aretw0/vsm/pkg/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *vsmmcp.Server {
	t.Helper()

	b := dsl.New("Closed")
	b.State("Closed").On("open", "Open")
	b.State("Open").On("close", "Closed")
	b.State("Broken")

	mgr := host.New()
	_, err := mgr.Create("door", b.MustBuild())
	require.NoError(t, err)
	mgr.StartAll()

	srv := vsmmcp.NewServer(mgr)
	rpc(t, srv, "initialize", map[string]any{
		"protocolVersion": "2025-03-26",
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "test", "version": "1.0.0"},
	})
	return srv
}

// rpc sends one JSON-RPC request and returns its result.
func rpc(t *testing.T, srv *vsmmcp.Server, method string, params any) json.RawMessage {
	t.Helper()

	req, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	require.NoError(t, err)

	resp := srv.MCPServer().HandleMessage(context.Background(), req)
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(data, &envelope))
	require.Nil(t, envelope.Error, "rpc %s failed", method)
	return envelope.Result
}

type toolResult struct {
	IsError bool `json:"isError"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Structured json.RawMessage `json:"structuredContent"`
}

func call(t *testing.T, srv *vsmmcp.Server, tool string, args map[string]any) toolResult {
	t.Helper()
	var res toolResult
	require.NoError(t, json.Unmarshal(rpc(t, srv, "tools/call", map[string]any{
		"name":      tool,
		"arguments": args,
	}), &res))
	return res
}

func decode[T any](t *testing.T, res toolResult) T {
	t.Helper()
	require.False(t, res.IsError, "tool failed: %+v", res.Content)
	var v T
	require.NoError(t, json.Unmarshal(res.Structured, &v))
	return v
}

func TestServer_ListTools(t *testing.T) {
	srv := newServer(t)

	var list struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(rpc(t, srv, "tools/list", map[string]any{}), &list))

	var names []string
	for _, tool := range list.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"list_machines", "snapshot", "trigger", "force", "pause", "resume", "restart", "graph",
	}, names)
}

func TestServer_Trigger(t *testing.T) {
	srv := newServer(t)

	resp := decode[vsmmcp.TriggerResponse](t, call(t, srv, "trigger", map[string]any{"machine": "door", "label": "open"}))
	assert.True(t, resp.Triggered)
	assert.Equal(t, "Open", resp.Snapshot.Current)

	resp = decode[vsmmcp.TriggerResponse](t, call(t, srv, "trigger", map[string]any{"machine": "door", "transition": "Closed:open"}))
	assert.False(t, resp.Triggered, "the door is already open")

	resp = decode[vsmmcp.TriggerResponse](t, call(t, srv, "trigger", map[string]any{"machine": "door", "state": "Closed"}))
	assert.True(t, resp.Triggered)
	assert.Equal(t, "Closed", resp.Snapshot.Current)

	tests := []struct {
		name string
		args map[string]any
	}{
		{"No selector", map[string]any{"machine": "door"}},
		{"Two selectors", map[string]any{"machine": "door", "label": "open", "state": "Open"}},
		{"Unknown machine", map[string]any{"machine": "ghost", "label": "open"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, call(t, srv, "trigger", tt.args).IsError)
		})
	}
}

func TestServer_Control(t *testing.T) {
	srv := newServer(t)
	door := map[string]any{"machine": "door"}

	resp := decode[vsmmcp.ActionResponse](t, call(t, srv, "force", map[string]any{"machine": "door", "state": "Broken"}))
	assert.True(t, resp.Accepted)
	assert.Equal(t, "Broken", resp.Snapshot.Current)
	assert.Equal(t, "Closed", resp.Snapshot.Previous)

	resp = decode[vsmmcp.ActionResponse](t, call(t, srv, "force", map[string]any{"machine": "door", "state": "nowhere"}))
	assert.False(t, resp.Accepted)

	resp = decode[vsmmcp.ActionResponse](t, call(t, srv, "pause", door))
	assert.True(t, resp.Snapshot.Paused)

	resp = decode[vsmmcp.ActionResponse](t, call(t, srv, "resume", door))
	assert.False(t, resp.Snapshot.Paused)

	resp = decode[vsmmcp.ActionResponse](t, call(t, srv, "restart", door))
	assert.True(t, resp.Accepted)
	assert.Equal(t, "Closed", resp.Snapshot.Current)

	snap := decode[domain.Snapshot](t, call(t, srv, "snapshot", door))
	assert.Equal(t, "door", snap.Name)
	assert.Equal(t, "Closed", snap.Current)

	list := decode[vsmmcp.ListResponse](t, call(t, srv, "list_machines", map[string]any{}))
	require.Len(t, list.Machines, 1)
	assert.Equal(t, "door", list.Machines[0].Name)

	assert.True(t, call(t, srv, "pause", map[string]any{"machine": "ghost"}).IsError)
}

func TestServer_Graph(t *testing.T) {
	srv := newServer(t)

	res := call(t, srv, "graph", map[string]any{"machine": "door"})
	require.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	assert.Contains(t, res.Content[0].Text, "graph TD")
	assert.Contains(t, res.Content[0].Text, "classDef current")

	assert.True(t, call(t, srv, "graph", map[string]any{"machine": "ghost"}).IsError)
	assert.True(t, call(t, srv, "graph", map[string]any{}).IsError)
}

func TestServer_MachinesResource(t *testing.T) {
	srv := newServer(t)

	var read struct {
		Contents []struct {
			URI  string `json:"uri"`
			Text string `json:"text"`
		} `json:"contents"`
	}
	require.NoError(t, json.Unmarshal(rpc(t, srv, "resources/read", map[string]any{"uri": vsmmcp.MachinesURI}), &read))
	require.Len(t, read.Contents, 1)
	assert.Equal(t, vsmmcp.MachinesURI, read.Contents[0].URI)

	var snaps []domain.Snapshot
	require.NoError(t, json.Unmarshal([]byte(read.Contents[0].Text), &snaps))
	require.Len(t, snaps, 1)
	assert.Equal(t, "Closed", snaps[0].Current)
}
