package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aretw0/hangar"
	"github.com/aretw0/hangar/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHangar(t *testing.T) *hangar.Hangar {
	t.Helper()
	h := hangar.New()
	require.NoError(t, h.RegisterType(&domain.TypeDescriptor{
		Name:        "Drone",
		Description: "A quadcopter",
		Fields: []domain.Field{
			{Name: "altitude", Kind: domain.KindFloat},
			{Name: "status", Kind: domain.KindString},
		},
		Hooks: domain.TypeHooks{
			Validate: func(_ context.Context, inst *domain.Instance) error {
				if inst.Float("altitude") < 0 {
					return errors.New("altitude below ground")
				}
				return nil
			},
		},
	}))
	return h
}

func call(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func decodeInstance(t *testing.T, res *mcp.CallToolResult) domain.Instance {
	t.Helper()
	require.False(t, res.IsError, resultText(t, res))
	var inst domain.Instance
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &inst))
	return inst
}

func TestTools_Lifecycle(t *testing.T) {
	ctx := context.Background()
	h := newTestHangar(t)
	s := NewServer(h, nil)

	res, err := s.handleCreateInstance(ctx, call("create_instance", map[string]any{
		"type":   "Drone",
		"name":   "scout",
		"values": `{"altitude": 10, "status": "idle"}`,
	}))
	require.NoError(t, err)
	created := decodeInstance(t, res)
	assert.Equal(t, "scout", created.Name)
	assert.Equal(t, domain.StateValid, created.State)

	res, err = s.handleUpdateInstance(ctx, call("update_instance", map[string]any{
		"instance": "scout",
		"set":      `{"status": "flying"}`,
		"add":      `{"altitude": 2.5}`,
	}))
	require.NoError(t, err)
	updated := decodeInstance(t, res)
	assert.Equal(t, 12.5, updated.Fields["altitude"])
	assert.Equal(t, "flying", updated.Fields["status"])
	assert.Equal(t, uint64(1), updated.Version)

	res, err = s.handleGetInstance(ctx, call("get_instance", map[string]any{"instance": created.ID.String()}))
	require.NoError(t, err)
	assert.Equal(t, "scout", decodeInstance(t, res).Name)

	res, err = s.handleListInstances(ctx, call("list_instances", map[string]any{"type": "Drone"}))
	require.NoError(t, err)
	var all []domain.Instance
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &all))
	assert.Len(t, all, 1)

	res, err = s.handleDestroyInstance(ctx, call("destroy_instance", map[string]any{"instance": "scout"}))
	require.NoError(t, err)
	assert.Equal(t, "destroyed scout (Drone)", resultText(t, res))

	_, err = h.Get(created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTools_InvalidInstanceIsReturned(t *testing.T) {
	s := NewServer(newTestHangar(t), nil)
	res, err := s.handleCreateInstance(context.Background(), call("create_instance", map[string]any{
		"type":   "Drone",
		"values": `{"altitude": -1, "status": "idle"}`,
	}))
	require.NoError(t, err)
	inst := decodeInstance(t, res)
	assert.Equal(t, domain.StateInvalid, inst.State)
	assert.Equal(t, "altitude below ground", inst.Reason)
}

func TestTools_Errors(t *testing.T) {
	ctx := context.Background()
	h := newTestHangar(t)
	s := NewServer(h, nil)
	inst, err := h.Create(ctx, "Drone", map[string]any{"altitude": 1, "status": "idle"}, hangar.WithName("scout"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args    map[string]any
		want    string
	}{
		{"unknown type", s.handleCreateInstance, map[string]any{"type": "Boat", "values": `{}`}, "type not found"},
		{"missing type", s.handleCreateInstance, map[string]any{"values": `{}`}, "type is required"},
		{"bad values json", s.handleCreateInstance, map[string]any{"type": "Drone", "values": `{`}, "invalid JSON object"},
		{"missing field", s.handleCreateInstance, map[string]any{"type": "Drone", "values": `{"altitude": 1}`}, "missing field"},
		{"duplicate name", s.handleCreateInstance, map[string]any{"type": "Drone", "name": "scout", "values": `{"altitude": 1, "status": "x"}`}, "name in use"},
		{"unknown instance", s.handleGetInstance, map[string]any{"instance": "ghost"}, "not found"},
		{"missing instance", s.handleGetInstance, map[string]any{}, "instance is required"},
		{"unknown list type", s.handleListInstances, map[string]any{"type": "Boat"}, "type not found"},
		{"empty update", s.handleUpdateInstance, map[string]any{"instance": "scout"}, "nothing to update"},
		{"unknown field", s.handleUpdateInstance, map[string]any{"instance": "scout", "set": `{"speed": 1}`}, "no field"},
		{"add to string", s.handleUpdateInstance, map[string]any{"instance": "scout", "add": `{"status": 1}`}, "not numeric"},
		{"add not a number", s.handleUpdateInstance, map[string]any{"instance": "scout", "add": `{"altitude": "up"}`}, "not a number"},
		{"destroy unknown", s.handleDestroyInstance, map[string]any{"instance": "99"}, "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.handler(ctx, call("", tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, resultText(t, res), tt.want)
		})
	}

	after, err := h.Get(inst.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), after.Version, "rejected updates leave the instance untouched")
}

func TestTools_FractionalDeltaOnInt(t *testing.T) {
	ctx := context.Background()
	h := hangar.New()
	require.NoError(t, h.RegisterType(&domain.TypeDescriptor{
		Name: "Pad",
		Fields: []domain.Field{
			{Name: "slots", Kind: domain.KindInt},
			{Name: "status", Kind: domain.KindString},
		},
	}))
	inst, err := h.Create(ctx, "Pad", map[string]any{"slots": 2, "status": "free"}, hangar.WithName("pad"))
	require.NoError(t, err)
	updates := 0
	_, err = h.Subscribe(domain.EventUpdate, "Pad", func(context.Context, domain.Event) error {
		updates++
		return nil
	})
	require.NoError(t, err)
	s := NewServer(h, nil)

	res, err := s.handleUpdateInstance(ctx, call("update_instance", map[string]any{
		"instance": "pad",
		"set":      `{"status": "busy"}`,
		"add":      `{"slots": 0.5}`,
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "not a whole number")

	after, err := h.Get(inst.ID)
	require.NoError(t, err)
	assert.Equal(t, "free", after.Fields["status"])
	assert.Equal(t, uint64(0), after.Version)
	assert.Zero(t, updates)

	res, err = s.handleUpdateInstance(ctx, call("update_instance", map[string]any{
		"instance": "pad",
		"add":      `{"slots": 3}`,
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))
	after, err = h.Get(inst.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), after.Int("slots"))
}

func TestTools_ReportObserverFailures(t *testing.T) {
	ctx := context.Background()
	h := newTestHangar(t)
	_, err := h.Subscribe(domain.EventAll, "", func(context.Context, domain.Event) error {
		return errors.New("sink offline")
	})
	require.NoError(t, err)
	s := NewServer(h, nil)

	res, err := s.handleCreateInstance(ctx, call("create_instance", map[string]any{
		"type":   "Drone",
		"values": `{"altitude": 1, "status": "idle"}`,
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "observer failures")
	assert.Len(t, h.List("Drone"), 1)
}

func TestListTypesAndResources(t *testing.T) {
	ctx := context.Background()
	h := newTestHangar(t)
	s := NewServer(h, nil)

	res, err := s.handleListTypes(ctx, call("list_types", nil))
	require.NoError(t, err)
	var views []TypeView
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "Drone", views[0].Name)
	assert.Equal(t, "A quadcopter", views[0].Description)

	contents, err := jsonResource("hangar://instances", h.List(""))
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "application/json", text.MIMEType)
	assert.Equal(t, "[]", text.Text)

	assert.NotNil(t, s.MCPServer())
}
