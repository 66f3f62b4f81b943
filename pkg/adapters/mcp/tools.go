package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/hangar"
	"github.com/aretw0/hangar/pkg/domain"
	"github.com/aretw0/hangar/pkg/observer"
	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) handleListTypes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(typeViews(s.engine.Types()), nil)
}

func (s *Server) handleListInstances(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typeName := stringArg(request, "type")
	if typeName != "" {
		if _, err := s.engine.Type(typeName); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	return jsonResult(s.engine.List(typeName), nil)
}

func (s *Server) handleGetInstance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	inst, err := s.resolve(stringArg(request, "instance"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(inst, nil)
}

func (s *Server) handleCreateInstance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typeName := stringArg(request, "type")
	if typeName == "" {
		return mcp.NewToolResultError("type is required"), nil
	}
	values, err := objectArg(request, "values")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var opts []hangar.CreateOption
	if name := stringArg(request, "name"); name != "" {
		opts = append(opts, hangar.WithName(name))
	}
	inst, err := s.engine.Create(ctx, typeName, values, opts...)
	if err != nil && !isDispatch(err) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(inst, err)
}

func (s *Server) handleUpdateInstance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	inst, err := s.resolve(stringArg(request, "instance"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	set, err := objectArg(request, "set")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	add, err := objectArg(request, "add")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(set) == 0 && len(add) == 0 {
		return mcp.NewToolResultError("nothing to update: give set or add"), nil
	}
	deltas := make(map[string]float64, len(add))
	for field, v := range add {
		n, ok := v.(json.Number)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("add.%s: not a number", field)), nil
		}
		f, err := n.Float64()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("add.%s: %v", field, err)), nil
		}
		deltas[field] = f
	}
	if err := s.checkUpdate(inst.Type, set, deltas); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	err = s.engine.Update(ctx, inst.ID, func(scope *hangar.Scope) error {
		for field, v := range set {
			if err := scope.Set(field, v); err != nil {
				return err
			}
		}
		for field, delta := range deltas {
			if err := scope.Add(field, delta); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil && !isDispatch(err) {
		return mcp.NewToolResultError(err.Error()), nil
	}

	updated, getErr := s.engine.Get(inst.ID)
	if getErr != nil {
		return mcp.NewToolResultError(getErr.Error()), nil
	}
	return jsonResult(updated, err)
}

func (s *Server) handleDestroyInstance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	inst, err := s.resolve(stringArg(request, "instance"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	err = s.engine.Destroy(ctx, inst.ID)
	if err != nil && !isDispatch(err) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text := fmt.Sprintf("destroyed %s (%s)", inst.Label(), inst.Type)
	if err != nil {
		text += "\nobserver failures: " + err.Error()
	}
	return mcp.NewToolResultText(text), nil
}

// checkUpdate rejects bad fields before a scope is opened, so a failed call
// does not bump the instance version.
func (s *Server) checkUpdate(typeName string, set map[string]any, add map[string]float64) error {
	desc, err := s.engine.Type(typeName)
	if err != nil {
		return err
	}
	return desc.CheckChanges(set, add)
}

// resolve accepts a decimal id or an instance name.
func (s *Server) resolve(ref string) (domain.Instance, error) {
	if ref == "" {
		return domain.Instance{}, errors.New("instance is required")
	}
	if id, err := domain.ParseID(ref); err == nil {
		return s.engine.Get(id)
	}
	return s.engine.Resolve(ref)
}

func stringArg(request mcp.CallToolRequest, key string) string {
	v, _ := request.GetArguments()[key].(string)
	return strings.TrimSpace(v)
}

// objectArg decodes a JSON object argument. Numbers stay json.Number so the
// field kind decides between int and float.
func objectArg(request mcp.CallToolRequest, key string) (map[string]any, error) {
	raw := stringArg(request, key)
	if raw == "" {
		return nil, nil
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("%s: invalid JSON object: %w", key, err)
	}
	return out, nil
}

func isDispatch(err error) bool {
	var dispatchErr *observer.DispatchError
	return errors.As(err, &dispatchErr)
}

// jsonResult renders v. Observer failures are appended as a note since the
// operation itself was committed.
func jsonResult(v any, dispatchErr error) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	text := string(data)
	if dispatchErr != nil {
		text += "\nobserver failures: " + dispatchErr.Error()
	}
	return mcp.NewToolResultText(text), nil
}
