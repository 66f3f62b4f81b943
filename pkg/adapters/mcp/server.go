// Package mcp exposes a hangar to Model Context Protocol clients: types and
// instances become resources, and lifecycle operations become tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/hangar"
	"github.com/aretw0/hangar/internal/logging"
	"github.com/aretw0/hangar/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Engine defines what the MCP server needs from a hangar. *hangar.Hangar satisfies it.
type Engine interface {
	Types() []*domain.TypeDescriptor
	Type(name string) (*domain.TypeDescriptor, error)
	List(typeName string) []domain.Instance
	Get(id domain.ID) (domain.Instance, error)
	Resolve(name string) (domain.Instance, error)
	Create(ctx context.Context, typeName string, values map[string]any, opts ...hangar.CreateOption) (domain.Instance, error)
	Update(ctx context.Context, id domain.ID, fn func(*hangar.Scope) error) error
	Destroy(ctx context.Context, id domain.ID) error
}

// Server wraps a hangar and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		engine:    engine,
		logger:    logger,
		mcpServer: server.NewMCPServer("hangar-mcp", strings.TrimSpace(hangar.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves the protocol on stdin and stdout until stdin closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the protocol over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop MCP server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_types",
		mcp.WithDescription("List every registered type with its fields."),
	), s.handleListTypes)

	s.mcpServer.AddTool(mcp.NewTool("list_instances",
		mcp.WithDescription("List instance snapshots, optionally of one type."),
		mcp.WithString("type", mcp.Description("Only list instances of this type")),
	), s.handleListInstances)

	s.mcpServer.AddTool(mcp.NewTool("get_instance",
		mcp.WithDescription("Get one instance by id or name."),
		mcp.WithString("instance", mcp.Required(), mcp.Description("Instance id or name")),
	), s.handleGetInstance)

	s.mcpServer.AddTool(mcp.NewTool("create_instance",
		mcp.WithDescription("Create an instance. It is returned even when it fails validation."),
		mcp.WithString("type", mcp.Required(), mcp.Description("Type name")),
		mcp.WithString("name", mcp.Description("Unique instance name (optional)")),
		mcp.WithString("values", mcp.Required(), mcp.Description("JSON object with a value for every field")),
	), s.handleCreateInstance)

	s.mcpServer.AddTool(mcp.NewTool("update_instance",
		mcp.WithDescription("Change field values inside one update scope."),
		mcp.WithString("instance", mcp.Required(), mcp.Description("Instance id or name")),
		mcp.WithString("set", mcp.Description("JSON object of field values to assign")),
		mcp.WithString("add", mcp.Description("JSON object of numeric deltas to add")),
	), s.handleUpdateInstance)

	s.mcpServer.AddTool(mcp.NewTool("destroy_instance",
		mcp.WithDescription("Destroy an instance."),
		mcp.WithString("instance", mcp.Required(), mcp.Description("Instance id or name")),
	), s.handleDestroyInstance)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("hangar://types", "Registered types",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonResource("hangar://types", typeViews(s.engine.Types()))
	})

	s.mcpServer.AddResource(mcp.NewResource("hangar://instances", "Instance snapshots",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonResource("hangar://instances", s.engine.List(""))
	})
}

// TypeView is the JSON form of a type descriptor.
type TypeView struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Fields      []domain.Field `json:"fields"`
}

func typeViews(descs []*domain.TypeDescriptor) []TypeView {
	views := make([]TypeView, 0, len(descs))
	for _, d := range descs {
		views = append(views, TypeView{Name: d.Name, Description: d.Description, Fields: d.Fields})
	}
	return views
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
