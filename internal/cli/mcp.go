package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/hangar/internal/config"
	"github.com/aretw0/hangar/internal/logging"
	mcpadapter "github.com/aretw0/hangar/pkg/adapters/mcp"
)

// MCPOptions contains the configuration for the MCP command.
type MCPOptions struct {
	Config *config.Config
	Logger *slog.Logger
	// SSEAddr serves over SSE instead of stdio when set.
	SSEAddr string
	// BaseURL is the public URL SSE clients are told to post messages to.
	BaseURL string
}

// ServeMCP loads the schema (when present) into a fresh stack and exposes it
// to MCP clients. Over stdio it returns when stdin closes; over SSE when ctx
// is cancelled.
func ServeMCP(ctx context.Context, opts MCPOptions) error {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	stack, err := Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := stack.Close(); err != nil {
			logger.Warn("Stack close failed", "error", err)
		}
	}()

	if _, statErr := os.Stat(cfg.Schema); statErr == nil {
		doc, err := LoadDocument(ctx, cfg.Schema)
		if err != nil {
			return err
		}
		if _, err := applyDocument(ctx, stack, doc, nil, logger); err != nil {
			return err
		}
	} else if err := stack.AttachMirror(); err != nil {
		return err
	}

	srv := mcpadapter.NewServer(stack.Hangar, logger)
	if opts.SSEAddr == "" {
		return srv.ServeStdio()
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost" + opts.SSEAddr
	}
	if err := srv.ServeSSE(ctx, opts.SSEAddr, baseURL); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}
