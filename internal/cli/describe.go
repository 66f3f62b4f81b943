package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/hangar"
	"github.com/aretw0/hangar/internal/presentation/graph"
	"github.com/aretw0/hangar/internal/presentation/tui"
)

// Describe output formats.
const (
	DescribeMarkdown = "markdown"
	DescribeTerminal = "terminal"
	DescribeMermaid  = "mermaid"
)

// Describe writes a summary of the schema at path. The terminal format renders
// the markdown with glamour at width columns. The mermaid format applies the
// schema to a scratch hangar so instances are drawn with their real state.
func Describe(ctx context.Context, path, format string, width int, out io.Writer) error {
	doc, err := LoadDocument(ctx, path)
	if err != nil {
		return err
	}

	switch format {
	case DescribeMarkdown:
		_, err = io.WriteString(out, doc.Markdown())
		return err
	case DescribeTerminal:
		render, err := tui.NewRenderer(width)
		if err != nil {
			return fmt.Errorf("error creating renderer: %w", err)
		}
		rendered, err := render(doc.Markdown())
		if err != nil {
			return err
		}
		_, err = io.WriteString(out, rendered)
		return err
	case DescribeMermaid:
		h := hangar.New()
		if _, err := h.Apply(ctx, doc); err != nil && !isDispatchOnly(err) {
			return err
		}
		_, err = io.WriteString(out, graph.GenerateMermaid(h.Types(), h.List("")))
		return err
	default:
		return fmt.Errorf("unknown format %q (want %s, %s or %s)", format, DescribeMarkdown, DescribeTerminal, DescribeMermaid)
	}
}

// Validate loads the schema at path and checks that every instance can be
// created. It returns the instances that were created Invalid, which is not
// an error for the schema itself.
func Validate(ctx context.Context, path string) ([]string, error) {
	doc, err := LoadDocument(ctx, path)
	if err != nil {
		return nil, err
	}
	h := hangar.New()
	if _, err := h.Apply(ctx, doc); err != nil && !isDispatchOnly(err) {
		return nil, err
	}
	var invalid []string
	for _, inst := range h.List("") {
		if !inst.Valid() {
			invalid = append(invalid, fmt.Sprintf("%s (%s): %s", inst.Label(), inst.Type, inst.Reason))
		}
	}
	return invalid, nil
}
