package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/hangar/pkg/domain"
	"github.com/muesli/termenv"
)

// TextHandler prints one line per event, coloured by kind when the writer is
// a terminal.
type TextHandler struct {
	Writer io.Writer

	mu     sync.Mutex
	output *termenv.Output
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithColorProfile forces a colour profile instead of detecting it from the writer.
func WithColorProfile(p termenv.Profile) TextHandlerOption {
	return func(h *TextHandler) {
		h.output = termenv.NewOutput(h.Writer, termenv.WithProfile(p))
	}
}

// NewTextHandler creates a handler writing to w (stdout when nil).
func NewTextHandler(w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{Writer: w}
	h.output = termenv.NewOutput(w)
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Event prints ev as "<kind> <label> <details>".
//
//	define my_drone altitude=37 latitude=122 longitude=0 status=flying
//	update my_drone altitude: 37 -> 36
//	delete my_drone
func (h *TextHandler) Event(_ context.Context, ev domain.Event) error {
	var line strings.Builder
	line.WriteString(h.style(fmt.Sprintf("%-6s", ev.Kind), kindColor(ev.Kind)))
	line.WriteString(" ")
	line.WriteString(SanitizeValue(ev.Instance.Label()))

	switch ev.Kind {
	case domain.EventDefine:
		line.WriteString(" ")
		line.WriteString(FormatFields(ev.Instance.Fields))
	case domain.EventUpdate:
		for i, c := range ev.Changes {
			if i > 0 {
				line.WriteString(",")
			}
			fmt.Fprintf(&line, " %s: %s -> %s", c.Field, formatValue(c.Old), formatValue(c.New))
		}
		if len(ev.Changes) == 0 {
			line.WriteString(" (no changes)")
		}
	}
	if ev.Instance.State == domain.StateInvalid {
		line.WriteString(" ")
		line.WriteString(h.style("[invalid: "+SanitizeValue(ev.Instance.Reason)+"]", "1"))
	}
	line.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.Writer, line.String())
	return err
}

// SystemOutput prints a dimmed meta-message.
func (h *TextHandler) SystemOutput(_ context.Context, msg string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.Writer, h.style("-- "+msg, "8"))
	return err
}

func (h *TextHandler) style(s, color string) string {
	if h.output.Profile == termenv.Ascii {
		return s
	}
	return h.output.String(s).Foreground(h.output.Color(color)).String()
}

func kindColor(k domain.EventKind) string {
	switch k {
	case domain.EventDefine:
		return "2"
	case domain.EventUpdate:
		return "3"
	case domain.EventDelete:
		return "1"
	default:
		return "7"
	}
}

// FormatFields renders field values as sorted "name=value" pairs.
func FormatFields(fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + formatValue(fields[k])
	}
	return strings.Join(parts, " ")
}

func formatValue(v any) string {
	switch val := v.(type) {
	case float64:
		return fmt.Sprintf("%g", val)
	case string:
		return SanitizeValue(val)
	default:
		return fmt.Sprint(v)
	}
}
