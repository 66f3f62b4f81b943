package runner

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/aretw0/hangar/pkg/domain"
)

// JSONHandler implements EventHandler with one JSON object per line.
type JSONHandler struct {
	Writer io.Writer

	mu      sync.Mutex
	encoder *json.Encoder
}

// NewJSONHandler creates a handler writing JSON lines to w (stdout when nil).
func NewJSONHandler(w io.Writer) *JSONHandler {
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Writer:  w,
		encoder: json.NewEncoder(w),
	}
}

// Event emits the event as a single JSON line.
func (h *JSONHandler) Event(_ context.Context, ev domain.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.encoder.Encode(ev)
}

// SystemOutput emits {"system": msg}.
func (h *JSONHandler) SystemOutput(_ context.Context, msg string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.encoder.Encode(map[string]string{"system": msg})
}
