package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/hangar/pkg/domain"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func droneEvent(kind domain.EventKind) domain.Event {
	return domain.Event{
		Kind: kind,
		Instance: domain.Instance{
			ID:     1,
			Name:   "my_drone",
			Type:   "Drone",
			Fields: map[string]any{"altitude": 36.0, "status": "flying", "latitude": 122.5},
			State:  domain.StateValid,
		},
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestTextHandler_Event(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	h := NewTextHandler(&out, WithColorProfile(termenv.Ascii))

	require.NoError(t, h.Event(ctx, droneEvent(domain.EventDefine)))

	update := droneEvent(domain.EventUpdate)
	update.Changes = []domain.Change{{Field: "altitude", Old: 37.0, New: 36.0}, {Field: "status", Old: "idle", New: "flying"}}
	require.NoError(t, h.Event(ctx, update))

	empty := droneEvent(domain.EventUpdate)
	empty.Instance.Name = ""
	require.NoError(t, h.Event(ctx, empty))

	invalid := droneEvent(domain.EventUpdate)
	invalid.Instance.State = domain.StateInvalid
	invalid.Instance.Reason = "too\x1b[31m low"
	invalid.Changes = []domain.Change{{Field: "altitude", Old: 1.0, New: -1.0}}
	require.NoError(t, h.Event(ctx, invalid))

	require.NoError(t, h.Event(ctx, droneEvent(domain.EventDelete)))
	require.NoError(t, h.SystemOutput(ctx, "bye"))

	assert.Equal(t, strings.Join([]string{
		"define my_drone altitude=36 latitude=122.5 status=flying",
		"update my_drone altitude: 37 -> 36, status: idle -> flying",
		"update 1 (no changes)",
		"update my_drone altitude: 1 -> -1 [invalid: too[31m low]",
		"delete my_drone",
		"-- bye",
		"",
	}, "\n"), out.String())
}

func TestTextHandler_Colors(t *testing.T) {
	var out bytes.Buffer
	h := NewTextHandler(&out, WithColorProfile(termenv.ANSI))
	require.NoError(t, h.Event(context.Background(), droneEvent(domain.EventDefine)))
	assert.Contains(t, out.String(), "\x1b[")
	assert.Contains(t, out.String(), "my_drone altitude=36")
}

func TestJSONHandler_Event(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	h := NewJSONHandler(&out)

	require.NoError(t, h.Event(ctx, droneEvent(domain.EventDefine)))
	require.NoError(t, h.SystemOutput(ctx, "done"))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var ev map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &ev))
	assert.Equal(t, "define", ev["kind"])
	assert.Equal(t, "my_drone", ev["instance"].(map[string]any)["name"])
	assert.JSONEq(t, `{"system":"done"}`, lines[1])
}

func TestSanitizeValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal Text", "Hello World", "Hello World"},
		{"ANSI Code", "\x1b[31mRed\x1b[0m", "[31mRed[0m"},
		{"Newline", "Line1\nLine2", "Line1Line2"},
		{"Null Byte", "Null\x00Byte", "NullByte"},
		{"Invalid UTF-8", "a\xbdb", "a�b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeValue(tt.input))
		})
	}
}

func TestSanitizeValue_Width(t *testing.T) {
	t.Setenv(EnvMaxValueWidth, "5")
	assert.Equal(t, "12345", SanitizeValue("12345"))
	assert.Equal(t, "12345...", SanitizeValue("123456"))
	assert.Equal(t, "ééééé...", SanitizeValue("éééééé"))
}

func TestSignalManager_Lifecycle(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	sm := NewSignalManager(parent)
	defer sm.Stop()

	ctx := sm.Context()
	assert.NoError(t, ctx.Err())
	assert.Nil(t, sm.Signal())

	cancel()
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.Nil(t, sm.Signal())
}

func TestSignalManager_Stop(t *testing.T) {
	sm := NewSignalManager(context.Background())
	sm.Stop()
	assert.ErrorIs(t, sm.Context().Err(), context.Canceled)
}
