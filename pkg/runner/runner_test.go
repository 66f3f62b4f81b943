package runner_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/hangar"
	"github.com/aretw0/hangar/pkg/domain"
	"github.com/aretw0/hangar/pkg/runner"
	"github.com/aretw0/hangar/pkg/schema"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHangar(t *testing.T) (*hangar.Hangar, domain.Instance) {
	t.Helper()
	h := hangar.New()
	require.NoError(t, h.RegisterType(&domain.TypeDescriptor{
		Name: "Drone",
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
	inst, err := h.Create(context.Background(), "Drone",
		map[string]any{"altitude": 37, "status": "flying"}, hangar.WithName("my_drone"))
	require.NoError(t, err)
	return h, inst
}

func TestRunner_AppliesDrives(t *testing.T) {
	h, inst := newHangar(t)
	var out bytes.Buffer

	r := runner.NewRunner(
		runner.WithEngine(h),
		runner.WithDrives([]schema.DriveSpec{{Instance: "my_drone", Field: "altitude", Delta: -1}}),
		runner.WithInterval(time.Millisecond),
		runner.WithTicks(3),
		runner.WithHandler(runner.NewTextHandler(&out, runner.WithColorProfile(termenv.Ascii))),
	)
	require.NoError(t, r.Run(context.Background()))

	got, err := h.Get(inst.ID)
	require.NoError(t, err)
	assert.Equal(t, 34.0, got.Fields["altitude"])
	assert.Equal(t, uint64(3), got.Version)

	assert.Equal(t, strings.Join([]string{
		"-- driving 1 field(s) every 1ms",
		"update my_drone altitude: 37 -> 36",
		"update my_drone altitude: 36 -> 35",
		"update my_drone altitude: 35 -> 34",
		"-- finished 3 tick(s)",
		"",
	}, "\n"), out.String())
}

func TestRunner_ReportsInvalidInstances(t *testing.T) {
	h, _ := newHangar(t)
	var out bytes.Buffer

	r := runner.NewRunner(
		runner.WithEngine(h),
		runner.WithDrives([]schema.DriveSpec{{Instance: "my_drone", Field: "altitude", Delta: -40}}),
		runner.WithInterval(time.Millisecond),
		runner.WithTicks(1),
		runner.WithEvents(domain.EventUpdate),
		runner.WithTypeFilter("Drone"),
		runner.WithHandler(runner.NewTextHandler(&out, runner.WithColorProfile(termenv.Ascii))),
	)
	require.NoError(t, r.Run(context.Background()))
	assert.Contains(t, out.String(), "update my_drone altitude: 37 -> -3 [invalid: altitude below ground]")
}

func TestRunner_SkipsMissingInstance(t *testing.T) {
	h, inst := newHangar(t)
	r := runner.NewRunner(
		runner.WithEngine(h),
		runner.WithDrives([]schema.DriveSpec{
			{Instance: "ghost", Field: "altitude", Delta: 1},
			{Instance: "my_drone", Field: "altitude", Delta: 1},
		}),
	)
	require.NoError(t, r.Tick(context.Background()))

	got, err := h.Get(inst.ID)
	require.NoError(t, err)
	assert.Equal(t, 38.0, got.Fields["altitude"])
}

func TestRunner_SkipsBusyInstance(t *testing.T) {
	h, inst := newHangar(t)
	ctx := context.Background()
	r := runner.NewRunner(
		runner.WithEngine(h),
		runner.WithDrives([]schema.DriveSpec{{Instance: "my_drone", Field: "altitude", Delta: 1}}),
	)

	_, err := h.BeginUpdate(ctx, inst.ID)
	require.NoError(t, err)
	require.NoError(t, r.Tick(ctx))
	require.NoError(t, h.EndUpdate(ctx, inst.ID))

	got, err := h.Get(inst.ID)
	require.NoError(t, err)
	assert.Equal(t, 37.0, got.Fields["altitude"])
	assert.Equal(t, uint64(1), got.Version)
}

func TestRunner_FailsOnNonNumericDrive(t *testing.T) {
	h, _ := newHangar(t)
	r := runner.NewRunner(
		runner.WithEngine(h),
		runner.WithDrives([]schema.DriveSpec{{Instance: "my_drone", Field: "status", Delta: 1}}),
		runner.WithInterval(time.Millisecond),
	)
	err := r.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFieldMismatch)
	assert.Contains(t, err.Error(), "drive my_drone.status")
}

func TestRunner_StopsOnCancel(t *testing.T) {
	h, _ := newHangar(t)
	var out bytes.Buffer
	r := runner.NewRunner(
		runner.WithEngine(h),
		runner.WithInterval(time.Millisecond),
		runner.WithHandler(runner.NewJSONHandler(&out)),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.NoError(t, r.Run(ctx))
	assert.Contains(t, out.String(), `"system":"stopped after`)

	// The handler is unsubscribed once Run returns.
	out.Reset()
	_, err := h.Create(context.Background(), "Drone", map[string]any{"altitude": 1, "status": "idle"})
	require.NoError(t, err)
	assert.Empty(t, out.String())
}

func TestRunner_RequiresEngine(t *testing.T) {
	err := runner.NewRunner().Run(context.Background())
	assert.Error(t, err)
}

func TestRunner_RejectsUnknownTypeFilter(t *testing.T) {
	h, _ := newHangar(t)
	r := runner.NewRunner(
		runner.WithEngine(h),
		runner.WithTypeFilter("Blimp"),
		runner.WithHandler(runner.NewJSONHandler(&bytes.Buffer{})),
	)
	assert.ErrorIs(t, r.Run(context.Background()), domain.ErrTypeNotFound)
}
