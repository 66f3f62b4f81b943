package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/aretw0/hangar/internal/config"
	"github.com/aretw0/hangar/pkg/domain"
	"github.com/aretw0/hangar/pkg/runner"
)

// Inspect prints the snapshots held by the configured store: all of them, or
// only ids when given.
func Inspect(ctx context.Context, cfg *config.Config, ids []domain.ID, jsonMode bool, out io.Writer) error {
	store, _, closer, err := OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}
	if store == nil {
		return errors.New("no store configured (store.backend is none)")
	}

	if len(ids) == 0 {
		if ids, err = store.List(ctx); err != nil {
			return fmt.Errorf("error listing snapshots: %w", err)
		}
	}

	snapshots := make([]*domain.Instance, 0, len(ids))
	for _, id := range ids {
		inst, err := store.Load(ctx, id)
		if err != nil {
			return err
		}
		snapshots = append(snapshots, inst)
	}

	if jsonMode {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(snapshots)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tSTATE\tVERSION\tFIELDS")
	for _, inst := range snapshots {
		name := inst.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			inst.ID, runner.SanitizeValue(name), inst.Type, inst.State, inst.Version, runner.FormatFields(inst.Fields))
	}
	return tw.Flush()
}
