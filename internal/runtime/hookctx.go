package runtime

import (
	"context"

	"github.com/aretw0/hangar/pkg/domain"
)

// hookFrame marks the instances whose hooks or observers are running on the
// current call path. Frames nest when a hook creates another instance.
type hookFrame struct {
	id     domain.ID
	parent *hookFrame
}

type hookKey struct{}

// enterHook returns a context marking id as being inside its own hooks.
func enterHook(ctx context.Context, id domain.ID) context.Context {
	parent, _ := ctx.Value(hookKey{}).(*hookFrame)
	return context.WithValue(ctx, hookKey{}, &hookFrame{id: id, parent: parent})
}

// inHook reports whether ctx was derived from a hook or observer call for id.
func inHook(ctx context.Context, id domain.ID) bool {
	for f, _ := ctx.Value(hookKey{}).(*hookFrame); f != nil; f = f.parent {
		if f.id == id {
			return true
		}
	}
	return false
}
