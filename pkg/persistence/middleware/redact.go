package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/hangar/pkg/domain"
	"github.com/aretw0/hangar/pkg/ports"
)

// Mask replaces redacted field values.
const Mask = "***"

type redactMiddleware struct {
	next     ports.SnapshotStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware creates a middleware that masks the values of fields
// whose names match any of the patterns before they reach the store. The
// caller's snapshot is left untouched.
func NewRedactMiddleware(patterns []string) (Middleware, error) {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redact pattern %q: %w", p, err)
		}
		compiled[i] = re
	}
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &redactMiddleware{next: next, patterns: compiled}
	}, nil
}

func (m *redactMiddleware) Save(ctx context.Context, inst *domain.Instance) error {
	masked := inst.Clone()
	for name := range masked.Fields {
		if m.matches(name) {
			masked.Fields[name] = Mask
		}
	}
	return m.next.Save(ctx, masked)
}

func (m *redactMiddleware) matches(name string) bool {
	for _, p := range m.patterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

func (m *redactMiddleware) Load(ctx context.Context, id domain.ID) (*domain.Instance, error) {
	return m.next.Load(ctx, id)
}

func (m *redactMiddleware) Delete(ctx context.Context, id domain.ID) error {
	return m.next.Delete(ctx, id)
}

func (m *redactMiddleware) List(ctx context.Context) ([]domain.ID, error) {
	return m.next.List(ctx)
}
