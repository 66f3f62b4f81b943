// Package metrics exports engine activity as Prometheus collectors.
package metrics

import (
	"context"

	"github.com/aretw0/hangar/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors holds the hangar metrics. Feed it by installing Hooks on the engine.
type Collectors struct {
	Created        *prometheus.CounterVec
	Updated        *prometheus.CounterVec
	Destroyed      *prometheus.CounterVec
	Live           *prometheus.GaugeVec
	Delivered      *prometheus.CounterVec
	ObserverErrors *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Collectors, error) {
	c := &Collectors{
		Created: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hangar_instances_created_total",
				Help: "Instances created, by type and resulting state",
			},
			[]string{"type", "state"},
		),
		Updated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hangar_instances_updated_total",
				Help: "Completed update scopes, by type and resulting state",
			},
			[]string{"type", "state"},
		),
		Destroyed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hangar_instances_destroyed_total",
				Help: "Instances destroyed, by type",
			},
			[]string{"type"},
		),
		Live: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hangar_instances_live",
				Help: "Instances currently stored, by type",
			},
			[]string{"type"},
		),
		Delivered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hangar_events_delivered_total",
				Help: "Observer callbacks invoked, by event kind and type",
			},
			[]string{"kind", "type"},
		),
		ObserverErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hangar_observer_failures_total",
				Help: "Observer callbacks that returned an error or panicked",
			},
			[]string{"kind", "type"},
		),
	}

	for _, col := range []prometheus.Collector{c.Created, c.Updated, c.Destroyed, c.Live, c.Delivered, c.ObserverErrors} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Hooks returns lifecycle hooks that record into the collectors.
func (c *Collectors) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCreate: func(_ context.Context, e *domain.InstanceEvent) {
			c.Created.WithLabelValues(e.Type, string(e.State)).Inc()
			c.Live.WithLabelValues(e.Type).Inc()
		},
		OnUpdate: func(_ context.Context, e *domain.InstanceEvent) {
			c.Updated.WithLabelValues(e.Type, string(e.State)).Inc()
		},
		OnDestroy: func(_ context.Context, e *domain.InstanceEvent) {
			c.Destroyed.WithLabelValues(e.Type).Inc()
			c.Live.WithLabelValues(e.Type).Dec()
		},
		OnDispatch: func(_ context.Context, e *domain.DispatchEvent) {
			kind := e.Kind.String()
			c.Delivered.WithLabelValues(kind, e.Type).Add(float64(e.Delivered))
			if e.Failed > 0 {
				c.ObserverErrors.WithLabelValues(kind, e.Type).Add(float64(e.Failed))
			}
		},
	}
}
