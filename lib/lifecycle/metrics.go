package lifecycle

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/manzolo/docker-compose-playground-sub001/lib/runtime"
)

// Metrics holds the instruments for lifecycle operations.
type Metrics struct {
	startDuration    metric.Float64Histogram
	stopDuration     metric.Float64Histogram
	stateTransitions metric.Int64Counter
	hookFailures     metric.Int64Counter
}

// newMetrics creates and registers all lifecycle metrics, including an
// observable gauge of managed containers by state.
func newMetrics(meter metric.Meter, rt runtime.Runtime) (*Metrics, error) {
	startDuration, err := meter.Float64Histogram(
		"playground_lifecycle_start_duration_seconds",
		metric.WithDescription("Time to start a managed container"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	stopDuration, err := meter.Float64Histogram(
		"playground_lifecycle_stop_duration_seconds",
		metric.WithDescription("Time to stop a managed container"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	stateTransitions, err := meter.Int64Counter(
		"playground_lifecycle_state_transitions_total",
		metric.WithDescription("Total number of container state transitions"),
	)
	if err != nil {
		return nil, err
	}

	hookFailures, err := meter.Int64Counter(
		"playground_lifecycle_hook_failures_total",
		metric.WithDescription("Total number of non-fatal hook failures"),
	)
	if err != nil {
		return nil, err
	}

	containersTotal, err := meter.Int64ObservableGauge(
		"playground_containers_total",
		metric.WithDescription("Managed containers by state"),
	)
	if err != nil {
		return nil, err
	}

	_, err = meter.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			states, err := rt.ListManaged(ctx)
			if err != nil {
				return nil
			}
			counts := make(map[string]int64)
			for _, s := range states {
				counts[s.State]++
			}
			for state, count := range counts {
				o.ObserveInt64(containersTotal, count,
					metric.WithAttributes(attribute.String("state", state)))
			}
			return nil
		},
		containersTotal,
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		startDuration:    startDuration,
		stopDuration:     stopDuration,
		stateTransitions: stateTransitions,
		hookFailures:     hookFailures,
	}, nil
}

func (c *controller) recordDuration(ctx context.Context, histogram metric.Float64Histogram, start time.Time, status string) {
	if c.metrics == nil {
		return
	}
	histogram.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("status", status)))
}

func (c *controller) recordTransition(ctx context.Context, from, to string) {
	if c.metrics == nil {
		return
	}
	c.metrics.stateTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (c *controller) recordHookFailure(ctx context.Context, phase string) {
	if c.metrics == nil {
		return
	}
	c.metrics.hookFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("phase", phase)))
}
