// Package observe provides observability primitives for voxweave:
// OpenTelemetry metrics with a Prometheus exporter bridge.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A package-level
// default [Metrics] instance ([DefaultMetrics]) is provided for convenience;
// tests should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all voxweave metrics.
const meterName = "github.com/voxweave/voxweave"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// SynthesisDuration tracks end-to-end audio generation latency per
	// conversion run. Use with attribute.String("provider", ...).
	SynthesisDuration metric.Float64Histogram

	// MergeDuration tracks merge-stage latency (trim, normalise, concat).
	MergeDuration metric.Float64Histogram

	// ProviderRequests counts provider API calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts provider errors by provider name.
	ProviderErrors metric.Int64Counter

	// SegmentsSynthesized counts transcript segments turned into audio.
	SegmentsSynthesized metric.Int64Counter

	// Conversions counts completed conversion runs by status.
	Conversions metric.Int64Counter
}

// durationBuckets defines histogram bucket boundaries (in seconds). TTS
// round-trips and multi-minute merges both land inside this range.
var durationBuckets = []float64{
	0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.SynthesisDuration, err = m.Float64Histogram("voxweave.synthesis.duration",
		metric.WithDescription("Latency of audio generation per conversion run."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, err
	}
	if met.MergeDuration, err = m.Float64Histogram("voxweave.merge.duration",
		metric.WithDescription("Latency of the merge stage (trim, normalise, concat)."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ProviderRequests, err = m.Int64Counter("voxweave.provider.requests",
		metric.WithDescription("Total provider API requests by provider and status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("voxweave.provider.errors",
		metric.WithDescription("Total provider errors by provider."),
	); err != nil {
		return nil, err
	}
	if met.SegmentsSynthesized, err = m.Int64Counter("voxweave.segments.synthesized",
		metric.WithDescription("Total transcript segments turned into audio."),
	); err != nil {
		return nil, err
	}
	if met.Conversions, err = m.Int64Counter("voxweave.conversions",
		metric.WithDescription("Total conversion runs by status."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordProviderRequest records a provider request counter increment with the
// standard attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("status", status),
		),
	)
}

// RecordProviderError records a provider error counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("provider", provider)),
	)
}

// RecordConversion records a completed conversion run.
func (m *Metrics) RecordConversion(ctx context.Context, status string) {
	m.Conversions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}
