// Package observe provides application-wide observability primitives for
// Attune: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Attune metrics.
const meterName = "github.com/attunelabs/attune"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// SynthesisDuration tracks remote speech synthesis latency.
	SynthesisDuration metric.Float64Histogram

	// AssetLoadDuration tracks ambient sound decode-and-convert latency.
	AssetLoadDuration metric.Float64Histogram

	// --- Counters ---

	// ProviderRequests counts synthesis provider API calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// CacheLookups counts synthesis cache lookups. Use with attribute:
	//   attribute.String("status", "hit"|"miss")
	CacheLookups metric.Int64Counter

	// PromptsSpoken counts narration prompts delivered. Use with attribute:
	//   attribute.String("route", "remote"|"native")
	PromptsSpoken metric.Int64Counter

	// AmbientStarts counts ambient bed activations. Use with attribute:
	//   attribute.String("sound", ...)
	AmbientStarts metric.Int64Counter

	// --- Error counters ---

	// ProviderErrors counts synthesis provider errors. Use with attribute:
	//   attribute.String("provider", ...)
	ProviderErrors metric.Int64Counter

	// EngineErrors counts playback engine errors. Use with attribute:
	//   attribute.String("op", ...)
	EngineErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveAmbients tracks the number of ambient beds currently sounding.
	ActiveAmbients metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for synthesis round-trip latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.SynthesisDuration, err = m.Float64Histogram("attune.synthesis.duration",
		metric.WithDescription("Latency of remote speech synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.AssetLoadDuration, err = m.Float64Histogram("attune.asset_load.duration",
		metric.WithDescription("Latency of ambient sound decode and conversion."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.ProviderRequests, err = m.Int64Counter("attune.provider.requests",
		metric.WithDescription("Total synthesis provider requests by provider and status."),
	); err != nil {
		return nil, err
	}
	if met.CacheLookups, err = m.Int64Counter("attune.cache.lookups",
		metric.WithDescription("Total synthesis cache lookups by status."),
	); err != nil {
		return nil, err
	}
	if met.PromptsSpoken, err = m.Int64Counter("attune.prompts.spoken",
		metric.WithDescription("Total narration prompts delivered by route."),
	); err != nil {
		return nil, err
	}
	if met.AmbientStarts, err = m.Int64Counter("attune.ambient.starts",
		metric.WithDescription("Total ambient bed activations by sound."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.ProviderErrors, err = m.Int64Counter("attune.provider.errors",
		metric.WithDescription("Total synthesis provider errors by provider."),
	); err != nil {
		return nil, err
	}
	if met.EngineErrors, err = m.Int64Counter("attune.engine.errors",
		metric.WithDescription("Total playback engine errors by operation."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveAmbients, err = m.Int64UpDownCounter("attune.active_ambients",
		metric.WithDescription("Number of ambient beds currently sounding."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("attune.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
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

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordSynthesis records one synthesis round trip: the request counter and,
// on success, the latency histogram.
func (m *Metrics) RecordSynthesis(ctx context.Context, provider, status string, seconds float64) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("status", status),
		),
	)
	if status == "ok" {
		m.SynthesisDuration.Record(ctx, seconds,
			metric.WithAttributes(attribute.String("provider", provider)),
		)
	}
}

// RecordCacheLookup records a synthesis cache lookup outcome.
func (m *Metrics) RecordCacheLookup(ctx context.Context, hit bool) {
	status := "miss"
	if hit {
		status = "hit"
	}
	m.CacheLookups.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}

// RecordPromptSpoken records a delivered narration prompt.
func (m *Metrics) RecordPromptSpoken(ctx context.Context, route string) {
	m.PromptsSpoken.Add(ctx, 1,
		metric.WithAttributes(attribute.String("route", route)),
	)
}

// RecordProviderError records a synthesis provider error.
func (m *Metrics) RecordProviderError(ctx context.Context, provider string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("provider", provider)),
	)
}

// RecordEngineError records a playback engine error for the given operation.
func (m *Metrics) RecordEngineError(ctx context.Context, op string) {
	m.EngineErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("op", op)),
	)
}
