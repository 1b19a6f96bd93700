// Package observe holds the OpenTelemetry instruments recorded by captures
// and the Prometheus bridge that exposes them.
//
// Tests should build their own [Metrics] with [NewMetrics] and a
// ManualReader-backed provider rather than use [DefaultMetrics].
package observe

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/petems/speaker-tap"

// Metrics holds all instruments for the capture pipeline. All fields are
// safe for concurrent use.
type Metrics struct {
	// SamplesCaptured counts samples handed to the consumer queue.
	SamplesCaptured metric.Int64Counter

	// SamplesDropped counts samples evicted because the consumer fell behind.
	SamplesDropped metric.Int64Counter

	// ReadErrors counts transient device read failures.
	ReadErrors metric.Int64Counter

	// EventTimeouts counts streams ended by a missing data-ready event.
	EventTimeouts metric.Int64Counter

	// ActiveStreams tracks capture threads currently running.
	ActiveStreams metric.Int64UpDownCounter

	// StartDuration tracks how long device open and negotiation take.
	StartDuration metric.Float64Histogram
}

var startBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// NewMetrics creates every instrument on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.SamplesCaptured, err = m.Int64Counter("speaker_tap.samples.captured",
		metric.WithDescription("Samples delivered by capture devices."),
		metric.WithUnit("{sample}"),
	); err != nil {
		return nil, err
	}
	if met.SamplesDropped, err = m.Int64Counter("speaker_tap.samples.dropped",
		metric.WithDescription("Samples evicted from a full capture buffer."),
		metric.WithUnit("{sample}"),
	); err != nil {
		return nil, err
	}
	if met.ReadErrors, err = m.Int64Counter("speaker_tap.read.errors",
		metric.WithDescription("Transient device read failures."),
	); err != nil {
		return nil, err
	}
	if met.EventTimeouts, err = m.Int64Counter("speaker_tap.event.timeouts",
		metric.WithDescription("Captures stopped because the device went silent."),
	); err != nil {
		return nil, err
	}
	if met.ActiveStreams, err = m.Int64UpDownCounter("speaker_tap.streams.active",
		metric.WithDescription("Capture threads currently running."),
	); err != nil {
		return nil, err
	}
	if met.StartDuration, err = m.Float64Histogram("speaker_tap.start.duration",
		metric.WithDescription("Time to open and negotiate a capture device."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(startBuckets...),
	); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// DefaultMetrics returns instruments on the global meter provider, created on
// first use. Falls back to no-op instruments if creation fails.
func DefaultMetrics() *Metrics {
	defaultOnce.Do(func() {
		m, err := NewMetrics(otel.GetMeterProvider())
		if err != nil {
			m, _ = NewMetrics(noop.NewMeterProvider())
		}
		defaultMetrics = m
	})
	return defaultMetrics
}
