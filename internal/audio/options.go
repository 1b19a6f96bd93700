package audio

import (
	"time"

	"github.com/petems/speaker-tap/internal/observe"
	"github.com/rs/zerolog"
)

// Option configures a Session or a directory query.
type Option func(*options)

type options struct {
	log              zerolog.Logger
	metrics          *observe.Metrics
	bufferCapacity   int
	handshakeTimeout time.Duration
	eventTimeout     time.Duration
	strictStart      bool
	dropPartial      bool
}

func defaultOptions() options {
	return options{
		log:              zerolog.Nop(),
		bufferCapacity:   DefaultBufferCapacity,
		handshakeTimeout: DefaultHandshakeTimeout,
		eventTimeout:     DefaultEventTimeout,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = observe.DefaultMetrics()
	}
	return o
}

// WithLogger sets the logger for diagnostic events.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithMetrics records capture counters on m instead of the global meter.
func WithMetrics(m *observe.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithBufferCapacity sets how many samples may wait for the consumer.
func WithBufferCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.bufferCapacity = n
		}
	}
}

// WithHandshakeTimeout sets how long Start waits for the device to open.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.handshakeTimeout = d
		}
	}
}

// WithEventTimeout sets how long the capture thread waits for one
// data-ready event before ending the stream.
func WithEventTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.eventTimeout = d
		}
	}
}

// WithStrictStart makes Start return initialization failures instead of a
// degraded stream that never produces samples.
func WithStrictStart() Option {
	return func(o *options) { o.strictStart = true }
}

// WithDropPartialFrames discards an incomplete trailing sample at the end of
// each read instead of completing it with the next read.
func WithDropPartialFrames() Option {
	return func(o *options) { o.dropPartial = true }
}
