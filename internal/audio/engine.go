package audio

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// State is the lifecycle stage of a capture.
type State int32

const (
	StateInitializing State = iota
	StateStreaming
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateStreaming:
		return "streaming"
	default:
		return "stopped"
	}
}

type handshake struct {
	device Device
	format Format
	err    error
}

// engine owns the capture thread. Only that thread touches the backend
// client; the queue and wake state are the only things shared with the
// consumer.
type engine struct {
	backend  Backend
	deviceID string
	dir      Direction
	opts     options
	log      zerolog.Logger
	attrs    metric.MeasurementOption

	queue *sampleQueue
	wake  *wakeState
	quit  chan struct{}
	done  chan struct{}

	state   atomic.Int32
	dropped atomic.Uint64
}

func newEngine(b Backend, deviceID string, dir Direction, opts options) *engine {
	return &engine{
		backend:  b,
		deviceID: deviceID,
		dir:      dir,
		opts:     opts,
		log: opts.log.With().
			Str("backend", b.Name()).
			Stringer("direction", dir).
			Logger(),
		attrs: metric.WithAttributes(
			attribute.String("backend", b.Name()),
			attribute.String("direction", dir.String()),
		),
		queue: newSampleQueue(opts.bufferCapacity),
		wake:  &wakeState{},
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// run is the body of the capture thread.
func (e *engine) run(init chan<- handshake) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(e.done)

	ctx := context.Background()
	e.opts.metrics.ActiveStreams.Add(ctx, 1, e.attrs)
	defer e.opts.metrics.ActiveStreams.Add(ctx, -1, e.attrs)

	reason := e.capture(init)
	e.state.Store(int32(StateStopped))
	e.wake.finish(reason)
}

func (e *engine) capture(init chan<- handshake) error {
	started := time.Now()
	client, dev, err := e.open()
	if err != nil {
		serr := &StartError{Device: e.deviceID, Err: err}
		e.log.Error().Err(err).Str("device_id", e.deviceID).Msg("Audio initialization failed")
		init <- handshake{err: serr}
		return serr
	}
	defer func() {
		if err := client.Close(); err != nil {
			e.log.Error().Err(err).Msg("Failed to release audio client")
		}
	}()

	format := client.Format()
	e.opts.metrics.StartDuration.Record(context.Background(), time.Since(started).Seconds(), e.attrs)
	e.log.Info().
		Str("device", dev.Name).
		Int("sample_rate", format.SampleRate).
		Int("channels", format.Channels).
		Msg("Audio capture started")

	e.state.Store(int32(StateStreaming))
	init <- handshake{device: dev, format: format}
	return e.stream(client)
}

func (e *engine) open() (Client, Device, error) {
	dev, err := resolveDevice(e.backend, e.deviceID, e.dir.Flow(), e.log)
	if err != nil {
		return nil, Device{}, err
	}

	client, err := e.backend.Open(dev, e.dir.Mode())
	if err != nil {
		return nil, dev, err
	}
	if err := client.Start(); err != nil {
		client.Close()
		return nil, dev, err
	}
	return client, dev, nil
}

// overflowReporter is implemented by clients that buffer bytes ahead of the
// engine and may trim them when it falls behind.
type overflowReporter interface {
	takeOverflow() int
}

func (e *engine) stream(client Client) error {
	ctx := context.Background()
	dec := frameDecoder{carry: !e.opts.dropPartial}
	overflow, _ := client.(overflowReporter)
	var (
		raw     []byte
		samples []float32
		err     error
	)

	timer := time.NewTimer(e.opts.eventTimeout)
	defer timer.Stop()

	for {
		if e.wake.isShutdown() {
			return nil
		}

		timer.Reset(e.opts.eventTimeout)
		select {
		case <-e.quit:
			return nil
		case <-timer.C:
			e.opts.metrics.EventTimeouts.Add(ctx, 1, e.attrs)
			e.log.Error().Dur("timeout", e.opts.eventTimeout).Msg("Timed out waiting for audio data, stopping capture")
			return ErrEventTimeout
		case <-client.Ready():
		}

		raw, err = client.ReadAvailable(raw[:0])
		if overflow != nil {
			if n := overflow.takeOverflow(); n > 0 {
				e.recordDropped(ctx, n, "client")
			}
		}
		if err != nil {
			e.opts.metrics.ReadErrors.Add(ctx, 1, e.attrs)
			e.log.Warn().Err(err).Msg("Failed to read audio data")
			continue
		}
		if len(raw) == 0 {
			continue
		}

		samples = dec.decode(raw, samples[:0])
		if dec.discarded > 0 {
			e.log.Debug().Int("bytes", dec.discarded).Msg("Discarded partial sample")
			dec.discarded = 0
		}
		if len(samples) == 0 {
			continue
		}

		if dropped := e.queue.push(samples); dropped > 0 {
			e.recordDropped(ctx, dropped, "queue")
		}
		e.opts.metrics.SamplesCaptured.Add(ctx, int64(len(samples)), e.attrs)
		e.wake.notify()
	}
}

func (e *engine) recordDropped(ctx context.Context, n int, stage string) {
	e.dropped.Add(uint64(n))
	e.opts.metrics.SamplesDropped.Add(ctx, int64(n), e.attrs)
	e.log.Warn().Int("dropped", n).Str("stage", stage).Msg("Buffer overflow, dropped oldest samples")
}

// signal asks the capture thread to exit without waiting for it.
func (e *engine) signal() {
	if e.wake.requestShutdown() {
		close(e.quit)
	}
}

// stop signals the capture thread and waits for it to exit.
func (e *engine) stop() {
	e.signal()
	<-e.done
}
