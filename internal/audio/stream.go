package audio

import (
	"context"
	"io"
	"sync"
)

// PollStatus is the outcome of a single Poll.
type PollStatus int

const (
	// PollReady means a sample was returned.
	PollReady PollStatus = iota
	// PollPending means no sample is buffered; the waker will be called
	// when one may be.
	PollPending
	// PollClosed means the stream has ended and will never produce again.
	PollClosed
)

func (p PollStatus) String() string {
	switch p {
	case PollReady:
		return "ready"
	case PollPending:
		return "pending"
	default:
		return "closed"
	}
}

// Stream is the consumer side of a capture. It must be drained by a single
// consumer; Close may be called from any goroutine.
type Stream struct {
	engine   *engine
	device   Device
	format   Format
	startErr error

	wakeCh    chan struct{}
	waker     Waker
	closeOnce sync.Once
}

func newStream(e *engine, dev Device, format Format, startErr error) *Stream {
	s := &Stream{
		engine:   e,
		device:   dev,
		format:   format,
		startErr: startErr,
		wakeCh:   make(chan struct{}, 1),
	}
	s.waker = func() {
		select {
		case s.wakeCh <- struct{}{}:
		default:
		}
	}
	return s
}

// Poll returns the next sample if one is buffered. When none is, wake is
// registered and PollPending returned; wake is then called once a sample may
// be available or the stream ends. Spurious wakes are possible.
func (s *Stream) Poll(wake Waker) (float32, PollStatus) {
	e := s.engine
	if e.wake.isShutdown() {
		return 0, PollClosed
	}
	if v, ok := e.queue.pop(); ok {
		return v, PollReady
	}

	switch e.wake.register(wake) {
	case registerShutdown:
		return 0, PollClosed
	case registerFinished:
		// Samples pushed before the thread exited are still delivered.
		if v, ok := e.queue.pop(); ok {
			return v, PollReady
		}
		return 0, PollClosed
	}

	// A sample may have arrived between the first pop and registration, in
	// which case its wake went to nobody.
	if v, ok := e.queue.pop(); ok {
		return v, PollReady
	}
	return 0, PollPending
}

// Next blocks until a sample is available. It returns io.EOF once the stream
// has ended; Err reports why.
func (s *Stream) Next(ctx context.Context) (float32, error) {
	for {
		v, status := s.Poll(s.waker)
		switch status {
		case PollReady:
			return v, nil
		case PollClosed:
			return 0, io.EOF
		}

		select {
		case <-s.wakeCh:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// Read blocks for the first sample and then fills dst with whatever else is
// already buffered.
func (s *Stream) Read(ctx context.Context, dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	v, err := s.Next(ctx)
	if err != nil {
		return 0, err
	}
	dst[0] = v
	if s.engine.wake.isShutdown() {
		return 1, nil
	}
	return 1 + s.engine.queue.popInto(dst[1:]), nil
}

// SampleRate is the rate the device negotiated, or FallbackSampleRate if it
// never finished initializing.
func (s *Stream) SampleRate() int { return s.format.SampleRate }

func (s *Stream) Format() Format { return s.format }

// Device is the endpoint the stream resolved to.
func (s *Stream) Device() Device { return s.device }

func (s *Stream) State() State { return State(s.engine.state.Load()) }

// Dropped returns how many samples were evicted because the consumer fell
// behind.
func (s *Stream) Dropped() uint64 { return s.engine.dropped.Load() }

// Buffered returns how many samples are waiting to be read.
func (s *Stream) Buffered() int { return s.engine.queue.len() }

// Err returns why the stream ended: nil while running or after a clean
// Close, ErrEventTimeout, or a *StartError.
func (s *Stream) Err() error {
	if s.startErr != nil {
		return s.startErr
	}
	return s.engine.wake.endReason()
}

// Close stops the capture thread and waits for it to release the device.
// After Close returns, Poll always reports PollClosed.
func (s *Stream) Close() error {
	s.closeOnce.Do(s.engine.stop)
	return nil
}
