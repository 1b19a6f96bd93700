package audio

import (
	"context"
	"sync"
	"time"
)

// Session names the device to capture from. Nothing is opened until Start.
type Session struct {
	deviceID  string
	direction Direction
	backend   Backend
	opts      []Option

	mu      sync.Mutex
	started bool
}

// NewSession returns a session for deviceID on b. An empty id or "default"
// selects the system default for dir.
func NewSession(deviceID string, dir Direction, b Backend, opts ...Option) *Session {
	return &Session{
		deviceID:  normalizeDeviceID(deviceID),
		direction: dir,
		backend:   b,
		opts:      opts,
	}
}

// DeviceID returns the requested device, or "" for the system default.
func (s *Session) DeviceID() string { return s.deviceID }

func (s *Session) Direction() Direction { return s.direction }

// Start spawns the capture thread and waits for it to report the negotiated
// format. A session can be started once.
//
// If the device cannot be opened in time, Start logs the failure and returns
// a stream reporting FallbackSampleRate that ends without producing samples;
// Stream.Err reports the StartError. With WithStrictStart the StartError is
// returned instead.
func (s *Session) Start(ctx context.Context) (*Stream, error) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil, ErrSessionConsumed
	}
	s.started = true
	s.mu.Unlock()

	o := buildOptions(s.opts)
	e := newEngine(s.backend, s.deviceID, s.direction, o)
	init := make(chan handshake, 1)
	go e.run(init)

	timer := time.NewTimer(o.handshakeTimeout)
	defer timer.Stop()

	var hs handshake
	select {
	case hs = <-init:
	case <-timer.C:
		e.signal()
		hs.err = &StartError{Device: s.deviceID, Err: ErrHandshakeTimeout}
		e.log.Error().Dur("timeout", o.handshakeTimeout).Msg("Audio initialization timeout")
	case <-ctx.Done():
		e.stop()
		return nil, ctx.Err()
	}

	if hs.err != nil {
		if o.strictStart {
			e.stop()
			return nil, hs.err
		}
		e.log.Warn().Int("sample_rate", FallbackSampleRate).Msg("Continuing with fallback sample rate")
		return newStream(e, Device{ID: s.deviceID}, Format{SampleRate: FallbackSampleRate, Channels: 1}, hs.err), nil
	}
	return newStream(e, hs.device, hs.format, nil), nil
}
