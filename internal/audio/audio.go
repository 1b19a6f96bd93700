// Package audio bridges blocking, event-driven native capture APIs into a
// single-consumer pull stream of float32 samples.
//
// A capture runs on its own OS thread owned by the package. Consumers
// enumerate devices with [ListDevices], describe what to open with
// [NewSession], and drain the [Stream] returned by [Session.Start].
package audio

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultBufferCapacity is the number of samples buffered between the
	// capture thread and the consumer before the oldest are evicted.
	DefaultBufferCapacity = 131072

	// DefaultHandshakeTimeout bounds how long Start waits for the capture
	// thread to open and negotiate the device.
	DefaultHandshakeTimeout = 5 * time.Second

	// DefaultEventTimeout bounds the wait for a single data-ready event
	// once streaming. Exceeding it ends the stream.
	DefaultEventTimeout = 3 * time.Second

	// FallbackSampleRate is reported by a stream whose device never
	// finished initializing.
	FallbackSampleRate = 44100

	bytesPerSample = 4
)

// Flow identifies an endpoint collection on the host.
type Flow int

const (
	FlowCapture Flow = iota // input endpoints (microphones, line in)
	FlowRender              // output endpoints (speakers, headphones)
)

func (f Flow) String() string {
	if f == FlowRender {
		return "render"
	}
	return "capture"
}

// Mode is how a client is initialized against an endpoint.
type Mode int

const (
	// ModeCapture records the endpoint's own input signal.
	ModeCapture Mode = iota
	// ModeLoopback records a copy of what a render endpoint is playing.
	ModeLoopback
)

func (m Mode) String() string {
	if m == ModeLoopback {
		return "loopback"
	}
	return "capture"
}

// Direction is what the caller wants to record.
type Direction int

const (
	Microphone Direction = iota
	Speaker
)

// Flow returns the endpoint collection devices are looked up in. Speaker
// capture looks among render endpoints.
func (d Direction) Flow() Flow {
	if d == Speaker {
		return FlowRender
	}
	return FlowCapture
}

// Mode returns how the client is initialized. Speaker capture opens a render
// endpoint in loopback mode, so lookup and initialization intentionally use
// different directions.
func (d Direction) Mode() Mode {
	if d == Speaker {
		return ModeLoopback
	}
	return ModeCapture
}

func (d Direction) String() string {
	if d == Speaker {
		return "speaker"
	}
	return "microphone"
}

// ParseDirection parses a direction name as used in config files and flags.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "microphone", "mic", "input":
		return Microphone, nil
	case "speaker", "system", "output", "loopback":
		return Speaker, nil
	}
	return Microphone, fmt.Errorf("unknown capture direction %q", s)
}

// Device represents an audio endpoint. ID is opaque and is the only field
// used for identity; Name is for display.
type Device struct {
	ID      string
	Name    string
	Default bool
}

// Format is what a client negotiated with the device. Samples are always
// interleaved little-endian float32.
type Format struct {
	SampleRate int
	Channels   int
}

// Backend is one host audio subsystem.
type Backend interface {
	Name() string
	// Devices enumerates the endpoints of flow.
	Devices(flow Flow) ([]Device, error)
	// DefaultDevice returns the system default endpoint of flow.
	DefaultDevice(flow Flow) (Device, error)
	// Open creates a client for dev initialized in mode. It is called on the
	// capture thread, which owns the client until Close.
	Open(dev Device, mode Mode) (Client, error)
	Close() error
}

// Client is an opened, event-driven capture client.
type Client interface {
	Format() Format
	Start() error
	// Ready delivers a value whenever new data may be available.
	Ready() <-chan struct{}
	// ReadAvailable appends every byte currently available to dst.
	ReadAvailable(dst []byte) ([]byte, error)
	Close() error
}
