package audio

import (
	"errors"
	"fmt"
)

var (
	// ErrEventTimeout ends a stream whose device stopped signalling data.
	ErrEventTimeout = errors.New("timed out waiting for audio data")

	// ErrHandshakeTimeout is wrapped in a StartError when the capture thread
	// did not report back in time.
	ErrHandshakeTimeout = errors.New("timed out waiting for audio initialization")

	ErrSessionConsumed     = errors.New("capture session already started")
	ErrLoopbackUnsupported = errors.New("loopback capture not supported by backend")
	ErrNoDevice            = errors.New("no audio device found")
	ErrUnknownBackend      = errors.New("unknown audio backend")
)

// EnumerationError is returned when a device collection cannot be opened.
type EnumerationError struct {
	Flow Flow
	Err  error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("failed to enumerate %s devices: %v", e.Flow, e.Err)
}

func (e *EnumerationError) Unwrap() error { return e.Err }

// StartError is returned when a device could not be opened or negotiated.
type StartError struct {
	Device string
	Err    error
}

func (e *StartError) Error() string {
	dev := e.Device
	if dev == "" {
		dev = "default"
	}
	return fmt.Sprintf("failed to start capture on %s device: %v", dev, e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }
