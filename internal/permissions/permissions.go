// Package permissions checks OS privacy permissions needed before capture.
package permissions

import "errors"

var (
	ErrMicrophoneNotGranted = errors.New("microphone permission not granted yet, approve the system prompt and retry")
	ErrMicrophoneDenied     = errors.New("microphone permission denied, enable it in System Settings → Privacy & Security → Microphone")
)
