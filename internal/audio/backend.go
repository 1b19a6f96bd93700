package audio

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/rs/zerolog"
)

const (
	BackendAuto      = "auto"
	BackendMalgo     = "malgo"
	BackendPulse     = "pulse"
	BackendPortAudio = "portaudio"
)

// NewBackend initializes the named host audio subsystem. "auto" picks
// PulseAudio/PipeWire on Linux when parec is installed, miniaudio otherwise.
func NewBackend(name string, log zerolog.Logger) (Backend, error) {
	if name == "" || name == BackendAuto {
		name = autoBackend()
	}

	switch name {
	case BackendMalgo:
		return newMalgoBackend(log)
	case BackendPulse:
		return newPulseBackend(log)
	case BackendPortAudio:
		return newPortAudioBackend(log)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, name)
}

func autoBackend() string {
	if runtime.GOOS == "linux" {
		if _, err := exec.LookPath("parec"); err == nil {
			return BackendPulse
		}
	}
	return BackendMalgo
}
