package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog"
)

// portAudioBackend captures microphones through PortAudio. PortAudio has no
// loopback mode.
type portAudioBackend struct {
	log zerolog.Logger
}

func newPortAudioBackend(log zerolog.Logger) (*portAudioBackend, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return &portAudioBackend{log: log.With().Str("backend", BackendPortAudio).Logger()}, nil
}

func (p *portAudioBackend) Name() string { return BackendPortAudio }

func portAudioID(d *portaudio.DeviceInfo) string {
	if d.HostApi != nil {
		return d.HostApi.Name + ":" + d.Name
	}
	return d.Name
}

func hasChannels(d *portaudio.DeviceInfo, flow Flow) bool {
	if flow == FlowRender {
		return d.MaxOutputChannels > 0
	}
	return d.MaxInputChannels > 0
}

func (p *portAudioBackend) Devices(flow Flow) ([]Device, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	result := make([]Device, 0, len(devices))
	for _, d := range devices {
		if hasChannels(d, flow) {
			result = append(result, Device{
				ID:   portAudioID(d),
				Name: d.Name,
			})
		}
	}
	return result, nil
}

func (p *portAudioBackend) DefaultDevice(flow Flow) (Device, error) {
	var (
		d   *portaudio.DeviceInfo
		err error
	)
	if flow == FlowRender {
		d, err = portaudio.DefaultOutputDevice()
	} else {
		d, err = portaudio.DefaultInputDevice()
	}
	if err != nil {
		return Device{}, fmt.Errorf("failed to get default %s device: %w", flow, err)
	}
	return Device{ID: portAudioID(d), Name: d.Name, Default: true}, nil
}

func (p *portAudioBackend) Open(dev Device, mode Mode) (Client, error) {
	if mode == ModeLoopback {
		return nil, ErrLoopbackUnsupported
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}
	var device *portaudio.DeviceInfo
	for _, d := range devices {
		if portAudioID(d) == dev.ID && d.MaxInputChannels > 0 {
			device = d
			break
		}
	}
	if device == nil {
		return nil, fmt.Errorf("device not found: %s", dev.ID)
	}

	c := &portAudioClient{
		eventBuffer: newEventBuffer(0),
		format:      Format{SampleRate: int(device.DefaultSampleRate), Channels: 1},
	}

	// Mono float32 at the device's own rate, delivered by callback.
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: 1,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      device.DefaultSampleRate,
		FramesPerBuffer: portaudio.FramesPerBufferUnspecified,
	}, c.onData)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio stream: %w", err)
	}
	c.stream = stream
	return c, nil
}

func (p *portAudioBackend) Close() error {
	return portaudio.Terminate()
}

type portAudioClient struct {
	*eventBuffer
	stream  *portaudio.Stream
	format  Format
	scratch []byte
}

func (c *portAudioClient) onData(in []float32) {
	c.scratch = AppendFloat32LE(c.scratch[:0], in)
	c.write(c.scratch)
}

func (c *portAudioClient) Format() Format { return c.format }

func (c *portAudioClient) Start() error {
	if err := c.stream.Start(); err != nil {
		return fmt.Errorf("failed to start audio stream: %w", err)
	}
	return nil
}

func (c *portAudioClient) Close() error {
	if err := c.stream.Stop(); err != nil {
		c.stream.Close()
		return err
	}
	return c.stream.Close()
}
