package audio

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/gen2brain/malgo"
	"github.com/rs/zerolog"
)

// malgoBackend captures through miniaudio, which wraps WASAPI, CoreAudio,
// ALSA and PulseAudio. Loopback is only available on WASAPI.
type malgoBackend struct {
	ctx *malgo.AllocatedContext
	log zerolog.Logger
}

func newMalgoBackend(log zerolog.Logger) (*malgoBackend, error) {
	log = log.With().Str("backend", BackendMalgo).Logger()
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(msg string) {
		log.Debug().Msg(strings.TrimSpace(msg))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize miniaudio: %w", err)
	}
	return &malgoBackend{ctx: ctx, log: log}, nil
}

func (b *malgoBackend) Name() string { return BackendMalgo }

func malgoDeviceType(flow Flow) malgo.DeviceType {
	if flow == FlowRender {
		return malgo.Playback
	}
	return malgo.Capture
}

func (b *malgoBackend) infos(flow Flow) ([]malgo.DeviceInfo, error) {
	infos, err := b.ctx.Devices(malgoDeviceType(flow))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s devices: %w", flow, err)
	}
	return infos, nil
}

func (b *malgoBackend) Devices(flow Flow) ([]Device, error) {
	infos, err := b.infos(flow)
	if err != nil {
		return nil, err
	}

	result := make([]Device, 0, len(infos))
	for _, info := range infos {
		result = append(result, Device{
			ID:      info.ID.String(),
			Name:    info.Name(),
			Default: info.IsDefault != 0,
		})
	}
	return result, nil
}

func (b *malgoBackend) DefaultDevice(flow Flow) (Device, error) {
	devices, err := b.Devices(flow)
	if err != nil {
		return Device{}, err
	}
	for _, d := range devices {
		if d.Default {
			return d, nil
		}
	}
	if len(devices) > 0 {
		d := devices[0]
		d.Default = true
		return d, nil
	}
	return Device{}, ErrNoDevice
}

// malgoDeviceConfig asks for mono f32 at the device's native rate with the
// shortest period the backend offers.
func malgoDeviceConfig(deviceType malgo.DeviceType) malgo.DeviceConfig {
	cfg := malgo.DefaultDeviceConfig(deviceType)
	cfg.Capture.Format = malgo.FormatF32
	cfg.Capture.Channels = 1
	cfg.SampleRate = 0
	cfg.PerformanceProfile = malgo.LowLatency
	return cfg
}

func (b *malgoBackend) Open(dev Device, mode Mode) (Client, error) {
	deviceType := malgo.Capture
	flow := FlowCapture
	if mode == ModeLoopback {
		if runtime.GOOS != "windows" {
			return nil, ErrLoopbackUnsupported
		}
		deviceType = malgo.Loopback
		flow = FlowRender
	}

	c := &malgoClient{eventBuffer: newEventBuffer(0)}
	cfg := malgoDeviceConfig(deviceType)

	infos, err := b.infos(flow)
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if info.ID.String() == dev.ID {
			c.id = info.ID
			cfg.Capture.DeviceID = c.id.Pointer()
			break
		}
	}

	device, err := malgo.InitDevice(b.ctx.Context, cfg, malgo.DeviceCallbacks{
		Data: c.onData,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s device %q: %w", mode, dev.Name, err)
	}
	c.device = device
	c.format = Format{SampleRate: int(device.SampleRate()), Channels: 1}
	return c, nil
}

func (b *malgoBackend) Close() error {
	if err := b.ctx.Uninit(); err != nil {
		return err
	}
	b.ctx.Free()
	return nil
}

type malgoClient struct {
	*eventBuffer
	id     malgo.DeviceID
	device *malgo.Device
	format Format
}

func (c *malgoClient) onData(_, in []byte, _ uint32) {
	c.write(in)
}

func (c *malgoClient) Format() Format { return c.format }

func (c *malgoClient) Start() error {
	if err := c.device.Start(); err != nil {
		return fmt.Errorf("failed to start device: %w", err)
	}
	return nil
}

func (c *malgoClient) Close() error {
	c.device.Uninit()
	return nil
}
