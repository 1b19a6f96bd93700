package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/petems/speaker-tap/internal/audio"
	"github.com/petems/speaker-tap/internal/config"
	"github.com/petems/speaker-tap/internal/observe"
	"github.com/rs/zerolog"
)

var ErrAlreadyCapturing = errors.New("capture already running")

const readChunk = 4096

type Config struct {
	Backend audio.Backend
	Config  *config.Config
	// ConfigPath is where selections are saved; the default path when empty.
	ConfigPath string
	Logger     zerolog.Logger
	Metrics    *observe.Metrics // Optional - global meter when nil
	// Permissions is checked before microphone capture. Optional.
	Permissions func() error
}

type App struct {
	backend     audio.Backend
	cfg         *config.Config
	cfgPath     string
	log         zerolog.Logger
	metrics     *observe.Metrics
	permissions func() error

	mu        sync.Mutex
	capturing bool
}

// Stats summarizes a finished capture.
type Stats struct {
	Device     audio.Device
	SampleRate int
	Channels   int
	Samples    uint64
	Dropped    uint64
	// Reason is why the stream ended; nil when stopped by the caller.
	Reason error
}

// Duration is the length of audio the captured samples represent.
func (s Stats) Duration() time.Duration {
	if s.SampleRate <= 0 || s.Channels <= 0 {
		return 0
	}
	frames := float64(s.Samples) / float64(s.Channels)
	return time.Duration(frames / float64(s.SampleRate) * float64(time.Second))
}

func New(cfg Config) *App {
	return &App{
		backend:     cfg.Backend,
		cfg:         cfg.Config,
		cfgPath:     cfg.ConfigPath,
		log:         cfg.Logger,
		metrics:     cfg.Metrics,
		permissions: cfg.Permissions,
	}
}

func (a *App) direction() (audio.Direction, error) {
	return audio.ParseDirection(a.cfg.Audio.Direction)
}

func (a *App) options() []audio.Option {
	ac := a.cfg.Audio
	opts := []audio.Option{
		audio.WithLogger(a.log),
		audio.WithBufferCapacity(ac.BufferCapacity),
		audio.WithHandshakeTimeout(time.Duration(ac.HandshakeTimeout)),
		audio.WithEventTimeout(time.Duration(ac.EventTimeout)),
	}
	if a.metrics != nil {
		opts = append(opts, audio.WithMetrics(a.metrics))
	}
	if ac.StrictStart {
		opts = append(opts, audio.WithStrictStart())
	}
	if ac.DropPartialFrames {
		opts = append(opts, audio.WithDropPartialFrames())
	}
	return opts
}

// Capture records from the configured device and writes little-endian
// float32 samples to sink until ctx is done or the stream ends.
func (a *App) Capture(ctx context.Context, sink io.Writer) (Stats, error) {
	a.mu.Lock()
	if a.capturing {
		a.mu.Unlock()
		return Stats{}, ErrAlreadyCapturing
	}
	a.capturing = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.capturing = false
		a.mu.Unlock()
	}()

	dir, err := a.direction()
	if err != nil {
		return Stats{}, err
	}
	if dir == audio.Microphone && a.permissions != nil {
		if err := a.permissions(); err != nil {
			return Stats{}, err
		}
	}

	session := audio.NewSession(a.cfg.Audio.DeviceID, dir, a.backend, a.options()...)
	stream, err := session.Start(ctx)
	if err != nil {
		return Stats{}, err
	}
	defer stream.Close()

	format := stream.Format()
	stats := Stats{
		Device:     stream.Device(),
		SampleRate: format.SampleRate,
		Channels:   format.Channels,
	}
	a.log.Info().
		Str("device", stats.Device.Name).
		Stringer("direction", dir).
		Int("sample_rate", stats.SampleRate).
		Msg("Starting capture")

	buf := make([]float32, readChunk)
	out := make([]byte, 0, readChunk*4)
	for {
		n, err := stream.Read(ctx, buf)
		if n > 0 {
			out = audio.AppendFloat32LE(out[:0], buf[:n])
			if _, werr := sink.Write(out); werr != nil {
				return stats, fmt.Errorf("failed to write samples: %w", werr)
			}
			stats.Samples += uint64(n)
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) || ctx.Err() != nil {
			break
		}
		return stats, err
	}

	stream.Close()
	stats.Dropped = stream.Dropped()
	stats.Reason = stream.Err()

	event := a.log.Info()
	if stats.Reason != nil {
		event = a.log.Warn().Err(stats.Reason)
	}
	event.
		Uint64("samples", stats.Samples).
		Uint64("dropped", stats.Dropped).
		Dur("duration", stats.Duration()).
		Msg("Capture finished")
	return stats, nil
}

// Selection actions, persisted to the config file.

func (a *App) SetDevice(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.capturing {
		return fmt.Errorf("cannot change while capturing")
	}

	a.cfg.Audio.DeviceID = id
	return a.saveLocked()
}

func (a *App) SetDirection(dir audio.Direction) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.capturing {
		return fmt.Errorf("cannot change while capturing")
	}

	a.cfg.Audio.Direction = dir.String()
	return a.saveLocked()
}

func (a *App) saveLocked() error {
	if a.cfgPath != "" {
		return a.cfg.SaveTo(a.cfgPath)
	}
	return a.cfg.Save()
}

func (a *App) IsCapturing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.capturing
}

func (a *App) ListDevices(dir audio.Direction) ([]audio.Device, error) {
	return audio.ListDevices(a.backend, dir, audio.WithLogger(a.log))
}
