package audio

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	pulseMonitorSuffix = ".monitor"
	pulseDefaultRate   = 48000
	pulseQueryTimeout  = 5 * time.Second
	pulseReadChunk     = 4096
)

// pulseBackend captures from PulseAudio or PipeWire by running parec. Sinks
// are recorded in loopback through their monitor source.
type pulseBackend struct {
	log   zerolog.Logger
	pactl string
	parec string

	// run executes pactl; replaced in tests.
	run func(ctx context.Context, args ...string) ([]byte, error)
}

func newPulseBackend(log zerolog.Logger) (*pulseBackend, error) {
	pactl, err := exec.LookPath("pactl")
	if err != nil {
		return nil, fmt.Errorf("pactl not found: %w", err)
	}
	parec, err := exec.LookPath("parec")
	if err != nil {
		return nil, fmt.Errorf("parec not found: %w", err)
	}

	b := &pulseBackend{
		log:   log.With().Str("backend", BackendPulse).Logger(),
		pactl: pactl,
		parec: parec,
	}
	b.run = b.runPactl
	return b, nil
}

func (b *pulseBackend) Name() string { return BackendPulse }

func (b *pulseBackend) runPactl(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, b.pactl, args...)
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pactl %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

func (b *pulseBackend) query(args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), pulseQueryTimeout)
	defer cancel()
	return b.run(ctx, args...)
}

// pulseEndpoint is one entry of `pactl list sources|sinks`.
type pulseEndpoint struct {
	Name        string
	Description string
	SampleRate  int
	Channels    int
}

func (b *pulseBackend) endpoints(flow Flow) ([]pulseEndpoint, error) {
	kind := "sources"
	if flow == FlowRender {
		kind = "sinks"
	}
	out, err := b.query("list", kind)
	if err != nil {
		return nil, err
	}

	endpoints := parsePulseList(out)
	if flow == FlowCapture {
		// Monitors are loopbacks of sinks, listed under speakers instead.
		filtered := endpoints[:0]
		for _, ep := range endpoints {
			if !strings.HasSuffix(ep.Name, pulseMonitorSuffix) {
				filtered = append(filtered, ep)
			}
		}
		endpoints = filtered
	}
	return endpoints, nil
}

func (b *pulseBackend) Devices(flow Flow) ([]Device, error) {
	endpoints, err := b.endpoints(flow)
	if err != nil {
		return nil, err
	}
	result := make([]Device, 0, len(endpoints))
	for _, ep := range endpoints {
		result = append(result, Device{ID: ep.Name, Name: ep.Description})
	}
	return result, nil
}

func (b *pulseBackend) DefaultDevice(flow Flow) (Device, error) {
	out, err := b.query("info")
	if err != nil {
		return Device{}, err
	}
	name := parsePulseDefault(out, flow)
	if name == "" {
		return Device{}, ErrNoDevice
	}

	dev := Device{ID: name, Name: name, Default: true}
	if endpoints, err := b.endpoints(flow); err == nil {
		for _, ep := range endpoints {
			if ep.Name == name {
				dev.Name = ep.Description
				break
			}
		}
	}
	return dev, nil
}

func (b *pulseBackend) Open(dev Device, mode Mode) (Client, error) {
	flow := FlowCapture
	source := dev.ID
	if mode == ModeLoopback {
		flow = FlowRender
		source = dev.ID + pulseMonitorSuffix
	}

	rate := pulseDefaultRate
	endpoints, err := b.endpoints(flow)
	if err != nil {
		return nil, err
	}
	for _, ep := range endpoints {
		if ep.Name == dev.ID && ep.SampleRate > 0 {
			rate = ep.SampleRate
			break
		}
	}

	cmd := exec.Command(b.parec,
		"--raw",
		"--format=float32le",
		"--channels=1",
		"--rate="+strconv.Itoa(rate),
		"--latency-msec=10",
		"--device="+source,
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open parec pipe: %w", err)
	}

	return &pulseClient{
		eventBuffer: newEventBuffer(0),
		cmd:         cmd,
		stdout:      stdout,
		format:      Format{SampleRate: rate, Channels: 1},
		log:         b.log.With().Str("source", source).Logger(),
	}, nil
}

func (b *pulseBackend) Close() error { return nil }

type pulseClient struct {
	*eventBuffer
	cmd    *exec.Cmd
	stdout io.ReadCloser
	format Format
	log    zerolog.Logger
	wg     sync.WaitGroup
}

func (c *pulseClient) Format() Format { return c.format }

func (c *pulseClient) Start() error {
	if err := c.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start parec: %w", err)
	}
	c.wg.Add(1)
	go c.readLoop()
	return nil
}

func (c *pulseClient) readLoop() {
	defer c.wg.Done()
	buf := make([]byte, pulseReadChunk)
	for {
		n, err := c.stdout.Read(buf)
		if n > 0 {
			c.write(buf[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				c.fail(fmt.Errorf("parec read: %w", err))
			}
			return
		}
	}
}

func (c *pulseClient) Close() error {
	if c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
	}
	c.wg.Wait()
	if err := c.cmd.Wait(); err != nil {
		c.log.Debug().Err(err).Msg("parec exited")
	}
	return nil
}

// parsePulseList parses the long form of `pactl list sources|sinks`.
func parsePulseList(out []byte) []pulseEndpoint {
	var (
		result []pulseEndpoint
		cur    *pulseEndpoint
	)
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "Source #") || strings.HasPrefix(line, "Sink #") {
			result = append(result, pulseEndpoint{})
			cur = &result[len(result)-1]
			continue
		}
		if cur == nil {
			continue
		}

		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch key {
		case "Name":
			cur.Name = value
		case "Description":
			cur.Description = value
		case "Sample Specification":
			cur.Channels, cur.SampleRate = parsePulseSpec(value)
		}
	}
	return result
}

// parsePulseSpec parses a sample specification like "s16le 2ch 44100Hz".
func parsePulseSpec(spec string) (channels, rate int) {
	for _, field := range strings.Fields(spec) {
		switch {
		case strings.HasSuffix(field, "ch"):
			channels, _ = strconv.Atoi(strings.TrimSuffix(field, "ch"))
		case strings.HasSuffix(field, "Hz"):
			rate, _ = strconv.Atoi(strings.TrimSuffix(field, "Hz"))
		}
	}
	return channels, rate
}

// parsePulseDefault extracts the default sink or source from `pactl info`.
func parsePulseDefault(out []byte, flow Flow) string {
	prefix := "Default Source:"
	if flow == FlowRender {
		prefix = "Default Sink:"
	}
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		if rest, ok := strings.CutPrefix(sc.Text(), prefix); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}
