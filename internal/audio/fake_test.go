package audio

import (
	"errors"
	"sync"
	"sync/atomic"
)

// fakeBackend is a scripted Backend. Every Open records the device and mode
// and returns the next client from clients, or a fresh one.
type fakeBackend struct {
	mu         sync.Mutex
	devices    map[Flow][]Device
	defaults   map[Flow]string
	enumErr    error
	defaultErr error
	openErr    error
	openBlock  chan struct{}
	rate       int
	// pendingLimit caps each client's eventBuffer; 0 is the default.
	pendingLimit int

	opened  []openCall
	clients []*fakeClient
}

type openCall struct {
	dev  Device
	mode Mode
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		devices: map[Flow][]Device{
			FlowCapture: {
				{ID: "mic-1", Name: "Built-in Microphone"},
				{ID: "mic-2", Name: "USB Headset"},
			},
			FlowRender: {
				{ID: "spk-1", Name: "Speakers"},
				{ID: "spk-2", Name: "HDMI Output"},
			},
		},
		defaults: map[Flow]string{
			FlowCapture: "mic-1",
			FlowRender:  "spk-1",
		},
		rate: 48000,
	}
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) Devices(flow Flow) ([]Device, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.enumErr != nil {
		return nil, b.enumErr
	}
	return append([]Device(nil), b.devices[flow]...), nil
}

func (b *fakeBackend) DefaultDevice(flow Flow) (Device, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.defaultErr != nil {
		return Device{}, b.defaultErr
	}
	for _, d := range b.devices[flow] {
		if d.ID == b.defaults[flow] {
			d.Default = true
			return d, nil
		}
	}
	return Device{}, ErrNoDevice
}

func (b *fakeBackend) Open(dev Device, mode Mode) (Client, error) {
	if b.openBlock != nil {
		<-b.openBlock
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opened = append(b.opened, openCall{dev: dev, mode: mode})
	if b.openErr != nil {
		return nil, b.openErr
	}
	c := newFakeClient(b.rate, b.pendingLimit)
	b.clients = append(b.clients, c)
	return c, nil
}

func (b *fakeBackend) Close() error { return nil }

func (b *fakeBackend) lastOpen() (openCall, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.opened) == 0 {
		return openCall{}, false
	}
	return b.opened[len(b.opened)-1], true
}

func (b *fakeBackend) client(i int) *fakeClient {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clients[i]
}

// fakeClient delivers whatever the test feeds it.
type fakeClient struct {
	*eventBuffer
	format  Format
	started atomic.Bool
	closed  atomic.Bool
}

func newFakeClient(rate, pendingLimit int) *fakeClient {
	return &fakeClient{
		eventBuffer: newEventBuffer(pendingLimit),
		format:      Format{SampleRate: rate, Channels: 1},
	}
}

func (c *fakeClient) Format() Format { return c.format }

func (c *fakeClient) Start() error {
	c.started.Store(true)
	return nil
}

func (c *fakeClient) Close() error {
	if c.closed.Swap(true) {
		return errors.New("closed twice")
	}
	return nil
}

func (c *fakeClient) feed(samples ...float32) {
	c.write(AppendFloat32LE(nil, samples))
}
