package audio

import (
	"errors"
	"testing"
)

func TestEventBufferTrimsOldestWholeSamples(t *testing.T) {
	e := newEventBuffer(3 * bytesPerSample)

	e.write(AppendFloat32LE(nil, []float32{1, 2}))
	if n := e.takeOverflow(); n != 0 {
		t.Fatalf("expected no overflow, got %d", n)
	}

	// One extra byte past the limit still costs a whole sample.
	e.write(AppendFloat32LE(nil, []float32{3, 4})[:5])
	if n := e.takeOverflow(); n != 1 {
		t.Fatalf("expected 1 sample trimmed, got %d", n)
	}
	if n := e.takeOverflow(); n != 0 {
		t.Fatalf("expected count reset, got %d", n)
	}

	raw, err := e.ReadAvailable(nil)
	if err != nil {
		t.Fatalf("ReadAvailable: %v", err)
	}
	want := AppendFloat32LE(nil, []float32{2, 3, 4})[:9]
	if string(raw) != string(want) {
		t.Fatalf("expected trailing samples kept, got % x", raw)
	}
}

func TestEventBufferSignalsAndFails(t *testing.T) {
	e := newEventBuffer(0)
	cause := errors.New("device hiccup")

	e.fail(cause)
	select {
	case <-e.Ready():
	default:
		t.Fatal("expected ready after fail")
	}
	if _, err := e.ReadAvailable(nil); !errors.Is(err, cause) {
		t.Fatalf("expected recorded error, got %v", err)
	}
	if _, err := e.ReadAvailable(nil); err != nil {
		t.Fatalf("expected error reported once, got %v", err)
	}
}
