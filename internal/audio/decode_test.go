package audio

import "testing"

func TestDecodeOne(t *testing.T) {
	var d frameDecoder
	got := d.decode([]byte{0x00, 0x00, 0x80, 0x3F}, nil)
	if len(got) != 1 || got[0] != 1.0 {
		t.Fatalf("expected [1], got %v", got)
	}
}

func TestDecodeCarriesPartialSample(t *testing.T) {
	d := frameDecoder{carry: true}
	raw := AppendFloat32LE(nil, []float32{0.25, -0.5})

	got := d.decode(raw[:5], nil)
	if len(got) != 1 || got[0] != 0.25 {
		t.Fatalf("expected [0.25], got %v", got)
	}

	// One byte short of completing the sample.
	got = d.decode(raw[5:7], nil)
	if len(got) != 0 {
		t.Fatalf("expected no samples yet, got %v", got)
	}

	got = d.decode(raw[7:], nil)
	if len(got) != 1 || got[0] != -0.5 {
		t.Fatalf("expected [-0.5], got %v", got)
	}
	if d.discarded != 0 {
		t.Fatalf("expected nothing discarded, got %d bytes", d.discarded)
	}
}

func TestDecodeDropsPartialSample(t *testing.T) {
	var d frameDecoder
	raw := AppendFloat32LE(nil, []float32{1, 2})

	got := d.decode(raw[:7], nil)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected [1], got %v", got)
	}
	if d.discarded != 3 {
		t.Fatalf("expected 3 discarded bytes, got %d", d.discarded)
	}

	// The next read starts fresh, so the dangling byte is misread as the
	// start of a sample; only whole groups are emitted.
	got = d.decode(raw[7:], nil)
	if len(got) != 0 {
		t.Fatalf("expected no samples from a lone byte, got %v", got)
	}
}

func TestAppendFloat32LE(t *testing.T) {
	got := AppendFloat32LE([]byte{0xff}, []float32{1.0})
	want := []byte{0xff, 0x00, 0x00, 0x80, 0x3F}
	if string(got) != string(want) {
		t.Fatalf("expected % x, got % x", want, got)
	}
}
