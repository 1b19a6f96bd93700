package audio

import (
	"encoding/binary"
	"math"
)

// frameDecoder turns raw little-endian float32 bytes into samples. A read
// that ends mid-sample leaves up to three bytes over; with carry set they are
// completed by the next read, otherwise they are discarded.
type frameDecoder struct {
	carry     bool
	rem       [bytesPerSample]byte
	n         int
	discarded int
}

func (d *frameDecoder) decode(raw []byte, dst []float32) []float32 {
	if d.n > 0 {
		need := bytesPerSample - d.n
		if len(raw) < need {
			d.n += copy(d.rem[d.n:], raw)
			return dst
		}
		copy(d.rem[d.n:], raw[:need])
		dst = append(dst, math.Float32frombits(binary.LittleEndian.Uint32(d.rem[:])))
		raw = raw[need:]
		d.n = 0
	}

	whole := len(raw) &^ (bytesPerSample - 1)
	for i := 0; i < whole; i += bytesPerSample {
		dst = append(dst, math.Float32frombits(binary.LittleEndian.Uint32(raw[i:])))
	}

	if tail := raw[whole:]; len(tail) > 0 {
		if d.carry {
			d.n = copy(d.rem[:], tail)
		} else {
			d.discarded += len(tail)
		}
	}
	return dst
}

// AppendFloat32LE appends samples to dst in the wire format the decoder reads.
func AppendFloat32LE(dst []byte, samples []float32) []byte {
	for _, s := range samples {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(s))
	}
	return dst
}
