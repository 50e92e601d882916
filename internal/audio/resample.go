package audio

import (
	"encoding/binary"
	"fmt"
)

// Resample converts 16-bit mono little-endian PCM from one sample rate
// to another using linear interpolation. It returns the input unchanged
// when the rates already match.
func Resample(in []byte, fromRate, toRate int) ([]byte, error) {
	if fromRate <= 0 || toRate <= 0 {
		return nil, fmt.Errorf("invalid sample rates %d -> %d", fromRate, toRate)
	}
	if fromRate == toRate {
		return in, nil
	}

	inSamples := len(in) / 2
	if inSamples < 2 {
		// Too short to interpolate; keep the audio as is.
		return in, nil
	}

	outSamples := inSamples * toRate / fromRate
	out := make([]byte, outSamples*2)
	step := float64(fromRate) / float64(toRate)

	for i := 0; i < outSamples; i++ {
		srcPos := float64(i) * step
		srcIdx := int(srcPos)
		frac := srcPos - float64(srcIdx)

		s0 := sampleAt(in, srcIdx)
		s1 := sampleAt(in, srcIdx+1)

		sample := int16(float64(s0) + frac*(float64(s1)-float64(s0)))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(sample))
	}

	return out, nil
}

func sampleAt(buf []byte, idx int) int16 {
	off := idx * 2
	if off+1 >= len(buf) {
		// Clamp to last sample.
		off = len(buf) - 2
	}
	if off < 0 {
		return 0
	}
	return int16(binary.LittleEndian.Uint16(buf[off:]))
}
