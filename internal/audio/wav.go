// Package audio provides the small amount of PCM plumbing the server
// needs: WAV encode/decode and sample-rate conversion.
package audio

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Format describes raw PCM audio.
type Format struct {
	Rate     int // samples per second
	Width    int // bytes per sample
	Channels int
}

// BytesPerSecond is the PCM data rate for the format.
func (f Format) BytesPerSecond() int {
	return f.Rate * f.Width * f.Channels
}

// DecodeWAV parses a RIFF/WAVE file and returns its format and PCM data.
// Only uncompressed PCM is supported; unknown chunks are skipped.
func DecodeWAV(b []byte) (Format, []byte, error) {
	if len(b) < 12 || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return Format{}, nil, fmt.Errorf("not a RIFF/WAVE file")
	}

	var (
		format  Format
		data    []byte
		haveFmt bool
	)

	off := 12
	for off+8 <= len(b) {
		chunkID := string(b[off : off+4])
		chunkSize := int(binary.LittleEndian.Uint32(b[off+4 : off+8]))
		body := b[off+8:]
		if chunkSize > len(body) {
			// Engines sometimes stream WAV with an unknown final size.
			chunkSize = len(body)
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return Format{}, nil, fmt.Errorf("fmt chunk too short: %d bytes", chunkSize)
			}
			audioFormat := binary.LittleEndian.Uint16(body[0:2])
			if audioFormat != 1 {
				return Format{}, nil, fmt.Errorf("unsupported WAV format code %d (want PCM)", audioFormat)
			}
			format = Format{
				Channels: int(binary.LittleEndian.Uint16(body[2:4])),
				Rate:     int(binary.LittleEndian.Uint32(body[4:8])),
				Width:    int(binary.LittleEndian.Uint16(body[14:16])) / 8,
			}
			haveFmt = true
		case "data":
			data = body[:chunkSize]
		}

		// Chunks are word aligned.
		off += 8 + chunkSize + chunkSize%2
	}

	if !haveFmt {
		return Format{}, nil, fmt.Errorf("missing fmt chunk")
	}
	if format.Rate <= 0 || format.Width <= 0 || format.Channels <= 0 {
		return Format{}, nil, fmt.Errorf("invalid WAV format: %+v", format)
	}
	if data == nil {
		return Format{}, nil, fmt.Errorf("missing data chunk")
	}
	return format, data, nil
}

// EncodeWAV writes a minimal WAV file: 44-byte header plus the PCM data.
func EncodeWAV(w io.Writer, f Format, data []byte) error {
	if f.Rate <= 0 || f.Width <= 0 || f.Channels <= 0 {
		return fmt.Errorf("invalid WAV format: %+v", f)
	}

	var hdr [44]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(36+len(data)))
	copy(hdr[8:12], "WAVE")

	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(hdr[22:24], uint16(f.Channels))
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(f.Rate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(f.BytesPerSecond()))
	binary.LittleEndian.PutUint16(hdr[32:34], uint16(f.Width*f.Channels))
	binary.LittleEndian.PutUint16(hdr[34:36], uint16(f.Width*8))

	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], uint32(len(data)))

	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}
