package audio

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestEncodeDecodeWAV(t *testing.T) {
	pcm := make([]byte, 2048)
	for i := range pcm {
		pcm[i] = byte(i * 31)
	}
	format := Format{Rate: 22050, Width: 2, Channels: 1}

	var buf bytes.Buffer
	if err := EncodeWAV(&buf, format, pcm); err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}

	got, data, err := DecodeWAV(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if got != format {
		t.Errorf("format = %+v, want %+v", got, format)
	}
	if !bytes.Equal(data, pcm) {
		t.Errorf("pcm data mismatch: got %d bytes, want %d", len(data), len(pcm))
	}
}

func TestDecodeWAVSkipsUnknownChunks(t *testing.T) {
	pcm := []byte{1, 2, 3, 4}
	var buf bytes.Buffer
	if err := EncodeWAV(&buf, Format{Rate: 16000, Width: 2, Channels: 1}, pcm); err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}

	// Splice a LIST chunk between the fmt and data chunks, the way
	// some tools tag their output.
	raw := buf.Bytes()
	list := make([]byte, 8+6)
	copy(list[0:4], "LIST")
	binary.LittleEndian.PutUint32(list[4:8], 6)
	spliced := append([]byte{}, raw[:36]...)
	spliced = append(spliced, list...)
	spliced = append(spliced, raw[36:]...)
	binary.LittleEndian.PutUint32(spliced[4:8], uint32(len(spliced)-8))

	format, data, err := DecodeWAV(spliced)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if format.Rate != 16000 {
		t.Errorf("rate = %d, want 16000", format.Rate)
	}
	if !bytes.Equal(data, pcm) {
		t.Errorf("pcm data = %v, want %v", data, pcm)
	}
}

func TestDecodeWAVOversizedDataChunk(t *testing.T) {
	// Streamed WAV often declares a bogus huge data size; the decoder
	// clamps it to what is actually present.
	pcm := []byte{1, 2, 3, 4, 5, 6}
	var buf bytes.Buffer
	if err := EncodeWAV(&buf, Format{Rate: 8000, Width: 2, Channels: 1}, pcm); err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	raw := buf.Bytes()
	binary.LittleEndian.PutUint32(raw[40:44], 0xFFFFFFF0)

	_, data, err := DecodeWAV(raw)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if !bytes.Equal(data, pcm) {
		t.Errorf("pcm data = %v, want %v", data, pcm)
	}
}

func TestDecodeWAVErrors(t *testing.T) {
	var nonPCM bytes.Buffer
	if err := EncodeWAV(&nonPCM, Format{Rate: 8000, Width: 2, Channels: 1}, []byte{0, 0}); err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	mulaw := append([]byte{}, nonPCM.Bytes()...)
	binary.LittleEndian.PutUint16(mulaw[20:22], 7) // mu-law format code

	cases := []struct {
		name  string
		input []byte
	}{
		{"empty", nil},
		{"not riff", []byte("this is not audio at all....")},
		{"no chunks", []byte("RIFF\x04\x00\x00\x00WAVE")},
		{"non pcm", mulaw},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := DecodeWAV(tc.input); err == nil {
				t.Error("DecodeWAV accepted bad input")
			}
		})
	}
}

func TestEncodeWAVRejectsInvalidFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeWAV(&buf, Format{}, nil); err == nil {
		t.Error("EncodeWAV accepted zero format")
	}
}

func TestFormatBytesPerSecond(t *testing.T) {
	f := Format{Rate: 22050, Width: 2, Channels: 1}
	if got := f.BytesPerSecond(); got != 44100 {
		t.Errorf("BytesPerSecond = %d, want 44100", got)
	}
}
