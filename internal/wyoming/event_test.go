package wyoming

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestEventRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	payload := []byte{0x01, 0x02, 0x03, 0x04}
	chunk := AudioChunk{Rate: 22050, Width: 2, Channels: 1, Audio: payload}
	if err := w.WriteEvent(chunk.Event()); err != nil {
		t.Fatalf("WriteEvent: %v", err)
	}

	r := NewReader(&buf)
	ev, err := r.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent: %v", err)
	}

	if !ev.Is(TypeAudioChunk) {
		t.Errorf("type = %q, want %q", ev.Type, TypeAudioChunk)
	}
	if !bytes.Equal(ev.Payload, payload) {
		t.Errorf("payload = %v, want %v", ev.Payload, payload)
	}

	var data struct {
		Rate int `json:"rate"`
	}
	if err := json.Unmarshal(ev.Data, &data); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if data.Rate != 22050 {
		t.Errorf("rate = %d, want 22050", data.Rate)
	}
}

func TestEventStreamMultiple(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	events := []Event{
		Synthesize{Text: "hello", Voice: &SynthesizeVoice{Name: "espeak-ng.en"}}.Event(),
		AudioStop{Timestamp: 125}.Event(),
		Error{Text: "boom"}.Event(),
	}
	for _, ev := range events {
		if err := w.WriteEvent(ev); err != nil {
			t.Fatalf("WriteEvent: %v", err)
		}
	}

	r := NewReader(&buf)
	for i, want := range events {
		ev, err := r.ReadEvent()
		if err != nil {
			t.Fatalf("ReadEvent %d: %v", i, err)
		}
		if ev.Type != want.Type {
			t.Errorf("event %d type = %q, want %q", i, ev.Type, want.Type)
		}
	}

	if _, err := r.ReadEvent(); err != io.EOF {
		t.Errorf("after last event err = %v, want io.EOF", err)
	}
}

func TestReadEventDataLengthBlock(t *testing.T) {
	// Older peers send the data object as a separate block after the
	// header line instead of inline.
	data := `{"text":"hi","voice":{"name":"nanotts.en-US"}}`
	frame := fmt.Sprintf(`{"type":"synthesize","data_length":%d}`+"\n%s", len(data), data)

	r := NewReader(strings.NewReader(frame))
	ev, err := r.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent: %v", err)
	}

	s, err := ParseSynthesize(ev)
	if err != nil {
		t.Fatalf("ParseSynthesize: %v", err)
	}
	if s.Text != "hi" {
		t.Errorf("text = %q, want %q", s.Text, "hi")
	}
	if s.Voice == nil || s.Voice.Name != "nanotts.en-US" {
		t.Errorf("voice = %+v, want nanotts.en-US", s.Voice)
	}
}

func TestReadEventDataBlockOverridesInline(t *testing.T) {
	data := `{"text":"override"}`
	frame := fmt.Sprintf(`{"type":"synthesize","data":{"text":"inline","voice":{"name":"a.b"}},"data_length":%d}`+"\n%s",
		len(data), data)

	r := NewReader(strings.NewReader(frame))
	ev, err := r.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent: %v", err)
	}

	s, err := ParseSynthesize(ev)
	if err != nil {
		t.Fatalf("ParseSynthesize: %v", err)
	}
	if s.Text != "override" {
		t.Errorf("text = %q, want %q", s.Text, "override")
	}
	if s.Voice == nil || s.Voice.Name != "a.b" {
		t.Errorf("inline voice lost: %+v", s.Voice)
	}
}

func TestReadEventErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"not json", "nope\n"},
		{"missing type", `{"data":{}}` + "\n"},
		{"negative length", `{"type":"x","payload_length":-1}` + "\n"},
		{"truncated payload", `{"type":"x","payload_length":10}` + "\nabc"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(tc.input))
			if _, err := r.ReadEvent(); err == nil || err == io.EOF {
				t.Errorf("ReadEvent err = %v, want parse error", err)
			}
		})
	}
}

func TestInfoEventRoundTrip(t *testing.T) {
	info := Info{
		TTS: []TTSProgram{{
			Name:        "openTTS",
			Description: "test",
			Attribution: Attribution{Name: "x", URL: "http://example.com"},
			Installed:   true,
			Version:     "1.0.0",
			Voices: []TTSVoice{{
				Name:      "espeak-ng.en",
				Installed: true,
				Languages: []string{"en"},
			}},
		}},
	}

	var buf bytes.Buffer
	if err := NewWriter(&buf).WriteEvent(info.Event()); err != nil {
		t.Fatalf("WriteEvent: %v", err)
	}

	ev, err := NewReader(&buf).ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent: %v", err)
	}
	got, err := ParseInfo(ev)
	if err != nil {
		t.Fatalf("ParseInfo: %v", err)
	}

	if len(got.TTS) != 1 || len(got.TTS[0].Voices) != 1 {
		t.Fatalf("info shape = %+v", got)
	}
	if got.TTS[0].Voices[0].Name != "espeak-ng.en" {
		t.Errorf("voice name = %q", got.TTS[0].Voices[0].Name)
	}
}

func TestAudioChunkDurationMs(t *testing.T) {
	chunk := AudioChunk{
		Rate:     16000,
		Width:    2,
		Channels: 1,
		Audio:    make([]byte, 16000*2), // one second
	}
	if got := chunk.DurationMs(); got != 1000 {
		t.Errorf("DurationMs = %d, want 1000", got)
	}

	empty := AudioChunk{}
	if got := empty.DurationMs(); got != 0 {
		t.Errorf("DurationMs on zero format = %d, want 0", got)
	}
}
