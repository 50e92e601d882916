package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/opentts/wyoming-opentts/internal/audio"
	"github.com/opentts/wyoming-opentts/internal/speech/engine"
	"github.com/opentts/wyoming-opentts/internal/wyoming"
)

// fakeEngine speaks one fixed voice and returns a canned WAV.
type fakeEngine struct {
	voice  engine.Voice
	format audio.Format
	pcm    []byte

	sayErr   error
	lastText string
}

func (e *fakeEngine) Voices(context.Context) ([]engine.Voice, error) {
	return []engine.Voice{e.voice}, nil
}

func (e *fakeEngine) Say(_ context.Context, text, voiceID string) ([]byte, error) {
	if e.sayErr != nil {
		return nil, e.sayErr
	}
	if voiceID != e.voice.ID {
		return nil, fmt.Errorf("unexpected voice %q", voiceID)
	}
	e.lastText = text

	var buf bytes.Buffer
	if err := audio.EncodeWAV(&buf, e.format, e.pcm); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *fakeEngine) Attribution() engine.Attribution {
	return engine.Attribution{Name: "fake", URL: "http://example.com"}
}

func (e *fakeEngine) Close() error { return nil }

func newFakeEngine(samples int) *fakeEngine {
	pcm := make([]byte, samples*2)
	for i := range pcm {
		pcm[i] = byte(i)
	}
	return &fakeEngine{
		voice:  engine.Voice{ID: "en", Name: "english", Language: "en", Locale: "en-us"},
		format: audio.Format{Rate: 22050, Width: 2, Channels: 1},
		pcm:    pcm,
	}
}

// collect runs events through a handler and decodes everything it
// writes back.
func collect(t *testing.T, cfg Config, events ...wyoming.Event) []wyoming.Event {
	t.Helper()

	var buf bytes.Buffer
	h := New(cfg, wyoming.NewWriter(&buf), "test-client")
	ctx := context.Background()
	for _, ev := range events {
		if err := h.HandleEvent(ctx, ev); err != nil {
			t.Fatalf("HandleEvent(%s): %v", ev.Type, err)
		}
	}
	h.Disconnect(ctx)

	var out []wyoming.Event
	r := wyoming.NewReader(&buf)
	for {
		ev, err := r.ReadEvent()
		if err != nil {
			return out
		}
		out = append(out, ev)
	}
}

func synthesize(text, voiceName string) wyoming.Event {
	return wyoming.Synthesize{
		Text:  text,
		Voice: &wyoming.SynthesizeVoice{Name: voiceName},
	}.Event()
}

func TestHandleDescribe(t *testing.T) {
	eng := newFakeEngine(8)
	engines := map[string]engine.TTSEngine{"fake": eng}
	info, err := BuildInfo(context.Background(), engines)
	if err != nil {
		t.Fatalf("BuildInfo: %v", err)
	}

	out := collect(t, Config{Engines: engines, Info: info},
		wyoming.Event{Type: wyoming.TypeDescribe})

	if len(out) != 1 || !out[0].Is(wyoming.TypeInfo) {
		t.Fatalf("reply = %+v, want one info event", out)
	}
	got, err := wyoming.ParseInfo(out[0])
	if err != nil {
		t.Fatalf("ParseInfo: %v", err)
	}
	if len(got.TTS) != 1 || len(got.TTS[0].Voices) != 1 {
		t.Fatalf("info = %+v", got)
	}
	voice := got.TTS[0].Voices[0]
	if voice.Name != "fake.en" {
		t.Errorf("voice name = %q, want fake.en", voice.Name)
	}
	if len(voice.Languages) != 1 || voice.Languages[0] != "en-us" {
		t.Errorf("voice languages = %v, want [en-us]", voice.Languages)
	}
}

func TestHandleSynthesize(t *testing.T) {
	eng := newFakeEngine(2500)
	cfg := Config{
		Engines:         map[string]engine.TTSEngine{"fake": eng},
		SamplesPerChunk: 1024,
	}

	out := collect(t, cfg, synthesize("hello there", "fake.en"))

	// 2500 samples in 1024-sample chunks: start, 3 chunks, stop.
	if len(out) != 5 {
		t.Fatalf("got %d events %v, want 5", len(out), eventTypes(out))
	}
	if !out[0].Is(wyoming.TypeAudioStart) {
		t.Errorf("first event = %q", out[0].Type)
	}
	if !out[len(out)-1].Is(wyoming.TypeAudioStop) {
		t.Errorf("last event = %q", out[len(out)-1].Type)
	}

	var pcm []byte
	for _, ev := range out[1 : len(out)-1] {
		if !ev.Is(wyoming.TypeAudioChunk) {
			t.Fatalf("middle event = %q", ev.Type)
		}
		if len(ev.Payload) > 1024*2 {
			t.Errorf("chunk payload %d bytes exceeds limit", len(ev.Payload))
		}
		pcm = append(pcm, ev.Payload...)
	}
	if !bytes.Equal(pcm, eng.pcm) {
		t.Errorf("reassembled %d PCM bytes, want %d", len(pcm), len(eng.pcm))
	}
	if eng.lastText != "hello there" {
		t.Errorf("engine got text %q", eng.lastText)
	}
}

func TestHandleSynthesizeResamples(t *testing.T) {
	eng := newFakeEngine(2048)
	cfg := Config{
		Engines:    map[string]engine.TTSEngine{"fake": eng},
		OutputRate: 44100,
	}

	out := collect(t, cfg, synthesize("hi", "fake.en"))
	if len(out) < 3 || !out[0].Is(wyoming.TypeAudioStart) {
		t.Fatalf("events = %v", eventTypes(out))
	}

	var start wyoming.AudioStart
	if err := unmarshalData(out[0], &start); err != nil {
		t.Fatalf("decode audio-start: %v", err)
	}
	if start.Rate != 44100 {
		t.Errorf("output rate = %d, want 44100", start.Rate)
	}

	var total int
	for _, ev := range out[1 : len(out)-1] {
		total += len(ev.Payload)
	}
	// 22050 -> 44100 doubles the sample count.
	if want := len(eng.pcm) * 2; total != want {
		t.Errorf("resampled PCM = %d bytes, want %d", total, want)
	}
}

func TestHandleSynthesizeErrors(t *testing.T) {
	eng := newFakeEngine(8)
	cfg := Config{Engines: map[string]engine.TTSEngine{"fake": eng}}

	cases := []struct {
		name  string
		voice string
	}{
		{"no voice name", ""},
		{"missing engine part", "en"},
		{"unknown engine", "ghost.en"},
		{"unknown voice", "fake.zz"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := collect(t, cfg, synthesize("hi", tc.voice))
			if len(out) != 1 || !out[0].Is(wyoming.TypeError) {
				t.Fatalf("reply = %v, want one error event", eventTypes(out))
			}
		})
	}
}

func TestHandleSynthesizeEngineFailure(t *testing.T) {
	eng := newFakeEngine(8)
	eng.sayErr = fmt.Errorf("synth exploded")
	cfg := Config{Engines: map[string]engine.TTSEngine{"fake": eng}}

	out := collect(t, cfg, synthesize("hi", "fake.en"))
	if len(out) != 1 || !out[0].Is(wyoming.TypeError) {
		t.Fatalf("reply = %v, want one error event", eventTypes(out))
	}
	e, err := wyoming.ParseError(out[0])
	if err != nil {
		t.Fatalf("ParseError: %v", err)
	}
	if e.Text == "" {
		t.Error("error event has empty text")
	}
}

func TestHandleUnknownEventIgnored(t *testing.T) {
	cfg := Config{Engines: map[string]engine.TTSEngine{}}
	out := collect(t, cfg, wyoming.Event{Type: "ping"})
	if len(out) != 0 {
		t.Errorf("unknown event produced replies: %v", eventTypes(out))
	}
}

func TestHandleSynthesizeResolvesAlias(t *testing.T) {
	eng := newFakeEngine(64)
	cfg := Config{
		Engines: map[string]engine.TTSEngine{"fake": eng},
		Aliases: aliasMap{"default": "fake.en"},
	}

	out := collect(t, cfg, synthesize("hi", "default"))
	if len(out) == 0 || !out[0].Is(wyoming.TypeAudioStart) {
		t.Fatalf("events = %v, want audio stream", eventTypes(out))
	}
}

type aliasMap map[string]string

func (m aliasMap) Resolve(name string) string {
	if full, ok := m[name]; ok {
		return full
	}
	return name
}

func eventTypes(events []wyoming.Event) []string {
	types := make([]string, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	return types
}

func unmarshalData(ev wyoming.Event, v any) error {
	return json.Unmarshal(ev.Data, v)
}
