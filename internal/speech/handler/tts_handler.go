// Package handler dispatches Wyoming events to the configured TTS
// engines and streams the resulting audio back to the client.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pitabwire/util"

	"github.com/opentts/wyoming-opentts/internal/audio"
	"github.com/opentts/wyoming-opentts/internal/speech/engine"
	"github.com/opentts/wyoming-opentts/internal/wyoming"
)

// Resolver maps client voice names onto full <engine>.<voice> names.
type Resolver interface {
	Resolve(name string) string
}

// Config holds the shared state of all connection handlers.
type Config struct {
	// Engines maps engine name to a started engine instance.
	Engines map[string]engine.TTSEngine
	// Info is the prebuilt reply to describe events.
	Info wyoming.Info
	// Aliases optionally rewrites voice names before dispatch.
	Aliases Resolver
	// SamplesPerChunk bounds the audio-chunk payload size.
	SamplesPerChunk int
	// OutputRate resamples 16-bit mono audio to this rate; 0 keeps
	// each engine's native rate.
	OutputRate int
	// SayTimeout bounds one synthesis call; 0 means no limit.
	SayTimeout time.Duration
}

// Ensure we implement the server's handler contract.
var _ wyoming.Handler = (*TTSHandler)(nil)

// TTSHandler handles the events of one client connection.
type TTSHandler struct {
	cfg       Config
	w         *wyoming.Writer
	clientID  string
	infoEvent wyoming.Event
}

// New creates a handler writing replies through w.
func New(cfg Config, w *wyoming.Writer, clientID string) *TTSHandler {
	if cfg.SamplesPerChunk <= 0 {
		cfg.SamplesPerChunk = 1024
	}
	return &TTSHandler{
		cfg:       cfg,
		w:         w,
		clientID:  clientID,
		infoEvent: cfg.Info.Event(),
	}
}

// HandleEvent processes one incoming event. Request-level failures are
// reported to the client as error events; a returned error drops the
// connection.
func (h *TTSHandler) HandleEvent(ctx context.Context, ev wyoming.Event) error {
	switch {
	case ev.Is(wyoming.TypeDescribe):
		if err := h.w.WriteEvent(h.infoEvent); err != nil {
			return err
		}
		slog.DebugContext(ctx, "sent info to client", slog.String("client_id", h.clientID))
		return nil
	case ev.Is(wyoming.TypeSynthesize):
		return h.handleSynthesize(ctx, ev)
	default:
		slog.DebugContext(ctx, "unexpected event",
			slog.String("client_id", h.clientID),
			slog.String("type", ev.Type),
		)
		return nil
	}
}

func (h *TTSHandler) handleSynthesize(ctx context.Context, ev wyoming.Event) error {
	req, err := wyoming.ParseSynthesize(ev)
	if err != nil {
		util.Log(ctx).WithError(err).Error("tts: bad synthesize event")
		return h.writeError("invalid synthesize request")
	}

	voiceName := ""
	if req.Voice != nil {
		voiceName = req.Voice.Name
	}
	if h.cfg.Aliases != nil {
		voiceName = h.cfg.Aliases.Resolve(voiceName)
	}

	// Voice names are <engine>.<voice_id>.
	engineName, voiceID, found := strings.Cut(voiceName, ".")
	if !found || engineName == "" || voiceID == "" {
		return h.writeError("TTS system or voice not found")
	}

	eng, ok := h.cfg.Engines[engineName]
	if !ok {
		return h.writeError(fmt.Sprintf("TTS system not found: %s", engineName))
	}

	hasVoice, err := engine.HasVoice(ctx, eng, voiceID)
	if err != nil {
		util.Log(ctx).WithError(err).Error("tts: list voices")
		return h.writeError(fmt.Sprintf("voice lookup failed: %s", engineName))
	}
	if !hasVoice {
		return h.writeError(fmt.Sprintf("Voice not found: %s", voiceID))
	}

	sayCtx := ctx
	if h.cfg.SayTimeout > 0 {
		var cancel context.CancelFunc
		sayCtx, cancel = context.WithTimeout(ctx, h.cfg.SayTimeout)
		defer cancel()
	}

	wav, err := eng.Say(sayCtx, req.Text, voiceID)
	if err != nil {
		util.Log(ctx).WithError(err).Error("tts: synthesis failed")
		return h.writeError(fmt.Sprintf("synthesis failed: %s.%s", engineName, voiceID))
	}
	slog.DebugContext(ctx, "got WAV data",
		slog.String("client_id", h.clientID),
		slog.Int("bytes", len(wav)),
	)

	format, pcm, err := audio.DecodeWAV(wav)
	if err != nil {
		util.Log(ctx).WithError(err).Error("tts: bad engine output")
		return h.writeError(fmt.Sprintf("synthesis failed: %s.%s", engineName, voiceID))
	}

	if h.cfg.OutputRate > 0 && format.Rate != h.cfg.OutputRate &&
		format.Width == 2 && format.Channels == 1 {
		pcm, err = audio.Resample(pcm, format.Rate, h.cfg.OutputRate)
		if err != nil {
			util.Log(ctx).WithError(err).Error("tts: resample")
			return h.writeError(fmt.Sprintf("synthesis failed: %s.%s", engineName, voiceID))
		}
		format.Rate = h.cfg.OutputRate
	}

	return h.streamAudio(format, pcm)
}

// streamAudio emits audio-start, bounded audio-chunk events and
// audio-stop, with timestamps accumulated over the chunks.
func (h *TTSHandler) streamAudio(format audio.Format, pcm []byte) error {
	timestamp := 0

	start := wyoming.AudioStart{
		Rate:      format.Rate,
		Width:     format.Width,
		Channels:  format.Channels,
		Timestamp: timestamp,
	}
	if err := h.w.WriteEvent(start.Event()); err != nil {
		return err
	}

	bytesPerChunk := h.cfg.SamplesPerChunk * format.Width * format.Channels
	for off := 0; off < len(pcm); off += bytesPerChunk {
		end := off + bytesPerChunk
		if end > len(pcm) {
			end = len(pcm)
		}

		chunk := wyoming.AudioChunk{
			Rate:      format.Rate,
			Width:     format.Width,
			Channels:  format.Channels,
			Timestamp: timestamp,
			Audio:     pcm[off:end],
		}
		if err := h.w.WriteEvent(chunk.Event()); err != nil {
			return err
		}
		timestamp += chunk.DurationMs()
	}

	stop := wyoming.AudioStop{Timestamp: timestamp}
	return h.w.WriteEvent(stop.Event())
}

func (h *TTSHandler) writeError(text string) error {
	return h.w.WriteEvent(wyoming.Error{Text: text}.Event())
}

// Disconnect is called when the connection ends.
func (h *TTSHandler) Disconnect(ctx context.Context) {
	slog.DebugContext(ctx, "handler finished", slog.String("client_id", h.clientID))
}
