package engine

import "context"

// Voice describes an available TTS voice.
type Voice struct {
	ID       string
	Name     string
	Gender   string
	Language string // base language, e.g. "en"
	Locale   string // full locale, e.g. "en-us"
}

// Attribution credits the upstream project behind an engine.
type Attribution struct {
	Name string
	URL  string
}

// TTSEngine synthesizes speech from text by driving one external
// text-to-speech program.
type TTSEngine interface {
	// Voices lists the voices the engine can currently speak with.
	Voices(ctx context.Context) ([]Voice, error)
	// Say synthesizes text with the given voice and returns a complete
	// WAV file.
	Say(ctx context.Context, text string, voiceID string) ([]byte, error)
	// Attribution identifies the wrapped project.
	Attribution() Attribution
	// Close releases engine resources such as long-lived subprocesses.
	Close() error
}

// HasVoice reports whether voiceID is among the engine's voices.
func HasVoice(ctx context.Context, e TTSEngine, voiceID string) (bool, error) {
	voices, err := e.Voices(ctx)
	if err != nil {
		return false, err
	}
	for _, v := range voices {
		if v.ID == voiceID {
			return true, nil
		}
	}
	return false, nil
}
