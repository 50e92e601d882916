package handler

import (
	"context"
	"fmt"
	"sort"

	"github.com/opentts/wyoming-opentts/internal/speech/engine"
	"github.com/opentts/wyoming-opentts/internal/wyoming"
)

const (
	programName        = "openTTS"
	programDescription = "A collection of open text-to-speech systems"
	programVersion     = "1.0.0"
)

// BuildInfo assembles the describe reply from the voice catalogs of
// all started engines.
func BuildInfo(ctx context.Context, engines map[string]engine.TTSEngine) (wyoming.Info, error) {
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)

	var voices []wyoming.TTSVoice
	for _, name := range names {
		eng := engines[name]
		engineVoices, err := eng.Voices(ctx)
		if err != nil {
			return wyoming.Info{}, fmt.Errorf("list %s voices: %w", name, err)
		}

		attribution := wyoming.Attribution{
			Name: eng.Attribution().Name,
			URL:  eng.Attribution().URL,
		}
		for _, v := range engineVoices {
			voices = append(voices, wyoming.TTSVoice{
				Name:        fmt.Sprintf("%s.%s", name, v.ID),
				Description: fmt.Sprintf("%s %s", name, v.Name),
				Attribution: attribution,
				Installed:   true,
				Languages:   []string{v.Locale},
			})
		}
	}

	return wyoming.Info{
		TTS: []wyoming.TTSProgram{{
			Name:        programName,
			Description: programDescription,
			Attribution: wyoming.Attribution{
				Name: "synesthesiam",
				URL:  "https://github.com/synesthesiam/opentts",
			},
			Installed: true,
			Version:   programVersion,
			Voices:    voices,
		}},
	}, nil
}
