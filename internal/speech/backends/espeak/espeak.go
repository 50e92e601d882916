// Package espeak wraps the espeak-ng speech synthesizer
// (http://espeak.sourceforge.net).
package espeak

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/opentts/wyoming-opentts/internal/speech/engine"
	"github.com/opentts/wyoming-opentts/internal/speech/registry"
)

func init() {
	registry.TTS.Register("espeak-ng", func(config map[string]string) (engine.TTSEngine, error) {
		binPath := config["binary_path"]
		if binPath == "" {
			binPath = "espeak-ng"
		}
		return New(binPath), nil
	})
}

// Espeak implements engine.TTSEngine using the espeak-ng binary.
type Espeak struct {
	binPath string
}

// New creates an espeak-ng engine around the given binary.
func New(binPath string) *Espeak {
	return &Espeak{binPath: binPath}
}

// Voices lists voices by parsing `espeak-ng --voices`.
func (e *Espeak) Voices(ctx context.Context) ([]engine.Voice, error) {
	cmd := exec.CommandContext(ctx, e.binPath, "--voices")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("espeak-ng --voices: %w: %s", err, stderr.String())
	}

	return parseVoices(stdout.String()), nil
}

// parseVoices reads the tabular `--voices` listing. The first line is a
// column header; the voice identifier is the language column.
func parseVoices(listing string) []engine.Voice {
	lines := strings.Split(listing, "\n")
	voices := make([]engine.Voice, 0, len(lines))

	for i, line := range lines {
		if i == 0 {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 4 {
			continue
		}

		locale := parts[1]
		language, _, _ := strings.Cut(locale, "-")
		ageGender := parts[2]

		voices = append(voices, engine.Voice{
			ID:       locale,
			Name:     parts[3],
			Gender:   ageGender[len(ageGender)-1:],
			Language: language,
			Locale:   locale,
		})
	}

	return voices
}

// Say synthesizes text; espeak-ng writes the WAV directly to stdout.
func (e *Espeak) Say(ctx context.Context, text string, voiceID string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, e.binPath,
		"-v", voiceID,
		"--stdout",
		text,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("espeak-ng: %w: %s", err, stderr.String())
	}

	return stdout.Bytes(), nil
}

// Attribution identifies the wrapped project.
func (e *Espeak) Attribution() engine.Attribution {
	return engine.Attribution{Name: "espeak-ng", URL: "http://espeak.sourceforge.net"}
}

// Close releases engine resources.
func (e *Espeak) Close() error {
	return nil
}
