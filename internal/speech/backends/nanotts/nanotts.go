// Package nanotts wraps the nanoTTS synthesizer
// (https://github.com/gmn/nanotts), a command-line front end for the
// SVOX Pico engine.
package nanotts

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/opentts/wyoming-opentts/internal/speech/engine"
	"github.com/opentts/wyoming-opentts/internal/speech/registry"
)

func init() {
	registry.TTS.Register("nanotts", func(config map[string]string) (engine.TTSEngine, error) {
		binPath := config["binary_path"]
		if binPath == "" {
			binPath = "nanotts"
		}
		return New(binPath, config["lang_dir"]), nil
	})
}

// picoVoices are the six languages SVOX Pico ships with.
var picoVoices = []engine.Voice{
	{ID: "en-GB", Name: "en-GB", Gender: "F", Language: "en", Locale: "en-gb"},
	{ID: "en-US", Name: "en-US", Gender: "F", Language: "en", Locale: "en-us"},
	{ID: "de-DE", Name: "de-DE", Gender: "F", Language: "de", Locale: "de-de"},
	{ID: "fr-FR", Name: "fr-FR", Gender: "F", Language: "fr", Locale: "fr-fr"},
	{ID: "es-ES", Name: "es-ES", Gender: "F", Language: "es", Locale: "es-es"},
	{ID: "it-IT", Name: "it-IT", Gender: "F", Language: "it", Locale: "it-it"},
}

// NanoTTS implements engine.TTSEngine using the nanotts binary.
type NanoTTS struct {
	binPath string
	langDir string
}

// New creates a nanotts engine. langDir points at the Pico language
// data (share/pico/lang) and may be empty.
func New(binPath, langDir string) *NanoTTS {
	return &NanoTTS{binPath: binPath, langDir: langDir}
}

// Voices lists the fixed Pico voice set.
func (n *NanoTTS) Voices(_ context.Context) ([]engine.Voice, error) {
	return picoVoices, nil
}

// Say synthesizes text. nanotts only writes WAV to a file, so the
// output goes through a temp file.
func (n *NanoTTS) Say(ctx context.Context, text string, voiceID string) ([]byte, error) {
	wavFile, err := os.CreateTemp("", "nanotts-*.wav")
	if err != nil {
		return nil, fmt.Errorf("nanotts: create temp file: %w", err)
	}
	wavPath := wavFile.Name()
	wavFile.Close()
	defer os.Remove(wavPath)

	args := []string{"-v", voiceID, "-o", wavPath}
	if n.langDir != "" {
		args = append(args, "-l", n.langDir)
	}

	cmd := exec.CommandContext(ctx, n.binPath, args...)
	cmd.Stdin = strings.NewReader(text)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("nanotts: %w: %s", err, stderr.String())
	}

	wav, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, fmt.Errorf("nanotts: read output: %w", err)
	}
	return wav, nil
}

// Attribution identifies the wrapped project.
func (n *NanoTTS) Attribution() engine.Attribution {
	return engine.Attribution{Name: "gmn", URL: "https://github.com/gmn/nanotts"}
}

// Close releases engine resources.
func (n *NanoTTS) Close() error {
	return nil
}
