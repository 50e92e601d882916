// Package flite wraps the CMU flite synthesizer
// (http://www.festvox.org/flite).
package flite

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/opentts/wyoming-opentts/internal/speech/engine"
	"github.com/opentts/wyoming-opentts/internal/speech/registry"
)

func init() {
	registry.TTS.Register("flite", func(config map[string]string) (engine.TTSEngine, error) {
		binPath := config["binary_path"]
		if binPath == "" {
			binPath = "flite"
		}
		return New(binPath, config["voice_dir"]), nil
	})
}

// builtinVoices are compiled into every flite binary.
var builtinVoices = []engine.Voice{
	{ID: "awb", Name: "awb", Gender: "M", Language: "en", Locale: "en-us"},
	{ID: "kal", Name: "kal", Gender: "M", Language: "en", Locale: "en-us"},
	{ID: "kal16", Name: "kal16", Gender: "M", Language: "en", Locale: "en-us"},
	{ID: "rms", Name: "rms", Gender: "M", Language: "en", Locale: "en-us"},
	{ID: "slt", Name: "slt", Gender: "F", Language: "en", Locale: "en-us"},
}

// loadableVoices are the known downloadable .flitevox models.
var loadableVoices = []engine.Voice{
	// English
	{ID: "cmu_us_aew", Name: "cmu_us_aew", Gender: "M", Language: "en", Locale: "en-us"},
	{ID: "cmu_us_ahw", Name: "cmu_us_ahw", Gender: "M", Language: "en", Locale: "en-us"},
	{ID: "cmu_us_aup", Name: "cmu_us_aup", Gender: "M", Language: "en", Locale: "en-us"},
	{ID: "cmu_us_awb", Name: "cmu_us_awb", Gender: "M", Language: "en", Locale: "en-us"},
	{ID: "cmu_us_axb", Name: "cmu_us_axb", Gender: "F", Language: "en", Locale: "en-in"},
	{ID: "cmu_us_bdl", Name: "cmu_us_bdl", Gender: "M", Language: "en", Locale: "en-us"},
	{ID: "cmu_us_clb", Name: "cmu_us_clb", Gender: "F", Language: "en", Locale: "en-us"},
	{ID: "cmu_us_eey", Name: "cmu_us_eey", Gender: "F", Language: "en", Locale: "en-us"},
	{ID: "cmu_us_fem", Name: "cmu_us_fem", Gender: "M", Language: "en", Locale: "en-us"},
	{ID: "cmu_us_gka", Name: "cmu_us_gka", Gender: "M", Language: "en", Locale: "en-us"},
	{ID: "cmu_us_jmk", Name: "cmu_us_jmk", Gender: "M", Language: "en", Locale: "en-us"},
	{ID: "cmu_us_ksp", Name: "cmu_us_ksp", Gender: "M", Language: "en", Locale: "en-in"},
	{ID: "cmu_us_ljm", Name: "cmu_us_ljm", Gender: "F", Language: "en", Locale: "en-us"},
	{ID: "cmu_us_lnh", Name: "cmu_us_lnh", Gender: "F", Language: "en", Locale: "en-us"},
	{ID: "cmu_us_rms", Name: "cmu_us_rms", Gender: "M", Language: "en", Locale: "en-us"},
	{ID: "cmu_us_rxr", Name: "cmu_us_rxr", Gender: "M", Language: "en", Locale: "en-us"},
	{ID: "cmu_us_slp", Name: "cmu_us_slp", Gender: "F", Language: "en", Locale: "en-in"},
	{ID: "cmu_us_slt", Name: "cmu_us_slt", Gender: "F", Language: "en", Locale: "en-us"},
	{ID: "mycroft_voice_4_0", Name: "mycroft_voice_4_0", Gender: "M", Language: "en", Locale: "en-us"},
	// Indic
	{ID: "cmu_indic_hin_ab", Name: "cmu_indic_hin_ab", Gender: "F", Language: "hi", Locale: "hi-in"},
	{ID: "cmu_indic_ben_rm", Name: "cmu_indic_ben_rm", Gender: "F", Language: "bn", Locale: "bn-in"},
	{ID: "cmu_indic_guj_ad", Name: "cmu_indic_guj_ad", Gender: "F", Language: "gu", Locale: "gu-in"},
	{ID: "cmu_indic_guj_dp", Name: "cmu_indic_guj_dp", Gender: "F", Language: "gu", Locale: "gu-in"},
	{ID: "cmu_indic_guj_kt", Name: "cmu_indic_guj_kt", Gender: "F", Language: "gu", Locale: "gu-in"},
	{ID: "cmu_indic_kan_plv", Name: "cmu_indic_kan_plv", Gender: "F", Language: "kn", Locale: "kn-in"},
	{ID: "cmu_indic_mar_aup", Name: "cmu_indic_mar_aup", Gender: "F", Language: "mr", Locale: "mr-in"},
	{ID: "cmu_indic_mar_slp", Name: "cmu_indic_mar_slp", Gender: "F", Language: "mr", Locale: "mr-in"},
	{ID: "cmu_indic_pan_amp", Name: "cmu_indic_pan_amp", Gender: "F", Language: "pa", Locale: "pa-in"},
	{ID: "cmu_indic_tam_sdr", Name: "cmu_indic_tam_sdr", Gender: "F", Language: "ta", Locale: "ta-in"},
	{ID: "cmu_indic_tel_kpn", Name: "cmu_indic_tel_kpn", Gender: "F", Language: "te", Locale: "te-in"},
	{ID: "cmu_indic_tel_sk", Name: "cmu_indic_tel_sk", Gender: "F", Language: "te", Locale: "te-in"},
	{ID: "cmu_indic_tel_ss", Name: "cmu_indic_tel_ss", Gender: "F", Language: "te", Locale: "te-in"},
}

// fileNames maps voice IDs whose on-disk model name differs.
var fileNames = map[string]string{
	"mycroft_voice_4_0": "mycroft_voice_4.0",
}

// Flite implements engine.TTSEngine using the flite binary. With a
// voice directory it speaks through .flitevox model files, otherwise it
// uses the compiled-in voices.
type Flite struct {
	binPath  string
	voiceDir string
}

// New creates a flite engine. voiceDir may be empty.
func New(binPath, voiceDir string) *Flite {
	return &Flite{binPath: binPath, voiceDir: voiceDir}
}

// Voices lists available voices. With a voice directory only models
// actually present on disk are reported.
func (f *Flite) Voices(_ context.Context) ([]engine.Voice, error) {
	if f.voiceDir == "" {
		return builtinVoices, nil
	}

	var voices []engine.Voice
	for _, v := range loadableVoices {
		if _, err := os.Stat(f.voicePath(v.ID)); err == nil {
			voices = append(voices, v)
		}
	}
	return voices, nil
}

func (f *Flite) voicePath(voiceID string) string {
	name := voiceID
	if mapped, ok := fileNames[voiceID]; ok {
		name = mapped
	}
	return filepath.Join(f.voiceDir, name+".flitevox")
}

// Say synthesizes text to WAV on stdout.
func (f *Flite) Say(ctx context.Context, text string, voiceID string) ([]byte, error) {
	args := []string{"-o", "/dev/stdout", "-t", text}
	if f.voiceDir == "" {
		args = append(args, "-voice", voiceID)
	} else {
		args = append(args, "-voice", f.voicePath(voiceID))
	}

	cmd := exec.CommandContext(ctx, f.binPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("flite: %w: %s", err, stderr.String())
	}

	return stdout.Bytes(), nil
}

// Attribution identifies the wrapped project.
func (f *Flite) Attribution() engine.Attribution {
	return engine.Attribution{Name: "CMU", URL: "http://www.festvox.org/flite"}
}

// Close releases engine resources.
func (f *Flite) Close() error {
	return nil
}
