// Package festival wraps the Festival speech synthesis system
// (http://www.cstr.ed.ac.uk/projects/festival/) through its text2wave
// front end.
package festival

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
	registry.TTS.Register("festival", func(config map[string]string) (engine.TTSEngine, error) {
		binPath := config["binary_path"]
		if binPath == "" {
			binPath = "text2wave"
		}
		return New(binPath), nil
	})
}

// knownVoices is the catalog of voices installable with festival.
var knownVoices = []engine.Voice{
	// English
	{ID: "us1_mbrola", Name: "us1_mbrola", Gender: "F", Language: "en", Locale: "en-us"},
	{ID: "us2_mbrola", Name: "us2_mbrola", Gender: "M", Language: "en", Locale: "en-us"},
	{ID: "us3_mbrola", Name: "us3_mbrola", Gender: "M", Language: "en", Locale: "en-us"},
	{ID: "rab_diphone", Name: "rab_diphone", Gender: "M", Language: "en", Locale: "en-gb"},
	{ID: "en1_mbrola", Name: "en1_mbrola", Gender: "M", Language: "en", Locale: "en-us"},
	{ID: "ked_diphone", Name: "ked_diphone", Gender: "M", Language: "en", Locale: "en-us"},
	{ID: "kal_diphone", Name: "kal_diphone", Gender: "M", Language: "en", Locale: "en-us"},
	{ID: "cmu_us_slt_arctic_hts", Name: "cmu_us_slt_arctic_hts", Gender: "F", Language: "en", Locale: "en-us"},
	// Russian
	{ID: "msu_ru_nsh_clunits", Name: "msu_ru_nsh_clunits", Gender: "M", Language: "ru", Locale: "ru-ru"},
	// Spanish
	{ID: "el_diphone", Name: "el_diphone", Gender: "M", Language: "es", Locale: "es-es"},
	// Catalan
	{ID: "upc_ca_ona_hts", Name: "upc_ca_ona_hts", Gender: "F", Language: "ca", Locale: "ca-es"},
	// Czech
	{ID: "czech_dita", Name: "czech_dita", Gender: "F", Language: "cs", Locale: "cs-cz"},
	{ID: "czech_machac", Name: "czech_machac", Gender: "M", Language: "cs", Locale: "cs-cz"},
	{ID: "czech_ph", Name: "czech_ph", Gender: "M", Language: "cs", Locale: "cs-cz"},
	{ID: "czech_krb", Name: "czech_krb", Gender: "F", Language: "cs", Locale: "cs-cz"},
	// Finnish
	{ID: "suo_fi_lj_diphone", Name: "suo_fi_lj_diphone", Gender: "F", Language: "fi", Locale: "fi-fi"},
	{ID: "hy_fi_mv_diphone", Name: "hy_fi_mv_diphone", Gender: "M", Language: "fi", Locale: "fi-fi"},
	// Telugu
	{ID: "telugu_NSK_diphone", Name: "telugu_NSK_diphone", Gender: "M", Language: "te", Locale: "te-in"},
	// Marathi
	{ID: "marathi_NSK_diphone", Name: "marathi_NSK_diphone", Gender: "M", Language: "mr", Locale: "mr-in"},
	// Hindi
	{ID: "hindi_NSK_diphone", Name: "hindi_NSK_diphone", Gender: "M", Language: "hi", Locale: "hi-in"},
	// Italian
	{ID: "lp_diphone", Name: "lp_diphone", Gender: "F", Language: "it", Locale: "it-it"},
	{ID: "pc_diphone", Name: "pc_diphone", Gender: "M", Language: "it", Locale: "it-it"},
	// Arabic
	{ID: "ara_norm_ziad_hts", Name: "ara_norm_ziad_hts", Gender: "M", Language: "ar", Locale: "ar"},
}

// Festival implements engine.TTSEngine using the text2wave binary.
type Festival struct {
	binPath   string
	voiceByID map[string]engine.Voice
}

// New creates a festival engine around the given text2wave binary.
func New(binPath string) *Festival {
	byID := make(map[string]engine.Voice, len(knownVoices))
	for _, v := range knownVoices {
		byID[v.ID] = v
	}
	return &Festival{binPath: binPath, voiceByID: byID}
}

// Voices lists the catalog, narrowed to what the local festival
// installation reports when the interpreter is on PATH.
func (f *Festival) Voices(ctx context.Context) ([]engine.Voice, error) {
	installed := f.installedVoices(ctx)

	var voices []engine.Voice
	for _, v := range knownVoices {
		if len(installed) == 0 || installed[v.ID] {
			voices = append(voices, v)
		}
	}
	return voices, nil
}

// installedVoices asks the festival interpreter for its voice list.
// An empty map means the list could not be determined.
func (f *Festival) installedVoices(ctx context.Context) map[string]bool {
	festivalBin, err := exec.LookPath("festival")
	if err != nil {
		return nil
	}

	cmd := exec.CommandContext(ctx, festivalBin)
	cmd.Stdin = strings.NewReader("(print (voice.list))")

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return nil
	}

	return parseVoiceList(stdout.String())
}

// parseVoiceList reads festival's "(voice1 voice2 ...)" output.
func parseVoiceList(out string) map[string]bool {
	out = strings.TrimSpace(out)
	out = strings.TrimPrefix(out, "(")
	out = strings.TrimSuffix(out, ")")

	names := strings.Fields(out)
	if len(names) == 0 {
		return nil
	}

	installed := make(map[string]bool, len(names))
	for _, name := range names {
		installed[name] = true
	}
	return installed
}

// Say synthesizes text. text2wave only writes to a file, so the WAV
// goes through a temp file. The input text is converted to the
// single-byte encoding the selected voice expects.
func (f *Festival) Say(ctx context.Context, text string, voiceID string) ([]byte, error) {
	language := ""
	if voice, ok := f.voiceByID[voiceID]; ok {
		language = voice.Language
	}

	encoded, err := encodeText(text, language)
	if err != nil {
		return nil, fmt.Errorf("festival: encode text: %w", err)
	}

	wavFile, err := os.CreateTemp("", "festival-*.wav")
	if err != nil {
		return nil, fmt.Errorf("festival: create temp file: %w", err)
	}
	wavPath := wavFile.Name()
	wavFile.Close()
	defer os.Remove(wavPath)

	cmd := exec.CommandContext(ctx, f.binPath,
		"-o", wavPath,
		"-eval", fmt.Sprintf("(voice_%s)", voiceID),
	)
	cmd.Stdin = bytes.NewReader(encoded)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("festival: %w: %s", err, stderr.String())
	}

	wav, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, fmt.Errorf("festival: read output: %w", err)
	}
	return wav, nil
}

// Attribution identifies the wrapped project.
func (f *Festival) Attribution() engine.Attribution {
	return engine.Attribution{Name: "CSTR", URL: "http://www.cstr.ed.ac.uk/projects/festival/"}
}

// Close releases engine resources.
func (f *Festival) Close() error {
	return nil
}
