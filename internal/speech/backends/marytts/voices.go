package marytts

import (
	"archive/zip"
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/opentts/wyoming-opentts/internal/speech/engine"
)

// loadVoicesLocked scans the installation for voice-*.jar files and
// reads each jar's voice.config entry. The result is cached.
func (m *MaryTTS) loadVoicesLocked() error {
	if m.voices != nil {
		return nil
	}

	voices := make(map[string]engine.Voice)
	voiceJars := make(map[string]string)

	err := filepath.WalkDir(m.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasPrefix(d.Name(), "voice-") || !strings.HasSuffix(d.Name(), ".jar") {
			return nil
		}

		voice, ok, err := readVoiceJar(path)
		if err != nil {
			return fmt.Errorf("read voice jar %s: %w", path, err)
		}
		if ok {
			voices[voice.ID] = voice
			voiceJars[voice.ID] = path
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("marytts: scan %s: %w", m.baseDir, err)
	}

	m.voices = voices
	m.voiceJars = voiceJars
	return nil
}

// readVoiceJar opens a jar as a zip archive and parses its
// voice.config entry. ok is false when the jar holds no usable voice.
func readVoiceJar(path string) (engine.Voice, bool, error) {
	jar, err := zip.OpenReader(path)
	if err != nil {
		return engine.Voice{}, false, err
	}
	defer jar.Close()

	for _, entry := range jar.File {
		if !strings.HasSuffix(entry.Name, "/voice.config") {
			continue
		}

		f, err := entry.Open()
		if err != nil {
			return engine.Voice{}, false, err
		}
		voice, ok := parseVoiceConfig(f)
		f.Close()

		if ok {
			return voice, true, nil
		}
	}

	return engine.Voice{}, false, nil
}

// parseVoiceConfig reads the java-properties style voice.config file.
// Only the name, locale and gender keys matter.
func parseVoiceConfig(r io.Reader) (engine.Voice, bool) {
	var name, locale, gender string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch {
		case key == "name":
			name = value
		case key == "locale":
			locale = value
		case strings.HasSuffix(key, ".gender"):
			gender = value
		}
	}

	if name == "" || locale == "" {
		return engine.Voice{}, false
	}

	language, _, _ := strings.Cut(locale, "_")
	return engine.Voice{
		ID:       name,
		Name:     name,
		Gender:   gender,
		Language: language,
		Locale:   strings.ReplaceAll(strings.ToLower(locale), "_", "-"),
	}, true
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
