// Package marytts wraps a local MaryTTS installation
// (http://mary.dfki.de). Voices are discovered from the installation's
// voice jars and spoken through a persistent Txt2Wav JVM process.
package marytts

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/opentts/wyoming-opentts/internal/speech/engine"
	"github.com/opentts/wyoming-opentts/internal/speech/registry"
)

func init() {
	registry.TTS.Register("marytts", func(config map[string]string) (engine.TTSEngine, error) {
		baseDir := config["base_dir"]
		if baseDir == "" {
			return nil, fmt.Errorf("marytts: base_dir is required")
		}
		return New(baseDir), nil
	})
}

// MaryTTS implements engine.TTSEngine over a MaryTTS directory tree.
// One Txt2Wav process is kept alive per engine and restarted when the
// requested voice changes; synthesis calls are serialized.
type MaryTTS struct {
	baseDir string

	mu        sync.Mutex
	voices    map[string]engine.Voice
	voiceJars map[string]string

	proc        *exec.Cmd
	procStdin   io.WriteCloser
	procStdout  *bufio.Reader
	procVoiceID string
}

// New creates a MaryTTS engine rooted at the installation directory.
func New(baseDir string) *MaryTTS {
	return &MaryTTS{baseDir: baseDir}
}

// Voices lists voices found in the installation's voice jars.
func (m *MaryTTS) Voices(_ context.Context) ([]engine.Voice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.loadVoicesLocked(); err != nil {
		return nil, err
	}

	voices := make([]engine.Voice, 0, len(m.voices))
	for _, v := range m.voices {
		voices = append(voices, v)
	}
	return voices, nil
}

// Say synthesizes one line of text through the Txt2Wav process. The
// process replies with a decimal byte count on its first output line,
// followed by exactly that many WAV bytes.
func (m *MaryTTS) Say(ctx context.Context, text string, voiceID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.loadVoicesLocked(); err != nil {
		return nil, err
	}
	if err := m.ensureProcLocked(voiceID); err != nil {
		return nil, err
	}

	// The pipe read runs off the calling goroutine so a cancelled
	// context can interrupt a wedged JVM: killing the process
	// unblocks the read and the goroutine drains into the channel.
	results := make(chan speakResult, 1)
	stdin, stdout := m.procStdin, m.procStdout
	go func() {
		wav, err := speak(stdin, stdout, text)
		results <- speakResult{wav: wav, err: err}
	}()

	select {
	case <-ctx.Done():
		m.stopProcLocked()
		<-results
		return nil, ctx.Err()
	case res := <-results:
		if res.err != nil {
			// The process state is unknown after a pipe failure.
			m.stopProcLocked()
			return nil, fmt.Errorf("marytts: %w", res.err)
		}
		return res.wav, nil
	}
}

type speakResult struct {
	wav []byte
	err error
}

func speak(stdin io.Writer, stdout *bufio.Reader, text string) ([]byte, error) {
	line := strings.TrimSpace(text) + "\n"
	if _, err := io.WriteString(stdin, line); err != nil {
		return nil, fmt.Errorf("write text: %w", err)
	}

	sizeLine, err := stdout.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read size line: %w", err)
	}
	numBytes, err := strconv.Atoi(strings.TrimSpace(sizeLine))
	if err != nil {
		return nil, fmt.Errorf("parse size line %q: %w", sizeLine, err)
	}

	wav := make([]byte, numBytes)
	if _, err := io.ReadFull(stdout, wav); err != nil {
		return nil, fmt.Errorf("read WAV data: %w", err)
	}
	return wav, nil
}

// ensureProcLocked starts (or restarts) the Txt2Wav process for the
// requested voice.
func (m *MaryTTS) ensureProcLocked(voiceID string) error {
	if m.proc != nil && m.procVoiceID == voiceID {
		return nil
	}
	m.stopProcLocked()

	voice, ok := m.voices[voiceID]
	if !ok {
		return fmt.Errorf("marytts: no voice for id %q", voiceID)
	}
	voiceJar, ok := m.voiceJars[voiceID]
	if !ok {
		return fmt.Errorf("marytts: no voice jar for id %q", voiceID)
	}

	classpath, err := m.classpath(voiceJar, voice.Language)
	if err != nil {
		return err
	}

	cmd := exec.Command("java",
		"-cp", strings.Join(classpath, ":"),
		"de.dfki.mary.Txt2Wav",
		"-v", voice.ID,
	)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("marytts: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("marytts: stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("marytts: start Txt2Wav: %w", err)
	}

	slog.Debug("started marytts process", slog.String("voice", voiceID))

	m.proc = cmd
	m.procStdin = stdin
	m.procStdout = bufio.NewReader(stdout)
	m.procVoiceID = voiceID
	return nil
}

// classpath assembles the jars for a voice: the voice jar itself, the
// language jar, the txt2wav utility and the MaryTTS runtime.
func (m *MaryTTS) classpath(voiceJar, language string) ([]string, error) {
	langJar := filepath.Join(m.baseDir, "lib", fmt.Sprintf("marytts-lang-%s-5.2.jar", language))
	if !fileExists(langJar) {
		return nil, fmt.Errorf("marytts: missing language jar at %s", langJar)
	}

	classpath := []string{
		voiceJar,
		langJar,
		filepath.Join(m.baseDir, "lib", "txt2wav-1.0-SNAPSHOT.jar"),
	}

	runtimeJars, err := filepath.Glob(filepath.Join(m.baseDir, "lib", "marytts", "*.jar"))
	if err != nil {
		return nil, fmt.Errorf("marytts: list runtime jars: %w", err)
	}
	return append(classpath, runtimeJars...), nil
}

func (m *MaryTTS) stopProcLocked() {
	if m.proc == nil {
		return
	}

	slog.Debug("stopping marytts process", slog.String("voice", m.procVoiceID))

	m.procStdin.Close()
	if m.proc.Process != nil {
		_ = m.proc.Process.Kill()
	}
	_ = m.proc.Wait()

	m.proc = nil
	m.procStdin = nil
	m.procStdout = nil
	m.procVoiceID = ""
}

// Attribution identifies the wrapped project.
func (m *MaryTTS) Attribution() engine.Attribution {
	return engine.Attribution{Name: "dfki", URL: "http://mary.dfki.de"}
}

// Close stops any running Txt2Wav process.
func (m *MaryTTS) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopProcLocked()
	return nil
}
