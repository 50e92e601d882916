package config

import (
	"time"

	"github.com/pitabwire/frame/config"
)

// OpenTTSConfig holds configuration for the Wyoming OpenTTS bridge.
// Engine binaries left unset are probed on PATH at startup; an engine
// with no usable binary is simply not loaded.
type OpenTTSConfig struct {
	config.ConfigurationDefault

	// WyomingURI selects the protocol listener: tcp://host:port,
	// unix://path or stdio://.
	WyomingURI string `envDefault:"stdio://" env:"WYOMING_URI"`

	EspeakBin      string `envDefault:"" env:"ESPEAK_NG_BIN"`
	NanoTTSBin     string `envDefault:"" env:"NANOTTS_BIN"`
	NanoTTSLangDir string `envDefault:"" env:"NANOTTS_LANG_DIR"`
	FliteBin       string `envDefault:"" env:"FLITE_BIN"`
	FliteVoicesDir string `envDefault:"" env:"FLITE_VOICES_DIR"`
	FestivalBin    string `envDefault:"" env:"FESTIVAL_BIN"`
	MaryTTSDir     string `envDefault:"" env:"MARYTTS_DIR"`

	// SamplesPerChunk bounds the payload of one audio-chunk event.
	SamplesPerChunk int `envDefault:"1024" env:"SAMPLES_PER_CHUNK"`
	// OutputSampleRate resamples 16-bit mono audio before streaming;
	// 0 keeps each engine's native rate.
	OutputSampleRate int `envDefault:"0" env:"OUTPUT_SAMPLE_RATE"`
	// SayTimeoutSec bounds one engine invocation.
	SayTimeoutSec int `envDefault:"30" env:"SAY_TIMEOUT_SEC"`

	// VoiceAliasFile optionally maps short voice names onto full
	// <engine>.<voice> names; hot-reloaded on change.
	VoiceAliasFile string `envDefault:"" env:"VOICE_ALIAS_FILE"`
}

// SayTimeout returns the per-request synthesis deadline.
func (c *OpenTTSConfig) SayTimeout() time.Duration {
	return time.Duration(c.SayTimeoutSec) * time.Second
}
