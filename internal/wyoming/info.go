package wyoming

import (
	"encoding/json"
	"fmt"
)

// Attribution credits the upstream project behind a program or voice.
type Attribution struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// TTSVoice describes one synthesizer voice in an info reply.
type TTSVoice struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Attribution Attribution `json:"attribution"`
	Installed   bool        `json:"installed"`
	Languages   []string    `json:"languages"`
	Version     *string     `json:"version"`
}

// TTSProgram describes a text-to-speech service in an info reply.
type TTSProgram struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Attribution Attribution `json:"attribution"`
	Installed   bool        `json:"installed"`
	Version     string      `json:"version"`
	Voices      []TTSVoice  `json:"voices"`
}

// Info is the reply to a describe event.
type Info struct {
	TTS []TTSProgram `json:"tts"`
}

// Event converts the info into a protocol event.
func (i Info) Event() Event {
	return makeEvent(TypeInfo, i)
}

// ParseInfo decodes an info event.
func ParseInfo(ev Event) (Info, error) {
	var info Info
	if err := json.Unmarshal(ev.Data, &info); err != nil {
		return Info{}, fmt.Errorf("parse info event: %w", err)
	}
	return info, nil
}
