package wyoming

import (
	"encoding/json"
	"fmt"
)

// SynthesizeVoice selects the voice for a synthesize request.
type SynthesizeVoice struct {
	Name     string `json:"name,omitempty"`
	Language string `json:"language,omitempty"`
}

// Synthesize asks the server to speak text.
type Synthesize struct {
	Text  string           `json:"text"`
	Voice *SynthesizeVoice `json:"voice,omitempty"`
}

// Event converts the request into a protocol event.
func (s Synthesize) Event() Event {
	return makeEvent(TypeSynthesize, s)
}

// ParseSynthesize decodes a synthesize event.
func ParseSynthesize(ev Event) (Synthesize, error) {
	var s Synthesize
	if err := json.Unmarshal(ev.Data, &s); err != nil {
		return Synthesize{}, fmt.Errorf("parse synthesize event: %w", err)
	}
	return s, nil
}
