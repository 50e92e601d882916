package wyoming

import (
	"encoding/json"
	"fmt"
)

// Error reports a request failure to the peer.
type Error struct {
	Text string `json:"text"`
	Code string `json:"code,omitempty"`
}

// Event converts the error into a protocol event.
func (e Error) Event() Event {
	return makeEvent(TypeError, e)
}

// ParseError decodes an error event.
func ParseError(ev Event) (Error, error) {
	var e Error
	if err := json.Unmarshal(ev.Data, &e); err != nil {
		return Error{}, fmt.Errorf("parse error event: %w", err)
	}
	return e, nil
}
