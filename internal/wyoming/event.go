// Package wyoming implements the Wyoming peer protocol: newline-delimited
// JSON event headers, each optionally followed by extra data bytes and a
// binary payload.
package wyoming

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Event types understood by the server.
const (
	TypeDescribe   = "describe"
	TypeInfo       = "info"
	TypeSynthesize = "synthesize"
	TypeAudioStart = "audio-start"
	TypeAudioChunk = "audio-chunk"
	TypeAudioStop  = "audio-stop"
	TypeError      = "error"
)

// Event is a single protocol event: a type, a JSON data object and an
// optional binary payload.
type Event struct {
	Type    string
	Data    json.RawMessage
	Payload []byte
}

// Is reports whether the event has the given type.
func (e Event) Is(eventType string) bool {
	return e.Type == eventType
}

// header is the wire form of the first line of an event.
type header struct {
	Type          string          `json:"type"`
	Data          json.RawMessage `json:"data,omitempty"`
	DataLength    int             `json:"data_length,omitempty"`
	PayloadLength int             `json:"payload_length,omitempty"`
}

// maxBlockLength bounds data_length/payload_length so a broken peer
// cannot make us allocate unbounded memory.
const maxBlockLength = 64 << 20

// Reader reads events from a stream.
type Reader struct {
	br *bufio.Reader
}

// NewReader creates an event reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// ReadEvent reads the next event. It returns io.EOF when the stream ends
// cleanly between events.
func (r *Reader) ReadEvent() (Event, error) {
	line, err := r.br.ReadBytes('\n')
	if err != nil {
		if err == io.EOF && len(line) == 0 {
			return Event{}, io.EOF
		}
		return Event{}, fmt.Errorf("read event header: %w", err)
	}

	var hdr header
	if err := json.Unmarshal(line, &hdr); err != nil {
		return Event{}, fmt.Errorf("parse event header: %w", err)
	}
	if hdr.Type == "" {
		return Event{}, fmt.Errorf("event header missing type")
	}
	if hdr.DataLength < 0 || hdr.DataLength > maxBlockLength ||
		hdr.PayloadLength < 0 || hdr.PayloadLength > maxBlockLength {
		return Event{}, fmt.Errorf("event %q: block length out of range", hdr.Type)
	}

	ev := Event{Type: hdr.Type, Data: hdr.Data}

	// Older peers send the data object as a second block instead of
	// inline. It overrides any inline fields.
	if hdr.DataLength > 0 {
		extra := make([]byte, hdr.DataLength)
		if _, err := io.ReadFull(r.br, extra); err != nil {
			return Event{}, fmt.Errorf("read event data: %w", err)
		}
		ev.Data, err = mergeJSON(ev.Data, extra)
		if err != nil {
			return Event{}, fmt.Errorf("event %q: %w", hdr.Type, err)
		}
	}

	if hdr.PayloadLength > 0 {
		ev.Payload = make([]byte, hdr.PayloadLength)
		if _, err := io.ReadFull(r.br, ev.Payload); err != nil {
			return Event{}, fmt.Errorf("read event payload: %w", err)
		}
	}

	return ev, nil
}

// mergeJSON overlays the fields of b onto a.
func mergeJSON(a, b json.RawMessage) (json.RawMessage, error) {
	if len(a) == 0 {
		return b, nil
	}

	merged := map[string]any{}
	if err := json.Unmarshal(a, &merged); err != nil {
		return nil, fmt.Errorf("parse inline data: %w", err)
	}
	overlay := map[string]any{}
	if err := json.Unmarshal(b, &overlay); err != nil {
		return nil, fmt.Errorf("parse data block: %w", err)
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// Writer writes events to a stream. It is safe for concurrent use.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter creates an event writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteEvent writes one event: header line, then the payload if any.
// The data object is always sent inline in the header.
func (w *Writer) WriteEvent(ev Event) error {
	data := ev.Data
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	hdr := header{
		Type:          ev.Type,
		Data:          data,
		PayloadLength: len(ev.Payload),
	}
	line, err := json.Marshal(hdr)
	if err != nil {
		return fmt.Errorf("encode event header: %w", err)
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.w.Write(line); err != nil {
		return fmt.Errorf("write event header: %w", err)
	}
	if len(ev.Payload) > 0 {
		if _, err := w.w.Write(ev.Payload); err != nil {
			return fmt.Errorf("write event payload: %w", err)
		}
	}
	return nil
}

// makeEvent marshals v as the data object of a new event.
func makeEvent(eventType string, v any) Event {
	data, err := json.Marshal(v)
	if err != nil {
		// All event data types marshal without error.
		panic(fmt.Sprintf("wyoming: marshal %s data: %v", eventType, err))
	}
	return Event{Type: eventType, Data: data}
}
