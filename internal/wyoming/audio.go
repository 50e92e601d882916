package wyoming

// AudioStart opens an audio stream.
type AudioStart struct {
	Rate      int `json:"rate"`
	Width     int `json:"width"`
	Channels  int `json:"channels"`
	Timestamp int `json:"timestamp"`
}

// Event converts the marker into a protocol event.
func (a AudioStart) Event() Event {
	return makeEvent(TypeAudioStart, a)
}

// AudioChunk carries raw PCM samples as its payload.
type AudioChunk struct {
	Rate      int `json:"rate"`
	Width     int `json:"width"`
	Channels  int `json:"channels"`
	Timestamp int `json:"timestamp"`

	Audio []byte `json:"-"`
}

// Event converts the chunk into a protocol event.
func (a AudioChunk) Event() Event {
	ev := makeEvent(TypeAudioChunk, a)
	ev.Payload = a.Audio
	return ev
}

// DurationMs is the chunk length in milliseconds.
func (a AudioChunk) DurationMs() int {
	bytesPerSecond := a.Rate * a.Width * a.Channels
	if bytesPerSecond == 0 {
		return 0
	}
	return len(a.Audio) * 1000 / bytesPerSecond
}

// AudioStop closes an audio stream.
type AudioStop struct {
	Timestamp int `json:"timestamp"`
}

// Event converts the marker into a protocol event.
func (a AudioStop) Event() Event {
	return makeEvent(TypeAudioStop, a)
}
