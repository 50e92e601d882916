package registry

// TTS is the global TTS engine registry.
var TTS = New()
