package services

import "context"

// ---------------------------------------------------------------------------
// TTSService — common interface for text-to-speech providers.
// Azure Speech is the primary provider; ElevenLabs is used when only an
// ElevenLabs key is configured. The orchestrator doesn't know which one it
// holds.
// ---------------------------------------------------------------------------

// TTSService converts narration text into one audio file on disk.
type TTSService interface {
	// Synthesize writes the narration as an audio file and returns its path.
	// voice is either a provider-native voice ID or one of the legacy
	// male/female/neutral aliases resolved per language. An empty text is
	// rejected with ErrEmptyNarration before any network call; a provider
	// cancellation surfaces as ErrSynthesisFailed with the reason attached.
	Synthesize(ctx context.Context, text, voice, language string) (string, error)
}
