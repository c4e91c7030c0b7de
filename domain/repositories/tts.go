package repositories

import (
	"context"
	"errors"

	"github.com/satriahrh/voiceover/domain/entities"
)

// ErrNoAudioData is returned when the TTS provider answers without audio
var ErrNoAudioData = errors.New("no audio data received from the API")

// Speech is raw synthesized audio as returned by a provider
type Speech struct {
	// PCM holds signed 16-bit little-endian samples
	PCM []byte
	// MIMEType as reported by the provider, e.g. "audio/L16;codec=pcm;rate=24000"
	MIMEType string
}

// TextToSpeech abstracts any TTS provider producing mono 16-bit PCM
type TextToSpeech interface {
	// Name returns the provider identifier
	Name() string
	// Synthesize converts a single text into speech using the given voice
	Synthesize(ctx context.Context, text string, voice entities.VoiceName) (*Speech, error)
}
