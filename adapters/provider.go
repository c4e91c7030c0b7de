package adapters

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/satriahrh/voiceover/adapters/speech"
	"github.com/satriahrh/voiceover/adapters/tts"
	"github.com/satriahrh/voiceover/domain/repositories"
	"github.com/satriahrh/voiceover/internal/config"
)

// NewTextToSpeech builds the TTS adapter selected by cfg
func NewTextToSpeech(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.TextToSpeech, error) {
	switch cfg.TTSProvider {
	case config.ProviderGemini:
		gemini, err := tts.NewGeminiTTS(ctx, tts.GeminiConfig{
			APIKey:         cfg.GeminiAPIKey,
			Model:          cfg.GeminiModel,
			TimeoutSeconds: cfg.GeminiTimeoutSeconds,
		}, logger)
		if err != nil {
			return nil, err
		}
		return gemini, nil

	case config.ProviderElevenLabs:
		elevenLabs, err := tts.NewElevenLabsTTS(tts.ElevenLabsConfig{
			APIKey:         cfg.ElevenLabsAPIKey,
			DefaultVoiceID: cfg.ElevenLabsVoiceID,
			VoiceIDs:       cfg.ElevenLabsVoiceIDs,
		}, logger)
		if err != nil {
			return nil, err
		}
		return elevenLabs, nil

	case config.ProviderMock:
		logger.Warn("Using mock text-to-speech; generated clips are test tones")
		return speech.NewMockTextToSpeech(logger), nil

	default:
		return nil, fmt.Errorf("unknown TTS provider %q", cfg.TTSProvider)
	}
}
