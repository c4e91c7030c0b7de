package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/voiceover/adapters/tts"
	"github.com/satriahrh/voiceover/domain/entities"
	"github.com/satriahrh/voiceover/internal/config"
)

func TestNewTextToSpeech(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.Config
		wantName string
		wantErr  bool
	}{
		{
			name:     "mock",
			cfg:      config.Config{TTSProvider: config.ProviderMock},
			wantName: "mock",
		},
		{
			name:     "gemini",
			cfg:      config.Config{TTSProvider: config.ProviderGemini, GeminiAPIKey: "test-key"},
			wantName: "gemini",
		},
		{
			name:     "elevenlabs",
			cfg:      config.Config{TTSProvider: config.ProviderElevenLabs, ElevenLabsAPIKey: "test-key"},
			wantName: "elevenlabs",
		},
		{
			name:    "gemini without key",
			cfg:     config.Config{TTSProvider: config.ProviderGemini},
			wantErr: true,
		},
		{
			name:    "unknown",
			cfg:     config.Config{TTSProvider: "polly"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			provider, err := NewTextToSpeech(context.Background(), &cfg, zaptest.NewLogger(t))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, provider.Name())
		})
	}
}

func TestNewTextToSpeech_ElevenLabsVoiceIDs(t *testing.T) {
	cfg := &config.Config{
		TTSProvider:       config.ProviderElevenLabs,
		ElevenLabsAPIKey:  "test-key",
		ElevenLabsVoiceID: "fallback-id",
		ElevenLabsVoiceIDs: map[entities.VoiceName]string{
			"Zephyr": "zeph-id",
			"Kore":   "kore-id",
		},
	}

	provider, err := NewTextToSpeech(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	elevenLabs, ok := provider.(*tts.ElevenLabsTTS)
	require.True(t, ok)
	assert.Equal(t, "zeph-id", elevenLabs.VoiceID("Zephyr"))
	assert.Equal(t, "kore-id", elevenLabs.VoiceID("Kore"))
	assert.Equal(t, "fallback-id", elevenLabs.VoiceID("Puck"))
}
