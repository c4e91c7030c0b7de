package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satriahrh/voiceover/domain/entities"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "TTS_PROVIDER", "TTS_REQUESTS_PER_MINUTE",
		"GEMINI_API_KEY", "GEMINI_TTS_MODEL", "GEMINI_TTS_TIMEOUT",
		"ELEVENLABS_API_KEY", "ELEVENLABS_VOICE_ID", "ELEVENLABS_VOICE_IDS",
		"VOICEOVER_JWT_SECRET", "MAX_UPLOAD_BYTES",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ProviderMock, cfg.TTSProvider)
	assert.Equal(t, 0, cfg.RequestsPerMinute)
	assert.Equal(t, int64(1<<20), cfg.MaxUploadBytes)
	assert.False(t, cfg.AuthEnabled())
}

func TestFromEnv_GeminiWhenKeyPresent(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("GEMINI_TTS_TIMEOUT", "30")
	t.Setenv("TTS_REQUESTS_PER_MINUTE", "10")
	t.Setenv("VOICEOVER_JWT_SECRET", "secret")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ProviderGemini, cfg.TTSProvider)
	assert.Equal(t, 30, cfg.GeminiTimeoutSeconds)
	assert.Equal(t, 10, cfg.RequestsPerMinute)
	assert.True(t, cfg.AuthEnabled())
}

func TestFromEnv_ExplicitProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("TTS_PROVIDER", "Mock")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ProviderMock, cfg.TTSProvider)
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"gemini without key", map[string]string{"TTS_PROVIDER": "gemini"}},
		{"elevenlabs without key", map[string]string{"TTS_PROVIDER": "elevenlabs"}},
		{"unknown provider", map[string]string{"TTS_PROVIDER": "polly"}},
		{"bad rate", map[string]string{"TTS_REQUESTS_PER_MINUTE": "fast"}},
		{"negative rate", map[string]string{"TTS_REQUESTS_PER_MINUTE": "-1"}},
		{"bad upload size", map[string]string{"MAX_UPLOAD_BYTES": "0"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}},
		{"voice id without name", map[string]string{"ELEVENLABS_VOICE_IDS": "=abc"}},
		{"voice without id", map[string]string{"ELEVENLABS_VOICE_IDS": "Kore="}},
		{"voice id missing separator", map[string]string{"ELEVENLABS_VOICE_IDS": "Kore"}},
		{"unknown voice in ids", map[string]string{"ELEVENLABS_VOICE_IDS": "Nova=abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestFromEnv_ElevenLabsVoiceIDs(t *testing.T) {
	clearEnv(t)
	t.Setenv("TTS_PROVIDER", "elevenlabs")
	t.Setenv("ELEVENLABS_API_KEY", "key")
	t.Setenv("ELEVENLABS_VOICE_IDS", " Zephyr = zeph-id , Kore=kore-id")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, map[entities.VoiceName]string{
		entities.VoiceName("Zephyr"): "zeph-id",
		entities.VoiceName("Kore"):   "kore-id",
	}, cfg.ElevenLabsVoiceIDs)
}

func TestConfig_NewLogger(t *testing.T) {
	cfg := &Config{LogLevel: "debug"}
	logger, err := cfg.NewLogger()
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))
}
