package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/satriahrh/voiceover/domain/entities"
)

// Supported TTS providers
const (
	ProviderGemini     = "gemini"
	ProviderElevenLabs = "elevenlabs"
	ProviderMock       = "mock"
)

const (
	defaultPort           = "8080"
	defaultMaxUploadBytes = 1 << 20
)

// Config holds application-wide configuration populated from environment variables.
type Config struct {
	Port     string
	LogLevel string

	TTSProvider       string
	RequestsPerMinute int

	GeminiAPIKey         string
	GeminiModel          string
	GeminiTimeoutSeconds int

	ElevenLabsAPIKey  string
	ElevenLabsVoiceID string
	// ElevenLabsVoiceIDs maps a voice name to an ElevenLabs voice id
	ElevenLabsVoiceIDs map[entities.VoiceName]string

	JWTSecret      string
	MaxUploadBytes int64
}

// Load reads .env when present, then the environment, and returns Config with defaults applied.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the process environment only
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", defaultPort),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       os.Getenv("GEMINI_TTS_MODEL"),
		ElevenLabsAPIKey:  os.Getenv("ELEVENLABS_API_KEY"),
		ElevenLabsVoiceID: os.Getenv("ELEVENLABS_VOICE_ID"),
		JWTSecret:         os.Getenv("VOICEOVER_JWT_SECRET"),
	}

	var err error
	if cfg.GeminiTimeoutSeconds, err = getEnvInt("GEMINI_TTS_TIMEOUT", 0); err != nil {
		return nil, err
	}
	if cfg.RequestsPerMinute, err = getEnvInt("TTS_REQUESTS_PER_MINUTE", 0); err != nil {
		return nil, err
	}
	maxUpload, err := getEnvInt("MAX_UPLOAD_BYTES", defaultMaxUploadBytes)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(maxUpload)
	if cfg.ElevenLabsVoiceIDs, err = parseVoiceIDs(os.Getenv("ELEVENLABS_VOICE_IDS")); err != nil {
		return nil, err
	}

	cfg.TTSProvider = strings.ToLower(getEnv("TTS_PROVIDER", ""))
	if cfg.TTSProvider == "" {
		cfg.TTSProvider = ProviderMock
		if cfg.GeminiAPIKey != "" {
			cfg.TTSProvider = ProviderGemini
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected provider has what it needs
func (c *Config) Validate() error {
	switch c.TTSProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for provider %s", c.TTSProvider)
		}
	case ProviderElevenLabs:
		if c.ElevenLabsAPIKey == "" {
			return fmt.Errorf("ELEVENLABS_API_KEY is required for provider %s", c.TTSProvider)
		}
	case ProviderMock:
	default:
		return fmt.Errorf("unknown TTS provider %q", c.TTSProvider)
	}

	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("TTS_REQUESTS_PER_MINUTE must not be negative, got %d", c.RequestsPerMinute)
	}
	if c.GeminiTimeoutSeconds < 0 {
		return fmt.Errorf("GEMINI_TTS_TIMEOUT must not be negative, got %d", c.GeminiTimeoutSeconds)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return nil
}

// AuthEnabled reports whether API requests must carry an operator token
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// NewLogger builds a production logger at the configured level
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// parseVoiceIDs reads "Zephyr=id1,Kore=id2" into a voice map.
func parseVoiceIDs(v string) (map[entities.VoiceName]string, error) {
	if strings.TrimSpace(v) == "" {
		return nil, nil
	}
	ids := make(map[entities.VoiceName]string)
	for _, pair := range strings.Split(v, ",") {
		name, id, ok := strings.Cut(pair, "=")
		name, id = strings.TrimSpace(name), strings.TrimSpace(id)
		if !ok || name == "" || id == "" {
			return nil, fmt.Errorf("invalid ELEVENLABS_VOICE_IDS entry %q, want Name=voiceID", strings.TrimSpace(pair))
		}
		voice, err := entities.ParseVoiceName(name)
		if err != nil {
			return nil, fmt.Errorf("invalid ELEVENLABS_VOICE_IDS: %w", err)
		}
		ids[voice] = id
	}
	return ids, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
