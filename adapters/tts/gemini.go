package tts

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/satriahrh/voiceover/domain/entities"
	"github.com/satriahrh/voiceover/domain/repositories"
)

const (
	defaultGeminiModel          = "gemini-2.5-flash-preview-tts"
	defaultGeminiTimeoutSeconds = 60
	audioModality               = "AUDIO"
)

// GeminiConfig holds configuration for the GeminiTTS adapter
// Required fields:
// - APIKey: Gemini API key
// Optional fields with defaults:
// - Model: TTS model (default: "gemini-2.5-flash-preview-tts")
// - TimeoutSeconds: per-request timeout (default: 60)
// - BaseURL: API endpoint override, for proxies and tests
// - HTTPClient: custom HTTP client
type GeminiConfig struct {
	APIKey         string
	Model          string
	TimeoutSeconds int
	BaseURL        string
	HTTPClient     *http.Client
}

// GeminiTTS implements TextToSpeech using Gemini's native audio output.
// The client is created once and reused for every slide.
type GeminiTTS struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// Ensure GeminiTTS implements the TextToSpeech interface
var _ repositories.TextToSpeech = (*GeminiTTS)(nil)

// ValidateGeminiConfig validates the GeminiConfig
func ValidateGeminiConfig(config GeminiConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("gemini API key is required")
	}

	if config.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout must be positive, got %d", config.TimeoutSeconds)
	}

	return nil
}

// NewGeminiTTS creates a new Gemini TTS instance
func NewGeminiTTS(ctx context.Context, config GeminiConfig, logger *zap.Logger) (*GeminiTTS, error) {
	if err := ValidateGeminiConfig(config); err != nil {
		return nil, err
	}

	model := config.Model
	if model == "" {
		model = defaultGeminiModel
		logger.Info("Using default model", zap.String("model", model))
	}

	timeoutSeconds := config.TimeoutSeconds
	if timeoutSeconds == 0 {
		timeoutSeconds = defaultGeminiTimeoutSeconds
		logger.Info("Using default timeout", zap.Int("timeoutSeconds", timeoutSeconds))
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     config.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: config.HTTPClient,
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
		logger.Info("Using custom API base URL", zap.String("baseURL", config.BaseURL))
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiTTS{
		client:  client,
		model:   model,
		timeout: time.Duration(timeoutSeconds) * time.Second,
		logger:  logger,
	}, nil
}

// Name returns the provider identifier
func (g *GeminiTTS) Name() string {
	return "gemini"
}

// Model returns the TTS model in use
func (g *GeminiTTS) Model() string {
	return g.model
}

// Synthesize converts text to raw PCM speech with a prebuilt voice
func (g *GeminiTTS) Synthesize(ctx context.Context, text string, voice entities.VoiceName) (*repositories.Speech, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{audioModality},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: string(voice),
				},
			},
		},
	}

	g.logger.Debug("Requesting speech",
		zap.String("model", g.model),
		zap.String("voice", string(voice)),
		zap.Int("textLength", len(text)))

	start := time.Now()
	response, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	blob := firstInlineData(response)
	if blob == nil || len(blob.Data) == 0 {
		g.logger.Warn("Gemini response carried no audio",
			zap.String("voice", string(voice)))
		return nil, repositories.ErrNoAudioData
	}

	g.logger.Info("Received speech from Gemini",
		zap.String("voice", string(voice)),
		zap.String("mimeType", blob.MIMEType),
		zap.Int("bytes", len(blob.Data)),
		zap.Duration("elapsed", time.Since(start)))

	return &repositories.Speech{
		PCM:      blob.Data,
		MIMEType: blob.MIMEType,
	}, nil
}

// firstInlineData returns the first inline blob of the first candidate
func firstInlineData(response *genai.GenerateContentResponse) *genai.Blob {
	if response == nil || len(response.Candidates) == 0 {
		return nil
	}
	content := response.Candidates[0].Content
	if content == nil {
		return nil
	}
	for _, part := range content.Parts {
		if part != nil && part.InlineData != nil {
			return part.InlineData
		}
	}
	return nil
}
