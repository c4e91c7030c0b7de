package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/voiceover/domain/entities"
	"github.com/satriahrh/voiceover/domain/repositories"
)

const (
	defaultAPIBaseURL   = "https://api.elevenlabs.io/v1"
	defaultVoiceID      = "21m00Tcm4TlvDq8ikWAM"   // Rachel voice
	defaultChunkSize    = 1024                     // Size of reads from the response body
	defaultOutputFormat = "pcm_24000"              // 24kHz mono signed 16-bit
	defaultModelID      = "eleven_multilingual_v2" // Default model ID
	defaultStability    = 0.5                      // Default voice stability
	defaultClarity      = 0.75                     // Default voice clarity/similarity_boost
)

// ElevenLabsConfig holds configuration for the ElevenLabsTTS adapter
// Required fields:
// - APIKey: Your Eleven Labs API key
// Optional fields with defaults:
// - APIBaseURL: The base URL for the Eleven Labs API (default: "https://api.elevenlabs.io/v1")
// - VoiceIDs: Eleven Labs voice ID per selectable voice; unmapped voices use DefaultVoiceID
// - DefaultVoiceID: fallback voice ID (default: "21m00Tcm4TlvDq8ikWAM" - Rachel voice)
// - ModelID: The model ID to use (default: "eleven_multilingual_v2")
// - OutputFormat: pcm_<rate> output format (default: "pcm_24000")
// - ChunkSize: read size when draining the response (default: 1024)
// - Stability: Voice stability value between 0 and 1 (default: 0.5)
// - Clarity: Voice clarity/similarity boost value between 0 and 1 (default: 0.75)
type ElevenLabsConfig struct {
	APIKey         string
	APIBaseURL     string
	VoiceIDs       map[entities.VoiceName]string
	DefaultVoiceID string
	ModelID        string
	OutputFormat   string
	ChunkSize      int
	Stability      float64
	Clarity        float64
	HTTPClient     *http.Client
}

// ElevenLabsTTS implements TextToSpeech using Eleven Labs API
type ElevenLabsTTS struct {
	apiKey         string
	apiBaseURL     string
	voiceIDs       map[entities.VoiceName]string
	defaultVoiceID string
	modelID        string
	outputFormat   string
	sampleRate     int
	chunkSize      int
	stability      float64
	clarity        float64
	client         *http.Client
	logger         *zap.Logger
}

// Ensure ElevenLabsTTS implements the TextToSpeech interface
var _ repositories.TextToSpeech = (*ElevenLabsTTS)(nil)

// ElevenLabsVoiceSettings represents voice settings for Eleven Labs API
type ElevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style,omitempty"`
	UseSpeakerBoost bool    `json:"use_speaker_boost,omitempty"`
}

// ElevenLabsRequest represents the request payload for Eleven Labs TTS API
type ElevenLabsRequest struct {
	Text                   string                  `json:"text"`
	ModelID                string                  `json:"model_id"`
	VoiceSettings          ElevenLabsVoiceSettings `json:"voice_settings"`
	ApplyTextNormalization string                  `json:"apply_text_normalization,omitempty"`
}

// ValidateElevenLabsConfig validates the ElevenLabsConfig
func ValidateElevenLabsConfig(config ElevenLabsConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("eleven labs API key is required")
	}

	// Validate stability is in the valid range
	if config.Stability != 0 && (config.Stability < 0 || config.Stability > 1) {
		return fmt.Errorf("stability must be between 0 and 1, got %f", config.Stability)
	}

	// Validate clarity is in the valid range
	if config.Clarity != 0 && (config.Clarity < 0 || config.Clarity > 1) {
		return fmt.Errorf("clarity must be between 0 and 1, got %f", config.Clarity)
	}

	if config.ChunkSize < 0 {
		return fmt.Errorf("chunk size must be positive, got %d", config.ChunkSize)
	}

	// Only raw PCM can be wrapped as WAV
	if config.OutputFormat != "" {
		if _, err := pcmSampleRate(config.OutputFormat); err != nil {
			return err
		}
	}

	for voice := range config.VoiceIDs {
		if !voice.IsValid() {
			return fmt.Errorf("%w: %q", entities.ErrInvalidVoice, voice)
		}
	}

	return nil
}

// pcmSampleRate parses formats like "pcm_24000"
func pcmSampleRate(format string) (int, error) {
	var rate int
	if _, err := fmt.Sscanf(format, "pcm_%d", &rate); err != nil || rate <= 0 {
		return 0, fmt.Errorf("output format must be pcm_<rate>, got %q", format)
	}
	return rate, nil
}

// NewElevenLabsTTS creates a new Eleven Labs TTS instance
func NewElevenLabsTTS(config ElevenLabsConfig, logger *zap.Logger) (*ElevenLabsTTS, error) {
	// Validate required configuration
	if err := ValidateElevenLabsConfig(config); err != nil {
		return nil, err
	}

	// Apply defaults where needed
	apiBaseURL := config.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
		logger.Info("Using default API base URL", zap.String("apiBaseURL", apiBaseURL))
	}

	defaultVoice := config.DefaultVoiceID
	if defaultVoice == "" {
		defaultVoice = defaultVoiceID
		logger.Info("Using default voice ID", zap.String("voiceID", defaultVoice))
	}

	modelID := config.ModelID
	if modelID == "" {
		modelID = defaultModelID
		logger.Info("Using default model ID", zap.String("modelID", modelID))
	}

	outputFormat := config.OutputFormat
	if outputFormat == "" {
		outputFormat = defaultOutputFormat
		logger.Info("Using default output format", zap.String("outputFormat", outputFormat))
	}
	sampleRate, _ := pcmSampleRate(outputFormat)

	chunkSize := config.ChunkSize
	if chunkSize == 0 {
		chunkSize = defaultChunkSize
		logger.Info("Using default chunk size", zap.Int("chunkSize", chunkSize))
	}

	// Use provided stability/clarity or defaults
	stability := config.Stability
	if stability == 0 {
		stability = defaultStability
		logger.Info("Using default stability", zap.Float64("stability", stability))
	}

	clarity := config.Clarity
	if clarity == 0 {
		clarity = defaultClarity
		logger.Info("Using default clarity", zap.Float64("clarity", clarity))
	}

	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	voiceIDs := make(map[entities.VoiceName]string, len(config.VoiceIDs))
	for voice, id := range config.VoiceIDs {
		voiceIDs[voice] = id
	}

	return &ElevenLabsTTS{
		apiKey:         config.APIKey,
		apiBaseURL:     strings.TrimRight(apiBaseURL, "/"),
		voiceIDs:       voiceIDs,
		defaultVoiceID: defaultVoice,
		modelID:        modelID,
		outputFormat:   outputFormat,
		sampleRate:     sampleRate,
		chunkSize:      chunkSize,
		stability:      stability,
		clarity:        clarity,
		client:         client,
		logger:         logger,
	}, nil
}

// Name returns the provider identifier
func (e *ElevenLabsTTS) Name() string {
	return "elevenlabs"
}

// VoiceID returns the Eleven Labs voice used for a selectable voice
func (e *ElevenLabsTTS) VoiceID(voice entities.VoiceName) string {
	if id, ok := e.voiceIDs[voice]; ok && id != "" {
		return id
	}
	return e.defaultVoiceID
}

// Synthesize converts text to PCM speech using Eleven Labs API
func (e *ElevenLabsTTS) Synthesize(ctx context.Context, text string, voice entities.VoiceName) (*repositories.Speech, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	voiceID := e.VoiceID(voice)
	e.logger.Info("Converting text to speech",
		zap.String("voice", string(voice)),
		zap.String("voiceID", voiceID),
		zap.String("modelID", e.modelID))

	request := ElevenLabsRequest{
		Text:                   text,
		ModelID:                e.modelID,
		ApplyTextNormalization: "auto",
		VoiceSettings: ElevenLabsVoiceSettings{
			Stability:       e.stability,
			SimilarityBoost: e.clarity,
			UseSpeakerBoost: true,
		},
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s/stream?output_format=%s&enable_logging=false",
		e.apiBaseURL, voiceID, e.outputFormat)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	// PCM format requires audio/pcm accept header
	httpReq.Header.Set("Accept", "audio/pcm")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("xi-api-key", e.apiKey)

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(resp.Body)
		e.logger.Error("Eleven Labs API returned error",
			zap.Int("statusCode", resp.StatusCode),
			zap.String("response", string(errorBody)))
		return nil, fmt.Errorf("API returned error %d: %s", resp.StatusCode, strings.TrimSpace(string(errorBody)))
	}

	pcm, chunkCount, err := e.drain(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio stream: %w", err)
	}
	if len(pcm) == 0 {
		return nil, repositories.ErrNoAudioData
	}
	// Streams may end mid-sample; drop the dangling byte
	if len(pcm)%2 != 0 {
		pcm = pcm[:len(pcm)-1]
	}

	e.logger.Info("Finished streaming audio data",
		zap.Int("totalChunks", chunkCount),
		zap.Int("totalBytes", len(pcm)))

	return &repositories.Speech{
		PCM:      pcm,
		MIMEType: fmt.Sprintf("audio/L16;codec=pcm;rate=%d", e.sampleRate),
	}, nil
}

// drain reads the streamed body in chunkSize reads
func (e *ElevenLabsTTS) drain(body io.Reader) ([]byte, int, error) {
	var pcm bytes.Buffer
	buffer := make([]byte, e.chunkSize)
	chunkCount := 0

	for {
		n, err := body.Read(buffer)
		if n > 0 {
			chunkCount++
			pcm.Write(buffer[:n])
		}
		if err == io.EOF {
			return pcm.Bytes(), chunkCount, nil
		}
		if err != nil {
			return nil, chunkCount, err
		}
	}
}
