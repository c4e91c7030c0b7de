package tts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/voiceover/domain/entities"
	"github.com/satriahrh/voiceover/domain/repositories"
)

func TestNewElevenLabsTTS(t *testing.T) {
	logger := zaptest.NewLogger(t)

	// Test without API key
	_, err := NewElevenLabsTTS(ElevenLabsConfig{}, logger)
	if err == nil {
		t.Error("Expected error when API key is not set")
	}

	// Test with API key
	tts, err := NewElevenLabsTTS(ElevenLabsConfig{APIKey: "test-api-key"}, logger)
	if err != nil {
		t.Fatalf("Failed to create ElevenLabsTTS: %v", err)
	}

	if tts.apiKey != "test-api-key" {
		t.Errorf("Expected API key 'test-api-key', got '%s'", tts.apiKey)
	}

	if tts.VoiceID(entities.VoiceKore) != defaultVoiceID {
		t.Errorf("Expected default voice ID '%s', got '%s'", defaultVoiceID, tts.VoiceID(entities.VoiceKore))
	}

	if tts.sampleRate != 24000 {
		t.Errorf("Expected sample rate 24000, got %d", tts.sampleRate)
	}
}

func TestValidateElevenLabsConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  ElevenLabsConfig
		wantErr bool
	}{
		{name: "valid", config: ElevenLabsConfig{APIKey: "k"}},
		{name: "stability out of range", config: ElevenLabsConfig{APIKey: "k", Stability: 1.5}, wantErr: true},
		{name: "clarity out of range", config: ElevenLabsConfig{APIKey: "k", Clarity: -0.1}, wantErr: true},
		{name: "negative chunk size", config: ElevenLabsConfig{APIKey: "k", ChunkSize: -1}, wantErr: true},
		{name: "mp3 output", config: ElevenLabsConfig{APIKey: "k", OutputFormat: "mp3_44100_128"}, wantErr: true},
		{name: "pcm 16k output", config: ElevenLabsConfig{APIKey: "k", OutputFormat: "pcm_16000"}},
		{
			name:    "unknown voice mapping",
			config:  ElevenLabsConfig{APIKey: "k", VoiceIDs: map[entities.VoiceName]string{"Alloy": "x"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateElevenLabsConfig(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateElevenLabsConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestElevenLabsTTS_Synthesize(t *testing.T) {
	var gotPath, gotKey, gotFormat string
	var gotRequest ElevenLabsRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		gotFormat = r.URL.Query().Get("output_format")
		json.NewDecoder(r.Body).Decode(&gotRequest)

		w.Header().Set("Content-Type", "audio/pcm")
		// odd length: the trailing byte must be dropped
		w.Write([]byte{1, 0, 2, 0, 3})
	}))
	defer server.Close()

	tts, err := NewElevenLabsTTS(ElevenLabsConfig{
		APIKey:     "test-api-key",
		APIBaseURL: server.URL,
		VoiceIDs:   map[entities.VoiceName]string{entities.VoiceKore: "kore-id"},
		ChunkSize:  2,
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create ElevenLabsTTS: %v", err)
	}

	speech, err := tts.Synthesize(context.Background(), "Slide text", entities.VoiceKore)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	if string(speech.PCM) != string([]byte{1, 0, 2, 0}) {
		t.Errorf("Unexpected PCM %v", speech.PCM)
	}

	if speech.MIMEType != "audio/L16;codec=pcm;rate=24000" {
		t.Errorf("Unexpected MIME type %s", speech.MIMEType)
	}

	if gotPath != "/text-to-speech/kore-id/stream" {
		t.Errorf("Unexpected path %s", gotPath)
	}

	if gotKey != "test-api-key" {
		t.Errorf("Unexpected api key header %s", gotKey)
	}

	if gotFormat != "pcm_24000" {
		t.Errorf("Unexpected output format %s", gotFormat)
	}

	if gotRequest.Text != "Slide text" {
		t.Errorf("Unexpected request text %s", gotRequest.Text)
	}
}

func TestElevenLabsTTS_Synthesize_Errors(t *testing.T) {
	status := http.StatusUnauthorized
	var body []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write(body)
	}))
	defer server.Close()

	tts, err := NewElevenLabsTTS(ElevenLabsConfig{APIKey: "k", APIBaseURL: server.URL}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create ElevenLabsTTS: %v", err)
	}

	body = []byte(`{"detail":"invalid api key"}`)
	_, err = tts.Synthesize(context.Background(), "hi", entities.VoiceZephyr)
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("Expected 401 error, got %v", err)
	}

	status = http.StatusOK
	body = nil
	_, err = tts.Synthesize(context.Background(), "hi", entities.VoiceZephyr)
	if !errors.Is(err, repositories.ErrNoAudioData) {
		t.Errorf("Expected ErrNoAudioData, got %v", err)
	}

	if _, err := tts.Synthesize(context.Background(), "   ", entities.VoiceZephyr); err == nil {
		t.Error("Expected error for whitespace-only text")
	}
}

// Integration test - only runs if ELEVENLABS_API_KEY is set with real API key
func TestElevenLabsTTS_Synthesize_Integration(t *testing.T) {
	apiKey := os.Getenv("ELEVENLABS_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test - set ELEVENLABS_API_KEY environment variable with real API key")
	}

	tts, err := NewElevenLabsTTS(ElevenLabsConfig{APIKey: apiKey}, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create ElevenLabsTTS: %v", err)
	}

	speech, err := tts.Synthesize(context.Background(), "Welcome to the quarterly review.", entities.VoiceZephyr)
	if err != nil {
		t.Fatalf("Failed to convert text to speech: %v", err)
	}

	if len(speech.PCM) == 0 {
		t.Error("No audio data received")
	}

	t.Logf("Integration test completed: received %d bytes", len(speech.PCM))
}
