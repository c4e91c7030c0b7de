package speech

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/voiceover/domain/entities"
	"github.com/satriahrh/voiceover/domain/repositories"
	"github.com/satriahrh/voiceover/internal/audio"
)

const (
	mockDurationPerRune = 60 * time.Millisecond
	mockMinDuration     = 300 * time.Millisecond
	mockMaxDuration     = 10 * time.Second
	mockAmplitude       = 0.3
)

// MockTextToSpeech is an offline implementation of text-to-speech.
// It renders a tone whose pitch depends on the voice and whose length
// depends on the text, so output is deterministic.
type MockTextToSpeech struct {
	logger *zap.Logger
}

// NewMockTextToSpeech creates a new mock text-to-speech service
func NewMockTextToSpeech(logger *zap.Logger) *MockTextToSpeech {
	return &MockTextToSpeech{
		logger: logger,
	}
}

var _ repositories.TextToSpeech = (*MockTextToSpeech)(nil)

// Name returns the provider identifier
func (t *MockTextToSpeech) Name() string {
	return "mock"
}

// Synthesize implements repositories.TextToSpeech
func (t *MockTextToSpeech) Synthesize(ctx context.Context, text string, voice entities.VoiceName) (*repositories.Speech, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.logger.Info("Processing text-to-speech",
		zap.String("text", text),
		zap.String("voice", string(voice)))

	duration := mockDurationPerRune * time.Duration(len([]rune(text)))
	if duration < mockMinDuration {
		duration = mockMinDuration
	}
	if duration > mockMaxDuration {
		duration = mockMaxDuration
	}

	f := audio.DefaultFormat
	frames := int(duration * time.Duration(f.SampleRate) / time.Second)
	freq := voiceFrequency(voice)

	samples := make([]int16, frames)
	for i := range samples {
		v := mockAmplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(f.SampleRate))
		samples[i] = audio.FloatToPCM16(float32(v))
	}

	return &repositories.Speech{
		PCM:      audio.SamplesToPCM(samples),
		MIMEType: fmt.Sprintf("audio/L16;codec=pcm;rate=%d", f.SampleRate),
	}, nil
}

// voiceFrequency maps a voice to a tone between 180 and 420 Hz
func voiceFrequency(voice entities.VoiceName) float64 {
	h := fnv.New32a()
	h.Write([]byte(voice))
	return 180 + float64(h.Sum32()%240)
}
