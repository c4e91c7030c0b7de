package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/voiceover/adapters"
	"github.com/satriahrh/voiceover/adapters/speech"
	"github.com/satriahrh/voiceover/domain/entities"
	"github.com/satriahrh/voiceover/domain/repositories"
	"github.com/satriahrh/voiceover/internal/audio"
	"github.com/satriahrh/voiceover/internal/input"
	"github.com/satriahrh/voiceover/usecase"
)

// failingTTS fails every slide whose text is listed
type failingTTS struct {
	repositories.TextToSpeech
	fail map[string]bool
}

func (f *failingTTS) Synthesize(ctx context.Context, text string, voice entities.VoiceName) (*repositories.Speech, error) {
	if f.fail[text] {
		return nil, errors.New("quota exceeded")
	}
	return f.TextToSpeech.Synthesize(ctx, text, voice)
}

func newTestCommand() (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	return cmd, &out
}

func newTestService(t *testing.T, fail ...string) *usecase.VoiceoverService {
	logger := zaptest.NewLogger(t)
	tts := &failingTTS{TextToSpeech: speech.NewMockTextToSpeech(logger), fail: map[string]bool{}}
	for _, text := range fail {
		tts.fail[text] = true
	}
	return usecase.NewVoiceoverService(tts, adapters.NewMemoryRunRepository(), logger)
}

func TestGenerateVoiceovers_WritesClips(t *testing.T) {
	cmd, out := newTestCommand()
	dir := filepath.Join(t.TempDir(), "out")

	err := generateVoiceovers(cmd, newTestService(t), "Hello\n\nWorld", "Kore", dir)
	require.NoError(t, err)

	for _, name := range []string{"slide_1_voiceover.wav", "slide_2_voiceover.wav"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		f, _, err := audio.DecodeWAV(data)
		require.NoError(t, err)
		assert.Equal(t, audio.DefaultFormat, f)
	}

	assert.Contains(t, out.String(), "[1/2] slide_1_voiceover.wav")
	assert.Contains(t, out.String(), "[2/2] slide_2_voiceover.wav")
	assert.Contains(t, out.String(), "2 of 2 slides written")
}

func TestGenerateVoiceovers_PartialFailure(t *testing.T) {
	cmd, out := newTestCommand()
	dir := t.TempDir()

	err := generateVoiceovers(cmd, newTestService(t, "Broken"), "Fine\nBroken", "Kore", dir)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "slide_1_voiceover.wav"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "slide_2_voiceover.wav"))
	assert.True(t, os.IsNotExist(err))

	assert.Contains(t, out.String(), "[2/2] Failed to generate voiceover: quota exceeded")
	assert.Contains(t, out.String(), "1 of 2 slides written")
}

func TestGenerateVoiceovers_AllFailed(t *testing.T) {
	cmd, _ := newTestCommand()

	err := generateVoiceovers(cmd, newTestService(t, "Broken"), "Broken", "Kore", t.TempDir())
	assert.ErrorIs(t, err, errAllSlidesFailed)
}

func TestGenerateVoiceovers_InvalidInput(t *testing.T) {
	cmd, _ := newTestCommand()

	err := generateVoiceovers(cmd, newTestService(t), "   ", "Kore", t.TempDir())
	assert.ErrorIs(t, err, input.ErrNoSlides)

	err = generateVoiceovers(cmd, newTestService(t), "Hi", "Robot", t.TempDir())
	assert.ErrorIs(t, err, entities.ErrInvalidVoice)
}

func TestReadSlideText(t *testing.T) {
	dir := t.TempDir()
	textFile := filepath.Join(dir, "slides.txt")
	require.NoError(t, os.WriteFile(textFile, []byte("One\nTwo"), 0o644))
	otherFile := filepath.Join(dir, "slides.md")
	require.NoError(t, os.WriteFile(otherFile, []byte("One"), 0o644))

	text, err := readSlideText(generateOptions{text: "inline"}, 1024)
	require.NoError(t, err)
	assert.Equal(t, "inline", text)

	text, err = readSlideText(generateOptions{file: textFile}, 1024)
	require.NoError(t, err)
	assert.Equal(t, "One\nTwo", text)

	_, err = readSlideText(generateOptions{file: otherFile}, 1024)
	assert.ErrorIs(t, err, input.ErrNotTextFile)

	_, err = readSlideText(generateOptions{file: filepath.Join(dir, "missing.txt")}, 1024)
	assert.ErrorIs(t, err, input.ErrReadFailed)

	_, err = readSlideText(generateOptions{file: textFile}, 3)
	assert.ErrorIs(t, err, input.ErrFileTooLarge)
}

func TestRunVoices(t *testing.T) {
	cmd, out := newTestCommand()
	require.NoError(t, runVoices(cmd, nil))
	assert.Contains(t, out.String(), "Zephyr")
	assert.Contains(t, out.String(), "Zephyr (Default)")
	assert.Contains(t, out.String(), "Fenrir")
}
