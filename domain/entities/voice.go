package entities

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidVoice is returned when a voice name is outside the supported set
var ErrInvalidVoice = errors.New("invalid voice")

// VoiceName identifies a prebuilt TTS voice. Values are passed to the API unchanged.
type VoiceName string

const (
	VoiceZephyr VoiceName = "Zephyr"
	VoiceKore   VoiceName = "Kore"
	VoicePuck   VoiceName = "Puck"
	VoiceCharon VoiceName = "Charon"
	VoiceFenrir VoiceName = "Fenrir"
)

// DefaultVoice is used when no voice is selected
const DefaultVoice = VoiceZephyr

// Voice pairs a voice name with its display label
type Voice struct {
	Value   VoiceName `json:"value"`
	Label   string    `json:"label"`
	Default bool      `json:"default"`
}

var availableVoices = []Voice{
	{Value: VoiceZephyr, Label: "Zephyr (Default)", Default: true},
	{Value: VoiceKore, Label: "Kore"},
	{Value: VoicePuck, Label: "Puck"},
	{Value: VoiceCharon, Label: "Charon"},
	{Value: VoiceFenrir, Label: "Fenrir"},
}

// AvailableVoices returns the selectable voices in display order
func AvailableVoices() []Voice {
	voices := make([]Voice, len(availableVoices))
	copy(voices, availableVoices)
	return voices
}

// ParseVoiceName validates a voice name. An empty name selects DefaultVoice.
func ParseVoiceName(name string) (VoiceName, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultVoice, nil
	}
	for _, v := range availableVoices {
		if string(v.Value) == name {
			return v.Value, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidVoice, name)
}

// IsValid reports whether v is one of the supported voices
func (v VoiceName) IsValid() bool {
	_, err := ParseVoiceName(string(v))
	return err == nil && v != ""
}
