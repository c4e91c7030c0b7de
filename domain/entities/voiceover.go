package entities

import (
	"errors"
	"fmt"
	"time"
)

// RunStatus represents the status of a generation run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
)

var (
	// ErrSlideOutOfRange is returned when a slide index does not exist in the run
	ErrSlideOutOfRange = errors.New("slide index out of range")
	// ErrSlideSettled is returned when a slide already has audio or an error
	ErrSlideSettled = errors.New("slide already settled")
)

// SlideVoiceover is the generation state of a single slide.
// AudioURL and Error are never both set; IsLoading is false once either is.
type SlideVoiceover struct {
	ID        string  `json:"id"`
	Index     int     `json:"index"`
	Text      string  `json:"text"`
	AudioURL  *string `json:"audio_url"`
	IsLoading bool    `json:"is_loading"`
	Error     *string `json:"error"`
}

// Run is one generation pass over all slides of an input
type Run struct {
	ID          string           `json:"id"`
	Voice       VoiceName        `json:"voice"`
	Status      RunStatus        `json:"status"`
	Slides      []SlideVoiceover `json:"slides"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// NewRun creates a run with one loading record per slide text, in order
func NewRun(id string, voice VoiceName, texts []string) *Run {
	slides := make([]SlideVoiceover, len(texts))
	for i, text := range texts {
		slides[i] = SlideVoiceover{
			ID:        fmt.Sprintf("slide-%d-%s", i, id),
			Index:     i,
			Text:      text,
			IsLoading: true,
		}
	}
	return &Run{
		ID:        id,
		Voice:     voice,
		Status:    RunStatusRunning,
		Slides:    slides,
		StartedAt: time.Now(),
	}
}

// AudioPath returns the API path serving the WAV clip of a slide
func AudioPath(runID string, index int) string {
	return fmt.Sprintf("/api/v1/runs/%s/slides/%d/audio", runID, index)
}

// DownloadName returns the file name offered when a slide's clip is downloaded
func DownloadName(index int) string {
	return fmt.Sprintf("slide_%d_voiceover.wav", index+1)
}

func (r *Run) slide(index int) (*SlideVoiceover, error) {
	if index < 0 || index >= len(r.Slides) {
		return nil, fmt.Errorf("%w: %d", ErrSlideOutOfRange, index)
	}
	s := &r.Slides[index]
	if !s.IsLoading {
		return nil, fmt.Errorf("%w: %d", ErrSlideSettled, index)
	}
	return s, nil
}

// MarkAudio records the audio reference of a slide and stops its loading state
func (r *Run) MarkAudio(index int, audioURL string) error {
	s, err := r.slide(index)
	if err != nil {
		return err
	}
	s.AudioURL = &audioURL
	s.Error = nil
	s.IsLoading = false
	return nil
}

// MarkFailed records an error message on a slide and stops its loading state
func (r *Run) MarkFailed(index int, message string) error {
	s, err := r.slide(index)
	if err != nil {
		return err
	}
	s.Error = &message
	s.AudioURL = nil
	s.IsLoading = false
	return nil
}

// Complete marks the run as finished
func (r *Run) Complete() {
	now := time.Now()
	r.Status = RunStatusCompleted
	r.CompletedAt = &now
}

// IsRunning reports whether slides are still being generated
func (r *Run) IsRunning() bool {
	return r.Status == RunStatusRunning
}

// Progress returns the number of settled, failed and total slides
func (r *Run) Progress() (settled, failed, total int) {
	for _, s := range r.Slides {
		if s.IsLoading {
			continue
		}
		settled++
		if s.Error != nil {
			failed++
		}
	}
	return settled, failed, len(r.Slides)
}

// Clone returns a deep copy that shares no pointers with r
func (r *Run) Clone() *Run {
	if r == nil {
		return nil
	}
	c := *r
	c.Slides = make([]SlideVoiceover, len(r.Slides))
	for i, s := range r.Slides {
		if s.AudioURL != nil {
			url := *s.AudioURL
			s.AudioURL = &url
		}
		if s.Error != nil {
			msg := *s.Error
			s.Error = &msg
		}
		c.Slides[i] = s
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// Validate validates the run data
func (r *Run) Validate() error {
	if r.ID == "" {
		return errors.New("run id is required")
	}
	if !r.Voice.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidVoice, r.Voice)
	}
	if len(r.Slides) == 0 {
		return errors.New("run has no slides")
	}
	if r.Status != RunStatusRunning && r.Status != RunStatusCompleted {
		return errors.New("invalid run status")
	}
	seen := make(map[string]bool, len(r.Slides))
	for _, s := range r.Slides {
		if seen[s.ID] {
			return fmt.Errorf("duplicate slide id %s", s.ID)
		}
		seen[s.ID] = true
		if s.AudioURL != nil && s.Error != nil {
			return fmt.Errorf("slide %d has both audio and error", s.Index)
		}
	}
	return nil
}
