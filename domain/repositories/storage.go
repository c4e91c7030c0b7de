package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/satriahrh/voiceover/domain/entities"
)

var (
	// ErrRunNotFound is returned when no run matches the requested id
	ErrRunNotFound = errors.New("run not found")
	// ErrClipNotFound is returned when a slide has no rendered clip
	ErrClipNotFound = errors.New("clip not found")
)

// Clip is a rendered WAV file for one slide
type Clip struct {
	Data       []byte
	SampleRate int
	Duration   time.Duration
}

// RunRepository holds the current generation run and its clips.
// Replacing the run discards the previous one together with its clips.
type RunRepository interface {
	Replace(ctx context.Context, run *entities.Run) error
	Update(ctx context.Context, run *entities.Run) error
	Current(ctx context.Context) (*entities.Run, error)
	GetByID(ctx context.Context, id string) (*entities.Run, error)
	SaveClip(ctx context.Context, runID string, index int, clip Clip) error
	GetClip(ctx context.Context, runID string, index int) (*Clip, error)
}
