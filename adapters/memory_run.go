package adapters

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/satriahrh/voiceover/domain/entities"
	"github.com/satriahrh/voiceover/domain/repositories"
)

// MemoryRunRepository is an in-memory implementation of RunRepository.
// It keeps only the current run; replacing it discards the previous run and its clips.
type MemoryRunRepository struct {
	mu    sync.RWMutex
	run   *entities.Run
	clips map[int]repositories.Clip // slide index -> clip of the current run
}

// NewMemoryRunRepository creates a new in-memory run repository
func NewMemoryRunRepository() *MemoryRunRepository {
	return &MemoryRunRepository{
		clips: make(map[int]repositories.Clip),
	}
}

// Replace implements RunRepository interface
func (m *MemoryRunRepository) Replace(ctx context.Context, run *entities.Run) error {
	if run == nil {
		return errors.New("run cannot be nil")
	}
	if err := run.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.run = run.Clone()
	m.clips = make(map[int]repositories.Clip)
	return nil
}

// Update implements RunRepository interface
func (m *MemoryRunRepository) Update(ctx context.Context, run *entities.Run) error {
	if run == nil {
		return errors.New("run cannot be nil")
	}
	if err := run.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.run == nil || m.run.ID != run.ID {
		return fmt.Errorf("%w: %s", repositories.ErrRunNotFound, run.ID)
	}

	m.run = run.Clone()
	return nil
}

// Current implements RunRepository interface
func (m *MemoryRunRepository) Current(ctx context.Context) (*entities.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.run == nil {
		return nil, repositories.ErrRunNotFound
	}
	return m.run.Clone(), nil
}

// GetByID implements RunRepository interface
func (m *MemoryRunRepository) GetByID(ctx context.Context, id string) (*entities.Run, error) {
	if id == "" {
		return nil, errors.New("run ID cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.run == nil || m.run.ID != id {
		return nil, fmt.Errorf("%w: %s", repositories.ErrRunNotFound, id)
	}
	return m.run.Clone(), nil
}

// SaveClip implements RunRepository interface
func (m *MemoryRunRepository) SaveClip(ctx context.Context, runID string, index int, clip repositories.Clip) error {
	if len(clip.Data) == 0 {
		return errors.New("clip cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.run == nil || m.run.ID != runID {
		return fmt.Errorf("%w: %s", repositories.ErrRunNotFound, runID)
	}
	if index < 0 || index >= len(m.run.Slides) {
		return fmt.Errorf("%w: %d", entities.ErrSlideOutOfRange, index)
	}

	data := make([]byte, len(clip.Data))
	copy(data, clip.Data)
	clip.Data = data
	m.clips[index] = clip
	return nil
}

// GetClip implements RunRepository interface
func (m *MemoryRunRepository) GetClip(ctx context.Context, runID string, index int) (*repositories.Clip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.run == nil || m.run.ID != runID {
		return nil, fmt.Errorf("%w: %s", repositories.ErrRunNotFound, runID)
	}

	clip, exists := m.clips[index]
	if !exists {
		return nil, fmt.Errorf("%w: slide %d", repositories.ErrClipNotFound, index)
	}

	// Return a copy to prevent external modifications
	data := make([]byte, len(clip.Data))
	copy(data, clip.Data)
	clip.Data = data
	return &clip, nil
}
