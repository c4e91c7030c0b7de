package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/satriahrh/voiceover/domain/entities"
	"github.com/satriahrh/voiceover/domain/repositories"
	"github.com/satriahrh/voiceover/internal/audio"
	"github.com/satriahrh/voiceover/internal/input"
	"github.com/satriahrh/voiceover/internal/metrics"
)

// ErrRunInProgress is returned when a run is requested while another one is generating
var ErrRunInProgress = errors.New("a generation run is already in progress")

// ErrServiceClosed is returned for runs requested after Close
var ErrServiceClosed = errors.New("voiceover service is closed")

// failurePrefix starts every per-slide error message
const failurePrefix = "Failed to generate voiceover: "

// Publisher receives a snapshot of the run after every change
type Publisher interface {
	PublishRun(run *entities.Run)
}

// ProgressFunc is called synchronously with a snapshot after every change
type ProgressFunc func(run *entities.Run)

// Option configures a VoiceoverService
type Option func(*VoiceoverService)

// WithPublisher fans snapshots out to p
func WithPublisher(p Publisher) Option {
	return func(s *VoiceoverService) {
		s.publisher = p
	}
}

// WithMetrics records per-slide and per-run metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *VoiceoverService) {
		s.metrics = m
	}
}

// WithRequestsPerMinute spaces successive TTS requests. Zero disables pacing.
func WithRequestsPerMinute(n int) Option {
	return func(s *VoiceoverService) {
		if n > 0 {
			s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
		}
	}
}

// WithIDGenerator overrides how run ids are generated
func WithIDGenerator(fn func() string) Option {
	return func(s *VoiceoverService) {
		s.newID = fn
	}
}

// VoiceoverService turns slide texts into WAV clips one slide at a time
type VoiceoverService struct {
	tts       repositories.TextToSpeech
	runs      repositories.RunRepository
	publisher Publisher
	metrics   *metrics.Metrics
	limiter   *rate.Limiter
	newID     func() string
	logger    *zap.Logger

	// background runs are bound to baseCtx rather than to the request that started them
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu      sync.Mutex
	running bool
}

// NewVoiceoverService creates a new voiceover service
func NewVoiceoverService(
	tts repositories.TextToSpeech,
	runs repositories.RunRepository,
	logger *zap.Logger,
	opts ...Option,
) *VoiceoverService {
	baseCtx, cancel := context.WithCancel(context.Background())
	s := &VoiceoverService{
		tts:     tts,
		runs:    runs,
		newID:   uuid.NewString,
		logger:  logger,
		baseCtx: baseCtx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates a run for text and generates it in the background.
// The returned snapshot has every slide loading.
func (s *VoiceoverService) Start(ctx context.Context, text, voice string) (*entities.Run, error) {
	run, err := s.begin(ctx, text, voice, nil)
	if err != nil {
		return nil, err
	}
	snapshot := run.Clone()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.process(s.baseCtx, run, nil)
	}()

	return snapshot, nil
}

// Generate creates a run for text and generates it before returning.
// onProgress, if set, observes the initial state and every slide update.
func (s *VoiceoverService) Generate(ctx context.Context, text, voice string, onProgress ProgressFunc) (*entities.Run, error) {
	run, err := s.begin(ctx, text, voice, onProgress)
	if err != nil {
		return nil, err
	}
	s.process(ctx, run, onProgress)
	return run.Clone(), nil
}

// IsRunning reports whether a run is generating
func (s *VoiceoverService) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Wait blocks until background runs have finished
func (s *VoiceoverService) Wait() {
	s.wg.Wait()
}

// Close stops background generation and waits for it to return
func (s *VoiceoverService) Close() {
	s.cancel()
	s.wg.Wait()
}

// CurrentRun returns a snapshot of the latest run
func (s *VoiceoverService) CurrentRun(ctx context.Context) (*entities.Run, error) {
	return s.runs.Current(ctx)
}

// GetRun returns a snapshot of the run with the given id
func (s *VoiceoverService) GetRun(ctx context.Context, id string) (*entities.Run, error) {
	return s.runs.GetByID(ctx, id)
}

// GetClip returns the WAV clip of a slide
func (s *VoiceoverService) GetClip(ctx context.Context, runID string, index int) (*repositories.Clip, error) {
	return s.runs.GetClip(ctx, runID, index)
}

// begin validates input, claims the single run slot and stores the new run
func (s *VoiceoverService) begin(ctx context.Context, text, voiceName string, onProgress ProgressFunc) (*entities.Run, error) {
	slides, err := input.RequireSlides(text)
	if err != nil {
		return nil, err
	}

	voice, err := entities.ParseVoiceName(voiceName)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.baseCtx.Err() != nil {
		s.mu.Unlock()
		return nil, ErrServiceClosed
	}
	if s.running {
		s.mu.Unlock()
		return nil, ErrRunInProgress
	}
	s.running = true
	s.mu.Unlock()

	run := entities.NewRun(s.newID(), voice, slides)
	if err := s.runs.Replace(ctx, run.Clone()); err != nil {
		s.release()
		return nil, fmt.Errorf("failed to store run: %w", err)
	}

	s.metrics.RunStarted()
	s.logger.Info("Generation run started",
		zap.String("runID", run.ID),
		zap.String("voice", string(voice)),
		zap.String("provider", s.tts.Name()),
		zap.Int("slides", len(slides)))

	s.publish(ctx, run, onProgress)
	return run, nil
}

// process generates every slide in order, one request at a time
func (s *VoiceoverService) process(ctx context.Context, run *entities.Run, onProgress ProgressFunc) {
	defer s.release()

	for i := range run.Slides {
		s.generateSlide(ctx, run, i)
		s.publish(ctx, run, onProgress)
	}

	run.Complete()
	s.publish(ctx, run, onProgress)

	settled, failed, total := run.Progress()
	s.metrics.RunFinished(failed, total)
	s.logger.Info("Generation run completed",
		zap.String("runID", run.ID),
		zap.Int("settled", settled),
		zap.Int("failed", failed),
		zap.Int("total", total),
		zap.Duration("elapsed", time.Since(run.StartedAt)))
}

// generateSlide settles one slide with either an audio reference or an error
func (s *VoiceoverService) generateSlide(ctx context.Context, run *entities.Run, index int) {
	slide := run.Slides[index]
	start := time.Now()

	clip, err := s.synthesize(ctx, slide.Text, run.Voice)
	if err == nil {
		err = s.runs.SaveClip(ctx, run.ID, index, *clip)
	}

	var audioLength time.Duration
	if err != nil {
		s.logger.Error("Error generating voiceover for slide",
			zap.String("runID", run.ID),
			zap.Int("slide", index),
			zap.Error(err))
		if markErr := run.MarkFailed(index, FailureMessage(err)); markErr != nil {
			s.logger.Error("Failed to record slide error", zap.Error(markErr))
		}
	} else {
		audioLength = clip.Duration
		s.logger.Info("Slide voiceover generated",
			zap.String("runID", run.ID),
			zap.Int("slide", index),
			zap.Int("bytes", len(clip.Data)),
			zap.Duration("audio", clip.Duration))
		if markErr := run.MarkAudio(index, entities.AudioPath(run.ID, index)); markErr != nil {
			s.logger.Error("Failed to record slide audio", zap.Error(markErr))
		}
	}

	s.metrics.RecordSlide(s.tts.Name(), string(run.Voice), time.Since(start), audioLength, err)
}

// synthesize requests speech for one text and wraps it as WAV
func (s *VoiceoverService) synthesize(ctx context.Context, text string, voice entities.VoiceName) (*repositories.Clip, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	speech, err := s.tts.Synthesize(ctx, text, voice)
	if err != nil {
		return nil, err
	}
	if speech == nil || len(speech.PCM) == 0 {
		return nil, repositories.ErrNoAudioData
	}

	f := audio.ParseMIMEFormat(speech.MIMEType)
	wav, err := audio.EncodeWAV(speech.PCM, f)
	if err != nil {
		return nil, fmt.Errorf("failed to encode wav: %w", err)
	}

	return &repositories.Clip{
		Data:       wav,
		SampleRate: f.SampleRate,
		Duration:   f.Duration(len(speech.PCM)),
	}, nil
}

// publish stores and fans out a snapshot of run
func (s *VoiceoverService) publish(ctx context.Context, run *entities.Run, onProgress ProgressFunc) {
	if err := s.runs.Update(ctx, run.Clone()); err != nil {
		s.logger.Warn("Failed to update run",
			zap.String("runID", run.ID),
			zap.Error(err))
	}
	if s.publisher != nil {
		s.publisher.PublishRun(run.Clone())
	}
	if onProgress != nil {
		onProgress(run.Clone())
	}
}

func (s *VoiceoverService) release() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// noAudioDataMessage is shown for a response that carried no audio
const noAudioDataMessage = "No audio data received from the API."

// FailureMessage renders the display string stored on a failed slide
func FailureMessage(err error) string {
	if errors.Is(err, repositories.ErrNoAudioData) {
		return failurePrefix + noAudioDataMessage
	}
	return failurePrefix + err.Error()
}
