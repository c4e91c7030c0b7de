package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/satriahrh/voiceover/adapters"
	"github.com/satriahrh/voiceover/domain/entities"
	"github.com/satriahrh/voiceover/domain/repositories"
	"github.com/satriahrh/voiceover/internal/input"
	"github.com/satriahrh/voiceover/usecase"
)

// errAllSlidesFailed makes the command exit non-zero when nothing was generated
var errAllSlidesFailed = errors.New("every slide failed to generate")

type generateOptions struct {
	file   string
	text   string
	voice  string
	outDir string
}

var genOpts generateOptions

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one WAV file per slide",
	Long: `Generate reads slide text from a .txt file (--file) or from --text, sends each
non-empty line to the text-to-speech provider in order and writes
slide_<n>_voiceover.wav files into the output directory.

A slide that fails is reported and skipped; the command only fails when no
slide could be generated.`,
	Example: `  voiceover generate -f slides.txt -v Kore -o out/
  voiceover generate -t "Welcome to the demo" -v Puck`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&genOpts.file, "file", "f", "", "Path to a .txt file with one slide per line")
	generateCmd.Flags().StringVarP(&genOpts.text, "text", "t", "", "Slide text, one slide per line")
	generateCmd.Flags().StringVarP(&genOpts.voice, "voice", "v", string(entities.DefaultVoice), "Voice to use")
	generateCmd.Flags().StringVarP(&genOpts.outDir, "out", "o", ".", "Output directory")
	generateCmd.MarkFlagsMutuallyExclusive("file", "text")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	text, err := readSlideText(genOpts, cfg.MaxUploadBytes)
	if err != nil {
		return err
	}

	tts, err := adapters.NewTextToSpeech(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize text-to-speech: %w", err)
	}

	service := usecase.NewVoiceoverService(tts, adapters.NewMemoryRunRepository(), logger,
		usecase.WithRequestsPerMinute(cfg.RequestsPerMinute))

	return generateVoiceovers(cmd, service, text, genOpts.voice, genOpts.outDir)
}

// readSlideText returns the slide source from --file or --text
func readSlideText(opts generateOptions, maxSize int64) (string, error) {
	if opts.file == "" {
		return opts.text, nil
	}

	f, err := os.Open(opts.file)
	if err != nil {
		return "", fmt.Errorf("%w: %v", input.ErrReadFailed, err)
	}
	defer f.Close()

	return input.LoadTextFile(filepath.Base(opts.file), f, maxSize)
}

// generateVoiceovers runs one generation pass and writes every clip into outDir
func generateVoiceovers(cmd *cobra.Command, service *usecase.VoiceoverService, text, voice, outDir string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	reported := 0
	run, err := service.Generate(ctx, text, voice, func(run *entities.Run) {
		reported = reportProgress(out, run, reported)
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	written := 0
	for _, slide := range run.Slides {
		if slide.AudioURL == nil {
			continue
		}
		clip, err := service.GetClip(ctx, run.ID, slide.Index)
		if err != nil {
			return fmt.Errorf("failed to load clip %d: %w", slide.Index, err)
		}
		if err := writeClip(outDir, slide.Index, clip); err != nil {
			return err
		}
		written++
	}

	_, failed, total := run.Progress()
	fmt.Fprintf(out, "%d of %d slides written to %s\n", written, total, outDir)
	logger.Info("Generation finished",
		zap.String("runID", run.ID),
		zap.Int("written", written),
		zap.Int("failed", failed))

	if failed == total {
		return errAllSlidesFailed
	}
	return nil
}

// reportProgress prints slides settled since the previous call and returns the new count
func reportProgress(w io.Writer, run *entities.Run, reported int) int {
	for reported < len(run.Slides) && !run.Slides[reported].IsLoading {
		slide := run.Slides[reported]
		if slide.Error != nil {
			fmt.Fprintf(w, "[%d/%d] %s\n", slide.Index+1, len(run.Slides), *slide.Error)
		} else {
			fmt.Fprintf(w, "[%d/%d] %s\n", slide.Index+1, len(run.Slides), entities.DownloadName(slide.Index))
		}
		reported++
	}
	return reported
}

func writeClip(outDir string, index int, clip *repositories.Clip) error {
	path := filepath.Join(outDir, entities.DownloadName(index))
	if err := os.WriteFile(path, clip.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
