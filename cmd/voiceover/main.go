package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/satriahrh/voiceover/internal/config"
)

var (
	verbose bool
	logger  = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:           "voiceover",
	Short:         "Generate per-slide voiceover WAV files from slide text",
	SilenceUsage:  true,
	SilenceErrors: false,
	Long: `voiceover turns presentation slide text into one spoken WAV clip per slide.

Every non-empty line of the input is a slide. Slides are sent to the configured
text-to-speech provider one at a time and each result is written as a 24kHz
16-bit mono WAV file. Configuration is read from the environment and .env.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !verbose {
			return nil
		}
		l, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		logger = l
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
}

// loadConfig reads configuration the same way the server does
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func main() {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		// Error already printed by cobra
		os.Exit(1)
	}
}
