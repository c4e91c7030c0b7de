package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satriahrh/voiceover/domain/entities"
)

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List the selectable voices",
	Args:  cobra.NoArgs,
	RunE:  runVoices,
}

func init() {
	rootCmd.AddCommand(voicesCmd)
}

func runVoices(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for _, v := range entities.AvailableVoices() {
		fmt.Fprintf(out, "%-8s %s\n", v.Value, v.Label)
	}
	return nil
}
