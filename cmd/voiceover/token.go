package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/satriahrh/voiceover/internal/auth"
)

var (
	tokenTTL     time.Duration
	tokenSubject string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print an operator token for the HTTP API",
	Long: `Token signs an operator JWT with VOICEOVER_JWT_SECRET. Send it as
"Authorization: Bearer <token>" or, for websocket clients, as the token query parameter.`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", auth.DefaultTTL, "Token lifetime")
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "operator", "Subject recorded in the token")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.AuthEnabled() {
		return errors.New("VOICEOVER_JWT_SECRET is not set")
	}

	tokens, err := auth.NewTokenManager(cfg.JWTSecret)
	if err != nil {
		return err
	}

	token, expiresAt, err := tokens.GenerateOperatorToken(tokenSubject, tokenTTL)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format(time.RFC3339))
	return nil
}
