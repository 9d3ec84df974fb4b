package main

import (
	"fmt"
	"log"
	"time"

	"grateful-roasted/internal/config"
	"grateful-roasted/internal/server"

	"github.com/spf13/cobra"
)

func newCmd(cfg *config.Config) *cobra.Command {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}

	cmd := &cobra.Command{
		Use:   "grateful-roasted",
		Short: "Backend for Grateful & Roasted, a party game of anonymous thanks and roasts.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), *cfg)
		},
	}

	fs := cmd.PersistentFlags()
	cfg.RegisterFlags(fs)
	config.Bind(fs)

	cmd.AddCommand(newTokenCmd(cfg))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

// newTokenCmd signs a host token, for local testing without an identity
// provider.
func newTokenCmd(cfg *config.Config) *cobra.Command {
	var (
		hostID string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed host token",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := server.IssueHostToken(cfg.HostAuthSecret, hostID, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&hostID, "host-id", "", "subject of the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("host-id")
	return cmd
}
