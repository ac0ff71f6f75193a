package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BradenHooton/roster/internal/auth"
	"github.com/BradenHooton/roster/internal/config"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var ownerID, email string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for an owner account",
		Long: `Issue a signed bearer token for local use against the API.

The token is signed with JWT_SECRET, so it is only accepted by servers
sharing that secret.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(strings.TrimSpace(ownerID))
			if err != nil {
				return fmt.Errorf("invalid --owner: %w", err)
			}
			cfg, err := config.LoadAuth()
			if err != nil {
				return err
			}

			token, err := auth.NewTokenManager(cfg.JWTSecret, cfg.Issuer).GenerateAccessToken(id.String(), email, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "Owner account UUID (required)")
	cmd.Flags().StringVar(&email, "email", "", "Owner email; import summaries are sent here")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}
