package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"trivia-quiz-service/internal/auth"
	"trivia-quiz-service/internal/config"
	"trivia-quiz-service/internal/domain"
)

// NewTokenCmd mints a bearer token for local testing.
func NewTokenCmd(configPath *string) *cobra.Command {
	var (
		identity domain.Identity
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("auth.jwt_secret (JWT_SECRET) not configured")
			}
			if identity.UserID == "" {
				return fmt.Errorf("--user is required")
			}
			token, err := auth.NewIssuer([]byte(cfg.Auth.JWTSecret)).Issue(identity, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&identity.UserID, "user", "", "user id (token subject)")
	cmd.Flags().StringVar(&identity.DisplayName, "name", "", "display name shown on leaderboards")
	cmd.Flags().BoolVar(&identity.IsAdmin, "admin", false, "grant admin access")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime; 0 for no expiry")
	return cmd
}
