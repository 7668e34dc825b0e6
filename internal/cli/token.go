package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"quiz-grading-service/internal/auth"
	"quiz-grading-service/internal/config"
	"quiz-grading-service/internal/domain"
)

type tokenOptions struct {
	userID string
	role   string
	name   string
	email  string
}

// NewTokenCmd issues a bearer token. Name and email travel as claims and are
// stored in the user directory so result listings can show them.
func NewTokenCmd(configPath *string) *cobra.Command {
	opts := &tokenOptions{}
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := issueToken(cmd.Context(), *configPath, *opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.userID, "user", "", "user id (token subject)")
	cmd.Flags().StringVar(&opts.role, "role", string(domain.RoleUser), "role: admin or user")
	cmd.Flags().StringVar(&opts.name, "name", "", "display name to store in the user directory")
	cmd.Flags().StringVar(&opts.email, "email", "", "email to store in the user directory")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func issueToken(ctx context.Context, configPath string, opts tokenOptions) (string, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return "", err
	}
	role, err := domain.ParseRole(opts.role)
	if err != nil {
		return "", err
	}
	profile := domain.UserProfile{ID: opts.userID, Name: opts.name, Email: opts.email, Role: role}

	if opts.name != "" || opts.email != "" {
		if cfg.Storage.Driver == config.DriverMemory {
			log.Printf("memory storage: profile for %s is registered on its first request", opts.userID)
		} else {
			store, err := openBackend(ctx, cfg)
			if err != nil {
				return "", err
			}
			defer store.Close()
			if err := store.upsert(ctx, profile); err != nil {
				return "", err
			}
		}
	}

	authn := auth.NewAuthenticator(cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))
	return authn.IssueProfileToken(profile)
}
