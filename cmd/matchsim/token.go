package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/matchday/internal/adapters/http/api"
)

func newTokenCmd() *cobra.Command {
	var (
		secret string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Sign a bearer token for the API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				secret = cfg.JWTSecret
			}
			if secret == "" {
				return errors.New("no secret: pass --secret or set MATCHDAY_JWT_SECRET")
			}
			tok, err := api.IssueToken([]byte(secret), args[0], ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "HS256 secret (default from config)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
