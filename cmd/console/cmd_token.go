package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cps-console/internal/auth"
)

func newTokenCmd(c *console) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Operator tokens, password hashes and signing secrets for the reference server",
	}

	var (
		operator string
		ttl      time.Duration
	)
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Sign an operator token with AUTH_JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := auth.NewJWTService(c.cfg.Auth.JWTSecret, c.cfg.Auth.TokenTTL)
			if err != nil {
				return err
			}
			token, err := svc.Issue(operator, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	issue.Flags().StringVar(&operator, "operator", "", "Operator name carried in the token")
	issue.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime; 0 uses AUTH_TOKEN_TTL")
	_ = issue.MarkFlagRequired("operator")

	hash := &cobra.Command{
		Use:   "hash-password PASSWORD",
		Short: "Print the bcrypt hash for an AUTH_OPERATORS entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hashed, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hashed)
			return nil
		},
	}

	var secretBytes int
	secret := &cobra.Command{
		Use:   "secret",
		Short: "Print a random value for AUTH_JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := auth.GenerateSecret(secretBytes)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
	secret.Flags().IntVar(&secretBytes, "bytes", auth.DefaultSecretBytes, "Random bytes to encode")

	cmd.AddCommand(issue, hash, secret)
	return cmd
}
