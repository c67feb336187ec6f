package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/buraq-dev/keycore/jwt"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign and verify JWTs with stored server keys",
	}

	cmd.AddCommand(newTokenSignCmd())
	cmd.AddCommand(newTokenVerifyCmd())
	return cmd
}

func newTokenSignCmd() *cobra.Command {
	var (
		envID, keyID, subject string
		lifetime              time.Duration
	)

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a token for a subject",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := parseUUIDFlag("env", envID)
			if err != nil {
				return err
			}
			id, err := parseUUIDFlag("key", keyID)
			if err != nil {
				return err
			}
			if subject == "" {
				return fmt.Errorf("--subject is required")
			}

			engine, ctx, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer engine.Close()
			if err := requireStore(engine); err != nil {
				return err
			}

			claims := engine.NewClaims(subject)
			if lifetime > 0 {
				claims = jwt.NewClaims(subject, lifetime)
			}
			token, err := engine.SignToken(ctx, env, id, claims)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&envID, "env", "e", "", "environment uuid")
	cmd.Flags().StringVarP(&keyID, "key", "k", "", "server key uuid")
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "token subject")
	cmd.Flags().DurationVar(&lifetime, "lifetime", 0, "token lifetime (defaults to BURAQ_TOKEN_LIFETIME)")
	return cmd
}

func newTokenVerifyCmd() *cobra.Command {
	var envID, keyID string

	cmd := &cobra.Command{
		Use:   "verify [token]",
		Short: "Verify a token and print its claims",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := parseUUIDFlag("env", envID)
			if err != nil {
				return err
			}
			id, err := parseUUIDFlag("key", keyID)
			if err != nil {
				return err
			}
			token, err := argOrStdin(cmd, args)
			if err != nil {
				return err
			}

			engine, ctx, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer engine.Close()
			if err := requireStore(engine); err != nil {
				return err
			}

			claims, err := engine.VerifyToken(ctx, env, id, strings.TrimSpace(token), jwt.ParseOptions{})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "subject: %s\n", claims.Subject)
			if claims.Issuer != "" {
				fmt.Fprintf(out, "issuer: %s\n", claims.Issuer)
			}
			if len(claims.Audience) > 0 {
				fmt.Fprintf(out, "audience: %s\n", strings.Join(claims.Audience, ","))
			}
			fmt.Fprintf(out, "issued at: %s\n", claims.IssuedAt.UTC().Format(time.RFC3339))
			fmt.Fprintf(out, "expires at: %s\n", claims.ExpiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVarP(&envID, "env", "e", "", "environment uuid")
	cmd.Flags().StringVarP(&keyID, "key", "k", "", "server key uuid")
	return cmd
}
