package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newEncryptCmd() *cobra.Command {
	var (
		resource      string
		authenticated bool
	)

	cmd := &cobra.Command{
		Use:   "encrypt [plaintext]",
		Short: "Encrypt a secret under a resource id",
		Long:  `Encrypts the argument, or stdin when no argument is given, under the key derived for --resource.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUUIDFlag("resource", resource)
			if err != nil {
				return err
			}
			plaintext, err := argOrStdin(cmd, args)
			if err != nil {
				return err
			}
			engine, _, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer engine.Close()

			encrypt := engine.EncryptSecret
			if authenticated {
				encrypt = engine.SealSecret
			}
			payload, err := encrypt(plaintext, id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), payload)
			return nil
		},
	}

	cmd.Flags().StringVarP(&resource, "resource", "r", "", "resource uuid the key is derived for")
	cmd.Flags().BoolVar(&authenticated, "authenticated", false, "use the authenticated payload format")
	return cmd
}

func newDecryptCmd() *cobra.Command {
	var (
		resource      string
		authenticated bool
	)

	cmd := &cobra.Command{
		Use:   "decrypt [payload]",
		Short: "Decrypt a payload produced by encrypt",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUUIDFlag("resource", resource)
			if err != nil {
				return err
			}
			payload, err := argOrStdin(cmd, args)
			if err != nil {
				return err
			}
			engine, _, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer engine.Close()

			decrypt := engine.DecryptSecret
			if authenticated {
				decrypt = engine.OpenSecret
			}
			plaintext, err := decrypt(strings.TrimSpace(payload), id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), plaintext)
			return nil
		},
	}

	cmd.Flags().StringVarP(&resource, "resource", "r", "", "resource uuid the key is derived for")
	cmd.Flags().BoolVar(&authenticated, "authenticated", false, "expect the authenticated payload format")
	return cmd
}

func argOrStdin(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}
